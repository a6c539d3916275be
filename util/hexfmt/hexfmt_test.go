package hexfmt

import "testing"

func TestByteFormatsTwoDigits(t *testing.T) {
	if got := Byte(0x0a); got != "0A" {
		t.Errorf("Byte(0x0a) = %s, expected: 0A", got)
	}
}

func TestWordFormatsFourDigits(t *testing.T) {
	if got := Word(0xbeef); got != "BEEF" {
		t.Errorf("Word(0xbeef) = %s, expected: BEEF", got)
	}
}

func TestAddrAddsPrefix(t *testing.T) {
	if got := Addr(0x8000); got != "0x8000" {
		t.Errorf("Addr(0x8000) = %s, expected: 0x8000", got)
	}
}

func TestDumpProducesOneLinePerSixteenBytes(t *testing.T) {
	data := make([]byte, 20)
	out := Dump(0x8000, data)
	lines := 0
	for _, c := range out {
		if c == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Errorf("Dump produced %d lines, expected: 2", lines)
	}
}
