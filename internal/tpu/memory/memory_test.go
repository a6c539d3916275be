package memory

import "testing"

func TestWordRoundTrip(t *testing.T) {
	m := New()
	for w := 0; w <= 0xFFFF; w += 257 {
		m.PutWord(0x1000, uint16(w))
		got := m.GetWord(0x1000)
		if got != uint16(w) {
			t.Errorf("word round-trip failed got: %#04x expected: %#04x", got, w)
		}
	}
}

func TestByteOrderIsLittleEndian(t *testing.T) {
	m := New()
	m.PutWord(0x2000, 0x1234)
	if m.GetByte(0x2000) != 0x34 {
		t.Errorf("low byte got: %#02x expected: 0x34", m.GetByte(0x2000))
	}
	if m.GetByte(0x2001) != 0x12 {
		t.Errorf("high byte got: %#02x expected: 0x12", m.GetByte(0x2001))
	}
}

func TestPutBytesOverrun(t *testing.T) {
	m := New()
	err := m.PutBytes(0xFFFE, []byte{1, 2, 3})
	if err == nil {
		t.Errorf("expected overrun error, got nil")
	}
}

func TestResetZeroesMemory(t *testing.T) {
	m := New()
	m.PutByte(5, 0xAB)
	m.Reset()
	if m.GetByte(5) != 0 {
		t.Errorf("reset left non-zero byte got: %#02x expected: 0", m.GetByte(5))
	}
}
