package disasm

import (
	"testing"

	"github.com/travis-heavener/tpu2-sub000/internal/tpu/memory"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/opcode"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/register"
)

func TestDecodeMovRegImm(t *testing.T) {
	mem := memory.New()
	mem.PutByte(0x10, byte(opcode.MOV))
	mem.PutByte(0x11, 2)
	mem.PutByte(0x12, register.AL.Code())
	mem.PutByte(0x13, 42)

	inst := Decode(mem, 0x10)
	if inst.Len != 4 {
		t.Errorf("length got: %d expected: 4", inst.Len)
	}
	want := "mov AL, 42"
	if inst.Text != want {
		t.Errorf("text got: %q expected: %q", inst.Text, want)
	}
}

func TestDecodeHlt(t *testing.T) {
	mem := memory.New()
	mem.PutByte(0x00, byte(opcode.HLT))
	inst := Decode(mem, 0x00)
	if inst.Text != "hlt" || inst.Len != 1 {
		t.Errorf("got: %q len %d", inst.Text, inst.Len)
	}
}
