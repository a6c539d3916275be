package assemble

import (
	"strings"
	"testing"

	"github.com/travis-heavener/tpu2-sub000/internal/tpu/memory"
)

func TestForwardJumpBackpatch(t *testing.T) {
	src := `
section .text
main:
  jmp later
  nop
later:
  hlt
`
	mem, err := Assemble(strings.NewReader(src))
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	// jmp main_addr+2 (mod byte) holds the operand address.
	laterAddr := mem.GetWord(memory.TextLowerAddr + 2)
	if laterAddr != memory.TextLowerAddr+5 {
		t.Errorf("backpatch got: %#04x expected: %#04x", laterAddr, memory.TextLowerAddr+5)
	}
}

func TestMissingMainIsFatal(t *testing.T) {
	src := `
section .text
start:
  hlt
`
	_, err := Assemble(strings.NewReader(src))
	if err == nil {
		t.Errorf("expected a missing-main error")
	}
}

func TestHelloWorldAssembles(t *testing.T) {
	src := `
section .data
msg str "hi"
section .text
main:
  movw BX, msg
  movw CX, 2
  movw AX, 1
  syscall
  hlt
`
	mem, err := Assemble(strings.NewReader(src))
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	if mem.GetByte(memory.DataLowerAddr) != 'h' || mem.GetByte(memory.DataLowerAddr+1) != 'i' {
		t.Errorf("data section not laid out correctly")
	}
	// Bootstrap header must be an unconditional jmp to main.
	if mem.GetByte(memory.InstructionPtrStart) != 5 { // opcode.JMP == 5
		t.Errorf("bootstrap header opcode wrong: %d", mem.GetByte(memory.InstructionPtrStart))
	}
	mainAddr := mem.GetWord(memory.InstructionPtrStart + 2)
	if mainAddr != memory.TextLowerAddr {
		t.Errorf("bootstrap target got: %#04x expected: %#04x", mainAddr, memory.TextLowerAddr)
	}
}

func TestPushLabelRequiresWideForm(t *testing.T) {
	src := `
section .text
main:
  push main
  hlt
`
	_, err := Assemble(strings.NewReader(src))
	if err == nil {
		t.Errorf("expected push of a label to be rejected")
	}
}

func TestPushNumericAddrEncodesMod4(t *testing.T) {
	src := `
section .text
main:
  push @0x8000
  hlt
`
	mem, err := Assemble(strings.NewReader(src))
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	if mem.GetByte(memory.TextLowerAddr+1) != 4 {
		t.Errorf("push @addr mod got: %d expected: 4", mem.GetByte(memory.TextLowerAddr+1))
	}
	addr := mem.GetWord(memory.TextLowerAddr + 2)
	if addr != 0x8000 {
		t.Errorf("push @addr operand got: %#04x expected: 0x8000", addr)
	}
}

func TestPushwNumericAddrAlsoEncodesMod4(t *testing.T) {
	src := `
section .text
main:
  pushw @0x8000
  hlt
`
	mem, err := Assemble(strings.NewReader(src))
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	if mem.GetByte(memory.TextLowerAddr+1) != 4 {
		t.Errorf("pushw @addr mod got: %d expected: 4 (a numeric @addr always reads a byte, independent of push/pushw)", mem.GetByte(memory.TextLowerAddr+1))
	}
	addr := mem.GetWord(memory.TextLowerAddr + 2)
	if addr != 0x8000 {
		t.Errorf("pushw @addr operand got: %#04x expected: 0x8000", addr)
	}
}
