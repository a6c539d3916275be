package cpu

import (
	"bytes"
	"testing"

	"github.com/travis-heavener/tpu2-sub000/internal/tpu/memory"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/opcode"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/register"
)

func newTestCPU() (*CPU, *bytes.Buffer) {
	mem := memory.New()
	var out bytes.Buffer
	return New(mem, &out), &out
}

// MOV AL,255; ADD AL,1 => AL=0, ZERO=1, CARRY=1, SIGN=0, PARITY=1.
func TestFlagsOnAddition(t *testing.T) {
	c, _ := newTestCPU()
	c.Mem.PutByte(memory.TextLowerAddr+0, byte(opcode.MOV))
	c.Mem.PutByte(memory.TextLowerAddr+1, 2) // reg8 <- imm8
	c.Mem.PutByte(memory.TextLowerAddr+2, register.AL.Code())
	c.Mem.PutByte(memory.TextLowerAddr+3, 255)

	c.Mem.PutByte(memory.TextLowerAddr+4, byte(opcode.ADD))
	c.Mem.PutByte(memory.TextLowerAddr+5, 0) // reg8, imm8
	c.Mem.PutByte(memory.TextLowerAddr+6, register.AL.Code())
	c.Mem.PutByte(memory.TextLowerAddr+7, 1)

	c.IP = memory.TextLowerAddr
	if err := c.Step(); err != nil {
		t.Fatalf("MOV step failed: %v", err)
	}
	if err := c.Step(); err != nil {
		t.Fatalf("ADD step failed: %v", err)
	}

	if c.GetReg8(register.AL) != 0 {
		t.Errorf("AL got: %d expected: 0", c.GetReg8(register.AL))
	}
	if !c.getFlag(FlagZero) {
		t.Errorf("ZERO should be set")
	}
	if !c.getFlag(FlagCarry) {
		t.Errorf("CARRY should be set")
	}
	if c.getFlag(FlagSign) {
		t.Errorf("SIGN should be clear")
	}
	if !c.getFlag(FlagParity) {
		t.Errorf("PARITY should be set (0 has even parity)")
	}
}

func TestPushPopIdentity(t *testing.T) {
	c, _ := newTestCPU()
	c.SetReg8(register.BL, 0x42)
	c.pushByte(c.GetReg8(register.BL))
	c.SetReg8(register.BL, 0)
	c.SetReg8(register.BL, c.popByte())
	if c.GetReg8(register.BL) != 0x42 {
		t.Errorf("push/pop identity failed got: %#02x", c.GetReg8(register.BL))
	}
}

func TestPushwPopwIdentity(t *testing.T) {
	c, _ := newTestCPU()
	c.SetReg16(register.BX, 0xBEEF)
	c.pushWord(c.GetReg16(register.BX))
	c.SetReg16(register.BX, 0)
	c.SetReg16(register.BX, c.popWord())
	if c.GetReg16(register.BX) != 0xBEEF {
		t.Errorf("pushw/popw identity failed got: %#04x", c.GetReg16(register.BX))
	}
}

func TestCallRetIsIdentityOnIP(t *testing.T) {
	c, _ := newTestCPU()
	c.IP = memory.TextLowerAddr
	c.Mem.PutByte(c.IP, byte(opcode.CALL))
	c.Mem.PutWord(c.IP+1, 0x9000)
	c.Mem.PutByte(0x9000, byte(opcode.RET))

	startIP := c.IP + 3 // address right after the CALL instruction
	if err := c.Step(); err != nil {
		t.Fatalf("CALL failed: %v", err)
	}
	if c.IP != 0x9000 {
		t.Fatalf("CALL did not transfer control, IP=%#04x", c.IP)
	}
	if err := c.Step(); err != nil {
		t.Fatalf("RET failed: %v", err)
	}
	if c.IP != startIP {
		t.Errorf("CALL/RET not identity on IP got: %#04x expected: %#04x", c.IP, startIP)
	}
}

// Hello-world syscall scenario from spec.md §8.
func TestHelloWorldSyscall(t *testing.T) {
	c, out := newTestCPU()
	c.Mem.PutByte(memory.DataLowerAddr, 'h')
	c.Mem.PutByte(memory.DataLowerAddr+1, 'i')

	prog := []byte{
		byte(opcode.MOVW), 0, register.BX.Code(), byte(memory.DataLowerAddr & 0xFF), byte(memory.DataLowerAddr >> 8),
		byte(opcode.MOVW), 0, register.CX.Code(), 2, 0,
		byte(opcode.MOVW), 0, register.AX.Code(), 1, 0,
		byte(opcode.SYSCALL),
		byte(opcode.HLT),
	}
	if err := c.Mem.PutBytes(memory.TextLowerAddr, prog); err != nil {
		t.Fatalf("layout failed: %v", err)
	}
	c.IP = memory.TextLowerAddr
	if err := c.Start(); err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if out.String() != "hi" {
		t.Errorf("stdout got: %q expected: %q", out.String(), "hi")
	}
	if c.ES != 0 {
		t.Errorf("ES got: %d expected: 0", c.ES)
	}
}

func TestMul16WritesUpperHalf(t *testing.T) {
	c, _ := newTestCPU()
	c.AX = 0x0002
	c.Mem.PutByte(memory.TextLowerAddr, byte(opcode.MUL))
	c.Mem.PutByte(memory.TextLowerAddr+1, 3) // imm16 operand
	c.Mem.PutWord(memory.TextLowerAddr+2, 0x8000)
	c.IP = memory.TextLowerAddr
	if err := c.Step(); err != nil {
		t.Fatalf("MUL failed: %v", err)
	}
	if c.AX != 0x0000 || c.DX != 0x0001 {
		t.Errorf("MUL product got AX=%#04x DX=%#04x expected AX=0x0000 DX=0x0001", c.AX, c.DX)
	}
	if !c.getFlag(FlagCarry) {
		t.Errorf("CARRY should be set when upper half is non-zero")
	}
}
