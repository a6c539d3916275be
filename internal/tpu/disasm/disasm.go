// Package disasm renders TPU bytecode back into assembly mnemonic text,
// sharing the opcode/MOD encoding contract with internal/tpu/cpu and
// internal/tpu/assemble. Grounded on emu/disassemble/disassemble.go's
// shape: walk memory instruction-by-instruction, format one line per
// instruction.
package disasm

import (
	"fmt"
	"strings"

	"github.com/travis-heavener/tpu2-sub000/internal/tpu/memory"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/opcode"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/register"
)

// Instruction is one decoded instruction: its address, its length in
// bytes, and its rendered mnemonic text.
type Instruction struct {
	Addr uint16
	Len  uint16
	Text string
}

// reader walks a Memory starting at an address, tracking consumed bytes.
type reader struct {
	mem *memory.Memory
	ip  uint16
}

func (r *reader) byte() byte {
	b := r.mem.GetByte(r.ip)
	r.ip++
	return b
}

func (r *reader) word() uint16 {
	w := r.mem.GetWord(r.ip)
	r.ip += 2
	return w
}

func (r *reader) reg() string {
	b := r.byte()
	reg, err := register.FromCode(b)
	if err != nil {
		return fmt.Sprintf("?%#02x", b)
	}
	return reg.String()
}

// Decode disassembles exactly one instruction starting at addr.
func Decode(mem *memory.Memory, addr uint16) Instruction {
	r := &reader{mem: mem, ip: addr}
	op := opcode.Opcode(r.byte())
	var mod byte
	if op.HasModByte() {
		mod = r.byte()
	}

	text := decodeBody(r, op, mod)
	return Instruction{Addr: addr, Len: r.ip - addr, Text: text}
}

func decodeBody(r *reader, op opcode.Opcode, mod byte) string {
	switch op {
	case opcode.NOP:
		return "nop"
	case opcode.HLT:
		return "hlt"
	case opcode.SYSCALL:
		return "syscall"
	case opcode.CALL:
		return fmt.Sprintf("call %#04x", r.word())
	case opcode.RET:
		return "ret"
	case opcode.JMP:
		return decodeJmp(r, mod)
	case opcode.MOV:
		return decodeMov(r, mod)
	case opcode.MOVW:
		return decodeMovw(r, mod)
	case opcode.PUSH:
		return decodePush(r, mod)
	case opcode.POP:
		return decodePop(r, mod)
	case opcode.POPW:
		return decodePopw(r, mod)
	case opcode.ADD, opcode.SUB, opcode.CMP, opcode.AND, opcode.OR, opcode.XOR:
		return decodeAlu(r, op, mod)
	case opcode.MUL, opcode.DIV:
		return decodeMulDiv(r, op, mod)
	case opcode.NOT, opcode.BUF:
		return decodeNotBuf(r, op, mod)
	case opcode.SHL, opcode.SHR:
		return decodeShift(r, op, mod)
	default:
		return fmt.Sprintf("??? (opcode %#02x)", byte(op))
	}
}

func decodeJmp(r *reader, mod byte) string {
	names := map[byte]string{
		opcode.JmpUnconditional: "jmp",
		opcode.JmpIfZero:        "jz",
		opcode.JmpIfNotZero:     "jnz",
		opcode.JmpIfCarry:       "jc",
		opcode.JmpIfNotCarry:    "jnc",
	}
	name, ok := names[mod]
	if !ok {
		name = fmt.Sprintf("jmp?%d", mod)
	}
	return fmt.Sprintf("%s %#04x", name, r.word())
}

func decodeMov(r *reader, mod byte) string {
	switch mod {
	case 0:
		a := r.word()
		return fmt.Sprintf("mov @%#04x, %d", a, r.byte())
	case 1:
		a := r.word()
		return fmt.Sprintf("mov @%#04x, %s", a, r.reg())
	case 2:
		reg := r.reg()
		return fmt.Sprintf("mov %s, %d", reg, r.byte())
	case 3:
		reg := r.reg()
		return fmt.Sprintf("mov %s, @%#04x", reg, r.word())
	case 4:
		dst := r.reg()
		return fmt.Sprintf("mov %s, %s", dst, r.reg())
	case 5:
		base, off := r.reg(), r.word()
		return fmt.Sprintf("mov [%s+%d], %s", base, off, r.reg())
	case 6:
		reg := r.reg()
		base, off := r.reg(), r.word()
		return fmt.Sprintf("mov %s, [%s+%d]", reg, base, off)
	default:
		return fmt.Sprintf("mov?%d", mod)
	}
}

func decodeMovw(r *reader, mod byte) string {
	switch mod {
	case 0:
		reg := r.reg()
		return fmt.Sprintf("movw %s, %#04x", reg, r.word())
	case 1:
		dst := r.reg()
		return fmt.Sprintf("movw %s, %s", dst, r.reg())
	default:
		return fmt.Sprintf("movw?%d", mod)
	}
}

func decodePush(r *reader, mod byte) string {
	switch mod {
	case 0:
		return "push " + r.reg()
	case 1:
		return "pushw " + r.reg()
	case 2:
		return fmt.Sprintf("push %d", r.byte())
	case 3:
		return fmt.Sprintf("pushw %#04x", r.word())
	case 4:
		return fmt.Sprintf("push @%#04x", r.word())
	case 5:
		base, off := r.reg(), r.word()
		return fmt.Sprintf("push [%s+%d]", base, off)
	default:
		return fmt.Sprintf("push?%d", mod)
	}
}

func decodePop(r *reader, mod byte) string {
	switch mod {
	case 0:
		return "pop"
	case 1:
		return "pop " + r.reg()
	default:
		return fmt.Sprintf("pop?%d", mod)
	}
}

func decodePopw(r *reader, mod byte) string {
	switch mod {
	case 0:
		return "popw"
	case 1:
		return "popw " + r.reg()
	default:
		return fmt.Sprintf("popw?%d", mod)
	}
}

func aluName(op opcode.Opcode, signed bool) string {
	base := strings.ToLower(op.String())
	if signed {
		return "s" + base
	}
	return base
}

func decodeAlu(r *reader, op opcode.Opcode, mod byte) string {
	signed := mod&opcode.ModSignedBit != 0
	shape := mod & opcode.ModWidthMask
	name := aluName(op, signed)
	dst := r.reg()
	switch shape {
	case 0:
		return fmt.Sprintf("%s %s, %d", name, dst, r.byte())
	case 1:
		return fmt.Sprintf("%s %s, %#04x", name, dst, r.word())
	case 2, 3:
		return fmt.Sprintf("%s %s, %s", name, dst, r.reg())
	default:
		return fmt.Sprintf("%s?%d", name, shape)
	}
}

func decodeMulDiv(r *reader, op opcode.Opcode, mod byte) string {
	name := strings.ToLower(op.String())
	switch mod {
	case 0:
		return fmt.Sprintf("%s %s", name, r.reg())
	case 1:
		return fmt.Sprintf("%s %s", name, r.reg())
	case 2:
		return fmt.Sprintf("%s %d", name, r.byte())
	case 3:
		return fmt.Sprintf("%s %#04x", name, r.word())
	default:
		return fmt.Sprintf("%s?%d", name, mod)
	}
}

func decodeNotBuf(r *reader, op opcode.Opcode, mod byte) string {
	name := strings.ToLower(op.String())
	switch mod {
	case 0, 1:
		return fmt.Sprintf("%s %s", name, r.reg())
	case 2:
		return fmt.Sprintf("%s %d", name, r.byte())
	case 3:
		return fmt.Sprintf("%s %#04x", name, r.word())
	default:
		return fmt.Sprintf("%s?%d", name, mod)
	}
}

func decodeShift(r *reader, op opcode.Opcode, mod byte) string {
	is16 := mod&0b0001 != 0
	countIsReg := mod&0b0010 != 0
	arithmetic := mod&opcode.ModSignedBit != 0
	name := strings.ToLower(op.String())
	if arithmetic {
		name = "s" + name
	}
	_ = is16
	dst := r.reg()
	if countIsReg {
		return fmt.Sprintf("%s %s, %s", name, dst, r.reg())
	}
	return fmt.Sprintf("%s %s, %d", name, dst, r.byte())
}
