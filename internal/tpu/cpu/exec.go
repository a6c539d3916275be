package cpu

import (
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/opcode"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/register"
)

// dispatch executes one decoded instruction. addr is the address the
// opcode byte was fetched from, used only for error reporting.
func (c *CPU) dispatch(addr uint16, op opcode.Opcode, mod byte) error {
	c.trace(addr, op, mod)

	switch op {
	case opcode.NOP:
		return nil
	case opcode.HLT:
		c.suspended = true
		return nil
	case opcode.SYSCALL:
		return c.execSyscall(addr)
	case opcode.CALL:
		return c.execCall()
	case opcode.RET:
		return c.execRet()
	case opcode.JMP:
		return c.execJmp(addr, mod)
	case opcode.MOV:
		return c.execMov(addr, mod)
	case opcode.MOVW:
		return c.execMovw(addr, mod)
	case opcode.PUSH:
		return c.execPush(addr, mod)
	case opcode.POP:
		return c.execPop(addr, mod)
	case opcode.POPW:
		return c.execPopw(addr, mod)
	case opcode.ADD, opcode.SUB, opcode.CMP:
		return c.execAlu(addr, op, mod)
	case opcode.AND, opcode.OR, opcode.XOR:
		return c.execLogical(addr, op, mod)
	case opcode.MUL:
		return c.execMul(addr, mod)
	case opcode.DIV:
		return c.execDiv(addr, mod)
	case opcode.NOT, opcode.BUF:
		return c.execNotBuf(addr, op, mod)
	case opcode.SHL, opcode.SHR:
		return c.execShift(addr, op, mod)
	default:
		return &RuntimeError{Addr: addr, Msg: "invalid opcode"}
	}
}

func (c *CPU) readRegOperand() (register.Register, error) {
	b := c.fetchByte()
	return register.FromCode(b)
}

// --- control flow ---

func (c *CPU) execSyscall(addr uint16) error {
	switch c.AX {
	case opcode.SyscallStdout:
		ptr := c.BX
		n := c.CX
		for i := uint16(0); i < n; i++ {
			b := c.Mem.GetByte(ptr + i)
			if c.Stdout != nil {
				_, _ = c.Stdout.Write([]byte{b})
			}
			c.sleep()
		}
		return nil
	case opcode.SyscallExit:
		c.ES = c.BX
		return nil
	default:
		return &RuntimeError{Addr: addr, Msg: "unknown syscall vector in AX"}
	}
}

func (c *CPU) execCall() error {
	target := c.fetchWord()
	c.pushWord(c.IP)
	c.IP = target
	return nil
}

func (c *CPU) execRet() error {
	c.IP = c.popWord()
	return nil
}

func (c *CPU) execJmp(addr uint16, mod byte) error {
	target := c.fetchWord()
	take := false
	switch mod {
	case opcode.JmpUnconditional:
		take = true
	case opcode.JmpIfZero:
		take = c.getFlag(FlagZero)
	case opcode.JmpIfNotZero:
		take = !c.getFlag(FlagZero)
	case opcode.JmpIfCarry:
		take = c.getFlag(FlagCarry)
	case opcode.JmpIfNotCarry:
		take = !c.getFlag(FlagCarry)
	default:
		return &RuntimeError{Addr: addr, Msg: "invalid MOD for JMP"}
	}
	if take {
		c.IP = target
	}
	return nil
}

// --- stack helpers ---
// The stack grows upward: SP points at the next free byte. A push
// writes at SP and then increments; a pop decrements then reads. Words
// are pushed low-byte first (so they pop back out high-byte first).

func (c *CPU) pushByte(b byte) {
	c.Mem.PutByte(c.SP, b)
	c.SP++
}

func (c *CPU) popByte() byte {
	c.SP--
	return c.Mem.GetByte(c.SP)
}

func (c *CPU) pushWord(w uint16) {
	c.pushByte(byte(w))
	c.pushByte(byte(w >> 8))
}

func (c *CPU) popWord() uint16 {
	hi := c.popByte()
	lo := c.popByte()
	return uint16(lo) | uint16(hi)<<8
}

// --- data movement ---

func (c *CPU) execMov(addr uint16, mod byte) error {
	switch mod {
	case 0: // mem[addr16] <- imm8
		a := c.fetchWord()
		imm := c.fetchByte()
		c.Mem.PutByte(a, imm)
	case 1: // mem[addr16] <- reg8
		a := c.fetchWord()
		r, err := c.readRegOperand()
		if err != nil {
			return err
		}
		c.Mem.PutByte(a, c.GetReg8(r))
	case 2: // reg8 <- imm8
		r, err := c.readRegOperand()
		if err != nil {
			return err
		}
		imm := c.fetchByte()
		c.SetReg8(r, imm)
	case 3: // reg8 <- mem[addr16]
		r, err := c.readRegOperand()
		if err != nil {
			return err
		}
		a := c.fetchWord()
		c.SetReg8(r, c.Mem.GetByte(a))
	case 4: // reg8 <- reg8
		dst, err := c.readRegOperand()
		if err != nil {
			return err
		}
		src, err := c.readRegOperand()
		if err != nil {
			return err
		}
		c.SetReg8(dst, c.GetReg8(src))
	case 5: // [base+off] <- reg8
		base, off, err := c.readBaseOffset()
		if err != nil {
			return err
		}
		r, err := c.readRegOperand()
		if err != nil {
			return err
		}
		c.Mem.PutByte(base+off, c.GetReg8(r))
	case 6: // reg8 <- [base+off]
		r, err := c.readRegOperand()
		if err != nil {
			return err
		}
		base, off, err := c.readBaseOffset()
		if err != nil {
			return err
		}
		c.SetReg8(r, c.Mem.GetByte(base+off))
	default:
		return &RuntimeError{Addr: addr, Msg: "invalid MOD for MOV"}
	}
	return nil
}

func (c *CPU) readBaseOffset() (base, off uint16, err error) {
	r, err := c.readRegOperand()
	if err != nil {
		return 0, 0, err
	}
	off = c.fetchWord()
	return c.GetReg16(r), off, nil
}

func (c *CPU) execMovw(addr uint16, mod byte) error {
	switch mod {
	case 0: // reg16 <- imm16
		r, err := c.readRegOperand()
		if err != nil {
			return err
		}
		c.SetReg16(r, c.fetchWord())
	case 1: // reg16 <- reg16
		dst, err := c.readRegOperand()
		if err != nil {
			return err
		}
		src, err := c.readRegOperand()
		if err != nil {
			return err
		}
		c.SetReg16(dst, c.GetReg16(src))
	default:
		return &RuntimeError{Addr: addr, Msg: "invalid MOD for MOVW"}
	}
	return nil
}

func (c *CPU) execPush(addr uint16, mod byte) error {
	switch mod {
	case 0:
		r, err := c.readRegOperand()
		if err != nil {
			return err
		}
		c.pushByte(c.GetReg8(r))
	case 1:
		r, err := c.readRegOperand()
		if err != nil {
			return err
		}
		c.pushWord(c.GetReg16(r))
	case 2:
		c.pushByte(c.fetchByte())
	case 3:
		c.pushWord(c.fetchWord())
	case 4:
		a := c.fetchWord()
		c.pushByte(c.Mem.GetByte(a))
	case 5:
		base, off, err := c.readBaseOffset()
		if err != nil {
			return err
		}
		c.pushByte(c.Mem.GetByte(base + off))
	default:
		return &RuntimeError{Addr: addr, Msg: "invalid MOD for PUSH"}
	}
	return nil
}

func (c *CPU) execPop(addr uint16, mod byte) error {
	switch mod {
	case 0:
		c.popByte()
	case 1:
		r, err := c.readRegOperand()
		if err != nil {
			return err
		}
		c.SetReg8(r, c.popByte())
	default:
		return &RuntimeError{Addr: addr, Msg: "invalid MOD for POP"}
	}
	return nil
}

func (c *CPU) execPopw(addr uint16, mod byte) error {
	switch mod {
	case 0:
		c.popWord()
	case 1:
		r, err := c.readRegOperand()
		if err != nil {
			return err
		}
		c.SetReg16(r, c.popWord())
	default:
		return &RuntimeError{Addr: addr, Msg: "invalid MOD for POPW"}
	}
	return nil
}
