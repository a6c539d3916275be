package cpu

import (
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/opcode"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/register"
)

// aluShape reports whether an ALU-family instruction is a 16-bit
// operation, given the low two bits of its MOD byte: 0=imm8, 1=imm16,
// 2=reg8, 3=reg16.
func (c *CPU) aluShape(shape byte) (is16 bool) {
	return shape == 1 || shape == 3
}

// execAlu implements ADD, SUB and CMP, which share an operand layout
// and flag contract; CMP performs the subtraction but discards the
// result.
func (c *CPU) execAlu(addr uint16, op opcode.Opcode, mod byte) error {
	shape := mod & opcode.ModWidthMask
	is16 := c.aluShape(shape)

	dst, err := c.readRegOperand()
	if err != nil {
		return err
	}

	var a, b uint32
	if is16 {
		a = uint32(c.GetReg16(dst))
	} else {
		a = uint32(c.GetReg8(dst))
	}

	switch shape {
	case 0:
		b = uint32(c.fetchByte())
	case 1:
		b = uint32(c.fetchWord())
	case 2:
		src, err := c.readRegOperand()
		if err != nil {
			return err
		}
		b = uint32(c.GetReg8(src))
	case 3:
		src, err := c.readRegOperand()
		if err != nil {
			return err
		}
		b = uint32(c.GetReg16(src))
	}

	var result uint32
	var carry bool
	switch op {
	case opcode.ADD:
		result = a + b
	case opcode.SUB, opcode.CMP:
		result = a - b
		if is16 {
			carry = a < b
		} else {
			carry = (a & 0xFF) < (b & 0xFF)
		}
	}
	if op == opcode.ADD {
		if is16 {
			carry = result > 0xFFFF
		} else {
			carry = result > 0xFF
		}
	}

	if is16 {
		c.updateArith16(result, carry)
	} else {
		c.updateArith8(uint16(result), carry)
	}

	if op != opcode.CMP {
		if is16 {
			c.SetReg16(dst, uint16(result))
		} else {
			c.SetReg8(dst, byte(result))
		}
	}
	return nil
}

// execLogical implements AND, OR and XOR, which update only
// ZERO/SIGN/PARITY and leave CARRY/OVERFLOW untouched.
func (c *CPU) execLogical(addr uint16, op opcode.Opcode, mod byte) error {
	shape := mod & opcode.ModWidthMask
	is16 := c.aluShape(shape)

	dst, err := c.readRegOperand()
	if err != nil {
		return err
	}

	var a, b uint32
	if is16 {
		a = uint32(c.GetReg16(dst))
	} else {
		a = uint32(c.GetReg8(dst))
	}

	switch shape {
	case 0:
		b = uint32(c.fetchByte())
	case 1:
		b = uint32(c.fetchWord())
	case 2:
		src, err := c.readRegOperand()
		if err != nil {
			return err
		}
		b = uint32(c.GetReg8(src))
	case 3:
		src, err := c.readRegOperand()
		if err != nil {
			return err
		}
		b = uint32(c.GetReg16(src))
	}

	var result uint32
	switch op {
	case opcode.AND:
		result = a & b
	case opcode.OR:
		result = a | b
	case opcode.XOR:
		result = a ^ b
	}

	if is16 {
		c.updateLogical16(uint16(result))
		c.SetReg16(dst, uint16(result))
	} else {
		c.updateLogical8(byte(result))
		c.SetReg8(dst, byte(result))
	}
	return nil
}

// execNotBuf implements NOT (unary complement) and BUF (identity,
// exists purely to set flags from a value without storing it anywhere
// new). MOD 0 reg8, 1 reg16, and for BUF only 2 imm8, 3 imm16.
func (c *CPU) execNotBuf(addr uint16, op opcode.Opcode, mod byte) error {
	switch mod {
	case 0:
		r, err := c.readRegOperand()
		if err != nil {
			return err
		}
		v := c.GetReg8(r)
		if op == opcode.NOT {
			v = ^v
			c.SetReg8(r, v)
		}
		c.updateLogical8(v)
	case 1:
		r, err := c.readRegOperand()
		if err != nil {
			return err
		}
		v := c.GetReg16(r)
		if op == opcode.NOT {
			v = ^v
			c.SetReg16(r, v)
		}
		c.updateLogical16(v)
	case 2:
		if op != opcode.BUF {
			return &RuntimeError{Addr: addr, Msg: "NOT does not accept an immediate operand"}
		}
		v := c.fetchByte()
		c.updateLogical8(v)
	case 3:
		if op != opcode.BUF {
			return &RuntimeError{Addr: addr, Msg: "NOT does not accept an immediate operand"}
		}
		v := c.fetchWord()
		c.updateLogical16(v)
	default:
		return &RuntimeError{Addr: addr, Msg: "invalid MOD for NOT/BUF"}
	}
	return nil
}

// operandValue16 reads a MUL/DIV-family operand given MOD 0=reg8,
// 1=reg16, 2=imm8, 3=imm16, widened to 16 bits, along with whether the
// operand (and therefore the implicit accumulator) is 16-bit wide.
func (c *CPU) operandValue16(mod byte) (v uint16, is16 bool, err error) {
	switch mod {
	case 0:
		r, e := c.readRegOperand()
		if e != nil {
			return 0, false, e
		}
		return uint16(c.GetReg8(r)), false, nil
	case 1:
		r, e := c.readRegOperand()
		if e != nil {
			return 0, false, e
		}
		return c.GetReg16(r), true, nil
	case 2:
		return uint16(c.fetchByte()), false, nil
	case 3:
		return c.fetchWord(), true, nil
	default:
		return 0, false, &RuntimeError{Msg: "invalid MOD for MUL/DIV"}
	}
}

func (c *CPU) execMul(addr uint16, mod byte) error {
	operand, is16, err := c.operandValue16(mod)
	if err != nil {
		return err
	}
	if is16 {
		product := uint32(c.AX) * uint32(operand)
		c.AX = uint16(product)
		c.DX = uint16(product >> 16)
		c.setFlag(FlagCarry, c.DX != 0)
		c.setFlag(FlagOverflow, c.DX != 0)
	} else {
		product := uint16(c.GetReg8(register.AL)) * operand
		c.AX = product
		c.setFlag(FlagCarry, product > 0xFF)
		c.setFlag(FlagOverflow, product > 0xFF)
	}
	return nil
}

func (c *CPU) execDiv(addr uint16, mod byte) error {
	operand, is16, err := c.operandValue16(mod)
	if err != nil {
		return err
	}
	if operand == 0 {
		return &RuntimeError{Addr: addr, Msg: "division by zero"}
	}
	if is16 {
		q := c.AX / operand
		r := c.AX % operand
		c.AX = q
		c.DX = r
		c.setFlag(FlagCarry, r == 0)
		c.setFlag(FlagOverflow, r == 0)
	} else {
		al := uint16(c.GetReg8(register.AL))
		q := al / operand
		r := al % operand
		c.SetReg8(register.AL, byte(q))
		c.SetReg8(register.AH, byte(r))
		c.setFlag(FlagCarry, r == 0)
		c.setFlag(FlagOverflow, r == 0)
	}
	return nil
}

// execShift implements SHL/SHR. MOD bit0 selects the shifted operand's
// width, bit1 selects an immediate vs. register shift count, bit3 marks
// an arithmetic (sign-preserving) shift. The shift count is always
// fetched as 8 bits. Shifts update only ZERO/SIGN/PARITY, matching the
// other logical-family opcodes.
func (c *CPU) execShift(addr uint16, op opcode.Opcode, mod byte) error {
	is16 := mod&0b0001 != 0
	countIsReg := mod&0b0010 != 0
	arithmetic := mod&opcode.ModSignedBit != 0

	dst, err := c.readRegOperand()
	if err != nil {
		return err
	}

	var count byte
	if countIsReg {
		r, err := c.readRegOperand()
		if err != nil {
			return err
		}
		count = c.GetReg8(r)
	} else {
		count = c.fetchByte()
	}

	if is16 {
		v := c.GetReg16(dst)
		var r uint16
		if op == opcode.SHL {
			r = v << count
		} else if arithmetic {
			r = uint16(int16(v) >> count)
		} else {
			r = v >> count
		}
		c.SetReg16(dst, r)
		c.updateLogical16(r)
	} else {
		v := c.GetReg8(dst)
		var r byte
		if op == opcode.SHL {
			r = v << count
		} else if arithmetic {
			r = byte(int8(v) >> count)
		} else {
			r = v >> count
		}
		c.SetReg8(dst, r)
		c.updateLogical8(r)
	}
	return nil
}
