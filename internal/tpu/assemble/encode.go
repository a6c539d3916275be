package assemble

import (
	"fmt"
	"strings"

	"github.com/travis-heavener/tpu2-sub000/internal/tpu/opcode"
	"github.com/travis-heavener/tpu2-sub000/internal/tpu/register"
)

// labelRef marks a byte offset within an encoded instruction's bytes
// that holds (or will hold) a little-endian 16-bit label address,
// eligible for back-patching.
type labelRef struct {
	Offset int
	Name   string
}

// encodeFunc builds the opcode/MOD/operand bytes for one instruction
// given its already-classified operand list.
type encodeFunc func(ops []operand) ([]byte, []labelRef, error)

func wantOperands(ops []operand, n int) error {
	if len(ops) != n {
		return fmt.Errorf("expected %d operand(s), got %d", n, len(ops))
	}
	return nil
}

func reqReg(o operand) (register.Register, error) {
	if o.kind != opndRegister {
		return 0, fmt.Errorf("expected a register operand")
	}
	return o.reg, nil
}

func reqReg8(o operand) (register.Register, error) {
	r, err := reqReg(o)
	if err != nil {
		return 0, err
	}
	if !r.Is8Bit() {
		return 0, fmt.Errorf("expected an 8-bit register, got %s", r)
	}
	return r, nil
}

func reqReg16(o operand) (register.Register, error) {
	r, err := reqReg(o)
	if err != nil {
		return 0, err
	}
	if !r.Is16Bit() {
		return 0, fmt.Errorf("expected a 16-bit register, got %s", r)
	}
	return r, nil
}

func le16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

// --- control flow ---

func encodeNop(ops []operand) ([]byte, []labelRef, error) {
	if err := wantOperands(ops, 0); err != nil {
		return nil, nil, err
	}
	return []byte{byte(opcode.NOP)}, nil, nil
}

func encodeHlt(ops []operand) ([]byte, []labelRef, error) {
	if err := wantOperands(ops, 0); err != nil {
		return nil, nil, err
	}
	return []byte{byte(opcode.HLT)}, nil, nil
}

func encodeSyscall(ops []operand) ([]byte, []labelRef, error) {
	if err := wantOperands(ops, 0); err != nil {
		return nil, nil, err
	}
	return []byte{byte(opcode.SYSCALL)}, nil, nil
}

func encodeRet(ops []operand) ([]byte, []labelRef, error) {
	if err := wantOperands(ops, 0); err != nil {
		return nil, nil, err
	}
	return []byte{byte(opcode.RET)}, nil, nil
}

// addrOperandBytes resolves an operand that must denote a 16-bit
// address: either a bare label (back-patch eligible) or a numeric/@
// address.
func addrOperandBytes(o operand) ([]byte, []labelRef, error) {
	switch o.kind {
	case opndLabel:
		return []byte{0, 0}, []labelRef{{Offset: 0, Name: o.label}}, nil
	case opndAddr:
		if o.label != "" {
			return []byte{0, 0}, []labelRef{{Offset: 0, Name: o.label}}, nil
		}
		return le16(o.imm), nil, nil
	case opndImm:
		return le16(o.imm), nil, nil
	default:
		return nil, nil, fmt.Errorf("expected an address or label operand")
	}
}

func encodeCall(ops []operand) ([]byte, []labelRef, error) {
	if err := wantOperands(ops, 1); err != nil {
		return nil, nil, err
	}
	addrBytes, refs, err := addrOperandBytes(ops[0])
	if err != nil {
		return nil, nil, err
	}
	buf := append([]byte{byte(opcode.CALL)}, addrBytes...)
	return buf, shiftRefs(refs, 1), nil
}

func shiftRefs(refs []labelRef, delta int) []labelRef {
	out := make([]labelRef, len(refs))
	for i, r := range refs {
		out[i] = labelRef{Offset: r.Offset + delta, Name: r.Name}
	}
	return out
}

func jmpEncoder(mod byte) encodeFunc {
	return func(ops []operand) ([]byte, []labelRef, error) {
		if err := wantOperands(ops, 1); err != nil {
			return nil, nil, err
		}
		addrBytes, refs, err := addrOperandBytes(ops[0])
		if err != nil {
			return nil, nil, err
		}
		buf := append([]byte{byte(opcode.JMP), mod}, addrBytes...)
		return buf, shiftRefs(refs, 2), nil
	}
}

// --- data movement ---

func encodeMov(ops []operand) ([]byte, []labelRef, error) {
	if err := wantOperands(ops, 2); err != nil {
		return nil, nil, err
	}
	a, b := ops[0], ops[1]

	switch {
	case (a.kind == opndAddr || a.kind == opndLabel) && b.kind == opndImm:
		addrBytes, refs, err := addrOperandBytes(a)
		if err != nil {
			return nil, nil, err
		}
		buf := append([]byte{byte(opcode.MOV), 0}, addrBytes...)
		buf = append(buf, byte(b.imm))
		return buf, shiftRefs(refs, 2), nil
	case (a.kind == opndAddr || a.kind == opndLabel) && b.kind == opndRegister:
		r, err := reqReg8(b)
		if err != nil {
			return nil, nil, err
		}
		addrBytes, refs, err := addrOperandBytes(a)
		if err != nil {
			return nil, nil, err
		}
		buf := append([]byte{byte(opcode.MOV), 1}, addrBytes...)
		buf = append(buf, r.Code())
		return buf, shiftRefs(refs, 2), nil
	case a.kind == opndRegister && b.kind == opndImm:
		r, err := reqReg8(a)
		if err != nil {
			return nil, nil, err
		}
		return []byte{byte(opcode.MOV), 2, r.Code(), byte(b.imm)}, nil, nil
	case a.kind == opndRegister && (b.kind == opndAddr || b.kind == opndLabel):
		r, err := reqReg8(a)
		if err != nil {
			return nil, nil, err
		}
		addrBytes, refs, err := addrOperandBytes(b)
		if err != nil {
			return nil, nil, err
		}
		buf := append([]byte{byte(opcode.MOV), 3, r.Code()}, addrBytes...)
		return buf, shiftRefs(refs, 3), nil
	case a.kind == opndRegister && b.kind == opndRegister:
		dst, err := reqReg8(a)
		if err != nil {
			return nil, nil, err
		}
		src, err := reqReg8(b)
		if err != nil {
			return nil, nil, err
		}
		return []byte{byte(opcode.MOV), 4, dst.Code(), src.Code()}, nil, nil
	case a.kind == opndBase && b.kind == opndRegister:
		r, err := reqReg8(b)
		if err != nil {
			return nil, nil, err
		}
		buf := append([]byte{byte(opcode.MOV), 5, a.base.Code()}, le16(a.offset)...)
		buf = append(buf, r.Code())
		return buf, nil, nil
	case a.kind == opndRegister && b.kind == opndBase:
		r, err := reqReg8(a)
		if err != nil {
			return nil, nil, err
		}
		buf := []byte{byte(opcode.MOV), 6, r.Code(), b.base.Code()}
		buf = append(buf, le16(b.offset)...)
		return buf, nil, nil
	default:
		return nil, nil, fmt.Errorf("no MOV encoding matches operand shapes")
	}
}

func encodeMovw(ops []operand) ([]byte, []labelRef, error) {
	if err := wantOperands(ops, 2); err != nil {
		return nil, nil, err
	}
	dst, err := reqReg16(ops[0])
	if err != nil {
		return nil, nil, err
	}
	b := ops[1]
	switch b.kind {
	case opndImm:
		return []byte{byte(opcode.MOVW), 0, dst.Code(), byte(b.imm), byte(b.imm >> 8)}, nil, nil
	case opndLabel:
		buf := []byte{byte(opcode.MOVW), 0, dst.Code(), 0, 0}
		return buf, []labelRef{{Offset: 3, Name: b.label}}, nil
	case opndAddr:
		if b.label != "" {
			buf := []byte{byte(opcode.MOVW), 0, dst.Code(), 0, 0}
			return buf, []labelRef{{Offset: 3, Name: b.label}}, nil
		}
		return []byte{byte(opcode.MOVW), 0, dst.Code(), byte(b.imm), byte(b.imm >> 8)}, nil, nil
	case opndRegister:
		src, err := reqReg16(b)
		if err != nil {
			return nil, nil, err
		}
		return []byte{byte(opcode.MOVW), 1, dst.Code(), src.Code()}, nil, nil
	default:
		return nil, nil, fmt.Errorf("invalid MOVW second operand")
	}
}

// encodePush handles both `push` (8-bit forms, MOD 0/2/4/5, no labels
// allowed) and `pushw` (MOD 1/3, label operands allowed, plus MOD 4 for
// a numeric `@addr` -- see SPEC_FULL.md §13.1).
func encodePush(isWide bool) encodeFunc {
	return func(ops []operand) ([]byte, []labelRef, error) {
		if err := wantOperands(ops, 1); err != nil {
			return nil, nil, err
		}
		o := ops[0]
		switch o.kind {
		case opndRegister:
			if isWide {
				r, err := reqReg16(o)
				if err != nil {
					return nil, nil, err
				}
				return []byte{byte(opcode.PUSH), 1, r.Code()}, nil, nil
			}
			r, err := reqReg8(o)
			if err != nil {
				return nil, nil, err
			}
			return []byte{byte(opcode.PUSH), 0, r.Code()}, nil, nil
		case opndImm:
			if isWide {
				return []byte{byte(opcode.PUSH), 3, byte(o.imm), byte(o.imm >> 8)}, nil, nil
			}
			return []byte{byte(opcode.PUSH), 2, byte(o.imm)}, nil, nil
		case opndAddr:
			if o.label == "" {
				// A numeric @addr always reads a byte from memory at
				// that absolute address (MOD 4), independent of
				// push/pushw -- see original_source/asm_loader.cpp's
				// parsePUSH.
				return []byte{byte(opcode.PUSH), 4, byte(o.imm), byte(o.imm >> 8)}, nil, nil
			}
			if !isWide {
				return nil, nil, fmt.Errorf("cannot use a label in an 8-bit push; use pushw")
			}
			return []byte{byte(opcode.PUSH), 3, 0, 0}, []labelRef{{Offset: 2, Name: o.label}}, nil
		case opndLabel:
			if !isWide {
				return nil, nil, fmt.Errorf("cannot use a label in an 8-bit push; use pushw")
			}
			return []byte{byte(opcode.PUSH), 3, 0, 0}, []labelRef{{Offset: 2, Name: o.label}}, nil
		case opndBase:
			if isWide {
				return nil, nil, fmt.Errorf("pushw does not support [base+offset] operands")
			}
			buf := []byte{byte(opcode.PUSH), 5, o.base.Code()}
			buf = append(buf, le16(o.offset)...)
			return buf, nil, nil
		default:
			return nil, nil, fmt.Errorf("invalid push operand")
		}
	}
}

func encodePop(ops []operand) ([]byte, []labelRef, error) {
	if len(ops) == 0 {
		return []byte{byte(opcode.POP), 0}, nil, nil
	}
	if err := wantOperands(ops, 1); err != nil {
		return nil, nil, err
	}
	r, err := reqReg8(ops[0])
	if err != nil {
		return nil, nil, err
	}
	return []byte{byte(opcode.POP), 1, r.Code()}, nil, nil
}

func encodePopw(ops []operand) ([]byte, []labelRef, error) {
	if len(ops) == 0 {
		return []byte{byte(opcode.POPW), 0}, nil, nil
	}
	if err := wantOperands(ops, 1); err != nil {
		return nil, nil, err
	}
	r, err := reqReg16(ops[0])
	if err != nil {
		return nil, nil, err
	}
	return []byte{byte(opcode.POPW), 1, r.Code()}, nil, nil
}

// --- ALU family: ADD, SUB, CMP, AND, OR, XOR ---

func aluEncoder(op opcode.Opcode, signed bool) encodeFunc {
	return func(ops []operand) ([]byte, []labelRef, error) {
		if err := wantOperands(ops, 2); err != nil {
			return nil, nil, err
		}
		dst, err := reqReg(ops[0])
		if err != nil {
			return nil, nil, err
		}
		var mod byte
		if signed {
			mod |= opcode.ModSignedBit
		}
		b := ops[1]
		switch {
		case dst.Is8Bit() && b.kind == opndImm:
			mod |= 0
			return []byte{byte(op), mod, dst.Code(), byte(b.imm)}, nil, nil
		case dst.Is16Bit() && b.kind == opndImm:
			mod |= 1
			return []byte{byte(op), mod, dst.Code(), byte(b.imm), byte(b.imm >> 8)}, nil, nil
		case dst.Is8Bit() && b.kind == opndRegister:
			src, err := reqReg8(b)
			if err != nil {
				return nil, nil, err
			}
			mod |= 2
			return []byte{byte(op), mod, dst.Code(), src.Code()}, nil, nil
		case dst.Is16Bit() && b.kind == opndRegister:
			src, err := reqReg16(b)
			if err != nil {
				return nil, nil, err
			}
			mod |= 3
			return []byte{byte(op), mod, dst.Code(), src.Code()}, nil, nil
		default:
			return nil, nil, fmt.Errorf("operand width mismatch in %s", strings.ToLower(op.String()))
		}
	}
}

// --- MUL/DIV family ---

func mulDivEncoder(op opcode.Opcode) encodeFunc {
	return func(ops []operand) ([]byte, []labelRef, error) {
		if err := wantOperands(ops, 1); err != nil {
			return nil, nil, err
		}
		o := ops[0]
		switch o.kind {
		case opndRegister:
			if o.reg.Is8Bit() {
				return []byte{byte(op), 0, o.reg.Code()}, nil, nil
			}
			return []byte{byte(op), 1, o.reg.Code()}, nil, nil
		case opndImm:
			// Ambiguous width immediate: values that fit in a byte are
			// encoded 8-bit unless the mnemonic forces 16-bit; callers
			// needing a 16-bit immediate should use a register or rely
			// on value > 0xFF to select the wide form.
			if o.imm <= 0xFF {
				return []byte{byte(op), 2, byte(o.imm)}, nil, nil
			}
			return []byte{byte(op), 3, byte(o.imm), byte(o.imm >> 8)}, nil, nil
		default:
			return nil, nil, fmt.Errorf("invalid operand for %s", strings.ToLower(op.String()))
		}
	}
}

// --- NOT/BUF family ---

func notBufEncoder(op opcode.Opcode) encodeFunc {
	return func(ops []operand) ([]byte, []labelRef, error) {
		if err := wantOperands(ops, 1); err != nil {
			return nil, nil, err
		}
		o := ops[0]
		switch o.kind {
		case opndRegister:
			if o.reg.Is8Bit() {
				return []byte{byte(op), 0, o.reg.Code()}, nil, nil
			}
			return []byte{byte(op), 1, o.reg.Code()}, nil, nil
		case opndImm:
			if op != opcode.BUF {
				return nil, nil, fmt.Errorf("not does not accept an immediate operand")
			}
			if o.imm <= 0xFF {
				return []byte{byte(op), 2, byte(o.imm)}, nil, nil
			}
			return []byte{byte(op), 3, byte(o.imm), byte(o.imm >> 8)}, nil, nil
		default:
			return nil, nil, fmt.Errorf("invalid operand for %s", strings.ToLower(op.String()))
		}
	}
}

// --- shift family ---

func shiftEncoder(op opcode.Opcode, signed bool) encodeFunc {
	return func(ops []operand) ([]byte, []labelRef, error) {
		if err := wantOperands(ops, 2); err != nil {
			return nil, nil, err
		}
		dst, err := reqReg(ops[0])
		if err != nil {
			return nil, nil, err
		}
		var mod byte
		if dst.Is16Bit() {
			mod |= 0b0001
		}
		if signed {
			mod |= opcode.ModSignedBit
		}
		count := ops[1]
		switch count.kind {
		case opndImm:
			return []byte{byte(op), mod, dst.Code(), byte(count.imm)}, nil, nil
		case opndRegister:
			if !count.reg.Is8Bit() {
				return nil, nil, fmt.Errorf("shift count register must be 8-bit")
			}
			mod |= 0b0010
			return []byte{byte(op), mod, dst.Code(), count.reg.Code()}, nil, nil
		default:
			return nil, nil, fmt.Errorf("invalid shift count operand")
		}
	}
}

// mnemonics maps every assembly-text mnemonic (already lower-cased) to
// its encoder, including the "s"-prefixed signed variants and the
// pushw/popw/jCC spellings that fold a MOD or opcode choice into the
// mnemonic itself.
var mnemonics = map[string]encodeFunc{
	"nop":     encodeNop,
	"hlt":     encodeHlt,
	"syscall": encodeSyscall,
	"call":    encodeCall,
	"ret":     encodeRet,

	"jmp": jmpEncoder(opcode.JmpUnconditional),
	"jz":  jmpEncoder(opcode.JmpIfZero),
	"jnz": jmpEncoder(opcode.JmpIfNotZero),
	"jc":  jmpEncoder(opcode.JmpIfCarry),
	"jnc": jmpEncoder(opcode.JmpIfNotCarry),

	"mov":   encodeMov,
	"movw":  encodeMovw,
	"push":  encodePush(false),
	"pushw": encodePush(true),
	"pop":   encodePop,
	"popw":  encodePopw,

	"add":  aluEncoder(opcode.ADD, false),
	"sadd": aluEncoder(opcode.ADD, true),
	"sub":  aluEncoder(opcode.SUB, false),
	"ssub": aluEncoder(opcode.SUB, true),
	"cmp":  aluEncoder(opcode.CMP, false),
	"scmp": aluEncoder(opcode.CMP, true),
	"and":  aluEncoder(opcode.AND, false),
	"or":   aluEncoder(opcode.OR, false),
	"xor":  aluEncoder(opcode.XOR, false),

	"mul":  mulDivEncoder(opcode.MUL),
	"smul": mulDivEncoder(opcode.MUL),
	"div":  mulDivEncoder(opcode.DIV),
	"sdiv": mulDivEncoder(opcode.DIV),

	"not": notBufEncoder(opcode.NOT),
	"buf": notBufEncoder(opcode.BUF),

	"shl":  shiftEncoder(opcode.SHL, false),
	"sshl": shiftEncoder(opcode.SHL, true),
	"shr":  shiftEncoder(opcode.SHR, false),
	"sshr": shiftEncoder(opcode.SHR, true),
}
