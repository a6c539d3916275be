package codegen

import (
	"github.com/travis-heavener/tpu2-sub000/internal/tlang/ast"
	"github.com/travis-heavener/tpu2-sub000/internal/tlang/token"
)

// genExpr lowers an expression bottom-up, per SPEC_FULL.md/spec.md
// §4.5: it leaves its result on top of stack and returns the number of
// bytes it pushed.
func (g *Generator) genExpr(n *ast.Node) (int, error) {
	switch n.Kind {
	case ast.KindIntLit:
		size := n.Type.SizeBytes()
		g.pushImmediate(int64(n.IntVal), size)
		g.scope.AddPlaceholder(size)
		return size, nil

	case ast.KindBoolLit:
		v := int64(0)
		if n.BoolVal {
			v = 1
		}
		g.emit("push %d", v)
		g.scope.AddPlaceholder(1)
		return 1, nil

	case ast.KindCharLit:
		g.emit("push %d", n.CharVal)
		g.scope.AddPlaceholder(1)
		return 1, nil

	case ast.KindFloatLit:
		// The TPU has no floating-point unit; a float literal is
		// carried as its 16-bit bit pattern is not reproducible here,
		// so it is truncated to its integer part.
		g.emit("movw AX, %d", int64(n.FloatVal))
		g.emit("pushw AX")
		g.scope.AddPlaceholder(2)
		return 2, nil

	case ast.KindStringLit:
		label := g.newStringConstant(n.StringVal)
		g.emit("pushw %s", label)
		g.scope.AddPlaceholder(2)
		return 2, nil

	case ast.KindIdentifier:
		return g.genIdentifierRead(n.Name, n.Type.SizeBytes())

	case ast.KindAssign:
		return g.genAssign(n)

	case ast.KindBinary:
		return g.genBinary(n)

	case ast.KindUnary:
		return g.genUnary(n)

	case ast.KindTypeCast:
		size, err := g.genExpr(g.tree.Get(n.Init))
		if err != nil {
			return 0, err
		}
		want := n.Type.SizeBytes()
		g.reconcileWidth(size, want)
		return want, nil

	case ast.KindCall:
		return g.genCall(n)

	case ast.KindArraySubscript:
		return g.genArrayRead(n)
	}
	return 0, &Error{Msg: "codegen: unsupported expression kind"}
}

func (g *Generator) pushImmediate(v int64, size int) {
	if size <= 1 {
		g.emit("push %d", uint8(v))
	} else {
		g.emit("pushw %d", uint16(v))
	}
}

// genIdentifierRead duplicates a variable's current value onto the
// top of stack.
func (g *Generator) genIdentifierRead(name string, size int) (int, error) {
	offset, err := g.scope.Offset(name)
	if err != nil {
		return 0, &Error{Msg: err.Error()}
	}
	switch size {
	case 1:
		g.emit("mov AL, [SP-%d]", offset)
		g.emit("push AL")
	default:
		g.emit("mov AL, [SP-%d]", offset)
		g.emit("mov AH, [SP-%d]", offset-1)
		g.emit("pushw AX")
	}
	g.scope.AddPlaceholder(size)
	return size, nil
}

func (g *Generator) genAssign(n *ast.Node) (int, error) {
	lhs := g.tree.Get(n.Lhs)
	if lhs.Kind == ast.KindArraySubscript {
		return g.genArrayAssign(lhs, n.Rhs)
	}
	size := lhs.Type.SizeBytes()
	rhsSize, err := g.genExpr(g.tree.Get(n.Rhs))
	if err != nil {
		return 0, err
	}
	g.reconcileWidth(rhsSize, size)

	// Pop the evaluated value into a register, store it, then push it
	// back so the assignment itself carries a value (chained `a = b = c`).
	switch size {
	case 1:
		g.emit("pop AL")
		g.scope.PopN(1)
	default:
		g.emit("popw AX")
		g.scope.PopN(2)
	}
	offset, err := g.scope.Offset(lhs.Name)
	if err != nil {
		return 0, &Error{Msg: err.Error()}
	}
	switch size {
	case 1:
		g.emit("mov [SP-%d], AL", offset)
		g.emit("push AL")
	default:
		g.emit("mov [SP-%d], AL", offset)
		g.emit("mov [SP-%d], AH", offset-1)
		g.emit("pushw AX")
	}
	g.scope.AddPlaceholder(size)
	return size, nil
}

// binaryWorkWidth chooses the 8-bit or 16-bit register pair an
// operator evaluates in: 16-bit if either operand is wider than a byte.
func binaryWorkWidth(lhsSize, rhsSize int) int {
	if lhsSize > 1 || rhsSize > 1 {
		return 2
	}
	return 1
}

func (g *Generator) genBinary(n *ast.Node) (int, error) {
	lhsNode := g.tree.Get(n.Lhs)
	rhsNode := g.tree.Get(n.Rhs)

	switch n.Op {
	case token.OPBOOLAND, token.OPBOOLOR:
		return g.genShortCircuit(n)
	}

	width := binaryWorkWidth(lhsNode.Type.SizeBytes(), rhsNode.Type.SizeBytes())

	lhsSize, err := g.genExpr(lhsNode)
	if err != nil {
		return 0, err
	}
	g.reconcileWidth(lhsSize, width)
	rhsSize, err := g.genExpr(rhsNode)
	if err != nil {
		return 0, err
	}
	g.reconcileWidth(rhsSize, width)

	aReg, bReg := "AL", "BL"
	if width == 2 {
		aReg, bReg = "AX", "BX"
		g.emit("popw BX")
		g.emit("popw AX")
	} else {
		g.emit("pop BL")
		g.emit("pop AL")
	}
	g.scope.PopN(2 * width)

	switch n.Op {
	case token.OPADD:
		g.emit("add %s, %s", aReg, bReg)
	case token.OPSUB:
		g.emit("sub %s, %s", aReg, bReg)
	case token.ASTERISK:
		g.emit("mul %s", bReg)
	case token.OPDIV:
		g.emit("div %s", bReg)
	case token.OPMOD:
		g.emit("div %s", bReg)
		if width == 1 {
			aReg = "AH"
		} else {
			g.emit("movw AX, DX")
		}
	case token.AMPERSAND:
		g.emit("and %s, %s", aReg, bReg)
	case token.OPBITOR:
		g.emit("or %s, %s", aReg, bReg)
	case token.OPBITXOR:
		g.emit("xor %s, %s", aReg, bReg)
	case token.OPLSHIFT:
		g.emit("shl %s, BL", aReg)
	case token.OPRSHIFT:
		g.emit("shr %s, BL", aReg)
	case token.OPLT, token.OPLTE, token.OPGT, token.OPGTE, token.OPEQ, token.OPNEQ:
		return g.genComparison(n.Op, aReg, bReg)
	default:
		return 0, &Error{Msg: "codegen: unsupported binary operator"}
	}

	if n.Op == token.OPMOD && width == 2 {
		aReg = "AX"
	}
	if width == 2 {
		g.emit("pushw %s", aReg)
	} else {
		g.emit("push %s", aReg)
	}
	g.scope.AddPlaceholder(width)
	return width, nil
}

// genComparison synthesizes a 0/1 boolean from SUB plus conditional
// branches, per the spec's comparison-lowering rule. Every case
// reduces to two conditional jumps into a shared true/false/done
// layout driven by CARRY (set when aReg < bReg, unsigned) and ZERO
// (set when aReg == bReg).
func (g *Generator) genComparison(op token.Type, aReg, bReg string) (int, error) {
	g.emit("cmp %s, %s", aReg, bReg)
	trueLabel := g.ctx.NextLabel()
	falseLabel := g.ctx.NextLabel()
	done := g.ctx.NextLabel()

	switch op {
	case token.OPEQ:
		g.emit("jz %s", trueLabel)
		g.emit("jmp %s", falseLabel)
	case token.OPNEQ:
		g.emit("jz %s", falseLabel)
		g.emit("jmp %s", trueLabel)
	case token.OPLT:
		g.emit("jc %s", trueLabel)
		g.emit("jmp %s", falseLabel)
	case token.OPGTE:
		g.emit("jc %s", falseLabel)
		g.emit("jmp %s", trueLabel)
	case token.OPGT:
		g.emit("jz %s", falseLabel)
		g.emit("jc %s", falseLabel)
		g.emit("jmp %s", trueLabel)
	case token.OPLTE:
		g.emit("jc %s", trueLabel)
		g.emit("jz %s", trueLabel)
		g.emit("jmp %s", falseLabel)
	}

	g.label(falseLabel)
	g.emit("push 0")
	g.emit("jmp %s", done)
	g.label(trueLabel)
	g.emit("push 1")
	g.label(done)
	g.scope.AddPlaceholder(1)
	return 1, nil
}

func (g *Generator) genShortCircuit(n *ast.Node) (int, error) {
	isAnd := n.Op == token.OPBOOLAND
	lhsSize, err := g.genExpr(g.tree.Get(n.Lhs))
	if err != nil {
		return 0, err
	}
	g.reconcileWidth(lhsSize, 1)
	g.emit("pop AL")
	g.scope.PopN(1)
	g.emit("buf AL")

	shortCircuit := g.ctx.NextLabel()
	done := g.ctx.NextLabel()
	if isAnd {
		g.emit("jz %s", shortCircuit)
	} else {
		g.emit("jnz %s", shortCircuit)
	}

	rhsSize, err := g.genExpr(g.tree.Get(n.Rhs))
	if err != nil {
		return 0, err
	}
	g.reconcileWidth(rhsSize, 1)
	g.emit("pop AL")
	g.scope.PopN(1)
	g.emit("buf AL")
	g.emit("jz %s", shortCircuit+"Z")
	g.emit("push 1")
	g.emit("jmp %s", done)
	g.label(shortCircuit + "Z")
	g.emit("push 0")
	g.emit("jmp %s", done)
	g.label(shortCircuit)
	if isAnd {
		g.emit("push 0")
	} else {
		g.emit("push 1")
	}
	g.label(done)
	g.scope.AddPlaceholder(1)
	return 1, nil
}

func (g *Generator) genUnary(n *ast.Node) (int, error) {
	operandSize, err := g.genExpr(g.tree.Get(n.Lhs))
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case token.OPSUB:
		// Sign-bit flip, not two's-complement negation -- see
		// SPEC_FULL.md/spec.md §9.
		if operandSize == 1 {
			g.emit("pop AL")
			g.scope.PopN(1)
			g.emit("xor AL, 0x80")
			g.emit("push AL")
		} else {
			g.emit("popw AX")
			g.scope.PopN(2)
			g.emit("xor AX, 0x8000")
			g.emit("pushw AX")
		}
		g.scope.AddPlaceholder(operandSize)
		return operandSize, nil

	case token.OPBOOLNOT:
		g.reconcileWidth(operandSize, 1)
		g.emit("pop AL")
		g.scope.PopN(1)
		g.emit("buf AL")
		zeroLabel := g.ctx.NextLabel()
		done := g.ctx.NextLabel()
		g.emit("jz %s", zeroLabel)
		g.emit("push 0")
		g.emit("jmp %s", done)
		g.label(zeroLabel)
		g.emit("push 1")
		g.label(done)
		g.scope.AddPlaceholder(1)
		return 1, nil

	case token.OPBITNOT:
		if operandSize == 1 {
			g.emit("pop AL")
			g.scope.PopN(1)
			g.emit("not AL")
			g.emit("push AL")
		} else {
			g.emit("popw AX")
			g.scope.PopN(2)
			g.emit("not AX")
			g.emit("pushw AX")
		}
		g.scope.AddPlaceholder(operandSize)
		return operandSize, nil
	}
	return 0, &Error{Msg: "codegen: unsupported unary operator"}
}

func (g *Generator) genCall(n *ast.Node) (int, error) {
	meta := g.funcs[n.Name]
	retSize := 0
	if !meta.ret.IsVoidNonPtr() {
		retSize = meta.ret.SizeBytes()
		g.pushZero(retSize)
		g.scope.AddPlaceholder(retSize)
	}
	argBytes := 0
	for i, argRef := range n.Children {
		argSize, err := g.genExpr(g.tree.Get(argRef))
		if err != nil {
			return 0, err
		}
		want := meta.params[i].SizeBytes()
		g.reconcileWidth(argSize, want)
		argBytes += want
	}
	g.emit("call %s", meta.label)
	// The callee's RET only unwinds its own frame; the caller is
	// responsible for discarding the argument bytes it pushed, leaving
	// just the reserved return-value bytes (if any) on top.
	g.discard(argBytes)
	return retSize, nil
}

func (g *Generator) genArrayRead(n *ast.Node) (int, error) {
	// Array subscript reads are not lowered: every subscript expression
	// fails compilation with a codegen Error, and no element address is
	// computed.
	return 0, &Error{Msg: "codegen: array subscript expressions are not yet supported"}
}

func (g *Generator) genArrayAssign(lhs *ast.Node, rhsRef ast.Ref) (int, error) {
	return 0, &Error{Msg: "codegen: array element assignment is not yet supported"}
}
