package parser

import (
	"github.com/travis-heavener/tpu2-sub000/internal/tlang/ast"
	"github.com/travis-heavener/tpu2-sub000/internal/tlang/lexer"
	"github.com/travis-heavener/tpu2-sub000/internal/tlang/token"
	"github.com/travis-heavener/tpu2-sub000/internal/tlang/types"
)

// parseExpr is the entry point for the twelve-level precedence chain,
// starting at assignment (the loosest-binding operator) per
// SPEC_FULL.md/spec.md §4.6.
func (p *Parser) parseExpr() (ast.Ref, error) {
	return p.parseAssignment()
}

// parseAssignment handles right-associative `=`. The left-hand side
// must already have parsed down to an identifier or subscript
// expression; anything else is a semantic error once a '=' follows.
func (p *Parser) parseAssignment() (ast.Ref, error) {
	lhs, err := p.parseLogicalOr()
	if err != nil {
		return ast.Invalid, err
	}
	if p.match(token.ASSIGN) {
		lhsNode := p.tree.Get(lhs)
		if lhsNode.Kind != ast.KindIdentifier && lhsNode.Kind != ast.KindArraySubscript {
			return ast.Invalid, p.errorf("left-hand side of assignment must be a variable or array element")
		}
		rhs, err := p.parseAssignment()
		if err != nil {
			return ast.Invalid, err
		}
		t := p.tree.Get(lhs).Type
		return p.tree.New(ast.Node{Kind: ast.KindAssign, Lhs: lhs, Rhs: rhs, Type: t}), nil
	}
	return lhs, nil
}

func (p *Parser) binaryLevel(next func() (ast.Ref, error), ops ...token.Type) (ast.Ref, error) {
	lhs, err := next()
	if err != nil {
		return ast.Invalid, err
	}
	for {
		matched := false
		for _, op := range ops {
			if p.check(op) {
				matched = true
				break
			}
		}
		if !matched {
			return lhs, nil
		}
		opTok := p.advance()
		rhs, err := next()
		if err != nil {
			return ast.Invalid, err
		}
		lhsT := p.tree.Get(lhs).Type
		rhsT := p.tree.Get(rhs).Type
		resultT := types.Dominant(lhsT, rhsT)
		if token.IsComparison(opTok.Type) {
			resultT = types.Bool
		}
		lhs = p.tree.New(ast.Node{Kind: ast.KindBinary, Pos: opTok.Pos, Op: opTok.Type, Lhs: lhs, Rhs: rhs, Type: resultT})
	}
}

func (p *Parser) parseLogicalOr() (ast.Ref, error) {
	return p.binaryLevel(p.parseLogicalAnd, token.OPBOOLOR)
}
func (p *Parser) parseLogicalAnd() (ast.Ref, error) {
	return p.binaryLevel(p.parseBitOr, token.OPBOOLAND)
}
func (p *Parser) parseBitOr() (ast.Ref, error) { return p.binaryLevel(p.parseBitXor, token.OPBITOR) }
func (p *Parser) parseBitXor() (ast.Ref, error) {
	return p.binaryLevel(p.parseBitAnd, token.OPBITXOR)
}
func (p *Parser) parseBitAnd() (ast.Ref, error) {
	return p.binaryLevel(p.parseEquality, token.AMPERSAND)
}
func (p *Parser) parseEquality() (ast.Ref, error) {
	return p.binaryLevel(p.parseRelational, token.OPEQ, token.OPNEQ)
}
func (p *Parser) parseRelational() (ast.Ref, error) {
	return p.binaryLevel(p.parseShift, token.OPLT, token.OPLTE, token.OPGT, token.OPGTE)
}
func (p *Parser) parseShift() (ast.Ref, error) {
	return p.binaryLevel(p.parseAdditive, token.OPLSHIFT, token.OPRSHIFT)
}
func (p *Parser) parseAdditive() (ast.Ref, error) {
	return p.binaryLevel(p.parseMultiplicative, token.OPADD, token.OPSUB)
}
func (p *Parser) parseMultiplicative() (ast.Ref, error) {
	return p.binaryLevel(p.parseUnary, token.ASTERISK, token.OPDIV, token.OPMOD)
}

// parseUnary handles prefix `-`, `!`, `~`, and a C-style typecast
// `(type) expr`.
func (p *Parser) parseUnary() (ast.Ref, error) {
	switch p.peek().Type {
	case token.OPSUB, token.OPBOOLNOT, token.OPBITNOT:
		opTok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return ast.Invalid, err
		}
		t := p.tree.Get(operand).Type
		if opTok.Type == token.OPBOOLNOT {
			t = types.Bool
		}
		return p.tree.New(ast.Node{Kind: ast.KindUnary, Pos: opTok.Pos, Op: opTok.Type, Lhs: operand, Type: t}), nil
	case token.LPAREN:
		if p.isTypeAhead() {
			pos := p.peek().Pos
			p.advance()
			t, err := p.parseType()
			if err != nil {
				return ast.Invalid, err
			}
			if _, err := p.expect(token.RPAREN); err != nil {
				return ast.Invalid, err
			}
			operand, err := p.parseUnary()
			if err != nil {
				return ast.Invalid, err
			}
			return p.tree.New(ast.Node{Kind: ast.KindTypeCast, Pos: pos, Init: operand, Type: t}), nil
		}
	}
	return p.parsePostfix()
}

// isTypeAhead reports whether the token after the current LPAREN
// starts a type, distinguishing a typecast `(int) x` from a
// parenthesized expression `(x + 1)`.
func (p *Parser) isTypeAhead() bool {
	switch p.peekAt(1).Type {
	case token.UNSIGNED, token.SIGNED, token.CONST,
		token.TYPEINT, token.TYPEFLOAT, token.TYPECHAR, token.TYPEBOOL, token.VOID:
		return true
	}
	return false
}

// parsePostfix handles call application and array subscripting on a
// primary expression.
func (p *Parser) parsePostfix() (ast.Ref, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return ast.Invalid, err
	}
	for {
		if p.check(token.LBRACKET) {
			pos := p.advance().Pos
			idx, err := p.parseExpr()
			if err != nil {
				return ast.Invalid, err
			}
			if _, err := p.expect(token.RBRACKET); err != nil {
				return ast.Invalid, err
			}
			elemT := p.tree.Get(base).Type.Dereferenced()
			base = p.tree.New(ast.Node{Kind: ast.KindArraySubscript, Pos: pos, Lhs: base, Rhs: idx, Type: elemT})
			continue
		}
		break
	}
	return base, nil
}

// parsePrimary handles literals, identifiers, calls, and parenthesized
// expressions.
func (p *Parser) parsePrimary() (ast.Ref, error) {
	tok := p.peek()
	switch tok.Type {
	case token.LITINT:
		p.advance()
		v, err := lexer.ParseIntLiteral(tok.Raw)
		if err != nil {
			return ast.Invalid, p.errorf("invalid integer literal %q", tok.Raw)
		}
		return p.tree.New(ast.Node{Kind: ast.KindIntLit, Pos: tok.Pos, IntVal: v, Type: types.Int}), nil

	case token.LITFLOAT:
		p.advance()
		v, err := lexer.ParseFloatLiteral(tok.Raw)
		if err != nil {
			return ast.Invalid, p.errorf("invalid float literal %q", tok.Raw)
		}
		return p.tree.New(ast.Node{Kind: ast.KindFloatLit, Pos: tok.Pos, FloatVal: v, Type: types.Type{Prim: token.TYPEFLOAT}}), nil

	case token.LITBOOL:
		p.advance()
		return p.tree.New(ast.Node{Kind: ast.KindBoolLit, Pos: tok.Pos, BoolVal: tok.Raw == "true", Type: types.Bool}), nil

	case token.LITCHAR:
		p.advance()
		var c byte
		if len(tok.Raw) > 0 {
			c = tok.Raw[0]
		}
		return p.tree.New(ast.Node{Kind: ast.KindCharLit, Pos: tok.Pos, CharVal: c, Type: types.Char}), nil

	case token.LITSTRING:
		p.advance()
		return p.tree.New(ast.Node{Kind: ast.KindStringLit, Pos: tok.Pos, StringVal: tok.Raw, Type: types.Char.WithAddress()}), nil

	case token.LPAREN:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return ast.Invalid, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return ast.Invalid, err
		}
		return e, nil

	case token.IDENTIFIER:
		p.advance()
		if p.check(token.LPAREN) {
			return p.parseCall(tok)
		}
		t, ok := p.lookupVar(tok.Raw)
		if !ok {
			return ast.Invalid, &Error{Pos: tok.Pos, Msg: "unknown identifier " + tok.Raw}
		}
		return p.tree.New(ast.Node{Kind: ast.KindIdentifier, Pos: tok.Pos, Name: tok.Raw, Type: t}), nil
	}
	return ast.Invalid, p.errorf("unexpected token %v (%q) in expression", tok.Type, tok.Raw)
}

func (p *Parser) parseCall(nameTok token.Token) (ast.Ref, error) {
	p.advance() // consume '('
	sig, ok := p.funcs[nameTok.Raw]
	if !ok {
		return ast.Invalid, &Error{Pos: nameTok.Pos, Msg: "call to unknown function " + nameTok.Raw}
	}
	var args []ast.Ref
	if !p.check(token.RPAREN) {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return ast.Invalid, err
			}
			args = append(args, arg)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return ast.Invalid, err
	}
	if len(args) != len(sig.params) {
		return ast.Invalid, &Error{Pos: nameTok.Pos, Msg: "argument count mismatch calling " + nameTok.Raw}
	}
	return p.tree.New(ast.Node{
		Kind: ast.KindCall, Pos: nameTok.Pos, Name: nameTok.Raw,
		Children: args, Type: sig.ret,
	}), nil
}
