// Package parser implements the T-language parser: recursive descent
// for top-level declarations and statements, precedence-climbing for
// expressions, grounded on original_source/tlang/parser/parser.cpp and
// parser_precedences.cpp (a chain of per-level parse functions walking
// C's operator-precedence table) and restructured around the arena
// AST in internal/tlang/ast.
package parser

import (
	"fmt"

	"github.com/travis-heavener/tpu2-sub000/internal/tlang/ast"
	"github.com/travis-heavener/tpu2-sub000/internal/tlang/token"
	"github.com/travis-heavener/tpu2-sub000/internal/tlang/types"
)

// Error is a parse-phase error carrying a source position.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// varScope is one level of the parser's name -> Type scope stack, used
// for semantic checks (unknown identifier, duplicate declaration)
// during parsing itself, distinct from the codegen-time byte-offset
// Scope in internal/tlang/scope.
type varScope struct {
	vars map[string]types.Type
}

type funcSig struct {
	ret    types.Type
	params []types.Type
}

// Parser walks a flat token stream and builds an ast.Tree.
type Parser struct {
	toks  []token.Token
	pos   int
	tree  *ast.Tree
	scope []*varScope
	funcs map[string]funcSig
}

// Parse builds an ast.Tree from a tokenized T-language source file.
func Parse(toks []token.Token) (*ast.Tree, error) {
	p := &Parser{
		toks:  toks,
		tree:  ast.NewTree(),
		funcs: map[string]funcSig{},
	}
	p.pushScope()
	return p.parseProgram()
}

func (p *Parser) pushScope() { p.scope = append(p.scope, &varScope{vars: map[string]types.Type{}}) }
func (p *Parser) popScope()  { p.scope = p.scope[:len(p.scope)-1] }

func (p *Parser) declareVar(name string, t types.Type) error {
	top := p.scope[len(p.scope)-1]
	if _, exists := top.vars[name]; exists {
		return p.errorf("identifier %q already declared in this scope", name)
	}
	top.vars[name] = t
	return nil
}

func (p *Parser) lookupVar(name string) (types.Type, bool) {
	for i := len(p.scope) - 1; i >= 0; i-- {
		if t, ok := p.scope[i].vars[name]; ok {
			return t, true
		}
	}
	return types.Type{}, false
}

func (p *Parser) peek() token.Token  { return p.toks[p.pos] }
func (p *Parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}
func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) check(t token.Type) bool { return p.peek().Type == t }

func (p *Parser) match(t token.Type) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(t token.Type) (token.Token, error) {
	if !p.check(t) {
		return token.Token{}, p.errorf("expected %v, found %v (%q)", t, p.peek().Type, p.peek().Raw)
	}
	return p.advance(), nil
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return &Error{Pos: p.peek().Pos, Msg: fmt.Sprintf(format, args...)}
}

// parseProgram parses { function } to EOF.
func (p *Parser) parseProgram() (*ast.Tree, error) {
	var funcs []ast.Ref
	for !p.check(token.EOF) {
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, fn)
	}
	root := p.tree.New(ast.Node{Kind: ast.KindProgram, Children: funcs})
	p.tree.Root = root
	return p.tree, nil
}

// parseType parses an optional signedness/const qualifier, a primitive
// type keyword, and any trailing '*' pointer markers.
func (p *Parser) parseType() (types.Type, error) {
	var t types.Type
	for {
		switch p.peek().Type {
		case token.UNSIGNED:
			t.Unsigned = true
			p.advance()
			continue
		case token.SIGNED:
			p.advance()
			continue
		case token.CONST:
			t.Const = true
			p.advance()
			continue
		}
		break
	}
	if !token.IsPrimitiveType(p.peek().Type) {
		return t, p.errorf("expected a type, found %v", p.peek().Type)
	}
	t.Prim = p.advance().Type
	for p.match(token.ASTERISK) {
		t.Pointers++
	}
	return t, nil
}

// parseFunction parses `type name(params) block`.
func (p *Parser) parseFunction() (ast.Ref, error) {
	pos := p.peek().Pos
	retType, err := p.parseType()
	if err != nil {
		return ast.Invalid, err
	}
	nameTok, err := p.expect(token.IDENTIFIER)
	if err != nil {
		return ast.Invalid, err
	}
	name := nameTok.Raw
	if _, err := p.expect(token.LPAREN); err != nil {
		return ast.Invalid, err
	}

	p.pushScope()
	var params []ast.Ref
	var paramTypes []types.Type
	if !p.check(token.RPAREN) {
		for {
			pt, perr := p.parseType()
			if perr != nil {
				return ast.Invalid, perr
			}
			pnameTok, perr := p.expect(token.IDENTIFIER)
			if perr != nil {
				return ast.Invalid, perr
			}
			for p.match(token.LBRACKET) {
				if _, err := p.expect(token.RBRACKET); err != nil {
					return ast.Invalid, err
				}
				pt.ArrayDims = append(pt.ArrayDims, 0)
			}
			if err := p.declareVar(pnameTok.Raw, pt); err != nil {
				return ast.Invalid, err
			}
			params = append(params, p.tree.New(ast.Node{Kind: ast.KindFuncParam, Name: pnameTok.Raw, Type: pt}))
			paramTypes = append(paramTypes, pt)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return ast.Invalid, err
	}

	p.funcs[name] = funcSig{ret: retType, params: paramTypes}

	body, err := p.parseBlock()
	if err != nil {
		return ast.Invalid, err
	}
	p.popScope()

	fn := p.tree.New(ast.Node{
		Kind: ast.KindFunction, Pos: pos, Type: retType, Name: name,
		Children: params, Body: body, NumParams: len(params),
	})
	return fn, nil
}

// parseBlock parses `{ statement* }`.
func (p *Parser) parseBlock() (ast.Ref, error) {
	pos := p.peek().Pos
	if _, err := p.expect(token.LBRACE); err != nil {
		return ast.Invalid, err
	}
	p.pushScope()
	var stmts []ast.Ref
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		s, err := p.parseStatement()
		if err != nil {
			return ast.Invalid, err
		}
		stmts = append(stmts, s)
	}
	p.popScope()
	if _, err := p.expect(token.RBRACE); err != nil {
		return ast.Invalid, err
	}
	return p.tree.New(ast.Node{Kind: ast.KindBlock, Pos: pos, Children: stmts}), nil
}

func (p *Parser) isTypeStart() bool {
	switch p.peek().Type {
	case token.UNSIGNED, token.SIGNED, token.CONST,
		token.TYPEINT, token.TYPEFLOAT, token.TYPECHAR, token.TYPEBOOL, token.VOID:
		return true
	}
	return false
}

func (p *Parser) parseStatement() (ast.Ref, error) {
	switch p.peek().Type {
	case token.LBRACE:
		return p.parseBlock()
	case token.RETURN:
		return p.parseReturn()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	}
	if p.isTypeStart() {
		return p.parseVarDeclStatement()
	}
	return p.parseExprStatement()
}

func (p *Parser) parseVarDeclStatement() (ast.Ref, error) {
	n, err := p.parseVarDecl()
	if err != nil {
		return ast.Invalid, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return ast.Invalid, err
	}
	return n, nil
}

// parseVarDecl parses `type name ('[' int ']')* ('=' expr)?` without
// consuming the trailing semicolon, for reuse in for-loop initializers.
func (p *Parser) parseVarDecl() (ast.Ref, error) {
	pos := p.peek().Pos
	t, err := p.parseType()
	if err != nil {
		return ast.Invalid, err
	}
	nameTok, err := p.expect(token.IDENTIFIER)
	if err != nil {
		return ast.Invalid, err
	}
	for p.match(token.LBRACKET) {
		sizeTok, err := p.expect(token.LITINT)
		if err != nil {
			return ast.Invalid, err
		}
		var dim int
		fmt.Sscanf(sizeTok.Raw, "%d", &dim)
		if _, err := p.expect(token.RBRACKET); err != nil {
			return ast.Invalid, err
		}
		t.ArrayDims = append(t.ArrayDims, dim)
	}
	if err := p.declareVar(nameTok.Raw, t); err != nil {
		return ast.Invalid, err
	}

	init := ast.Invalid
	if p.match(token.ASSIGN) {
		init, err = p.parseExpr()
		if err != nil {
			return ast.Invalid, err
		}
	}
	return p.tree.New(ast.Node{Kind: ast.KindVarDecl, Pos: pos, Name: nameTok.Raw, Type: t, Init: init}), nil
}

func (p *Parser) parseReturn() (ast.Ref, error) {
	pos := p.peek().Pos
	p.advance()
	init := ast.Invalid
	if !p.check(token.SEMICOLON) {
		var err error
		init, err = p.parseExpr()
		if err != nil {
			return ast.Invalid, err
		}
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return ast.Invalid, err
	}
	return p.tree.New(ast.Node{Kind: ast.KindReturn, Pos: pos, Init: init}), nil
}

func (p *Parser) parseIf() (ast.Ref, error) {
	pos := p.peek().Pos
	p.advance()
	if _, err := p.expect(token.LPAREN); err != nil {
		return ast.Invalid, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return ast.Invalid, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return ast.Invalid, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return ast.Invalid, err
	}

	next := ast.Invalid
	if p.check(token.ELSE) && p.peekAt(1).Type == token.IF {
		p.advance()
		n, err := p.parseElseIf()
		if err != nil {
			return ast.Invalid, err
		}
		next = n
	} else if p.match(token.ELSE) {
		elseBody, err := p.parseStatement()
		if err != nil {
			return ast.Invalid, err
		}
		next = p.tree.New(ast.Node{Kind: ast.KindElse, Body: elseBody})
	}

	return p.tree.New(ast.Node{Kind: ast.KindIf, Pos: pos, Cond: cond, Body: body, Next: next}), nil
}

func (p *Parser) parseElseIf() (ast.Ref, error) {
	pos := p.peek().Pos
	if _, err := p.expect(token.IF); err != nil {
		return ast.Invalid, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return ast.Invalid, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return ast.Invalid, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return ast.Invalid, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return ast.Invalid, err
	}

	next := ast.Invalid
	if p.check(token.ELSE) && p.peekAt(1).Type == token.IF {
		p.advance()
		n, err := p.parseElseIf()
		if err != nil {
			return ast.Invalid, err
		}
		next = n
	} else if p.match(token.ELSE) {
		elseBody, err := p.parseStatement()
		if err != nil {
			return ast.Invalid, err
		}
		next = p.tree.New(ast.Node{Kind: ast.KindElse, Body: elseBody})
	}
	return p.tree.New(ast.Node{Kind: ast.KindElseIf, Pos: pos, Cond: cond, Body: body, Next: next}), nil
}

func (p *Parser) parseWhile() (ast.Ref, error) {
	pos := p.peek().Pos
	p.advance()
	if _, err := p.expect(token.LPAREN); err != nil {
		return ast.Invalid, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return ast.Invalid, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return ast.Invalid, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return ast.Invalid, err
	}
	return p.tree.New(ast.Node{Kind: ast.KindWhile, Pos: pos, Cond: cond, Body: body}), nil
}

// parseFor parses `for (init?; cond?; update?) stmt`, entirely within
// its own scope since the initializer may declare a loop variable.
func (p *Parser) parseFor() (ast.Ref, error) {
	pos := p.peek().Pos
	p.advance()
	if _, err := p.expect(token.LPAREN); err != nil {
		return ast.Invalid, err
	}
	p.pushScope()
	defer p.popScope()

	init := ast.Invalid
	if !p.check(token.SEMICOLON) {
		var err error
		if p.isTypeStart() {
			init, err = p.parseVarDecl()
		} else {
			init, err = p.parseExpr()
		}
		if err != nil {
			return ast.Invalid, err
		}
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return ast.Invalid, err
	}

	cond := ast.Invalid
	if !p.check(token.SEMICOLON) {
		var err error
		cond, err = p.parseExpr()
		if err != nil {
			return ast.Invalid, err
		}
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return ast.Invalid, err
	}

	update := ast.Invalid
	if !p.check(token.RPAREN) {
		var err error
		update, err = p.parseExpr()
		if err != nil {
			return ast.Invalid, err
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return ast.Invalid, err
	}

	body, err := p.parseStatement()
	if err != nil {
		return ast.Invalid, err
	}
	return p.tree.New(ast.Node{Kind: ast.KindFor, Pos: pos, Init: init, Cond: cond, Update: update, Body: body}), nil
}

func (p *Parser) parseExprStatement() (ast.Ref, error) {
	pos := p.peek().Pos
	e, err := p.parseExpr()
	if err != nil {
		return ast.Invalid, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return ast.Invalid, err
	}
	return p.tree.New(ast.Node{Kind: ast.KindExprStmt, Pos: pos, Init: e}), nil
}
