package parser

import (
	"testing"

	"github.com/travis-heavener/tpu2-sub000/internal/tlang/ast"
	"github.com/travis-heavener/tpu2-sub000/internal/tlang/lexer"
)

func mustParse(t *testing.T, src string) *ast.Tree {
	t.Helper()
	toks, err := lexer.Lex("test.t", src)
	if err != nil {
		t.Fatalf("lex failed: %v", err)
	}
	tree, err := Parse(toks)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return tree
}

func TestParseConditionalFunction(t *testing.T) {
	tree := mustParse(t, "int f(int x) { if (x > 3) return 1; return 0; }")
	prog := tree.Get(tree.Root)
	if len(prog.Children) != 1 {
		t.Fatalf("expected 1 top-level function, got %d", len(prog.Children))
	}
	fn := tree.Get(prog.Children[0])
	if fn.Kind != ast.KindFunction || fn.Name != "f" || fn.NumParams != 1 {
		t.Fatalf("unexpected function node: %+v", fn)
	}
	body := tree.Get(fn.Body)
	if len(body.Children) != 2 {
		t.Fatalf("expected if-stmt + return, got %d statements", len(body.Children))
	}
	ifNode := tree.Get(body.Children[0])
	if ifNode.Kind != ast.KindIf {
		t.Fatalf("expected an if statement, got %v", ifNode.Kind)
	}
}

func TestParseWhileLoopAccumulator(t *testing.T) {
	src := "int s() { int i = 0; int t = 0; while (i < 5) { t = t + i; i = i + 1; } return t; }"
	tree := mustParse(t, src)
	fn := tree.Get(tree.Get(tree.Root).Children[0])
	body := tree.Get(fn.Body)
	if len(body.Children) != 4 {
		t.Fatalf("expected 4 statements in body, got %d", len(body.Children))
	}
	whileNode := tree.Get(body.Children[2])
	if whileNode.Kind != ast.KindWhile {
		t.Fatalf("expected a while loop, got %v", whileNode.Kind)
	}
}

func TestParseRejectsAssignmentToLiteral(t *testing.T) {
	toks, err := lexer.Lex("test.t", "int f() { 1 = 2; return 0; }")
	if err != nil {
		t.Fatalf("lex failed: %v", err)
	}
	if _, err := Parse(toks); err == nil {
		t.Errorf("expected a semantic error assigning to a literal")
	}
}

func TestParseRejectsUnknownIdentifier(t *testing.T) {
	toks, err := lexer.Lex("test.t", "int f() { return y; }")
	if err != nil {
		t.Fatalf("lex failed: %v", err)
	}
	if _, err := Parse(toks); err == nil {
		t.Errorf("expected an unknown-identifier error")
	}
}
