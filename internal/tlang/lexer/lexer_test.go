package lexer

import (
	"testing"

	"github.com/travis-heavener/tpu2-sub000/internal/tlang/token"
)

func TestLexSimpleFunction(t *testing.T) {
	src := "int f(int x) { if (x > 3) return 1; return 0; }"
	toks, err := Lex("test.t", src)
	if err != nil {
		t.Fatalf("lex failed: %v", err)
	}
	want := []token.Type{
		token.TYPEINT, token.IDENTIFIER, token.LPAREN, token.TYPEINT, token.IDENTIFIER, token.RPAREN,
		token.LBRACE,
		token.IF, token.LPAREN, token.IDENTIFIER, token.OPGT, token.LITINT, token.RPAREN,
		token.RETURN, token.LITINT, token.SEMICOLON,
		token.RETURN, token.LITINT, token.SEMICOLON,
		token.RBRACE,
		token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, expected %d: %v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d got: %v expected: %v", i, toks[i].Type, w)
		}
	}
}

func TestLexUnclosedCharLiteralErrors(t *testing.T) {
	_, err := Lex("test.t", "char c = 'a")
	if err == nil {
		t.Errorf("expected an unclosed char literal error")
	}
}

func TestLexCompoundOperators(t *testing.T) {
	toks, err := Lex("test.t", "a <= b && c != d")
	if err != nil {
		t.Fatalf("lex failed: %v", err)
	}
	want := []token.Type{token.IDENTIFIER, token.OPLTE, token.IDENTIFIER, token.OPBOOLAND, token.IDENTIFIER, token.OPNEQ, token.IDENTIFIER, token.EOF}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d got: %v expected: %v", i, toks[i].Type, w)
		}
	}
}
