// Package token defines the lexical tokens of the T language, grounded
// on original_source/tlang/util/token.hpp.
package token

import "fmt"

// Type enumerates the lexical categories of a T-language token.
type Type int

const (
	RETURN Type = iota
	SEMICOLON
	IDENTIFIER
	IF
	ELSEIF
	ELSE
	WHILE
	FOR
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	LBRACE
	RBRACE
	COMMA

	TYPEINT
	TYPEFLOAT
	TYPECHAR
	TYPEBOOL
	VOID

	LITINT
	LITFLOAT
	LITBOOL
	LITCHAR
	LITSTRING

	UNSIGNED
	SIGNED
	CONST

	OPLT
	OPLTE
	OPGT
	OPGTE
	OPLSHIFT
	OPRSHIFT
	OPADD
	OPSUB
	ASTERISK
	OPDIV
	OPMOD
	OPBITOR
	AMPERSAND
	OPBITNOT
	OPBITXOR
	OPBOOLOR
	OPBOOLAND
	OPBOOLNOT
	OPEQ
	OPNEQ

	ASSIGN

	EOF
)

var names = map[Type]string{
	RETURN: "return", SEMICOLON: ";", IDENTIFIER: "identifier",
	IF: "if", ELSEIF: "else if", ELSE: "else", WHILE: "while", FOR: "for",
	LPAREN: "(", RPAREN: ")", LBRACKET: "[", RBRACKET: "]", LBRACE: "{", RBRACE: "}",
	COMMA:     ",",
	TYPEINT:   "int", TYPEFLOAT: "float", TYPECHAR: "char", TYPEBOOL: "bool", VOID: "void",
	LITINT:    "int literal", LITFLOAT: "float literal", LITBOOL: "bool literal",
	LITCHAR:   "char literal", LITSTRING: "string literal",
	UNSIGNED:  "unsigned", SIGNED: "signed", CONST: "const",
	OPLT: "<", OPLTE: "<=", OPGT: ">", OPGTE: ">=",
	OPLSHIFT: "<<", OPRSHIFT: ">>",
	OPADD: "+", OPSUB: "-", ASTERISK: "*", OPDIV: "/", OPMOD: "%",
	OPBITOR: "|", AMPERSAND: "&", OPBITNOT: "~", OPBITXOR: "^",
	OPBOOLOR: "||", OPBOOLAND: "&&", OPBOOLNOT: "!",
	OPEQ: "==", OPNEQ: "!=",
	ASSIGN: "=",
	EOF:    "EOF",
}

func (t Type) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Pos is a source location: line and column are both 1-based.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Token is a single lexed unit: its type, raw source text, and position.
type Token struct {
	Type Type
	Raw  string
	Pos  Pos
}

// keywords maps reserved identifiers to their token type.
var keywords = map[string]Type{
	"return": RETURN, "if": IF, "else": ELSE, "while": WHILE, "for": FOR,
	"int": TYPEINT, "float": TYPEFLOAT, "char": TYPECHAR, "bool": TYPEBOOL, "void": VOID,
	"unsigned": UNSIGNED, "signed": SIGNED, "const": CONST,
	"true": LITBOOL, "false": LITBOOL,
}

// Lookup returns the keyword token type for ident, or IDENTIFIER if ident
// is not a reserved word.
func Lookup(ident string) Type {
	if t, ok := keywords[ident]; ok {
		return t
	}
	return IDENTIFIER
}

// IsPrimitiveType reports whether t names a primitive type keyword.
func IsPrimitiveType(t Type) bool {
	switch t {
	case TYPEINT, TYPEFLOAT, TYPECHAR, TYPEBOOL, VOID:
		return true
	}
	return false
}

// IsComparison reports whether t is a relational or equality operator.
func IsComparison(t Type) bool {
	switch t {
	case OPLT, OPLTE, OPGT, OPGTE, OPEQ, OPNEQ:
		return true
	}
	return false
}
