// Package lexer tokenizes T-language source, grounded on
// original_source/tlang/lexer.cpp's character-class dispatch loop
// (line-oriented scan, digit/quote/identifier-start dispatch) and
// toolbox.cpp's escape-character table.
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/travis-heavener/tpu2-sub000/internal/tlang/token"
)

// Error is a lex-phase error carrying a source position.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

var escapes = map[byte]byte{
	'a': '\a', 'b': '\b', 't': '\t', 'n': '\n',
	'v': '\v', 'f': '\f', 'r': '\r', 'e': 0x1B,
	'\\': '\\', '\'': '\'', '"': '"', '0': 0,
}

var twoCharOps = map[string]token.Type{
	"<=": token.OPLTE, ">=": token.OPGTE,
	"<<": token.OPLSHIFT, ">>": token.OPRSHIFT,
	"||": token.OPBOOLOR, "&&": token.OPBOOLAND,
	"==": token.OPEQ, "!=": token.OPNEQ,
}

var oneCharOps = map[byte]token.Type{
	'(': token.LPAREN, ')': token.RPAREN,
	'[': token.LBRACKET, ']': token.RBRACKET,
	'{': token.LBRACE, '}': token.RBRACE,
	',': token.COMMA, ';': token.SEMICOLON,
	'<': token.OPLT, '>': token.OPGT,
	'+': token.OPADD, '-': token.OPSUB,
	'*': token.ASTERISK, '/': token.OPDIV, '%': token.OPMOD,
	'|': token.OPBITOR, '&': token.AMPERSAND,
	'~': token.OPBITNOT, '^': token.OPBITXOR,
	'!': token.OPBOOLNOT, '=': token.ASSIGN,
}

// Lex tokenizes the entirety of src (a full file's contents) and
// appends a trailing EOF token.
func Lex(file, src string) ([]token.Token, error) {
	var toks []token.Token
	lines := strings.Split(src, "\n")
	for lineIdx, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		lineToks, err := lexLine(file, lineIdx+1, line)
		if err != nil {
			return nil, err
		}
		toks = append(toks, lineToks...)
	}
	last := token.Pos{File: file, Line: len(lines) + 1, Column: 1}
	toks = append(toks, token.Token{Type: token.EOF, Pos: last})
	return toks, nil
}

func lexLine(file string, lineNo int, line string) ([]token.Token, error) {
	var toks []token.Token
	n := len(line)
	for i := 0; i < n; i++ {
		c := line[i]
		if c == ' ' || c == '\t' {
			continue
		}
		pos := token.Pos{File: file, Line: lineNo, Column: i + 1}

		// line comment
		if c == '/' && i+1 < n && line[i+1] == '/' {
			break
		}

		switch {
		case c >= '0' && c <= '9':
			j := i
			isFloat := false
			for j < n && (isDigit(line[j]) || line[j] == '.') {
				if line[j] == '.' {
					isFloat = true
				}
				j++
			}
			raw := line[i:j]
			typ := token.LITINT
			if isFloat {
				typ = token.LITFLOAT
			}
			toks = append(toks, token.Token{Type: typ, Raw: raw, Pos: pos})
			i = j - 1

		case c == '\'':
			j := i + 1
			var buf strings.Builder
			closed := false
			for j < n {
				if line[j] == '\\' {
					if j+1 >= n {
						return nil, &Error{Pos: pos, Msg: "invalid escape sequence in char literal"}
					}
					esc, ok := escapes[line[j+1]]
					if !ok {
						return nil, &Error{Pos: pos, Msg: fmt.Sprintf("invalid escape character %q", line[j+1])}
					}
					buf.WriteByte(esc)
					j += 2
					continue
				}
				if line[j] == '\'' {
					closed = true
					j++
					break
				}
				buf.WriteByte(line[j])
				j++
			}
			if !closed {
				return nil, &Error{Pos: pos, Msg: "unclosed char literal"}
			}
			toks = append(toks, token.Token{Type: token.LITCHAR, Raw: buf.String(), Pos: pos})
			i = j - 1

		case c == '"':
			j := i + 1
			var buf strings.Builder
			closed := false
			for j < n {
				if line[j] == '\\' {
					if j+1 >= n {
						return nil, &Error{Pos: pos, Msg: "invalid escape sequence in string literal"}
					}
					esc, ok := escapes[line[j+1]]
					if !ok {
						return nil, &Error{Pos: pos, Msg: fmt.Sprintf("invalid escape character %q", line[j+1])}
					}
					buf.WriteByte(esc)
					j += 2
					continue
				}
				if line[j] == '"' {
					closed = true
					j++
					break
				}
				buf.WriteByte(line[j])
				j++
			}
			if !closed {
				return nil, &Error{Pos: pos, Msg: "unclosed string literal"}
			}
			toks = append(toks, token.Token{Type: token.LITSTRING, Raw: buf.String(), Pos: pos})
			i = j - 1

		case isIdentStart(c):
			j := i
			for j < n && isIdentChar(line[j]) {
				j++
			}
			raw := line[i:j]
			typ := token.Lookup(raw)
			tok := token.Token{Type: typ, Raw: raw, Pos: pos}
			if typ == token.LITBOOL {
				tok.Raw = raw
			}
			toks = append(toks, tok)
			i = j - 1

		default:
			if i+1 < n {
				if typ, ok := twoCharOps[line[i:i+2]]; ok {
					toks = append(toks, token.Token{Type: typ, Raw: line[i : i+2], Pos: pos})
					i++
					continue
				}
			}
			typ, ok := oneCharOps[c]
			if !ok {
				return nil, &Error{Pos: pos, Msg: fmt.Sprintf("unexpected character %q", c)}
			}
			toks = append(toks, token.Token{Type: typ, Raw: string(c), Pos: pos})
		}
	}
	return toks, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

// ParseIntLiteral converts a LITINT token's raw text to its value.
func ParseIntLiteral(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

// ParseFloatLiteral converts a LITFLOAT token's raw text to its value.
func ParseFloatLiteral(raw string) (float64, error) {
	return strconv.ParseFloat(raw, 64)
}
