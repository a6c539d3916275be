// Package tlang ties the lexer, parser, and code generator together
// into a single source-to-assembly compilation pass, grounded on
// original_source/tlang/t_compiler.cpp's tokenize/parse/translate
// pipeline.
package tlang

import (
	"github.com/travis-heavener/tpu2-sub000/internal/tlang/codegen"
	"github.com/travis-heavener/tpu2-sub000/internal/tlang/lexer"
	"github.com/travis-heavener/tpu2-sub000/internal/tlang/parser"
)

// Compile lexes, parses, and generates TPU assembly text for a single
// T-language source file.
func Compile(filename, src string) (string, error) {
	toks, err := lexer.Lex(filename, src)
	if err != nil {
		return "", err
	}
	tree, err := parser.Parse(toks)
	if err != nil {
		return "", err
	}
	return codegen.Generate(tree)
}
