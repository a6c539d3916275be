// Package codegen lowers a T-language AST to TPU assembly text,
// grounded on original_source/tlang/assembler.cpp's tree-walking
// emitter, restructured per the Design Note in SPEC_FULL.md/spec.md §9:
// the original's file-scope mutable label/function-ID counters become
// an explicit Context value threaded through every call, so label
// generation is a pure function of the context it's given rather than
// a hidden global.
package codegen

import "fmt"

// Context carries the monotonic counters used to mint fresh, globally
// unique label and function names during generation.
type Context struct {
	labelSeq int
	funcSeq  int
}

// NewContext returns a zeroed context.
func NewContext() *Context {
	return &Context{}
}

// NextLabel mints a fresh branch-target label, e.g. "__J0", "__J1", ...
func (c *Context) NextLabel() string {
	l := fmt.Sprintf("__J%d", c.labelSeq)
	c.labelSeq++
	return l
}

// NextFuncLabel mints a fresh non-main function label, e.g. "__UF0".
func (c *Context) NextFuncLabel() string {
	l := fmt.Sprintf("__UF%d", c.funcSeq)
	c.funcSeq++
	return l
}
