// Package types implements the T-language type system, grounded on
// original_source/tlang/util/type.hpp: a primitive kind plus pointer and
// array-dimension modifiers, with byte-size computation sized to the
// 16-bit TPU word.
package types

import "github.com/travis-heavener/tpu2-sub000/internal/tlang/token"

// Type describes a T-language value's shape: a primitive kind, any
// pointer indirection, and any array dimensions (recorded in source
// order, outermost first, so ArrayDims[0] is the dimension a subscript
// removes).
type Type struct {
	Prim       token.Type
	Unsigned   bool
	Const      bool
	Pointers   int
	ArrayDims  []int // 0 means an unsized dimension (e.g. a function parameter)
}

// Int is the canonical signed 16-bit integer type.
var Int = Type{Prim: token.TYPEINT}

// Void is the canonical empty type, used for functions with no return value.
var Void = Type{Prim: token.VOID}

// Bool is the canonical boolean type.
var Bool = Type{Prim: token.TYPEBOOL}

// Char is the canonical 8-bit character type.
var Char = Type{Prim: token.TYPECHAR}

// IsVoidNonPtr reports whether t is exactly void (not a void pointer).
func (t Type) IsVoidNonPtr() bool {
	return t.Prim == token.VOID && t.Pointers == 0
}

// IsPointer reports whether t has any pointer indirection.
func (t Type) IsPointer() bool {
	return t.Pointers > 0
}

// IsArray reports whether t carries array dimensions.
func (t Type) IsArray() bool {
	return len(t.ArrayDims) > 0
}

// WithAddress returns the type of &t: one more level of pointer
// indirection, with any array dimensions collapsed away (an address
// expression discards array-ness, mirroring the original's
// getAddressPointer).
func (t Type) WithAddress() Type {
	addr := t
	addr.ArrayDims = nil
	addr.Pointers++
	return addr
}

// Dereferenced returns the type produced by subscripting or
// dereferencing t once.
func (t Type) Dereferenced() Type {
	if len(t.ArrayDims) > 0 {
		d := t
		d.ArrayDims = append([]int{}, t.ArrayDims[1:]...)
		return d
	}
	d := t
	d.Pointers--
	return d
}

// primitiveSize returns the width in bytes of a primitive type, before
// any pointer/array adjustment. Matches getSizeOfType in
// original_source/tlang/util/token.cpp.
func primitiveSize(p token.Type) int {
	switch p {
	case token.TYPECHAR, token.TYPEBOOL:
		return 1
	case token.TYPEINT, token.TYPEFLOAT, token.VOID:
		return 2
	}
	return 2
}

// SizeBytes returns t's size on the TPU stack. A pointer (including an
// array decaying to a pointer in a parameter position) is always a
// 16-bit address. An array type's size is the product of its
// dimensions and element size; an unsized dimension (size 0) in any
// position makes the whole array a pointer width, matching the original's
// SIZE_ARR_AS_PTR escape hatch for parameter passing.
func (t Type) SizeBytes() int {
	if t.Pointers > 0 {
		return 2
	}
	if len(t.ArrayDims) > 0 {
		total := primitiveSize(t.Prim)
		for _, d := range t.ArrayDims {
			if d == 0 {
				return 2
			}
			total *= d
		}
		return total
	}
	return primitiveSize(t.Prim)
}

// Equal reports whether t and u describe the same type, ignoring const.
func (t Type) Equal(u Type) bool {
	if t.Prim != u.Prim || t.Pointers != u.Pointers || len(t.ArrayDims) != len(u.ArrayDims) {
		return false
	}
	for i := range t.ArrayDims {
		if t.ArrayDims[i] != u.ArrayDims[i] {
			return false
		}
	}
	return true
}

// Dominant returns the type that a and b should both be promoted to
// for a binary operation between them: the wider of the two primitive
// widths, preferring an unsigned qualifier if either operand carries one.
func Dominant(a, b Type) Type {
	if a.SizeBytes() >= b.SizeBytes() {
		d := a
		d.Unsigned = a.Unsigned || b.Unsigned
		return d
	}
	d := b
	d.Unsigned = a.Unsigned || b.Unsigned
	return d
}

// String renders a human-readable type name, for error messages.
func (t Type) String() string {
	s := ""
	if t.Unsigned {
		s += "unsigned "
	}
	switch t.Prim {
	case token.TYPEINT:
		s += "int"
	case token.TYPEFLOAT:
		s += "float"
	case token.TYPECHAR:
		s += "char"
	case token.TYPEBOOL:
		s += "bool"
	case token.VOID:
		s += "void"
	default:
		s += t.Prim.String()
	}
	for i := 0; i < t.Pointers; i++ {
		s += "*"
	}
	for range t.ArrayDims {
		s += "[]"
	}
	return s
}
