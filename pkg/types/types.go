// Package types defines the runtime values of RustyScript programs.
// Integers drive control flow and action results; strings only travel as
// action arguments.
package types

import (
	"strconv"
	"strings"
)

// Type names, shared by the semantic analyzer and the interpreter.
const (
	TypeInt    = "int"
	TypeString = "string"
)

// Value is the interface all runtime values implement.
type Value interface {
	// String returns the source-like representation
	String() string
	// Type returns the type name for error messages
	Type() string
	// Equal checks equality with another value
	Equal(other Value) bool
}

// Int is the only numeric type. Comparisons yield 1 or 0.
type Int int64

func (n Int) String() string { return strconv.FormatInt(int64(n), 10) }
func (n Int) Type() string   { return TypeInt }

func (n Int) Equal(other Value) bool {
	if o, ok := other.(Int); ok {
		return n == o
	}
	return false
}

// String is a string literal value.
type String string

func (s String) String() string { return "'" + string(s) + "'" }
func (s String) Type() string   { return TypeString }

func (s String) Equal(other Value) bool {
	if o, ok := other.(String); ok {
		return s == o
	}
	return false
}

// Bool converts a Go bool to the Int the language uses for truth.
func Bool(b bool) Int {
	if b {
		return 1
	}
	return 0
}

// Truthy reports whether v counts as true in a condition.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Int:
		return x != 0
	case String:
		return x != ""
	}
	return false
}

// Text renders v the way debug output shows it: strings without quotes.
func Text(v Value) string {
	if s, ok := v.(String); ok {
		return string(s)
	}
	return v.String()
}

// Join renders values separated by single spaces.
func Join(vals []Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = Text(v)
	}
	return strings.Join(parts, " ")
}
