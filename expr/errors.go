package expr

import (
	"strconv"
)

// These errors are user errors: they indicate a problem with an
// expression or with the values it was evaluated against, not an
// internal failure.

// SyntaxError occurs when expression text cannot be tokenized or
// parsed.
type SyntaxError struct {
	Pos  int
	What string
}

func (e *SyntaxError) Error() string {
	return "syntax error at offset " + strconv.Itoa(e.Pos) + ": " + e.What
}

// UnknownFunction occurs when a Call names a function that is not in
// the builtin table.
//
// This is a resolution problem, not a syntax problem, so the parser
// doesn't report it.  See Check.
type UnknownFunction struct {
	Name string
}

func (e *UnknownFunction) Error() string {
	return `unknown function "` + e.Name + `"`
}

// BadArity occurs when a builtin function is called with the wrong
// number of arguments.
type BadArity struct {
	Name string
	Got  int
}

func (e *BadArity) Error() string {
	return `function "` + e.Name + `" called with ` + strconv.Itoa(e.Got) + " arguments"
}

// Undefined occurs when evaluation encounters an identifier with no
// value in the environment.
type Undefined struct {
	Name string
}

func (e *Undefined) Error() string {
	return `undefined identifier "` + e.Name + `"`
}

// TypeMismatch occurs when an operator or function gets operand
// types that no signature accepts, even after coercion (when
// coercion is enabled).
type TypeMismatch struct {
	Op   string
	What string
}

func (e *TypeMismatch) Error() string {
	s := `type mismatch in "` + e.Op + `"`
	if e.What != "" {
		s += ": " + e.What
	}
	return s
}

// DomainError occurs when a function is applied outside its real
// domain, such as the log of a negative number.
//
// log(0) is not a DomainError: all log-family functions return -inf
// at zero.
type DomainError struct {
	Fn   string
	What string
}

func (e *DomainError) Error() string {
	return `domain error in "` + e.Fn + `": ` + e.What
}
