// Package expr implements the PEtab math expression language: a
// lexer, a parser producing a small closed AST, a canonical printer,
// and a typed evaluator.
//
// The grammar is a conventional operator-precedence expression
// grammar.  There are no statements, no assignment, and no implicit
// operators: two adjacent operands with nothing between them is a
// syntax error.
package expr

import (
	"math"
	"strconv"
	"strings"
)

// Node is a parsed expression.
//
// The set of implementations is closed: Number, Bool, Ident, Unary,
// Binary, and Call.  Code that consumes Nodes should switch over
// these types exhaustively.
type Node interface {
	// String renders the node in canonical form.  Parsing that
	// form again yields an equal Node.
	String() string

	prec() int
}

// Number is a numeric literal, including 'inf' and 'nan'.
type Number struct {
	Value float64
}

// Bool is a 'true' or 'false' literal.
type Bool struct {
	Value bool
}

// Ident is a reference to an identifier.
//
// This package does not know what an identifier means.  Resolution
// is the caller's business (see package core).
type Ident struct {
	Name string
}

// Unary is the application of a prefix operator: "-", "+", or "!".
type Unary struct {
	Op string
	X  Node
}

// Binary is the application of an infix operator.
type Binary struct {
	Op    string
	Left  Node
	Right Node
}

// Call is the application of a named function to arguments.
//
// The parser accepts any identifier in call position.  Checking the
// name against the builtin function table happens later so that an
// unknown function is reported as a resolution problem and not as a
// syntax error.
type Call struct {
	Name string
	Args []Node
}

// Operator precedence levels used by both the parser and the
// printer.  Higher binds tighter.
const (
	precOr    = 1
	precAnd   = 2
	precCmp   = 3
	precAdd   = 4
	precMul   = 5
	precUnary = 6
	precPow   = 7
	precAtom  = 8
)

func (n *Number) prec() int {
	// A negative literal prints with a leading sign, so for
	// placement it behaves like a unary expression: (-2) ^ 2 must
	// not print as -2 ^ 2, which reads as -(2 ^ 2).
	if math.Signbit(n.Value) && !math.IsNaN(n.Value) {
		return precUnary
	}
	return precAtom
}

func (n *Bool) prec() int { return precAtom }

func (n *Ident) prec() int { return precAtom }

func (n *Unary) prec() int { return precUnary }

func (n *Call) prec() int { return precAtom }

func (n *Binary) prec() int {
	return binaryPrec(n.Op)
}

func binaryPrec(op string) int {
	switch op {
	case "||":
		return precOr
	case "&&":
		return precAnd
	case "<", "<=", ">", ">=", "==", "!=":
		return precCmp
	case "+", "-":
		return precAdd
	case "*", "/":
		return precMul
	case "^":
		return precPow
	}
	return 0
}

func (n *Number) String() string {
	return formatNumber(n.Value)
}

func (n *Bool) String() string {
	if n.Value {
		return "true"
	}
	return "false"
}

func (n *Ident) String() string {
	return n.Name
}

func (n *Unary) String() string {
	x := n.X.String()
	if n.X.prec() < precUnary {
		x = "(" + x + ")"
	}
	return n.Op + x
}

func (n *Binary) String() string {
	p := n.prec()

	l := n.Left.String()
	if lp := n.Left.prec(); lp < p || (lp == p && n.Op == "^") {
		// "^" is right-associative, so a left operand at the
		// same level needs parentheses.
		l = "(" + l + ")"
	}

	r := n.Right.String()
	if rp := n.Right.prec(); rp < p || (rp == p && n.Op != "^") {
		r = "(" + r + ")"
	}

	return l + " " + n.Op + " " + r
}

func (n *Call) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return n.Name + "(" + strings.Join(args, ", ") + ")"
}

func formatNumber(x float64) string {
	switch {
	case math.IsInf(x, 1):
		return "inf"
	case math.IsInf(x, -1):
		return "-inf"
	case math.IsNaN(x):
		return "nan"
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// Equal reports whether two Nodes are structurally identical.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *Number:
		y, is := b.(*Number)
		if !is {
			return false
		}
		if x.Value != x.Value && y.Value != y.Value {
			// Both NaN.
			return true
		}
		return x.Value == y.Value
	case *Bool:
		y, is := b.(*Bool)
		return is && x.Value == y.Value
	case *Ident:
		y, is := b.(*Ident)
		return is && x.Name == y.Name
	case *Unary:
		y, is := b.(*Unary)
		return is && x.Op == y.Op && Equal(x.X, y.X)
	case *Binary:
		y, is := b.(*Binary)
		return is && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Call:
		y, is := b.(*Call)
		if !is || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}
