package expr

import (
	"math"
)

// Value is an evaluation result: a float or a bool.
type Value struct {
	Num    float64
	Bool   bool
	IsBool bool
}

// Num makes a float Value.
func Num(x float64) Value {
	return Value{Num: x}
}

// Boolean makes a bool Value.
func Boolean(b bool) Value {
	return Value{Bool: b, IsBool: true}
}

// Float returns the value as a float, promoting bools (true is 1,
// false is 0).
func (v Value) Float() float64 {
	if v.IsBool {
		if v.Bool {
			return 1
		}
		return 0
	}
	return v.Num
}

// truth returns the value as a bool, demoting floats (zero is false,
// anything else is true).
func (v Value) truth() bool {
	if v.IsBool {
		return v.Bool
	}
	return v.Num != 0
}

// Env provides identifier values at one evaluation instant.
//
// An Env is never mutated during a single evaluation: expressions
// are pure functions of the environment.
type Env interface {
	Lookup(name string) (Value, bool)
}

// Vars is a map-backed Env.
type Vars map[string]Value

func (vs Vars) Lookup(name string) (Value, bool) {
	v, have := vs[name]
	return v, have
}

// Options controls evaluation semantics.
type Options struct {
	// Strict disables the bool/float coercion that the v2 format
	// introduced.  Under Strict (v1 semantics), any bool/float
	// operand mix is a TypeMismatch.
	Strict bool
}

// DefaultOptions is used by Eval when given nil options.
var DefaultOptions = &Options{}

// Eval evaluates a parsed expression against an environment.
//
// Coercion under the default (v2) semantics: when a binary
// operator's signature is not met, bools are first promoted to
// floats; if the operator needs bools and promotion can't help,
// floats are demoted to bools.  Demotion is attempted only after
// promotion fails.
func Eval(n Node, env Env, opts *Options) (Value, error) {
	if opts == nil {
		opts = DefaultOptions
	}
	return eval(n, env, opts)
}

// EvalFloat evaluates and promotes the result to a float.
func EvalFloat(n Node, env Env, opts *Options) (float64, error) {
	v, err := Eval(n, env, opts)
	if err != nil {
		return 0, err
	}
	return v.Float(), nil
}

func eval(n Node, env Env, opts *Options) (Value, error) {
	switch x := n.(type) {
	case *Number:
		return Num(x.Value), nil

	case *Bool:
		return Boolean(x.Value), nil

	case *Ident:
		v, have := env.Lookup(x.Name)
		if !have {
			return Value{}, &Undefined{Name: x.Name}
		}
		return v, nil

	case *Unary:
		v, err := eval(x.X, env, opts)
		if err != nil {
			return Value{}, err
		}
		switch x.Op {
		case "-":
			if v.IsBool && opts.Strict {
				return Value{}, &TypeMismatch{Op: "-", What: "unary minus of bool"}
			}
			return Num(-v.Float()), nil
		case "+":
			if v.IsBool && opts.Strict {
				return Value{}, &TypeMismatch{Op: "+", What: "unary plus of bool"}
			}
			return Num(v.Float()), nil
		case "!":
			if !v.IsBool && opts.Strict {
				return Value{}, &TypeMismatch{Op: "!", What: "negation of float"}
			}
			return Boolean(!v.truth()), nil
		}
		return Value{}, &TypeMismatch{Op: x.Op, What: "unknown unary operator"}

	case *Binary:
		l, err := eval(x.Left, env, opts)
		if err != nil {
			return Value{}, err
		}
		r, err := eval(x.Right, env, opts)
		if err != nil {
			return Value{}, err
		}
		return applyBinary(x.Op, l, r, opts)

	case *Call:
		return evalCall(x, env, opts)
	}

	return Value{}, &TypeMismatch{Op: "?", What: "unknown node kind"}
}

func applyBinary(op string, l, r Value, opts *Options) (Value, error) {
	switch op {
	case "+", "-", "*", "/", "^":
		// Float signature.  Promotion handles bools unless
		// we're strict.
		if opts.Strict && (l.IsBool || r.IsBool) {
			return Value{}, &TypeMismatch{Op: op, What: "arithmetic on bool"}
		}
		a, b := l.Float(), r.Float()
		switch op {
		case "+":
			return Num(a + b), nil
		case "-":
			return Num(a - b), nil
		case "*":
			return Num(a * b), nil
		case "/":
			// IEEE-754: 1/0 is inf, 0/0 is nan.
			return Num(a / b), nil
		case "^":
			return Num(math.Pow(a, b)), nil
		}

	case "<", "<=", ">", ">=":
		if opts.Strict && (l.IsBool || r.IsBool) {
			return Value{}, &TypeMismatch{Op: op, What: "comparison of bool"}
		}
		a, b := l.Float(), r.Float()
		switch op {
		case "<":
			return Boolean(a < b), nil
		case "<=":
			return Boolean(a <= b), nil
		case ">":
			return Boolean(a > b), nil
		case ">=":
			return Boolean(a >= b), nil
		}

	case "==", "!=":
		if opts.Strict && l.IsBool != r.IsBool {
			return Value{}, &TypeMismatch{Op: op, What: "equality of bool and float"}
		}
		var eq bool
		if l.IsBool && r.IsBool {
			eq = l.Bool == r.Bool
		} else {
			// Mixed operands promote to float.
			eq = l.Float() == r.Float()
		}
		if op == "!=" {
			eq = !eq
		}
		return Boolean(eq), nil

	case "&&", "||":
		// Bool signature.  Promotion can't produce a bool, so
		// floats are demoted.
		if opts.Strict && (!l.IsBool || !r.IsBool) {
			return Value{}, &TypeMismatch{Op: op, What: "logic on float"}
		}
		a, b := l.truth(), r.truth()
		if op == "&&" {
			return Boolean(a && b), nil
		}
		return Boolean(a || b), nil
	}

	return Value{}, &TypeMismatch{Op: op, What: "unknown operator"}
}

func evalCall(c *Call, env Env, opts *Options) (Value, error) {
	if err := checkCall(c); err != nil {
		return Value{}, err
	}

	if c.Name == "piecewise" {
		return evalPiecewise(c, env, opts)
	}

	args := make([]float64, len(c.Args))
	for i, a := range c.Args {
		v, err := eval(a, env, opts)
		if err != nil {
			return Value{}, err
		}
		if v.IsBool && opts.Strict {
			return Value{}, &TypeMismatch{Op: c.Name, What: "bool argument"}
		}
		args[i] = v.Float()
	}

	x, err := applyFloat(c.Name, args)
	if err != nil {
		return Value{}, err
	}
	return Num(x), nil
}

// evalPiecewise evaluates piecewise(v1, c1, v2, c2, ..., [otherwise]).
//
// Branches are inspected left to right; the value paired with the
// first true condition wins.  All branch values must agree in type,
// and every condition must be a bool.  No true condition and no
// otherwise is an evaluation error.
func evalPiecewise(c *Call, env Env, opts *Options) (Value, error) {
	vals := make([]Value, len(c.Args))
	for i, a := range c.Args {
		v, err := eval(a, env, opts)
		if err != nil {
			return Value{}, err
		}
		vals[i] = v
	}

	// Even positions are branch values (plus a trailing
	// otherwise, if the count is odd); odd positions are
	// conditions.  Check all types before selecting a branch.
	for i := 0; i < len(vals); i++ {
		if i%2 == 0 {
			if vals[i].IsBool != vals[0].IsBool {
				return Value{}, &TypeMismatch{Op: "piecewise", What: "branch value types disagree"}
			}
			continue
		}
		if !vals[i].IsBool {
			if opts.Strict {
				return Value{}, &TypeMismatch{Op: "piecewise", What: "condition is not bool"}
			}
			vals[i] = Boolean(vals[i].truth())
		}
	}

	for i := 0; i+1 < len(vals); i += 2 {
		if vals[i+1].Bool {
			return vals[i], nil
		}
	}

	if len(vals)%2 == 1 {
		return vals[len(vals)-1], nil
	}

	return Value{}, &TypeMismatch{Op: "piecewise", What: "no condition matched and no otherwise value"}
}
