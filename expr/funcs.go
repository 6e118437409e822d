package expr

import (
	"math"
)

// arity describes the argument counts a builtin accepts.
type arity struct {
	min int
	max int // -1 for variadic
}

// builtins is the fixed function table of the PEtab math language.
// Function calls are recognized for these names only.
var builtins = map[string]arity{
	"sin": {1, 1}, "cos": {1, 1}, "tan": {1, 1},
	"sec": {1, 1}, "csc": {1, 1}, "cot": {1, 1},
	"sinh": {1, 1}, "cosh": {1, 1}, "tanh": {1, 1},
	"sech": {1, 1}, "csch": {1, 1}, "coth": {1, 1},
	"asin": {1, 1}, "acos": {1, 1}, "atan": {1, 1},
	"asec": {1, 1}, "acsc": {1, 1}, "acot": {1, 1},
	"asinh": {1, 1}, "acosh": {1, 1}, "atanh": {1, 1},
	"asech": {1, 1}, "acsch": {1, 1}, "acoth": {1, 1},

	"exp":   {1, 1},
	"sqrt":  {1, 1},
	"abs":   {1, 1},
	"sign":  {1, 1},
	"floor": {1, 1},
	"ceil":  {1, 1},

	"ln":    {1, 1},
	"log":   {1, 2}, // log(x) is natural; log(x, base) is explicit-base
	"log2":  {1, 1},
	"log10": {1, 1},

	"pow": {2, 2},
	"min": {2, 2},
	"max": {2, 2},

	"piecewise": {1, -1},
}

// IsBuiltin reports whether name is in the builtin function table.
func IsBuiltin(name string) bool {
	_, have := builtins[name]
	return have
}

func checkCall(c *Call) error {
	a, have := builtins[c.Name]
	if !have {
		return &UnknownFunction{Name: c.Name}
	}
	n := len(c.Args)
	if n < a.min || (a.max != -1 && n > a.max) {
		return &BadArity{Name: c.Name, Got: n}
	}
	return nil
}

// logOf implements the PEtab convention for the whole log family:
// the log of zero is -inf; the log of a negative number is a
// DomainError.
func logOf(fn string, x float64, log func(float64) float64) (float64, error) {
	switch {
	case x == 0:
		return math.Inf(-1), nil
	case x < 0:
		return 0, &DomainError{Fn: fn, What: "log of negative number"}
	}
	return log(x), nil
}

// applyFloat evaluates a builtin over float arguments.  piecewise is
// handled by the evaluator, not here.
func applyFloat(name string, args []float64) (float64, error) {
	x := args[0]
	switch name {
	case "sin":
		return math.Sin(x), nil
	case "cos":
		return math.Cos(x), nil
	case "tan":
		return math.Tan(x), nil
	case "sec":
		return 1 / math.Cos(x), nil
	case "csc":
		return 1 / math.Sin(x), nil
	case "cot":
		return 1 / math.Tan(x), nil
	case "sinh":
		return math.Sinh(x), nil
	case "cosh":
		return math.Cosh(x), nil
	case "tanh":
		return math.Tanh(x), nil
	case "sech":
		return 1 / math.Cosh(x), nil
	case "csch":
		return 1 / math.Sinh(x), nil
	case "coth":
		return 1 / math.Tanh(x), nil
	case "asin":
		return math.Asin(x), nil
	case "acos":
		return math.Acos(x), nil
	case "atan":
		return math.Atan(x), nil
	case "asec":
		return math.Acos(1 / x), nil
	case "acsc":
		return math.Asin(1 / x), nil
	case "acot":
		return math.Atan(1 / x), nil
	case "asinh":
		return math.Asinh(x), nil
	case "acosh":
		return math.Acosh(x), nil
	case "atanh":
		return math.Atanh(x), nil
	case "asech":
		return math.Acosh(1 / x), nil
	case "acsch":
		return math.Asinh(1 / x), nil
	case "acoth":
		return math.Atanh(1 / x), nil
	case "exp":
		return math.Exp(x), nil
	case "sqrt":
		return math.Sqrt(x), nil
	case "abs":
		return math.Abs(x), nil
	case "sign":
		switch {
		case x > 0:
			return 1, nil
		case x < 0:
			return -1, nil
		}
		return 0, nil
	case "floor":
		return math.Floor(x), nil
	case "ceil":
		return math.Ceil(x), nil
	case "ln":
		return logOf("ln", x, math.Log)
	case "log":
		if len(args) == 2 {
			lx, err := logOf("log", x, math.Log)
			if err != nil {
				return 0, err
			}
			lb, err := logOf("log", args[1], math.Log)
			if err != nil {
				return 0, err
			}
			return lx / lb, nil
		}
		return logOf("log", x, math.Log)
	case "log2":
		return logOf("log2", x, math.Log2)
	case "log10":
		return logOf("log10", x, math.Log10)
	case "pow":
		return math.Pow(x, args[1]), nil
	case "min":
		return math.Min(x, args[1]), nil
	case "max":
		return math.Max(x, args[1]), nil
	}
	return 0, &UnknownFunction{Name: name}
}
