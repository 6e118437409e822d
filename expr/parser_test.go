package expr

import (
	"math"
	"testing"
)

func parseOK(t *testing.T, s string) Node {
	t.Helper()
	n, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return n
}

func TestParsePrecedence(t *testing.T) {
	n := parseOK(t, "1 + 2 * 3")
	v, err := Eval(n, Vars{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.IsBool || v.Num != 7 {
		t.Fatalf("got %v, wanted 7", v)
	}
}

func TestParsePowRightAssoc(t *testing.T) {
	n := parseOK(t, "2 ^ 3 ^ 2")
	v, err := EvalFloat(n, Vars{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != 512 {
		t.Fatalf("got %v, wanted 512", v)
	}
}

func TestParseUnaryPow(t *testing.T) {
	// "^" binds tighter than unary minus.
	for _, c := range []struct {
		in   string
		vars Vars
		want float64
	}{
		{"-2 ^ 2", Vars{}, -4},
		{"-x ^ 2", Vars{"x": Num(3)}, -9},
		{"(-2) ^ 2", Vars{}, 4},
		{"2 ^ -3", Vars{}, 0.125},
		{"-2 ^ 2 ^ 3", Vars{}, -256},
	} {
		v, err := EvalFloat(parseOK(t, c.in), c.vars, nil)
		if err != nil {
			t.Fatalf("%q: %v", c.in, err)
		}
		if v != c.want {
			t.Fatalf("%q: got %v, wanted %v", c.in, v, c.want)
		}
	}
}

func TestParseNoImplicitOperators(t *testing.T) {
	for _, s := range []string{
		"a b",
		"2 x",
		"(1)(2)",
		"2 (3)",
		"sin(x) y",
	} {
		if _, err := Parse(s); err == nil {
			t.Fatalf("Parse(%q) should have failed", s)
		} else if _, is := err.(*SyntaxError); !is {
			t.Fatalf("Parse(%q): wanted SyntaxError, got %T", s, err)
		}
	}

	if _, err := Parse("a * b"); err != nil {
		t.Fatal(err)
	}
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{
		"",
		"(1 + 2",
		"1 + 2)",
		"1 +",
		"* 2",
		"f(1,)",
		"f(,1)",
		"1 = 2",
		"a & b",
		"1.2.3",
		"1e",
		"true(1)",
	} {
		if _, err := Parse(s); err == nil {
			t.Fatalf("Parse(%q) should have failed", s)
		}
	}
}

func TestParseLiterals(t *testing.T) {
	n := parseOK(t, "-inf")
	num, is := n.(*Number)
	if !is || !math.IsInf(num.Value, -1) {
		t.Fatalf("got %v", n)
	}

	n = parseOK(t, "1.5e-3")
	num, is = n.(*Number)
	if !is || num.Value != 1.5e-3 {
		t.Fatalf("got %v", n)
	}

	n = parseOK(t, ".5")
	num, is = n.(*Number)
	if !is || num.Value != 0.5 {
		t.Fatalf("got %v", n)
	}

	n = parseOK(t, "true")
	if b, is := n.(*Bool); !is || !b.Value {
		t.Fatalf("got %v", n)
	}
}

func TestPrintParseRoundTrip(t *testing.T) {
	for _, s := range []string{
		"1 + 2 * 3",
		"(1 + 2) * 3",
		"2 ^ 3 ^ 2",
		"(2 ^ 3) ^ 2",
		"-2 ^ 2",
		"(-2) ^ 2",
		"2 ^ -3",
		"-x + y",
		"-(x + y)",
		"!(a && b) || c < 1",
		"piecewise(10, time < 5, 20, time < 10, 30)",
		"log(x, 2) / sqrt(y)",
		"-inf",
		"a - b - c",
		"a - (b - c)",
		"1e-06 * k1",
	} {
		n := parseOK(t, s)
		printed := n.String()
		again, err := Parse(printed)
		if err != nil {
			t.Fatalf("reparse of %q (from %q): %v", printed, s, err)
		}
		if !Equal(n, again) {
			t.Fatalf("round trip of %q: %q became %v", s, printed, again)
		}
	}
}

func TestCheckUnknownFunction(t *testing.T) {
	n := parseOK(t, "frobnicate(1, 2)")
	err := Check(n)
	if err == nil {
		t.Fatal("should have failed")
	}
	if _, is := err.(*UnknownFunction); !is {
		t.Fatalf("wanted UnknownFunction, got %T", err)
	}

	n = parseOK(t, "sin(1, 2)")
	if err = Check(n); err == nil {
		t.Fatal("should have failed")
	}
	if _, is := err.(*BadArity); !is {
		t.Fatalf("wanted BadArity, got %T", err)
	}

	if err = Check(parseOK(t, "sin(cos(x)) + log(y, 10)")); err != nil {
		t.Fatal(err)
	}
}

func TestIdents(t *testing.T) {
	n := parseOK(t, "a + sin(b) * piecewise(c, d < 1, e)")
	got := Idents(n, nil)
	want := []string{"a", "b", "c", "d", "e"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v", got)
		}
	}
}
