package expr

import (
	"math"
)

// Parse parses expression text into a Node.
//
// The parser is pure: no symbol resolution happens here.  Unknown
// function names parse fine; see Check.
func Parse(input string) (Node, error) {
	p := &parser{lex: newLexer(input)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	n, err := p.expr(precOr)
	if err != nil {
		return nil, err
	}
	if p.tok.typ != tokEOF {
		return nil, &SyntaxError{Pos: p.tok.pos, What: "unexpected " + tokenDesc(p.tok)}
	}
	return n, nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

// expr parses at the given minimum precedence level (precedence
// climbing).
func (p *parser) expr(min int) (Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}

	for p.tok.typ == tokOp {
		op := p.tok.text
		prec := binaryPrec(op)
		if prec == 0 || prec < min {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		// "^" is right-associative; everything else is
		// left-associative.
		next := prec + 1
		if op == "^" {
			next = prec
		}
		right, err := p.expr(next)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) unary() (Node, error) {
	if p.tok.typ == tokOp {
		switch op := p.tok.text; op {
		case "+", "-", "!":
			if err := p.advance(); err != nil {
				return nil, err
			}
			// "^" binds tighter than a prefix operator, so
			// the operand is a whole power expression:
			// -2^2 is -(2^2).
			x, err := p.expr(precPow)
			if err != nil {
				return nil, err
			}
			if num, is := x.(*Number); is && op != "!" {
				// Fold sign into the literal so that
				// "-inf" and "-2" round-trip as
				// literals.
				if op == "-" {
					num.Value = -num.Value
				}
				return num, nil
			}
			return &Unary{Op: op, X: x}, nil
		}
	}
	return p.atom()
}

func (p *parser) atom() (Node, error) {
	switch p.tok.typ {
	case tokNumber:
		n := &Number{Value: p.tok.num}
		return n, p.advance()

	case tokIdent:
		name := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch name {
		case "true":
			return p.literalAtom(&Bool{Value: true})
		case "false":
			return p.literalAtom(&Bool{Value: false})
		case "inf":
			return p.literalAtom(&Number{Value: math.Inf(1)})
		case "nan":
			return p.literalAtom(&Number{Value: math.NaN()})
		}
		if p.tok.typ == tokLParen {
			args, err := p.args()
			if err != nil {
				return nil, err
			}
			return p.adjacency(&Call{Name: name, Args: args})
		}
		return p.adjacency(&Ident{Name: name})

	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := p.expr(precOr)
		if err != nil {
			return nil, err
		}
		if p.tok.typ != tokRParen {
			return nil, &SyntaxError{Pos: p.tok.pos, What: "unmatched parenthesis"}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.adjacency(n)

	case tokEOF:
		return nil, &SyntaxError{Pos: p.tok.pos, What: "unexpected end of expression"}
	}

	return nil, &SyntaxError{Pos: p.tok.pos, What: "unexpected " + tokenDesc(p.tok)}
}

// literalAtom finishes a keyword literal, rejecting a following "("
// (keywords aren't callable).
func (p *parser) literalAtom(n Node) (Node, error) {
	if p.tok.typ == tokLParen {
		return nil, &SyntaxError{Pos: p.tok.pos, What: "literal used as function"}
	}
	return p.adjacency(n)
}

// adjacency rejects two operands with no operator between them, e.g.
// "a b" or "2 x".  No implicit multiplication.
func (p *parser) adjacency(n Node) (Node, error) {
	switch p.tok.typ {
	case tokNumber, tokIdent, tokLParen:
		return nil, &SyntaxError{Pos: p.tok.pos, What: "missing operator before " + tokenDesc(p.tok)}
	}
	return n, nil
}

// args parses "(" expr ("," expr)* ")" or "(" ")".
func (p *parser) args() ([]Node, error) {
	// Current token is "(".
	if err := p.advance(); err != nil {
		return nil, err
	}
	args := []Node{}
	if p.tok.typ == tokRParen {
		return args, p.advance()
	}
	for {
		a, err := p.expr(precOr)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		switch p.tok.typ {
		case tokComma:
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tokRParen:
			err := p.advance()
			if err != nil {
				return nil, err
			}
			// The caller runs its own adjacency check.
			return args, nil
		default:
			return nil, &SyntaxError{Pos: p.tok.pos, What: "expected ',' or ')' in arguments"}
		}
	}
}

// Check walks a parsed Node and reports the first structural
// problem: a call to a function outside the builtin table, or a call
// with an arity the table doesn't allow.
//
// Run this at load time so malformed formulas surface before any
// simulation work.
func Check(n Node) error {
	switch x := n.(type) {
	case *Number, *Bool, *Ident:
		return nil
	case *Unary:
		return Check(x.X)
	case *Binary:
		if err := Check(x.Left); err != nil {
			return err
		}
		return Check(x.Right)
	case *Call:
		if err := checkCall(x); err != nil {
			return err
		}
		for _, a := range x.Args {
			if err := Check(a); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

// Idents appends the names of all identifiers referenced by n,
// excluding function names, to acc.  Duplicates are not removed.
func Idents(n Node, acc []string) []string {
	switch x := n.(type) {
	case *Ident:
		return append(acc, x.Name)
	case *Unary:
		return Idents(x.X, acc)
	case *Binary:
		return Idents(x.Right, Idents(x.Left, acc))
	case *Call:
		for _, a := range x.Args {
			acc = Idents(a, acc)
		}
	}
	return acc
}

func tokenDesc(t token) string {
	switch t.typ {
	case tokEOF:
		return "end of expression"
	case tokNumber:
		return "number " + t.text
	case tokIdent:
		return `"` + t.text + `"`
	}
	return `"` + t.text + `"`
}
