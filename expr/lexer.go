package expr

import (
	"strconv"
)

// tokenType is the kind of a lexical token.
type tokenType int

const (
	tokEOF tokenType = iota
	tokNumber
	tokIdent
	tokOp     // + - * / ^ ! < <= > >= == != && ||
	tokLParen // "("
	tokRParen // ")"
	tokComma  // ","
)

type token struct {
	typ  tokenType
	text string
	num  float64 // valid when typ == tokNumber
	pos  int     // byte offset in the input
}

// lexer scans a PEtab math expression.  Whitespace is insignificant.
type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{typ: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]

	switch {
	case isDigit(c) || c == '.':
		return l.number(start)
	case isIdentStart(c):
		l.pos++
		for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
			l.pos++
		}
		return token{typ: tokIdent, text: l.input[start:l.pos], pos: start}, nil
	}

	switch c {
	case '(':
		l.pos++
		return token{typ: tokLParen, text: "(", pos: start}, nil
	case ')':
		l.pos++
		return token{typ: tokRParen, text: ")", pos: start}, nil
	case ',':
		l.pos++
		return token{typ: tokComma, text: ",", pos: start}, nil
	case '+', '-', '*', '/', '^':
		l.pos++
		return token{typ: tokOp, text: string(c), pos: start}, nil
	case '<', '>', '=', '!':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
			return token{typ: tokOp, text: l.input[start:l.pos], pos: start}, nil
		}
		if c == '=' {
			return token{}, &SyntaxError{Pos: start, What: `"=" is not an operator (use "==")`}
		}
		return token{typ: tokOp, text: string(c), pos: start}, nil
	case '&', '|':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == c {
			l.pos++
			return token{typ: tokOp, text: l.input[start:l.pos], pos: start}, nil
		}
		return token{}, &SyntaxError{Pos: start, What: `single "` + string(c) + `"`}
	}

	return token{}, &SyntaxError{Pos: start, What: "unexpected character " + strconv.QuoteRune(rune(c))}
}

// number scans \d+(\.\d+)?([eE][+-]?\d+)? or .\d+ forms.
func (l *lexer) number(start int) (token, error) {
	sawDigit := false
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
		sawDigit = true
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
			sawDigit = true
		}
	}
	if !sawDigit {
		return token{}, &SyntaxError{Pos: start, What: "malformed number"}
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		mark := l.pos
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.pos++
		}
		expDigits := false
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
			expDigits = true
		}
		if !expDigits {
			// "1e" could be a number followed by an
			// identifier, but we have no implicit
			// operators, so reject it here.
			l.pos = mark
			return token{}, &SyntaxError{Pos: start, What: "malformed exponent"}
		}
	}
	if l.pos < len(l.input) && isIdentStart(l.input[l.pos]) {
		return token{}, &SyntaxError{Pos: start, What: "identifier immediately follows number"}
	}
	text := l.input[start:l.pos]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, &SyntaxError{Pos: start, What: "malformed number " + strconv.Quote(text)}
	}
	return token{typ: tokNumber, text: text, num: v, pos: start}, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
