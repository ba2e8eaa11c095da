package calculator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseError reports a token stream that does not alternate number/operator.
type ParseError struct {
	Expr string
	Pos  int // index of the offending token
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: token %d: %s", e.Expr, e.Pos, e.Msg)
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOperator
)

type token struct {
	kind tokenKind
	text string
}

// IsOperator reports whether r is one of the four arithmetic operators.
func IsOperator(r byte) bool {
	return r == '+' || r == '-' || r == '*' || r == '/'
}

func isDigit(r byte) bool { return r >= '0' && r <= '9' }

// tokenize splits expr into number literals and operators. Anything else is skipped.
func tokenize(expr string) []token {
	var tokens []token
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case isDigit(c):
			start := i
			for i < len(expr) && isDigit(expr[i]) {
				i++
			}
			// at most one decimal point per literal
			if i < len(expr) && expr[i] == '.' {
				i++
				for i < len(expr) && isDigit(expr[i]) {
					i++
				}
			}
			tokens = append(tokens, token{kind: tokNumber, text: expr[start:i]})
		case IsOperator(c):
			tokens = append(tokens, token{kind: tokOperator, text: string(c)})
			i++
		default:
			i++
		}
	}
	return tokens
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Evaluate computes expr strictly left to right, ignoring operator precedence:
// "2+3*4" is (2+3)*4 = 20. A leading sign applies to the first operand, a
// trailing operator without an operand is dropped and an empty expression is 0.
// Division by zero yields ±Inf or NaN.
func Evaluate(expr string) (float64, error) {
	clean := stripSpace(expr)
	tokens := tokenize(clean)
	if len(tokens) == 0 {
		return 0, nil
	}

	i := 0
	sign := 1.0
	if tokens[0].kind == tokOperator && (tokens[0].text == "-" || tokens[0].text == "+") {
		if tokens[0].text == "-" {
			sign = -1
		}
		i++
		if i == len(tokens) {
			return 0, nil
		}
	}

	first, err := parseNumber(clean, tokens, i)
	if err != nil {
		return 0, err
	}
	result := sign * first
	i++

	for ; i < len(tokens); i += 2 {
		if tokens[i].kind != tokOperator {
			return 0, &ParseError{Expr: clean, Pos: i, Msg: "expected operator, got " + tokens[i].text}
		}
		if i+1 >= len(tokens) {
			break // dangling operator
		}
		val, err := parseNumber(clean, tokens, i+1)
		if err != nil {
			return 0, err
		}
		result = apply(result, tokens[i].text[0], val)
	}
	return result, nil
}

func parseNumber(expr string, tokens []token, i int) (float64, error) {
	t := tokens[i]
	if t.kind != tokNumber {
		return 0, &ParseError{Expr: expr, Pos: i, Msg: "expected number, got " + t.text}
	}
	v, err := strconv.ParseFloat(t.text, 64)
	if err != nil {
		return 0, &ParseError{Expr: expr, Pos: i, Msg: err.Error()}
	}
	return v, nil
}

func apply(acc float64, op byte, val float64) float64 {
	switch op {
	case '+':
		return acc + val
	case '-':
		return acc - val
	case '*':
		return acc * val
	default:
		return acc / val
	}
}

// FormatResult renders v canonically: integral values without a fractional
// part, others in their shortest decimal form. Exponents are never used so the
// text can be fed back into an expression. Non-finite values render as +Inf,
// -Inf or NaN.
func FormatResult(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if v == 0 {
		return "0" // also folds -0
	}
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
