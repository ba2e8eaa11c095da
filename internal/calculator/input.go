package calculator

import (
	"strings"

	"PocketCalc/internal/model"
)

// Symbol is one key of the calculator keypad.
type Symbol string

const (
	SymClear     Symbol = "C"
	SymBackspace Symbol = "⌫"
	SymEquals    Symbol = "="
	SymPercent   Symbol = "%"
	SymDot       Symbol = "."
	SymAdd       Symbol = "+"
	SymSub       Symbol = "-"
	SymMul       Symbol = "*"
	SymDiv       Symbol = "/"
)

// IsOperator reports whether s is one of + - * /.
func (s Symbol) IsOperator() bool {
	return len(s) == 1 && IsOperator(s[0])
}

// Session is the expression under construction. It is a value: every
// transition returns a new Session and leaves the receiver untouched.
type Session struct {
	buffer        string
	lastWasEqual  bool
	justEvaluated bool
}

// NewSession returns an empty session displaying "0".
func NewSession() Session { return Session{} }

// Buffer returns the raw expression text, possibly empty.
func (s Session) Buffer() string { return s.buffer }

// Display returns what the calculator screen shows.
func (s Session) Display() string {
	if s.buffer == "" {
		return "0"
	}
	return s.buffer
}

// LastWasEqual reports whether the last accepted key was "=". The next digit
// then starts a fresh expression instead of extending the result.
func (s Session) LastWasEqual() bool { return s.lastWasEqual }

// JustEvaluated reports whether the buffer currently holds an unmodified result.
func (s Session) JustEvaluated() bool { return s.justEvaluated }

func (s Session) endsWithOperator() bool {
	return s.buffer != "" && IsOperator(s.buffer[len(s.buffer)-1])
}

// trailingOperand returns the text after the most recent operator.
func (s Session) trailingOperand() string {
	i := strings.LastIndexAny(s.buffer, "+-*/")
	return s.buffer[i+1:]
}

// Press applies one symbol. Illegal keys are silent no-ops. The returned entry
// is non-nil only for a successful "=". An evaluation failure returns a
// *ParseError together with the unchanged session.
func (s Session) Press(sym Symbol) (Session, *model.HistoryEntry, error) {
	switch {
	case sym == SymClear:
		return NewSession(), nil, nil

	case sym == SymDot:
		switch {
		case s.buffer == "":
			s.buffer = "0."
		case strings.HasSuffix(s.buffer, "."):
			// one decimal point per operand
		case s.endsWithOperator():
			s.buffer += "0."
		case !strings.Contains(s.trailingOperand(), "."):
			s.buffer += "."
		}
		s.justEvaluated = false
		return s, nil, nil

	case sym == SymBackspace:
		if s.buffer != "" {
			s.buffer = s.buffer[:len(s.buffer)-1]
			s.justEvaluated = false
		}
		return s, nil, nil

	case sym == SymPercent:
		if s.buffer == "" || s.endsWithOperator() {
			return s, nil, nil
		}
		s.buffer += string(SymPercent)
		s.justEvaluated = false
		return s, nil, nil

	case sym.IsOperator():
		if s.buffer == "" || s.endsWithOperator() {
			return s, nil, nil
		}
		s.buffer += string(sym)
		s.lastWasEqual = false
		s.justEvaluated = false
		return s, nil, nil

	case sym == SymEquals:
		return s.evaluate()

	default:
		if s.lastWasEqual {
			s.buffer = ""
			s.lastWasEqual = false
		}
		s.buffer += string(sym)
		s.justEvaluated = false
		return s, nil, nil
	}
}

// PressAll feeds a sequence of symbols and collects history entries.
// It stops at the first evaluation error.
func (s Session) PressAll(syms ...Symbol) (Session, []model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	for _, sym := range syms {
		next, entry, err := s.Press(sym)
		if err != nil {
			return s, entries, err
		}
		if entry != nil {
			entries = append(entries, *entry)
		}
		s = next
	}
	return s, entries, nil
}

func (s Session) evaluate() (Session, *model.HistoryEntry, error) {
	if s.buffer == "" || s.endsWithOperator() {
		return s, nil, nil
	}
	v, err := Evaluate(strings.ReplaceAll(s.buffer, "%", "/100"))
	if err != nil {
		return s, nil, err
	}
	result := FormatResult(v)
	entry := &model.HistoryEntry{Equation: s.buffer, Result: result}
	return Session{buffer: result, lastWasEqual: true, justEvaluated: true}, entry, nil
}

// SymbolsOf splits plain text into keypad symbols, one per character.
func SymbolsOf(text string) []Symbol {
	syms := make([]Symbol, 0, len(text))
	for _, r := range text {
		syms = append(syms, Symbol(string(r)))
	}
	return syms
}
