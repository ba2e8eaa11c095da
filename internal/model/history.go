package model

import "strings"

const entrySeparator = " = "

// HistoryEntry is one completed calculation.
type HistoryEntry struct {
	Equation string
	Result   string
}

// String renders the entry the way it is displayed and persisted.
func (e HistoryEntry) String() string {
	if e.Result == "" {
		return e.Equation
	}
	return e.Equation + entrySeparator + e.Result
}

// ParseHistoryEntry splits a persisted line back into its parts.
// Lines without a separator keep the whole text as the equation.
func ParseHistoryEntry(line string) HistoryEntry {
	i := strings.LastIndex(line, entrySeparator)
	if i < 0 {
		return HistoryEntry{Equation: line}
	}
	return HistoryEntry{Equation: line[:i], Result: line[i+len(entrySeparator):]}
}
