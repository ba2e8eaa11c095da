package model

import (
	"fmt"
	"strings"
	"time"
)

// Currency is an ISO 4217 code from the supported set.
type Currency string

const (
	EUR Currency = "EUR"
	USD Currency = "USD"
	RON Currency = "RON"
	GBP Currency = "GBP"
	TRY Currency = "TRY"
)

// SupportedCurrencies lists every code the calculator can convert, EUR first.
var SupportedCurrencies = []Currency{EUR, USD, RON, GBP, TRY}

// IsSupported reports whether c belongs to the closed currency set.
func (c Currency) IsSupported() bool {
	for _, s := range SupportedCurrencies {
		if c == s {
			return true
		}
	}
	return false
}

// ParseCurrency normalizes a user-typed code and rejects unknown ones.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsSupported() {
		return "", fmt.Errorf("unsupported currency %q", s)
	}
	return c, nil
}

// Rates maps a currency to its EUR-pivoted rate (1 EUR = rate units).
type Rates map[Currency]float64

// Clone returns an independent copy.
func (r Rates) Clone() Rates {
	out := make(Rates, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RateSnapshot is an immutable view of the rate table at one point in time.
type RateSnapshot struct {
	Rates     Rates     `json:"rates"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updated_at"`
}
