package rates

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"PocketCalc/internal/model"
)

var (
	// ErrRatesUnavailable means a rate needed for the conversion is missing.
	ErrRatesUnavailable = errors.New("exchange rates not loaded")
	// ErrInvalidAmount means the amount text is not a number.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrUnsupportedCurrency means a code outside the supported set was requested.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// SourceDefaults labels the built-in offline rates.
const SourceDefaults = "defaults"

// DefaultRates are the offline fallback values, units per 1 EUR.
func DefaultRates() model.Rates {
	return model.Rates{
		model.EUR: 1.0,
		model.USD: 1.09,
		model.RON: 4.97,
		model.GBP: 0.85,
		model.TRY: 37.15,
	}
}

// Table holds the current exchange rates. Readers load an immutable snapshot;
// writers build a new one and swap it in, so no lock is needed.
type Table struct {
	snap atomic.Pointer[model.RateSnapshot]
}

// NewTable creates a table seeded with DefaultRates, so conversion between
// supported codes works before any fetch completes.
func NewTable() *Table {
	t := &Table{}
	t.snap.Store(&model.RateSnapshot{Rates: DefaultRates(), Source: SourceDefaults})
	return t
}

// NewTableFrom creates a table from an explicit rate map. EUR is forced to 1.
// Intended for tests and cache restores; entries are not validated against defaults.
func NewTableFrom(r model.Rates, source string) *Table {
	t := &Table{}
	clean := make(model.Rates, len(r)+1)
	for c, v := range r {
		if validRate(v) {
			clean[c] = v
		}
	}
	clean[model.EUR] = 1.0
	t.snap.Store(&model.RateSnapshot{Rates: clean, Source: source})
	return t
}

func validRate(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Snapshot returns the current rates. The returned map must not be modified.
func (t *Table) Snapshot() model.RateSnapshot {
	return *t.snap.Load()
}

// Rate returns the rate for c.
func (t *Table) Rate(c model.Currency) (float64, bool) {
	v, ok := t.snap.Load().Rates[c]
	return v, ok
}

// Apply overwrites the rates of recognized non-EUR currencies present in
// update, leaving the others as they were. Unknown codes and non-positive or
// non-finite values are ignored. It returns the codes actually written.
func (t *Table) Apply(update model.Rates, source string, at time.Time) []model.Currency {
	cur := t.snap.Load()
	next := cur.Rates.Clone()

	var applied []model.Currency
	for _, c := range model.SupportedCurrencies {
		if c == model.EUR {
			continue
		}
		v, ok := update[c]
		if !ok || !validRate(v) {
			continue
		}
		next[c] = v
		applied = append(applied, c)
	}
	if len(applied) == 0 {
		return nil
	}
	next[model.EUR] = 1.0
	t.snap.Store(&model.RateSnapshot{Rates: next, Source: source, UpdatedAt: at})
	return applied
}

// Convert turns amount of from into to via EUR: amount / rate[from] * rate[to].
// Same-currency conversion returns amount without consulting the table.
func (t *Table) Convert(amount float64, from, to model.Currency) (float64, error) {
	if !from.IsSupported() {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, from)
	}
	if !to.IsSupported() {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, to)
	}
	if from == to {
		return amount, nil
	}

	rates := t.snap.Load().Rates
	fromRate, ok := rates[from]
	if !ok {
		return 0, fmt.Errorf("%w: no rate for %s", ErrRatesUnavailable, from)
	}
	toRate, ok := rates[to]
	if !ok {
		return 0, fmt.Errorf("%w: no rate for %s", ErrRatesUnavailable, to)
	}
	return amount / fromRate * toRate, nil
}

// ConvertText parses a user-typed amount and converts it.
func (t *Table) ConvertText(amount string, from, to model.Currency) (float64, float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	out, err := t.Convert(v, from, to)
	return v, out, err
}

// CrossRate returns how many units of quote one unit of base buys.
func (t *Table) CrossRate(base, quote model.Currency) (float64, error) {
	return t.Convert(1, base, quote)
}
