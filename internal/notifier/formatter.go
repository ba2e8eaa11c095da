package notifier

import (
	"errors"
	"fmt"
	"strings"

	"PocketCalc/internal/model"
	"PocketCalc/internal/rates"
)

// FormatConversion renders one conversion the way the converter panel shows it.
func FormatConversion(amount float64, from model.Currency, converted float64, to model.Currency) string {
	return fmt.Sprintf("%.2f %s = %.2f %s", amount, from, converted, to)
}

// FormatConversionError turns a conversion failure into a user message.
func FormatConversionError(err error) string {
	switch {
	case errors.Is(err, rates.ErrInvalidAmount):
		return "Invalid amount for conversion"
	case errors.Is(err, rates.ErrUnsupportedCurrency):
		return "Unsupported currency (use EUR, USD, RON, GBP or TRY)"
	case errors.Is(err, rates.ErrRatesUnavailable):
		return "Exchange rates not loaded yet"
	default:
		return fmt.Sprintf("Conversion error: %v", err)
	}
}

// FormatRatesSummary renders the compact RON cross-rate line.
func FormatRatesSummary(t *rates.Table) string {
	cross := func(c model.Currency) float64 {
		v, err := t.CrossRate(c, model.RON)
		if err != nil {
			return 0
		}
		return v
	}
	return fmt.Sprintf("1EUR=%.2fRON • 1USD=%.2fRON • 1GBP=%.2fRON • 1TRY=%.3fRON",
		cross(model.EUR), cross(model.USD), cross(model.GBP), cross(model.TRY))
}

// FormatRates renders the full table with its source and age.
func FormatRates(snap model.RateSnapshot) string {
	var b strings.Builder
	b.WriteString("Exchange rates (1 EUR =)\n")
	for _, c := range model.SupportedCurrencies {
		v, ok := snap.Rates[c]
		if !ok {
			b.WriteString(fmt.Sprintf("  %s: n/a\n", c))
			continue
		}
		b.WriteString(fmt.Sprintf("  %s: %.4f\n", c, v))
	}
	b.WriteString(fmt.Sprintf("Source: %s", snap.Source))
	if !snap.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf(" | updated %s", snap.UpdatedAt.Local().Format("2006-01-02 15:04")))
	}
	return b.String()
}

// FormatHistory renders the log oldest first, one entry per line.
func FormatHistory(entries []model.HistoryEntry) string {
	if len(entries) == 0 {
		return "No calculations yet"
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.String())
	}
	return b.String()
}

// FormatStatus renders the rate status line for a refresh outcome.
func FormatStatus(o rates.Outcome) string {
	switch {
	case o.Live():
		return "Rates live: " + o.At.Local().Format("2006-01-02")
	case o.Reason == rates.ReasonNetwork:
		return "Offline - cached rates"
	default:
		return "API error - rates offline"
	}
}
