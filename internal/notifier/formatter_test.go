package notifier

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"PocketCalc/internal/model"
	"PocketCalc/internal/rates"
)

func TestFormatConversion(t *testing.T) {
	assert.Equal(t, "10.00 RON = 2.19 USD", FormatConversion(10, model.RON, 2.1931, model.USD))
	assert.Equal(t, "0.50 EUR = 0.50 EUR", FormatConversion(0.5, model.EUR, 0.5, model.EUR))
}

func TestFormatConversionError(t *testing.T) {
	assert.Equal(t, "Invalid amount for conversion",
		FormatConversionError(fmt.Errorf("%w: %q", rates.ErrInvalidAmount, "x")))
	assert.Contains(t, FormatConversionError(fmt.Errorf("%w: JPY", rates.ErrUnsupportedCurrency)), "Unsupported")
	assert.Contains(t, FormatConversionError(rates.ErrRatesUnavailable), "not loaded")
	assert.Equal(t, "Conversion error: boom", FormatConversionError(errors.New("boom")))
}

func TestFormatRatesSummary_Defaults(t *testing.T) {
	assert.Equal(t,
		"1EUR=4.97RON • 1USD=4.56RON • 1GBP=5.85RON • 1TRY=0.134RON",
		FormatRatesSummary(rates.NewTable()))
}

func TestFormatRates(t *testing.T) {
	snap := model.RateSnapshot{
		Rates:  model.Rates{model.EUR: 1, model.USD: 1.17},
		Source: "exchangerate-api",
	}
	out := FormatRates(snap)
	assert.Contains(t, out, "  USD: 1.1700\n")
	assert.Contains(t, out, "  GBP: n/a\n")
	assert.Contains(t, out, "Source: exchangerate-api")
	assert.NotContains(t, out, "updated")
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "No calculations yet", FormatHistory(nil))
	assert.Equal(t, "2+2 = 4\n3*3 = 9", FormatHistory([]model.HistoryEntry{
		{Equation: "2+2", Result: "4"},
		{Equation: "3*3", Result: "9"},
	}))
}

func TestFormatStatus(t *testing.T) {
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.Local)
	assert.Equal(t, "Rates live: 2026-10-17", FormatStatus(rates.Outcome{Status: rates.StatusUpdated, At: at}))
	assert.Equal(t, "Offline - cached rates", FormatStatus(rates.Outcome{Status: rates.StatusStale, Reason: rates.ReasonNetwork}))
	assert.Equal(t, "API error - rates offline", FormatStatus(rates.Outcome{Status: rates.StatusStale, Reason: rates.ReasonStatus}))
	assert.Equal(t, "API error - rates offline", FormatStatus(rates.Outcome{Status: rates.StatusStale, Reason: rates.ReasonDecode}))
}
