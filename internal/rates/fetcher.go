package rates

import (
	"context"
	"fmt"
	"sync/atomic"

	"PocketCalc/internal/model"
)

// Fetcher retrieves EUR-pivoted rates from a remote source.
type Fetcher interface {
	FetchRates(ctx context.Context) (model.Rates, error)
	Name() string
}

// Reason classifies why a fetch did not produce new rates.
type Reason string

const (
	ReasonNone    Reason = "none"
	ReasonNetwork Reason = "network"
	ReasonStatus  Reason = "status"
	ReasonDecode  Reason = "decode"
	ReasonEmpty   Reason = "empty"
)

// FetchError is returned by fetchers for every recoverable failure.
type FetchError struct {
	Reason Reason
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MockFetcher returns fixed data for development and testing.
type MockFetcher struct {
	Rates model.Rates
	Err   error
	calls atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls returns how many times FetchRates ran.
func (m *MockFetcher) Calls() int { return int(m.calls.Load()) }

func (m *MockFetcher) FetchRates(ctx context.Context) (model.Rates, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Reason: ReasonNetwork, Source: m.Name(), Err: err}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Rates != nil {
		return m.Rates.Clone(), nil
	}
	return DefaultRates(), nil
}
