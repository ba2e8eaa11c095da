package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PocketCalc/internal/model"
)

func serve(t *testing.T, status int, body string) *ExchangeRateAPIFetcher {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewExchangeRateAPIFetcher(srv.URL, "", 2*time.Second)
}

func reasonOf(t *testing.T, err error) Reason {
	t.Helper()
	var fe *FetchError
	require.True(t, errors.As(err, &fe), "want *FetchError, got %v", err)
	return fe.Reason
}

func TestExchangeRateAPI_Success(t *testing.T) {
	f := serve(t, http.StatusOK, `{
		"provider": "https://www.exchangerate-api.com",
		"base": "EUR",
		"date": "2026-10-17",
		"time_last_updated": 1760659201,
		"rates": {"EUR": 1, "USD": 1.17, "RON": 5.08, "GBP": 0.87, "TRY": 48.9, "JPY": 175.2}
	}`)

	got, err := f.FetchRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Rates{
		model.USD: 1.17,
		model.RON: 5.08,
		model.GBP: 0.87,
		model.TRY: 48.9,
	}, got)
}

func TestExchangeRateAPI_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Reason
	}{
		{"server error", http.StatusInternalServerError, "oops", ReasonStatus},
		{"bad json", http.StatusOK, "{not json", ReasonDecode},
		{"wrong base", http.StatusOK, `{"base":"USD","rates":{"RON":4.6}}`, ReasonDecode},
		{"no known codes", http.StatusOK, `{"base":"EUR","rates":{"JPY":175}}`, ReasonEmpty},
		{"invalid values only", http.StatusOK, `{"base":"EUR","rates":{"USD":0,"RON":-3}}`, ReasonEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := serve(t, tt.status, tt.body).FetchRates(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.want, reasonOf(t, err))
		})
	}
}

func TestExchangeRateAPI_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewExchangeRateAPIFetcher(url, "", time.Second).FetchRates(context.Background())
	require.Error(t, err)
	assert.Equal(t, ReasonNetwork, reasonOf(t, err))
}

func TestExchangeRateAPI_Defaults(t *testing.T) {
	f := NewExchangeRateAPIFetcher("", "http://127.0.0.1:3128", 0)
	assert.Equal(t, DefaultSourceURL, f.URL)
	assert.Equal(t, 10*time.Second, f.Client.Timeout)
	assert.Equal(t, "exchangerate-api", f.Name())
}
