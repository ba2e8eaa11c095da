package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"PocketCalc/internal/model"
)

// DefaultSourceURL is the free, keyless EUR-based endpoint.
const DefaultSourceURL = "https://api.exchangerate-api.com/v4/latest/EUR"

// ExchangeRateAPIFetcher implements Fetcher using exchangerate-api.com.
type ExchangeRateAPIFetcher struct {
	URL    string
	Client *http.Client
}

// NewExchangeRateAPIFetcher creates a fetcher with optional proxy support.
func NewExchangeRateAPIFetcher(sourceURL, proxyURL string, timeout time.Duration) *ExchangeRateAPIFetcher {
	if sourceURL == "" {
		sourceURL = DefaultSourceURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &ExchangeRateAPIFetcher{
		URL: sourceURL,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *ExchangeRateAPIFetcher) Name() string { return "exchangerate-api" }

// latestResponse is the subset of the v4 "latest" payload we read.
type latestResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

func (f *ExchangeRateAPIFetcher) fail(reason Reason, err error) error {
	return &FetchError{Reason: reason, Source: f.Name(), Err: err}
}

// FetchRates downloads the latest table and keeps only supported non-EUR codes.
func (f *ExchangeRateAPIFetcher) FetchRates(ctx context.Context) (model.Rates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, f.fail(ReasonNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, f.fail(ReasonNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, f.fail(ReasonNetwork, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, f.fail(ReasonStatus, fmt.Errorf("status %d, body: %.200s", resp.StatusCode, string(body)))
	}

	var latest latestResponse
	if err := json.Unmarshal(body, &latest); err != nil {
		return nil, f.fail(ReasonDecode, err)
	}
	if latest.Base != "" && latest.Base != string(model.EUR) {
		return nil, f.fail(ReasonDecode, fmt.Errorf("unexpected base %q", latest.Base))
	}

	out := make(model.Rates)
	for _, c := range model.SupportedCurrencies {
		if c == model.EUR {
			continue
		}
		if v, ok := latest.Rates[string(c)]; ok && validRate(v) {
			out[c] = v
		}
	}
	if len(out) == 0 {
		return nil, f.fail(ReasonEmpty, fmt.Errorf("no supported currencies in response"))
	}
	return out, nil
}
