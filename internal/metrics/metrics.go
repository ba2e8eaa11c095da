package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds every collector the calculator exports.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Evaluations by outcome (ok / error)
	Evaluations *prometheus.CounterVec

	// Currency conversions by pair and outcome
	Conversions *prometheus.CounterVec

	// Rate fetches by source, status (updated / stale) and failure reason
	RateFetches       *prometheus.CounterVec
	RateFetchDuration *prometheus.HistogramVec

	// Current EUR-pivoted rate per currency
	Rates *prometheus.GaugeVec

	// Unix time of the last successful rate update
	RatesUpdatedAt prometheus.Gauge
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Evaluations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocketcalc_evaluations_total",
				Help: "Expressions evaluated on '='",
			},
			[]string{"status"},
		),
		Conversions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocketcalc_conversions_total",
				Help: "Currency conversions requested",
			},
			[]string{"from", "to", "status"},
		),
		RateFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pocketcalc_rate_fetches_total",
				Help: "Exchange rate fetch attempts",
			},
			[]string{"source", "status", "reason"},
		),
		RateFetchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pocketcalc_rate_fetch_duration_seconds",
				Help:    "Duration of exchange rate fetches",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"source"},
		),
		Rates: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pocketcalc_rate",
				Help: "Units of currency per 1 EUR",
			},
			[]string{"currency"},
		),
		RatesUpdatedAt: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "pocketcalc_rates_updated_timestamp_seconds",
				Help: "Unix time of the last successful rate update",
			},
		),
	}
}

// ObserveEvaluation counts one "=" outcome.
func (m *Metrics) ObserveEvaluation(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Evaluations.WithLabelValues(status).Inc()
}

// ObserveConversion counts one conversion request.
func (m *Metrics) ObserveConversion(from, to string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Conversions.WithLabelValues(from, to, status).Inc()
}

// ObserveFetch records one fetch cycle.
func (m *Metrics) ObserveFetch(source, status, reason string, took time.Duration) {
	if m == nil {
		return
	}
	m.RateFetches.WithLabelValues(source, status, reason).Inc()
	m.RateFetchDuration.WithLabelValues(source).Observe(took.Seconds())
}

// SetRates publishes the current table.
func (m *Metrics) SetRates(rates map[string]float64, updatedAt time.Time) {
	if m == nil {
		return
	}
	for code, v := range rates {
		m.Rates.WithLabelValues(code).Set(v)
	}
	m.RatesUpdatedAt.Set(float64(updatedAt.Unix()))
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
