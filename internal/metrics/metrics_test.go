package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Observe(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveEvaluation(nil)
	m.ObserveEvaluation(errors.New("boom"))
	m.ObserveConversion("RON", "USD", nil)
	m.ObserveFetch("exchangerate-api", "stale", "network", 20*time.Millisecond)
	m.SetRates(map[string]float64{"EUR": 1, "RON": 4.97}, time.Unix(1700000000, 0))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Conversions.WithLabelValues("RON", "USD", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateFetches.WithLabelValues("exchangerate-api", "stale", "network")))
	assert.Equal(t, 4.97, testutil.ToFloat64(m.Rates.WithLabelValues("RON")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.RatesUpdatedAt))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveEvaluation(nil)
		m.ObserveConversion("EUR", "USD", nil)
		m.ObserveFetch("x", "updated", "none", time.Second)
		m.SetRates(map[string]float64{"EUR": 1}, time.Now())
	})
}
