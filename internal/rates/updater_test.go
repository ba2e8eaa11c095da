package rates

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"PocketCalc/internal/metrics"
	"PocketCalc/internal/model"
	"PocketCalc/internal/recorder"
)

type memRecorder struct {
	recorder.NoopRecorder
	mu      sync.Mutex
	updates []recorder.RateUpdateEvent
}

func (m *memRecorder) RecordRateUpdate(evt *recorder.RateUpdateEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, *evt)
	return nil
}

func TestUpdater_FailureLeavesTableUntouched(t *testing.T) {
	tbl := NewTable()
	before := tbl.Snapshot()
	fetcher := &MockFetcher{Err: &FetchError{Reason: ReasonStatus, Source: "mock", Err: errors.New("503")}}
	rec := &memRecorder{}
	u := NewUpdater(tbl, fetcher, zap.NewNop(), WithRecorder(rec))

	out := u.RefreshNow(context.Background())
	assert.Equal(t, StatusStale, out.Status)
	assert.Equal(t, ReasonStatus, out.Reason)
	assert.False(t, out.Live())
	assert.Error(t, out.Err)
	assert.Equal(t, before, tbl.Snapshot())
	assert.Equal(t, before, out.Snapshot)

	require.Len(t, rec.updates, 1)
	assert.Equal(t, "stale", rec.updates[0].Status)
	assert.Equal(t, "status", rec.updates[0].Reason)
	assert.Nil(t, rec.updates[0].Rates)
}

func TestUpdater_PlainErrorCountsAsNetwork(t *testing.T) {
	u := NewUpdater(NewTable(), &MockFetcher{Err: errors.New("dial tcp: refused")}, zap.NewNop())
	out := u.RefreshNow(context.Background())
	assert.Equal(t, ReasonNetwork, out.Reason)
}

func TestUpdater_UnusableRatesAreStale(t *testing.T) {
	tbl := NewTable()
	before := tbl.Snapshot()
	u := NewUpdater(tbl, &MockFetcher{Rates: model.Rates{"JPY": 170}}, zap.NewNop())
	out := u.RefreshNow(context.Background())
	assert.Equal(t, StatusStale, out.Status)
	assert.Equal(t, ReasonEmpty, out.Reason)
	assert.Equal(t, before, tbl.Snapshot())
}

func TestUpdater_SuccessAppliesCachesAndExports(t *testing.T) {
	tbl := NewTable()
	cache := filepath.Join(t.TempDir(), "rates.json")
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	fetcher := &MockFetcher{Rates: model.Rates{model.USD: 1.17, model.RON: 5.08}}
	u := NewUpdater(tbl, fetcher, zap.NewNop(), WithCache(cache), WithMetrics(m))

	out := <-u.Refresh(context.Background())
	require.True(t, out.Live())
	assert.ElementsMatch(t, []model.Currency{model.USD, model.RON}, out.Applied)
	assert.Equal(t, "mock", tbl.Snapshot().Source)

	v, _ := tbl.Rate(model.USD)
	assert.Equal(t, 1.17, v)
	v, _ = tbl.Rate(model.GBP)
	assert.Equal(t, 0.85, v) // untouched default

	saved, err := LoadSnapshot(cache)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 5.08, saved.Rates[model.RON])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateFetches.WithLabelValues("mock", "updated", "none")))
	assert.Equal(t, 5.08, testutil.ToFloat64(m.Rates.WithLabelValues("RON")))

	select {
	case n := <-u.Notifications():
		assert.Equal(t, StatusUpdated, n.Status)
	case <-time.After(time.Second):
		t.Fatal("no notification")
	}
}

func TestUpdater_RefreshChannelClosesAfterOutcome(t *testing.T) {
	u := NewUpdater(NewTable(), &MockFetcher{}, zap.NewNop())
	ch := u.Refresh(context.Background())
	_, ok := <-ch
	assert.True(t, ok)
	_, ok = <-ch
	assert.False(t, ok)
}

func TestUpdater_FullNotifyBufferDoesNotBlock(t *testing.T) {
	u := NewUpdater(NewTable(), &MockFetcher{}, zap.NewNop(), WithNotifyBuffer(1))
	for i := 0; i < 3; i++ {
		u.RefreshNow(context.Background())
	}
	assert.Len(t, u.Notifications(), 1)
}

func TestUpdater_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tbl := NewTable()
	before := tbl.Snapshot()
	out := NewUpdater(tbl, &MockFetcher{}, zap.NewNop()).RefreshNow(ctx)
	assert.Equal(t, ReasonNetwork, out.Reason)
	assert.Equal(t, before, tbl.Snapshot())
}
