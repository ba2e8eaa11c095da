package rates

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"PocketCalc/internal/metrics"
	"PocketCalc/internal/model"
	"PocketCalc/internal/recorder"
)

// Status is the result of one refresh cycle.
type Status string

const (
	StatusUpdated Status = "updated"
	StatusStale   Status = "stale"
)

// Outcome describes a finished refresh. On StatusStale the table was left as it was.
type Outcome struct {
	Status   Status
	Reason   Reason
	Source   string
	Applied  []model.Currency
	Snapshot model.RateSnapshot
	Err      error
	At       time.Time
}

// Live reports whether the refresh produced new rates.
func (o Outcome) Live() bool { return o.Status == StatusUpdated }

// Updater runs fetches against a Fetcher and applies the results to a Table.
// Concurrent refreshes share one in-flight fetch.
type Updater struct {
	table     *Table
	fetcher   Fetcher
	logger    *zap.Logger
	cachePath string
	recorder  recorder.Recorder
	metrics   *metrics.Metrics

	group  singleflight.Group
	notify chan Outcome
}

// Option configures an Updater.
type Option func(*Updater)

// WithCache saves every successful update to path.
func WithCache(path string) Option {
	return func(u *Updater) { u.cachePath = path }
}

// WithRecorder records each refresh cycle.
func WithRecorder(r recorder.Recorder) Option {
	return func(u *Updater) { u.recorder = r }
}

// WithMetrics exports fetch counters and the current rates.
func WithMetrics(m *metrics.Metrics) Option {
	return func(u *Updater) { u.metrics = m }
}

// WithNotifyBuffer sets the capacity of the Notifications channel. Default 8.
func WithNotifyBuffer(n int) Option {
	return func(u *Updater) { u.notify = make(chan Outcome, n) }
}

func NewUpdater(table *Table, fetcher Fetcher, logger *zap.Logger, opts ...Option) *Updater {
	u := &Updater{
		table:    table,
		fetcher:  fetcher,
		logger:   logger,
		recorder: recorder.NewNoopRecorder(),
		notify:   make(chan Outcome, 8),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Table returns the table the updater writes to.
func (u *Updater) Table() *Table { return u.table }

// Notifications delivers every finished refresh. Outcomes are dropped when
// the buffer is full.
func (u *Updater) Notifications() <-chan Outcome { return u.notify }

// Refresh starts a fetch in the background. The returned channel yields
// exactly one Outcome and is then closed.
func (u *Updater) Refresh(ctx context.Context) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		ch <- u.RefreshNow(ctx)
	}()
	return ch
}

// RefreshNow fetches and applies rates, blocking until done.
func (u *Updater) RefreshNow(ctx context.Context) Outcome {
	v, _, _ := u.group.Do("refresh", func() (interface{}, error) {
		return u.run(ctx), nil
	})
	return v.(Outcome)
}

func (u *Updater) run(ctx context.Context) Outcome {
	source := u.fetcher.Name()
	start := time.Now()
	fetched, err := u.fetcher.FetchRates(ctx)
	took := time.Since(start)

	out := Outcome{Source: source, At: time.Now()}
	switch {
	case err != nil:
		out.Status = StatusStale
		out.Reason = ReasonNetwork
		var fe *FetchError
		if errors.As(err, &fe) {
			out.Reason = fe.Reason
		}
		out.Err = err
	default:
		out.Applied = u.table.Apply(fetched, source, out.At)
		if len(out.Applied) == 0 {
			out.Status = StatusStale
			out.Reason = ReasonEmpty
			out.Err = &FetchError{Reason: ReasonEmpty, Source: source, Err: errors.New("no usable rates")}
		} else {
			out.Status = StatusUpdated
			out.Reason = ReasonNone
		}
	}
	out.Snapshot = u.table.Snapshot()

	if out.Live() {
		u.logger.Info("rates updated",
			zap.String("source", source),
			zap.Int("applied", len(out.Applied)),
			zap.Duration("took", took))
		if u.cachePath != "" {
			if err := SaveSnapshot(u.cachePath, out.Snapshot); err != nil {
				u.logger.Warn("save rate cache failed", zap.String("path", u.cachePath), zap.Error(err))
			}
		}
		u.metrics.SetRates(codes(out.Snapshot.Rates), out.At)
	} else {
		u.logger.Warn("rate refresh failed, keeping previous rates",
			zap.String("source", source),
			zap.String("reason", string(out.Reason)),
			zap.Error(out.Err))
	}
	u.metrics.ObserveFetch(source, string(out.Status), string(out.Reason), took)

	evt := &recorder.RateUpdateEvent{Source: source, Status: string(out.Status), Reason: string(out.Reason)}
	if out.Live() {
		evt.Rates = codes(out.Snapshot.Rates)
	}
	if err := u.recorder.RecordRateUpdate(evt); err != nil {
		u.logger.Warn("record rate update failed", zap.Error(err))
	}

	select {
	case u.notify <- out:
	default:
		u.logger.Debug("notification dropped, buffer full")
	}
	return out
}

func codes(r model.Rates) map[string]float64 {
	out := make(map[string]float64, len(r))
	for c, v := range r {
		out[string(c)] = v
	}
	return out
}
