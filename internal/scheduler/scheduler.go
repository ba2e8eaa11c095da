package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"PocketCalc/internal/rates"
)

// Refresher is the part of rates.Updater the scheduler drives.
type Refresher interface {
	RefreshNow(ctx context.Context) rates.Outcome
}

// Scheduler runs the periodic rate refresh.
type Scheduler struct {
	Cron    *cron.Cron
	Updater Refresher
	Logger  *zap.Logger
	Ctx     context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, u Refresher, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Updater: u,
		Logger:  logger,
		Ctx:     ctx,
	}
}

// RegisterAll registers the rate refresh job.
func (s *Scheduler) RegisterAll(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register rate refresh: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RunNow executes the refresh immediately (start-up and manual trigger).
func (s *Scheduler) RunNow() rates.Outcome {
	return s.refresh()
}

func (s *Scheduler) refreshTask() {
	s.refresh()
}

func (s *Scheduler) refresh() rates.Outcome {
	s.Logger.Debug("running rate refresh")
	return s.Updater.RefreshNow(s.Ctx)
}
