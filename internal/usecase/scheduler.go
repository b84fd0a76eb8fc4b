package usecase

import (
	"context"
	"log/slog"
	"time"

	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/ports"
)

// Scheduler wires a periodic driver with full pipeline runs.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	after    func(domain.Summary, error)
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs. after, if set,
// is called once per finished run.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, after func(domain.Summary, error), logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, after: after, logger: logger}
}

// Start registers the pipeline with the driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}
	job := func(trigger time.Time) {
		s.logger.Info("scheduled run", "trigger", trigger.Format(time.RFC3339))
		summary, err := s.pipeline.RunFull(ctx)
		if err != nil {
			s.logger.Error("scheduled run failed", "error", err)
		}
		if s.after != nil {
			s.after(summary, err)
		}
	}
	return s.driver.Start(ctx, job)
}

// Stop tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}
