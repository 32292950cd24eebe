package usecase

import (
	"context"
	"log/slog"
	"time"

	"CaptureRouter/internal/ports"
)

// Scheduler wires the daily trigger with the digest use cases.
type Scheduler struct {
	driver     ports.Scheduler
	pipeline   *DigestPipeline
	domains    *DomainDigest
	runDomains bool
	logger     *slog.Logger
}

// NewScheduler returns a helper to start/stop the recurring digest job.
// domains may be nil; runDomains gates the per-domain digests.
func NewScheduler(driver ports.Scheduler, pipeline *DigestPipeline, domains *DomainDigest, runDomains bool, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		driver:     driver,
		pipeline:   pipeline,
		domains:    domains,
		runDomains: runDomains,
		logger:     logger.With("component", "scheduler"),
	}
}

// Start registers the job with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}
	return s.driver.Start(ctx, func(trigger time.Time) { s.RunOnce(ctx, trigger) })
}

// RunOnce executes the daily digest followed by the domain digests.
func (s *Scheduler) RunOnce(ctx context.Context, trigger time.Time) {
	s.logger.Info("scheduled run", "trigger", trigger)
	if _, err := s.pipeline.Run(ctx, DigestOptions{}); err != nil {
		s.logger.Error("daily digest failed", "error", err)
	}
	if !s.runDomains || s.domains == nil {
		return
	}
	if err := s.domains.RunAll(ctx, 24, false); err != nil {
		s.logger.Error("domain digests finished with errors", "error", err)
	}
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}
