package usecase

import (
	"context"
	"time"

	"autoblog/internal/ports"
)

// Scheduler wires the cron-like driver with the pipeline use case. Each
// trigger starts a fresh job and runs it end to end.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(time.Time) {
		// Run reports failures through the metadata record and the log;
		// the schedule keeps going either way.
		_, _ = s.pipeline.Run(ctx, RunOptions{})
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
