// Package scheduler drives recurring report runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// RunFunc executes one report run. The scheduler always asks for the default
// window (yesterday), so the function takes only a context.
type RunFunc func(ctx context.Context) error

// Scheduler runs reports on a fixed cron spec until its context is
// cancelled.
type Scheduler struct {
	spec   string
	run    RunFunc
	cron   *cron.Cron
	logger zerolog.Logger
}

// New creates a scheduler for the given cron spec (standard 5-field format).
func New(spec string, run RunFunc, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		spec:   spec,
		run:    run,
		cron:   cron.New(),
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start registers the job and blocks until ctx is cancelled. Overlapping
// runs are prevented: a tick is skipped while the previous run is still in
// flight.
func (s *Scheduler) Start(ctx context.Context) error {
	running := make(chan struct{}, 1)

	_, err := s.cron.AddFunc(s.spec, func() {
		select {
		case running <- struct{}{}:
		default:
			s.logger.Warn().Msg("Previous run still in progress, skipping tick")
			return
		}
		defer func() { <-running }()

		s.logger.Info().Msg("Scheduled report run starting")
		if err := s.run(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Scheduled report run failed")
			return
		}
		s.logger.Info().Msg("Scheduled report run completed")
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info().Str("spec", s.spec).Msg("Scheduler started")

	<-ctx.Done()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}
