// Package schedule is the driving adapter that runs the pipeline on a cron
// schedule.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ericfisherdev/discusswatch/internal/application"
)

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}

// Scheduler invokes a trigger at the times described by a standard five-field
// cron expression, evaluated in UTC.
type Scheduler struct {
	spec     string
	schedule cron.Schedule
	trigger  application.Trigger
	timeout  time.Duration
	logger   *slog.Logger
}

// NewScheduler validates spec and returns a Scheduler. Overlapping ticks are
// skipped while a run is still in progress. A zero timeout means runs are
// bounded only by the parent context.
func NewScheduler(spec string, trigger application.Trigger, timeout time.Duration, logger *slog.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing cron spec %q: %w", spec, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		spec:     spec,
		schedule: schedule,
		trigger:  trigger,
		timeout:  timeout,
		logger:   logger,
	}, nil
}

// Next returns the first activation time after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.UTC())
}

// Run starts the cron loop and blocks until ctx is canceled, then waits for a
// run in progress to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() { s.tick(ctx) }))

	c.Start()
	s.logger.Info("scheduler started", "spec", s.spec, "next", s.Next(time.Now()).Format(time.RFC3339))

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.trigger.Invoke(ctx, &application.TriggerPayload{Source: "cron"}); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
	}
}
