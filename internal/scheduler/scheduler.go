// Package scheduler runs the periodic expiry sweep and notification pass.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/notify"
	"github.com/couchcryptid/stargazer-events/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second

	// tickAttempts bounds retries of a periodic job; the next tick tries again.
	tickAttempts = 3
)

// Sweeper removes expired events.
type Sweeper interface {
	RemoveExpired(ctx context.Context) (int64, error)
}

// Notifier runs a notification pass over all users.
type Notifier interface {
	NotifyAll(ctx context.Context) ([]notify.Result, error)
}

// Scheduler drives the background jobs on a clock.
type Scheduler struct {
	sweeper     Sweeper
	notifier    Notifier
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	sweepEvery  time.Duration
	notifyEvery time.Duration
	ready       atomic.Bool
}

// New creates a Scheduler. A non-positive notifyEvery disables the
// notification job; notifier may then be nil.
func New(sweeper Sweeper, notifier Notifier, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, sweepEvery, notifyEvery time.Duration) *Scheduler {
	return &Scheduler{
		sweeper:     sweeper,
		notifier:    notifier,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
		sweepEvery:  sweepEvery,
		notifyEvery: notifyEvery,
	}
}

// CheckReadiness returns nil once the first expiry sweep has succeeded.
func (s *Scheduler) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("initial expiry sweep has not completed")
	}
	return nil
}

// Run sweeps once, retrying until it succeeds, then runs both jobs on their
// intervals until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "sweep_every", s.sweepEvery, "notify_every", s.notifyEvery)
	s.metrics.SchedulerRunning.Set(1)
	defer s.metrics.SchedulerRunning.Set(0)

	if !s.runJob(ctx, "sweep", s.sweep, 0) {
		s.logger.Info("scheduler stopping", "reason", ctx.Err())
		return nil
	}
	s.ready.Store(true)

	sweepTicker := s.clock.NewTicker(s.sweepEvery)
	defer sweepTicker.Stop()

	var notifyC <-chan time.Time
	if s.notifyEvery > 0 && s.notifier != nil {
		notifyTicker := s.clock.NewTicker(s.notifyEvery)
		defer notifyTicker.Stop()
		notifyC = notifyTicker.Chan()
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		case <-sweepTicker.Chan():
			s.runJob(ctx, "sweep", s.sweep, tickAttempts)
		case <-notifyC:
			s.runJob(ctx, "notify", s.notify, tickAttempts)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) error {
	_, err := s.sweeper.RemoveExpired(ctx)
	return err
}

func (s *Scheduler) notify(ctx context.Context) error {
	results, err := s.notifier.NotifyAll(ctx)
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		s.logger.Warn("notification pass had failures", "failed", failed, "total", len(results))
	}
	return nil
}

// runJob runs fn until it succeeds, backing off between failures. attempts
// of 0 means keep trying. Returns false if the context ended first or the
// attempts ran out.
func (s *Scheduler) runJob(ctx context.Context, name string, fn func(context.Context) error, attempts int) bool {
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			s.metrics.JobRuns.WithLabelValues(name, "success").Inc()
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		s.metrics.JobRuns.WithLabelValues(name, "error").Inc()
		s.logger.Error("scheduled job failed", "job", name, "attempt", attempt, "error", err)

		if attempts > 0 && attempt >= attempts {
			return false
		}
		if !s.sleep(ctx, backoff) {
			return false
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-s.clock.After(d):
		return true
	}
}
