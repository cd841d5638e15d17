// Package scheduler runs the poll cycle forever: a cycle, then a sleep of
// the normal interval, or of the retry interval when the cycle failed.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ryosukesatoh/note-digest/internal/logging"
	"github.com/ryosukesatoh/note-digest/internal/metrics"
	"github.com/ryosukesatoh/note-digest/internal/runner"
)

// Cycle runs one poll cycle.
type Cycle interface {
	Run(ctx context.Context) (runner.Result, error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ParseInterval accepts a Go duration ("5m"), an @every/@hourly style
// descriptor, or a standard 5-field cron expression.
func ParseInterval(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if d, err := time.ParseDuration(spec); err == nil {
		if d <= 0 {
			return nil, fmt.Errorf("scheduler: interval must be positive, got %s", spec)
		}
		spec = "@every " + d.String()
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("scheduler: invalid interval %q: %w", spec, err)
	}
	return sched, nil
}

type Loop struct {
	cycle         Cycle
	schedule      cron.Schedule
	retryInterval time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics
	sleep         SleepFunc
	now           func() time.Time
}

type Option func(*Loop)

func WithLogger(l *slog.Logger) Option {
	return func(loop *Loop) { loop.logger = logging.WithComponent(l, "scheduler") }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(loop *Loop) { loop.metrics = m }
}

// WithSleep replaces the wait between cycles.
func WithSleep(s SleepFunc) Option {
	return func(loop *Loop) { loop.sleep = s }
}

func WithClock(now func() time.Time) Option {
	return func(loop *Loop) { loop.now = now }
}

func New(c Cycle, schedule cron.Schedule, retryInterval time.Duration, opts ...Option) *Loop {
	l := &Loop{
		cycle:         c,
		schedule:      schedule,
		retryInterval: retryInterval,
		logger:        logging.Discard(),
		sleep:         sleepCtx,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run loops until ctx is cancelled and then returns ctx.Err(). Cycle errors
// and panics are logged and followed by the retry interval.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := l.now()
		res, err := l.runCycle(ctx)
		elapsed := l.now().Sub(start)

		var wait time.Duration
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			l.metrics.ObserveCycle(metrics.ResultFailure, 0, 0, elapsed, l.now())
			wait = l.retryInterval
			l.logger.Error("cycle failed", logging.Err(err), logging.Duration(elapsed), logging.Wait(wait))
		default:
			result := metrics.ResultSuccess
			if res.Changes == 0 {
				result = metrics.ResultEmpty
			}
			l.metrics.ObserveCycle(result, pagesSummarized(res), res.Published, elapsed, l.now())
			now := l.now()
			wait = l.schedule.Next(now).Sub(now)
			l.logger.Info("cycle finished", slog.String("result", result), logging.Duration(elapsed), logging.Wait(wait))
		}

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func pagesSummarized(res runner.Result) int {
	if res.Digest == nil {
		return 0
	}
	return len(res.Digest.Summaries)
}

// runCycle converts a panic inside the cycle into an error.
func (l *Loop) runCycle(ctx context.Context) (res runner.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler: cycle panicked: %v", r)
		}
	}()
	return l.cycle.Run(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
