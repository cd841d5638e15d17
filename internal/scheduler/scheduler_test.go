package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryosukesatoh/note-digest/internal/metrics"
	"github.com/ryosukesatoh/note-digest/internal/runner"
	"github.com/ryosukesatoh/note-digest/internal/summarizer"
)

// scriptedCycle replays one step per call; after the script is exhausted it
// keeps returning empty results.
type scriptedCycle struct {
	mu    sync.Mutex
	steps []func() (runner.Result, error)
	calls int
}

func (c *scriptedCycle) Run(context.Context) (runner.Result, error) {
	c.mu.Lock()
	i := c.calls
	c.calls++
	c.mu.Unlock()
	if i < len(c.steps) {
		return c.steps[i]()
	}
	return runner.Result{}, nil
}

func (c *scriptedCycle) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// recordingSleep records waits and cancels the loop after n sleeps.
type recordingSleep struct {
	waits  []time.Duration
	n      int
	cancel context.CancelFunc
}

func (s *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	if len(s.waits) >= s.n {
		s.cancel()
	}
	return ctx.Err()
}

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func mustInterval(t *testing.T, spec string) interface{ Next(time.Time) time.Time } {
	t.Helper()
	s, err := ParseInterval(spec)
	require.NoError(t, err)
	return s
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		spec string
		want time.Duration
	}{
		{"5m", 5 * time.Minute},
		{"90s", 90 * time.Second},
		{"@every 10m", 10 * time.Minute},
		{"@hourly", time.Hour},
		{"*/15 * * * *", 15 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			s := mustInterval(t, tt.spec)
			assert.Equal(t, tt.want, s.Next(fixedNow).Sub(fixedNow))
		})
	}
}

func TestParseIntervalInvalid(t *testing.T) {
	for _, spec := range []string{"", "0s", "-1m", "soon", "* * *"} {
		_, err := ParseInterval(spec)
		assert.Error(t, err, "spec %q", spec)
	}
}

func TestEmptyCycleSleepsNormalInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cycle := &scriptedCycle{}
	rec := &recordingSleep{n: 1, cancel: cancel}
	sched, err := ParseInterval("5m")
	require.NoError(t, err)

	err = New(cycle, sched, time.Minute, WithSleep(rec.sleep), WithClock(fixedClock)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []time.Duration{5 * time.Minute}, rec.waits)
	assert.Equal(t, 1, cycle.Calls())
}

func TestFailureSleepsRetryIntervalThenPollsAgain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cycle := &scriptedCycle{steps: []func() (runner.Result, error){
		func() (runner.Result, error) { return runner.Result{}, errors.New("graph unavailable") },
		func() (runner.Result, error) {
			return runner.Result{Changes: 1, Published: 1, Digest: &summarizer.Digest{Summaries: make([]summarizer.Summary, 1)}}, nil
		},
	}}
	rec := &recordingSleep{n: 2, cancel: cancel}
	sched, err := ParseInterval("5m")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	err = New(cycle, sched, time.Minute, WithSleep(rec.sleep), WithClock(fixedClock), WithMetrics(m)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []time.Duration{time.Minute, 5 * time.Minute}, rec.waits)
	assert.Equal(t, 2, cycle.Calls())

	expected := `
# HELP note_digest_cycles_total Poll cycles by result.
# TYPE note_digest_cycles_total counter
note_digest_cycles_total{result="empty"} 0
note_digest_cycles_total{result="failure"} 1
note_digest_cycles_total{result="success"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "note_digest_cycles_total"))
}

func TestPanicIsRecoveredAsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cycle := &scriptedCycle{steps: []func() (runner.Result, error){
		func() (runner.Result, error) { panic("nil map write") },
	}}
	rec := &recordingSleep{n: 2, cancel: cancel}
	sched, err := ParseInterval("5m")
	require.NoError(t, err)

	err = New(cycle, sched, 30*time.Second, WithSleep(rec.sleep), WithClock(fixedClock)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []time.Duration{30 * time.Second, 5 * time.Minute}, rec.waits)
	assert.Equal(t, 2, cycle.Calls())
}

func TestLoopKeepsRunningUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	failing := make([]func() (runner.Result, error), 50)
	for i := range failing {
		failing[i] = func() (runner.Result, error) { return runner.Result{}, errors.New("still down") }
	}
	cycle := &scriptedCycle{steps: failing}
	rec := &recordingSleep{n: 100, cancel: cancel}
	sched, err := ParseInterval("5m")
	require.NoError(t, err)

	err = New(cycle, sched, time.Minute, WithSleep(rec.sleep), WithClock(fixedClock)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 100, cycle.Calls())
	assert.Len(t, rec.waits, 100)
}

func TestRealSleepStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sched, err := ParseInterval("1h")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- New(&scriptedCycle{}, sched, time.Minute).Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
}
