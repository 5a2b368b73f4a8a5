package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerEveryRunsRepeatedly(t *testing.T) {
	var runs int64
	r := NewRunner(nil)
	r.Every("tick", 10*time.Millisecond, func(ctx context.Context) {
		atomic.AddInt64(&runs, 1)
	})

	r.Start(context.Background())
	time.Sleep(60 * time.Millisecond)
	r.Stop()

	require.GreaterOrEqual(t, atomic.LoadInt64(&runs), int64(2))
}

func TestRunnerSameTaskNeverOverlaps(t *testing.T) {
	var active int64
	var overlapped int64
	r := NewRunner(nil)
	r.Every("slow", 5*time.Millisecond, func(ctx context.Context) {
		if atomic.AddInt64(&active, 1) > 1 {
			atomic.AddInt64(&overlapped, 1)
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&active, -1)
	})

	r.Start(context.Background())
	time.Sleep(80 * time.Millisecond)
	r.Stop()

	assert.Zero(t, atomic.LoadInt64(&overlapped))
}

func TestRunnerStopWaitsForInflightRun(t *testing.T) {
	var mu sync.Mutex
	finished := false
	r := NewRunner(nil)
	r.Every("slow", 5*time.Millisecond, func(ctx context.Context) {
		time.Sleep(30 * time.Millisecond)
		mu.Lock()
		finished = true
		mu.Unlock()
	})

	r.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	r.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, finished)
}

func TestRunnerRecoversFromPanic(t *testing.T) {
	var runs int64
	r := NewRunner(nil)
	r.Every("flaky", 10*time.Millisecond, func(ctx context.Context) {
		atomic.AddInt64(&runs, 1)
		panic("boom")
	})

	r.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	r.Stop()

	require.GreaterOrEqual(t, atomic.LoadInt64(&runs), int64(2))
}

func TestRunnerRejectsRegistrationAfterStart(t *testing.T) {
	var runs int64
	r := NewRunner(nil)
	r.Start(context.Background())
	defer r.Stop()

	r.Every("late", time.Millisecond, func(ctx context.Context) {
		atomic.AddInt64(&runs, 1)
	})
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt64(&runs))
}

func TestUntilNextMidnight(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Minute, untilNextMidnight(now))

	now = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 24*time.Hour, untilNextMidnight(now))
}
