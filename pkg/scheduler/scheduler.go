package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFunc is a single run of a scheduled task.
type TaskFunc func(context.Context)

type task struct {
	name     string
	interval time.Duration
	daily    bool
	fn       TaskFunc
}

// Runner drives a set of named periodic tasks. Each task runs on its own
// goroutine in a serial loop, so two runs of the same task can never overlap;
// distinct tasks run independently and may overlap with each other.
type Runner struct {
	logger *zap.Logger

	tasks   []task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewRunner builds an empty runner.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger}
}

// Every registers a fixed-interval task. Must be called before Start.
func (r *Runner) Every(name string, interval time.Duration, fn TaskFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || interval <= 0 || fn == nil {
		return
	}
	r.tasks = append(r.tasks, task{name: name, interval: interval, fn: fn})
}

// Daily registers a task whose first run is aligned to the next local
// midnight, then repeats every 24 hours. Must be called before Start.
func (r *Runner) Daily(name string, fn TaskFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || fn == nil {
		return
	}
	r.tasks = append(r.tasks, task{name: name, daily: true, fn: fn})
}

// Start launches all registered tasks. Safe to call once.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	for _, t := range r.tasks {
		r.wg.Add(1)
		go r.loop(t)
	}
	r.started = true
	r.logger.Sugar().Infow("scheduler started", "tasks", len(r.tasks))
}

// Stop cancels all task loops and waits for in-flight runs to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
	r.logger.Sugar().Infow("scheduler stopped")
}

func (r *Runner) loop(t task) {
	defer r.wg.Done()

	if t.daily {
		// Wait out the remainder of the day before the first run.
		delay := untilNextMidnight(time.Now())
		timer := time.NewTimer(delay)
		select {
		case <-r.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		r.run(t)
		t.interval = 24 * time.Hour
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.run(t)
		}
	}
}

func (r *Runner) run(t task) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Sugar().Errorw("scheduled task panicked", "task", t.name, "panic", rec)
		}
	}()
	start := time.Now()
	t.fn(r.ctx)
	r.logger.Sugar().Debugw("scheduled task finished", "task", t.name, "duration", time.Since(start))
}

func untilNextMidnight(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	return next.Sub(now)
}
