// Package ticker runs named periodic tasks, such as the scheduler poll and the
// approval expiry sweep, under a single lifecycle. Start launches every task
// and Stop cancels all of them and waits for in-flight runs to finish.
package ticker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrAlreadyStarted = errors.New("ticker: already started")
	ErrInvalidTask    = errors.New("ticker: invalid task")
)

// Task is a function run every Interval.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

// Runner owns a set of periodic tasks. Runs of the same task never overlap;
// different tasks run independently so a slow task cannot delay another.
type Runner struct {
	mu      sync.Mutex
	tasks   []*Task
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	logger  *slog.Logger
}

// Option customises the runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// New creates a runner.
func New(options ...Option) *Runner {
	ret := &Runner{logger: slog.Default()}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Register adds a task. Tasks registered while running start immediately.
func (r *Runner) Register(name string, interval time.Duration, run func(ctx context.Context)) error {
	if name == "" || interval <= 0 || run == nil {
		return fmt.Errorf("%w: %q every %v", ErrInvalidTask, name, interval)
	}
	task := &Task{Name: name, Interval: interval, Run: run}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	if r.running {
		r.wg.Add(1)
		go r.loop(r.ctx, task)
	}
	return nil
}

// Tasks returns the registered task names.
func (r *Runner) Tasks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := make([]string, len(r.tasks))
	for i, task := range r.tasks {
		ret[i] = task.Name
	}
	return ret
}

// Start launches every task. The runner stops when ctx is done or Stop is
// called.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrAlreadyStarted
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.running = true
	for _, task := range r.tasks {
		r.wg.Add(1)
		go r.loop(r.ctx, task)
	}
	return nil
}

// Running reports whether Start was called without a matching Stop.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Stop cancels every task and waits for in-flight runs. It is idempotent.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel, r.ctx = nil, nil
	r.running = false
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context, task *Task) {
	defer r.wg.Done()
	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.run(ctx, task)
		}
	}
}

func (r *Runner) run(ctx context.Context, task *Task) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.ErrorContext(ctx, "periodic task panicked", "task", task.Name, "panic", p)
		}
	}()
	task.Run(ctx)
}
