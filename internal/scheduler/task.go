package scheduler

import (
	"context"
	"sync"
	"time"
)

// Task is a cancellable recurring function with a handle owned by the caller.
// Stop suppresses the next run; a run already started completes first.
type Task struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context)

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	runs    int
	lastRun time.Time
}

// TaskOption configures a Task
type TaskOption func(*taskOptions)

type taskOptions struct {
	immediate bool
}

// RunImmediately runs fn once at start instead of waiting a full interval
func RunImmediately() TaskOption {
	return func(o *taskOptions) { o.immediate = true }
}

// Every starts fn every interval until Stop is called or ctx is done.
// Runs never overlap; a slow run delays the next one.
func Every(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context), opts ...TaskOption) *Task {
	var o taskOptions
	for _, opt := range opts {
		opt(&o)
	}

	t := &Task{
		name:     name,
		interval: interval,
		fn:       fn,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	go t.loop(ctx, o.immediate)
	return t
}

func (t *Task) loop(ctx context.Context, immediate bool) {
	defer close(t.doneCh)

	// 진행 중인 실행은 취소 신호와 무관하게 끝까지 실행
	runCtx := context.WithoutCancel(ctx)

	if immediate {
		t.run(runCtx)
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// stop may race with the tick; stop wins
			select {
			case <-t.stopCh:
				return
			default:
			}
			t.run(runCtx)
		}
	}
}

func (t *Task) run(ctx context.Context) {
	t.fn(ctx)

	t.mu.Lock()
	t.runs++
	t.lastRun = time.Now()
	t.mu.Unlock()
}

// Stop suppresses further runs and waits for an in-flight run to finish.
// Safe to call more than once.
func (t *Task) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
	<-t.doneCh
}

// Done is closed once the task has stopped
func (t *Task) Done() <-chan struct{} {
	return t.doneCh
}

// Name returns the task name
func (t *Task) Name() string {
	return t.name
}

// Interval returns the run interval
func (t *Task) Interval() time.Duration {
	return t.interval
}

// Runs returns how many runs have completed
func (t *Task) Runs() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runs
}

// LastRun returns when the last run completed
func (t *Task) LastRun() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastRun
}
