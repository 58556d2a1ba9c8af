package oneshot

import (
	"errors"
	"sync"
	"time"
)

// ErrInvalidDuration is returned by Start for non-positive durations.
var ErrInvalidDuration = errors.New("oneshot: invalid duration")

// Task is a scheduled callback.
type Task interface {
	// Stop releases the task. It returns false if the task already fired or
	// was already stopped.
	Stop() bool
}

// Scheduler runs a function once after a delay on its own goroutine.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) (Task, error)
}

// Timer is a single-shot timer. It is safe for concurrent use.
type Timer struct {
	mu sync.Mutex

	scheduler Scheduler

	// Pending task, nil when idle
	task Task

	// generation identifies the current task; callbacks from replaced tasks
	// carry an older value and are dropped.
	generation uint64

	startedAt time.Time
	duration  time.Duration
}

// New creates a timer on s. A nil scheduler uses AfterFuncScheduler.
func New(s Scheduler) *Timer {
	if s == nil {
		s = AfterFuncScheduler{}
	}
	return &Timer{scheduler: s}
}

// Start schedules onFire to run once after d. A pending task from an earlier
// Start is stopped and replaced.
func (t *Timer) Start(d time.Duration, onFire func()) error {
	if d <= 0 {
		return ErrInvalidDuration
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.task != nil {
		t.task.Stop()
		t.task = nil
	}

	t.generation++
	gen := t.generation

	task, err := t.scheduler.Schedule(d, func() {
		t.fire(gen, onFire)
	})
	if err != nil {
		return err
	}

	t.task = task
	t.startedAt = time.Now()
	t.duration = d
	return nil
}

// Stop cancels the pending task. It reports whether a task was pending.
// A callback already running is not interrupted.
func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.task == nil {
		return false
	}
	t.task.Stop()
	t.task = nil
	t.generation++
	return true
}

// Active reports whether a task is pending.
func (t *Timer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.task != nil
}

// RemainingTime returns the time until the pending task fires, or 0.
func (t *Timer) RemainingTime() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.task == nil {
		return 0
	}
	remaining := t.duration - time.Since(t.startedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// fire runs the callback for generation gen, then releases the task.
func (t *Timer) fire(gen uint64, onFire func()) {
	t.mu.Lock()
	if gen != t.generation || t.task == nil {
		t.mu.Unlock()
		return
	}
	task := t.task
	t.mu.Unlock()

	// Call callback outside lock
	if onFire != nil {
		onFire()
	}

	t.mu.Lock()
	if gen == t.generation {
		t.task = nil
	}
	t.mu.Unlock()

	task.Stop()
}
