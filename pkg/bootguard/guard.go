package bootguard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mash-protocol/quickreset/pkg/factoryreset"
	"github.com/mash-protocol/quickreset/pkg/journal"
	"github.com/mash-protocol/quickreset/pkg/metrics"
	"github.com/mash-protocol/quickreset/pkg/nvs"
	"github.com/mash-protocol/quickreset/pkg/oneshot"
	"github.com/mash-protocol/quickreset/pkg/reboot"
	"github.com/mash-protocol/quickreset/pkg/wakeup"
)

// ErrNoBackend is returned by New when Config.Backend is nil.
var ErrNoBackend = errors.New("bootguard: storage backend required")

// Config configures a Guard. Only Backend is required.
type Config struct {
	Backend   nvs.Backend
	Namespace string

	// Threshold and Window default to the reboot package defaults.
	Threshold uint32
	Window    time.Duration

	// Keys defaults to factoryreset.DefaultKeys.
	Keys *factoryreset.Keys

	// Scheduler runs the window timer. Nil uses time.AfterFunc.
	Scheduler oneshot.Scheduler

	// Wakeup reports the boot cause. Nil treats every boot as a power cycle.
	Wakeup wakeup.Source

	// Journal receives boot events (optional).
	Journal journal.Logger

	// Metrics records counters (optional).
	Metrics metrics.Recorder

	// Logger for operational output (optional).
	Logger *slog.Logger

	// BootID identifies this boot in the journal. Empty generates a UUID.
	BootID string
}

// Guard runs reset detection for one boot.
type Guard struct {
	mu sync.Mutex

	store   *nvs.Store
	timer   *oneshot.Timer
	action  *factoryreset.Action
	counter *reboot.Counter

	wakeup  wakeup.Source
	journal journal.Logger
	metrics metrics.Recorder
	logger  *slog.Logger
	bootID  string
	window  time.Duration

	ran    bool
	result reboot.Result
	err    error

	// done is closed once nothing is left pending for this boot.
	done     chan struct{}
	doneOnce sync.Once

	closed bool
}

// New creates a Guard. Nothing touches storage until Run.
func New(cfg Config) (*Guard, error) {
	if cfg.Backend == nil {
		return nil, ErrNoBackend
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "iotkit-kv"
	}
	keys := factoryreset.DefaultKeys()
	if cfg.Keys != nil {
		keys = *cfg.Keys
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Journal == nil {
		cfg.Journal = journal.NoopLogger{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NoopRecorder{}
	}
	if cfg.Wakeup == nil {
		cfg.Wakeup = wakeup.Static(wakeup.CauseUndefined)
	}
	if cfg.BootID == "" {
		cfg.BootID = uuid.NewString()
	}

	g := &Guard{
		wakeup:  cfg.Wakeup,
		journal: cfg.Journal,
		metrics: cfg.Metrics,
		logger:  cfg.Logger.With("boot_id", cfg.BootID),
		bootID:  cfg.BootID,
		done:    make(chan struct{}),
	}

	g.store = nvs.NewStore(cfg.Backend, cfg.Namespace)
	g.store.SetLogger(g.logger)
	g.timer = oneshot.New(cfg.Scheduler)
	g.action = factoryreset.New(g.store, keys, g.logger)
	g.counter = reboot.NewCounter(g.store, g.timer, g.action, reboot.Config{
		Threshold:  cfg.Threshold,
		Window:     cfg.Window,
		CounterKey: keys.Counter,
		Logger:     g.logger,
	})
	g.window = g.counter.Window()

	g.action.OnStep(g.handleResetStep)
	g.counter.OnStateChange(g.handleStateChange)
	g.counter.OnWindowExpired(g.handleWindowExpired)

	return g, nil
}

// BootID returns the journal boot ID.
func (g *Guard) BootID() string {
	return g.bootID
}

// State returns the counter state.
func (g *Guard) State() reboot.State {
	return g.counter.State()
}

// Store returns the underlying store.
func (g *Guard) Store() *nvs.Store {
	return g.store
}

// Run evaluates the current boot. It runs once; later calls return the first
// result.
func (g *Guard) Run() (reboot.Result, error) {
	g.mu.Lock()
	if g.ran {
		res, err := g.result, g.err
		g.mu.Unlock()
		return res, err
	}
	g.ran = true
	g.mu.Unlock()

	res, err := g.run()

	g.mu.Lock()
	g.result, g.err = res, err
	g.mu.Unlock()
	return res, err
}

func (g *Guard) run() (reboot.Result, error) {
	cause, err := g.wakeup.Cause()
	if err != nil {
		g.logger.Warn("wakeup cause unavailable, counting boot", "error", err)
		g.emit(journal.Event{
			Category: journal.CategoryError,
			Error:    &journal.ErrorEvent{Component: "wakeup", Message: err.Error()},
		})
		cause = wakeup.CauseUndefined
	}

	if cause.IsWakeup() {
		g.logger.Info("wakeup from sleep, quick reboot detection skipped", "cause", cause)
		err := g.counter.Skip()
		if err != nil {
			g.storageError(metrics.OpDelete, g.counter.Key(), err)
		}
		res := reboot.Result{State: g.counter.State()}
		g.bootEvent(cause, res)
		g.finish()
		if errors.Is(err, nvs.ErrInitFailed) {
			return res, err
		}
		return res, nil
	}

	res, err := g.counter.Check()
	if err != nil {
		g.storageError(metrics.OpInit, "", err)
		g.bootEvent(cause, res)
		g.finish()
		return res, err
	}
	if !res.Persisted {
		g.storageError(metrics.OpSet, g.counter.Key(), res.PersistErr)
	}

	g.metrics.SetStreak(res.Count)
	g.bootEvent(cause, res)

	switch res.State {
	case reboot.StateResetTriggered:
		g.metrics.IncFactoryReset()
		if res.ResetErr != nil {
			g.logger.Error("factory reset incomplete", "error", res.ResetErr)
		}
		g.finish()
	case reboot.StateCounting:
		g.checkArmed()
	default:
		g.finish()
	}
	return res, nil
}

// checkArmed journals the armed window, or finishes the boot if the timer
// could not be armed so Wait does not block on a timer that never fires.
func (g *Guard) checkArmed() {
	if g.timer.Active() {
		g.emit(journal.Event{
			Category: journal.CategoryTimer,
			Timer:    &journal.TimerEvent{Action: journal.TimerArmed, Window: g.window},
		})
		return
	}
	// The timer clears its task only after the expiry callback returned, and
	// that callback closes done.
	select {
	case <-g.done:
	default:
		g.logger.Error("quick reboot window not armed")
		g.emit(journal.Event{
			Category: journal.CategoryTimer,
			Timer:    &journal.TimerEvent{Action: journal.TimerFailed, Window: g.window, Error: "window timer not armed"},
		})
		g.finish()
	}
}

// Wait blocks until the reset window has elapsed (or nothing was armed) or
// ctx is done.
func (g *Guard) Wait(ctx context.Context) error {
	select {
	case <-g.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed once the boot evaluation is complete.
func (g *Guard) Done() <-chan struct{} {
	return g.done
}

// Close stops a pending window timer and closes the store and the journal.
// The counter survives, so the next boot continues the streak.
// It is safe to call Close multiple times.
func (g *Guard) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.mu.Unlock()

	if g.timer.Stop() {
		g.logger.Info("guard closed before the reset window elapsed")
	}
	g.finish()

	var errs []error
	errs = append(errs, g.store.Close())
	if c, ok := g.journal.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (g *Guard) finish() {
	g.doneOnce.Do(func() { close(g.done) })
}

func (g *Guard) handleStateChange(oldState, newState reboot.State) {
	g.metrics.SetState(newState.String())
	g.emit(journal.Event{
		Category: journal.CategoryState,
		State:    &journal.StateEvent{OldState: oldState.String(), NewState: newState.String()},
	})
}

func (g *Guard) handleWindowExpired(err error) {
	if err != nil {
		g.storageError(metrics.OpDelete, g.counter.Key(), err)
		g.emit(journal.Event{
			Category: journal.CategoryTimer,
			Timer:    &journal.TimerEvent{Action: journal.TimerFailed, Window: g.window, Error: err.Error()},
		})
	} else {
		g.metrics.IncWindowExpiry()
		g.metrics.SetStreak(0)
		g.emit(journal.Event{
			Category: journal.CategoryTimer,
			Timer:    &journal.TimerEvent{Action: journal.TimerExpired, Window: g.window},
		})
	}
	g.finish()
}

func (g *Guard) handleResetStep(step factoryreset.Step, key string, err error) {
	ev := &journal.ResetEvent{Step: string(step), Key: key}
	if err != nil {
		ev.Error = err.Error()
		g.metrics.IncStorageError(resetStepOp(step))
	}
	g.emit(journal.Event{Category: journal.CategoryReset, Reset: ev})
}

func resetStepOp(step factoryreset.Step) string {
	if step == factoryreset.StepSetFlag {
		return metrics.OpSet
	}
	return metrics.OpDelete
}

func (g *Guard) storageError(op, key string, err error) {
	g.metrics.IncStorageError(op)
	g.emit(journal.Event{
		Category: journal.CategoryStorage,
		Storage: &journal.StorageEvent{
			Op:    op,
			Key:   key,
			Kind:  nvs.Classify(err).String(),
			Error: err.Error(),
		},
	})
}

func (g *Guard) bootEvent(cause wakeup.Cause, res reboot.Result) {
	g.emit(journal.Event{
		Category: journal.CategoryBoot,
		Boot: &journal.BootEvent{
			WakeupCause: cause.String(),
			Previous:    res.Previous,
			Count:       res.Count,
			Threshold:   g.counter.Threshold(),
			Window:      g.window,
			Persisted:   res.Persisted,
			Outcome:     res.State.String(),
		},
	})
}

func (g *Guard) emit(event journal.Event) {
	event.Timestamp = time.Now()
	event.BootID = g.bootID
	g.journal.Log(event)
}
