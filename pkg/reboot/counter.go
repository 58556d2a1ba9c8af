package reboot

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/mash-protocol/quickreset/pkg/factoryreset"
	"github.com/mash-protocol/quickreset/pkg/nvs"
	"github.com/mash-protocol/quickreset/pkg/oneshot"
)

// Counter defaults.
const (
	// DefaultThreshold is the number of quick reboots that triggers a reset.
	DefaultThreshold uint32 = 5

	// DefaultWindow is how long a boot must stay up to end a streak.
	DefaultWindow = 5000 * time.Millisecond

	// DefaultCounterKey is the storage key of the counter. The reset action
	// deletes the same key.
	DefaultCounterKey = factoryreset.DefaultCounterKey
)

// State is the state of the boot-time evaluation.
type State uint8

const (
	// StateIdle is the state before Check and after the window expired.
	StateIdle State = iota

	// StateCounting means the streak is below the threshold and the window
	// timer is armed.
	StateCounting

	// StateResetTriggered means the threshold was reached. Terminal for the
	// current boot.
	StateResetTriggered

	// StateDisabled means storage could not be initialized.
	StateDisabled

	// StateSkipped means the boot was a wakeup from sleep and not counted.
	StateSkipped
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateCounting:
		return "COUNTING"
	case StateResetTriggered:
		return "RESET_TRIGGERED"
	case StateDisabled:
		return "DISABLED"
	case StateSkipped:
		return "SKIPPED"
	default:
		return "UNKNOWN"
	}
}

// Store is the durable storage used by the counter.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Resetter performs the factory reset.
type Resetter interface {
	Run() error
}

// Config configures a Counter. Zero values select the defaults.
type Config struct {
	Threshold  uint32
	Window     time.Duration
	CounterKey string

	// Logger is the optional logger. If nil, logging is disabled.
	Logger *slog.Logger
}

// Result describes the outcome of Check.
type Result struct {
	// State after the evaluation.
	State State

	// Count is the counter value computed for this boot.
	Count uint32

	// Previous is the counter value read from storage (0 if absent).
	Previous uint32

	// Persisted is false if writing Count to storage failed.
	Persisted bool

	// PersistErr is the write failure when Persisted is false.
	PersistErr error

	// ResetErr holds the failures of the reset action, if it ran.
	ResetErr error
}

// Counter runs the reboot-counting state machine.
type Counter struct {
	mu sync.Mutex

	store    Store
	timer    *oneshot.Timer
	resetter Resetter

	threshold uint32
	window    time.Duration
	key       string
	logger    *slog.Logger

	state  State
	result Result

	// Callbacks
	onStateChange   func(oldState, newState State)
	onWindowExpired func(err error)
}

// NewCounter creates a counter.
func NewCounter(store Store, timer *oneshot.Timer, resetter Resetter, cfg Config) *Counter {
	c := &Counter{
		store:     store,
		timer:     timer,
		resetter:  resetter,
		threshold: cfg.Threshold,
		window:    cfg.Window,
		key:       cfg.CounterKey,
		logger:    cfg.Logger,
		state:     StateIdle,
	}
	if c.threshold == 0 {
		c.threshold = DefaultThreshold
	}
	if c.window == 0 {
		c.window = DefaultWindow
	}
	if c.key == "" {
		c.key = DefaultCounterKey
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.timer == nil {
		c.timer = oneshot.New(nil)
	}
	return c
}

// State returns the current state.
func (c *Counter) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Threshold returns the configured threshold.
func (c *Counter) Threshold() uint32 {
	return c.threshold
}

// Key returns the storage key of the counter.
func (c *Counter) Key() string {
	return c.key
}

// Window returns the configured window.
func (c *Counter) Window() time.Duration {
	return c.window
}

// Check reads, increments and persists the counter, then either runs the
// reset action or arms the window timer.
//
// The only error returned is a storage init failure, in which case the state
// is StateDisabled and nothing was changed. Read and write failures are
// logged and reported in Result.
func (c *Counter) Check() (Result, error) {
	c.mu.Lock()
	if c.state == StateResetTriggered {
		res := c.result
		c.mu.Unlock()
		return res, nil
	}
	c.mu.Unlock()

	prev, err := c.read()
	if errors.Is(err, nvs.ErrInitFailed) {
		c.logger.Error("reboot counter disabled, storage unavailable", "error", err)
		c.setState(StateDisabled, Result{State: StateDisabled})
		return Result{State: StateDisabled}, err
	}

	// Saturate instead of wrapping to 0.
	count := prev
	if count < math.MaxUint32 {
		count++
	}
	res := Result{Count: count, Previous: prev, Persisted: true}

	if err := c.store.Set(c.key, EncodeCount(count)); err != nil {
		if errors.Is(err, nvs.ErrInitFailed) {
			c.logger.Error("reboot counter disabled, storage unavailable", "error", err)
			c.setState(StateDisabled, Result{State: StateDisabled})
			return Result{State: StateDisabled}, err
		}
		c.logger.Error("persist reboot counter failed", "count", count, "error", err)
		res.Persisted = false
		res.PersistErr = err
	}

	if count >= c.threshold {
		res.State = StateResetTriggered
		c.setState(StateResetTriggered, res)
		c.logger.Warn("quick reboot threshold reached", "count", count, "threshold", c.threshold)

		res.ResetErr = c.resetter.Run()

		c.mu.Lock()
		c.result = res
		c.mu.Unlock()
		return res, nil
	}

	c.logger.Info("quick reboot counted, no restore needed", "count", count, "threshold", c.threshold)

	// State must be Counting before the timer can fire.
	res.State = StateCounting
	c.setState(StateCounting, res)

	if err := c.timer.Start(c.window, c.expire); err != nil {
		c.logger.Error("arm quick reboot window failed", "window", c.window, "error", err)
	}
	return res, nil
}

// Skip clears the counter without counting this boot. It is used for boots
// that are wakeups from sleep rather than power cycles.
func (c *Counter) Skip() error {
	err := c.Clear()
	if errors.Is(err, nvs.ErrInitFailed) {
		c.setState(StateDisabled, Result{State: StateDisabled})
		return err
	}
	c.setState(StateSkipped, Result{State: StateSkipped})
	return err
}

// Clear deletes the persisted counter.
func (c *Counter) Clear() error {
	if err := c.store.Delete(c.key); err != nil {
		c.logger.Error("clear reboot counter failed", "error", err)
		return err
	}
	return nil
}

// Value reads the persisted counter. A missing or malformed value reads as 0.
func (c *Counter) Value() (uint32, error) {
	return c.read()
}

// OnStateChange sets a callback for state changes.
func (c *Counter) OnStateChange(fn func(oldState, newState State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStateChange = fn
}

// OnWindowExpired sets a callback run after the window timer cleared the
// counter. err is the result of the delete.
func (c *Counter) OnWindowExpired(fn func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onWindowExpired = fn
}

func (c *Counter) read() (uint32, error) {
	raw, err := c.store.Get(c.key)
	switch {
	case err == nil:
	case errors.Is(err, nvs.ErrNotFound):
		return 0, nil
	case errors.Is(err, nvs.ErrInitFailed):
		return 0, err
	default:
		c.logger.Warn("read reboot counter failed, assuming 0", "error", err)
		return 0, nil
	}

	count, ok := DecodeCount(raw)
	if !ok {
		c.logger.Warn("malformed reboot counter, assuming 0", "len", len(raw))
		return 0, nil
	}
	return count, nil
}

// expire is the window timer callback.
func (c *Counter) expire() {
	err := c.store.Delete(c.key)
	if err != nil {
		c.logger.Error("quick reboot timeout, clear reboot times failed", "error", err)
	} else {
		c.logger.Info("quick reboot timeout, reboot times cleared")
	}

	c.mu.Lock()
	changed := c.state == StateCounting
	if changed {
		c.state = StateIdle
		c.result.State = StateIdle
	}
	stateChangeFn := c.onStateChange
	expiredFn := c.onWindowExpired
	c.mu.Unlock()

	if changed && stateChangeFn != nil {
		stateChangeFn(StateCounting, StateIdle)
	}
	if expiredFn != nil {
		expiredFn(err)
	}
}

func (c *Counter) setState(newState State, res Result) {
	c.mu.Lock()
	oldState := c.state
	c.state = newState
	c.result = res
	stateChangeFn := c.onStateChange
	c.mu.Unlock()

	if stateChangeFn != nil && oldState != newState {
		stateChangeFn(oldState, newState)
	}
}

// EncodeCount encodes a counter value as 4 bytes little-endian.
func EncodeCount(n uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, n)
	return buf
}

// DecodeCount decodes a counter value. It reports false if b is not 4 bytes.
func DecodeCount(b []byte) (uint32, bool) {
	if len(b) != 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}
