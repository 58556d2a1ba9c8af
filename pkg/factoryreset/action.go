// Package factoryreset performs the storage side of a factory reset: it raises
// the reset flag and removes the reboot counter and the stored network
// credentials.
//
// The cloud side of the reset is not done here. Networking is not available
// this early in boot, so the connectivity layer reads the flag after its next
// successful connection and reports the reset then.
package factoryreset

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Default key names.
const (
	DefaultFlagKey     = "qcloud.rst"
	DefaultCounterKey  = "q_rt"
	DefaultSSIDKey     = "stassid"
	DefaultPasswordKey = "pswd"
)

// FlagValue is the byte stored under the flag key.
const FlagValue byte = 0x01

// ErrAlreadyRun is returned when Run is called a second time.
var ErrAlreadyRun = errors.New("factory reset already run")

// Store is the storage the action writes to.
type Store interface {
	Set(key string, value []byte) error
	Delete(key string) error
}

// Keys names the keys touched by a reset.
type Keys struct {
	Flag        string
	Counter     string
	Credentials []string
}

// DefaultKeys returns the default key names.
func DefaultKeys() Keys {
	return Keys{
		Flag:        DefaultFlagKey,
		Counter:     DefaultCounterKey,
		Credentials: []string{DefaultSSIDKey, DefaultPasswordKey},
	}
}

// Step identifies one effect of a reset.
type Step string

const (
	StepSetFlag           Step = "set-flag"
	StepDeleteCounter     Step = "delete-counter"
	StepDeleteCredentials Step = "delete-credential"
)

// StepError records a failed step.
type StepError struct {
	Step Step
	Key  string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("factory reset %s %q: %v", e.Step, e.Key, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Action runs a factory reset at most once.
type Action struct {
	mu  sync.Mutex
	ran bool

	store  Store
	keys   Keys
	logger *slog.Logger

	onStep func(step Step, key string, err error)
}

// New creates an action. A nil logger disables logging.
func New(store Store, keys Keys, logger *slog.Logger) *Action {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Action{store: store, keys: keys, logger: logger}
}

// OnStep sets a callback invoked after each attempted step.
func (a *Action) OnStep(fn func(step Step, key string, err error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onStep = fn
}

// Ran reports whether Run has been called.
func (a *Action) Ran() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ran
}

// Run sets the reset flag, deletes the reboot counter and deletes the
// credentials, in that order. Every step is attempted even if an earlier one
// failed. The returned error joins one *StepError per failed step.
// There is no rollback.
func (a *Action) Run() error {
	a.mu.Lock()
	if a.ran {
		a.mu.Unlock()
		return ErrAlreadyRun
	}
	a.ran = true
	onStep := a.onStep
	a.mu.Unlock()

	a.logger.Warn("factory restore")

	var errs []error
	do := func(step Step, key string, op func() error) {
		err := op()
		if err != nil {
			a.logger.Error("factory reset step failed", "step", string(step), "key", key, "error", err)
			errs = append(errs, &StepError{Step: step, Key: key, Err: err})
		} else {
			a.logger.Info("factory reset step done", "step", string(step), "key", key)
		}
		if onStep != nil {
			onStep(step, key, err)
		}
	}

	do(StepSetFlag, a.keys.Flag, func() error {
		return a.store.Set(a.keys.Flag, []byte{FlagValue})
	})
	do(StepDeleteCounter, a.keys.Counter, func() error {
		return a.store.Delete(a.keys.Counter)
	})
	for _, key := range a.keys.Credentials {
		do(StepDeleteCredentials, key, func() error {
			return a.store.Delete(key)
		})
	}

	return errors.Join(errs...)
}
