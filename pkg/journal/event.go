package journal

import (
	"time"
)

// Event is one journal record.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// BootID identifies the boot that produced the event (UUID).
	BootID string `cbor:"2,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"3,keyasint"`

	// Type-specific payload (one of these will be set).
	Boot    *BootEvent    `cbor:"4,keyasint,omitempty"`
	State   *StateEvent   `cbor:"5,keyasint,omitempty"`
	Timer   *TimerEvent   `cbor:"6,keyasint,omitempty"`
	Reset   *ResetEvent   `cbor:"7,keyasint,omitempty"`
	Storage *StorageEvent `cbor:"8,keyasint,omitempty"`
	Error   *ErrorEvent   `cbor:"9,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryBoot is the evaluation summary of a boot.
	CategoryBoot Category = 0
	// CategoryState is a state machine transition.
	CategoryState Category = 1
	// CategoryTimer is a window timer event.
	CategoryTimer Category = 2
	// CategoryReset is one step of a factory reset.
	CategoryReset Category = 3
	// CategoryStorage is a storage failure or recovery.
	CategoryStorage Category = 4
	// CategoryError is any other error.
	CategoryError Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryBoot:
		return "BOOT"
	case CategoryState:
		return "STATE"
	case CategoryTimer:
		return "TIMER"
	case CategoryReset:
		return "RESET"
	case CategoryStorage:
		return "STORAGE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory parses a category name as returned by String.
func ParseCategory(s string) (Category, bool) {
	for c := CategoryBoot; c <= CategoryError; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// BootEvent summarizes the evaluation of one boot.
type BootEvent struct {
	// WakeupCause is the reported boot cause.
	WakeupCause string `cbor:"1,keyasint,omitempty"`

	// Previous is the counter value read from storage.
	Previous uint32 `cbor:"2,keyasint"`

	// Count is the counter value computed for this boot.
	Count uint32 `cbor:"3,keyasint"`

	// Threshold is the configured threshold.
	Threshold uint32 `cbor:"4,keyasint"`

	// Window is the configured window. Stored as nanoseconds.
	Window time.Duration `cbor:"5,keyasint"`

	// Persisted is false if the counter could not be written.
	Persisted bool `cbor:"6,keyasint"`

	// Outcome is the state after evaluation.
	Outcome string `cbor:"7,keyasint"`
}

// StateEvent captures a state transition.
type StateEvent struct {
	// OldState is the previous state.
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// TimerAction is what happened to the window timer.
type TimerAction uint8

const (
	// TimerArmed means the window timer was started.
	TimerArmed TimerAction = 0
	// TimerExpired means the window elapsed and the counter was cleared.
	TimerExpired TimerAction = 1
	// TimerFailed means arming or the expiry delete failed.
	TimerFailed TimerAction = 2
)

// String returns the timer action name.
func (a TimerAction) String() string {
	switch a {
	case TimerArmed:
		return "ARMED"
	case TimerExpired:
		return "EXPIRED"
	case TimerFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// TimerEvent captures window timer activity.
type TimerEvent struct {
	Action TimerAction `cbor:"1,keyasint"`

	// Window is the timer duration. Stored as nanoseconds.
	Window time.Duration `cbor:"2,keyasint,omitempty"`

	// Error is set for TimerFailed.
	Error string `cbor:"3,keyasint,omitempty"`
}

// ResetEvent captures one step of a factory reset.
type ResetEvent struct {
	Step string `cbor:"1,keyasint"`
	Key  string `cbor:"2,keyasint"`

	// Error is empty if the step succeeded.
	Error string `cbor:"3,keyasint,omitempty"`
}

// StorageEvent captures a storage failure.
type StorageEvent struct {
	// Op is the failed operation (init, get, set, delete).
	Op string `cbor:"1,keyasint"`

	// Key is the affected key, empty for init.
	Key string `cbor:"2,keyasint,omitempty"`

	// Kind is the error kind (NOT_FOUND, STORAGE_ERROR, INIT_FAILED).
	Kind string `cbor:"3,keyasint,omitempty"`

	Error string `cbor:"4,keyasint"`
}

// ErrorEvent captures errors that fit no other category.
type ErrorEvent struct {
	// Component where the error occurred.
	Component string `cbor:"1,keyasint"`

	Message string `cbor:"2,keyasint"`
}
