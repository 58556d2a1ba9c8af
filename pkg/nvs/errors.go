package nvs

import "errors"

// Storage errors.
var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("nvs: key not found")

	// ErrInitFailed is returned when the namespace could not be opened.
	ErrInitFailed = errors.New("nvs: storage init failed")

	// ErrNoFreePages is reported by a backend whose medium is out of space.
	// It triggers the one-time erase-and-reinitialize recovery.
	ErrNoFreePages = errors.New("nvs: no free pages")

	// ErrCorrupt is reported by a backend whose data cannot be read.
	// It triggers the one-time erase-and-reinitialize recovery.
	ErrCorrupt = errors.New("nvs: storage corrupt")

	// ErrInvalidArgument is returned for empty keys or empty values.
	ErrInvalidArgument = errors.New("nvs: invalid argument")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("nvs: store closed")
)

// Kind is a coarse classification of a storage operation outcome.
type Kind uint8

const (
	// KindOK means the operation succeeded.
	KindOK Kind = iota

	// KindNotFound means the key does not exist.
	KindNotFound

	// KindStorage means the backend failed a read, write or delete.
	KindStorage

	// KindInit means the namespace could not be opened.
	KindInit
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindOK:
		return "OK"
	case KindNotFound:
		return "NOT_FOUND"
	case KindStorage:
		return "STORAGE_ERROR"
	case KindInit:
		return "INIT_FAILED"
	default:
		return "UNKNOWN"
	}
}

// Classify maps an error returned by a Store to its Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInitFailed):
		return KindInit
	default:
		return KindStorage
	}
}
