package nvs

import "fmt"

// Backend is the storage medium behind a Store.
//
// Implementations are not required to be safe for concurrent use; the Store
// serializes all calls.
type Backend interface {
	// Open opens the partition and creates the namespace if it does not
	// exist. Recoverable medium failures are reported by wrapping
	// ErrNoFreePages or ErrCorrupt.
	Open(namespace string) error

	// Erase wipes the whole partition. The backend must be openable again
	// afterwards.
	Erase() error

	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Put stores value under key and commits it durably before returning.
	Put(key string, value []byte) error

	// Delete removes key and commits durably. Deleting an absent key is not
	// an error.
	Delete(key string) error

	// Close releases the partition.
	Close() error
}

// Backend names accepted by NewBackend.
const (
	BackendBolt   = "bolt"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// BackendNames lists the names accepted by NewBackend.
var BackendNames = []string{BackendBolt, BackendBadger, BackendSQLite, BackendMemory}

// NewBackend creates the backend called name at path. For badger, path is a
// directory; for bolt and sqlite it is a file. The memory backend ignores
// path and does not survive the process.
func NewBackend(name, path string) (Backend, error) {
	if name != BackendMemory && path == "" {
		return nil, fmt.Errorf("%w: %s backend needs a path", ErrInvalidArgument, name)
	}
	switch name {
	case BackendBolt:
		return NewBoltBackend(path), nil
	case BackendBadger:
		return NewBadgerBackend(path), nil
	case BackendSQLite:
		return NewSQLiteBackend(path), nil
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidArgument, name)
	}
}
