package nvs

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Store provides get/set/delete access to one namespace of a Backend.
// It is safe for concurrent use; operations are serialized.
type Store struct {
	mu sync.Mutex

	backend   Backend
	namespace string
	logger    *slog.Logger

	initialized bool
	closed      bool

	// fatal is set once recovery has failed; Init never retries after that.
	fatal error
}

// NewStore creates a store for namespace on backend. Nothing is opened until
// the first operation or an explicit Init.
func NewStore(backend Backend, namespace string) *Store {
	return &Store{
		backend:   backend,
		namespace: namespace,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger used for storage diagnostics.
func (s *Store) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logger != nil {
		s.logger = logger
	}
}

// Namespace returns the namespace name.
func (s *Store) Namespace() string {
	return s.namespace
}

// Init opens the namespace. It is idempotent: once it has succeeded, further
// calls do nothing and return nil.
func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initLocked()
}

func (s *Store) initLocked() error {
	if s.closed {
		return ErrClosed
	}
	if s.initialized {
		return nil
	}
	if s.fatal != nil {
		return s.fatal
	}

	err := s.backend.Open(s.namespace)
	if err == nil {
		s.initialized = true
		s.logger.Debug("nvs namespace opened", "namespace", s.namespace)
		return nil
	}

	if !errors.Is(err, ErrNoFreePages) && !errors.Is(err, ErrCorrupt) {
		s.logger.Error("nvs open failed", "namespace", s.namespace, "error", err)
		return fmt.Errorf("%w: open %s: %w", ErrInitFailed, s.namespace, err)
	}

	s.logger.Warn("nvs partition unusable, erasing", "namespace", s.namespace, "error", err)
	if err := s.backend.Erase(); err != nil {
		s.fatal = fmt.Errorf("%w: erase: %w", ErrInitFailed, err)
		s.logger.Error("nvs erase failed", "namespace", s.namespace, "error", err)
		return s.fatal
	}
	if err := s.backend.Open(s.namespace); err != nil {
		s.fatal = fmt.Errorf("%w: reopen after erase: %w", ErrInitFailed, err)
		s.logger.Error("nvs reopen after erase failed", "namespace", s.namespace, "error", err)
		return s.fatal
	}

	s.initialized = true
	s.logger.Info("nvs partition recovered", "namespace", s.namespace)
	return nil
}

// Get returns a copy of the value stored under key, or ErrNotFound.
func (s *Store) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initLocked(); err != nil {
		return nil, err
	}

	val, err := s.backend.Get(key)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Warn("nvs get failed", "key", key, "error", err)
		return nil, fmt.Errorf("get %q: %w", key, err)
	}

	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

// Set stores value under key. It returns nil only after the write has been
// committed.
func (s *Store) Set(key string, value []byte) error {
	if key == "" || len(value) == 0 {
		return ErrInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initLocked(); err != nil {
		return err
	}

	if err := s.backend.Put(key, value); err != nil {
		s.logger.Error("nvs set failed", "key", key, "error", err)
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key returns nil.
func (s *Store) Delete(key string) error {
	if key == "" {
		return ErrInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initLocked(); err != nil {
		return err
	}

	if err := s.backend.Delete(key); err != nil {
		s.logger.Error("nvs delete failed", "key", key, "error", err)
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Close closes the backend. Later operations return ErrClosed.
// It is safe to call Close multiple times.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if !s.initialized {
		return nil
	}
	s.initialized = false
	return s.backend.Close()
}
