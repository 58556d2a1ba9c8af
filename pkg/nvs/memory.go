package nvs

import (
	"errors"
	"sync"
)

// errNotOpen is returned by MemoryBackend operations before Open.
var errNotOpen = errors.New("nvs: memory backend not open")

// MemoryBackend keeps data in memory. Data survives Close and a new Open, so
// one MemoryBackend can stand in for a flash partition across several
// simulated boots. It is safe for concurrent use.
type MemoryBackend struct {
	mu sync.Mutex

	data      map[string]map[string][]byte
	namespace string
	open      bool

	opens  int
	erases int

	// OpenErrs are returned by successive Open calls, one per call, before
	// Open starts succeeding.
	OpenErrs []error

	// EraseErr, PutErr and DeleteErr, when set, fail the matching call.
	EraseErr  error
	PutErr    error
	DeleteErr error
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]map[string][]byte)}
}

// Open opens the namespace.
func (m *MemoryBackend) Open(namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.opens++
	if len(m.OpenErrs) > 0 {
		err := m.OpenErrs[0]
		m.OpenErrs = m.OpenErrs[1:]
		if err != nil {
			return err
		}
	}

	if m.data[namespace] == nil {
		m.data[namespace] = make(map[string][]byte)
	}
	m.namespace = namespace
	m.open = true
	return nil
}

// Erase drops all namespaces.
func (m *MemoryBackend) Erase() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.erases++
	if m.EraseErr != nil {
		return m.EraseErr
	}
	m.data = make(map[string]map[string][]byte)
	m.open = false
	return nil
}

// Get returns a copy of the value for key.
func (m *MemoryBackend) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return nil, errNotOpen
	}
	val, ok := m.data[m.namespace][key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

// Put stores a copy of value under key.
func (m *MemoryBackend) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return errNotOpen
	}
	if m.PutErr != nil {
		return m.PutErr
	}
	val := make([]byte, len(value))
	copy(val, value)
	m.data[m.namespace][key] = val
	return nil
}

// Delete removes key.
func (m *MemoryBackend) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return errNotOpen
	}
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.data[m.namespace], key)
	return nil
}

// Close marks the backend closed. Data is kept.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	return nil
}

// Has reports whether key exists in namespace, without opening anything.
func (m *MemoryBackend) Has(namespace, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[namespace][key]
	return ok
}

// Value returns the raw value of key in namespace, or nil.
func (m *MemoryBackend) Value(namespace, key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[namespace][key]
}

// Opens returns how many times Open was called.
func (m *MemoryBackend) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// Erases returns how many times Erase was called.
func (m *MemoryBackend) Erases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.erases
}

var _ Backend = (*MemoryBackend)(nil)
