// Package nvs provides durable namespaced key-value storage for boot-time
// device state.
//
// A Store owns a single namespace inside a Backend and opens it lazily on the
// first operation. Values are opaque byte blobs stored and returned verbatim.
//
// # Durability
//
// Set and Delete return only after the change has been committed by the
// backend, so a caller may assume the change survives an immediate power loss
// once nil is returned. A failed write leaves the previous value in place.
//
// # Recovery
//
// If the backend reports ErrNoFreePages or ErrCorrupt while opening, the store
// erases the partition once and opens it again. If that also fails the store
// stays failed for the rest of the process and every operation returns
// ErrInitFailed.
//
// # Backends
//
//   - BoltBackend: single bbolt file, one bucket per namespace (default)
//   - BadgerBackend: badger directory, namespace as key prefix
//   - SQLiteBackend: sqlite file, one row per (namespace, key)
//   - MemoryBackend: volatile, with failure injection for tests
package nvs
