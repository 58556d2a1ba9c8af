package nvs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

// DefaultOpenTimeout bounds how long BoltBackend waits for the file lock.
const DefaultOpenTimeout = 1 * time.Second

// BoltBackend stores each namespace as a bucket in a single bbolt file.
// Every Put and Delete runs in its own transaction, which bbolt fsyncs on
// commit.
type BoltBackend struct {
	path    string
	timeout time.Duration

	db     *bbolt.DB
	bucket []byte
}

// NewBoltBackend creates a backend for the database file at path.
func NewBoltBackend(path string) *BoltBackend {
	return &BoltBackend{
		path:    path,
		timeout: DefaultOpenTimeout,
	}
}

// Path returns the database file path.
func (b *BoltBackend) Path() string {
	return b.path
}

// Open opens the database file and creates the namespace bucket.
func (b *BoltBackend) Open(namespace string) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return classifyBoltError(err)
	}

	db, err := bbolt.Open(b.path, 0o600, &bbolt.Options{Timeout: b.timeout})
	if err != nil {
		return classifyBoltError(err)
	}

	bucket := []byte(namespace)
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return classifyBoltError(fmt.Errorf("create bucket %s: %w", namespace, err))
	}

	b.db = db
	b.bucket = bucket
	return nil
}

// Erase closes the database if open and removes the file.
func (b *BoltBackend) Erase() error {
	if b.db != nil {
		_ = b.db.Close()
		b.db = nil
	}
	err := os.Remove(b.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Get returns a copy of the value for key.
func (b *BoltBackend) Get(key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return ErrNotFound
		}
		val := bucket.Get([]byte(key))
		if val == nil {
			return ErrNotFound
		}
		out = make([]byte, len(val))
		copy(out, val)
		return nil
	})
	return out, err
}

// Put stores value under key.
func (b *BoltBackend) Put(key string, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return fmt.Errorf("bucket %s not found", b.bucket)
		}
		return bucket.Put([]byte(key), value)
	})
}

// Delete removes key. bbolt treats a missing key as a no-op.
func (b *BoltBackend) Delete(key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
}

// Close closes the database.
func (b *BoltBackend) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

func classifyBoltError(err error) error {
	switch {
	case errors.Is(err, berrors.ErrInvalid),
		errors.Is(err, berrors.ErrChecksum),
		errors.Is(err, berrors.ErrVersionMismatch):
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	case errors.Is(err, syscall.ENOSPC):
		return fmt.Errorf("%w: %w", ErrNoFreePages, err)
	default:
		return err
	}
}

var _ Backend = (*BoltBackend)(nil)
