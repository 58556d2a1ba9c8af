package nvs

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerBackend stores all namespaces in one badger directory, using the
// namespace plus '/' as a key prefix. Writes are synced before returning.
type BadgerBackend struct {
	dir      string
	inMemory bool
	logger   *slog.Logger

	db     *badger.DB
	prefix []byte
}

// NewBadgerBackend creates a backend for the badger directory dir.
func NewBadgerBackend(dir string) *BadgerBackend {
	return &BadgerBackend{dir: dir}
}

// NewInMemoryBadgerBackend creates a badger backend without disk files.
// Erase discards all data.
func NewInMemoryBadgerBackend() *BadgerBackend {
	return &BadgerBackend{inMemory: true}
}

// SetLogger routes badger's internal logging to logger at debug level.
func (b *BadgerBackend) SetLogger(logger *slog.Logger) {
	b.logger = logger
}

// Open opens the badger database.
func (b *BadgerBackend) Open(namespace string) error {
	var opts badger.Options
	if b.inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(b.dir, 0o755); err != nil {
			return classifyBadgerError(err)
		}
		opts = badger.DefaultOptions(b.dir).WithSyncWrites(true)
	}
	if b.logger != nil {
		opts = opts.WithLogger(badgerLogger{b.logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return classifyBadgerError(err)
	}

	b.db = db
	b.prefix = []byte(namespace + "/")
	return nil
}

// Erase closes the database and removes its directory.
func (b *BadgerBackend) Erase() error {
	if b.db != nil {
		_ = b.db.Close()
		b.db = nil
	}
	if b.inMemory {
		return nil
	}
	return os.RemoveAll(b.dir)
}

func (b *BadgerBackend) key(k string) []byte {
	out := make([]byte, 0, len(b.prefix)+len(k))
	out = append(out, b.prefix...)
	return append(out, k...)
}

// Get returns a copy of the value for key.
func (b *BadgerBackend) Get(key string) ([]byte, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

// Put stores value under key.
func (b *BadgerBackend) Put(key string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key(key), value)
	})
}

// Delete removes key.
func (b *BadgerBackend) Delete(key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(b.key(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Close closes the database.
func (b *BadgerBackend) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// badgerCorruptMessages match open failures caused by damaged files. Badger
// wraps most internal errors with %+v, so the chain is lost and only the
// message is left to inspect.
var badgerCorruptMessages = []string{
	"manifest has bad magic",
	"manifest has checksum mismatch",
	"checksum mismatch",
	"unsupported version",
	"might be corrupted",
}

func classifyBadgerError(err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("%w: %w", ErrNoFreePages, err)
	}
	if isBadgerCorruption(err) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return err
}

func isBadgerCorruption(err error) bool {
	if errors.Is(err, badger.ErrTruncateNeeded) {
		return true
	}
	// Lock and permission failures mean another process or a wrong path,
	// not a damaged store.
	if errors.Is(err, os.ErrPermission) || strings.Contains(err.Error(), "Cannot acquire directory lock") {
		return false
	}
	msg := err.Error()
	for _, m := range badgerCorruptMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// badgerLogger adapts slog to badger.Logger.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error("badger: " + fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn("badger: " + fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug("badger: " + fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug("badger: " + fmt.Sprintf(format, args...))
}

var _ Backend = (*BadgerBackend)(nil)
