package nvs

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	namespace TEXT NOT NULL,
	key TEXT NOT NULL,
	value BLOB NOT NULL,
	PRIMARY KEY (namespace, key)
);`

// SQLiteBackend stores key-value pairs in a single sqlite table.
// Use ":memory:" as path for a volatile database.
type SQLiteBackend struct {
	path string

	db        *sql.DB
	namespace string
}

// NewSQLiteBackend creates a backend for the sqlite database at path.
func NewSQLiteBackend(path string) *SQLiteBackend {
	return &SQLiteBackend{path: path}
}

// Open opens the database, enables full fsync and creates the table.
func (b *SQLiteBackend) Open(namespace string) error {
	if b.path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
			return err
		}
	}

	db, err := sql.Open("sqlite", b.path)
	if err != nil {
		return classifySQLiteError(fmt.Errorf("open sqlite database: %w", err))
	}
	// A single connection keeps ":memory:" databases consistent and
	// serializes writers.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA synchronous=FULL", sqliteSchema} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return classifySQLiteError(fmt.Errorf("initialize schema: %w", err))
		}
	}

	b.db = db
	b.namespace = namespace
	return nil
}

// Erase closes the database and removes the file.
func (b *SQLiteBackend) Erase() error {
	if b.db != nil {
		_ = b.db.Close()
		b.db = nil
	}
	if b.path == ":memory:" {
		return nil
	}
	for _, p := range []string{b.path, b.path + "-journal", b.path + "-wal", b.path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Get returns the value for key.
func (b *SQLiteBackend) Get(key string) ([]byte, error) {
	var val []byte
	err := b.db.QueryRow(
		"SELECT value FROM kv WHERE namespace = ? AND key = ?",
		b.namespace, key,
	).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classifySQLiteError(err)
	}
	return val, nil
}

// Put stores value under key.
func (b *SQLiteBackend) Put(key string, value []byte) error {
	_, err := b.db.Exec(
		"INSERT INTO kv (namespace, key, value) VALUES (?, ?, ?) "+
			"ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value",
		b.namespace, key, value,
	)
	return classifySQLiteError(err)
}

// Delete removes key.
func (b *SQLiteBackend) Delete(key string) error {
	_, err := b.db.Exec("DELETE FROM kv WHERE namespace = ? AND key = ?", b.namespace, key)
	return classifySQLiteError(err)
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

func classifySQLiteError(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	case sqlite3.SQLITE_FULL:
		return fmt.Errorf("%w: %w", ErrNoFreePages, err)
	default:
		return err
	}
}

var _ Backend = (*SQLiteBackend)(nil)
