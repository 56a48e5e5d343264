// Package storage provides the local key/value store a sync Store persists to.
//
// Three bridges are available:
//   - SQLite: the native store, an embedded SQLite database in WAL mode
//   - FileStore: a file-per-key fallback used when SQLite cannot be opened
//   - Memory: a process-local map, for tests and ephemeral runs
//
// Open selects one from a Config. With BackendAuto the file store is
// substituted transparently whenever the native store is unavailable.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
)

// ErrKeyNotFound is returned by Delete when the key does not exist.
var ErrKeyNotFound = errors.New("key not found")

// Bridge is a minimal key/value store.
//
// Get returns (nil, nil) when the key is absent; an absent key is a
// successful load of an empty value, never an error.
type Bridge interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Name identifies the backend in logs and status output.
	Name() string
	Close() error
}

// Backend names accepted by Open.
const (
	BackendAuto   = "auto"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Config selects and configures a Bridge.
type Config struct {
	// Backend is one of auto, sqlite, file, memory (default: auto)
	Backend string

	// SQLitePath is the database file for the native store
	SQLitePath string

	// FileDir is the directory for the file-backed store
	FileDir string

	// Logger for backend selection (default: stderr logger)
	Logger *log.Logger
}

// Open returns the Bridge described by cfg.
func Open(cfg Config) (Bridge, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[storage] ", log.LstdFlags)
	}

	switch cfg.Backend {
	case BackendSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case BackendFile:
		return NewFileStore(cfg.FileDir)
	case BackendMemory:
		return NewMemory(), nil
	case "", BackendAuto:
		if cfg.SQLitePath != "" {
			db, err := OpenSQLite(cfg.SQLitePath)
			if err == nil {
				return db, nil
			}
			if cfg.FileDir == "" {
				return nil, err
			}
			logger.Printf("Native store unavailable (%v), overriding with file storage in %s", err, cfg.FileDir)
		}
		if cfg.FileDir == "" {
			return nil, fmt.Errorf("no storage location configured")
		}
		return NewFileStore(cfg.FileDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
