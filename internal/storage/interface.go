/*
Package storage implements the persistent storage layer for prompt-dispatch.

It provides SQLite-based storage for the embedding cache, persisted session
history and the dispatch history, with graceful degradation if the database
is unavailable.

The database uses modernc.org/sqlite (a pure Go, CGo-free implementation).
*/
package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Storage defines the interface for persistent storage operations.
type Storage interface {
	// Init initializes the database and runs migrations.
	Init() error

	// SaveEmbedding caches an embedding vector for a function.
	SaveEmbedding(name string, vector []float32, version string) error

	// GetEmbedding retrieves a cached embedding for a function.
	GetEmbedding(name string) ([]float32, string, error)

	// ListEmbeddings returns every cached embedding ordered by name.
	ListEmbeddings() ([]FunctionEmbedding, error)

	// DeleteEmbeddingsExcept removes cached embeddings for names not in keep.
	DeleteEmbeddingsExcept(keep []string) (int, error)

	// AppendPrompt appends a prompt to a session's history.
	AppendPrompt(sessionID, prompt string) error

	// SessionPrompts returns a session's prompts in arrival order.
	SessionPrompts(sessionID string) ([]string, error)

	// RecordDispatch records a dispatch event.
	RecordDispatch(record DispatchRecord) error

	// GetDispatchHistory retrieves dispatches of a function since a given time.
	GetDispatchHistory(function string, since time.Time) ([]DispatchRecord, error)

	// Cleanup removes old dispatch records based on retention policy.
	Cleanup(retention time.Duration) error

	// Close closes the database connection.
	Close() error
}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db       *sql.DB
	dbPath   string
	enabled  bool
	logger   *slog.Logger
	mu       sync.Mutex
	initOnce sync.Once
}

// NewStorage creates a new SQLite storage instance at dbPath.
//
// If the directory doesn't exist, it will be created by Init.
// An empty path disables storage: operations become no-ops.
func NewStorage(dbPath string, logger *slog.Logger) *SQLiteStorage {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteStorage{
		dbPath:  dbPath,
		enabled: dbPath != "",
		logger:  logger,
	}
}

// Enabled reports whether the database is usable.
func (s *SQLiteStorage) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled && s.db != nil
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Init initializes the database and runs migrations.
//
// If initialization fails, storage is disabled and subsequent operations
// become no-ops (graceful degradation).
func (s *SQLiteStorage) Init() error {
	if !s.enabled {
		return nil
	}

	var initErr error
	s.initOnce.Do(func() {
		dbDir := filepath.Dir(s.dbPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			initErr = fmt.Errorf("failed to create db directory: %w", err)
			s.enabled = false
			return
		}

		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			initErr = fmt.Errorf("failed to open database: %w", err)
			s.enabled = false
			s.logger.Warn("storage disabled", "error", initErr)
			return
		}
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		s.db = db

		if err := db.Ping(); err != nil {
			initErr = fmt.Errorf("failed to ping database: %w", err)
			s.enabled = false
			s.logger.Warn("storage disabled", "error", initErr)
			return
		}

		if err := s.runMigrations(); err != nil {
			initErr = fmt.Errorf("failed to run migrations: %w", err)
			s.enabled = false
			s.logger.Warn("storage disabled", "error", initErr)
			return
		}
	})

	return initErr
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.db = nil
	return nil
}

// HashQuery creates a SHA256 hash of a string for privacy.
func HashQuery(query string) string {
	hash := sha256.Sum256([]byte(query))
	return hex.EncodeToString(hash[:])
}
