/*
Package storage provides SQLite database migrations and helper functions.

This file contains schema definitions, migration logic, and vector serialization
utilities for the storage layer.
*/
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// runMigrations executes database schema migrations.
func (s *SQLiteStorage) runMigrations() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	// Create migrations table
	if err := s.createMigrationsTable(); err != nil {
		return err
	}

	// Get current version
	version, err := s.getCurrentMigrationVersion()
	if err != nil {
		return err
	}

	// Run migrations in order
	migrations := []migration{
		{version: 1, name: "initial_schema", up: s.migration001InitialSchema},
		{version: 2, name: "dispatch_history", up: s.migration002DispatchHistory},
	}

	for _, m := range migrations {
		if version < m.version {
			s.logger.Info("running migration", "version", m.version, "name", m.name)
			if err := m.up(); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.version, err)
			}
			if err := s.setMigrationVersion(m.version); err != nil {
				return err
			}
		}
	}

	return nil
}

// migration represents a single database migration.
type migration struct {
	version int
	name    string
	up      func() error
}

// createMigrationsTable creates the schema_migrations table.
func (s *SQLiteStorage) createMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`
	_, err := s.db.Exec(query)
	return err
}

// getCurrentMigrationVersion returns the highest applied migration version.
func (s *SQLiteStorage) getCurrentMigrationVersion() (int, error) {
	query := "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"
	row := s.db.QueryRow(query)

	var version int
	if err := row.Scan(&version); err != nil {
		return 0, err
	}

	return version, nil
}

// setMigrationVersion records a migration as applied.
func (s *SQLiteStorage) setMigrationVersion(version int) error {
	query := "INSERT INTO schema_migrations (version, name) VALUES (?, ?)"
	_, err := s.db.Exec(query, version, fmt.Sprintf("migration_%d", version))
	return err
}

// migration001InitialSchema creates the initial database schema.
func (s *SQLiteStorage) migration001InitialSchema() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS function_embeddings (
			name TEXT PRIMARY KEY,
			vector BLOB NOT NULL,
			version TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create function_embeddings table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS session_prompts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			prompt TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create session_prompts table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_session_prompts_session
		ON session_prompts(session_id, id)
	`); err != nil {
		return fmt.Errorf("failed to create session_prompts index: %w", err)
	}

	return nil
}

// migration002DispatchHistory creates the dispatch history table.
func (s *SQLiteStorage) migration002DispatchHistory() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS dispatch_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL UNIQUE,
			function TEXT NOT NULL,
			session_hash TEXT NOT NULL,
			prompt_hash TEXT NOT NULL,
			score REAL NOT NULL,
			matched INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create dispatch_history table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_dispatch_history_function
		ON dispatch_history(function)
	`); err != nil {
		return fmt.Errorf("failed to create dispatch_history function index: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_dispatch_history_timestamp
		ON dispatch_history(timestamp DESC)
	`); err != nil {
		return fmt.Errorf("failed to create dispatch_history timestamp index: %w", err)
	}

	return nil
}

// vectorToJSON converts a float32 vector to JSON for storage.
func vectorToJSON(vector []float32) string {
	data, err := json.Marshal(vector)
	if err != nil {
		slog.Warn("failed to marshal vector", "error", err)
		return "[]"
	}
	return string(data)
}

// jsonToVector parses JSON storage back to a float32 vector.
func jsonToVector(jsonStr string) ([]float32, error) {
	var vector []float32
	if err := json.Unmarshal([]byte(jsonStr), &vector); err != nil {
		return nil, err
	}
	return vector, nil
}
