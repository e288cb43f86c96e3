package storage

import (
	"fmt"
	"strings"
	"time"
)

// SaveEmbedding caches an embedding vector for a function.
func (s *SQLiteStorage) SaveEmbedding(name string, vector []float32, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return nil
	}

	query := `
		INSERT OR REPLACE INTO function_embeddings (name, vector, version, created_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		name,
		vectorToJSON(vector),
		version,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		s.logger.Warn("failed to save embedding", "function", name, "error", err)
	}

	return nil
}

// GetEmbedding retrieves a cached embedding for a function.
// A missing row yields a nil vector and no error.
func (s *SQLiteStorage) GetEmbedding(name string) ([]float32, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return nil, "", nil
	}

	query := `
		SELECT vector, version
		FROM function_embeddings
		WHERE name = ?
	`

	rows, err := s.db.Query(query, name)
	if err != nil {
		s.logger.Warn("failed to query embedding", "function", name, "error", err)
		return nil, "", nil
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, "", nil
	}

	var vectorJSON, version string
	if err := rows.Scan(&vectorJSON, &version); err != nil {
		s.logger.Warn("failed to scan embedding", "function", name, "error", err)
		return nil, "", nil
	}

	vector, err := jsonToVector(vectorJSON)
	if err != nil {
		s.logger.Warn("failed to parse embedding vector", "function", name, "error", err)
		return nil, "", nil
	}

	return vector, version, nil
}

// ListEmbeddings returns every cached embedding ordered by name.
func (s *SQLiteStorage) ListEmbeddings() ([]FunctionEmbedding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return []FunctionEmbedding{}, nil
	}

	rows, err := s.db.Query(`
		SELECT name, vector, version, created_at
		FROM function_embeddings
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list embeddings: %w", err)
	}
	defer rows.Close()

	out := []FunctionEmbedding{}
	for rows.Next() {
		var e FunctionEmbedding
		var vectorJSON, createdAt string
		if err := rows.Scan(&e.Name, &vectorJSON, &e.Version, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		if e.Vector, err = jsonToVector(vectorJSON); err != nil {
			s.logger.Warn("failed to parse embedding vector", "function", e.Name, "error", err)
			continue
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = t
		}
		out = append(out, e)
	}

	return out, rows.Err()
}

// DeleteEmbeddingsExcept removes cached embeddings whose name is not in keep
// and returns how many were deleted.
func (s *SQLiteStorage) DeleteEmbeddingsExcept(keep []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return 0, nil
	}

	query := "DELETE FROM function_embeddings"
	args := make([]any, 0, len(keep))
	if len(keep) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keep)), ",")
		query += " WHERE name NOT IN (" + placeholders + ")"
		for _, name := range keep {
			args = append(args, name)
		}
	}

	res, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale embeddings: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}
