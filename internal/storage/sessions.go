package storage

import (
	"fmt"
	"time"
)

// AppendPrompt appends a prompt to a session's history.
func (s *SQLiteStorage) AppendPrompt(sessionID, prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return nil
	}

	_, err := s.db.Exec(`
		INSERT INTO session_prompts (session_id, prompt, created_at)
		VALUES (?, ?, ?)
	`, sessionID, prompt, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to append prompt: %w", err)
	}

	return nil
}

// SessionPrompts returns a session's prompts in arrival order.
func (s *SQLiteStorage) SessionPrompts(sessionID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return []string{}, nil
	}

	rows, err := s.db.Query(`
		SELECT prompt
		FROM session_prompts
		WHERE session_id = ?
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session prompts: %w", err)
	}
	defer rows.Close()

	prompts := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		prompts = append(prompts, p)
	}

	return prompts, rows.Err()
}
