package storage

import (
	"time"
)

// RecordDispatch records a dispatch event.
func (s *SQLiteStorage) RecordDispatch(record DispatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return nil
	}

	query := `
		INSERT INTO dispatch_history (request_id, function, session_hash, prompt_hash, score, matched, failed, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		record.RequestID,
		record.Function,
		record.SessionHash,
		record.PromptHash,
		record.Score,
		boolToInt(record.Matched),
		boolToInt(record.Failed),
		record.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		s.logger.Warn("failed to record dispatch", "function", record.Function, "error", err)
	}

	return nil
}

// GetDispatchHistory retrieves dispatches of a function since a given time,
// newest first.
func (s *SQLiteStorage) GetDispatchHistory(function string, since time.Time) ([]DispatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return []DispatchRecord{}, nil
	}

	query := `
		SELECT request_id, function, session_hash, prompt_hash, score, matched, failed, timestamp
		FROM dispatch_history
		WHERE function = ? AND timestamp >= ?
		ORDER BY timestamp DESC, id DESC
	`

	rows, err := s.db.Query(query, function, since.UTC().Format(time.RFC3339))
	if err != nil {
		s.logger.Warn("failed to query dispatch history", "error", err)
		return []DispatchRecord{}, nil
	}
	defer rows.Close()

	records := []DispatchRecord{}
	for rows.Next() {
		var r DispatchRecord
		var timestampStr string
		var matched, failed int

		if err := rows.Scan(
			&r.RequestID,
			&r.Function,
			&r.SessionHash,
			&r.PromptHash,
			&r.Score,
			&matched,
			&failed,
			&timestampStr,
		); err != nil {
			s.logger.Warn("failed to scan dispatch row", "error", err)
			continue
		}

		r.Matched = matched == 1
		r.Failed = failed == 1

		r.Timestamp, err = time.Parse(time.RFC3339, timestampStr)
		if err != nil {
			s.logger.Warn("failed to parse timestamp", "error", err)
			continue
		}

		records = append(records, r)
	}

	return records, nil
}

// Cleanup removes old dispatch records based on retention policy.
func (s *SQLiteStorage) Cleanup(retention time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return nil
	}

	cutoff := time.Now().Add(-retention).UTC().Format(time.RFC3339)

	if _, err := s.db.Exec("DELETE FROM dispatch_history WHERE timestamp < ?", cutoff); err != nil {
		s.logger.Warn("failed to cleanup dispatch_history", "error", err)
	}

	// Vacuum to reclaim space
	if _, err := s.db.Exec("VACUUM"); err != nil {
		s.logger.Warn("failed to vacuum database", "error", err)
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
