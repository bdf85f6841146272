package database

import (
	"fmt"
	"time"
)

// LogError appends an error to error_log. runID may be empty.
func (db *DB) LogError(runID, source, message string, at time.Time) error {
	var run interface{}
	if runID != "" {
		run = runID
	}
	_, err := db.conn.Exec(`
		INSERT INTO error_log (run_id, source, message, occurred_at)
		VALUES (?, ?, ?, ?)
	`, run, source, message, at)
	if err != nil {
		return fmt.Errorf("failed to log error: %w", err)
	}
	return nil
}

// RecentErrors returns the newest errors first
func (db *DB) RecentErrors(limit int) ([]*ErrorEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT id, COALESCE(run_id, ''), source, message, occurred_at
		FROM error_log
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query errors: %w", err)
	}
	defer rows.Close()

	var entries []*ErrorEntry
	for rows.Next() {
		var e ErrorEntry
		if err := rows.Scan(&e.ID, &e.RunID, &e.Source, &e.Message, &e.OccurredAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
