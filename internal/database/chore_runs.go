package database

import (
	"database/sql"
	"fmt"
	"time"
)

// StartChoreRun records a chore as running. If the run was already
// finished (events can arrive out of order) only started_at is updated.
func (db *DB) StartChoreRun(runID, chore string, startedAt time.Time) error {
	_, err := db.conn.Exec(`
		INSERT INTO chore_runs (run_id, chore, status, started_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET started_at = excluded.started_at
	`, runID, chore, ChoreStatusRunning, startedAt)
	if err != nil {
		return fmt.Errorf("failed to start chore run: %w", err)
	}
	return nil
}

// CompleteChoreRun marks a run completed, or failed when errMsg is not empty
func (db *DB) CompleteChoreRun(runID, chore string, finishedAt time.Time, duration time.Duration, errMsg string) error {
	status := ChoreStatusCompleted
	var errValue interface{}
	if errMsg != "" {
		status = ChoreStatusFailed
		errValue = errMsg
	}

	_, err := db.conn.Exec(`
		INSERT INTO chore_runs (run_id, chore, status, started_at, finished_at, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			status = excluded.status,
			finished_at = excluded.finished_at,
			duration_ms = excluded.duration_ms,
			error = excluded.error
	`, runID, chore, status, finishedAt.Add(-duration), finishedAt, duration.Milliseconds(), errValue)
	if err != nil {
		return fmt.Errorf("failed to complete chore run: %w", err)
	}
	return nil
}

// GetChoreRun returns a single run, or sql.ErrNoRows
func (db *DB) GetChoreRun(runID string) (*ChoreRun, error) {
	row := db.conn.QueryRow(`
		SELECT run_id, chore, status, started_at, finished_at, duration_ms, error
		FROM chore_runs WHERE run_id = ?
	`, runID)
	return scanChoreRun(row)
}

// RecentChoreRuns returns the newest runs first
func (db *DB) RecentChoreRuns(limit int) ([]*ChoreRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT run_id, chore, status, started_at, finished_at, duration_ms, error
		FROM chore_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chore runs: %w", err)
	}
	defer rows.Close()

	var runs []*ChoreRun
	for rows.Next() {
		run, err := scanChoreRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ChoreCounts returns completed and failed totals per chore
func (db *DB) ChoreCounts() (map[string][2]int64, error) {
	rows, err := db.conn.Query(`
		SELECT chore,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END)
		FROM chore_runs
		GROUP BY chore
	`, ChoreStatusCompleted, ChoreStatusFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to count chore runs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string][2]int64)
	for rows.Next() {
		var chore string
		var completed, failed int64
		if err := rows.Scan(&chore, &completed, &failed); err != nil {
			return nil, err
		}
		counts[chore] = [2]int64{completed, failed}
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanChoreRun(row rowScanner) (*ChoreRun, error) {
	var (
		run        ChoreRun
		finishedAt sql.NullTime
		durationMs int64
		errMsg     sql.NullString
	)
	if err := row.Scan(&run.RunID, &run.Chore, &run.Status, &run.StartedAt, &finishedAt, &durationMs, &errMsg); err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	run.Error = errMsg.String
	return &run, nil
}
