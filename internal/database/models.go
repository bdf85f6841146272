package database

import "time"

// Chore run statuses
const (
	ChoreStatusRunning   = "running"
	ChoreStatusCompleted = "completed"
	ChoreStatusFailed    = "failed"
)

// ChoreRun is one invocation of a chore
type ChoreRun struct {
	RunID      string
	Chore      string
	Status     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Duration   time.Duration
	Error      string
}

// TemplateStat aggregates lookups of a single template
type TemplateStat struct {
	Template       string
	Hits           int64
	Misses         int64
	BestConfidence float64
	LastSeen       time.Time
}

// HitRate returns hits / lookups, 0 when never looked up
func (s TemplateStat) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// ErrorEntry is a row of error_log
type ErrorEntry struct {
	ID         int64
	RunID      string
	Source     string
	Message    string
	OccurredAt time.Time
}
