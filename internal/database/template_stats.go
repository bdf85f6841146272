package database

import (
	"fmt"
	"time"
)

// RecordTemplateLookup bumps the hit or miss counter of a template
func (db *DB) RecordTemplateLookup(template string, found bool, confidence float64, at time.Time) error {
	var hit, miss int
	if found {
		hit = 1
	} else {
		miss = 1
	}

	_, err := db.conn.Exec(`
		INSERT INTO template_stats (template, hits, misses, best_confidence, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(template) DO UPDATE SET
			hits = hits + excluded.hits,
			misses = misses + excluded.misses,
			best_confidence = MAX(best_confidence, excluded.best_confidence),
			last_seen = excluded.last_seen
	`, template, hit, miss, confidence, at)
	if err != nil {
		return fmt.Errorf("failed to record template lookup: %w", err)
	}
	return nil
}

// TemplateStats returns all counters ordered by template name
func (db *DB) TemplateStats() ([]*TemplateStat, error) {
	rows, err := db.conn.Query(`
		SELECT template, hits, misses, best_confidence, last_seen
		FROM template_stats
		ORDER BY template
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query template stats: %w", err)
	}
	defer rows.Close()

	var stats []*TemplateStat
	for rows.Next() {
		var s TemplateStat
		if err := rows.Scan(&s.Template, &s.Hits, &s.Misses, &s.BestConfidence, &s.LastSeen); err != nil {
			return nil, err
		}
		stats = append(stats, &s)
	}
	return stats, rows.Err()
}
