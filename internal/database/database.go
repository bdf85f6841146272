package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Connection parameters understood by go-sqlite3. WAL keeps GUI reads from
// blocking the recorder's writes.
const dsnParams = "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"

// DB is the run history store
type DB struct {
	conn *sql.DB
	path string
}

// Open opens or creates the database file, creating its directory
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", dbPath, err)
	}

	// the recorder and the GUI share one connection
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the connection
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// ExecTx runs fn inside a transaction, rolling back when it fails
func (db *DB) ExecTx(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// GetVersion returns the newest applied migration, 0 for a fresh file
func (db *DB) GetVersion() (int, error) {
	var version int
	err := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// Backup writes a consistent copy of the database to backupPath with
// VACUUM INTO. The target must not exist.
func (db *DB) Backup(backupPath string) error {
	if _, err := os.Stat(backupPath); err == nil {
		return fmt.Errorf("backup target %s already exists", backupPath)
	}
	if err := os.MkdirAll(filepath.Dir(backupPath), 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := db.conn.Exec("VACUUM INTO ?", backupPath); err != nil {
		return fmt.Errorf("failed to back up database: %w", err)
	}
	return nil
}

// Prune deletes chore runs started and errors logged before cutoff. Template
// statistics are cumulative and kept. It returns the number of rows removed.
func (db *DB) Prune(cutoff time.Time) (int64, error) {
	var removed int64
	err := db.ExecTx(func(tx *sql.Tx) error {
		n, err := pruneTable(tx, "chore_runs", "run_id", "started_at", cutoff)
		if err != nil {
			return err
		}
		removed += n

		n, err = pruneTable(tx, "error_log", "id", "occurred_at", cutoff)
		if err != nil {
			return err
		}
		removed += n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return removed, nil
}

// pruneTable compares timestamps in Go: rows may carry different zone
// offsets, so their text form does not sort chronologically.
func pruneTable(tx *sql.Tx, table, key, column string, cutoff time.Time) (int64, error) {
	rows, err := tx.Query(fmt.Sprintf("SELECT %s, %s FROM %s", key, column, table))
	if err != nil {
		return 0, err
	}
	var expired []interface{}
	for rows.Next() {
		var id interface{}
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			rows.Close()
			return 0, err
		}
		if at.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}

	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, key)
	for _, id := range expired {
		if _, err := tx.Exec(stmt, id); err != nil {
			return 0, err
		}
	}
	return int64(len(expired)), nil
}

// GetStats returns the row count of every history table
func (db *DB) GetStats() (map[string]int64, error) {
	stats := make(map[string]int64, 3)
	for _, table := range []string{"chore_runs", "template_stats", "error_log"} {
		var count int64
		if err := db.conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		stats[table] = count
	}
	return stats, nil
}
