// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-synth/pkg/types"
)

const (
	defaultDBPath = "output/history.db"

	// timestampLayout has a fixed width so text order matches time order.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// SQLiteLog stores run records in a local SQLite database.
type SQLiteLog struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and its schema.
func OpenSQLite(path string) (*SQLiteLog, error) {
	if path == "" {
		path = defaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteLog{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLiteLog) Close() error {
	return s.db.Close()
}

func (s *SQLiteLog) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			title TEXT NOT NULL,
			solution TEXT NOT NULL,
			valid_count INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Append inserts one record. Existing rows are never modified.
func (s *SQLiteLog) Append(ctx context.Context, rec types.RunRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, timestamp, title, solution, valid_count) VALUES (?, ?, ?, ?, ?)`,
		rec.RunID, rec.Timestamp.UTC().Format(timestampLayout), rec.Title, rec.Solution, rec.ValidCount,
	)
	if err != nil {
		return fmt.Errorf("appending run %s: %w", rec.RunID, err)
	}
	return nil
}

// LoadAll returns every record, most recent first. Records with the same
// timestamp are listed in reverse insertion order.
func (s *SQLiteLog) LoadAll(ctx context.Context) ([]types.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, timestamp, title, solution, valid_count FROM runs ORDER BY timestamp DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []types.RunRecord
	for rows.Next() {
		var rec types.RunRecord
		var ts string
		if err := rows.Scan(&rec.RunID, &ts, &rec.Title, &rec.Solution, &rec.ValidCount); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		rec.Timestamp, err = time.Parse(timestampLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp %q: %w", ts, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
