// Package history records task dispatches in a local SQLite database so
// operators can review what was sent where, and with what outcome, after
// the fact.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS dispatches (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	dispatch_id TEXT NOT NULL,
	worker      TEXT NOT NULL,
	mode        TEXT NOT NULL,
	task        TEXT NOT NULL,
	success     INTEGER NOT NULL,
	result      TEXT NOT NULL,
	elapsed     REAL NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dispatches_worker ON dispatches(worker);
CREATE INDEX IF NOT EXISTS idx_dispatches_created ON dispatches(created_at);
`

// Dispatch is one recorded task execution.
type Dispatch struct {
	ID         int64
	DispatchID string
	Worker     string
	Mode       string
	Task       string
	Success    bool
	Result     string
	Elapsed    float64
	CreatedAt  time.Time
}

// QueryOpts filters Recent results.
type QueryOpts struct {
	// Worker filters to a single worker name.
	Worker string

	// After keeps only dispatches created at or after this time.
	After *time.Time

	// Limit restricts the number of results (0 = no limit).
	Limit int
}

// Log is an append/query handle on the dispatch database.
type Log struct {
	db *sql.DB
}

// Open opens (creating if needed) the dispatch database at path and applies
// the schema. WAL mode and a 5-second busy timeout keep concurrent CLI and
// dashboard processes from tripping over each other.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema on %s: %w", path, err)
	}

	return &Log{db: db}, nil
}

// Close releases the database connection. Safe to call multiple times.
func (l *Log) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Append records one dispatch and returns its generated dispatch ID.
func (l *Log) Append(ctx context.Context, d Dispatch) (string, error) {
	id := uuid.NewString()
	created := d.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO dispatches (dispatch_id, worker, mode, task, success, result, elapsed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, d.Worker, d.Mode, d.Task, d.Success, d.Result, d.Elapsed,
		created.Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("insert dispatch: %w", err)
	}
	return id, nil
}

// Recent returns dispatches matching opts, newest first.
func (l *Log) Recent(ctx context.Context, opts QueryOpts) ([]Dispatch, error) {
	query := `SELECT id, dispatch_id, worker, mode, task, success, result, elapsed, created_at
		FROM dispatches`
	var conditions []string
	var args []any

	if opts.Worker != "" {
		conditions = append(conditions, "worker = ?")
		args = append(args, opts.Worker)
	}
	if opts.After != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, opts.After.UTC().Format(time.RFC3339))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id DESC"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dispatches: %w", err)
	}
	defer rows.Close()

	var out []Dispatch
	for rows.Next() {
		var d Dispatch
		var createdAt string
		if err := rows.Scan(&d.ID, &d.DispatchID, &d.Worker, &d.Mode, &d.Task,
			&d.Success, &d.Result, &d.Elapsed, &createdAt); err != nil {
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		if d.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispatches: %w", err)
	}
	return out, nil
}

// DefaultPath returns the default location of the dispatch database.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".hive", "history.db")
}
