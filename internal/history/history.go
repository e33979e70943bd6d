// Package history persists assignment runs to a local SQLite database so
// past runs can be inspected and compared after the host application has
// long since closed the model.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/fatiguetools/matassign/internal/planner"
)

// Assignment row statuses.
const (
	StatusAssigned = "assigned"
	StatusMissing  = "missing"
)

// schema contains the DDL executed on first open. Using IF NOT EXISTS makes
// it safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    material_dir  TEXT NOT NULL,
    assigned      INTEGER NOT NULL,
    missing       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS assignments (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id     INTEGER NOT NULL REFERENCES runs(id),
    material   TEXT NOT NULL,
    group_id   INTEGER,
    group_name TEXT NOT NULL DEFAULT '',
    status     TEXT NOT NULL
);
`

// Store records assignment runs in a local SQLite database in WAL mode.
type Store struct {
	db *sql.DB
}

// Run is one recorded run.
type Run struct {
	ID          int64
	StartedAt   time.Time
	MaterialDir string
	Assigned    int
	Missing     int
}

// Open opens (or creates) the history database at dbPath, enables WAL mode
// and busy timeout, and creates the schema tables if they do not exist.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	// Limit to one connection. SQLite only supports a single writer; using
	// one connection avoids SQLITE_BUSY contention between pooled
	// connections that each need their own PRAGMA setup.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Record stores one run and its per-material outcomes in a single
// transaction, returning the new run ID.
func (s *Store) Record(ctx context.Context, materialDir string, res *planner.Result) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	r, err := tx.ExecContext(ctx,
		"INSERT INTO runs (material_dir, assigned, missing) VALUES (?, ?, ?)",
		materialDir, len(res.Assigned), len(res.Missing))
	if err != nil {
		return 0, fmt.Errorf("history: insert run: %w", err)
	}
	runID, err := r.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: run id: %w", err)
	}

	const insert = `
		INSERT INTO assignments (run_id, material, group_id, group_name, status)
		VALUES (?, ?, ?, ?, ?)`
	for _, g := range res.Assigned {
		if _, err := tx.ExecContext(ctx, insert, runID, "", g.ID, g.Name, StatusAssigned); err != nil {
			return 0, fmt.Errorf("history: insert assignment: %w", err)
		}
	}
	for _, m := range res.Missing {
		if _, err := tx.ExecContext(ctx, insert, runID, m.File, nil, "", StatusMissing); err != nil {
			return 0, fmt.Errorf("history: insert missing entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("history: commit: %w", err)
	}
	return runID, nil
}

// List returns the most recent runs, newest first, up to limit.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, material_dir, assigned, missing
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &started, &r.MaterialDir, &r.Assigned, &r.Missing); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		if r.StartedAt, err = parseTimestamp(started); err != nil {
			return nil, fmt.Errorf("history: run %d: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate runs: %w", err)
	}
	return runs, nil
}

// timestampFormats lists the formats SQLite drivers may produce for
// CURRENT_TIMESTAMP. modernc.org/sqlite typically returns RFC 3339
// (with "T" separator and "Z" suffix), while canonical SQLite returns
// the space-separated DateTime format.
var timestampFormats = []string{
	time.RFC3339,
	time.DateTime,
}

// parseTimestamp attempts to parse a SQLite timestamp string using known formats.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}

// Groups returns the group names assigned during one run, in insertion
// order.
func (s *Store) Groups(ctx context.Context, runID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT group_name FROM assignments
		WHERE run_id = ? AND status = ? ORDER BY id`, runID, StatusAssigned)
	if err != nil {
		return nil, fmt.Errorf("history: list groups: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("history: scan group: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate groups: %w", err)
	}
	return names, nil
}
