// Package journal keeps a history of finish operations in SQLite.
//
// Every document written by a finish becomes one row, grouped by the
// operation ID the lifecycle engine assigns. The journal is disposable:
// stitch files stay the source of truth, and journal failures never fail a
// finish.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HendryAvila/stitch/internal/lifecycle"
	"github.com/HendryAvila/stitch/internal/stitch"

	_ "modernc.org/sqlite"
)

// FileName is the database file inside the .stitch directory.
const FileName = "journal.db"

const defaultLimit = 20

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Entry is one document's status change within a finish.
type Entry struct {
	ID           int64         `json:"id"`
	OperationID  string        `json:"operation_id"`
	TargetID     string        `json:"target_id"`
	StitchID     string        `json:"stitch_id"`
	Title        string        `json:"title"`
	FromStatus   stitch.Status `json:"from_status"`
	ToStatus     stitch.Status `json:"to_status"`
	AutoDetected bool          `json:"auto_detected"`
	Forced       bool          `json:"forced"`
	SupersededBy string        `json:"superseded_by,omitempty"`
	FinishedAt   string        `json:"finished_at"`
}

// Journal is the SQLite-backed finish history.
type Journal struct {
	db   *sql.DB
	path string
}

// DefaultPath returns the journal location for a project root.
func DefaultPath(root string) string {
	return filepath.Join(stitch.StatePath(root), FileName)
}

// Open opens (creating if needed) the journal database at path and runs
// migrations.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal: create dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}

	j := &Journal{db: db, path: path}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migration: %w", err)
	}
	return j, nil
}

// Path returns the database file path.
func (j *Journal) Path() string { return j.path }

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS finishes (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			operation_id  TEXT    NOT NULL,
			target_id     TEXT    NOT NULL,
			stitch_id     TEXT    NOT NULL,
			title         TEXT    NOT NULL,
			from_status   TEXT    NOT NULL,
			to_status     TEXT    NOT NULL,
			auto_detected INTEGER NOT NULL DEFAULT 0,
			forced        INTEGER NOT NULL DEFAULT 0,
			superseded_by TEXT,
			finished_at   TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_finishes_stitch    ON finishes(stitch_id, id);
		CREATE INDEX IF NOT EXISTS idx_finishes_operation ON finishes(operation_id);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record stores every document of a finish result in one transaction.
func (j *Journal) Record(ctx context.Context, res *lifecycle.Result) error {
	if res == nil || len(res.Finished) == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, f := range res.Finished {
		supersededBy := ""
		if f.ID == res.TargetID {
			supersededBy = res.SupersededBy
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO finishes
			   (operation_id, target_id, stitch_id, title, from_status, to_status,
			    auto_detected, forced, superseded_by, finished_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.OperationID, res.TargetID, f.ID, f.Title, string(f.PreviousStatus), string(f.NewStatus),
			res.AutoDetected, res.Forced, nullableString(supersededBy), res.FinishedAt,
		); err != nil {
			return fmt.Errorf("journal: insert %s: %w", f.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: commit: %w", err)
	}
	return nil
}

// OnFinish implements lifecycle.FinishObserver.
func (j *Journal) OnFinish(ctx context.Context, res *lifecycle.Result) error {
	return j.Record(ctx, res)
}

// History returns the entries for one stitch, newest first.
func (j *Journal) History(ctx context.Context, stitchID string, limit int) ([]Entry, error) {
	return j.query(ctx,
		`SELECT `+entryColumns+` FROM finishes WHERE stitch_id = ? ORDER BY id DESC LIMIT ?`,
		stitchID, normalizeLimit(limit))
}

// Recent returns the latest entries across all stitches, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return j.query(ctx,
		`SELECT `+entryColumns+` FROM finishes ORDER BY id DESC LIMIT ?`,
		normalizeLimit(limit))
}

// Operation returns every entry written by one finish, in write order.
func (j *Journal) Operation(ctx context.Context, operationID string) ([]Entry, error) {
	return j.query(ctx,
		`SELECT `+entryColumns+` FROM finishes WHERE operation_id = ? ORDER BY id`,
		operationID)
}

const entryColumns = `id, operation_id, target_id, stitch_id, title, from_status, to_status,
	auto_detected, forced, ifnull(superseded_by, ''), finished_at`

func (j *Journal) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var from, to string
		if err := rows.Scan(
			&e.ID, &e.OperationID, &e.TargetID, &e.StitchID, &e.Title, &from, &to,
			&e.AutoDetected, &e.Forced, &e.SupersededBy, &e.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.FromStatus = stitch.Status(from)
		e.ToStatus = stitch.Status(to)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
