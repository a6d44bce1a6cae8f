// Package journal records normalization runs in a SQLite database.
//
// One row is written per CLI file or API request. The journal stores digests,
// not text, so it stays small no matter what was normalized.
package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	perrors "github.com/FocuswithJustin/punctfix/core/errors"
	"github.com/FocuswithJustin/punctfix/core/sqlite"
)

// Run is one journal row.
type Run struct {
	ID           string        `json:"id"`
	Source       string        `json:"source"`
	Command      string        `json:"command"`
	InputBlake3  string        `json:"input_blake3"`
	OutputBlake3 string        `json:"output_blake3"`
	Lines        int           `json:"lines"`
	ChangedLines int           `json:"changed_lines"`
	Duration     time.Duration `json:"duration_ns"`
	CreatedAt    time.Time     `json:"created_at"`
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
  id            TEXT PRIMARY KEY,
  source        TEXT NOT NULL,
  command       TEXT NOT NULL,
  input_blake3  TEXT NOT NULL,
  output_blake3 TEXT NOT NULL,
  lines         INTEGER NOT NULL,
  changed_lines INTEGER NOT NULL,
  duration_ns   INTEGER NOT NULL,
  created_at    INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source)`,
}

// Journal is a handle on the runs database. It is safe for concurrent use.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal at path. ":memory:" is accepted.
func Open(ctx context.Context, path string) (*Journal, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, perrors.NewIO("open journal", path, err)
	}
	if err := sqlite.Migrate(ctx, db, schema...); err != nil {
		db.Close()
		return nil, perrors.NewIO("migrate journal", path, err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

// Close closes the database.
func (j *Journal) Close() error { return j.db.Close() }

// Record stores r, filling in ID and CreatedAt when empty, and returns the stored row.
func (j *Journal) Record(ctx context.Context, r Run) (Run, error) {
	if r.Source == "" {
		return Run{}, perrors.NewValidation("source", "required")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = j.now()
	}
	_, err := j.db.ExecContext(ctx, `
INSERT INTO runs(id, source, command, input_blake3, output_blake3, lines, changed_lines, duration_ns, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
`, r.ID, r.Source, r.Command, r.InputBlake3, r.OutputBlake3, r.Lines, r.ChangedLines,
		int64(r.Duration), r.CreatedAt.UnixMilli())
	if err != nil {
		return Run{}, perrors.Wrapf(err, "record run %s", r.ID)
	}
	r.CreatedAt = time.UnixMilli(r.CreatedAt.UnixMilli())
	return r, nil
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Source      string
	ChangedOnly bool
	Limit       int
}

// List returns runs newest first. Limit defaults to 50.
func (j *Journal) List(ctx context.Context, f Filter) ([]Run, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT id, source, command, input_blake3, output_blake3, lines, changed_lines, duration_ns, created_at
FROM runs
WHERE (? = '' OR source = ?) AND (? = 0 OR changed_lines > 0)
ORDER BY created_at DESC, rowid DESC
LIMIT ?
`, f.Source, f.Source, boolToInt(f.ChangedOnly), f.Limit)
	if err != nil {
		return nil, perrors.Wrap(err, "list runs")
	}
	defer rows.Close()

	out := make([]Run, 0, f.Limit)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns one run by ID.
func (j *Journal) Get(ctx context.Context, id string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `
SELECT id, source, command, input_blake3, output_blake3, lines, changed_lines, duration_ns, created_at
FROM runs WHERE id = ?
`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return Run{}, perrors.NewNotFound("run", id)
	}
	return r, err
}

// Count returns the number of recorded runs.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM runs`).Scan(&n)
	return n, err
}

// Prune deletes runs older than the cutoff and reports how many were removed.
func (j *Journal) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := j.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, perrors.Wrap(err, "prune runs")
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var r Run
	var dur, created int64
	if err := s.Scan(&r.ID, &r.Source, &r.Command, &r.InputBlake3, &r.OutputBlake3,
		&r.Lines, &r.ChangedLines, &dur, &created); err != nil {
		return Run{}, err
	}
	r.Duration = time.Duration(dur)
	r.CreatedAt = time.UnixMilli(created)
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
