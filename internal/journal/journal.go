// Package journal records scheduling runs in SQLite for later inspection.
// The journal is purely diagnostic: no scheduling decision ever reads it,
// the calendar stays the single source of truth.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Run is one recorded scheduling run.
type Run struct {
	ID         int64
	StartedAt  time.Time
	DryRun     bool
	TasksTotal int
	Scheduled  int
	Skipped    int
	FreeSlots  int
	Error      string
}

// Entry is one task outcome within a run.
type Entry struct {
	ID      int64
	RunID   int64
	Title   string
	Start   *time.Time
	End     *time.Time
	Skipped bool
	Reason  string
}

// Journal is a SQLite-backed run log.
type Journal struct {
	db *sql.DB
}

// Open opens (and creates if needed) the journal database and runs
// migrations.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to journal: %w", err)
	}

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return j, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordRun inserts a run and its entries in one transaction. Returns the
// run ID.
func (j *Journal) RecordRun(ctx context.Context, run Run, entries []Entry) (int64, error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs (started_at, dry_run, tasks_total, scheduled, skipped, free_slots, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.DryRun,
		run.TasksTotal,
		run.Scheduled,
		run.Skipped,
		run.FreeSlots,
		run.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting run id: %w", err)
	}

	for _, e := range entries {
		var start, end any
		if e.Start != nil {
			start = e.Start.UTC().Format(time.RFC3339)
		}
		if e.End != nil {
			end = e.End.UTC().Format(time.RFC3339)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_entries (run_id, title, starts_at, ends_at, skipped, reason)
			VALUES (?, ?, ?, ?, ?, ?)
		`, runID, e.Title, start, end, e.Skipped, e.Reason); err != nil {
			return 0, fmt.Errorf("inserting run entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// RecentRuns lists the latest runs, newest first.
func (j *Journal) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, started_at, dry_run, tasks_total, scheduled, skipped, free_slots, error
		FROM runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			startedAt string
		)
		if err := rows.Scan(&run.ID, &startedAt, &run.DryRun, &run.TasksTotal,
			&run.Scheduled, &run.Skipped, &run.FreeSlots, &run.Error); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing run timestamp: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunEntries lists the task outcomes recorded for one run.
func (j *Journal) RunEntries(ctx context.Context, runID int64) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, run_id, title, starts_at, ends_at, skipped, reason
		FROM run_entries
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			start, end sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Title, &start, &end, &e.Skipped, &e.Reason); err != nil {
			return nil, fmt.Errorf("scanning run entry: %w", err)
		}
		if start.Valid {
			t, err := time.Parse(time.RFC3339, start.String)
			if err != nil {
				return nil, fmt.Errorf("parsing entry start: %w", err)
			}
			e.Start = &t
		}
		if end.Valid {
			t, err := time.Parse(time.RFC3339, end.String)
			if err != nil {
				return nil, fmt.Errorf("parsing entry end: %w", err)
			}
			e.End = &t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
