package journal

import "fmt"

// migrate runs database migrations.
func (j *Journal) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at  DATETIME NOT NULL,
			dry_run     BOOLEAN NOT NULL DEFAULT 0,
			tasks_total INTEGER NOT NULL,
			scheduled   INTEGER NOT NULL,
			skipped     INTEGER NOT NULL,
			free_slots  INTEGER NOT NULL,
			error       TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS run_entries (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id  INTEGER NOT NULL REFERENCES runs(id),
			title   TEXT NOT NULL,
			starts_at DATETIME,
			ends_at DATETIME,
			skipped BOOLEAN NOT NULL DEFAULT 0,
			reason  TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_run_entries_run ON run_entries(run_id);
	`

	if _, err := j.db.Exec(query); err != nil {
		return fmt.Errorf("creating journal tables: %w", err)
	}
	return nil
}
