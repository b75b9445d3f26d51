package storage

import "database/sql"

// migrateV001 creates the initial schema. Every statement uses IF NOT
// EXISTS for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id                  TEXT PRIMARY KEY,
			created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			source              TEXT NOT NULL DEFAULT '',
			total               INTEGER NOT NULL DEFAULT 0,
			ai_categorized      INTEGER NOT NULL DEFAULT 0,
			keyword_categorized INTEGER NOT NULL DEFAULT 0,
			context_categorized INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS records (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id   TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq      INTEGER NOT NULL,
			ts       DATETIME NOT NULL,
			title    TEXT NOT NULL,
			channel  TEXT NOT NULL,
			category TEXT NOT NULL,
			url      TEXT NOT NULL DEFAULT '',
			UNIQUE(run_id, seq)
		)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			run_id TEXT,
			ts     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_created_at    ON runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_records_run_ts     ON records(run_id, ts)`,
		`CREATE INDEX IF NOT EXISTS idx_records_channel    ON records(channel)`,
		`CREATE INDEX IF NOT EXISTS idx_records_category   ON records(category)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_ts       ON audit_log(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_action   ON audit_log(action)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
