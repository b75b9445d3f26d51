package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// schemaStep is one versioned change to the run store schema.
type schemaStep struct {
	version int
	name    string
	up      func(tx *sql.Tx) error
}

// schemaSteps lists every schema change in version order.
var schemaSteps = []schemaStep{
	{version: 1, name: "runs_records_audit", up: migrateV001},
}

// journalModes are the values SQLite accepts for PRAGMA journal_mode.
var journalModes = map[string]bool{
	"DELETE": true, "TRUNCATE": true, "PERSIST": true,
	"MEMORY": true, "WAL": true, "OFF": true,
}

// MigrationRunner brings a SQLite database up to the current schema.
type MigrationRunner struct {
	db          *sql.DB
	steps       []schemaStep
	journalMode string
}

// NewMigrationRunner returns a runner for db using WAL journaling.
func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	return &MigrationRunner{db: db, steps: schemaSteps, journalMode: "WAL"}
}

// WithJournalMode selects the journal mode. Unknown modes are ignored so a
// bad config value cannot reach the PRAGMA.
func (r *MigrationRunner) WithJournalMode(mode string) *MigrationRunner {
	if m := strings.ToUpper(strings.TrimSpace(mode)); journalModes[m] {
		r.journalMode = m
	}
	return r
}

// Version returns the newest applied schema version, 0 before Run.
func (r *MigrationRunner) Version() (int, error) {
	var v sql.NullInt64
	err := r.db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// Run configures the connection and applies every step newer than the
// recorded version, each in its own transaction.
func (r *MigrationRunner) Run() error {
	pragmas := []string{
		"PRAGMA journal_mode = " + r.journalMode,
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := r.db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	if _, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	current, err := r.Version()
	if err != nil {
		return err
	}

	for _, step := range r.steps {
		if step.version <= current {
			continue
		}
		if err := r.applyStep(step); err != nil {
			return fmt.Errorf("schema v%d %s: %w", step.version, step.name, err)
		}
	}
	return nil
}

func (r *MigrationRunner) applyStep(step schemaStep) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := step.up(tx); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)",
		step.version, step.name, formatTime(time.Now()),
	); err != nil {
		return fmt.Errorf("record version: %w", err)
	}
	return tx.Commit()
}
