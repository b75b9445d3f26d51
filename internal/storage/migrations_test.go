package storage

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationRunner_FreshDB(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run())

	for _, table := range []string{"runs", "records", "audit_log", "schema_version"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrationRunner_IndexesCreated(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run())

	expectedIndexes := []string{
		"idx_runs_created_at",
		"idx_records_run_ts",
		"idx_records_channel",
		"idx_records_category",
		"idx_audit_log_ts",
		"idx_audit_log_action",
	}
	for _, idx := range expectedIndexes {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx,
		).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
	}
}

func TestMigrationRunner_Idempotent(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)

	require.NoError(t, runner.Run())
	require.NoError(t, runner.Run())

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count))
	assert.Equal(t, 1, count)

	v, err := runner.Version()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestMigrationRunner_RecordsAppliedStep(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)

	_, err := runner.Version()
	assert.Error(t, err, "no version table before the first run")

	require.NoError(t, runner.Run())

	var name, appliedAt string
	err = db.QueryRow("SELECT name, applied_at FROM schema_version WHERE version = 1").Scan(&name, &appliedAt)
	require.NoError(t, err)
	assert.Equal(t, "runs_records_audit", name)
	_, err = parseTimestamp(appliedAt)
	assert.NoError(t, err)
}

func TestMigrationRunner_JournalMode(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run())

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	// In-memory databases report "memory" even after WAL is requested.
	assert.Contains(t, []string{"wal", "memory"}, journalMode)
}

func TestMigrationRunner_WithJournalModeIgnoresUnknown(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db).WithJournalMode("bogus; DROP TABLE runs")
	assert.Equal(t, "WAL", runner.journalMode)

	runner.WithJournalMode(" delete ")
	assert.Equal(t, "DELETE", runner.journalMode)
	require.NoError(t, runner.Run())
}

func TestMigrationRunner_ForeignKeyEnforcement(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run())

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	_, err := db.Exec(`
		INSERT INTO records (run_id, seq, ts, title, channel, category)
		VALUES ('missing', 0, '2024-01-01T00:00:00.000000000Z', 't', 'c', 'Music')
	`)
	assert.Error(t, err, "records must reference an existing run")
}

func TestMigrationRunner_RecordSeqUniquePerRun(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db).Run())

	_, err := db.Exec(`INSERT INTO runs (id) VALUES ('r1')`)
	require.NoError(t, err)

	insert := `INSERT INTO records (run_id, seq, ts, title, channel, category)
		VALUES ('r1', 0, '2024-01-01T00:00:00.000000000Z', 't', 'c', 'Music')`
	_, err = db.Exec(insert)
	require.NoError(t, err)
	_, err = db.Exec(insert)
	assert.Error(t, err)
}
