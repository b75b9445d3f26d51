package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/runnerr0/watchmirror/internal/history"
)

// Store defines the persistence operations for classified runs.
type Store interface {
	SaveRun(ctx context.Context, run *Run, records []history.Record) error
	GetRun(ctx context.Context, id string) (*Run, error)
	LatestRun(ctx context.Context) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	LoadRecords(ctx context.Context, runID string, loc *time.Location) ([]history.Record, error)
	GetRecord(ctx context.Context, id int64) (*StoredRecord, error)
	SearchRecords(ctx context.Context, q SearchQuery) ([]StoredRecord, error)
	DeleteRun(ctx context.Context, id string) error
	PruneRuns(ctx context.Context, olderThan time.Time) (int64, error)
	PurgeAll(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	AuditLog(ctx context.Context, limit int) ([]AuditEntry, error)
	Close() error
}

// tsLayout is fixed width so stored timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// Audit actions.
const (
	ActionIngest = "ingest"
	ActionDelete = "delete"
	ActionPrune  = "prune"
	ActionPurge  = "purge"
)

const runColumns = `id, created_at, source, total, ai_categorized, keyword_categorized, context_categorized`

const recordColumns = `id, run_id, seq, ts, title, channel, category, url`

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	insertRecord *sql.Stmt
	getRun       *sql.Stmt
	getRecord    *sql.Stmt
	deleteRun    *sql.Stmt
	insertAudit  *sql.Stmt
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertRecord, err = s.db.Prepare(`
		INSERT INTO records (run_id, seq, ts, title, channel, category, url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}

	s.getRun, err = s.db.Prepare(`SELECT ` + runColumns + ` FROM runs WHERE id = ?`)
	if err != nil {
		return err
	}

	s.getRecord, err = s.db.Prepare(`SELECT ` + recordColumns + ` FROM records WHERE id = ?`)
	if err != nil {
		return err
	}

	s.deleteRun, err = s.db.Prepare(`DELETE FROM runs WHERE id = ?`)
	if err != nil {
		return err
	}

	s.insertAudit, err = s.db.Prepare(`INSERT INTO audit_log (action, detail, run_id, ts) VALUES (?, ?, ?, ?)`)
	return err
}

// formatTime renders t in the stored layout.
func formatTime(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

// parseTimestamp tries the stored layout and several common SQLite formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		tsLayout,
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var created string
	if err := row.Scan(&r.ID, &created, &r.Source, &r.Total,
		&r.AICategorized, &r.KeywordCategorized, &r.ContextCategorized); err != nil {
		return nil, err
	}
	r.CreatedAt, _ = parseTimestamp(created)
	return &r, nil
}

func scanRecord(row rowScanner) (*StoredRecord, error) {
	var r StoredRecord
	var ts, category string
	if err := row.Scan(&r.ID, &r.RunID, &r.SequenceIndex, &ts,
		&r.Title, &r.Channel, &category, &r.SourceURL); err != nil {
		return nil, err
	}
	t, err := parseTimestamp(ts)
	if err != nil {
		return nil, err
	}
	r.Timestamp = t
	r.Category = history.Category(category)
	return &r, nil
}

// SaveRun stores a run and its records in one transaction. A missing ID
// or creation time is filled in.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run, records []history.Record) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if run.Total == 0 {
		run.Total = len(records)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, formatTime(run.CreatedAt), run.Source, run.Total,
		run.AICategorized, run.KeywordCategorized, run.ContextCategorized,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	insert := tx.StmtContext(ctx, s.insertRecord)
	for i, r := range records {
		_, err := insert.ExecContext(ctx,
			run.ID, i, formatTime(r.Timestamp), r.Title, r.Channel, string(r.Category), r.SourceURL,
		)
		if err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	detail := fmt.Sprintf("%d records from %s", len(records), run.Source)
	if _, err := tx.StmtContext(ctx, s.insertAudit).ExecContext(ctx,
		ActionIngest, detail, run.ID, formatTime(time.Now())); err != nil {
		return fmt.Errorf("audit: %w", err)
	}

	return tx.Commit()
}

// GetRun retrieves a run by full ID or by a unique ID prefix.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	run, err := scanRun(s.getRun.QueryRowContext(ctx, id))
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrRunNotFound)
	}

	runs, err := s.queryRuns(ctx,
		`SELECT `+runColumns+` FROM runs WHERE substr(id, 1, ?) = ? LIMIT 2`, len(id), id)
	if err != nil {
		return nil, err
	}
	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return &runs[0], nil
	default:
		return nil, fmt.Errorf("run prefix %q is ambiguous", id)
	}
}

// LatestRun returns the most recently created run.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrRunNotFound
	}
	return &runs[0], nil
}

// ListRuns returns runs newest first. A limit of zero or less returns all.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryRuns(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
}

func (s *SQLiteStore) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// LoadRecords returns a run's records in sequence order, with timestamps
// converted to loc.
func (s *SQLiteStore) LoadRecords(ctx context.Context, runID string, loc *time.Location) ([]history.Record, error) {
	if loc == nil {
		loc = time.UTC
	}
	stored, err := s.queryRecords(ctx,
		`SELECT `+recordColumns+` FROM records WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}

	records := make([]history.Record, len(stored))
	for i, r := range stored {
		records[i] = r.Record
		records[i].Timestamp = r.Timestamp.In(loc)
	}
	return records, nil
}

// GetRecord retrieves a single record by its database ID.
func (s *SQLiteStore) GetRecord(ctx context.Context, id int64) (*StoredRecord, error) {
	r, err := scanRecord(s.getRecord.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrRecordNotFound, id)
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	return r, nil
}

// likePattern escapes LIKE wildcards in a user query.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

// SearchRecords queries records with optional filters, newest first. Each
// word of Query must appear in the title or channel.
func (s *SQLiteStore) SearchRecords(ctx context.Context, q SearchQuery) ([]StoredRecord, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}

	var clauses []string
	var args []any

	if q.RunID != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, q.RunID)
	}
	for _, w := range strings.Fields(q.Query) {
		clauses = append(clauses, `(title LIKE ? ESCAPE '\' OR channel LIKE ? ESCAPE '\')`)
		p := likePattern(w)
		args = append(args, p, p)
	}
	if q.Channel != "" {
		clauses = append(clauses, "channel = ? COLLATE NOCASE")
		args = append(args, q.Channel)
	}
	if q.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, string(q.Category))
	}
	if !q.Since.IsZero() {
		clauses = append(clauses, "ts >= ?")
		args = append(args, formatTime(q.Since))
	}
	if !q.Until.IsZero() {
		clauses = append(clauses, "ts <= ?")
		args = append(args, formatTime(q.Until))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	query := `SELECT ` + recordColumns + ` FROM records` + where + ` ORDER BY ts DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, q.Limit, q.Offset)

	return s.queryRecords(ctx, query, args...)
}

func (s *SQLiteStore) queryRecords(ctx context.Context, query string, args ...any) ([]StoredRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []StoredRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// DeleteRun removes a run. Its records are cascade-deleted by the schema.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	res, err := s.deleteRun.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return s.audit(ctx, ActionDelete, "", id)
}

// PruneRuns deletes runs created before olderThan and reports how many
// were removed.
func (s *SQLiteStore) PruneRuns(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE created_at < ?", formatTime(olderThan))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		detail := fmt.Sprintf("%d runs before %s", n, olderThan.UTC().Format(time.RFC3339))
		if err := s.audit(ctx, ActionPrune, detail, ""); err != nil {
			return n, err
		}
	}
	return n, nil
}

// PurgeAll deletes every run and record. The audit log keeps a purge entry.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	stmts := []string{
		"DELETE FROM records",
		"DELETE FROM runs",
		"DELETE FROM audit_log",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	return s.audit(ctx, ActionPurge, "all data removed", "")
}

func (s *SQLiteStore) audit(ctx context.Context, action, detail, runID string) error {
	var rid any
	if runID != "" {
		rid = runID
	}
	if _, err := s.insertAudit.ExecContext(ctx, action, detail, rid, formatTime(time.Now())); err != nil {
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return nil
}

// AuditLog returns the most recent audit entries, newest first.
func (s *SQLiteStore) AuditLog(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, detail, run_id, ts FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	entries := []AuditEntry{}
	for rows.Next() {
		var e AuditEntry
		var runID sql.NullString
		var ts string
		if err := rows.Scan(&e.ID, &e.Action, &e.Detail, &runID, &ts); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.RunID = runID.String
		e.Timestamp, _ = parseTimestamp(ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetStats returns aggregate statistics about the database.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&stats.TotalRuns); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&stats.TotalRecords); err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	if stats.TotalRecords > 0 {
		var oldest, newest string
		err := s.db.QueryRowContext(ctx, "SELECT MIN(ts), MAX(ts) FROM records").Scan(&oldest, &newest)
		if err != nil {
			return nil, fmt.Errorf("record time range: %w", err)
		}
		stats.OldestRecord, _ = parseTimestamp(oldest)
		stats.NewestRecord, _ = parseTimestamp(newest)
	}

	if stats.TotalRuns > 0 {
		latest, err := s.LatestRun(ctx)
		if err != nil {
			return nil, err
		}
		stats.LatestRun = latest
	}

	channels, err := s.db.QueryContext(ctx,
		"SELECT channel, COUNT(*) AS cnt FROM records GROUP BY channel ORDER BY cnt DESC, channel LIMIT 10")
	if err != nil {
		return nil, fmt.Errorf("top channels: %w", err)
	}
	defer channels.Close()
	for channels.Next() {
		var cc ChannelCount
		if err := channels.Scan(&cc.Channel, &cc.Count); err != nil {
			return nil, err
		}
		stats.TopChannels = append(stats.TopChannels, cc)
	}
	if err := channels.Err(); err != nil {
		return nil, err
	}

	categories, err := s.db.QueryContext(ctx,
		"SELECT category, COUNT(*) AS cnt FROM records GROUP BY category ORDER BY cnt DESC, category LIMIT 10")
	if err != nil {
		return nil, fmt.Errorf("top categories: %w", err)
	}
	defer categories.Close()
	for categories.Next() {
		var cc CategoryCount
		var name string
		if err := categories.Scan(&name, &cc.Count); err != nil {
			return nil, err
		}
		cc.Category = history.Category(name)
		stats.TopCategories = append(stats.TopCategories, cc)
	}

	return stats, categories.Err()
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{s.insertRecord, s.getRun, s.getRecord, s.deleteRun, s.insertAudit}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
