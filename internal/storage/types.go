package storage

import (
	"errors"
	"time"

	"github.com/runnerr0/watchmirror/internal/history"
)

var (
	// ErrRunNotFound is returned when a run ID matches nothing.
	ErrRunNotFound = errors.New("run not found")
	// ErrRecordNotFound is returned when a record ID matches nothing.
	ErrRecordNotFound = errors.New("record not found")
)

// Run is one ingested and classified watch-history export.
type Run struct {
	ID                 string
	CreatedAt          time.Time
	Source             string // path of the ingested export
	Total              int
	AICategorized      int
	KeywordCategorized int
	ContextCategorized int
}

// StoredRecord is a record together with its database identity.
type StoredRecord struct {
	ID    int64
	RunID string
	history.Record
}

// SearchQuery defines filters for searching records.
type SearchQuery struct {
	RunID    string
	Query    string
	Channel  string
	Category history.Category
	Since    time.Time
	Until    time.Time
	Limit    int
	Offset   int
}

// Stats holds aggregate statistics about the database.
type Stats struct {
	TotalRuns     int64
	TotalRecords  int64
	OldestRecord  time.Time
	NewestRecord  time.Time
	LatestRun     *Run
	TopChannels   []ChannelCount
	TopCategories []CategoryCount
}

// ChannelCount pairs a channel with its record count.
type ChannelCount struct {
	Channel string
	Count   int64
}

// CategoryCount pairs a category with its record count.
type CategoryCount struct {
	Category history.Category
	Count    int64
}

// AuditEntry is one line of the audit log.
type AuditEntry struct {
	ID        int64
	Action    string
	Detail    string
	RunID     string
	Timestamp time.Time
}
