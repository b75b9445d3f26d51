package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/runnerr0/watchmirror/internal/config"
	"github.com/runnerr0/watchmirror/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string             `json:"version"`
	DatabasePath      string             `json:"database_path"`
	DatabaseSizeBytes int64              `json:"database_size_bytes"`
	TotalRuns         int64              `json:"total_runs"`
	TotalRecords      int64              `json:"total_records"`
	OldestRecord      string             `json:"oldest_record,omitempty"`
	NewestRecord      string             `json:"newest_record,omitempty"`
	LatestRunID       string             `json:"latest_run_id,omitempty"`
	RetentionDays     int                `json:"retention_days"`
	OracleProvider    string             `json:"oracle_provider"`
	Timezone          string             `json:"timezone"`
	TopChannels       []channelCountJSON `json:"top_channels"`
	TopCategories     []channelCountJSON `json:"top_categories"`
	RecentActivity    []auditJSON        `json:"recent_activity"`
}

type channelCountJSON struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type auditJSON struct {
	Action    string `json:"action"`
	Detail    string `json:"detail,omitempty"`
	RunID     string `json:"run_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(cfg, store, db, os.Stdout)
}

// executeWithStore runs status against a provided store and db (for testing).
func (c *StatusCommand) executeWithStore(cfg *config.Config, store storage.Store, db *sql.DB, w io.Writer) error {
	ctx := context.Background()

	stats, err := store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	activity, err := store.AuditLog(ctx, 5)
	if err != nil {
		return fmt.Errorf("read audit log: %w", err)
	}

	dbPath, err := cfg.DBPath()
	if err != nil {
		return err
	}
	dbSize := getDatabaseSize(db, dbPath)

	if c.globals != nil && c.globals.JSON {
		return c.printStatusJSON(w, cfg, stats, activity, dbPath, dbSize)
	}
	return c.printStatusHuman(w, cfg, stats, activity, dbPath, dbSize)
}

func (c *StatusCommand) printStatusHuman(w io.Writer, cfg *config.Config, stats *storage.Stats, activity []storage.AuditEntry, dbPath string, dbSize int64) error {
	fmt.Fprintln(w, "watchmirror status")
	fmt.Fprintln(w, "==================")
	fmt.Fprintf(w, "Version:       %s\n", c.version)
	fmt.Fprintf(w, "Database:      %s (%s)\n", dbPath, formatBytes(dbSize))
	fmt.Fprintf(w, "Runs:          %s\n", formatNumber(stats.TotalRuns))
	fmt.Fprintf(w, "Records:       %s\n", formatNumber(stats.TotalRecords))

	if stats.TotalRecords > 0 {
		fmt.Fprintf(w, "Oldest:        %s\n", stats.OldestRecord.Local().Format("2006-01-02"))
		fmt.Fprintf(w, "Newest:        %s\n", stats.NewestRecord.Local().Format("2006-01-02"))
	}
	if stats.LatestRun != nil {
		fmt.Fprintf(w, "Latest run:    %s (%s, %s records)\n", stats.LatestRun.ID,
			stats.LatestRun.CreatedAt.Local().Format("2006-01-02 15:04"), formatNumber(stats.LatestRun.Total))
	}

	fmt.Fprintf(w, "Retention:     %d days\n", cfg.Storage.RetentionDays)
	fmt.Fprintf(w, "Oracle:        %s\n", cfg.Oracle.Provider)
	fmt.Fprintf(w, "Timezone:      %s\n", cfg.Analysis.Timezone)

	if len(stats.TopChannels) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Top Channels:")
		for _, ch := range stats.TopChannels {
			fmt.Fprintf(w, "  %-30s %s\n", ch.Channel, formatNumber(ch.Count))
		}
	}

	if len(stats.TopCategories) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Top Categories:")
		for _, cc := range stats.TopCategories {
			fmt.Fprintf(w, "  %-30s %s\n", cc.Category, formatNumber(cc.Count))
		}
	}

	if len(activity) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Recent Activity:")
		for _, e := range activity {
			fmt.Fprintf(w, "  %s  %-7s %s\n", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Action, e.Detail)
		}
	}

	return nil
}

func (c *StatusCommand) printStatusJSON(w io.Writer, cfg *config.Config, stats *storage.Stats, activity []storage.AuditEntry, dbPath string, dbSize int64) error {
	out := statusJSON{
		Version:           c.version,
		DatabasePath:      dbPath,
		DatabaseSizeBytes: dbSize,
		TotalRuns:         stats.TotalRuns,
		TotalRecords:      stats.TotalRecords,
		RetentionDays:     cfg.Storage.RetentionDays,
		OracleProvider:    cfg.Oracle.Provider,
		Timezone:          cfg.Analysis.Timezone,
		TopChannels:       make([]channelCountJSON, len(stats.TopChannels)),
		TopCategories:     make([]channelCountJSON, len(stats.TopCategories)),
		RecentActivity:    make([]auditJSON, len(activity)),
	}

	if stats.TotalRecords > 0 {
		out.OldestRecord = stats.OldestRecord.UTC().Format(time.RFC3339)
		out.NewestRecord = stats.NewestRecord.UTC().Format(time.RFC3339)
	}
	if stats.LatestRun != nil {
		out.LatestRunID = stats.LatestRun.ID
	}

	for i, ch := range stats.TopChannels {
		out.TopChannels[i] = channelCountJSON{Name: ch.Channel, Count: ch.Count}
	}
	for i, cc := range stats.TopCategories {
		out.TopCategories[i] = channelCountJSON{Name: string(cc.Category), Count: cc.Count}
	}
	for i, e := range activity {
		out.RecentActivity[i] = auditJSON{
			Action:    e.Action,
			Detail:    e.Detail,
			RunID:     e.RunID,
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		}
	}

	return writeJSON(w, out)
}

// getDatabaseSize returns the database file size in bytes.
// For on-disk databases, it uses os.Stat. For in-memory databases,
// it queries page_count * page_size.
func getDatabaseSize(db *sql.DB, dbPath string) int64 {
	if info, err := os.Stat(dbPath); err == nil {
		return info.Size()
	}
	if db == nil {
		return 0
	}

	var pageCount, pageSize int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}
