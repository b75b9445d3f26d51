package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/runnerr0/watchmirror/internal/classify"
	"github.com/runnerr0/watchmirror/internal/config"
	"github.com/runnerr0/watchmirror/internal/history"
	"github.com/runnerr0/watchmirror/internal/logging"
	"github.com/runnerr0/watchmirror/internal/oracle"
	"github.com/runnerr0/watchmirror/internal/storage"
)

// latestRun selects the newest stored run wherever a run reference is accepted.
const latestRun = "latest"

// loadConfig reads the file named by --config, or the default path (created
// with defaults on first use), validates it and configures logging.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if globals != nil && globals.Config != "" {
		cfg, err = config.Load(globals.Config)
	} else {
		cfg, err = config.LoadOrCreate()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	lc := logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if globals != nil && globals.Verbose {
		lc.Level = "debug"
	}
	logging.Init(lc)

	return cfg, nil
}

// openStore opens the configured database, runs migrations, and returns a
// ready-to-use store and the underlying *sql.DB.
func openStore(cfg *config.Config) (*storage.SQLiteStore, *sql.DB, error) {
	dbPath, err := cfg.DBPath()
	if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	runner := storage.NewMigrationRunner(db).WithJournalMode(cfg.Storage.SQLiteJournalMode)
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create store: %w", err)
	}

	return store, db, nil
}

// buildPipeline assembles the classification pipeline from config. An
// injected oracle wins over the configured provider; noOracle disables both.
func buildPipeline(cfg *config.Config, o classify.Oracle, noOracle bool) (*classify.Pipeline, error) {
	tax := history.DefaultTaxonomy()

	if noOracle {
		o = nil
	} else if o == nil {
		var err error
		o, err = oracle.New(cfg.Oracle.Provider, oracle.Options{
			OllamaURL:    cfg.Oracle.OllamaURL,
			OllamaModel:  cfg.Oracle.OllamaModel,
			GeminiKeyEnv: cfg.Oracle.GeminiKeyEnv,
			GeminiModel:  cfg.Oracle.GeminiModel,
		})
		switch {
		case errors.Is(err, oracle.ErrMissingCredential):
			logging.Warn().Err(err).Str("provider", cfg.Oracle.Provider).Str("env", cfg.Oracle.GeminiKeyEnv).
				Msg("oracle disabled, keeping keyword labels")
			o = nil
		case err != nil:
			return nil, fmt.Errorf("configure oracle: %w", err)
		}
	}

	return classify.NewPipeline(classify.PipelineConfig{
		Rules: classify.Rules{
			Patterns:  classify.MergePatterns(classify.DefaultPatterns(), cfg.Classifier.ExtraPatterns, tax),
			Threshold: cfg.Classifier.Threshold,
		},
		Taxonomy: tax,
		Oracle:   o,
		OracleConfig: classify.OracleConfig{
			BatchSize:        cfg.Oracle.BatchSize,
			Pacing:           cfg.Oracle.Pacing,
			BatchTimeout:     cfg.Oracle.BatchTimeout,
			FailureThreshold: cfg.Oracle.FailureThreshold,
		},
		ConsensusRatio: cfg.Classifier.ConsensusRatio,
		SmoothingGap:   cfg.Classifier.SmoothingGap,
		Logger:         logging.With("pipeline"),
	}), nil
}

// classifyFile normalizes an export, applies the channel denylist and runs
// the pipeline over what is left.
func classifyFile(ctx context.Context, cfg *config.Config, path string, o classify.Oracle, noOracle bool) ([]history.Record, classify.Stats, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, classify.Stats{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, classify.Stats{}, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	records, err := history.NewNormalizer(loc).Decode(f)
	if err != nil {
		return nil, classify.Stats{}, fmt.Errorf("read %s: %w", path, err)
	}

	if cfg.Ingest.HasExclusions() {
		filter, err := cfg.Ingest.ChannelFilter()
		if err != nil {
			return nil, classify.Stats{}, err
		}
		var dropped int
		records, dropped = filter.Apply(records)
		logging.Debug().Int("dropped", dropped).Msg("applied channel denylist")
		if len(records) == 0 {
			return nil, classify.Stats{}, history.ErrNoValidRecords
		}
	}

	p, err := buildPipeline(cfg, o, noOracle)
	if err != nil {
		return nil, classify.Stats{}, err
	}
	return records, p.Run(ctx, records), nil
}

// resolveRun looks up a run by ID or prefix; "" and "latest" mean the newest.
func resolveRun(ctx context.Context, store storage.Store, ref string) (*storage.Run, error) {
	if ref == "" || ref == latestRun {
		run, err := store.LatestRun(ctx)
		if errors.Is(err, storage.ErrRunNotFound) {
			return nil, fmt.Errorf("no stored runs, ingest an export first: %w", err)
		}
		return run, err
	}
	return store.GetRun(ctx, ref)
}

// loadRun resolves a run and loads its records in the analysis time zone.
func loadRun(ctx context.Context, cfg *config.Config, store storage.Store, ref string) (*storage.Run, []history.Record, error) {
	run, err := resolveRun(ctx, store, ref)
	if err != nil {
		return nil, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	records, err := store.LoadRecords(ctx, run.ID, loc)
	if err != nil {
		return nil, nil, fmt.Errorf("load run %s: %w", run.ID, err)
	}
	return run, records, nil
}

// runStats rebuilds pipeline statistics for a stored run.
func runStats(run *storage.Run, records []history.Record) classify.Stats {
	stats := classify.Stats{
		Total:              run.Total,
		AICategorized:      run.AICategorized,
		KeywordCategorized: run.KeywordCategorized,
		ContextCategorized: run.ContextCategorized,
		Uncategorized:      []string{},
	}
	for _, r := range records {
		if r.Category.IsFallback() {
			stats.Uncategorized = append(stats.Uncategorized, r.Title)
		}
	}
	return stats
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an integer with comma separators.
func formatNumber[T ~int | ~int64](n T) string {
	s := strconv.FormatInt(int64(n), 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// plural picks the singular or plural form of a noun.
func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
