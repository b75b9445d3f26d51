package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/runnerr0/watchmirror/internal/config"
	"github.com/runnerr0/watchmirror/internal/logging"
	"github.com/runnerr0/watchmirror/internal/storage"
)

// ingestJSON is the JSON output structure for the ingest command.
type ingestJSON struct {
	RunID              string `json:"run_id"`
	Source             string `json:"source"`
	Total              int    `json:"total"`
	KeywordCategorized int    `json:"keyword_categorized"`
	ContextCategorized int    `json:"context_categorized"`
	AICategorized      int    `json:"ai_categorized"`
	Uncategorized      int    `json:"uncategorized"`
	DurationMS         int64  `json:"duration_ms"`
}

// Execute implements the go-flags Commander interface for IngestCommand.
func (c *IngestCommand) Execute(args []string) error {
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

	return c.executeWith(cfg, store, os.Stdout)
}

// executeWith classifies the export and saves it into store (for testing).
func (c *IngestCommand) executeWith(cfg *config.Config, store storage.Store, w io.Writer) error {
	ctx := context.Background()
	start := time.Now()

	records, stats, err := classifyFile(ctx, cfg, c.Args.File, c.oracle, c.NoOracle)
	if err != nil {
		return err
	}

	run := &storage.Run{
		ID:                 logging.NewRunID(),
		Source:             c.Args.File,
		Total:              stats.Total,
		AICategorized:      stats.AICategorized,
		KeywordCategorized: stats.KeywordCategorized,
		ContextCategorized: stats.ContextCategorized,
	}
	if err := store.SaveRun(ctx, run, records); err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	elapsed := time.Since(start)
	log := logging.WithRun("ingest", run.ID)
	log.Info().Int("records", len(records)).Dur("elapsed", elapsed).Msg("stored run")

	if c.globals != nil && c.globals.JSON {
		return writeJSON(w, ingestJSON{
			RunID:              run.ID,
			Source:             run.Source,
			Total:              stats.Total,
			KeywordCategorized: stats.KeywordCategorized,
			ContextCategorized: stats.ContextCategorized,
			AICategorized:      stats.AICategorized,
			Uncategorized:      len(stats.Uncategorized),
			DurationMS:         elapsed.Milliseconds(),
		})
	}

	fmt.Fprintf(w, "Ingested %s %s from %s\n", formatNumber(stats.Total), plural(stats.Total, "record", "records"), run.Source)
	fmt.Fprintf(w, "  Run:           %s\n", run.ID)
	fmt.Fprintf(w, "  Keyword:       %s\n", formatNumber(stats.KeywordCategorized))
	fmt.Fprintf(w, "  Context:       %s\n", formatNumber(stats.ContextCategorized))
	fmt.Fprintf(w, "  Oracle:        %s\n", formatNumber(stats.AICategorized))
	fmt.Fprintf(w, "  Uncategorized: %s\n", formatNumber(len(stats.Uncategorized)))
	return nil
}
