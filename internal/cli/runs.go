package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/runnerr0/watchmirror/internal/config"
	"github.com/runnerr0/watchmirror/internal/storage"
)

// Execute implements the go-flags Commander interface for RunsCommand.
func (c *RunsCommand) Execute(args []string) error {
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

	return c.executeWithStore(cfg, store, os.Stdout)
}

type runJSON struct {
	ID                 string `json:"id"`
	CreatedAt          string `json:"created_at"`
	Source             string `json:"source"`
	Total              int    `json:"total"`
	KeywordCategorized int    `json:"keyword_categorized"`
	ContextCategorized int    `json:"context_categorized"`
	AICategorized      int    `json:"ai_categorized"`
}

// executeWithStore lists or deletes runs in store (for testing).
func (c *RunsCommand) executeWithStore(cfg *config.Config, store storage.Store, w io.Writer) error {
	ctx := context.Background()
	jsonOut := c.globals != nil && c.globals.JSON

	if c.Delete != "" {
		run, err := store.GetRun(ctx, c.Delete)
		if err != nil {
			return err
		}
		if err := store.DeleteRun(ctx, run.ID); err != nil {
			return err
		}
		if jsonOut {
			return writeJSON(w, map[string]any{"deleted": run.ID})
		}
		fmt.Fprintf(w, "Deleted run %s (%s records)\n", run.ID, formatNumber(run.Total))
		return nil
	}

	runs, err := store.ListRuns(ctx, c.Limit)
	if err != nil {
		return err
	}

	if jsonOut {
		out := make([]runJSON, len(runs))
		for i, r := range runs {
			out[i] = runJSON{
				ID:                 r.ID,
				CreatedAt:          r.CreatedAt.UTC().Format(time.RFC3339),
				Source:             r.Source,
				Total:              r.Total,
				KeywordCategorized: r.KeywordCategorized,
				ContextCategorized: r.ContextCategorized,
				AICategorized:      r.AICategorized,
			}
		}
		return writeJSON(w, out)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No stored runs.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  %8s records  %s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), formatNumber(r.Total), r.Source)
	}
	return nil
}
