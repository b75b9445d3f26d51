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

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
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

	return c.executeWithStore(cfg, store, time.Now(), os.Stdout)
}

// executeWithStore prunes runs in store relative to now (for testing).
func (c *PruneCommand) executeWithStore(cfg *config.Config, store storage.Store, now time.Time, w io.Writer) error {
	ctx := context.Background()

	retention := time.Duration(cfg.Storage.RetentionDays) * 24 * time.Hour
	if c.OlderThan != "" {
		d, err := parseDuration(c.OlderThan)
		if err != nil {
			return fmt.Errorf("invalid --older-than value %q: %w", c.OlderThan, err)
		}
		retention = d
	}
	if retention <= 0 {
		return fmt.Errorf("retention must be positive")
	}
	cutoff := now.Add(-retention)

	if c.DryRun {
		runs, err := store.ListRuns(ctx, 0)
		if err != nil {
			return err
		}
		var doomed []storage.Run
		for _, r := range runs {
			if r.CreatedAt.Before(cutoff) {
				doomed = append(doomed, r)
			}
		}
		if c.globals != nil && c.globals.JSON {
			ids := make([]string, len(doomed))
			for i, r := range doomed {
				ids[i] = r.ID
			}
			return writeJSON(w, map[string]any{"dry_run": true, "would_delete": ids, "cutoff": cutoff.UTC().Format(time.RFC3339)})
		}
		fmt.Fprintf(w, "Would delete %d %s older than %s\n", len(doomed), plural(len(doomed), "run", "runs"), formatDurationHuman(retention))
		for _, r := range doomed {
			fmt.Fprintf(w, "  %s  %s  %s\n", r.ID, r.CreatedAt.Local().Format("2006-01-02"), r.Source)
		}
		return nil
	}

	n, err := store.PruneRuns(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return writeJSON(w, map[string]any{"deleted": n, "cutoff": cutoff.UTC().Format(time.RFC3339)})
	}
	fmt.Fprintf(w, "Deleted %d %s older than %s\n", n, plural(int(n), "run", "runs"), formatDurationHuman(retention))
	return nil
}
