package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/runnerr0/watchmirror/internal/classify"
	"github.com/runnerr0/watchmirror/internal/config"
	"github.com/runnerr0/watchmirror/internal/export"
	"github.com/runnerr0/watchmirror/internal/history"
	"github.com/runnerr0/watchmirror/internal/logging"
	"github.com/runnerr0/watchmirror/internal/storage"
)

// Execute implements the go-flags Commander interface for ExportCommand.
func (c *ExportCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	if c.Args.File != "" {
		return c.executeWith(cfg, nil)
	}

	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWith(cfg, store)
}

// executeWith exports either a classified file or a stored run (for testing).
func (c *ExportCommand) executeWith(cfg *config.Config, store storage.Store) error {
	ctx := context.Background()

	format := c.Format
	if format == "" {
		format = cfg.Export.Format
	}
	if format != "json" && format != "csv" {
		return fmt.Errorf("unknown export format %q (want json or csv)", format)
	}

	var (
		records []history.Record
		stats   classify.Stats
		err     error
	)
	if c.Args.File != "" {
		records, stats, err = classifyFile(ctx, cfg, c.Args.File, c.oracle, c.NoOracle)
		if err != nil {
			return err
		}
	} else {
		if store == nil {
			return fmt.Errorf("export needs an export file or a stored run (--run)")
		}
		var run *storage.Run
		run, records, err = loadRun(ctx, cfg, store, c.Run)
		if err != nil {
			return err
		}
		stats = runStats(run, records)
	}

	w := c.stdout
	if w == nil {
		w = os.Stdout
	}
	var f *os.File
	if c.Out != "" {
		f, err = os.Create(c.Out)
		if err != nil {
			return fmt.Errorf("create %s: %w", c.Out, err)
		}
		defer f.Close()
		w = f
	}

	if err := writeExport(w, format, records, stats); err != nil {
		return err
	}

	if f != nil {
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", c.Out, err)
		}
		logging.Info().Str("path", c.Out).Str("format", format).Int("records", len(records)).Msg("wrote export")
	}
	return nil
}

func writeExport(w io.Writer, format string, records []history.Record, stats classify.Stats) error {
	switch format {
	case "csv":
		if err := export.WriteCSV(w, records); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	default:
		doc := export.Build(records, stats, time.Now())
		if err := export.WriteJSON(w, doc); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	}
	return nil
}
