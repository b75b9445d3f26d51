package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/runnerr0/watchmirror/internal/analytics"
	"github.com/runnerr0/watchmirror/internal/config"
	"github.com/runnerr0/watchmirror/internal/history"
	"github.com/runnerr0/watchmirror/internal/storage"
)

// Execute implements the go-flags Commander interface for CategoriesCommand.
func (c *CategoriesCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	if c.Run == "" {
		return c.executeWithStore(cfg, nil, os.Stdout)
	}

	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(cfg, store, os.Stdout)
}

type categoryJSON struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// executeWithStore prints the taxonomy, or statistics when a run is selected.
func (c *CategoriesCommand) executeWithStore(cfg *config.Config, store storage.Store, w io.Writer) error {
	tax := history.DefaultTaxonomy()
	jsonOut := c.globals != nil && c.globals.JSON

	if c.Run == "" || store == nil {
		cats := tax.Categories()
		if jsonOut {
			out := make([]categoryJSON, len(cats))
			for i, cat := range cats {
				out[i] = categoryJSON{Name: string(cat), Color: tax.Color(cat)}
			}
			return writeJSON(w, out)
		}
		for _, cat := range cats {
			fmt.Fprintf(w, "%-14s %s\n", cat, tax.Color(cat))
		}
		return nil
	}

	_, records, err := loadRun(context.Background(), cfg, store, c.Run)
	if err != nil {
		return err
	}
	stats := analytics.CategoryStatistics(records)

	if jsonOut {
		return writeJSON(w, stats)
	}
	for _, s := range stats {
		fmt.Fprintf(w, "%-14s %8s %6.1f%%  %4d channels  %s to %s\n",
			s.Category, formatNumber(s.Count), s.Percentage, s.UniqueChannels,
			s.FirstWatched.Format("2006-01-02"), s.LastWatched.Format("2006-01-02"))
		for _, ch := range s.TopChannels {
			fmt.Fprintf(w, "    %-30s %s\n", ch.Channel, formatNumber(ch.Count))
		}
	}
	return nil
}
