package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/runnerr0/watchmirror/internal/config"
	"github.com/runnerr0/watchmirror/internal/storage"
)

// Execute implements the go-flags Commander interface for OpenCommand.
func (c *OpenCommand) Execute(args []string) error {
	if c.ID <= 0 {
		return fmt.Errorf("--id is required for open command")
	}

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

type openJSON struct {
	ID        int64  `json:"id"`
	RunID     string `json:"run_id"`
	Sequence  int    `json:"sequence"`
	Title     string `json:"title"`
	Channel   string `json:"channel"`
	Category  string `json:"category"`
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
}

// executeWithStore prints one record from store (for testing).
func (c *OpenCommand) executeWithStore(cfg *config.Config, store storage.Store, w io.Writer) error {
	rec, err := store.GetRecord(context.Background(), c.ID)
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return fmt.Errorf("record not found: %d", c.ID)
		}
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return writeJSON(w, openJSON{
			ID:        rec.ID,
			RunID:     rec.RunID,
			Sequence:  rec.SequenceIndex,
			Title:     rec.Title,
			Channel:   rec.Channel,
			Category:  string(rec.Category),
			URL:       rec.SourceURL,
			Timestamp: rec.Timestamp.UTC().Format(time.RFC3339),
		})
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	switch c.Format {
	case "url":
		fmt.Fprintln(w, rec.SourceURL)
	case "title":
		fmt.Fprintln(w, rec.Title)
	case "md", "":
		fmt.Fprintf(w, "# %s\n\n", rec.Title)
		fmt.Fprintf(w, "- **Channel:** %s\n", rec.Channel)
		fmt.Fprintf(w, "- **Category:** %s\n", rec.Category)
		fmt.Fprintf(w, "- **Watched:** %s\n", rec.Timestamp.In(loc).Format("Monday, 2006-01-02 15:04"))
		if rec.SourceURL != "" {
			fmt.Fprintf(w, "- **URL:** %s\n", rec.SourceURL)
		}
		fmt.Fprintf(w, "- **Run:** %s (#%d)\n", rec.RunID, rec.SequenceIndex)
	default:
		return fmt.Errorf("unknown format %q (want url, title or md)", c.Format)
	}
	return nil
}
