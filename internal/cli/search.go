package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/watchmirror/internal/config"
	"github.com/runnerr0/watchmirror/internal/history"
	"github.com/runnerr0/watchmirror/internal/storage"
)

// Execute implements the go-flags Commander interface for SearchCommand.
func (c *SearchCommand) Execute(args []string) error {
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

	return c.executeWithStore(cfg, store, args, os.Stdout)
}

// executeWithStore runs the search against a provided store (for testing).
func (c *SearchCommand) executeWithStore(cfg *config.Config, store storage.Store, args []string, w io.Writer) error {
	ctx := context.Background()
	query := strings.Join(args, " ")

	sq := storage.SearchQuery{
		Query:   query,
		Channel: c.Channel,
		Limit:   c.Limit,
		Offset:  c.Offset,
	}

	if c.Category != "" {
		cat, ok := history.DefaultTaxonomy().Normalize(c.Category)
		if !ok {
			return fmt.Errorf("unknown category %q", c.Category)
		}
		sq.Category = cat
	}

	if c.Run != "" {
		run, err := resolveRun(ctx, store, c.Run)
		if err != nil {
			return err
		}
		sq.RunID = run.ID
	}

	now := time.Now()
	if c.Since != "" {
		dur, err := parseDuration(c.Since)
		if err != nil {
			return fmt.Errorf("invalid --since value %q: %w", c.Since, err)
		}
		sq.Since = now.Add(-dur)
	}
	if c.Until != "" {
		dur, err := parseDuration(c.Until)
		if err != nil {
			return fmt.Errorf("invalid --until value %q: %w", c.Until, err)
		}
		sq.Until = now.Add(-dur)
	}

	results, err := store.SearchRecords(ctx, sq)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(w, query, results)
	}
	c.printHuman(w, query, results, loc)
	return nil
}

func (c *SearchCommand) printHuman(w io.Writer, query string, results []storage.StoredRecord, loc *time.Location) {
	if len(results) == 0 {
		if query != "" {
			fmt.Fprintf(w, "No results found for %q\n", query)
		} else {
			fmt.Fprintln(w, "No results found")
		}
		return
	}

	word := plural(len(results), "result", "results")
	if query != "" {
		fmt.Fprintf(w, "Found %d %s for %q\n\n", len(results), word, query)
	} else {
		fmt.Fprintf(w, "Found %d %s\n\n", len(results), word)
	}

	for i, r := range results {
		fmt.Fprintf(w, "%d. %s (%s)\n", i+1+c.Offset, r.Title, r.Channel)
		meta := fmt.Sprintf("#%d · %s · %s", r.ID, r.Timestamp.In(loc).Format("2006-01-02 15:04"), r.Category)
		fmt.Fprintf(w, "   %s\n", meta)
		if r.SourceURL != "" {
			fmt.Fprintf(w, "   %s\n", r.SourceURL)
		}
		if i < len(results)-1 {
			fmt.Fprintln(w)
		}
	}
}

type jsonResult struct {
	ID        int64  `json:"id"`
	RunID     string `json:"run_id"`
	Title     string `json:"title"`
	Channel   string `json:"channel"`
	Category  string `json:"category"`
	URL       string `json:"url,omitempty"`
	Timestamp string `json:"timestamp"`
}

type jsonSearchOutput struct {
	Count   int          `json:"count"`
	Query   string       `json:"query"`
	Results []jsonResult `json:"results"`
}

func (c *SearchCommand) printJSON(w io.Writer, query string, results []storage.StoredRecord) error {
	out := jsonSearchOutput{
		Count:   len(results),
		Query:   query,
		Results: make([]jsonResult, len(results)),
	}
	for i, r := range results {
		out.Results[i] = jsonResult{
			ID:        r.ID,
			RunID:     r.RunID,
			Title:     r.Title,
			Channel:   r.Channel,
			Category:  string(r.Category),
			URL:       r.SourceURL,
			Timestamp: r.Timestamp.UTC().Format(time.RFC3339),
		}
	}
	return writeJSON(w, out)
}
