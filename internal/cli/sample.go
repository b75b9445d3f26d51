package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/runnerr0/watchmirror/internal/history"
	"github.com/runnerr0/watchmirror/internal/logging"
)

// Execute implements the go-flags Commander interface for SampleCommand.
func (c *SampleCommand) Execute(args []string) error {
	if c.Out == "" {
		return c.execute(os.Stdout, time.Now().UTC())
	}

	f, err := os.Create(c.Out)
	if err != nil {
		return fmt.Errorf("create %s: %w", c.Out, err)
	}
	defer f.Close()

	if err := c.execute(f, time.Now().UTC()); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", c.Out, err)
	}
	logging.Info().Str("path", c.Out).Int("entries", c.Count).Msg("wrote sample export")
	return nil
}

// execute writes the sample ending at end (for testing).
func (c *SampleCommand) execute(w io.Writer, end time.Time) error {
	if c.Count <= 0 {
		return fmt.Errorf("--count must be positive, got %d", c.Count)
	}
	if c.Years <= 0 {
		return fmt.Errorf("--years must be positive, got %d", c.Years)
	}

	entries := history.GenerateSample(history.SampleOptions{
		Count: c.Count,
		Start: end.AddDate(-c.Years, 0, 0),
		End:   end,
		Seed:  c.Seed,
	})
	return writeJSON(w, entries)
}
