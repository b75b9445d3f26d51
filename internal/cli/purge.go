package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/runnerr0/watchmirror/internal/storage"
)

// setDB allows tests to inject a database connection.
func (c *PurgeCommand) setDB(db *sql.DB) {
	c.db = db
}

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	return c.execute(os.Stdout)
}

func (c *PurgeCommand) execute(w io.Writer) error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}

	if !c.Force {
		fmt.Fprintln(w, "WARNING: This will permanently delete ALL watchmirror data.")
		fmt.Fprintln(w, "  - All stored runs")
		fmt.Fprintln(w, "  - All labeled records")
		fmt.Fprintln(w, "  - The audit log")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "This action cannot be undone.")
		fmt.Fprintln(w)
		fmt.Fprint(w, `Type "PURGE" to confirm: `)

		in := c.stdin
		if in == nil {
			in = os.Stdin
		}
		scanner := bufio.NewScanner(in)
		if !scanner.Scan() {
			return fmt.Errorf("aborted: no input received")
		}
		if strings.TrimSpace(scanner.Text()) != "PURGE" {
			return fmt.Errorf("aborted: confirmation text did not match")
		}
	}

	db := c.db
	if db == nil {
		cfg, err := loadConfig(c.globals)
		if err != nil {
			return err
		}
		store, opened, err := openStore(cfg)
		if err != nil {
			return err
		}
		store.Close()
		defer opened.Close()
		db = opened
	}

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	if err := store.PurgeAll(context.Background()); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return writeJSON(w, map[string]any{
			"purged":  true,
			"message": "all data deleted",
		})
	}

	fmt.Fprintln(w, "Purged all data. watchmirror is empty.")
	return nil
}
