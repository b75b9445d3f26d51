package cli

import (
	"database/sql"
	"io"

	"github.com/runnerr0/watchmirror/internal/classify"
)

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// AnalyzeCommand: classify an export (or load a stored run) and print metrics.
type AnalyzeCommand struct {
	Period   string `long:"period" description:"Time window: all | month | year | 5years"`
	NoOracle bool   `long:"no-oracle" description:"Skip the external oracle stage"`
	Run      string `long:"run" description:"Analyze a stored run (ID, prefix or \"latest\") instead of a file"`

	Args struct {
		File string `positional-arg-name:"FILE" description:"Watch-history export (JSON)"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	version string
	oracle  classify.Oracle // injectable for testing
}

// IngestCommand: classify an export and store it as a run.
type IngestCommand struct {
	NoOracle bool `long:"no-oracle" description:"Skip the external oracle stage"`

	Args struct {
		File string `positional-arg-name:"FILE" required:"yes" description:"Watch-history export (JSON)"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	version string
	oracle  classify.Oracle
}

// ExportCommand: write labeled records as JSON or CSV.
type ExportCommand struct {
	Format   string `long:"format" description:"Output format: json | csv"`
	Out      string `long:"out" short:"o" description:"Output file (default stdout)"`
	Run      string `long:"run" description:"Export a stored run (ID, prefix or \"latest\")"`
	NoOracle bool   `long:"no-oracle" description:"Skip the external oracle stage when classifying a file"`

	Args struct {
		File string `positional-arg-name:"FILE" description:"Watch-history export to classify and export"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	version string
	oracle  classify.Oracle
	stdout  io.Writer
}

// StatusCommand: show database statistics and configuration summary.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// SearchCommand: search stored records by keyword with filters.
type SearchCommand struct {
	Run      string `long:"run" description:"Restrict to one run (ID, prefix or \"latest\")"`
	Channel  string `long:"channel" description:"Filter by channel name"`
	Category string `long:"category" description:"Filter by category"`
	Since    string `long:"since" description:"Only records newer than duration (e.g., 30d, 2w, 24h)"`
	Until    string `long:"until" description:"Only records older than duration"`
	Limit    int    `long:"limit" description:"Maximum results" default:"20"`
	Offset   int    `long:"offset" description:"Skip first N results" default:"0"`

	globals *GlobalFlags
	version string
}

// OpenCommand: print one stored record.
type OpenCommand struct {
	ID     int64  `long:"id" description:"Record ID (required)"`
	Format string `long:"format" description:"Output format: url | title | md" default:"md"`

	globals *GlobalFlags
	version string
}

// RunsCommand: list or delete stored runs.
type RunsCommand struct {
	Limit  int    `long:"limit" description:"Maximum runs to list" default:"20"`
	Delete string `long:"delete" description:"Delete the run with this ID"`

	globals *GlobalFlags
	version string
}

// CategoriesCommand: list the taxonomy, or per-category statistics for a run.
type CategoriesCommand struct {
	Run string `long:"run" description:"Show statistics for a stored run (ID, prefix or \"latest\")"`

	globals *GlobalFlags
	version string
}

// SampleCommand: write a synthetic watch-history export.
type SampleCommand struct {
	Count int    `long:"count" description:"Number of entries" default:"500"`
	Years int    `long:"years" description:"Years of history to span" default:"5"`
	Seed  uint64 `long:"seed" description:"Random seed" default:"1"`
	Out   string `long:"out" short:"o" description:"Output file (default stdout)"`

	globals *GlobalFlags
	version string
}

// PruneCommand: delete runs older than the retention period.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Override retention period (e.g., 30d)"`
	DryRun    bool   `long:"dry-run" description:"Show what would be pruned without deleting"`

	globals *GlobalFlags
	version string
}

// PurgeCommand: delete ALL stored data with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	db      *sql.DB   // injectable for testing; nil means open the configured DB
	stdin   io.Reader // injectable for testing; nil means os.Stdin
}
