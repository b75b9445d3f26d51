package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Analyze    *AnalyzeCommand
	Ingest     *IngestCommand
	Export     *ExportCommand
	Status     *StatusCommand
	Search     *SearchCommand
	Open       *OpenCommand
	Runs       *RunsCommand
	Categories *CategoriesCommand
	Sample     *SampleCommand
	Prune      *PruneCommand
	Purge      *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "watchmirror"
	parser.LongDescription = "Classify a watch-history export and measure what the feed did to it."

	cmds := &commands{
		Analyze:    &AnalyzeCommand{globals: &globals, version: version},
		Ingest:     &IngestCommand{globals: &globals, version: version},
		Export:     &ExportCommand{globals: &globals, version: version},
		Status:     &StatusCommand{globals: &globals, version: version},
		Search:     &SearchCommand{globals: &globals, version: version},
		Open:       &OpenCommand{globals: &globals, version: version},
		Runs:       &RunsCommand{globals: &globals, version: version},
		Categories: &CategoriesCommand{globals: &globals, version: version},
		Sample:     &SampleCommand{globals: &globals, version: version},
		Prune:      &PruneCommand{globals: &globals, version: version},
		Purge:      &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("analyze", "Classify an export and print metrics", "Classify a watch-history export (or load a stored run) and print diversity, echo-chamber, binge and drift metrics.", cmds.Analyze)
	parser.AddCommand("ingest", "Classify an export and store it", "Classify a watch-history export and store the labeled records as a run in the local database.", cmds.Ingest)
	parser.AddCommand("export", "Write labeled records as JSON or CSV", "Write labeled records from a file or a stored run as JSON or CSV.", cmds.Export)
	parser.AddCommand("status", "Show database statistics", "Show database statistics, the latest run, and a configuration summary.", cmds.Status)
	parser.AddCommand("search", "Search stored records", "Search stored records by keyword, with optional filters.", cmds.Search)
	parser.AddCommand("open", "Print a stored record", "Print a single stored record by ID.", cmds.Open)
	parser.AddCommand("runs", "List or delete stored runs", "List stored runs, newest first, or delete one.", cmds.Runs)
	parser.AddCommand("categories", "List categories", "List the category taxonomy, or per-category statistics for a stored run.", cmds.Categories)
	parser.AddCommand("sample", "Generate a synthetic export", "Generate a synthetic watch-history export for trying the tool out.", cmds.Sample)
	parser.AddCommand("prune", "Delete old runs", "Delete stored runs older than the retention period.", cmds.Prune)
	parser.AddCommand("purge", "Delete ALL stored data", "Delete ALL stored data. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the watchmirror CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// go-flags requires a subcommand; --version is valid without one.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("watchmirror %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok && flagsErr.Type == goflags.ErrHelp {
			return nil
		}
		return err
	}

	return nil
}
