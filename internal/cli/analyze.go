package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/watchmirror/internal/analytics"
	"github.com/runnerr0/watchmirror/internal/classify"
	"github.com/runnerr0/watchmirror/internal/config"
	"github.com/runnerr0/watchmirror/internal/history"
	"github.com/runnerr0/watchmirror/internal/storage"
)

// analysisReport is the JSON output structure for the analyze command.
type analysisReport struct {
	Source           string                   `json:"source"`
	Period           analytics.Period         `json:"period"`
	Records          int                      `json:"records"`
	UniqueChannels   int                      `json:"uniqueChannels"`
	DateRange        analytics.DateRange      `json:"dateRange"`
	Stats            classify.Stats           `json:"categorizationStats"`
	Metrics          analytics.Metrics        `json:"metrics"`
	Archetype        analytics.Archetype      `json:"archetype"`
	TopChannels      []analytics.ChannelCount `json:"topChannels"`
	Categories       []analytics.CategoryStat `json:"categories"`
	Years            []analytics.YearSummary  `json:"years"`
	AvailablePeriods []analytics.PeriodOption `json:"availablePeriods"`
}

// Execute implements the go-flags Commander interface for AnalyzeCommand.
func (c *AnalyzeCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	if c.Args.File != "" {
		return c.executeWith(cfg, nil, os.Stdout)
	}

	store, db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWith(cfg, store, os.Stdout)
}

// executeWith runs the analysis with a provided config and store (for testing).
// The store is only consulted when no file is given.
func (c *AnalyzeCommand) executeWith(cfg *config.Config, store storage.Store, w io.Writer) error {
	ctx := context.Background()

	periodName := c.Period
	if periodName == "" {
		periodName = cfg.Analysis.Period
	}
	period, err := analytics.ParsePeriod(periodName)
	if err != nil {
		return err
	}

	var (
		records []history.Record
		stats   classify.Stats
		source  string
	)
	switch {
	case c.Args.File != "":
		records, stats, err = classifyFile(ctx, cfg, c.Args.File, c.oracle, c.NoOracle)
		if err != nil {
			return err
		}
		source = c.Args.File
	case store != nil:
		var run *storage.Run
		run, records, err = loadRun(ctx, cfg, store, c.Run)
		if err != nil {
			return err
		}
		stats = runStats(run, records)
		source = "run " + run.ID
	default:
		return errors.New("analyze needs an export file or a stored run (--run)")
	}

	report := buildReport(source, records, stats, period, cfg.Analysis.SessionGap)

	if c.globals != nil && c.globals.JSON {
		return writeJSON(w, report)
	}
	printReport(w, report)
	return nil
}

// buildReport aggregates the records inside period and derives every metric.
func buildReport(source string, records []history.Record, stats classify.Stats, period analytics.Period, gap time.Duration) analysisReport {
	windowed := analytics.FilterPeriod(records, period)
	view := analytics.Aggregate(windowed)
	metrics := analytics.ComputeView(view, windowed, analytics.Options{SessionGap: gap})

	report := analysisReport{
		Source:           source,
		Period:           period,
		Records:          view.Total,
		UniqueChannels:   view.UniqueChannels(),
		DateRange:        view.DateRange,
		Stats:            stats,
		Metrics:          metrics,
		Archetype:        analytics.IdentifyArchetype(metrics),
		TopChannels:      view.TopChannels,
		Categories:       analytics.CategoryStatistics(windowed),
		Years:            analytics.YearlyComparison(windowed),
		AvailablePeriods: analytics.AvailablePeriods(records),
	}
	if report.TopChannels == nil {
		report.TopChannels = []analytics.ChannelCount{}
	}
	return report
}

func printReport(w io.Writer, r analysisReport) {
	title := fmt.Sprintf("Analysis of %s (period: %s)", r.Source, r.Period)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", len(title)))

	if r.Records == 0 {
		fmt.Fprintln(w, "No records in this period.")
		return
	}

	fmt.Fprintf(w, "Records:        %s (%s to %s, %d %s)\n", formatNumber(r.Records),
		r.DateRange.First.Format("2006-01-02"), r.DateRange.Last.Format("2006-01-02"),
		r.DateRange.Days, plural(r.DateRange.Days, "day", "days"))
	fmt.Fprintf(w, "Channels:       %s\n", formatNumber(r.UniqueChannels))
	fmt.Fprintf(w, "Classified:     %d by keyword, %d by context, %d by oracle, %d uncategorized\n",
		r.Stats.KeywordCategorized, r.Stats.ContextCategorized, r.Stats.AICategorized, len(r.Stats.Uncategorized))
	fmt.Fprintln(w)

	m := r.Metrics
	fmt.Fprintf(w, "Diversity:      %.2f\n", m.Diversity)
	fmt.Fprintf(w, "Echo chamber:   %.1f%%\n", m.EchoChamber)
	fmt.Fprintf(w, "Binge score:    %.2f\n", m.Binge)
	fmt.Fprintf(w, "Peak hour:      %02d:00\n", m.PeakHour)
	fmt.Fprintf(w, "Night owl:      %.1f%%\n", m.NightOwl)
	fmt.Fprintf(w, "Drift:          %+.2f (%s)\n", m.Drift, m.Trend)
	fmt.Fprintf(w, "Phase:          %s\n", m.Phase)
	if m.LearningPoint != nil {
		fmt.Fprintf(w, "Learning point: after quarter %d (drop %.2f)\n", *m.LearningPoint, m.MaxDrop)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Archetype:      %s\n", r.Archetype.Name)
	fmt.Fprintf(w, "                %s\n", r.Archetype.Description)

	if len(r.Categories) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Top Categories:")
		for i, cs := range r.Categories {
			if i == 10 {
				break
			}
			fmt.Fprintf(w, "  %-16s %8s %6.1f%%\n", cs.Category, formatNumber(cs.Count), cs.Percentage)
		}
	}

	if len(r.TopChannels) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Top Channels:")
		for i, ch := range r.TopChannels {
			if i == 10 {
				break
			}
			fmt.Fprintf(w, "  %-30s %s\n", ch.Channel, formatNumber(ch.Count))
		}
	}

	if len(r.Years) > 1 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "By Year:")
		for _, y := range r.Years {
			fmt.Fprintf(w, "  %d %8s videos %5d channels  diversity %.2f  %s\n",
				y.Year, formatNumber(y.Count), y.UniqueChannels, y.Diversity, y.DominantCategory)
		}
	}

	if len(m.PivotalMoments) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Pivotal Moments:")
		for _, pm := range m.PivotalMoments {
			fmt.Fprintf(w, "  %s  %s (%.2f -> %.2f)\n", pm.Month, pm.Description(), pm.Before, pm.After)
		}
	}
}
