package analytics

import (
	"fmt"
	"time"

	"github.com/runnerr0/watchmirror/internal/history"
)

// Period selects a trailing time window of the history.
type Period string

const (
	PeriodAll       Period = "all"
	PeriodMonth     Period = "month"
	PeriodYear      Period = "year"
	PeriodFiveYears Period = "5years"
)

// ParsePeriod validates a period name. The empty string means PeriodAll.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodAll, nil
	case PeriodAll, PeriodMonth, PeriodYear, PeriodFiveYears:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period %q (want all, month, year or 5years)", s)
	}
}

// start returns the beginning of the window ending at latest.
func (p Period) start(latest time.Time) (time.Time, bool) {
	switch p {
	case PeriodMonth:
		return latest.AddDate(0, 0, -30), true
	case PeriodYear:
		return latest.AddDate(0, 0, -365), true
	case PeriodFiveYears:
		return latest.AddDate(-5, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// FilterPeriod keeps records inside the window that ends at the most recent
// record. Windows are anchored on the data, not on the wall clock, so old
// exports still produce results. An empty window yields the full set.
func FilterPeriod(records []history.Record, p Period) []history.Record {
	if len(records) == 0 {
		return records
	}

	latest := records[0].Timestamp
	for _, r := range records {
		if r.Timestamp.After(latest) {
			latest = r.Timestamp
		}
	}
	start, ok := p.start(latest)
	if !ok {
		return records
	}

	var out []history.Record
	for _, r := range records {
		if !r.Timestamp.Before(start) && !r.Timestamp.After(latest) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return records
	}
	return out
}

// PeriodOption describes a window that the data is long enough to support.
type PeriodOption struct {
	ID          Period `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// AvailablePeriods lists the windows worth offering for records: all time,
// plus each trailing window the history fully covers.
func AvailablePeriods(records []history.Record) []PeriodOption {
	if len(records) == 0 {
		return nil
	}

	v := Aggregate(records)
	days := daysBetween(v.DateRange.First, v.DateRange.Last)

	out := []PeriodOption{{ID: PeriodAll, Label: "All Time", Description: fmt.Sprintf("%d days", days)}}
	if days >= 30 {
		out = append(out, PeriodOption{ID: PeriodMonth, Label: "Last Month", Description: "Last 30 days"})
	}
	if days >= 365 {
		out = append(out, PeriodOption{ID: PeriodYear, Label: "Last Year", Description: "Last 365 days"})
	}
	if days >= 365*5 {
		out = append(out, PeriodOption{ID: PeriodFiveYears, Label: "Last 5 Years", Description: "Last 5 years"})
	}
	return out
}
