package analytics

import (
	"sort"
	"time"

	"github.com/runnerr0/watchmirror/internal/history"
)

// DefaultSessionGap separates two viewing sessions.
const DefaultSessionGap = 2 * time.Hour

// BingeSessionSize is the smallest session counted as a binge.
const BingeSessionSize = 3

// Sessions splits records into maximal runs whose consecutive gaps are
// below gap. Records are ordered by time first; the input is not modified.
func Sessions(records []history.Record, gap time.Duration) [][]history.Record {
	if len(records) == 0 {
		return nil
	}
	if gap <= 0 {
		gap = DefaultSessionGap
	}

	sorted := make([]history.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var sessions [][]history.Record
	start := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Timestamp.Sub(sorted[i-1].Timestamp) >= gap {
			sessions = append(sessions, sorted[start:i])
			start = i
		}
	}
	return append(sessions, sorted[start:])
}

// BingeScore combines the share of binge sessions with the daily viewing
// rate, capped at 1.
func BingeScore(records []history.Record, gap time.Duration) float64 {
	sessions := Sessions(records, gap)
	if len(sessions) == 0 {
		return 0
	}

	binges := 0
	first, last := sessions[0][0].Timestamp, sessions[0][0].Timestamp
	for _, s := range sessions {
		if len(s) >= BingeSessionSize {
			binges++
		}
		if end := s[len(s)-1].Timestamp; end.After(last) {
			last = end
		}
	}

	ratio := float64(binges) / float64(len(sessions))
	daily := float64(len(records)) / float64(max(1, daysBetween(first, last)))
	return min(1, ratio*daily/10)
}
