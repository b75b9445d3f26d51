package classify

import (
	"time"

	"github.com/runnerr0/watchmirror/internal/history"
)

// DefaultSmoothingGap is the largest gap between two same-channel records
// for which the earlier label is carried forward.
const DefaultSmoothingGap = 10 * time.Minute

// Smooth makes one forward pass over chronologically sorted records. A
// record still on the Entertainment fallback inherits the previous record's
// category when both share a channel, the previous label is resolved and
// they are less than gap apart. Because the pass reads records it has
// already updated, a label can propagate along a run. It returns the number
// of records refined.
func Smooth(records []history.Record, gap time.Duration) int {
	if gap <= 0 {
		gap = DefaultSmoothingGap
	}

	refined := 0
	for i := 1; i < len(records); i++ {
		prev, curr := &records[i-1], &records[i]
		if curr.Category != history.Entertainment || prev.Category.IsFallback() {
			continue
		}
		if curr.Channel != prev.Channel {
			continue
		}
		if curr.Timestamp.Sub(prev.Timestamp) >= gap {
			continue
		}
		if curr.Refine(prev.Category) {
			refined++
		}
	}
	return refined
}
