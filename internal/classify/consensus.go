package classify

import "github.com/runnerr0/watchmirror/internal/history"

// DefaultConsensusRatio is the share of a channel's resolved records the
// dominant category must exceed before it is applied to the channel's
// fallback records.
const DefaultConsensusRatio = 0.6

type channelTally struct {
	order  []history.Category
	counts map[history.Category]int
	total  int
}

func (t *channelTally) add(c history.Category) {
	if t.counts == nil {
		t.counts = make(map[history.Category]int)
	}
	if _, ok := t.counts[c]; !ok {
		t.order = append(t.order, c)
	}
	t.counts[c]++
	t.total++
}

// dominant returns the most frequent category, first seen on ties.
func (t *channelTally) dominant() (history.Category, int) {
	var best history.Category
	top := 0
	for _, c := range t.order {
		if n := t.counts[c]; n > top {
			top = n
			best = c
		}
	}
	return best, top
}

// ApplyConsensus refines fallback records of each channel to the category
// that dominates the channel's resolved records. Resolved records are never
// touched. It returns the number of records refined.
func ApplyConsensus(records []history.Record, ratio float64) int {
	if ratio <= 0 || ratio > 1 {
		ratio = DefaultConsensusRatio
	}

	tallies := make(map[string]*channelTally)
	for _, r := range records {
		if r.Category.IsFallback() {
			continue
		}
		t, ok := tallies[r.Channel]
		if !ok {
			t = &channelTally{}
			tallies[r.Channel] = t
		}
		t.add(r.Category)
	}

	dominant := make(map[string]history.Category, len(tallies))
	for ch, t := range tallies {
		cat, n := t.dominant()
		if float64(n)/float64(t.total) > ratio {
			dominant[ch] = cat
		}
	}

	refined := 0
	for i := range records {
		cat, ok := dominant[records[i].Channel]
		if !ok {
			continue
		}
		if records[i].Refine(cat) {
			refined++
		}
	}
	return refined
}
