package analytics

import (
	"sort"

	"github.com/runnerr0/watchmirror/internal/history"
)

// YearSummary is one row of the year-over-year comparison.
type YearSummary struct {
	Year             int              `json:"year"`
	Count            int              `json:"count"`
	UniqueChannels   int              `json:"uniqueChannels"`
	Diversity        float64          `json:"diversity"`
	DominantCategory history.Category `json:"dominantCategory"`
}

// YearlyComparison summarizes each calendar year, oldest first.
func YearlyComparison(records []history.Record) []YearSummary {
	type acc struct {
		channels map[string]int
		cats     map[history.Category]int
		catOrder []history.Category
		count    int
	}
	years := make(map[int]*acc)
	for _, r := range records {
		y := r.Timestamp.Year()
		a, ok := years[y]
		if !ok {
			a = &acc{channels: make(map[string]int), cats: make(map[history.Category]int)}
			years[y] = a
		}
		a.count++
		a.channels[r.Channel]++
		if _, seen := a.cats[r.Category]; !seen {
			a.catOrder = append(a.catOrder, r.Category)
		}
		a.cats[r.Category]++
	}

	out := make([]YearSummary, 0, len(years))
	for y, a := range years {
		dominant, top := history.Category(""), 0
		for _, c := range a.catOrder {
			if a.cats[c] > top {
				top = a.cats[c]
				dominant = c
			}
		}
		out = append(out, YearSummary{
			Year:             y,
			Count:            a.count,
			UniqueChannels:   len(a.channels),
			Diversity:        Diversity(a.channels),
			DominantCategory: dominant,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
