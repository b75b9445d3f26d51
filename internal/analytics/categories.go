package analytics

import (
	"sort"
	"time"

	"github.com/runnerr0/watchmirror/internal/history"
)

// CategoryTopChannels is the number of channels listed per category.
const CategoryTopChannels = 5

// CategoryStat describes how one category shows up in the history.
type CategoryStat struct {
	Category       history.Category `json:"category"`
	Count          int              `json:"count"`
	Percentage     float64          `json:"percentage"`
	UniqueChannels int              `json:"uniqueChannels"`
	FirstWatched   time.Time        `json:"firstWatched"`
	LastWatched    time.Time        `json:"lastWatched"`
	TopChannels    []ChannelCount   `json:"topChannels"`
}

// CategoryStatistics returns per-category statistics, most watched first.
// Categories with equal counts keep first-seen order.
func CategoryStatistics(records []history.Record) []CategoryStat {
	type acc struct {
		stat         CategoryStat
		channels     map[string]int
		channelOrder []string
	}
	var order []history.Category
	byCat := make(map[history.Category]*acc)

	for _, r := range records {
		a, ok := byCat[r.Category]
		if !ok {
			a = &acc{
				stat:     CategoryStat{Category: r.Category, FirstWatched: r.Timestamp, LastWatched: r.Timestamp},
				channels: make(map[string]int),
			}
			byCat[r.Category] = a
			order = append(order, r.Category)
		}
		a.stat.Count++
		if _, seen := a.channels[r.Channel]; !seen {
			a.channelOrder = append(a.channelOrder, r.Channel)
		}
		a.channels[r.Channel]++
		if r.Timestamp.Before(a.stat.FirstWatched) {
			a.stat.FirstWatched = r.Timestamp
		}
		if r.Timestamp.After(a.stat.LastWatched) {
			a.stat.LastWatched = r.Timestamp
		}
	}

	out := make([]CategoryStat, 0, len(order))
	for _, c := range order {
		a := byCat[c]
		a.stat.UniqueChannels = len(a.channels)
		a.stat.Percentage = float64(a.stat.Count) / float64(len(records)) * 100
		a.stat.TopChannels = rankChannels(a.channelOrder, a.channels, CategoryTopChannels)
		out = append(out, a.stat)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
