// Package analytics derives viewing statistics and behavioral metrics from
// labeled watch-history records. Every function here is pure and treats its
// input as read-only, so callers may share one record slice between
// goroutines once classification has finished.
package analytics

import (
	"sort"
	"time"

	"github.com/runnerr0/watchmirror/internal/history"
)

// TopChannelLimit is the number of channels kept in View.TopChannels.
const TopChannelLimit = 20

// ChannelCount pairs a channel with a record count.
type ChannelCount struct {
	Channel string `json:"channel"`
	Count   int    `json:"count"`
}

// DateRange spans the records of a view. Days is the whole number of days
// between First and Last, at least 1 for a non-empty view.
type DateRange struct {
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
	Days  int       `json:"days"`
}

// View is the aggregated form of a record set.
type View struct {
	Total       int                      `json:"totalVideos"`
	Channels    map[string]int           `json:"channelCounts"`
	Categories  map[history.Category]int `json:"categoryCounts"`
	Hours       [24]int                  `json:"hourCounts"`
	Weekdays    [7]int                   `json:"dayOfWeekCounts"`
	Years       map[int]int              `json:"yearCounts"`
	TopChannels []ChannelCount           `json:"topChannels"`
	DateRange   DateRange                `json:"dateRange"`
}

// UniqueChannels is the number of distinct channels in the view.
func (v View) UniqueChannels() int {
	return len(v.Channels)
}

// Aggregate counts records by channel, category, hour, weekday and year.
// Hours and weekdays follow each timestamp's own location.
func Aggregate(records []history.Record) View {
	v := View{
		Total:       len(records),
		Channels:    make(map[string]int),
		Categories:  make(map[history.Category]int),
		Years:       make(map[int]int),
		TopChannels: []ChannelCount{},
	}
	if len(records) == 0 {
		return v
	}

	var order []string
	first, last := records[0].Timestamp, records[0].Timestamp
	for _, r := range records {
		if _, ok := v.Channels[r.Channel]; !ok {
			order = append(order, r.Channel)
		}
		v.Channels[r.Channel]++
		v.Categories[r.Category]++
		v.Hours[r.Timestamp.Hour()]++
		v.Weekdays[r.Timestamp.Weekday()]++
		v.Years[r.Timestamp.Year()]++

		if r.Timestamp.Before(first) {
			first = r.Timestamp
		}
		if r.Timestamp.After(last) {
			last = r.Timestamp
		}
	}

	v.TopChannels = rankChannels(order, v.Channels, TopChannelLimit)
	v.DateRange = DateRange{First: first, Last: last, Days: max(1, daysBetween(first, last))}
	return v
}

// rankChannels sorts channels by count, keeping first-seen order on ties.
func rankChannels(order []string, counts map[string]int, limit int) []ChannelCount {
	ranked := make([]ChannelCount, len(order))
	for i, ch := range order {
		ranked[i] = ChannelCount{Channel: ch, Count: counts[ch]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func daysBetween(a, b time.Time) int {
	d := b.Sub(a)
	if d < 0 {
		d = -d
	}
	return int(d / (24 * time.Hour))
}
