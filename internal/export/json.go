// Package export writes labeled watch-history records as JSON or CSV and
// reads JSON exports back.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/runnerr0/watchmirror/internal/classify"
	"github.com/runnerr0/watchmirror/internal/history"
)

// Layouts used in exported records.
const (
	DateLayout      = "2006-01-02"
	TimeLayout      = "15:04:05"
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

// Document is the JSON export shape.
type Document struct {
	Metadata        Metadata                   `json:"metadata"`
	CategorySummary map[string]CategorySummary `json:"categorySummary"`
	Videos          []Video                    `json:"videos"`
}

// Metadata describes the export as a whole.
type Metadata struct {
	TotalVideos         int            `json:"totalVideos"`
	ExportDate          string         `json:"exportDate"`
	CategorizationStats classify.Stats `json:"categorizationStats"`
	UniqueChannels      int            `json:"uniqueChannels"`
	DateRange           DateRange      `json:"dateRange"`
}

// DateRange holds UTC timestamps of the first and last record.
type DateRange struct {
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
}

// CategorySummary is the per-category tally. Percentage is formatted with
// two decimals and a percent sign.
type CategorySummary struct {
	Count          int    `json:"count"`
	Percentage     string `json:"percentage"`
	UniqueChannels int    `json:"uniqueChannels"`
}

// Video is one exported record. Date, time, weekday, hour and year are
// rendered in the record's own location.
type Video struct {
	Title     string `json:"title"`
	Channel   string `json:"channel"`
	Category  string `json:"category"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	DayOfWeek string `json:"dayOfWeek"`
	Hour      int    `json:"hour"`
	Year      int    `json:"year"`
	URL       string `json:"url"`
}

// NewVideo renders a record for export.
func NewVideo(r history.Record) Video {
	ts := r.Timestamp
	return Video{
		Title:     r.Title,
		Channel:   r.Channel,
		Category:  string(r.Category),
		Date:      ts.Format(DateLayout),
		Time:      ts.Format(TimeLayout),
		DayOfWeek: ts.Weekday().String(),
		Hour:      ts.Hour(),
		Year:      ts.Year(),
		URL:       r.SourceURL,
	}
}

// Build assembles the export document. exportedAt is stamped into the
// metadata so callers control the clock.
func Build(records []history.Record, stats classify.Stats, exportedAt time.Time) Document {
	doc := Document{
		Metadata: Metadata{
			TotalVideos:         len(records),
			ExportDate:          exportedAt.UTC().Format(TimestampLayout),
			CategorizationStats: stats,
		},
		CategorySummary: make(map[string]CategorySummary),
		Videos:          make([]Video, 0, len(records)),
	}
	if doc.Metadata.CategorizationStats.Uncategorized == nil {
		doc.Metadata.CategorizationStats.Uncategorized = []string{}
	}

	channels := make(map[string]struct{})
	perCategory := make(map[history.Category]map[string]struct{})
	counts := make(map[history.Category]int)
	for _, r := range records {
		channels[r.Channel] = struct{}{}
		if perCategory[r.Category] == nil {
			perCategory[r.Category] = make(map[string]struct{})
		}
		perCategory[r.Category][r.Channel] = struct{}{}
		counts[r.Category]++
		doc.Videos = append(doc.Videos, NewVideo(r))
	}
	doc.Metadata.UniqueChannels = len(channels)

	if len(records) > 0 {
		doc.Metadata.DateRange = DateRange{
			First: records[0].Timestamp.UTC().Format(TimestampLayout),
			Last:  records[len(records)-1].Timestamp.UTC().Format(TimestampLayout),
		}
	}

	for cat, n := range counts {
		doc.CategorySummary[string(cat)] = CategorySummary{
			Count:          n,
			Percentage:     fmt.Sprintf("%.2f%%", float64(n)/float64(len(records))*100),
			UniqueChannels: len(perCategory[cat]),
		}
	}
	return doc
}

// WriteJSON writes doc with two-space indentation and without HTML
// escaping. Map keys come out sorted.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// ReadJSON decodes a document written by WriteJSON.
func ReadJSON(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode export: %w", err)
	}
	return doc, nil
}

// Records rebuilds records from the videos of a document, interpreting date
// and time in loc. A nil loc means time.Local.
func (d Document) Records(loc *time.Location) ([]history.Record, error) {
	if loc == nil {
		loc = time.Local
	}
	out := make([]history.Record, 0, len(d.Videos))
	for i, v := range d.Videos {
		ts, err := time.ParseInLocation(DateLayout+" "+TimeLayout, v.Date+" "+v.Time, loc)
		if err != nil {
			return nil, fmt.Errorf("video %d: parse timestamp: %w", i, err)
		}
		cat := history.Category(strings.TrimSpace(v.Category))
		if cat == "" {
			cat = history.Uncategorized
		}
		out = append(out, history.Record{
			Title:         v.Title,
			Channel:       v.Channel,
			Timestamp:     ts,
			Category:      cat,
			SourceURL:     v.URL,
			SequenceIndex: i,
		})
	}
	return out, nil
}
