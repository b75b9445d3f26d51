package history

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/runnerr0/watchmirror/internal/logging"
)

// ErrNoValidRecords is returned when an export yields no usable records.
var ErrNoValidRecords = errors.New("no valid records found in export")

const (
	watchedPrefix = "Watched "
	removedMarker = "a video that has been removed"
)

// ChannelRef accepts either {"name": "..."} or a plain string.
type ChannelRef struct {
	Name string
}

func (c *ChannelRef) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &c.Name)
	}
	if data[0] == '{' {
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		c.Name = obj.Name
	}
	// Any other shape carries no usable channel name.
	return nil
}

func (c ChannelRef) MarshalJSON() ([]byte, error) {
	if c.Name == "" {
		return []byte("null"), nil
	}
	return json.Marshal(c.Name)
}

// Normalizer turns raw export entries into sorted records.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer returns a Normalizer that places timestamps in loc.
// A nil loc means time.Local.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{loc: loc}
}

// Decode parses a JSON export array and normalizes it.
func (n *Normalizer) Decode(r io.Reader) ([]Record, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}

	entries := make([]RawEntry, 0, len(raw))
	skipped := 0
	for _, msg := range raw {
		var e RawEntry
		if err := json.Unmarshal(msg, &e); err != nil {
			skipped++
			continue
		}
		entries = append(entries, e)
	}
	if skipped > 0 {
		logging.Debug().Int("skipped", skipped).Int("entries", len(raw)).Msg("dropped malformed export entries")
	}
	return n.Normalize(entries)
}

// Normalize validates entries, resolves channels, cleans titles and sorts
// the result chronologically. Invalid entries are skipped silently; an
// empty result is an error.
func (n *Normalizer) Normalize(entries []RawEntry) ([]Record, error) {
	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Time) == "" {
			continue
		}
		ts, err := parseTimestamp(e.Time, n.loc)
		if err != nil {
			continue
		}
		title := cleanTitle(e.Title)
		if title == "" {
			continue
		}
		records = append(records, Record{
			Title:     title,
			Channel:   resolveChannel(e),
			Timestamp: ts.In(n.loc),
			Category:  Uncategorized,
			SourceURL: e.TitleURL,
		})
	}

	if len(records) == 0 {
		return nil, ErrNoValidRecords
	}

	SortChronologically(records)
	return records, nil
}

// SortChronologically orders records by timestamp (stable) and renumbers
// their sequence indexes.
func SortChronologically(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	for i := range records {
		records[i].SequenceIndex = i
	}
}

func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == watchedPrefix+removedMarker {
		return RemovedVideoTitle
	}
	title = strings.TrimSpace(strings.TrimPrefix(title, watchedPrefix))
	if title == removedMarker {
		return RemovedVideoTitle
	}
	return title
}

func resolveChannel(e RawEntry) string {
	if len(e.Subtitles) > 0 && e.Subtitles[0].Name != "" {
		return e.Subtitles[0].Name
	}
	if e.Channel.Name != "" {
		return e.Channel.Name
	}
	return UnknownChannel
}

// parseTimestamp tries the layouts seen in watch-history exports. Layouts
// without a zone are read as wall-clock time in loc.
func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, f := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	for _, f := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(f, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}
