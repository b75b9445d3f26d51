package history

import "time"

// UnknownChannel labels records whose export entry names no channel.
const UnknownChannel = "Unknown Channel"

// RemovedVideoTitle replaces the export's removed-video marker.
const RemovedVideoTitle = "Removed Video"

// Record is a single watched item.
type Record struct {
	Title         string
	Channel       string
	Timestamp     time.Time
	Category      Category
	SourceURL     string
	SequenceIndex int
}

// Refine moves the record's category to c if c is strictly more specific
// than the current label. It reports whether the category changed.
func (r *Record) Refine(c Category) bool {
	if c.Level() <= r.Category.Level() {
		return false
	}
	r.Category = c
	return true
}

// RawEntry is one item of a watch-history export. Channel may be either an
// object with a name or a bare string, so it is kept raw until resolved.
type RawEntry struct {
	Header    string        `json:"header,omitempty"`
	Title     string        `json:"title"`
	TitleURL  string        `json:"titleUrl,omitempty"`
	Time      string        `json:"time"`
	Subtitles []RawSubtitle `json:"subtitles,omitempty"`
	Channel   ChannelRef    `json:"channel,omitempty"`
}

// RawSubtitle is the named sub-entity list Takeout uses for channels.
type RawSubtitle struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}
