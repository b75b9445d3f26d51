package history

import (
	"fmt"
	"regexp"
	"strings"
)

// ChannelFilter drops records from excluded channels before classification.
// Names match case-insensitively; patterns are regular expressions matched
// against the channel name.
type ChannelFilter struct {
	names    map[string]bool
	patterns []*regexp.Regexp
}

// NewChannelFilter compiles a filter. An invalid pattern is an error.
func NewChannelFilter(names, patterns []string) (*ChannelFilter, error) {
	f := &ChannelFilter{names: make(map[string]bool, len(names))}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			f.names[strings.ToLower(n)] = true
		}
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// Excluded reports whether channel is blocked.
func (f *ChannelFilter) Excluded(channel string) bool {
	if f == nil {
		return false
	}
	if f.names[strings.ToLower(channel)] {
		return true
	}
	for _, re := range f.patterns {
		if re.MatchString(channel) {
			return true
		}
	}
	return false
}

// Apply returns the records whose channel is not excluded, re-indexed in
// order, and the number dropped. The input slice is not modified.
func (f *ChannelFilter) Apply(records []Record) ([]Record, int) {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Excluded(r.Channel) {
			continue
		}
		r.SequenceIndex = len(out)
		out = append(out, r)
	}
	return out, len(records) - len(out)
}
