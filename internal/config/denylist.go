package config

import "github.com/runnerr0/watchmirror/internal/history"

// ChannelFilter compiles the ingest denylist. Channels listed by name are
// matched case-insensitively; exclude_regex entries are regular expressions.
func (c IngestConfig) ChannelFilter() (*history.ChannelFilter, error) {
	return history.NewChannelFilter(c.ExcludeChannels, c.ExcludeRegex)
}

// HasExclusions reports whether any channel rule is configured.
func (c IngestConfig) HasExclusions() bool {
	return len(c.ExcludeChannels) > 0 || len(c.ExcludeRegex) > 0
}
