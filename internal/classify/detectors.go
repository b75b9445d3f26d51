package classify

import (
	"regexp"

	"github.com/runnerr0/watchmirror/internal/history"
)

// detector awards a fixed bonus to one category when a structural signal is
// present. Detectors are independent and additive.
type detector struct {
	category history.Category
	bonus    int
	// title is matched against the lower-cased title.
	title *regexp.Regexp
	// combined, when set, is matched against "title | channel". If title is
	// also set both must match.
	combined *regexp.Regexp
}

func (d detector) matches(title, combined string) bool {
	if d.title != nil && !d.title.MatchString(title) {
		return false
	}
	if d.combined != nil && !d.combined.MatchString(combined) {
		return false
	}
	return true
}

func defaultDetectors() []detector {
	return []detector{
		{
			category: history.Gaming, bonus: 15,
			title:    regexp.MustCompile(`(?i)\b(ep|episode|part)\s*\d+`),
			combined: regexp.MustCompile(`(?i)game|play|stream`),
		},
		{
			category: history.Music, bonus: 20,
			title: regexp.MustCompile(`(?i)\(official\s+(video|audio|music\s+video|lyric\s+video)\)`),
		},
		{
			category: history.Music, bonus: 10,
			title: regexp.MustCompile(`(?i)\bft\.|feat\.|featuring|prod\.|produced\sby`),
		},
		{
			category: history.Tutorial, bonus: 15,
			title: regexp.MustCompile(`(?i)\bhow\s+to\b|\btutorial\b|\bguide\b|\blearn\b`),
		},
		{
			category: history.Education, bonus: 15,
			title: regexp.MustCompile(`(?i)\bexplained\b|\bunderstanding\b|\blesson\b`),
		},
		{
			category: history.Tech, bonus: 10,
			title: regexp.MustCompile(`(?i)\breview\b|\bunboxing\b|\bvs\b|\bcomparison\b`),
		},
		{
			category: history.News, bonus: 15,
			title:    regexp.MustCompile(`(?i)\bbreaking\b|\blive\b|\btoday\b|\bupdate\b|\blive\s+stream\b`),
			combined: regexp.MustCompile(`(?i)news|report|press`),
		},
		{
			category: history.Podcast, bonus: 15,
			title:    regexp.MustCompile(`(?i)#\d+|ep\s*\d+|\bepisode\s+\d+`),
			combined: regexp.MustCompile(`(?i)podcast|interview|talk|discussion`),
		},
		{
			category: history.Comedy, bonus: 12,
			combined: regexp.MustCompile(`(?i)\bfunny\b|\bcomedy\b|\bstandup\b|\bsketch\b|\bparody\b|\broast\b`),
		},
		{
			category: history.Vlog, bonus: 15,
			title: regexp.MustCompile(`(?i)\bvlog\b|\bday\s+in\b|\bmy\s+life\b|\broutine\b|\bgrwm\b`),
		},
		{
			category: history.ASMR, bonus: 20,
			combined: regexp.MustCompile(`(?i)\basmr\b`),
		},
	}
}
