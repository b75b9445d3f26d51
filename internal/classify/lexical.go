package classify

import (
	"regexp"
	"strings"

	"github.com/runnerr0/watchmirror/internal/history"
)

// DefaultThreshold is the minimum score a category needs to win.
const DefaultThreshold = 10

// Keyword weights.
const (
	channelMatchWeight = 10
	titleMatchWeight   = 5
	phraseMatchWeight  = 3
)

// Rules is the immutable configuration of a LexicalClassifier.
type Rules struct {
	Patterns  []PatternSet
	Threshold int
}

// DefaultRules returns the built-in pattern table and threshold.
func DefaultRules() Rules {
	return Rules{Patterns: DefaultPatterns(), Threshold: DefaultThreshold}
}

type compiledPattern struct {
	literal string
	re      *regexp.Regexp
}

type compiledSet struct {
	category history.Category
	patterns []compiledPattern
}

// LexicalClassifier assigns a category from title and channel text alone.
// It is safe for concurrent use.
type LexicalClassifier struct {
	sets      []compiledSet
	order     []history.Category
	detectors []detector
	threshold int
}

// NewLexicalClassifier compiles rules into a classifier.
func NewLexicalClassifier(rules Rules) *LexicalClassifier {
	if rules.Threshold <= 0 {
		rules.Threshold = DefaultThreshold
	}

	c := &LexicalClassifier{
		detectors: defaultDetectors(),
		threshold: rules.Threshold,
	}

	seen := make(map[history.Category]bool)
	for _, ps := range rules.Patterns {
		set := compiledSet{category: ps.Category}
		for _, p := range ps.Patterns {
			lit := strings.ToLower(p)
			set.patterns = append(set.patterns, compiledPattern{
				literal: lit,
				re:      regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(lit) + `\b`),
			})
		}
		c.sets = append(c.sets, set)
		if !seen[ps.Category] {
			seen[ps.Category] = true
			c.order = append(c.order, ps.Category)
		}
	}
	for _, d := range c.detectors {
		if !seen[d.category] {
			seen[d.category] = true
			c.order = append(c.order, d.category)
		}
	}
	return c
}

// Classify returns the best category for a title/channel pair. It is a pure
// function of its inputs.
func (c *LexicalClassifier) Classify(title, channel string) history.Category {
	if cat, ok := priorityOverride(strings.ToLower(title), strings.ToLower(channel)); ok {
		return cat
	}

	scores := c.Scores(title, channel)

	best := history.Entertainment
	top := 0
	for _, cat := range c.order {
		if s := scores[cat]; s > top {
			top = s
			best = cat
		}
	}
	if top >= c.threshold {
		return best
	}
	return lastResort(title, channel)
}

// Scores returns the weighted keyword and detector score per category,
// without applying priority overrides.
func (c *LexicalClassifier) Scores(title, channel string) map[history.Category]int {
	lt := strings.ToLower(title)
	lc := strings.ToLower(channel)
	combined := lt + " | " + lc

	scores := make(map[history.Category]int, len(c.order))
	for _, set := range c.sets {
		for _, p := range set.patterns {
			if p.re.MatchString(lc) {
				scores[set.category] += channelMatchWeight
			}
			if p.re.MatchString(lt) {
				scores[set.category] += titleMatchWeight
			}
			if strings.Contains(combined, p.literal) {
				scores[set.category] += phraseMatchWeight
			}
		}
	}

	for _, d := range c.detectors {
		if d.matches(lt, combined) {
			scores[d.category] += d.bonus
		}
	}
	return scores
}

// ClassifyRecord is a convenience wrapper over Classify.
func (c *LexicalClassifier) ClassifyRecord(r history.Record) history.Category {
	return c.Classify(r.Title, r.Channel)
}

var (
	tutorialMarker = regexp.MustCompile(`how to|tutorial|learn`)
	softwareTerm   = regexp.MustCompile(`photoshop|illustrator|after effects|excel|coding|programming`)
	vlogMarker     = regexp.MustCompile(`mukbang|vlog|day in my life`)
)

// priorityOverride applies the unconditional rules evaluated before scoring.
// Inputs are already lower-cased.
func priorityOverride(title, channel string) (history.Category, bool) {
	if strings.Contains(channel, "- topic") {
		return history.Music, true
	}
	if vlogMarker.MatchString(title) {
		return history.Vlog, true
	}
	if tutorialMarker.MatchString(title) && softwareTerm.MatchString(title) {
		return history.Tutorial, true
	}
	return "", false
}

var (
	bracketTitle  = regexp.MustCompile(`^\[.+\]`)
	yearPattern   = regexp.MustCompile(`\d{4}`)
	movieTerm     = regexp.MustCompile(`(?i)movie|film|trailer`)
	capsDashTitle = regexp.MustCompile(`^[A-Z\s]+-`)
	personName    = regexp.MustCompile(`^[A-Z][a-z]+ [A-Z][a-z]+$`)
)

// lastResort looks at title and channel structure when no category scored
// high enough. It works on the original casing.
func lastResort(title, channel string) history.Category {
	lt := strings.ToLower(title)

	switch {
	case bracketTitle.MatchString(title):
		return history.Gaming
	case yearPattern.MatchString(lt) && movieTerm.MatchString(lt):
		return history.Entertainment
	case capsDashTitle.MatchString(title):
		return history.Music
	case len(strings.Split(strings.ToLower(channel), " ")) == 2 && personName.MatchString(channel):
		return history.Vlog
	}
	return history.Entertainment
}
