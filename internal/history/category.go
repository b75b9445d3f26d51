package history

import (
	"regexp"
	"strings"
)

// Category is one label from the closed content taxonomy.
type Category string

const (
	Gaming        Category = "Gaming"
	Music         Category = "Music"
	Education     Category = "Education"
	Tech          Category = "Tech"
	Comedy        Category = "Comedy"
	News          Category = "News"
	Cooking       Category = "Cooking"
	Sports        Category = "Sports"
	Science       Category = "Science"
	Documentary   Category = "Documentary"
	Podcast       Category = "Podcast"
	Tutorial      Category = "Tutorial"
	Fitness       Category = "Fitness"
	Art           Category = "Art"
	Travel        Category = "Travel"
	Vlog          Category = "Vlog"
	Politics      Category = "Politics"
	Fashion       Category = "Fashion"
	Beauty        Category = "Beauty"
	Finance       Category = "Finance"
	Business      Category = "Business"
	Health        Category = "Health"
	DIY           Category = "DIY"
	Lifestyle     Category = "Lifestyle"
	Review        Category = "Review"
	Reaction      Category = "Reaction"
	Animation     Category = "Animation"
	History       Category = "History"
	Nature        Category = "Nature"
	Language      Category = "Language"
	Religion      Category = "Religion"
	ASMR          Category = "ASMR"
	Kids          Category = "Kids"
	Automotive    Category = "Automotive"
	Photography   Category = "Photography"
	Entertainment Category = "Entertainment"
	Uncategorized Category = "Uncategorized"
)

// Level is a position in the refinement lattice
// Uncategorized -> Fallback -> Resolved.
type Level int

const (
	LevelUncategorized Level = iota
	LevelFallback
	LevelResolved
)

// Level reports where c sits in the refinement lattice.
func (c Category) Level() Level {
	switch c {
	case Uncategorized, "":
		return LevelUncategorized
	case Entertainment:
		return LevelFallback
	default:
		return LevelResolved
	}
}

// IsFallback is true for Entertainment and Uncategorized.
func (c Category) IsFallback() bool {
	return c.Level() != LevelResolved
}

// Taxonomy is the immutable category vocabulary shared by the classifier,
// the oracle runner and the exporters.
type Taxonomy struct {
	categories []Category
	aliases    map[string]Category
	colors     map[Category]string
}

var nonWord = regexp.MustCompile(`[^\w\s]`)

// DefaultTaxonomy returns the built-in category set, alias table and palette.
func DefaultTaxonomy() *Taxonomy {
	t := &Taxonomy{
		categories: []Category{
			Gaming, Music, Education, Tech, Comedy, News, Cooking, Sports,
			Science, Documentary, Podcast, Tutorial, Fitness, Art, Travel,
			Vlog, Politics, Fashion, Beauty, Finance, Business, Health, DIY,
			Lifestyle, Review, Reaction, Animation, History, Nature, Language,
			Religion, ASMR, Kids, Automotive, Photography, Entertainment,
		},
		aliases: make(map[string]Category),
		colors: map[Category]string{
			Gaming: "#9333ea", Music: "#3b82f6", Education: "#10b981",
			Tech: "#06b6d4", Comedy: "#f59e0b", News: "#ef4444",
			Cooking: "#ec4899", Sports: "#84cc16", Science: "#6366f1",
			Travel: "#14b8a6", Entertainment: "#f97316", Documentary: "#8b5cf6",
			Podcast: "#64748b", Tutorial: "#a855f7", Vlog: "#fb923c",
			Art: "#f472b6", Fitness: "#22c55e", Fashion: "#c084fc",
			Beauty: "#f9a8d4", Finance: "#fbbf24", Business: "#059669",
			Health: "#7dd3c0", DIY: "#c2410c", Politics: "#dc2626",
			Lifestyle: "#e879f9", Review: "#0ea5e9", Reaction: "#8b5cf6",
			Animation: "#f59e0b", History: "#92400e", Nature: "#16a34a",
			Language: "#7c3aed", Religion: "#be123c", ASMR: "#db2777",
			Kids: "#fde047", Automotive: "#475569", Photography: "#0891b2",
			Uncategorized: "#6b7280",
		},
	}

	for _, c := range t.categories {
		t.aliases[strings.ToLower(string(c))] = c
	}
	extra := map[string]Category{
		"educational": Education,
		"technology":  Tech,
		"food":        Cooking,
		"sport":       Sports,
		"tutorials":   Tutorial,
		"workout":     Fitness,
		"vlogs":       Vlog,
		"political":   Politics,
		"reviews":     Review,
		"reactions":   Reaction,
		"animated":    Animation,
		"historical":  History,
		"religious":   Religion,
		"children":    Kids,
		"cars":        Automotive,
		"photo":       Photography,
	}
	for k, v := range extra {
		t.aliases[k] = v
	}
	return t
}

// Categories returns the assignable categories in canonical order.
func (t *Taxonomy) Categories() []Category {
	out := make([]Category, len(t.categories))
	copy(out, t.categories)
	return out
}

// Normalize maps a free-text category name (as returned by an oracle) onto
// a canonical category. Punctuation is dropped and matching ignores case.
func (t *Taxonomy) Normalize(name string) (Category, bool) {
	cleaned := strings.TrimSpace(nonWord.ReplaceAllString(name, ""))
	c, ok := t.aliases[strings.ToLower(cleaned)]
	return c, ok
}

// Color returns the display color for c, or the neutral gray.
func (t *Taxonomy) Color(c Category) string {
	if col, ok := t.colors[c]; ok {
		return col
	}
	return "#6b7280"
}
