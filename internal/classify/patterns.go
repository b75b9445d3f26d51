package classify

import (
	"sort"

	"github.com/runnerr0/watchmirror/internal/history"
)

// PatternSet is the keyword list scored for one category.
type PatternSet struct {
	Category history.Category
	Patterns []string
}

// DefaultPatterns returns the built-in multi-language keyword table. Order
// matters: it fixes the tie-break between equally scored categories.
func DefaultPatterns() []PatternSet {
	return []PatternSet{
		{history.Gaming, []string{
			"gaming", "games", "gameplay", "twitch", "streamer", "plays", "speedrun",
			"ign", "gamespot", "polygon", "kotaku", "game theory", "dunkey",
			"markiplier", "jacksepticeye", "pewdiepie", "ninja", "pokimane",
			"esports", "competitive", "walkthrough", "let's play",
			// Filipino, Spanish, French, German
			"laro", "naglalaro",
			"juego", "jugando",
			"jeu", "joueur",
			"spiel", "spielen",
		}},
		{history.Music, []string{
			"music", "vevo", "records", "audio", "official video", "official audio",
			"rapper", "singer", "band", "artist", "musician", "dj",
			"spotify", "soundcloud", "mv", "lyrics", "topic", "-topic", "official music",
			"musika", "kanta", "awit",
			"música", "canción",
			"musique", "chanson",
			"musik", "lied",
		}},
		{history.Education, []string{
			"academy", "university", "college", "school", "edu", "course",
			"lecture", "lesson", "class", "tutorial", "learn", "teach",
			"khan", "crash course", "ted-ed", "professor",
			"paaralan", "eskwela",
			"escuela", "universidad",
			"école", "université",
			"schule", "universität",
		}},
		{history.Tech, []string{
			"tech", "technology", "review", "unbox", "gadget", "device",
			"mkbhd", "linus", "verge", "cnet", "engadget", "wired",
			"phone", "laptop", "computer", "android", "apple", "samsung",
			"teknolohiya", "cellphone",
		}},
		{history.News, []string{
			"news", "network", "press", "media", "journalism", "reporter",
			"cnn", "bbc", "fox", "nbc", "abc", "cbs", "msnbc",
			"breaking", "live", "today", "tonight", "headlines",
			"balita", "ulat",
			"noticias", "informes",
			"nouvelles", "actualités",
			"nachrichten", "aktuell",
			"berita",
			"خبر", "أخبار",
		}},
		{history.Science, []string{
			"science", "vsauce", "veritasium", "kurzgesagt", "asap",
			"physics", "chemistry", "biology", "space", "nasa",
			"research", "lab", "experiment", "scientific",
			"agham", "siyensya",
			"ciencia",
			"wissenschaft",
		}},
		{history.Documentary, []string{
			"documentary", "national geographic", "discovery", "nature",
			"history channel", "bbc earth", "smithsonian", "vice",
			"frontline", "nova", "planet earth",
			"dokumentaryo", "docu",
		}},
		{history.Sports, []string{
			"sport", "espn", "nfl", "nba", "mlb", "nhl", "fifa",
			"football", "basketball", "soccer", "baseball", "hockey",
			"athlete", "olympics", "championship", "tournament",
			"palakasan",
			"deporte", "fútbol",
			"sport", "football",
		}},
		{history.Cooking, []string{
			"cooking", "recipe", "food", "chef", "kitchen", "tasty",
			"binging", "babish", "gordon ramsay", "bon appetit",
			"cuisine", "baking", "meal prep",
			"lutuin", "kusina", "pagluluto", "ulam",
			"cocina", "receta",
			"cuisine", "recette",
			"kochen", "rezept",
		}},
		{history.Fitness, []string{
			"fitness", "workout", "gym", "training", "exercise",
			"yoga", "crossfit", "bodybuilding", "cardio", "hiit",
			"athlete", "nutrition", "muscle",
			"ehersisyo",
		}},
		{history.Vlog, []string{
			"vlog", "daily", "day in", "life", "routine", "diary",
			"casey neistat", "david dobrik", "emma chamberlain",
			"araw ko", "buhay ko", "kwentuhan", "chika",
			"mi vida", "mi día",
			"ma vie", "mon jour",
			"mein leben",
		}},
		{history.Podcast, []string{
			"podcast", "joe rogan", "interview", "talk show", "discussion",
			"conversation", "episode", "h3", "tiny meat gang",
			"usapan", "panayam",
		}},
	}
}

// MergePatterns appends user keywords to a pattern table. Keywords for a
// category already in the table are added to its list; new categories are
// appended in name order so the result is deterministic.
func MergePatterns(base []PatternSet, extra map[string][]string, tax *history.Taxonomy) []PatternSet {
	out := make([]PatternSet, len(base))
	index := make(map[history.Category]int, len(base))
	for i, ps := range base {
		out[i] = PatternSet{Category: ps.Category, Patterns: append([]string(nil), ps.Patterns...)}
		index[ps.Category] = i
	}

	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cat, ok := tax.Normalize(name)
		if !ok || cat.IsFallback() {
			continue
		}
		if i, ok := index[cat]; ok {
			out[i].Patterns = append(out[i].Patterns, extra[name]...)
			continue
		}
		index[cat] = len(out)
		out = append(out, PatternSet{Category: cat, Patterns: append([]string(nil), extra[name]...)})
	}
	return out
}
