package history

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// SampleOptions controls GenerateSample.
type SampleOptions struct {
	Count int
	Start time.Time
	End   time.Time
	Seed  uint64
}

var sampleChannels = []struct {
	category Category
	channels []string
}{
	{Gaming, []string{"GameSpot", "IGN", "Markiplier", "PewDiePie", "GameTheory", "Dunkey"}},
	{Music, []string{"Vevo", "Spotify", "NPR Music", "Tiny Desk", "COLORS", "Boiler Room"}},
	{Education, []string{"Khan Academy", "CrashCourse", "TED-Ed", "Veritasium", "3Blue1Brown"}},
	{Tech, []string{"MKBHD", "Unbox Therapy", "LinusTechTips", "The Verge", "CNET"}},
	{Comedy, []string{"SNL", "Comedy Central", "CollegeHumor", "The Onion", "Key & Peele"}},
	{News, []string{"CNN", "BBC", "Vox", "Vice", "The Guardian", "Reuters"}},
	{Cooking, []string{"Bon Appétit", "Binging with Babish", "Gordon Ramsay", "Tasty"}},
	{Science, []string{"Vsauce", "Kurzgesagt", "SmarterEveryDay", "Mark Rober", "NileRed"}},
}

const videoIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSample builds a synthetic watch-history export in the raw entry
// shape. Entries are spread evenly from Start to End; the pool of
// categories narrows as time goes on and most views land in the evening.
// The same options always produce the same entries.
func GenerateSample(opts SampleOptions) []RawEntry {
	if opts.Count <= 0 {
		opts.Count = 500
	}
	if opts.End.IsZero() {
		opts.End = time.Now().UTC()
	}
	if opts.Start.IsZero() || !opts.Start.Before(opts.End) {
		opts.Start = opts.End.AddDate(-5, 0, 0)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	totalDays := int(opts.End.Sub(opts.Start).Hours() / 24)
	day0 := time.Date(opts.Start.Year(), opts.Start.Month(), opts.Start.Day(), 0, 0, 0, 0, time.UTC)

	entries := make([]RawEntry, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		progress := float64(i) / float64(opts.Count)

		factor := 1.0
		switch {
		case progress >= 0.6:
			factor = 0.4
		case progress >= 0.3:
			factor = 0.7
		}
		pool := max(3, int(float64(len(sampleChannels))*factor))

		group := sampleChannels[rng.IntN(pool)]
		channel := group.channels[rng.IntN(len(group.channels))]

		hour := rng.IntN(24)
		if rng.Float64() < 0.7 {
			hour = 19 + rng.IntN(5)
		}
		day := int(progress * float64(totalDays))
		ts := day0.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(rng.IntN(60))*time.Minute)

		id := make([]byte, 11)
		for j := range id {
			id[j] = videoIDAlphabet[rng.IntN(len(videoIDAlphabet))]
		}

		entries = append(entries, RawEntry{
			Header:    "YouTube",
			Title:     fmt.Sprintf("%s%s Video - %s Content %d", watchedPrefix, group.category, channel, i+1),
			TitleURL:  "https://www.youtube.com/watch?v=" + string(id),
			Time:      ts.Format(time.RFC3339),
			Subtitles: []RawSubtitle{{Name: channel}},
		})
	}
	return entries
}
