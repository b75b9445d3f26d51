package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/runnerr0/watchmirror/internal/history"
)

const (
	driftThreshold     = 0.2
	pivotalThreshold   = 0.3
	maxPivotalMoments  = 5
	learningMinRecords = 100
)

// PivotalMoment is a month whose distinct-channel ratio moved sharply from
// the previous month with data.
type PivotalMoment struct {
	Month     string  `json:"date"`
	Direction string  `json:"type"`
	Before    float64 `json:"before"`
	After     float64 `json:"after"`
}

// Description is a human-readable summary of the moment.
func (p PivotalMoment) Description() string {
	verb := "increased"
	if p.Direction == TrendNarrowing {
		verb = "decreased"
	}
	return fmt.Sprintf("Viewing diversity %s significantly", verb)
}

// Drift compares channel diversity of the first and last calendar year.
// Positive drift means the viewer narrowed over time.
func Drift(records []history.Record) (float64, string, map[int]float64) {
	yearly := make(map[int]float64)
	if len(records) < 2 {
		return 0, TrendStable, yearly
	}

	byYear := make(map[int]map[string]int)
	for _, r := range records {
		y := r.Timestamp.Year()
		if byYear[y] == nil {
			byYear[y] = make(map[string]int)
		}
		byYear[y][r.Channel]++
	}

	years := make([]int, 0, len(byYear))
	for y, channels := range byYear {
		yearly[y] = Diversity(channels)
		years = append(years, y)
	}
	sort.Ints(years)

	drift := yearly[years[0]] - yearly[years[len(years)-1]]
	trend := TrendStable
	switch {
	case drift > driftThreshold:
		trend = TrendNarrowing
	case drift < -driftThreshold:
		trend = TrendExpanding
	}
	return drift, trend, yearly
}

type monthBucket struct {
	records  int
	channels map[string]struct{}
}

// PivotalMoments walks calendar months in order and flags those whose
// distinct-channels-per-record ratio changed by more than 0.3. At most five
// moments are returned, earliest first.
func PivotalMoments(records []history.Record) []PivotalMoment {
	moments := []PivotalMoment{}
	if len(records) < 2 {
		return moments
	}

	buckets := make(map[string]*monthBucket)
	for _, r := range records {
		key := r.Timestamp.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &monthBucket{channels: make(map[string]struct{})}
			buckets[key] = b
		}
		b.records++
		b.channels[r.Channel] = struct{}{}
	}

	months := make([]string, 0, len(buckets))
	for k := range buckets {
		months = append(months, k)
	}
	sort.Strings(months)

	ratio := func(b *monthBucket) float64 {
		return float64(len(b.channels)) / float64(b.records)
	}
	for i := 1; i < len(months) && len(moments) < maxPivotalMoments; i++ {
		prev, curr := ratio(buckets[months[i-1]]), ratio(buckets[months[i]])
		if math.Abs(prev-curr) <= pivotalThreshold {
			continue
		}
		dir := TrendExpanding
		if curr < prev {
			dir = TrendNarrowing
		}
		moments = append(moments, PivotalMoment{Month: months[i], Direction: dir, Before: prev, After: curr})
	}
	return moments
}

// Curve is the result of LearningCurve.
type Curve struct {
	Point    *int
	Quarters []float64
	MaxDrop  float64
	Phase    string
}

// LearningCurve splits chronologically ordered records into four quarters
// and finds the largest drop in channel diversity between consecutive
// quarters. The last quarter's diversity sets the current phase.
func LearningCurve(records []history.Record) Curve {
	if len(records) < learningMinRecords {
		return Curve{Phase: PhaseExploring}
	}

	size := len(records) / 4
	quarters := make([]float64, 4)
	for q := 0; q < 4; q++ {
		lo, hi := q*size, (q+1)*size
		if q == 3 {
			hi = len(records)
		}
		channels := make(map[string]int)
		for _, r := range records[lo:hi] {
			channels[r.Channel]++
		}
		quarters[q] = Diversity(channels)
	}

	c := Curve{Quarters: quarters}
	for i := 1; i < len(quarters); i++ {
		if drop := quarters[i-1] - quarters[i]; drop > c.MaxDrop {
			c.MaxDrop = drop
			point := i
			c.Point = &point
		}
	}

	switch current := quarters[3]; {
	case current < 0.3:
		c.Phase = PhaseEchoChamber
	case current < 0.6:
		c.Phase = PhaseNarrowing
	default:
		c.Phase = PhaseDiverse
	}
	return c
}
