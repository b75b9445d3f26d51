package analytics

import (
	"math"
	"time"

	"github.com/runnerr0/watchmirror/internal/history"
)

// Trend labels for year-over-year diversity drift.
const (
	TrendUnknown   = "unknown"
	TrendStable    = "stable"
	TrendNarrowing = "narrowing"
	TrendExpanding = "expanding"
)

// Phase labels for the learning curve.
const (
	PhaseUnknown     = "unknown"
	PhaseExploring   = "exploring"
	PhaseEchoChamber = "echo_chamber"
	PhaseNarrowing   = "narrowing"
	PhaseDiverse     = "diverse"
)

// EchoChamberChannels is how many top channels count toward echo-chamber
// strength.
const EchoChamberChannels = 5

var nightHours = []int{23, 0, 1, 2, 3, 4, 5}

// Metrics is the full set of behavioral metrics for one record set.
type Metrics struct {
	Diversity   float64 `json:"diversityScore"`
	EchoChamber float64 `json:"echoStrength"`
	Binge       float64 `json:"bingeScore"`
	PeakHour    int     `json:"peakHour"`
	NightOwl    float64 `json:"nightOwlScore"`

	Drift           float64         `json:"algorithmicDrift"`
	Trend           string          `json:"diversityTrend"`
	YearlyDiversity map[int]float64 `json:"yearlyDiversity"`
	PivotalMoments  []PivotalMoment `json:"pivotalMoments"`

	// LearningPoint is the quarter (1-3) after which diversity dropped the
	// most, or nil when there is no drop or too little data.
	LearningPoint      *int      `json:"learningPoint"`
	QuarterlyDiversity []float64 `json:"quarterlyDiversity,omitempty"`
	MaxDrop            float64   `json:"maxDrop"`
	Phase              string    `json:"currentPhase"`
}

// Options tunes metric computation.
type Options struct {
	SessionGap time.Duration
}

// Compute aggregates records and derives every metric. Records should be in
// chronological order.
func Compute(records []history.Record, opts Options) Metrics {
	return ComputeView(Aggregate(records), records, opts)
}

// ComputeView derives metrics from an existing aggregate of records.
func ComputeView(v View, records []history.Record, opts Options) Metrics {
	if v.Total == 0 || len(records) == 0 {
		return Metrics{
			Trend:           TrendUnknown,
			Phase:           PhaseUnknown,
			YearlyDiversity: map[int]float64{},
			PivotalMoments:  []PivotalMoment{},
		}
	}

	m := Metrics{
		Diversity:   Diversity(v.Channels),
		EchoChamber: EchoChamberStrength(v),
		Binge:       BingeScore(records, opts.SessionGap),
		PeakHour:    PeakHour(v.Hours),
		NightOwl:    NightOwlScore(v.Hours, v.Total),
	}
	m.Drift, m.Trend, m.YearlyDiversity = Drift(records)
	m.PivotalMoments = PivotalMoments(records)

	lc := LearningCurve(records)
	m.LearningPoint = lc.Point
	m.QuarterlyDiversity = lc.Quarters
	m.MaxDrop = lc.MaxDrop
	m.Phase = lc.Phase
	return m
}

// Diversity is the Shannon entropy of the count distribution divided by its
// maximum, log2 of the number of keys. It is 0 for one key or fewer.
func Diversity[K comparable](counts map[K]int) float64 {
	if len(counts) <= 1 {
		return 0
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return 0
	}

	var entropy float64
	for _, n := range counts {
		if n > 0 {
			p := float64(n) / float64(total)
			entropy -= p * math.Log2(p)
		}
	}
	d := entropy / math.Log2(float64(len(counts)))
	return math.Max(0, math.Min(1, d))
}

// EchoChamberStrength is the percentage of records from the top five
// channels.
func EchoChamberStrength(v View) float64 {
	if v.Total == 0 {
		return 0
	}
	top := 0
	for i, c := range v.TopChannels {
		if i == EchoChamberChannels {
			break
		}
		top += c.Count
	}
	return float64(top) / float64(v.Total) * 100
}

// PeakHour returns the busiest hour, the earliest one on ties.
func PeakHour(hours [24]int) int {
	peak, top := 0, 0
	for h, n := range hours {
		if n > top {
			top = n
			peak = h
		}
	}
	return peak
}

// NightOwlScore is the percentage of records watched between 23:00 and
// 05:59.
func NightOwlScore(hours [24]int, total int) float64 {
	if total == 0 {
		return 0
	}
	night := 0
	for _, h := range nightHours {
		night += hours[h]
	}
	return float64(night) / float64(total) * 100
}
