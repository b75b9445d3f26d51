package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelFilter(t *testing.T) {
	f, err := NewChannelFilter([]string{"Ads Channel", "  "}, []string{`(?i)^promo`})
	require.NoError(t, err)

	assert.True(t, f.Excluded("ads channel"))
	assert.True(t, f.Excluded("PromoHub"))
	assert.False(t, f.Excluded("MKBHD"))
	assert.False(t, f.Excluded(""))

	var none *ChannelFilter
	assert.False(t, none.Excluded("anything"))
}

func TestChannelFilter_InvalidPattern(t *testing.T) {
	_, err := NewChannelFilter(nil, []string{"("})
	assert.Error(t, err)
}

func TestChannelFilter_ApplyReindexes(t *testing.T) {
	f, err := NewChannelFilter([]string{"Skip"}, nil)
	require.NoError(t, err)

	in := []Record{
		{Title: "a", Channel: "Keep", SequenceIndex: 0},
		{Title: "b", Channel: "Skip", SequenceIndex: 1},
		{Title: "c", Channel: "Keep", SequenceIndex: 2},
	}
	out, dropped := f.Apply(in)

	assert.Equal(t, 1, dropped)
	require.Len(t, out, 2)
	assert.Equal(t, "c", out[1].Title)
	assert.Equal(t, 1, out[1].SequenceIndex)
	assert.Equal(t, 2, in[2].SequenceIndex, "input untouched")
}

func TestGenerateSample_Deterministic(t *testing.T) {
	end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	opts := SampleOptions{Count: 200, End: end, Seed: 42}

	a := GenerateSample(opts)
	b := GenerateSample(opts)
	require.Len(t, a, 200)
	assert.Equal(t, a, b)

	other := GenerateSample(SampleOptions{Count: 200, End: end, Seed: 7})
	assert.NotEqual(t, a, other)
}

func TestGenerateSample_NormalizesCleanly(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := GenerateSample(SampleOptions{Count: 300, Start: start, End: end, Seed: 1})

	records, err := NewNormalizer(time.UTC).Normalize(entries)
	require.NoError(t, err)
	require.Len(t, records, 300)

	for _, r := range records {
		assert.NotContains(t, r.Title, "Watched ")
		assert.NotEqual(t, UnknownChannel, r.Channel)
		assert.False(t, r.Timestamp.Before(start))
		assert.True(t, r.Timestamp.Before(end))
	}
}

func TestGenerateSample_LateEntriesNarrow(t *testing.T) {
	entries := GenerateSample(SampleOptions{Count: 400, Seed: 3})

	allowed := map[string]bool{}
	for _, g := range sampleChannels[:3] {
		for _, c := range g.channels {
			allowed[c] = true
		}
	}
	for _, e := range entries[240:] {
		assert.True(t, allowed[e.Subtitles[0].Name], e.Subtitles[0].Name)
	}
}
