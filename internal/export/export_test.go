package export

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/runnerr0/watchmirror/internal/classify"
	"github.com/runnerr0/watchmirror/internal/history"
)

var berlin = mustLoad("Europe/Berlin")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, 3600)
	}
	return loc
}

func sampleRecords() []history.Record {
	return []history.Record{
		{
			Title:     `Say "hi" <b>`,
			Channel:   "Chan, Inc",
			Category:  history.Gaming,
			Timestamp: time.Date(2024, 1, 7, 0, 30, 5, 0, berlin),
			SourceURL: "https://www.youtube.com/watch?v=a&t=1",
		},
		{
			Title:     "Second",
			Channel:   "Other",
			Category:  history.Music,
			Timestamp: time.Date(2024, 1, 8, 21, 0, 0, 0, berlin),
		},
		{
			Title:     "Third",
			Channel:   "Chan, Inc",
			Category:  history.Gaming,
			Timestamp: time.Date(2024, 1, 9, 9, 15, 0, 0, berlin),
		},
	}
}

func TestBuild(t *testing.T) {
	stats := classify.Stats{Total: 3, KeywordCategorized: 2, ContextCategorized: 1}
	now := time.Date(2024, 2, 1, 12, 0, 0, 123e6, time.UTC)

	doc := Build(sampleRecords(), stats, now)

	assert.Equal(t, 3, doc.Metadata.TotalVideos)
	assert.Equal(t, "2024-02-01T12:00:00.123Z", doc.Metadata.ExportDate)
	assert.Equal(t, 2, doc.Metadata.UniqueChannels)
	assert.Equal(t, "2024-01-06T23:30:05.000Z", doc.Metadata.DateRange.First)
	assert.Equal(t, "2024-01-09T08:15:00.000Z", doc.Metadata.DateRange.Last)
	assert.Equal(t, []string{}, doc.Metadata.CategorizationStats.Uncategorized)

	assert.Equal(t, map[string]CategorySummary{
		"Gaming": {Count: 2, Percentage: "66.67%", UniqueChannels: 1},
		"Music":  {Count: 1, Percentage: "33.33%", UniqueChannels: 1},
	}, doc.CategorySummary)

	require.Len(t, doc.Videos, 3)
	assert.Equal(t, Video{
		Title:     `Say "hi" <b>`,
		Channel:   "Chan, Inc",
		Category:  "Gaming",
		Date:      "2024-01-07",
		Time:      "00:30:05",
		DayOfWeek: "Sunday",
		Hour:      0,
		Year:      2024,
		URL:       "https://www.youtube.com/watch?v=a&t=1",
	}, doc.Videos[0])
}

func TestBuild_Empty(t *testing.T) {
	doc := Build(nil, classify.Stats{}, time.Unix(0, 0))
	assert.Zero(t, doc.Metadata.TotalVideos)
	assert.Empty(t, doc.Metadata.DateRange.First)
	assert.NotNil(t, doc.Videos)
	assert.Empty(t, doc.CategorySummary)
}

func TestWriteJSON_Format(t *testing.T) {
	var buf bytes.Buffer
	doc := Build(sampleRecords(), classify.Stats{Total: 3}, time.Unix(0, 0))
	require.NoError(t, WriteJSON(&buf, doc))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{\n  \"metadata\": {\n    \"totalVideos\": 3,"), out[:60])
	assert.Contains(t, out, `"title": "Say \"hi\" <b>"`, "no HTML escaping")
	assert.Contains(t, out, `&t=1"`)
	assert.Contains(t, out, `"percentage": "66.67%"`)
	assert.Less(t, strings.Index(out, `"Gaming": {`), strings.Index(out, `"Music": {`))
	assert.Contains(t, out, `"uncategorized": []`)
}

func TestJSON_RoundTrip(t *testing.T) {
	records := sampleRecords()
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Build(records, classify.Stats{}, time.Now())))

	doc, err := ReadJSON(&buf)
	require.NoError(t, err)
	got, err := doc.Records(berlin)
	require.NoError(t, err)

	require.Len(t, got, len(records))
	for i := range records {
		assert.Equal(t, records[i].Channel, got[i].Channel)
		assert.Equal(t, records[i].Category, got[i].Category)
		assert.True(t, records[i].Timestamp.Equal(got[i].Timestamp))
		assert.Equal(t, records[i].SourceURL, got[i].SourceURL)
	}
}

func TestJSON_RoundTripProperty(t *testing.T) {
	cats := history.DefaultTaxonomy().Categories()

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n")
		records := make([]history.Record, n)
		for i := range records {
			secs := rapid.Int64Range(0, 2_000_000_000).Draw(t, "unix")
			records[i] = history.Record{
				Title:     rapid.String().Draw(t, "title"),
				Channel:   rapid.String().Draw(t, "channel"),
				Category:  rapid.SampledFrom(cats).Draw(t, "category"),
				Timestamp: time.Unix(secs, 0).In(time.UTC),
			}
		}

		var buf bytes.Buffer
		if err := WriteJSON(&buf, Build(records, classify.Stats{}, time.Unix(0, 0))); err != nil {
			t.Fatalf("write: %v", err)
		}
		doc, err := ReadJSON(&buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		got, err := doc.Records(time.UTC)
		if err != nil {
			t.Fatalf("records: %v", err)
		}

		for i, r := range records {
			want := fmt.Sprintf("%s|%s|%s|%d", r.Channel, r.Category, r.Timestamp.Format(DateLayout), r.Timestamp.Hour())
			have := fmt.Sprintf("%s|%s|%s|%d", got[i].Channel, got[i].Category, got[i].Timestamp.Format(DateLayout), got[i].Timestamp.Hour())
			if want != have {
				t.Fatalf("record %d: want %q, got %q", i, want, have)
			}
		}
	})
}

func TestReadJSON_Malformed(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"videos": [`))
	assert.Error(t, err)
}

func TestRecords_BadTimestamp(t *testing.T) {
	doc := Document{Videos: []Video{{Date: "2024-13-01", Time: "10:00:00"}}}
	_, err := doc.Records(time.UTC)
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	want := strings.Join([]string{
		CSVHeader,
		`"Say ""hi"" <b>","Chan, Inc",Gaming,2024-01-07,00:30:05,Sunday,0,2024,https://www.youtube.com/watch?v=a&t=1`,
		`"Second","Other",Music,2024-01-08,21:00:00,Monday,21,2024,`,
		`"Third","Chan, Inc",Gaming,2024-01-09,09:15:00,Tuesday,9,2024,`,
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, CSVHeader, buf.String())
}
