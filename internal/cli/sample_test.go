package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/watchmirror/internal/history"
)

func TestSample_WritesNormalizableExport(t *testing.T) {
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cmd := &SampleCommand{Count: 50, Years: 2, Seed: 7}

	var buf bytes.Buffer
	require.NoError(t, cmd.execute(&buf, end))

	var entries []history.RawEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	require.Len(t, entries, 50)

	records, err := history.NewNormalizer(time.UTC).Normalize(entries)
	require.NoError(t, err)
	assert.Len(t, records, 50)
	assert.False(t, records[0].Timestamp.Before(end.AddDate(-2, 0, -1)))
	assert.False(t, records[len(records)-1].Timestamp.After(end.AddDate(0, 0, 1)))
}

func TestSample_Deterministic(t *testing.T) {
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	var a, b, c bytes.Buffer
	require.NoError(t, (&SampleCommand{Count: 20, Years: 1, Seed: 3}).execute(&a, end))
	require.NoError(t, (&SampleCommand{Count: 20, Years: 1, Seed: 3}).execute(&b, end))
	require.NoError(t, (&SampleCommand{Count: 20, Years: 1, Seed: 4}).execute(&c, end))

	assert.Equal(t, a.String(), b.String())
	assert.NotEqual(t, a.String(), c.String())
}

func TestSample_RejectsBadArgs(t *testing.T) {
	end := time.Now()
	assert.Error(t, (&SampleCommand{Count: 0, Years: 1}).execute(&bytes.Buffer{}, end))
	assert.Error(t, (&SampleCommand{Count: 10, Years: 0}).execute(&bytes.Buffer{}, end))
}
