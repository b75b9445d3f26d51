package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/watchmirror/internal/history"
	"github.com/runnerr0/watchmirror/internal/oracle"
	"github.com/runnerr0/watchmirror/internal/storage"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"30d", 30 * 24 * time.Hour},
		{"24h", 24 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
		{"90m", 90 * time.Minute},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "d", "10", "10y", "-5d", "abcd"} {
		_, err := parseDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", formatNumber(0))
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "123,456", formatNumber(123456))
	assert.Equal(t, "1,234,567", formatNumber(int64(1234567)))
	assert.Equal(t, "-12,345", formatNumber(-12345))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2<<20))
	assert.Equal(t, "1.0 GB", formatBytes(1<<30))
}

func TestFormatDurationHuman(t *testing.T) {
	assert.Equal(t, "1 day", formatDurationHuman(24*time.Hour))
	assert.Equal(t, "30 days", formatDurationHuman(30*24*time.Hour))
	assert.Equal(t, "5 hours", formatDurationHuman(5*time.Hour))
	assert.Equal(t, "1 hour", formatDurationHuman(time.Hour))
	assert.Equal(t, "30m0s", formatDurationHuman(30*time.Minute))
}

func TestClassifyFile(t *testing.T) {
	cfg := testConfig(t)

	records, stats, err := classifyFile(context.Background(), cfg, writeFixture(t), nil, false)
	require.NoError(t, err)
	require.Len(t, records, 7)

	assert.Equal(t, 7, stats.Total)
	assert.Equal(t, 4, stats.KeywordCategorized)
	assert.Equal(t, 1, stats.ContextCategorized)
	assert.Zero(t, stats.AICategorized)
	assert.Equal(t, []string{"qqxx", "Sponsored spot"}, stats.Uncategorized)

	assert.Equal(t, history.Gaming, records[0].Category)
	assert.Equal(t, history.Gaming, records[1].Category, "channel consensus")
	assert.Equal(t, history.Music, records[2].Category)
	assert.Equal(t, history.Tech, records[3].Category)
	assert.Equal(t, history.News, records[5].Category)
}

func TestClassifyFile_ChannelDenylist(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ingest.ExcludeChannels = []string{"adco"}

	records, stats, err := classifyFile(context.Background(), cfg, writeFixture(t), nil, false)
	require.NoError(t, err)
	assert.Len(t, records, 6)
	assert.Equal(t, []string{"qqxx"}, stats.Uncategorized)
	for i, r := range records {
		assert.Equal(t, i, r.SequenceIndex)
	}
}

func TestClassifyFile_DenylistRemovesEverything(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ingest.ExcludeRegex = []string{".*"}

	_, _, err := classifyFile(context.Background(), cfg, writeFixture(t), nil, false)
	assert.ErrorIs(t, err, history.ErrNoValidRecords)
}

func TestClassifyFile_ExtraPatterns(t *testing.T) {
	cfg := testConfig(t)
	cfg.Classifier.ExtraPatterns = map[string][]string{"comedy": {"xyzzy"}}

	_, stats, err := classifyFile(context.Background(), cfg, writeFixture(t), nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sponsored spot"}, stats.Uncategorized)
}

func TestClassifyFile_MissingFile(t *testing.T) {
	_, _, err := classifyFile(context.Background(), testConfig(t), "/nonexistent/export.json", nil, false)
	assert.Error(t, err)
}

func TestBuildPipeline_GeminiWithoutKeyRunsWithoutOracle(t *testing.T) {
	t.Setenv("WATCHMIRROR_TEST_UNSET_KEY", "")
	cfg := testConfig(t)
	cfg.Oracle.Provider = "gemini"
	cfg.Oracle.GeminiKeyEnv = "WATCHMIRROR_TEST_UNSET_KEY"

	p, err := buildPipeline(cfg, nil, false)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestBuildPipeline_UnknownProviderFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Oracle.Provider = "openai"

	_, err := buildPipeline(cfg, nil, false)
	assert.ErrorIs(t, err, oracle.ErrUnknownProvider)

	_, err = buildPipeline(cfg, nil, true)
	assert.NoError(t, err, "no-oracle skips provider setup")
}

func TestResolveRun(t *testing.T) {
	store, _ := openTestStore(t)
	cfg := testConfig(t)
	ctx := context.Background()

	_, err := resolveRun(ctx, store, latestRun)
	assert.ErrorIs(t, err, storage.ErrRunNotFound)

	run := ingestFixture(t, cfg, store)

	for _, ref := range []string{"", latestRun, run.ID, run.ID[:6]} {
		got, err := resolveRun(ctx, store, ref)
		require.NoError(t, err, ref)
		assert.Equal(t, run.ID, got.ID)
	}
}

func TestRunStats(t *testing.T) {
	run := &storage.Run{Total: 3, KeywordCategorized: 1, ContextCategorized: 1}
	records := []history.Record{
		{Title: "a", Category: history.Music},
		{Title: "b", Category: history.Entertainment},
		{Title: "c", Category: history.Gaming},
	}
	stats := runStats(run, records)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, []string{"b"}, stats.Uncategorized)
}
