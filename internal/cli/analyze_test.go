package cli

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/watchmirror/internal/classify"
	"github.com/runnerr0/watchmirror/internal/storage"
)

func decodeReport(t *testing.T, data []byte) analysisReport {
	t.Helper()
	var r analysisReport
	require.NoError(t, json.Unmarshal(data, &r))
	return r
}

func TestAnalyze_FileJSON(t *testing.T) {
	cfg := testConfig(t)
	cmd := &AnalyzeCommand{globals: &GlobalFlags{JSON: true}}
	cmd.Args.File = writeFixture(t)

	var buf bytes.Buffer
	require.NoError(t, cmd.executeWith(cfg, nil, &buf))

	r := decodeReport(t, buf.Bytes())
	assert.Equal(t, cmd.Args.File, r.Source)
	assert.EqualValues(t, "all", r.Period)
	assert.Equal(t, 7, r.Records)
	assert.Equal(t, 6, r.UniqueChannels)
	assert.Equal(t, 4, r.Stats.KeywordCategorized)
	assert.Equal(t, 1, r.Stats.ContextCategorized)
	assert.Equal(t, []string{"qqxx", "Sponsored spot"}, r.Stats.Uncategorized)
	assert.NotEmpty(t, r.Archetype.Name)
	require.NotEmpty(t, r.TopChannels)
	assert.Equal(t, "GameGrumps", r.TopChannels[0].Channel)
	assert.Equal(t, 2, r.TopChannels[0].Count)
	assert.NotEmpty(t, r.AvailablePeriods)

	raw := map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	for _, key := range []string{"categorizationStats", "metrics", "archetype", "topChannels", "categories", "years"} {
		assert.Contains(t, raw, key)
	}
}

func TestAnalyze_PeriodMonth(t *testing.T) {
	cfg := testConfig(t)
	cmd := &AnalyzeCommand{globals: &GlobalFlags{JSON: true}, Period: "month"}
	cmd.Args.File = writeFixture(t)

	var buf bytes.Buffer
	require.NoError(t, cmd.executeWith(cfg, nil, &buf))

	r := decodeReport(t, buf.Bytes())
	assert.EqualValues(t, "month", r.Period)
	assert.Equal(t, 4, r.Records)
	assert.Equal(t, 7, r.Stats.Total, "stats describe the whole export")
}

func TestAnalyze_PeriodFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analysis.Period = "month"
	cmd := &AnalyzeCommand{globals: &GlobalFlags{JSON: true}}
	cmd.Args.File = writeFixture(t)

	var buf bytes.Buffer
	require.NoError(t, cmd.executeWith(cfg, nil, &buf))
	assert.Equal(t, 4, decodeReport(t, buf.Bytes()).Records)
}

func TestAnalyze_UnknownPeriod(t *testing.T) {
	cmd := &AnalyzeCommand{globals: &GlobalFlags{}, Period: "decade"}
	cmd.Args.File = writeFixture(t)

	err := cmd.executeWith(testConfig(t), nil, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown period")
}

func TestAnalyze_HumanOutput(t *testing.T) {
	cmd := &AnalyzeCommand{globals: &GlobalFlags{}}
	cmd.Args.File = writeFixture(t)

	var buf bytes.Buffer
	require.NoError(t, cmd.executeWith(testConfig(t), nil, &buf))

	out := buf.String()
	assert.Contains(t, out, "Records:        7")
	assert.Contains(t, out, "4 by keyword, 1 by context, 0 by oracle, 2 uncategorized")
	assert.Contains(t, out, "Diversity:")
	assert.Contains(t, out, "Archetype:")
	assert.Contains(t, out, "Top Categories:")
	assert.Contains(t, out, "Top Channels:")
	assert.Contains(t, out, "GameGrumps")
}

func TestAnalyze_StoredRun(t *testing.T) {
	cfg := testConfig(t)
	store, _ := openTestStore(t)
	run := ingestFixture(t, cfg, store)

	for _, ref := range []string{"", run.ID[:8]} {
		cmd := &AnalyzeCommand{globals: &GlobalFlags{JSON: true}, Run: ref}

		var buf bytes.Buffer
		require.NoError(t, cmd.executeWith(cfg, store, &buf))

		r := decodeReport(t, buf.Bytes())
		assert.Equal(t, "run "+run.ID, r.Source)
		assert.Equal(t, 7, r.Records)
		assert.Equal(t, 4, r.Stats.KeywordCategorized)
		assert.Equal(t, []string{"qqxx", "Sponsored spot"}, r.Stats.Uncategorized)
	}
}

func TestAnalyze_NoInput(t *testing.T) {
	cmd := &AnalyzeCommand{globals: &GlobalFlags{}}
	err := cmd.executeWith(testConfig(t), nil, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestAnalyze_EmptyStore(t *testing.T) {
	store, _ := openTestStore(t)
	cmd := &AnalyzeCommand{globals: &GlobalFlags{}}

	err := cmd.executeWith(testConfig(t), store, &bytes.Buffer{})
	assert.ErrorIs(t, err, storage.ErrRunNotFound)
}

func TestAnalyze_InjectedOracle(t *testing.T) {
	var calls atomic.Int32
	var prompt string
	o := classify.OracleFunc(func(_ context.Context, p string) (string, error) {
		calls.Add(1)
		prompt = p
		return "1. Comedy\n2. Comedy", nil
	})

	cmd := &AnalyzeCommand{globals: &GlobalFlags{JSON: true}, oracle: o}
	cmd.Args.File = writeFixture(t)

	var buf bytes.Buffer
	require.NoError(t, cmd.executeWith(testConfig(t), nil, &buf))

	r := decodeReport(t, buf.Bytes())
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 2, r.Stats.AICategorized)
	assert.Empty(t, r.Stats.Uncategorized)
	assert.True(t, strings.Contains(prompt, `"qqxx" by xyzzy`))
	assert.True(t, strings.Contains(prompt, `"Sponsored spot" by AdCo`))
}

func TestAnalyze_NoOracleSkipsInjected(t *testing.T) {
	var calls atomic.Int32
	o := classify.OracleFunc(func(context.Context, string) (string, error) {
		calls.Add(1)
		return "", nil
	})

	cmd := &AnalyzeCommand{globals: &GlobalFlags{JSON: true}, oracle: o, NoOracle: true}
	cmd.Args.File = writeFixture(t)

	var buf bytes.Buffer
	require.NoError(t, cmd.executeWith(testConfig(t), nil, &buf))
	assert.Zero(t, calls.Load())
	assert.Len(t, decodeReport(t, buf.Bytes()).Stats.Uncategorized, 2)
}

func TestAnalyze_GeminiWithoutKeyKeepsKeywordLabels(t *testing.T) {
	t.Setenv("WATCHMIRROR_TEST_GEMINI_KEY", "")
	cfg := testConfig(t)
	cfg.Oracle.Provider = "gemini"
	cfg.Oracle.GeminiKeyEnv = "WATCHMIRROR_TEST_GEMINI_KEY"

	cmd := &AnalyzeCommand{globals: &GlobalFlags{JSON: true}}
	cmd.Args.File = writeFixture(t)

	var buf bytes.Buffer
	require.NoError(t, cmd.executeWith(cfg, nil, &buf))

	r := decodeReport(t, buf.Bytes())
	assert.Equal(t, 7, r.Records)
	assert.Equal(t, 4, r.Stats.KeywordCategorized)
	assert.Zero(t, r.Stats.AICategorized)
	assert.Equal(t, []string{"qqxx", "Sponsored spot"}, r.Stats.Uncategorized)
}
