package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/watchmirror/internal/classify"
	"github.com/runnerr0/watchmirror/internal/history"
	"github.com/runnerr0/watchmirror/internal/storage"
)

func TestIngest_StoresRun(t *testing.T) {
	cfg := testConfig(t)
	store, _ := openTestStore(t)
	ctx := context.Background()

	cmd := &IngestCommand{globals: &GlobalFlags{}}
	cmd.Args.File = writeFixture(t)

	var buf bytes.Buffer
	require.NoError(t, cmd.executeWith(cfg, store, &buf))
	assert.Contains(t, buf.String(), "Ingested 7 records from "+cmd.Args.File)

	run, err := store.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, cmd.Args.File, run.Source)
	assert.Equal(t, 7, run.Total)
	assert.Equal(t, 4, run.KeywordCategorized)
	assert.Equal(t, 1, run.ContextCategorized)
	assert.Zero(t, run.AICategorized)

	records, err := store.LoadRecords(ctx, run.ID, nil)
	require.NoError(t, err)
	require.Len(t, records, 7)
	assert.Equal(t, "Minecraft Let's Play Episode 5", records[0].Title)
	assert.Equal(t, history.Gaming, records[1].Category)

	entries, err := store.AuditLog(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, storage.ActionIngest, entries[0].Action)
	assert.Equal(t, run.ID, entries[0].RunID)
}

func TestIngest_JSONOutput(t *testing.T) {
	cfg := testConfig(t)
	store, _ := openTestStore(t)

	o := classify.OracleFunc(func(context.Context, string) (string, error) {
		return "1. Comedy", nil
	})
	cmd := &IngestCommand{globals: &GlobalFlags{JSON: true}, oracle: o}
	cmd.Args.File = writeFixture(t)

	var buf bytes.Buffer
	require.NoError(t, cmd.executeWith(cfg, store, &buf))

	var out ingestJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, 7, out.Total)
	assert.Equal(t, 1, out.AICategorized)
	assert.Equal(t, 1, out.Uncategorized)

	run, err := store.GetRun(context.Background(), out.RunID)
	require.NoError(t, err)
	assert.Equal(t, 1, run.AICategorized)
}

func TestIngest_OracleFailureKeepsLexicalLabels(t *testing.T) {
	cfg := testConfig(t)
	store, _ := openTestStore(t)

	o := classify.OracleFunc(func(context.Context, string) (string, error) {
		return "", errors.New("connection refused")
	})
	cmd := &IngestCommand{globals: &GlobalFlags{JSON: true}, oracle: o}
	cmd.Args.File = writeFixture(t)

	var buf bytes.Buffer
	require.NoError(t, cmd.executeWith(cfg, store, &buf))

	var out ingestJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Zero(t, out.AICategorized)
	assert.Equal(t, 2, out.Uncategorized)
}

func TestIngest_InvalidExport(t *testing.T) {
	store, _ := openTestStore(t)
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "an array"}`), 0644))

	cmd := &IngestCommand{globals: &GlobalFlags{}}
	cmd.Args.File = path
	require.Error(t, cmd.executeWith(testConfig(t), store, &bytes.Buffer{}))

	_, err := store.LatestRun(context.Background())
	assert.ErrorIs(t, err, storage.ErrRunNotFound, "nothing stored on failure")
}

func TestIngest_NoValidRecords(t *testing.T) {
	store, _ := openTestStore(t)
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"title": "Watched x", "time": "garbage"}]`), 0644))

	cmd := &IngestCommand{globals: &GlobalFlags{}}
	cmd.Args.File = path
	err := cmd.executeWith(testConfig(t), store, &bytes.Buffer{})
	assert.ErrorIs(t, err, history.ErrNoValidRecords)
}
