package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/watchmirror/internal/history"
)

func testOracleConfig() OracleConfig {
	return OracleConfig{BatchSize: 20, BatchTimeout: time.Second, FailureThreshold: 3}
}

func fallbackRecords(n int) []history.Record {
	out := make([]history.Record, n)
	for i := range out {
		out[i] = history.Record{
			Title:     fmt.Sprintf("clip %d", i),
			Channel:   "chan",
			Category:  history.Entertainment,
			Timestamp: t0.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func TestBuildPrompt(t *testing.T) {
	tax := history.DefaultTaxonomy()
	prompt := BuildPrompt([]history.Record{
		{Title: "Let's Play Minecraft Part 5", Channel: "GameChannel"},
		{Title: "Lo-fi beats", Channel: "Chill"},
	}, tax)

	assert.Contains(t, prompt, "1. \"Let's Play Minecraft Part 5\" by GameChannel\n2. \"Lo-fi beats\" by Chill")
	assert.Contains(t, prompt, "Gaming, Music, Education")
	assert.Contains(t, prompt, "Photography, Entertainment")
}

func TestParseResponse(t *testing.T) {
	tax := history.DefaultTaxonomy()
	resp := `
1. Gaming
  2.   [music]
3. Not a category
0. Tech
9. Tech
garbage line
4.Educational
`
	got := ParseResponse(resp, 4, tax)

	assert.Equal(t, map[int]history.Category{
		0: history.Gaming,
		1: history.Music,
		3: history.Education,
	}, got)
}

func TestOracleRunner_RefinesFromAnswers(t *testing.T) {
	records := []history.Record{
		{Title: "a", Channel: "x", Category: history.Entertainment},
		{Title: "resolved", Channel: "x", Category: history.News},
		{Title: "b", Channel: "x", Category: history.Entertainment},
		{Title: "c", Channel: "x", Category: history.Entertainment},
	}

	var prompts []string
	oracle := OracleFunc(func(_ context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		return "1. Gaming\n2. Music\n3. Entertainment\n4. Tech", nil
	})

	runner := NewOracleRunner(oracle, history.DefaultTaxonomy(), testOracleConfig(), zerolog.Nop())
	n := runner.Run(context.Background(), records)

	assert.Equal(t, 2, n)
	assert.Equal(t, []history.Category{
		history.Gaming, history.News, history.Music, history.Entertainment,
	}, categories(records))

	require.Len(t, prompts, 1)
	assert.NotContains(t, prompts[0], "resolved", "resolved records are not sent")
}

func TestOracleRunner_Batches(t *testing.T) {
	records := fallbackRecords(45)

	var sizes []int
	oracle := OracleFunc(func(_ context.Context, prompt string) (string, error) {
		sizes = append(sizes, strings.Count(prompt, "\" by chan"))
		return "", nil
	})

	runner := NewOracleRunner(oracle, history.DefaultTaxonomy(), testOracleConfig(), zerolog.Nop())
	assert.Zero(t, runner.Run(context.Background(), records))
	assert.Equal(t, []int{20, 20, 5}, sizes)
}

func TestOracleRunner_FailureKeepsLexicalLabels(t *testing.T) {
	records := fallbackRecords(30)
	records[0].Category = history.Uncategorized

	calls := 0
	oracle := OracleFunc(func(_ context.Context, _ string) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("upstream 500")
		}
		return "1. Gaming", nil
	})

	runner := NewOracleRunner(oracle, history.DefaultTaxonomy(), testOracleConfig(), zerolog.Nop())
	n := runner.Run(context.Background(), records)

	assert.Equal(t, 2, calls, "a failed batch does not stop the run")
	assert.Equal(t, 1, n)
	assert.Equal(t, history.Uncategorized, records[0].Category)
	assert.Equal(t, history.Gaming, records[20].Category)
}

func TestOracleRunner_BreakerSkipsRemainingBatches(t *testing.T) {
	records := fallbackRecords(100)

	var calls atomic.Int32
	oracle := OracleFunc(func(_ context.Context, _ string) (string, error) {
		calls.Add(1)
		return "", errors.New("connection refused")
	})

	cfg := testOracleConfig()
	cfg.FailureThreshold = 2
	runner := NewOracleRunner(oracle, history.DefaultTaxonomy(), cfg, zerolog.Nop())

	assert.Zero(t, runner.Run(context.Background(), records))
	assert.Equal(t, int32(2), calls.Load())
	for _, r := range records {
		assert.Equal(t, history.Entertainment, r.Category)
	}
}

func TestOracleRunner_BatchTimeout(t *testing.T) {
	records := fallbackRecords(3)

	oracle := OracleFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "1. Gaming\n2. Gaming\n3. Gaming", ctx.Err()
	})

	cfg := testOracleConfig()
	cfg.BatchTimeout = 20 * time.Millisecond
	runner := NewOracleRunner(oracle, history.DefaultTaxonomy(), cfg, zerolog.Nop())

	start := time.Now()
	assert.Zero(t, runner.Run(context.Background(), records))
	assert.Less(t, time.Since(start), 5*time.Second)
	for _, r := range records {
		assert.Equal(t, history.Entertainment, r.Category)
	}
}

func TestOracleRunner_Pacing(t *testing.T) {
	records := fallbackRecords(3)

	var stamps []time.Time
	oracle := OracleFunc(func(_ context.Context, _ string) (string, error) {
		stamps = append(stamps, time.Now())
		return "", nil
	})

	cfg := testOracleConfig()
	cfg.BatchSize = 1
	cfg.Pacing = 30 * time.Millisecond
	runner := NewOracleRunner(oracle, history.DefaultTaxonomy(), cfg, zerolog.Nop())
	runner.Run(context.Background(), records)

	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[0]), 50*time.Millisecond)
}

func TestOracleRunner_CancelledContext(t *testing.T) {
	records := fallbackRecords(5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	oracle := OracleFunc(func(_ context.Context, _ string) (string, error) {
		called = true
		return "", nil
	})

	runner := NewOracleRunner(oracle, history.DefaultTaxonomy(), testOracleConfig(), zerolog.Nop())
	assert.Zero(t, runner.Run(ctx, records))
	assert.False(t, called)
}
