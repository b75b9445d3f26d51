package classify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/runnerr0/watchmirror/internal/history"
)

// Oracle is an external classifier answering one numbered prompt per call.
type Oracle interface {
	ClassifyBatch(ctx context.Context, prompt string) (string, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, prompt string) (string, error)

func (f OracleFunc) ClassifyBatch(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// OracleConfig bounds how the runner talks to an oracle.
type OracleConfig struct {
	// BatchSize is the number of records per prompt.
	BatchSize int
	// Pacing is the minimum spacing between two requests. Zero disables it.
	Pacing time.Duration
	// BatchTimeout bounds a single request.
	BatchTimeout time.Duration
	// FailureThreshold is the number of consecutive failed batches after
	// which the remaining batches are skipped.
	FailureThreshold int
}

// DefaultOracleConfig returns the standard batch shape.
func DefaultOracleConfig() OracleConfig {
	return OracleConfig{
		BatchSize:        20,
		Pacing:           1200 * time.Millisecond,
		BatchTimeout:     60 * time.Second,
		FailureThreshold: 3,
	}
}

// OracleRunner sends fallback records to an oracle in sequential batches.
type OracleRunner struct {
	oracle Oracle
	tax    *history.Taxonomy
	cfg    OracleConfig
	log    zerolog.Logger
}

// NewOracleRunner builds a runner. Zero config fields take their defaults.
func NewOracleRunner(o Oracle, tax *history.Taxonomy, cfg OracleConfig, log zerolog.Logger) *OracleRunner {
	def := DefaultOracleConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = def.BatchTimeout
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.Pacing < 0 {
		cfg.Pacing = 0
	}
	return &OracleRunner{oracle: o, tax: tax, cfg: cfg, log: log}
}

func (r *OracleRunner) limiter() *rate.Limiter {
	if r.cfg.Pacing == 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(r.cfg.Pacing), 1)
}

func (r *OracleRunner) breaker() *gobreaker.CircuitBreaker[string] {
	threshold := uint32(r.cfg.FailureThreshold)
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name: "oracle",
		// Stay open for the rest of the run once tripped.
		Timeout: 24 * time.Hour,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("oracle circuit breaker state change")
		},
	})
}

// Run classifies every fallback record through the oracle and returns the
// number of records it refined. Batches run one at a time. A failed batch
// keeps its lexical labels; it never aborts the run.
func (r *OracleRunner) Run(ctx context.Context, records []history.Record) int {
	var pending []int
	for i := range records {
		if records[i].Category.IsFallback() {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return 0
	}

	limiter := r.limiter()
	cb := r.breaker()
	batches := (len(pending) + r.cfg.BatchSize - 1) / r.cfg.BatchSize

	refined := 0
	for b := 0; b < batches; b++ {
		lo := b * r.cfg.BatchSize
		hi := min(lo+r.cfg.BatchSize, len(pending))
		idx := pending[lo:hi]

		if err := limiter.Wait(ctx); err != nil {
			r.log.Warn().Err(err).Int("batch", b+1).Msg("oracle run cancelled")
			break
		}

		batch := make([]history.Record, len(idx))
		for i, j := range idx {
			batch[i] = records[j]
		}
		prompt := BuildPrompt(batch, r.tax)

		resp, err := cb.Execute(func() (string, error) {
			bctx, cancel := context.WithTimeout(ctx, r.cfg.BatchTimeout)
			defer cancel()
			return r.oracle.ClassifyBatch(bctx, prompt)
		})
		if errors.Is(err, gobreaker.ErrOpenState) {
			r.log.Warn().Int("batch", b+1).Int("skipped", batches-b).Msg("oracle unavailable, skipping remaining batches")
			break
		}
		if err != nil {
			r.log.Warn().Err(err).Int("batch", b+1).Int("size", len(idx)).Msg("oracle batch failed")
			continue
		}

		answers := ParseResponse(resp, len(idx), r.tax)
		n := 0
		for pos, cat := range answers {
			if records[idx[pos]].Refine(cat) {
				n++
			}
		}
		refined += n
		r.log.Debug().Int("batch", b+1).Int("answers", len(answers)).Int("refined", n).Msg("oracle batch done")
	}
	return refined
}
