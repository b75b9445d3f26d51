// Package classify labels watch-history records with content categories.
//
// The pipeline runs five stages over a chronologically sorted slice, each
// one only ever refining labels along Uncategorized -> Entertainment ->
// resolved category:
//
//  1. lexical scoring of title and channel
//  2. channel consensus
//  3. external oracle batches (optional)
//  4. contextual smoothing of short same-channel runs
//  5. a final lexical re-check of the remaining fallback records
package classify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/runnerr0/watchmirror/internal/history"
)

// Stats summarizes how each stage contributed to the final labels.
type Stats struct {
	Total              int      `json:"total"`
	AICategorized      int      `json:"aiCategorized"`
	KeywordCategorized int      `json:"keywordCategorized"`
	ContextCategorized int      `json:"contextCategorized"`
	Uncategorized      []string `json:"uncategorized"`
}

// PipelineConfig wires the pipeline stages.
type PipelineConfig struct {
	Rules    Rules
	Taxonomy *history.Taxonomy

	// Oracle is optional; without one the oracle stage is skipped.
	Oracle       Oracle
	OracleConfig OracleConfig

	ConsensusRatio float64
	SmoothingGap   time.Duration

	Logger zerolog.Logger
}

// Pipeline is the classification orchestrator.
type Pipeline struct {
	lex    *LexicalClassifier
	oracle *OracleRunner
	ratio  float64
	gap    time.Duration
	log    zerolog.Logger
}

// NewPipeline compiles the rules and prepares the optional oracle runner.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Taxonomy == nil {
		cfg.Taxonomy = history.DefaultTaxonomy()
	}
	p := &Pipeline{
		lex:   NewLexicalClassifier(cfg.Rules),
		ratio: cfg.ConsensusRatio,
		gap:   cfg.SmoothingGap,
		log:   cfg.Logger,
	}
	if cfg.Oracle != nil {
		p.oracle = NewOracleRunner(cfg.Oracle, cfg.Taxonomy, cfg.OracleConfig, cfg.Logger)
	}
	return p
}

// Lexical exposes the compiled lexical classifier.
func (p *Pipeline) Lexical() *LexicalClassifier {
	return p.lex
}

// Run labels records in place. Records must already be sorted by time.
func (p *Pipeline) Run(ctx context.Context, records []history.Record) Stats {
	stats := Stats{Total: len(records)}
	start := time.Now()

	for i := range records {
		if records[i].Refine(p.lex.ClassifyRecord(records[i])) && !records[i].Category.IsFallback() {
			stats.KeywordCategorized++
		}
	}
	p.log.Debug().Int("resolved", stats.KeywordCategorized).Msg("lexical pass done")

	n := ApplyConsensus(records, p.ratio)
	stats.ContextCategorized += n
	p.log.Debug().Int("refined", n).Msg("channel consensus done")

	if p.oracle != nil {
		stats.AICategorized = p.oracle.Run(ctx, records)
		p.log.Debug().Int("refined", stats.AICategorized).Msg("oracle pass done")
	}

	n = Smooth(records, p.gap)
	stats.ContextCategorized += n
	p.log.Debug().Int("refined", n).Msg("smoothing done")

	n = Validate(records, p.lex)
	stats.KeywordCategorized += n
	p.log.Debug().Int("refined", n).Msg("validation done")

	stats.Uncategorized = []string{}
	for _, r := range records {
		if r.Category.IsFallback() {
			stats.Uncategorized = append(stats.Uncategorized, r.Title)
		}
	}

	p.log.Info().
		Int("total", stats.Total).
		Int("keyword", stats.KeywordCategorized).
		Int("context", stats.ContextCategorized).
		Int("oracle", stats.AICategorized).
		Int("fallback", len(stats.Uncategorized)).
		Dur("took", time.Since(start)).
		Msg("classification complete")
	return stats
}
