package classify

import "github.com/runnerr0/watchmirror/internal/history"

// Validate re-runs the lexical classifier over every record still labeled
// Entertainment and accepts any different answer. Rules may have changed
// between passes, for example after user patterns were merged.
func Validate(records []history.Record, lex *LexicalClassifier) int {
	refined := 0
	for i := range records {
		if records[i].Category != history.Entertainment {
			continue
		}
		if records[i].Refine(lex.ClassifyRecord(records[i])) {
			refined++
		}
	}
	return refined
}
