package classify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/runnerr0/watchmirror/internal/history"
)

const promptHeader = `You categorize YouTube videos from any language or culture.

Rules:
- Use the channel name as strongly as the title.
- Only answer Entertainment for films, shows and general entertainment.
- Personal vlogs are Vlog. Teaching content is Education or Tutorial.
- Channels ending in "- Topic" are Music.
- Judge the kind of content, not the language it is written in.

Categories:
%s

Answer with one line per video, number then category, for example:
1. Gaming
2. Music

Videos:
%s`

// BuildPrompt renders one oracle request for a batch of records. Lines are
// numbered from 1 in batch order.
func BuildPrompt(batch []history.Record, tax *history.Taxonomy) string {
	cats := tax.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}

	var lines strings.Builder
	for i, r := range batch {
		if i > 0 {
			lines.WriteByte('\n')
		}
		fmt.Fprintf(&lines, "%d. \"%s\" by %s", i+1, r.Title, r.Channel)
	}
	return fmt.Sprintf(promptHeader, strings.Join(names, ", "), lines.String())
}

var answerLine = regexp.MustCompile(`^(\d+)\.\s*(.+)$`)

// ParseResponse extracts per-item answers from an oracle reply. The result
// maps zero-based batch positions to categories. Lines that do not parse,
// point outside the batch or name an unknown category are dropped.
func ParseResponse(resp string, batchLen int, tax *history.Taxonomy) map[int]history.Category {
	out := make(map[int]history.Category)
	for _, line := range strings.Split(strings.TrimSpace(resp), "\n") {
		m := answerLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > batchLen {
			continue
		}
		cat, ok := tax.Normalize(m[2])
		if !ok {
			continue
		}
		out[n-1] = cat
	}
	return out
}
