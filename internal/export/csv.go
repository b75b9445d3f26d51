package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/runnerr0/watchmirror/internal/history"
)

// CSVHeader is the first line of a CSV export.
const CSVHeader = "Title,Channel,Category,Date,Time,Day of Week,Hour,Year,URL"

// quote wraps s in double quotes, doubling any quote inside.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func csvRow(r history.Record) string {
	v := NewVideo(r)
	return strings.Join([]string{
		quote(v.Title),
		quote(v.Channel),
		v.Category,
		v.Date,
		v.Time,
		v.DayOfWeek,
		strconv.Itoa(v.Hour),
		strconv.Itoa(v.Year),
		v.URL,
	}, ",")
}

// WriteCSV writes the header and one row per record. Only title and channel
// are quoted. Rows are separated by a newline with none after the last.
func WriteCSV(w io.Writer, records []history.Record) error {
	if _, err := io.WriteString(w, CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, r := range records {
		if _, err := io.WriteString(w, "\n"+csvRow(r)); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	return nil
}
