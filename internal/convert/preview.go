package convert

import (
	"errors"
	"fmt"

	"sched2ics/internal/ics"
)

// DefaultPreviewWeeks is used when a preview asks for zero weeks.
const DefaultPreviewWeeks = 2

// Preview verifies res.Document and expands its events over the first
// weeks of the earliest term.
func Preview(res Result, weeks int) (ics.ExpandResult, error) {
	if weeks <= 0 {
		weeks = DefaultPreviewWeeks
	}
	if len(res.Rows) == 0 {
		return ics.ExpandResult{Occurrences: []ics.Occurrence{}}, nil
	}

	insp, err := ics.Verify(res.Document)
	if err != nil {
		return ics.ExpandResult{}, fmt.Errorf("verify document: %w", err)
	}

	first := res.Rows[0].TermStart
	for _, row := range res.Rows[1:] {
		if row.TermStart.At(0, 0, 0).Before(first.At(0, 0, 0)) {
			first = row.TermStart
		}
	}

	// A day of slack on each side covers every zone offset.
	start := first.At(0, 0, 0).AddDate(0, 0, -1)
	end := start.AddDate(0, 0, 7*weeks+1)
	return ics.ExpandOccurrences(insp.Events, ics.ExpandConfig{RangeStart: start, RangeEnd: end})
}

// IsStructural reports whether err came from unreadable input.
func IsStructural(err error) bool {
	return errors.Is(err, ErrStructural)
}
