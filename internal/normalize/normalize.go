// Package normalize turns the enrolled-sections cells into ScheduleRow
// records.
package normalize

import (
	"sort"

	appLog "sched2ics/internal/log"
	"sched2ics/internal/model"
	"sched2ics/internal/sheet"
)

// Layout lists, per logical field, the columns that may carry it in order
// of precedence. The first column holding a non-empty value wins.
type Layout struct {
	Course     []string
	Section    []string
	Instructor []string
	Schedule   []string
	TermStart  []string
	TermEnd    []string
}

// DefaultLayout is the column contract of the enrollment export.
func DefaultLayout() Layout {
	return Layout{
		Course:     []string{"B"},
		Section:    []string{"G"},
		Instructor: []string{"L"},
		Schedule:   []string{"K"},
		TermStart:  []string{"M"},
		TermEnd:    []string{"N"},
	}
}

type rowCells map[string]any

func (r rowCells) text(cols []string) string {
	for _, c := range cols {
		if s := sheet.Text(r[c]); s != "" {
			return s
		}
	}
	return ""
}

func (r rowCells) number(cols []string) (float64, bool) {
	for _, c := range cols {
		if n, ok := sheet.Number(r[c]); ok {
			return n, true
		}
	}
	return 0, false
}

// Normalize regroups cells by row and returns the rows that carry every
// required field and a decodable schedule, in ascending row order. Rows
// that fail are skipped without error.
func Normalize(cells sheet.Cells) []model.ScheduleRow {
	return NormalizeWithLayout(cells, DefaultLayout())
}

// NormalizeWithLayout is Normalize with an explicit column layout.
func NormalizeWithLayout(cells sheet.Cells, layout Layout) []model.ScheduleRow {
	grouped := regroup(cells)

	rowNums := make([]int, 0, len(grouped))
	for n := range grouped {
		rowNums = append(rowNums, n)
	}
	sort.Ints(rowNums)

	out := make([]model.ScheduleRow, 0, len(rowNums))
	for _, n := range rowNums {
		row, reason := buildRow(n, grouped[n], layout)
		if reason != "" {
			appLog.Debug("normalize: skipping row", "row", n, "reason", reason)
			continue
		}
		out = append(out, row)
	}
	return out
}

func regroup(cells sheet.Cells) map[int]rowCells {
	rows := make(map[int]rowCells)
	for _, c := range cells {
		col, n, ok := sheet.SplitAddress(c.Address)
		if !ok {
			continue
		}
		if rows[n] == nil {
			rows[n] = make(rowCells)
		}
		rows[n][col] = c.Value
	}
	return rows
}

// buildRow returns the row, or a non-empty reason why it was rejected.
func buildRow(n int, cells rowCells, layout Layout) (model.ScheduleRow, string) {
	course := cells.text(layout.Course)
	if course == "" {
		return model.ScheduleRow{}, "missing course name"
	}
	schedule := cells.text(layout.Schedule)
	if schedule == "" {
		return model.ScheduleRow{}, "missing schedule"
	}
	startSerial, ok := cells.number(layout.TermStart)
	if !ok {
		return model.ScheduleRow{}, "missing term start"
	}
	endSerial, ok := cells.number(layout.TermEnd)
	if !ok {
		return model.ScheduleRow{}, "missing term end"
	}
	if !ValidSerial(startSerial) {
		return model.ScheduleRow{}, "term start out of range"
	}
	if !ValidSerial(endSerial) {
		return model.ScheduleRow{}, "term end out of range"
	}

	parsed, ok := ParseSchedule(schedule)
	if !ok {
		return model.ScheduleRow{}, "unparseable schedule"
	}

	return model.ScheduleRow{
		Row:             n,
		CourseName:      course,
		SectionID:       cells.text(layout.Section),
		Instructor:      cells.text(layout.Instructor),
		ScheduleText:    schedule,
		TermStartSerial: startSerial,
		TermEndSerial:   endSerial,
		TermStart:       SerialToDate(startSerial),
		TermEnd:         SerialToDate(endSerial),
		Schedule:        parsed,
	}, ""
}
