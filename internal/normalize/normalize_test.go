package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sched2ics/internal/model"
	"sched2ics/internal/sheet"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input  string
		want   model.ClockTime
		wantOK bool
	}{
		{"12:00 AM", model.ClockTime{Hour: 0, Minute: 0}, true},
		{"12:00 PM", model.ClockTime{Hour: 12, Minute: 0}, true},
		{"1:05 PM", model.ClockTime{Hour: 13, Minute: 5}, true},
		{"9:50 am", model.ClockTime{Hour: 9, Minute: 50}, true},
		{"3 PM", model.ClockTime{Hour: 15, Minute: 0}, true},
		{"3PM", model.ClockTime{Hour: 15, Minute: 0}, true},
		{"14:30", model.ClockTime{Hour: 14, Minute: 30}, true},
		{"13:00 PM", model.ClockTime{}, false},
		{"0:30 AM", model.ClockTime{}, false},
		{"25:00", model.ClockTime{}, false},
		{"9:75 AM", model.ClockTime{}, false},
		{"noon", model.ClockTime{}, false},
		{"", model.ClockTime{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseClock(tt.input)
		assert.Equal(t, tt.wantOK, ok, "ParseClock(%q)", tt.input)
		assert.Equal(t, tt.want, got, "ParseClock(%q)", tt.input)
	}
}

func TestParseDaysTokenTable(t *testing.T) {
	tests := map[string][]string{
		"M":       {"MO"},
		"T":       {"TU"},
		"W":       {"WE"},
		"R":       {"TH"},
		"F":       {"FR"},
		"S":       {"SA"},
		"SA":      {"SA"},
		"U":       {"SU"},
		"SU":      {"SU"},
		"m-w-f":   {"MO", "WE", "FR"},
		"M, W F":  {"MO", "WE", "FR"},
		"M-T-R-F": {"MO", "TU", "TH", "FR"},
		"Su-Sa":   {"SU", "SA"},
		"X-Q":     {},
		"TBA":     {},
	}
	for input, want := range tests {
		assert.Equal(t, want, ParseDays(input).Codes(), "ParseDays(%q)", input)
	}
}

func TestParseSchedule(t *testing.T) {
	got, ok := ParseSchedule("M-T-R-F | 3:00 PM - 3:50 PM | Building 520")
	require.True(t, ok)
	assert.Equal(t, model.NewWeekdaySet(time.Monday, time.Tuesday, time.Thursday, time.Friday), got.Weekdays)
	assert.Equal(t, model.ClockTime{Hour: 15}, got.Start)
	assert.Equal(t, model.ClockTime{Hour: 15, Minute: 50}, got.End)
	assert.Equal(t, "Building 520", got.Location)

	got, ok = ParseSchedule("W | 6:00 PM-8:40 PM")
	require.True(t, ok)
	assert.Equal(t, "", got.Location)
	assert.Equal(t, model.ClockTime{Hour: 20, Minute: 40}, got.End)
}

func TestParseScheduleKeepsInvertedRange(t *testing.T) {
	got, ok := ParseSchedule("F | 4:00 PM - 3:00 PM | Lab")
	require.True(t, ok)
	assert.Equal(t, 16, got.Start.Hour)
	assert.Equal(t, 15, got.End.Hour)
}

func TestParseScheduleRejects(t *testing.T) {
	for _, text := range []string{
		"",
		"Online",
		"TBA | TBA | Online",
		"X-Y | 9:00 AM - 9:50 AM | Hall",
		"M-W | 9:00 AM | Hall",
		"M-W | 9:00 AM - late | Hall",
	} {
		_, ok := ParseSchedule(text)
		assert.False(t, ok, "ParseSchedule(%q)", text)
	}
}

func TestSerialToDate(t *testing.T) {
	assert.Equal(t, model.Date{Year: 1899, Month: time.December, Day: 30}, SerialToDate(0))
	assert.Equal(t, model.Date{Year: 1899, Month: time.December, Day: 31}, SerialToDate(1))
	assert.Equal(t, model.Date{Year: 2025, Month: time.January, Day: 13}, SerialToDate(45670))
	assert.Equal(t, model.Date{Year: 2025, Month: time.January, Day: 13}, SerialToDate(45669.6))
	assert.Equal(t, model.Date{Year: 2025, Month: time.April, Day: 25}, SerialToDate(45772))
}

func TestNormalize(t *testing.T) {
	cells := sheet.Cells{
		{Address: "B7", Value: "MATH200"},
		{Address: "K7", Value: "T-R | 11:00 AM - 12:15 PM"},
		{Address: "M7", Value: "45670"},
		{Address: "N7", Value: 45772.0},
		{Address: "B5", Value: "CS101"},
		{Address: "G5", Value: "001"},
		{Address: "L5", Value: "Ada Lovelace"},
		{Address: "K5", Value: "M-W-F | 9:00 AM - 9:50 AM | Hall 3"},
		{Address: "M5", Value: 45670.0},
		{Address: "N5", Value: 45772.0},
		{Address: "B6", Value: "ART100"}, // missing schedule text
		{Address: "M6", Value: 45670.0},
		{Address: "N6", Value: 45772.0},
		{Address: "B8", Value: "Totals"},
	}

	rows := Normalize(cells)
	require.Len(t, rows, 2)

	cs := rows[0]
	assert.Equal(t, 5, cs.Row)
	assert.Equal(t, "CS101", cs.CourseName)
	assert.Equal(t, "001", cs.SectionID)
	assert.Equal(t, "Ada Lovelace", cs.Instructor)
	assert.Equal(t, "M-W-F | 9:00 AM - 9:50 AM | Hall 3", cs.ScheduleText)
	assert.Equal(t, 45670.0, cs.TermStartSerial)
	assert.Equal(t, model.Date{Year: 2025, Month: time.January, Day: 13}, cs.TermStart)
	assert.Equal(t, model.Date{Year: 2025, Month: time.April, Day: 25}, cs.TermEnd)
	assert.Equal(t, "Hall 3", cs.Schedule.Location)

	math := rows[1]
	assert.Equal(t, 7, math.Row)
	assert.Equal(t, "", math.SectionID)
	assert.Equal(t, model.ClockTime{Hour: 12, Minute: 15}, math.Schedule.End)
}

func TestNormalizeSkipsNonNumericSerials(t *testing.T) {
	cells := sheet.Cells{
		{Address: "B5", Value: "CS101"},
		{Address: "K5", Value: "M | 9 AM - 10 AM"},
		{Address: "M5", Value: "Jan 13"},
		{Address: "N5", Value: 45772.0},

		{Address: "B6", Value: "CS102"},
		{Address: "K6", Value: "M | 9 AM - 10 AM"},
		{Address: "M6", Value: "NaN"},
		{Address: "N6", Value: "Inf"},

		{Address: "B7", Value: "CS103"},
		{Address: "K7", Value: "M | 9 AM - 10 AM"},
		{Address: "M7", Value: 45670.0},
		{Address: "N7", Value: "Infinity"},

		{Address: "B8", Value: "CS104"},
		{Address: "K8", Value: "M | 9 AM - 10 AM"},
		{Address: "M8", Value: 1e300},
		{Address: "N8", Value: 45772.0},

		{Address: "B9", Value: "CS105"},
		{Address: "K9", Value: "M | 9 AM - 10 AM"},
		{Address: "M9", Value: -5.0},
		{Address: "N9", Value: 45772.0},
	}
	assert.Empty(t, Normalize(cells))
}

func TestSerialRange(t *testing.T) {
	assert.True(t, ValidSerial(0))
	assert.True(t, ValidSerial(45670.4))
	assert.True(t, ValidSerial(2958465))
	assert.False(t, ValidSerial(2958466))
	assert.False(t, ValidSerial(-1))
	assert.False(t, ValidSerial(1e300))

	assert.Equal(t, model.Date{Year: 9999, Month: time.December, Day: 31}, SerialToDate(1e300))
	assert.Equal(t, model.Date{Year: 1899, Month: time.December, Day: 30}, SerialToDate(-1e300))
}

func TestLayoutPrecedence(t *testing.T) {
	layout := DefaultLayout()
	layout.Course = []string{"C", "B"}

	cells := sheet.Cells{
		{Address: "B5", Value: "fallback"},
		{Address: "C5", Value: "preferred"},
		{Address: "K5", Value: "M | 9 AM - 10 AM"},
		{Address: "M5", Value: 45670.0},
		{Address: "N5", Value: 45772.0},
		{Address: "B6", Value: "only-b"},
		{Address: "C6", Value: "  "},
		{Address: "K6", Value: "M | 9 AM - 10 AM"},
		{Address: "M6", Value: 45670.0},
		{Address: "N6", Value: 45772.0},
	}

	rows := NormalizeWithLayout(cells, layout)
	require.Len(t, rows, 2)
	assert.Equal(t, "preferred", rows[0].CourseName)
	assert.Equal(t, "only-b", rows[1].CourseName)
}
