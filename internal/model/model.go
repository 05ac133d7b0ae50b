package model

import (
	"fmt"
	"time"
)

// Date is a civil calendar date with no time-of-day or zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the civil date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// AddDays returns d shifted by n days, normalizing month/year overflow.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

// At combines the date with a wall-clock time. The result carries UTC as a
// placeholder location; only its wall-clock fields are meaningful.
func (d Date) At(hour, minute, second int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, second, 0, time.UTC)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ClockTime is a time of day with minute precision.
type ClockTime struct {
	Hour   int
	Minute int
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParsedSchedule is the decoded form of a "days | times | location" cell.
// End is not validated against Start.
type ParsedSchedule struct {
	Weekdays WeekdaySet
	Start    ClockTime
	End      ClockTime
	Location string
}

// ScheduleRow is one enrolled-section row of the export.
type ScheduleRow struct {
	Row int

	CourseName   string
	SectionID    string
	Instructor   string
	ScheduleText string

	TermStartSerial float64
	TermEndSerial   float64
	TermStart       Date
	TermEnd         Date

	Schedule ParsedSchedule
}

// Recurrence is a weekly rule bounded by an UTC instant.
type Recurrence struct {
	Weekdays WeekdaySet
	Until    time.Time
}

// CalendarEvent is a weekly recurring VEVENT built from one ScheduleRow.
type CalendarEvent struct {
	UID string
	Row int

	// Start / End hold wall-clock values in the run's zone; their Location
	// is not meaningful.
	Start time.Time
	End   time.Time

	Recurrence Recurrence

	Summary     string
	Description string
	Location    string
}
