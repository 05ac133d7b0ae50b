package model

import (
	"strings"
	"time"
)

// WeekdaySet is a bit set of time.Weekday values.
type WeekdaySet uint8

var dayCodes = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// DayCode returns the RFC 5545 BYDAY code for d.
func DayCode(d time.Weekday) string {
	return dayCodes[d]
}

// ParseDayCode is the inverse of DayCode.
func ParseDayCode(code string) (time.Weekday, bool) {
	code = strings.ToUpper(code)
	for i, c := range dayCodes {
		if c == code {
			return time.Weekday(i), true
		}
	}
	return time.Sunday, false
}

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.Add(d)
	}
	return s
}

func (s WeekdaySet) Add(d time.Weekday) WeekdaySet {
	return s | 1<<uint(d)
}

func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

func (s WeekdaySet) Empty() bool {
	return s&0x7f == 0
}

func (s WeekdaySet) Len() int {
	n := 0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// Days lists members Sunday first.
func (s WeekdaySet) Days() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// Codes lists the BYDAY codes of the members, Sunday first.
func (s WeekdaySet) Codes() []string {
	days := s.Days()
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = DayCode(d)
	}
	return out
}

func (s WeekdaySet) String() string {
	return strings.Join(s.Codes(), ",")
}
