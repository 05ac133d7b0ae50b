package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"sched2ics/internal/model"
)

var (
	daySeparators = regexp.MustCompile(`[-,\s]+`)
	timeRange     = regexp.MustCompile(`^(.+?)\s*-\s*(.+)$`)
	clockPattern  = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{1,2}))?\s*(AM|PM)?$`)
)

// dayTokens maps upper-cased schedule tokens to weekdays.
var dayTokens = map[string]time.Weekday{
	"M":  time.Monday,
	"T":  time.Tuesday,
	"W":  time.Wednesday,
	"R":  time.Thursday,
	"F":  time.Friday,
	"S":  time.Saturday,
	"SA": time.Saturday,
	"U":  time.Sunday,
	"SU": time.Sunday,
}

// ParseDays maps a "M-W-F" style list onto a weekday set. Unknown tokens
// are ignored.
func ParseDays(s string) model.WeekdaySet {
	var set model.WeekdaySet
	for _, tok := range daySeparators.Split(strings.TrimSpace(s), -1) {
		if d, ok := dayTokens[strings.ToUpper(tok)]; ok {
			set = set.Add(d)
		}
	}
	return set
}

// ParseClock parses "H[:MM] [AM|PM]". With a meridiem the hour must be
// 1–12; without one it is taken as 0–23.
func ParseClock(s string) (model.ClockTime, bool) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return model.ClockTime{}, false
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return model.ClockTime{}, false
	}

	switch strings.ToUpper(m[3]) {
	case "AM":
		if hour < 1 || hour > 12 {
			return model.ClockTime{}, false
		}
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour < 1 || hour > 12 {
			return model.ClockTime{}, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour > 23 {
			return model.ClockTime{}, false
		}
	}

	return model.ClockTime{Hour: hour, Minute: minute}, true
}

// ParseSchedule decodes "days | start - end | location". It fails when no
// weekday is recognized or either time does not parse.
func ParseSchedule(text string) (model.ParsedSchedule, bool) {
	parts := strings.SplitN(text, "|", 3)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 {
		return model.ParsedSchedule{}, false
	}

	days := ParseDays(parts[0])
	if days.Empty() {
		return model.ParsedSchedule{}, false
	}

	m := timeRange.FindStringSubmatch(parts[1])
	if m == nil {
		return model.ParsedSchedule{}, false
	}
	start, ok := ParseClock(m[1])
	if !ok {
		return model.ParsedSchedule{}, false
	}
	end, ok := ParseClock(m[2])
	if !ok {
		return model.ParsedSchedule{}, false
	}

	out := model.ParsedSchedule{
		Weekdays: days,
		Start:    start,
		End:      end,
	}
	if len(parts) == 3 {
		out.Location = parts[2]
	}
	return out, true
}
