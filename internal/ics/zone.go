package ics

import (
	"fmt"
	"sort"
	"time"

	"sched2ics/internal/model"
)

// Transition is a yearly "Nth weekday of month at hour" rule. Week -1 means
// the last such weekday of the month.
type Transition struct {
	Month   time.Month
	Week    int
	Weekday time.Weekday
	Hour    int
}

// Date returns the transition date in the given year.
func (t Transition) Date(year int) model.Date {
	if t.Week < 0 {
		last := model.Date{Year: year, Month: t.Month + 1, Day: 0}.AddDays(0)
		back := (int(last.Weekday()) - int(t.Weekday) + 7) % 7
		return last.AddDays(-back)
	}
	first := model.Date{Year: year, Month: t.Month, Day: 1}
	ahead := (int(t.Weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDays(ahead + 7*(t.Week-1))
}

func (t Transition) byDay() string {
	return fmt.Sprintf("%d%s", t.Week, model.DayCode(t.Weekday))
}

// Zone is a compiled-in VTIMEZONE definition. Offsets are seconds east of
// UTC. Zones without DST leave DaylightStart and StandardStart nil.
type Zone struct {
	ID string

	StandardName   string
	StandardOffset int
	DaylightName   string
	DaylightOffset int

	DaylightStart *Transition
	StandardStart *Transition
}

// usDaylight and usStandard are the US rules in force since 2007.
var (
	usDaylight = &Transition{Month: time.March, Week: 2, Weekday: time.Sunday, Hour: 2}
	usStandard = &Transition{Month: time.November, Week: 1, Weekday: time.Sunday, Hour: 2}
)

const hour = 3600

var zones = map[string]Zone{
	"America/New_York": {
		ID: "America/New_York", StandardName: "EST", StandardOffset: -5 * hour,
		DaylightName: "EDT", DaylightOffset: -4 * hour,
		DaylightStart: usDaylight, StandardStart: usStandard,
	},
	"America/Chicago": {
		ID: "America/Chicago", StandardName: "CST", StandardOffset: -6 * hour,
		DaylightName: "CDT", DaylightOffset: -5 * hour,
		DaylightStart: usDaylight, StandardStart: usStandard,
	},
	"America/Denver": {
		ID: "America/Denver", StandardName: "MST", StandardOffset: -7 * hour,
		DaylightName: "MDT", DaylightOffset: -6 * hour,
		DaylightStart: usDaylight, StandardStart: usStandard,
	},
	"America/Los_Angeles": {
		ID: "America/Los_Angeles", StandardName: "PST", StandardOffset: -8 * hour,
		DaylightName: "PDT", DaylightOffset: -7 * hour,
		DaylightStart: usDaylight, StandardStart: usStandard,
	},
	"America/Anchorage": {
		ID: "America/Anchorage", StandardName: "AKST", StandardOffset: -9 * hour,
		DaylightName: "AKDT", DaylightOffset: -8 * hour,
		DaylightStart: usDaylight, StandardStart: usStandard,
	},
	"America/Phoenix": {
		ID: "America/Phoenix", StandardName: "MST", StandardOffset: -7 * hour,
	},
	"Pacific/Honolulu": {
		ID: "Pacific/Honolulu", StandardName: "HST", StandardOffset: -10 * hour,
	},
}

// DefaultZoneID is used when no zone is configured.
const DefaultZoneID = "America/New_York"

// LookupZone returns the compiled-in zone with the given id.
func LookupZone(id string) (Zone, bool) {
	z, ok := zones[id]
	return z, ok
}

// ZoneFor returns the zone for id. Unknown ids get the default zone's rules
// under the caller's id, so TZID references still resolve.
func ZoneFor(id string) Zone {
	if id == "" {
		id = DefaultZoneID
	}
	if z, ok := zones[id]; ok {
		return z
	}
	z := zones[DefaultZoneID]
	z.ID = id
	return z
}

// ZoneIDs lists the compiled-in zone ids, sorted.
func ZoneIDs() []string {
	ids := make([]string, 0, len(zones))
	for id := range zones {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (z Zone) HasDaylight() bool {
	return z.DaylightStart != nil && z.StandardStart != nil
}

// OffsetAt returns the UTC offset in effect at the given wall-clock time.
// Only the wall-clock fields of local are read.
func (z Zone) OffsetAt(local time.Time) int {
	if !z.HasDaylight() {
		return z.StandardOffset
	}
	wall := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), local.Second(), 0, time.UTC)
	start := z.DaylightStart.Date(wall.Year()).At(z.DaylightStart.Hour, 0, 0)
	end := z.StandardStart.Date(wall.Year()).At(z.StandardStart.Hour, 0, 0)
	if !wall.Before(start) && wall.Before(end) {
		return z.DaylightOffset
	}
	return z.StandardOffset
}

// ToUTC converts a wall-clock time in this zone to a UTC instant.
func (z Zone) ToUTC(local time.Time) time.Time {
	wall := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), local.Second(), 0, time.UTC)
	return wall.Add(-time.Duration(z.OffsetAt(wall)) * time.Second)
}

// lines renders the VTIMEZONE block.
func (z Zone) lines() []string {
	out := []string{
		"BEGIN:VTIMEZONE",
		"TZID:" + z.ID,
		"X-LIC-LOCATION:" + z.ID,
	}
	if !z.HasDaylight() {
		out = append(out,
			"BEGIN:STANDARD",
			"TZOFFSETFROM:"+formatOffset(z.StandardOffset),
			"TZOFFSETTO:"+formatOffset(z.StandardOffset),
			"TZNAME:"+z.StandardName,
			"DTSTART:19700101T000000",
			"END:STANDARD",
		)
	} else {
		out = append(out, observance("DAYLIGHT", z.DaylightName, z.StandardOffset, z.DaylightOffset, *z.DaylightStart)...)
		out = append(out, observance("STANDARD", z.StandardName, z.DaylightOffset, z.StandardOffset, *z.StandardStart)...)
	}
	return append(out, "END:VTIMEZONE")
}

func observance(kind, name string, from, to int, t Transition) []string {
	return []string{
		"BEGIN:" + kind,
		"TZOFFSETFROM:" + formatOffset(from),
		"TZOFFSETTO:" + formatOffset(to),
		"TZNAME:" + name,
		"DTSTART:" + formatLocal(t.Date(1970).At(t.Hour, 0, 0)),
		fmt.Sprintf("RRULE:FREQ=YEARLY;BYMONTH=%d;BYDAY=%s", int(t.Month), t.byDay()),
		"END:" + kind,
	}
}

// formatOffset renders seconds east of UTC as "-0500".
func formatOffset(sec int) string {
	sign := '+'
	if sec < 0 {
		sign = '-'
		sec = -sec
	}
	return fmt.Sprintf("%c%02d%02d", sign, sec/hour, (sec%hour)/60)
}
