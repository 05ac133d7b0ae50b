package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sched2ics/internal/model"
)

func TestCompiledZonesMatchIANA(t *testing.T) {
	for _, id := range ZoneIDs() {
		zone, ok := LookupZone(id)
		require.True(t, ok)

		loc, err := time.LoadLocation(id)
		require.NoError(t, err, id)

		for day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); day.Year() < 2027; day = day.AddDate(0, 0, 1) {
			for _, wall := range [][3]int{{12, 0, 0}, {23, 59, 59}} {
				local := time.Date(day.Year(), day.Month(), day.Day(), wall[0], wall[1], wall[2], 0, time.UTC)
				want := time.Date(day.Year(), day.Month(), day.Day(), wall[0], wall[1], wall[2], 0, loc).UTC()
				if !assert.True(t, want.Equal(zone.ToUTC(local)), "%s %s", id, local.Format(localLayout)) {
					return
				}
			}
		}
	}
}

func TestTransitionDate(t *testing.T) {
	assert.Equal(t, model.Date{Year: 2025, Month: time.March, Day: 9}, usDaylight.Date(2025))
	assert.Equal(t, model.Date{Year: 2025, Month: time.November, Day: 2}, usStandard.Date(2025))
	assert.Equal(t, model.Date{Year: 1970, Month: time.March, Day: 8}, usDaylight.Date(1970))

	lastSunday := Transition{Month: time.October, Week: -1, Weekday: time.Sunday, Hour: 3}
	assert.Equal(t, model.Date{Year: 2025, Month: time.October, Day: 26}, lastSunday.Date(2025))
	assert.Equal(t, "-1SU", lastSunday.byDay())
}

func TestZoneForUnknownKeepsCallerID(t *testing.T) {
	z := ZoneFor("Campus/Local")
	assert.Equal(t, "Campus/Local", z.ID)
	assert.Equal(t, -5*hour, z.StandardOffset)
	assert.True(t, z.HasDaylight())

	assert.Equal(t, DefaultZoneID, ZoneFor("").ID)

	_, ok := LookupZone("Campus/Local")
	assert.False(t, ok)
}

func TestStandardOnlyZoneBlock(t *testing.T) {
	block := strings.Join(ZoneFor("America/Phoenix").lines(), "\n")
	assert.Equal(t, strings.Join([]string{
		"BEGIN:VTIMEZONE",
		"TZID:America/Phoenix",
		"X-LIC-LOCATION:America/Phoenix",
		"BEGIN:STANDARD",
		"TZOFFSETFROM:-0700",
		"TZOFFSETTO:-0700",
		"TZNAME:MST",
		"DTSTART:19700101T000000",
		"END:STANDARD",
		"END:VTIMEZONE",
	}, "\n"), block)
}

func TestFormatOffset(t *testing.T) {
	assert.Equal(t, "-0500", formatOffset(-5*hour))
	assert.Equal(t, "+0530", formatOffset(5*hour+30*60))
	assert.Equal(t, "+0000", formatOffset(0))
}
