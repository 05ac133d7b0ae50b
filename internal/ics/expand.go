package ics

import (
	"errors"
	"sort"
	"time"
	_ "time/tzdata" // preview must not depend on the host zoneinfo

	"github.com/teambition/rrule-go"

	appLog "sched2ics/internal/log"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

// Occurrence is one concrete meeting of a recurring event.
type Occurrence struct {
	UID      string    `json:"uid"`
	Summary  string    `json:"summary"`
	Location string    `json:"location"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// RangeStart / RangeEnd define the inclusive time window for occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap. If zero,
	// defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the expanded occurrences and the UIDs that were cut
// short by the cap.
type ExpandResult struct {
	Occurrences     []Occurrence
	TruncatedEvents []string
}

// ExpandOccurrences expands inspected events into occurrences within the
// configured range, sorted by start time. Events whose DTSTART or RRULE
// cannot be read are logged and skipped.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	all := make([]Occurrence, 0)
	for _, ev := range events {
		occ, hitCap, err := expandEvent(ev, cfg)
		if err != nil {
			appLog.Error("expand: skipping event", err, "uid", ev.UID)
			continue
		}
		if hitCap {
			result.TruncatedEvents = append(result.TruncatedEvents, ev.UID)
			appLog.Warn("expand: truncated occurrences for UID due to cap",
				"uid", ev.UID,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
		all = append(all, occ...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Start.Before(all[j].Start)
	})
	result.Occurrences = all
	return result, nil
}

func expandEvent(ev ParsedEvent, cfg ExpandConfig) ([]Occurrence, bool, error) {
	loc := eventLocation(ev.StartTZ)

	start, err := time.ParseInLocation(localLayout, ev.RawStart, loc)
	if err != nil {
		return nil, false, err
	}
	end := start
	if ev.RawEnd != "" {
		if end, err = time.ParseInLocation(localLayout, ev.RawEnd, loc); err != nil {
			return nil, false, err
		}
	}

	opt, err := rrule.StrToROption(ev.RawRRule)
	if err != nil {
		return nil, false, err
	}
	opt.Dtstart = start
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, false, err
	}

	times := r.Between(cfg.RangeStart, cfg.RangeEnd, true)
	hitCap := false
	if len(times) > cfg.MaxOccurrencesPerEvent {
		times = times[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	dur := end.Sub(start)
	out := make([]Occurrence, 0, len(times))
	for _, t := range times {
		out = append(out, Occurrence{
			UID:      ev.UID,
			Summary:  ev.Summary,
			Location: ev.Location,
			Start:    t,
			End:      t.Add(dur),
		})
	}
	return out, hitCap, nil
}

// eventLocation resolves a TZID through the IANA database, falling back to
// the compiled-in zone's standard offset.
func eventLocation(tzid string) *time.Location {
	if tzid == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tzid)
	if err == nil {
		return loc
	}
	z := ZoneFor(tzid)
	appLog.Warn("expand: unknown TZID, using fixed offset", "tzid", tzid, "offset", formatOffset(z.StandardOffset))
	return time.FixedZone(z.StandardName, z.StandardOffset)
}
