package ics

import (
	"errors"
	"fmt"
	"strings"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

// ParsedEvent is a VEVENT read back from a calendar document.
type ParsedEvent struct {
	UID string

	Summary     string
	Description string
	Location    string

	StartTZ  string
	RawStart string
	RawEnd   string
	RawRRule string
}

// Inspection is the parsed view of a calendar document.
type Inspection struct {
	Timezones []string
	Events    []ParsedEvent
}

// Inspect parses doc with golang-ical and collects its timezones and events.
func Inspect(doc string) (Inspection, error) {
	var out Inspection

	cal, err := ical.ParseCalendar(strings.NewReader(doc))
	if err != nil {
		return out, fmt.Errorf("parse calendar: %w", err)
	}

	for _, comp := range cal.Components {
		tz, ok := comp.(*ical.VTimezone)
		if !ok {
			continue
		}
		if p := tz.GetProperty("TZID"); p != nil {
			out.Timezones = append(out.Timezones, p.Value)
		}
	}

	for _, ve := range cal.Events() {
		out.Events = append(out.Events, parseVEvent(ve))
	}
	return out, nil
}

func parseVEvent(ve *ical.VEvent) ParsedEvent {
	var out ParsedEvent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		out.RawStart = p.Value
		if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
			out.StartTZ = tzs[0]
		}
	}
	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
		out.RawEnd = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}
	return out
}

// Verify inspects doc and checks that every event carries a UID, a
// zone-qualified DTSTART that resolves to an embedded VTIMEZONE, and a
// parseable RRULE.
func Verify(doc string) (Inspection, error) {
	insp, err := Inspect(doc)
	if err != nil {
		return insp, err
	}

	known := make(map[string]bool, len(insp.Timezones))
	for _, id := range insp.Timezones {
		known[id] = true
	}

	var errs []error
	seen := make(map[string]bool, len(insp.Events))
	for i, ev := range insp.Events {
		switch {
		case ev.UID == "":
			errs = append(errs, fmt.Errorf("event %d: missing UID", i))
		case seen[ev.UID]:
			errs = append(errs, fmt.Errorf("event %d: duplicate UID %s", i, ev.UID))
		}
		seen[ev.UID] = true

		if ev.RawStart == "" {
			errs = append(errs, fmt.Errorf("event %s: missing DTSTART", ev.UID))
		}
		if ev.StartTZ != "" && !known[ev.StartTZ] {
			errs = append(errs, fmt.Errorf("event %s: TZID %s has no VTIMEZONE", ev.UID, ev.StartTZ))
		}
		if _, err := rrule.StrToROption(ev.RawRRule); err != nil {
			errs = append(errs, fmt.Errorf("event %s: bad RRULE: %w", ev.UID, err))
		}
	}
	return insp, errors.Join(errs...)
}
