// Package ics turns normalized schedule rows into RFC 5545 text and reads
// generated calendars back for verification and preview.
package ics

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	appLog "sched2ics/internal/log"
	"sched2ics/internal/model"
)

const (
	DefaultProductID = "-//sched2ics//Class Schedule Converter//EN"
	DefaultUIDDomain = "generated"

	// maxOccurrenceSearch bounds the first-occurrence scan. A non-empty
	// weekday set always matches within 7 days.
	maxOccurrenceSearch = 14
)

// EncodeOptions configures one conversion run.
type EncodeOptions struct {
	// TZID qualifies DTSTART/DTEND and selects the embedded VTIMEZONE.
	TZID      string
	ProductID string
	UIDDomain string

	// Now is used for DTSTAMP and UID generation. Zero means time.Now().
	Now time.Time
	// Suffix returns the random UID component. Nil uses a uuid fragment.
	Suffix func() string
}

func (o EncodeOptions) withDefaults() EncodeOptions {
	if o.TZID == "" {
		o.TZID = DefaultZoneID
	}
	if o.ProductID == "" {
		o.ProductID = DefaultProductID
	}
	if o.UIDDomain == "" {
		o.UIDDomain = DefaultUIDDomain
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Suffix == nil {
		o.Suffix = randomSuffix
	}
	return o
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
}

// Encode builds one weekly recurring event per row and serializes them.
// Rows without an occurrence are left out.
func Encode(rows []model.ScheduleRow, opts EncodeOptions) string {
	opts = opts.withDefaults()
	return Serialize(BuildEvents(rows, opts), opts)
}

// FirstOccurrence returns the first date on or after start whose weekday
// is in days.
func FirstOccurrence(start model.Date, days model.WeekdaySet) (model.Date, bool) {
	d := start
	for i := 0; i < maxOccurrenceSearch; i++ {
		if days.Has(d.Weekday()) {
			return d, true
		}
		d = d.AddDays(1)
	}
	return model.Date{}, false
}

// RecurrenceUntil is the term end at 23:59:59 local time, in UTC, plus one
// day so end-exclusive or zone-shifted consumers keep the final meeting.
func RecurrenceUntil(termEnd model.Date, zone Zone) time.Time {
	return zone.ToUTC(termEnd.At(23, 59, 59)).AddDate(0, 0, 1)
}

// BuildEvents maps rows to calendar events.
func BuildEvents(rows []model.ScheduleRow, opts EncodeOptions) []model.CalendarEvent {
	opts = opts.withDefaults()
	zone := ZoneFor(opts.TZID)

	events := make([]model.CalendarEvent, 0, len(rows))
	for _, row := range rows {
		first, ok := FirstOccurrence(row.TermStart, row.Schedule.Weekdays)
		if !ok {
			appLog.Debug("encode: no occurrence within search window", "row", row.Row, "term_start", row.TermStart)
			continue
		}
		s := row.Schedule
		events = append(events, model.CalendarEvent{
			UID:   fmt.Sprintf("%d-%d-%s@%s", opts.Now.UnixMilli(), row.Row, opts.Suffix(), opts.UIDDomain),
			Row:   row.Row,
			Start: first.At(s.Start.Hour, s.Start.Minute, 0),
			End:   first.At(s.End.Hour, s.End.Minute, 0),
			Recurrence: model.Recurrence{
				Weekdays: s.Weekdays,
				Until:    RecurrenceUntil(row.TermEnd, zone),
			},
			Summary:     row.CourseName,
			Description: describe(row),
			Location:    s.Location,
		})
	}
	return events
}

func describe(row model.ScheduleRow) string {
	parts := []string{row.CourseName}
	if row.SectionID != "" {
		parts = append(parts, "Section: "+row.SectionID)
	}
	if row.Instructor != "" {
		parts = append(parts, "Instructor: "+row.Instructor)
	}
	parts = append(parts, "Schedule: "+row.ScheduleText)
	return strings.Join(parts, " ")
}

// RRule renders the weekly recurrence rule value.
func RRule(r model.Recurrence) string {
	return fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s;UNTIL=%s;WKST=SU", r.Weekdays, formatUTC(r.Until))
}

// Serialize renders the full VCALENDAR document with CRLF line endings.
func Serialize(events []model.CalendarEvent, opts EncodeOptions) string {
	opts = opts.withDefaults()
	zone := ZoneFor(opts.TZID)
	stamp := formatUTC(opts.Now)

	var b strings.Builder
	writeProlog(&b, opts.ProductID)
	for _, l := range zone.lines() {
		writeLine(&b, l)
	}
	for _, ev := range events {
		writeEvent(&b, ev, zone.ID, stamp)
	}
	writeLine(&b, "END:VCALENDAR")
	return b.String()
}

// EmptyDocument is a valid calendar with no timezone and no events.
func EmptyDocument(productID string) string {
	if productID == "" {
		productID = DefaultProductID
	}
	var b strings.Builder
	writeProlog(&b, productID)
	writeLine(&b, "END:VCALENDAR")
	return b.String()
}

func writeProlog(b *strings.Builder, productID string) {
	writeLine(b, "BEGIN:VCALENDAR")
	writeLine(b, "VERSION:2.0")
	writeLine(b, "PRODID:"+productID)
	writeLine(b, "CALSCALE:GREGORIAN")
	writeLine(b, "METHOD:PUBLISH")
}

func writeEvent(b *strings.Builder, ev model.CalendarEvent, tzid, stamp string) {
	writeLine(b, "BEGIN:VEVENT")
	writeLine(b, "UID:"+ev.UID)
	writeLine(b, "DTSTAMP:"+stamp)
	writeLine(b, "DTSTART;TZID="+tzid+":"+formatLocal(ev.Start))
	writeLine(b, "DTEND;TZID="+tzid+":"+formatLocal(ev.End))
	writeLine(b, "SUMMARY:"+EscapeText(ev.Summary))
	writeLine(b, "DESCRIPTION:"+EscapeText(ev.Description))
	if ev.Location != "" {
		writeLine(b, "LOCATION:"+EscapeText(ev.Location))
	}
	writeLine(b, "RRULE:"+RRule(ev.Recurrence))
	writeLine(b, "END:VEVENT")
}
