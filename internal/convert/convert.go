// Package convert wires the extract, normalize and encode stages into one
// spreadsheet-to-calendar conversion.
package convert

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sched2ics/internal/ics"
	appLog "sched2ics/internal/log"
	"sched2ics/internal/model"
	"sched2ics/internal/normalize"
	"sched2ics/internal/sheet"
)

// ErrStructural reports input that cannot be read as a cell mapping at all.
// Conversions failing this way still return an empty calendar document.
var ErrStructural = errors.New("input is not a usable cell mapping")

// Options configures a Converter. Zero values fall back to the encoder
// defaults.
type Options struct {
	TZID      string
	ProductID string
	UIDDomain string
	// Sheet selects a worksheet by name in xlsx or workbook JSON input.
	Sheet string

	// Now stamps DTSTAMP and UIDs. Nil uses time.Now.
	Now func() time.Time
	// Suffix supplies the random UID component. Nil uses a uuid fragment.
	Suffix func() string
}

// Converter turns cell snapshots into calendar documents. It holds no
// mutable state and may be shared between goroutines.
type Converter struct {
	opts   Options
	layout normalize.Layout
}

// Result is the outcome of one conversion.
type Result struct {
	Document string
	Rows     []model.ScheduleRow
	Events   []model.CalendarEvent
}

func New(opts Options) *Converter {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Converter{opts: opts, layout: normalize.DefaultLayout()}
}

// TZID returns the zone the converter qualifies times with.
func (c *Converter) TZID() string {
	if c.opts.TZID == "" {
		return ics.DefaultZoneID
	}
	return c.opts.TZID
}

// WithTZID returns a copy of c using a different zone.
func (c *Converter) WithTZID(tzid string) *Converter {
	cp := *c
	cp.opts.TZID = tzid
	return &cp
}

func (c *Converter) encodeOptions() ics.EncodeOptions {
	return ics.EncodeOptions{
		TZID:      c.TZID(),
		ProductID: c.opts.ProductID,
		UIDDomain: c.opts.UIDDomain,
		Now:       c.opts.Now(),
		Suffix:    c.opts.Suffix,
	}
}

// Convert runs the pipeline over an ordered cell snapshot. It never fails:
// malformed rows are dropped.
func (c *Converter) Convert(cells sheet.Cells) Result {
	kept := sheet.Extract(cells)
	rows := normalize.NormalizeWithLayout(kept, c.layout)

	opts := c.encodeOptions()
	events := ics.BuildEvents(rows, opts)
	doc := ics.Serialize(events, opts)

	appLog.Info("convert done",
		"cells", len(cells),
		"kept", len(kept),
		"rows", len(rows),
		"events", len(events),
		"tzid", opts.TZID,
	)
	return Result{Document: doc, Rows: rows, Events: events}
}

func (c *Converter) structural(err error) (Result, error) {
	return Result{Document: ics.EmptyDocument(c.opts.ProductID)}, fmt.Errorf("%w: %v", ErrStructural, err)
}

// ConvertJSON converts a JSON cell snapshot.
func (c *Converter) ConvertJSON(r io.Reader) (Result, error) {
	cells, err := sheet.DecodeJSON(r, c.opts.Sheet)
	if err != nil {
		return c.structural(err)
	}
	return c.Convert(cells), nil
}

// ConvertXLSX converts an xlsx workbook.
func (c *Converter) ConvertXLSX(r io.Reader) (Result, error) {
	cells, err := sheet.ReadXLSX(r, c.opts.Sheet)
	if err != nil {
		return c.structural(err)
	}
	return c.Convert(cells), nil
}

// ConvertBytes converts data, choosing the reader by file name extension
// and falling back to content sniffing.
func (c *Converter) ConvertBytes(name string, data []byte) (Result, error) {
	if isXLSX(name, data) {
		return c.ConvertXLSX(bytes.NewReader(data))
	}
	return c.ConvertJSON(bytes.NewReader(data))
}

// ConvertFile reads and converts the file at path.
func (c *Converter) ConvertFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	return c.ConvertBytes(filepath.Base(path), data)
}

var zipMagic = []byte("PK\x03\x04")

func isXLSX(name string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return true
	case ".json":
		return false
	}
	return bytes.HasPrefix(data, zipMagic)
}

// OutputName derives the calendar file name for an input file, e.g.
// "schedule.xlsx" becomes "schedule_calendar.ics".
func OutputName(input string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "schedule"
	}
	return base + "_calendar.ics"
}
