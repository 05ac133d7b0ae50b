package sheet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotCellMapping is returned when a snapshot cannot be read as a mapping
// of cell addresses to values.
var ErrNotCellMapping = errors.New("snapshot is not a cell mapping")

type member struct {
	Key string
	Raw json.RawMessage
}

// DecodeJSON reads a cell snapshot in one of these shapes, keeping key order:
//
//	{"A1": {"v": "Enrolled Sections"}, ...}         (SheetJS worksheet)
//	{"A1": "Enrolled Sections", ...}                (plain mapping)
//	{"SheetNames": [...], "Sheets": {"Sheet1": {...}}}  (SheetJS workbook)
//
// For workbooks, sheetName selects the sheet; empty means the first entry of
// SheetNames, or the first key of Sheets when SheetNames is missing.
// Keys starting with "!" (worksheet metadata such as "!ref") are skipped.
func DecodeJSON(r io.Reader, sheetName string) (Cells, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	members, err := readObject(data)
	if err != nil {
		return nil, err
	}

	if sheets, ok := lookup(members, "Sheets"); ok {
		if sheetName == "" {
			sheetName = firstSheetName(members)
		}
		members, err = selectSheet(sheets, sheetName)
		if err != nil {
			return nil, err
		}
	}

	cells := make(Cells, 0, len(members))
	for _, m := range members {
		if strings.HasPrefix(m.Key, "!") {
			continue
		}
		v, err := decodeCellValue(m.Raw)
		if err != nil {
			return nil, fmt.Errorf("%w: cell %s: %v", ErrNotCellMapping, m.Key, err)
		}
		cells = append(cells, Cell{Address: m.Key, Value: v})
	}
	return cells, nil
}

// firstSheetName returns SheetNames[0], which gives the workbook's tab
// order, or "" when it is absent or unreadable.
func firstSheetName(members []member) string {
	raw, ok := lookup(members, "SheetNames")
	if !ok {
		return ""
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil || len(names) == 0 {
		return ""
	}
	return names[0]
}

func selectSheet(raw json.RawMessage, name string) ([]member, error) {
	sheets, err := readObject(raw)
	if err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrNotCellMapping)
	}
	if name == "" {
		return readObject(sheets[0].Raw)
	}
	s, ok := lookup(sheets, name)
	if !ok {
		return nil, fmt.Errorf("%w: sheet %q not found", ErrNotCellMapping, name)
	}
	return readObject(s)
}

func lookup(members []member, key string) (json.RawMessage, bool) {
	for _, m := range members {
		if m.Key == key {
			return m.Raw, true
		}
	}
	return nil, false
}

// readObject decodes one JSON object into its members in document order.
func readObject(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotCellMapping, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: expected object", ErrNotCellMapping)
	}

	var out []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotCellMapping, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected token %v", ErrNotCellMapping, tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotCellMapping, err)
		}
		out = append(out, member{Key: key, Raw: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotCellMapping, err)
	}
	return out, nil
}

func decodeCellValue(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var cell struct {
			V any `json:"v"`
		}
		if err := json.Unmarshal(trimmed, &cell); err != nil {
			return nil, err
		}
		return cell.V, nil
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, err
	}
	return v, nil
}
