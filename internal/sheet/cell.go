// Package sheet holds the cell-level view of a spreadsheet export and the
// extractor that isolates the enrolled-sections block.
package sheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Cell is a single addressed spreadsheet value, e.g. {"K14", "M-W-F | ..."}.
type Cell struct {
	Address string
	Value   any
}

// Cells is a cell snapshot in the encounter order of its source.
type Cells []Cell

// SplitAddress splits "K14" into ("K", 14).
func SplitAddress(addr string) (col string, row int, ok bool) {
	col, row, err := excelize.SplitCellName(addr)
	if err != nil || col == "" || row <= 0 {
		return "", 0, false
	}
	return strings.ToUpper(col), row, true
}

// Text renders a cell value as trimmed text. Nil yields "".
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// Number interprets a cell value as a float. Numeric strings are accepted.
func Number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		var err error
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if !finite(f) {
		return 0, false
	}
	return f, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// parseValue converts raw workbook text into int64, float64 or string.
// Zero-padded identifiers such as "001" and words like "NaN" stay strings.
func parseValue(s string) any {
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		return s
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && finite(f) {
		return f
	}
	return s
}
