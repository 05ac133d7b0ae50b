package normalize

import (
	"math"
	"time"

	"sched2ics/internal/model"
)

// serialEpoch is day 0 of the 1900 spreadsheet date system as exported by
// common spreadsheet tools.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// maxSerial is 9999-12-31, the last date spreadsheet tools can represent.
const maxSerial = 2958465

// ValidSerial reports whether serial is finite and within 0..9999-12-31.
func ValidSerial(serial float64) bool {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return false
	}
	r := math.Round(serial)
	return r >= 0 && r <= maxSerial
}

// SerialToDate converts a spreadsheet date serial into a civil date. The
// fractional part is rounded to the nearest whole day. Serials outside
// ValidSerial are clamped to the representable range.
func SerialToDate(serial float64) model.Date {
	var days int
	switch {
	case math.IsNaN(serial), serial < 0:
		days = 0
	case serial > maxSerial:
		days = maxSerial
	default:
		days = int(math.Round(serial))
	}
	return model.DateOf(serialEpoch.AddDate(0, 0, days))
}
