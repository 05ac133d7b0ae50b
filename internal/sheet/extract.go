package sheet

const (
	// EnrolledMarker opens the block; data starts two rows below it.
	EnrolledMarker = "Enrolled Sections"
	// CompletedMarker closes the block.
	CompletedMarker = "My Completed Courses"

	headerRows = 2
)

type extractState int

const (
	stateInactive extractState = iota
	stateActive
)

// extractor is the two-state cursor driven by the block markers.
type extractor struct {
	state   extractState
	fromRow int
}

// step consumes one cell and reports whether it belongs to the block.
func (e *extractor) step(c Cell) bool {
	_, row, ok := SplitAddress(c.Address)
	marker, _ := c.Value.(string)

	if marker == CompletedMarker {
		e.state = stateInactive
	}

	keep := ok && e.state == stateActive && row >= e.fromRow

	if marker == EnrolledMarker && ok {
		e.state = stateActive
		e.fromRow = row + headerRows
	}
	return keep
}

// Extract returns the cells of the "Enrolled Sections" table, scanning in
// encounter order. Missing markers yield an empty result; when a marker
// repeats, the last occurrence wins.
func Extract(cells Cells) Cells {
	var e extractor
	out := make(Cells, 0, len(cells))
	for _, c := range cells {
		if e.step(c) {
			out = append(out, c)
		}
	}
	return out
}
