package dataset

// RawTable is an untyped table as read from disk: trimmed headers and rows of
// string cells. Every row has exactly len(Headers) cells.
type RawTable struct {
	Source  string
	Headers []string
	Rows    [][]string
	// Ragged lists 1-based data rows that had non-blank cells past the last
	// header. Those cells are not in Rows.
	Ragged []int
}

// Len returns the number of data rows
func (t *RawTable) Len() int {
	return len(t.Rows)
}

// Column returns the index of header, or -1
func (t *RawTable) Column(header string) int {
	for i, h := range t.Headers {
		if h == header {
			return i
		}
	}
	return -1
}
