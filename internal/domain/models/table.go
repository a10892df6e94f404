package models

import "time"

// RawTable is a time-indexed table exactly as a collector delivered it:
// cells stay textual until the feature engine coerces them. Rows are sorted
// by timestamp and deduplicated at the adapter boundary.
type RawTable struct {
	Symbol   string
	Interval string
	Columns  []string
	Times    []time.Time
	Cells    map[string][]string
}

func (t *RawTable) Len() int {
	return len(t.Times)
}

// AddColumn registers a column and its cells; the cell slice must match the
// time index length.
func (t *RawTable) AddColumn(name string, cells []string) {
	if t.Cells == nil {
		t.Cells = make(map[string][]string)
	}
	if _, exists := t.Cells[name]; !exists {
		t.Columns = append(t.Columns, name)
	}
	t.Cells[name] = cells
}
