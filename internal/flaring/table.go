package flaring

import (
	"fmt"
	"strings"

	"flarewatch/pkg/errors"
)

// RawTable is an untyped, row-oriented table as delivered by an ingestion
// source: a header row and string cells.
type RawTable struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// NewRawTable creates an empty table with the given header.
func NewRawTable(name string, columns []string) *RawTable {
	return &RawTable{Name: name, Columns: append([]string(nil), columns...)}
}

// Append adds a row. The row must have one cell per column.
func (t *RawTable) Append(row []string) error {
	if len(row) != len(t.Columns) {
		return errors.New(errors.ErrCodeSchema,
			fmt.Sprintf("table %q row %d has %d cells, header has %d", t.Name, len(t.Rows)+1, len(row), len(t.Columns))).
			WithContext("table", t.Name).
			WithSeverity(errors.SeverityCritical)
	}
	t.Rows = append(t.Rows, append([]string(nil), row...))
	return nil
}

// Len returns the number of data rows.
func (t *RawTable) Len() int {
	return len(t.Rows)
}

// Index returns the position of the column whose SQL-friendly name equals
// that of name, or -1.
func (t *RawTable) Index(name string) int {
	want := SQLFriendly(name)
	for i, c := range t.Columns {
		if SQLFriendly(c) == want {
			return i
		}
	}
	return -1
}

// Column returns every cell of the named column, or false if it is absent.
func (t *RawTable) Column(name string) ([]string, bool) {
	idx := t.Index(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, true
}

// WithSQLFriendlyHeader returns a copy of the table whose column names have
// been passed through SQLFriendly. Rows are shared.
func (t *RawTable) WithSQLFriendlyHeader() *RawTable {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = SQLFriendly(c)
	}
	return &RawTable{Name: t.Name, Columns: cols, Rows: t.Rows}
}

// Concat appends all rows of other, aligning columns by SQL-friendly name.
// Columns of other that t does not have are added, padding earlier rows
// with empty cells.
func (t *RawTable) Concat(other *RawTable) {
	mapping := make([]int, len(other.Columns))
	for i, c := range other.Columns {
		idx := t.Index(c)
		if idx < 0 {
			t.Columns = append(t.Columns, c)
			for r := range t.Rows {
				t.Rows[r] = append(t.Rows[r], "")
			}
			idx = len(t.Columns) - 1
		}
		mapping[i] = idx
	}

	for _, row := range other.Rows {
		out := make([]string, len(t.Columns))
		for i, cell := range row {
			if i < len(mapping) {
				out[mapping[i]] = cell
			}
		}
		t.Rows = append(t.Rows, out)
	}
}

// SQLFriendly lower-cases a header and replaces spaces with underscores.
func SQLFriendly(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}
