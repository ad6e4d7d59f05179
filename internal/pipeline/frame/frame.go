// Package frame provides the minimal column-oriented table the pipeline works
// on. Cells are strings, the empty string means missing; typing is applied by
// a declared Schema at ingestion rather than inferred per-cell.
package frame

import (
	"fmt"
	"strings"
)

// Table is an ordered set of named columns with string cells.
type Table struct {
	name  string
	cols  []string
	index map[string]int
	rows  [][]string
}

// New builds an empty table with the given column order.
func New(name string, cols []string) (*Table, error) {
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("table %s: duplicate column %q", name, c)
		}
		index[c] = i
	}
	return &Table{name: name, cols: append([]string(nil), cols...), index: index}, nil
}

// Name returns the table's source name, used in diagnostics.
func (t *Table) Name() string { return t.name }

// Columns returns the column names in order.
func (t *Table) Columns() []string { return append([]string(nil), t.cols...) }

// HasColumn reports whether the column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.rows) }

// AppendRow adds a row. Short rows are padded with empty cells; long rows are
// rejected since they indicate a malformed source line.
func (t *Table) AppendRow(cells []string) error {
	if len(cells) > len(t.cols) {
		return fmt.Errorf("table %s: row has %d cells, expected at most %d", t.name, len(cells), len(t.cols))
	}
	row := make([]string, len(t.cols))
	copy(row, cells)
	t.rows = append(t.rows, row)
	return nil
}

// Cell returns the trimmed-of-nothing raw cell value, or "" when the column
// does not exist.
func (t *Table) Cell(row int, col string) string {
	i, ok := t.index[col]
	if !ok {
		return ""
	}
	return t.rows[row][i]
}

// Column returns a copy of an entire column, or nil if absent.
func (t *Table) Column(col string) []string {
	i, ok := t.index[col]
	if !ok {
		return nil
	}
	out := make([]string, len(t.rows))
	for r := range t.rows {
		out[r] = t.rows[r][i]
	}
	return out
}

// DropColumn removes a column if present. Used to strip exporter artifacts
// such as the pandas index column.
func (t *Table) DropColumn(name string) {
	i, ok := t.index[name]
	if !ok {
		return
	}
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	for r := range t.rows {
		t.rows[r] = append(t.rows[r][:i], t.rows[r][i+1:]...)
	}
	t.index = make(map[string]int, len(t.cols))
	for j, c := range t.cols {
		t.index[c] = j
	}
}

// CleanText normalizes a noisy identifier cell: NBSP becomes a plain space,
// BOM characters are stripped, surrounding whitespace is trimmed.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, "\uFEFF", "")
	return strings.TrimSpace(s)
}
