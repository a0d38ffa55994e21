package posts

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyTable    = errors.New("table has no rows")
	ErrNoFiles       = errors.New("no csv files found")
)

// Table is a loaded export: a header and string cells. Missing values are
// empty strings.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

func NewTable(columns []string, rows [][]string) *Table {
	t := &Table{Columns: columns, Rows: rows}
	t.reindex()
	for i, row := range t.Rows {
		t.Rows[i] = pad(row, len(columns))
	}
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
}

// Index returns the position of column, or -1.
func (t *Table) Index(column string) int {
	if i, ok := t.index[column]; ok {
		return i
	}
	return -1
}

func (t *Table) Has(column string) bool {
	return t.Index(column) >= 0
}

// Value returns the cell of row in column, or "" if the column is absent.
func (t *Table) Value(row int, column string) string {
	i := t.Index(column)
	if i < 0 {
		return ""
	}
	return t.Rows[row][i]
}

// Require returns an error naming every listed column the table lacks.
func (t *Table) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s (have %s)", ErrMissingColumn, strings.Join(missing, ", "), strings.Join(t.Columns, ", "))
	}
	return nil
}

// AddColumn appends an empty column unless it already exists and returns
// its position.
func (t *Table) AddColumn(name string) int {
	if i := t.Index(name); i >= 0 {
		return i
	}
	t.Columns = append(t.Columns, name)
	t.index[name] = len(t.Columns) - 1
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
	return len(t.Columns) - 1
}

// Append adds the rows of o, matching columns by name. Columns only o has
// are added; cells absent from either side are empty.
func (t *Table) Append(o *Table) {
	mapping := make([]int, len(o.Columns))
	for i, c := range o.Columns {
		mapping[i] = t.AddColumn(c)
	}
	for _, row := range o.Rows {
		out := make([]string, len(t.Columns))
		for i, v := range row {
			if i < len(mapping) {
				out[mapping[i]] = v
			}
		}
		t.Rows = append(t.Rows, out)
	}
}

func pad(row []string, n int) []string {
	if len(row) >= n {
		return row[:n]
	}
	out := make([]string, n)
	copy(out, row)
	return out
}
