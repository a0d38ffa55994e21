package posts

import (
	"fmt"
	"strings"
)

// Brand and taxonomy columns of the auxiliary exports.
const (
	ColumnGroup       = "group"
	ColumnBrandID     = "brand_id"
	ColumnBeautyGroup = "beauty_group"
)

// KeepMatching keeps the rows of t whose on column matches a row of other,
// adding the other columns of the first matching row of other.
func KeepMatching(t, other *Table, on string) (*Table, error) {
	if err := t.Require(on); err != nil {
		return nil, fmt.Errorf("posts: %w", err)
	}
	if err := other.Require(on); err != nil {
		return nil, fmt.Errorf("brand list: %w", err)
	}

	out := NewTable(append([]string(nil), t.Columns...), nil)
	extra := joinColumns(out, other, on)
	lookup := firstRows(other, on)

	for _, row := range t.Rows {
		match, ok := lookup[row[t.Index(on)]]
		if !ok {
			continue
		}
		out.Rows = append(out.Rows, joinRow(out, row, match, extra))
	}
	return out, nil
}

// LeftJoin adds the given columns of other to t, matching t.leftOn against
// other.rightOn. Unmatched rows get empty cells.
func LeftJoin(t, other *Table, leftOn, rightOn string, columns ...string) (*Table, error) {
	if err := t.Require(leftOn); err != nil {
		return nil, fmt.Errorf("posts: %w", err)
	}
	if err := other.Require(append([]string{rightOn}, columns...)...); err != nil {
		return nil, fmt.Errorf("taxonomy: %w", err)
	}

	out := NewTable(append([]string(nil), t.Columns...), nil)
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = out.AddColumn(c)
	}
	lookup := firstRows(other, rightOn)

	for _, row := range t.Rows {
		rec := pad(append([]string(nil), row...), len(out.Columns))
		if match, ok := lookup[row[t.Index(leftOn)]]; ok {
			for i, c := range columns {
				rec[idx[i]] = match[other.Index(c)]
			}
		}
		out.Rows = append(out.Rows, rec)
	}
	return out, nil
}

// Fill sets empty cells of column to value, adding the column if needed.
func (t *Table) Fill(column, value string) {
	i := t.AddColumn(column)
	for _, row := range t.Rows {
		if strings.TrimSpace(row[i]) == "" {
			row[i] = value
		}
	}
}

// DropDuplicates removes rows identical to an earlier row.
func (t *Table) DropDuplicates() int {
	seen := make(map[string]struct{}, len(t.Rows))
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		k := strings.Join(row, "\x00")
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, row)
	}
	dropped := len(t.Rows) - len(kept)
	t.Rows = kept
	return dropped
}

// ParseFill parses a column=value fill rule.
func ParseFill(s string) (column, value string, err error) {
	m, err := parseRule("fill", s)
	if err != nil {
		return "", "", err
	}
	return m.Column, m.Value, nil
}

// Match selects the rows whose Column cell equals Value.
type Match struct {
	Column string
	Value  string
}

// ParseMatch parses a column=value row match.
func ParseMatch(s string) (Match, error) {
	return parseRule("match", s)
}

func (m Match) String() string {
	return m.Column + "=" + m.Value
}

func parseRule(kind, s string) (Match, error) {
	column, value, ok := strings.Cut(s, "=")
	column = strings.TrimSpace(column)
	if !ok || column == "" {
		return Match{}, fmt.Errorf("invalid %s rule %q: expected column=value", kind, s)
	}
	return Match{Column: column, Value: value}, nil
}

func firstRows(t *Table, on string) map[string][]string {
	i := t.Index(on)
	out := make(map[string][]string, len(t.Rows))
	for _, row := range t.Rows {
		if _, ok := out[row[i]]; !ok {
			out[row[i]] = row
		}
	}
	return out
}

// joinColumns adds every column of other except on to out and returns the
// (other index, out index) pairs.
func joinColumns(out, other *Table, on string) [][2]int {
	var extra [][2]int
	for i, c := range other.Columns {
		if c == on || out.Has(c) {
			continue
		}
		extra = append(extra, [2]int{i, out.AddColumn(c)})
	}
	return extra
}

func joinRow(out *Table, row, match []string, extra [][2]int) []string {
	rec := pad(append([]string(nil), row...), len(out.Columns))
	for _, e := range extra {
		rec[e[1]] = match[e[0]]
	}
	return rec
}
