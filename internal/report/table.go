package report

import (
	"strconv"

	"github.com/malbeclabs/retention-tools/pkg/retention"
)

// ColumnIndex labels the metric of each row, as in the historical reports.
const ColumnIndex = "index"

type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindNull
)

// Cell is one typed value of a report table.
type Cell struct {
	Kind Kind
	Str  string
	Num  float64
}

func String(s string) Cell {
	return Cell{Kind: KindString, Str: s}
}

func Number(v float64) Cell {
	return Cell{Kind: KindNumber, Num: v}
}

func Int(v int) Cell {
	return Number(float64(v))
}

func Null() Cell {
	return Cell{Kind: KindNull}
}

// Optional is a number cell, or null when v is nil.
func Optional(v *float64) Cell {
	if v == nil {
		return Null()
	}
	return Number(*v)
}

// Text renders the cell without quoting. Null is empty.
func (c Cell) Text() string {
	switch c.Kind {
	case KindString:
		return c.Str
	case KindNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	}
	return ""
}

type Table struct {
	Columns []string
	Rows    [][]Cell
}

func periodColumns(periods []retention.Period) []string {
	out := make([]string, len(periods))
	for i, p := range periods {
		out[i] = p.Label
	}
	return out
}

func numbers(values []float64) []Cell {
	out := make([]Cell, len(values))
	for i, v := range values {
		out[i] = Number(v)
	}
	return out
}
