package report

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatJSON:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be csv or json", s)
	}
}

// WriteFile writes t to path, creating parent directories as needed.
func WriteFile(path string, t *Table, format Format) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create folder: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Write(f, t, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func Write(w io.Writer, t *Table, format Format) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, t)
	default:
		return WriteCSV(w, t)
	}
}

// WriteCSV writes t quoting every non-numeric field: the header, string
// cells and nulls (as ""). Numbers are written bare.
func WriteCSV(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	fields := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		fields[i] = quote(c)
	}
	if _, err := fmt.Fprintln(bw, strings.Join(fields, ",")); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for n, row := range t.Rows {
		fields = fields[:0]
		for _, c := range row {
			if c.Kind == KindNumber {
				fields = append(fields, c.Text())
			} else {
				fields = append(fields, quote(c.Text()))
			}
		}
		if _, err := fmt.Fprintln(bw, strings.Join(fields, ",")); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", n, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

type jsonTable struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// WriteJSON writes t as {"columns": [...], "rows": [[...], ...]} with null
// cells as JSON null.
func WriteJSON(w io.Writer, t *Table) error {
	out := jsonTable{Columns: t.Columns, Rows: make([][]any, 0, len(t.Rows))}
	for _, row := range t.Rows {
		vals := make([]any, len(row))
		for i, c := range row {
			switch c.Kind {
			case KindString:
				vals[i] = c.Str
			case KindNumber:
				vals[i] = c.Num
			}
		}
		out.Rows = append(out.Rows, vals)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// Print renders t as a bordered terminal table.
func Print(w io.Writer, title string, t *Table) {
	if title != "" {
		fmt.Fprintln(w, title)
	}
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader(t.Columns)
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = display(c)
		}
		table.Append(cells)
	}
	table.Render()
}

func display(c Cell) string {
	if c.Kind != KindNumber {
		return c.Text()
	}
	if c.Num == math.Trunc(c.Num) {
		return fmt.Sprintf("%.0f", c.Num)
	}
	return fmt.Sprintf("%.4f", c.Num)
}
