package posts

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Loader reads post exports into a Table.
type Loader interface {
	// LoadFile reads a single export.
	LoadFile(ctx context.Context, path string) (*Table, error)
	// LoadDir reads every *.csv file directly inside dir, unioning columns
	// by name.
	LoadDir(ctx context.Context, dir string) (*Table, error)
	Close() error
}

type CSVLoader struct {
	log *slog.Logger
}

func NewCSVLoader(log *slog.Logger) *CSVLoader {
	return &CSVLoader{log: log}
}

func (l *CSVLoader) LoadFile(ctx context.Context, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	l.log.Debug("Loaded posts file", "path", path, "rows", len(t.Rows), "columns", len(t.Columns))
	return t, nil
}

func (l *CSVLoader) LoadDir(ctx context.Context, dir string) (*Table, error) {
	files, err := csvFiles(dir)
	if err != nil {
		return nil, err
	}

	out := NewTable(nil, nil)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := l.LoadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		out.Append(t)
	}
	l.log.Info("Loaded posts folder", "dir", dir, "files", len(files), "rows", len(out.Rows))
	return out, nil
}

func (l *CSVLoader) Close() error {
	return nil
}

// ReadCSV parses a header row followed by records. Short records are padded
// and a leading byte order mark is dropped.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}
	return NewTable(header, rows), nil
}

func csvFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, dir)
	}
	sort.Strings(files)
	return files, nil
}
