package posts

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// DuckDBLoader reads exports through an in-memory DuckDB database, which
// handles large folders and schema drift between files (union by name).
type DuckDBLoader struct {
	log *slog.Logger
	db  *sql.DB
}

func NewDuckDBLoader(log *slog.Logger) (*DuckDBLoader, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &DuckDBLoader{log: log, db: db}, nil
}

func (l *DuckDBLoader) LoadFile(ctx context.Context, path string) (*Table, error) {
	t, err := l.readCSV(ctx, []string{path})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	l.log.Debug("Loaded posts file", "path", path, "rows", len(t.Rows), "columns", len(t.Columns))
	return t, nil
}

func (l *DuckDBLoader) LoadDir(ctx context.Context, dir string) (*Table, error) {
	files, err := csvFiles(dir)
	if err != nil {
		return nil, err
	}
	t, err := l.readCSV(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	l.log.Info("Loaded posts folder", "dir", dir, "files", len(files), "rows", len(t.Rows))
	return t, nil
}

func (l *DuckDBLoader) Close() error {
	return l.db.Close()
}

func (l *DuckDBLoader) readCSV(ctx context.Context, files []string) (*Table, error) {
	quoted := make([]string, 0, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for %s: %w", f, err)
		}
		quoted = append(quoted, quoteLiteral(abs))
	}

	query := fmt.Sprintf(`SELECT * FROM read_csv([%s],
		header = true,
		all_varchar = true,
		union_by_name = true)`, strings.Join(quoted, ", "))

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query csv: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	for i := range columns {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(columns[i], "\ufeff"))
	}

	var records [][]string
	values := make([]sql.NullString, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec := make([]string, len(columns))
		for i, v := range values {
			if v.Valid {
				rec[i] = v.String
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	if len(records) == 0 && len(columns) == 0 {
		return nil, ErrEmptyTable
	}
	return NewTable(columns, records), nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
