package posts

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestPosts_ReadCSV(t *testing.T) {
	t.Parallel()

	in := "\ufeffinfluencer_uid, date ,mentions\n" +
		"u1,2024-01-02,1\n" +
		"u2,\"2024-02-03 10:00:00\"\n"
	tbl, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	require.Equal(t, []string{"influencer_uid", "date", "mentions"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)
	require.Equal(t, "u1", tbl.Value(0, ColumnEntity))
	require.Equal(t, "2024-02-03 10:00:00", tbl.Value(1, ColumnDate))
	// Short records are padded.
	require.Equal(t, "", tbl.Value(1, ColumnMentions))
	require.Equal(t, "", tbl.Value(0, "missing"))
}

func TestPosts_ReadCSV_Empty(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(strings.NewReader(""))
	require.True(t, errors.Is(err, ErrEmptyTable))
}

func TestPosts_CSVLoader_LoadDir_UnionsColumns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "b.csv", "influencer_uid,date,mentions,group\nu2,2024-03-01,2,Acme\n")
	writeFile(t, dir, "a.csv", "influencer_uid,date,mentions\nu1,2024-01-01,1\n")
	writeFile(t, dir, "notes.txt", "ignored")

	tbl, err := NewCSVLoader(testLogger()).LoadDir(context.Background(), dir)
	require.NoError(t, err)

	require.Equal(t, []string{"influencer_uid", "date", "mentions", "group"}, tbl.Columns)
	require.Equal(t, [][]string{
		{"u1", "2024-01-01", "1", ""},
		{"u2", "2024-03-01", "2", "Acme"},
	}, tbl.Rows)
}

func TestPosts_CSVLoader_LoadDir_Errors(t *testing.T) {
	t.Parallel()

	l := NewCSVLoader(testLogger())

	_, err := l.LoadDir(context.Background(), t.TempDir())
	require.True(t, errors.Is(err, ErrNoFiles))

	_, err = l.LoadDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.ErrorContains(t, err, "failed to stat")

	_, err = l.LoadFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.ErrorContains(t, err, "failed to open")
}

func TestPosts_Table_Require(t *testing.T) {
	t.Parallel()

	tbl := NewTable([]string{"influencer_uid", "date"}, nil)
	err := tbl.Require("influencer_uid", "mentions", "group")
	require.True(t, errors.Is(err, ErrMissingColumn))
	require.ErrorContains(t, err, "mentions, group")
	require.NoError(t, tbl.Require("date"))
}
