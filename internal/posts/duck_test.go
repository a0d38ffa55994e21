package posts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPosts_DuckDBLoader_LoadDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "influencer_uid,date,mentions\nu1,2024-01-01,1\n")
	writeFile(t, dir, "b.csv", "influencer_uid,date,mentions,group\nu2,2024-03-01 10:00:00,2,Acme\n")

	l, err := NewDuckDBLoader(testLogger())
	require.NoError(t, err)
	defer l.Close()

	tbl, err := l.LoadDir(context.Background(), dir)
	require.NoError(t, err)

	require.ElementsMatch(t, []string{"influencer_uid", "date", "mentions", "group"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)

	byEntity := map[string]int{}
	for i := range tbl.Rows {
		byEntity[tbl.Value(i, ColumnEntity)] = i
	}
	require.Equal(t, "", tbl.Value(byEntity["u1"], ColumnGroup))
	require.Equal(t, "Acme", tbl.Value(byEntity["u2"], ColumnGroup))
	// all_varchar keeps timestamps as written.
	require.Equal(t, "2024-03-01 10:00:00", tbl.Value(byEntity["u2"], ColumnDate))
}

func TestPosts_DuckDBLoader_LoadFile_QuotedPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "o'brien.csv", "influencer_uid,date,mentions\nu1,2024-01-01,1\n")

	l, err := NewDuckDBLoader(testLogger())
	require.NoError(t, err)
	defer l.Close()

	tbl, err := l.LoadFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, [][]string{{"u1", "2024-01-01", "1"}}, tbl.Rows)
}
