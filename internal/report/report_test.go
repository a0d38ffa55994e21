package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/retention-tools/pkg/retention"
)

func computeSample(t *testing.T, performance bool) *retention.Result {
	t.Helper()
	day := func(m time.Month) time.Time { return time.Date(2024, m, 10, 0, 0, 0, 0, time.UTC) }
	events := []retention.Event{
		{Entity: "a", Time: day(time.January), Mentions: 1, Groups: []string{"Acme", "US"}, Attributes: []string{"Alice"}, Metrics: retention.Metrics{Engagements: 50}},
		{Entity: "a", Time: day(time.April), Mentions: 1, Groups: []string{"Acme", "US"}},
		{Entity: "b", Time: day(time.April), Mentions: 1, Groups: []string{"Beta", "EU"}, Metrics: retention.Metrics{Engagements: 10, ReachForEng: 40}},
	}
	cfg := retention.Config{Timeframe: retention.TimeframeQuarter, GroupBy: []string{"brand", "region"}}
	if performance {
		cfg.Performance = &retention.PerformanceConfig{Attributes: []string{"influencer_name"}}
	}
	res, err := retention.Compute(cfg, events)
	require.NoError(t, err)
	return res
}

func TestReport_Overall_CSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Overall(computeSample(t, false), false)))

	want := strings.Join([]string{
		`"index","2024-Q1","2024-Q2"`,
		`"Total",1,2`,
		`"Acquired",0,1`,
		`"Retained",0,1`,
		`"Churned",0,0`,
		`"Acquisition_rate",0,0.5`,
		`"Retention_rate",0,1`,
		`"Churn_rate",0,0`,
		`"Retained_rate",0,0.5`,
	}, "\n") + "\n"
	require.Equal(t, want, buf.String())
}

func TestReport_Overall_AlternateLabels(t *testing.T) {
	t.Parallel()

	tbl := Overall(computeSample(t, false), true)
	require.Len(t, tbl.Rows, 6)
	last := tbl.Rows[5]
	require.Equal(t, "Retention_rate", last[0].Str)
	require.Equal(t, 0.5, last[2].Num)
}

func TestReport_Grouped(t *testing.T) {
	t.Parallel()

	tbl := Grouped(computeSample(t, false), false)
	require.Equal(t, []string{"index", "brand", "region", "2024-Q1", "2024-Q2"}, tbl.Columns)
	require.Len(t, tbl.Rows, 16)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, `"Total","Acme","US",1,1`, lines[1])
	require.Equal(t, `"Total","Beta","EU",0,1`, lines[2])
	require.Equal(t, `"Acquired","Acme","US",0,0`, lines[3])
	require.Equal(t, `"Acquired","Beta","EU",0,1`, lines[4])
	require.Equal(t, `"Retained_rate","Beta","EU",0,0`, lines[16])
}

func TestReport_Performance_NullMarker(t *testing.T) {
	t.Parallel()

	tbl := Performance(computeSample(t, true), []string{"influencer_name"})
	require.Equal(t, []string{
		"brand", "region", "influencer_uid", "influencer_name",
		"mentions", "frequency", "eng_rate", "total_engagements", "video_views",
		"eng/vv", "total_influence", "total_influence per mention",
		"2024-Q1", "2024-Q2",
	}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// Reach of 0 with 50 engagements: eng_rate is null, not infinity.
	require.Equal(t, `"Acme","US","a","Alice",2,2,"",50,0,"",50,25,1,1`, lines[1])
	require.Equal(t, `"Beta","EU","b","",1,1,0.25,10,0,"",10,10,0,1`, lines[2])
	require.NotContains(t, buf.String(), "Inf")
}

func TestReport_WriteJSON(t *testing.T) {
	t.Parallel()

	tbl := &Table{
		Columns: []string{"index", "2024"},
		Rows:    [][]Cell{{String("Total"), Int(3)}, {String("x"), Null()}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, tbl))
	require.JSONEq(t, `{"columns":["index","2024"],"rows":[["Total",3],["x",null]]}`, buf.String())
}

func TestReport_WriteFile_CreatesFolders(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "nested", "all.csv")
	tbl := &Table{Columns: []string{"index"}, Rows: [][]Cell{{String(`say "hi"`)}}}
	require.NoError(t, WriteFile(path, tbl, FormatCSV))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "\"index\"\n\"say \"\"hi\"\"\"\n", string(data))
}

func TestReport_ParseFormat(t *testing.T) {
	t.Parallel()

	f, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatCSV, f)
	f, err = ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, f)
	_, err = ParseFormat("xml")
	require.ErrorContains(t, err, "invalid format")
}

func TestReport_Print(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Print(&buf, "Overall", Overall(computeSample(t, false), false))
	out := buf.String()
	require.True(t, strings.HasPrefix(out, "Overall\n"))
	require.Contains(t, out, "Acquisition_rate")
	require.Contains(t, out, "0.5000")
}
