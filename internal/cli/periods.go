package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/malbeclabs/retention-tools/internal/posts"
	"github.com/malbeclabs/retention-tools/internal/report"
	"github.com/malbeclabs/retention-tools/pkg/retention"
)

type PeriodsCmd struct {
	opts Options
}

func NewPeriodsCmd() *PeriodsCmd {
	return &PeriodsCmd{opts: DefaultOptions()}
}

func (c *PeriodsCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "periods",
		Short: "List the periods of an input and the entities active in each",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := loggerFor(cmd)
			if err != nil {
				return err
			}
			return RunPeriods(cmd.Context(), log, c.opts, cmd.OutOrStdout())
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&c.opts.Posts, "posts", "p", "", "single post export CSV file")
	fs.StringVarP(&c.opts.Folder, "folder", "f", "", "folder of post export CSV files")
	fs.StringVarP(&c.opts.Timeframe, "timeframe", "t", "", "aggregation timeframe: month|quarter|half-year|year")
	fs.StringVar(&c.opts.Loader, "loader", c.opts.Loader, "post loader: csv|duckdb")
	fs.StringVar(&c.opts.Timezone, "tz", c.opts.Timezone, "reference time zone of the periods")
	fs.BoolVar(&c.opts.LegacyMonthLabels, "legacy-month-labels", false, "label month periods by quarter like the historical reports")
	return cmd
}

// RunPeriods prints the ordered periods of the input with the number of
// distinct entities in each.
func RunPeriods(ctx context.Context, log *slog.Logger, opts Options, out io.Writer) error {
	r, err := opts.validate()
	if err != nil {
		return err
	}
	table, err := loadPosts(ctx, log, r)
	if err != nil {
		return err
	}
	events, err := posts.Events(table, posts.EventSpec{})
	if err != nil {
		return err
	}
	res, err := retention.Compute(r.engineConfig(false, nil), events)
	if err != nil {
		return err
	}

	t := &report.Table{Columns: []string{"period", "entities"}}
	for i, p := range res.Periods {
		t.Rows = append(t.Rows, []report.Cell{report.String(p.Label), report.Int(res.Overall.Total[i])})
	}
	report.Print(out, fmt.Sprintf("%d periods (%s, excluded rows: %d)", len(res.Periods), r.timeframe, res.Excluded), t)
	return nil
}
