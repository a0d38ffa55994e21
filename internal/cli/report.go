package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/malbeclabs/retention-tools/internal/posts"
	"github.com/malbeclabs/retention-tools/internal/report"
	"github.com/malbeclabs/retention-tools/pkg/retention"
)

// excludedWarnRatio warns when more than 1 in excludedWarnRatio rows is
// dropped for an unparseable date, no mentions or no entity.
const excludedWarnRatio = 4

type ReportCmd struct {
	opts Options
}

func NewReportCmd() *ReportCmd {
	return &ReportCmd{opts: DefaultOptions()}
}

func (c *ReportCmd) Command() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compute overall, grouped and performance retention reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := loggerFor(cmd)
			if err != nil {
				return err
			}

			opts := c.opts
			if configPath != "" {
				file, err := LoadOptions(configPath)
				if err != nil {
					return err
				}
				opts.merge(file, cmd.Flags().Changed)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := RunReport(ctx, log, opts, cmd.OutOrStdout()); err != nil {
				log.Error("Failed to build report", "error", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "YAML run file; flags override its values")
	c.opts.bindFlags(cmd.Flags())
	return cmd
}

// RunReport loads the posts, computes retention and writes every requested
// report. Reports are printed to out with --print, or when no output file
// was requested.
func RunReport(ctx context.Context, log *slog.Logger, opts Options, out io.Writer) error {
	r, err := opts.validate()
	if err != nil {
		return err
	}

	table, err := loadPosts(ctx, log, r)
	if err != nil {
		return err
	}

	performance := r.OutPLM != ""
	attributes := r.Attributes
	if performance && len(attributes) == 0 {
		for _, a := range posts.DefaultAttributes {
			if table.Has(a) {
				attributes = append(attributes, a)
			}
		}
	}

	spec := posts.EventSpec{
		GroupBy:     r.GroupBy,
		Performance: performance,
		Attributes:  attributes,
	}
	if performance {
		spec.RollUps = r.rollUps
	}
	events, err := posts.Events(table, spec)
	if err != nil {
		return err
	}

	res, err := retention.Compute(r.engineConfig(performance, attributes), events)
	if err != nil {
		return err
	}
	log.Info("Computed retention",
		"timeframe", r.timeframe,
		"periods", len(res.Periods),
		"groups", len(res.Groups),
		"included", res.Included,
		"excluded", res.Excluded,
	)
	if res.Excluded*excludedWarnRatio > len(events) {
		log.Warn("Many rows were excluded, check the date and mentions columns",
			"excluded", res.Excluded,
			"rows", len(events),
		)
	}

	type output struct {
		title string
		path  string
		table *report.Table
	}
	outputs := []output{{title: "Overall", path: r.OutAll, table: report.Overall(res, r.AltLabels)}}
	if len(r.GroupBy) > 0 {
		outputs = append(outputs, output{title: "Grouped", path: r.OutGroupBy, table: report.Grouped(res, r.AltLabels)})
	}
	if performance {
		outputs = append(outputs, output{title: "Performance", path: r.OutPLM, table: report.Performance(res, attributes)})
	}

	wrote := false
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		if err := report.WriteFile(o.path, o.table, r.format); err != nil {
			return fmt.Errorf("failed to write %s report: %w", o.title, err)
		}
		log.Info("Wrote report", "report", o.title, "path", o.path, "rows", len(o.table.Rows))
		wrote = true
	}

	if r.Print || !wrote {
		for _, o := range outputs {
			report.Print(out, o.title, o.table)
		}
	}
	return nil
}

func newLoader(log *slog.Logger, kind string) (posts.Loader, error) {
	switch kind {
	case LoaderDuckDB:
		l, err := posts.NewDuckDBLoader(log)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return posts.NewCSVLoader(log), nil
	}
}

// loadPosts reads the post export and applies the brand filters and fills.
func loadPosts(ctx context.Context, log *slog.Logger, r *run) (*posts.Table, error) {
	loader, err := newLoader(log, r.Loader)
	if err != nil {
		return nil, err
	}
	defer loader.Close()

	var table *posts.Table
	if r.Posts != "" {
		table, err = loader.LoadFile(ctx, r.Posts)
	} else {
		table, err = loader.LoadDir(ctx, r.Folder)
	}
	if err != nil {
		return nil, err
	}

	if r.BrandList != "" {
		brands, err := loader.LoadFile(ctx, r.BrandList)
		if err != nil {
			return nil, err
		}
		before := len(table.Rows)
		if table, err = posts.KeepMatching(table, brands, posts.ColumnGroup); err != nil {
			return nil, err
		}
		log.Info("Applied brand list", "path", r.BrandList, "kept", len(table.Rows), "dropped", before-len(table.Rows))
	}

	if r.BrandGroup != "" {
		taxonomy, err := loader.LoadFile(ctx, r.BrandGroup)
		if err != nil {
			return nil, err
		}
		table, err = posts.LeftJoin(table, taxonomy, posts.ColumnGroup, posts.ColumnBrandID, posts.ColumnBeautyGroup)
		if err != nil {
			return nil, err
		}
		if n := table.DropDuplicates(); n > 0 {
			log.Debug("Dropped duplicate rows after taxonomy join", "rows", n)
		}
	}

	for _, f := range r.fills {
		table.Fill(f[0], f[1])
	}
	return table, nil
}
