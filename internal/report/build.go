package report

import (
	"github.com/malbeclabs/retention-tools/pkg/retention"
)

// Columns of the performance report.
const (
	ColumnEntity              = "influencer_uid"
	ColumnMentions            = "mentions"
	ColumnFrequency           = "frequency"
	ColumnEngagementRate      = "eng_rate"
	ColumnEngagements         = "total_engagements"
	ColumnVideoViews          = "video_views"
	ColumnEngagementPerView   = "eng/vv"
	ColumnTotalInfluence      = "total_influence"
	ColumnInfluencePerMention = "total_influence per mention"
)

// Overall renders the overall aggregate: one row per metric, one column per
// period.
func Overall(res *retention.Result, alternate bool) *Table {
	t := &Table{Columns: append([]string{ColumnIndex}, periodColumns(res.Periods)...)}
	for _, row := range res.Overall.Rows(alternate) {
		t.Rows = append(t.Rows, append([]Cell{String(row.Label)}, numbers(row.Values)...))
	}
	return t
}

// Grouped renders every group aggregate with the composite key split back
// into its dimension columns. Rows are ordered by metric, then group.
func Grouped(res *retention.Result, alternate bool) *Table {
	t := &Table{Columns: append([]string{ColumnIndex}, res.GroupBy...)}
	t.Columns = append(t.Columns, periodColumns(res.Periods)...)
	if len(res.Groups) == 0 {
		return t
	}

	perGroup := make([][]retention.Row, len(res.Groups))
	for i, g := range res.Groups {
		perGroup[i] = g.Rows(alternate)
	}
	for metric := range perGroup[0] {
		for i, g := range res.Groups {
			row := perGroup[i][metric]
			cells := make([]Cell, 0, len(t.Columns))
			cells = append(cells, String(row.Label))
			for _, v := range g.Values {
				cells = append(cells, String(v))
			}
			t.Rows = append(t.Rows, append(cells, numbers(row.Values)...))
		}
	}
	return t
}

// Performance renders the performance rows joined with each entity's
// per-period post counts.
func Performance(res *retention.Result, attributes []string) *Table {
	t := &Table{}
	t.Columns = append(t.Columns, res.GroupBy...)
	t.Columns = append(t.Columns, ColumnEntity)
	t.Columns = append(t.Columns, attributes...)
	t.Columns = append(t.Columns,
		ColumnMentions,
		ColumnFrequency,
		ColumnEngagementRate,
		ColumnEngagements,
		ColumnVideoViews,
		ColumnEngagementPerView,
		ColumnTotalInfluence,
		ColumnInfluencePerMention,
	)
	t.Columns = append(t.Columns, periodColumns(res.Periods)...)

	for _, pr := range res.Performance {
		cells := make([]Cell, 0, len(t.Columns))
		for _, g := range pr.Groups {
			cells = append(cells, String(g))
		}
		cells = append(cells, String(pr.Entity))
		for i := range attributes {
			if i < len(pr.Attributes) && pr.Attributes[i] != "" {
				cells = append(cells, String(pr.Attributes[i]))
			} else {
				cells = append(cells, Null())
			}
		}
		cells = append(cells,
			Number(pr.Mentions),
			Number(pr.Frequency),
			Optional(pr.EngagementRate),
			Number(pr.Engagements),
			Number(pr.VideoViews),
			Optional(pr.EngagementPerView),
			Number(pr.TotalInfluence),
			Optional(pr.InfluencePerMention),
		)
		for _, n := range pr.Portfolio {
			cells = append(cells, Int(n))
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}
