package posts

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/malbeclabs/retention-tools/pkg/retention"
)

// Columns of a post export.
const (
	ColumnEntity      = "influencer_uid"
	ColumnDate        = "date"
	ColumnMentions    = "mentions"
	ColumnPost        = "post_uid"
	ColumnEngagements = "total_engagements"
	ColumnVideoViews  = "video_views"
	ColumnReachForEng = "reach_for_eng"
	ColumnReachForVV  = "reach_for_vv"
	ColumnCategory    = "category"
)

// DefaultRollUp matches the per-post roll-up rows exports carry next to
// the per-category rows.
var DefaultRollUp = Match{Column: ColumnCategory, Value: "all"}

// DefaultAttributes are the descriptive columns carried into the
// performance report when present.
var DefaultAttributes = []string{"category", "influencer_name", "tiers", "audience_size"}

type EventSpec struct {
	GroupBy []string
	// Performance requires the metric columns and fills Event.Metrics and
	// Event.Attributes.
	Performance bool
	Attributes  []string
	// RollUps flags matching rows as Event.RollUp. Rules on absent
	// columns match nothing.
	RollUps []Match
}

// Events converts the rows of t into engine events. Unparseable timestamps
// produce events with a zero Time and non-numeric mentions produce 0; the
// engine excludes both.
func Events(t *Table, spec EventSpec) ([]retention.Event, error) {
	required := append([]string{ColumnEntity, ColumnDate, ColumnMentions}, spec.GroupBy...)
	if spec.Performance {
		required = append(required, ColumnEngagements, ColumnVideoViews, ColumnReachForEng)
		required = append(required, spec.Attributes...)
	}
	if err := t.Require(required...); err != nil {
		return nil, err
	}
	if len(t.Rows) == 0 {
		return nil, ErrEmptyTable
	}

	entity, date, mentions, post := t.Index(ColumnEntity), t.Index(ColumnDate), t.Index(ColumnMentions), t.Index(ColumnPost)
	groups := indexes(t, spec.GroupBy)
	attrs := indexes(t, spec.Attributes)
	eng, vv := t.Index(ColumnEngagements), t.Index(ColumnVideoViews)
	reachEng, reachVV := t.Index(ColumnReachForEng), t.Index(ColumnReachForVV)
	rollUps := make([]int, len(spec.RollUps))
	for i, m := range spec.RollUps {
		rollUps[i] = t.Index(m.Column)
	}

	events := make([]retention.Event, 0, len(t.Rows))
	for _, row := range t.Rows {
		ev := retention.Event{
			Entity:   strings.TrimSpace(row[entity]),
			Mentions: number(row[mentions]),
		}
		if ts, ok := ParseTimestamp(row[date]); ok {
			ev.Time = ts
		}
		if post >= 0 {
			ev.PostID = strings.TrimSpace(row[post])
		}
		if len(groups) > 0 {
			ev.Groups = cells(row, groups)
		}
		for i, m := range spec.RollUps {
			if j := rollUps[i]; j >= 0 && strings.TrimSpace(row[j]) == m.Value {
				ev.RollUp = true
				break
			}
		}
		if spec.Performance {
			ev.Attributes = cells(row, attrs)
			ev.Metrics = retention.Metrics{
				Engagements: number(row[eng]),
				VideoViews:  number(row[vv]),
				ReachForEng: number(row[reachEng]),
			}
			if reachVV >= 0 {
				ev.Metrics.ReachForVV = number(row[reachVV])
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999 MST",
	"2006-01-02T15:04:05.999999999 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"02Jan2006:15:04:05.999999999",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
}

// ParseTimestamp parses the timestamp formats found in post exports.
// Timestamps without an offset are taken as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// number parses a numeric cell. Missing or malformed values are 0.
func number(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func indexes(t *Table, columns []string) []int {
	out := make([]int, len(columns))
	for i, c := range columns {
		out[i] = t.Index(c)
	}
	return out
}

func cells(row []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = strings.TrimSpace(row[j])
	}
	return out
}
