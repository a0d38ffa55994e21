package retention

import (
	"math"
	"sort"
)

// PerformanceRow is the summed performance of one entity within one group,
// with its derived ratios and its per-period post counts. Ratios are nil
// when undefined (zero denominator).
type PerformanceRow struct {
	Groups     []string
	Entity     string
	Attributes []string

	Mentions    float64
	Engagements float64
	VideoViews  float64
	ReachForEng float64
	ReachForVV  float64

	TotalInfluence      float64
	Frequency           float64
	EngagementRate      *float64
	EngagementPerView   *float64
	InfluencePerMention *float64

	// Portfolio has one post count per period.
	Portfolio []int
}

type performanceKey struct {
	group  string
	entity string
}

func enrich(cfg Config, periods []Period, rows []bucketed, freqs map[string]*FrequencyMatrix) []PerformanceRow {
	nattr := len(cfg.Performance.Attributes)
	acc := make(map[performanceKey]*PerformanceRow)
	keys := make([]performanceKey, 0)

	for _, r := range rows {
		ev := r.event
		if ev.RollUp {
			continue
		}
		k := performanceKey{group: r.key, entity: ev.Entity}
		pr, ok := acc[k]
		if !ok {
			pr = &PerformanceRow{
				Groups:     ev.Groups,
				Entity:     ev.Entity,
				Attributes: make([]string, nattr),
			}
			acc[k] = pr
			keys = append(keys, k)
		}
		for i := 0; i < nattr && i < len(ev.Attributes); i++ {
			if pr.Attributes[i] == "" {
				pr.Attributes[i] = ev.Attributes[i]
			}
		}
		pr.Mentions += ev.Mentions
		pr.Engagements += ev.Metrics.Engagements
		pr.VideoViews += ev.Metrics.VideoViews
		pr.ReachForEng += ev.Metrics.ReachForEng
		pr.ReachForVV += ev.Metrics.ReachForVV
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].group != keys[j].group {
			return keys[i].group < keys[j].group
		}
		return keys[i].entity < keys[j].entity
	})

	out := make([]PerformanceRow, 0, len(keys))
	for _, k := range keys {
		pr := acc[k]
		if len(cfg.GroupBy) == 0 {
			pr.Groups = nil
		}
		pr.TotalInfluence = pr.Engagements + pr.VideoViews
		pr.Frequency = pr.Mentions
		pr.EngagementRate = Ratio(pr.Engagements, pr.ReachForEng)
		pr.EngagementPerView = Ratio(pr.Engagements, pr.VideoViews)
		pr.InfluencePerMention = Ratio(pr.TotalInfluence, pr.Mentions)

		pr.Portfolio = make([]int, len(periods))
		if f, ok := freqs[k.group]; ok {
			copy(pr.Portfolio, f.Row(k.entity))
		}
		out = append(out, *pr)
	}
	return out
}

// Ratio divides num by den, returning nil instead of an infinite or NaN
// result.
func Ratio(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	v := num / den
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
