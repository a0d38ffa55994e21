// Package retention computes period-over-period cohort retention of entities
// (influencers) from dated events: which entities were acquired, retained or
// churned in each period, overall and per group, and the rates derived from
// those counts.
//
// The package performs no I/O. Callers load events, call Compute with an
// explicit Config and render the Result however they like.
package retention

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingTimeframe  = errors.New("timeframe is required")
	ErrEmptyInput        = errors.New("no qualifying events")
	ErrAmbiguousGroupKey = errors.New("ambiguous group key")
)

// Event is one posting record attributed to an entity.
type Event struct {
	Entity string
	// Time is the zero value when the source timestamp could not be parsed.
	Time     time.Time
	Mentions float64
	PostID   string

	// Groups holds one value per Config.GroupBy dimension, in order.
	Groups []string

	Metrics Metrics
	// Attributes holds one value per PerformanceConfig.Attributes entry.
	Attributes []string

	// RollUp marks an aggregate row that repeats a post already reported
	// under a specific category. It counts toward presence only.
	RollUp bool
}

// Metrics are the raw per-post performance numbers summed by the
// performance enrichment.
type Metrics struct {
	Engagements float64
	VideoViews  float64
	ReachForEng float64
	ReachForVV  float64
}

type Config struct {
	Timeframe Timeframe
	// Location is the reference zone periods are computed in. Defaults to UTC.
	Location          *time.Location
	LegacyMonthLabels bool

	GroupBy   []string
	Delimiter string

	// Performance enables the performance enrichment when non-nil.
	Performance *PerformanceConfig
}

type PerformanceConfig struct {
	Attributes []string
}

func (c *Config) Validate() error {
	if c.Timeframe == "" {
		return ErrMissingTimeframe
	}
	if _, err := ParseTimeframe(string(c.Timeframe)); err != nil {
		return err
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Delimiter == "" {
		c.Delimiter = DefaultDelimiter
	}
	seen := make(map[string]struct{}, len(c.GroupBy))
	for _, g := range c.GroupBy {
		if g == "" {
			return errors.New("group-by dimension name cannot be empty")
		}
		if _, ok := seen[g]; ok {
			return fmt.Errorf("duplicate group-by dimension %q", g)
		}
		seen[g] = struct{}{}
	}
	return nil
}

type Result struct {
	Periods []Period
	GroupBy []string

	Overall *Aggregate
	// Groups is sorted by composite key.
	Groups []*GroupAggregate

	Performance []PerformanceRow

	Included int
	Excluded int
}

type GroupAggregate struct {
	Key    string
	Values []string
	*Aggregate
}

type bucketed struct {
	event  *Event
	column int
	// key is the composite group key, empty in the overall scope.
	key string
}

type periodKey struct {
	year, index int
}

// Compute runs the retention pipeline over events.
func Compute(cfg Config, events []Event) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bucketer := NewBucketer(cfg.Timeframe, cfg.Location, cfg.LegacyMonthLabels)

	res := &Result{GroupBy: cfg.GroupBy}

	type kept struct {
		event *Event
		key   periodKey
	}
	found := make(map[periodKey]Period)
	included := make([]kept, 0, len(events))
	for i := range events {
		ev := &events[i]
		if ev.Mentions < 1 || ev.Entity == "" {
			res.Excluded++
			continue
		}
		p, ok := bucketer.Bucket(ev.Time)
		if !ok {
			res.Excluded++
			continue
		}
		k := periodKey{p.Year, p.Index}
		found[k] = p
		included = append(included, kept{event: ev, key: k})
	}
	if len(included) == 0 {
		return nil, ErrEmptyInput
	}
	res.Included = len(included)

	periods := make([]Period, 0, len(found))
	for _, p := range found {
		periods = append(periods, p)
	}
	res.Periods = sortPeriods(periods)

	column := make(map[periodKey]int, len(res.Periods))
	for i, p := range res.Periods {
		column[periodKey{p.Year, p.Index}] = i
	}
	rows := make([]bucketed, 0, len(included))
	for _, k := range included {
		rows = append(rows, bucketed{event: k.event, column: column[k.key]})
	}

	overall := NewPresenceMatrix(res.Periods)
	for _, r := range rows {
		overall.Mark(r.event.Entity, r.column)
	}
	res.Overall = Summarize(overall)

	if len(cfg.GroupBy) == 0 {
		if cfg.Performance != nil {
			freq := NewFrequencyMatrix(res.Periods)
			for _, r := range rows {
				if !r.event.RollUp {
					freq.Add(r.event.Entity, r.column, r.event.PostID)
				}
			}
			res.Performance = enrich(cfg, res.Periods, rows, map[string]*FrequencyMatrix{"": freq})
		}
		return res, nil
	}

	scopes, grouped, err := buildGroupScopes(cfg, res.Periods, rows)
	if err != nil {
		return nil, err
	}
	res.Groups, err = summarizeGroups(cfg, scopes)
	if err != nil {
		return nil, err
	}

	if cfg.Performance != nil {
		freqs := make(map[string]*FrequencyMatrix, len(scopes))
		for k, s := range scopes {
			freqs[k] = s.frequency
		}
		res.Performance = enrich(cfg, res.Periods, grouped, freqs)
	}

	return res, nil
}
