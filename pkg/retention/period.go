package retention

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Timeframe is the granularity periods are bucketed by.
type Timeframe string

const (
	TimeframeMonth    Timeframe = "month"
	TimeframeQuarter  Timeframe = "quarter"
	TimeframeHalfYear Timeframe = "half-year"
	TimeframeYear     Timeframe = "year"
)

// ParseTimeframe parses a timeframe selector as given on the command line.
func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(strings.ToLower(strings.TrimSpace(s))); tf {
	case TimeframeMonth, TimeframeQuarter, TimeframeHalfYear, TimeframeYear:
		return tf, nil
	case "":
		return "", ErrMissingTimeframe
	default:
		return "", fmt.Errorf("invalid timeframe %q: must be one of month, quarter, half-year, year", s)
	}
}

// Period is one discrete time bucket. Index is the 1-based position within
// the year (month 1-12, quarter 1-4, half 1-2) and is 1 for yearly periods.
type Period struct {
	Year  int
	Index int
	Label string
}

// Before reports whether p sorts chronologically before o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Index < o.Index
}

func (p Period) String() string {
	return p.Label
}

// Bucketer maps timestamps onto periods of a timeframe in a reference zone.
type Bucketer struct {
	timeframe Timeframe
	loc       *time.Location

	// legacyMonth reproduces the old month selector, which labelled
	// periods "{year}-{quarter}".
	legacyMonth bool
}

func NewBucketer(tf Timeframe, loc *time.Location, legacyMonth bool) *Bucketer {
	if loc == nil {
		loc = time.UTC
	}
	return &Bucketer{timeframe: tf, loc: loc, legacyMonth: legacyMonth}
}

// Bucket returns the period t falls into. ok is false for the zero time,
// which marks an unparseable timestamp.
func (b *Bucketer) Bucket(t time.Time) (Period, bool) {
	if t.IsZero() {
		return Period{}, false
	}
	t = t.In(b.loc)
	year, month := t.Year(), int(t.Month())
	quarter := (month-1)/3 + 1

	switch b.timeframe {
	case TimeframeMonth:
		if b.legacyMonth {
			return Period{Year: year, Index: quarter, Label: fmt.Sprintf("%d-%d", year, quarter)}, true
		}
		return Period{Year: year, Index: month, Label: fmt.Sprintf("%d-%02d", year, month)}, true
	case TimeframeQuarter:
		return Period{Year: year, Index: quarter, Label: fmt.Sprintf("%d-Q%d", year, quarter)}, true
	case TimeframeHalfYear:
		half := (month + 5) / 6
		return Period{Year: year, Index: half, Label: fmt.Sprintf("%d-H%d", year, half)}, true
	case TimeframeYear:
		return Period{Year: year, Index: 1, Label: fmt.Sprintf("%d", year)}, true
	}
	return Period{}, false
}

// sortPeriods orders periods chronologically and drops duplicates.
func sortPeriods(periods []Period) []Period {
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })
	out := periods[:0]
	for i, p := range periods {
		if i > 0 && p.Year == out[len(out)-1].Year && p.Index == out[len(out)-1].Index {
			continue
		}
		out = append(out, p)
	}
	return out
}
