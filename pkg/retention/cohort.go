package retention

// Row labels of an aggregate, in output order.
const (
	RowTotal           = "Total"
	RowAcquired        = "Acquired"
	RowRetained        = "Retained"
	RowChurned         = "Churned"
	RowAcquisitionRate = "Acquisition_rate"
	RowRetentionRate   = "Retention_rate"
	RowChurnRate       = "Churn_rate"
	RowRetainedRate    = "Retained_rate"
)

// Aggregate holds the per-period cohort counts of one scope and the rates
// derived from them. Every slice has one entry per period.
type Aggregate struct {
	Periods []Period

	Total    []int
	Acquired []int
	Retained []int
	Churned  []int

	AcquisitionRate []float64
	RetentionRate   []float64
	ChurnRate       []float64
	RetainedRate    []float64
}

// Row is one labelled line of an aggregate.
type Row struct {
	Label  string
	Values []float64
}

// Summarize counts cohort transitions in m and derives their rates.
func Summarize(m *PresenceMatrix) *Aggregate {
	agg := CountTransitions(m)
	agg.DeriveRates()
	return agg
}

// CountTransitions compares every period with the one before it. An entity
// going 0→1 is acquired, 1→1 retained and 1→0 churned. The first period has
// nothing to compare with so its transition counts are all 0.
func CountTransitions(m *PresenceMatrix) *Aggregate {
	n := len(m.periods)
	agg := &Aggregate{
		Periods:  m.periods,
		Total:    make([]int, n),
		Acquired: make([]int, n),
		Retained: make([]int, n),
		Churned:  make([]int, n),
	}
	for col := 0; col < n; col++ {
		agg.Total[col] = m.Total(col)
	}
	for _, row := range m.cells {
		for col := 1; col < n; col++ {
			prev, cur := row[col-1], row[col]
			switch {
			case prev == 0 && cur == 1:
				agg.Acquired[col]++
			case prev == 1 && cur == 1:
				agg.Retained[col]++
			case prev == 1 && cur == 0:
				agg.Churned[col]++
			}
		}
	}
	return agg
}

// Rows returns the counts followed by the rates. With alternate labeling the
// Retention_rate and Churn_rate rows are dropped and Retained_rate is
// reported as Retention_rate.
func (a *Aggregate) Rows(alternate bool) []Row {
	rows := []Row{
		{Label: RowTotal, Values: floats(a.Total)},
		{Label: RowAcquired, Values: floats(a.Acquired)},
		{Label: RowRetained, Values: floats(a.Retained)},
		{Label: RowChurned, Values: floats(a.Churned)},
		{Label: RowAcquisitionRate, Values: a.AcquisitionRate},
	}
	if alternate {
		return append(rows, Row{Label: RowRetentionRate, Values: a.RetainedRate})
	}
	return append(rows,
		Row{Label: RowRetentionRate, Values: a.RetentionRate},
		Row{Label: RowChurnRate, Values: a.ChurnRate},
		Row{Label: RowRetainedRate, Values: a.RetainedRate},
	)
}

func floats(v []int) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
