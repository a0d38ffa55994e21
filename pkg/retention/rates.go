package retention

// DeriveRates fills the rate rows from the counts. Rates of the first period
// are 0, and so is any rate whose denominator total is 0.
//
//	Acquisition_rate = Acquired / Total
//	Retention_rate   = Retained / previous Total
//	Churn_rate       = Churned / previous Total
//	Retained_rate    = Retained / Total
func (a *Aggregate) DeriveRates() {
	n := len(a.Total)
	a.AcquisitionRate = make([]float64, n)
	a.RetentionRate = make([]float64, n)
	a.ChurnRate = make([]float64, n)
	a.RetainedRate = make([]float64, n)

	for col := 1; col < n; col++ {
		cur, prev := a.Total[col], a.Total[col-1]
		a.AcquisitionRate[col] = rate(a.Acquired[col], cur)
		a.RetentionRate[col] = rate(a.Retained[col], prev)
		a.ChurnRate[col] = rate(a.Churned[col], prev)
		a.RetainedRate[col] = rate(a.Retained[col], cur)
	}
}

func rate(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
