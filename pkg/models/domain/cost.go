package domain

const (
	// CostWindowDays is the trailing window the cost ledger is queried over.
	CostWindowDays = 90

	monthsInWindow = 3.0
)

// CostSummary is the reduced 90-day cost ledger for one resource, with linear
// monthly/annual projections. A resource with fewer than CostWindowDays active
// days is flagged as new.
type CostSummary struct {
	TotalCost90d      float64
	ActiveDays        int
	AvgMonthlyCost    float64
	OneYearEstimate   float64
	ThreeYearEstimate float64
	IsNew             bool
}

// SummarizeCost derives the projection fields from an accumulated total and
// active-day count.
func SummarizeCost(total float64, activeDays int) CostSummary {
	avgMonthly := total / monthsInWindow
	return CostSummary{
		TotalCost90d:      total,
		ActiveDays:        activeDays,
		AvgMonthlyCost:    avgMonthly,
		OneYearEstimate:   avgMonthly * 12,
		ThreeYearEstimate: avgMonthly * 36,
		IsNew:             activeDays < CostWindowDays,
	}
}

// ZeroCostSummary is the default for resources absent from the cost ledger.
func ZeroCostSummary() CostSummary {
	return CostSummary{IsNew: true}
}
