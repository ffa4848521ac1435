package domain

// PriceTier holds the retail price fields collected for one (product, tier)
// catalog cell. Fields are nil until a catalog row of the matching commitment
// type populates them.
type PriceTier struct {
	PaygHourly        *float64
	PaygMonthly       *float64 // hourly x 24 x 31
	PaygYearly        *float64 // hourly x 24 x 365
	DevTest           *float64
	OneYearReserved   *float64
	ThreeYearReserved *float64
}

// ResolvedPricing is the catalog subset applicable to one virtual machine:
// one OS-matched product series, and within it the standard, spot and
// low-priority tiers. Any of the tiers may be nil when the series has no
// matching tier name.
type ResolvedPricing struct {
	Series      string
	Standard    *PriceTier
	Spot        *PriceTier
	LowPriority *PriceTier
}
