package api

import (
	"encoding/json"
	"fmt"
)

// notAvailable is the literal marker used in the artifact for price fields
// the catalog did not cover.
const notAvailable = "N/A"

// Amount is a price field that serializes to a finite number when present and
// to the "N/A" marker otherwise.
type Amount struct {
	Value float64
	Valid bool
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return json.Marshal(notAvailable)
	}
	return json.Marshal(a.Value)
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		*a = Amount{Value: val, Valid: true}
		return nil
	case string:
		if val == notAvailable {
			*a = Amount{}
			return nil
		}
		return fmt.Errorf("unexpected amount value %q", val)
	default:
		return fmt.Errorf("unexpected amount type %T", v)
	}
}

// VMRecord is the artifact schema for one reconciled virtual machine.
type VMRecord struct {
	Name               string   `json:"name"`
	Region             string   `json:"region"`
	Size               string   `json:"vmSize"`
	OSType             string   `json:"osType"`
	AvgCPU             *float64 `json:"avg_cpu"`
	PeakCPU            *float64 `json:"peak_cpu"`
	Utilization        string   `json:"utilization_status"`
	TotalCost3M        float64  `json:"total_cost_3m"`
	ActiveDays         int      `json:"active_days"`
	AvgMonthlyCost     float64  `json:"avg_monthly_cost"`
	OneYearEstimate    float64  `json:"one_year_est"`
	ThreeYearEstimate  float64  `json:"three_year_est"`
	IsNew              bool     `json:"is_new"`
	PriceSeries        string   `json:"price_series,omitempty"`
	PaygHourly         Amount   `json:"price_payg_hourly"`
	PaygMonthly        Amount   `json:"price_payg_monthly"`
	PaygYearly         Amount   `json:"price_payg_yearly"`
	OneYearReserved    Amount   `json:"price_1yr_reserved"`
	ThreeYearReserved  Amount   `json:"price_3yr_reserved"`
	SpotHourly         Amount   `json:"price_spot_hourly"`
	SpotMonthly        Amount   `json:"price_spot_monthly"`
	LowPriorityHourly  Amount   `json:"price_low_priority_hourly"`
	LowPriorityMonthly Amount   `json:"price_low_priority_monthly"`
}

// Artifact is the final output structure, keyed by subscription ID.
type Artifact map[string][]VMRecord
