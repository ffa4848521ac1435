package adapters

import (
	"math"

	"github.com/de-tools/vm-cost-atlas/pkg/models/api"
	"github.com/de-tools/vm-cost-atlas/pkg/models/domain"
)

func MapReportsToArtifact(reports []domain.SubscriptionReport) api.Artifact {
	artifact := make(api.Artifact, len(reports))
	for _, report := range reports {
		records := make([]api.VMRecord, 0, len(report.VMs))
		for _, rec := range report.VMs {
			records = append(records, MapVMRecordDomainToAPI(rec))
		}
		artifact[report.SubscriptionID] = records
	}
	return artifact
}

func MapVMRecordDomainToAPI(rec domain.VMRecord) api.VMRecord {
	out := api.VMRecord{
		Name:              rec.VM.Name,
		Region:            rec.VM.Location,
		Size:              rec.VM.Size,
		OSType:            string(rec.VM.OS),
		AvgCPU:            rec.Utilization.AvgCPU,
		PeakCPU:           rec.Utilization.PeakCPU,
		Utilization:       string(rec.Utilization.Classification),
		TotalCost3M:       round2(rec.Cost.TotalCost90d),
		ActiveDays:        rec.Cost.ActiveDays,
		AvgMonthlyCost:    round2(rec.Cost.AvgMonthlyCost),
		OneYearEstimate:   round2(rec.Cost.OneYearEstimate),
		ThreeYearEstimate: round2(rec.Cost.ThreeYearEstimate),
		IsNew:             rec.Cost.IsNew,
		PriceSeries:       rec.Pricing.Series,
	}

	if std := rec.Pricing.Standard; std != nil {
		out.PaygHourly = amount(std.PaygHourly)
		out.PaygMonthly = amount(std.PaygMonthly)
		out.PaygYearly = amount(std.PaygYearly)
		out.OneYearReserved = amount(std.OneYearReserved)
		out.ThreeYearReserved = amount(std.ThreeYearReserved)
	}
	if spot := rec.Pricing.Spot; spot != nil {
		out.SpotHourly = amount(spot.PaygHourly)
		out.SpotMonthly = amount(spot.PaygMonthly)
	}
	if lp := rec.Pricing.LowPriority; lp != nil {
		out.LowPriorityHourly = amount(lp.PaygHourly)
		out.LowPriorityMonthly = amount(lp.PaygMonthly)
	}

	return out
}

func amount(v *float64) api.Amount {
	if v == nil {
		return api.Amount{}
	}
	return api.Amount{Value: *v, Valid: true}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
