package subscription

import (
	"strings"

	"github.com/de-tools/vm-cost-atlas/pkg/models/domain"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure/pricing"
)

// Join merges each VM with its cost summary, utilization sample and resolved
// pricing, keyed by lower-cased VM name. It is a pure function of its inputs:
// missing upstream entries degrade to explicit defaults and every VM yields
// exactly one record, in inventory order.
func Join(
	vms []domain.VirtualMachine,
	costs map[string]domain.CostSummary,
	samples map[string]domain.UtilizationSample,
	catalog *pricing.Catalog,
) []domain.VMRecord {
	records := make([]domain.VMRecord, 0, len(vms))
	for _, vm := range vms {
		key := strings.ToLower(vm.Name)

		cost, ok := costs[key]
		if !ok {
			cost = domain.ZeroCostSummary()
		}

		sample, ok := samples[key]
		if !ok {
			sample = domain.UnavailableSample()
		}

		records = append(records, domain.VMRecord{
			VM:          vm,
			Cost:        cost,
			Utilization: sample,
			Pricing:     pricing.Resolve(vm, catalog.Cell(vm.Location, vm.Size)),
		})
	}
	return records
}
