package pricing

import (
	"strings"

	"github.com/de-tools/vm-cost-atlas/pkg/models/domain"
)

// Series and tier selection is driven by name matching because the retail
// catalog encodes OS and purchase model only in its display names. The
// predicates below are the business rules; their precedence is fixed by
// Resolve.

// isWindowsSeries reports whether a product series prices the Windows OS.
func isWindowsSeries(productName string) bool {
	return strings.Contains(productName, "Windows")
}

// isSpotTier reports whether a tier prices interruptible spot capacity.
func isSpotTier(tierName string) bool {
	return strings.Contains(tierName, "Spot")
}

// isLowPriorityTier reports whether a tier prices low-priority capacity.
func isLowPriorityTier(tierName string) bool {
	return strings.Contains(tierName, "Low Priority")
}

// Resolve deterministically selects one product series and its standard,
// spot and low-priority tiers for a VM. The first non-Windows series in
// catalog order is the Linux candidate and the first Windows series the
// Windows candidate; a VM whose OS has no candidate falls back to the other
// series, which can misprice it but keeps the record comparable.
func Resolve(vm domain.VirtualMachine, cell *Cell) domain.ResolvedPricing {
	var linuxSeries, windowsSeries *Product
	for _, product := range cell.Products() {
		if isWindowsSeries(product.Name) {
			if windowsSeries == nil {
				windowsSeries = product
			}
		} else if linuxSeries == nil {
			linuxSeries = product
		}
	}

	var selected *Product
	switch {
	case vm.OS == domain.OSWindows && windowsSeries != nil:
		selected = windowsSeries
	case vm.OS == domain.OSLinux && linuxSeries != nil:
		selected = linuxSeries
	case linuxSeries != nil:
		selected = linuxSeries
	default:
		selected = windowsSeries
	}

	if selected == nil {
		return domain.ResolvedPricing{}
	}

	resolved := domain.ResolvedPricing{Series: selected.Name}
	for _, tier := range selected.Tiers() {
		if resolved.Standard == nil && !isSpotTier(tier.Name) && !isLowPriorityTier(tier.Name) {
			prices := tier.Prices
			resolved.Standard = &prices
		}
		if resolved.Spot == nil && isSpotTier(tier.Name) {
			prices := tier.Prices
			resolved.Spot = &prices
		}
		if resolved.LowPriority == nil && isLowPriorityTier(tier.Name) {
			prices := tier.Prices
			resolved.LowPriority = &prices
		}
	}
	return resolved
}
