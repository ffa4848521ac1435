package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/vm-cost-atlas/pkg/models/domain"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure/inventory"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure/pricing"
	"github.com/rs/zerolog"
)

type InventoryService interface {
	ListVirtualMachines(ctx context.Context, subscriptionID string) inventory.Result
}

type CostService interface {
	Summarize(ctx context.Context, subscriptionID string) map[string]domain.CostSummary
}

type UtilizationService interface {
	Sample(ctx context.Context, vms []domain.VirtualMachine) map[string]domain.UtilizationSample
}

type PricingService interface {
	FetchCatalog(ctx context.Context, locations, sizes []string) *pricing.Catalog
}

type Dependencies struct {
	Inventory   InventoryService
	Costs       CostService
	Utilization UtilizationService // optional; nil skips metric sampling
	Pricing     PricingService
	Now         func() time.Time
}

// Controller runs the reconciliation pipeline for one subscription: inventory
// first (it discovers the pricing dimensions), then costs and utilization,
// then the price catalog, then the join.
type Controller struct {
	deps Dependencies
}

func NewController(deps Dependencies) (*Controller, error) {
	if deps.Inventory == nil || deps.Costs == nil || deps.Pricing == nil {
		return nil, fmt.Errorf("inventory, cost and pricing services are required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Controller{deps: deps}, nil
}

// BuildReport produces the per-subscription joined record set. Component
// failures upstream have already degraded to empty results, so this never
// fails once inventory is non-empty.
func (c *Controller) BuildReport(ctx context.Context, subscriptionID string) domain.SubscriptionReport {
	logger := zerolog.Ctx(ctx)

	report := domain.SubscriptionReport{
		SubscriptionID: subscriptionID,
		GeneratedAt:    c.deps.Now(),
	}

	inv := c.deps.Inventory.ListVirtualMachines(ctx, subscriptionID)
	if len(inv.VMs) == 0 {
		logger.Info().
			Str("subscription", subscriptionID).
			Msg("no VMs found")
		return report
	}
	logger.Info().
		Str("subscription", subscriptionID).
		Int("vms", len(inv.VMs)).
		Msg("inventory fetched")

	costs := c.deps.Costs.Summarize(ctx, subscriptionID)

	var samples map[string]domain.UtilizationSample
	if c.deps.Utilization != nil {
		samples = c.deps.Utilization.Sample(ctx, inv.VMs)
	}

	catalog := c.deps.Pricing.FetchCatalog(ctx, inv.Locations, inv.Sizes)

	report.VMs = Join(inv.VMs, costs, samples, catalog)
	return report
}
