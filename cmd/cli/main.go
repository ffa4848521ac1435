package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/de-tools/vm-cost-atlas/pkg/runtime/terminal"
	"github.com/de-tools/vm-cost-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure/costs"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure/insights"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure/inventory"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure/paging"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure/pricing"
	"github.com/de-tools/vm-cost-atlas/pkg/services/subscription"
)

func main() {
	cli := terminal.NewCLI(terminal.Options{
		Factory: buildPipeline,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildPipeline(ctx context.Context, cfg commands.PipelineConfig) (commands.Pipeline, []string, error) {
	azureCfg, err := azure.LoadConfig(cfg.Profile)
	if err != nil {
		return nil, nil, err
	}

	auth := azure.NewARMAuthorizer(azureCfg.Credentials)
	if err := auth.Validate(ctx); err != nil {
		return nil, nil, fmt.Errorf("please ensure you are logged in via 'az login' or have valid credentials configured: %w", err)
	}

	pager := paging.NewFetcher(paging.Options{Timeout: 60 * time.Second})
	metricsPager := paging.NewFetcher(paging.Options{Timeout: 30 * time.Second})

	deps := subscription.Dependencies{
		Inventory: inventory.NewFetcher(pager, auth, inventory.Config{}),
		Costs:     costs.NewAggregator(pager, auth, costs.Config{}),
		Pricing:   pricing.NewFetcher(pager, pricing.Config{}),
	}
	if !cfg.SkipMetrics {
		deps.Utilization = insights.NewSampler(metricsPager, auth, insights.Config{})
	}

	ctrl, err := subscription.NewController(deps)
	if err != nil {
		return nil, nil, err
	}
	return ctrl, azureCfg.SubscriptionIDs, nil
}
