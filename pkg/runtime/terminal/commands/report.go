package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/de-tools/vm-cost-atlas/pkg/models/domain"
	"github.com/de-tools/vm-cost-atlas/pkg/runtime/terminal/export"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Pipeline builds the joined record set for one subscription scope.
type Pipeline interface {
	BuildReport(ctx context.Context, subscriptionID string) domain.SubscriptionReport
}

type PipelineConfig struct {
	Profile     string
	SkipMetrics bool
}

// PipelineFactory wires a reconciliation pipeline for a profile and returns
// it together with the profile's default subscription list. A factory error
// is fatal: it means credentials are unusable before any fetch began.
type PipelineFactory func(ctx context.Context, cfg PipelineConfig) (Pipeline, []string, error)

type ReportCmd struct {
	profile       string
	subscriptions string
	output        string
	skipMetrics   bool
	factory       PipelineFactory
}

func NewReportCmd(factory PipelineFactory) *cobra.Command {
	rc := &ReportCmd{factory: factory}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Reconcile VM inventory, costs, utilization and pricing into one report",
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.profile, "profile", "", "Azure config profile to use")
	cmd.Flags().StringVar(&rc.subscriptions, "subscriptions", "",
		"Comma-separated subscription IDs (defaults to the profile's subscriptions)")
	cmd.Flags().StringVarP(&rc.output, "output", "o", "vm_cost_report.json",
		"Output file for the JSON report ('-' for stdout)")
	cmd.Flags().BoolVar(&rc.skipMetrics, "skip-metrics", false,
		"Skip the per-VM CPU utilization sampling")

	return cmd
}

func (rc *ReportCmd) run(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	pipeline, defaultSubs, err := rc.factory(ctx, PipelineConfig{
		Profile:     rc.profile,
		SkipMetrics: rc.skipMetrics,
	})
	if err != nil {
		return err
	}

	subscriptions := splitSubscriptions(rc.subscriptions)
	if len(subscriptions) == 0 {
		subscriptions = defaultSubs
	}
	if len(subscriptions) == 0 {
		return fmt.Errorf("no subscription ID provided")
	}

	var reports []domain.SubscriptionReport
	for idx, subscription := range subscriptions {
		logger.Info().
			Str("subscription", subscription).
			Msgf("processing subscription %d/%d", idx+1, len(subscriptions))

		report := pipeline.BuildReport(ctx, subscription)
		if len(report.VMs) == 0 {
			logger.Warn().
				Str("subscription", subscription).
				Msg("skipping subscription, no VMs found")
			continue
		}
		reports = append(reports, report)
	}

	if len(reports) == 0 {
		return fmt.Errorf("no data collected from any subscription")
	}

	writer := os.Stdout
	if rc.output != "-" {
		f, err := os.Create(rc.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		writer = f
	}

	if err := export.NewReporter(writer).Export(reports); err != nil {
		return fmt.Errorf("failed to export report: %w", err)
	}

	if rc.output != "-" {
		logger.Info().Str("output", rc.output).Msg("report written")
	}
	return nil
}

func splitSubscriptions(raw string) []string {
	var subs []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			subs = append(subs, s)
		}
	}
	return subs
}
