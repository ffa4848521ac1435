package costs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/de-tools/vm-cost-atlas/pkg/models/domain"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure/paging"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://management.azure.com"
	apiVersion     = "2025-03-01"

	vmResourceType = "microsoft.compute/virtualmachines"
)

type Config struct {
	BaseURL string // defaults to the public ARM endpoint
	Now     func() time.Time
}

// Aggregator reduces the Cost Management daily ledger into one CostSummary
// per resource, keyed by the lower-cased trailing resource-id segment.
type Aggregator struct {
	pager   *paging.Fetcher
	auth    azure.Authorizer
	baseURL string
	now     func() time.Time
}

func NewAggregator(pager *paging.Fetcher, auth azure.Authorizer, cfg Config) *Aggregator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Aggregator{pager: pager, auth: auth, baseURL: baseURL, now: now}
}

type accumulator struct {
	total      float64
	activeDays int
}

// Summarize queries a fixed trailing 90-day window at daily granularity,
// grouped by resource ID and filtered to virtual machines. Any failure of the
// primary query degrades to an empty map; a failure on a later page keeps the
// rows accumulated so far.
func (a *Aggregator) Summarize(ctx context.Context, subscriptionID string) map[string]domain.CostSummary {
	logger := zerolog.Ctx(ctx)

	url := fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.CostManagement/query?api-version=%s",
		a.baseURL, subscriptionID, apiVersion)

	stats := map[string]*accumulator{}
	cursor, err := a.pager.Pages(ctx, paging.Request{
		Method:    http.MethodPost,
		URL:       url,
		Body:      a.buildQuery(),
		Authorize: a.auth.Apply,
	}, func(body []byte) (paging.Continuation, error) {
		var result armcostmanagement.QueryResult
		if err := json.Unmarshal(body, &result); err != nil {
			return paging.Continuation{}, fmt.Errorf("failed to decode cost query result: %w", err)
		}
		if result.Properties == nil {
			return paging.Continuation{}, nil
		}
		accumulateRows(stats, result.Properties.Rows)
		if result.Properties.NextLink != nil {
			return paging.Continuation{NextLink: *result.Properties.NextLink}, nil
		}
		return paging.Continuation{}, nil
	})

	if err != nil {
		if cursor.Pages == 0 {
			logCostError(logger, subscriptionID, err)
			return map[string]domain.CostSummary{}
		}
		logger.Warn().
			Str("subscription", subscriptionID).
			Err(err).
			Msg("error fetching additional cost data pages, keeping partial ledger")
	}

	summaries := make(map[string]domain.CostSummary, len(stats))
	for rid, acc := range stats {
		summaries[rid] = domain.SummarizeCost(acc.total, acc.activeDays)
	}
	return summaries
}

// buildQuery constructs the Cost Management query body: 90-day custom window
// computed at call time, daily granularity, Sum(Cost) grouped by ResourceId,
// filtered to the VM resource type.
func (a *Aggregator) buildQuery() armcostmanagement.QueryDefinition {
	timeTo := a.now()
	timeFrom := timeTo.AddDate(0, 0, -domain.CostWindowDays)

	return armcostmanagement.QueryDefinition{
		Type:      to.Ptr(armcostmanagement.ExportTypeUsage),
		Timeframe: to.Ptr(armcostmanagement.TimeframeTypeCustom),
		TimePeriod: &armcostmanagement.QueryTimePeriod{
			From: to.Ptr(timeFrom),
			To:   to.Ptr(timeTo),
		},
		Dataset: &armcostmanagement.QueryDataset{
			Granularity: to.Ptr(armcostmanagement.GranularityTypeDaily),
			Aggregation: map[string]*armcostmanagement.QueryAggregation{
				"totalCost": {
					Name:     to.Ptr("Cost"),
					Function: to.Ptr(armcostmanagement.FunctionTypeSum),
				},
			},
			Grouping: []*armcostmanagement.QueryGrouping{{
				Type: to.Ptr(armcostmanagement.QueryColumnTypeDimension),
				Name: to.Ptr("ResourceId"),
			}},
			Filter: &armcostmanagement.QueryFilter{
				Dimensions: &armcostmanagement.QueryComparisonExpression{
					Name:     to.Ptr("ResourceType"),
					Operator: to.Ptr(armcostmanagement.QueryOperatorTypeIn),
					Values:   []*string{to.Ptr(vmResourceType)},
				},
			},
		},
	}
}

// accumulateRows folds daily (cost, date, resourceId) tuples into per-resource
// running totals. Rows with fewer than 3 fields are skipped; a non-numeric
// cost counts as zero and never as an active day.
func accumulateRows(stats map[string]*accumulator, rows [][]any) {
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}

		fullID, ok := row[2].(string)
		if !ok || fullID == "" {
			continue
		}
		segments := strings.Split(fullID, "/")
		rid := strings.ToLower(segments[len(segments)-1])

		cost := parseCost(row[0])

		acc := stats[rid]
		if acc == nil {
			acc = &accumulator{}
			stats[rid] = acc
		}
		acc.total += cost
		if cost > 0 {
			acc.activeDays++
		}
	}
}

func parseCost(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case json.Number:
		cost, err := val.Float64()
		if err != nil {
			return 0
		}
		return cost
	case string:
		cost, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0
		}
		return cost
	default:
		return 0
	}
}

func logCostError(logger *zerolog.Logger, subscriptionID string, err error) {
	event := logger.Warn().Str("subscription", subscriptionID)
	switch {
	case paging.IsTimeout(err):
		event.Msg("cost data request timed out, continuing with zero costs")
	default:
		event.Err(err).Msg("could not fetch cost data, continuing with zero costs")
	}
}
