package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/de-tools/vm-cost-atlas/pkg/models/domain"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure/paging"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://management.azure.com"
	apiVersion     = "2025-04-01"
)

// Result is the normalized inventory of one subscription, plus the distinct
// location and size dimensions (first-seen order) used to scope the pricing
// query.
type Result struct {
	VMs       []domain.VirtualMachine
	Locations []string
	Sizes     []string
}

type Config struct {
	BaseURL string // defaults to the public ARM endpoint
}

type Fetcher struct {
	pager   *paging.Fetcher
	auth    azure.Authorizer
	baseURL string
}

func NewFetcher(pager *paging.Fetcher, auth azure.Authorizer, cfg Config) *Fetcher {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Fetcher{pager: pager, auth: auth, baseURL: baseURL}
}

type listEnvelope struct {
	Value     []vmItem `json:"value"`
	SkipToken string   `json:"$skipToken"`
}

type vmItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Location   string `json:"location"`
	Properties struct {
		HardwareProfile struct {
			VMSize string `json:"vmSize"`
		} `json:"hardwareProfile"`
		StorageProfile struct {
			OSDisk struct {
				OSType string `json:"osType"`
			} `json:"osDisk"`
		} `json:"storageProfile"`
	} `json:"properties"`
}

// ListVirtualMachines enumerates all VMs in one subscription. Failures are
// reported and degrade to an empty result; a malformed item is skipped
// without aborting its page.
func (f *Fetcher) ListVirtualMachines(ctx context.Context, subscriptionID string) Result {
	logger := zerolog.Ctx(ctx)

	if !azure.ValidSubscriptionID(subscriptionID) {
		logger.Warn().
			Str("subscription", subscriptionID).
			Msg("not a valid subscription ID, skipping inventory fetch")
		return Result{}
	}

	url := fmt.Sprintf("%s/subscriptions/%s/providers/Microsoft.Compute/virtualMachines?api-version=%s",
		f.baseURL, subscriptionID, apiVersion)

	var items []vmItem
	_, err := f.pager.Pages(ctx, paging.Request{URL: url, Authorize: f.auth.Apply},
		func(body []byte) (paging.Continuation, error) {
			var page listEnvelope
			if err := unmarshalPage(body, &page); err != nil {
				return paging.Continuation{}, err
			}
			items = append(items, page.Value...)
			return paging.Continuation{SkipToken: page.SkipToken}, nil
		})
	if err != nil {
		logInventoryError(logger, subscriptionID, err)
		return Result{}
	}

	return normalize(logger, items)
}

func normalize(logger *zerolog.Logger, items []vmItem) Result {
	result := Result{}
	seenLocations := map[string]bool{}
	seenSizes := map[string]bool{}

	for _, item := range items {
		if item.ID == "" || item.Name == "" {
			logger.Warn().Msg("skipping malformed VM item: missing id or name")
			continue
		}

		location := item.Location
		if location == "" {
			location = domain.ValueUnknown
		}
		size := item.Properties.HardwareProfile.VMSize
		if size == "" {
			size = domain.ValueUnknown
		}

		result.VMs = append(result.VMs, domain.VirtualMachine{
			ID:       item.ID,
			Name:     item.Name,
			Location: location,
			Size:     size,
			OS:       domain.ParseOSFamily(item.Properties.StorageProfile.OSDisk.OSType),
		})

		if location != domain.ValueUnknown && !seenLocations[location] {
			seenLocations[location] = true
			result.Locations = append(result.Locations, location)
		}
		if size != domain.ValueUnknown && !seenSizes[size] {
			seenSizes[size] = true
			result.Sizes = append(result.Sizes, size)
		}
	}

	return result
}

func logInventoryError(logger *zerolog.Logger, subscriptionID string, err error) {
	event := logger.Warn().Str("subscription", subscriptionID)
	switch {
	case paging.IsStatus(err, http.StatusForbidden):
		event.Msg("access denied to subscription, check your permissions")
	case paging.IsStatus(err, http.StatusNotFound):
		event.Msg("subscription not found")
	case paging.IsTimeout(err):
		event.Msg("request timed out while fetching VMs")
	default:
		event.Err(err).Msg("failed to fetch VMs")
	}
}

func unmarshalPage(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode inventory page: %w", err)
	}
	return nil
}
