package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/de-tools/vm-cost-atlas/pkg/models/domain"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure/paging"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://prices.azure.com/api/retail/prices"

	serviceName = "Virtual Machines"

	hoursPerMonth = 24 * 31
	hoursPerYear  = 24 * 365
)

// Catalog is the read-only 4-level retail price index built once per run:
// location -> size -> product series -> tier. Product series and tiers keep
// first-seen catalog order, which the resolver's selection rules depend on.
type Catalog struct {
	cells map[cellKey]*Cell
}

type cellKey struct {
	location string
	size     string
}

// Cell holds the product series available for one (location, size) pair.
type Cell struct {
	products []*Product
}

func (c *Cell) Products() []*Product {
	if c == nil {
		return nil
	}
	return c.products
}

// Product is one price series (e.g. "Virtual Machines Dv3 Series Windows")
// with its tiers in first-seen order.
type Product struct {
	Name  string
	tiers []*Tier
}

func (p *Product) Tiers() []*Tier {
	if p == nil {
		return nil
	}
	return p.tiers
}

// Tier is one named purchasable configuration within a product series.
type Tier struct {
	Name   string
	Prices domain.PriceTier
}

func NewCatalog() *Catalog {
	return &Catalog{cells: map[cellKey]*Cell{}}
}

// Cell returns the index cell for a (location, size) pair, or nil when the
// catalog has no rows for it.
func (c *Catalog) Cell(location, size string) *Cell {
	if c == nil {
		return nil
	}
	return c.cells[cellKey{location: location, size: size}]
}

func (c *Catalog) Empty() bool {
	return c == nil || len(c.cells) == 0
}

func (c *Catalog) add(row priceRow) {
	key := cellKey{location: row.ArmRegionName, size: row.ArmSkuName}
	cell := c.cells[key]
	if cell == nil {
		cell = &Cell{}
		c.cells[key] = cell
	}

	var product *Product
	for _, p := range cell.products {
		if p.Name == row.ProductName {
			product = p
			break
		}
	}
	if product == nil {
		product = &Product{Name: row.ProductName}
		cell.products = append(cell.products, product)
	}

	var tier *Tier
	for _, t := range product.tiers {
		if t.Name == row.SkuName {
			tier = t
			break
		}
	}
	if tier == nil {
		tier = &Tier{Name: row.SkuName}
		product.tiers = append(product.tiers, tier)
	}

	switch row.Type {
	case "Consumption":
		price := row.RetailPrice
		tier.Prices.PaygHourly = &price
		monthly := price * hoursPerMonth
		tier.Prices.PaygMonthly = &monthly
		yearly := price * hoursPerYear
		tier.Prices.PaygYearly = &yearly
	case "DevTestConsumption":
		price := row.RetailPrice
		tier.Prices.DevTest = &price
	case "Reservation":
		price := row.RetailPrice
		switch row.ReservationTerm {
		case "1 Year":
			tier.Prices.OneYearReserved = &price
		case "3 Years":
			tier.Prices.ThreeYearReserved = &price
		}
	}
}

type priceEnvelope struct {
	Items        []priceRow `json:"Items"`
	NextPageLink string     `json:"NextPageLink"`
}

type priceRow struct {
	ArmRegionName   string  `json:"armRegionName"`
	ArmSkuName      string  `json:"armSkuName"`
	ProductName     string  `json:"productName"`
	SkuName         string  `json:"skuName"`
	Type            string  `json:"type"`
	RetailPrice     float64 `json:"retailPrice"`
	ReservationTerm string  `json:"reservationTerm"`
}

func (r priceRow) complete() bool {
	return r.ArmRegionName != "" && r.ArmSkuName != "" && r.ProductName != "" && r.SkuName != ""
}

type Config struct {
	BaseURL string // defaults to the public retail prices endpoint
}

// Fetcher pulls retail price rows scoped to the locations and sizes observed
// in inventory. The retail prices API is unauthenticated.
type Fetcher struct {
	pager   *paging.Fetcher
	baseURL string
}

func NewFetcher(pager *paging.Fetcher, cfg Config) *Fetcher {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Fetcher{pager: pager, baseURL: baseURL}
}

// FetchCatalog builds the price index for the given dimensions. Empty
// dimension sets short-circuit to an empty catalog without a network call;
// fetch failures degrade to whatever rows were already indexed.
func (f *Fetcher) FetchCatalog(ctx context.Context, locations, sizes []string) *Catalog {
	logger := zerolog.Ctx(ctx)
	catalog := NewCatalog()

	if len(locations) == 0 || len(sizes) == 0 {
		logger.Warn().Msg("no locations or sizes discovered, pricing data will be empty")
		return catalog
	}

	params := url.Values{}
	params.Set("$filter", buildFilter(locations, sizes))
	endpoint := f.baseURL + "?" + params.Encode()

	_, err := f.pager.Pages(ctx, paging.Request{URL: endpoint},
		func(body []byte) (paging.Continuation, error) {
			var page priceEnvelope
			if err := json.Unmarshal(body, &page); err != nil {
				return paging.Continuation{}, fmt.Errorf("failed to decode price page: %w", err)
			}
			for _, row := range page.Items {
				if !row.complete() {
					logger.Warn().
						Str("product", row.ProductName).
						Str("sku", row.SkuName).
						Msg("skipping price row with missing key fields")
					continue
				}
				catalog.add(row)
			}
			return paging.Continuation{NextLink: page.NextPageLink}, nil
		})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to fetch retail prices, catalog may be incomplete")
	}

	if catalog.Empty() {
		logger.Warn().Msg("no pricing data returned")
	}
	return catalog
}

// buildFilter produces the OData filter: service AND (location ORs) AND
// (size ORs).
func buildFilter(locations, sizes []string) string {
	locationTerms := make([]string, 0, len(locations))
	for _, l := range locations {
		locationTerms = append(locationTerms, fmt.Sprintf("armRegionName eq '%s'", l))
	}
	sizeTerms := make([]string, 0, len(sizes))
	for _, s := range sizes {
		sizeTerms = append(sizeTerms, fmt.Sprintf("armSkuName eq '%s'", s))
	}
	return fmt.Sprintf("serviceName eq '%s' and (%s) and (%s)",
		serviceName,
		strings.Join(locationTerms, " or "),
		strings.Join(sizeTerms, " or "))
}
