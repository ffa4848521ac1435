package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/de-tools/vm-cost-atlas/pkg/models/domain"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure/paging"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://management.azure.com"
	apiVersion     = "2023-10-01"

	metricName = "Percentage CPU"
	windowDays = 30
)

type Config struct {
	BaseURL string // defaults to the public ARM endpoint
	Now     func() time.Time
}

// Sampler fetches a trailing 30-day hourly CPU series per VM and reduces it
// to an average/peak pair with a classification label.
type Sampler struct {
	pager   *paging.Fetcher
	auth    azure.Authorizer
	baseURL string
	now     func() time.Time
}

func NewSampler(pager *paging.Fetcher, auth azure.Authorizer, cfg Config) *Sampler {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Sampler{pager: pager, auth: auth, baseURL: baseURL, now: now}
}

type metricsEnvelope struct {
	Value []struct {
		Timeseries []struct {
			Data []metricPoint `json:"data"`
		} `json:"timeseries"`
	} `json:"value"`
}

type metricPoint struct {
	Average *float64 `json:"average"`
	Maximum *float64 `json:"maximum"`
}

// Sample collects utilization for each VM sequentially, keyed by lower-cased
// VM name. A 429 on any VM abandons the remaining VMs for this run, since the
// metrics rate limit is shared per scope; other errors only mark the affected
// VM.
func (s *Sampler) Sample(ctx context.Context, vms []domain.VirtualMachine) map[string]domain.UtilizationSample {
	logger := zerolog.Ctx(ctx)

	end := s.now().UTC()
	start := end.AddDate(0, 0, -windowDays)
	timespan := start.Format(time.RFC3339) + "/" + end.Format(time.RFC3339)

	samples := make(map[string]domain.UtilizationSample, len(vms))
	for _, vm := range vms {
		if vm.ID == "" {
			continue
		}
		key := strings.ToLower(vm.Name)

		sample, rateLimited := s.sampleOne(ctx, vm, timespan)
		samples[key] = sample
		if rateLimited {
			logger.Warn().
				Str("vm", vm.Name).
				Msg("metrics API rate limited, skipping remaining VMs")
			break
		}
	}
	return samples
}

func (s *Sampler) sampleOne(
	ctx context.Context,
	vm domain.VirtualMachine,
	timespan string,
) (domain.UtilizationSample, bool) {
	params := url.Values{}
	params.Set("api-version", apiVersion)
	params.Set("metricnames", metricName)
	params.Set("timespan", timespan)
	params.Set("interval", "PT1H")
	params.Set("aggregation", "Average,Maximum")

	endpoint := fmt.Sprintf("%s%s/providers/Microsoft.Insights/metrics?%s",
		s.baseURL, vm.ID, params.Encode())

	var envelope metricsEnvelope
	_, err := s.pager.Pages(ctx, paging.Request{URL: endpoint, Authorize: s.auth.Apply},
		func(body []byte) (paging.Continuation, error) {
			if err := json.Unmarshal(body, &envelope); err != nil {
				return paging.Continuation{}, fmt.Errorf("failed to decode metrics response: %w", err)
			}
			return paging.Continuation{}, nil
		})

	switch {
	case err == nil:
		return reduce(envelope), false
	case paging.IsStatus(err, http.StatusTooManyRequests):
		return domain.UtilizationSample{Classification: domain.UtilizationRateLimited}, true
	case paging.IsTimeout(err):
		return domain.UtilizationSample{Classification: domain.UtilizationTimeout}, false
	default:
		return domain.UtilizationSample{Classification: domain.UtilizationError}, false
	}
}

// reduce computes the mean of non-nil averages and the max of non-nil
// maximums. A series with no average samples is unavailable even when maximum
// samples exist.
func reduce(envelope metricsEnvelope) domain.UtilizationSample {
	if len(envelope.Value) == 0 {
		return domain.UtilizationSample{
			Classification: domain.UtilizationUnavailable,
			Detail:         "no metrics available",
		}
	}

	var points []metricPoint
	if series := envelope.Value[0].Timeseries; len(series) > 0 {
		points = series[0].Data
	}
	if len(points) == 0 {
		return domain.UtilizationSample{
			Classification: domain.UtilizationUnavailable,
			Detail:         "no data points",
		}
	}

	var avgSum float64
	var avgCount int
	var peak float64
	var peakSeen bool
	for _, p := range points {
		if p.Average != nil {
			avgSum += *p.Average
			avgCount++
		}
		if p.Maximum != nil && (!peakSeen || *p.Maximum > peak) {
			peak = *p.Maximum
			peakSeen = true
		}
	}

	if avgCount == 0 {
		return domain.UtilizationSample{
			Classification: domain.UtilizationUnavailable,
			Detail:         "no data points",
		}
	}

	avg := avgSum / float64(avgCount)
	if !peakSeen {
		peak = avg
	}

	avg = round1(avg)
	peak = round1(peak)
	return domain.UtilizationSample{
		AvgCPU:         &avg,
		PeakCPU:        &peak,
		Classification: Classify(avg, peak),
	}
}

// Classify maps an (avg, peak) CPU pair to a utilization label. The cases are
// evaluated in precedence order.
func Classify(avgCPU, peakCPU float64) domain.UtilizationClass {
	switch {
	case avgCPU < 10 && peakCPU < 30:
		return domain.UtilizationVeryLow
	case avgCPU < 20 && peakCPU < 50:
		return domain.UtilizationLow
	case avgCPU > 70 || peakCPU > 90:
		return domain.UtilizationHigh
	default:
		return domain.UtilizationNormal
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
