package insights

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/vm-cost-atlas/pkg/models/domain"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure/paging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noAuth = azure.AuthorizeFunc(func(*http.Request) error { return nil })

func newTestSampler(server *httptest.Server) *Sampler {
	pager := paging.NewFetcher(paging.Options{Client: server.Client(), Timeout: 5 * time.Second})
	return NewSampler(pager, noAuth, Config{BaseURL: server.URL})
}

func testVM(name string) domain.VirtualMachine {
	return domain.VirtualMachine{
		ID:   fmt.Sprintf("/subscriptions/s/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/%s", name),
		Name: name,
	}
}

func metricsBody(points string) string {
	return fmt.Sprintf(`{"value": [{"timeseries": [{"data": [%s]}]}]}`, points)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		avg, peak float64
		expected  domain.UtilizationClass
	}{
		{5, 20, domain.UtilizationVeryLow},
		{15, 40, domain.UtilizationLow},
		{75, 50, domain.UtilizationHigh},
		{50, 95, domain.UtilizationHigh},
		{50, 60, domain.UtilizationNormal},
		{9, 40, domain.UtilizationLow},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("avg=%v,peak=%v", tc.avg, tc.peak), func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(tc.avg, tc.peak))
		})
	}
}

func TestSample_ReducesSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Percentage CPU", r.URL.Query().Get("metricnames"))
		assert.Equal(t, "PT1H", r.URL.Query().Get("interval"))
		assert.Equal(t, "Average,Maximum", r.URL.Query().Get("aggregation"))

		_, _ = w.Write([]byte(metricsBody(
			`{"average": 6.0, "maximum": 20.0},
			 {"average": 10.0, "maximum": 25.0},
			 {"maximum": 15.0}`)))
	}))
	defer server.Close()

	samples := newTestSampler(server).Sample(context.Background(), []domain.VirtualMachine{testVM("VM1")})

	require.Contains(t, samples, "vm1", "samples keyed by lower-cased name")
	sample := samples["vm1"]
	require.NotNil(t, sample.AvgCPU)
	require.NotNil(t, sample.PeakCPU)
	assert.Equal(t, 8.0, *sample.AvgCPU, "mean of non-nil averages only")
	assert.Equal(t, 25.0, *sample.PeakCPU)
	assert.Equal(t, domain.UtilizationVeryLow, sample.Classification)
}

func TestSample_NoMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"value": []}`))
	}))
	defer server.Close()

	samples := newTestSampler(server).Sample(context.Background(), []domain.VirtualMachine{testVM("vm1")})

	sample := samples["vm1"]
	assert.Nil(t, sample.AvgCPU)
	assert.Nil(t, sample.PeakCPU)
	assert.Equal(t, domain.UtilizationUnavailable, sample.Classification)
	assert.Equal(t, "no metrics available", sample.Detail)
}

func TestSample_EmptyDataPoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(metricsBody("")))
	}))
	defer server.Close()

	samples := newTestSampler(server).Sample(context.Background(), []domain.VirtualMachine{testVM("vm1")})

	assert.Equal(t, domain.UtilizationUnavailable, samples["vm1"].Classification)
	assert.Equal(t, "no data points", samples["vm1"].Detail)
}

func TestSample_OnlyMaximumSamplesIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(metricsBody(`{"maximum": 55.0}`)))
	}))
	defer server.Close()

	samples := newTestSampler(server).Sample(context.Background(), []domain.VirtualMachine{testVM("vm1")})

	assert.Equal(t, domain.UtilizationUnavailable, samples["vm1"].Classification)
}

func TestSample_RateLimitAbandonsRemainingVMs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "vm1"):
			_, _ = w.Write([]byte(metricsBody(`{"average": 50.0, "maximum": 60.0}`)))
		case strings.Contains(r.URL.Path, "vm2"):
			http.Error(w, "throttled", http.StatusTooManyRequests)
		default:
			t.Fatalf("unexpected fetch for %s after rate limit", r.URL.Path)
		}
	}))
	defer server.Close()

	vms := []domain.VirtualMachine{testVM("vm1"), testVM("vm2"), testVM("vm3")}
	samples := newTestSampler(server).Sample(context.Background(), vms)

	assert.Equal(t, domain.UtilizationNormal, samples["vm1"].Classification)
	assert.Equal(t, domain.UtilizationRateLimited, samples["vm2"].Classification)
	assert.NotContains(t, samples, "vm3", "sampling abandoned after rate limit")
}

func TestSample_ErrorAffectsOnlyOneVM(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "vm1") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(metricsBody(`{"average": 15.0, "maximum": 40.0}`)))
	}))
	defer server.Close()

	vms := []domain.VirtualMachine{testVM("vm1"), testVM("vm2")}
	samples := newTestSampler(server).Sample(context.Background(), vms)

	assert.Equal(t, domain.UtilizationError, samples["vm1"].Classification)
	assert.Equal(t, domain.UtilizationLow, samples["vm2"].Classification)
}

func TestSample_SkipsVMsWithoutID(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	samples := newTestSampler(server).Sample(context.Background(),
		[]domain.VirtualMachine{{Name: "no-id"}})

	assert.Empty(t, samples)
	assert.Zero(t, calls)
}
