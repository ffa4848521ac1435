package inventory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/de-tools/vm-cost-atlas/pkg/models/domain"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure"
	"github.com/de-tools/vm-cost-atlas/pkg/services/azure/paging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSubscription = "12345678-1234-1234-1234-123456789abc"

var noAuth = azure.AuthorizeFunc(func(*http.Request) error { return nil })

func newTestFetcher(server *httptest.Server) *Fetcher {
	pager := paging.NewFetcher(paging.Options{Client: server.Client(), Timeout: 5 * time.Second})
	return NewFetcher(pager, noAuth, Config{BaseURL: server.URL})
}

func TestListVirtualMachines_InvalidSubscriptionSkipsFetch(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	result := newTestFetcher(server).ListVirtualMachines(context.Background(), "not-a-guid")

	assert.Empty(t, result.VMs)
	assert.Zero(t, calls, "no network call expected for an invalid subscription ID")
}

func TestListVirtualMachines_PaginatesAndNormalizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, testSubscription)
		require.Contains(t, r.URL.Path, "Microsoft.Compute/virtualMachines")

		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{
				"value": [
					{
						"id": "/subscriptions/s/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/vm1",
						"name": "vm1",
						"location": "eastus",
						"properties": {
							"hardwareProfile": {"vmSize": "Standard_D2s_v3"},
							"storageProfile": {"osDisk": {"osType": "Linux"}}
						}
					},
					{
						"id": "",
						"name": "broken"
					}
				],
				"$skipToken": "page2"
			}`))
			return
		}

		_, _ = w.Write([]byte(`{
			"value": [
				{
					"id": "/subscriptions/s/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/vm2",
					"name": "vm2",
					"location": "westus",
					"properties": {
						"hardwareProfile": {"vmSize": "Standard_D2s_v3"},
						"storageProfile": {"osDisk": {"osType": "Windows"}}
					}
				},
				{
					"id": "/subscriptions/s/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/vm3",
					"name": "vm3",
					"location": "eastus",
					"properties": {}
				}
			]
		}`))
	}))
	defer server.Close()

	result := newTestFetcher(server).ListVirtualMachines(context.Background(), testSubscription)

	require.Len(t, result.VMs, 3, "malformed item skipped, all others kept")
	assert.Equal(t, "vm1", result.VMs[0].Name)
	assert.Equal(t, domain.OSLinux, result.VMs[0].OS)
	assert.Equal(t, "vm2", result.VMs[1].Name)
	assert.Equal(t, domain.OSWindows, result.VMs[1].OS)

	// vm3 has no hardware or storage profile.
	assert.Equal(t, domain.ValueUnknown, result.VMs[2].Size)
	assert.Equal(t, domain.OSUnknown, result.VMs[2].OS)

	// Distinct dimensions in first-seen order, sentinels excluded.
	assert.Equal(t, []string{"eastus", "westus"}, result.Locations)
	assert.Equal(t, []string{"Standard_D2s_v3"}, result.Sizes)
}

func TestListVirtualMachines_AccessDeniedDegradesToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	result := newTestFetcher(server).ListVirtualMachines(context.Background(), testSubscription)

	assert.Empty(t, result.VMs)
	assert.Empty(t, result.Locations)
	assert.Empty(t, result.Sizes)
}

func TestListVirtualMachines_EmptyInventory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"value": []}`))
	}))
	defer server.Close()

	result := newTestFetcher(server).ListVirtualMachines(context.Background(), testSubscription)

	assert.Empty(t, result.VMs)
}
