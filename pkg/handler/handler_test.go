// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/config"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/metrics"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/prov"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/runid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu     sync.Mutex
	calls  []prov.Kind
	failOn prov.Kind
	err    error
}

func (f *fakeProvider) create(kind prov.Kind, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, kind)
	if kind == f.failOn {
		return "", f.err
	}
	return "id/" + name, nil
}

func (f *fakeProvider) called() []prov.Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]prov.Kind(nil), f.calls...)
}

func (f *fakeProvider) ResourceGroupExists(context.Context, string) (bool, error) {
	return false, nil
}

func (f *fakeProvider) CreateResourceGroup(_ context.Context, spec prov.ResourceGroupSpec) (string, error) {
	return f.create(prov.KindResourceGroup, spec.Name)
}

func (f *fakeProvider) CreateVirtualNetwork(_ context.Context, spec prov.VirtualNetworkSpec) (string, error) {
	return f.create(prov.KindVirtualNetwork, spec.Name)
}

func (f *fakeProvider) CreateSubnet(_ context.Context, spec prov.SubnetSpec) (string, error) {
	return f.create(prov.KindSubnet, spec.Name)
}

func (f *fakeProvider) CreatePublicIPAddress(_ context.Context, spec prov.PublicIPAddressSpec) (string, error) {
	return f.create(prov.KindPublicIPAddress, spec.Name)
}

func (f *fakeProvider) CreateNetworkInterface(_ context.Context, spec prov.NetworkInterfaceSpec) (string, error) {
	return f.create(prov.KindNetworkInterface, spec.Name)
}

func (f *fakeProvider) CreateVirtualMachine(_ context.Context, spec prov.VirtualMachineSpec) (string, error) {
	return f.create(prov.KindVirtualMachine, spec.Name)
}

func (f *fakeProvider) Delete(context.Context, prov.Kind, string) error {
	return nil
}

type testServer struct {
	*Server
	provider *fakeProvider
	registry *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.SubscriptionId = "sub"
	cfg.VM.AdminPassword = "Sup3rS3cret!"

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	provider := &fakeProvider{}

	return &testServer{
		Server:   NewServer(prov.New(provider, cfg, m), m, reg, zerolog.Nop()),
		provider: provider,
		registry: reg,
	}
}

func (ts *testServer) do(t *testing.T, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

// requestCount reads vmprov_requests_total for one status code.
func (ts *testServer) requestCount(t *testing.T, code string) float64 {
	t.Helper()
	families, err := ts.registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "vmprov_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "code" && l.GetValue() == code {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestProvisionVM_Success(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, ProvisionRoute+"?vm_name=testvm&resource_group_name=testrg&location=eastus", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "VM testvm created successfully.", rec.Body.String())
	assert.Equal(t, prov.Chain, ts.provider.called())

	_, err := runid.Parse(rec.Header().Get(RunIDHeader))
	assert.NoError(t, err)
	assert.Equal(t, 1.0, ts.requestCount(t, "200"))
}

func TestProvisionVM_MissingParameters(t *testing.T) {
	targets := []string{
		ProvisionRoute,
		ProvisionRoute + "?vm_name=testvm",
		ProvisionRoute + "?vm_name=testvm&resource_group_name=testrg",
		ProvisionRoute + "?resource_group_name=testrg&location=eastus",
		ProvisionRoute + "?vm_name=&resource_group_name=testrg&location=eastus",
	}

	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			ts := newTestServer(t)

			rec := ts.do(t, http.MethodGet, target, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Please pass vm_name, resource_group_name, and location in the request body", rec.Body.String())
			assert.Empty(t, ts.provider.called())
			assert.Empty(t, rec.Header().Get(RunIDHeader))
		})
	}
}

func TestProvisionVM_ProviderFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.provider.failOn = prov.KindNetworkInterface
	ts.provider.err = errors.New("SubnetNotFound: subnet does not exist")

	rec := ts.do(t, http.MethodPost, ProvisionRoute+"?vm_name=testvm&resource_group_name=testrg&location=eastus", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Error creating VM: "))
	assert.Contains(t, rec.Body.String(), "SubnetNotFound: subnet does not exist")
	assert.Contains(t, rec.Body.String(), "testvm-nic")
	assert.NotContains(t, ts.provider.called(), prov.KindVirtualMachine)
	assert.NotEmpty(t, rec.Header().Get(RunIDHeader))
	assert.Equal(t, 1.0, ts.requestCount(t, "500"))
}

func TestProvisionVM_JSONBodyFallback(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, ProvisionRoute+"?vm_name=queryvm",
		strings.NewReader(`{"vm_name":"bodyvm","resource_group_name":"testrg","location":"eastus"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "VM queryvm created successfully.", rec.Body.String())
}

func TestProvisionVM_MalformedBodyIsIgnored(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, ProvisionRoute+"?vm_name=testvm", strings.NewReader(`{not json`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ts.provider.called())
}

func TestProvisionVM_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodDelete, ProvisionRoute+"?vm_name=testvm&resource_group_name=testrg&location=eastus", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, POST", rec.Header().Get("Allow"))
	assert.Empty(t, ts.provider.called())
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, ProvisionRoute, nil)

	rec := ts.do(t, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `vmprov_requests_total{code="400"} 1`)
}

func TestHandler_Instrumented(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}
