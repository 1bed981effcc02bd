// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package client

import (
	"context"
	"testing"

	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_EndpointOverride(t *testing.T) {
	cfg := config.Default()
	cfg.SubscriptionId = "00000000-0000-0000-0000-000000000001"
	cfg.EndpointURL = "http://127.0.0.1:1"

	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)

	assert.Same(t, cfg, c.Config)
	assert.NotNil(t, c.ResourceGroupsClient)
	assert.NotNil(t, c.VirtualNetworksClient)
	assert.NotNil(t, c.SubnetsClient)
	assert.NotNil(t, c.PublicIPAddressesClient)
	assert.NotNil(t, c.InterfacesClient)
	assert.NotNil(t, c.VirtualMachinesClient)
}
