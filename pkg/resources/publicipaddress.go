// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/client"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/config"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/prov"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/registry"
)

func init() {
	registry.Register(prov.KindPublicIPAddress, func(client *client.Client, cfg *config.Config) prov.Deleter {
		return &PublicIPAddress{client, cfg}
	})
}

// PublicIPAddress creates and deletes dynamically allocated public IPs.
type PublicIPAddress struct {
	Client *client.Client
	Config *config.Config
}

func (pip *PublicIPAddress) CreateOrUpdate(ctx context.Context, spec prov.PublicIPAddressSpec) (string, error) {
	// Dynamic allocation is only valid on the Basic SKU, which is also the
	// service default, so no SKU is sent.
	params := armnetwork.PublicIPAddress{
		Location: to.Ptr(spec.Location),
		Properties: &armnetwork.PublicIPAddressPropertiesFormat{
			PublicIPAllocationMethod: to.Ptr(armnetwork.IPAllocationMethodDynamic),
		},
	}

	poller, err := pip.Client.PublicIPAddressesClient.BeginCreateOrUpdate(ctx, spec.ResourceGroup, spec.Name, params, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start PublicIPAddress creation: %w", err)
	}

	result, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get PublicIPAddress create result: %w", err)
	}

	return resultID(result.ID, "PublicIPAddress")
}

func (pip *PublicIPAddress) Delete(ctx context.Context, armID string) error {
	parts, err := resourceIDParts(armID, "resourcegroups", "publicipaddresses")
	if err != nil {
		return err
	}

	poller, err := pip.Client.PublicIPAddressesClient.BeginDelete(ctx, parts[0], parts[1], nil)
	return awaitDelete(ctx, poller, err, "PublicIPAddress")
}
