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
	registry.Register(prov.KindVirtualNetwork, func(client *client.Client, cfg *config.Config) prov.Deleter {
		return &VirtualNetwork{client, cfg}
	})
}

// VirtualNetwork creates and deletes Azure Virtual Networks.
type VirtualNetwork struct {
	Client *client.Client
	Config *config.Config
}

func (vn *VirtualNetwork) CreateOrUpdate(ctx context.Context, spec prov.VirtualNetworkSpec) (string, error) {
	params := armnetwork.VirtualNetwork{
		Location: to.Ptr(spec.Location),
		Properties: &armnetwork.VirtualNetworkPropertiesFormat{
			AddressSpace: &armnetwork.AddressSpace{
				AddressPrefixes: to.SliceOfPtrs(spec.AddressPrefixes...),
			},
		},
	}

	poller, err := vn.Client.VirtualNetworksClient.BeginCreateOrUpdate(ctx, spec.ResourceGroup, spec.Name, params, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start VirtualNetwork creation: %w", err)
	}

	result, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get VirtualNetwork create result: %w", err)
	}

	return resultID(result.ID, "VirtualNetwork")
}

func (vn *VirtualNetwork) Delete(ctx context.Context, armID string) error {
	parts, err := resourceIDParts(armID, "resourcegroups", "virtualnetworks")
	if err != nil {
		return err
	}

	poller, err := vn.Client.VirtualNetworksClient.BeginDelete(ctx, parts[0], parts[1], nil)
	return awaitDelete(ctx, poller, err, "VirtualNetwork")
}
