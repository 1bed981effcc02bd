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
	registry.Register(prov.KindNetworkInterface, func(client *client.Client, cfg *config.Config) prov.Deleter {
		return &NetworkInterface{client, cfg}
	})
}

// NetworkInterface creates and deletes Azure Network Interfaces.
type NetworkInterface struct {
	Client *client.Client
	Config *config.Config
}

func (nic *NetworkInterface) CreateOrUpdate(ctx context.Context, spec prov.NetworkInterfaceSpec) (string, error) {
	if spec.SubnetID == "" {
		return "", fmt.Errorf("subnet ID is required")
	}

	ipConfig := &armnetwork.InterfaceIPConfiguration{
		Name: to.Ptr(spec.IPConfigurationName),
		Properties: &armnetwork.InterfaceIPConfigurationPropertiesFormat{
			Subnet: &armnetwork.Subnet{
				ID: to.Ptr(spec.SubnetID),
			},
		},
	}
	if spec.PublicIPAddressID != "" {
		ipConfig.Properties.PublicIPAddress = &armnetwork.PublicIPAddress{
			ID: to.Ptr(spec.PublicIPAddressID),
		}
	}

	params := armnetwork.Interface{
		Location: to.Ptr(spec.Location),
		Properties: &armnetwork.InterfacePropertiesFormat{
			IPConfigurations: []*armnetwork.InterfaceIPConfiguration{ipConfig},
		},
	}

	poller, err := nic.Client.InterfacesClient.BeginCreateOrUpdate(ctx, spec.ResourceGroup, spec.Name, params, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start NetworkInterface creation: %w", err)
	}

	result, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get NetworkInterface create result: %w", err)
	}

	return resultID(result.ID, "NetworkInterface")
}

func (nic *NetworkInterface) Delete(ctx context.Context, armID string) error {
	parts, err := resourceIDParts(armID, "resourcegroups", "networkinterfaces")
	if err != nil {
		return err
	}

	poller, err := nic.Client.InterfacesClient.BeginDelete(ctx, parts[0], parts[1], nil)
	return awaitDelete(ctx, poller, err, "NetworkInterface")
}
