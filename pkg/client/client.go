// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package client

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/config"
)

// Client wraps the Azure SDK clients used by the provisioning chain.
//
// The three management planes of the chain map onto typed clients: resource
// groups (armresources), networking (armnetwork) and compute (armcompute). All of
// them share one credential and one set of client options, so an endpoint
// override or retry setting applies to every call in a run.
type Client struct {
	Config                  *config.Config
	ResourceGroupsClient    *armresources.ResourceGroupsClient
	VirtualNetworksClient   *armnetwork.VirtualNetworksClient
	SubnetsClient           *armnetwork.SubnetsClient
	PublicIPAddressesClient *armnetwork.PublicIPAddressesClient
	InterfacesClient        *armnetwork.InterfacesClient
	VirtualMachinesClient   *armcompute.VirtualMachinesClient
}

// NewClient creates a new Azure client wrapper
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	cred, err := cfg.ToAzureCredential(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	clientOptions := cfg.ARMClientOptions()

	rgClient, err := armresources.NewResourceGroupsClient(cfg.SubscriptionId, cred, clientOptions)
	if err != nil {
		return nil, err
	}

	vnetClient, err := armnetwork.NewVirtualNetworksClient(cfg.SubscriptionId, cred, clientOptions)
	if err != nil {
		return nil, err
	}

	subnetClient, err := armnetwork.NewSubnetsClient(cfg.SubscriptionId, cred, clientOptions)
	if err != nil {
		return nil, err
	}

	publicIPAddressesClient, err := armnetwork.NewPublicIPAddressesClient(cfg.SubscriptionId, cred, clientOptions)
	if err != nil {
		return nil, err
	}

	interfacesClient, err := armnetwork.NewInterfacesClient(cfg.SubscriptionId, cred, clientOptions)
	if err != nil {
		return nil, err
	}

	virtualMachinesClient, err := armcompute.NewVirtualMachinesClient(cfg.SubscriptionId, cred, clientOptions)
	if err != nil {
		return nil, err
	}

	return &Client{
		Config:                  cfg,
		ResourceGroupsClient:    rgClient,
		VirtualNetworksClient:   vnetClient,
		SubnetsClient:           subnetClient,
		PublicIPAddressesClient: publicIPAddressesClient,
		InterfacesClient:        interfacesClient,
		VirtualMachinesClient:   virtualMachinesClient,
	}, nil
}
