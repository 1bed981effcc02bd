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
	registry.Register(prov.KindSubnet, func(client *client.Client, cfg *config.Config) prov.Deleter {
		return &Subnet{client, cfg}
	})
}

// Subnet creates and deletes subnets. A subnet is a child of its virtual
// network and is addressed by the network's name, not its ID.
type Subnet struct {
	Client *client.Client
	Config *config.Config
}

func (s *Subnet) CreateOrUpdate(ctx context.Context, spec prov.SubnetSpec) (string, error) {
	params := armnetwork.Subnet{
		Properties: &armnetwork.SubnetPropertiesFormat{
			AddressPrefix: to.Ptr(spec.AddressPrefix),
		},
	}

	poller, err := s.Client.SubnetsClient.BeginCreateOrUpdate(
		ctx,
		spec.ResourceGroup,
		spec.VirtualNetwork,
		spec.Name,
		params,
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("failed to start Subnet creation: %w", err)
	}

	result, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get Subnet create result: %w", err)
	}

	return resultID(result.ID, "Subnet")
}

func (s *Subnet) Delete(ctx context.Context, armID string) error {
	parts, err := resourceIDParts(armID, "resourcegroups", "virtualnetworks", "subnets")
	if err != nil {
		return err
	}

	poller, err := s.Client.SubnetsClient.BeginDelete(ctx, parts[0], parts[1], parts[2], nil)
	return awaitDelete(ctx, poller, err, "Subnet")
}
