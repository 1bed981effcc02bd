// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/client"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/config"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/prov"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/registry"
)

func init() {
	registry.Register(prov.KindResourceGroup, func(client *client.Client, cfg *config.Config) prov.Deleter {
		return &ResourceGroup{client, cfg}
	})
}

type ResourceGroup struct {
	Client *client.Client
	Config *config.Config
}

// Exists reports whether the resource group is already present.
func (rg *ResourceGroup) Exists(ctx context.Context, name string) (bool, error) {
	resp, err := rg.Client.ResourceGroupsClient.CheckExistence(ctx, name, nil)
	if err != nil {
		return false, fmt.Errorf("failed to check resource group existence: %w", err)
	}
	return resp.Success, nil
}

func (rg *ResourceGroup) CreateOrUpdate(ctx context.Context, spec prov.ResourceGroupSpec) (string, error) {
	params := armresources.ResourceGroup{
		Location: to.Ptr(spec.Location),
	}

	// Resource Groups are synchronous operations (no LRO polling needed)
	result, err := rg.Client.ResourceGroupsClient.CreateOrUpdate(ctx, spec.Name, params, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create resource group: %w", err)
	}

	return resultID(result.ID, "resource group")
}

func (rg *ResourceGroup) Delete(ctx context.Context, armID string) error {
	parts, err := resourceIDParts(armID, "resourcegroups")
	if err != nil {
		return err
	}

	poller, err := rg.Client.ResourceGroupsClient.BeginDelete(ctx, parts[0], nil)
	return awaitDelete(ctx, poller, err, "resource group")
}
