// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/client"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/config"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/prov"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/registry"
)

func init() {
	registry.Register(prov.KindVirtualMachine, func(client *client.Client, cfg *config.Config) prov.Deleter {
		return &VirtualMachine{client, cfg}
	})
}

// VirtualMachine creates and deletes Azure Virtual Machines.
type VirtualMachine struct {
	Client *client.Client
	Config *config.Config
}

// buildVirtualMachineParams maps the fixed VM profile onto the compute API model.
func buildVirtualMachineParams(spec prov.VirtualMachineSpec) armcompute.VirtualMachine {
	profile := spec.Profile

	osDisk := &armcompute.OSDisk{
		CreateOption: to.Ptr(armcompute.DiskCreateOptionTypesFromImage),
	}
	if spec.DeleteOSDiskWithVM {
		osDisk.DeleteOption = to.Ptr(armcompute.DiskDeleteOptionTypesDelete)
	}

	return armcompute.VirtualMachine{
		Location: to.Ptr(spec.Location),
		Properties: &armcompute.VirtualMachineProperties{
			HardwareProfile: &armcompute.HardwareProfile{
				VMSize: to.Ptr(armcompute.VirtualMachineSizeTypes(profile.Size)),
			},
			StorageProfile: &armcompute.StorageProfile{
				ImageReference: &armcompute.ImageReference{
					Publisher: to.Ptr(profile.ImagePublisher),
					Offer:     to.Ptr(profile.ImageOffer),
					SKU:       to.Ptr(profile.ImageSKU),
					Version:   to.Ptr(profile.ImageVersion),
				},
				OSDisk: osDisk,
			},
			OSProfile: &armcompute.OSProfile{
				ComputerName:  to.Ptr(spec.ComputerName),
				AdminUsername: to.Ptr(profile.AdminUsername),
				AdminPassword: to.Ptr(profile.AdminPassword),
			},
			NetworkProfile: &armcompute.NetworkProfile{
				NetworkInterfaces: []*armcompute.NetworkInterfaceReference{
					{ID: to.Ptr(spec.NetworkInterfaceID)},
				},
			},
		},
	}
}

func (vm *VirtualMachine) CreateOrUpdate(ctx context.Context, spec prov.VirtualMachineSpec) (string, error) {
	if spec.NetworkInterfaceID == "" {
		return "", fmt.Errorf("network interface ID is required")
	}

	params := buildVirtualMachineParams(spec)

	poller, err := vm.Client.VirtualMachinesClient.BeginCreateOrUpdate(ctx, spec.ResourceGroup, spec.Name, params, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start VirtualMachine creation: %w", err)
	}

	result, err := poller.PollUntilDone(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get VirtualMachine create result: %w", err)
	}

	return resultID(result.ID, "VirtualMachine")
}

func (vm *VirtualMachine) Delete(ctx context.Context, armID string) error {
	parts, err := resourceIDParts(armID, "resourcegroups", "virtualmachines")
	if err != nil {
		return err
	}

	poller, err := vm.Client.VirtualMachinesClient.BeginDelete(ctx, parts[0], parts[1], nil)
	return awaitDelete(ctx, poller, err, "VirtualMachine")
}
