// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"

	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/client"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/config"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/prov"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/registry"
)

// Azure is the prov.Provider backed by Azure Resource Manager.
type Azure struct {
	client *client.Client
	config *config.Config
}

var _ prov.Provider = (*Azure)(nil)

func NewAzure(client *client.Client, cfg *config.Config) *Azure {
	return &Azure{client: client, config: cfg}
}

func (a *Azure) ResourceGroupExists(ctx context.Context, name string) (bool, error) {
	return (&ResourceGroup{a.client, a.config}).Exists(ctx, name)
}

func (a *Azure) CreateResourceGroup(ctx context.Context, spec prov.ResourceGroupSpec) (string, error) {
	return (&ResourceGroup{a.client, a.config}).CreateOrUpdate(ctx, spec)
}

func (a *Azure) CreateVirtualNetwork(ctx context.Context, spec prov.VirtualNetworkSpec) (string, error) {
	return (&VirtualNetwork{a.client, a.config}).CreateOrUpdate(ctx, spec)
}

func (a *Azure) CreateSubnet(ctx context.Context, spec prov.SubnetSpec) (string, error) {
	return (&Subnet{a.client, a.config}).CreateOrUpdate(ctx, spec)
}

func (a *Azure) CreatePublicIPAddress(ctx context.Context, spec prov.PublicIPAddressSpec) (string, error) {
	return (&PublicIPAddress{a.client, a.config}).CreateOrUpdate(ctx, spec)
}

func (a *Azure) CreateNetworkInterface(ctx context.Context, spec prov.NetworkInterfaceSpec) (string, error) {
	return (&NetworkInterface{a.client, a.config}).CreateOrUpdate(ctx, spec)
}

func (a *Azure) CreateVirtualMachine(ctx context.Context, spec prov.VirtualMachineSpec) (string, error) {
	return (&VirtualMachine{a.client, a.config}).CreateOrUpdate(ctx, spec)
}

// Delete looks up the deleter registered for kind and removes armID with it.
func (a *Azure) Delete(ctx context.Context, kind prov.Kind, armID string) error {
	deleter := registry.Get(kind, a.client, a.config)
	if deleter == nil {
		return fmt.Errorf("no deleter registered for resource type %s", kind)
	}
	return deleter.Delete(ctx, armID)
}
