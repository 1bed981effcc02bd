// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package prov

import (
	"context"

	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/config"
)

// Kind identifies one link of the provisioning chain.
type Kind string

const (
	KindResourceGroup    Kind = "Azure::Resources::ResourceGroup"
	KindVirtualNetwork   Kind = "Azure::Network::VirtualNetwork"
	KindSubnet           Kind = "Azure::Network::Subnet"
	KindPublicIPAddress  Kind = "Azure::Network::PublicIPAddress"
	KindNetworkInterface Kind = "Azure::Network::NetworkInterface"
	KindVirtualMachine   Kind = "Azure::Compute::VirtualMachine"
)

// Chain is the creation order. Rollback walks it backwards.
var Chain = []Kind{
	KindResourceGroup,
	KindVirtualNetwork,
	KindSubnet,
	KindPublicIPAddress,
	KindNetworkInterface,
	KindVirtualMachine,
}

var kindLabels = map[Kind]string{
	KindResourceGroup:    "resource group",
	KindVirtualNetwork:   "virtual network",
	KindSubnet:           "subnet",
	KindPublicIPAddress:  "public IP address",
	KindNetworkInterface: "network interface",
	KindVirtualMachine:   "virtual machine",
}

// Label is the human readable name used in log lines and error messages.
func (k Kind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return string(k)
}

func (k Kind) String() string {
	return string(k)
}

// Network layout of every provisioned VM.
const (
	VirtualNetworkAddressSpace = "10.0.0.0/16"
	SubnetAddressPrefix        = "10.0.0.0/24"
)

type ResourceGroupSpec struct {
	Name     string
	Location string
}

type VirtualNetworkSpec struct {
	ResourceGroup   string
	Name            string
	Location        string
	AddressPrefixes []string
}

type SubnetSpec struct {
	ResourceGroup  string
	VirtualNetwork string
	Name           string
	AddressPrefix  string
}

// PublicIPAddressSpec always requests dynamic allocation.
type PublicIPAddressSpec struct {
	ResourceGroup string
	Name          string
	Location      string
}

// NetworkInterfaceSpec binds a single IP configuration to the subnet and public
// IP created earlier in the chain.
type NetworkInterfaceSpec struct {
	ResourceGroup       string
	Name                string
	Location            string
	IPConfigurationName string
	SubnetID            string
	PublicIPAddressID   string
}

type VirtualMachineSpec struct {
	ResourceGroup      string
	Name               string
	Location           string
	ComputerName       string
	NetworkInterfaceID string
	Profile            config.VMProfile
	// DeleteOSDiskWithVM makes the OS disk follow the VM on deletion.
	DeleteOSDiskWithVM bool
}

// Provider is the cloud side of the chain. Every Create call is an idempotent
// create-or-update that blocks until the long-running operation is terminal and
// returns the resource's ARM ID.
type Provider interface {
	ResourceGroupExists(ctx context.Context, name string) (bool, error)
	CreateResourceGroup(ctx context.Context, spec ResourceGroupSpec) (string, error)
	CreateVirtualNetwork(ctx context.Context, spec VirtualNetworkSpec) (string, error)
	CreateSubnet(ctx context.Context, spec SubnetSpec) (string, error)
	CreatePublicIPAddress(ctx context.Context, spec PublicIPAddressSpec) (string, error)
	CreateNetworkInterface(ctx context.Context, spec NetworkInterfaceSpec) (string, error)
	CreateVirtualMachine(ctx context.Context, spec VirtualMachineSpec) (string, error)
	// Delete removes the resource with the given ARM ID. A resource that is
	// already gone is not an error.
	Delete(ctx context.Context, kind Kind, armID string) error
}

// Deleter removes a single resource by ARM ID.
type Deleter interface {
	Delete(ctx context.Context, armID string) error
}
