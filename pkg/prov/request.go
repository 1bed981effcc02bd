// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package prov

import (
	"fmt"
	"strings"
)

// Request is one provisioning invocation. It lives only for the duration of the
// HTTP call that carried it.
type Request struct {
	VMName            string
	ResourceGroupName string
	Location          string
}

// Validate returns an error wrapping ErrMissingParameter when any field is empty.
func (r Request) Validate() error {
	var missing []string
	if r.VMName == "" {
		missing = append(missing, "vm_name")
	}
	if r.ResourceGroupName == "" {
		missing = append(missing, "resource_group_name")
	}
	if r.Location == "" {
		missing = append(missing, "location")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingParameter, strings.Join(missing, ", "))
	}
	return nil
}

// Names are the resource names derived from a VM name.
type Names struct {
	VirtualNetwork   string
	Subnet           string
	PublicIPAddress  string
	NetworkInterface string
	IPConfiguration  string
}

// DeriveNames returns the fixed-suffix names of the resources backing vmName.
func DeriveNames(vmName string) Names {
	return Names{
		VirtualNetwork:   vmName + "-vnet",
		Subnet:           vmName + "-subnet",
		PublicIPAddress:  vmName + "-ip",
		NetworkInterface: vmName + "-nic",
		IPConfiguration:  vmName + "-ipconfig",
	}
}

// Resource is one ledger entry: a resource touched by a run.
type Resource struct {
	Kind Kind
	Name string
	ID   string
	// Owned is false for a resource group that existed before the run. Rollback
	// never deletes resources it does not own.
	Owned bool
}

// Result describes a run and the resources it touched.
type Result struct {
	RunID     string
	VMName    string
	Resources []Resource
}
