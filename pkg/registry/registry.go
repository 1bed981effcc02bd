// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package registry

import (
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/client"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/config"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/prov"
)

// DeleterFactory is a function that creates a Deleter bound to a client.
type DeleterFactory func(client *client.Client, cfg *config.Config) prov.Deleter

// registry stores deleter factories for each resource kind. Entries are added
// by init functions in pkg/resources.
var registry = make(map[prov.Kind]DeleterFactory)

// Register registers a deleter factory for a resource kind.
func Register(kind prov.Kind, factory DeleterFactory) {
	registry[kind] = factory
}

// Get returns a Deleter for the given kind, or nil when none is registered.
func Get(kind prov.Kind, client *client.Client, cfg *config.Config) prov.Deleter {
	factory, ok := registry[kind]
	if !ok {
		return nil
	}
	return factory(client, cfg)
}

// HasDeleter returns true if a deleter is registered for the given kind.
func HasDeleter(kind prov.Kind) bool {
	_, ok := registry[kind]
	return ok
}
