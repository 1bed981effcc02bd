// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package prov

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/config"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/metrics"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/runid"
	"github.com/rs/zerolog"
)

// Provisioner runs the resource chain for one request at a time. It holds no
// per-request state, so a single instance serves concurrent requests.
type Provisioner struct {
	provider Provider
	cfg      *config.Config
	metrics  *metrics.Metrics
}

// New creates a Provisioner. m may be nil.
func New(provider Provider, cfg *config.Config, m *metrics.Metrics) *Provisioner {
	return &Provisioner{
		provider: provider,
		cfg:      cfg,
		metrics:  m,
	}
}

// Provision validates req and creates or updates resource group, virtual
// network, subnet, public IP, network interface and virtual machine, in that
// order. Each step blocks until Azure reports a terminal state and its ARM ID
// feeds the next step.
//
// The first failing step aborts the chain and is returned as a
// *ProvisioningError. Validation failures wrap ErrMissingParameter and return a
// nil Result; otherwise the Result is non-nil, even on error, and lists the
// resources touched so far.
func (p *Provisioner) Provision(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:  runid.New().String(),
		VMName: req.VMName,
	}

	log := zerolog.Ctx(ctx).With().
		Str("runId", result.RunID).
		Str("vmName", req.VMName).
		Str("resourceGroup", req.ResourceGroupName).
		Str("location", req.Location).
		Logger()
	ctx = log.WithContext(ctx)

	log.Info().Msg("Provisioning started")
	start := time.Now()

	if err := p.run(ctx, req, result); err != nil {
		log.Error().Err(err).Int("resourcesApplied", len(result.Resources)).Msg("Provisioning failed")
		if p.cfg.RollbackOnFailure {
			p.rollback(ctx, result.Resources)
		}
		return result, err
	}

	log.Info().Dur("elapsed", time.Since(start)).Msg("Provisioning completed")
	return result, nil
}

func (p *Provisioner) run(ctx context.Context, req Request, result *Result) error {
	names := DeriveNames(req.VMName)
	rg := req.ResourceGroupName

	// Only a resource group created by this run may be removed on rollback.
	rgOwned := true
	if p.cfg.RollbackOnFailure {
		exists, err := p.provider.ResourceGroupExists(ctx, rg)
		if err != nil {
			return &ProvisioningError{Kind: KindResourceGroup, Name: rg, Err: err}
		}
		rgOwned = !exists
	}

	if _, err := p.step(ctx, result, KindResourceGroup, rg, rgOwned, func(ctx context.Context) (string, error) {
		return p.provider.CreateResourceGroup(ctx, ResourceGroupSpec{
			Name:     rg,
			Location: req.Location,
		})
	}); err != nil {
		return err
	}

	if _, err := p.step(ctx, result, KindVirtualNetwork, names.VirtualNetwork, true, func(ctx context.Context) (string, error) {
		return p.provider.CreateVirtualNetwork(ctx, VirtualNetworkSpec{
			ResourceGroup:   rg,
			Name:            names.VirtualNetwork,
			Location:        req.Location,
			AddressPrefixes: []string{VirtualNetworkAddressSpace},
		})
	}); err != nil {
		return err
	}

	subnetID, err := p.step(ctx, result, KindSubnet, names.Subnet, true, func(ctx context.Context) (string, error) {
		return p.provider.CreateSubnet(ctx, SubnetSpec{
			ResourceGroup:  rg,
			VirtualNetwork: names.VirtualNetwork,
			Name:           names.Subnet,
			AddressPrefix:  SubnetAddressPrefix,
		})
	})
	if err != nil {
		return err
	}

	publicIPID, err := p.step(ctx, result, KindPublicIPAddress, names.PublicIPAddress, true, func(ctx context.Context) (string, error) {
		return p.provider.CreatePublicIPAddress(ctx, PublicIPAddressSpec{
			ResourceGroup: rg,
			Name:          names.PublicIPAddress,
			Location:      req.Location,
		})
	})
	if err != nil {
		return err
	}

	nicID, err := p.step(ctx, result, KindNetworkInterface, names.NetworkInterface, true, func(ctx context.Context) (string, error) {
		return p.provider.CreateNetworkInterface(ctx, NetworkInterfaceSpec{
			ResourceGroup:       rg,
			Name:                names.NetworkInterface,
			Location:            req.Location,
			IPConfigurationName: names.IPConfiguration,
			SubnetID:            subnetID,
			PublicIPAddressID:   publicIPID,
		})
	})
	if err != nil {
		return err
	}

	_, err = p.step(ctx, result, KindVirtualMachine, req.VMName, true, func(ctx context.Context) (string, error) {
		return p.provider.CreateVirtualMachine(ctx, VirtualMachineSpec{
			ResourceGroup:      rg,
			Name:               req.VMName,
			Location:           req.Location,
			ComputerName:       req.VMName,
			NetworkInterfaceID: nicID,
			Profile:            p.cfg.VM,
			DeleteOSDiskWithVM: p.cfg.RollbackOnFailure,
		})
	})
	return err
}

// step runs one create-or-update and records the resource in the result.
func (p *Provisioner) step(ctx context.Context, result *Result, kind Kind, name string, owned bool, create func(context.Context) (string, error)) (string, error) {
	log := zerolog.Ctx(ctx).With().Str("kind", kind.String()).Str("name", name).Logger()
	log.Debug().Msgf("Creating %s", kind.Label())

	start := time.Now()
	id, err := p.withRetry(log.WithContext(ctx), kind, create)
	if err != nil {
		p.metrics.ObserveStep(kind.String(), metrics.OutcomeFailure, time.Since(start))
		return "", &ProvisioningError{Kind: kind, Name: name, Err: err}
	}
	p.metrics.ObserveStep(kind.String(), metrics.OutcomeSuccess, time.Since(start))

	result.Resources = append(result.Resources, Resource{
		Kind:  kind,
		Name:  name,
		ID:    id,
		Owned: owned,
	})
	log.Info().Str("id", id).Dur("elapsed", time.Since(start)).Msgf("Created %s", kind.Label())
	return id, nil
}

// withRetry attempts op once, or up to Retry.MaxAttempts times with exponential
// backoff when the error is transient.
func (p *Provisioner) withRetry(ctx context.Context, kind Kind, op func(context.Context) (string, error)) (string, error) {
	policy := p.cfg.Retry
	if policy.MaxAttempts <= 1 {
		return op(ctx)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval

	return backoff.Retry(ctx, func() (string, error) {
		id, err := op(ctx)
		if err != nil && !ClassifyError(err).Transient() {
			return "", backoff.Permanent(err)
		}
		return id, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(policy.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			p.metrics.ObserveRetry(kind.String())
			zerolog.Ctx(ctx).Warn().Err(err).Dur("retryIn", next).Msg("Transient error, retrying")
		}),
	)
}

// rollback deletes owned resources in reverse creation order. Failures are
// logged and skipped.
func (p *Provisioner) rollback(ctx context.Context, resources []Resource) {
	ctx = context.WithoutCancel(ctx)
	log := zerolog.Ctx(ctx)
	log.Warn().Int("resources", len(resources)).Msg("Rolling back")

	for i := len(resources) - 1; i >= 0; i-- {
		r := resources[i]
		if !r.Owned {
			log.Info().Str("kind", r.Kind.String()).Str("id", r.ID).Msg("Keeping pre-existing resource")
			continue
		}
		if err := p.provider.Delete(ctx, r.Kind, r.ID); err != nil {
			p.metrics.ObserveRollback(r.Kind.String(), metrics.OutcomeFailure)
			log.Error().Err(err).Str("kind", r.Kind.String()).Str("id", r.ID).Msg("Rollback delete failed")
			continue
		}
		p.metrics.ObserveRollback(r.Kind.String(), metrics.OutcomeSuccess)
		log.Info().Str("kind", r.Kind.String()).Str("id", r.ID).Msgf("Deleted %s", r.Kind.Label())
	}
}
