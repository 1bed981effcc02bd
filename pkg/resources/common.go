// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/platform-engineering-labs/azure-vm-provisioner/pkg/prov"
)

// splitResourceID splits an Azure resource ID into its component parts.
// Example: /subscriptions/xxx/resourceGroups/yyy returns map["subscriptions"]="xxx", map["resourcegroups"]="yyy"
// For nested resources: /subscriptions/xxx/resourceGroups/yyy/providers/Microsoft.Network/virtualNetworks/zzz
// returns map["subscriptions"]="xxx", map["resourcegroups"]="yyy", map["virtualnetworks"]="zzz"
// Note: Keys are lowercased for case-insensitive matching since Azure returns inconsistent casing.
func splitResourceID(resourceID string) map[string]string {
	parts := make(map[string]string)

	segments := []string{}
	for _, seg := range strings.Split(resourceID, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}

	for i := 0; i < len(segments)-1; i += 2 {
		parts[strings.ToLower(segments[i])] = segments[i+1]
	}

	return parts
}

// resourceIDParts extracts the named segments from an ARM ID, failing on the
// first one that is missing.
func resourceIDParts(resourceID string, keys ...string) ([]string, error) {
	parts := splitResourceID(resourceID)
	values := make([]string, 0, len(keys))
	for _, key := range keys {
		v, ok := parts[key]
		if !ok || v == "" {
			return nil, fmt.Errorf("invalid resource ID: could not extract %s from %s", key, resourceID)
		}
		values = append(values, v)
	}
	return values, nil
}

// isDeleteSuccessError returns true if the error indicates the resource is already deleted.
// For delete operations, NotFound means the goal is achieved (resource doesn't exist).
func isDeleteSuccessError(err error) bool {
	if err == nil {
		return false
	}
	return prov.ClassifyError(err) == prov.ErrorCodeNotFound
}

// awaitDelete drives a delete poller to completion, treating NotFound at any
// stage as success.
func awaitDelete[T any](ctx context.Context, poller *runtime.Poller[T], startErr error, what string) error {
	if startErr != nil {
		if isDeleteSuccessError(startErr) {
			return nil
		}
		return fmt.Errorf("failed to start %s deletion: %w", what, startErr)
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		if isDeleteSuccessError(err) {
			return nil
		}
		return fmt.Errorf("failed to delete %s: %w", what, err)
	}
	return nil
}

// resultID dereferences the ID of a create-or-update result.
func resultID(id *string, what string) (string, error) {
	if id == nil || *id == "" {
		return "", fmt.Errorf("%s create returned no resource ID", what)
	}
	return *id, nil
}
