// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package runid

import (
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/ksuid"
)

const prefix = "vmprov:"

// RunID identifies one provisioning invocation.
// Format: vmprov:{ksuid}
//
// ARM IDs of the provisioned resources are derived from the request and repeat
// across invocations with the same parameters. The run ID is unique per
// invocation and sorts by creation time, so log lines and response headers of
// repeated requests for the same VM can be told apart.
type RunID string

// New returns a fresh RunID.
func New() RunID {
	return RunID(prefix + ksuid.New().String())
}

// Parse validates s and returns it as a RunID.
func Parse(s string) (RunID, error) {
	if !strings.HasPrefix(s, prefix) {
		return "", fmt.Errorf("invalid run id %q: missing %q prefix", s, prefix)
	}
	if _, err := ksuid.Parse(strings.TrimPrefix(s, prefix)); err != nil {
		return "", fmt.Errorf("invalid run id %q: %w", s, err)
	}
	return RunID(s), nil
}

// Time returns when the run started. Zero for malformed IDs.
func (r RunID) Time() time.Time {
	id, err := ksuid.Parse(strings.TrimPrefix(string(r), prefix))
	if err != nil {
		return time.Time{}
	}
	return id.Time()
}

// String returns the encoded RunID string.
func (r RunID) String() string {
	return string(r)
}
