// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package runid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsUniqueAndParses(t *testing.T) {
	a := New()
	b := New()
	assert.NotEqual(t, a, b)

	parsed, err := Parse(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)
}

func TestTime(t *testing.T) {
	before := time.Now().Add(-2 * time.Second)
	id := New()
	assert.True(t, id.Time().After(before))
	assert.True(t, RunID("garbage").Time().IsZero())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("2J7Q3LVbJUm0Wq3S3bpsYhTzCfK")
	assert.ErrorContains(t, err, "missing")

	_, err = Parse("vmprov:not-a-ksuid")
	assert.Error(t, err)
}
