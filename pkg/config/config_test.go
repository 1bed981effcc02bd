// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("AZURE_SUBSCRIPTION_ID", "sub-123")
	t.Setenv("VMPROV_ADMIN_PASSWORD", "s3cret!")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sub-123", cfg.SubscriptionId)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "Standard_DS1_v2", cfg.VM.Size)
	assert.Equal(t, "Canonical", cfg.VM.ImagePublisher)
	assert.Equal(t, "UbuntuServer", cfg.VM.ImageOffer)
	assert.Equal(t, "18.04-LTS", cfg.VM.ImageSKU)
	assert.Equal(t, "latest", cfg.VM.ImageVersion)
	assert.Equal(t, "azureuser", cfg.VM.AdminUsername)
	assert.False(t, cfg.RollbackOnFailure)
	assert.Equal(t, 1, cfg.Retry.MaxAttempts)
	assert.Equal(t, int32(0), cfg.SDKMaxRetries)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("AZURE_SUBSCRIPTION_ID", "sub-123")
	t.Setenv("VMPROV_ADMIN_PASSWORD", "s3cret!")
	t.Setenv("FUNCTIONS_CUSTOMHANDLER_PORT", "7071")
	t.Setenv("VMPROV_VM_SIZE", "Standard_B1s")
	t.Setenv("VMPROV_IMAGE_SKU", "22_04-lts")
	t.Setenv("VMPROV_ROLLBACK_ON_FAILURE", "true")
	t.Setenv("VMPROV_RETRY_MAX_ATTEMPTS", "4")
	t.Setenv("VMPROV_RETRY_INITIAL_INTERVAL", "250ms")
	t.Setenv("VMPROV_SDK_MAX_RETRIES", "-1")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":7071", cfg.ListenAddr)
	assert.Equal(t, "Standard_B1s", cfg.VM.Size)
	assert.Equal(t, "22_04-lts", cfg.VM.ImageSKU)
	assert.True(t, cfg.RollbackOnFailure)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.InitialInterval)
	assert.Equal(t, int32(-1), cfg.SDKMaxRetries)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"VMPROV_ROLLBACK_ON_FAILURE":    "maybe",
		"VMPROV_RETRY_MAX_ATTEMPTS":     "three",
		"VMPROV_RETRY_INITIAL_INTERVAL": "soon",
		"VMPROV_SDK_MAX_RETRIES":        "x",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.ErrorContains(t, cfg.Validate(), "AZURE_SUBSCRIPTION_ID")

	cfg.SubscriptionId = "sub"
	assert.ErrorContains(t, cfg.Validate(), "VMPROV_ADMIN_PASSWORD")

	cfg.VM.AdminPassword = "pw"
	assert.NoError(t, cfg.Validate())

	cfg.Retry.MaxAttempts = 0
	assert.ErrorContains(t, cfg.Validate(), "VMPROV_RETRY_MAX_ATTEMPTS")

	endpointOnly := Default()
	endpointOnly.EndpointURL = "http://127.0.0.1:4566"
	endpointOnly.VM.AdminPassword = "pw"
	assert.ErrorContains(t, endpointOnly.Validate(), "AZURE_SUBSCRIPTION_ID")
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("VMPROV_TEST_ONLY_SIZE=Standard_D2s_v3\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("VMPROV_TEST_ONLY_SIZE") })

	_, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Standard_D2s_v3", os.Getenv("VMPROV_TEST_ONLY_SIZE"))
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestARMClientOptions_EndpointOverride(t *testing.T) {
	cfg := Default()
	cfg.EndpointURL = "http://127.0.0.1:9999"
	cfg.SDKMaxRetries = -1

	opts := cfg.ARMClientOptions()
	assert.True(t, opts.InsecureAllowCredentialWithHTTP)
	assert.True(t, opts.DisableRPRegistration)
	assert.Equal(t, int32(-1), opts.Retry.MaxRetries)
	assert.Equal(t, "http://127.0.0.1:9999", opts.Cloud.Services[cloud.ResourceManager].Endpoint)

	cred, err := cfg.ToAzureCredential(context.Background())
	require.NoError(t, err)
	token, err := cred.GetToken(context.Background(), policy.TokenRequestOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)
}

func TestARMClientOptions_PublicCloud(t *testing.T) {
	opts := Default().ARMClientOptions()
	assert.False(t, opts.InsecureAllowCredentialWithHTTP)
	assert.Empty(t, opts.Cloud.Services)
}
