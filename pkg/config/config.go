// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/joho/godotenv"
)

const (
	DefaultPort                 = "8080"
	DefaultLogLevel             = "info"
	DefaultVMSize               = "Standard_DS1_v2"
	DefaultImagePublisher       = "Canonical"
	DefaultImageOffer           = "UbuntuServer"
	DefaultImageSKU             = "18.04-LTS"
	DefaultImageVersion         = "latest"
	DefaultAdminUsername        = "azureuser"
	DefaultRetryMaxAttempts     = 1
	DefaultRetryInitialInterval = 2 * time.Second
	DefaultRetryMaxInterval     = 30 * time.Second

	armAudience = "https://management.azure.com/"
)

// Config holds everything the function needs at construction time. Nothing is
// read from the environment after FromEnv returns.
type Config struct {
	SubscriptionId string

	// EndpointURL overrides the Resource Manager endpoint. When set, requests are
	// authenticated with a static token instead of the default credential chain.
	EndpointURL string

	ListenAddr string
	LogLevel   string

	VM VMProfile

	RollbackOnFailure bool
	Retry             RetryPolicy

	// SDKMaxRetries is passed to the azcore retry policy. Zero keeps the SDK
	// default, -1 disables pipeline retries.
	SDKMaxRetries int32
}

// VMProfile is the fixed shape of every virtual machine the function creates.
type VMProfile struct {
	Size           string
	ImagePublisher string
	ImageOffer     string
	ImageSKU       string
	ImageVersion   string
	AdminUsername  string
	AdminPassword  string
}

// RetryPolicy controls retries of individual provisioning steps. MaxAttempts of
// one means every step is attempted exactly once.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Default returns a Config populated with the built-in defaults. Subscription and
// admin password have no defaults.
func Default() *Config {
	return &Config{
		ListenAddr: ":" + DefaultPort,
		LogLevel:   DefaultLogLevel,
		VM: VMProfile{
			Size:           DefaultVMSize,
			ImagePublisher: DefaultImagePublisher,
			ImageOffer:     DefaultImageOffer,
			ImageSKU:       DefaultImageSKU,
			ImageVersion:   DefaultImageVersion,
			AdminUsername:  DefaultAdminUsername,
		},
		Retry: RetryPolicy{
			MaxAttempts:     DefaultRetryMaxAttempts,
			InitialInterval: DefaultRetryInitialInterval,
			MaxInterval:     DefaultRetryMaxInterval,
		},
	}
}

// Load reads an optional .env file and then builds the Config from the process
// environment. A missing .env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables on top of Default.
func FromEnv() (*Config, error) {
	cfg := Default()

	cfg.SubscriptionId = os.Getenv("AZURE_SUBSCRIPTION_ID")
	cfg.EndpointURL = os.Getenv("VMPROV_ENDPOINT_URL")

	if port := os.Getenv("FUNCTIONS_CUSTOMHANDLER_PORT"); port != "" {
		cfg.ListenAddr = ":" + port
	}
	cfg.LogLevel = envOrDefault("VMPROV_LOG_LEVEL", cfg.LogLevel)

	cfg.VM.Size = envOrDefault("VMPROV_VM_SIZE", cfg.VM.Size)
	cfg.VM.ImagePublisher = envOrDefault("VMPROV_IMAGE_PUBLISHER", cfg.VM.ImagePublisher)
	cfg.VM.ImageOffer = envOrDefault("VMPROV_IMAGE_OFFER", cfg.VM.ImageOffer)
	cfg.VM.ImageSKU = envOrDefault("VMPROV_IMAGE_SKU", cfg.VM.ImageSKU)
	cfg.VM.ImageVersion = envOrDefault("VMPROV_IMAGE_VERSION", cfg.VM.ImageVersion)
	cfg.VM.AdminUsername = envOrDefault("VMPROV_ADMIN_USERNAME", cfg.VM.AdminUsername)
	cfg.VM.AdminPassword = os.Getenv("VMPROV_ADMIN_PASSWORD")

	var err error
	if cfg.RollbackOnFailure, err = envBool("VMPROV_ROLLBACK_ON_FAILURE", false); err != nil {
		return nil, err
	}
	if cfg.Retry.MaxAttempts, err = envInt("VMPROV_RETRY_MAX_ATTEMPTS", cfg.Retry.MaxAttempts); err != nil {
		return nil, err
	}
	if cfg.Retry.InitialInterval, err = envDuration("VMPROV_RETRY_INITIAL_INTERVAL", cfg.Retry.InitialInterval); err != nil {
		return nil, err
	}
	if cfg.Retry.MaxInterval, err = envDuration("VMPROV_RETRY_MAX_INTERVAL", cfg.Retry.MaxInterval); err != nil {
		return nil, err
	}
	sdkRetries, err := envInt("VMPROV_SDK_MAX_RETRIES", 0)
	if err != nil {
		return nil, err
	}
	cfg.SDKMaxRetries = int32(sdkRetries)

	return cfg, nil
}

// Validate checks required configuration.
func (c *Config) Validate() error {
	if c.SubscriptionId == "" {
		return fmt.Errorf("AZURE_SUBSCRIPTION_ID is required")
	}
	if c.VM.AdminPassword == "" {
		return fmt.Errorf("VMPROV_ADMIN_PASSWORD is required")
	}
	if c.VM.Size == "" || c.VM.AdminUsername == "" {
		return fmt.Errorf("vm size and admin username must not be empty")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("VMPROV_RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

// ToAzureCredential creates Azure credentials using the default credential chain.
// This uses DefaultAzureCredential which tries multiple authentication methods:
// - Environment variables (AZURE_CLIENT_ID, AZURE_CLIENT_SECRET, AZURE_TENANT_ID)
// - Workload identity
// - Managed Identity
// - Azure CLI
//
// With an endpoint override a static token is returned instead.
func (c *Config) ToAzureCredential(ctx context.Context) (azcore.TokenCredential, error) {
	if c.EndpointURL != "" {
		return staticCredential{}, nil
	}
	return azidentity.NewDefaultAzureCredential(nil)
}

// ARMClientOptions returns the options shared by every Resource Manager client.
func (c *Config) ARMClientOptions() *arm.ClientOptions {
	opts := &arm.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries: c.SDKMaxRetries,
			},
		},
	}
	if c.EndpointURL != "" {
		opts.Cloud = cloud.Configuration{
			Services: map[cloud.ServiceName]cloud.ServiceConfiguration{
				cloud.ResourceManager: {
					Endpoint: c.EndpointURL,
					Audience: armAudience,
				},
			},
		}
		opts.InsecureAllowCredentialWithHTTP = true
		opts.DisableRPRegistration = true
	}
	return opts
}

type staticCredential struct{}

func (staticCredential) GetToken(_ context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "simulator-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
