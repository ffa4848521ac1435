package azure

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"gopkg.in/ini.v1"
)

const DefaultProfile = "default"

type Config struct {
	SubscriptionIDs []string
	TenantID        string
	Credentials     azcore.TokenCredential
}

// LoadConfig reads the subscription list for a profile from ~/.azure/config
// and builds a credential chain for it. The `subscription` key may hold a
// comma-separated list.
func LoadConfig(profile string) (*Config, error) {
	if profile == "" {
		profile = DefaultProfile
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("unable to get home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".azure", "config")
	cfg, err := ini.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to load Azure config file: %w", err)
	}

	section, err := cfg.GetSection(profile)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found in Azure config: %w", profile, err)
	}

	config := &Config{
		TenantID: section.Key("tenant").String(),
	}
	for _, id := range strings.Split(section.Key("subscription").String(), ",") {
		if id = strings.TrimSpace(id); id != "" {
			config.SubscriptionIDs = append(config.SubscriptionIDs, id)
		}
	}

	credentials, err := NewCredential()
	if err != nil {
		return nil, err
	}
	config.Credentials = credentials
	return config, nil
}

// NewCredential builds the default Azure credential chain (environment,
// managed identity, Azure CLI).
func NewCredential() (azcore.TokenCredential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	return cred, nil
}
