package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Settings struct {
	Addr         string `mapstructure:"addr"`
	ArtifactPath string `mapstructure:"artifact_path"`
}

// LoadSettings loads web server settings from the given file; an empty path
// yields the defaults.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("artifact_path", "vm_cost_report.json")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return &settings, nil
}
