package service

import (
	"github.com/ludo-technologies/ariscan/domain"
	"github.com/ludo-technologies/ariscan/internal/config"
)

// ConfigurationLoaderImpl loads file configuration and merges CLI overrides
// into scan requests
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadConfig loads configuration from the specified path
func (c *ConfigurationLoaderImpl) LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}
	return cfg, nil
}

// LoadDefaultConfig loads configuration discovered from the working
// directory, falling back to the hardcoded defaults
func (c *ConfigurationLoaderImpl) LoadDefaultConfig() *config.Config {
	cfg, err := config.LoadConfigWithTarget("", "")
	if err == nil {
		return cfg
	}
	return config.DefaultConfig()
}

// ToScanRequest builds a scan request from configuration
func (c *ConfigurationLoaderImpl) ToScanRequest(cfg *config.Config) *domain.ScanRequest {
	return &domain.ScanRequest{
		OutputFormat:    domain.OutputFormat(cfg.Output.Format),
		ShowDetails:     cfg.Output.ShowDetails,
		SkipExplanation: !cfg.Explanation.Enabled,
	}
}

// MergeRequest overlays CLI flag values onto a config-derived request.
// Paths and repository identity always come from the command arguments.
func (c *ConfigurationLoaderImpl) MergeRequest(base *domain.ScanRequest, override *domain.ScanRequest) *domain.ScanRequest {
	merged := *base

	if override.Repo.Owner != "" {
		merged.Repo = override.Repo
	}

	if override.OutputFormat != "" {
		merged.OutputFormat = override.OutputFormat
	}

	if override.OutputWriter != nil {
		merged.OutputWriter = override.OutputWriter
	}

	if override.ShowDetails {
		merged.ShowDetails = override.ShowDetails
	}

	if override.SkipExplanation {
		merged.SkipExplanation = override.SkipExplanation
	}

	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}

	return &merged
}
