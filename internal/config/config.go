package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Default acquisition settings
const (
	// DefaultMaxRepoSizeBytes is the on-disk ceiling for a fetched tree.
	// Trees above 50 MiB are rejected before any analysis is attempted.
	DefaultMaxRepoSizeBytes = 50 * 1024 * 1024

	// DefaultCloneTimeoutSeconds bounds the shallow clone
	DefaultCloneTimeoutSeconds = 120

	// DefaultBranch is used when no branch is forced by flag or config
	DefaultBranch = "main"
)

// Default analysis settings
const (
	// DefaultInstallTimeoutSeconds bounds the best-effort dependency install
	DefaultInstallTimeoutSeconds = 180

	// DefaultLintTimeoutSeconds bounds a single lint invocation
	DefaultLintTimeoutSeconds = 120

	// DefaultAuditTimeoutSeconds bounds a single audit invocation
	DefaultAuditTimeoutSeconds = 60
)

// Default explanation settings
const (
	// DefaultExplanationModel is the chat model used for score commentary
	DefaultExplanationModel = "gpt-4o-mini"

	// DefaultExplanationTimeoutSeconds bounds the explanation call
	DefaultExplanationTimeoutSeconds = 30
)

// Config represents the main configuration structure
type Config struct {
	// Acquisition holds repository acquisition configuration
	Acquisition AcquisitionConfig `json:"acquisition" mapstructure:"acquisition" yaml:"acquisition"`

	// Analysis holds analyzer tool configuration
	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis" yaml:"analysis"`

	// Explanation holds LLM explanation configuration
	Explanation ExplanationConfig `json:"explanation" mapstructure:"explanation" yaml:"explanation"`

	// Output holds output formatting configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`

	// Performance holds concurrency configuration
	Performance PerformanceConfig `json:"performance" mapstructure:"performance" yaml:"performance"`
}

// AcquisitionConfig holds configuration for fetching repositories
type AcquisitionConfig struct {
	// WorkRoot is the directory under which workspaces are created.
	// Empty means the system temp directory.
	WorkRoot string `json:"workRoot" mapstructure:"work_root" yaml:"work_root"`

	// Branch is the branch to fetch; empty means the remote default
	Branch string `json:"branch" mapstructure:"branch" yaml:"branch"`

	// MaxRepoSizeBytes is the on-disk size ceiling for a fetched tree
	MaxRepoSizeBytes int64 `json:"maxRepoSizeBytes" mapstructure:"max_repo_size_bytes" yaml:"max_repo_size_bytes"`

	// CloneTimeoutSeconds bounds the shallow clone operation
	CloneTimeoutSeconds int `json:"cloneTimeoutSeconds" mapstructure:"clone_timeout_seconds" yaml:"clone_timeout_seconds"`

	// GitBinary is the git executable to invoke
	GitBinary string `json:"gitBinary" mapstructure:"git_binary" yaml:"git_binary"`
}

// AnalysisConfig holds configuration for the analyzer tool invocations
type AnalysisConfig struct {
	// InstallDependencies controls the best-effort install before analysis
	InstallDependencies bool `json:"installDependencies" mapstructure:"install_dependencies" yaml:"install_dependencies"`

	// InstallTimeoutSeconds bounds the dependency install
	InstallTimeoutSeconds int `json:"installTimeoutSeconds" mapstructure:"install_timeout_seconds" yaml:"install_timeout_seconds"`

	// LintTimeoutSeconds bounds a lint invocation; exceeding it triggers
	// the lint penalty, not a pipeline failure
	LintTimeoutSeconds int `json:"lintTimeoutSeconds" mapstructure:"lint_timeout_seconds" yaml:"lint_timeout_seconds"`

	// AuditTimeoutSeconds bounds an audit invocation; exceeding it zeroes
	// the audit counts, not a pipeline failure
	AuditTimeoutSeconds int `json:"auditTimeoutSeconds" mapstructure:"audit_timeout_seconds" yaml:"audit_timeout_seconds"`

	// NpmBinary is the npm executable to invoke
	NpmBinary string `json:"npmBinary" mapstructure:"npm_binary" yaml:"npm_binary"`

	// NpxBinary is the npx executable used to run the lint tool
	NpxBinary string `json:"npxBinary" mapstructure:"npx_binary" yaml:"npx_binary"`
}

// ExplanationConfig holds configuration for the LLM explanation stage
type ExplanationConfig struct {
	// Enabled controls whether an explanation is requested at all
	Enabled bool `json:"enabled" mapstructure:"enabled" yaml:"enabled"`

	// Model is the chat-completion model name
	Model string `json:"model" mapstructure:"model" yaml:"model"`

	// BaseURL overrides the API endpoint (empty means the provider default)
	BaseURL string `json:"baseUrl" mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSeconds bounds the explanation call
	TimeoutSeconds int `json:"timeoutSeconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`

	// APIKey is injected at bootstrap from the environment, never from file
	APIKey string `json:"-" mapstructure:"-" yaml:"-"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// ShowDetails controls whether to show the per-analyzer breakdown
	ShowDetails bool `json:"show_details" mapstructure:"show_details" yaml:"show_details"`
}

// PerformanceConfig holds concurrency configuration
type PerformanceConfig struct {
	// MaxGoroutines limits concurrent analyzer tasks
	MaxGoroutines int `json:"maxGoroutines" mapstructure:"max_goroutines" yaml:"max_goroutines"`

	// TimeoutSeconds is the overall bound for the analysis join
	TimeoutSeconds int `json:"timeoutSeconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Acquisition: AcquisitionConfig{
			WorkRoot:            "",
			Branch:              "",
			MaxRepoSizeBytes:    DefaultMaxRepoSizeBytes,
			CloneTimeoutSeconds: DefaultCloneTimeoutSeconds,
			GitBinary:           "git",
		},
		Analysis: AnalysisConfig{
			InstallDependencies:   true,
			InstallTimeoutSeconds: DefaultInstallTimeoutSeconds,
			LintTimeoutSeconds:    DefaultLintTimeoutSeconds,
			AuditTimeoutSeconds:   DefaultAuditTimeoutSeconds,
			NpmBinary:             "npm",
			NpxBinary:             "npx",
		},
		Explanation: ExplanationConfig{
			Enabled:        true,
			Model:          DefaultExplanationModel,
			TimeoutSeconds: DefaultExplanationTimeoutSeconds,
		},
		Output: OutputConfig{
			Format:      "text",
			ShowDetails: false,
		},
		Performance: PerformanceConfig{
			MaxGoroutines: 2,
			TimeoutSeconds: DefaultLintTimeoutSeconds +
				DefaultAuditTimeoutSeconds,
		},
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Acquisition.MaxRepoSizeBytes <= 0 {
		return fmt.Errorf("max_repo_size_bytes must be greater than 0, got %d",
			c.Acquisition.MaxRepoSizeBytes)
	}

	if c.Acquisition.CloneTimeoutSeconds <= 0 {
		return fmt.Errorf("clone_timeout_seconds must be greater than 0, got %d",
			c.Acquisition.CloneTimeoutSeconds)
	}

	if c.Analysis.LintTimeoutSeconds <= 0 {
		return fmt.Errorf("lint_timeout_seconds must be greater than 0, got %d",
			c.Analysis.LintTimeoutSeconds)
	}

	if c.Analysis.AuditTimeoutSeconds <= 0 {
		return fmt.Errorf("audit_timeout_seconds must be greater than 0, got %d",
			c.Analysis.AuditTimeoutSeconds)
	}

	if c.Explanation.Enabled && c.Explanation.Model == "" {
		return fmt.Errorf("explanation.model must not be empty when explanation is enabled")
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
		"yaml": true,
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output format: %s (must be one of: text, json, yaml)",
			c.Output.Format)
	}

	return nil
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// LoadConfigWithTarget loads configuration with target path context.
// Orchestrates discovery and loading but delegates specific concerns.
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	if configPath == "" {
		configPath = findDefaultConfig(targetPath)
	}

	return loadConfigFromFile(configPath)
}

// loadConfigFromFile reads and parses a configuration file
func loadConfigFromFile(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	// Create a new viper instance to avoid race conditions
	v := viper.New()
	config := DefaultConfig()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// searchConfigInDirectory searches for configuration files in a specific directory
func searchConfigInDirectory(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findDefaultConfig looks for default configuration files in common locations.
// targetPath, when set, is searched first, walking upward to the filesystem root.
func findDefaultConfig(targetPath string) string {
	candidates := []string{
		"ariscan.yaml",
		"ariscan.yml",
		".ariscan.toml",
		".ariscan.yml",
		"ariscan.json",
		".ariscan.json",
	}

	if targetPath != "" {
		absPath, err := filepath.Abs(targetPath)
		if err == nil {
			info, err := os.Stat(absPath)
			if err == nil && !info.IsDir() {
				absPath = filepath.Dir(absPath)
			}

			dir := absPath
			for {
				if found := searchConfigInDirectory(dir, candidates); found != "" {
					return found
				}
				parent := filepath.Dir(dir)
				if parent == dir {
					break
				}
				dir = parent
			}
		}
	}

	// Fall back to the current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return searchConfigInDirectory(cwd, candidates)
}
