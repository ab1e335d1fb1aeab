package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Acquisition.MaxRepoSizeBytes != DefaultMaxRepoSizeBytes {
		t.Errorf("Expected size ceiling %d, got %d",
			DefaultMaxRepoSizeBytes, cfg.Acquisition.MaxRepoSizeBytes)
	}
	if cfg.Acquisition.CloneTimeoutSeconds != DefaultCloneTimeoutSeconds {
		t.Errorf("Expected clone timeout %d, got %d",
			DefaultCloneTimeoutSeconds, cfg.Acquisition.CloneTimeoutSeconds)
	}
	if !cfg.Analysis.InstallDependencies {
		t.Error("Expected dependency install enabled by default")
	}
	if !cfg.Explanation.Enabled {
		t.Error("Expected explanation enabled by default")
	}
	if cfg.Explanation.Model != DefaultExplanationModel {
		t.Errorf("Expected model %s, got %s", DefaultExplanationModel, cfg.Explanation.Model)
	}
	if cfg.Explanation.APIKey != "" {
		t.Error("Default config must never carry an API key")
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Expected text format, got %s", cfg.Output.Format)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "zero size ceiling",
			modify:  func(c *Config) { c.Acquisition.MaxRepoSizeBytes = 0 },
			wantErr: true,
		},
		{
			name:    "negative clone timeout",
			modify:  func(c *Config) { c.Acquisition.CloneTimeoutSeconds = -1 },
			wantErr: true,
		},
		{
			name:    "zero lint timeout",
			modify:  func(c *Config) { c.Analysis.LintTimeoutSeconds = 0 },
			wantErr: true,
		},
		{
			name:    "zero audit timeout",
			modify:  func(c *Config) { c.Analysis.AuditTimeoutSeconds = 0 },
			wantErr: true,
		},
		{
			name:    "enabled explanation without model",
			modify:  func(c *Config) { c.Explanation.Model = "" },
			wantErr: true,
		},
		{
			name: "disabled explanation without model",
			modify: func(c *Config) {
				c.Explanation.Enabled = false
				c.Explanation.Model = ""
			},
			wantErr: false,
		},
		{
			name:    "invalid output format",
			modify:  func(c *Config) { c.Output.Format = "xml" },
			wantErr: true,
		},
		{
			name:    "yaml format",
			modify:  func(c *Config) { c.Output.Format = "yaml" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := loadConfigFromFile("")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.Acquisition.MaxRepoSizeBytes != DefaultMaxRepoSizeBytes {
			t.Errorf("Expected defaults, got %+v", cfg.Acquisition)
		}
	})

	t.Run("file values override defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "ariscan.yaml")
		content := `acquisition:
  max_repo_size_bytes: 1048576
  branch: develop
analysis:
  install_dependencies: false
  lint_timeout_seconds: 45
output:
  format: json
`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.Acquisition.MaxRepoSizeBytes != 1048576 {
			t.Errorf("Expected overridden size ceiling, got %d", cfg.Acquisition.MaxRepoSizeBytes)
		}
		if cfg.Acquisition.Branch != "develop" {
			t.Errorf("Expected branch develop, got %s", cfg.Acquisition.Branch)
		}
		if cfg.Analysis.InstallDependencies {
			t.Error("Expected install disabled by file")
		}
		if cfg.Analysis.LintTimeoutSeconds != 45 {
			t.Errorf("Expected lint timeout 45, got %d", cfg.Analysis.LintTimeoutSeconds)
		}
		// Untouched sections keep their defaults
		if cfg.Analysis.AuditTimeoutSeconds != DefaultAuditTimeoutSeconds {
			t.Errorf("Expected default audit timeout, got %d", cfg.Analysis.AuditTimeoutSeconds)
		}
		if cfg.Output.Format != "json" {
			t.Errorf("Expected json format, got %s", cfg.Output.Format)
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		if err == nil {
			t.Error("Expected error for missing config file")
		}
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "ariscan.yaml")
		content := "output:\n  format: csv\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		_, err := LoadConfig(path)
		if err == nil {
			t.Error("Expected validation error for bad format")
		}
	})
}

func TestFindDefaultConfig(t *testing.T) {
	t.Run("walks upward from target", func(t *testing.T) {
		root := t.TempDir()
		nested := filepath.Join(root, "a", "b")
		if err := os.MkdirAll(nested, 0o755); err != nil {
			t.Fatalf("Failed to create directories: %v", err)
		}
		configPath := filepath.Join(root, "ariscan.yaml")
		if err := os.WriteFile(configPath, []byte("output:\n  format: text\n"), 0o644); err != nil {
			t.Fatalf("Failed to write config: %v", err)
		}

		found := findDefaultConfig(nested)
		if found != configPath {
			t.Errorf("Expected %s, got %s", configPath, found)
		}
	})

	t.Run("prefers closer config", func(t *testing.T) {
		root := t.TempDir()
		nested := filepath.Join(root, "sub")
		if err := os.MkdirAll(nested, 0o755); err != nil {
			t.Fatalf("Failed to create directories: %v", err)
		}
		outer := filepath.Join(root, "ariscan.yaml")
		inner := filepath.Join(nested, ".ariscan.yml")
		for _, p := range []string{outer, inner} {
			if err := os.WriteFile(p, []byte("output:\n  format: text\n"), 0o644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}
		}

		found := findDefaultConfig(nested)
		if found != inner {
			t.Errorf("Expected nearest config %s, got %s", inner, found)
		}
	})
}

func TestConfigTemplates(t *testing.T) {
	minimal := GetMinimalConfigTemplate()
	if minimal == "" {
		t.Fatal("Minimal template should not be empty")
	}

	for _, strictness := range []Strictness{StrictnessRelaxed, StrictnessStandard, StrictnessStrict} {
		full := GetFullConfigTemplate(strictness, true)
		if full == "" {
			t.Fatalf("Full template for %s should not be empty", strictness)
		}
	}
}
