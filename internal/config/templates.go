package config

import "fmt"

// Strictness represents how tight the tool time budgets are
type Strictness string

const (
	// StrictnessStandard uses the balanced default budgets
	StrictnessStandard Strictness = "standard"

	// StrictnessRelaxed doubles the tool budgets for slow environments
	StrictnessRelaxed Strictness = "relaxed"

	// StrictnessStrict halves the tool budgets for CI enforcement
	StrictnessStrict Strictness = "strict"
)

// budgetsFor returns (clone, install, lint, audit) timeouts in seconds
func budgetsFor(strictness Strictness) (int, int, int, int) {
	switch strictness {
	case StrictnessRelaxed:
		return DefaultCloneTimeoutSeconds * 2, DefaultInstallTimeoutSeconds * 2,
			DefaultLintTimeoutSeconds * 2, DefaultAuditTimeoutSeconds * 2
	case StrictnessStrict:
		return DefaultCloneTimeoutSeconds / 2, DefaultInstallTimeoutSeconds / 2,
			DefaultLintTimeoutSeconds / 2, DefaultAuditTimeoutSeconds / 2
	default:
		return DefaultCloneTimeoutSeconds, DefaultInstallTimeoutSeconds,
			DefaultLintTimeoutSeconds, DefaultAuditTimeoutSeconds
	}
}

// GetMinimalConfigTemplate returns a small config with essential options only
func GetMinimalConfigTemplate() string {
	return fmt.Sprintf(`# ariscan configuration
acquisition:
  max_repo_size_bytes: %d
  clone_timeout_seconds: %d

analysis:
  install_dependencies: true
  lint_timeout_seconds: %d
  audit_timeout_seconds: %d

explanation:
  enabled: true
  model: %s

output:
  format: text
`, DefaultMaxRepoSizeBytes, DefaultCloneTimeoutSeconds,
		DefaultLintTimeoutSeconds, DefaultAuditTimeoutSeconds,
		DefaultExplanationModel)
}

// GetFullConfigTemplate returns a fully documented config file
func GetFullConfigTemplate(strictness Strictness, explanationEnabled bool) string {
	clone, install, lint, audit := budgetsFor(strictness)

	return fmt.Sprintf(`# ariscan configuration
# Generated with strictness: %s

acquisition:
  # Directory under which per-run workspaces are created.
  # Empty means the system temp directory.
  work_root: ""

  # Branch to fetch. Empty means the remote default branch.
  branch: ""

  # On-disk size ceiling for a fetched tree. Repositories above this
  # are rejected before any analysis runs.
  max_repo_size_bytes: %d

  # Time budget for the shallow clone.
  clone_timeout_seconds: %d

  # Git executable to invoke.
  git_binary: git

analysis:
  # Install declared dependencies before the audit. Best-effort: an
  # install failure is logged and analysis proceeds.
  install_dependencies: true
  install_timeout_seconds: %d

  # Per-tool time budgets. Exceeding a budget counts as that tool's
  # failure case and triggers its degradation policy.
  lint_timeout_seconds: %d
  audit_timeout_seconds: %d

  # Tool executables.
  npm_binary: npm
  npx_binary: npx

explanation:
  # Ask a language model to explain the score. The explanation never
  # changes the score and its absence is never an error.
  enabled: %t
  model: %s

  # Override the API endpoint. Empty means the provider default.
  base_url: ""
  timeout_seconds: %d

output:
  # Output format: text, json, yaml
  format: text

  # Show the per-analyzer breakdown in text output.
  show_details: false

performance:
  # Concurrent analyzer tasks during the analysis stage.
  max_goroutines: 2

  # Overall bound for the analysis join.
  timeout_seconds: %d
`, strictness, DefaultMaxRepoSizeBytes, clone, install, lint, audit,
		explanationEnabled, DefaultExplanationModel,
		DefaultExplanationTimeoutSeconds, lint+audit)
}
