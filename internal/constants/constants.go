package constants

// Tool name and related constants
const (
	// ToolName is the name of this tool
	ToolName = "ariscan"

	// ConfigFileName is the default config file name
	ConfigFileName = "ariscan.yaml"

	// EnvVarPrefix is the prefix for environment variables
	EnvVarPrefix = "ARISCAN"
)

// Pipeline stage constants
const (
	StageAcquire  = "acquire"
	StageValidate = "validate"
	StageAnalyze  = "analyze"
	StageScore    = "score"
	StageExplain  = "explain"
)

// Output format constants
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
)

// Acquisition defaults
const (
	// DefaultMaxRepoSizeBytes is the on-disk ceiling for a fetched tree (50 MiB)
	DefaultMaxRepoSizeBytes = 50 * 1024 * 1024

	// DefaultBranch is used when the caller does not force a branch
	DefaultBranch = "main"

	// ManifestFileName is the dependency manifest validated before analysis
	ManifestFileName = "package.json"
)

// Lint penalty applied when the lint tool cannot complete. Absence of
// lintable signal biases the score toward risk, not toward a clean result.
const (
	LintPenaltyErrors   = 20
	LintPenaltyWarnings = 50
)
