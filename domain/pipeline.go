package domain

import (
	"context"
	"io"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// RiskStatus represents the qualitative risk category derived from the ARI score
type RiskStatus string

const (
	// RiskStatusLow indicates a score of 80 or above
	RiskStatusLow RiskStatus = "low_risk"

	// RiskStatusModerate indicates a score in [60, 80)
	RiskStatusModerate RiskStatus = "moderate_risk"

	// RiskStatusHigh indicates a score below 60
	RiskStatusHigh RiskStatus = "high_risk"
)

// PipelineState represents a stage of the scan pipeline state machine
type PipelineState string

const (
	StateAcquiring  PipelineState = "acquiring"
	StateValidating PipelineState = "validating"
	StateAnalyzing  PipelineState = "analyzing"
	StateScoring    PipelineState = "scoring"
	StateExplaining PipelineState = "explaining"
	StateCleanup    PipelineState = "cleanup"
	StateDone       PipelineState = "done"
	StateRejected   PipelineState = "rejected"
)

// RepoRef identifies a remote repository and the branch to analyze
type RepoRef struct {
	// Owner is the account or organization that owns the repository
	Owner string `json:"owner"`

	// Name is the repository name
	Name string `json:"name"`

	// Branch is the branch to fetch; empty means the remote default branch
	Branch string `json:"branch,omitempty"`
}

// Slug returns the canonical "owner/name" form
func (r RepoRef) Slug() string {
	return r.Owner + "/" + r.Name
}

// LintOutcome is the tagged result of a lint run.
// Degraded outcomes carry the fixed penalty counts, never an error.
type LintOutcome struct {
	Errors   uint   `json:"errors"`
	Warnings uint   `json:"warnings"`
	Degraded bool   `json:"degraded"`
	Reason   string `json:"reason,omitempty"`
}

// AuditOutcome is the tagged result of a dependency vulnerability audit.
// Degraded outcomes carry zeroed counts, never an error.
type AuditOutcome struct {
	Critical uint   `json:"critical"`
	High     uint   `json:"high"`
	Degraded bool   `json:"degraded"`
	Reason   string `json:"reason,omitempty"`
}

// AnalysisMetrics is the merged output of both analyzers
type AnalysisMetrics struct {
	// LintErrors is the number of lint errors found
	LintErrors uint `json:"lint_errors" yaml:"lint_errors"`

	// LintWarnings is the number of lint warnings found
	LintWarnings uint `json:"lint_warnings" yaml:"lint_warnings"`

	// CriticalVulns is the number of critical-severity dependency vulnerabilities
	CriticalVulns uint `json:"critical_vulns" yaml:"critical_vulns"`

	// HighVulns is the number of high-severity dependency vulnerabilities
	HighVulns uint `json:"high_vulns" yaml:"high_vulns"`

	// LintFailed is true only when the lint runner could not complete
	// and the penalty counts were substituted
	LintFailed bool `json:"lint_failed" yaml:"lint_failed"`
}

// MergeOutcomes combines the two tagged analyzer results into AnalysisMetrics.
// Total over all inputs; degradation is carried in the counts themselves.
func MergeOutcomes(lint LintOutcome, audit AuditOutcome) AnalysisMetrics {
	return AnalysisMetrics{
		LintErrors:    lint.Errors,
		LintWarnings:  lint.Warnings,
		CriticalVulns: audit.Critical,
		HighVulns:     audit.High,
		LintFailed:    lint.Degraded,
	}
}

// ScoreResult is the immutable output of the scoring engine
type ScoreResult struct {
	// ARIScore is the Application Readiness Index in [0, 100]
	ARIScore int `json:"ari_score" yaml:"ari_score"`

	// Status is the qualitative risk category
	Status RiskStatus `json:"status" yaml:"status"`

	// Metrics are the analyzer metrics the score was derived from
	Metrics AnalysisMetrics `json:"metrics" yaml:"metrics"`
}

// Explanation is the structured LLM commentary on a score.
// A nil *Explanation means "unavailable" and carries no error semantics.
type Explanation struct {
	Summary                string   `json:"summary" yaml:"summary"`
	TopRisks               []string `json:"top_risks" yaml:"top_risks"`
	WhyScoreIsLowOrHigh    []string `json:"why_score_is_low_or_high" yaml:"why_score_is_low_or_high"`
	ImprovementSuggestions []string `json:"improvement_suggestions" yaml:"improvement_suggestions"`
}

// ExplanationContext carries repository facts the model may reference
// beyond the raw metrics
type ExplanationContext struct {
	// HasTests indicates the manifest declares a real test script
	HasTests bool `json:"has_tests"`

	// LintFailed indicates the lint counts are the substituted penalty
	LintFailed bool `json:"lint_failed"`
}

// PipelineResult is the terminal artifact of a scan run
type PipelineResult struct {
	// IsValid is false when the repository was rejected before scoring
	IsValid bool `json:"is_valid" yaml:"is_valid"`

	// Message is a human-readable outcome description
	Message string `json:"message" yaml:"message"`

	// ARIScore is present only on acceptance
	ARIScore *int `json:"ari_score,omitempty" yaml:"ari_score,omitempty"`

	// Status is present only on acceptance
	Status RiskStatus `json:"status,omitempty" yaml:"status,omitempty"`

	// Metrics are present only on acceptance
	Metrics *AnalysisMetrics `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Explanation is best-effort commentary; nil when unavailable
	Explanation *Explanation `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// ScanRequest represents a request to run the full pipeline
type ScanRequest struct {
	// Repo identifies the repository to analyze
	Repo RepoRef

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	ShowDetails  bool

	// SkipExplanation disables the LLM explanation stage
	SkipExplanation bool

	// ConfigPath is the configuration file used for this run
	ConfigPath string
}

// Workspace is the isolated filesystem area holding one fetched repository
// copy. Exactly one pipeline run owns a Workspace; Release destroys it.
type Workspace interface {
	// Path returns the root directory of the fetched tree
	Path() string

	// Size returns the measured on-disk size of the fetched tree in bytes
	Size() int64

	// Release destroys the workspace. Idempotent and safe to call even
	// when acquisition partially failed.
	Release()
}

// RepositoryFetcher acquires a repository into a fresh Workspace
type RepositoryFetcher interface {
	// Fetch produces a Workspace with a shallow copy of the repository.
	// The returned Workspace is non-nil whenever a directory may have been
	// created, so the caller can always schedule Release.
	Fetch(ctx context.Context, repo RepoRef) (Workspace, error)
}

// LintRunner produces lint counts for a workspace. Implementations never
// return an error; failures degrade to the penalty outcome.
type LintRunner interface {
	Run(ctx context.Context, ws Workspace) LintOutcome
}

// AuditRunner produces dependency vulnerability counts for a workspace.
// Implementations never return an error; failures degrade to zeroes.
type AuditRunner interface {
	Run(ctx context.Context, ws Workspace) AuditOutcome
}

// DependencyInstaller resolves a workspace's declared dependencies ahead of
// the audit. Best-effort: errors are reported for logging only.
type DependencyInstaller interface {
	Install(ctx context.Context, ws Workspace) error
}

// ExplanationService obtains LLM commentary on a score. A nil result with a
// nil error means the explanation is unavailable.
type ExplanationService interface {
	Explain(ctx context.Context, score ScoreResult, ec ExplanationContext) *Explanation
}

// ContentFetcher retrieves a single file from the hosting provider's
// raw-content API
type ContentFetcher interface {
	// FetchFile returns the file contents, or ErrFileAbsent when the file
	// does not exist on the given branch
	FetchFile(ctx context.Context, repo RepoRef, path string) ([]byte, error)
}

// ExecutableTask is a unit of analysis work run by the parallel executor
type ExecutableTask interface {
	// Name identifies the task in progress output and error reports
	Name() string

	// IsEnabled reports whether the task should run
	IsEnabled() bool

	// Execute runs the task
	Execute(ctx context.Context) error
}

// ParallelExecutor runs tasks concurrently and waits for all of them
type ParallelExecutor interface {
	Execute(ctx context.Context, tasks []ExecutableTask) error
}

// ProgressManager creates progress tasks for long-running operations
type ProgressManager interface {
	StartTask(description string, total int) TaskProgress
	IsInteractive() bool
	Close()
}

// TaskProgress tracks progress of a single task
type TaskProgress interface {
	Increment(n int)
	Describe(description string)
	Complete()
}

// OutputFormatter renders a PipelineResult in a given format
type OutputFormatter interface {
	Write(result *PipelineResult, format OutputFormat, writer io.Writer) error
}
