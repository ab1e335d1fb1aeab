package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ludo-technologies/ariscan/domain"
	"github.com/ludo-technologies/ariscan/internal/constants"
)

// ScanUseCase orchestrates the acquisition-and-analysis pipeline:
// Acquiring → Validating → Analyzing → Scoring → Explaining → Cleanup,
// with Rejected reachable from Acquiring and Validating. Cleanup runs on
// every exit path via a deferred workspace release.
type ScanUseCase struct {
	fetcher   domain.RepositoryFetcher
	content   domain.ContentFetcher
	installer domain.DependencyInstaller
	lint      domain.LintRunner
	audit     domain.AuditRunner
	explainer domain.ExplanationService
	executor  domain.ParallelExecutor
	progress  domain.ProgressManager
}

// analyzerTask adapts an analyzer invocation to the executor's task interface
type analyzerTask struct {
	name string
	run  func(ctx context.Context)
}

func (t *analyzerTask) Name() string    { return t.name }
func (t *analyzerTask) IsEnabled() bool { return true }

func (t *analyzerTask) Execute(ctx context.Context) error {
	t.run(ctx)
	return nil
}

// Execute runs the full pipeline for one repository. It never returns an
// error: every run terminates in an accepted or rejected PipelineResult.
func (uc *ScanUseCase) Execute(ctx context.Context, req domain.ScanRequest) *domain.PipelineResult {
	progress := uc.stageProgress()
	defer progress.Complete()

	// Acquiring
	progress.Describe("Fetching " + req.Repo.Slug())
	uc.logState(domain.StateAcquiring, req.Repo)

	if rejected := uc.preflight(ctx, req.Repo); rejected != nil {
		return rejected
	}

	ws, err := uc.fetcher.Fetch(ctx, req.Repo)
	if ws != nil {
		// Cleanup is scheduled here so every later stage, including
		// faults, inherits it without re-declaring anything
		defer func() {
			uc.logState(domain.StateCleanup, req.Repo)
			ws.Release()
		}()
	}
	if err != nil {
		return uc.reject(req.Repo, err)
	}
	progress.Increment(1)

	// Validating
	progress.Describe("Validating manifest")
	uc.logState(domain.StateValidating, req.Repo)

	manifest, err := ReadManifest(ws.Path())
	if err != nil {
		return uc.reject(req.Repo, err)
	}
	progress.Increment(1)

	// Analyzing
	progress.Describe("Running analyzers")
	uc.logState(domain.StateAnalyzing, req.Repo)

	if uc.installer != nil {
		if err := uc.installer.Install(ctx, ws); err != nil {
			slog.Warn("dependency install failed, proceeding with partial resolution",
				"repo", req.Repo.Slug(), "error", err)
		}
	}

	var lintOutcome domain.LintOutcome
	var auditOutcome domain.AuditOutcome
	var lintRan, auditRan bool
	tasks := []domain.ExecutableTask{
		&analyzerTask{name: "lint", run: func(taskCtx context.Context) {
			lintOutcome = uc.lint.Run(taskCtx, ws)
			lintRan = true
		}},
		&analyzerTask{name: "audit", run: func(taskCtx context.Context) {
			auditOutcome = uc.audit.Run(taskCtx, ws)
			auditRan = true
		}},
	}
	// Analyzers absorb their own failures, so the join can only surface
	// cancellation or budget expiry; those are informational here
	if err := uc.executor.Execute(ctx, tasks); err != nil {
		slog.Warn("analyzer execution reported errors", "error", err)
	}
	// An analyzer that never ran gets its own degradation outcome: missing
	// lint signal reads as risk, a missing audit reads as zero counts
	if !lintRan {
		lintOutcome = domain.LintOutcome{
			Errors:   constants.LintPenaltyErrors,
			Warnings: constants.LintPenaltyWarnings,
			Degraded: true,
			Reason:   "lint never ran",
		}
	}
	if !auditRan {
		auditOutcome = domain.AuditOutcome{
			Degraded: true,
			Reason:   "audit never ran",
		}
	}
	progress.Increment(1)

	// Scoring
	uc.logState(domain.StateScoring, req.Repo)
	metrics := domain.MergeOutcomes(lintOutcome, auditOutcome)
	score := domain.Score(metrics)
	progress.Increment(1)

	// Explaining: advisory only, never affects acceptance or the score
	var explanation *domain.Explanation
	if !req.SkipExplanation && uc.explainer != nil {
		progress.Describe("Generating explanation")
		uc.logState(domain.StateExplaining, req.Repo)
		explanation = uc.explainer.Explain(ctx, score, domain.ExplanationContext{
			HasTests:   manifest.HasTestScript(),
			LintFailed: metrics.LintFailed,
		})
	}
	progress.Increment(1)

	uc.logState(domain.StateDone, req.Repo)
	return &domain.PipelineResult{
		IsValid:     true,
		Message:     fmt.Sprintf("Repository %s analyzed", req.Repo.Slug()),
		ARIScore:    &score.ARIScore,
		Status:      score.Status,
		Metrics:     &score.Metrics,
		Explanation: explanation,
	}
}

// preflight probes the remote manifest through the content API before paying
// for a clone. Best-effort: API problems are logged and the clone proceeds;
// only a definitive "file absent" rejects early.
func (uc *ScanUseCase) preflight(ctx context.Context, repo domain.RepoRef) *domain.PipelineResult {
	if uc.content == nil {
		return nil
	}

	_, err := uc.content.FetchFile(ctx, repo, constants.ManifestFileName)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrFileAbsent) {
		return uc.reject(repo, domain.NewInvalidManifestError(
			constants.ManifestFileName+" not found on "+repo.Slug(), nil))
	}

	slog.Debug("manifest preflight inconclusive, cloning anyway",
		"repo", repo.Slug(), "error", err)
	return nil
}

// reject terminates the pipeline with a rejection artifact
func (uc *ScanUseCase) reject(repo domain.RepoRef, err error) *domain.PipelineResult {
	uc.logState(domain.StateRejected, repo)
	slog.Info("repository rejected", "repo", repo.Slug(), "error", err)

	message := err.Error()
	var de domain.DomainError
	if errors.As(err, &de) {
		message = de.Message
	}
	return &domain.PipelineResult{
		IsValid: false,
		Message: message,
	}
}

// stageProgress starts a progress task covering the five pipeline stages
func (uc *ScanUseCase) stageProgress() domain.TaskProgress {
	if uc.progress == nil {
		return noopProgress{}
	}
	return uc.progress.StartTask("Scanning", 5)
}

func (uc *ScanUseCase) logState(state domain.PipelineState, repo domain.RepoRef) {
	slog.Debug("pipeline state", "state", state, "repo", repo.Slug())
}

type noopProgress struct{}

func (noopProgress) Increment(int)   {}
func (noopProgress) Describe(string) {}
func (noopProgress) Complete()       {}

// ScanUseCaseBuilder builds a ScanUseCase
type ScanUseCaseBuilder struct {
	uc ScanUseCase
}

// NewScanUseCaseBuilder creates a new builder
func NewScanUseCaseBuilder() *ScanUseCaseBuilder {
	return &ScanUseCaseBuilder{}
}

// WithFetcher sets the repository fetcher
func (b *ScanUseCaseBuilder) WithFetcher(f domain.RepositoryFetcher) *ScanUseCaseBuilder {
	b.uc.fetcher = f
	return b
}

// WithContentFetcher sets the optional remote content fetcher
func (b *ScanUseCaseBuilder) WithContentFetcher(c domain.ContentFetcher) *ScanUseCaseBuilder {
	b.uc.content = c
	return b
}

// WithInstaller sets the dependency installer
func (b *ScanUseCaseBuilder) WithInstaller(i domain.DependencyInstaller) *ScanUseCaseBuilder {
	b.uc.installer = i
	return b
}

// WithLintRunner sets the lint runner
func (b *ScanUseCaseBuilder) WithLintRunner(l domain.LintRunner) *ScanUseCaseBuilder {
	b.uc.lint = l
	return b
}

// WithAuditRunner sets the audit runner
func (b *ScanUseCaseBuilder) WithAuditRunner(a domain.AuditRunner) *ScanUseCaseBuilder {
	b.uc.audit = a
	return b
}

// WithExplainer sets the explanation service
func (b *ScanUseCaseBuilder) WithExplainer(e domain.ExplanationService) *ScanUseCaseBuilder {
	b.uc.explainer = e
	return b
}

// WithExecutor sets the parallel executor
func (b *ScanUseCaseBuilder) WithExecutor(e domain.ParallelExecutor) *ScanUseCaseBuilder {
	b.uc.executor = e
	return b
}

// WithProgress sets the progress manager
func (b *ScanUseCaseBuilder) WithProgress(p domain.ProgressManager) *ScanUseCaseBuilder {
	b.uc.progress = p
	return b
}

// Build creates the ScanUseCase
func (b *ScanUseCaseBuilder) Build() (*ScanUseCase, error) {
	if b.uc.fetcher == nil {
		return nil, fmt.Errorf("a repository fetcher is required")
	}
	if b.uc.lint == nil || b.uc.audit == nil {
		return nil, fmt.Errorf("both analyzers are required")
	}
	if b.uc.executor == nil {
		return nil, fmt.Errorf("a parallel executor is required")
	}
	uc := b.uc
	return &uc, nil
}
