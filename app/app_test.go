package app

import (
	"context"
	"errors"
	"testing"

	"github.com/ludo-technologies/ariscan/domain"
	"github.com/ludo-technologies/ariscan/internal/testutil"
	"github.com/ludo-technologies/ariscan/service"
)

// fakeWorkspace implements domain.Workspace over a fixture directory
type fakeWorkspace struct {
	path     string
	released int
}

func (w *fakeWorkspace) Path() string { return w.path }
func (w *fakeWorkspace) Size() int64  { return 0 }
func (w *fakeWorkspace) Release()     { w.released++ }

// fakeFetcher implements domain.RepositoryFetcher
type fakeFetcher struct {
	ws  *fakeWorkspace
	err error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ domain.RepoRef) (domain.Workspace, error) {
	if f.ws == nil {
		return nil, f.err
	}
	return f.ws, f.err
}

type fakeLint struct {
	outcome domain.LintOutcome
	called  bool
}

func (l *fakeLint) Run(_ context.Context, _ domain.Workspace) domain.LintOutcome {
	l.called = true
	return l.outcome
}

type fakeAudit struct {
	outcome domain.AuditOutcome
	called  bool
}

func (a *fakeAudit) Run(_ context.Context, _ domain.Workspace) domain.AuditOutcome {
	a.called = true
	return a.outcome
}

type fakeInstaller struct {
	err    error
	called bool
}

func (i *fakeInstaller) Install(_ context.Context, _ domain.Workspace) error {
	i.called = true
	return i.err
}

type fakeExplainer struct {
	explanation *domain.Explanation
	called      bool
	gotContext  domain.ExplanationContext
}

func (e *fakeExplainer) Explain(_ context.Context, _ domain.ScoreResult, ec domain.ExplanationContext) *domain.Explanation {
	e.called = true
	e.gotContext = ec
	return e.explanation
}

// serialExecutor runs tasks inline; the orchestrator only needs the join
type serialExecutor struct{}

func (serialExecutor) Execute(ctx context.Context, tasks []domain.ExecutableTask) error {
	for _, t := range tasks {
		if t.IsEnabled() {
			_ = t.Execute(ctx)
		}
	}
	return nil
}

// fakeContent implements domain.ContentFetcher
type fakeContent struct {
	err error
}

func (c *fakeContent) FetchFile(_ context.Context, _ domain.RepoRef, _ string) ([]byte, error) {
	return nil, c.err
}

func buildUseCase(t *testing.T, fetcher domain.RepositoryFetcher, lint domain.LintRunner, audit domain.AuditRunner, opts ...func(*ScanUseCaseBuilder)) *ScanUseCase {
	t.Helper()
	builder := NewScanUseCaseBuilder().
		WithFetcher(fetcher).
		WithLintRunner(lint).
		WithAuditRunner(audit).
		WithExecutor(serialExecutor{})
	for _, opt := range opts {
		opt(builder)
	}
	uc, err := builder.Build()
	testutil.AssertNoError(t, err)
	return uc
}

func validManifestWorkspace(t *testing.T) *fakeWorkspace {
	t.Helper()
	root := testutil.CreateRepoFixture(t, map[string]string{
		"package.json": `{"name": "demo", "version": "1.0.0", "scripts": {"test": "jest"}}`,
		"index.js":     "module.exports = {};\n",
	})
	return &fakeWorkspace{path: root}
}

func TestScanUseCase_SuccessfulRun(t *testing.T) {
	ws := validManifestWorkspace(t)
	lint := &fakeLint{outcome: domain.LintOutcome{Errors: 10, Warnings: 8}}
	audit := &fakeAudit{outcome: domain.AuditOutcome{Critical: 1, High: 2}}
	installer := &fakeInstaller{}
	explainer := &fakeExplainer{explanation: &domain.Explanation{Summary: "ok"}}

	uc := buildUseCase(t, &fakeFetcher{ws: ws}, lint, audit, func(b *ScanUseCaseBuilder) {
		b.WithInstaller(installer).WithExplainer(explainer)
	})

	result := uc.Execute(context.Background(), domain.ScanRequest{
		Repo: domain.RepoRef{Owner: "acme", Name: "demo"},
	})

	if !result.IsValid {
		t.Fatalf("Expected acceptance, got rejection: %s", result.Message)
	}
	if result.ARIScore == nil || *result.ARIScore != 63 {
		t.Fatalf("Expected score 63, got %v", result.ARIScore)
	}
	if result.Status != domain.RiskStatusModerate {
		t.Errorf("Expected moderate risk, got %s", result.Status)
	}
	if result.Explanation == nil || result.Explanation.Summary != "ok" {
		t.Errorf("Expected explanation attached, got %+v", result.Explanation)
	}
	testutil.AssertTrue(t, lint.called, "lint runner should run")
	testutil.AssertTrue(t, audit.called, "audit runner should run")
	testutil.AssertTrue(t, installer.called, "installer should run")
	testutil.AssertTrue(t, explainer.gotContext.HasTests, "manifest declares a test script")
	testutil.AssertEqual(t, 1, ws.released)
}

func TestScanUseCase_FetchFailureRejects(t *testing.T) {
	ws := &fakeWorkspace{path: ""}
	fetcher := &fakeFetcher{ws: ws, err: domain.NewNotFoundError("repository or branch not found: acme/gone", nil)}

	uc := buildUseCase(t, fetcher, &fakeLint{}, &fakeAudit{})
	result := uc.Execute(context.Background(), domain.ScanRequest{
		Repo: domain.RepoRef{Owner: "acme", Name: "gone"},
	})

	if result.IsValid {
		t.Fatal("Expected rejection for fetch failure")
	}
	if result.Message != "repository or branch not found: acme/gone" {
		t.Errorf("Expected the domain error message, got %q", result.Message)
	}
	if result.ARIScore != nil {
		t.Error("Rejection must not carry a score")
	}
	// Cleanup must still run for a partially created workspace
	testutil.AssertEqual(t, 1, ws.released)
}

func TestScanUseCase_MissingManifestRejects(t *testing.T) {
	root := testutil.CreateRepoFixture(t, map[string]string{
		"index.js": "module.exports = {};\n",
	})
	ws := &fakeWorkspace{path: root}
	lint := &fakeLint{}
	audit := &fakeAudit{}

	uc := buildUseCase(t, &fakeFetcher{ws: ws}, lint, audit)
	result := uc.Execute(context.Background(), domain.ScanRequest{
		Repo: domain.RepoRef{Owner: "acme", Name: "demo"},
	})

	if result.IsValid {
		t.Fatal("Expected rejection for missing manifest")
	}
	testutil.AssertFalse(t, lint.called, "analyzers must not run after rejection")
	testutil.AssertFalse(t, audit.called, "analyzers must not run after rejection")
	testutil.AssertEqual(t, 1, ws.released)
}

func TestScanUseCase_InvalidManifestRejects(t *testing.T) {
	root := testutil.CreateRepoFixture(t, map[string]string{
		"package.json": "{not valid json",
	})
	ws := &fakeWorkspace{path: root}

	uc := buildUseCase(t, &fakeFetcher{ws: ws}, &fakeLint{}, &fakeAudit{})
	result := uc.Execute(context.Background(), domain.ScanRequest{
		Repo: domain.RepoRef{Owner: "acme", Name: "demo"},
	})

	if result.IsValid {
		t.Fatal("Expected rejection for unparseable manifest")
	}
	testutil.AssertEqual(t, 1, ws.released)
}

func TestScanUseCase_InstallFailureDoesNotReject(t *testing.T) {
	ws := validManifestWorkspace(t)
	installer := &fakeInstaller{err: errors.New("registry unreachable")}

	uc := buildUseCase(t, &fakeFetcher{ws: ws}, &fakeLint{}, &fakeAudit{}, func(b *ScanUseCaseBuilder) {
		b.WithInstaller(installer)
	})
	result := uc.Execute(context.Background(), domain.ScanRequest{
		Repo: domain.RepoRef{Owner: "acme", Name: "demo"},
	})

	if !result.IsValid {
		t.Fatalf("Install failure must not reject the run: %s", result.Message)
	}
	testutil.AssertTrue(t, installer.called, "installer should have been attempted")
}

func TestScanUseCase_NilExplanationIsAccepted(t *testing.T) {
	ws := validManifestWorkspace(t)
	explainer := &fakeExplainer{explanation: nil}

	uc := buildUseCase(t, &fakeFetcher{ws: ws}, &fakeLint{}, &fakeAudit{}, func(b *ScanUseCaseBuilder) {
		b.WithExplainer(explainer)
	})
	result := uc.Execute(context.Background(), domain.ScanRequest{
		Repo: domain.RepoRef{Owner: "acme", Name: "demo"},
	})

	if !result.IsValid {
		t.Fatalf("Expected acceptance, got rejection: %s", result.Message)
	}
	testutil.AssertTrue(t, explainer.called, "explainer should have been asked")
	if result.Explanation != nil {
		t.Error("Expected nil explanation carried through as absent")
	}
}

func TestScanUseCase_SkipExplanationFlag(t *testing.T) {
	ws := validManifestWorkspace(t)
	explainer := &fakeExplainer{explanation: &domain.Explanation{Summary: "should not appear"}}

	uc := buildUseCase(t, &fakeFetcher{ws: ws}, &fakeLint{}, &fakeAudit{}, func(b *ScanUseCaseBuilder) {
		b.WithExplainer(explainer)
	})
	result := uc.Execute(context.Background(), domain.ScanRequest{
		Repo:            domain.RepoRef{Owner: "acme", Name: "demo"},
		SkipExplanation: true,
	})

	if !result.IsValid {
		t.Fatalf("Expected acceptance, got rejection: %s", result.Message)
	}
	testutil.AssertFalse(t, explainer.called, "explainer must be skipped")
	if result.Explanation != nil {
		t.Error("Expected no explanation when explanation is skipped")
	}
}

func TestScanUseCase_DegradedLintFlaggedInMetrics(t *testing.T) {
	ws := validManifestWorkspace(t)
	lint := &fakeLint{outcome: domain.LintOutcome{Errors: 20, Warnings: 50, Degraded: true, Reason: "tool missing"}}
	explainer := &fakeExplainer{}

	uc := buildUseCase(t, &fakeFetcher{ws: ws}, lint, &fakeAudit{}, func(b *ScanUseCaseBuilder) {
		b.WithExplainer(explainer)
	})
	result := uc.Execute(context.Background(), domain.ScanRequest{
		Repo: domain.RepoRef{Owner: "acme", Name: "demo"},
	})

	if !result.IsValid {
		t.Fatalf("Degraded lint must not reject the run: %s", result.Message)
	}
	if result.Metrics == nil || !result.Metrics.LintFailed {
		t.Fatalf("Expected LintFailed in metrics, got %+v", result.Metrics)
	}
	// deduction = 20 + 50*0.25 = 32.5 → 67.5 rounds to 68
	if *result.ARIScore != 68 {
		t.Errorf("Expected score 68 under penalty counts, got %d", *result.ARIScore)
	}
	testutil.AssertTrue(t, explainer.gotContext.LintFailed, "explanation context should mark the lint penalty")
}

func TestScanUseCase_PreflightAbsentManifestRejectsBeforeClone(t *testing.T) {
	fetcher := &fakeFetcher{ws: validManifestWorkspace(t)}

	uc := buildUseCase(t, fetcher, &fakeLint{}, &fakeAudit{}, func(b *ScanUseCaseBuilder) {
		b.WithContentFetcher(&fakeContent{err: domain.ErrFileAbsent})
	})
	result := uc.Execute(context.Background(), domain.ScanRequest{
		Repo: domain.RepoRef{Owner: "acme", Name: "empty"},
	})

	if result.IsValid {
		t.Fatal("Expected rejection when the remote manifest is absent")
	}
	testutil.AssertEqual(t, 0, fetcher.ws.released)
}

func TestScanUseCase_PreflightAPIErrorFallsThroughToClone(t *testing.T) {
	ws := validManifestWorkspace(t)
	fetcher := &fakeFetcher{ws: ws}

	uc := buildUseCase(t, fetcher, &fakeLint{}, &fakeAudit{}, func(b *ScanUseCaseBuilder) {
		b.WithContentFetcher(&fakeContent{err: domain.NewAPIError("rate limited", nil)})
	})
	result := uc.Execute(context.Background(), domain.ScanRequest{
		Repo: domain.RepoRef{Owner: "acme", Name: "demo"},
	})

	if !result.IsValid {
		t.Fatalf("A preflight API error must not reject the run: %s", result.Message)
	}
	testutil.AssertEqual(t, 1, ws.released)
}

func TestScanUseCase_CancelledAnalysisDegradesInsteadOfScoringClean(t *testing.T) {
	ws := validManifestWorkspace(t)
	lint := &fakeLint{outcome: domain.LintOutcome{}}
	audit := &fakeAudit{outcome: domain.AuditOutcome{}}

	// The real executor, so a done context skips the analyzer tasks
	uc := buildUseCase(t, &fakeFetcher{ws: ws}, lint, audit, func(b *ScanUseCaseBuilder) {
		b.WithExecutor(service.NewParallelExecutor())
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := uc.Execute(ctx, domain.ScanRequest{
		Repo: domain.RepoRef{Owner: "acme", Name: "demo"},
	})

	if !result.IsValid {
		t.Fatalf("A cancelled analysis stage degrades, it does not reject: %s", result.Message)
	}
	testutil.AssertFalse(t, lint.called, "lint must not run under a done context")
	testutil.AssertFalse(t, audit.called, "audit must not run under a done context")
	if result.Metrics == nil || !result.Metrics.LintFailed {
		t.Fatalf("Skipped lint must surface as LintFailed, got %+v", result.Metrics)
	}
	testutil.AssertEqual(t, uint(20), result.Metrics.LintErrors)
	testutil.AssertEqual(t, uint(50), result.Metrics.LintWarnings)
	testutil.AssertEqual(t, uint(0), result.Metrics.CriticalVulns)
	testutil.AssertEqual(t, uint(0), result.Metrics.HighVulns)
	// deduction = 20 + 50*0.25 = 32.5, never a clean 100
	testutil.AssertEqual(t, 68, *result.ARIScore)
	testutil.AssertEqual(t, 1, ws.released)
}

func TestScanUseCaseBuilder_RequiresCoreServices(t *testing.T) {
	_, err := NewScanUseCaseBuilder().Build()
	testutil.AssertError(t, err)

	_, err = NewScanUseCaseBuilder().
		WithFetcher(&fakeFetcher{}).
		WithLintRunner(&fakeLint{}).
		WithAuditRunner(&fakeAudit{}).
		Build()
	testutil.AssertError(t, err)
}
