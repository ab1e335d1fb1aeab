package service

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os/exec"
	"time"

	"github.com/ludo-technologies/ariscan/domain"
	"github.com/ludo-technologies/ariscan/internal/config"
)

// npmAuditReport is the subset of `npm audit --json` output we consume
type npmAuditReport struct {
	Metadata struct {
		Vulnerabilities struct {
			Critical uint `json:"critical"`
			High     uint `json:"high"`
		} `json:"vulnerabilities"`
	} `json:"metadata"`
}

// NpmAuditRunner implements domain.AuditRunner by shelling out to npm audit.
// It never returns an error: any failure degrades to zeroed counts, because
// a failing audit most often means no dependency manifest, not a vulnerable
// one. This is deliberately asymmetric with the lint penalty.
type NpmAuditRunner struct {
	cfg *config.AnalysisConfig
}

// NewNpmAuditRunner creates an audit runner from analysis configuration
func NewNpmAuditRunner(cfg *config.AnalysisConfig) *NpmAuditRunner {
	return &NpmAuditRunner{cfg: cfg}
}

// Run audits the workspace's resolved dependency tree and returns a tagged
// outcome
func (r *NpmAuditRunner) Run(ctx context.Context, ws domain.Workspace) domain.AuditOutcome {
	timeout := time.Duration(r.cfg.AuditTimeoutSeconds) * time.Second
	auditCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(auditCtx, r.npmBinary(), "audit", "--json")
	cmd.Dir = ws.Path()
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	// npm audit exits non-zero when vulnerabilities exist; the JSON report
	// is still on stdout, so the exit code alone is not a failure signal
	_ = cmd.Run()
	if auditCtx.Err() == context.DeadlineExceeded {
		return auditDegraded("audit timed out")
	}

	var report npmAuditReport
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		return auditDegraded("unparseable audit output")
	}

	outcome := domain.AuditOutcome{
		Critical: report.Metadata.Vulnerabilities.Critical,
		High:     report.Metadata.Vulnerabilities.High,
	}
	slog.Debug("audit completed",
		"critical", outcome.Critical, "high", outcome.High)
	return outcome
}

func (r *NpmAuditRunner) npmBinary() string {
	if r.cfg.NpmBinary != "" {
		return r.cfg.NpmBinary
	}
	return "npm"
}

// auditDegraded is the zeroed outcome for an audit that could not complete
func auditDegraded(reason string) domain.AuditOutcome {
	slog.Debug("audit degraded", "reason", reason)
	return domain.AuditOutcome{Degraded: true, Reason: reason}
}
