package service

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/ludo-technologies/ariscan/domain"
	"github.com/ludo-technologies/ariscan/internal/config"
)

// NpmInstaller implements domain.DependencyInstaller. Installation is
// best-effort: the orchestrator logs a returned error and proceeds with
// whatever is resolvable.
type NpmInstaller struct {
	cfg *config.AnalysisConfig
}

// NewNpmInstaller creates an installer from analysis configuration
func NewNpmInstaller(cfg *config.AnalysisConfig) *NpmInstaller {
	return &NpmInstaller{cfg: cfg}
}

// Install resolves the workspace's declared dependencies. Lifecycle scripts
// are suppressed so installing a hostile package cannot execute code.
func (i *NpmInstaller) Install(ctx context.Context, ws domain.Workspace) error {
	if !i.cfg.InstallDependencies {
		return nil
	}

	timeout := time.Duration(i.cfg.InstallTimeoutSeconds) * time.Second
	installCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	binary := i.cfg.NpmBinary
	if binary == "" {
		binary = "npm"
	}

	cmd := exec.CommandContext(installCtx, binary,
		"install", "--ignore-scripts", "--no-audit", "--no-fund")
	cmd.Dir = ws.Path()

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("npm install failed: %w (%s)",
			err, firstLine(string(output), "no output"))
	}
	return nil
}
