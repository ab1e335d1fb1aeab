package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/ludo-technologies/ariscan/domain"
	"github.com/ludo-technologies/ariscan/internal/config"
	"github.com/ludo-technologies/ariscan/internal/constants"
)

// baselineESLintConfig is used when the target repository carries no ESLint
// configuration of its own
const baselineESLintConfig = `{
  "root": true,
  "env": { "es2021": true, "node": true, "browser": true },
  "parserOptions": { "ecmaVersion": "latest", "sourceType": "module" },
  "extends": "eslint:recommended"
}`

// eslintFileResult is one entry of ESLint's JSON formatter output
type eslintFileResult struct {
	ErrorCount   uint `json:"errorCount"`
	WarningCount uint `json:"warningCount"`
}

// ESLintRunner implements domain.LintRunner by shelling out to ESLint.
// It never returns an error: any failure to run or parse degrades to the
// fixed penalty counts so missing lint signal reads as risk, not cleanliness.
type ESLintRunner struct {
	cfg *config.AnalysisConfig
}

// NewESLintRunner creates a lint runner from analysis configuration
func NewESLintRunner(cfg *config.AnalysisConfig) *ESLintRunner {
	return &ESLintRunner{cfg: cfg}
}

// Run lints the workspace's script sources and returns a tagged outcome
func (r *ESLintRunner) Run(ctx context.Context, ws domain.Workspace) domain.LintOutcome {
	if !hasScriptSources(ws.Path()) {
		return lintPenalty("no script source files found")
	}

	timeout := time.Duration(r.cfg.LintTimeoutSeconds) * time.Second
	lintCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"--no-install", "eslint", "--format", "json"}
	if !hasOwnESLintConfig(ws.Path()) {
		baseline, err := writeBaselineConfig()
		if err != nil {
			return lintPenalty("failed to write baseline lint config: " + err.Error())
		}
		defer os.Remove(baseline)
		args = append(args, "--no-eslintrc", "--config", baseline)
	}
	args = append(args, ".")

	cmd := exec.CommandContext(lintCtx, r.npxBinary(), args...)
	cmd.Dir = ws.Path()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if lintCtx.Err() == context.DeadlineExceeded {
		return lintPenalty("lint timed out")
	}

	// ESLint exits 1 when it finds problems; the JSON report is still on
	// stdout. Anything unparseable counts as a failed run.
	var results []eslintFileResult
	if err := json.Unmarshal(stdout.Bytes(), &results); err != nil {
		reason := "unparseable lint output"
		if runErr != nil {
			reason = "lint tool failed: " + firstLine(stderr.String(), runErr.Error())
		}
		return lintPenalty(reason)
	}

	var outcome domain.LintOutcome
	for _, res := range results {
		outcome.Errors += res.ErrorCount
		outcome.Warnings += res.WarningCount
	}
	slog.Debug("lint completed",
		"errors", outcome.Errors, "warnings", outcome.Warnings)
	return outcome
}

func (r *ESLintRunner) npxBinary() string {
	if r.cfg.NpxBinary != "" {
		return r.cfg.NpxBinary
	}
	return "npx"
}

// lintPenalty is the degraded outcome for a lint run that could not complete
func lintPenalty(reason string) domain.LintOutcome {
	slog.Debug("lint degraded", "reason", reason)
	return domain.LintOutcome{
		Errors:   constants.LintPenaltyErrors,
		Warnings: constants.LintPenaltyWarnings,
		Degraded: true,
		Reason:   reason,
	}
}

// writeBaselineConfig writes the fallback ESLint config outside the
// workspace, which stays read-only during analysis
func writeBaselineConfig() (string, error) {
	file, err := os.CreateTemp("", "ariscan-eslintrc-*.json")
	if err != nil {
		return "", err
	}
	if _, err := file.WriteString(baselineESLintConfig); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", err
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", err
	}
	return file.Name(), nil
}

// eslintConfigNames are the repository-local configuration files ESLint honors
var eslintConfigNames = []string{
	".eslintrc",
	".eslintrc.json",
	".eslintrc.js",
	".eslintrc.cjs",
	".eslintrc.yaml",
	".eslintrc.yml",
	"eslint.config.js",
	"eslint.config.mjs",
	"eslint.config.cjs",
}

// hasOwnESLintConfig reports whether the repository ships its own lint config
func hasOwnESLintConfig(root string) bool {
	for _, name := range eslintConfigNames {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			return true
		}
	}

	// package.json may embed an eslintConfig section
	data, err := os.ReadFile(filepath.Join(root, constants.ManifestFileName))
	if err != nil {
		return false
	}
	var manifest map[string]json.RawMessage
	if err := json.Unmarshal(data, &manifest); err != nil {
		return false
	}
	_, ok := manifest["eslintConfig"]
	return ok
}

// hasScriptSources reports whether the tree contains at least one lintable
// script file, honoring the repository's .gitignore
func hasScriptSources(root string) bool {
	var ignore *gitignore.GitIgnore
	if gi, err := gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		ignore = gi
	}

	found := false
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || found {
			return filepath.SkipAll
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			if ignore != nil && rel != "." && ignore.MatchesPath(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if ignore != nil && ignore.MatchesPath(rel) {
			return nil
		}
		if isScriptFile(path) {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

// isScriptFile reports whether a path looks like a lintable script source
func isScriptFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".js" || ext == ".ts" || ext == ".jsx" || ext == ".tsx" ||
		ext == ".mjs" || ext == ".cjs" || ext == ".mts" || ext == ".cts"
}

// firstLine returns the first non-empty line of s, or fallback
func firstLine(s, fallback string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
