package service

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ludo-technologies/ariscan/domain"
	"github.com/ludo-technologies/ariscan/internal/config"
)

// workspaceImpl implements domain.Workspace over a temporary directory
type workspaceImpl struct {
	path    string
	size    int64
	release sync.Once
}

// Path returns the root directory of the fetched tree
func (w *workspaceImpl) Path() string {
	return w.path
}

// Size returns the measured on-disk size of the fetched tree in bytes
func (w *workspaceImpl) Size() int64 {
	return w.size
}

// Release destroys the workspace directory. Idempotent; safe when the
// directory was never created. A removal failure is logged, never returned.
func (w *workspaceImpl) Release() {
	w.release.Do(func() {
		if w.path == "" {
			return
		}
		if err := os.RemoveAll(w.path); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove workspace", "path", w.path, "error", err)
		}
	})
}

// GitFetcher implements domain.RepositoryFetcher with a shallow git clone
type GitFetcher struct {
	cfg *config.AcquisitionConfig
}

// NewGitFetcher creates a fetcher from acquisition configuration
func NewGitFetcher(cfg *config.AcquisitionConfig) *GitFetcher {
	return &GitFetcher{cfg: cfg}
}

// Fetch clones the repository's branch (depth 1) into a fresh workspace and
// enforces the size ceiling. The returned Workspace is always non-nil so the
// caller can schedule Release unconditionally.
func (f *GitFetcher) Fetch(ctx context.Context, repo domain.RepoRef) (domain.Workspace, error) {
	ws := &workspaceImpl{path: f.workspacePath(repo)}

	timeout := time.Duration(f.cfg.CloneTimeoutSeconds) * time.Second
	cloneCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"clone", "--depth", "1", "--single-branch"}
	branch := repo.Branch
	if branch == "" {
		branch = f.cfg.Branch
	}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	args = append(args, cloneURL(repo), ws.path)

	cmd := exec.CommandContext(cloneCtx, f.gitBinary(), args...)
	// Never let git prompt for credentials on private or missing repos
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	output, err := cmd.CombinedOutput()
	if err != nil {
		return ws, classifyCloneError(repo, string(output), err)
	}

	// A measurement failure is a local filesystem problem, not a transport
	// one, so it stays outside the rejection taxonomy
	size, err := measureTreeSize(ws.path)
	if err != nil {
		return ws, fmt.Errorf("failed to measure fetched tree for %s: %w", repo.Slug(), err)
	}
	ws.size = size
	slog.Debug("repository fetched", "repo", repo.Slug(), "bytes", size)

	if size > f.cfg.MaxRepoSizeBytes {
		// Destroy the tree before anything downstream can touch it
		ws.Release()
		return ws, domain.NewSizeExceededError(
			fmt.Sprintf("repository %s is %d bytes, ceiling is %d",
				repo.Slug(), size, f.cfg.MaxRepoSizeBytes), nil)
	}

	return ws, nil
}

// workspacePath builds a unique directory name from the repository identity
// and a high-resolution timestamp
func (f *GitFetcher) workspacePath(repo domain.RepoRef) string {
	root := f.cfg.WorkRoot
	if root == "" {
		root = os.TempDir()
	}
	name := fmt.Sprintf("ariscan-%s-%s-%d", repo.Owner, repo.Name, time.Now().UnixNano())
	return filepath.Join(root, name)
}

func (f *GitFetcher) gitBinary() string {
	if f.cfg.GitBinary != "" {
		return f.cfg.GitBinary
	}
	return "git"
}

// cloneURL builds the HTTPS clone URL for a repository reference
func cloneURL(repo domain.RepoRef) string {
	return fmt.Sprintf("https://github.com/%s/%s.git", repo.Owner, repo.Name)
}

// classifyCloneError maps git output to the pipeline error taxonomy
func classifyCloneError(repo domain.RepoRef, output string, err error) error {
	lower := strings.ToLower(output)
	notFound := strings.Contains(lower, "repository not found") ||
		strings.Contains(lower, "not found") ||
		strings.Contains(lower, "could not read from remote repository") ||
		strings.Contains(lower, "remote branch") && strings.Contains(lower, "not found")

	if notFound {
		return domain.NewNotFoundError(
			fmt.Sprintf("repository or branch not found: %s", repo.Slug()), err)
	}
	return domain.NewNetworkError(
		fmt.Sprintf("failed to clone %s", repo.Slug()), err)
}

// measureTreeSize sums file sizes under root, excluding the .git directory
func measureTreeSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
