package ciutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// GoModFile marks the module root that go test runs from.
const GoModFile = "go.mod"

// Common errors for project root detection
var (
	ErrProjectRootNotFound = errors.New("unable to find project root")
	ErrInvalidProjectRoot  = errors.New("invalid project root: no go.mod file found")
)

// FindProjectRoot returns the directory holding go.mod. Sources, in order:
//
//  1. TXSPEC_PROJECT_ROOT (explicit override)
//  2. GITHUB_WORKSPACE on GitHub Actions, CI_PROJECT_DIR on GitLab CI
//  3. walking up from the working directory
func FindProjectRoot(logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	candidates := []struct {
		source string
		dir    string
	}{
		{EnvProjectRoot, os.Getenv(EnvProjectRoot)},
	}
	if IsGitHubActions() {
		candidates = append(candidates, struct{ source, dir string }{EnvGitHubWorkspace, os.Getenv(EnvGitHubWorkspace)})
	}
	if IsGitLabCI() {
		candidates = append(candidates, struct{ source, dir string }{EnvGitLabProjectDir, os.Getenv(EnvGitLabProjectDir)})
	}

	for _, c := range candidates {
		if c.dir == "" {
			continue
		}
		if !isValidProjectRoot(c.dir) {
			return "", fmt.Errorf("%w at %s (from %s)", ErrInvalidProjectRoot, c.dir, c.source)
		}
		logger.Debug("using project root from environment",
			"source", c.source,
			"project_root", c.dir,
		)
		return c.dir, nil
	}

	workingDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	return findProjectRootByTraversal(workingDir)
}

// findProjectRootByTraversal walks upward from startDir until it finds go.mod.
func findProjectRootByTraversal(startDir string) (string, error) {
	dir := startDir
	for {
		if fileExists(filepath.Join(dir, GoModFile)) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no %s above %s", ErrProjectRootNotFound, GoModFile, startDir)
		}
		dir = parent
	}
}

func isValidProjectRoot(dir string) bool {
	return dirExists(dir) && fileExists(filepath.Join(dir, GoModFile))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
