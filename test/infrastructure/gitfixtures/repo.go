//go:build integration || unit || test

// Package gitfixtures builds throwaway git repositories for exercising the
// worktree flow against a real git binary.
package gitfixtures //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// FixtureRepo is a working clone wired to a local bare origin.
type FixtureRepo struct {
	// Dir is the working clone the update flow operates on.
	Dir string
	// OriginDir is the bare repository acting as origin.
	OriginDir string
}

// CreateFixtureRepo creates a working repository on main with the given
// files committed, backed by a local bare origin holding the same commit.
func CreateFixtureRepo(t *testing.T, files map[string]string) *FixtureRepo {
	t.Helper()
	dir := t.TempDir()
	origin := filepath.Join(dir, "origin.git")
	work := filepath.Join(dir, "work")

	Run(t, dir, "git", "init", "-b", "main", work)
	Run(t, work, "git", "config", "user.email", "test@example.com")
	Run(t, work, "git", "config", "user.name", "Test")

	for path, content := range files {
		WriteFile(t, work, path, content)
	}
	Run(t, work, "git", "add", ".")
	Run(t, work, "git", "commit", "-m", "initial commit")

	Run(t, dir, "git", "clone", "--bare", work, origin)
	Run(t, work, "git", "remote", "add", "origin", origin)
	Run(t, work, "git", "fetch", "origin")

	return &FixtureRepo{Dir: work, OriginDir: origin}
}

// CommitFile commits one file on the current branch of the working clone.
func (r *FixtureRepo) CommitFile(t *testing.T, path, content, message string) {
	t.Helper()
	WriteFile(t, r.Dir, path, content)
	Run(t, r.Dir, "git", "add", ".")
	Run(t, r.Dir, "git", "commit", "-m", message)
}

// Run executes a command in dir and returns its trimmed stdout, failing the
// test on any error.
func Run(t *testing.T, dir, name string, args ...string) string {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("command %s %v failed: %v\n%s", name, args, err, stderr.String())
	}
	return strings.TrimSpace(stdout.String())
}

// WriteFile writes content under dir, creating parent directories.
func WriteFile(t *testing.T, dir, path, content string) {
	t.Helper()
	full := filepath.Join(dir, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil { //nolint:gosec // test file
		t.Fatal(err)
	}
}
