package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/update-flake-inputs/internal/domain/entities"
	"github.com/rios0rios0/update-flake-inputs/internal/domain/repositories"
)

// worktreePrefix names the temporary directories holding ephemeral worktrees.
const worktreePrefix = "flake-update-"

// GitWorktreeRepository implements repositories.WorktreeRepository by
// shelling out to the git CLI. Every command runs with an explicit working
// directory; the process working directory is never changed.
type GitWorktreeRepository struct {
	repoDir  string
	botName  string
	botEmail string
}

// NewGitWorktreeRepository creates a worktree repository rooted at repoDir,
// committing as the given bot identity.
func NewGitWorktreeRepository(
	repoDir, botName, botEmail string,
) repositories.WorktreeRepository {
	return &GitWorktreeRepository{
		repoDir:  repoDir,
		botName:  botName,
		botEmail: botEmail,
	}
}

// WithWorktree creates a worktree under a private temporary directory,
// invokes fn with its path, and removes both on every exit path. The local
// branch is created on first use; a branch left by an earlier manifest of
// the same input group is reused so its commits stack.
func (r *GitWorktreeRepository) WithWorktree(
	ctx context.Context,
	branchName string,
	fn func(worktreeDir string) error,
) error {
	tempDir, err := os.MkdirTemp("", worktreePrefix)
	if err != nil {
		return &entities.WorktreeError{
			Branch: branchName,
			Err:    fmt.Errorf("failed to create temp dir: %w", err),
		}
	}
	defer os.RemoveAll(tempDir)

	worktreePath := filepath.Join(tempDir, branchName)

	args := []string{"worktree", "add", worktreePath}
	if r.localBranchExists(ctx, branchName) {
		args = append(args, branchName)
	} else {
		args = append(args, "-b", branchName)
	}

	if _, addErr := r.run(ctx, r.repoDir, args...); addErr != nil {
		return &entities.WorktreeError{Branch: branchName, Err: addErr}
	}

	logger.Infof("Created worktree for branch %s at %s", branchName, worktreePath)

	defer func() {
		// Forced removal tolerates a worktree that is already gone.
		if _, removeErr := r.run(ctx, r.repoDir, "worktree", "remove", "--force", worktreePath); removeErr != nil {
			logger.Debugf("Worktree removal: %v", removeErr)
		}
		logger.Infof("Cleaned up worktree at %s", worktreePath)
	}()

	return fn(worktreePath)
}

// StageAll stages every change in the worktree and reports whether the
// staged diff is non-empty.
func (r *GitWorktreeRepository) StageAll(
	ctx context.Context,
	worktreeDir string,
) (bool, error) {
	if _, err := r.run(ctx, worktreeDir, "add", "."); err != nil {
		return false, &entities.WorktreeError{Err: err}
	}

	// Exit 0 means no staged changes, exit 1 means changes are present.
	cmd := exec.CommandContext(ctx, "git", "diff", "--cached", "--quiet")
	cmd.Dir = worktreeDir

	err := cmd.Run()
	if err == nil {
		return false, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, &entities.WorktreeError{Err: fmt.Errorf("git diff --cached: %w", err)}
}

// CommitAndPush commits the staged changes with the bot identity and
// force-pushes branchName to origin.
func (r *GitWorktreeRepository) CommitAndPush(
	ctx context.Context,
	worktreeDir, branchName, message string,
) error {
	cmd := exec.CommandContext(ctx, "git", "commit", "-m", message)
	cmd.Dir = worktreeDir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME="+r.botName,
		"GIT_AUTHOR_EMAIL="+r.botEmail,
		"GIT_COMMITTER_NAME="+r.botName,
		"GIT_COMMITTER_EMAIL="+r.botEmail,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &entities.WorktreeError{
			Branch: branchName,
			Err:    fmt.Errorf("git commit: %w: %s", err, strings.TrimSpace(stderr.String())),
		}
	}

	if _, err := r.run(ctx, worktreeDir, "push", "origin", "--force", branchName); err != nil {
		return &entities.WorktreeError{Branch: branchName, Err: err}
	}

	logger.Infof("Committed and pushed changes to branch: %s", branchName)
	return nil
}

// localBranchExists reports whether the repository already has a local
// branch of that name.
func (r *GitWorktreeRepository) localBranchExists(ctx context.Context, branchName string) bool {
	_, err := r.run(ctx, r.repoDir, "rev-parse", "--verify", "--quiet", "refs/heads/"+branchName)
	return err == nil
}

// run executes git with the given arguments in dir, returning trimmed
// stdout. Stderr is folded into the error.
func (r *GitWorktreeRepository) run(
	ctx context.Context,
	dir string,
	args ...string,
) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf(
			"git %s: %w: %s",
			strings.Join(args, " "), err, strings.TrimSpace(stderr.String()),
		)
	}

	return strings.TrimSpace(stdout.String()), nil
}
