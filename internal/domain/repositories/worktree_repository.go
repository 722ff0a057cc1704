package repositories

import (
	"context"

	"github.com/rios0rios0/update-flake-inputs/internal/domain/entities"
)

// WorktreeRepository wraps the version-control side of the update flow:
// ephemeral worktrees plus staging, committing, and pushing their changes.
type WorktreeRepository interface {
	// WithWorktree creates a disposable worktree bound to branchName (the
	// local branch is created on first use and reused afterwards, so commits
	// of one input group stack), invokes fn with the worktree path, and
	// removes the worktree on every exit path, tolerating an already-gone
	// directory. Creation failure is a WorktreeError and skips removal of a
	// worktree that never existed.
	WithWorktree(ctx context.Context, branchName string, fn func(worktreeDir string) error) error

	// StageAll stages every change in the worktree and reports whether the
	// staged diff is non-empty.
	StageAll(ctx context.Context, worktreeDir string) (bool, error)

	// CommitAndPush commits the staged changes with the configured bot
	// identity and force-pushes branchName to origin.
	CommitAndPush(ctx context.Context, worktreeDir, branchName, message string) error
}

// WorktreeRepositoryFactory builds a WorktreeRepository rooted at the
// repository directory named by the resolved settings.
type WorktreeRepositoryFactory func(settings *entities.Settings) WorktreeRepository
