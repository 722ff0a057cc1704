//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/update-flake-inputs/internal/domain/repositories"
)

// StageResult scripts one answer of StageAll.
type StageResult struct {
	Changed bool
	Err     error
}

// CommitCall records a single invocation of CommitAndPush.
type CommitCall struct {
	WorktreeDir string
	Branch      string
	Message     string
}

// SpyWorktreeRepository implements repositories.WorktreeRepository as a
// configurable spy. WithWorktree runs the callback immediately with a fake
// directory; StageAll answers from the scripted queue in call order and
// reports "no changes" once the queue is drained.
type SpyWorktreeRepository struct {
	// --- WithWorktree ---
	WorktreeDir     string
	WithWorktreeErr error
	// spy: branch names acquired
	AcquiredBranches []string

	// --- StageAll ---
	StageResults []StageResult
	// spy: number of staging calls
	StageCalls int

	// --- CommitAndPush ---
	CommitErr error
	// spy: calls received
	Commits []CommitCall
}

var _ repositories.WorktreeRepository = (*SpyWorktreeRepository)(nil)

func (p *SpyWorktreeRepository) WithWorktree(
	_ context.Context,
	branchName string,
	fn func(worktreeDir string) error,
) error {
	p.AcquiredBranches = append(p.AcquiredBranches, branchName)
	if p.WithWorktreeErr != nil {
		return p.WithWorktreeErr
	}

	dir := p.WorktreeDir
	if dir == "" {
		dir = "/tmp/fake-worktree/" + branchName
	}
	return fn(dir)
}

func (p *SpyWorktreeRepository) StageAll(_ context.Context, _ string) (bool, error) {
	p.StageCalls++
	if len(p.StageResults) == 0 {
		return false, nil
	}

	result := p.StageResults[0]
	p.StageResults = p.StageResults[1:]
	return result.Changed, result.Err
}

func (p *SpyWorktreeRepository) CommitAndPush(
	_ context.Context,
	worktreeDir, branchName, message string,
) error {
	p.Commits = append(p.Commits, CommitCall{
		WorktreeDir: worktreeDir,
		Branch:      branchName,
		Message:     message,
	})
	return p.CommitErr
}
