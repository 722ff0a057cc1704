package repositories

import (
	"context"

	"github.com/rios0rios0/update-flake-inputs/internal/domain/entities"
)

// ForgeRepository is the typed surface of the forge REST API used by the
// update flow. All calls are synchronous and carry no implicit retry except
// where a method documents one.
type ForgeRepository interface {
	// VerifyAuth resolves the authenticated user, failing when the credential
	// is rejected. Repository permissions are logged as a diagnostic; a
	// failure of that secondary lookup alone is not fatal.
	VerifyAuth(ctx context.Context) (*entities.User, error)

	// GetBranch fetches a branch. A not-found answer is (nil, nil); any other
	// API failure surfaces as an error.
	GetBranch(ctx context.Context, name string) (*entities.Branch, error)

	// CreateBranch creates name from base's current head. An existing branch
	// of that name is deleted first (best-effort).
	CreateBranch(ctx context.Context, name, base string) error

	// DeleteBranch removes a remote branch.
	DeleteBranch(ctx context.Context, name string) error

	// FindOpenPullRequest returns the open pull request for the head/base
	// pair, or (nil, nil) when there is none.
	FindOpenPullRequest(ctx context.Context, head, base string) (*entities.PullRequest, error)

	// CreatePullRequest opens a pull request idempotently: an already open
	// request for the same head/base pair is confirmed, not duplicated. With
	// AutoMerge set, a successful creation schedules the merge; auto-merge
	// failure after creation is logged, not returned.
	CreatePullRequest(ctx context.Context, input entities.PullRequestInput) error

	// MergeWhenChecksSucceed schedules a merge that the forge performs once
	// required checks pass, deleting the branch afterwards. Transient
	// "not ready" answers are retried on a fixed backoff before giving up.
	MergeWhenChecksSucceed(ctx context.Context, prNumber int64) error
}

// ForgeRepositoryFactory builds a ForgeRepository from resolved settings.
// Construction is deferred to run time because the forge coordinates come
// from flags and environment.
type ForgeRepositoryFactory func(settings *entities.Settings) ForgeRepository
