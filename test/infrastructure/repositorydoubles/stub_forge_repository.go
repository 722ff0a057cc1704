//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations, no mock
// frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/update-flake-inputs/internal/domain/entities"
	"github.com/rios0rios0/update-flake-inputs/internal/domain/repositories"
)

// CreateBranchCall records a single invocation of CreateBranch.
type CreateBranchCall struct {
	Name string
	Base string
}

// SpyForgeRepository implements repositories.ForgeRepository as a
// configurable spy. Configure the response fields for the methods your test
// exercises, then inspect the call-tracking fields to verify behavior.
type SpyForgeRepository struct {
	// --- VerifyAuth ---
	User          *entities.User
	VerifyAuthErr error
	// spy: number of authentication calls
	VerifyAuthCalls int

	// --- GetBranch ---
	Branches     map[string]*entities.Branch // name -> branch, absent entries answer nil
	GetBranchErr error
	// spy: branch names queried
	QueriedBranches []string

	// --- CreateBranch ---
	CreateBranchErr error
	// spy: inputs received
	CreatedBranches []CreateBranchCall

	// --- DeleteBranch ---
	DeleteBranchErr error
	// spy: branch names deleted
	DeletedBranches []string

	// --- FindOpenPullRequest ---
	OpenPR    *entities.PullRequest
	FindPRErr error
	// spy: head branches queried
	FindPRHeads []string

	// --- CreatePullRequest ---
	CreatePRErr error
	// spy: inputs received
	PRInputs []entities.PullRequestInput

	// --- MergeWhenChecksSucceed ---
	MergeErr error
	// spy: PR numbers merged
	MergedPRs []int64
}

var _ repositories.ForgeRepository = (*SpyForgeRepository)(nil)

func (p *SpyForgeRepository) VerifyAuth(_ context.Context) (*entities.User, error) {
	p.VerifyAuthCalls++
	if p.VerifyAuthErr != nil {
		return nil, p.VerifyAuthErr
	}
	if p.User != nil {
		return p.User, nil
	}
	return &entities.User{Login: "test-bot"}, nil
}

func (p *SpyForgeRepository) GetBranch(
	_ context.Context,
	name string,
) (*entities.Branch, error) {
	p.QueriedBranches = append(p.QueriedBranches, name)
	if p.GetBranchErr != nil {
		return nil, p.GetBranchErr
	}
	if p.Branches != nil {
		return p.Branches[name], nil
	}
	return nil, nil //nolint:nilnil // absent branch
}

func (p *SpyForgeRepository) CreateBranch(_ context.Context, name, base string) error {
	p.CreatedBranches = append(p.CreatedBranches, CreateBranchCall{Name: name, Base: base})
	return p.CreateBranchErr
}

func (p *SpyForgeRepository) DeleteBranch(_ context.Context, name string) error {
	p.DeletedBranches = append(p.DeletedBranches, name)
	return p.DeleteBranchErr
}

func (p *SpyForgeRepository) FindOpenPullRequest(
	_ context.Context,
	head, _ string,
) (*entities.PullRequest, error) {
	p.FindPRHeads = append(p.FindPRHeads, head)
	if p.FindPRErr != nil {
		return nil, p.FindPRErr
	}
	return p.OpenPR, nil
}

func (p *SpyForgeRepository) CreatePullRequest(
	_ context.Context,
	input entities.PullRequestInput,
) error {
	p.PRInputs = append(p.PRInputs, input)
	return p.CreatePRErr
}

func (p *SpyForgeRepository) MergeWhenChecksSucceed(_ context.Context, prNumber int64) error {
	p.MergedPRs = append(p.MergedPRs, prNumber)
	return p.MergeErr
}
