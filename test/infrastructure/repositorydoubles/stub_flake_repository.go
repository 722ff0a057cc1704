//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/update-flake-inputs/internal/domain/entities"
	"github.com/rios0rios0/update-flake-inputs/internal/domain/repositories"
)

// UpdateInputCall records a single invocation of UpdateInput.
type UpdateInputCall struct {
	WorkDir   string
	FlakeFile string
	InputName string
}

// SpyFlakeRepository implements repositories.FlakeRepository as a
// configurable spy.
type SpyFlakeRepository struct {
	// --- DiscoverFlakes ---
	Flakes      []entities.Flake
	DiscoverErr error
	// spy: exclude directives received
	DiscoverDirectives []string

	// --- UpdateInput ---
	// UpdateErrs fails the update of the named inputs; others succeed.
	UpdateErrs map[string]error
	// spy: calls received
	UpdateCalls []UpdateInputCall

	// --- Version ---
	VersionString string
	VersionErr    error
}

var _ repositories.FlakeRepository = (*SpyFlakeRepository)(nil)

func (p *SpyFlakeRepository) DiscoverFlakes(
	_ context.Context,
	_, excludeDirective string,
) ([]entities.Flake, error) {
	p.DiscoverDirectives = append(p.DiscoverDirectives, excludeDirective)
	return p.Flakes, p.DiscoverErr
}

func (p *SpyFlakeRepository) UpdateInput(
	_ context.Context,
	workDir, flakeFile, inputName string,
) error {
	p.UpdateCalls = append(p.UpdateCalls, UpdateInputCall{
		WorkDir:   workDir,
		FlakeFile: flakeFile,
		InputName: inputName,
	})
	if p.UpdateErrs != nil {
		return p.UpdateErrs[inputName]
	}
	return nil
}

func (p *SpyFlakeRepository) Version(_ context.Context) (string, error) {
	if p.VersionErr != nil {
		return "", p.VersionErr
	}
	if p.VersionString != "" {
		return p.VersionString, nil
	}
	return "2.18.1", nil
}
