package repositories

import (
	"context"

	"github.com/rios0rios0/update-flake-inputs/internal/domain/entities"
)

// FlakeRepository abstracts discovery and per-input updates of Nix flake
// manifests. Implementations delegate resolution to the external resolver:
// listing never mutates lock files, updating mutates exactly one input's
// lock entry.
type FlakeRepository interface {
	// DiscoverFlakes walks repoDir for flake.nix manifests, applies the
	// comma-separated exclude directive, skips manifests without a lock file,
	// and returns each survivor with its updatable input names. Any failure
	// aborts the whole discovery with a DiscoveryError.
	DiscoverFlakes(ctx context.Context, repoDir, excludeDirective string) ([]entities.Flake, error)

	// UpdateInput re-resolves one named input of the given manifest, with the
	// manifest path resolved under workDir. An input unknown to the resolver
	// is a logged no-op, not an error.
	UpdateInput(ctx context.Context, workDir, flakeFile, inputName string) error

	// Version reports the resolver's version string, for preflight checks.
	Version(ctx context.Context) (string, error)
}
