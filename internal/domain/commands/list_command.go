package commands

import (
	"context"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/update-flake-inputs/internal/domain/entities"
	"github.com/rios0rios0/update-flake-inputs/internal/domain/repositories"
)

// List is the interface for the list command (discovery only).
type List interface {
	Execute(ctx context.Context, settings *entities.Settings, opts ListOptions) error
}

// ListOptions holds runtime options for a discovery listing.
type ListOptions struct {
	Verbose bool
}

// ListCommand reports the discovered flake files and the update plan a run
// would execute, without touching the forge.
type ListCommand struct {
	flakeRepo repositories.FlakeRepository
}

// NewListCommand creates a new ListCommand with the given repository.
func NewListCommand(flakeRepo repositories.FlakeRepository) *ListCommand {
	return &ListCommand{
		flakeRepo: flakeRepo,
	}
}

// Execute discovers flake files and logs what a run would process.
func (it *ListCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts ListOptions,
) error {
	if opts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	checkNixVersion(ctx, it.flakeRepo)

	flakes, err := it.flakeRepo.DiscoverFlakes(ctx, settings.RepoDir, settings.ExcludePatterns)
	if err != nil {
		return err
	}
	if len(flakes) == 0 {
		logger.Info("No flake files found")
		return nil
	}

	for _, flake := range flakes {
		logger.Infof("Flake: %s", flake.FilePath)
		if len(flake.Inputs) > 0 {
			logger.Infof("  Inputs to update: %s", strings.Join(flake.Inputs, ", "))
		}
		if len(flake.ExcludedInputs) > 0 {
			logger.Infof("  Excluded inputs: %s", strings.Join(flake.ExcludedInputs, ", "))
		}
	}

	updates := entities.BuildInputUpdates(flakes)
	logger.Infof("Planned %d input update(s)", len(updates))
	for _, update := range updates {
		logger.Infof(
			"  %s (branch: %s, files: %s)",
			update.InputName, update.BranchName, strings.Join(update.FlakePaths(), ", "),
		)
	}

	return nil
}
