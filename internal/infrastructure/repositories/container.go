package repositories

import (
	"github.com/rios0rios0/update-flake-inputs/internal/domain/entities"
	domainRepos "github.com/rios0rios0/update-flake-inputs/internal/domain/repositories"
	gitRepo "github.com/rios0rios0/update-flake-inputs/internal/infrastructure/repositories/git"
	giteaRepo "github.com/rios0rios0/update-flake-inputs/internal/infrastructure/repositories/gitea"
	nixRepo "github.com/rios0rios0/update-flake-inputs/internal/infrastructure/repositories/nix"
	"go.uber.org/dig"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Flake discovery needs no runtime configuration
	if err := container.Provide(nixRepo.NewNixFlakeRepository); err != nil {
		return err
	}

	// Forge and worktree repositories depend on settings resolved from flags
	// at run time, so factories are registered instead of instances
	if err := container.Provide(func() domainRepos.ForgeRepositoryFactory {
		return func(settings *entities.Settings) domainRepos.ForgeRepository {
			return giteaRepo.NewGiteaForgeRepository(
				settings.GiteaURL,
				settings.GiteaToken,
				settings.Repository(),
			)
		}
	}); err != nil {
		return err
	}

	if err := container.Provide(func() domainRepos.WorktreeRepositoryFactory {
		return func(settings *entities.Settings) domainRepos.WorktreeRepository {
			return gitRepo.NewGitWorktreeRepository(
				settings.RepoDir,
				settings.BotName,
				settings.BotEmail,
			)
		}
	}); err != nil {
		return err
	}

	return nil
}
