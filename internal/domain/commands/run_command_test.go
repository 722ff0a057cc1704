//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/update-flake-inputs/internal/domain/commands"
	"github.com/rios0rios0/update-flake-inputs/internal/domain/entities"
	"github.com/rios0rios0/update-flake-inputs/internal/domain/repositories"
	builders "github.com/rios0rios0/update-flake-inputs/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/update-flake-inputs/test/infrastructure/repositorydoubles"
)

func newRunCommand(
	flakeRepo *doubles.SpyFlakeRepository,
	forge *doubles.SpyForgeRepository,
	worktree *doubles.SpyWorktreeRepository,
) *commands.RunCommand {
	return commands.NewRunCommand(
		flakeRepo,
		func(_ *entities.Settings) repositories.ForgeRepository { return forge },
		func(_ *entities.Settings) repositories.WorktreeRepository { return worktree },
	)
}

func TestRunCommandExecute(t *testing.T) {
	t.Parallel()

	t.Run("should create branch, commit, and pull request when input changed", func(t *testing.T) {
		// given
		flakeRepo := &doubles.SpyFlakeRepository{
			Flakes: []entities.Flake{
				builders.NewFlakeBuilder().WithInputs("nixpkgs").BuildFlake(),
			},
		}
		forge := &doubles.SpyForgeRepository{}
		worktree := &doubles.SpyWorktreeRepository{
			StageResults: []doubles.StageResult{{Changed: true}},
		}
		cmd := newRunCommand(flakeRepo, forge, worktree)
		settings := builders.NewSettingsBuilder().BuildSettings()

		// when
		err := cmd.Execute(context.Background(), settings, commands.RunOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, forge.CreatedBranches, 1)
		assert.Equal(t, "update-nixpkgs", forge.CreatedBranches[0].Name)
		assert.Equal(t, "main", forge.CreatedBranches[0].Base)
		require.Len(t, worktree.Commits, 1)
		assert.Equal(t, "update-nixpkgs", worktree.Commits[0].Branch)
		assert.Equal(t, "Update nixpkgs", worktree.Commits[0].Message)
		require.Len(t, forge.PRInputs, 1)
		assert.Equal(t, "Update nixpkgs", forge.PRInputs[0].Title)
		assert.Equal(t, "update-nixpkgs", forge.PRInputs[0].HeadBranch)
		assert.Equal(t, "main", forge.PRInputs[0].BaseBranch)
		assert.Contains(t, forge.PRInputs[0].Body, "`nixpkgs`")
		assert.Contains(t, forge.PRInputs[0].Body, "`flake.nix`")
		assert.False(t, forge.PRInputs[0].AutoMerge)
	})

	t.Run("should not touch the forge when input did not change", func(t *testing.T) {
		// given
		flakeRepo := &doubles.SpyFlakeRepository{
			Flakes: []entities.Flake{
				builders.NewFlakeBuilder().WithInputs("nixpkgs").BuildFlake(),
			},
		}
		forge := &doubles.SpyForgeRepository{}
		worktree := &doubles.SpyWorktreeRepository{
			StageResults: []doubles.StageResult{{Changed: false}},
		}
		cmd := newRunCommand(flakeRepo, forge, worktree)
		settings := builders.NewSettingsBuilder().BuildSettings()

		// when
		err := cmd.Execute(context.Background(), settings, commands.RunOptions{})

		// then
		require.NoError(t, err)
		assert.Len(t, flakeRepo.UpdateCalls, 1)
		assert.Empty(t, forge.CreatedBranches)
		assert.Empty(t, worktree.Commits)
		assert.Empty(t, forge.PRInputs)
	})

	t.Run("should isolate a failing input and continue with the next", func(t *testing.T) {
		// given
		flakeRepo := &doubles.SpyFlakeRepository{
			Flakes: []entities.Flake{
				builders.NewFlakeBuilder().WithInputs("nixpkgs", "home-manager").BuildFlake(),
			},
			UpdateErrs: map[string]error{
				"nixpkgs": errors.New("resolver exploded"),
			},
		}
		forge := &doubles.SpyForgeRepository{}
		worktree := &doubles.SpyWorktreeRepository{
			StageResults: []doubles.StageResult{{Changed: true}},
		}
		cmd := newRunCommand(flakeRepo, forge, worktree)
		settings := builders.NewSettingsBuilder().BuildSettings()

		// when
		err := cmd.Execute(context.Background(), settings, commands.RunOptions{})

		// then
		require.NoError(t, err) // should not fail overall
		assert.Len(t, flakeRepo.UpdateCalls, 2)
		require.Len(t, forge.PRInputs, 1)
		assert.Equal(t, "Update home-manager", forge.PRInputs[0].Title)
	})

	t.Run("should reuse one branch when two manifests share an input", func(t *testing.T) {
		// given
		flakeRepo := &doubles.SpyFlakeRepository{
			Flakes: []entities.Flake{
				builders.NewFlakeBuilder().WithInputs("nixpkgs").BuildFlake(),
				builders.NewFlakeBuilder().
					WithFilePath("apps/flake.nix").
					WithInputs("nixpkgs").
					BuildFlake(),
			},
		}
		forge := &doubles.SpyForgeRepository{}
		worktree := &doubles.SpyWorktreeRepository{
			StageResults: []doubles.StageResult{{Changed: true}, {Changed: true}},
		}
		cmd := newRunCommand(flakeRepo, forge, worktree)
		settings := builders.NewSettingsBuilder().BuildSettings()

		// when
		err := cmd.Execute(context.Background(), settings, commands.RunOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"update-nixpkgs", "update-nixpkgs"}, worktree.AcquiredBranches)
		require.Len(t, forge.CreatedBranches, 1) // branch created once, then reused
		require.Len(t, worktree.Commits, 2)
		assert.Equal(t, "Update nixpkgs", worktree.Commits[0].Message)
		assert.Equal(t, "Update nixpkgs in apps", worktree.Commits[1].Message)
		require.Len(t, forge.PRInputs, 2)
		assert.Equal(t, forge.PRInputs[0].Title, forge.PRInputs[1].Title)
		assert.Contains(t, forge.PRInputs[0].Body, "`flake.nix`")
		assert.Contains(t, forge.PRInputs[0].Body, "`apps/flake.nix`")
	})

	t.Run("should abort before discovery when authentication fails", func(t *testing.T) {
		// given
		flakeRepo := &doubles.SpyFlakeRepository{}
		forge := &doubles.SpyForgeRepository{
			VerifyAuthErr: errors.New("401 unauthorized"),
		}
		worktree := &doubles.SpyWorktreeRepository{}
		cmd := newRunCommand(flakeRepo, forge, worktree)
		settings := builders.NewSettingsBuilder().BuildSettings()

		// when
		err := cmd.Execute(context.Background(), settings, commands.RunOptions{})

		// then
		require.Error(t, err)
		assert.Empty(t, flakeRepo.DiscoverDirectives)
	})

	t.Run("should abort when discovery fails", func(t *testing.T) {
		// given
		flakeRepo := &doubles.SpyFlakeRepository{
			DiscoverErr: &entities.DiscoveryError{Err: errors.New("walk failed")},
		}
		forge := &doubles.SpyForgeRepository{}
		worktree := &doubles.SpyWorktreeRepository{}
		cmd := newRunCommand(flakeRepo, forge, worktree)
		settings := builders.NewSettingsBuilder().BuildSettings()

		// when
		err := cmd.Execute(context.Background(), settings, commands.RunOptions{})

		// then
		require.Error(t, err)
		assert.Equal(t, 0, worktree.StageCalls)
	})

	t.Run("should pass the exclude directive to discovery", func(t *testing.T) {
		// given
		flakeRepo := &doubles.SpyFlakeRepository{}
		forge := &doubles.SpyForgeRepository{}
		worktree := &doubles.SpyWorktreeRepository{}
		cmd := newRunCommand(flakeRepo, forge, worktree)
		settings := builders.NewSettingsBuilder().
			WithExcludePatterns("examples/*,flake.nix#nixpkgs").
			BuildSettings()

		// when
		err := cmd.Execute(context.Background(), settings, commands.RunOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"examples/*,flake.nix#nixpkgs"}, flakeRepo.DiscoverDirectives)
	})

	t.Run("should not create pull requests in dry run mode", func(t *testing.T) {
		// given
		flakeRepo := &doubles.SpyFlakeRepository{
			Flakes: []entities.Flake{
				builders.NewFlakeBuilder().WithInputs("nixpkgs").BuildFlake(),
			},
		}
		forge := &doubles.SpyForgeRepository{}
		worktree := &doubles.SpyWorktreeRepository{
			StageResults: []doubles.StageResult{{Changed: true}},
		}
		cmd := newRunCommand(flakeRepo, forge, worktree)
		settings := builders.NewSettingsBuilder().BuildSettings()

		// when
		err := cmd.Execute(context.Background(), settings, commands.RunOptions{DryRun: true})

		// then
		require.NoError(t, err)
		assert.Len(t, flakeRepo.UpdateCalls, 1) // the update attempt still runs
		assert.Empty(t, forge.CreatedBranches)
		assert.Empty(t, worktree.Commits)
		assert.Empty(t, forge.PRInputs)
	})

	t.Run("should request auto merge when enabled", func(t *testing.T) {
		// given
		flakeRepo := &doubles.SpyFlakeRepository{
			Flakes: []entities.Flake{
				builders.NewFlakeBuilder().WithInputs("nixpkgs").BuildFlake(),
			},
		}
		forge := &doubles.SpyForgeRepository{}
		worktree := &doubles.SpyWorktreeRepository{
			StageResults: []doubles.StageResult{{Changed: true}},
		}
		cmd := newRunCommand(flakeRepo, forge, worktree)
		settings := builders.NewSettingsBuilder().WithAutoMerge(true).BuildSettings()

		// when
		err := cmd.Execute(context.Background(), settings, commands.RunOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, forge.PRInputs, 1)
		assert.True(t, forge.PRInputs[0].AutoMerge)
	})

	t.Run("should not commit when branch creation fails", func(t *testing.T) {
		// given
		flakeRepo := &doubles.SpyFlakeRepository{
			Flakes: []entities.Flake{
				builders.NewFlakeBuilder().WithInputs("nixpkgs").BuildFlake(),
			},
		}
		forge := &doubles.SpyForgeRepository{
			CreateBranchErr: errors.New("base branch missing"),
		}
		worktree := &doubles.SpyWorktreeRepository{
			StageResults: []doubles.StageResult{{Changed: true}},
		}
		cmd := newRunCommand(flakeRepo, forge, worktree)
		settings := builders.NewSettingsBuilder().BuildSettings()

		// when
		err := cmd.Execute(context.Background(), settings, commands.RunOptions{})

		// then
		require.NoError(t, err) // isolated per input
		assert.Empty(t, worktree.Commits)
		assert.Empty(t, forge.PRInputs)
	})

	t.Run("should create nothing on a second run with no further changes", func(t *testing.T) {
		// given
		flakeRepo := &doubles.SpyFlakeRepository{
			Flakes: []entities.Flake{
				builders.NewFlakeBuilder().WithInputs("nixpkgs").BuildFlake(),
			},
		}
		forge := &doubles.SpyForgeRepository{}
		worktree := &doubles.SpyWorktreeRepository{
			StageResults: []doubles.StageResult{{Changed: true}},
		}
		cmd := newRunCommand(flakeRepo, forge, worktree)
		settings := builders.NewSettingsBuilder().BuildSettings()

		// when
		require.NoError(t, cmd.Execute(context.Background(), settings, commands.RunOptions{}))
		err := cmd.Execute(context.Background(), settings, commands.RunOptions{})

		// then
		require.NoError(t, err)
		assert.Len(t, forge.PRInputs, 1) // only the first run created anything
		assert.Len(t, worktree.Commits, 1)
	})

	t.Run("should do nothing when no flake files are found", func(t *testing.T) {
		// given
		flakeRepo := &doubles.SpyFlakeRepository{}
		forge := &doubles.SpyForgeRepository{}
		worktree := &doubles.SpyWorktreeRepository{}
		cmd := newRunCommand(flakeRepo, forge, worktree)
		settings := builders.NewSettingsBuilder().BuildSettings()

		// when
		err := cmd.Execute(context.Background(), settings, commands.RunOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, 0, worktree.StageCalls)
		assert.Empty(t, worktree.AcquiredBranches)
	})
}

func TestCommitMessage(t *testing.T) {
	t.Parallel()

	t.Run("should name only the input for the root manifest", func(t *testing.T) {
		// given
		flake := builders.NewFlakeBuilder().BuildFlake()

		// when
		message := commands.CommitMessage("nixpkgs", flake)

		// then
		assert.Equal(t, "Update nixpkgs", message)
	})

	t.Run("should name the directory for a nested manifest", func(t *testing.T) {
		// given
		flake := builders.NewFlakeBuilder().WithFilePath("services/api/flake.nix").BuildFlake()

		// when
		message := commands.CommitMessage("nixpkgs", flake)

		// then
		assert.Equal(t, "Update nixpkgs in services/api", message)
	})
}

func TestPullRequestBody(t *testing.T) {
	t.Parallel()

	t.Run("should mention the input and every manifest of the group", func(t *testing.T) {
		// given
		update := entities.InputUpdate{
			InputName:  "nixpkgs",
			BranchName: "update-nixpkgs",
			Flakes: []entities.Flake{
				builders.NewFlakeBuilder().BuildFlake(),
				builders.NewFlakeBuilder().WithFilePath("apps/flake.nix").BuildFlake(),
			},
		}

		// when
		body := commands.PullRequestBody(update)

		// then
		assert.Contains(t, body, "`nixpkgs`")
		assert.Contains(t, body, "`flake.nix`")
		assert.Contains(t, body, "`apps/flake.nix`")
	})
}

func TestParseRemoteURL(t *testing.T) {
	t.Parallel()

	t.Run("should parse an https remote", func(t *testing.T) {
		// given
		rawURL := "https://gitea.example.com/owner/repo.git"

		// when
		repo, err := commands.ParseRemoteURL(rawURL)

		// then
		require.NoError(t, err)
		assert.Equal(t, "owner", repo.Owner)
		assert.Equal(t, "repo", repo.Name)
	})

	t.Run("should parse an ssh remote", func(t *testing.T) {
		// given
		rawURL := "git@gitea.example.com:owner/repo.git"

		// when
		repo, err := commands.ParseRemoteURL(rawURL)

		// then
		require.NoError(t, err)
		assert.Equal(t, "owner", repo.Owner)
		assert.Equal(t, "repo", repo.Name)
	})

	t.Run("should keep the last two segments of a sub-path remote", func(t *testing.T) {
		// given
		rawURL := "https://example.com/gitea/owner/repo.git"

		// when
		repo, err := commands.ParseRemoteURL(rawURL)

		// then
		require.NoError(t, err)
		assert.Equal(t, "owner", repo.Owner)
		assert.Equal(t, "repo", repo.Name)
	})

	t.Run("should fail on a URL without owner and repo", func(t *testing.T) {
		// given
		rawURL := "https://gitea.example.com/repo"

		// when
		_, err := commands.ParseRemoteURL(rawURL)

		// then
		require.Error(t, err)
	})
}
