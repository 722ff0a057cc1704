package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/mod/semver"

	"github.com/rios0rios0/update-flake-inputs/internal/domain/entities"
	"github.com/rios0rios0/update-flake-inputs/internal/domain/repositories"
)

// minNixVersion is the oldest nix release shipping flake support.
const minNixVersion = "v2.4.0"

// Run is the interface for the run command (batch mode).
type Run interface {
	Execute(ctx context.Context, settings *entities.Settings, opts RunOptions) error
}

// RunOptions holds runtime options for a single run.
type RunOptions struct {
	DryRun  bool
	Verbose bool
}

// RunCommand orchestrates the full flake update flow:
// discover manifests -> update each input in an isolated worktree -> create PRs.
type RunCommand struct {
	flakeRepo       repositories.FlakeRepository
	forgeFactory    repositories.ForgeRepositoryFactory
	worktreeFactory repositories.WorktreeRepositoryFactory
}

// NewRunCommand creates a new RunCommand with the given repositories.
func NewRunCommand(
	flakeRepo repositories.FlakeRepository,
	forgeFactory repositories.ForgeRepositoryFactory,
	worktreeFactory repositories.WorktreeRepositoryFactory,
) *RunCommand {
	return &RunCommand{
		flakeRepo:       flakeRepo,
		forgeFactory:    forgeFactory,
		worktreeFactory: worktreeFactory,
	}
}

// Execute runs the full update cycle using the provided configuration.
func (it *RunCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts RunOptions,
) error {
	if opts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	forge := it.forgeFactory(settings)
	worktree := it.worktreeFactory(settings)

	// Authentication failure is fatal; everything past this point is
	// isolated per input
	if _, err := forge.VerifyAuth(ctx); err != nil {
		return err
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

	logger.Infof("Found %d flake files to process", len(flakes))

	updates := entities.BuildInputUpdates(flakes)

	totalAttempts := 0
	totalErrors := 0
	for _, update := range updates {
		logger.Infof(
			"Processing input %s across %d file(s) (branch: %s)",
			update.InputName, len(update.Flakes), update.BranchName,
		)
		totalAttempts += len(update.Flakes)
		totalErrors += it.processInput(ctx, forge, worktree, update, settings, opts)
	}

	logger.Infof(
		"Completed processing all flake updates: %d attempted, %d errors",
		totalAttempts, totalErrors,
	)
	return nil
}

// processInput updates one input across every manifest that declares it,
// reusing a single branch so the commits aggregate into one pull request.
// Returns the number of failed attempts; a failure on one manifest does not
// stop the remaining ones.
func (it *RunCommand) processInput(
	ctx context.Context,
	forge repositories.ForgeRepository,
	worktree repositories.WorktreeRepository,
	update entities.InputUpdate,
	settings *entities.Settings,
	opts RunOptions,
) int {
	errorCount := 0
	branchEnsured := false

	for _, flake := range update.Flakes {
		logger.Infof(
			"Updating input %s in %s (branch: %s)",
			update.InputName, flake.FilePath, update.BranchName,
		)

		err := worktree.WithWorktree(ctx, update.BranchName, func(worktreeDir string) error {
			if updateErr := it.flakeRepo.UpdateInput(
				ctx, worktreeDir, flake.FilePath, update.InputName,
			); updateErr != nil {
				return updateErr
			}

			changed, stageErr := worktree.StageAll(ctx, worktreeDir)
			if stageErr != nil {
				return stageErr
			}
			if !changed {
				logger.Infof("No changes for input %s in %s", update.InputName, flake.FilePath)
				return nil
			}

			if opts.DryRun {
				logger.Infof(
					"Dry run: would push branch %s and create a pull request for %s",
					update.BranchName, update.InputName,
				)
				return nil
			}

			// The remote branch is created once per input and reused by the
			// remaining manifests so their commits stack on it
			if !branchEnsured {
				if branchErr := forge.CreateBranch(
					ctx, update.BranchName, settings.BaseBranch,
				); branchErr != nil {
					return branchErr
				}
				branchEnsured = true
			}

			message := commitMessage(update.InputName, flake)
			if pushErr := worktree.CommitAndPush(
				ctx, worktreeDir, update.BranchName, message,
			); pushErr != nil {
				return pushErr
			}

			return forge.CreatePullRequest(ctx, entities.PullRequestInput{
				HeadBranch: update.BranchName,
				BaseBranch: settings.BaseBranch,
				Title:      fmt.Sprintf("Update %s", update.InputName),
				Body:       pullRequestBody(update),
				AutoMerge:  settings.AutoMerge,
			})
		})
		if err != nil {
			logger.Errorf(
				"Failed to update input %s in %s: %v",
				update.InputName, flake.FilePath, err,
			)
			errorCount++
		}
	}

	return errorCount
}

// checkNixVersion warns when the installed nix predates flake support.
func checkNixVersion(ctx context.Context, flakeRepo repositories.FlakeRepository) {
	version, err := flakeRepo.Version(ctx)
	if err != nil {
		logger.Warnf("Could not determine nix version: %v", err)
		return
	}

	logger.Debugf("Using nix version %s", version)

	if semver.Compare("v"+version, minNixVersion) < 0 {
		logger.Warnf(
			"nix %s is older than %s, flake commands may not be available",
			version, strings.TrimPrefix(minNixVersion, "v"),
		)
	}
}

// commitMessage returns the commit message for one manifest's update,
// naming the manifest's directory unless it is the repository root.
func commitMessage(inputName string, flake entities.Flake) string {
	if flake.IsRoot() {
		return fmt.Sprintf("Update %s", inputName)
	}
	return fmt.Sprintf("Update %s in %s", inputName, flake.Dir())
}

// pullRequestBody renders the PR description naming the input and every
// manifest the shared branch may touch.
func pullRequestBody(update entities.InputUpdate) string {
	paths := update.FlakePaths()
	for i := range paths {
		paths[i] = "`" + paths[i] + "`"
	}

	return fmt.Sprintf(
		"This PR updates the `%s` input in %s.\n\nGenerated by update-flake-inputs action.",
		update.InputName, strings.Join(paths, ", "),
	)
}

// DetectRepository resolves the owner/repo pair from the origin remote of
// the repository at repoDir.
func DetectRepository(repoDir string) (entities.Repository, error) {
	repo, err := git.PlainOpenWithOptions(repoDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return entities.Repository{}, fmt.Errorf("failed to open git repository at %s: %w", repoDir, err)
	}

	remote, remoteErr := repo.Remote(git.DefaultRemoteName)
	if remoteErr != nil {
		return entities.Repository{}, fmt.Errorf("failed to resolve origin remote: %w", remoteErr)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return entities.Repository{}, errors.New("origin remote has no URL")
	}

	return parseRemoteURL(urls[0])
}

// parseRemoteURL extracts the owner/repo pair from an HTTP(S) or SSH remote URL.
func parseRemoteURL(rawURL string) (entities.Repository, error) {
	cleaned := strings.TrimSuffix(rawURL, ".git")

	var pathPart string
	switch {
	case strings.Contains(cleaned, "://"):
		parsed, err := url.Parse(cleaned)
		if err != nil {
			return entities.Repository{}, fmt.Errorf("invalid remote URL %q: %w", rawURL, err)
		}
		pathPart = strings.TrimPrefix(parsed.Path, "/")
	case strings.Contains(cleaned, ":"):
		// scp-like syntax: git@host:owner/repo
		_, after, _ := strings.Cut(cleaned, ":")
		pathPart = strings.TrimPrefix(after, "/")
	default:
		return entities.Repository{}, fmt.Errorf("unsupported remote URL: %q", rawURL)
	}

	segments := strings.Split(pathPart, "/")
	if len(segments) < 2 { //nolint:mnd // need owner + repo
		return entities.Repository{}, fmt.Errorf("cannot extract owner/repo from remote URL: %q", rawURL)
	}

	// The server may host repositories under a sub-path, keep the last two segments
	return entities.Repository{
		Owner: segments[len(segments)-2],
		Name:  segments[len(segments)-1],
	}, nil
}
