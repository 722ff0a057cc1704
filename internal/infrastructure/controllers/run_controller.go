package controllers

import (
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/update-flake-inputs/internal/domain/commands"
	"github.com/rios0rios0/update-flake-inputs/internal/domain/entities"
)

// RunController handles the "run" subcommand (batch mode).
type RunController struct {
	command commands.Run
}

// NewRunController creates a new RunController.
func NewRunController(command commands.Run) *RunController {
	return &RunController{command: command}
}

// GetBind returns the Cobra command metadata for the run controller.
func (it *RunController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "run",
		Short: "Update flake inputs and create pull requests",
		Long: `Discover flake.nix files, update each input in an isolated
worktree, and create one pull request per changed input.

This is the main command intended to be used from a scheduled CI
job. It reads the configuration file and environment, discovers
every flake.nix with a sibling flake.lock, attempts to update each
declared input, and pushes an update branch with a pull request
for every input that actually changed.`,
	}
}

// Execute runs the batch update mode.
func (it *RunController) Execute(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	configPath, _ := cmd.Flags().GetString("config")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")

	settings, err := entities.NewSettings(ctx, configPath)
	if err != nil {
		return err
	}

	applyRunFlagOverrides(cmd, settings)

	// Fall back to the origin remote when no repository was configured
	if settings.GiteaRepository == "" {
		if repo, detectErr := commands.DetectRepository(settings.RepoDir); detectErr == nil {
			settings.GiteaRepository = repo.FullName()
			logger.Infof("Detected repository from origin remote: %s", settings.GiteaRepository)
		} else {
			logger.Debugf("Could not detect repository from git remote: %v", detectErr)
		}
	}

	if validateErr := settings.Validate(); validateErr != nil {
		return validateErr
	}

	logger.Info("Starting flake inputs update...")

	return it.command.Execute(ctx, settings, commands.RunOptions{
		DryRun:  dryRun,
		Verbose: verbose,
	})
}

// AddFlags adds the run-specific flags to the given Cobra command.
func (it *RunController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("gitea-url", "",
		"Gitea server URL (defaults to GITEA_URL env var)")
	cmd.Flags().String("gitea-token", "",
		"Gitea authentication token (defaults to GITEA_TOKEN env var)")
	cmd.Flags().String("gitea-repository", "",
		"Repository in format owner/repo (defaults to GITEA_REPOSITORY env var)")
	cmd.Flags().String("exclude-patterns", "",
		"Comma-separated list of glob patterns to exclude flake.nix files")
	cmd.Flags().String("base-branch", "",
		"Base branch to create PRs against (default: main)")
	cmd.Flags().Bool("auto-merge", false,
		"Automatically merge PRs when checks succeed")
}

// applyRunFlagOverrides copies explicitly set CLI flags over the loaded
// settings; flags take precedence over the config file and environment.
func applyRunFlagOverrides(cmd *cobra.Command, settings *entities.Settings) {
	if v, _ := cmd.Flags().GetString("gitea-url"); v != "" {
		settings.GiteaURL = v
	}
	if v, _ := cmd.Flags().GetString("gitea-token"); v != "" {
		settings.GiteaToken = v
	}
	if v, _ := cmd.Flags().GetString("gitea-repository"); v != "" {
		settings.GiteaRepository = v
	}
	if v, _ := cmd.Flags().GetString("exclude-patterns"); v != "" {
		settings.ExcludePatterns = v
	}
	if v, _ := cmd.Flags().GetString("base-branch"); v != "" {
		settings.BaseBranch = v
	}
	if cmd.Flags().Changed("auto-merge") {
		v, _ := cmd.Flags().GetBool("auto-merge")
		settings.AutoMerge = v
	}
}
