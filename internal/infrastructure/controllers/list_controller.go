package controllers

import (
	"github.com/spf13/cobra"

	"github.com/rios0rios0/update-flake-inputs/internal/domain/commands"
	"github.com/rios0rios0/update-flake-inputs/internal/domain/entities"
)

// ListController handles the "list" subcommand (discovery only).
type ListController struct {
	command commands.List
}

// NewListController creates a new ListController.
func NewListController(command commands.List) *ListController {
	return &ListController{command: command}
}

// GetBind returns the Cobra command metadata for the list controller.
func (it *ListController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "list",
		Short: "List discovered flake files and their inputs",
		Long: `Discover flake.nix files the same way the run command does and
print each file with its updatable and excluded inputs, plus the
update branches a run would use. No branch, commit, or pull
request is created.`,
	}
}

// Execute runs the discovery listing.
func (it *ListController) Execute(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	settings, err := entities.NewSettings(ctx, configPath)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetString("exclude-patterns"); v != "" {
		settings.ExcludePatterns = v
	}

	return it.command.Execute(ctx, settings, commands.ListOptions{
		Verbose: verbose,
	})
}

// AddFlags adds the list-specific flags to the given Cobra command.
func (it *ListController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("exclude-patterns", "",
		"Comma-separated list of glob patterns to exclude flake.nix files")
}
