package entities

import "github.com/spf13/cobra"

// ControllerBind carries the Cobra metadata one controller binds under.
type ControllerBind struct {
	Use   string
	Short string
	Long  string
}

// Controller is implemented by every CLI controller wired into the root
// command. Execute errors propagate to main for the process exit code.
type Controller interface {
	GetBind() ControllerBind
	Execute(cmd *cobra.Command, args []string) error
}
