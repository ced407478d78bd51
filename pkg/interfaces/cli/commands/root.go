package commands

import (
	"github.com/spf13/cobra"
)

var version = "dev"

// NewRootCommand builds the bakeplan command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "bakeplan",
		Short:         "Production and distribution planner for perishable goods",
		Long:          "bakeplan plans production batches, shipments and inventory for a multi-site\nbakery network over a forecast horizon, respecting shelf life, labor and\ntransport capacity.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(NewSolveCommand())
	root.AddCommand(NewValidateCommand())
	return root
}
