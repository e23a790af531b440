package commands

import (
	"github.com/spf13/cobra"
)

// edit [id]: without an id, start the full interactive session; with one,
// jump straight into editing that record.
func editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit [id]",
		Short: "Review and edit contacts interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return editOne(args[0])
			}
			return runEditor()
		},
	}
}
