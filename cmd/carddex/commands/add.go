package commands

import (
	"github.com/spf13/cobra"
)

// add: create a blank record through the interactive field editor. The
// record is only kept when the user saves it.
func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add",
		Short: "Add a contact by hand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return newEditor().AddOne()
		},
	}
}
