package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// remove <id>: delete a contact after confirmation. --yes skips the prompt
// for scripted use.
func removeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm", "del"},
		Short:   "Delete a contact",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := session.Resolve(args[0])
			if err != nil {
				return err
			}
			if !yes {
				fmt.Printf("delete %s (%s)? [y/N] ", shortID(c.ID), c.FullName())
				line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
				if !strings.EqualFold(strings.TrimSpace(line), "y") {
					fmt.Println("kept")
					return nil
				}
			}
			if err := session.Remove(c.ID); err != nil {
				return err
			}
			fmt.Println("deleted")
			return saveSession()
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
