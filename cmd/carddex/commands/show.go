package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"carddex/internal/contact"
)

// show <id>: print every field of one contact, including notes and card
// image references.
func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one contact in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := session.Resolve(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("ID: %s\n", c.ID)
			for _, f := range contact.Fields {
				fmt.Printf("%s: %s\n", f, c.Get(f))
			}
			if c.Status == contact.StatusFailed {
				fmt.Printf("OCR: failed (%s)\n", c.StatusError)
			}
			for _, n := range c.Notes {
				fmt.Printf("-- note %q --\n%s\n", n.Name, n.Content)
			}
			for _, img := range c.Images {
				fmt.Printf("image %q: %s\n", img.Name, img.Path)
			}
			return nil
		},
	}
}
