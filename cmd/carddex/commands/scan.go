package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"carddex/internal/contact"
)

// scan <files...>: run the OCR pipeline over card files and add the results
// to the session. Per-card failures are reported and skipped; the batch
// continues.
func scanCmd() *cobra.Command {
	var noEdit bool
	cmd := &cobra.Command{
		Use:   "scan <file>...",
		Short: "Scan card images or PDFs into contacts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}

			outcomes := p.ProcessBatch(cmd.Context(), args)
			var added, failed, skipped int
			for _, out := range outcomes {
				if out.Err != nil {
					fmt.Printf("%s: skipped (%v)\n", out.Path, out.Err)
					skipped++
					continue
				}
				session.Add(out.Contact)
				added++
				if out.Contact.Status == contact.StatusFailed {
					fmt.Printf("%s: OCR failed (%s), added empty record %s\n",
						out.Path, out.Contact.StatusError, shortID(out.Contact.ID))
					failed++
					continue
				}
				fmt.Printf("%s: %s %s\n", out.Path, shortID(out.Contact.ID), describe(out.Contact))
			}

			if added > 0 {
				if err := saveSession(); err != nil {
					return err
				}
			}
			fmt.Printf("scanned %d file(s): %d added (%d need attention), %d skipped\n",
				len(args), added, failed, skipped)

			if noEdit || added == 0 {
				return nil
			}
			fmt.Println("review the new contacts:")
			return runEditor()
		},
	}
	cmd.Flags().BoolVar(&noEdit, "no-edit", false, "skip the interactive review after scanning")
	return cmd
}

func describe(c *contact.Contact) string {
	name := c.FullName()
	if name == "" {
		name = "(no name)"
	}
	out := name
	if c.Company != "" {
		out += ", " + c.Company
	}
	if c.Email != "" {
		out += ", " + c.Email
	}
	return out
}
