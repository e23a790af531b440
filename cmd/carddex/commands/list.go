package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"carddex/internal/contact"
)

// list [query]: print the session, optionally filtered. OCR failures carry a
// visible marker so they are easy to pick out for manual entry.
func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [query]",
		Short: "List contacts, optionally filtered",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			contacts := session.Search(strings.Join(args, " "))
			if len(contacts) == 0 {
				fmt.Println("no contacts")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCOMPANY\tE-MAIL\tPHONE\t")
			for _, c := range contacts {
				marker := ""
				if c.Status == contact.StatusFailed {
					marker = " [ocr failed]"
				}
				fmt.Fprintf(w, "%s\t%s%s\t%s\t%s\t%s\t\n",
					shortID(c.ID), c.FullName(), marker, c.Company, c.Email, c.MobilePhone)
			}
			return w.Flush()
		},
	}
}
