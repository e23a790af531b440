package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"carddex/internal/contact"
	"carddex/internal/export"
)

// export [-o path]: write the session in Outlook import order. The format
// follows the extension, .xlsx for a workbook and anything else CSV.
func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export contacts as CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := out
			if path == "" {
				path = cfg.ExportPath()
			}
			contacts := session.Contacts()
			if err := export.ToFile(path, contacts); err != nil {
				return err
			}
			fmt.Printf("exported %d contact(s) to %s\n", len(contacts), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "destination file (default from config)")
	return cmd
}

// exportFunc is handed to the editor so its export command writes through
// the same path as the CLI command.
func exportFunc(path string, contacts []*contact.Contact) error {
	return export.ToFile(path, contacts)
}
