// Package commands defines the carddex CLI and wires dependencies for subcommands.
//
// Commands
//
//   - scan      OCR card scans and add them to the session
//   - list      List contacts, optionally filtered
//   - show      Print one contact in full
//   - add       Add a contact by hand
//   - edit      Review and edit contacts interactively
//   - remove    Delete a contact
//   - export    Export contacts as CSV or XLSX
//
// # Implementation
//
// The root command loads configuration and opens the contacts.csv session
// before any subcommand runs, so handlers share one in-memory session that
// is written back when they change it.
package commands
