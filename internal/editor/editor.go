// Package editor implements the interactive review loop: list the session's
// records, edit fields one record at a time, add manual records, and trigger
// export. It reads commands from an io.Reader and writes to an io.Writer so
// the whole surface is testable without a terminal.
package editor

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"carddex/internal/contact"
	"carddex/internal/store"
)

// State is the editor's interaction state.
type State string

const (
	// StateIdle means the editor is at the top-level prompt.
	StateIdle State = "idle"
	// StateEditing means one record is open for field edits.
	StateEditing State = "editing"
	// StateExporting means an export is in flight.
	StateExporting State = "exporting"
)

// ExportFunc writes the current session to the given path.
type ExportFunc func(path string, contacts []*contact.Contact) error

// SaveFunc persists the session between commands.
type SaveFunc func(*store.Session) error

// Editor drives the interactive session.
type Editor struct {
	session    *store.Session
	in         *bufio.Scanner
	out        io.Writer
	state      State
	export     ExportFunc
	save       SaveFunc
	exportPath string
}

// New builds an editor. export and save may be nil, which disables the
// corresponding commands.
func New(session *store.Session, in io.Reader, out io.Writer, export ExportFunc, save SaveFunc) *Editor {
	return &Editor{
		session: session,
		in:      bufio.NewScanner(in),
		out:     out,
		state:   StateIdle,
		export:  export,
		save:    save,
	}
}

// SetExportPath sets the path used when the export command is given no
// argument.
func (e *Editor) SetExportPath(path string) { e.exportPath = path }

// State returns the current interaction state.
func (e *Editor) State() State { return e.state }

// EditOne opens a single record for editing, persists on save, and returns.
func (e *Editor) EditOne(idOrPrefix string) error {
	c, err := e.session.Resolve(idOrPrefix)
	if err != nil {
		return err
	}
	if updated, saved := e.editRecord(c); saved {
		if err := e.session.Update(updated); err != nil {
			return err
		}
		return e.persist()
	}
	return nil
}

// AddOne creates a blank record, opens it for editing, and persists on save.
func (e *Editor) AddOne() error {
	c := contact.New()
	if updated, saved := e.editRecord(c); saved {
		e.session.Add(updated)
		e.printf("added %s\n", shortID(updated.ID))
		return e.persist()
	}
	return nil
}

// Run processes commands until quit or end of input.
func (e *Editor) Run() error {
	e.printf("carddex: %d contact(s) loaded. Type 'help' for commands.\n", e.session.Len())
	for {
		e.printf("> ")
		line, ok := e.readLine()
		if !ok {
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]
		switch cmd {
		case "help", "h":
			e.printHelp()
		case "list", "ls":
			e.list(strings.Join(args, " "))
		case "show":
			e.show(args)
		case "edit", "e":
			e.editCommand(args)
		case "add", "a":
			e.addCommand()
		case "del", "rm":
			e.deleteCommand(args)
		case "export", "x":
			e.exportCommand(args)
		case "quit", "q", "exit":
			return e.persist()
		default:
			e.printf("unknown command %q\n", cmd)
		}
	}
}

func (e *Editor) printHelp() {
	e.printf(`commands:
  list [query]     list contacts, optionally filtered
  show <id>        print every field of one contact
  edit <id>        edit a contact's fields
  add              create a blank contact and edit it
  del <id>         delete a contact
  export [path]    export to CSV (.csv) or workbook (.xlsx); defaults to the configured path
  quit             save and leave
`)
}

func (e *Editor) list(query string) {
	contacts := e.session.Search(query)
	if len(contacts) == 0 {
		e.printf("no contacts\n")
		return
	}
	w := tabwriter.NewWriter(e.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCOMPANY\tE-MAIL\tPHONE\t")
	for _, c := range contacts {
		marker := ""
		if c.Status == contact.StatusFailed {
			marker = " [ocr failed]"
		}
		fmt.Fprintf(w, "%s\t%s%s\t%s\t%s\t%s\t\n",
			shortID(c.ID), c.FullName(), marker, c.Company, c.Email, c.MobilePhone)
	}
	w.Flush()
}

func (e *Editor) show(args []string) {
	c, ok := e.resolveArg(args)
	if !ok {
		return
	}
	e.printf("ID: %s\n", c.ID)
	for _, f := range contact.Fields {
		e.printf("%s: %s\n", f, c.Get(f))
	}
	if c.Status == contact.StatusFailed {
		e.printf("OCR: failed (%s)\n", c.StatusError)
	}
	for _, n := range c.Notes {
		e.printf("-- note %q --\n%s\n", n.Name, n.Content)
	}
	for _, img := range c.Images {
		e.printf("image %q: %s\n", img.Name, img.Path)
	}
}

func (e *Editor) editCommand(args []string) {
	c, ok := e.resolveArg(args)
	if !ok {
		return
	}
	if updated, saved := e.editRecord(c); saved {
		if err := e.session.Update(updated); err != nil {
			e.printf("error: %v\n", err)
		}
	}
}

func (e *Editor) addCommand() {
	c := contact.New()
	if updated, saved := e.editRecord(c); saved {
		e.session.Add(updated)
		e.printf("added %s\n", shortID(updated.ID))
	}
}

func (e *Editor) deleteCommand(args []string) {
	c, ok := e.resolveArg(args)
	if !ok {
		return
	}
	e.printf("delete %s (%s)? [y/N] ", shortID(c.ID), c.FullName())
	line, _ := e.readLine()
	if strings.EqualFold(strings.TrimSpace(line), "y") {
		if err := e.session.Remove(c.ID); err != nil {
			e.printf("error: %v\n", err)
			return
		}
		e.printf("deleted\n")
	}
}

// editRecord runs the per-record edit loop on a scratch copy. It returns the
// copy and whether the user saved; cancel discards every change.
func (e *Editor) editRecord(c *contact.Contact) (*contact.Contact, bool) {
	e.state = StateEditing
	defer func() { e.state = StateIdle }()

	scratch := c.Clone()
	for {
		e.printf("\nediting %s\n", shortID(scratch.ID))
		for i, f := range contact.Fields {
			e.printf("  %d. %s: %s\n", i+1, f, scratch.Get(f))
		}
		e.printf("field number to edit, 'note <name>', 's' to save, 'c' to cancel\n? ")
		line, ok := e.readLine()
		if !ok {
			return nil, false
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "s":
			return scratch, true
		case line == "c" || line == "q":
			return nil, false
		case strings.HasPrefix(line, "note"):
			name := strings.TrimSpace(strings.TrimPrefix(line, "note"))
			if name == "" {
				name = "General"
			}
			e.printf("%s> ", name)
			content, _ := e.readLine()
			scratch.UpsertNote(name, content)
		default:
			idx, err := strconv.Atoi(line)
			if err != nil || idx < 1 || idx > len(contact.Fields) {
				e.printf("expected a field number between 1 and %d\n", len(contact.Fields))
				continue
			}
			f := contact.Fields[idx-1]
			e.printf("%s> ", f)
			value, _ := e.readLine()
			scratch.Set(f, strings.TrimSpace(value))
		}
	}
}

func (e *Editor) exportCommand(args []string) {
	if e.export == nil {
		e.printf("export is not available\n")
		return
	}
	var path string
	switch {
	case len(args) == 1:
		path = args[0]
	case len(args) == 0 && e.exportPath != "":
		path = e.exportPath
	default:
		e.printf("usage: export [path]\n")
		return
	}
	e.state = StateExporting
	defer func() { e.state = StateIdle }()

	if err := e.export(path, e.session.Contacts()); err != nil {
		// The session stays intact; the user can fix the path and retry.
		e.printf("export failed: %v\n", err)
		return
	}
	e.printf("exported %d contact(s) to %s\n", e.session.Len(), path)
}

func (e *Editor) persist() error {
	if e.save == nil || !e.session.Dirty() {
		return nil
	}
	return e.save(e.session)
}

func (e *Editor) resolveArg(args []string) (*contact.Contact, bool) {
	if len(args) != 1 {
		e.printf("expected a contact id\n")
		return nil, false
	}
	c, err := e.session.Resolve(args[0])
	if err != nil {
		e.printf("error: %v\n", err)
		return nil, false
	}
	return c, true
}

func (e *Editor) readLine() (string, bool) {
	if !e.in.Scan() {
		return "", false
	}
	return e.in.Text(), true
}

func (e *Editor) printf(format string, args ...interface{}) {
	fmt.Fprintf(e.out, format, args...)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
