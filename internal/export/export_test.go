package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"carddex/internal/contact"
)

func sampleContacts() []*contact.Contact {
	a := contact.New()
	a.FirstName = "Jane"
	a.LastName = "Doe"
	a.Company = "Acme Corp"
	a.JobTitle = "Senior Engineer"
	a.Email = "jane@acme.com"
	a.MobilePhone = "(555) 123-4567"
	a.RawText = "Jane Doe Acme Corp"

	b := contact.New()
	b.SetFullName("John Smith")

	return []*contact.Contact{a, b}
}

func TestWriteCSVHeaderOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleContacts()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if got, want := lines[0], strings.Join(Columns, ","); got != want {
		t.Fatalf("header = %q, want %q", got, want)
	}
	if !strings.HasPrefix(lines[1], "Jane,Doe,Acme Corp,") {
		t.Fatalf("first row = %q", lines[1])
	}
}

func TestCSVRoundTrip(t *testing.T) {
	contacts := sampleContacts()
	// Multiline raw text must survive CSV quoting.
	contacts[0].RawText = "Jane Doe\nAcme Corp\njane@acme.com"

	var buf bytes.Buffer
	if err := WriteCSV(&buf, contacts); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	back, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(back) != len(contacts) {
		t.Fatalf("round trip returned %d records, want %d", len(back), len(contacts))
	}
	for i, want := range contacts {
		got := back[i]
		for _, f := range contact.Fields {
			if got.Get(f) != want.Get(f) {
				t.Errorf("record %d field %s = %q, want %q", i, f, got.Get(f), want.Get(f))
			}
		}
		if got.RawText != want.RawText {
			t.Errorf("record %d raw text = %q, want %q", i, got.RawText, want.RawText)
		}
	}
}

func TestWriteCSVIdempotent(t *testing.T) {
	contacts := sampleContacts()
	var first, second bytes.Buffer
	if err := WriteCSV(&first, contacts); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if err := WriteCSV(&second, contacts); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Fatalf("two exports of an unmodified session differ")
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleContacts()); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Contacts")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "First Name" || rows[1][0] != "Jane" {
		t.Fatalf("unexpected sheet content: %v", rows[:2])
	}
}

func TestToFilePicksFormatByExtension(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "out.csv")
	if err := ToFile(csvPath, sampleContacts()); err != nil {
		t.Fatalf("ToFile(csv) error = %v", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "First Name,") {
		t.Fatalf("csv output starts with %q", string(data[:20]))
	}

	xlsxPath := filepath.Join(dir, "out.xlsx")
	if err := ToFile(xlsxPath, sampleContacts()); err != nil {
		t.Fatalf("ToFile(xlsx) error = %v", err)
	}
	// XLSX is a zip container.
	data, err = os.ReadFile(xlsxPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 4 || data[0] != 'P' || data[1] != 'K' {
		t.Fatalf("xlsx output is not a zip archive")
	}
}

func TestToFileUnwritableTarget(t *testing.T) {
	err := ToFile(filepath.Join(t.TempDir(), "missing", "out.csv"), sampleContacts())
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("error = %v, want ErrWrite", err)
	}
}
