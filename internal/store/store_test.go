package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"carddex/internal/contact"
)

func newContact(first, last, company string) *contact.Contact {
	c := contact.New()
	c.FirstName = first
	c.LastName = last
	c.Company = company
	return c
}

func TestSessionAddGetRemove(t *testing.T) {
	s := NewSession()
	if s.Dirty() {
		t.Fatalf("fresh session should be clean")
	}

	c := newContact("Jane", "Doe", "Acme Corp")
	s.Add(c)
	if s.Len() != 1 || !s.Dirty() {
		t.Fatalf("after add: len=%d dirty=%v", s.Len(), s.Dirty())
	}

	got, err := s.Get(c.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != c {
		t.Fatalf("Get() returned a different record")
	}

	if _, err := s.Get("no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Remove(c.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("after remove: len=%d", s.Len())
	}
	if err := s.Remove(c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Remove(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSessionResolvePrefix(t *testing.T) {
	s := NewSession()
	a := contact.New()
	a.ID = "aaaa1111-0000-0000-0000-000000000000"
	b := contact.New()
	b.ID = "aaab2222-0000-0000-0000-000000000000"
	s.Add(a)
	s.Add(b)

	got, err := s.Resolve("aaaa")
	if err != nil {
		t.Fatalf("Resolve(unique prefix) error = %v", err)
	}
	if got != a {
		t.Fatalf("Resolve() returned the wrong record")
	}

	if _, err := s.Resolve("aaa"); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Fatalf("Resolve(ambiguous prefix) error = %v, want ambiguity", err)
	}
	if _, err := s.Resolve("zzzz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resolve(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSessionUpdate(t *testing.T) {
	s := NewSession()
	c := newContact("Jane", "Doe", "")
	s.Add(c)

	edited := c.Clone()
	edited.Company = "Globex"
	if err := s.Update(edited); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ := s.Get(c.ID)
	if got.Company != "Globex" {
		t.Fatalf("update not applied: %q", got.Company)
	}

	stranger := contact.New()
	if err := s.Update(stranger); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestSessionSearch(t *testing.T) {
	s := NewSession()
	s.Add(newContact("Jane", "Doe", "Acme Corp"))
	s.Add(newContact("John", "Smith", "Globex"))

	if got := s.Search(""); len(got) != 2 {
		t.Fatalf("empty query should return everything, got %d", len(got))
	}
	if got := s.Search("acme"); len(got) != 1 || got[0].FirstName != "Jane" {
		t.Fatalf("substring search failed: %+v", got)
	}
	// Fuzzy fallback catches queries with characters dropped by bad OCR.
	if got := s.Search("jne doe"); len(got) != 1 || got[0].FirstName != "Jane" {
		t.Fatalf("fuzzy search failed: %+v", got)
	}
	if got := s.Search("xyzzy"); len(got) != 0 {
		t.Fatalf("expected no match, got %d", len(got))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.csv")

	s := NewSession()
	c := newContact("Jane", "Doe", "Acme Corp")
	c.Email = "jane@acme.com"
	c.RawText = "Jane Doe\nAcme Corp\njane@acme.com"
	c.Status = contact.StatusOK
	c.UpsertNote("OCR", c.RawText)
	c.Images = append(c.Images, contact.CardImage{Name: "front", Path: "card_images/front.png"})
	s.Add(c)

	failed := contact.New()
	failed.MarkFailed(errors.New("engine timeout"))
	s.Add(failed)

	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if s.Dirty() {
		t.Fatalf("save should clear the dirty flag")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("loaded %d records, want 2", loaded.Len())
	}

	got, err := loaded.Get(c.ID)
	if err != nil {
		t.Fatalf("loaded session misses record: %v", err)
	}
	if got.FirstName != "Jane" || got.Email != "jane@acme.com" || got.RawText != c.RawText {
		t.Fatalf("fields lost in round trip: %+v", got)
	}
	if len(got.Notes) != 1 || got.Notes[0].Name != "OCR" {
		t.Fatalf("notes lost in round trip: %+v", got.Notes)
	}
	if len(got.Images) != 1 || got.Images[0].Path != "card_images/front.png" {
		t.Fatalf("images lost in round trip: %+v", got.Images)
	}
	// RFC3339 keeps second precision.
	if got.CreatedAt.Unix() != c.CreatedAt.Unix() {
		t.Fatalf("created timestamp drifted: %v vs %v", got.CreatedAt, c.CreatedAt)
	}

	gotFailed, err := loaded.Get(failed.ID)
	if err != nil {
		t.Fatalf("loaded session misses failed record: %v", err)
	}
	if gotFailed.Status != contact.StatusFailed || gotFailed.StatusError != "engine timeout" {
		t.Fatalf("failure marker lost: %+v", gotFailed)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "contacts.csv"))
	if err != nil {
		t.Fatalf("Load(missing) error = %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("missing file should load an empty session, got %d", s.Len())
	}
}

func TestLoadCorruptNoteCell(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.csv")
	csv := "ID,First Name,Last Name,Company,Job Title,E-mail Address,Mobile Phone,Business Phone,Address,Web Page,Notes Data,Image Data,Raw Text,OCR Status,OCR Error,Created\n" +
		"id-1,Jane,Doe,,,,,,,,not-json,,,ok,,\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got, err := s.Get("id-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.FirstName != "Jane" || len(got.Notes) != 0 {
		t.Fatalf("corrupt note cell should degrade silently: %+v", got)
	}
}
