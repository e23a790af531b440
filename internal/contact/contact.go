// Package contact defines the core record types shared by every stage of the
// pipeline: a Contact is created by the field extractor, corrected through the
// editor, and serialized by the store and exporter.
package contact

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OCRStatus records how a contact's structured fields were obtained.
type OCRStatus string

const (
	// StatusOK means OCR ran and the detector chain produced the fields.
	StatusOK OCRStatus = "ok"
	// StatusFailed means OCR errored or timed out; fields are empty and the
	// record carries the error message for display.
	StatusFailed OCRStatus = "failed"
	// StatusManual means the record was typed in by the user.
	StatusManual OCRStatus = "manual"
)

// Note is a named free-text annotation on a contact. The raw OCR dump is kept
// as a note named "OCR" so the user can re-check bad extractions.
type Note struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// CardImage references a card scan copied into the working directory.
type CardImage struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Contact is one business card's record. All structured fields are optional;
// RawText is always retained even when every detector came up empty.
type Contact struct {
	ID            string
	FirstName     string
	LastName      string
	Company       string
	JobTitle      string
	Email         string
	MobilePhone   string
	BusinessPhone string
	Address       string
	Website       string
	Notes         []Note
	Images        []CardImage
	RawText       string
	Status        OCRStatus
	StatusError   string
	CreatedAt     time.Time
}

// New returns an empty manual contact with a fresh identifier.
func New() *Contact {
	return &Contact{
		ID:        uuid.NewString(),
		Status:    StatusManual,
		CreatedAt: time.Now(),
	}
}

// FullName joins the first and last name, skipping empty parts.
func (c *Contact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// SetFullName splits a display name into first and last name: the first token
// becomes the first name and the final token the last name. A single-token
// name fills only the first name.
func (c *Contact) SetFullName(name string) {
	parts := strings.Fields(name)
	switch {
	case len(parts) == 0:
		c.FirstName, c.LastName = "", ""
	case len(parts) == 1:
		c.FirstName, c.LastName = parts[0], ""
	default:
		c.FirstName = parts[0]
		c.LastName = parts[len(parts)-1]
	}
}

// MarkFailed flags the record as an OCR failure and keeps the error message
// for display in listings.
func (c *Contact) MarkFailed(err error) {
	c.Status = StatusFailed
	if err != nil {
		c.StatusError = err.Error()
	}
}

// UpsertNote replaces the content of the named note, appending a new note if
// none with that name exists.
func (c *Contact) UpsertNote(name, content string) {
	for i := range c.Notes {
		if c.Notes[i].Name == name {
			c.Notes[i].Content = content
			return
		}
	}
	c.Notes = append(c.Notes, Note{Name: name, Content: content})
}

// Clone returns a deep copy so the editor can mutate a scratch record and
// discard it on cancel.
func (c *Contact) Clone() *Contact {
	out := *c
	out.Notes = append([]Note(nil), c.Notes...)
	out.Images = append([]CardImage(nil), c.Images...)
	return &out
}
