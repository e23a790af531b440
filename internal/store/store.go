// Package store holds the session: the ordered, in-memory set of contact
// records for one run of the tool, persisted as contacts.csv in the working
// directory between runs.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"carddex/internal/contact"
)

// ErrNotFound is returned when no record matches the given identifier.
var ErrNotFound = errors.New("contact not found")

// Session is the ordered collection of contacts currently loaded. It is
// touched only by the interaction loop, so it carries no locking.
type Session struct {
	contacts []*contact.Contact
	dirty    bool
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// Len returns the number of records.
func (s *Session) Len() int { return len(s.contacts) }

// Dirty reports whether the session changed since the last save.
func (s *Session) Dirty() bool { return s.dirty }

// Contacts returns the records in session order. The slice is a copy; the
// records are shared.
func (s *Session) Contacts() []*contact.Contact {
	return append([]*contact.Contact(nil), s.contacts...)
}

// Add appends a record to the session.
func (s *Session) Add(c *contact.Contact) {
	s.contacts = append(s.contacts, c)
	s.dirty = true
}

// Get returns the record with the exact identifier.
func (s *Session) Get(id string) (*contact.Contact, error) {
	for _, c := range s.contacts {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Resolve finds a record by full identifier or unique prefix, so the CLI can
// accept the short ids shown in listings.
func (s *Session) Resolve(idOrPrefix string) (*contact.Contact, error) {
	if c, err := s.Get(idOrPrefix); err == nil {
		return c, nil
	}
	var found *contact.Contact
	for _, c := range s.contacts {
		if strings.HasPrefix(c.ID, idOrPrefix) {
			if found != nil {
				return nil, fmt.Errorf("ambiguous id prefix %q", idOrPrefix)
			}
			found = c
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	}
	return found, nil
}

// Update replaces the stored record that shares the given record's ID.
func (s *Session) Update(c *contact.Contact) error {
	for i, existing := range s.contacts {
		if existing.ID == c.ID {
			s.contacts[i] = c
			s.dirty = true
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, c.ID)
}

// Remove deletes the record with the given ID.
func (s *Session) Remove(id string) error {
	for i, c := range s.contacts {
		if c.ID == id {
			s.contacts = append(s.contacts[:i], s.contacts[i+1:]...)
			s.dirty = true
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Search filters records by query: substring match across every structured
// field first, then fuzzy match as a fallback so OCR typos still find their
// card. An empty query returns everything.
func (s *Session) Search(query string) []*contact.Contact {
	if query == "" {
		return s.Contacts()
	}
	needle := strings.ToLower(query)

	var out []*contact.Contact
	for _, c := range s.contacts {
		if strings.Contains(strings.ToLower(haystack(c)), needle) {
			out = append(out, c)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, c := range s.contacts {
		if fuzzy.MatchNormalizedFold(query, haystack(c)) {
			out = append(out, c)
		}
	}
	return out
}

func haystack(c *contact.Contact) string {
	parts := make([]string, 0, len(contact.Fields))
	for _, f := range contact.Fields {
		if v := c.Get(f); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
