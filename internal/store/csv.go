package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"carddex/internal/contact"
)

// csvRow is the persisted shape of one contact. Notes and image references
// are JSON cells, matching the Outlook-style flat schema of contacts.csv.
type csvRow struct {
	ID            string `csv:"ID"`
	FirstName     string `csv:"First Name"`
	LastName      string `csv:"Last Name"`
	Company       string `csv:"Company"`
	JobTitle      string `csv:"Job Title"`
	Email         string `csv:"E-mail Address"`
	MobilePhone   string `csv:"Mobile Phone"`
	BusinessPhone string `csv:"Business Phone"`
	Address       string `csv:"Address"`
	Website       string `csv:"Web Page"`
	NotesData     string `csv:"Notes Data"`
	ImageData     string `csv:"Image Data"`
	RawText       string `csv:"Raw Text"`
	Status        string `csv:"OCR Status"`
	StatusError   string `csv:"OCR Error"`
	CreatedAt     string `csv:"Created"`
}

func toRow(c *contact.Contact) csvRow {
	row := csvRow{
		ID:            c.ID,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Company:       c.Company,
		JobTitle:      c.JobTitle,
		Email:         c.Email,
		MobilePhone:   c.MobilePhone,
		BusinessPhone: c.BusinessPhone,
		Address:       c.Address,
		Website:       c.Website,
		RawText:       c.RawText,
		Status:        string(c.Status),
		StatusError:   c.StatusError,
		CreatedAt:     c.CreatedAt.UTC().Format(time.RFC3339),
	}
	if len(c.Notes) > 0 {
		if data, err := json.Marshal(c.Notes); err == nil {
			row.NotesData = string(data)
		}
	}
	if len(c.Images) > 0 {
		if data, err := json.Marshal(c.Images); err == nil {
			row.ImageData = string(data)
		}
	}
	return row
}

func fromRow(row csvRow) *contact.Contact {
	c := &contact.Contact{
		ID:            row.ID,
		FirstName:     row.FirstName,
		LastName:      row.LastName,
		Company:       row.Company,
		JobTitle:      row.JobTitle,
		Email:         row.Email,
		MobilePhone:   row.MobilePhone,
		BusinessPhone: row.BusinessPhone,
		Address:       row.Address,
		Website:       row.Website,
		RawText:       row.RawText,
		Status:        contact.OCRStatus(row.Status),
		StatusError:   row.StatusError,
	}
	if c.Status == "" {
		c.Status = contact.StatusManual
	}
	if row.NotesData != "" {
		// Corrupt cells degrade to an empty list instead of failing the load.
		_ = json.Unmarshal([]byte(row.NotesData), &c.Notes)
	}
	if row.ImageData != "" {
		_ = json.Unmarshal([]byte(row.ImageData), &c.Images)
	}
	if ts, err := time.Parse(time.RFC3339, row.CreatedAt); err == nil {
		c.CreatedAt = ts
	}
	return c
}

// Load reads the session CSV at path. A missing file yields an empty session.
func Load(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewSession(), nil
		}
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer f.Close()

	var rows []csvRow
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, fmt.Errorf("parse session csv: %w", err)
	}
	s := NewSession()
	for _, row := range rows {
		s.contacts = append(s.contacts, fromRow(row))
	}
	return s, nil
}

// Save writes the session CSV atomically: marshal to a temp file in the same
// directory, then rename over the target.
func (s *Session) Save(path string) error {
	rows := make([]csvRow, 0, len(s.contacts))
	for _, c := range s.contacts {
		rows = append(rows, toRow(c))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".contacts-*.csv")
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gocsv.Marshal(&rows, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write session csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session csv: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.dirty = false
	return nil
}
