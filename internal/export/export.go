// Package export serializes a session to CSV (Outlook import schema) or
// XLSX. Column order is fixed; absent fields render as empty cells; running
// the exporter twice on an unmodified session produces identical bytes.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"carddex/internal/contact"
)

// ErrWrite is returned when the destination cannot be created or written.
var ErrWrite = errors.New("cannot write export")

// row is the exported shape of one contact. Field order is the documented
// column order.
type row struct {
	FirstName     string `csv:"First Name"`
	LastName      string `csv:"Last Name"`
	Company       string `csv:"Company"`
	JobTitle      string `csv:"Job Title"`
	Email         string `csv:"E-mail Address"`
	MobilePhone   string `csv:"Mobile Phone"`
	BusinessPhone string `csv:"Business Phone"`
	Address       string `csv:"Address"`
	Website       string `csv:"Web Page"`
	RawText       string `csv:"Raw Text"`
}

// Columns lists the export header in order.
var Columns = []string{
	"First Name", "Last Name", "Company", "Job Title", "E-mail Address",
	"Mobile Phone", "Business Phone", "Address", "Web Page", "Raw Text",
}

func toRow(c *contact.Contact) row {
	return row{
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
	}
}

func (r row) toContact() *contact.Contact {
	return &contact.Contact{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Company:       r.Company,
		JobTitle:      r.JobTitle,
		Email:         r.Email,
		MobilePhone:   r.MobilePhone,
		BusinessPhone: r.BusinessPhone,
		Address:       r.Address,
		Website:       r.Website,
		RawText:       r.RawText,
	}
}

// WriteCSV writes the contacts as CSV with one header row.
func WriteCSV(w io.Writer, contacts []*contact.Contact) error {
	rows := make([]row, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, toRow(c))
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// ReadCSV parses a previously exported CSV back into contact records. Used
// for import and round-trip verification; records get no identifiers.
func ReadCSV(r io.Reader) ([]*contact.Contact, error) {
	var rows []row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	out := make([]*contact.Contact, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toContact())
	}
	return out, nil
}

// WriteXLSX writes the contacts as a single-sheet workbook.
func WriteXLSX(w io.Writer, contacts []*contact.Contact) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Contacts"
	f.SetSheetName("Sheet1", sheet)

	for col, header := range Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
	}
	for i, c := range contacts {
		r := toRow(c)
		values := []string{
			r.FirstName, r.LastName, r.Company, r.JobTitle, r.Email,
			r.MobilePhone, r.BusinessPhone, r.Address, r.Website, r.RawText,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrWrite, err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("%w: %v", ErrWrite, err)
			}
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// ToFile writes the contacts to path, choosing the format from the
// extension: .xlsx gets a workbook, everything else CSV.
func ToFile(path string, contacts []*contact.Contact) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	defer f.Close()

	var werr error
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		werr = WriteXLSX(f, contacts)
	} else {
		werr = WriteCSV(f, contacts)
	}
	if werr != nil {
		return werr
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}
