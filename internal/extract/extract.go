// Package extract guesses contact fields from raw OCR text. Heuristics are
// expressed as an ordered chain of independent detectors, each responsible
// for one field type; a detector returns its best guess or nothing, and no
// detector failure is fatal. Absent fields are a valid, expected outcome that
// the editor surfaces for user correction.
package extract

import (
	"strings"

	"carddex/internal/contact"
	"carddex/internal/ocr"
)

// Text is the detector input: the raw OCR dump, its cleaned lines, and
// optional positional layout from engines that report bounding boxes.
type Text struct {
	Raw    string
	Lines  []string
	Layout []ocr.TextLine
}

// NewText cleans the raw OCR output into detector input.
func NewText(raw string, layout []ocr.TextLine) Text {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return Text{Raw: raw, Lines: lines, Layout: layout}
}

// Detection is one field guess produced by a detector.
type Detection struct {
	Field contact.Field
	Value string
}

// Detector guesses one field type from the card text.
type Detector interface {
	Name() string
	Detect(t Text) []Detection
}

// Chain runs detectors in order and assembles a contact record. Earlier
// detections win: a later detector never overwrites a field that already has
// a value.
type Chain struct {
	detectors []Detector
}

// NewChain builds a chain from the given detectors, in order.
func NewChain(detectors ...Detector) *Chain {
	return &Chain{detectors: detectors}
}

// DefaultChain returns the standard card detector order. Pattern-anchored
// detectors (email, phone) run before the positional ones (name, company) so
// the positional detectors can rely on their lines being classifiable.
func DefaultChain() *Chain {
	return NewChain(
		EmailDetector{},
		PhoneDetector{},
		NameDetector{},
		TitleDetector{},
		CompanyDetector{},
		WebsiteDetector{},
		AddressDetector{},
	)
}

// Detectors exposes the chain's detectors for inspection and reordering in
// tests.
func (c *Chain) Detectors() []Detector {
	return append([]Detector(nil), c.detectors...)
}

// Run applies the chain to one card's OCR text and returns a fresh contact
// record. The raw text is always retained on the record, even when every
// detector came up empty.
func (c *Chain) Run(t Text) *contact.Contact {
	rec := contact.New()
	rec.Status = contact.StatusOK
	rec.RawText = t.Raw
	c.Apply(t, rec)
	return rec
}

// Apply writes chain detections into an existing record, filling only fields
// that are still empty.
func (c *Chain) Apply(t Text, rec *contact.Contact) {
	for _, d := range c.detectors {
		for _, det := range d.Detect(t) {
			if det.Value == "" {
				continue
			}
			if rec.Get(det.Field) == "" {
				rec.Set(det.Field, det.Value)
			}
		}
	}
}
