// Package ocr defines the abstraction layer for plugging OCR engines into the
// card pipeline. The interface is intentionally small and transport-agnostic
// so engines can be backed by native libraries or remote APIs without leaking
// provider-specific concerns into callers.
package ocr

import (
	"context"
	"errors"
)

// ErrFailure is returned when the engine errors or produces empty output with
// low confidence. Callers treat it as a per-card, non-fatal condition.
var ErrFailure = errors.New("ocr recognition failed")

// ImageFormat identifies the content type of an OCR input image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
	ImageFormatTIFF ImageFormat = "image/tiff"
)

// Region describes a rectangular area in pixel coordinates with the origin in
// the upper-left corner of the image.
type Region struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// IsEmpty reports whether the region has non-positive dimensions.
func (r Region) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Input encapsulates a single card image submitted for OCR.
type Input struct {
	// ID is an optional caller-provided identifier that is echoed back in the
	// corresponding Result. The pipeline uses the card's source path plus page
	// index.
	ID string
	// Image is the encoded image payload in the format specified by Format.
	Image []byte
	// Format declares the image content type (e.g., image/png).
	Format ImageFormat
	// DPI carries the effective dots-per-inch for the image. Tesseract uses
	// this for scaling and layout heuristics; zero means unknown.
	DPI int
	// Languages is a list of trained-data codes (e.g., "eng", "deu").
	Languages []string
	// Metadata passes engine-specific knobs (e.g., "tessedit_pageseg_mode")
	// without hard-coding them into the API surface.
	Metadata map[string]string
}

// TextWord represents a single recognized token.
type TextWord struct {
	Text       string
	Bounds     Region
	Confidence float64
}

// TextLine groups words that share a baseline. The field extractor's layout
// heuristics (largest-line name detection) operate on these.
type TextLine struct {
	Text       string
	Bounds     Region
	Words      []TextWord
	Confidence float64
}

// Result captures OCR output for a single card image.
type Result struct {
	// InputID mirrors the Input.ID that produced this result.
	InputID string
	// PlainText contains the linearized text extracted from the image.
	PlainText string
	// Lines carries the structured layout with positional metadata; may be
	// empty for engines without box support.
	Lines []TextLine
	// Confidence is the mean word confidence in [0,1]; zero when unknown.
	Confidence float64
}

// Engine is the OCR provider contract: one image in, one result out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}
