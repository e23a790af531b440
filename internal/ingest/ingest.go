// Package ingest turns a file path into an ordered sequence of raster card
// images. Single raster files produce one page; PDFs produce one page per
// embedded page image.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupportedFormat is returned when the file is neither a known
	// raster format nor a PDF.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrIO is returned when the file cannot be read.
	ErrIO = errors.New("cannot read file")
	// ErrCorruptImage is returned when a file with a known raster extension
	// does not decode. Callers treat it as a per-card recognition failure:
	// the card still gets an editable record, flagged for manual entry.
	ErrCorruptImage = errors.New("unreadable image data")
	// ErrBadPDF is returned when a PDF cannot be parsed or carries no usable
	// page images.
	ErrBadPDF = errors.New("malformed or unsupported pdf")
)

// Page is one raster card image extracted from an input file.
type Page struct {
	// Index is the zero-based page number within the source file.
	Index int
	// Image is the decoded raster.
	Image image.Image
	// Encoded holds the original encoded bytes when the source already was a
	// self-contained format (JPEG pages in scanned PDFs, plain image files).
	// Empty when only the decoded raster is available.
	Encoded []byte
	// MIME is the content type of Encoded; empty when Encoded is empty.
	MIME string
}

// PNG returns the page encoded as PNG, re-encoding only when the original
// bytes are not already PNG.
func (p Page) PNG() ([]byte, error) {
	if p.MIME == "image/png" && len(p.Encoded) > 0 {
		return p.Encoded, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, p.Image); err != nil {
		return nil, fmt.Errorf("encode page %d: %w", p.Index, err)
	}
	return buf.Bytes(), nil
}

var rasterExts = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// Read loads the file at path and returns its card pages in order.
func Read(path string) ([]Page, error) {
	ext := strings.ToLower(filepath.Ext(path))
	_, isRaster := rasterExts[ext]
	if !isRaster && ext != ".pdf" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	if ext == ".pdf" {
		pages, err := readPDF(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return pages, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrCorruptImage, path, err)
	}
	// Trust the decoder over the extension for the content type, so a
	// mislabeled file is passed through with the format it actually has.
	mime := "image/" + format
	return []Page{{Index: 0, Image: img, Encoded: data, MIME: mime}}, nil
}
