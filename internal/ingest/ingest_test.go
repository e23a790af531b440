package ingest

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func grayImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	return img
}

func TestReadPNG(t *testing.T) {
	data := encodePNG(t, grayImage(6, 4))
	pages, err := Read(writeFile(t, "card.png", data))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	p := pages[0]
	if p.Index != 0 || p.MIME != "image/png" {
		t.Fatalf("page = index %d mime %q", p.Index, p.MIME)
	}
	if !bytes.Equal(p.Encoded, data) {
		t.Fatalf("encoded bytes should pass through unchanged")
	}
	if got := p.Image.Bounds(); got.Dx() != 6 || got.Dy() != 4 {
		t.Fatalf("bounds = %v", got)
	}
}

func TestReadTrustsDecoderOverExtension(t *testing.T) {
	// A PNG mislabeled as .jpg still decodes, and the reported content type
	// follows the actual format.
	data := encodePNG(t, grayImage(2, 2))
	pages, err := Read(writeFile(t, "mislabeled.jpg", data))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if pages[0].MIME != "image/png" {
		t.Fatalf("mime = %q, want image/png", pages[0].MIME)
	}
}

func TestReadUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "card.txt", []byte("not an image"))
	if _, err := Read(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "gone.png")); !errors.Is(err, ErrIO) {
		t.Fatalf("error = %v, want ErrIO", err)
	}
}

func TestReadCorruptImage(t *testing.T) {
	// A known raster extension with undecodable content is a per-card
	// condition, distinct from an unknown format.
	path := writeFile(t, "broken.png", []byte("\x89PNG but not really"))
	_, err := Read(path)
	if !errors.Is(err, ErrCorruptImage) {
		t.Fatalf("error = %v, want ErrCorruptImage", err)
	}
	if errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("corrupt content must not classify as an unsupported format")
	}
}

func TestPagePNGReencodes(t *testing.T) {
	img := grayImage(3, 3)
	p := Page{Index: 0, Image: img}
	data, err := p.PNG()
	if err != nil {
		t.Fatalf("PNG() error = %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("re-encoded page does not decode: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Fatalf("bounds changed: %v", decoded.Bounds())
	}
}

// buildGrayPDF assembles a minimal scanned-card PDF: a catalog, a page tree,
// and per page one flate-compressed 8-bit grayscale image XObject.
func buildGrayPDF(t *testing.T, pageCount, w, h int) []byte {
	t.Helper()

	var samples []byte
	for i := 0; i < w*h; i++ {
		samples = append(samples, byte(i*7))
	}
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(samples); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [")
	for i := 0; i < pageCount; i++ {
		fmt.Fprintf(&buf, "%d 0 R ", 3+i)
	}
	fmt.Fprintf(&buf, "] /Count %d >>\nendobj\n", pageCount)

	imgObj := 3 + pageCount
	for i := 0; i < pageCount; i++ {
		fmt.Fprintf(&buf,
			"%d 0 obj\n<< /Type /Page /Parent 2 0 R /Resources << /XObject << /Im0 %d 0 R >> >> >>\nendobj\n",
			3+i, imgObj)
	}

	fmt.Fprintf(&buf,
		"%d 0 obj\n<< /Subtype /Image /Width %d /Height %d /BitsPerComponent 8 /ColorSpace /DeviceGray /Filter /FlateDecode /Length %d >>\nstream\n",
		imgObj, w, h, compressed.Len())
	buf.Write(compressed.Bytes())
	buf.WriteString("\nendstream\nendobj\n%%EOF\n")
	return buf.Bytes()
}

func TestReadPDFGrayImage(t *testing.T) {
	path := writeFile(t, "card.pdf", buildGrayPDF(t, 1, 5, 3))
	pages, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	p := pages[0]
	if p.MIME != "" || len(p.Encoded) != 0 {
		t.Fatalf("flate image pages carry no encoded original, got mime %q", p.MIME)
	}
	bounds := p.Image.Bounds()
	if bounds.Dx() != 5 || bounds.Dy() != 3 {
		t.Fatalf("bounds = %v, want 5x3", bounds)
	}
	gray, ok := p.Image.(*image.Gray)
	if !ok {
		t.Fatalf("image type = %T, want *image.Gray", p.Image)
	}
	if gray.Pix[1] != 7 {
		t.Fatalf("sample data corrupted: %v", gray.Pix[:5])
	}
}

func TestReadPDFMultiPage(t *testing.T) {
	path := writeFile(t, "cards.pdf", buildGrayPDF(t, 3, 2, 2))
	pages, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	for i, p := range pages {
		if p.Index != i {
			t.Fatalf("page %d has index %d", i, p.Index)
		}
	}
}

func TestReadPDFJPEGPassthrough(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, img, nil); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	buf.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /Resources << /XObject << /Im0 4 0 R >> >> >>\nendobj\n")
	fmt.Fprintf(&buf,
		"4 0 obj\n<< /Subtype /Image /Width 8 /Height 8 /BitsPerComponent 8 /ColorSpace /DeviceRGB /Filter /DCTDecode /Length %d >>\nstream\n",
		jpg.Len())
	buf.Write(jpg.Bytes())
	buf.WriteString("\nendstream\nendobj\n%%EOF\n")

	pages, err := Read(writeFile(t, "scan.pdf", buf.Bytes()))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	p := pages[0]
	if p.MIME != "image/jpeg" {
		t.Fatalf("mime = %q, want image/jpeg", p.MIME)
	}
	if !bytes.Equal(p.Encoded, jpg.Bytes()) {
		t.Fatalf("embedded jpeg should pass through byte-identical")
	}
}

func TestReadPDFMissingHeader(t *testing.T) {
	path := writeFile(t, "bad.pdf", []byte("this is not a pdf"))
	if _, err := Read(path); !errors.Is(err, ErrBadPDF) {
		t.Fatalf("error = %v, want ErrBadPDF", err)
	}
}

func TestReadPDFNoPages(t *testing.T) {
	data := []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")
	path := writeFile(t, "empty.pdf", data)
	if _, err := Read(path); !errors.Is(err, ErrBadPDF) {
		t.Fatalf("error = %v, want ErrBadPDF", err)
	}
}

func TestReadPDFIgnoresBadLength(t *testing.T) {
	// A stream whose /Length lies: the endstream search recovers the data.
	data := buildGrayPDF(t, 1, 2, 2)
	data = bytes.Replace(data, []byte("/Length "), []byte("/Length 999"), 1)
	path := writeFile(t, "broken-length.pdf", data)
	pages, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
}
