package ingest

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"regexp"
)

// readPDF extracts one raster image per page from a scanned PDF. It does not
// interpret content streams: scanner output places each page's scan as a
// single image XObject, and that is the only thing a card reader needs.
//
// The object graph is recovered by scanning for "N G obj" markers rather than
// trusting the cross-reference table; scanner firmwares produce enough broken
// xref tables that reconstruction is the more reliable default.
func readPDF(data []byte) ([]Page, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, fmt.Errorf("%w: missing header", ErrBadPDF)
	}
	doc, err := scanObjects(data)
	if err != nil {
		return nil, err
	}
	doc.inflateObjectStreams()

	pageDicts := doc.pages()
	if len(pageDicts) == 0 {
		return nil, fmt.Errorf("%w: no pages found", ErrBadPDF)
	}

	pages := make([]Page, 0, len(pageDicts))
	for idx, pg := range pageDicts {
		page, err := doc.pageImage(idx, pg)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", idx+1, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

type pdfDocument struct {
	objects map[pdfRef]pdfObject
}

var objMarker = regexp.MustCompile(`(?s)(\d{1,10})\s+(\d{1,5})\s+obj\b`)

// scanObjects walks the whole file collecting indirect objects. Later
// definitions win, matching incremental-update semantics.
func scanObjects(data []byte) (*pdfDocument, error) {
	doc := &pdfDocument{objects: make(map[pdfRef]pdfObject)}
	for _, loc := range objMarker.FindAllSubmatchIndex(data, -1) {
		num := parseDecimal(data[loc[2]:loc[3]])
		gen := parseDecimal(data[loc[4]:loc[5]])
		l := &lexer{data: data, pos: loc[1]}
		obj, err := l.parseObject()
		if err != nil {
			// Skip unparseable objects; a stray "obj" inside binary data or a
			// corrupt object should not take the whole document down.
			continue
		}
		doc.objects[pdfRef{Num: num, Gen: gen}] = obj
	}
	if len(doc.objects) == 0 {
		return nil, fmt.Errorf("%w: no objects found", ErrBadPDF)
	}
	return doc, nil
}

func parseDecimal(b []byte) int {
	n := 0
	for _, c := range b {
		n = n*10 + int(c-'0')
	}
	return n
}

// inflateObjectStreams decodes /Type /ObjStm streams and registers the
// embedded objects, without overwriting top-level definitions.
func (d *pdfDocument) inflateObjectStreams() {
	found := make(map[pdfRef]pdfObject)
	for _, obj := range d.objects {
		stream, ok := obj.(pdfStream)
		if !ok || stream.Dict.name("Type") != "ObjStm" {
			continue
		}
		data, err := d.decodeStream(stream)
		if err != nil {
			continue
		}
		count, ok1 := d.intValue(stream.Dict["N"])
		first, ok2 := d.intValue(stream.Dict["First"])
		if !ok1 || !ok2 || first < 0 || first > len(data) {
			continue
		}
		header := &lexer{data: data[:first]}
		for i := 0; i < count; i++ {
			header.skipSpace()
			numObj, numInt, err := header.parseNumber()
			if err != nil || !numInt {
				break
			}
			header.skipSpace()
			offObj, offInt, err := header.parseNumber()
			if err != nil || !offInt {
				break
			}
			num, off := int(numObj.(int64)), int(offObj.(int64))
			if off < 0 || first+off > len(data) {
				continue
			}
			body := &lexer{data: data, pos: first + off}
			embedded, err := body.parseObject()
			if err != nil {
				continue
			}
			found[pdfRef{Num: num}] = embedded
		}
	}
	for ref, obj := range found {
		if _, exists := d.objects[ref]; !exists {
			d.objects[ref] = obj
		}
	}
}

// resolve follows indirect references up to a fixed depth.
func (d *pdfDocument) resolve(obj pdfObject) pdfObject {
	for i := 0; i < 32; i++ {
		ref, ok := obj.(pdfRef)
		if !ok {
			return obj
		}
		next, ok := d.objects[ref]
		if !ok {
			// Generation mismatch fallback: scanners sometimes reference gen 0
			// objects that were recovered under another generation.
			next, ok = d.objects[pdfRef{Num: ref.Num}]
			if !ok {
				return nil
			}
		}
		obj = next
	}
	return nil
}

func (d *pdfDocument) dict(obj pdfObject) pdfDict {
	switch v := d.resolve(obj).(type) {
	case pdfDict:
		return v
	case pdfStream:
		return v.Dict
	}
	return nil
}

func (d *pdfDocument) array(obj pdfObject) pdfArray {
	if arr, ok := d.resolve(obj).(pdfArray); ok {
		return arr
	}
	return nil
}

func (d *pdfDocument) intValue(obj pdfObject) (int, bool) {
	switch v := d.resolve(obj).(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func (dict pdfDict) name(key pdfName) pdfName {
	if n, ok := dict[key].(pdfName); ok {
		return n
	}
	return ""
}

// pages walks the catalog's page tree in document order. When no catalog
// survives, any dict with /Type /Page is collected as a fallback.
func (d *pdfDocument) pages() []pdfDict {
	var out []pdfDict
	for _, obj := range d.objects {
		dict, ok := obj.(pdfDict)
		if ok && dict.name("Type") == "Catalog" {
			d.walkPages(dict[pdfName("Pages")], &out, 0)
			if len(out) > 0 {
				return out
			}
		}
	}
	for _, obj := range d.objects {
		if dict, ok := obj.(pdfDict); ok && dict.name("Type") == "Page" {
			out = append(out, dict)
		}
	}
	return out
}

func (d *pdfDocument) walkPages(obj pdfObject, out *[]pdfDict, depth int) {
	if depth > 64 {
		return
	}
	dict := d.dict(obj)
	if dict == nil {
		return
	}
	switch dict.name("Type") {
	case "Pages":
		for _, kid := range d.array(dict[pdfName("Kids")]) {
			d.walkPages(kid, out, depth+1)
		}
	case "Page":
		*out = append(*out, dict)
	}
}

// pageImage picks the largest image XObject on the page (the full-page scan;
// smaller XObjects are logos or stamps) and decodes it.
func (d *pdfDocument) pageImage(index int, page pdfDict) (Page, error) {
	resources := d.dict(page[pdfName("Resources")])
	if resources == nil {
		return Page{}, fmt.Errorf("%w: page has no resources", ErrBadPDF)
	}
	xobjects := d.dict(resources[pdfName("XObject")])
	if xobjects == nil {
		return Page{}, fmt.Errorf("%w: page has no image", ErrBadPDF)
	}

	var best pdfStream
	bestPixels := 0
	for _, obj := range xobjects {
		stream, ok := d.resolve(obj).(pdfStream)
		if !ok || stream.Dict.name("Subtype") != "Image" {
			continue
		}
		w, _ := d.intValue(stream.Dict["Width"])
		h, _ := d.intValue(stream.Dict["Height"])
		if w*h > bestPixels {
			best, bestPixels = stream, w*h
		}
	}
	if bestPixels == 0 {
		return Page{}, fmt.Errorf("%w: page has no image", ErrBadPDF)
	}
	return d.decodeImageStream(index, best)
}

// filterNames normalizes /Filter, which may be a single name or an array.
func (d *pdfDocument) filterNames(dict pdfDict) []pdfName {
	switch v := d.resolve(dict[pdfName("Filter")]).(type) {
	case pdfName:
		return []pdfName{v}
	case pdfArray:
		var names []pdfName
		for _, item := range v {
			if n, ok := d.resolve(item).(pdfName); ok {
				names = append(names, n)
			}
		}
		return names
	}
	return nil
}

func (d *pdfDocument) decodeImageStream(index int, stream pdfStream) (Page, error) {
	filters := d.filterNames(stream.Dict)

	// DCT-encoded pages are complete JPEG files; keep the original bytes so
	// the OCR engine gets them without a lossy re-encode.
	if len(filters) > 0 && filters[len(filters)-1] == "DCTDecode" {
		data := stream.Raw
		for _, f := range filters[:len(filters)-1] {
			if f != "FlateDecode" {
				return Page{}, fmt.Errorf("%w: filter chain %v", ErrBadPDF, filters)
			}
			inflated, err := inflate(data)
			if err != nil {
				return Page{}, err
			}
			data = inflated
		}
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return Page{}, fmt.Errorf("%w: embedded jpeg: %v", ErrBadPDF, err)
		}
		return Page{Index: index, Image: img, Encoded: data, MIME: "image/jpeg"}, nil
	}

	raw := stream.Raw
	for _, f := range filters {
		if f != "FlateDecode" {
			return Page{}, fmt.Errorf("%w: unsupported image filter %s", ErrBadPDF, f)
		}
		inflated, err := inflate(raw)
		if err != nil {
			return Page{}, err
		}
		raw = inflated
	}

	if parms := d.dict(stream.Dict[pdfName("DecodeParms")]); parms != nil {
		unpredicted, err := d.applyPredictor(raw, parms)
		if err != nil {
			return Page{}, err
		}
		raw = unpredicted
	}

	img, err := d.rawToImage(stream.Dict, raw)
	if err != nil {
		return Page{}, err
	}
	return Page{Index: index, Image: img}, nil
}

// rawToImage maps decoded sample data onto a Go image based on the declared
// color space and bit depth.
func (d *pdfDocument) rawToImage(dict pdfDict, data []byte) (image.Image, error) {
	width, _ := d.intValue(dict["Width"])
	height, _ := d.intValue(dict["Height"])
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid image dimensions", ErrBadPDF)
	}
	bpc, _ := d.intValue(dict["BitsPerComponent"])

	switch {
	case len(data) >= width*height*3 && bpc == 8:
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				src := (y*width + x) * 3
				dst := img.PixOffset(x, y)
				img.Pix[dst+0] = data[src+0]
				img.Pix[dst+1] = data[src+1]
				img.Pix[dst+2] = data[src+2]
				img.Pix[dst+3] = 0xff
			}
		}
		return img, nil
	case len(data) >= width*height && bpc == 8:
		img := image.NewGray(image.Rect(0, 0, width, height))
		copy(img.Pix, data[:width*height])
		return img, nil
	case bpc == 1:
		// 1-bit monochrome scans, one row per byte-aligned scanline.
		rowBytes := (width + 7) / 8
		if len(data) < rowBytes*height {
			return nil, fmt.Errorf("%w: truncated 1-bit image", ErrBadPDF)
		}
		img := image.NewGray(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				bit := data[y*rowBytes+x/8] >> (7 - uint(x%8)) & 1
				if bit == 1 {
					img.Pix[y*img.Stride+x] = 0xff
				}
			}
		}
		return img, nil
	}
	return nil, fmt.Errorf("%w: %d bytes for %dx%d/%d-bit image", ErrBadPDF, len(data), width, height, bpc)
}

// applyPredictor reverses PNG row predictors (values 10-15) when DecodeParms
// declares one. TIFF predictor 2 is not seen in scanner output and is
// rejected.
func (d *pdfDocument) applyPredictor(data []byte, parms pdfDict) ([]byte, error) {
	predictor, ok := d.intValue(parms["Predictor"])
	if !ok || predictor <= 1 {
		return data, nil
	}
	if predictor < 10 {
		return nil, fmt.Errorf("%w: unsupported predictor %d", ErrBadPDF, predictor)
	}
	colors, ok := d.intValue(parms["Colors"])
	if !ok {
		colors = 1
	}
	bpc, ok := d.intValue(parms["BitsPerComponent"])
	if !ok {
		bpc = 8
	}
	columns, ok := d.intValue(parms["Columns"])
	if !ok {
		columns = 1
	}
	bpp := (colors*bpc + 7) / 8
	rowLen := (colors*bpc*columns + 7) / 8

	out := make([]byte, 0, len(data))
	prev := make([]byte, rowLen)
	for off := 0; off+rowLen < len(data); off += rowLen + 1 {
		tag := data[off]
		row := append([]byte(nil), data[off+1:off+1+rowLen]...)
		switch tag {
		case 0: // None
		case 1: // Sub
			for i := bpp; i < rowLen; i++ {
				row[i] += row[i-bpp]
			}
		case 2: // Up
			for i := 0; i < rowLen; i++ {
				row[i] += prev[i]
			}
		case 3: // Average
			for i := 0; i < rowLen; i++ {
				left := 0
				if i >= bpp {
					left = int(row[i-bpp])
				}
				row[i] += byte((left + int(prev[i])) / 2)
			}
		case 4: // Paeth
			for i := 0; i < rowLen; i++ {
				left, upLeft := 0, 0
				if i >= bpp {
					left = int(row[i-bpp])
					upLeft = int(prev[i-bpp])
				}
				row[i] += paeth(left, int(prev[i]), upLeft)
			}
		default:
			return nil, fmt.Errorf("%w: bad predictor row tag %d", ErrBadPDF, tag)
		}
		out = append(out, row...)
		prev = row
	}
	return out, nil
}

func paeth(a, b, c int) byte {
	p := a + b - c
	pa, pb, pc := abs(p-a), abs(p-b), abs(p-c)
	switch {
	case pa <= pb && pa <= pc:
		return byte(a)
	case pb <= pc:
		return byte(b)
	default:
		return byte(c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: flate: %v", ErrBadPDF, err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil && len(out) == 0 {
		return nil, fmt.Errorf("%w: flate: %v", ErrBadPDF, err)
	}
	return out, nil
}

// decodeStream inflates a non-image stream (object streams).
func (d *pdfDocument) decodeStream(stream pdfStream) ([]byte, error) {
	data := stream.Raw
	for _, f := range d.filterNames(stream.Dict) {
		if f != "FlateDecode" {
			return nil, fmt.Errorf("%w: unsupported stream filter %s", ErrBadPDF, f)
		}
		inflated, err := inflate(data)
		if err != nil {
			return nil, err
		}
		data = inflated
	}
	return data, nil
}
