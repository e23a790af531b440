package ocr

import "testing"

func TestNewInputAppliesOptions(t *testing.T) {
	in := NewInput("card-1", []byte{1, 2, 3}, ImageFormatPNG,
		WithLanguages("eng", "deu"),
		WithDPI(300),
		WithMetadata(map[string]string{"k": "v"}),
	)
	if in.ID != "card-1" || in.Format != ImageFormatPNG {
		t.Fatalf("input = %+v", in)
	}
	if len(in.Languages) != 2 || in.Languages[0] != "eng" {
		t.Fatalf("languages = %v", in.Languages)
	}
	if in.DPI != 300 {
		t.Fatalf("dpi = %d", in.DPI)
	}
	if in.Metadata["k"] != "v" {
		t.Fatalf("metadata = %v", in.Metadata)
	}
}

func TestTesseractOptions(t *testing.T) {
	in := Input{}
	WithTesseractPSM(6)(&in)
	if got := in.Metadata["tessedit_pageseg_mode"]; got != "6" {
		t.Fatalf("expected PSM to be set, got %q", got)
	}
	WithTesseractWhitelist("ABC")(&in)
	if got := in.Metadata["tessedit_char_whitelist"]; got != "ABC" {
		t.Fatalf("expected whitelist to be set, got %q", got)
	}
}

func TestRegionIsEmpty(t *testing.T) {
	if (Region{Width: 10, Height: 5}).IsEmpty() {
		t.Fatalf("non-degenerate region reported empty")
	}
	if !(Region{Width: 0, Height: 5}).IsEmpty() {
		t.Fatalf("zero-width region not reported empty")
	}
}
