// Package tesseract implements the ocr.Engine contract on top of the
// gosseract client. A client is created per recognition call, so the engine
// costs nothing until the first card is processed.
package tesseract

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"carddex/internal/ocr"
)

// Engine is a Tesseract-backed OCR engine.
type Engine struct {
	clientFactory func() *gosseract.Client
}

// New constructs a Tesseract-backed OCR engine.
func New() *Engine {
	return &Engine{clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize performs OCR on a single card image. The blocking native call
// runs in a goroutine so the context deadline is honored; on expiry the
// in-flight client is closed by the goroutine once the call returns.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	type outcome struct {
		res ocr.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		c := e.clientFactory()
		defer c.Close()
		res, err := e.recognizeWithClient(c, in)
		done <- outcome{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return ocr.Result{}, fmt.Errorf("%w: %v", ocr.ErrFailure, ctx.Err())
	case out := <-done:
		return out.res, out.err
	}
}

func (e *Engine) recognizeWithClient(c *gosseract.Client, in ocr.Input) (ocr.Result, error) {
	if err := c.SetImageFromBytes(in.Image); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return ocr.Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if in.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(in.DPI)); err != nil {
			return ocr.Result{}, fmt.Errorf("set dpi: %w", err)
		}
	}
	for k, v := range in.Metadata {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return ocr.Result{}, fmt.Errorf("set variable %s: %w", k, err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("%w: %v", ocr.ErrFailure, err)
	}
	plain := strings.TrimSpace(text)

	words, avgConf := extractWords(c)
	if plain == "" && avgConf < 0.3 {
		return ocr.Result{}, fmt.Errorf("%w: empty output", ocr.ErrFailure)
	}

	return ocr.Result{
		InputID:    in.ID,
		PlainText:  plain,
		Lines:      groupLines(words),
		Confidence: avgConf,
	}, nil
}

func extractWords(c *gosseract.Client) ([]ocr.TextWord, float64) {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil, 0
	}
	words := make([]ocr.TextWord, 0, len(boxes))
	var sum float64
	for _, b := range boxes {
		conf := b.Confidence / 100.0
		sum += conf
		words = append(words, ocr.TextWord{
			Text:       b.Word,
			Bounds:     ocr.Region{X: float64(b.Box.Min.X), Y: float64(b.Box.Min.Y), Width: float64(b.Box.Dx()), Height: float64(b.Box.Dy())},
			Confidence: conf,
		})
	}
	return words, sum / float64(len(words))
}

// groupLines clusters words into lines by vertical-center proximity: two
// words share a line when their centers differ by less than half the taller
// word's height.
func groupLines(words []ocr.TextWord) []ocr.TextLine {
	if len(words) == 0 {
		return nil
	}
	sorted := append([]ocr.TextWord(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci := sorted[i].Bounds.Y + sorted[i].Bounds.Height/2
		cj := sorted[j].Bounds.Y + sorted[j].Bounds.Height/2
		if ci != cj {
			return ci < cj
		}
		return sorted[i].Bounds.X < sorted[j].Bounds.X
	})

	var lines []ocr.TextLine
	var current []ocr.TextWord
	for _, w := range sorted {
		if len(current) == 0 {
			current = []ocr.TextWord{w}
			continue
		}
		last := current[len(current)-1]
		lastCenter := last.Bounds.Y + last.Bounds.Height/2
		center := w.Bounds.Y + w.Bounds.Height/2
		tolerance := math.Max(last.Bounds.Height, w.Bounds.Height) / 2
		if math.Abs(center-lastCenter) <= tolerance {
			current = append(current, w)
			continue
		}
		lines = append(lines, buildLine(current))
		current = []ocr.TextWord{w}
	}
	lines = append(lines, buildLine(current))
	return lines
}

func buildLine(words []ocr.TextWord) ocr.TextLine {
	sort.SliceStable(words, func(i, j int) bool { return words[i].Bounds.X < words[j].Bounds.X })
	parts := make([]string, 0, len(words))
	var sum float64
	for _, w := range words {
		parts = append(parts, w.Text)
		sum += w.Confidence
	}
	return ocr.TextLine{
		Text:       strings.Join(parts, " "),
		Bounds:     mergeBounds(words),
		Words:      words,
		Confidence: sum / float64(len(words)),
	}
}

func mergeBounds(words []ocr.TextWord) ocr.Region {
	if len(words) == 0 {
		return ocr.Region{}
	}
	minX, minY := math.MaxFloat64, math.MaxFloat64
	var maxX, maxY float64
	for _, w := range words {
		minX = math.Min(minX, w.Bounds.X)
		minY = math.Min(minY, w.Bounds.Y)
		maxX = math.Max(maxX, w.Bounds.X+w.Bounds.Width)
		maxY = math.Max(maxY, w.Bounds.Y+w.Bounds.Height)
	}
	return ocr.Region{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
