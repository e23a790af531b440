// Package pipeline wires the per-card flow: file → page images → OCR →
// detector chain → contact record. Unreadable files abort the card before a
// record exists; unreadable content (a corrupt image, an OCR error) still
// produces a record, flagged for manual entry, so a bad scan never silently
// disappears from the session.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"carddex/internal/contact"
	"carddex/internal/extract"
	"carddex/internal/ingest"
	"carddex/internal/logging"
	"carddex/internal/ocr"
)

// Options carries the OCR knobs and the card-image destination.
type Options struct {
	Languages []string
	DPI       int
	PSM       int
	// Timeout bounds one card's OCR pass; on expiry the card is marked as a
	// recognition failure instead of blocking the run.
	Timeout time.Duration
	// Workers bounds concurrent cards during a batch scan.
	Workers int
	// ImagesDir receives copies of the scanned card images; empty disables
	// copying.
	ImagesDir string
}

// Pipeline processes card files into contact records.
type Pipeline struct {
	engine ocr.Engine
	chain  *extract.Chain
	log    *logging.Logger
	opts   Options
}

// New assembles a pipeline.
func New(engine ocr.Engine, chain *extract.Chain, log *logging.Logger, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Pipeline{engine: engine, chain: chain, log: log.WithComponent("pipeline"), opts: opts}
}

// Outcome is the result of processing one input file.
type Outcome struct {
	Path    string
	Contact *contact.Contact
	// Err is set only when ingestion failed and no record was created; OCR
	// failures are recorded on the contact instead.
	Err error
}

// ProcessFile runs one card through the pipeline. Ingestion errors return
// (nil, err) and add nothing; corrupt image content and OCR errors return a
// record with empty fields and a failure marker.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*contact.Contact, error) {
	log := p.log.WithCard(path)

	pages, err := ingest.Read(path)
	if err != nil {
		if errors.Is(err, ingest.ErrCorruptImage) {
			// The file was selected as a card; corrupt content is a per-card
			// recognition failure, so the user still gets an editable record.
			log.Warn().Err(err).Msg("unreadable card image")
			rec := contact.New()
			rec.MarkFailed(err)
			return rec, nil
		}
		log.Warn().Err(err).Msg("ingest failed")
		return nil, err
	}
	log.Debug().Int("pages", len(pages)).Msg("ingested")

	rec, err := p.recognize(ctx, path, pages[0])
	if err != nil {
		log.Warn().Err(err).Msg("recognition failed")
		rec = contact.New()
		rec.MarkFailed(err)
	} else {
		log.Info().
			Str("name", rec.FullName()).
			Str("email", rec.Email).
			Msg("card extracted")
	}

	if p.opts.ImagesDir != "" {
		if err := p.attachImages(rec, path, pages); err != nil {
			// Image copying is a convenience; its failure must not cost the
			// extracted record.
			log.Warn().Err(err).Msg("could not copy card images")
		}
	}
	return rec, nil
}

func (p *Pipeline) recognize(ctx context.Context, path string, page ingest.Page) (*contact.Contact, error) {
	encoded := page.Encoded
	format := ocr.ImageFormat(page.MIME)
	if len(encoded) == 0 || (format != ocr.ImageFormatPNG && format != ocr.ImageFormatJPEG && format != ocr.ImageFormatTIFF) {
		data, err := page.PNG()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ocr.ErrFailure, err)
		}
		encoded, format = data, ocr.ImageFormatPNG
	}

	input := ocr.NewInput(
		fmt.Sprintf("%s#%d", path, page.Index),
		encoded,
		format,
		ocr.WithLanguages(p.opts.Languages...),
		ocr.WithDPI(p.opts.DPI),
		ocr.WithTesseractPSM(p.opts.PSM),
	)

	ocrCtx := ctx
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ocrCtx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	res, err := p.engine.Recognize(ocrCtx, input)
	if err != nil {
		return nil, err
	}

	rec := p.chain.Run(extract.NewText(res.PlainText, res.Lines))
	if res.PlainText != "" {
		rec.UpsertNote("OCR", res.PlainText)
	}
	return rec, nil
}

// attachImages copies the source file (or saves extracted PDF pages) into the
// card image folder and references the copies on the record.
func (p *Pipeline) attachImages(rec *contact.Contact, path string, pages []ingest.Page) error {
	prefix := rec.ID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}

	if filepath.Ext(path) != ".pdf" {
		name := fmt.Sprintf("img_%s_%s", prefix, filepath.Base(path))
		dst := filepath.Join(p.opts.ImagesDir, name)
		if err := copyFile(path, dst); err != nil {
			return err
		}
		rec.Images = append(rec.Images, contact.CardImage{Name: "Import", Path: dst})
		return nil
	}

	for _, page := range pages {
		data, err := page.PNG()
		if err != nil {
			return err
		}
		name := fmt.Sprintf("doc_%s_%d.png", prefix, page.Index)
		dst := filepath.Join(p.opts.ImagesDir, name)
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return err
		}
		rec.Images = append(rec.Images, contact.CardImage{
			Name: fmt.Sprintf("Import %d", page.Index+1),
			Path: dst,
		})
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

// ProcessBatch runs the pipeline over several files on a bounded worker
// pool. Outcomes preserve input order.
func (p *Pipeline) ProcessBatch(ctx context.Context, paths []string) []Outcome {
	outcomes := make([]Outcome, len(paths))

	type job struct {
		idx  int
		path string
	}
	jobs := make(chan job)

	var wg sync.WaitGroup
	workers := p.opts.Workers
	if workers > len(paths) {
		workers = len(paths)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				rec, err := p.ProcessFile(ctx, j.path)
				outcomes[j.idx] = Outcome{Path: j.path, Contact: rec, Err: err}
			}
		}()
	}

	for i, path := range paths {
		select {
		case <-ctx.Done():
			outcomes[i] = Outcome{Path: path, Err: ctx.Err()}
		case jobs <- job{idx: i, path: path}:
		}
	}
	close(jobs)
	wg.Wait()
	return outcomes
}
