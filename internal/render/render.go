// Package render produces signed PDF artifacts: it overlays field values on
// the source pages and appends an audit certificate.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"golang.org/x/sync/errgroup"

	"github.com/rajinweb/contract-esign-sub000/internal/fields"
)

// Renderer overlays fields onto source PDFs.
type Renderer struct {
	fields   *FieldRenderer
	audit    *Composer
	workers  int
	compress bool
	producer string
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Renderer.
func New(cfg Config, logger *slog.Logger) *Renderer {
	logger = logger.With("system", "render")
	fonts := DefaultFonts()

	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	return &Renderer{
		fields:   NewFieldRenderer(fonts, logger),
		audit:    NewComposer(fonts, logger),
		workers:  workers,
		compress: cfg.CompressEnabled(),
		producer: cfg.Producer,
		logger:   logger,
		now:      time.Now,
	}
}

type decoded struct {
	pic *Picture
	err error
}

// Render draws every field onto its page of src and, when cert is non-nil,
// appends the audit page. Fields whose page does not exist, whose type is
// unknown, or whose image cannot be decoded are logged and skipped.
func (r *Renderer) Render(ctx context.Context, src []byte, list []fields.Field, cert *Certificate) (out []byte, err error) {
	pages, err := Inspect(src)
	if err != nil {
		return nil, err
	}

	pictures, err := r.decodeImages(ctx, list)
	if err != nil {
		return nil, err
	}

	byPage := make(map[int][]int, len(pages))
	for i, f := range list {
		if f.PageNumber < 1 || f.PageNumber > len(pages) {
			r.logger.Warn("skipping field on missing page",
				"field_id", f.ID,
				"page", f.PageNumber,
				"page_count", len(pages),
			)
			continue
		}
		byPage[f.PageNumber] = append(byPage[f.PageNumber], i)
	}

	// the page importer panics on malformed object streams
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrImport, rec)
		}
	}()

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCompression(r.compress)
	pdf.SetProducer(r.producer, false)
	pdf.SetCreationDate(r.now())
	translate := pdf.UnicodeTranslatorFromDescriptor("")

	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(src))
	registered := make(map[string]bool)

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		size := page.Display()
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: size.Width, Ht: size.Height})

		tpl := importer.ImportPageFromStream(pdf, &rs, page.Number, "/MediaBox")
		importer.UseImportedTemplate(pdf, tpl, 0, 0, size.Width, size.Height)
		if pdf.Err() {
			return nil, fmt.Errorf("%w: page %d: %v", ErrImport, page.Number, pdf.Error())
		}

		canvas := newPDFCanvas(pdf, size, translate, registered)
		for _, i := range byPage[page.Number] {
			d := pictures[i]
			r.fields.Draw(canvas, Placed{
				Field:     list[i],
				Box:       Place(list[i], size),
				Picture:   d.pic,
				DecodeErr: d.err,
			})
		}
	}

	if cert != nil {
		if err := r.audit.Compose(pdf, *cert, translate); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write signed pdf: %w", err)
	}

	return buf.Bytes(), nil
}

// decodeImages decodes image payloads concurrently ahead of drawing. The
// result is indexed like list; decode failures are recorded per field, not
// returned.
func (r *Renderer) decodeImages(ctx context.Context, list []fields.Field) ([]decoded, error) {
	results := make([]decoded, len(list))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, f := range list {
		if !f.Type.IsImage() || f.Value == "" {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pic, err := DecodeDataURI(string(f.Value))
			results[i] = decoded{pic: pic, err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
