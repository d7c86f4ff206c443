package render

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/rajinweb/contract-esign-sub000/pkg/layout"
)

// letter is used when a page declares no media box.
var letter = layout.Size{Width: 612, Height: 792}

// PageInfo describes one page of a source PDF.
type PageInfo struct {
	Number   int
	Native   layout.Size
	Rotation int
}

// Display returns the size of the page as a viewer shows it.
func (p PageInfo) Display() layout.Size {
	return layout.DisplaySize(p.Native, p.Rotation)
}

// Inspect reads page geometry and rotation from a PDF.
func Inspect(src []byte) ([]PageInfo, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(src), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	pages := make([]PageInfo, 0, ctx.PageCount)
	for n := 1; n <= ctx.PageCount; n++ {
		_, _, inherited, err := ctx.PageDict(n, false)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrInvalidPDF, n, err)
		}

		info := PageInfo{Number: n, Native: letter}
		if inherited != nil {
			if mb := inherited.MediaBox; mb != nil && mb.Width() > 0 && mb.Height() > 0 {
				info.Native = layout.Size{Width: mb.Width(), Height: mb.Height()}
			}
			info.Rotation = layout.NormalizeRotation(inherited.Rotate)
		}
		pages = append(pages, info)
	}

	return pages, nil
}

// PageCount returns the number of pages in a PDF.
func PageCount(src []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(src), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	return count, nil
}
