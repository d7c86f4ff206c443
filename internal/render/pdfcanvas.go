package render

import (
	"bytes"

	"codeberg.org/go-pdf/fpdf"

	"github.com/rajinweb/contract-esign-sub000/pkg/layout"
)

// pdfCanvas draws onto the current fpdf page. Imported page templates are
// placed upright at their displayed size, so the canvas reports no rotation.
type pdfCanvas struct {
	pdf        *fpdf.Fpdf
	size       layout.Size
	translate  func(string) string
	registered map[string]bool
}

func newPDFCanvas(pdf *fpdf.Fpdf, size layout.Size, translate func(string) string, registered map[string]bool) *pdfCanvas {
	return &pdfCanvas{
		pdf:        pdf,
		size:       size,
		translate:  translate,
		registered: registered,
	}
}

func (c *pdfCanvas) Size() layout.Size {
	return c.size
}

// Rotation is always 0. gofpdi applies the source page's /Rotate when it
// imports the template, and the template is placed upright at the displayed
// size, so fields are drawn in display space.
func (c *pdfCanvas) Rotation() int {
	return 0
}

func (c *pdfCanvas) TextWidth(text string, style TextStyle) float64 {
	c.pdf.SetFont(style.Font.Family, style.Font.Style, style.Size)
	return c.pdf.GetStringWidth(c.translate(text))
}

func (c *pdfCanvas) DrawText(text string, origin layout.Point, style TextStyle, angle float64) {
	c.pdf.SetFont(style.Font.Family, style.Font.Style, style.Size)
	c.pdf.SetTextColor(style.Color.R, style.Color.G, style.Color.B)

	// fpdf measures y from the top of the page
	x, y := origin.X, c.size.Height-origin.Y

	if angle != 0 {
		c.pdf.TransformBegin()
		c.pdf.TransformRotate(angle, x, y)
		defer c.pdf.TransformEnd()
	}

	c.pdf.Text(x, y, c.translate(text))
}

func (c *pdfCanvas) DrawImage(pic *Picture, center layout.Point, width, height, angle float64) error {
	opts := fpdf.ImageOptions{ImageType: pic.Format}

	if !c.registered[pic.Name] {
		c.pdf.RegisterImageOptionsReader(pic.Name, opts, bytes.NewReader(pic.Data))
		if err := c.takeError(); err != nil {
			return err
		}
		c.registered[pic.Name] = true
	}

	cx, cy := center.X, c.size.Height-center.Y

	c.pdf.TransformBegin()
	if angle != 0 {
		c.pdf.TransformRotate(angle, cx, cy)
	}
	c.pdf.ImageOptions(pic.Name, cx-width/2, cy-height/2, width, height, false, opts, 0, "")
	c.pdf.TransformEnd()

	return c.takeError()
}

// takeError returns and clears the document's sticky error so one bad
// field does not poison the rest of the render.
func (c *pdfCanvas) takeError() error {
	if !c.pdf.Err() {
		return nil
	}
	err := c.pdf.Error()
	c.pdf.ClearError()
	return err
}
