package render

import (
	"log/slog"

	"github.com/rajinweb/contract-esign-sub000/internal/fields"
	"github.com/rajinweb/contract-esign-sub000/pkg/layout"
)

const (
	textPadding   = 5.0
	maxTextSize   = 14.0
	textSizeRatio = 0.6
	checkRatio    = 0.7
	// approximate cap height of Helvetica as a fraction of the font size
	capHeight = 0.7
)

var (
	textColor  = Color{R: 0, G: 0, B: 0}
	checkColor = Color{R: 26, G: 115, B: 232}
)

// Placed is a field whose box has been mapped into displayed page space
// (bottom-left origin, points).
type Placed struct {
	Field fields.Field
	Box   layout.Rect
	// Picture holds a pre-decoded image for image-bearing fields. When nil
	// and DecodeErr is nil the value is decoded on demand.
	Picture   *Picture
	DecodeErr error
}

// Place maps a field's editor geometry onto a page of the given displayed
// size using the viewport captured with the field.
func Place(f fields.Field, page layout.Size) layout.Rect {
	tr := layout.Transform{Page: page, Zoom: 1}
	if vp := f.Viewport; vp != nil {
		tr.Element = layout.Rect{Width: vp.Width, Height: vp.Height}
		if vp.Zoom > 0 {
			tr.Zoom = vp.Zoom
		}
	}
	return tr.ToPDF(layout.Rect{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height})
}

// FieldRenderer draws field values onto pages.
type FieldRenderer struct {
	fonts  Fonts
	logger *slog.Logger
}

// NewFieldRenderer creates a FieldRenderer using the given fonts.
func NewFieldRenderer(fonts Fonts, logger *slog.Logger) *FieldRenderer {
	return &FieldRenderer{fonts: fonts, logger: logger}
}

// Draw renders one field onto c. Failures are logged and the field is
// skipped; Draw never aborts the surrounding render. Callers must not draw
// the same field twice in one pass.
func (r *FieldRenderer) Draw(c Canvas, p Placed) {
	f := p.Field

	switch {
	case f.Type == fields.Text || f.Type == fields.Date:
		r.drawText(c, p)
	case f.Type == fields.Checkbox:
		r.drawCheck(c, p)
	case f.Type.IsImage():
		r.drawImage(c, p)
	default:
		r.logger.Warn("skipping field of unknown type", "field_id", f.ID, "type", f.Type)
	}
}

func (r *FieldRenderer) drawText(c Canvas, p Placed) {
	value := string(p.Field.Value)
	if value == "" {
		return
	}

	box := p.Box
	style := TextStyle{
		Font:  r.fonts.Regular,
		Size:  min(box.Height*textSizeRatio, maxTextSize),
		Color: textColor,
	}
	if style.Size <= 0 {
		return
	}

	text := truncate(c, value, style, box.Width-textPadding)
	if text == "" {
		return
	}

	origin := layout.Point{
		X: box.X + textPadding,
		Y: box.Y + (box.Height-style.Size*capHeight)/2,
	}

	r.place(c, origin, func(native layout.Point, angle float64) {
		c.DrawText(text, native, style, angle)
	})
}

func (r *FieldRenderer) drawCheck(c Canvas, p Placed) {
	if !p.Field.Checked() {
		return
	}

	box := p.Box
	style := TextStyle{
		Font:  r.fonts.Bold,
		Size:  min(box.Width, box.Height) * checkRatio,
		Color: checkColor,
	}
	if style.Size <= 0 {
		return
	}

	center := box.Center()
	origin := layout.Point{
		X: center.X - c.TextWidth("X", style)/2,
		Y: center.Y - style.Size*capHeight/2,
	}

	r.place(c, origin, func(native layout.Point, angle float64) {
		c.DrawText("X", native, style, angle)
	})
}

func (r *FieldRenderer) drawImage(c Canvas, p Placed) {
	f := p.Field
	if f.Value == "" {
		return
	}

	pic, err := p.Picture, p.DecodeErr
	if pic == nil && err == nil {
		pic, err = DecodeDataURI(string(f.Value))
	}
	if err != nil {
		r.logger.Warn("skipping image field", "field_id", f.ID, "type", f.Type, "error", err)
		return
	}

	w, h := contain(pic.Width, pic.Height, p.Box.Width, p.Box.Height)
	if w <= 0 || h <= 0 {
		return
	}

	var drawErr error
	r.place(c, p.Box.Center(), func(native layout.Point, angle float64) {
		drawErr = c.DrawImage(pic, native, w, h, angle)
	})

	if drawErr != nil {
		r.logger.Warn("skipping image field", "field_id", f.ID, "type", f.Type, "error", drawErr)
	}
}

// place maps an anchor from displayed space into the canvas's unrotated
// space. Content is turned by the page rotation so it reads upright once a
// viewer applies /Rotate.
func (r *FieldRenderer) place(c Canvas, anchor layout.Point, draw func(layout.Point, float64)) {
	rotation := layout.NormalizeRotation(c.Rotation())
	native := layout.ToNative(anchor, c.Size(), rotation)
	draw(native, float64(rotation))
}

func truncate(c Canvas, text string, style TextStyle, maxWidth float64) string {
	if maxWidth <= 0 {
		return ""
	}

	runes := []rune(text)
	for len(runes) > 0 && c.TextWidth(string(runes), style) > maxWidth {
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}

// contain scales an image of w x h pixels to fit inside a box, keeping its
// aspect ratio.
func contain(w, h int, boxW, boxH float64) (float64, float64) {
	if w <= 0 || h <= 0 || boxW <= 0 || boxH <= 0 {
		return 0, 0
	}
	scale := min(boxW/float64(w), boxH/float64(h))
	return float64(w) * scale, float64(h) * scale
}
