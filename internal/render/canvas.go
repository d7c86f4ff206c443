package render

import "github.com/rajinweb/contract-esign-sub000/pkg/layout"

// Color is an RGB triple in the 0-255 range.
type Color struct {
	R, G, B int
}

// Font names a core PDF font family and style ("", "B", "I", "BI").
type Font struct {
	Family string
	Style  string
}

// Fonts are the font handles shared by every field in a render pass.
type Fonts struct {
	Regular Font
	Bold    Font
}

// DefaultFonts uses the Helvetica core font, which needs no embedding.
func DefaultFonts() Fonts {
	return Fonts{
		Regular: Font{Family: "Helvetica"},
		Bold:    Font{Family: "Helvetica", Style: "B"},
	}
}

// TextStyle describes how a run of text is drawn.
type TextStyle struct {
	Font  Font
	Size  float64
	Color Color
}

// Canvas is a single output page. Coordinates are in the page's unrotated
// space with a bottom-left origin; angles are degrees counter-clockwise.
type Canvas interface {
	// Size returns the unrotated page size in points.
	Size() layout.Size
	// Rotation returns the page /Rotate value a viewer applies when displaying it.
	Rotation() int
	TextWidth(text string, style TextStyle) float64
	// DrawText draws text with its baseline starting at origin, rotated about origin.
	DrawText(text string, origin layout.Point, style TextStyle, angle float64)
	// DrawImage draws pic with the given size centered on center, rotated about center.
	DrawImage(pic *Picture, center layout.Point, width, height, angle float64) error
}
