// Package layout maps field geometry between the editor viewport and PDF
// page space and resolves which page a dragged field belongs to.
//
// Viewport space has its origin at the top-left of the rendered page element
// and is measured in pixels. PDF space has its origin at the bottom-left of
// the page and is measured in points.
package layout

// Size is a width and height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether either dimension is not positive.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Scale returns the size multiplied by factor.
func (s Size) Scale(factor float64) Size {
	return Size{Width: s.Width * factor, Height: s.Height * factor}
}

// Point is a coordinate pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned box. Whether Y addresses the top or the bottom
// edge depends on the space the rectangle lives in.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size returns the rectangle dimensions.
func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Bottom returns Y + Height.
func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// ClampTo fits r fully inside a page of the given size. Dimensions larger
// than the page are reduced to the page size first, then the origin is
// shifted so that no edge leaves the page.
func (r Rect) ClampTo(page Size) Rect {
	r.Width = clamp(r.Width, 0, page.Width)
	r.Height = clamp(r.Height, 0, page.Height)
	r.X = clamp(r.X, 0, page.Width-r.Width)
	r.Y = clamp(r.Y, 0, page.Height-r.Height)
	return r
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
