package layout

import "math"

// SnapRequest describes a drag stop. Y and the page rectangles share the
// absolute document coordinate space of the editor (scroll offset applied,
// y growing downward).
type SnapRequest struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Height       float64 `json:"height"`
	Pages        []Rect  `json:"pages"`
	PreviousPage int     `json:"previousPage"`
}

// SnapResult is the resolved position and owning page (1-based).
type SnapResult struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Page    int     `json:"page"`
	Matched bool    `json:"matched"`
	Snapped bool    `json:"snapped"`
}

// SnapInset keeps a snapped field off the exact page edge so the next
// resolve pass sees it as contained.
const SnapInset = 1.0

// Resolve decides which page owns a field after a drag.
//
// A field contained by a page passes through unchanged. A field crossing a
// page edge is assigned to the page it overlaps most and moved flush to that
// page's nearer edge. When no page overlaps, the previous page and position
// are kept.
func Resolve(req SnapRequest) SnapResult {
	top := req.Y
	bottom := req.Y + req.Height

	for i, p := range req.Pages {
		if top >= p.Y && bottom <= p.Bottom() {
			return SnapResult{X: req.X, Y: req.Y, Page: i + 1, Matched: true}
		}
	}

	best := -1
	bestOverlap := 0.0
	for i, p := range req.Pages {
		overlap := min(bottom, p.Bottom()) - max(top, p.Y)
		if overlap > bestOverlap {
			best = i
			bestOverlap = overlap
		}
	}

	if best < 0 {
		return SnapResult{X: req.X, Y: req.Y, Page: req.PreviousPage}
	}

	p := req.Pages[best]
	return SnapResult{
		X:       req.X,
		Y:       snapY(top, bottom, req.Height, p),
		Page:    best + 1,
		Matched: true,
		Snapped: true,
	}
}

func snapY(top, bottom, height float64, p Rect) float64 {
	// Taller than the page: pin to the top.
	if height+2*SnapInset > p.Height {
		return p.Y + SnapInset
	}

	toTop := math.Abs(top - p.Y)
	toBottom := math.Abs(bottom - p.Bottom())

	if toTop <= toBottom {
		return p.Y + SnapInset
	}
	return p.Bottom() - height - SnapInset
}
