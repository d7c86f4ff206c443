package layout

// Transform converts boxes between viewport pixels and PDF points for one
// page.
//
// Element is the rendered page element rectangle. When it has not been laid
// out yet (zero size) the element is assumed to be the page scaled by Zoom.
type Transform struct {
	Page    Size    `json:"page"`
	Element Rect    `json:"element"`
	Zoom    float64 `json:"zoom"`
}

func (t Transform) scale() (float64, float64) {
	if t.Page.Empty() {
		return 1, 1
	}

	element := t.Element.Size()
	if element.Empty() {
		zoom := t.Zoom
		if zoom <= 0 {
			zoom = 1
		}
		element = t.Page.Scale(zoom)
	}

	return t.Page.Width / element.Width, t.Page.Height / element.Height
}

// ToPDF maps a viewport box onto the page, flipping the y axis. The result is
// clamped inside the page rather than rejected.
func (t Transform) ToPDF(box Rect) Rect {
	sx, sy := t.scale()

	out := Rect{
		X:      box.X * sx,
		Y:      t.Page.Height - (box.Y+box.Height)*sy,
		Width:  box.Width * sx,
		Height: box.Height * sy,
	}

	return out.ClampTo(t.Page)
}

// ToViewport is the inverse of ToPDF for boxes that lie inside the page.
func (t Transform) ToViewport(box Rect) Rect {
	sx, sy := t.scale()

	return Rect{
		X:      box.X / sx,
		Y:      (t.Page.Height - box.Y - box.Height) / sy,
		Width:  box.Width / sx,
		Height: box.Height / sy,
	}
}
