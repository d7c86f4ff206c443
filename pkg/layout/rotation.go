package layout

// NormalizeRotation reduces a page /Rotate value to 0, 90, 180 or 270.
// Values that are not a multiple of 90 are treated as 0.
func NormalizeRotation(degrees int) int {
	r := ((degrees % 360) + 360) % 360
	if r%90 != 0 {
		return 0
	}
	return r
}

// DisplaySize returns the size a viewer shows for a page whose unrotated
// media box is native and whose /Rotate entry is rotation.
func DisplaySize(native Size, rotation int) Size {
	switch NormalizeRotation(rotation) {
	case 90, 270:
		return Size{Width: native.Height, Height: native.Width}
	default:
		return native
	}
}

// ToNative maps a point in displayed page space (bottom-left origin, page
// rotated clockwise by rotation) onto the page's unrotated space.
func ToNative(p Point, native Size, rotation int) Point {
	switch NormalizeRotation(rotation) {
	case 90:
		return Point{X: native.Width - p.Y, Y: p.X}
	case 180:
		return Point{X: native.Width - p.X, Y: native.Height - p.Y}
	case 270:
		return Point{X: p.Y, Y: native.Height - p.X}
	default:
		return p
	}
}

// ToDisplay is the inverse of ToNative.
func ToDisplay(p Point, native Size, rotation int) Point {
	switch NormalizeRotation(rotation) {
	case 90:
		return Point{X: p.Y, Y: native.Width - p.X}
	case 180:
		return Point{X: native.Width - p.X, Y: native.Height - p.Y}
	case 270:
		return Point{X: native.Height - p.Y, Y: p.X}
	default:
		return p
	}
}
