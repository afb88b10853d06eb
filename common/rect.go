package common

// IntRect is an integer rectangle with exclusive Right/Bottom edges.
type IntRect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Width returns the horizontal extent of the rectangle.
func (r IntRect) Width() int {
	return r.Right - r.Left
}

// Height returns the vertical extent of the rectangle.
func (r IntRect) Height() int {
	return r.Bottom - r.Top
}

// Size returns the rectangle extents as a vector.
func (r IntRect) Size() IntVector2 {
	return IntVector2{X: r.Width(), Y: r.Height()}
}

// IsZero reports whether the rectangle has no area.
func (r IntRect) IsZero() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Contains reports whether another rectangle fits entirely inside this one.
func (r IntRect) Contains(other IntRect) bool {
	return other.Left >= r.Left && other.Right <= r.Right &&
		other.Top >= r.Top && other.Bottom <= r.Bottom
}
