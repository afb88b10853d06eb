package common

// Color is an RGBA color with float32 channels in linear space.
type Color struct {
	R float32
	G float32
	B float32
	A float32
}

var (
	White = Color{1, 1, 1, 1}
	Black = Color{0, 0, 0, 1}
)

// Luminance returns the Rec. 601 luma of the color.
func (c Color) Luminance() float32 {
	return 0.299*c.R + 0.587*c.G + 0.114*c.B
}

// Scale multiplies the RGB channels by a factor, leaving alpha untouched.
func (c Color) Scale(f float32) Color {
	return Color{c.R * f, c.G * f, c.B * f, c.A}
}

// EqualRGB reports whether two colors have identical RGB channels.
func (c Color) EqualRGB(other Color) bool {
	return c.R == other.R && c.G == other.G && c.B == other.B
}

// Vector4 returns the color as a vector for shader parameter uploads.
func (c Color) Vector4() Vector4 {
	return Vector4{c.R, c.G, c.B, c.A}
}
