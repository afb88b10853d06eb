package common

import (
	"github.com/chewxy/math32"
)

// Vector2 is a 2D float32 vector.
type Vector2 struct {
	X, Y float32
}

// Vector3 is a 3D float32 vector used for positions, directions and extents.
type Vector3 struct {
	X, Y, Z float32
}

// Vector4 is a 4D float32 vector, used mostly for packed shader constants.
type Vector4 struct {
	X, Y, Z, W float32
}

// Dot returns the dot product of two 4D vectors.
func (v Vector4) Dot(rhs Vector4) float32 {
	return v.X*rhs.X + v.Y*rhs.Y + v.Z*rhs.Z + v.W*rhs.W
}

// IntVector2 is a 2D integer vector used for texture and viewport sizes.
type IntVector2 struct {
	X, Y int
}

// Common axis constants. Shadow cube map faces are aligned to these world axes
// regardless of light rotation.
var (
	Right   = Vector3{1, 0, 0}
	Left    = Vector3{-1, 0, 0}
	Up      = Vector3{0, 1, 0}
	Down    = Vector3{0, -1, 0}
	Forward = Vector3{0, 0, 1}
	Back    = Vector3{0, 0, -1}
)

// Add returns the component-wise sum of two vectors.
func (v Vector3) Add(rhs Vector3) Vector3 {
	return Vector3{v.X + rhs.X, v.Y + rhs.Y, v.Z + rhs.Z}
}

// Sub returns the component-wise difference of two vectors.
func (v Vector3) Sub(rhs Vector3) Vector3 {
	return Vector3{v.X - rhs.X, v.Y - rhs.Y, v.Z - rhs.Z}
}

// Scale returns the vector scaled by a scalar factor.
func (v Vector3) Scale(s float32) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

// Mul returns the component-wise product of two vectors.
func (v Vector3) Mul(rhs Vector3) Vector3 {
	return Vector3{v.X * rhs.X, v.Y * rhs.Y, v.Z * rhs.Z}
}

// Neg returns the negated vector.
func (v Vector3) Neg() Vector3 {
	return Vector3{-v.X, -v.Y, -v.Z}
}

// Abs returns the vector with each component replaced by its absolute value.
func (v Vector3) Abs() Vector3 {
	return Vector3{math32.Abs(v.X), math32.Abs(v.Y), math32.Abs(v.Z)}
}

// Dot returns the dot product of two vectors.
func (v Vector3) Dot(rhs Vector3) float32 {
	return v.X*rhs.X + v.Y*rhs.Y + v.Z*rhs.Z
}

// Cross returns the cross product of two vectors.
func (v Vector3) Cross(rhs Vector3) Vector3 {
	return Vector3{
		v.Y*rhs.Z - v.Z*rhs.Y,
		v.Z*rhs.X - v.X*rhs.Z,
		v.X*rhs.Y - v.Y*rhs.X,
	}
}

// Length returns the Euclidean length of the vector.
func (v Vector3) Length() float32 {
	return math32.Sqrt(v.LengthSquared())
}

// LengthSquared returns the squared length of the vector. Cheaper than Length
// when only comparisons are needed.
func (v Vector3) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Normalized returns the vector scaled to unit length, or the zero vector if
// the input has zero length.
func (v Vector3) Normalized() Vector3 {
	length := v.Length()
	if length == 0 {
		return Vector3{}
	}
	return v.Scale(1 / length)
}

// Lerp returns the linear interpolation between v and rhs by factor t.
func (v Vector3) Lerp(rhs Vector3, t float32) Vector3 {
	return v.Add(rhs.Sub(v).Scale(t))
}

// Min returns the component-wise minimum of two vectors.
func (v Vector3) Min(rhs Vector3) Vector3 {
	return Vector3{math32.Min(v.X, rhs.X), math32.Min(v.Y, rhs.Y), math32.Min(v.Z, rhs.Z)}
}

// Max returns the component-wise maximum of two vectors.
func (v Vector3) Max(rhs Vector3) Vector3 {
	return Vector3{math32.Max(v.X, rhs.X), math32.Max(v.Y, rhs.Y), math32.Max(v.Z, rhs.Z)}
}

// Add returns the component-wise sum of two vectors.
func (v Vector2) Add(rhs Vector2) Vector2 {
	return Vector2{v.X + rhs.X, v.Y + rhs.Y}
}

// Scale returns the vector scaled by a scalar factor.
func (v Vector2) Scale(s float32) Vector2 {
	return Vector2{v.X * s, v.Y * s}
}

// Add returns the component-wise sum of two integer vectors.
func (v IntVector2) Add(rhs IntVector2) IntVector2 {
	return IntVector2{v.X + rhs.X, v.Y + rhs.Y}
}

// Scale returns the integer vector scaled by a scalar factor.
func (v IntVector2) Scale(s int) IntVector2 {
	return IntVector2{v.X * s, v.Y * s}
}

// Mul returns the component-wise product of two integer vectors.
func (v IntVector2) Mul(rhs IntVector2) IntVector2 {
	return IntVector2{v.X * rhs.X, v.Y * rhs.Y}
}

// Div returns the component-wise quotient of two integer vectors.
func (v IntVector2) Div(rhs IntVector2) IntVector2 {
	return IntVector2{v.X / rhs.X, v.Y / rhs.Y}
}

// Min returns the component-wise minimum of two integer vectors.
func (v IntVector2) Min(rhs IntVector2) IntVector2 {
	return IntVector2{min(v.X, rhs.X), min(v.Y, rhs.Y)}
}

// Length returns the Euclidean length of the integer vector as a float32.
func (v IntVector2) Length() float32 {
	return math32.Sqrt(float32(v.X*v.X + v.Y*v.Y))
}

// LargeValue is the sentinel magnitude treated as "effectively infinite" by
// visibility and shadow math. Objects whose bounding volume reaches this size
// (skyboxes and similar) are excluded from shadow focusing so they do not
// distort shadow frustums.
const LargeValue float32 = 1e9

// Epsilon is the tolerance used to guard divisions and degenerate geometry.
const Epsilon float32 = 1e-6

// LargeEpsilon is a coarser tolerance for distance clamping where Epsilon
// would still produce unstable penalty values.
const LargeEpsilon float32 = 1e-2
