package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerspectiveFrustumCulling(t *testing.T) {
	fov := float32(90 * math.Pi / 180)
	frustum := PerspectiveFrustum(fov, 1, 1, 0.1, 100, Identity4())

	inside := BoundingBox{Min: Vector3{X: -1, Y: -1, Z: 10}, Max: Vector3{X: 1, Y: 1, Z: 12}}
	assert.True(t, frustum.IsInsideFast(inside))

	behind := BoundingBox{Min: Vector3{X: -1, Y: -1, Z: -12}, Max: Vector3{X: 1, Y: 1, Z: -10}}
	assert.False(t, frustum.IsInsideFast(behind))

	beyondFar := BoundingBox{Min: Vector3{X: -1, Y: -1, Z: 200}, Max: Vector3{X: 1, Y: 1, Z: 220}}
	assert.False(t, frustum.IsInsideFast(beyondFar))

	// With a 90 degree cone the half extent equals the depth; x=30 at z=10
	// is far outside.
	aside := BoundingBox{Min: Vector3{X: 30, Y: -1, Z: 10}, Max: Vector3{X: 32, Y: 1, Z: 12}}
	assert.False(t, frustum.IsInsideFast(aside))

	// Straddling a plane still counts as inside.
	straddling := BoundingBox{Min: Vector3{X: -1, Y: -1, Z: 90}, Max: Vector3{X: 1, Y: 1, Z: 120}}
	assert.True(t, frustum.IsInsideFast(straddling))
}

func TestFrustumContainsPoint(t *testing.T) {
	fov := float32(90 * math.Pi / 180)
	frustum := PerspectiveFrustum(fov, 1, 1, 0.1, 100, Identity4())

	assert.True(t, frustum.ContainsPoint(Vector3{Z: 50}))
	assert.False(t, frustum.ContainsPoint(Vector3{Z: -1}))
	assert.False(t, frustum.ContainsPoint(Vector3{X: 90, Z: 50}))
}

func TestFrustumBoundingBoxCoversVertices(t *testing.T) {
	fov := float32(90 * math.Pi / 180)
	frustum := PerspectiveFrustum(fov, 1, 1, 1, 10, Identity4())

	box := frustum.BoundingBox()
	assert.InDelta(t, -10, box.Min.X, 1e-3)
	assert.InDelta(t, 10, box.Max.X, 1e-3)
	assert.InDelta(t, 1, box.Min.Z, 1e-3)
	assert.InDelta(t, 10, box.Max.Z, 1e-3)
}

func TestFrustumTransformed(t *testing.T) {
	fov := float32(90 * math.Pi / 180)
	frustum := PerspectiveFrustum(fov, 1, 1, 1, 10, Identity4())

	offset := Identity4()
	offset.SetTranslation(Vector3{X: 100})
	moved := frustum.Transformed(offset)

	target := BoundingBox{Min: Vector3{X: 99, Y: -1, Z: 5}, Max: Vector3{X: 101, Y: 1, Z: 6}}
	assert.True(t, moved.IsInsideFast(target))
	assert.False(t, moved.IsInsideFast(BoundingBox{Min: Vector3{X: -1, Y: -1, Z: 5}, Max: Vector3{X: 1, Y: 1, Z: 6}}))
}

func TestSphereCulling(t *testing.T) {
	fov := float32(90 * math.Pi / 180)
	frustum := PerspectiveFrustum(fov, 1, 1, 0.1, 100, Identity4())

	assert.True(t, frustum.IsInsideFastSphere(Sphere{Center: Vector3{Z: 50}, Radius: 1}))
	assert.False(t, frustum.IsInsideFastSphere(Sphere{Center: Vector3{Z: -50}, Radius: 1}))
	// A sphere overlapping the near plane from outside still passes.
	assert.True(t, frustum.IsInsideFastSphere(Sphere{Center: Vector3{Z: -1}, Radius: 3}))
}

func TestBoundingBoxDistanceToPoint(t *testing.T) {
	box := BoundingBox{Min: Vector3{X: -1, Y: -1, Z: -1}, Max: Vector3{X: 1, Y: 1, Z: 1}}

	assert.Equal(t, float32(0), box.DistanceToPoint(Vector3{}))
	assert.Equal(t, float32(0), box.DistanceToPoint(Vector3{X: 1, Y: 1, Z: 1}))
	assert.Equal(t, float32(4), box.DistanceToPoint(Vector3{X: 5}))
	assert.InDelta(t, float32(math.Sqrt(27)), box.DistanceToPoint(Vector3{X: 4, Y: 4, Z: 4}), 1e-4)
}

func TestFloatRangeOperations(t *testing.T) {
	assert.False(t, UndefinedFloatRange().Valid())

	r := FloatRange{Min: 1, Max: 5}
	assert.True(t, r.Valid())
	assert.Equal(t, FloatRange{Min: 1, Max: 8}, r.Union(FloatRange{Min: 4, Max: 8}))
	assert.Equal(t, FloatRange{Min: 4, Max: 5}, r.Intersect(FloatRange{Min: 4, Max: 8}))
	assert.True(t, r.Intersects(FloatRange{Min: 5, Max: 8}))
	assert.False(t, r.Intersects(FloatRange{Min: 6, Max: 8}))

	undefined := UndefinedFloatRange()
	assert.Equal(t, r, undefined.Union(r))
}

func TestCombineHash(t *testing.T) {
	a := HashCombined(1, 2, 3)
	b := HashCombined(1, 2, 3)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, HashCombined(3, 2, 1))
	assert.NotEqual(t, a, HashCombined(1, 2))

	var h uint32
	CombineHash(&h, 1)
	CombineHash(&h, 2)
	CombineHash(&h, 3)
	assert.Equal(t, a, h)
}
