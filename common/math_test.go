package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookRotationFacesDirection(t *testing.T) {
	dir := Vector3{X: 1, Z: 1}.Normalized()
	rotation := LookRotation(dir, Up)

	forward := rotation.MulVector(Forward)
	assert.InDelta(t, dir.X, forward.X, 1e-5)
	assert.InDelta(t, dir.Y, forward.Y, 1e-5)
	assert.InDelta(t, dir.Z, forward.Z, 1e-5)

	// Identity rotation looks straight down +Z.
	identityForward := Identity4().MulVector(Forward)
	assert.InDelta(t, 1, identityForward.Z, 1e-5)
}

func TestPerspectiveDepthRange(t *testing.T) {
	fov := float32(60 * math.Pi / 180)
	near, far := float32(1), float32(100)
	m := Perspective(fov, 1, near, far)

	// Points in front of the camera have positive view depth, so clip w
	// must be positive for them and depth maps near to 0 and far to 1.
	nearClipZ := m[10]*near + m[14]
	nearClipW := m[11]*near + m[15]
	assert.InDelta(t, 0, nearClipZ/nearClipW, 1e-5)
	assert.Greater(t, nearClipW, float32(0))

	farClipZ := m[10]*far + m[14]
	farClipW := m[11]*far + m[15]
	assert.InDelta(t, 1, farClipZ/farClipW, 1e-5)
}

func TestOrthographicDepthRange(t *testing.T) {
	near, far := float32(1), float32(100)
	m := Orthographic(20, 20, near, far)

	assert.InDelta(t, 0, m[10]*near+m[14], 1e-5)
	assert.InDelta(t, 1, m[10]*far+m[14], 1e-5)
	assert.Equal(t, float32(1), m[15])
}
