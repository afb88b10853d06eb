package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/rokups/Urho3D/common"
	"github.com/stretchr/testify/assert"
)

func TestControllerPositionFromSphericalOffset(t *testing.T) {
	cc := NewCameraController(
		WithTarget(common.Vector3{X: 1, Y: 2, Z: 3}),
		WithRadius(10),
		WithAzimuth(0),
		WithElevation(math32.Pi/6),
	)

	pos := cc.Position()
	assert.InDelta(t, 1, pos.X, 1e-3)
	assert.InDelta(t, 2+10*math32.Sin(math32.Pi/6), pos.Y, 1e-3)
	assert.InDelta(t, 3-10*math32.Cos(math32.Pi/6), pos.Z, 1e-3)
}

func TestControllerApplyPointsCameraAtTarget(t *testing.T) {
	target := common.Vector3{X: 5, Y: 0, Z: 5}
	cc := NewCameraController(WithTarget(target), WithRadius(20), WithAzimuth(0.7), WithElevation(0.4))
	cam := NewCamera()

	cc.Apply(cam)

	assert.Equal(t, cc.Position(), cam.Position())
	forward := cam.Rotation().MulVector(common.Forward).Normalized()
	want := target.Sub(cc.Position()).Normalized()
	assert.InDelta(t, want.X, forward.X, 1e-3)
	assert.InDelta(t, want.Y, forward.Y, 1e-3)
	assert.InDelta(t, want.Z, forward.Z, 1e-3)
}

func TestControllerOrbitPreservesRadius(t *testing.T) {
	cc := NewCameraController(WithRadius(12), WithOrbitSpeed(0.1))
	startAzimuth := cc.Azimuth()

	cc.OrbitRight()
	cc.OrbitRight()
	cc.OrbitUp()

	assert.InDelta(t, startAzimuth+0.2, cc.Azimuth(), 1e-4)
	assert.InDelta(t, 12, cc.Radius(), 1e-4)
	assert.InDelta(t, 12, cc.Position().Sub(cc.Target()).Length(), 1e-3)
}

func TestControllerRotateClampsElevation(t *testing.T) {
	cc := NewCameraController(
		WithElevationBounds(-1.0, 1.0),
		WithMouseSensitivity(0.01),
	)

	cc.Rotate(0, 10000)
	assert.InDelta(t, 1.0, cc.Elevation(), 1e-4)

	cc.Rotate(0, -20000)
	assert.InDelta(t, -1.0, cc.Elevation(), 1e-4)
}

func TestControllerZoomClampsRadius(t *testing.T) {
	cc := NewCameraController(
		WithRadius(5),
		WithRadiusBounds(2, 50),
		WithZoomSpeed(1),
	)

	cc.Zoom(100)
	assert.InDelta(t, 2, cc.Radius(), 1e-4)

	cc.Zoom(-100)
	assert.InDelta(t, 50, cc.Radius(), 1e-4)
}

func TestControllerPanShiftsTargetAndPositionTogether(t *testing.T) {
	cc := NewCameraController(WithRadius(10), WithPanSpeed(2))
	startOffset := cc.Position().Sub(cc.Target())

	cc.PanRight(3)
	cc.PanUp(-1)
	cc.PanForward(2)

	offset := cc.Position().Sub(cc.Target())
	assert.InDelta(t, startOffset.X, offset.X, 1e-3)
	assert.InDelta(t, startOffset.Y, offset.Y, 1e-3)
	assert.InDelta(t, startOffset.Z, offset.Z, 1e-3)
	assert.InDelta(t, 10, offset.Length(), 1e-3)
	assert.NotEqual(t, common.Vector3{}, cc.Target())
}

func TestControllerDegenerateLookKeepsIdentityRotation(t *testing.T) {
	cc := NewCameraController(WithRadius(0), WithRadiusBounds(0, 10))
	assert.Equal(t, common.Identity4(), cc.Rotation())
}
