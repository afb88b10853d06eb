package camera

import "github.com/rokups/Urho3D/common"

// CameraController drives a Camera from user input. Controllers own the
// positional state (target point plus a spherical offset); Apply pushes the
// resulting transform onto a Camera once per frame. Embeds both orbit and
// planar control surfaces so a single controller can serve both styles.
type CameraController interface {
	orbitCameraController
	planarCameraController

	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - common.Vector3: world-space camera position
	Position() common.Vector3

	// Target returns the look-at point.
	//
	// Returns:
	//   - common.Vector3: world-space target position
	Target() common.Vector3

	// SetTarget sets the look-at/pivot point and recomputes position from
	// the spherical coordinates.
	//
	// Parameters:
	//   - target: world-space target position
	SetTarget(target common.Vector3)

	// Rotation returns the rotation matrix looking from the camera position
	// toward the target.
	//
	// Returns:
	//   - common.Matrix4: world-space rotation matrix
	Rotation() common.Matrix4

	// Apply copies the controller's position and rotation onto a camera.
	// Call once per frame before the render pipeline update.
	//
	// Parameters:
	//   - camera: camera receiving the transform
	Apply(camera Camera)

	// Zoom adjusts the camera's distance by modifying the orbit radius.
	// Positive delta zooms in (closer to target).
	//
	// Parameters:
	//   - delta: zoom amount scaled by ZoomSpeed
	Zoom(delta float32)
}

// orbitCameraController defines orbit-specific control methods.
// Provides third-person orbit controls using spherical coordinates
// (radius, azimuth, elevation) relative to the target point.
type orbitCameraController interface {
	// OrbitLeft rotates the camera left around the target by one orbit speed step.
	OrbitLeft()

	// OrbitRight rotates the camera right around the target by one orbit speed step.
	OrbitRight()

	// OrbitUp tilts the camera upward by one orbit speed step, clamped to max elevation.
	OrbitUp()

	// OrbitDown tilts the camera downward by one orbit speed step, clamped to min elevation.
	OrbitDown()

	// Rotate orbits the camera from a mouse drag. Deltas are in pixels and
	// are scaled by the controller's mouse sensitivity.
	//
	// Parameters:
	//   - dx: horizontal drag delta in pixels
	//   - dy: vertical drag delta in pixels
	Rotate(dx, dy float32)

	// Radius returns the current orbit radius (distance from target).
	//
	// Returns:
	//   - float32: current distance from target
	Radius() float32

	// SetRadius sets the orbit radius directly, clamped to min/max bounds.
	//
	// Parameters:
	//   - radius: new distance from target
	SetRadius(radius float32)

	// Azimuth returns the current horizontal angle around the Y axis.
	//
	// Returns:
	//   - float32: azimuth in radians
	Azimuth() float32

	// SetAzimuth sets the horizontal angle directly and recomputes position.
	//
	// Parameters:
	//   - azimuth: new horizontal angle in radians
	SetAzimuth(azimuth float32)

	// Elevation returns the current vertical angle from the horizontal plane.
	//
	// Returns:
	//   - float32: elevation in radians
	Elevation() float32

	// SetElevation sets the vertical angle directly, clamped to min/max bounds.
	//
	// Parameters:
	//   - elevation: new vertical angle in radians
	SetElevation(elevation float32)
}

// planarCameraController defines planar translation control methods.
// Panning shifts position and target by the same offset along the camera's
// local axes, preserving the orbit relationship.
type planarCameraController interface {
	// PanRight translates the camera along its local right axis.
	// Positive delta moves right, negative moves left.
	//
	// Parameters:
	//   - delta: pan amount scaled by PanSpeed
	PanRight(delta float32)

	// PanUp translates the camera along its local up axis.
	// Positive delta moves up, negative moves down.
	//
	// Parameters:
	//   - delta: pan amount scaled by PanSpeed
	PanUp(delta float32)

	// PanForward translates the camera along its local forward axis (dolly).
	// Positive delta moves toward the target, negative moves away.
	//
	// Parameters:
	//   - delta: pan amount scaled by PanSpeed
	PanForward(delta float32)
}
