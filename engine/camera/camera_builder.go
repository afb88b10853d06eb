package camera

import (
	"github.com/rokups/Urho3D/common"
)

type CameraBuilderOption func(*cameraImpl)

// WithTransform sets the camera's world position and rotation.
//
// Parameters:
//   - position: the world position
//   - rotation: the rotation matrix
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's transform
func WithTransform(position common.Vector3, rotation common.Matrix4) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = position
		c.rotation = rotation
	}
}

// WithFov sets the camera's field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithAspect sets the camera's aspect ratio (width / height).
//
// Parameters:
//   - aspect: the aspect ratio to set
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithNear sets the near clipping plane distance.
//
// Parameters:
//   - near: near plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the near plane
func WithNear(near float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
	}
}

// WithFar sets the far clipping plane distance.
//
// Parameters:
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: functional option to set the far plane
func WithFar(far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.far = far
	}
}

// WithOrthographic switches the camera to an orthographic projection with the
// given vertical view volume extent.
//
// Parameters:
//   - orthoSize: vertical extent of the view volume in world units
//
// Returns:
//   - CameraBuilderOption: functional option to enable orthographic mode
func WithOrthographic(orthoSize float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.orthographic = true
		c.orthoSize = orthoSize
	}
}

// WithViewMask sets the visibility mask tested against drawable view masks.
//
// Parameters:
//   - mask: the visibility mask
//
// Returns:
//   - CameraBuilderOption: functional option to set the view mask
func WithViewMask(mask uint32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.viewMask = mask
	}
}

// WithZoom sets the camera zoom factor. Values above 1 narrow the view.
//
// Parameters:
//   - zoom: the zoom factor
//
// Returns:
//   - CameraBuilderOption: functional option to set the zoom
func WithZoom(zoom float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.zoom = zoom
	}
}
