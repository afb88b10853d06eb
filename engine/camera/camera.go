package camera

import (
	"math"
	"sync"

	"github.com/rokups/Urho3D/common"
)

type cameraImpl struct {
	mu *sync.Mutex

	position common.Vector3
	rotation common.Matrix4

	fov    float32
	aspect float32
	near   float32
	far    float32
	zoom   float32

	orthographic bool
	orthoSize    float32

	viewMask uint32
}

// Camera holds a world transform plus projection settings and derives
// view/projection matrices and frusta from them. It is used both for the
// scene camera and for the internal cameras of shadow map splits.
type Camera interface {
	// Position returns the camera's world position.
	//
	// Returns:
	//   - common.Vector3: the world position
	Position() common.Vector3

	// Rotation returns the camera's rotation matrix. The camera looks along
	// its local +Z axis.
	//
	// Returns:
	//   - common.Matrix4: the rotation matrix (no translation)
	Rotation() common.Matrix4

	// WorldTransform returns the combined rotation + translation matrix.
	//
	// Returns:
	//   - common.Matrix4: the world transform
	WorldTransform() common.Matrix4

	// Direction returns the world-space view direction.
	//
	// Returns:
	//   - common.Vector3: the normalized view direction
	Direction() common.Vector3

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// Zoom returns the zoom factor. Values above 1 narrow the view.
	Zoom() float32

	// IsOrthographic reports whether the camera uses an orthographic
	// projection.
	IsOrthographic() bool

	// OrthoSize returns the vertical extent of the orthographic view volume.
	OrthoSize() float32

	// ViewMask returns the visibility mask tested against drawable view masks.
	ViewMask() uint32

	// View returns the view matrix (inverse of the world transform).
	//
	// Returns:
	//   - common.Matrix4: the view matrix
	View() common.Matrix4

	// Projection returns the projection matrix for the current settings.
	//
	// Returns:
	//   - common.Matrix4: the projection matrix
	Projection() common.Matrix4

	// ViewProjection returns Projection * View.
	//
	// Returns:
	//   - common.Matrix4: the combined view-projection matrix
	ViewProjection() common.Matrix4

	// Frustum returns the world-space view frustum.
	//
	// Returns:
	//   - common.Frustum: the view frustum
	Frustum() common.Frustum

	// SplitFrustum returns the world-space frustum limited to a sub-range of
	// the clipping planes. The range is clamped to [Near, Far].
	//
	// Parameters:
	//   - nearZ, farZ: the split distances
	//
	// Returns:
	//   - common.Frustum: the split frustum
	SplitFrustum(nearZ, farZ float32) common.Frustum

	// DistanceTo returns the distance from the camera position to a point.
	//
	// Parameters:
	//   - point: the world-space point
	//
	// Returns:
	//   - float32: the distance
	DistanceTo(point common.Vector3) float32

	// SetTransform sets the world position and rotation in one call.
	//
	// Parameters:
	//   - position: the new world position
	//   - rotation: the new rotation matrix
	SetTransform(position common.Vector3, rotation common.Matrix4)

	// SetPosition sets the world position.
	SetPosition(position common.Vector3)

	// SetRotation sets the rotation matrix.
	SetRotation(rotation common.Matrix4)

	// SetFov sets the vertical field of view in radians.
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height).
	SetAspect(aspect float32)

	// SetNear sets the near clipping plane distance.
	SetNear(near float32)

	// SetFar sets the far clipping plane distance.
	SetFar(far float32)

	// SetZoom sets the zoom factor.
	SetZoom(zoom float32)

	// SetOrthographic switches between orthographic and perspective
	// projection.
	SetOrthographic(enabled bool)

	// SetOrthoSize sets a square orthographic view volume.
	SetOrthoSize(size float32)

	// SetOrthoSizeVec sets a non-square orthographic view volume; the aspect
	// ratio is derived from the extents.
	SetOrthoSizeVec(size common.Vector2)

	// SetViewMask sets the visibility mask.
	SetViewMask(mask uint32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		rotation: common.Identity4(),
		fov:      45.0 * (math.Pi / 180.0), // radians
		aspect:   1.0,
		near:     0.1,
		far:      100.0,
		zoom:     1.0,
		viewMask: 0xffffffff,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *cameraImpl) Position() common.Vector3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Rotation() common.Matrix4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rotation
}

func (c *cameraImpl) WorldTransform() common.Matrix4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.worldTransform()
}

func (c *cameraImpl) Direction() common.Vector3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rotation.MulVector(common.Forward)
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Zoom() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

func (c *cameraImpl) IsOrthographic() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orthographic
}

func (c *cameraImpl) OrthoSize() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orthoSize
}

func (c *cameraImpl) ViewMask() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMask
}

func (c *cameraImpl) View() common.Matrix4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	view := c.rotation.RotationTransposed()
	view.SetTranslation(view.MulVector(c.position.Neg()))
	return view
}

func (c *cameraImpl) Projection() common.Matrix4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.orthographic {
		return common.Orthographic(c.orthoSize*c.aspect/c.zoom, c.orthoSize/c.zoom, c.near, c.far)
	}
	proj := common.Perspective(c.fov, c.aspect, c.near, c.far)
	proj[0] *= c.zoom
	proj[5] *= c.zoom
	return proj
}

func (c *cameraImpl) ViewProjection() common.Matrix4 {
	return c.Projection().Mul(c.View())
}

func (c *cameraImpl) Frustum() common.Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.splitFrustum(c.near, c.far)
}

func (c *cameraImpl) SplitFrustum(nearZ, farZ float32) common.Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()
	nearZ = max(nearZ, c.near)
	farZ = min(farZ, c.far)
	if farZ < nearZ {
		farZ = nearZ
	}
	return c.splitFrustum(nearZ, farZ)
}

func (c *cameraImpl) DistanceTo(point common.Vector3) float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return point.Sub(c.position).Length()
}

func (c *cameraImpl) SetTransform(position common.Vector3, rotation common.Matrix4) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	c.rotation = rotation
}

func (c *cameraImpl) SetPosition(position common.Vector3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
}

func (c *cameraImpl) SetRotation(rotation common.Matrix4) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rotation = rotation
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
}

func (c *cameraImpl) SetZoom(zoom float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = zoom
}

func (c *cameraImpl) SetOrthographic(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orthographic = enabled
}

func (c *cameraImpl) SetOrthoSize(size float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orthoSize = size
	c.aspect = 1.0
}

func (c *cameraImpl) SetOrthoSizeVec(size common.Vector2) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orthoSize = size.Y
	if size.Y != 0 {
		c.aspect = size.X / size.Y
	}
}

func (c *cameraImpl) SetViewMask(mask uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewMask = mask
}

// worldTransform combines rotation and position. Caller must hold the mutex.
func (c *cameraImpl) worldTransform() common.Matrix4 {
	m := c.rotation
	m.SetTranslation(c.position)
	return m
}

// splitFrustum builds the world-space frustum for the given clip distances.
// Caller must hold the mutex.
func (c *cameraImpl) splitFrustum(nearZ, farZ float32) common.Frustum {
	if c.orthographic {
		return common.OrthographicFrustum(c.orthoSize, c.aspect, c.zoom, nearZ, farZ, c.worldTransform())
	}
	return common.PerspectiveFrustum(c.fov, c.aspect, c.zoom, nearZ, farZ, c.worldTransform())
}
