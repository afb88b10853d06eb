package drawable

import (
	"sync/atomic"

	"github.com/rokups/Urho3D/common"
	"github.com/rokups/Urho3D/engine/camera"
)

// UpdateGeometryType tells the frame loop whether a drawable needs a geometry
// update after visibility is resolved, and on which thread it must run.
type UpdateGeometryType int

const (
	// UpdateGeometryNone means the drawable has no per-frame geometry work.
	UpdateGeometryNone UpdateGeometryType = iota

	// UpdateGeometryWorkerThread means the geometry update is thread-safe and
	// may run on any worker.
	UpdateGeometryWorkerThread

	// UpdateGeometryMainThread means the geometry update touches GPU or other
	// main-thread-only state and must be deferred to the main thread.
	UpdateGeometryMainThread
)

// GeometryType describes how a batch's vertices are transformed, which
// contributes to pipeline state selection.
type GeometryType int

const (
	GeometryStatic GeometryType = iota
	GeometryInstanced
	GeometrySkinned
	GeometryBillboard
)

// InvalidIndex marks a drawable that is not registered in any processor.
const InvalidIndex uint32 = 0xffffffff

// FrameInfo carries the per-frame constants handed to every drawable update.
type FrameInfo struct {
	FrameNumber uint32
	TimeStep    float32
	ViewSize    common.IntVector2
	Camera      camera.Camera
}

// SourceBatch is one renderable piece of a drawable: a geometry with the
// material to draw it with.
type SourceBatch struct {
	Geometry     Geometry
	Material     Material
	GeometryType GeometryType
	// Distance is filled during UpdateBatches with the view distance used
	// for LOD selection and transparent sorting.
	Distance float32
	// WorldTransform positions the batch; instanced batches may share one.
	WorldTransform common.Matrix4
}

// CachedZone memoizes the zone a drawable belongs to, keyed by the position
// the lookup was made at. The cache is dropped when the drawable moves far
// enough or the stored data turns invalid.
type CachedZone struct {
	Zone                      Zone
	Position                  common.Vector3
	CacheInvalidationDistance float32
}

// Valid reports whether the cached zone can still be used for a drawable at
// the given position.
func (c *CachedZone) Valid(position common.Vector3) bool {
	if c.Zone == nil {
		return false
	}
	threshold := c.CacheInvalidationDistance
	if threshold < 0 || threshold != threshold {
		return false
	}
	return position.Sub(c.Position).LengthSquared() < threshold*threshold
}

// Drawable is anything the render pipeline can see: scene geometry and light
// volumes both implement it. Methods that mutate per-frame state are called
// under the processor's threading rules and must not assume the main thread
// unless UpdateGeometryType says so.
type Drawable interface {
	// Index returns the drawable's slot in the owning processor, or
	// InvalidIndex when unregistered.
	Index() uint32

	// SetIndex assigns the processor slot. Called by the processor only.
	SetIndex(index uint32)

	// WorldBoundingBox returns the current world-space bounds.
	WorldBoundingBox() common.BoundingBox

	// DrawDistance returns the maximum view distance, or 0 for unlimited.
	DrawDistance() float32

	// ShadowDistance returns the maximum shadow render distance, or 0 for
	// unlimited.
	ShadowDistance() float32

	// ViewMask is tested against the camera's view mask; a zero AND result
	// culls the drawable.
	ViewMask() uint32

	// LightMask is tested against light masks to decide lighting influence.
	LightMask() uint32

	// ShadowMask is tested against light masks to decide shadow casting.
	ShadowMask() uint32

	// ZoneMask limits which zones the drawable may belong to.
	ZoneMask() uint32

	// CastShadows reports whether the drawable may appear in shadow maps.
	CastShadows() bool

	// LightmapIndex returns the baked lightmap chart index, or 0.
	LightmapIndex() uint32

	// SourceBatches returns the drawable's renderable pieces. Valid after
	// UpdateBatches for the current frame.
	SourceBatches() []SourceBatch

	// UpdateBatches prepares per-frame batch state (distances, LOD). Called
	// from worker threads; must only touch this drawable's own state.
	UpdateBatches(frame FrameInfo)

	// MarkInView notifies the drawable it was visible this frame.
	MarkInView(frameNumber uint32)

	// InView reports whether the drawable was visible in the given frame.
	InView(frameNumber uint32) bool

	// UpdateGeometryType reports whether and where UpdateGeometry must run.
	UpdateGeometryType() UpdateGeometryType

	// UpdateGeometry performs the deferred geometry update. Threading depends
	// on UpdateGeometryType.
	UpdateGeometry(frame FrameInfo)

	// MutableCachedZone exposes the zone cache slot for the visibility pass.
	MutableCachedZone() *CachedZone
}

type drawableImpl struct {
	index atomic.Uint32

	worldBoundingBox common.BoundingBox
	batches          []SourceBatch

	drawDistance   float32
	shadowDistance float32
	viewMask       uint32
	lightMask      uint32
	shadowMask     uint32
	zoneMask       uint32
	castShadows    bool
	lightmapIndex  uint32

	updateGeometryType UpdateGeometryType

	viewFrameNumber atomic.Uint32
	cachedZone      CachedZone

	// onUpdateGeometry runs when the frame loop flushes geometry updates.
	onUpdateGeometry func(frame FrameInfo)
}

var _ Drawable = &drawableImpl{}

// NewDrawable creates static scene geometry with the given batches and world
// bounds. Masks default to all bits set.
//
// Parameters:
//   - options: functional options to configure the drawable
//
// Returns:
//   - Drawable: the newly created drawable
func NewDrawable(options ...DrawableBuilderOption) Drawable {
	d := &drawableImpl{
		worldBoundingBox: common.UndefinedBoundingBox(),
		viewMask:         0xffffffff,
		lightMask:        0xffffffff,
		shadowMask:       0xffffffff,
		zoneMask:         0xffffffff,
	}
	d.index.Store(InvalidIndex)
	for _, option := range options {
		option(d)
	}
	return d
}

func (d *drawableImpl) Index() uint32 {
	return d.index.Load()
}

func (d *drawableImpl) SetIndex(index uint32) {
	d.index.Store(index)
}

func (d *drawableImpl) WorldBoundingBox() common.BoundingBox {
	return d.worldBoundingBox
}

func (d *drawableImpl) DrawDistance() float32 {
	return d.drawDistance
}

func (d *drawableImpl) ShadowDistance() float32 {
	return d.shadowDistance
}

func (d *drawableImpl) ViewMask() uint32 {
	return d.viewMask
}

func (d *drawableImpl) LightMask() uint32 {
	return d.lightMask
}

func (d *drawableImpl) ShadowMask() uint32 {
	return d.shadowMask
}

func (d *drawableImpl) ZoneMask() uint32 {
	return d.zoneMask
}

func (d *drawableImpl) CastShadows() bool {
	return d.castShadows
}

func (d *drawableImpl) LightmapIndex() uint32 {
	return d.lightmapIndex
}

func (d *drawableImpl) SourceBatches() []SourceBatch {
	return d.batches
}

func (d *drawableImpl) UpdateBatches(frame FrameInfo) {
	center := d.worldBoundingBox.Center()
	distance := frame.Camera.DistanceTo(center)
	for i := range d.batches {
		d.batches[i].Distance = distance
	}
}

func (d *drawableImpl) MarkInView(frameNumber uint32) {
	d.viewFrameNumber.Store(frameNumber)
}

func (d *drawableImpl) InView(frameNumber uint32) bool {
	return d.viewFrameNumber.Load() == frameNumber
}

func (d *drawableImpl) UpdateGeometryType() UpdateGeometryType {
	return d.updateGeometryType
}

func (d *drawableImpl) UpdateGeometry(frame FrameInfo) {
	if d.onUpdateGeometry != nil {
		d.onUpdateGeometry(frame)
	}
}

func (d *drawableImpl) MutableCachedZone() *CachedZone {
	return &d.cachedZone
}
