package drawable

import (
	"github.com/rokups/Urho3D/common"
)

type DrawableBuilderOption func(*drawableImpl)

// WithWorldBoundingBox sets the drawable's world-space bounds.
//
// Parameters:
//   - box: the world-space bounding box
//
// Returns:
//   - DrawableBuilderOption: a function that sets the bounding box
func WithWorldBoundingBox(box common.BoundingBox) DrawableBuilderOption {
	return func(d *drawableImpl) {
		d.worldBoundingBox = box
	}
}

// WithBatches sets the drawable's renderable pieces.
//
// Parameters:
//   - batches: the source batches
//
// Returns:
//   - DrawableBuilderOption: a function that sets the source batches
func WithBatches(batches ...SourceBatch) DrawableBuilderOption {
	return func(d *drawableImpl) {
		d.batches = batches
	}
}

// WithDrawDistance sets the maximum view distance, 0 for unlimited.
//
// Parameters:
//   - distance: the draw distance
//
// Returns:
//   - DrawableBuilderOption: a function that sets the draw distance
func WithDrawDistance(distance float32) DrawableBuilderOption {
	return func(d *drawableImpl) {
		d.drawDistance = distance
	}
}

// WithShadowDistance sets the maximum shadow render distance, 0 for unlimited.
//
// Parameters:
//   - distance: the shadow distance
//
// Returns:
//   - DrawableBuilderOption: a function that sets the shadow distance
func WithShadowDistance(distance float32) DrawableBuilderOption {
	return func(d *drawableImpl) {
		d.shadowDistance = distance
	}
}

// WithViewMask sets the visibility mask.
//
// Returns:
//   - DrawableBuilderOption: a function that sets the view mask
func WithViewMask(mask uint32) DrawableBuilderOption {
	return func(d *drawableImpl) {
		d.viewMask = mask
	}
}

// WithLightMask sets the lighting influence mask.
//
// Returns:
//   - DrawableBuilderOption: a function that sets the light mask
func WithLightMask(mask uint32) DrawableBuilderOption {
	return func(d *drawableImpl) {
		d.lightMask = mask
	}
}

// WithShadowMask sets the shadow casting mask.
//
// Returns:
//   - DrawableBuilderOption: a function that sets the shadow mask
func WithShadowMask(mask uint32) DrawableBuilderOption {
	return func(d *drawableImpl) {
		d.shadowMask = mask
	}
}

// WithZoneMask limits which zones the drawable may belong to.
//
// Returns:
//   - DrawableBuilderOption: a function that sets the zone mask
func WithZoneMask(mask uint32) DrawableBuilderOption {
	return func(d *drawableImpl) {
		d.zoneMask = mask
	}
}

// WithCastShadows enables the drawable for shadow map rendering.
//
// Returns:
//   - DrawableBuilderOption: a function that enables shadow casting
func WithCastShadows(castShadows bool) DrawableBuilderOption {
	return func(d *drawableImpl) {
		d.castShadows = castShadows
	}
}

// WithLightmapIndex sets the baked lightmap chart index.
//
// Returns:
//   - DrawableBuilderOption: a function that sets the lightmap index
func WithLightmapIndex(index uint32) DrawableBuilderOption {
	return func(d *drawableImpl) {
		d.lightmapIndex = index
	}
}

// WithUpdateGeometry registers a deferred geometry update callback and the
// thread it must run on.
//
// Parameters:
//   - updateType: where the callback may run
//   - fn: the callback invoked when geometry updates are flushed
//
// Returns:
//   - DrawableBuilderOption: a function that registers the callback
func WithUpdateGeometry(updateType UpdateGeometryType, fn func(frame FrameInfo)) DrawableBuilderOption {
	return func(d *drawableImpl) {
		d.updateGeometryType = updateType
		d.onUpdateGeometry = fn
	}
}
