package drawable

import (
	"github.com/rokups/Urho3D/common"
)

// SphericalHarmonicsDot9 stores second-order spherical harmonics premultiplied
// for dot-product evaluation. Each channel row dots against (normal, 1).
type SphericalHarmonicsDot9 struct {
	Ar common.Vector4
	Ag common.Vector4
	Ab common.Vector4
	Br common.Vector4
	Bg common.Vector4
	Bb common.Vector4
	C  common.Vector4
}

// SHFromColor returns spherical harmonics evaluating to a constant color in
// every direction.
func SHFromColor(color common.Color) SphericalHarmonicsDot9 {
	return SphericalHarmonicsDot9{
		Ar: common.Vector4{W: color.R},
		Ag: common.Vector4{W: color.G},
		Ab: common.Vector4{W: color.B},
	}
}

// Evaluate returns the ambient color for a world-space normal.
func (sh SphericalHarmonicsDot9) Evaluate(normal common.Vector3) common.Color {
	n := common.Vector4{X: normal.X, Y: normal.Y, Z: normal.Z, W: 1}
	return common.Color{
		R: sh.Ar.Dot(n),
		G: sh.Ag.Dot(n),
		B: sh.Ab.Dot(n),
		A: 1,
	}
}

// Zone describes the lighting environment of a region of space: ambient
// light plus the masks that scope lights and shadows inside it.
type Zone interface {
	// BoundingBox returns the zone's world-space bounds.
	BoundingBox() common.BoundingBox

	// AmbientColor returns the zone's flat ambient color.
	AmbientColor() common.Color

	// AmbientSH returns the zone ambient as spherical harmonics.
	AmbientSH() SphericalHarmonicsDot9

	// LightMask scopes which lights affect drawables in the zone.
	LightMask() uint32

	// ShadowMask scopes which drawables cast shadows in the zone.
	ShadowMask() uint32

	// ZoneMask is tested against drawable zone masks during zone lookup.
	ZoneMask() uint32

	// Priority breaks ties when a point lies in several zones; the highest
	// priority zone wins.
	Priority() int

	// ContainsPoint reports whether a world-space point lies in the zone.
	ContainsPoint(point common.Vector3) bool
}

type zoneImpl struct {
	boundingBox  common.BoundingBox
	ambientColor common.Color
	lightMask    uint32
	shadowMask   uint32
	zoneMask     uint32
	priority     int
}

var _ Zone = &zoneImpl{}

// NewZone creates a zone with the given options. Masks default to all bits
// set and the ambient to a dim grey.
//
// Parameters:
//   - options: functional options to configure the zone
//
// Returns:
//   - Zone: the newly created zone
func NewZone(options ...ZoneBuilderOption) Zone {
	z := &zoneImpl{
		boundingBox:  common.UndefinedBoundingBox(),
		ambientColor: common.Color{R: 0.1, G: 0.1, B: 0.1, A: 1},
		lightMask:    0xffffffff,
		shadowMask:   0xffffffff,
		zoneMask:     0xffffffff,
	}
	for _, option := range options {
		option(z)
	}
	return z
}

type ZoneBuilderOption func(*zoneImpl)

// WithZoneBoundingBox sets the zone's world-space bounds.
func WithZoneBoundingBox(box common.BoundingBox) ZoneBuilderOption {
	return func(z *zoneImpl) {
		z.boundingBox = box
	}
}

// WithAmbientColor sets the zone's flat ambient color.
func WithAmbientColor(color common.Color) ZoneBuilderOption {
	return func(z *zoneImpl) {
		z.ambientColor = color
	}
}

// WithZoneLightMask sets the zone's light mask.
func WithZoneLightMask(mask uint32) ZoneBuilderOption {
	return func(z *zoneImpl) {
		z.lightMask = mask
	}
}

// WithZoneShadowMask sets the zone's shadow mask.
func WithZoneShadowMask(mask uint32) ZoneBuilderOption {
	return func(z *zoneImpl) {
		z.shadowMask = mask
	}
}

// WithZoneZoneMask sets the mask tested against drawable zone masks.
func WithZoneZoneMask(mask uint32) ZoneBuilderOption {
	return func(z *zoneImpl) {
		z.zoneMask = mask
	}
}

// WithZonePriority sets the zone's tie-break priority.
func WithZonePriority(priority int) ZoneBuilderOption {
	return func(z *zoneImpl) {
		z.priority = priority
	}
}

func (z *zoneImpl) BoundingBox() common.BoundingBox {
	return z.boundingBox
}

func (z *zoneImpl) AmbientColor() common.Color {
	return z.ambientColor
}

func (z *zoneImpl) AmbientSH() SphericalHarmonicsDot9 {
	return SHFromColor(z.ambientColor)
}

func (z *zoneImpl) LightMask() uint32 {
	return z.lightMask
}

func (z *zoneImpl) ShadowMask() uint32 {
	return z.shadowMask
}

func (z *zoneImpl) ZoneMask() uint32 {
	return z.zoneMask
}

func (z *zoneImpl) Priority() int {
	return z.priority
}

func (z *zoneImpl) ContainsPoint(point common.Vector3) bool {
	return z.boundingBox.ContainsPoint(point)
}
