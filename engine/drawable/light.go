package drawable

import (
	"math"
	"sync/atomic"

	"github.com/rokups/Urho3D/common"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun or moon. Affects all fragments
	// uniformly with no distance attenuation.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// Used for bare bulbs, lanterns, candle flames, and particle-emitted lights.
	// Attenuates with distance up to a configurable range.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along a direction.
	// Used for flashlights, desk lamps, and wall sconces. Attenuates with both
	// distance and angle from the cone axis.
	LightTypeSpot
)

// LightImportance ranks how aggressively a light competes for the per-drawable
// pixel light slots.
type LightImportance int

const (
	// LightImportanceAuto lets the distance and intensity based penalty decide.
	LightImportanceAuto LightImportance = iota

	// LightImportanceImportant forces the light into a pixel light slot.
	LightImportanceImportant

	// LightImportanceNotImportant demotes the light behind all auto lights.
	LightImportanceNotImportant
)

// BiasParameters controls shadow depth biasing.
type BiasParameters struct {
	ConstantBias    float32
	SlopeScaledBias float32
	NormalOffset    float32
}

// CascadeParameters controls directional shadow cascade splits. Unused split
// entries must be zero or descending-invalid so the split loop terminates.
type CascadeParameters struct {
	// Splits holds the far distances of up to four cascades, ascending.
	Splits [4]float32
	// FadeStart is the fraction of the shadow range where shadows start
	// fading out.
	FadeStart float32
}

// FocusParameters controls shadow camera focusing and stabilization.
type FocusParameters struct {
	// Focus shrinks the shadow camera onto visible lit geometry.
	Focus bool
	// NonUniform allows different view sizes per axis.
	NonUniform bool
	// AutoSize allows reducing the shadow map size by distance.
	AutoSize bool
	// Quantize is the step the focused view size is rounded up to.
	Quantize float32
	// MinView is the smallest allowed focused view size.
	MinView float32
}

// lightIDCounter hands out unique light IDs used for deterministic ordering.
var lightIDCounter atomic.Uint32

// Light is a light source. It is also a Drawable so it travels through the
// same visibility pass as scene geometry.
type Light interface {
	Drawable

	// ID returns the unique, creation-ordered light ID. Visible lights are
	// sorted by ID so frame composition is deterministic.
	ID() uint32

	// Type returns the kind of light source.
	Type() LightType

	// Importance returns the light's pixel slot ranking policy.
	Importance() LightImportance

	// Color returns the raw RGB color of the light.
	Color() common.Color

	// EffectiveColor returns the color scaled by intensity.
	EffectiveColor() common.Color

	// IntensityDivisor returns the denominator used for distance penalties:
	// brighter lights tolerate larger distances before losing their slot.
	IntensityDivisor() float32

	// SpecularIntensity returns the specular multiplier, 0 disables specular.
	SpecularIntensity() float32

	// Position returns the world-space position. Meaningless for directional
	// lights.
	Position() common.Vector3

	// Rotation returns the light's rotation matrix. The light shines along
	// its local +Z axis.
	Rotation() common.Matrix4

	// Direction returns the normalized world-space light direction.
	Direction() common.Vector3

	// Range returns the attenuation distance for point and spot lights.
	Range() float32

	// Fov returns the full cone angle in radians for spot lights.
	Fov() float32

	// AspectRatio returns the spot cone aspect ratio, normally 1.
	AspectRatio() float32

	// Frustum returns the world-space cone volume of a spot light. For other
	// light types the result is meaningless.
	Frustum() common.Frustum

	// ShapeTexture returns the light shape (cookie) texture, or nil.
	ShapeTexture() any

	// ShadowBias returns the depth bias parameters.
	ShadowBias() BiasParameters

	// ShadowCascade returns the directional cascade parameters.
	ShadowCascade() CascadeParameters

	// ShadowFocus returns the shadow camera focus parameters.
	ShadowFocus() FocusParameters

	// FadeDistance returns the distance the light itself starts fading at,
	// or 0 to disable fading.
	FadeDistance() float32

	// ShadowFadeDistance returns the distance shadows start fading at, or 0
	// to derive it from the shadow distance.
	ShadowFadeDistance() float32

	// ShadowIntensity returns the shadow darkness, 0 full dark to 1 disabled.
	ShadowIntensity() float32

	// ShadowResolution returns the shadow map size multiplier in (0, 1].
	ShadowResolution() float32

	// ShadowNearFarRatio returns the spot/point shadow camera near plane as a
	// fraction of the light range.
	ShadowNearFarRatio() float32

	// ShadowMaxExtrusion returns how far directional shadow cameras are
	// pulled back from the view camera.
	ShadowMaxExtrusion() float32

	// SetColor sets the raw RGB color.
	SetColor(color common.Color)

	// SetIntensity sets the color intensity multiplier.
	SetIntensity(intensity float32)

	// SetTransform sets the world position and rotation.
	SetTransform(position common.Vector3, rotation common.Matrix4)

	// SetRange sets the attenuation distance.
	SetRange(lightRange float32)

	// SetImportance sets the pixel slot ranking policy.
	SetImportance(importance LightImportance)

	// SetCastShadows toggles shadow map rendering for the light.
	SetCastShadows(castShadows bool)
}

type lightImpl struct {
	index atomic.Uint32

	id         uint32
	lightType  LightType
	importance LightImportance

	position common.Vector3
	rotation common.Matrix4

	color             common.Color
	intensity         float32
	specularIntensity float32

	lightRange  float32
	fov         float32
	aspectRatio float32

	viewMask   uint32
	lightMask  uint32
	shadowMask uint32
	zoneMask   uint32

	castShadows  bool
	shapeTexture any

	shadowBias         BiasParameters
	shadowCascade      CascadeParameters
	shadowFocus        FocusParameters
	fadeDistance       float32
	shadowFadeDistance float32
	shadowDistance     float32
	shadowIntensity    float32
	shadowResolution   float32
	shadowNearFarRatio float32
	shadowMaxExtrusion float32

	drawDistance    float32
	viewFrameNumber atomic.Uint32
	cachedZone      CachedZone
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create (directional, point, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		id:                 lightIDCounter.Add(1),
		lightType:          lightType,
		rotation:           common.Identity4(),
		color:              common.White,
		intensity:          1.0,
		specularIntensity:  1.0,
		lightRange:         10.0,
		fov:                30.0 * (math.Pi / 180.0), // radians
		aspectRatio:        1.0,
		viewMask:           0xffffffff,
		lightMask:          0xffffffff,
		shadowMask:         0xffffffff,
		zoneMask:           0xffffffff,
		shadowCascade:      CascadeParameters{FadeStart: 0.8},
		shadowFocus:        FocusParameters{Focus: true, NonUniform: true, Quantize: 0.5, MinView: 3.0},
		shadowIntensity:    0.0,
		shadowResolution:   1.0,
		shadowNearFarRatio: 0.002,
		shadowMaxExtrusion: 1000.0,
	}
	l.index.Store(InvalidIndex)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ── Light accessors ──

func (l *lightImpl) ID() uint32 {
	return l.id
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Importance() LightImportance {
	return l.importance
}

func (l *lightImpl) Color() common.Color {
	return l.color
}

func (l *lightImpl) EffectiveColor() common.Color {
	return l.color.Scale(l.intensity)
}

func (l *lightImpl) IntensityDivisor() float32 {
	return max(l.EffectiveColor().Luminance(), common.Epsilon)
}

func (l *lightImpl) SpecularIntensity() float32 {
	return l.specularIntensity
}

func (l *lightImpl) Position() common.Vector3 {
	return l.position
}

func (l *lightImpl) Rotation() common.Matrix4 {
	return l.rotation
}

func (l *lightImpl) Direction() common.Vector3 {
	return l.rotation.MulVector(common.Forward)
}

func (l *lightImpl) Range() float32 {
	return l.lightRange
}

func (l *lightImpl) Fov() float32 {
	return l.fov
}

func (l *lightImpl) AspectRatio() float32 {
	return l.aspectRatio
}

func (l *lightImpl) ShapeTexture() any {
	return l.shapeTexture
}

func (l *lightImpl) ShadowBias() BiasParameters {
	return l.shadowBias
}

func (l *lightImpl) ShadowCascade() CascadeParameters {
	return l.shadowCascade
}

func (l *lightImpl) ShadowFocus() FocusParameters {
	return l.shadowFocus
}

func (l *lightImpl) FadeDistance() float32 {
	return l.fadeDistance
}

func (l *lightImpl) ShadowFadeDistance() float32 {
	return l.shadowFadeDistance
}

func (l *lightImpl) ShadowIntensity() float32 {
	return l.shadowIntensity
}

func (l *lightImpl) ShadowResolution() float32 {
	return l.shadowResolution
}

func (l *lightImpl) ShadowNearFarRatio() float32 {
	return l.shadowNearFarRatio
}

func (l *lightImpl) ShadowMaxExtrusion() float32 {
	return l.shadowMaxExtrusion
}

func (l *lightImpl) SetColor(color common.Color) {
	l.color = color
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) SetTransform(position common.Vector3, rotation common.Matrix4) {
	l.position = position
	l.rotation = rotation
}

func (l *lightImpl) SetRange(lightRange float32) {
	l.lightRange = lightRange
}

func (l *lightImpl) SetImportance(importance LightImportance) {
	l.importance = importance
}

func (l *lightImpl) SetCastShadows(castShadows bool) {
	l.castShadows = castShadows
}

// ── Drawable implementation ──

func (l *lightImpl) Index() uint32 {
	return l.index.Load()
}

func (l *lightImpl) SetIndex(index uint32) {
	l.index.Store(index)
}

// WorldBoundingBox returns the light's influence volume. Directional lights
// are unbounded and return a box large enough to pass every frustum test.
func (l *lightImpl) WorldBoundingBox() common.BoundingBox {
	switch l.lightType {
	case LightTypePoint:
		return common.BoundingBoxFromSphere(common.Sphere{Center: l.position, Radius: l.lightRange})
	case LightTypeSpot:
		f := l.frustum()
		return f.BoundingBox()
	default:
		return common.BoundingBox{
			Min: common.Vector3{X: -common.LargeValue, Y: -common.LargeValue, Z: -common.LargeValue},
			Max: common.Vector3{X: common.LargeValue, Y: common.LargeValue, Z: common.LargeValue},
		}
	}
}

// frustum returns the spot light's cone volume as a frustum.
func (l *lightImpl) frustum() common.Frustum {
	transform := l.rotation
	transform.SetTranslation(l.position)
	near := l.shadowNearFarRatio * l.lightRange
	return common.PerspectiveFrustum(l.fov, l.aspectRatio, 1.0, near, l.lightRange, transform)
}

// Frustum returns the world-space cone volume of a spot light. For other
// light types the result is meaningless.
func (l *lightImpl) Frustum() common.Frustum {
	return l.frustum()
}

func (l *lightImpl) DrawDistance() float32 {
	return l.drawDistance
}

func (l *lightImpl) ShadowDistance() float32 {
	return l.shadowDistance
}

func (l *lightImpl) ViewMask() uint32 {
	return l.viewMask
}

func (l *lightImpl) LightMask() uint32 {
	return l.lightMask
}

func (l *lightImpl) ShadowMask() uint32 {
	return l.shadowMask
}

func (l *lightImpl) ZoneMask() uint32 {
	return l.zoneMask
}

func (l *lightImpl) CastShadows() bool {
	return l.castShadows
}

func (l *lightImpl) LightmapIndex() uint32 {
	return 0
}

func (l *lightImpl) SourceBatches() []SourceBatch {
	return nil
}

func (l *lightImpl) UpdateBatches(frame FrameInfo) {}

func (l *lightImpl) MarkInView(frameNumber uint32) {
	l.viewFrameNumber.Store(frameNumber)
}

func (l *lightImpl) InView(frameNumber uint32) bool {
	return l.viewFrameNumber.Load() == frameNumber
}

func (l *lightImpl) UpdateGeometryType() UpdateGeometryType {
	return UpdateGeometryNone
}

func (l *lightImpl) UpdateGeometry(frame FrameInfo) {}

func (l *lightImpl) MutableCachedZone() *CachedZone {
	return &l.cachedZone
}
