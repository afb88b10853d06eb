package renderpipeline

import (
	"math"

	"github.com/rokups/Urho3D/common"
	"github.com/rokups/Urho3D/engine/drawable"
)

// NumSplitFramesToLive is how many frames a light processor survives in the
// cache without being used before it is eligible for eviction.
const NumSplitFramesToLive = 600

// LightProcessorCallback lets the pipeline decide shadow policy per light
// and hand out shadow map regions.
type LightProcessorCallback interface {
	// IsLightShadowed reports whether the light should render shadows this
	// frame.
	IsLightShadowed(light drawable.Light) bool

	// AllocateTransientShadowMap reserves a one-frame shadow map region.
	AllocateTransientShadowMap(size common.IntVector2) ShadowMapRegion
}

// LightProcessor manages one visible light across frames: lit geometry
// collection, shadow split setup, shadow caster collection and cooked shader
// parameters.
type LightProcessor struct {
	light  drawable.Light
	splits [MaxLightSplits]ShadowSplitProcessor

	// Frame inputs.
	isShadowRequested  bool
	numSplitsRequested int

	// Frame results.
	overlapsCamera     bool
	numActiveSplits    int
	shadowMapSplitSize int
	shadowMapSize      common.IntVector2

	// litGeometries holds forward-lit geometries for point and spot lights,
	// and every lit geometry for directional lights so shadow focusing sees
	// the whole scene.
	litGeometries []drawable.Drawable

	// shadowCasterCandidates holds all potential casters for point and spot
	// lights, and serves as a scratch buffer for directional split queries.
	shadowCasterCandidates []drawable.Drawable

	shadowMap ShadowMapRegion
	params    CookedLightParams

	forwardLitHash  uint32
	lightVolumeHash uint32
	shadowHashes    [MaxLightSplits]uint32
}

// NewLightProcessor creates a processor for one light.
func NewLightProcessor(light drawable.Light) *LightProcessor {
	p := &LightProcessor{light: light}
	for i := range p.splits {
		p.splits[i].lightProcessor = p
		p.splits[i].splitIndex = i
	}
	return p
}

// Light returns the processed light.
func (p *LightProcessor) Light() drawable.Light {
	return p.light
}

// LitGeometries returns the geometries lit by this light.
func (p *LightProcessor) LitGeometries() []drawable.Drawable {
	return p.litGeometries
}

// HasShadow reports whether the light renders shadows this frame.
func (p *LightProcessor) HasShadow() bool {
	return p.numActiveSplits > 0
}

// ShadowMapSize returns the requested shadow atlas size, or zero without
// shadows.
func (p *LightProcessor) ShadowMapSize() common.IntVector2 {
	if p.numActiveSplits == 0 {
		return common.IntVector2{}
	}
	return p.shadowMapSize
}

// NumActiveSplits returns the number of shadow splits rendered this frame.
func (p *LightProcessor) NumActiveSplits() int {
	return p.numActiveSplits
}

// Split returns one shadow split processor.
func (p *LightProcessor) Split(splitIndex int) *ShadowSplitProcessor {
	return &p.splits[splitIndex]
}

// Splits returns the active shadow splits.
func (p *LightProcessor) Splits() []*ShadowSplitProcessor {
	splits := make([]*ShadowSplitProcessor, 0, p.numActiveSplits)
	for i := 0; i < p.numActiveSplits; i++ {
		splits = append(splits, &p.splits[i])
	}
	return splits
}

// ShadowMap returns the atlas region covering all splits.
func (p *LightProcessor) ShadowMap() ShadowMapRegion {
	return p.shadowMap
}

// Params returns the cooked shader parameters, valid after EndUpdate.
func (p *LightProcessor) Params() *CookedLightParams {
	return &p.params
}

// DoesOverlapCamera reports whether the camera is inside the light volume.
func (p *LightProcessor) DoesOverlapCamera() bool {
	return p.overlapsCamera
}

// ForwardLitHash contributes the light's pipeline-state-relevant parameters
// to forward lit batch cache keys.
func (p *LightProcessor) ForwardLitHash() uint32 {
	return p.forwardLitHash
}

// ShadowHash contributes per-split parameters to shadow batch cache keys.
func (p *LightProcessor) ShadowHash(splitIndex int) uint32 {
	return p.shadowHashes[splitIndex]
}

// LightVolumeHash contributes to deferred light volume batch cache keys.
func (p *LightProcessor) LightVolumeHash() uint32 {
	return p.lightVolumeHash
}

// BeginUpdate resets frame state on the main thread.
func (p *LightProcessor) BeginUpdate(dp *DrawableProcessor, callback LightProcessorCallback) {
	p.litGeometries = p.litGeometries[:0]
	p.shadowCasterCandidates = p.shadowCasterCandidates[:0]
	p.shadowMap = ShadowMapRegion{}
	p.numActiveSplits = 0

	p.isShadowRequested = callback.IsLightShadowed(p.light)
	switch p.light.Type() {
	case drawable.LightTypeDirectional:
		p.numSplitsRequested = numShadowSplits(p.light.ShadowCascade())
	case drawable.LightTypeSpot:
		p.numSplitsRequested = 1
	case drawable.LightTypePoint:
		p.numSplitsRequested = MaxLightSplits
	}
}

// Update collects lit geometries and shadow casters. Runs on a worker; must
// not touch other light processors.
func (p *LightProcessor) Update(dp *DrawableProcessor) {
	p.collectLitGeometriesAndShadowCasters(dp)
	p.overlapsCamera = p.checkCameraOverlap(dp)

	if !p.isShadowRequested {
		return
	}

	p.setupShadowCameras(dp)

	cullCamera := dp.FrameInfo().Camera
	cullFrustum := cullCamera.Frustum()
	sceneZRange := dp.SceneZRange()
	lightType := p.light.Type()

	for i := 0; i < p.numActiveSplits; i++ {
		split := &p.splits[i]
		split.Reset()

		// Skip point light faces outside the view.
		if lightType == drawable.LightTypePoint {
			splitFrustum := split.shadowCamera.Frustum()
			if !cullFrustum.IsInsideFast(splitFrustum.BoundingBox()) {
				continue
			}
		}

		candidates := p.shadowCasterCandidates
		if lightType == drawable.LightTypeDirectional {
			// Skip cascades fully outside the visible depth range.
			if !sceneZRange.Intersects(split.cascadeZRange) {
				continue
			}
			candidates = p.queryDirectionalShadowCasters(dp, split)
		}

		split.ProcessShadowCasters(dp, candidates)
	}

	p.finalizeShadowMap(dp)
}

// EndUpdate allocates the shadow map, finalizes split cameras and cooks
// shader parameters. Runs on the main thread in shadow map size order.
func (p *LightProcessor) EndUpdate(dp *DrawableProcessor, callback LightProcessorCallback) {
	if p.numActiveSplits > 0 {
		p.setShadowMap(callback.AllocateTransientShadowMap(p.shadowMapSize), dp.Settings().CubeShadowMapPadding)
	}
	p.cookShaderParameters(dp.FrameInfo().Camera, dp.Settings().CubeShadowMapPadding)
	p.updateHashes()
}

func (p *LightProcessor) collectLitGeometriesAndShadowCasters(dp *DrawableProcessor) {
	light := p.light
	lightMask := light.LightMask()
	viewMask := dp.FrameInfo().Camera.ViewMask()
	collectCasters := p.isShadowRequested

	switch light.Type() {
	case drawable.LightTypeDirectional:
		for _, geometry := range dp.VisibleGeometries() {
			if lightMaskInZone(geometry)&lightMask != 0 {
				p.litGeometries = append(p.litGeometries, geometry)
			}
		}

	case drawable.LightTypeSpot:
		frustum := light.Frustum()
		for _, d := range dp.Index().QueryFrustum(frustum) {
			p.classifyLitOrCaster(dp, d, lightMask, viewMask, collectCasters)
		}

	case drawable.LightTypePoint:
		sphere := common.Sphere{Center: light.Position(), Radius: light.Range()}
		for _, d := range dp.Index().QuerySphere(sphere) {
			p.classifyLitOrCaster(dp, d, lightMask, viewMask, collectCasters)
		}
	}
}

// classifyLitOrCaster sorts a queried drawable into lit geometry, shadow
// caster candidate, both, or neither.
func (p *LightProcessor) classifyLitOrCaster(dp *DrawableProcessor, d drawable.Drawable,
	lightMask, viewMask uint32, collectCasters bool) {

	if _, isLight := d.(drawable.Light); isLight {
		return
	}
	if d.ViewMask()&viewMask == 0 {
		return
	}

	flags := dp.GeometryRenderFlags(d.Index())
	if flags&GeometryVisible != 0 && lightMaskInZone(d)&lightMask != 0 {
		p.litGeometries = append(p.litGeometries, d)
	}
	if collectCasters && d.CastShadows() && d.ShadowMask()&lightMask != 0 {
		p.shadowCasterCandidates = append(p.shadowCasterCandidates, d)
	}
}

func (p *LightProcessor) checkCameraOverlap(dp *DrawableProcessor) bool {
	cullCamera := dp.FrameInfo().Camera
	switch p.light.Type() {
	case drawable.LightTypeDirectional:
		return true
	case drawable.LightTypePoint:
		distance := cullCamera.Position().Sub(p.light.Position()).Length()
		return distance < p.light.Range()+cullCamera.Near()
	case drawable.LightTypeSpot:
		frustum := p.light.Frustum()
		return frustum.ContainsPoint(cullCamera.Position())
	}
	return false
}

func (p *LightProcessor) setupShadowCameras(dp *DrawableProcessor) {
	cullCamera := dp.FrameInfo().Camera

	switch p.light.Type() {
	case drawable.LightTypeDirectional:
		cascade := p.light.ShadowCascade()
		nearSplit := cullCamera.Near()

		p.numActiveSplits = 0
		for i := 0; i < p.numSplitsRequested; i++ {
			if nearSplit > cullCamera.Far() {
				break
			}
			farSplit := min(cullCamera.Far(), cascade.Splits[i])
			if farSplit <= nearSplit {
				break
			}

			p.splits[i].InitializeDirectional(dp,
				common.FloatRange{Min: nearSplit, Max: farSplit}, p.litGeometries)

			nearSplit = farSplit
			p.numActiveSplits++
		}

	case drawable.LightTypeSpot:
		p.splits[0].InitializeSpot()
		p.numActiveSplits = 1

	case drawable.LightTypePoint:
		for i := 0; i < MaxLightSplits; i++ {
			p.splits[i].InitializePointFace(i)
		}
		p.numActiveSplits = MaxLightSplits
	}
}

// queryDirectionalShadowCasters collects casters inside one cascade's shadow
// camera frustum.
func (p *LightProcessor) queryDirectionalShadowCasters(dp *DrawableProcessor,
	split *ShadowSplitProcessor) []drawable.Drawable {

	lightMask := p.light.LightMask()
	viewMask := dp.FrameInfo().Camera.ViewMask()

	p.shadowCasterCandidates = p.shadowCasterCandidates[:0]
	for _, d := range dp.Index().QueryFrustum(split.shadowCamera.Frustum()) {
		if _, isLight := d.(drawable.Light); isLight {
			continue
		}
		if d.CastShadows() && d.ViewMask()&viewMask != 0 && d.ShadowMask()&lightMask != 0 {
			p.shadowCasterCandidates = append(p.shadowCasterCandidates, d)
		}
	}
	return p.shadowCasterCandidates
}

// finalizeShadowMap decides whether a shadow map is needed and how big it
// must be.
func (p *LightProcessor) finalizeShadowMap(dp *DrawableProcessor) {
	if p.numActiveSplits == 0 {
		return
	}

	hasShadowCasters := false
	for i := 0; i < p.numActiveSplits; i++ {
		if p.splits[i].HasShadowCasters() {
			hasShadowCasters = true
			break
		}
	}
	if !hasShadowCasters {
		p.numActiveSplits = 0
		return
	}

	settings := dp.Settings()
	splitSize := settings.ShadowSplitSize
	if p.light.Type() == drawable.LightTypePoint {
		splitSize = settings.PointShadowSplitSize
	}
	splitSize = max(int(float32(splitSize)*p.light.ShadowResolution()), 16)

	p.shadowMapSplitSize = splitSize
	p.shadowMapSize = common.IntVector2{X: splitSize, Y: splitSize}.Mul(p.splitsGridSize())
}

// setShadowMap distributes the allocated region over the active splits.
func (p *LightProcessor) setShadowMap(shadowMap ShadowMapRegion, cubePadding float32) {
	if !shadowMap.Defined() {
		// Allocation failed, drop shadows for this frame.
		p.numActiveSplits = 0
		return
	}

	p.shadowMap = shadowMap
	gridSize := p.splitsGridSize()
	for i := 0; i < p.numActiveSplits; i++ {
		p.splits[i].FinalizeShadow(shadowMap.GetSplit(i, gridSize), cubePadding)
	}
}

// splitsGridSize returns the split layout inside the shadow map region.
func (p *LightProcessor) splitsGridSize() common.IntVector2 {
	switch {
	case p.numActiveSplits == 1:
		return common.IntVector2{X: 1, Y: 1}
	case p.numActiveSplits == 2:
		return common.IntVector2{X: 2, Y: 1}
	case p.numActiveSplits < 6:
		return common.IntVector2{X: 2, Y: 2}
	default:
		return common.IntVector2{X: 3, Y: 2}
	}
}

// updateHashes recomputes the pipeline state hashes from light parameters.
func (p *LightProcessor) updateHashes() {
	bias := p.light.ShadowBias()

	hash := uint32(p.light.Type()) & 0x3
	hash |= boolBit(p.HasShadow()) << 2
	hash |= boolBit(p.light.ShapeTexture() != nil) << 3
	hash |= boolBit(p.light.SpecularIntensity() > 0) << 4
	hash |= boolBit(bias.NormalOffset > 0) << 5
	common.CombineHash(&hash, math.Float32bits(bias.ConstantBias))
	common.CombineHash(&hash, math.Float32bits(bias.SlopeScaledBias))

	p.forwardLitHash = hash
	p.lightVolumeHash = hash | boolBit(p.overlapsCamera)<<6
	for i := 0; i < p.numActiveSplits; i++ {
		splitHash := hash
		common.CombineHash(&splitHash, uint32(i))
		p.shadowHashes[i] = splitHash
	}
}

// numShadowSplits counts the usable cascade splits: distances must be
// positive and strictly increasing.
func numShadowSplits(cascade drawable.CascadeParameters) int {
	numSplits := 0
	previous := float32(0)
	for i := 0; i < MaxCascadeSplits; i++ {
		if cascade.Splits[i] <= previous {
			break
		}
		previous = cascade.Splits[i]
		numSplits++
	}
	return max(numSplits, 1)
}

// lightMaskInZone folds the zone light mask into the drawable's own.
func lightMaskInZone(d drawable.Drawable) uint32 {
	if zone := d.MutableCachedZone().Zone; zone != nil {
		return d.LightMask() & zone.LightMask()
	}
	return d.LightMask()
}

// shadowMaskInZone folds the zone shadow mask into the drawable's own.
func shadowMaskInZone(d drawable.Drawable) uint32 {
	if zone := d.MutableCachedZone().Zone; zone != nil {
		return d.ShadowMask() & zone.ShadowMask()
	}
	return d.ShadowMask()
}
