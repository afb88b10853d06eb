package renderpipeline

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rokups/Urho3D/common"
	"github.com/rokups/Urho3D/engine/camera"
	"github.com/rokups/Urho3D/engine/drawable"
)

// GeometryRenderFlags describe how a visible geometry participates in the
// frame.
type GeometryRenderFlags uint8

const (
	// GeometryVisible is set for every geometry inside the view frustum.
	GeometryVisible GeometryRenderFlags = 1 << iota
	// GeometryLit is set when the geometry receives ambient lighting.
	GeometryLit
	// GeometryForwardLit is set when the geometry accumulates per-light
	// forward lighting.
	GeometryForwardLit
)

// AddResult reports what a pass did with an offered batch.
type AddResult struct {
	// Added is true when any batch was created.
	Added bool
	// LitAdded is true when the created batch can receive forward lighting.
	LitAdded bool
}

// DrawableProcessorPass receives visible geometry batches during culling.
// AddBatch is called from worker goroutines and must only touch per-context
// state.
type DrawableProcessorPass interface {
	// BeginFrame resets per-frame buffers.
	BeginFrame(numContexts int)

	// AddBatch offers one source batch with its resolved technique.
	AddBatch(contextIndex int, geometry drawable.Drawable, sourceBatchIndex int,
		technique drawable.Technique) AddResult

	// NeedAmbient reports whether batches of this pass sample ambient
	// lighting.
	NeedAmbient() bool
}

// DrawableProcessor performs per-frame visibility processing: it culls
// drawables, assigns them to passes, tracks scene depth bounds, accumulates
// forward lighting and collects shadow casters. One processor serves one
// viewport.
type DrawableProcessor struct {
	workQueue       *WorkQueue
	index           drawable.Index
	settings        Settings
	defaultMaterial drawable.Material
	defaultZone     drawable.Zone
	passes          []DrawableProcessorPass

	lightProcessorCache *LightProcessorCache

	// Frame constants, set in OnUpdateBegin.
	frameInfo       drawable.FrameInfo
	numDrawables    int
	viewMatrix      common.Matrix4
	viewZ           common.Vector3
	absViewZ        common.Vector3
	materialQuality int

	sceneZRangeTemp []common.FloatRange
	sceneZRange     common.FloatRange

	// Per-drawable frame state, indexed by drawable slot.
	isDrawableUpdated []atomic.Bool
	geometryFlags     []GeometryRenderFlags
	geometryZRanges   []common.FloatRange
	geometryLighting  []LightAccumulator

	visibleGeometriesTemp      workBuffer[drawable.Drawable]
	visibleLightsTemp          workBuffer[drawable.Light]
	threadedGeometryUpdates    workBuffer[drawable.Drawable]
	nonThreadedGeometryUpdates workBuffer[drawable.Drawable]

	// queuedDrawableUpdates is filled from light processors running in
	// parallel without a context index, hence the mutex.
	queuedDrawableUpdatesMu sync.Mutex
	queuedDrawableUpdates   []drawable.Drawable

	visibleGeometries          []drawable.Drawable
	visibleLights              []drawable.Light
	lightProcessors            []*LightProcessor
	lightProcessorsByShadowMap []*LightProcessor
}

// NewDrawableProcessor creates a processor over the given spatial index.
func NewDrawableProcessor(workQueue *WorkQueue, index drawable.Index,
	settings Settings, defaultMaterial drawable.Material) *DrawableProcessor {

	return &DrawableProcessor{
		workQueue:           workQueue,
		index:               index,
		settings:            settings.withDefaults(),
		defaultMaterial:     defaultMaterial,
		defaultZone:         drawable.NewZone(),
		lightProcessorCache: NewLightProcessorCache(index),
	}
}

// SetPasses assigns the scene passes fed by visibility processing.
func (p *DrawableProcessor) SetPasses(passes ...DrawableProcessorPass) {
	p.passes = passes
}

// FrameInfo returns the constants of the frame being processed.
func (p *DrawableProcessor) FrameInfo() drawable.FrameInfo {
	return p.frameInfo
}

// Settings returns the processor configuration.
func (p *DrawableProcessor) Settings() Settings {
	return p.settings
}

// DefaultMaterial returns the fallback material for source batches without
// one.
func (p *DrawableProcessor) DefaultMaterial() drawable.Material {
	return p.defaultMaterial
}

// Index returns the spatial index drawables are queried from.
func (p *DrawableProcessor) Index() drawable.Index {
	return p.index
}

// SceneZRange returns the union of visible geometry depth ranges, valid after
// ProcessVisibleDrawables.
func (p *DrawableProcessor) SceneZRange() common.FloatRange {
	return p.sceneZRange
}

// GeometryRenderFlags returns the frame flags of one drawable slot.
func (p *DrawableProcessor) GeometryRenderFlags(drawableIndex uint32) GeometryRenderFlags {
	if int(drawableIndex) >= len(p.geometryFlags) {
		return 0
	}
	return p.geometryFlags[drawableIndex]
}

// GeometryZRange returns the view-space depth range of one drawable slot.
func (p *DrawableProcessor) GeometryZRange(drawableIndex uint32) common.FloatRange {
	return p.geometryZRanges[drawableIndex]
}

// GeometryLighting returns the accumulated lighting of one drawable slot.
func (p *DrawableProcessor) GeometryLighting(drawableIndex uint32) *LightAccumulator {
	return &p.geometryLighting[drawableIndex]
}

// VisibleGeometries returns the geometries inside the view frustum.
func (p *DrawableProcessor) VisibleGeometries() []drawable.Drawable {
	return p.visibleGeometries
}

// VisibleLights returns the visible lights ordered by light ID.
func (p *DrawableProcessor) VisibleLights() []drawable.Light {
	return p.visibleLights
}

// LightProcessors returns the light processors matching VisibleLights.
func (p *DrawableProcessor) LightProcessors() []*LightProcessor {
	return p.lightProcessors
}

// LightProcessorsByShadowMapSize returns light processors ordered by
// descending shadow map size, valid after ProcessLights.
func (p *DrawableProcessor) LightProcessorsByShadowMapSize() []*LightProcessor {
	return p.lightProcessorsByShadowMap
}

// OnUpdateBegin resets per-frame state. Drawable slots must be assigned
// before calling.
func (p *DrawableProcessor) OnUpdateBegin(frame drawable.FrameInfo) {
	p.frameInfo = frame
	p.numDrawables = len(p.index.Drawables())
	p.viewMatrix = frame.Camera.View()
	p.viewZ = common.Vector3{X: p.viewMatrix[2], Y: p.viewMatrix[6], Z: p.viewMatrix[10]}
	p.absViewZ = p.viewZ.Abs()
	p.materialQuality = p.settings.MaterialQuality

	numContexts := p.workQueue.NumContexts()
	p.sceneZRangeTemp = resizeRanges(p.sceneZRangeTemp, numContexts)
	for i := range p.sceneZRangeTemp {
		p.sceneZRangeTemp[i] = common.UndefinedFloatRange()
	}
	p.sceneZRange = common.UndefinedFloatRange()

	if len(p.isDrawableUpdated) < p.numDrawables {
		p.isDrawableUpdated = make([]atomic.Bool, p.numDrawables)
	} else {
		for i := 0; i < p.numDrawables; i++ {
			p.isDrawableUpdated[i].Store(false)
		}
	}
	p.geometryFlags = resizeFlags(p.geometryFlags, p.numDrawables)
	for i := range p.geometryFlags {
		p.geometryFlags[i] = 0
	}
	p.geometryZRanges = resizeRanges(p.geometryZRanges, p.numDrawables)
	if len(p.geometryLighting) < p.numDrawables {
		p.geometryLighting = make([]LightAccumulator, p.numDrawables)
	}

	p.visibleGeometriesTemp.reset(numContexts)
	p.visibleLightsTemp.reset(numContexts)
	p.threadedGeometryUpdates.reset(numContexts)
	p.nonThreadedGeometryUpdates.reset(numContexts)
	p.queuedDrawableUpdates = p.queuedDrawableUpdates[:0]

	p.visibleGeometries = p.visibleGeometries[:0]
	p.visibleLights = p.visibleLights[:0]
	p.lightProcessors = p.lightProcessors[:0]
	p.lightProcessorsByShadowMap = p.lightProcessorsByShadowMap[:0]

	for _, pass := range p.passes {
		pass.BeginFrame(numContexts)
	}

	p.lightProcessorCache.OnFrameBegin()
}

// ProcessVisibleDrawables culls the candidate drawables in parallel, sorts
// the surviving lights by ID for deterministic ordering and folds per-context
// depth ranges into the scene Z range.
func (p *DrawableProcessor) ProcessVisibleDrawables(drawables []drawable.Drawable) {
	forEachParallel(p.workQueue, len(drawables), func(contextIndex, index int) {
		p.processVisibleDrawable(contextIndex, drawables[index])
	})

	p.visibleGeometries = p.visibleGeometriesTemp.appendTo(p.visibleGeometries)

	// Sort lights by ID so iteration order does not depend on worker timing.
	p.visibleLights = p.visibleLightsTemp.appendTo(p.visibleLights)
	sort.Slice(p.visibleLights, func(i, j int) bool {
		return p.visibleLights[i].ID() < p.visibleLights[j].ID()
	})

	for _, light := range p.visibleLights {
		p.lightProcessors = append(p.lightProcessors, p.lightProcessorCache.GetLightProcessor(light))
	}

	for _, zRange := range p.sceneZRangeTemp {
		p.sceneZRange = p.sceneZRange.Union(zRange)
	}
}

func (p *DrawableProcessor) processVisibleDrawable(contextIndex int, d drawable.Drawable) {
	drawableIndex := d.Index()

	d.UpdateBatches(p.frameInfo)
	d.MarkInView(p.frameInfo.FrameNumber)
	p.isDrawableUpdated[drawableIndex].Store(true)

	boundingBox := d.WorldBoundingBox()
	distance := p.frameInfo.Camera.DistanceTo(boundingBox.Center())

	// Skip if too far.
	if maxDistance := d.DrawDistance(); maxDistance > 0 && distance > maxDistance {
		return
	}

	if light, isLight := d.(drawable.Light); isLight {
		// Skip lights with zero brightness or black color.
		if !light.EffectiveColor().EqualRGB(common.Black) && light.LightMask() != 0 {
			p.visibleLightsTemp.push(contextIndex, light)
		}
		return
	}

	zRange := p.calculateBoundingBoxZRange(boundingBox)
	p.updateDrawableZone(boundingBox, d)

	// Do not merge "infinite" objects like skyboxes into the scene range,
	// shadow focusing would degenerate otherwise.
	if !zRange.Valid() {
		p.geometryZRanges[drawableIndex] = common.FloatRange{Min: common.LargeValue, Max: common.LargeValue}
	} else {
		p.geometryZRanges[drawableIndex] = zRange
		p.sceneZRangeTemp[contextIndex] = p.sceneZRangeTemp[contextIndex].Union(zRange)
	}

	// Collect batches.
	isForwardLit := false
	needAmbient := false

	sourceBatches := d.SourceBatches()
	for i := range sourceBatches {
		material := sourceBatches[i].Material
		if material == nil {
			material = p.defaultMaterial
		}
		technique := material.FindTechnique(sourceBatches[i].Distance, p.materialQuality)
		if technique == nil {
			continue
		}

		for _, pass := range p.passes {
			result := pass.AddBatch(contextIndex, d, i, technique)
			if result.LitAdded {
				isForwardLit = true
			}
			if result.LitAdded || (result.Added && pass.NeedAmbient()) {
				needAmbient = true
			}
		}
	}

	if needAmbient {
		accumulator := &p.geometryLighting[drawableIndex]
		if isForwardLit {
			accumulator.Reset()
		}
		accumulator.SH = p.cachedZoneOf(d).AmbientSH()
	}

	p.visibleGeometriesTemp.push(contextIndex, d)

	flags := GeometryVisible
	if needAmbient {
		flags |= GeometryLit
	}
	if isForwardLit {
		flags |= GeometryForwardLit
	}
	p.geometryFlags[drawableIndex] = flags

	p.queueDrawableGeometryUpdate(contextIndex, d)
}

// updateDrawableZone refreshes the drawable's cached zone when the drawable
// moved past the invalidation distance or the cache is invalid.
func (p *DrawableProcessor) updateDrawableZone(boundingBox common.BoundingBox, d drawable.Drawable) {
	center := boundingBox.Center()
	cached := d.MutableCachedZone()
	if cached.Valid(center) {
		return
	}

	zone := p.index.ZoneAt(center, d.ZoneMask())
	if zone == nil {
		zone = p.defaultZone
	}
	cached.Zone = zone
	cached.Position = center
	cached.CacheInvalidationDistance = zoneCacheInvalidationDistance(zone, center)
}

// zoneCacheInvalidationDistance returns how far a drawable may move before
// its zone assignment is re-queried: half the distance to the nearest zone
// boundary.
func zoneCacheInvalidationDistance(zone drawable.Zone, position common.Vector3) float32 {
	box := zone.BoundingBox()
	if !box.Defined() {
		return common.LargeValue
	}
	toMin := position.Sub(box.Min).Abs()
	toMax := box.Max.Sub(position).Abs()
	closest := min(toMin.X, toMin.Y, toMin.Z, toMax.X, toMax.Y, toMax.Z)
	return max(closest*0.5, 0)
}

func (p *DrawableProcessor) cachedZoneOf(d drawable.Drawable) drawable.Zone {
	if zone := d.MutableCachedZone().Zone; zone != nil {
		return zone
	}
	return p.defaultZone
}

func (p *DrawableProcessor) queueDrawableGeometryUpdate(contextIndex int, d drawable.Drawable) {
	if d.UpdateGeometryType() == drawable.UpdateGeometryMainThread {
		p.nonThreadedGeometryUpdates.push(contextIndex, d)
	} else {
		p.threadedGeometryUpdates.push(contextIndex, d)
	}
}

// ProcessLights updates every visible light's processor: lit geometry and
// shadow caster collection in parallel, then shadow map allocation in
// descending size order so large maps are packed first.
func (p *DrawableProcessor) ProcessLights(callback LightProcessorCallback) {
	for _, processor := range p.lightProcessors {
		processor.BeginUpdate(p, callback)
	}

	forEachParallel(p.workQueue, len(p.lightProcessors), func(_, index int) {
		p.lightProcessors[index].Update(p)
	})

	p.sortLightProcessorsByShadowMap()
	for _, processor := range p.lightProcessorsByShadowMap {
		processor.EndUpdate(p, callback)
	}
}

// ProcessForwardLighting accumulates one light onto its lit geometries.
// Penalties order lights per drawable; see AccumulateLight.
func (p *DrawableProcessor) ProcessForwardLighting(lightIndex uint32, litGeometries []drawable.Drawable) {
	if int(lightIndex) >= len(p.visibleLights) {
		common.Logger().Error("invalid light index", "lightIndex", lightIndex)
		return
	}

	light := p.visibleLights[lightIndex]
	lightType := light.Type()
	lightIntensityPenalty := 1.0 / light.IntensityDivisor()

	ctx := LightAccumulatorContext{
		MaxPixelLights: p.settings.MaxPixelLights,
		Importance:     light.Importance(),
		LightIndex:     lightIndex,
		Lights:         p.visibleLights,
	}

	forEachParallel(p.workQueue, len(litGeometries), func(_, index int) {
		geometry := litGeometries[index]
		distance := max(lightDistanceTo(light, geometry), common.LargeEpsilon)
		penalty := drawableLightPenalty(distance*lightIntensityPenalty, ctx.Importance, lightType)
		p.geometryLighting[geometry.Index()].AccumulateLight(ctx, penalty)
	})
}

// lightDistanceTo returns the distance from a light to a drawable's bounds.
// Directional lights are everywhere at once.
func lightDistanceTo(light drawable.Light, d drawable.Drawable) float32 {
	if light.Type() == drawable.LightTypeDirectional {
		return 0
	}
	return d.WorldBoundingBox().DistanceToPoint(light.Position())
}

// drawableLightPenalty maps a light onto the per-drawable priority bands:
//
//	-2:     important directional lights
//	-1:     important point and spot lights
//	0 .. 2: automatic lights
//	3 .. 5: not important lights
func drawableLightPenalty(intensityPenalty float32, importance drawable.LightImportance,
	lightType drawable.LightType) float32 {

	switch importance {
	case drawable.LightImportanceImportant:
		if lightType == drawable.LightTypeDirectional {
			return -2
		}
		return -1
	case drawable.LightImportanceAuto:
		if intensityPenalty <= 1 {
			return intensityPenalty
		}
		return 2 - 1/intensityPenalty
	case drawable.LightImportanceNotImportant:
		if intensityPenalty <= 1 {
			return 3 + intensityPenalty
		}
		return 5 - 1/intensityPenalty
	default:
		return common.LargeValue
	}
}

// PreprocessShadowCasters filters shadow caster candidates for one shadow
// camera. A caster is kept when it is already visible or when its extruded
// shadow volume can reach the visible split frustum. Kept casters are queued
// for a deferred update. Inclusion is monotonic: visible casters never
// disappear when the split frustum shrinks.
func (p *DrawableProcessor) PreprocessShadowCasters(dst []drawable.Drawable,
	candidates []drawable.Drawable, frustumSubRange common.FloatRange,
	light drawable.Light, shadowCamera camera.Camera) []drawable.Drawable {

	dst = dst[:0]

	shadowCameraFrustum := shadowCamera.Frustum()
	worldToLightSpace := shadowCamera.View()
	lightType := light.Type()

	splitZRange := p.sceneZRange
	if lightType == drawable.LightTypeDirectional {
		splitZRange = p.sceneZRange.Intersect(frustumSubRange)
	}
	frustum := p.frameInfo.Camera.SplitFrustum(splitZRange.Min, splitZRange.Max)
	lightSpaceFrustum := frustum.Transformed(worldToLightSpace)
	lightSpaceFrustumBoundingBox := lightSpaceFrustum.BoundingBox()

	// Degenerate split frustum has no casters.
	if lightSpaceFrustum.Vertices[0] == lightSpaceFrustum.Vertices[4] {
		return dst
	}

	for _, d := range candidates {
		// Point light splits only cover one cube face.
		if lightType == drawable.LightTypePoint && !shadowCameraFrustum.IsInsideFast(d.WorldBoundingBox()) {
			continue
		}

		lightSpaceBoundingBox := d.WorldBoundingBox().Transformed(worldToLightSpace)
		isVisible := p.GeometryRenderFlags(d.Index())&GeometryVisible != 0
		if isVisible || isShadowCasterVisible(lightSpaceBoundingBox, shadowCamera,
			lightSpaceFrustum, lightSpaceFrustumBoundingBox) {
			p.QueueDrawableUpdate(d)
			dst = append(dst, d)
		}
	}
	return dst
}

// isShadowCasterVisible reports whether the shadow cast by a light-space
// bounding box can reach the light-space split frustum.
func isShadowCasterVisible(boundingBox common.BoundingBox, shadowCamera camera.Camera,
	frustum common.Frustum, frustumBoundingBox common.BoundingBox) bool {

	if shadowCamera.IsOrthographic() {
		// Extrude the box up to the far edge of the frustum bounds.
		extruded := boundingBox
		extruded.Max.Z = max(extruded.Max.Z, frustumBoundingBox.Max.Z)
		return frustum.IsInsideFast(extruded)
	}

	// Under perspective the box grows while extruded away from the light.
	center := boundingBox.Center()
	extrusionDistance := shadowCamera.Far()
	originalDistance := min(max(center.Length(), common.Epsilon), extrusionDistance)
	sizeFactor := extrusionDistance / originalDistance

	newCenter := center.Normalized().Scale(extrusionDistance)
	newHalfSize := boundingBox.Size().Scale(sizeFactor * 0.5)
	extruded := common.BoundingBox{Min: newCenter.Sub(newHalfSize), Max: newCenter.Add(newHalfSize)}
	extruded = extruded.Merge(boundingBox)
	return frustum.IsInsideFast(extruded)
}

// QueueDrawableUpdate queues a drawable for ProcessShadowCasters, at most
// once per frame.
func (p *DrawableProcessor) QueueDrawableUpdate(d drawable.Drawable) {
	alreadyUpdated := p.isDrawableUpdated[d.Index()].Swap(true)
	if !alreadyUpdated {
		p.queuedDrawableUpdatesMu.Lock()
		p.queuedDrawableUpdates = append(p.queuedDrawableUpdates, d)
		p.queuedDrawableUpdatesMu.Unlock()
	}
}

// ProcessShadowCasters updates the queued invisible shadow casters.
func (p *DrawableProcessor) ProcessShadowCasters() {
	queued := p.queuedDrawableUpdates
	forEachParallel(p.workQueue, len(queued), func(contextIndex, index int) {
		p.processQueuedDrawable(contextIndex, queued[index])
	})
	p.queuedDrawableUpdates = p.queuedDrawableUpdates[:0]
}

func (p *DrawableProcessor) processQueuedDrawable(contextIndex int, d drawable.Drawable) {
	d.UpdateBatches(p.frameInfo)
	d.MarkInView(p.frameInfo.FrameNumber)
	p.updateDrawableZone(d.WorldBoundingBox(), d)
	p.queueDrawableGeometryUpdate(contextIndex, d)
}

// sortLightProcessorsByShadowMap orders processors by descending shadow map
// size so the atlas packs large regions first; light ID breaks ties.
func (p *DrawableProcessor) sortLightProcessorsByShadowMap() {
	p.lightProcessorsByShadowMap = append(p.lightProcessorsByShadowMap[:0], p.lightProcessors...)
	sort.SliceStable(p.lightProcessorsByShadowMap, func(i, j int) bool {
		lhs, rhs := p.lightProcessorsByShadowMap[i], p.lightProcessorsByShadowMap[j]
		lhsSize, rhsSize := lhs.ShadowMapSize(), rhs.ShadowMapSize()
		if lhsSize != rhsSize {
			return lhsSize.Length() > rhsSize.Length()
		}
		return lhs.Light().ID() < rhs.Light().ID()
	})
}

// UpdateGeometries flushes deferred geometry updates, threaded ones in
// parallel and main-thread ones on the calling goroutine. A drawable whose
// update type changed since queuing is rerouted to the main thread.
func (p *DrawableProcessor) UpdateGeometries() {
	threaded := p.threadedGeometryUpdates.appendTo(nil)
	forEachParallel(p.workQueue, len(threaded), func(contextIndex, index int) {
		d := threaded[index]
		if d.UpdateGeometryType() == drawable.UpdateGeometryMainThread {
			p.nonThreadedGeometryUpdates.push(contextIndex, d)
		} else {
			d.UpdateGeometry(p.frameInfo)
		}
	})

	p.nonThreadedGeometryUpdates.forEach(func(d drawable.Drawable) {
		d.UpdateGeometry(p.frameInfo)
	})
}

// calculateBoundingBoxZRange projects a bounding box onto the view direction.
// Boxes of effectively infinite extent yield an invalid range.
func (p *DrawableProcessor) calculateBoundingBoxZRange(boundingBox common.BoundingBox) common.FloatRange {
	center := boundingBox.Center()
	edge := boundingBox.Size().Scale(0.5)

	if edge.LengthSquared() >= common.LargeValue*common.LargeValue {
		return common.UndefinedFloatRange()
	}

	viewCenterZ := p.viewZ.Dot(center) + p.viewMatrix[14]
	viewEdgeZ := p.absViewZ.Dot(edge)
	return common.FloatRange{Min: viewCenterZ - viewEdgeZ, Max: viewCenterZ + viewEdgeZ}
}

func resizeRanges(s []common.FloatRange, n int) []common.FloatRange {
	if cap(s) < n {
		return make([]common.FloatRange, n)
	}
	return s[:n]
}

func resizeFlags(s []GeometryRenderFlags, n int) []GeometryRenderFlags {
	if cap(s) < n {
		return make([]GeometryRenderFlags, n)
	}
	return s[:n]
}
