package renderpipeline

import (
	"sort"

	"github.com/rokups/Urho3D/common"
	"github.com/rokups/Urho3D/engine/drawable"
)

// BatchSortMode selects how a pass orders its batches for rendering.
type BatchSortMode int

const (
	// SortByState minimizes GPU state changes; used for opaque geometry.
	SortByState BatchSortMode = iota
	// SortBackToFront renders farthest first; required for blending.
	SortBackToFront
)

// Subpass indices passed to the pipeline state callback so it can tell which
// blend and depth state a batch needs.
const (
	SubpassUnlitBase uint32 = iota
	SubpassLitBase
	SubpassLight
	SubpassShadow
)

// GeometryBatch is one source batch assigned to a pass during culling, with
// the material passes resolved from the technique.
type GeometryBatch struct {
	Drawable         drawable.Drawable
	SourceBatchIndex uint32

	// UnlitBasePass renders the geometry with ambient lighting only.
	UnlitBasePass drawable.Pass
	// LitBasePass folds the main per-pixel light into the base pass; nil when
	// the technique has no forward lighting.
	LitBasePass drawable.Pass
	// LightPass renders one additional per-pixel light, additively.
	LightPass drawable.Pass
}

// dirtyBaseBatch marks a base batch whose pipeline state missed the cache
// during the parallel phase.
type dirtyBaseBatch struct {
	batchIndex int
	key        BatchStateCreateKey
	subpass    uint32
}

// dirtyLightBatch marks a light batch by its position in the per-context
// collection buffer.
type dirtyLightBatch struct {
	contextIndex int
	batchIndex   int
	key          BatchStateCreateKey
}

// ScenePass collects the batches of one scene pass, forward lit or unlit.
// Batches are gathered in parallel during culling, resolved against the
// pipeline state caches and sorted for rendering.
type ScenePass struct {
	workQueue   *WorkQueue
	sortMode    BatchSortMode
	needAmbient bool
	forwardLit  bool

	unlitBasePassIndex uint32
	litBasePassIndex   uint32
	lightPassIndex     uint32

	unlitGeometryBatchesTemp workBuffer[GeometryBatch]
	litGeometryBatchesTemp   workBuffer[GeometryBatch]
	unlitGeometryBatches     []GeometryBatch
	litGeometryBatches       []GeometryBatch

	unlitBaseCache *BatchStateCache
	litBaseCache   *BatchStateCache
	lightCache     *BatchStateCache

	// baseBatches holds one batch per geometry batch, written by index from
	// worker goroutines.
	baseBatches      []PipelineBatch
	lightBatchesTemp workBuffer[PipelineBatch]
	lightBatches     []PipelineBatch

	dirtyBaseBatches  workBuffer[dirtyBaseBatch]
	dirtyLightBatches workBuffer[dirtyLightBatch]

	sortedBaseByState  []PipelineBatchByState
	sortedLightByState []PipelineBatchByState
	sortedBackToFront  []PipelineBatchBackToFront
}

var _ DrawableProcessorPass = &ScenePass{}

// NewScenePass creates a forward lit scene pass over the named material
// passes.
func NewScenePass(workQueue *WorkQueue, sortMode BatchSortMode,
	unlitBasePassName, litBasePassName, lightPassName string) *ScenePass {

	return &ScenePass{
		workQueue:          workQueue,
		sortMode:           sortMode,
		needAmbient:        true,
		forwardLit:         true,
		unlitBasePassIndex: drawable.PassIndex(unlitBasePassName),
		litBasePassIndex:   drawable.PassIndex(litBasePassName),
		lightPassIndex:     drawable.PassIndex(lightPassName),
		unlitBaseCache:     NewBatchStateCache(),
		litBaseCache:       NewBatchStateCache(),
		lightCache:         NewBatchStateCache(),
	}
}

// NewUnlitScenePass creates a pass without forward lighting, for example a
// post-opaque or refract pass.
func NewUnlitScenePass(workQueue *WorkQueue, sortMode BatchSortMode,
	passName string) *ScenePass {

	return &ScenePass{
		workQueue:          workQueue,
		sortMode:           sortMode,
		unlitBasePassIndex: drawable.PassIndex(passName),
		unlitBaseCache:     NewBatchStateCache(),
		litBaseCache:       NewBatchStateCache(),
		lightCache:         NewBatchStateCache(),
	}
}

// BeginFrame resets the per-frame collection buffers.
func (s *ScenePass) BeginFrame(numContexts int) {
	s.unlitGeometryBatchesTemp.reset(numContexts)
	s.litGeometryBatchesTemp.reset(numContexts)
}

// NeedAmbient reports whether batches of this pass sample ambient lighting.
func (s *ScenePass) NeedAmbient() bool {
	return s.needAmbient
}

// InvalidatePipelineStateCache drops all cached pipeline states. Call when
// output formats or global render state change.
func (s *ScenePass) InvalidatePipelineStateCache() {
	s.unlitBaseCache.Invalidate()
	s.litBaseCache.Invalidate()
	s.lightCache.Invalidate()
}

// AddBatch offers one source batch. The batch is accepted when the technique
// has the base pass, and goes to the lit collection when it also has the
// light pass.
func (s *ScenePass) AddBatch(contextIndex int, geometry drawable.Drawable,
	sourceBatchIndex int, technique drawable.Technique) AddResult {

	unlitBasePass := technique.GetPass(s.unlitBasePassIndex)
	if unlitBasePass == nil {
		return AddResult{}
	}

	var lightPass, litBasePass drawable.Pass
	if s.forwardLit {
		lightPass = technique.GetPass(s.lightPassIndex)
		if lightPass != nil {
			litBasePass = technique.GetPass(s.litBasePassIndex)
		}
	}

	batch := GeometryBatch{
		Drawable:         geometry,
		SourceBatchIndex: uint32(sourceBatchIndex),
		UnlitBasePass:    unlitBasePass,
		LitBasePass:      litBasePass,
		LightPass:        lightPass,
	}

	if lightPass != nil {
		s.litGeometryBatchesTemp.push(contextIndex, batch)
		return AddResult{Added: true, LitAdded: true}
	}
	s.unlitGeometryBatchesTemp.push(contextIndex, batch)
	return AddResult{Added: true}
}

// CollectSceneBatches resolves pipeline states for all collected geometry
// batches and sorts the results. Cache hits resolve in parallel, misses are
// created serially afterwards. The main light is folded into the base pass
// for geometries whose highest priority pixel light is the main light.
func (s *ScenePass) CollectSceneBatches(mainLightIndex uint32,
	dp *DrawableProcessor, callback BatchStateCacheCallback) {

	s.unlitGeometryBatches = s.unlitGeometryBatchesTemp.appendTo(s.unlitGeometryBatches[:0])
	s.litGeometryBatches = s.litGeometryBatchesTemp.appendTo(s.litGeometryBatches[:0])

	numContexts := s.workQueue.NumContexts()
	s.dirtyBaseBatches.reset(numContexts)
	s.dirtyLightBatches.reset(numContexts)
	s.lightBatchesTemp.reset(numContexts)

	numUnlit := len(s.unlitGeometryBatches)
	numBase := numUnlit + len(s.litGeometryBatches)
	if cap(s.baseBatches) < numBase {
		s.baseBatches = make([]PipelineBatch, numBase)
	} else {
		s.baseBatches = s.baseBatches[:numBase]
	}

	var mainLightHash uint32
	if mainLightIndex != InvalidLightIndex {
		mainLightHash = dp.LightProcessors()[mainLightIndex].ForwardLitHash()
	}

	forEachParallel(s.workQueue, numBase, func(contextIndex, index int) {
		if index < numUnlit {
			s.collectUnlitBatch(contextIndex, index, dp)
		} else {
			s.collectLitBatch(contextIndex, index, numUnlit, mainLightIndex, mainLightHash, dp)
		}
	})

	s.dirtyBaseBatches.forEach(func(d dirtyBaseBatch) {
		cache := s.unlitBaseCache
		if d.subpass == SubpassLitBase {
			cache = s.litBaseCache
		}
		ctx := BatchStateCreateContext{Pass: s, SubpassIndex: d.subpass}
		s.baseBatches[d.batchIndex].PipelineState = cache.GetOrCreatePipelineState(&d.key, &ctx, callback)
	})
	s.dirtyLightBatches.forEach(func(d dirtyLightBatch) {
		ctx := BatchStateCreateContext{Pass: s, SubpassIndex: SubpassLight}
		batch := &s.lightBatchesTemp.items[d.contextIndex][d.batchIndex]
		batch.PipelineState = s.lightCache.GetOrCreatePipelineState(&d.key, &ctx, callback)
	})

	s.lightBatches = s.lightBatchesTemp.appendTo(s.lightBatches[:0])
	s.sortBatches()
}

func (s *ScenePass) collectUnlitBatch(contextIndex, index int, dp *DrawableProcessor) {
	geometryBatch := &s.unlitGeometryBatches[index]
	key, batch := s.makeBatch(dp, geometryBatch, geometryBatch.UnlitBasePass, nil, InvalidLightIndex, 0, 0)

	batch.PipelineState = s.unlitBaseCache.GetPipelineState(&key.BatchStateLookupKey)
	s.baseBatches[index] = batch
	if batch.PipelineState == nil {
		s.dirtyBaseBatches.push(contextIndex, dirtyBaseBatch{index, key, SubpassUnlitBase})
	}
}

func (s *ScenePass) collectLitBatch(contextIndex, index, numUnlit int,
	mainLightIndex uint32, mainLightHash uint32, dp *DrawableProcessor) {

	geometryBatch := &s.litGeometryBatches[index-numUnlit]
	accumulator := dp.GeometryLighting(geometryBatch.Drawable.Index())
	pixelLights := accumulator.PixelLights()
	vertexLightsHash := accumulator.VertexLightsHash()

	// Fold the main light into the base pass when it is the geometry's
	// highest priority pixel light.
	hasLitBase := geometryBatch.LitBasePass != nil &&
		mainLightIndex != InvalidLightIndex &&
		len(pixelLights) > 0 && pixelLights[0].LightIndex == mainLightIndex

	var key BatchStateCreateKey
	var batch PipelineBatch
	subpass := SubpassUnlitBase
	cache := s.unlitBaseCache
	if hasLitBase {
		key, batch = s.makeBatch(dp, geometryBatch, geometryBatch.LitBasePass,
			dp.LightProcessors()[mainLightIndex], mainLightIndex, mainLightHash, vertexLightsHash)
		subpass = SubpassLitBase
		cache = s.litBaseCache
	} else {
		key, batch = s.makeBatch(dp, geometryBatch, geometryBatch.UnlitBasePass,
			nil, InvalidLightIndex, 0, vertexLightsHash)
	}

	batch.PipelineState = cache.GetPipelineState(&key.BatchStateLookupKey)
	s.baseBatches[index] = batch
	if batch.PipelineState == nil {
		s.dirtyBaseBatches.push(contextIndex, dirtyBaseBatch{index, key, subpass})
	}

	// Remaining pixel lights render as additive light batches.
	remaining := pixelLights
	if hasLitBase {
		remaining = pixelLights[1:]
	}
	for _, pixelLight := range remaining {
		lightProcessor := dp.LightProcessors()[pixelLight.LightIndex]
		lightKey, lightBatch := s.makeBatch(dp, geometryBatch, geometryBatch.LightPass,
			lightProcessor, pixelLight.LightIndex, lightProcessor.ForwardLitHash(), 0)

		lightBatch.PipelineState = s.lightCache.GetPipelineState(&lightKey.BatchStateLookupKey)
		s.lightBatchesTemp.push(contextIndex, lightBatch)
		if lightBatch.PipelineState == nil {
			batchIndex := len(s.lightBatchesTemp.items[contextIndex]) - 1
			s.dirtyLightBatches.push(contextIndex, dirtyLightBatch{contextIndex, batchIndex, lightKey})
		}
	}
}

// makeBatch builds the cache key and the pipeline batch for one geometry
// batch and material pass combination.
func (s *ScenePass) makeBatch(dp *DrawableProcessor, geometryBatch *GeometryBatch,
	pass drawable.Pass, lightProcessor *LightProcessor, lightIndex uint32,
	lightHash uint32, vertexLightsHash uint32) (BatchStateCreateKey, PipelineBatch) {

	d := geometryBatch.Drawable
	sourceBatch := d.SourceBatches()[geometryBatch.SourceBatchIndex]
	material := sourceBatch.Material
	if material == nil {
		material = dp.DefaultMaterial()
	}

	drawableHash := d.LightmapIndex()
	common.CombineHash(&drawableHash, vertexLightsHash)

	key := BatchStateCreateKey{
		BatchStateLookupKey: BatchStateLookupKey{
			DrawableHash:   drawableHash,
			PixelLightHash: lightHash,
			GeometryType:   sourceBatch.GeometryType,
			Geometry:       sourceBatch.Geometry,
			Material:       material,
			Pass:           pass,
		},
		Drawable:         d,
		SourceBatchIndex: geometryBatch.SourceBatchIndex,
		PixelLight:       lightProcessor,
		PixelLightIndex:  lightIndex,
		VertexLightsHash: vertexLightsHash,
	}

	batch := PipelineBatch{
		LightIndex:       lightIndex,
		DrawableIndex:    d.Index(),
		SourceBatchIndex: geometryBatch.SourceBatchIndex,
		GeometryType:     sourceBatch.GeometryType,
		Drawable:         d,
		Geometry:         sourceBatch.Geometry,
		Material:         material,
		Pass:             pass,
		Distance:         sourceBatch.Distance,
	}
	return key, batch
}

func (s *ScenePass) sortBatches() {
	if s.sortMode == SortBackToFront {
		s.sortedBackToFront = s.sortedBackToFront[:0]
		for i := range s.baseBatches {
			s.sortedBackToFront = append(s.sortedBackToFront, MakePipelineBatchBackToFront(&s.baseBatches[i]))
		}
		for i := range s.lightBatches {
			s.sortedBackToFront = append(s.sortedBackToFront, MakePipelineBatchBackToFront(&s.lightBatches[i]))
		}
		sort.Slice(s.sortedBackToFront, func(i, j int) bool {
			return s.sortedBackToFront[i].Less(s.sortedBackToFront[j])
		})
		return
	}

	s.sortedBaseByState = s.sortedBaseByState[:0]
	for i := range s.baseBatches {
		s.sortedBaseByState = append(s.sortedBaseByState, MakePipelineBatchByState(&s.baseBatches[i]))
	}
	sort.Slice(s.sortedBaseByState, func(i, j int) bool {
		return s.sortedBaseByState[i].Less(s.sortedBaseByState[j])
	})

	s.sortedLightByState = s.sortedLightByState[:0]
	for i := range s.lightBatches {
		s.sortedLightByState = append(s.sortedLightByState, MakePipelineBatchByState(&s.lightBatches[i]))
	}
	sort.Slice(s.sortedLightByState, func(i, j int) bool {
		return s.sortedLightByState[i].Less(s.sortedLightByState[j])
	})
}

// BaseBatches returns the unsorted base batches, ambient or main light lit.
func (s *ScenePass) BaseBatches() []PipelineBatch {
	return s.baseBatches
}

// LightBatches returns the unsorted additive light batches.
func (s *ScenePass) LightBatches() []PipelineBatch {
	return s.lightBatches
}

// SortedBaseBatches returns base batches in state order, valid for
// SortByState passes.
func (s *ScenePass) SortedBaseBatches() []PipelineBatchByState {
	return s.sortedBaseByState
}

// SortedLightBatches returns light batches in state order, valid for
// SortByState passes.
func (s *ScenePass) SortedLightBatches() []PipelineBatchByState {
	return s.sortedLightByState
}

// SortedBatches returns all batches back to front, valid for SortBackToFront
// passes.
func (s *ScenePass) SortedBatches() []PipelineBatchBackToFront {
	return s.sortedBackToFront
}
