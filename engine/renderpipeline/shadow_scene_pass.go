package renderpipeline

import (
	"sort"

	"github.com/rokups/Urho3D/engine/drawable"
)

// dirtyShadowBatch marks a shadow batch whose pipeline state missed the
// cache during the parallel phase.
type dirtyShadowBatch struct {
	split      *ShadowSplitProcessor
	batchIndex int
	key        BatchStateCreateKey
}

// ShadowScenePass builds the caster batches of every shadow split. Unlike
// scene passes it is fed from the light processors instead of culling, so it
// does not implement DrawableProcessorPass.
type ShadowScenePass struct {
	workQueue       *WorkQueue
	shadowPassIndex uint32
	cache           *BatchStateCache

	splitsTemp   []*ShadowSplitProcessor
	dirtyBatches workBuffer[dirtyShadowBatch]
}

// NewShadowScenePass creates a shadow pass over the named material pass.
func NewShadowScenePass(workQueue *WorkQueue, passName string) *ShadowScenePass {
	return &ShadowScenePass{
		workQueue:       workQueue,
		shadowPassIndex: drawable.PassIndex(passName),
		cache:           NewBatchStateCache(),
	}
}

// InvalidatePipelineStateCache drops all cached pipeline states.
func (s *ShadowScenePass) InvalidatePipelineStateCache() {
	s.cache.Invalidate()
}

// CollectShadowBatches builds caster batches for every active shadow split,
// one split per worker task. Cache misses are recorded and must be resolved
// with FinalizeShadowBatches before the batches render.
func (s *ShadowScenePass) CollectShadowBatches(dp *DrawableProcessor) {
	s.splitsTemp = s.splitsTemp[:0]
	for _, lightProcessor := range dp.LightProcessors() {
		for i := 0; i < lightProcessor.NumActiveSplits(); i++ {
			s.splitsTemp = append(s.splitsTemp, lightProcessor.Split(i))
		}
	}

	s.dirtyBatches.reset(s.workQueue.NumContexts())

	forEachParallel(s.workQueue, len(s.splitsTemp), func(contextIndex, index int) {
		s.collectSplitBatches(contextIndex, s.splitsTemp[index], dp)
	})
}

// FinalizeShadowBatches creates the pipeline states missed during collection
// and sorts every split's batches. Must run on the main thread.
func (s *ShadowScenePass) FinalizeShadowBatches(callback BatchStateCacheCallback) {
	s.dirtyBatches.forEach(func(d dirtyShadowBatch) {
		ctx := BatchStateCreateContext{Pass: s, SubpassIndex: SubpassShadow}
		d.split.shadowCasterBatches[d.batchIndex].PipelineState =
			s.cache.GetOrCreatePipelineState(&d.key, &ctx, callback)
	})
}

func (s *ShadowScenePass) collectSplitBatches(contextIndex int,
	split *ShadowSplitProcessor, dp *DrawableProcessor) {

	light := split.LightProcessor().Light()
	lightMask := light.LightMask()
	lightHash := split.LightProcessor().ShadowHash(split.splitIndex)
	cullCamera := dp.FrameInfo().Camera
	materialQuality := dp.Settings().MaterialQuality

	for _, caster := range split.ShadowCasters() {
		if (shadowMaskInZone(caster) & lightMask) == 0 {
			continue
		}

		distance := cullCamera.DistanceTo(caster.WorldBoundingBox().Center())
		if maxDistance := maxShadowDistance(caster); maxDistance > 0 && distance > maxDistance {
			continue
		}

		sourceBatches := caster.SourceBatches()
		for i := range sourceBatches {
			material := sourceBatches[i].Material
			if material == nil {
				material = dp.DefaultMaterial()
			}
			technique := material.FindTechnique(distance, materialQuality)
			if technique == nil {
				continue
			}
			pass := technique.GetPass(s.shadowPassIndex)
			if pass == nil {
				continue
			}

			key := BatchStateCreateKey{
				BatchStateLookupKey: BatchStateLookupKey{
					PixelLightHash: lightHash,
					GeometryType:   sourceBatches[i].GeometryType,
					Geometry:       sourceBatches[i].Geometry,
					Material:       material,
					Pass:           pass,
				},
				Drawable:         caster,
				SourceBatchIndex: uint32(i),
				PixelLight:       split.LightProcessor(),
				PixelLightIndex:  InvalidLightIndex,
			}

			batch := PipelineBatch{
				LightIndex:       InvalidLightIndex,
				DrawableIndex:    caster.Index(),
				SourceBatchIndex: uint32(i),
				GeometryType:     sourceBatches[i].GeometryType,
				Drawable:         caster,
				Geometry:         sourceBatches[i].Geometry,
				Material:         material,
				Pass:             pass,
				Distance:         sourceBatches[i].Distance,
			}
			batch.PipelineState = s.cache.GetPipelineState(&key.BatchStateLookupKey)

			split.shadowCasterBatches = append(split.shadowCasterBatches, batch)
			if batch.PipelineState == nil {
				batchIndex := len(split.shadowCasterBatches) - 1
				s.dirtyBatches.push(contextIndex, dirtyShadowBatch{split, batchIndex, key})
			}
		}
	}
}

// maxShadowDistance returns how far a caster's shadow stays visible. The
// draw distance caps the shadow distance, a vanished object casts nothing.
func maxShadowDistance(d drawable.Drawable) float32 {
	maxDistance := d.ShadowDistance()
	if drawDistance := d.DrawDistance(); drawDistance > 0 &&
		(maxDistance <= 0 || drawDistance < maxDistance) {
		maxDistance = drawDistance
	}
	return maxDistance
}

// SortedShadowBatches returns one split's batches in state order.
func (s *ShadowScenePass) SortedShadowBatches(split *ShadowSplitProcessor) []PipelineBatchByState {
	batches := split.ShadowBatches()
	sorted := make([]PipelineBatchByState, 0, len(batches))
	for i := range batches {
		sorted = append(sorted, MakePipelineBatchByState(&batches[i]))
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Less(sorted[j])
	})
	return sorted
}
