package renderpipeline

import (
	"github.com/rokups/Urho3D/engine/drawable"
)

// PipelineBatch is one draw operation emitted by a pass: a drawable's source
// geometry combined with a material pass and resolved pipeline state.
type PipelineBatch struct {
	// LightIndex is the per-pixel light driving the batch, or
	// InvalidLightIndex for unlit and ambient-only batches.
	LightIndex uint32

	DrawableIndex    uint32
	SourceBatchIndex uint32
	GeometryType     drawable.GeometryType

	Drawable drawable.Drawable
	Geometry drawable.Geometry
	Material drawable.Material
	Pass     drawable.Pass

	PipelineState *PipelineState

	// Distance is the view distance copied from the source batch, used for
	// transparent sorting.
	Distance float32
}

// SourceBatch returns the underlying source batch.
func (b *PipelineBatch) SourceBatch() drawable.SourceBatch {
	return b.Drawable.SourceBatches()[b.SourceBatchIndex]
}

// PipelineBatchByState sorts opaque batches for minimal GPU state changes:
// render order first, then shader program, then pipeline state, then
// material and geometry. Distance breaks remaining ties front to back
// (larger distance first so closer batches overwrite).
type PipelineBatchByState struct {
	// pipelineStateKey packs 8 bits render order, 32 bits shader program
	// hash and 24 bits folded pipeline state hash.
	pipelineStateKey uint64
	// materialGeometryKey packs 32 bits material hash (xor lightmap) and
	// 32 bits geometry hash.
	materialGeometryKey uint64
	distance            float32

	Batch *PipelineBatch
}

// MakePipelineBatchByState builds the sort entry for one batch. Batches with
// no pipeline state sort first with a zero key.
func MakePipelineBatchByState(batch *PipelineBatch) PipelineBatchByState {
	sorted := PipelineBatchByState{Batch: batch}
	if batch.PipelineState == nil {
		return sorted
	}

	renderOrder := uint64(batch.Material.RenderOrder())
	shaderHash := uint64(batch.PipelineState.ShaderProgramHash())
	pipelineStateHash := batch.PipelineState.Hash()
	sorted.pipelineStateKey |= renderOrder << 56
	sorted.pipelineStateKey |= shaderHash << 24
	sorted.pipelineStateKey |= uint64((pipelineStateHash & 0xffffff) ^ (pipelineStateHash >> 24))

	materialHash := uint64(batch.Material.Hash() ^ batch.Drawable.LightmapIndex())
	sorted.materialGeometryKey |= materialHash << 32
	sorted.materialGeometryKey |= uint64(batch.Geometry.Hash())

	sorted.distance = batch.Distance
	return sorted
}

// Less orders two sort entries.
func (s PipelineBatchByState) Less(rhs PipelineBatchByState) bool {
	if s.pipelineStateKey != rhs.pipelineStateKey {
		return s.pipelineStateKey < rhs.pipelineStateKey
	}
	if s.materialGeometryKey != rhs.materialGeometryKey {
		return s.materialGeometryKey < rhs.materialGeometryKey
	}
	return s.distance > rhs.distance
}

// PipelineBatchBackToFront sorts transparent batches by render order then
// strictly back to front, because blending correctness requires depth order
// over state-change efficiency.
type PipelineBatchBackToFront struct {
	renderOrder uint8
	distance    float32

	Batch *PipelineBatch
}

// MakePipelineBatchBackToFront builds the sort entry for one batch.
func MakePipelineBatchBackToFront(batch *PipelineBatch) PipelineBatchBackToFront {
	return PipelineBatchBackToFront{
		renderOrder: batch.Material.RenderOrder(),
		distance:    batch.Distance,
		Batch:       batch,
	}
}

// Less orders two sort entries.
func (s PipelineBatchBackToFront) Less(rhs PipelineBatchBackToFront) bool {
	if s.renderOrder != rhs.renderOrder {
		return s.renderOrder < rhs.renderOrder
	}
	return s.distance > rhs.distance
}
