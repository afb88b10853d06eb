package renderpipeline

import (
	"sync/atomic"

	"github.com/rokups/Urho3D/common"
	"github.com/rokups/Urho3D/engine/drawable"
)

// BatchStateLookupKey identifies a cached pipeline state. It carries only
// hashes and identity handles so parallel lookups never read live object
// state. Pipeline state creation may depend only on values that contribute
// to this key.
type BatchStateLookupKey struct {
	// DrawableHash folds the drawable parameters that affect the pipeline
	// state. The key does not hold the drawable itself for better reuse.
	DrawableHash uint32

	// PixelLightHash folds the per-pixel light parameters, for both lit and
	// shadow geometry rendering.
	PixelLightHash uint32

	GeometryType drawable.GeometryType
	Geometry     drawable.Geometry
	Material     drawable.Material
	Pass         drawable.Pass
}

// ToHash folds the key into one hash value.
func (k *BatchStateLookupKey) ToHash() uint32 {
	var hash uint32
	common.CombineHash(&hash, k.DrawableHash)
	common.CombineHash(&hash, k.PixelLightHash)
	common.CombineHash(&hash, uint32(k.GeometryType))
	if k.Geometry != nil {
		common.CombineHash(&hash, k.Geometry.Hash())
	}
	if k.Material != nil {
		common.CombineHash(&hash, k.Material.Hash())
	}
	if k.Pass != nil {
		common.CombineHash(&hash, k.Pass.Hash())
	}
	return hash
}

// BatchStateCreateKey extends the lookup key with the live objects needed to
// actually build a pipeline state. Only valid on the creating thread.
type BatchStateCreateKey struct {
	BatchStateLookupKey

	Drawable         drawable.Drawable
	SourceBatchIndex uint32
	PixelLight       *LightProcessor
	PixelLightIndex  uint32
	VertexLightsHash uint32
}

// cachedBatchState is one cache entry. The invalidated flag is atomic so any
// thread can observe or trigger invalidation without locking; the pipeline
// state itself is written once at creation and never mutated after being
// published.
type cachedBatchState struct {
	geometryHash uint32
	materialHash uint32
	passHash     uint32

	pipelineState *PipelineState
	invalidated   atomic.Bool
}

// upToDate reports whether the entry still matches the live objects.
func (c *cachedBatchState) upToDate(key *BatchStateLookupKey) bool {
	return c.geometryHash == hashOrZero(key.Geometry) &&
		c.materialHash == hashOrZero(key.Material) &&
		c.passHash == hashOrZero(key.Pass)
}

func hashOrZero(h interface{ Hash() uint32 }) uint32 {
	if h == nil {
		return 0
	}
	return h.Hash()
}

// BatchStateCreateContext carries state that is not part of the key but is
// needed to create a pipeline state: the owning pass and its subpass.
type BatchStateCreateContext struct {
	Pass         any
	SubpassIndex uint32
}

// BatchStateCacheCallback creates actual pipeline states on cache misses.
// Only attributes that contribute to the key hashes are safe to use.
type BatchStateCacheCallback interface {
	// CreateBatchPipelineState builds the pipeline state for a key, or
	// returns nil when creation fails. Failures are cached as negative
	// results so they are not retried every frame.
	CreateBatchPipelineState(key *BatchStateCreateKey, ctx *BatchStateCreateContext) *PipelineState
}

// BatchStateCache caches pipeline states per batch configuration. Lookup is
// safe from any thread; creation must be serialized by the caller, by
// convention a single thread per pass runs all create-on-miss calls after the
// parallel lookup phase.
type BatchStateCache struct {
	cache map[BatchStateLookupKey]*cachedBatchState
}

// NewBatchStateCache creates an empty cache.
func NewBatchStateCache() *BatchStateCache {
	return &BatchStateCache{cache: make(map[BatchStateLookupKey]*cachedBatchState)}
}

// Invalidate drops every cached state, including negative results. Called
// when global render state changes that could affect all pipeline states.
// Must not run concurrently with lookups.
func (c *BatchStateCache) Invalidate() {
	c.cache = make(map[BatchStateLookupKey]*cachedBatchState)
}

// GetPipelineState returns the cached pipeline state for a key, or nil when
// absent, invalidated, or negative-cached. Safe for concurrent use with
// other lookups; must not overlap GetOrCreatePipelineState or Invalidate.
func (c *BatchStateCache) GetPipelineState(key *BatchStateLookupKey) *PipelineState {
	entry, ok := c.cache[*key]
	if !ok || entry.invalidated.Load() {
		return nil
	}
	if !entry.upToDate(key) {
		// Stale entries are flagged so the serial phase recreates them.
		entry.invalidated.Store(true)
		return nil
	}
	return entry.pipelineState
}

// GetOrCreatePipelineState returns the cached pipeline state for a key,
// creating it through the callback on a miss. Creation failures are cached
// as nil and returned consistently until Invalidate. Not safe for concurrent
// use.
func (c *BatchStateCache) GetOrCreatePipelineState(key *BatchStateCreateKey,
	ctx *BatchStateCreateContext, callback BatchStateCacheCallback) *PipelineState {

	if entry, ok := c.cache[key.BatchStateLookupKey]; ok && !entry.invalidated.Load() && entry.upToDate(&key.BatchStateLookupKey) {
		return entry.pipelineState
	}

	entry := &cachedBatchState{
		geometryHash: hashOrZero(key.Geometry),
		materialHash: hashOrZero(key.Material),
		passHash:     hashOrZero(key.Pass),
	}
	entry.pipelineState = callback.CreateBatchPipelineState(key, ctx)
	c.cache[key.BatchStateLookupKey] = entry
	return entry.pipelineState
}
