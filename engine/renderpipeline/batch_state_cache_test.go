package renderpipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rokups/Urho3D/engine/drawable"
)

// mutableHashMaterial lets tests simulate a material changing under a cached
// pipeline state.
type mutableHashMaterial struct {
	hash uint32
}

func (m *mutableHashMaterial) Hash() uint32       { return m.hash }
func (m *mutableHashMaterial) RenderOrder() uint8 { return 128 }
func (m *mutableHashMaterial) FindTechnique(distance float32, quality int) drawable.Technique {
	return nil
}

// countingStateFactory creates pipeline states on demand and counts the
// cache misses that reached it.
type countingStateFactory struct {
	created int
	fail    bool
}

func (f *countingStateFactory) CreateBatchPipelineState(key *BatchStateCreateKey,
	ctx *BatchStateCreateContext) *PipelineState {

	f.created++
	if f.fail {
		return nil
	}
	return NewPipelineState(PipelineStateDesc{ShaderProgramHash: key.ToHash()})
}

func testCreateKey(material drawable.Material) *BatchStateCreateKey {
	return &BatchStateCreateKey{
		BatchStateLookupKey: BatchStateLookupKey{
			DrawableHash:   7,
			PixelLightHash: 11,
			Material:       material,
			Pass:           drawable.NewPass("base", 1),
		},
	}
}

func TestBatchStateCacheReusesCreatedState(t *testing.T) {
	cache := NewBatchStateCache()
	factory := &countingStateFactory{}
	key := testCreateKey(&mutableHashMaterial{hash: 1})
	ctx := &BatchStateCreateContext{}

	first := cache.GetOrCreatePipelineState(key, ctx, factory)
	second := cache.GetOrCreatePipelineState(key, ctx, factory)
	assert.NotNil(t, first)
	assert.Same(t, first, second)
	assert.Equal(t, 1, factory.created)

	// The parallel lookup path sees the created state too.
	assert.Same(t, first, cache.GetPipelineState(&key.BatchStateLookupKey))
}

func TestBatchStateCacheCachesFailures(t *testing.T) {
	cache := NewBatchStateCache()
	factory := &countingStateFactory{fail: true}
	key := testCreateKey(&mutableHashMaterial{hash: 1})
	ctx := &BatchStateCreateContext{}

	assert.Nil(t, cache.GetOrCreatePipelineState(key, ctx, factory))
	assert.Nil(t, cache.GetOrCreatePipelineState(key, ctx, factory))
	assert.Equal(t, 1, factory.created)

	// Invalidation clears the negative result and creation is retried.
	cache.Invalidate()
	factory.fail = false
	assert.NotNil(t, cache.GetOrCreatePipelineState(key, ctx, factory))
	assert.Equal(t, 2, factory.created)
}

func TestBatchStateCacheInvalidate(t *testing.T) {
	cache := NewBatchStateCache()
	factory := &countingStateFactory{}
	key := testCreateKey(&mutableHashMaterial{hash: 1})
	ctx := &BatchStateCreateContext{}

	first := cache.GetOrCreatePipelineState(key, ctx, factory)
	cache.Invalidate()

	assert.Nil(t, cache.GetPipelineState(&key.BatchStateLookupKey))
	second := cache.GetOrCreatePipelineState(key, ctx, factory)
	assert.NotNil(t, second)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, factory.created)
}

func TestBatchStateCacheDetectsStaleMaterial(t *testing.T) {
	cache := NewBatchStateCache()
	factory := &countingStateFactory{}
	material := &mutableHashMaterial{hash: 1}
	key := testCreateKey(material)
	ctx := &BatchStateCreateContext{}

	cache.GetOrCreatePipelineState(key, ctx, factory)
	material.hash = 2

	assert.Nil(t, cache.GetPipelineState(&key.BatchStateLookupKey))
	cache.GetOrCreatePipelineState(key, ctx, factory)
	assert.Equal(t, 2, factory.created)
}

func TestBatchStateLookupKeyHash(t *testing.T) {
	pass := drawable.NewPass("base", 1)
	material := &mutableHashMaterial{hash: 1}

	a := BatchStateLookupKey{DrawableHash: 1, PixelLightHash: 2, Material: material, Pass: pass}
	b := BatchStateLookupKey{DrawableHash: 1, PixelLightHash: 2, Material: material, Pass: pass}
	assert.Equal(t, a.ToHash(), b.ToHash())

	c := a
	c.DrawableHash = 99
	assert.NotEqual(t, a.ToHash(), c.ToHash())

	d := a
	d.PixelLightHash = 99
	assert.NotEqual(t, a.ToHash(), d.ToHash())

	e := a
	e.GeometryType = drawable.GeometrySkinned
	assert.NotEqual(t, a.ToHash(), e.ToHash())
}
