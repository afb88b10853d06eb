package renderpipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rokups/Urho3D/common"
	"github.com/rokups/Urho3D/engine/camera"
	"github.com/rokups/Urho3D/engine/drawable"
)

func TestAddBatchClassification(t *testing.T) {
	workQueue := NewWorkQueue()
	pass := NewScenePass(workQueue, SortByState, "base", "litbase", "light")
	pass.BeginFrame(1)

	lit := newTestGeometry(newTestMaterial("base", "litbase", "light"), testBox(-1, -1, 5, 1, 1, 7))
	unlit := newTestGeometry(newTestMaterial("base"), testBox(-1, -1, 5, 1, 1, 7))
	unrelated := newTestGeometry(newTestMaterial("alpha"), testBox(-1, -1, 5, 1, 1, 7))

	litTechnique := lit.SourceBatches()[0].Material.FindTechnique(0, QualityHigh)
	result := pass.AddBatch(0, lit, 0, litTechnique)
	assert.True(t, result.Added)
	assert.True(t, result.LitAdded)

	unlitTechnique := unlit.SourceBatches()[0].Material.FindTechnique(0, QualityHigh)
	result = pass.AddBatch(0, unlit, 0, unlitTechnique)
	assert.True(t, result.Added)
	assert.False(t, result.LitAdded)

	// A technique without the base pass contributes nothing here.
	alphaTechnique := unrelated.SourceBatches()[0].Material.FindTechnique(0, QualityHigh)
	result = pass.AddBatch(0, unrelated, 0, alphaTechnique)
	assert.False(t, result.Added)
	assert.False(t, result.LitAdded)
}

func TestUnlitScenePassNeverLit(t *testing.T) {
	workQueue := NewWorkQueue()
	pass := NewUnlitScenePass(workQueue, SortBackToFront, "alpha")
	pass.BeginFrame(1)
	assert.False(t, pass.NeedAmbient())

	geometry := newTestGeometry(newTestMaterial("alpha", "litbase", "light"), testBox(-1, -1, 5, 1, 1, 7))
	technique := geometry.SourceBatches()[0].Material.FindTechnique(0, QualityHigh)
	result := pass.AddBatch(0, geometry, 0, technique)
	assert.True(t, result.Added)
	assert.False(t, result.LitAdded)
}

func TestSortedBaseBatchesGroupByRenderOrder(t *testing.T) {
	firstPass := drawable.NewPass("base", 1)
	early := drawable.NewMaterial(10, drawable.TechniqueEntry{Technique: drawable.NewTechnique(firstPass)})
	late := drawable.NewMaterial(200, drawable.TechniqueEntry{Technique: drawable.NewTechnique(firstPass)})

	index := drawable.NewLinearIndex()
	lateGeometry := newTestGeometry(late, testBox(-1, -1, 5, 1, 1, 7))
	earlyGeometry := newTestGeometry(early, testBox(-1, -1, 9, 1, 1, 11))
	index.Add(lateGeometry)
	index.Add(earlyGeometry)

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())

	sorted := p.OpaquePass().SortedBaseBatches()
	assert.Equal(t, 2, len(sorted))
	assert.Same(t, earlyGeometry, sorted[0].Batch.Drawable)
	assert.Same(t, lateGeometry, sorted[1].Batch.Drawable)
}

func TestCollectSceneBatchesDeterministicAcrossFrames(t *testing.T) {
	material := newTestMaterial("base", "litbase", "light")
	index := drawable.NewLinearIndex()
	for i := 0; i < 8; i++ {
		index.Add(newTestGeometry(material,
			testBox(float32(i)-4, -1, 5+float32(i)*2, float32(i)-3, 1, 7+float32(i)*2)))
	}
	index.Add(drawable.NewLight(drawable.LightTypeDirectional))

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	viewCamera := camera.NewCamera()

	order := func() []uint32 {
		runTestFrame(p, viewCamera)
		sorted := p.OpaquePass().SortedBaseBatches()
		indices := make([]uint32, 0, len(sorted))
		for _, batch := range sorted {
			indices = append(indices, batch.Batch.DrawableIndex)
		}
		return indices
	}

	first := order()
	assert.Equal(t, 8, len(first))
	// Worker scheduling must not leak into the final ordering.
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, order())
	}
}

func TestPipelineStateHashInvalidation(t *testing.T) {
	material := newTestMaterial("base")
	index := drawable.NewLinearIndex()
	index.Add(newTestGeometry(material, testBox(-1, -1, 5, 1, 1, 7)))

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	viewCamera := camera.NewCamera()
	runTestFrame(p, viewCamera)
	before := p.OpaquePass().BaseBatches()[0].PipelineState

	// Unchanged settings keep the cached state across frames.
	runTestFrame(p, viewCamera)
	assert.Same(t, before, p.OpaquePass().BaseBatches()[0].PipelineState)

	p.InvalidatePipelineStateCaches()
	runTestFrame(p, viewCamera)
	assert.NotSame(t, before, p.OpaquePass().BaseBatches()[0].PipelineState)
	assert.Equal(t, before.Hash(), p.OpaquePass().BaseBatches()[0].PipelineState.Hash())
}

func TestShadowBatchesPerSplit(t *testing.T) {
	material := newTestMaterial("base", "litbase", "light", "shadow")
	index := drawable.NewLinearIndex()
	// One caster near, one far; the near cascade only renders the near one.
	near := newTestGeometry(material, testBox(-2, -1, 3, 2, 1, 6),
		drawable.WithCastShadows(true))
	far := newTestGeometry(material, testBox(-20, -1, 60, 20, 1, 90),
		drawable.WithCastShadows(true))
	index.Add(near)
	index.Add(far)
	index.Add(drawable.NewLight(drawable.LightTypeDirectional,
		drawable.WithLightDirection(common.Vector3{X: 0.3, Y: -1, Z: 0.3}),
		drawable.WithLightCastShadows(true),
		drawable.WithShadowCascade(drawable.CascadeParameters{
			Splits: [4]float32{10, 100, 0, 0},
		})))

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())

	lp := p.DrawableProcessor().LightProcessors()[0]
	assert.Equal(t, 2, lp.NumActiveSplits())

	nearSplit := lp.Split(0)
	assert.Contains(t, nearSplit.ShadowCasters(), near)
	for _, batch := range nearSplit.ShadowBatches() {
		assert.Equal(t, "shadow", batch.Pass.Name())
		assert.NotNil(t, batch.PipelineState)
	}
	assert.NotEmpty(t, nearSplit.ShadowBatches())
	assert.NotEmpty(t, lp.Split(1).ShadowBatches())
}

func TestShadowDistanceLimitsCasters(t *testing.T) {
	material := newTestMaterial("base", "litbase", "light", "shadow")
	index := drawable.NewLinearIndex()
	// Casts shadows only within 10 units but sits at 20.
	limited := newTestGeometry(material, testBox(-2, -1, 19, 2, 1, 21),
		drawable.WithCastShadows(true),
		drawable.WithShadowDistance(10))
	index.Add(limited)
	index.Add(drawable.NewLight(drawable.LightTypeDirectional,
		drawable.WithLightDirection(common.Vector3{X: 0.3, Y: -1, Z: 0.3}),
		drawable.WithLightCastShadows(true)))

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())

	lp := p.DrawableProcessor().LightProcessors()[0]
	for i := 0; i < lp.NumActiveSplits(); i++ {
		assert.Empty(t, lp.Split(i).ShadowBatches())
	}
}
