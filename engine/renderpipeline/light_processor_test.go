package renderpipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rokups/Urho3D/common"
	"github.com/rokups/Urho3D/engine/camera"
	"github.com/rokups/Urho3D/engine/drawable"
)

func assertRangeInDelta(t *testing.T, expectedMin, expectedMax float32, r common.FloatRange) {
	t.Helper()
	assert.InDelta(t, expectedMin, r.Min, 1e-4)
	assert.InDelta(t, expectedMax, r.Max, 1e-4)
}

func TestDirectionalCascadeSplits(t *testing.T) {
	material := newTestMaterial("base", "litbase", "light", "shadow")
	index := drawable.NewLinearIndex()
	// Ground spanning the whole view depth so every cascade has casters.
	index.Add(newTestGeometry(material, testBox(-40, -2, 0.5, 40, 0, 95),
		drawable.WithCastShadows(true)))
	light := drawable.NewLight(drawable.LightTypeDirectional,
		drawable.WithLightDirection(common.Vector3{X: 0.3, Y: -1, Z: 0.3}),
		drawable.WithLightCastShadows(true),
		drawable.WithShadowCascade(drawable.CascadeParameters{
			Splits: [4]float32{10, 25, 50, 100},
		}))
	index.Add(light)

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera(camera.WithNear(0.1), camera.WithFar(100)))

	processors := p.DrawableProcessor().LightProcessors()
	assert.Equal(t, 1, len(processors))
	lp := processors[0]

	assert.True(t, lp.HasShadow())
	assert.Equal(t, 4, lp.NumActiveSplits())
	assertRangeInDelta(t, 0.1, 10, lp.Split(0).CascadeZRange())
	assertRangeInDelta(t, 10, 25, lp.Split(1).CascadeZRange())
	assertRangeInDelta(t, 25, 50, lp.Split(2).CascadeZRange())
	assertRangeInDelta(t, 50, 100, lp.Split(3).CascadeZRange())

	// Four splits pack into a 2x2 grid of full-size split tiles.
	assert.Equal(t, common.IntVector2{X: 1024, Y: 1024}, lp.ShadowMapSize())
	assert.True(t, lp.ShadowMap().Defined())
	for i := 0; i < 4; i++ {
		region := lp.Split(i).ShadowMap()
		assert.True(t, region.Defined())
		assert.Equal(t, 512, region.Region.Width())
		assert.Equal(t, 512, region.Region.Height())
	}
}

func TestDirectionalCascadesStopAtCameraFar(t *testing.T) {
	material := newTestMaterial("base", "litbase", "light", "shadow")
	index := drawable.NewLinearIndex()
	index.Add(newTestGeometry(material, testBox(-20, -2, 0.5, 20, 0, 38),
		drawable.WithCastShadows(true)))
	index.Add(drawable.NewLight(drawable.LightTypeDirectional,
		drawable.WithLightDirection(common.Vector3{X: 0.3, Y: -1, Z: 0.3}),
		drawable.WithLightCastShadows(true),
		drawable.WithShadowCascade(drawable.CascadeParameters{
			Splits: [4]float32{10, 25, 50, 100},
		})))

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera(camera.WithNear(0.1), camera.WithFar(40)))

	lp := p.DrawableProcessor().LightProcessors()[0]
	assert.Equal(t, 3, lp.NumActiveSplits())
	assertRangeInDelta(t, 25, 40, lp.Split(2).CascadeZRange())
}

func TestPointLightShadowUsesCubeGrid(t *testing.T) {
	material := newTestMaterial("base", "litbase", "light", "shadow")
	index := drawable.NewLinearIndex()
	index.Add(newTestGeometry(material, testBox(-0.5, -0.5, 8.5, 0.5, 0.5, 9.5),
		drawable.WithCastShadows(true)))
	index.Add(drawable.NewLight(drawable.LightTypePoint,
		drawable.WithLightTransform(common.Vector3{Z: 10}, common.Identity4()),
		drawable.WithLightRange(5),
		drawable.WithLightCastShadows(true)))

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())

	lp := p.DrawableProcessor().LightProcessors()[0]
	assert.Equal(t, MaxLightSplits, lp.NumActiveSplits())
	// Six cube faces pack into a 3x2 grid of point-size split tiles.
	assert.Equal(t, common.IntVector2{X: 768, Y: 512}, lp.ShadowMapSize())
}

func TestShadowResolutionScalesSplitSize(t *testing.T) {
	material := newTestMaterial("base", "litbase", "light", "shadow")
	index := drawable.NewLinearIndex()
	index.Add(newTestGeometry(material, testBox(-5, -1, 1, 5, 1, 40),
		drawable.WithCastShadows(true)))
	index.Add(drawable.NewLight(drawable.LightTypeDirectional,
		drawable.WithLightDirection(common.Vector3{X: 0.2, Y: -1, Z: 0.2}),
		drawable.WithLightCastShadows(true),
		drawable.WithShadowResolution(0.5),
		drawable.WithShadowCascade(drawable.CascadeParameters{
			Splits: [4]float32{100, 0, 0, 0},
		})))

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())

	lp := p.DrawableProcessor().LightProcessors()[0]
	assert.Equal(t, 1, lp.NumActiveSplits())
	assert.Equal(t, common.IntVector2{X: 256, Y: 256}, lp.ShadowMapSize())
}

func TestNoCastersDropsShadow(t *testing.T) {
	material := newTestMaterial("base", "litbase", "light")
	index := drawable.NewLinearIndex()
	index.Add(newTestGeometry(material, testBox(-1, -1, 5, 1, 1, 7)))
	index.Add(drawable.NewLight(drawable.LightTypeDirectional,
		drawable.WithLightDirection(common.Vector3{X: 0.2, Y: -1, Z: 0.2}),
		drawable.WithLightCastShadows(true)))

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())

	lp := p.DrawableProcessor().LightProcessors()[0]
	assert.False(t, lp.HasShadow())
	assert.Equal(t, common.IntVector2{}, lp.ShadowMapSize())
	assert.NotEmpty(t, lp.LitGeometries())
}

func TestNumShadowSplits(t *testing.T) {
	splits := func(values ...float32) drawable.CascadeParameters {
		var cascade drawable.CascadeParameters
		copy(cascade.Splits[:], values)
		return cascade
	}

	assert.Equal(t, 1, numShadowSplits(splits()))
	assert.Equal(t, 1, numShadowSplits(splits(0, 10, 20, 30)))
	assert.Equal(t, 2, numShadowSplits(splits(10, 25)))
	assert.Equal(t, 4, numShadowSplits(splits(10, 25, 50, 100)))
	// A non-increasing distance ends the cascade chain.
	assert.Equal(t, 1, numShadowSplits(splits(10, 5, 50, 100)))
	assert.Equal(t, 2, numShadowSplits(splits(10, 25, 25, 100)))
}

func TestSplitsGridSize(t *testing.T) {
	light := drawable.NewLight(drawable.LightTypeDirectional)
	expected := map[int]common.IntVector2{
		1: {X: 1, Y: 1},
		2: {X: 2, Y: 1},
		3: {X: 2, Y: 2},
		4: {X: 2, Y: 2},
		6: {X: 3, Y: 2},
	}
	for numSplits, gridSize := range expected {
		lp := NewLightProcessor(light)
		lp.numActiveSplits = numSplits
		assert.Equal(t, gridSize, lp.splitsGridSize())
	}
}

func TestLightHashesSeparateConfigurations(t *testing.T) {
	directional := NewLightProcessor(drawable.NewLight(drawable.LightTypeDirectional))
	point := NewLightProcessor(drawable.NewLight(drawable.LightTypePoint))
	directional.updateHashes()
	point.updateHashes()
	assert.NotEqual(t, directional.ForwardLitHash(), point.ForwardLitHash())

	same := NewLightProcessor(drawable.NewLight(drawable.LightTypeDirectional))
	same.updateHashes()
	assert.Equal(t, directional.ForwardLitHash(), same.ForwardLitHash())

	biased := NewLightProcessor(drawable.NewLight(drawable.LightTypeDirectional,
		drawable.WithShadowBias(drawable.BiasParameters{ConstantBias: 0.001})))
	biased.updateHashes()
	assert.NotEqual(t, directional.ForwardLitHash(), biased.ForwardLitHash())

	// Camera overlap only affects the light volume hash.
	overlapping := NewLightProcessor(drawable.NewLight(drawable.LightTypeDirectional))
	overlapping.overlapsCamera = true
	overlapping.updateHashes()
	assert.Equal(t, directional.ForwardLitHash(), overlapping.ForwardLitHash())
	assert.NotEqual(t, directional.LightVolumeHash(), overlapping.LightVolumeHash())
}

func TestLightProcessorCacheReusesAndEvicts(t *testing.T) {
	index := drawable.NewLinearIndex()
	light := drawable.NewLight(drawable.LightTypePoint)
	index.Add(light)
	light.SetIndex(0)

	cache := NewLightProcessorCache(index)
	cache.OnFrameBegin()
	first := cache.GetLightProcessor(light)
	assert.Same(t, first, cache.GetLightProcessor(light))

	// The processor survives while the light stays in the index.
	for i := 0; i < NumSplitFramesToLive+1; i++ {
		cache.OnFrameBegin()
	}
	assert.Same(t, first, cache.GetLightProcessor(light))

	// Once the light is gone the stale processor ages out.
	index.Remove(light)
	for i := 0; i < NumSplitFramesToLive+1; i++ {
		cache.OnFrameBegin()
	}
	assert.NotSame(t, first, cache.GetLightProcessor(light))
}
