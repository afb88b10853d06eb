package renderpipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rokups/Urho3D/common"
	"github.com/rokups/Urho3D/engine/camera"
	"github.com/rokups/Urho3D/engine/drawable"
)

func testBox(minX, minY, minZ, maxX, maxY, maxZ float32) common.BoundingBox {
	return common.BoundingBox{
		Min: common.Vector3{X: minX, Y: minY, Z: minZ},
		Max: common.Vector3{X: maxX, Y: maxY, Z: maxZ},
	}
}

func newTestMaterial(passNames ...string) drawable.Material {
	passes := make([]drawable.Pass, 0, len(passNames))
	for i, name := range passNames {
		passes = append(passes, drawable.NewPass(name, uint32(i+1)))
	}
	technique := drawable.NewTechnique(passes...)
	return drawable.NewMaterial(128, drawable.TechniqueEntry{Technique: technique})
}

func newTestGeometry(material drawable.Material, bounds common.BoundingBox,
	options ...drawable.DrawableBuilderOption) drawable.Drawable {

	opts := []drawable.DrawableBuilderOption{
		drawable.WithWorldBoundingBox(bounds),
		drawable.WithBatches(drawable.SourceBatch{
			Geometry:       drawable.NewGeometry(),
			Material:       material,
			WorldTransform: common.Identity4(),
		}),
	}
	return drawable.NewDrawable(append(opts, options...)...)
}

func testSettings() Settings {
	return Settings{
		EnableShadows:        true,
		ShadowMapPageSize:    2048,
		ShadowSplitSize:      512,
		PointShadowSplitSize: 256,
	}
}

func runTestFrame(p *RenderPipeline, viewCamera camera.Camera) {
	p.Update(viewCamera, 1.0/60, common.IntVector2{X: 1280, Y: 720})
}

func TestUpdateCollectsOpaqueBatches(t *testing.T) {
	material := newTestMaterial("base", "litbase", "light")
	index := drawable.NewLinearIndex()
	index.Add(newTestGeometry(material, testBox(-1, -1, 5, 1, 1, 7)))
	index.Add(newTestGeometry(material, testBox(-2, -1, 15, 2, 1, 17)))
	index.Add(drawable.NewLight(drawable.LightTypeDirectional,
		drawable.WithLightDirection(common.Vector3{X: 0.5, Y: -1, Z: 0.5})))

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())

	dp := p.DrawableProcessor()
	assert.Equal(t, 2, len(dp.VisibleGeometries()))
	assert.Equal(t, 1, len(dp.VisibleLights()))
	assert.Equal(t, uint32(0), p.MainLightIndex())

	baseBatches := p.OpaquePass().BaseBatches()
	assert.Equal(t, 2, len(baseBatches))
	for i := range baseBatches {
		// The single directional light folds into the lit base pass.
		assert.Equal(t, "litbase", baseBatches[i].Pass.Name())
		assert.Equal(t, uint32(0), baseBatches[i].LightIndex)
		assert.NotNil(t, baseBatches[i].PipelineState)
		assert.True(t, baseBatches[i].PipelineState.Desc().DepthWriteEnabled)
		assert.False(t, baseBatches[i].PipelineState.Desc().BlendEnabled)
	}
	assert.Equal(t, 0, len(p.OpaquePass().LightBatches()))
	assert.Equal(t, 2, len(p.OpaquePass().SortedBaseBatches()))
}

func TestUpdateEmitsAdditiveLightBatches(t *testing.T) {
	material := newTestMaterial("base", "litbase", "light")
	index := drawable.NewLinearIndex()
	index.Add(newTestGeometry(material, testBox(-1, -1, 5, 1, 1, 7)))
	index.Add(drawable.NewLight(drawable.LightTypeDirectional,
		drawable.WithLightDirection(common.Vector3{X: 0.3, Y: -1, Z: 0.3}),
		drawable.WithLightIntensity(2)))
	index.Add(drawable.NewLight(drawable.LightTypeDirectional,
		drawable.WithLightDirection(common.Vector3{X: -0.3, Y: -1, Z: 0.3})))

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())

	// The brighter light folds into the base pass, the other renders
	// additively on top.
	lightBatches := p.OpaquePass().LightBatches()
	assert.Equal(t, 1, len(lightBatches))
	assert.Equal(t, "light", lightBatches[0].Pass.Name())
	assert.NotEqual(t, p.MainLightIndex(), lightBatches[0].LightIndex)

	desc := lightBatches[0].PipelineState.Desc()
	assert.False(t, desc.DepthWriteEnabled)
	assert.True(t, desc.BlendEnabled)
	assert.Equal(t, additiveBlend, *desc.BlendState)
}

func TestFindMainLightPicksBrightestDirectional(t *testing.T) {
	material := newTestMaterial("base", "litbase", "light")
	index := drawable.NewLinearIndex()
	index.Add(newTestGeometry(material, testBox(-1, -1, 5, 1, 1, 7)))
	dim := drawable.NewLight(drawable.LightTypeDirectional,
		drawable.WithLightIntensity(0.5))
	bright := drawable.NewLight(drawable.LightTypeDirectional,
		drawable.WithLightIntensity(5))
	point := drawable.NewLight(drawable.LightTypePoint,
		drawable.WithLightTransform(common.Vector3{Z: 6}, common.Identity4()),
		drawable.WithLightRange(3),
		drawable.WithLightIntensity(100))
	index.Add(dim)
	index.Add(bright)
	index.Add(point)

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())

	visibleLights := p.DrawableProcessor().VisibleLights()
	assert.Equal(t, 3, len(visibleLights))
	// Point lights never become the main light regardless of brightness.
	assert.Same(t, bright, visibleLights[p.MainLightIndex()])
}

func TestMainLightIgnoresShapeTextureLights(t *testing.T) {
	material := newTestMaterial("base", "litbase", "light")
	index := drawable.NewLinearIndex()
	index.Add(newTestGeometry(material, testBox(-1, -1, 5, 1, 1, 7)))
	shaped := drawable.NewLight(drawable.LightTypeDirectional,
		drawable.WithLightIntensity(10),
		drawable.WithLightShapeTexture(struct{}{}))
	plain := drawable.NewLight(drawable.LightTypeDirectional)
	index.Add(shaped)
	index.Add(plain)

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())

	assert.Same(t, plain, p.DrawableProcessor().VisibleLights()[p.MainLightIndex()])
}

func TestAlphaPassSortsBackToFront(t *testing.T) {
	material := newTestMaterial("alpha")
	index := drawable.NewLinearIndex()
	near := newTestGeometry(material, testBox(-1, -1, 5, 1, 1, 7))
	far := newTestGeometry(material, testBox(-2, -1, 30, 2, 1, 32))
	index.Add(near)
	index.Add(far)

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())

	sorted := p.AlphaPass().SortedBatches()
	assert.Equal(t, 2, len(sorted))
	assert.Same(t, far, sorted[0].Batch.Drawable)
	assert.Same(t, near, sorted[1].Batch.Drawable)

	desc := sorted[0].Batch.PipelineState.Desc()
	assert.False(t, desc.DepthWriteEnabled)
	assert.True(t, desc.BlendEnabled)
	assert.Equal(t, alphaBlend, *desc.BlendState)
}

func TestShadowPassEmitsDepthOnlyBatches(t *testing.T) {
	material := newTestMaterial("base", "litbase", "light", "shadow")
	index := drawable.NewLinearIndex()
	caster := newTestGeometry(material, testBox(-5, -1, 1, 5, 1, 40),
		drawable.WithCastShadows(true))
	index.Add(caster)
	light := drawable.NewLight(drawable.LightTypeDirectional,
		drawable.WithLightDirection(common.Vector3{X: 0.2, Y: -1, Z: 0.2}),
		drawable.WithLightCastShadows(true),
		drawable.WithShadowBias(drawable.BiasParameters{ConstantBias: 0.0001, SlopeScaledBias: 1.5}))
	index.Add(light)

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())

	processors := p.DrawableProcessor().LightProcessors()
	assert.Equal(t, 1, len(processors))
	assert.True(t, processors[0].HasShadow())

	split := processors[0].Split(0)
	assert.NotEmpty(t, split.ShadowBatches())

	sorted := p.ShadowPass().SortedShadowBatches(split)
	assert.Equal(t, len(split.ShadowBatches()), len(sorted))
	desc := sorted[0].Batch.PipelineState.Desc()
	assert.Equal(t, uint32(0), uint32(desc.WriteMask))
	assert.Equal(t, int32(light.ShadowBias().ConstantBias*depthBiasScale), desc.DepthBias)
	assert.Equal(t, float32(1.5), desc.DepthBiasSlopeScale)
}

func TestSetSettingsChangesPipelineStates(t *testing.T) {
	material := newTestMaterial("base")
	index := drawable.NewLinearIndex()
	index.Add(newTestGeometry(material, testBox(-1, -1, 5, 1, 1, 7)))

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	viewCamera := camera.NewCamera()
	runTestFrame(p, viewCamera)
	before := p.OpaquePass().BaseBatches()[0].PipelineState.ShaderProgramHash()

	settings := p.Settings()
	settings.PipelineStateHash = 12345
	p.SetSettings(settings)
	runTestFrame(p, viewCamera)
	after := p.OpaquePass().BaseBatches()[0].PipelineState.ShaderProgramHash()

	assert.NotEqual(t, before, after)
}

func TestIsLightShadowed(t *testing.T) {
	index := drawable.NewLinearIndex()
	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))

	caster := drawable.NewLight(drawable.LightTypeDirectional,
		drawable.WithLightCastShadows(true))
	assert.True(t, p.IsLightShadowed(caster))

	nonCaster := drawable.NewLight(drawable.LightTypeDirectional)
	assert.False(t, p.IsLightShadowed(nonCaster))

	faded := drawable.NewLight(drawable.LightTypeDirectional,
		drawable.WithLightCastShadows(true),
		drawable.WithShadowIntensity(1))
	assert.False(t, p.IsLightShadowed(faded))

	settings := p.Settings()
	settings.EnableShadows = false
	p.SetSettings(settings)
	assert.False(t, p.IsLightShadowed(caster))
}
