package renderpipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rokups/Urho3D/common"
	"github.com/rokups/Urho3D/engine/camera"
	"github.com/rokups/Urho3D/engine/drawable"
)

func TestVisibleLightsSortedByID(t *testing.T) {
	material := newTestMaterial("base")
	index := drawable.NewLinearIndex()
	index.Add(newTestGeometry(material, testBox(-1, -1, 5, 1, 1, 7)))

	first := drawable.NewLight(drawable.LightTypeDirectional)
	second := drawable.NewLight(drawable.LightTypeDirectional)
	third := drawable.NewLight(drawable.LightTypeDirectional)
	// Insertion order must not matter.
	index.Add(third)
	index.Add(first)
	index.Add(second)

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())

	visibleLights := p.DrawableProcessor().VisibleLights()
	assert.Equal(t, 3, len(visibleLights))
	for i := 1; i < len(visibleLights); i++ {
		assert.Less(t, visibleLights[i-1].ID(), visibleLights[i].ID())
	}
}

func TestDarkAndMaskedLightsSkipped(t *testing.T) {
	material := newTestMaterial("base")
	index := drawable.NewLinearIndex()
	index.Add(newTestGeometry(material, testBox(-1, -1, 5, 1, 1, 7)))
	index.Add(drawable.NewLight(drawable.LightTypePoint,
		drawable.WithLightTransform(common.Vector3{Z: 10}, common.Identity4()),
		drawable.WithLightRange(5),
		drawable.WithLightColor(common.Black)))
	index.Add(drawable.NewLight(drawable.LightTypePoint,
		drawable.WithLightTransform(common.Vector3{Z: 10}, common.Identity4()),
		drawable.WithLightRange(5),
		drawable.WithLightIntensity(0)))
	index.Add(drawable.NewLight(drawable.LightTypePoint,
		drawable.WithLightTransform(common.Vector3{Z: 10}, common.Identity4()),
		drawable.WithLightRange(5),
		drawable.WithLightMasks(0, 0xffffffff)))
	kept := drawable.NewLight(drawable.LightTypePoint,
		drawable.WithLightTransform(common.Vector3{Z: 10}, common.Identity4()),
		drawable.WithLightRange(5))
	index.Add(kept)

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())

	visibleLights := p.DrawableProcessor().VisibleLights()
	assert.Equal(t, 1, len(visibleLights))
	assert.Same(t, kept, visibleLights[0])
}

func TestSceneZRangeCoversVisibleGeometry(t *testing.T) {
	material := newTestMaterial("base")
	index := drawable.NewLinearIndex()
	index.Add(newTestGeometry(material, testBox(-1, -1, 5, 1, 1, 15)))
	index.Add(newTestGeometry(material, testBox(-2, -1, 30, 2, 1, 42)))

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())

	zRange := p.DrawableProcessor().SceneZRange()
	assert.InDelta(t, 5, zRange.Min, 1e-3)
	assert.InDelta(t, 42, zRange.Max, 1e-3)
}

func TestDrawDistanceCulling(t *testing.T) {
	material := newTestMaterial("base")
	index := drawable.NewLinearIndex()
	culled := newTestGeometry(material, testBox(-1, -1, 20, 1, 1, 22),
		drawable.WithDrawDistance(5))
	kept := newTestGeometry(material, testBox(-1, -1, 20, 1, 1, 22))
	index.Add(culled)
	index.Add(kept)

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())

	visible := p.DrawableProcessor().VisibleGeometries()
	assert.Equal(t, 1, len(visible))
	assert.Same(t, kept, visible[0])
}

func TestViewMaskFiltering(t *testing.T) {
	material := newTestMaterial("base")
	index := drawable.NewLinearIndex()
	hidden := newTestGeometry(material, testBox(-1, -1, 5, 1, 1, 7),
		drawable.WithViewMask(0x2))
	shown := newTestGeometry(material, testBox(-1, -1, 5, 1, 1, 7),
		drawable.WithViewMask(0x1))
	index.Add(hidden)
	index.Add(shown)

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera(camera.WithViewMask(0x1)))

	visible := p.DrawableProcessor().VisibleGeometries()
	assert.Equal(t, 1, len(visible))
	assert.Same(t, shown, visible[0])
}

func TestGeometryRenderFlags(t *testing.T) {
	material := newTestMaterial("base", "litbase", "light")
	index := drawable.NewLinearIndex()
	geometry := newTestGeometry(material, testBox(-1, -1, 5, 1, 1, 7))
	index.Add(geometry)
	index.Add(drawable.NewLight(drawable.LightTypeDirectional))

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())

	flags := p.DrawableProcessor().GeometryRenderFlags(geometry.Index())
	assert.NotZero(t, flags&GeometryVisible)
	assert.NotZero(t, flags&GeometryLit)
	assert.NotZero(t, flags&GeometryForwardLit)
}

func TestForwardLightingRespectsPixelBudget(t *testing.T) {
	material := newTestMaterial("base", "litbase", "light")
	index := drawable.NewLinearIndex()
	geometry := newTestGeometry(material, testBox(-1, -1, 5, 1, 1, 7))
	index.Add(geometry)
	for i := 0; i < 4; i++ {
		index.Add(drawable.NewLight(drawable.LightTypePoint,
			drawable.WithLightTransform(common.Vector3{X: float32(i), Z: 6}, common.Identity4()),
			drawable.WithLightRange(20)))
	}

	settings := testSettings()
	settings.MaxPixelLights = 2
	p := NewRenderPipeline(nil, index, settings, newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())

	accumulator := p.DrawableProcessor().GeometryLighting(geometry.Index())
	assert.Equal(t, 2, len(accumulator.PixelLights()))
	vertexLights := accumulator.VertexLights()
	assert.NotEqual(t, InvalidLightIndex, vertexLights[0])
	assert.NotEqual(t, InvalidLightIndex, vertexLights[1])
}

func TestShadowCasterInclusionIsMonotonic(t *testing.T) {
	material := newTestMaterial("base")
	index := drawable.NewLinearIndex()
	caster := newTestGeometry(material, testBox(-1, -1, 19, 1, 1, 21),
		drawable.WithCastShadows(true))
	index.Add(caster)
	outside := newTestGeometry(material, testBox(499, -1, 19, 501, 1, 21),
		drawable.WithCastShadows(true))
	index.Add(outside)

	p := NewRenderPipeline(nil, index, testSettings(), newTestMaterial("base"))
	runTestFrame(p, camera.NewCamera())
	dp := p.DrawableProcessor()

	light := drawable.NewLight(drawable.LightTypeDirectional)
	shadowCamera := camera.NewCamera(camera.WithOrthographic(40), camera.WithFar(200))
	shadowCamera.SetTransform(common.Vector3{Y: 50, Z: 20},
		common.LookRotation(common.Vector3{Y: -1}, common.Forward))

	candidates := []drawable.Drawable{caster, outside}

	// A visible caster stays included for every depth sub-range, even one
	// that excludes its own depth.
	wide := dp.PreprocessShadowCasters(nil, candidates,
		common.FloatRange{Min: 0.1, Max: 100}, light, shadowCamera)
	assert.Contains(t, wide, caster)

	narrow := dp.PreprocessShadowCasters(nil, candidates,
		common.FloatRange{Min: 0.1, Max: 10}, light, shadowCamera)
	assert.Contains(t, narrow, caster)

	// An invisible candidate far outside the shadow frustum is dropped.
	assert.NotContains(t, wide, outside)
}
