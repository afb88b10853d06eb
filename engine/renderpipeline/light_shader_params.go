package renderpipeline

import (
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/rokups/Urho3D/common"
	"github.com/rokups/Urho3D/engine/camera"
	"github.com/rokups/Urho3D/engine/drawable"
)

// CookedLightParams are the per-light shader uniforms, computed once per
// frame after shadow maps are allocated.
type CookedLightParams struct {
	Direction    common.Vector3
	Position     common.Vector3
	InverseRange float32

	// Color is the effective light color scaled by the distance fade.
	Color                      common.Color
	EffectiveSpecularIntensity float32

	SpotCutoff        float32
	InverseSpotCutoff float32

	// LightMatrices holds the shadow matrix per cascade for directional
	// lights, the spot projection and shadow matrix for spot lights, or the
	// light rotation for point lights.
	LightMatrices    [MaxCascadeSplits]common.Matrix4
	NumLightMatrices int

	ShadowCubeAdjust     common.Vector4
	ShadowDepthFade      common.Vector4
	ShadowIntensity      common.Vector4
	ShadowMapInvSize     common.Vector2
	ShadowCubeUVBias     common.Vector2
	ShadowSplitDistances common.Vector4

	ShadowMap *wgpu.Texture
}

// lightFade returns the distance fade factor of a light in [0, 1].
func lightFade(light drawable.Light, distance float32) float32 {
	fadeStart := light.FadeDistance()
	fadeEnd := light.DrawDistance()
	if light.Type() != drawable.LightTypeDirectional && fadeEnd > 0 && fadeStart > 0 && fadeStart < fadeEnd {
		return min(1-(distance-fadeStart)/(fadeEnd-fadeStart), 1)
	}
	return 1
}

// calculateSpotMatrix returns the world-to-projected-texture matrix of a
// spot light. The projection is slightly narrower than the cone to prevent
// light spill at the shadow map edge.
func calculateSpotMatrix(light drawable.Light) common.Matrix4 {
	rotation := light.Rotation()
	spotView := rotation.RotationTransposed().Mul(common.TranslationMatrix(light.Position().Neg()))

	var spotProj common.Matrix4
	h := 1.005 / math32.Tan(light.Fov()*0.5)
	w := h / light.AspectRatio()
	spotProj[0] = w
	spotProj[5] = h
	spotProj[10] = 1.0 / max(light.Range(), common.Epsilon)
	spotProj[11] = 1

	texAdjust := common.Identity4()
	texAdjust.SetTranslation(common.Vector3{X: 0.5, Y: 0.5})
	texAdjust.SetScale(common.Vector3{X: 0.5, Y: -0.5, Z: 1})

	return texAdjust.Mul(spotProj).Mul(spotView)
}

// cookShaderParameters fills the processor's shader uniforms from the
// finalized shadow setup.
func (p *LightProcessor) cookShaderParameters(cullCamera camera.Camera, cubePadding float32) {
	light := p.light
	lightType := light.Type()
	params := &p.params

	params.Position = light.Position()
	params.Direction = light.Rotation().MulVector(common.Forward)
	if lightType == drawable.LightTypeDirectional {
		params.InverseRange = 0
	} else {
		params.InverseRange = 1.0 / max(light.Range(), common.Epsilon)
	}

	fade := lightFade(light, cullCamera.DistanceTo(light.Position()))
	params.Color = light.EffectiveColor().Scale(fade)
	params.EffectiveSpecularIntensity = fade * light.SpecularIntensity()

	if lightType == drawable.LightTypeSpot {
		params.SpotCutoff = math32.Cos(light.Fov() * 0.5)
		params.InverseSpotCutoff = 1.0 / (1.0 - params.SpotCutoff)
	} else {
		params.SpotCutoff = -2
		params.InverseSpotCutoff = 1
	}

	switch lightType {
	case drawable.LightTypeDirectional:
		params.NumLightMatrices = 0
	case drawable.LightTypeSpot:
		params.LightMatrices[0] = calculateSpotMatrix(light)
		params.NumLightMatrices = 1
	case drawable.LightTypePoint:
		params.LightMatrices[0] = light.Rotation()
		params.NumLightMatrices = 1
	}

	if !p.shadowMap.Defined() {
		return
	}

	textureSizeX := float32(p.shadowMap.PageSize.X)
	textureSizeY := float32(p.shadowMap.PageSize.Y)
	params.ShadowMapInvSize = common.Vector2{X: 1.0 / textureSizeX, Y: 1.0 / textureSizeY}
	params.ShadowMap = p.shadowMap.Texture

	params.ShadowCubeUVBias = common.Vector2{}
	params.ShadowCubeAdjust = common.Vector4{}
	switch lightType {
	case drawable.LightTypeDirectional:
		params.NumLightMatrices = MaxCascadeSplits
		for i := 0; i < p.numActiveSplits; i++ {
			params.LightMatrices[i] = p.splits[i].CalculateShadowMatrix()
		}

	case drawable.LightTypeSpot:
		params.NumLightMatrices = 2
		params.LightMatrices[1] = p.splits[0].CalculateShadowMatrix()

	case drawable.LightTypePoint:
		splitViewport := p.splits[0].shadowMap.Region
		relativeSize := common.Vector2{
			X: float32(splitViewport.Width()) / textureSizeX,
			Y: float32(splitViewport.Height()) / textureSizeY,
		}
		relativeOffset := common.Vector2{
			X: float32(splitViewport.Left) / textureSizeX,
			Y: float32(splitViewport.Top) / textureSizeY,
		}
		params.ShadowCubeUVBias = common.Vector2{
			X: 1 - 2*cubePadding*params.ShadowMapInvSize.X/relativeSize.X,
			Y: 1 - 2*cubePadding*params.ShadowMapInvSize.Y/relativeSize.Y,
		}
		params.ShadowCubeAdjust = common.Vector4{
			X: relativeSize.X, Y: relativeSize.Y,
			Z: relativeOffset.X, W: relativeOffset.Y,
		}
	}

	// Shadow camera depth parameters for point lights and cascade fade
	// parameters for directional lights share one uniform.
	{
		shadowCamera := p.splits[0].shadowCamera
		nearClip := shadowCamera.Near()
		farClip := shadowCamera.Far()
		q := farClip / max(farClip-nearClip, common.Epsilon)
		r := -q * nearClip

		cascade := light.ShadowCascade()
		viewFarClip := cullCamera.Far()
		shadowRange := cascadeShadowRange(cascade)
		fadeStart := cascade.FadeStart * shadowRange / viewFarClip
		fadeEnd := shadowRange / viewFarClip
		fadeRange := fadeEnd - fadeStart

		params.ShadowDepthFade = common.Vector4{X: q, Y: r, Z: fadeStart, W: 1.0 / fadeRange}
	}

	{
		intensity := light.ShadowIntensity()
		fadeStart := light.ShadowFadeDistance()
		fadeEnd := light.ShadowDistance()
		if fadeStart > 0 && fadeEnd > fadeStart {
			distance := cullCamera.DistanceTo(light.Position())
			t := min(max((distance-fadeStart)/(fadeEnd-fadeStart), 0), 1)
			intensity = intensity + (1-intensity)*t
		}
		pcfValues := 1 - intensity
		params.ShadowIntensity = common.Vector4{X: pcfValues, Y: intensity}
	}

	params.ShadowSplitDistances = common.Vector4{
		X: common.LargeValue, Y: common.LargeValue, Z: common.LargeValue, W: common.LargeValue,
	}
	if p.numActiveSplits > 1 {
		params.ShadowSplitDistances.X = p.splits[0].cascadeZRange.Max / cullCamera.Far()
	}
	if p.numActiveSplits > 2 {
		params.ShadowSplitDistances.Y = p.splits[1].cascadeZRange.Max / cullCamera.Far()
	}
	if p.numActiveSplits > 3 {
		params.ShadowSplitDistances.Z = p.splits[2].cascadeZRange.Max / cullCamera.Far()
	}
}

// cascadeShadowRange returns the far distance of the last cascade.
func cascadeShadowRange(cascade drawable.CascadeParameters) float32 {
	shadowRange := float32(0)
	for _, split := range cascade.Splits {
		shadowRange = max(shadowRange, split)
	}
	return shadowRange
}
