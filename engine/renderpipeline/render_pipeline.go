package renderpipeline

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/rokups/Urho3D/common"
	"github.com/rokups/Urho3D/engine/camera"
	"github.com/rokups/Urho3D/engine/drawable"
)

// Depth32 float has a 23 bit mantissa; constant shadow bias maps to integer
// depth bias units through it.
const depthBiasScale = 1 << 23

// RenderPipeline drives one viewport's frame: visibility, lighting, shadow
// maps and batch collection. The renderer consumes the collected batches
// afterwards.
type RenderPipeline struct {
	workQueue          *WorkQueue
	index              drawable.Index
	settings           Settings
	drawableProcessor  *DrawableProcessor
	shadowMapAllocator *ShadowMapAllocator

	opaquePass *ScenePass
	alphaPass  *ScenePass
	shadowPass *ShadowScenePass

	frameNumber        uint32
	candidateDrawables []drawable.Drawable
	mainLightIndex     uint32
}

var _ LightProcessorCallback = &RenderPipeline{}
var _ BatchStateCacheCallback = &RenderPipeline{}

// NewRenderPipeline creates a pipeline over a spatial index. The device may
// be nil; shadow map textures are then left unallocated, which batch
// collection tolerates.
//
// Parameters:
//   - device: the GPU device shadow maps are allocated on, or nil
//   - index: the spatial index drawables are queried from
//   - settings: the pipeline budgets; zero values are defaulted
//   - defaultMaterial: the fallback material for batches without one
//
// Returns:
//   - *RenderPipeline: the newly created pipeline
func NewRenderPipeline(device *wgpu.Device, index drawable.Index,
	settings Settings, defaultMaterial drawable.Material) *RenderPipeline {

	settings = settings.withDefaults()
	workQueue := NewWorkQueue()

	p := &RenderPipeline{
		workQueue:          workQueue,
		index:              index,
		settings:           settings,
		drawableProcessor:  NewDrawableProcessor(workQueue, index, settings, defaultMaterial),
		shadowMapAllocator: NewShadowMapAllocator(device, settings.ShadowMapPageSize),
		opaquePass:         NewScenePass(workQueue, SortByState, "base", "litbase", "light"),
		alphaPass:          NewScenePass(workQueue, SortBackToFront, "alpha", "litalpha", "light"),
		shadowPass:         NewShadowScenePass(workQueue, "shadow"),
		mainLightIndex:     InvalidLightIndex,
	}
	p.drawableProcessor.SetPasses(p.opaquePass, p.alphaPass)
	return p
}

// Settings returns the pipeline configuration.
func (p *RenderPipeline) Settings() Settings {
	return p.settings
}

// SetSettings replaces the configuration. Cached pipeline states are dropped
// when the global state hash changed.
func (p *RenderPipeline) SetSettings(settings Settings) {
	settings = settings.withDefaults()
	if settings.PipelineStateHash != p.settings.PipelineStateHash {
		p.InvalidatePipelineStateCaches()
	}
	p.settings = settings
}

// InvalidatePipelineStateCaches drops every cached pipeline state across all
// passes. Call when output formats change.
func (p *RenderPipeline) InvalidatePipelineStateCaches() {
	p.opaquePass.InvalidatePipelineStateCache()
	p.alphaPass.InvalidatePipelineStateCache()
	p.shadowPass.InvalidatePipelineStateCache()
}

// DrawableProcessor returns the visibility processor.
func (p *RenderPipeline) DrawableProcessor() *DrawableProcessor {
	return p.drawableProcessor
}

// ShadowMapAllocator returns the shadow atlas allocator.
func (p *RenderPipeline) ShadowMapAllocator() *ShadowMapAllocator {
	return p.shadowMapAllocator
}

// OpaquePass returns the opaque scene pass.
func (p *RenderPipeline) OpaquePass() *ScenePass {
	return p.opaquePass
}

// AlphaPass returns the transparent scene pass.
func (p *RenderPipeline) AlphaPass() *ScenePass {
	return p.alphaPass
}

// ShadowPass returns the shadow caster pass.
func (p *RenderPipeline) ShadowPass() *ShadowScenePass {
	return p.shadowPass
}

// MainLightIndex returns the light folded into the lit base pass this frame,
// or InvalidLightIndex.
func (p *RenderPipeline) MainLightIndex() uint32 {
	return p.mainLightIndex
}

// Update runs one frame of visibility, lighting and batch collection for the
// given view. Afterwards the passes expose sorted batches and the light
// processors expose cooked shader parameters.
func (p *RenderPipeline) Update(viewCamera camera.Camera, timeStep float32,
	viewSize common.IntVector2) {

	p.frameNumber++
	frame := drawable.FrameInfo{
		FrameNumber: p.frameNumber,
		TimeStep:    timeStep,
		ViewSize:    viewSize,
		Camera:      viewCamera,
	}

	// Drawable slots address the per-frame state arrays.
	for i, d := range p.index.Drawables() {
		d.SetIndex(uint32(i))
	}

	p.shadowMapAllocator.Reset()
	p.drawableProcessor.OnUpdateBegin(frame)

	viewMask := viewCamera.ViewMask()
	p.candidateDrawables = p.candidateDrawables[:0]
	for _, d := range p.index.QueryFrustum(viewCamera.Frustum()) {
		if d.ViewMask()&viewMask != 0 {
			p.candidateDrawables = append(p.candidateDrawables, d)
		}
	}

	p.drawableProcessor.ProcessVisibleDrawables(p.candidateDrawables)
	p.drawableProcessor.ProcessLights(p)

	p.mainLightIndex = p.findMainLight()
	for i, lightProcessor := range p.drawableProcessor.LightProcessors() {
		p.drawableProcessor.ProcessForwardLighting(uint32(i), lightProcessor.LitGeometries())
	}

	p.drawableProcessor.ProcessShadowCasters()
	p.drawableProcessor.UpdateGeometries()

	p.opaquePass.CollectSceneBatches(p.mainLightIndex, p.drawableProcessor, p)
	p.alphaPass.CollectSceneBatches(p.mainLightIndex, p.drawableProcessor, p)
	p.shadowPass.CollectShadowBatches(p.drawableProcessor)
	p.shadowPass.FinalizeShadowBatches(p)
}

// findMainLight picks the brightest directional light without a shape
// texture. That light is folded into the lit base pass.
func (p *RenderPipeline) findMainLight() uint32 {
	mainLightIndex := InvalidLightIndex
	var mainLightBrightness float32
	for i, light := range p.drawableProcessor.VisibleLights() {
		if light.Type() != drawable.LightTypeDirectional || light.ShapeTexture() != nil {
			continue
		}
		brightness := light.EffectiveColor().Luminance()
		if mainLightIndex == InvalidLightIndex || brightness > mainLightBrightness {
			mainLightIndex = uint32(i)
			mainLightBrightness = brightness
		}
	}
	return mainLightIndex
}

// IsLightShadowed reports whether the light renders shadows this frame.
func (p *RenderPipeline) IsLightShadowed(light drawable.Light) bool {
	return p.settings.EnableShadows && light.CastShadows() && light.ShadowIntensity() < 1
}

// AllocateTransientShadowMap reserves a one-frame shadow atlas region.
func (p *RenderPipeline) AllocateTransientShadowMap(size common.IntVector2) ShadowMapRegion {
	return p.shadowMapAllocator.AllocateShadowMap(size)
}

// CreateBatchPipelineState builds the pipeline state for a batch cache key.
// The desc only depends on values folded into the key hashes, anything else
// would poison the cache.
func (p *RenderPipeline) CreateBatchPipelineState(key *BatchStateCreateKey,
	ctx *BatchStateCreateContext) *PipelineState {

	var shaderHash uint32
	common.CombineHash(&shaderHash, key.Pass.ShaderHash())
	common.CombineHash(&shaderHash, uint32(key.GeometryType))
	common.CombineHash(&shaderHash, key.PixelLightHash)
	common.CombineHash(&shaderHash, key.VertexLightsHash)
	common.CombineHash(&shaderHash, p.settings.PipelineStateHash)

	desc := PipelineStateDesc{
		ShaderProgramHash: shaderHash,
		DepthTestEnabled:  true,
		DepthWriteEnabled: true,
		DepthCompare:      wgpu.CompareFunctionLessEqual,
		CullMode:          wgpu.CullModeBack,
		Topology:          wgpu.PrimitiveTopologyTriangleList,
		FrontFace:         wgpu.FrontFaceCCW,
		WriteMask:         wgpu.ColorWriteMaskAll,
	}

	switch ctx.SubpassIndex {
	case SubpassShadow:
		bias := key.PixelLight.Light().ShadowBias()
		desc.WriteMask = 0
		desc.DepthBias = int32(bias.ConstantBias * depthBiasScale)
		desc.DepthBiasSlopeScale = bias.SlopeScaledBias

	case SubpassLight:
		desc.DepthWriteEnabled = false
		desc.BlendEnabled = true
		desc.BlendState = &additiveBlend

	default:
		if scenePass, ok := ctx.Pass.(*ScenePass); ok && scenePass.sortMode == SortBackToFront {
			desc.DepthWriteEnabled = false
			desc.BlendEnabled = true
			desc.BlendState = &alphaBlend
		}
	}

	return NewPipelineState(desc)
}

var additiveBlend = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOne,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOne,
		Operation: wgpu.BlendOperationAdd,
	},
}

var alphaBlend = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}
