package renderpipeline

import (
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/rokups/Urho3D/common"
)

// PipelineStateDesc captures the shader selection and fixed-function state of
// one draw configuration. Two descs with equal hashes are interchangeable for
// sorting and caching purposes.
type PipelineStateDesc struct {
	// ShaderProgramHash identifies the compiled shader pair.
	ShaderProgramHash uint32

	DepthTestEnabled    bool
	DepthWriteEnabled   bool
	DepthCompare        wgpu.CompareFunction
	DepthBias           int32
	DepthBiasSlopeScale float32

	CullMode  wgpu.CullMode
	Topology  wgpu.PrimitiveTopology
	FrontFace wgpu.FrontFace
	WriteMask wgpu.ColorWriteMask

	BlendEnabled bool
	BlendState   *wgpu.BlendState
}

// Hash folds every field that affects draw behavior into one value.
func (d *PipelineStateDesc) Hash() uint32 {
	var hash uint32
	common.CombineHash(&hash, d.ShaderProgramHash)
	common.CombineHash(&hash, boolBit(d.DepthTestEnabled)|boolBit(d.DepthWriteEnabled)<<1|boolBit(d.BlendEnabled)<<2)
	common.CombineHash(&hash, uint32(d.DepthCompare))
	common.CombineHash(&hash, uint32(d.DepthBias))
	common.CombineHash(&hash, math.Float32bits(d.DepthBiasSlopeScale))
	common.CombineHash(&hash, uint32(d.CullMode))
	common.CombineHash(&hash, uint32(d.Topology))
	common.CombineHash(&hash, uint32(d.FrontFace))
	common.CombineHash(&hash, uint32(d.WriteMask))
	if d.BlendState != nil {
		common.CombineHash(&hash, uint32(d.BlendState.Color.SrcFactor))
		common.CombineHash(&hash, uint32(d.BlendState.Color.DstFactor))
		common.CombineHash(&hash, uint32(d.BlendState.Color.Operation))
		common.CombineHash(&hash, uint32(d.BlendState.Alpha.SrcFactor))
		common.CombineHash(&hash, uint32(d.BlendState.Alpha.DstFactor))
		common.CombineHash(&hash, uint32(d.BlendState.Alpha.Operation))
	}
	return hash
}

// PipelineState is a cacheable draw configuration. The GPU pipeline object is
// attached lazily by the renderer; batch collection and the unit tests work
// on the desc and hashes alone.
type PipelineState struct {
	desc PipelineStateDesc
	hash uint32

	renderPipeline *wgpu.RenderPipeline
}

// NewPipelineState creates a pipeline state from its desc.
//
// Parameters:
//   - desc: the draw configuration
//
// Returns:
//   - *PipelineState: the newly created pipeline state
func NewPipelineState(desc PipelineStateDesc) *PipelineState {
	return &PipelineState{desc: desc, hash: desc.Hash()}
}

// Desc returns the draw configuration.
func (p *PipelineState) Desc() PipelineStateDesc {
	return p.desc
}

// Hash returns the desc hash. Feeds batch sort keys.
func (p *PipelineState) Hash() uint32 {
	return p.hash
}

// ShaderProgramHash returns the shader pair hash. Feeds batch sort keys.
func (p *PipelineState) ShaderProgramHash() uint32 {
	return p.desc.ShaderProgramHash
}

// RenderPipeline returns the attached GPU pipeline, or nil before the
// renderer realizes it.
func (p *PipelineState) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

// SetRenderPipeline attaches the realized GPU pipeline. Must happen before
// the batch is submitted, on the main thread.
func (p *PipelineState) SetRenderPipeline(pipeline *wgpu.RenderPipeline) {
	p.renderPipeline = pipeline
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
