package renderbuffer

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"

	"github.com/rokups/Urho3D/common"
)

func testOutput() OutputDesc {
	return OutputDesc{
		Format:      wgpu.TextureFormatBGRA8Unorm,
		MultiSample: 1,
		Size:        common.IntVector2{X: 1280, Y: 720},
		IsTexture:   true,
	}
}

func matchingParams() Params {
	return Params{Format: wgpu.TextureFormatBGRA8Unorm, MultiSample: 1}
}

func TestPlanKeepsOutputBuffersWhenCompatible(t *testing.T) {
	plan := planViewportBuffers(0, matchingParams(), testOutput())
	assert.False(t, plan.substitutePrimary)
	assert.False(t, plan.secondary)
	assert.False(t, plan.substituteDepth)
}

func TestPlanSubstitutesOnFormatMismatch(t *testing.T) {
	params := Params{Format: wgpu.TextureFormatRGBA16Float, MultiSample: 1}
	plan := planViewportBuffers(0, params, testOutput())
	assert.True(t, plan.substitutePrimary)
	assert.False(t, plan.substituteDepth)

	params = Params{Format: wgpu.TextureFormatBGRA8Unorm, MultiSample: 4}
	plan = planViewportBuffers(0, params, testOutput())
	assert.True(t, plan.substitutePrimary)
	assert.True(t, plan.substituteDepth)
}

func TestPlanReadableColorOnSwapchainOutput(t *testing.T) {
	output := testOutput()
	output.IsTexture = false

	plan := planViewportBuffers(IsReadableColor, matchingParams(), output)
	assert.True(t, plan.substitutePrimary)

	// A plain full-rect texture output is readable as is.
	plan = planViewportBuffers(IsReadableColor, matchingParams(), testOutput())
	assert.False(t, plan.substitutePrimary)
}

func TestPlanPartialViewportForcesSubstitution(t *testing.T) {
	output := testOutput()
	output.ViewportRect = common.IntRect{Left: 0, Top: 0, Right: 640, Bottom: 360}

	plan := planViewportBuffers(IsReadableColor, matchingParams(), output)
	assert.True(t, plan.substitutePrimary)

	// The explicit full rect counts as a simple texture output.
	output.ViewportRect = common.IntRect{Right: 1280, Bottom: 720}
	plan = planViewportBuffers(IsReadableColor, matchingParams(), output)
	assert.False(t, plan.substitutePrimary)
}

func TestPlanReadableDepth(t *testing.T) {
	plan := planViewportBuffers(IsReadableDepth, matchingParams(), testOutput())
	assert.True(t, plan.substituteDepth)

	output := testOutput()
	output.HasReadableDepth = true
	plan = planViewportBuffers(IsReadableDepth, matchingParams(), output)
	assert.False(t, plan.substituteDepth)
}

func TestPlanStencilRequirement(t *testing.T) {
	plan := planViewportBuffers(HasStencil, matchingParams(), testOutput())
	assert.True(t, plan.substituteDepth)

	output := testOutput()
	output.HasStencil = true
	plan = planViewportBuffers(HasStencil, matchingParams(), output)
	assert.False(t, plan.substituteDepth)
}

func TestPlanSimultaneousReadAndWrite(t *testing.T) {
	plan := planViewportBuffers(SupportSimultaneousReadAndWrite, matchingParams(), testOutput())
	assert.True(t, plan.secondary)
	// Ping-pong never writes the output directly... except a simple texture
	// output which can serve as one side.
	assert.False(t, plan.substitutePrimary)

	output := testOutput()
	output.IsTexture = false
	plan = planViewportBuffers(SupportSimultaneousReadAndWrite, matchingParams(), output)
	assert.True(t, plan.substitutePrimary)
}

func TestOnRenderBeginSelectsBuffers(t *testing.T) {
	m := NewRenderBufferManager(nil)
	m.SetViewportParameters(matchingParams())
	m.OnRenderBegin(testOutput())

	assert.NotNil(t, m.ColorOutput())
	assert.NotNil(t, m.DepthStencilOutput())
	assert.Nil(t, m.ReadableColorBuffer())
	assert.True(t, m.DepthStencilOutput().IsDepthStencil())
	assert.Equal(t, common.IntVector2{X: 1280, Y: 720}, m.OutputSize())
	// Writing straight to the output needs no final copy.
	assert.False(t, m.OnRenderEnd())
}

func TestOnRenderBeginSubstitutesForFormatMismatch(t *testing.T) {
	m := NewRenderBufferManager(nil)
	m.SetViewportParameters(Params{Format: wgpu.TextureFormatRGBA16Float, MultiSample: 1})
	m.OnRenderBegin(testOutput())

	assert.Equal(t, wgpu.TextureFormatRGBA16Float, m.ColorOutput().Params().Format)
	assert.True(t, m.OnRenderEnd())
}

func TestInheritFlagsCopyOutputParameters(t *testing.T) {
	m := NewRenderBufferManager(nil)
	m.SetViewportParameters(Params{Format: wgpu.TextureFormatRGBA16Float, MultiSample: 4})
	m.SetViewportFlags(InheritColorFormat | InheritMultiSampleLevel)
	m.OnRenderBegin(testOutput())

	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm, m.ColorOutput().Params().Format)
	assert.Equal(t, 1, m.ColorOutput().Params().MultiSample)
	assert.False(t, m.OnRenderEnd())
}

func TestPrepareForColorReadWrite(t *testing.T) {
	m := NewRenderBufferManager(nil)
	m.SetViewportParameters(matchingParams())
	m.OnRenderBegin(testOutput())

	// Without the flag the swap is a programming error.
	writeable := m.ColorOutput()
	assert.Panics(t, func() { m.PrepareForColorReadWrite() })
	assert.Same(t, writeable, m.ColorOutput())

	m.SetViewportFlags(SupportSimultaneousReadAndWrite)
	m.OnRenderBegin(testOutput())

	writeable = m.ColorOutput()
	readable := m.ReadableColorBuffer()
	assert.NotNil(t, readable)
	m.PrepareForColorReadWrite()
	assert.Same(t, readable, m.ColorOutput())
	assert.Same(t, writeable, m.ReadableColorBuffer())
}

func TestSetRenderTargetsValidation(t *testing.T) {
	m := NewRenderBufferManager(nil)
	m.SetViewportParameters(matchingParams())
	m.OnRenderBegin(testOutput())

	depth := m.DepthStencilOutput()
	color := m.ColorOutput()

	assert.NoError(t, m.SetRenderTargets(depth, color))
	assert.NoError(t, m.SetOutputRenderTargets())

	assert.Error(t, m.SetRenderTargets(nil, color))
	assert.Error(t, m.SetRenderTargets(color, color))
	assert.Error(t, m.SetRenderTargets(depth, depth))
	assert.Error(t, m.SetRenderTargets(depth, color, color, color, color, color))
}

func TestSetRenderTargetsRejectsMismatchedSizes(t *testing.T) {
	m := NewRenderBufferManager(nil)
	m.SetViewportParameters(matchingParams())
	half := m.CreateColorBuffer(matchingParams(), common.Vector2{X: 0.5, Y: 0.5})
	m.OnRenderBegin(testOutput())

	assert.Error(t, m.SetRenderTargets(m.DepthStencilOutput(), half))
}

func TestViewportParameterChangeDropsSubstitutes(t *testing.T) {
	m := NewRenderBufferManager(nil)
	m.SetViewportParameters(Params{Format: wgpu.TextureFormatRGBA16Float, MultiSample: 1})
	m.OnRenderBegin(testOutput())
	first := m.ColorOutput()

	// Same parameters keep the cached substitute across frames.
	m.OnRenderBegin(testOutput())
	assert.Same(t, first, m.ColorOutput())

	m.SetViewportParameters(Params{Format: wgpu.TextureFormatRGBA8Unorm, MultiSample: 1})
	m.OnRenderBegin(testOutput())
	assert.NotSame(t, first, m.ColorOutput())
}

func TestDefaultViewportOffsetAndScale(t *testing.T) {
	m := NewRenderBufferManager(nil)
	m.SetViewportParameters(matchingParams())
	m.OnRenderBegin(testOutput())

	full := m.DefaultViewportOffsetAndScale()
	assert.InDelta(t, 0.5, full.X, 1e-6)
	assert.InDelta(t, 0.5, full.Y, 1e-6)
	assert.InDelta(t, 0.5, full.Z, 1e-6)
	assert.InDelta(t, 0.5, full.W, 1e-6)

	output := testOutput()
	output.ViewportRect = common.IntRect{Left: 640, Top: 360, Right: 1280, Bottom: 720}
	m.OnRenderBegin(output)

	quarter := m.DefaultViewportOffsetAndScale()
	assert.InDelta(t, 0.75, quarter.X, 1e-6)
	assert.InDelta(t, 0.75, quarter.Y, 1e-6)
	assert.InDelta(t, 0.25, quarter.Z, 1e-6)
	assert.InDelta(t, 0.25, quarter.W, 1e-6)
}

func TestDepthFormatSelection(t *testing.T) {
	assert.Equal(t, wgpu.TextureFormatDepth32Float, depthFormat(0))
	assert.Equal(t, wgpu.TextureFormatDepth24PlusStencil8, depthFormat(HasStencil))
}
