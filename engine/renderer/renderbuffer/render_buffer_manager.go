package renderbuffer

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/rokups/Urho3D/common"
)

// MaxRenderTargets is the color attachment limit of one render pass.
const MaxRenderTargets = 4

// ViewportFlags declare what the frame needs from the viewport buffers. The
// manager substitutes internal textures for the output surface only when a
// flag cannot be satisfied by the output directly.
type ViewportFlags uint32

const (
	// InheritColorFormat copies the output surface format into the viewport
	// parameters each frame.
	InheritColorFormat ViewportFlags = 1 << iota
	// InheritMultiSampleLevel copies the output multisample level.
	InheritMultiSampleLevel
	// IsReadableColor requires the color buffer to bind as a texture.
	IsReadableColor
	// IsReadableDepth requires the depth buffer to bind as a texture.
	IsReadableDepth
	// HasStencil requires a stencil aspect on the depth buffer.
	HasStencil
	// SupportSimultaneousReadAndWrite enables PrepareForColorReadWrite
	// ping-pong between two color buffers.
	SupportSimultaneousReadAndWrite
	// UsableWithMultipleRenderTargets requires the color buffer to bind next
	// to other attachments.
	UsableWithMultipleRenderTargets
)

// Test reports whether all given flags are set.
func (f ViewportFlags) Test(flags ViewportFlags) bool {
	return f&flags == flags
}

// OutputDesc describes the surface the frame ultimately presents to.
type OutputDesc struct {
	Format      wgpu.TextureFormat
	MultiSample int
	Size        common.IntVector2

	// IsTexture is true when the output is a plain renderable texture rather
	// than a swapchain surface.
	IsTexture bool
	// HasReadableDepth is true when the output's own depth buffer can bind as
	// a texture.
	HasReadableDepth bool
	// HasStencil is true when the output's own depth buffer has stencil.
	HasStencil bool

	// ViewportRect is the output sub-rectangle rendered to; zero means the
	// whole surface.
	ViewportRect common.IntRect
}

// bufferPlan is the substitution decision for one frame.
type bufferPlan struct {
	substitutePrimary bool
	secondary         bool
	substituteDepth   bool
}

// planViewportBuffers decides which internal buffers must replace the output
// surfaces to satisfy the viewport flags. Pure function of its inputs.
func planViewportBuffers(flags ViewportFlags, params Params, output OutputDesc) bufferPlan {
	isColorFormatMatching := output.Format == params.Format
	isMultiSampleMatching := output.MultiSample == params.MultiSample
	isFullRectOutput := output.ViewportRect.IsZero() ||
		output.ViewportRect == common.IntRect{Right: output.Size.X, Bottom: output.Size.Y}
	isSimpleTextureOutput := output.IsTexture && isFullRectOutput

	needReadableColor := flags.Test(IsReadableColor)
	needReadableDepth := flags.Test(IsReadableDepth)
	needStencil := flags.Test(HasStencil)
	needSimultaneous := flags.Test(SupportSimultaneousReadAndWrite)
	needMRT := flags.Test(UsableWithMultipleRenderTargets)

	return bufferPlan{
		secondary: needSimultaneous,
		substitutePrimary: !isColorFormatMatching || !isMultiSampleMatching ||
			((needReadableColor || needReadableDepth || needSimultaneous) && !isSimpleTextureOutput) ||
			(needMRT && !isSimpleTextureOutput),
		substituteDepth: !isMultiSampleMatching ||
			(needReadableDepth && (!output.HasReadableDepth || !isSimpleTextureOutput)) ||
			(needStencil && !output.HasStencil),
	}
}

// RenderBufferManager owns the viewport color and depth buffers of one
// pipeline, substituting internal textures when the requested capabilities
// exceed what the output surface offers. Substitute buffers are allocated
// lazily and dropped wholesale when the viewport parameters change.
type RenderBufferManager struct {
	device *wgpu.Device

	flags  ViewportFlags
	params Params

	viewportColorBuffer *renderBufferImpl
	viewportDepthBuffer *renderBufferImpl

	substituteColorBuffers [2]*renderBufferImpl
	substituteDepthBuffer  *renderBufferImpl
	manualBuffers          []*renderBufferImpl

	previousParams Params
	viewportRect   common.IntRect
	outputSize     common.IntVector2

	depthStencilBuffer   RenderBuffer
	writeableColorBuffer RenderBuffer
	readableColorBuffer  RenderBuffer
}

// NewRenderBufferManager creates a manager. The device may be nil; buffer
// planning and selection then run without texture allocation.
//
// Parameters:
//   - device: the GPU device textures are allocated on, or nil
//
// Returns:
//   - *RenderBufferManager: the newly created manager
func NewRenderBufferManager(device *wgpu.Device) *RenderBufferManager {
	return &RenderBufferManager{
		device:              device,
		viewportColorBuffer: &renderBufferImpl{sizeMultiplier: common.Vector2{X: 1, Y: 1}, isViewport: true},
		viewportDepthBuffer: &renderBufferImpl{
			sizeMultiplier: common.Vector2{X: 1, Y: 1},
			isDepthStencil: true,
			isViewport:     true,
		},
	}
}

// SetViewportParameters sets the requested color format and multisampling.
// Flags may override parts of it from the output each frame.
func (m *RenderBufferManager) SetViewportParameters(params Params) {
	m.params = params
}

// SetViewportFlags declares the frame's buffer capabilities.
func (m *RenderBufferManager) SetViewportFlags(flags ViewportFlags) {
	m.flags = flags
}

// CreateColorBuffer creates an additional color buffer sized relative to the
// viewport, for example half-resolution bloom targets. The buffer is realized
// together with the viewport buffers every frame.
//
// Parameters:
//   - params: the buffer's format parameters
//   - sizeMultiplier: the viewport size fraction, {1, 1} for full size
//
// Returns:
//   - RenderBuffer: the newly created buffer
func (m *RenderBufferManager) CreateColorBuffer(params Params, sizeMultiplier common.Vector2) RenderBuffer {
	buffer := &renderBufferImpl{params: params, sizeMultiplier: sizeMultiplier}
	m.manualBuffers = append(m.manualBuffers, buffer)
	return buffer
}

// OnRenderBegin prepares the frame's buffers: inherits output parameters,
// drops cached substitutes when parameters changed, allocates the substitutes
// the plan requires and selects the active buffers.
func (m *RenderBufferManager) OnRenderBegin(output OutputDesc) {
	m.outputSize = output.Size
	if output.ViewportRect.IsZero() {
		m.viewportRect = common.IntRect{Right: output.Size.X, Bottom: output.Size.Y}
	} else {
		m.viewportRect = output.ViewportRect
	}

	if m.flags.Test(InheritColorFormat) {
		m.params.Format = output.Format
	}
	if m.flags.Test(InheritMultiSampleLevel) {
		m.params.MultiSample = output.MultiSample
	}

	if m.previousParams != m.params {
		m.previousParams = m.params
		m.resetCachedRenderBuffers()
	}

	plan := planViewportBuffers(m.flags, m.params, output)

	if plan.substitutePrimary && m.substituteColorBuffers[0] == nil {
		m.substituteColorBuffers[0] = &renderBufferImpl{
			params:         m.params,
			sizeMultiplier: common.Vector2{X: 1, Y: 1},
		}
	}
	if plan.secondary && m.substituteColorBuffers[1] == nil {
		m.substituteColorBuffers[1] = &renderBufferImpl{
			params:         m.params,
			sizeMultiplier: common.Vector2{X: 1, Y: 1},
		}
	}
	if plan.substituteDepth && m.substituteDepthBuffer == nil {
		m.substituteDepthBuffer = &renderBufferImpl{
			params:         Params{Format: depthFormat(m.flags), MultiSample: m.params.MultiSample},
			sizeMultiplier: common.Vector2{X: 1, Y: 1},
			isDepthStencil: true,
		}
	}

	viewportSize := m.viewportRect.Size()
	m.viewportColorBuffer.params = Params{Format: output.Format, MultiSample: output.MultiSample}
	m.viewportDepthBuffer.params = Params{Format: depthFormat(m.flags), MultiSample: output.MultiSample}
	for _, buffer := range m.activeBuffers(plan) {
		buffer.realize(m.device, viewportSize)
	}

	m.depthStencilBuffer = m.viewportDepthBuffer
	if plan.substituteDepth {
		m.depthStencilBuffer = m.substituteDepthBuffer
	}
	m.writeableColorBuffer = m.viewportColorBuffer
	if plan.substitutePrimary {
		m.writeableColorBuffer = m.substituteColorBuffers[0]
	}
	m.readableColorBuffer = nil
	if plan.secondary {
		m.readableColorBuffer = m.substituteColorBuffers[1]
	}
}

// OnRenderEnd finishes the frame. It reports whether the written color must
// still be copied into the output surface; the copy itself is the renderer's
// job.
func (m *RenderBufferManager) OnRenderEnd() bool {
	return m.writeableColorBuffer != RenderBuffer(m.viewportColorBuffer)
}

// PrepareForColorReadWrite swaps the writeable and readable color buffers so
// the previously written color binds as input. Calling it without the
// SupportSimultaneousReadAndWrite flag is a programming error and panics.
func (m *RenderBufferManager) PrepareForColorReadWrite() {
	if !m.flags.Test(SupportSimultaneousReadAndWrite) {
		panic("renderbuffer: PrepareForColorReadWrite requires the SupportSimultaneousReadAndWrite flag")
	}
	m.writeableColorBuffer, m.readableColorBuffer = m.readableColorBuffer, m.writeableColorBuffer
}

// SetRenderTargets validates an attachment combination for binding. Invalid
// combinations are logged and rejected so one bad draw never aborts the
// frame; binding itself is the renderer's job.
func (m *RenderBufferManager) SetRenderTargets(depthStencilBuffer RenderBuffer,
	colorBuffers ...RenderBuffer) error {

	if depthStencilBuffer == nil {
		err := errors.New("depth-stencil buffer is missing")
		common.Logger().Error(err.Error())
		return err
	}
	if len(colorBuffers) > MaxRenderTargets {
		err := fmt.Errorf("cannot set more than %d color render buffers", MaxRenderTargets)
		common.Logger().Error(err.Error())
		return err
	}

	depthStencil, ok := depthStencilBuffer.(*renderBufferImpl)
	if !ok || !depthStencil.isDepthStencil {
		err := errors.New("depth-stencil slot requires a depth buffer")
		common.Logger().Error(err.Error())
		return err
	}
	for i, colorBuffer := range colorBuffers {
		color, ok := colorBuffer.(*renderBufferImpl)
		if !ok || color.isDepthStencil {
			err := fmt.Errorf("color render buffer #%d is not a color buffer", i)
			common.Logger().Error(err.Error())
			return err
		}
		if !depthStencil.compatibleWith(color) {
			err := fmt.Errorf("depth-stencil is incompatible with color render buffer #%d", i)
			common.Logger().Error(err.Error())
			return err
		}
	}
	return nil
}

// SetOutputRenderTargets validates the default output combination.
func (m *RenderBufferManager) SetOutputRenderTargets() error {
	return m.SetRenderTargets(m.DepthStencilOutput(), m.ColorOutput())
}

// DepthStencilOutput returns the frame's active depth-stencil buffer.
func (m *RenderBufferManager) DepthStencilOutput() RenderBuffer {
	return m.depthStencilBuffer
}

// ColorOutput returns the frame's writeable color buffer.
func (m *RenderBufferManager) ColorOutput() RenderBuffer {
	return m.writeableColorBuffer
}

// ReadableColorBuffer returns the color buffer currently bindable as input,
// or nil without the ping-pong flag.
func (m *RenderBufferManager) ReadableColorBuffer() RenderBuffer {
	return m.readableColorBuffer
}

// OutputSize returns the viewport size in pixels.
func (m *RenderBufferManager) OutputSize() common.IntVector2 {
	return m.viewportRect.Size()
}

// DefaultViewportOffsetAndScale returns the UV transform mapping the full
// output into clip space quads: offset in xy, half scale in zw.
func (m *RenderBufferManager) DefaultViewportOffsetAndScale() common.Vector4 {
	if m.outputSize.X == 0 || m.outputSize.Y == 0 {
		return common.Vector4{Z: 0.5, W: 0.5}
	}
	halfScale := common.Vector2{
		X: 0.5 * float32(m.viewportRect.Width()) / float32(m.outputSize.X),
		Y: 0.5 * float32(m.viewportRect.Height()) / float32(m.outputSize.Y),
	}
	return common.Vector4{
		X: float32(m.viewportRect.Left)/float32(m.outputSize.X) + halfScale.X,
		Y: float32(m.viewportRect.Top)/float32(m.outputSize.Y) + halfScale.Y,
		Z: halfScale.X,
		W: halfScale.Y,
	}
}

func (m *RenderBufferManager) activeBuffers(plan bufferPlan) []*renderBufferImpl {
	buffers := []*renderBufferImpl{m.viewportColorBuffer, m.viewportDepthBuffer}
	if plan.substitutePrimary {
		buffers = append(buffers, m.substituteColorBuffers[0])
	}
	if plan.secondary {
		buffers = append(buffers, m.substituteColorBuffers[1])
	}
	if plan.substituteDepth {
		buffers = append(buffers, m.substituteDepthBuffer)
	}
	return append(buffers, m.manualBuffers...)
}

func (m *RenderBufferManager) resetCachedRenderBuffers() {
	for i, buffer := range m.substituteColorBuffers {
		if buffer != nil && buffer.texture != nil {
			buffer.texture.Release()
		}
		m.substituteColorBuffers[i] = nil
	}
	if m.substituteDepthBuffer != nil && m.substituteDepthBuffer.texture != nil {
		m.substituteDepthBuffer.texture.Release()
	}
	m.substituteDepthBuffer = nil
}

// depthFormat picks the depth texture format for the frame's flags.
func depthFormat(flags ViewportFlags) wgpu.TextureFormat {
	if flags.Test(HasStencil) {
		return wgpu.TextureFormatDepth24PlusStencil8
	}
	return wgpu.TextureFormatDepth32Float
}
