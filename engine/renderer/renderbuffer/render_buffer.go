package renderbuffer

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/rokups/Urho3D/common"
)

// Params describe the texture backing a render buffer.
type Params struct {
	Format      wgpu.TextureFormat
	MultiSample int
}

// RenderBuffer is one render target: the viewport's own color or depth
// surface, or a texture owned by the manager. Textures are realized lazily
// and only when a GPU device is present; size and format bookkeeping works
// without one.
type RenderBuffer interface {
	// Params returns the buffer's format parameters.
	Params() Params

	// Size returns the current pixel size, zero before the first frame.
	Size() common.IntVector2

	// IsDepthStencil reports whether the buffer binds as a depth attachment.
	IsDepthStencil() bool

	// Texture returns the backing texture, or nil for viewport-backed buffers
	// and before realization.
	Texture() *wgpu.Texture
}

type renderBufferImpl struct {
	params Params
	// sizeMultiplier scales the viewport size, 1 for full-size buffers.
	sizeMultiplier common.Vector2
	isDepthStencil bool
	// isViewport marks the output-backed buffers that never own a texture.
	isViewport bool

	size    common.IntVector2
	texture *wgpu.Texture
}

var _ RenderBuffer = &renderBufferImpl{}

func (b *renderBufferImpl) Params() Params {
	return b.params
}

func (b *renderBufferImpl) Size() common.IntVector2 {
	return b.size
}

func (b *renderBufferImpl) IsDepthStencil() bool {
	return b.isDepthStencil
}

func (b *renderBufferImpl) Texture() *wgpu.Texture {
	return b.texture
}

// realize sizes the buffer for the frame and reallocates its texture when the
// size changed. Viewport buffers track size only.
func (b *renderBufferImpl) realize(device *wgpu.Device, viewportSize common.IntVector2) {
	size := common.IntVector2{
		X: max(int(float32(viewportSize.X)*b.sizeMultiplier.X), 1),
		Y: max(int(float32(viewportSize.Y)*b.sizeMultiplier.Y), 1),
	}
	if b.isViewport {
		b.size = size
		return
	}
	if size == b.size && b.texture != nil {
		return
	}

	b.size = size
	if b.texture != nil {
		b.texture.Release()
		b.texture = nil
	}
	if device == nil {
		return
	}

	usage := wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding
	texture, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "render buffer",
		Size: wgpu.Extent3D{
			Width:              uint32(size.X),
			Height:             uint32(size.Y),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   uint32(max(b.params.MultiSample, 1)),
		Dimension:     wgpu.TextureDimension2D,
		Format:        b.params.Format,
		Usage:         usage,
	})
	if err != nil {
		common.Logger().Error("failed to create render buffer texture", "error", err)
		return
	}
	b.texture = texture
}

// compatibleWith reports whether two buffers can bind together as attachments
// of the same render pass.
func (b *renderBufferImpl) compatibleWith(other *renderBufferImpl) bool {
	return b.params.MultiSample == other.params.MultiSample && b.size == other.size
}
