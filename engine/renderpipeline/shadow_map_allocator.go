package renderpipeline

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/rokups/Urho3D/common"
)

// ShadowMapRegion is a rectangle inside a shadow atlas page. The zero value
// is "no shadow map".
type ShadowMapRegion struct {
	// PageIndex identifies the atlas page inside the allocator pool.
	PageIndex int

	// PageSize is the full page extent, needed to turn the region into
	// texture coordinates.
	PageSize common.IntVector2

	// Region is the allocated rectangle in texels.
	Region common.IntRect

	// Texture is the page's depth texture. Nil when the allocator runs
	// without a GPU device.
	Texture *wgpu.Texture
}

// Defined reports whether the region holds an allocation.
func (r ShadowMapRegion) Defined() bool {
	return !r.Region.IsZero()
}

// GetSplit returns the sub-rectangle of one split inside a region that holds
// a whole split grid.
func (r ShadowMapRegion) GetSplit(split int, gridSize common.IntVector2) ShadowMapRegion {
	splitSize := r.Region.Size().Div(gridSize)
	index := common.IntVector2{X: split % gridSize.X, Y: split / gridSize.X}
	begin := common.IntVector2{X: r.Region.Left, Y: r.Region.Top}.Add(splitSize.Mul(index))
	end := begin.Add(splitSize)

	splitRegion := r
	splitRegion.Region = common.IntRect{Left: begin.X, Top: begin.Y, Right: end.X, Bottom: end.Y}
	return splitRegion
}

// shadowMapPage is one atlas texture with its packing state.
type shadowMapPage struct {
	index     int
	texture   *wgpu.Texture
	allocator *areaAllocator
	needClear bool
}

// ShadowMapAllocator packs transient per-frame shadow maps into a pool of
// fixed-size atlas pages. Regions live for one frame: Reset drops them all
// and reuses the page textures.
type ShadowMapAllocator struct {
	device   *wgpu.Device
	pageSize int
	pool     []*shadowMapPage
}

// NewShadowMapAllocator creates an allocator with the given page edge
// length. The device may be nil, in which case regions carry no texture.
func NewShadowMapAllocator(device *wgpu.Device, pageSize int) *ShadowMapAllocator {
	if pageSize <= 0 {
		pageSize = 2048
	}
	return &ShadowMapAllocator{device: device, pageSize: pageSize}
}

// PageSize returns the atlas page edge length.
func (a *ShadowMapAllocator) PageSize() int {
	return a.pageSize
}

// Reset drops all allocations of the previous frame, keeping page textures.
func (a *ShadowMapAllocator) Reset() {
	for _, page := range a.pool {
		page.allocator.Reset(a.pageSize, a.pageSize)
		page.needClear = false
	}
}

// AllocateShadowMap reserves a region of the requested size, first-fit
// across the existing pages, growing the pool when all pages are full.
// Requests larger than a page are clamped.
func (a *ShadowMapAllocator) AllocateShadowMap(size common.IntVector2) ShadowMapRegion {
	if size.X <= 0 || size.Y <= 0 {
		return ShadowMapRegion{}
	}
	clamped := size.Min(common.IntVector2{X: a.pageSize, Y: a.pageSize})

	for _, page := range a.pool {
		if region := a.allocateFromPage(page, clamped); region.Defined() {
			return region
		}
	}

	a.allocatePage()
	return a.allocateFromPage(a.pool[len(a.pool)-1], clamped)
}

// PageTexture returns the texture of one pool page, or nil without a device.
func (a *ShadowMapAllocator) PageTexture(pageIndex int) *wgpu.Texture {
	if pageIndex < 0 || pageIndex >= len(a.pool) {
		return nil
	}
	return a.pool[pageIndex].texture
}

// PageNeedsClear reports whether a page received allocations this frame and
// must be depth-cleared before rendering.
func (a *ShadowMapAllocator) PageNeedsClear(pageIndex int) bool {
	return pageIndex >= 0 && pageIndex < len(a.pool) && a.pool[pageIndex].needClear
}

func (a *ShadowMapAllocator) allocateFromPage(page *shadowMapPage, size common.IntVector2) ShadowMapRegion {
	x, y, ok := page.allocator.Allocate(size.X, size.Y)
	if !ok {
		return ShadowMapRegion{}
	}
	page.needClear = true
	return ShadowMapRegion{
		PageIndex: page.index,
		PageSize:  common.IntVector2{X: a.pageSize, Y: a.pageSize},
		Region:    common.IntRect{Left: x, Top: y, Right: x + size.X, Bottom: y + size.Y},
		Texture:   page.texture,
	}
}

func (a *ShadowMapAllocator) allocatePage() {
	page := &shadowMapPage{
		index:     len(a.pool),
		allocator: newAreaAllocator(a.pageSize, a.pageSize),
	}
	if a.device != nil {
		texture, err := a.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "Shadow Map Page",
			Size: wgpu.Extent3D{
				Width:              uint32(a.pageSize),
				Height:             uint32(a.pageSize),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     wgpu.TextureDimension2D,
			Format:        wgpu.TextureFormatDepth32Float,
			Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
		})
		if err != nil {
			common.Logger().Error("failed to create shadow map page texture", "error", err)
		} else {
			page.texture = texture
		}
	}
	a.pool = append(a.pool, page)
}
