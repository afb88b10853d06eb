package renderpipeline

// areaAllocator hands out non-overlapping rectangles from a fixed area using
// shelf packing: allocations fill the current row left to right and open a
// new row below when the request does not fit. Freeing individual rectangles
// is not supported, the allocator is reset wholesale each frame.
type areaAllocator struct {
	width  int
	height int

	rowX      int
	rowY      int
	rowHeight int
}

func newAreaAllocator(width, height int) *areaAllocator {
	return &areaAllocator{width: width, height: height}
}

// Reset forgets all allocations and resizes the area.
func (a *areaAllocator) Reset(width, height int) {
	a.width = width
	a.height = height
	a.rowX = 0
	a.rowY = 0
	a.rowHeight = 0
}

// Allocate reserves a width x height rectangle and returns its top-left
// corner, or false when the area is exhausted.
func (a *areaAllocator) Allocate(width, height int) (x, y int, ok bool) {
	if width <= 0 || height <= 0 || width > a.width {
		return 0, 0, false
	}

	// Open a new row when the current one cannot fit the request.
	if a.rowX+width > a.width {
		a.rowY += a.rowHeight
		a.rowX = 0
		a.rowHeight = 0
	}
	if a.rowY+height > a.height {
		return 0, 0, false
	}

	x, y = a.rowX, a.rowY
	a.rowX += width
	if height > a.rowHeight {
		a.rowHeight = height
	}
	return x, y, true
}
