package drawable

import (
	"sync"

	"github.com/rokups/Urho3D/common"
)

// Index is the spatial index the render pipeline queries for drawables and
// zones. Queries return drawables whose bounds overlap the query volume; any
// further filtering (masks, flags) is up to the caller.
type Index interface {
	// Add registers a drawable with the index.
	Add(d Drawable)

	// Remove unregisters a drawable.
	Remove(d Drawable)

	// AddZone registers a zone with the index.
	AddZone(z Zone)

	// Drawables returns all registered drawables.
	Drawables() []Drawable

	// QueryFrustum returns drawables whose bounds overlap a frustum.
	QueryFrustum(frustum common.Frustum) []Drawable

	// QuerySphere returns drawables whose bounds overlap a sphere.
	QuerySphere(sphere common.Sphere) []Drawable

	// ZoneAt returns the highest priority zone containing a point whose zone
	// mask matches, or nil when no zone applies.
	ZoneAt(point common.Vector3, zoneMask uint32) Zone

	// Contains reports whether a drawable is currently registered.
	Contains(d Drawable) bool
}

// linearIndex is a brute-force spatial index. Queries scan all drawables,
// which is adequate for the scene sizes the unit tests and examples use; a
// tree-based index can replace it behind the same interface.
type linearIndex struct {
	mu        sync.RWMutex
	drawables []Drawable
	zones     []Zone
}

var _ Index = &linearIndex{}

// NewLinearIndex creates an empty brute-force spatial index.
func NewLinearIndex() Index {
	return &linearIndex{}
}

func (x *linearIndex) Add(d Drawable) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.drawables = append(x.drawables, d)
}

func (x *linearIndex) Remove(d Drawable) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for i, existing := range x.drawables {
		if existing == d {
			x.drawables = append(x.drawables[:i], x.drawables[i+1:]...)
			d.SetIndex(InvalidIndex)
			return
		}
	}
}

func (x *linearIndex) AddZone(z Zone) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.zones = append(x.zones, z)
}

func (x *linearIndex) Drawables() []Drawable {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]Drawable, len(x.drawables))
	copy(out, x.drawables)
	return out
}

func (x *linearIndex) QueryFrustum(frustum common.Frustum) []Drawable {
	x.mu.RLock()
	defer x.mu.RUnlock()
	var out []Drawable
	for _, d := range x.drawables {
		if frustum.IsInsideFast(d.WorldBoundingBox()) {
			out = append(out, d)
		}
	}
	return out
}

func (x *linearIndex) QuerySphere(sphere common.Sphere) []Drawable {
	x.mu.RLock()
	defer x.mu.RUnlock()
	var out []Drawable
	for _, d := range x.drawables {
		if sphere.IsInsideFast(d.WorldBoundingBox()) {
			out = append(out, d)
		}
	}
	return out
}

func (x *linearIndex) ZoneAt(point common.Vector3, zoneMask uint32) Zone {
	x.mu.RLock()
	defer x.mu.RUnlock()
	var best Zone
	for _, z := range x.zones {
		if z.ZoneMask()&zoneMask == 0 {
			continue
		}
		if !z.ContainsPoint(point) {
			continue
		}
		if best == nil || z.Priority() > best.Priority() {
			best = z
		}
	}
	return best
}

func (x *linearIndex) Contains(d Drawable) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	for _, existing := range x.drawables {
		if existing == d {
			return true
		}
	}
	return false
}
