package renderpipeline

import (
	"math"
	"sort"

	"github.com/rokups/Urho3D/common"
	"github.com/rokups/Urho3D/engine/drawable"
)

// InvalidLightIndex marks an empty vertex light slot.
const InvalidLightIndex uint32 = math.MaxUint32

// AccumulatedLight is one light admitted into a drawable's light budget,
// ordered by penalty (lower wins).
type AccumulatedLight struct {
	Penalty    float32
	LightIndex uint32
}

// LightAccumulatorContext carries the per-light constants of one
// accumulation call.
type LightAccumulatorContext struct {
	MaxPixelLights int
	Importance     drawable.LightImportance
	LightIndex     uint32
	Lights         []drawable.Light
}

// LightAccumulator keeps the lowest-penalty lights affecting one drawable,
// split into pixel and vertex light tiers, plus the spherical harmonics
// ambient term. Important lights may push the pixel tier past its budget.
type LightAccumulator struct {
	lights             []AccumulatedLight
	SH                 drawable.SphericalHarmonicsDot9
	numImportantLights int
	firstVertexLight   int
}

// Reset clears accumulated lights for a new frame.
func (a *LightAccumulator) Reset() {
	a.lights = a.lights[:0]
	a.numImportantLights = 0
	a.firstVertexLight = 0
}

// AccumulateLight inserts a light with the given penalty, keeping the list
// penalty-sorted and dropping the worst light once the combined pixel and
// vertex budget is exceeded. Important lights are forced to penalty -1 and
// grow the pixel tier.
func (a *LightAccumulator) AccumulateLight(ctx LightAccumulatorContext, penalty float32) {
	if ctx.Importance == drawable.LightImportanceImportant {
		penalty = -1
		a.numImportantLights++
	}

	entry := AccumulatedLight{Penalty: penalty, LightIndex: ctx.LightIndex}
	at := sort.Search(len(a.lights), func(i int) bool {
		return a.lights[i].Penalty > penalty
	})
	a.lights = append(a.lights, AccumulatedLight{})
	copy(a.lights[at+1:], a.lights[at:])
	a.lights[at] = entry

	a.firstVertexLight = max(ctx.MaxPixelLights, a.numImportantLights)
	maxLights := MaxVertexLights + a.firstVertexLight
	if len(a.lights) > maxLights {
		a.lights = a.lights[:maxLights]
	}
}

// PixelLights returns the pixel light tier, best first.
func (a *LightAccumulator) PixelLights() []AccumulatedLight {
	return a.lights[:min(a.firstVertexLight, len(a.lights))]
}

// VertexLights returns the vertex light tier as fixed slots; empty slots hold
// InvalidLightIndex.
func (a *LightAccumulator) VertexLights() [MaxVertexLights]uint32 {
	var vertexLights [MaxVertexLights]uint32
	for i := 0; i < MaxVertexLights; i++ {
		index := i + a.firstVertexLight
		if index < len(a.lights) {
			vertexLights[i] = a.lights[index].LightIndex
		} else {
			vertexLights[i] = InvalidLightIndex
		}
	}
	return vertexLights
}

// VertexLightsHash folds the vertex light tier into one hash for batch cache
// keys.
func (a *LightAccumulator) VertexLightsHash() uint32 {
	vertexLights := a.VertexLights()
	if vertexLights[0] == InvalidLightIndex {
		return 0
	}
	var hash uint32
	for _, index := range vertexLights {
		common.CombineHash(&hash, index)
	}
	return hash
}
