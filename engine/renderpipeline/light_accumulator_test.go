package renderpipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rokups/Urho3D/engine/drawable"
)

func TestDrawableLightPenaltyBands(t *testing.T) {
	assert.Equal(t, float32(-2),
		drawableLightPenalty(1, drawable.LightImportanceImportant, drawable.LightTypeDirectional))
	assert.Equal(t, float32(-1),
		drawableLightPenalty(1, drawable.LightImportanceImportant, drawable.LightTypePoint))
	assert.Equal(t, float32(-1),
		drawableLightPenalty(1, drawable.LightImportanceImportant, drawable.LightTypeSpot))

	// Automatic lights stay in [0, 2) no matter how weak they get.
	assert.Equal(t, float32(0.5),
		drawableLightPenalty(0.5, drawable.LightImportanceAuto, drawable.LightTypePoint))
	assert.Equal(t, float32(1.75),
		drawableLightPenalty(4, drawable.LightImportanceAuto, drawable.LightTypePoint))
	assert.Less(t,
		drawableLightPenalty(1e6, drawable.LightImportanceAuto, drawable.LightTypePoint),
		float32(2))

	// Not-important lights stay in [3, 5), behind every automatic light.
	assert.Equal(t, float32(3.5),
		drawableLightPenalty(0.5, drawable.LightImportanceNotImportant, drawable.LightTypePoint))
	assert.Equal(t, float32(4.75),
		drawableLightPenalty(4, drawable.LightImportanceNotImportant, drawable.LightTypePoint))
	assert.Less(t,
		drawableLightPenalty(1e6, drawable.LightImportanceNotImportant, drawable.LightTypePoint),
		float32(5))
	assert.GreaterOrEqual(t,
		drawableLightPenalty(0, drawable.LightImportanceNotImportant, drawable.LightTypePoint),
		float32(3))
}

func TestAccumulateLightKeepsPenaltyOrder(t *testing.T) {
	var a LightAccumulator
	ctx := LightAccumulatorContext{MaxPixelLights: 2}

	ctx.LightIndex = 0
	a.AccumulateLight(ctx, 3)
	ctx.LightIndex = 1
	a.AccumulateLight(ctx, 1)
	ctx.LightIndex = 2
	a.AccumulateLight(ctx, 2)

	pixelLights := a.PixelLights()
	assert.Equal(t, 2, len(pixelLights))
	assert.Equal(t, uint32(1), pixelLights[0].LightIndex)
	assert.Equal(t, uint32(2), pixelLights[1].LightIndex)

	vertexLights := a.VertexLights()
	assert.Equal(t, uint32(0), vertexLights[0])
	for i := 1; i < MaxVertexLights; i++ {
		assert.Equal(t, InvalidLightIndex, vertexLights[i])
	}
}

func TestAccumulateLightImportantGrowsPixelTier(t *testing.T) {
	var a LightAccumulator
	ctx := LightAccumulatorContext{MaxPixelLights: 1}

	ctx.Importance = drawable.LightImportanceImportant
	ctx.LightIndex = 10
	a.AccumulateLight(ctx, 0)
	ctx.LightIndex = 11
	a.AccumulateLight(ctx, 0)

	ctx.Importance = drawable.LightImportanceAuto
	ctx.LightIndex = 12
	a.AccumulateLight(ctx, 0.5)

	// Both important lights get pixel slots even though the budget is one.
	pixelLights := a.PixelLights()
	assert.Equal(t, 2, len(pixelLights))
	for _, light := range pixelLights {
		assert.Contains(t, []uint32{10, 11}, light.LightIndex)
	}
	assert.Equal(t, uint32(12), a.VertexLights()[0])
}

func TestAccumulateLightDropsWorstPastBudget(t *testing.T) {
	var a LightAccumulator
	ctx := LightAccumulatorContext{MaxPixelLights: 1}

	for i := 0; i < 6; i++ {
		ctx.LightIndex = uint32(i)
		a.AccumulateLight(ctx, float32(i))
	}

	// One pixel slot plus four vertex slots, the worst light is gone.
	assert.Equal(t, 1, len(a.PixelLights()))
	assert.Equal(t, uint32(0), a.PixelLights()[0].LightIndex)
	vertexLights := a.VertexLights()
	assert.Equal(t, [MaxVertexLights]uint32{1, 2, 3, 4}, vertexLights)
}

func TestVertexLightsHash(t *testing.T) {
	var empty LightAccumulator
	assert.Equal(t, uint32(0), empty.VertexLightsHash())

	fill := func(indices ...uint32) *LightAccumulator {
		var a LightAccumulator
		ctx := LightAccumulatorContext{MaxPixelLights: 0}
		for i, index := range indices {
			ctx.LightIndex = index
			a.AccumulateLight(ctx, float32(i))
		}
		return &a
	}

	a := fill(7, 8)
	b := fill(7, 8)
	c := fill(7, 9)
	assert.NotEqual(t, uint32(0), a.VertexLightsHash())
	assert.Equal(t, a.VertexLightsHash(), b.VertexLightsHash())
	assert.NotEqual(t, a.VertexLightsHash(), c.VertexLightsHash())
}

func TestAccumulatorReset(t *testing.T) {
	var a LightAccumulator
	ctx := LightAccumulatorContext{MaxPixelLights: 2, LightIndex: 1}
	a.AccumulateLight(ctx, 0)
	assert.NotEmpty(t, a.PixelLights())

	a.Reset()
	assert.Empty(t, a.PixelLights())
	assert.Equal(t, uint32(0), a.VertexLightsHash())
}
