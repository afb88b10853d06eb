package renderpipeline

import (
	"github.com/rokups/Urho3D/engine/drawable"
)

type cachedLightProcessor struct {
	processor     *LightProcessor
	lastUsedFrame uint64
}

// LightProcessorCache keeps light processors alive across frames so cascade
// and shadow state survives lights blinking in and out of the frustum.
type LightProcessorCache struct {
	index        drawable.Index
	currentFrame uint64
	processors   map[uint32]*cachedLightProcessor
}

// NewLightProcessorCache creates an empty cache bound to a spatial index.
func NewLightProcessorCache(index drawable.Index) *LightProcessorCache {
	return &LightProcessorCache{
		index:      index,
		processors: make(map[uint32]*cachedLightProcessor),
	}
}

// OnFrameBegin advances the frame counter and evicts processors whose lights
// were destroyed and that have not been used for a while.
func (c *LightProcessorCache) OnFrameBegin() {
	c.currentFrame++
	for id, cached := range c.processors {
		if c.currentFrame-cached.lastUsedFrame < NumSplitFramesToLive {
			continue
		}
		light := cached.processor.Light()
		if light.Index() == drawable.InvalidIndex || !c.index.Contains(light) {
			delete(c.processors, id)
		}
	}
}

// GetLightProcessor returns the processor for a light, creating one on first
// use and marking it used this frame.
func (c *LightProcessorCache) GetLightProcessor(light drawable.Light) *LightProcessor {
	cached, ok := c.processors[light.ID()]
	if !ok {
		cached = &cachedLightProcessor{processor: NewLightProcessor(light)}
		c.processors[light.ID()] = cached
	}
	cached.lastUsedFrame = c.currentFrame
	return cached.processor
}
