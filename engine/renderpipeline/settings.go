package renderpipeline

// MaterialQuality levels used for technique selection.
const (
	QualityLow    = 0
	QualityMedium = 1
	QualityHigh   = 2
	QualityMax    = 15
)

// MaxVertexLights is the per-drawable vertex light budget.
const MaxVertexLights = 4

// MaxCascadeSplits is the directional shadow cascade limit.
const MaxCascadeSplits = 4

// MaxLightSplits is the per-light shadow split limit (point lights use six
// cube faces).
const MaxLightSplits = 6

// Settings holds the tunable budgets of the pipeline. Zero values are
// replaced with defaults by NewRenderPipeline and the processor constructors.
type Settings struct {
	// MaxPixelLights is the per-drawable pixel light budget. Important
	// lights may exceed it.
	MaxPixelLights int

	// MaterialQuality selects techniques; lower quality falls back to
	// simpler technique entries.
	MaterialQuality int

	// ShadowMapPageSize is the edge length of one shadow atlas page.
	ShadowMapPageSize int

	// ShadowSplitSize is the edge length of one directional or spot shadow
	// split.
	ShadowSplitSize int

	// PointShadowSplitSize is the edge length of one point light cube face
	// split.
	PointShadowSplitSize int

	// CubeShadowMapPadding is the border padding in texels applied to point
	// light cube faces so filtering does not bleed across faces.
	CubeShadowMapPadding float32

	// EnableShadows globally toggles shadow map rendering.
	EnableShadows bool

	// PipelineStateHash folds global render state into every batch cache
	// key; bump it when output formats change.
	PipelineStateHash uint32
}

// withDefaults fills unset budgets with the stock configuration.
func (s Settings) withDefaults() Settings {
	if s.MaxPixelLights <= 0 {
		s.MaxPixelLights = 4
	}
	if s.MaterialQuality <= 0 {
		s.MaterialQuality = QualityHigh
	}
	if s.ShadowMapPageSize <= 0 {
		s.ShadowMapPageSize = 2048
	}
	if s.ShadowSplitSize <= 0 {
		s.ShadowSplitSize = 512
	}
	if s.PointShadowSplitSize <= 0 {
		s.PointShadowSplitSize = 256
	}
	if s.CubeShadowMapPadding <= 0 {
		s.CubeShadowMapPadding = 2
	}
	return s
}
