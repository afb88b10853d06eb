package renderpipeline

import (
	"github.com/chewxy/math32"

	"github.com/rokups/Urho3D/common"
	"github.com/rokups/Urho3D/engine/camera"
	"github.com/rokups/Urho3D/engine/drawable"
)

// pointFaceDirections are the cube face axes point light splits render
// along, aligned to world axes regardless of the light rotation.
var pointFaceDirections = [MaxLightSplits]common.Vector3{
	common.Right, common.Left, common.Up, common.Down, common.Forward, common.Back,
}

// ShadowSplitProcessor manages one shadow split: a directional cascade, a
// spot light map or a point light cube face. It owns the shadow camera and
// the casters rendered into the split.
type ShadowSplitProcessor struct {
	lightProcessor *LightProcessor
	splitIndex     int

	shadowCamera camera.Camera

	// cascadeZRange is the cull camera depth sub-range covered by a
	// directional cascade; unused for other light types.
	cascadeZRange common.FloatRange

	shadowCasters       []drawable.Drawable
	shadowCasterBatches []PipelineBatch
	shadowMap           ShadowMapRegion
}

// LightProcessor returns the owning light processor.
func (s *ShadowSplitProcessor) LightProcessor() *LightProcessor {
	return s.lightProcessor
}

// ShadowCamera returns the split's shadow camera.
func (s *ShadowSplitProcessor) ShadowCamera() camera.Camera {
	return s.shadowCamera
}

// CascadeZRange returns the depth sub-range of a directional cascade.
func (s *ShadowSplitProcessor) CascadeZRange() common.FloatRange {
	return s.cascadeZRange
}

// ShadowCasters returns the casters assigned to the split.
func (s *ShadowSplitProcessor) ShadowCasters() []drawable.Drawable {
	return s.shadowCasters
}

// HasShadowCasters reports whether the split renders anything.
func (s *ShadowSplitProcessor) HasShadowCasters() bool {
	return len(s.shadowCasters) > 0
}

// ShadowMap returns the atlas region assigned to the split.
func (s *ShadowSplitProcessor) ShadowMap() ShadowMapRegion {
	return s.shadowMap
}

// ShadowBatches returns the pipeline batches built for the split's casters.
func (s *ShadowSplitProcessor) ShadowBatches() []PipelineBatch {
	return s.shadowCasterBatches
}

// getOrCreateShadowCamera lazily creates the shadow camera and resets the
// state finalization may have changed last frame.
func (s *ShadowSplitProcessor) getOrCreateShadowCamera() camera.Camera {
	if s.shadowCamera == nil {
		s.shadowCamera = camera.NewCamera()
	}
	s.shadowCamera.SetOrthographic(false)
	s.shadowCamera.SetZoom(1)
	return s.shadowCamera
}

// InitializeDirectional sets up the shadow camera for one directional
// cascade: the camera is pulled back along the light direction, fitted onto
// the visible split frustum (optionally focused onto lit geometry) and
// quantized to suppress shimmer.
func (s *ShadowSplitProcessor) InitializeDirectional(dp *DrawableProcessor,
	zRange common.FloatRange, litGeometries []drawable.Drawable) {

	light := s.lightProcessor.Light()
	cullCamera := dp.FrameInfo().Camera
	shadowCamera := s.getOrCreateShadowCamera()

	s.cascadeZRange = zRange

	extrusionDistance := min(cullCamera.Far(), light.ShadowMaxExtrusion())
	focus := light.ShadowFocus()
	sceneZRange := dp.SceneZRange()

	pos := cullCamera.Position().Sub(light.Direction().Scale(extrusionDistance))
	shadowCamera.SetTransform(pos, light.Rotation())

	splitZRange := zRange
	if focus.Focus {
		splitZRange = sceneZRange.Intersect(zRange)
	}

	splitFrustum := cullCamera.SplitFrustum(splitZRange.Min, splitZRange.Max)
	frustumVolume := common.PolyhedronFromFrustum(splitFrustum)

	// Focusing clips the frustum volume by the combined bounds of lit
	// geometry inside the split.
	if focus.Focus {
		litGeometriesBox := common.UndefinedBoundingBox()
		for _, geometry := range litGeometries {
			geometryZRange := dp.GeometryZRange(geometry.Index())
			if geometryZRange.Intersects(splitZRange) {
				litGeometriesBox = litGeometriesBox.Merge(geometry.WorldBoundingBox())
			}
		}

		if litGeometriesBox.Defined() {
			frustumVolume.ClipBox(litGeometriesBox)
			// Restore on empty volume to avoid a zero-size shadow camera.
			if frustumVolume.Empty() {
				frustumVolume = common.PolyhedronFromFrustum(splitFrustum)
			}
		}
	}

	frustumVolume = frustumVolume.Transformed(shadowCamera.View())

	var shadowBox common.BoundingBox
	if !focus.NonUniform {
		shadowBox = common.BoundingBoxFromSphere(frustumVolume.BoundingSphere())
	} else {
		shadowBox = frustumVolume.BoundingBox()
	}

	shadowCamera.SetOrthographic(true)
	shadowCamera.SetAspect(1)
	shadowCamera.SetNear(0)
	shadowCamera.SetFar(shadowBox.Max.Z)

	// The shadow map viewport is unknown here, texel snapping happens in
	// FinalizeShadow.
	s.shadowMap = ShadowMapRegion{}
	s.quantizeDirectionalCamera(focus, shadowBox)
}

// quantizeDirectionalCamera centers the shadow camera on the view-space box,
// rounds the view size to quantization steps and snaps the camera to whole
// shadow map texels when the viewport is known.
func (s *ShadowSplitProcessor) quantizeDirectionalCamera(focus drawable.FocusParameters,
	viewBox common.BoundingBox) {

	shadowCamera := s.shadowCamera
	shadowMapWidth := float32(s.shadowMap.Region.Width())

	center := common.Vector2{
		X: (viewBox.Min.X + viewBox.Max.X) * 0.5,
		Y: (viewBox.Min.Y + viewBox.Max.Y) * 0.5,
	}
	viewSize := common.Vector2{
		X: viewBox.Max.X - viewBox.Min.X,
		Y: viewBox.Max.Y - viewBox.Min.Y,
	}

	// Quantize the size to reduce swimming. Uniform unfocused cascades never
	// change size, so quantization is unnecessary there.
	if focus.NonUniform {
		viewSize.X = math32.Ceil(math32.Sqrt(viewSize.X / focus.Quantize))
		viewSize.Y = math32.Ceil(math32.Sqrt(viewSize.Y / focus.Quantize))
		viewSize.X = max(viewSize.X*viewSize.X*focus.Quantize, focus.MinView)
		viewSize.Y = max(viewSize.Y*viewSize.Y*focus.Quantize, focus.MinView)
	} else if focus.Focus {
		viewSize.X = max(viewSize.X, viewSize.Y)
		viewSize.X = math32.Ceil(math32.Sqrt(viewSize.X / focus.Quantize))
		viewSize.X = max(viewSize.X*viewSize.X*focus.Quantize, focus.MinView)
		viewSize.Y = viewSize.X
	}

	shadowCamera.SetOrthoSizeVec(viewSize)

	// Center the shadow camera on the view-space box.
	rotation := shadowCamera.Rotation()
	adjust := common.Vector3{X: center.X, Y: center.Y}
	shadowCamera.SetPosition(shadowCamera.Position().Add(rotation.MulVector(adjust)))

	// Snap to whole texels once the viewport is known. The outermost texel
	// ring is reserved for the border.
	if shadowMapWidth > 0 {
		viewPos := rotation.RotationTransposed().MulVector(shadowCamera.Position())
		invActualSize := 1.0 / (shadowMapWidth - 2)
		texelSize := common.Vector2{X: viewSize.X * invActualSize, Y: viewSize.Y * invActualSize}
		snap := common.Vector3{
			X: -math32.Mod(viewPos.X, texelSize.X),
			Y: -math32.Mod(viewPos.Y, texelSize.Y),
		}
		shadowCamera.SetPosition(shadowCamera.Position().Add(rotation.MulVector(snap)))
	}
}

// InitializeSpot sets up the shadow camera for a spot light. The camera
// matches the light cone; the near plane is a fixed fraction of the range.
func (s *ShadowSplitProcessor) InitializeSpot() {
	light := s.lightProcessor.Light()
	shadowCamera := s.getOrCreateShadowCamera()

	shadowCamera.SetTransform(light.Position(), light.Rotation())
	shadowCamera.SetNear(light.ShadowNearFarRatio() * light.Range())
	shadowCamera.SetFar(light.Range())
	shadowCamera.SetFov(light.Fov())
	shadowCamera.SetAspect(light.AspectRatio())

	s.cascadeZRange = common.UndefinedFloatRange()
	s.shadowMap = ShadowMapRegion{}
}

// InitializePointFace sets up the shadow camera for one cube face of a point
// light. Faces are axis-aligned in world space regardless of light rotation.
func (s *ShadowSplitProcessor) InitializePointFace(faceIndex int) {
	light := s.lightProcessor.Light()
	shadowCamera := s.getOrCreateShadowCamera()

	direction := pointFaceDirections[faceIndex]
	up := common.Up
	if math32.Abs(direction.Y) > 0.99 {
		up = common.Forward
	}
	shadowCamera.SetTransform(light.Position(), common.LookRotation(direction, up))
	shadowCamera.SetNear(light.ShadowNearFarRatio() * light.Range())
	shadowCamera.SetFar(light.Range())
	shadowCamera.SetFov(90 * (math32.Pi / 180))
	shadowCamera.SetAspect(1)

	s.cascadeZRange = common.UndefinedFloatRange()
	s.shadowMap = ShadowMapRegion{}
}

// ProcessShadowCasters filters the candidate casters through the drawable
// processor and stores the survivors.
func (s *ShadowSplitProcessor) ProcessShadowCasters(dp *DrawableProcessor,
	candidates []drawable.Drawable) {

	s.shadowCasters = dp.PreprocessShadowCasters(s.shadowCasters, candidates,
		s.cascadeZRange, s.lightProcessor.Light(), s.shadowCamera)
}

// Reset clears per-frame caster state.
func (s *ShadowSplitProcessor) Reset() {
	s.shadowCasters = s.shadowCasters[:0]
	s.shadowCasterBatches = s.shadowCasterBatches[:0]
}

// FinalizeShadow assigns the atlas region and finalizes the shadow camera:
// directional cascades are requantized with texel snapping against the now
// known viewport, and every camera is zoomed out to keep a filter border.
func (s *ShadowSplitProcessor) FinalizeShadow(region ShadowMapRegion, cubePadding float32) {
	s.shadowMap = region

	light := s.lightProcessor.Light()
	shadowCamera := s.shadowCamera
	shadowMapWidth := float32(region.Region.Width())

	if light.Type() == drawable.LightTypeDirectional {
		maxY := shadowCamera.OrthoSize() * 0.5
		maxX := shadowCamera.Aspect() * maxY
		shadowBox := common.BoundingBox{
			Min: common.Vector3{X: -maxX, Y: -maxY},
			Max: common.Vector3{X: maxX, Y: maxY},
		}
		s.quantizeDirectionalCamera(light.ShadowFocus(), shadowBox)
	}

	// Zoom out to keep a border ring: filtering must not sample outside the
	// viewport. Point lights keep a wider border so PCF never crosses cube
	// faces.
	if shadowCamera.Zoom() >= 1 && shadowMapWidth > 0 {
		if light.Type() != drawable.LightTypePoint {
			shadowCamera.SetZoom(shadowCamera.Zoom() * ((shadowMapWidth - 2) / shadowMapWidth))
		} else {
			scale := (shadowMapWidth - 2*cubePadding) / shadowMapWidth
			shadowCamera.SetZoom(shadowCamera.Zoom() * scale)
		}
	}
}

// CalculateShadowMatrix returns the world-to-shadow-texture matrix of the
// split, mapping world positions to texels inside the split's atlas region.
func (s *ShadowSplitProcessor) CalculateShadowMatrix() common.Matrix4 {
	if !s.shadowMap.Defined() {
		return common.Identity4()
	}

	viewport := s.shadowMap.Region
	shadowView := s.shadowCamera.View()
	shadowProj := s.shadowCamera.Projection()
	textureWidth := float32(s.shadowMap.PageSize.X)
	textureHeight := float32(s.shadowMap.PageSize.Y)

	var offset, scale common.Vector3
	offset.X = float32(viewport.Left) / textureWidth
	offset.Y = float32(viewport.Top) / textureHeight
	scale.X = 0.5 * float32(viewport.Width()) / textureWidth
	scale.Y = 0.5 * float32(viewport.Height()) / textureHeight
	scale.Z = 1

	offset.X += scale.X
	offset.Y += scale.Y
	scale.Y = -scale.Y

	texAdjust := common.Identity4()
	texAdjust.SetTranslation(offset)
	texAdjust.SetScale(scale)

	return texAdjust.Mul(shadowProj).Mul(shadowView)
}
