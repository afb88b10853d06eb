package drawable

import (
	"github.com/rokups/Urho3D/common"
)

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithLightTransform is an option builder that sets the world-space position
// and rotation of the light.
//
// Parameters:
//   - position: the world position
//   - rotation: the rotation matrix; the light shines along local +Z
//
// Returns:
//   - LightBuilderOption: a function that applies the transform to a lightImpl
func WithLightTransform(position common.Vector3, rotation common.Matrix4) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = position
		l.rotation = rotation
	}
}

// WithLightDirection is an option builder that orients the light to shine
// along the given world-space direction.
//
// Parameters:
//   - direction: the desired light direction (normalized internally)
//
// Returns:
//   - LightBuilderOption: a function that applies the direction to a lightImpl
func WithLightDirection(direction common.Vector3) LightBuilderOption {
	return func(l *lightImpl) {
		l.rotation = common.LookRotation(direction, common.Up)
	}
}

// WithLightColor is an option builder that sets the RGB color of the light.
//
// Parameters:
//   - color: the light color
//
// Returns:
//   - LightBuilderOption: a function that applies the color to a lightImpl
func WithLightColor(color common.Color) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = color
	}
}

// WithLightIntensity is an option builder that sets the scalar intensity multiplier.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity to a lightImpl
func WithLightIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = intensity
	}
}

// WithLightRange is an option builder that sets the attenuation distance for
// point and spot lights.
//
// Parameters:
//   - lightRange: the range value
//
// Returns:
//   - LightBuilderOption: a function that applies the range to a lightImpl
func WithLightRange(lightRange float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.lightRange = lightRange
	}
}

// WithLightFov is an option builder that sets the full spot cone angle.
//
// Parameters:
//   - fov: cone angle in radians
//
// Returns:
//   - LightBuilderOption: a function that applies the cone angle to a lightImpl
func WithLightFov(fov float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.fov = fov
	}
}

// WithLightImportance is an option builder that sets the pixel slot ranking
// policy.
//
// Parameters:
//   - importance: the importance level
//
// Returns:
//   - LightBuilderOption: a function that applies the importance to a lightImpl
func WithLightImportance(importance LightImportance) LightBuilderOption {
	return func(l *lightImpl) {
		l.importance = importance
	}
}

// WithLightCastShadows is an option builder that enables shadow map rendering
// for the light.
//
// Returns:
//   - LightBuilderOption: a function that enables shadow casting
func WithLightCastShadows(castShadows bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.castShadows = castShadows
	}
}

// WithLightMasks is an option builder that sets the light's influence masks.
//
// Parameters:
//   - lightMask: scopes which drawables the light affects
//   - shadowMask: scopes which drawables cast shadows for the light
//
// Returns:
//   - LightBuilderOption: a function that applies the masks to a lightImpl
func WithLightMasks(lightMask, shadowMask uint32) LightBuilderOption {
	return func(l *lightImpl) {
		l.lightMask = lightMask
		l.shadowMask = shadowMask
	}
}

// WithLightSpecularIntensity is an option builder that sets the specular
// multiplier; 0 disables specular highlights.
//
// Returns:
//   - LightBuilderOption: a function that applies the specular intensity
func WithLightSpecularIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.specularIntensity = intensity
	}
}

// WithLightShapeTexture is an option builder that attaches a light shape
// (cookie) texture.
//
// Returns:
//   - LightBuilderOption: a function that applies the shape texture
func WithLightShapeTexture(texture any) LightBuilderOption {
	return func(l *lightImpl) {
		l.shapeTexture = texture
	}
}

// WithShadowBias is an option builder that sets the depth bias parameters.
//
// Returns:
//   - LightBuilderOption: a function that applies the bias parameters
func WithShadowBias(bias BiasParameters) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadowBias = bias
	}
}

// WithShadowCascade is an option builder that sets the directional cascade
// parameters.
//
// Returns:
//   - LightBuilderOption: a function that applies the cascade parameters
func WithShadowCascade(cascade CascadeParameters) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadowCascade = cascade
	}
}

// WithShadowFocus is an option builder that sets the shadow camera focus
// parameters.
//
// Returns:
//   - LightBuilderOption: a function that applies the focus parameters
func WithShadowFocus(focus FocusParameters) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadowFocus = focus
	}
}

// WithShadowDistances is an option builder that sets the shadow render and
// fade distances. Zero values mean unlimited and derived respectively.
//
// Parameters:
//   - shadowDistance: maximum distance shadows render at
//   - fadeDistance: distance shadows start fading at
//
// Returns:
//   - LightBuilderOption: a function that applies the distances
func WithShadowDistances(shadowDistance, fadeDistance float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadowDistance = shadowDistance
		l.shadowFadeDistance = fadeDistance
	}
}

// WithFadeDistances is an option builder that sets the light draw and fade
// distances. Zero values mean unlimited and disabled respectively.
//
// Parameters:
//   - drawDistance: maximum distance the light affects geometry at
//   - fadeDistance: distance the light starts fading at
//
// Returns:
//   - LightBuilderOption: a function that applies the distances
func WithFadeDistances(drawDistance, fadeDistance float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.drawDistance = drawDistance
		l.fadeDistance = fadeDistance
	}
}

// WithShadowIntensity is an option builder that sets the shadow darkness;
// 0 is fully dark, 1 disables the shadow visually.
//
// Returns:
//   - LightBuilderOption: a function that applies the shadow intensity
func WithShadowIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadowIntensity = intensity
	}
}

// WithShadowResolution is an option builder that sets the shadow map size
// multiplier in (0, 1].
//
// Returns:
//   - LightBuilderOption: a function that applies the resolution multiplier
func WithShadowResolution(resolution float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadowResolution = resolution
	}
}
