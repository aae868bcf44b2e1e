// Package light holds the scene's light sources, their shadow cameras and the per-light values
// the lighting shaders read.
package light

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/chewxy/math32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun or moon. Affects all fragments
	// uniformly with no distance attenuation.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// Attenuates with distance up to its radius.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along a direction.
	// Attenuates with both distance and angle from the cone axis, controlled by inner and
	// outer cone angles.
	LightTypeSpot
)

// String returns the lower case name of the light type.
func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	}
	return "unknown"
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType  LightType
	position   [3]float32
	direction  [3]float32
	color      [3]float32
	intensity  float32
	radius     float32
	innerAngle float32 // degrees
	outerAngle float32 // degrees
	enabled    bool

	castsShadows     bool
	shadowResolution int
	pcfSamples       int
	pcfRadius        float32
	shadowBias       float32
	bleedReduction   float32

	shadowCamera   camera.Camera
	shadowProjView [16]float32
	shadowFar      float32
	shadowReady    bool
	shadowMaterial material.Material

	atlas       AtlasPlacement
	atlasPlaced bool
}

// Light defines the interface for a light source in the scene.
//
// All light types (directional, point, spot) share this interface; type-specific properties
// (e.g. cone angles for spot lights) are ignored when not applicable. Every light owns a shadow
// camera whose matrices must be refreshed with UpdateShadowCamera or UpdateShadowFrustum before
// the shadow pass of a frame runs.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Direction returns the normalized direction of the light.
	// For directional lights this is the light direction. For spot lights this
	// is the cone axis. Meaningless for point lights.
	//
	// Returns:
	//   - [3]float32: normalized direction as (x, y, z)
	Direction() [3]float32

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Radius returns the distance at which point and spot lights fall to zero.
	//
	// Returns:
	//   - float32: the radius
	Radius() float32

	// InnerAngle returns the inner cone half-angle of a spot light in degrees.
	InnerAngle() float32

	// OuterAngle returns the outer cone half-angle of a spot light in degrees.
	OuterAngle() float32

	// InnerCone returns the cosine of the inner cone half-angle.
	InnerCone() float32

	// OuterCone returns the cosine of the outer cone half-angle.
	OuterCone() float32

	// Enabled returns whether this light is active for rendering.
	// Disabled lights are skipped when the per-frame light lists are built.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// CastsShadows returns whether this light renders into the shadow atlas.
	//
	// Returns:
	//   - bool: true if the light casts shadows
	CastsShadows() bool

	// ShadowResolution returns the width and height in texels of the light's atlas region.
	ShadowResolution() int

	// PCFSamples returns the number of percentage closer filtering taps.
	PCFSamples() int

	// PCFRadius returns the filtering radius in atlas texels.
	PCFRadius() float32

	// ShadowBias returns the depth bias subtracted before the shadow comparison.
	ShadowBias() float32

	// BleedReduction returns the light bleeding cut-off in [0, 1).
	BleedReduction() float32

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetDirection sets the direction of the light and normalizes it.
	//
	// Parameters:
	//   - x, y, z: direction components (will be normalized)
	SetDirection(x, y, z float32)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - r, g, b: color components
	SetColor(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// SetRadius sets the falloff distance of point and spot lights.
	//
	// Parameters:
	//   - radius: the radius value
	SetRadius(radius float32)

	// SetSpotCone sets the inner and outer cone half-angles for spot lights.
	//
	// Parameters:
	//   - innerDeg: inner cone half-angle in degrees
	//   - outerDeg: outer cone half-angle in degrees
	SetSpotCone(innerDeg, outerDeg float32)

	// SetEnabled enables or disables the light for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetCastsShadows sets whether the light renders into the shadow atlas.
	//
	// Parameters:
	//   - castsShadows: true to enable shadow casting
	SetCastsShadows(castsShadows bool)

	// SetShadowResolution changes the atlas region size. The shadow pass repacks the atlas on
	// its next frame.
	//
	// Parameters:
	//   - resolution: region width and height in texels
	SetShadowResolution(resolution int)

	// SetPCF sets the percentage closer filtering tap count and radius.
	SetPCF(samples int, radius float32)

	// SetShadowBias sets the depth comparison bias.
	SetShadowBias(bias float32)

	// SetBleedReduction sets the light bleeding cut-off.
	SetBleedReduction(v float32)

	// ShadowCamera returns the camera the shadow pass renders this light's casters with.
	// For point lights the camera sits at the light position and the six faces are built with
	// PointFaceProjView.
	//
	// Returns:
	//   - camera.Camera: the shadow camera
	ShadowCamera() camera.Camera

	// ShadowProjView returns the cached projection-view matrix of the shadow camera.
	ShadowProjView() [16]float32

	// ShadowCameraFar returns the far distance depth values are normalized with.
	ShadowCameraFar() float32

	// ShadowReady reports whether the shadow camera holds a usable frustum for this frame.
	// It is false for a directional light whose last frustum fit saw no casters.
	ShadowReady() bool

	// ShadowMaterial returns the depth material the shadow pass overrides draws with. It is
	// built on first use: orthographic depth for directional lights, perspective depth for point
	// and spot lights.
	//
	// Returns:
	//   - material.Material: the shadow depth material
	ShadowMaterial() material.Material

	// UpdateShadowCamera moves the shadow camera of a point or spot light to the light's
	// current position, direction and radius, and refreshes the cached matrix. It does nothing
	// for directional lights, which use UpdateShadowFrustum.
	UpdateShadowCamera()

	// UpdateShadowFrustum fits the orthographic shadow camera of a directional light around
	// the union of the given caster boxes.
	//
	// Parameters:
	//   - casterBoxes: world-space bounds of every shadow caster
	//
	// Returns:
	//   - bool: false when the union is degenerate and the light should be drawn unshadowed
	UpdateShadowFrustum(casterBoxes []common.AABB) bool

	// PointFaceProjView returns the projection-view matrix of one cube face of a point light.
	//
	// Parameters:
	//   - face: index into common.CubeFaceBasis
	//
	// Returns:
	//   - [16]float32: the face matrix
	PointFaceProjView(face int) [16]float32

	// AtlasPlacement returns the region the shadow pass assigned to this light.
	//
	// Returns:
	//   - AtlasPlacement: the region
	//   - bool: false if the light has no region
	AtlasPlacement() (AtlasPlacement, bool)

	// SetAtlasPlacement records the region the shadow pass assigned to this light.
	SetAtlasPlacement(p AtlasPlacement)

	// ClearAtlasPlacement drops the atlas region.
	ClearAtlasPlacement()

	// AffectsAABB reports whether the light can reach any point of box.
	//
	// Parameters:
	//   - box: a world-space box
	//
	// Returns:
	//   - bool: true if the box is lit by this light
	AffectsAABB(box common.AABB) bool
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied. The shadow camera is positioned before it returns.
//
// Parameters:
//   - lightType: the kind of light to create (directional, point, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType:        lightType,
		direction:        [3]float32{0, -1, 0},
		color:            [3]float32{1, 1, 1},
		intensity:        1.0,
		radius:           DefaultPointRadius,
		innerAngle:       DefaultSpotInnerAngle,
		outerAngle:       DefaultSpotOuterAngle,
		enabled:          true,
		shadowResolution: DefaultShadowResolution,
		pcfSamples:       DefaultPCFSamples,
		pcfRadius:        DefaultPCFRadius,
		shadowBias:       DefaultShadowBias,
		bleedReduction:   DefaultBleedReduction,
	}
	if lightType == LightTypeSpot {
		l.radius = DefaultSpotRadius
	}
	switch lightType {
	case LightTypeDirectional:
		l.shadowCamera = camera.NewCamera(camera.WithOrthoLens(-1, 1, -1, 1, 0, 1))
	case LightTypePoint, LightTypeSpot:
		l.shadowCamera = camera.NewCamera()
	default:
		panic(fmt.Sprintf("light: unknown light type: %d", lightType))
	}
	for _, opt := range opts {
		opt(l)
	}
	l.UpdateShadowCamera()
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() [3]float32 {
	return l.position
}

func (l *lightImpl) Direction() [3]float32 {
	return l.direction
}

func (l *lightImpl) Color() [3]float32 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Radius() float32 {
	return l.radius
}

func (l *lightImpl) InnerAngle() float32 {
	return l.innerAngle
}

func (l *lightImpl) OuterAngle() float32 {
	return l.outerAngle
}

func (l *lightImpl) InnerCone() float32 {
	return cosDeg(l.innerAngle)
}

func (l *lightImpl) OuterCone() float32 {
	return cosDeg(l.outerAngle)
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) CastsShadows() bool {
	return l.castsShadows
}

func (l *lightImpl) ShadowResolution() int {
	return l.shadowResolution
}

func (l *lightImpl) PCFSamples() int {
	return l.pcfSamples
}

func (l *lightImpl) PCFRadius() float32 {
	return l.pcfRadius
}

func (l *lightImpl) ShadowBias() float32 {
	return l.shadowBias
}

func (l *lightImpl) BleedReduction() float32 {
	return l.bleedReduction
}

func (l *lightImpl) SetPosition(x, y, z float32) {
	l.position = [3]float32{x, y, z}
	l.UpdateShadowCamera()
}

func (l *lightImpl) SetDirection(x, y, z float32) {
	l.direction = normalize3(x, y, z)
	l.UpdateShadowCamera()
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.color = [3]float32{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) SetRadius(radius float32) {
	l.radius = radius
	l.UpdateShadowCamera()
}

func (l *lightImpl) SetSpotCone(innerDeg, outerDeg float32) {
	l.innerAngle = innerDeg
	l.outerAngle = math32.Max(outerDeg, innerDeg)
	l.UpdateShadowCamera()
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}

func (l *lightImpl) SetCastsShadows(castsShadows bool) {
	l.castsShadows = castsShadows
}

func (l *lightImpl) SetShadowResolution(resolution int) {
	l.shadowResolution = max(resolution, 1)
}

func (l *lightImpl) SetPCF(samples int, radius float32) {
	l.pcfSamples = max(samples, 1)
	l.pcfRadius = radius
}

func (l *lightImpl) SetShadowBias(bias float32) {
	l.shadowBias = bias
}

func (l *lightImpl) SetBleedReduction(v float32) {
	l.bleedReduction = v
}

func (l *lightImpl) ShadowCamera() camera.Camera {
	return l.shadowCamera
}

func (l *lightImpl) ShadowProjView() [16]float32 {
	return l.shadowProjView
}

func (l *lightImpl) ShadowCameraFar() float32 {
	return l.shadowFar
}

func (l *lightImpl) ShadowReady() bool {
	return l.shadowReady
}

func (l *lightImpl) AtlasPlacement() (AtlasPlacement, bool) {
	return l.atlas, l.atlasPlaced
}

func (l *lightImpl) SetAtlasPlacement(p AtlasPlacement) {
	l.atlas = p
	l.atlasPlaced = true
}

func (l *lightImpl) ClearAtlasPlacement() {
	l.atlas = AtlasPlacement{}
	l.atlasPlaced = false
}

// normalize3 returns the unit vector of (x, y, z), or straight down for a zero vector.
func normalize3(x, y, z float32) [3]float32 {
	if x == 0 && y == 0 && z == 0 {
		return [3]float32{0, -1, 0}
	}
	return common.Normalize3([3]float32{x, y, z})
}

func cosDeg(deg float32) float32 {
	return math32.Cos(common.DegToRad(deg))
}
