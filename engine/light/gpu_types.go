package light

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
)

// ToLightEntry converts a Light into the entry the lighting shaders read. Shadow fields are only
// filled when the light casts shadows, its shadow camera is ready and it holds an atlas region;
// otherwise the light is shaded unshadowed.
//
// Parameters:
//   - l: the Light to convert
//   - atlasSize: width and height in texels of one shadow atlas layer
//
// Returns:
//   - shader.LightEntry: the shader-side representation
func ToLightEntry(l Light, atlasSize int) shader.LightEntry {
	e := shader.LightEntry{
		Color:     l.Color(),
		Intensity: l.Intensity(),
		Position:  l.Position(),
		Radius:    l.Radius(),
		Direction: l.Direction(),
		OuterCos:  l.OuterCone(),
		InnerCos:  l.InnerCone(),
	}
	switch l.Type() {
	case LightTypePoint:
		e.Kind = shader.LightKindPoint
	case LightTypeSpot:
		e.Kind = shader.LightKindSpot
	default:
		e.Kind = shader.LightKindDirectional
	}

	p, placed := l.AtlasPlacement()
	if !l.CastsShadows() || !l.ShadowReady() || !placed || atlasSize <= 0 {
		return e
	}
	size := float32(atlasSize)
	e.CastShadow = true
	e.ShadowBias = l.ShadowBias()
	e.ProjView = l.ShadowProjView()
	e.AtlasCoord = [2]float32{float32(p.X) / size, float32(p.Y) / size}
	e.AtlasScale = float32(p.Resolution) / size
	e.AtlasLayer = int32(p.Layer)
	e.PCFSamples = int32(l.PCFSamples())
	e.PCFRadius = l.PCFRadius()
	e.BleedReduction = l.BleedReduction()
	e.ShadowFar = l.ShadowCameraFar()
	return e
}

// ToLightData packs the enabled lights into the light list fed to UniformLightData.
// Lights beyond shader.MaxLights are dropped; callers sort by priority first.
//
// Parameters:
//   - lights: the lights to pack, in priority order
//   - atlasSize: width and height in texels of one shadow atlas layer
//
// Returns:
//   - shader.LightData: the packed light list
func ToLightData(lights []Light, atlasSize int) shader.LightData {
	var d shader.LightData
	for _, l := range lights {
		if l == nil || !l.Enabled() {
			continue
		}
		if int(d.Count) >= shader.MaxLights {
			break
		}
		d.Lights[d.Count] = ToLightEntry(l, atlasSize)
		d.Count++
	}
	return d
}
