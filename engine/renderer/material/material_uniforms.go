package material

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
)

// UniformValue maps the material's surface values onto the built-in material uniforms. Texture
// flags are true only when the matching texture is set.
func (m *material) UniformValue(u shader.Uniform) (any, bool) {
	switch u {
	case shader.UniformColor:
		return [4]float32{m.color[0], m.color[1], m.color[2], m.alpha}, true
	case shader.UniformColorAlpha:
		return m.alpha, true
	case shader.UniformDiffuseTextureInUse:
		return m.diffuseTexture != nil, true
	case shader.UniformEmissiveColor:
		return m.emissive, true
	case shader.UniformEmissiveTextureInUse:
		return m.emissiveTexture != nil, true
	case shader.UniformMetallic:
		return m.metallic, true
	case shader.UniformRoughness:
		return m.roughness, true
	case shader.UniformMetallicRoughnessTextureInUse:
		return m.metallicRoughnessTexture != nil, true
	case shader.UniformNormalMapInUse:
		return m.normalTexture != nil, true
	case shader.UniformUseAlphaMask:
		return m.renderState.BlendFunction == BlendAlphaMask, true
	case shader.UniformAlphaMaskThreshold:
		return m.renderState.AlphaMaskThreshold, true
	}
	return nil, false
}

// BoundTextures returns the material textures by the slot they bind to. Empty slots are omitted.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - map[int]*texture.Texture: slot to texture
func BoundTextures(m Material) map[int]*texture.Texture {
	out := make(map[int]*texture.Texture, 5)
	if t := m.DiffuseTexture(); t != nil {
		out[shader.SlotDiffuse] = t
	}
	if t := m.EmissiveTexture(); t != nil {
		out[shader.SlotEmissive] = t
	}
	if t := m.MetallicRoughnessTexture(); t != nil {
		out[shader.SlotMetallicRoughness] = t
	}
	if t := m.NormalTexture(); t != nil {
		out[shader.SlotNormalMap] = t
	}
	if c := m.CubeMap(); c != nil {
		out[shader.SlotCubeMap] = &c.Texture
	}
	return out
}
