package material

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/gogpu/gputypes"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithType is an option builder that sets the shader family of the material.
//
// Parameters:
//   - t: the material type
//
// Returns:
//   - MaterialBuilderOption: a function that applies the type option to a material
func WithType(t MaterialType) MaterialBuilderOption {
	return func(m *material) {
		m.materialType = t
	}
}

// WithShaders is an option builder that sets the vertex and fragment shaders. Built-in material
// types only fill the shaders that are still nil at Init.
//
// Parameters:
//   - vs: the vertex shader
//   - fs: the fragment shader
//
// Returns:
//   - MaterialBuilderOption: a function that applies the shader option to a material
func WithShaders(vs, fs shader.Shader) MaterialBuilderOption {
	return func(m *material) {
		m.vertexShader, m.fragmentShader = vs, fs
	}
}

// WithColor is an option builder that sets the base colour.
//
// Parameters:
//   - c: the RGB colour
//
// Returns:
//   - MaterialBuilderOption: a function that applies the colour option to a material
func WithColor(c [3]float32) MaterialBuilderOption {
	return func(m *material) {
		m.color = c
	}
}

// WithAlpha is an option builder that sets the opacity.
//
// Parameters:
//   - a: the opacity in [0, 1]
//
// Returns:
//   - MaterialBuilderOption: a function that applies the alpha option to a material
func WithAlpha(a float32) MaterialBuilderOption {
	return func(m *material) {
		m.alpha = a
	}
}

// WithEmissive is an option builder that sets the emissive colour.
func WithEmissive(c [3]float32) MaterialBuilderOption {
	return func(m *material) {
		m.emissive = c
	}
}

// WithMetallic is an option builder that sets the metallic factor of the material.
//
// Parameters:
//   - metallic: the metallic factor (0.0 = dielectric, 1.0 = metal)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metallic option to a material
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *material) {
		m.metallic = metallic
	}
}

// WithRoughness is an option builder that sets the roughness factor of the material.
//
// Parameters:
//   - roughness: the roughness factor (0.0 = smooth, 1.0 = rough)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = roughness
	}
}

// WithDiffuseTexture is an option builder that sets the diffuse/albedo texture.
func WithDiffuseTexture(tex *texture.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.diffuseTexture = tex
	}
}

// WithEmissiveTexture is an option builder that sets the emissive texture.
func WithEmissiveTexture(tex *texture.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.emissiveTexture = tex
	}
}

// WithMetallicRoughnessTexture is an option builder that sets the metallic-roughness texture.
// Roughness is read from green and metallic from blue.
func WithMetallicRoughnessTexture(tex *texture.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.metallicRoughnessTexture = tex
	}
}

// WithNormalTexture is an option builder that sets the normal map texture.
func WithNormalTexture(tex *texture.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.normalTexture = tex
	}
}

// WithCubeMap is an option builder that sets the cube map, used by sky materials.
func WithCubeMap(c *texture.CubeMap) MaterialBuilderOption {
	return func(m *material) {
		m.cubeMap = c
	}
}

// WithRenderState is an option builder that replaces the whole render state.
//
// Parameters:
//   - rs: the render state
//
// Returns:
//   - MaterialBuilderOption: a function that applies the render state option to a material
func WithRenderState(rs RenderState) MaterialBuilderOption {
	return func(m *material) {
		m.renderState = rs
	}
}

// WithBlendFunction is an option builder that sets the blend function.
func WithBlendFunction(b BlendFunction) MaterialBuilderOption {
	return func(m *material) {
		m.renderState.BlendFunction = b
	}
}

// WithCullMode is an option builder that sets the cull mode. CullModeNone makes the material two sided.
func WithCullMode(c gputypes.CullMode) MaterialBuilderOption {
	return func(m *material) {
		m.renderState.CullMode = c
	}
}

// WithPriority is an option builder that sets the draw priority; higher values draw first.
func WithPriority(p int) MaterialBuilderOption {
	return func(m *material) {
		m.renderState.Priority = p
	}
}
