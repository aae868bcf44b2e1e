// Package material pairs shaders with the surface values and textures they read, plus the render
// state a draw requests.
package material

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
)

// MaterialType selects the shader family of a material.
type MaterialType int

const (
	// MaterialTypeCustom uses the shaders given at construction.
	MaterialTypeCustom MaterialType = iota
	// MaterialTypeUnlit draws flat colour without lighting.
	MaterialTypeUnlit
	// MaterialTypePBR is lit in the forward pass.
	MaterialTypePBR
	// MaterialTypeDeferredPBR is lit through the G-buffer when opaque and in the forward pass otherwise.
	MaterialTypeDeferredPBR
)

// material is the implementation of the Material interface.
type material struct {
	name           string
	materialType   MaterialType
	vertexShader   shader.Shader
	fragmentShader shader.Shader

	color     [3]float32
	alpha     float32
	emissive  [3]float32
	metallic  float32
	roughness float32

	diffuseTexture           *texture.Texture
	emissiveTexture          *texture.Texture
	metallicRoughnessTexture *texture.Texture
	normalTexture            *texture.Texture
	cubeMap                  *texture.CubeMap

	renderState RenderState
	initialized bool
}

// Material defines the interface for a render material: the shader pair a draw runs, the
// surface values fed to the built-in uniforms, the bound textures and the requested render state.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Type retrieves the shader family of the material.
	//
	// Returns:
	//   - MaterialType: the material type
	Type() MaterialType

	// Init resolves the shaders for the material type. Custom materials must already have both
	// shaders. Calling Init again does nothing.
	//
	// Returns:
	//   - error: an error when a custom material has no shaders
	Init() error

	// Initialized reports whether Init succeeded.
	Initialized() bool

	// VertexShader retrieves the vertex shader, nil until Init for built-in types.
	VertexShader() shader.Shader

	// FragmentShader retrieves the fragment shader, nil until Init for built-in types.
	FragmentShader() shader.Shader

	// SetShaders replaces both shaders.
	//
	// Parameters:
	//   - vs: the vertex shader
	//   - fs: the fragment shader
	SetShaders(vs, fs shader.Shader)

	// Color retrieves the base colour.
	Color() [3]float32
	// SetColor sets the base colour.
	SetColor(c [3]float32)
	// Alpha retrieves the opacity.
	Alpha() float32
	// SetAlpha sets the opacity.
	SetAlpha(a float32)
	// Emissive retrieves the emissive colour.
	Emissive() [3]float32
	// SetEmissive sets the emissive colour.
	SetEmissive(c [3]float32)
	// Metallic retrieves the metallic factor.
	Metallic() float32
	// SetMetallic sets the metallic factor.
	SetMetallic(v float32)
	// Roughness retrieves the roughness factor.
	Roughness() float32
	// SetRoughness sets the roughness factor.
	SetRoughness(v float32)

	DiffuseTexture() *texture.Texture
	SetDiffuseTexture(t *texture.Texture)
	EmissiveTexture() *texture.Texture
	SetEmissiveTexture(t *texture.Texture)
	MetallicRoughnessTexture() *texture.Texture
	SetMetallicRoughnessTexture(t *texture.Texture)
	NormalTexture() *texture.Texture
	SetNormalTexture(t *texture.Texture)
	CubeMap() *texture.CubeMap
	SetCubeMap(c *texture.CubeMap)

	// RenderState retrieves a copy of the requested render state.
	RenderState() RenderState

	// SetRenderState replaces the whole render state.
	//
	// Parameters:
	//   - rs: the new render state
	SetRenderState(rs RenderState)

	// IsTranslucent reports whether the material alpha blends.
	//
	// Returns:
	//   - bool: true when the blend function is BlendAlpha
	IsTranslucent() bool

	// IsDeferred reports whether the material is drawn through the G-buffer.
	//
	// Returns:
	//   - bool: true for opaque deferred PBR materials
	IsDeferred() bool

	// CopySurface copies colour, alpha, emissive, metallic, roughness, textures and render state
	// from src. Shaders, name and type are kept.
	//
	// Parameters:
	//   - src: the material to copy from
	CopySurface(src Material)

	// UniformValue returns the value the material supplies for a built-in uniform.
	//
	// Parameters:
	//   - u: the uniform
	//
	// Returns:
	//   - any: the value
	//   - bool: false when the material does not supply u
	UniformValue(u shader.Uniform) (any, bool)

	// Copy returns an independent material sharing shaders and textures.
	//
	// Returns:
	//   - Material: the copy
	Copy() Material
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
// Defaults are an opaque white deferred PBR surface with roughness 1.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		materialType: MaterialTypeDeferredPBR,
		color:        [3]float32{1, 1, 1},
		alpha:        1,
		roughness:    1,
		renderState:  DefaultRenderState(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// NewDefaultMaterial returns the initialized material used for meshes that carry none.
func NewDefaultMaterial() Material {
	m := NewMaterial(WithName("default"))
	if err := m.Init(); err != nil {
		panic(fmt.Sprintf("material: default material init failed: %v", err))
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Type() MaterialType {
	return m.materialType
}

func (m *material) Init() error {
	if m.initialized {
		return nil
	}
	switch m.materialType {
	case MaterialTypeUnlit:
		m.fillShaders(builtin.DefaultVertex, builtin.UnlitFragment)
	case MaterialTypePBR, MaterialTypeDeferredPBR:
		m.fillShaders(builtin.DefaultVertex, builtin.ForwardFragment)
	}
	if m.vertexShader == nil || m.fragmentShader == nil {
		return fmt.Errorf("material %q: missing shaders for type %d", m.name, m.materialType)
	}
	m.initialized = true
	return nil
}

func (m *material) fillShaders(vs, fs string) {
	if m.vertexShader == nil {
		m.vertexShader = builtin.Get(vs)
	}
	if m.fragmentShader == nil {
		m.fragmentShader = builtin.Get(fs)
	}
}

func (m *material) Initialized() bool {
	return m.initialized
}

func (m *material) VertexShader() shader.Shader {
	return m.vertexShader
}

func (m *material) FragmentShader() shader.Shader {
	return m.fragmentShader
}

func (m *material) SetShaders(vs, fs shader.Shader) {
	m.vertexShader, m.fragmentShader = vs, fs
}

func (m *material) Color() [3]float32 {
	return m.color
}

func (m *material) SetColor(c [3]float32) {
	m.color = c
}

func (m *material) Alpha() float32 {
	return m.alpha
}

func (m *material) SetAlpha(a float32) {
	m.alpha = a
}

func (m *material) Emissive() [3]float32 {
	return m.emissive
}

func (m *material) SetEmissive(c [3]float32) {
	m.emissive = c
}

func (m *material) Metallic() float32 {
	return m.metallic
}

func (m *material) SetMetallic(v float32) {
	m.metallic = v
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) SetRoughness(v float32) {
	m.roughness = v
}

func (m *material) DiffuseTexture() *texture.Texture {
	return m.diffuseTexture
}

func (m *material) SetDiffuseTexture(t *texture.Texture) {
	m.diffuseTexture = t
}

func (m *material) EmissiveTexture() *texture.Texture {
	return m.emissiveTexture
}

func (m *material) SetEmissiveTexture(t *texture.Texture) {
	m.emissiveTexture = t
}

func (m *material) MetallicRoughnessTexture() *texture.Texture {
	return m.metallicRoughnessTexture
}

func (m *material) SetMetallicRoughnessTexture(t *texture.Texture) {
	m.metallicRoughnessTexture = t
}

func (m *material) NormalTexture() *texture.Texture {
	return m.normalTexture
}

func (m *material) SetNormalTexture(t *texture.Texture) {
	m.normalTexture = t
}

func (m *material) CubeMap() *texture.CubeMap {
	return m.cubeMap
}

func (m *material) SetCubeMap(c *texture.CubeMap) {
	m.cubeMap = c
}

func (m *material) RenderState() RenderState {
	return m.renderState
}

func (m *material) SetRenderState(rs RenderState) {
	m.renderState = rs
}

func (m *material) IsTranslucent() bool {
	return m.renderState.BlendFunction == BlendAlpha
}

func (m *material) IsDeferred() bool {
	return m.materialType == MaterialTypeDeferredPBR && !m.IsTranslucent()
}

func (m *material) CopySurface(src Material) {
	m.color = src.Color()
	m.alpha = src.Alpha()
	m.emissive = src.Emissive()
	m.metallic = src.Metallic()
	m.roughness = src.Roughness()
	m.diffuseTexture = src.DiffuseTexture()
	m.emissiveTexture = src.EmissiveTexture()
	m.metallicRoughnessTexture = src.MetallicRoughnessTexture()
	m.normalTexture = src.NormalTexture()
	m.cubeMap = src.CubeMap()
	m.renderState = src.RenderState()
}

func (m *material) Copy() Material {
	c := *m
	return &c
}
