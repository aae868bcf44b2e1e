package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVertexSource = `struct Uniforms {
    projectViewModel: mat4x4<f32>,
    colorAlpha: f32,
    color: vec4<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;

@vertex
fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
    return u.projectViewModel * vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`

func TestUniformLayoutOffsets(t *testing.T) {
	layout, ok := ParseUniformLayout(testVertexSource)
	require.True(t, ok)
	require.Len(t, layout.Members, 3)

	m, ok := layout.Member("colorAlpha")
	require.True(t, ok)
	assert.Equal(t, uint64(64), m.Offset)

	m, ok = layout.Member("color")
	require.True(t, ok)
	assert.Equal(t, uint64(80), m.Offset, "vec4 aligns to 16")
	assert.Equal(t, uint64(96), layout.Size)
}

func TestUniformLayoutLightData(t *testing.T) {
	src := GPULightDataSource + GPUCameraDataSource + `
struct Uniforms {
    lightData: LightData,
    camData: CameraData,
}
`
	layout, ok := ParseUniformLayout(src)
	require.True(t, ok)

	light, ok := layout.Member("lightData")
	require.True(t, ok)
	assert.Equal(t, uint64(len((&LightData{}).Marshal())), light.Size)

	cam, ok := layout.Member("camData")
	require.True(t, ok)
	assert.Equal(t, light.Size, cam.Offset)
	assert.Equal(t, uint64(len(CameraData{}.Marshal())), cam.Size)
}

func TestTextureBindings(t *testing.T) {
	src := `
@group(1) @binding(0) var s_texture0: texture_2d<f32>;
@group(1) @binding(1) var s_sampler0: sampler;
// @group(1) @binding(2) var s_texture1: texture_2d<f32>;
@group(1) @binding(12) var s_texture6: texture_cube<f32>;
@group(1) @binding(16) var s_texture8: texture_depth_2d_array;
`
	got := ParseTextureBindings(src)
	require.Len(t, got, 3)
	assert.Equal(t, TextureBinding{Slot: 0, Name: "s_texture0", Dimension: TextureDimension2D}, got[0])
	assert.Equal(t, TextureBinding{Slot: 6, Name: "s_texture6", Dimension: TextureDimensionCube}, got[1])
	assert.Equal(t, 8, got[2].Slot)
	assert.Equal(t, TextureDimensionDepth2D, got[2].Dimension)
}

func TestNewShaderDetectsUniformsAndEntryPoint(t *testing.T) {
	s := NewShader("test_vs", ShaderTypeVertex, WithSource(testVertexSource))
	assert.Equal(t, "vs_main", s.EntryPoint())
	assert.Equal(t, []Uniform{UniformProjectModelView, UniformColor, UniformColorAlpha}, s.Uniforms())
	assert.True(t, s.UsesUniform(UniformColor))
	assert.False(t, s.UsesUniform(UniformLightData))
}

func TestShaderKeyFollowsDefines(t *testing.T) {
	s := NewShader("blur", ShaderTypeFragment, WithUniforms())
	assert.Equal(t, "blur", s.Key())

	s.SetDefine("Z_AXIS", "1")
	s.SetDefine("A_AXIS", "0")
	assert.Equal(t, "blur|A_AXIS=0|Z_AXIS=1", s.Key())

	c := s.Copy()
	c.SetDefine("Z_AXIS", "2")
	assert.Equal(t, "blur|A_AXIS=0|Z_AXIS=1", s.Key(), "copies do not share defines")
}

func TestDefinesAreInserted(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process("//@oxy:defines\nfn f() {}", map[string]string{"B": "2", "A": "1.0"})
	require.NoError(t, err)
	assert.Equal(t, "const A = 1.0;\nconst B = 2;\nfn f() {}", out)

	out, err = pp.Process("fn f() {}", map[string]string{"A": "1"})
	require.NoError(t, err)
	assert.Equal(t, "const A = 1;\nfn f() {}", out)
}

func TestIncludeExpandsChunk(t *testing.T) {
	pp := NewPreProcessor()
	pp.RegisterChunk("common", "const PI = 3.14159;")
	out, err := pp.Process("  //@oxy:include common\nfn f() {}", nil)
	require.NoError(t, err)
	assert.Equal(t, "const PI = 3.14159;\nfn f() {}", out)

	_, err = pp.Process("//@oxy:include missing", nil)
	assert.ErrorContains(t, err, `unknown include chunk "missing"`)

	_, err = pp.Process("//@oxy:include", nil)
	assert.Error(t, err)
}

func TestSetParameterTypes(t *testing.T) {
	s := NewShader("params", ShaderTypeFragment)
	s.SetParameter("b", float32(1))
	s.SetParameter("a", [3]float32{1, 2, 3})

	v, ok := s.Parameter("a")
	require.True(t, ok)
	assert.Equal(t, [3]float32{1, 2, 3}, v)
	assert.Equal(t, []string{"a", "b"}, s.ParameterNames())

	assert.Panics(t, func() { s.SetParameter("bad", 1.0) })
}

func TestCompile(t *testing.T) {
	ok := NewShader("ok", ShaderTypeVertex, WithSource(`@vertex
fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`))
	log, err := ok.Compile()
	assert.NoError(t, err)
	assert.Empty(t, log)

	broken := NewShader("broken", ShaderTypeVertex, WithSource("fn broken( {"))
	log, err = broken.Compile()
	assert.Error(t, err)
	assert.NotEmpty(t, log)

	kernelOnly := NewShader("kernel", ShaderTypeVertex)
	_, err = kernelOnly.Compile()
	assert.NoError(t, err)
}

func TestLightDataMarshal(t *testing.T) {
	var ld LightData
	ld.Count = 2
	ld.Lights[1].Intensity = 3
	buf := ld.Marshal()
	require.Len(t, buf, MaxLights*LightEntrySize+16)
	assert.Equal(t, []byte{0, 0, 0x40, 0x40}, buf[LightEntrySize+12:LightEntrySize+16])
	assert.Equal(t, []byte{2, 0, 0, 0}, buf[MaxLights*LightEntrySize:MaxLights*LightEntrySize+4])
}

func TestIncludeNestedOnce(t *testing.T) {
	pp := NewPreProcessor()
	pp.RegisterChunk("a", "//@oxy:include camera_data\nconst A = 1;")
	out, err := pp.Process("//@oxy:include a\n//@oxy:include camera_data\nfn f() {}", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "struct CameraData"))
	assert.True(t, strings.HasSuffix(out, "const A = 1;\nfn f() {}"))
}
