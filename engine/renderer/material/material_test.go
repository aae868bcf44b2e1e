package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRenderState(t *testing.T) {
	rs := DefaultRenderState()
	assert.Equal(t, gputypes.CullModeBack, rs.CullMode)
	assert.True(t, rs.DepthTestEnabled)
	assert.Equal(t, gputypes.CompareFunctionLess, rs.DepthFunc)
	assert.Equal(t, BlendNone, rs.BlendFunction)
	assert.Equal(t, float32(1), rs.LineWidth)
	assert.Equal(t, gputypes.PrimitiveTopologyTriangleList, rs.DrawType)
	assert.False(t, rs.IsTwoSided())
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name        string
		opts        []MaterialBuilderOption
		translucent bool
		deferred    bool
	}{
		{"deferred opaque", nil, false, true},
		{"deferred blended", []MaterialBuilderOption{WithBlendFunction(BlendAlpha)}, true, false},
		{"deferred alpha mask", []MaterialBuilderOption{WithBlendFunction(BlendAlphaMask)}, false, true},
		{"forward pbr", []MaterialBuilderOption{WithType(MaterialTypePBR)}, false, false},
		{"additive unlit", []MaterialBuilderOption{WithType(MaterialTypeUnlit), WithBlendFunction(BlendOneToOne)}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMaterial(tt.opts...)
			assert.Equal(t, tt.translucent, m.IsTranslucent())
			assert.Equal(t, tt.deferred, m.IsDeferred())
		})
	}
}

func TestInitResolvesBuiltinShaders(t *testing.T) {
	m := NewMaterial(WithType(MaterialTypeUnlit))
	require.NoError(t, m.Init())
	assert.Equal(t, builtin.DefaultVertex, m.VertexShader().Name())
	assert.Equal(t, builtin.UnlitFragment, m.FragmentShader().Name())

	vs := m.VertexShader()
	require.NoError(t, m.Init())
	assert.Same(t, vs, m.VertexShader(), "second Init keeps shaders")

	custom := NewMaterial(WithType(MaterialTypeCustom))
	assert.Error(t, custom.Init())
	assert.False(t, custom.Initialized())

	custom = NewMaterial(WithType(MaterialTypeCustom), WithShaders(builtin.Get(builtin.FullQuadVertex), builtin.Get(builtin.CopyFragment)))
	assert.NoError(t, custom.Init())
}

func TestCopyIsIndependent(t *testing.T) {
	tex := texture.NewTexture("diffuse", 2, 2, texture.DefaultSettings())
	a := NewMaterial(WithName("a"), WithColor([3]float32{1, 0, 0}), WithDiffuseTexture(tex))
	b := a.Copy()
	b.SetColor([3]float32{0, 1, 0})
	rs := b.RenderState()
	rs.BlendFunction = BlendAlpha
	b.SetRenderState(rs)

	assert.Equal(t, [3]float32{1, 0, 0}, a.Color())
	assert.False(t, a.IsTranslucent())
	assert.Same(t, tex, b.DiffuseTexture())
}

func TestCopySurfaceKeepsShaders(t *testing.T) {
	gbuf := NewMaterial(WithType(MaterialTypeCustom), WithShaders(builtin.Get(builtin.DefaultVertex), builtin.Get(builtin.GBufferFragment)))
	src := NewMaterial(WithColor([3]float32{0.2, 0.3, 0.4}), WithAlpha(0.5), WithMetallic(1), WithRoughness(0.3),
		WithCullMode(gputypes.CullModeNone))
	gbuf.CopySurface(src)

	assert.Equal(t, builtin.GBufferFragment, gbuf.FragmentShader().Name())
	assert.Equal(t, src.Color(), gbuf.Color())
	assert.Equal(t, float32(0.5), gbuf.Alpha())
	assert.Equal(t, float32(1), gbuf.Metallic())
	assert.True(t, gbuf.RenderState().IsTwoSided())
	assert.Equal(t, MaterialTypeCustom, gbuf.Type())
}

func TestUniformValues(t *testing.T) {
	tex := texture.NewTexture("mr", 1, 1, texture.DefaultSettings())
	m := NewMaterial(WithColor([3]float32{0.1, 0.2, 0.3}), WithAlpha(0.4), WithMetallicRoughnessTexture(tex),
		WithBlendFunction(BlendAlphaMask))

	v, ok := m.UniformValue(shader.UniformColor)
	require.True(t, ok)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 0.4}, v)

	v, _ = m.UniformValue(shader.UniformMetallicRoughnessTextureInUse)
	assert.Equal(t, true, v)
	v, _ = m.UniformValue(shader.UniformDiffuseTextureInUse)
	assert.Equal(t, false, v)
	v, _ = m.UniformValue(shader.UniformUseAlphaMask)
	assert.Equal(t, true, v)

	_, ok = m.UniformValue(shader.UniformModel)
	assert.False(t, ok)

	slots := BoundTextures(m)
	assert.Len(t, slots, 1)
	assert.Same(t, tex, slots[shader.SlotMetallicRoughness])
}
