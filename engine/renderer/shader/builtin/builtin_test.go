package builtin

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTexture is a nearest-sampled, edge-clamped image.
type fakeTexture struct {
	w, h   int
	layers [][][4]float32
}

func solidTexture(w, h, layers int, c [4]float32) *fakeTexture {
	t := &fakeTexture{w: w, h: h}
	for range layers {
		px := make([][4]float32, w*h)
		for i := range px {
			px[i] = c
		}
		t.layers = append(t.layers, px)
	}
	return t
}

func (t *fakeTexture) at(uv [2]float32, layer int) [4]float32 {
	x := min(max(int(uv[0]*float32(t.w)), 0), t.w-1)
	y := min(max(int(uv[1]*float32(t.h)), 0), t.h-1)
	return t.layers[layer][y*t.w+x]
}

// fakeBindings serves uniforms from a map and textures by slot.
type fakeBindings struct {
	values   map[string]any
	textures map[int]*fakeTexture
}

func newFakeBindings() *fakeBindings {
	return &fakeBindings{values: map[string]any{}, textures: map[int]*fakeTexture{}}
}

func value[T any](f *fakeBindings, name string) T {
	v, _ := f.values[name].(T)
	return v
}

func (f *fakeBindings) Float(n string) float32    { return value[float32](f, n) }
func (f *fakeBindings) Int(n string) int32        { return value[int32](f, n) }
func (f *fakeBindings) Bool(n string) bool        { return value[bool](f, n) }
func (f *fakeBindings) Vec2(n string) [2]float32  { return value[[2]float32](f, n) }
func (f *fakeBindings) Vec3(n string) [3]float32  { return value[[3]float32](f, n) }
func (f *fakeBindings) Vec4(n string) [4]float32  { return value[[4]float32](f, n) }
func (f *fakeBindings) Mat4(n string) [16]float32 { return value[[16]float32](f, n) }
func (f *fakeBindings) Bound(slot int) bool       { return f.textures[slot] != nil }

func (f *fakeBindings) Value(n string) (any, bool) {
	v, ok := f.values[n]
	return v, ok
}

func (f *fakeBindings) SampleCube(int, [3]float32) [4]float32 {
	return [4]float32{}
}

func (f *fakeBindings) Sample(slot int, uv [2]float32) [4]float32 {
	return f.SampleLayer(slot, uv, 0)
}

func (f *fakeBindings) SampleLayer(slot int, uv [2]float32, layer int) [4]float32 {
	t := f.textures[slot]
	if t == nil || layer < 0 || layer >= len(t.layers) {
		return [4]float32{}
	}
	return t.at(uv, layer)
}

func (f *fakeBindings) TextureSize(slot int) (int, int) {
	if t := f.textures[slot]; t != nil {
		return t.w, t.h
	}
	return 0, 0
}

var _ shader.Bindings = &fakeBindings{}

func quadVaryings(u, v float32) *shader.Varyings {
	var in shader.Varyings
	in[shader.VaryingUV], in[shader.VaryingUV+1] = u, v
	return &in
}

func TestEveryShaderLoads(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s := Get(name)
			assert.Equal(t, name, s.Key())
			assert.NotEmpty(t, s.Source())
			assert.NotEmpty(t, s.EntryPoint())
			assert.NotContains(t, s.Source(), "//@oxy:include")
			switch s.ShaderType() {
			case shader.ShaderTypeVertex:
				assert.NotNil(t, s.VertexKernel())
			case shader.ShaderTypeFragment:
				assert.NotNil(t, s.FragmentKernel())
			}
		})
	}
}

func TestUniformsMatchWGSLMembers(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s := Get(name)
			layout, ok := s.UniformLayout()
			want := len(s.ParameterNames())
			for _, u := range s.Uniforms() {
				if u != shader.UniformIBLIrradiance {
					want++
				}
			}
			if want == 0 {
				return
			}
			require.True(t, ok, "source declares no Uniforms struct")
			for _, p := range s.ParameterNames() {
				_, ok := layout.Member(p)
				assert.True(t, ok, "parameter %q missing from WGSL", p)
			}
			for _, u := range s.Uniforms() {
				if u == shader.UniformIBLIrradiance {
					continue
				}
				_, ok := layout.Member(u.Name())
				assert.True(t, ok, "uniform %q missing from WGSL", u.Name())
			}
		})
	}
}

func TestGetReturnsIndependentInstances(t *testing.T) {
	a := Get(GammaFragment)
	b := Get(GammaFragment)
	a.SetParameter(ParamGamma, float32(1.8))
	v, _ := b.Parameter(ParamGamma)
	assert.Equal(t, float32(2.2), v)
	assert.Panics(t, func() { Get("nope") })
}

func TestTonemap(t *testing.T) {
	reinhard := Tonemap([3]float32{1, 0, 3}, TonemapReinhard)
	assert.InDeltaSlice(t, []float32{0.5, 0, 0.75}, reinhard[:], 1e-6)
	aces := Tonemap([3]float32{0, 100, -1}, TonemapACES)
	assert.InDelta(t, 0, aces[0], 1e-6)
	assert.InDelta(t, 1, aces[1], 1e-6)
	assert.InDelta(t, 0, aces[2], 1e-6)
}

func TestGammaAndCopyKernels(t *testing.T) {
	b := newFakeBindings()
	b.textures[SlotSource] = solidTexture(2, 2, 1, [4]float32{0.25, 0.25, 0.25, 0.5})
	b.values[ParamGamma] = float32(2)

	out, keep := gammaFragment(b, quadVaryings(0.5, 0.5), [2]float32{})
	require.True(t, keep)
	assert.InDeltaSlice(t, []float32{0.5, 0.5, 0.5, 0.5}, out[0][:], 1e-6)

	out, keep = copyFragment(b, quadVaryings(0.5, 0.5), [2]float32{})
	require.True(t, keep)
	assert.Equal(t, [4]float32{0.25, 0.25, 0.25, 0.5}, out[0])
}

func TestBloomDownsampleThreshold(t *testing.T) {
	b := newFakeBindings()
	b.textures[SlotSource] = solidTexture(4, 4, 1, [4]float32{0.5, 0.5, 0.5, 1})
	b.values[ParamPassIndex] = int32(0)
	b.values[ParamThreshold] = float32(1)

	out, _ := bloomDownsampleFragment(b, quadVaryings(0.5, 0.5), [2]float32{})
	assert.InDeltaSlice(t, []float32{0, 0, 0}, out[0][:3], 1e-6)

	b.values[ParamThreshold] = float32(0.25)
	out, _ = bloomDownsampleFragment(b, quadVaryings(0.5, 0.5), [2]float32{})
	assert.InDeltaSlice(t, []float32{0.25, 0.25, 0.25}, out[0][:3], 1e-6)

	b.values[ParamPassIndex] = int32(1)
	out, _ = bloomDownsampleFragment(b, quadVaryings(0.5, 0.5), [2]float32{})
	assert.InDeltaSlice(t, []float32{0.5, 0.5, 0.5}, out[0][:3], 1e-6)
}

func TestDefaultVertexIdentity(t *testing.T) {
	b := newFakeBindings()
	id := common.IdentityMat4()
	for _, n := range []string{nProjectViewModel, nModel, nInvTransModel, nView} {
		b.values[n] = id
	}
	clip, v := defaultVertex(b, shader.VertexIn{Position: [3]float32{1, 2, -3}, Normal: [3]float32{0, 2, 0}, UV: [2]float32{0.25, 0.75}})
	assert.Equal(t, [4]float32{1, 2, -3, 1}, clip)
	assert.Equal(t, [3]float32{1, 2, -3}, v.Vec3(shader.VaryingWorldPos))
	assert.Equal(t, [3]float32{0, 1, 0}, v.Vec3(shader.VaryingNormal))
	assert.Equal(t, float32(3), v[shader.VaryingViewDepth])
	assert.Equal(t, float32(-3), v[shader.VaryingNDCDepth])
}

func TestFullQuadVertexUV(t *testing.T) {
	_, v := fullQuadVertex(nil, shader.VertexIn{Position: [3]float32{-1, 1, 0}})
	assert.Equal(t, float32(0), v[shader.VaryingUV])
	assert.Equal(t, float32(0), v[shader.VaryingUV+1], "top left")

	_, v = fullQuadVertex(nil, shader.VertexIn{Position: [3]float32{1, -1, 0}})
	assert.Equal(t, float32(1), v[shader.VaryingUV])
	assert.Equal(t, float32(1), v[shader.VaryingUV+1])
}

func TestShadeLightDirectional(t *testing.T) {
	b := newFakeBindings()
	s := surface{n: [3]float32{0, 1, 0}, albedo: [3]float32{1, 1, 1}, roughness: 1}
	l := &shader.LightEntry{Kind: shader.LightKindDirectional, Direction: [3]float32{0, -1, 0}, Color: [3]float32{1, 1, 1}, Intensity: 1}
	lit := shadeLight(b, l, s, [3]float32{0, 1, 0})
	assert.Greater(t, lit[0], float32(0))

	l.Direction = [3]float32{0, 1, 0}
	assert.Equal(t, [3]float32{}, shadeLight(b, l, s, [3]float32{0, 1, 0}), "light from below")
}

func TestShadeLightPointRange(t *testing.T) {
	b := newFakeBindings()
	s := surface{n: [3]float32{0, 1, 0}, albedo: [3]float32{1, 1, 1}, roughness: 1}
	l := &shader.LightEntry{Kind: shader.LightKindPoint, Position: [3]float32{0, 2, 0}, Radius: 3, Color: [3]float32{1, 1, 1}, Intensity: 1}
	assert.Greater(t, shadeLight(b, l, s, [3]float32{0, 1, 0})[0], float32(0))

	l.Radius = 1.5
	assert.Equal(t, [3]float32{}, shadeLight(b, l, s, [3]float32{0, 1, 0}))
}

func TestShadowFactorDirectional(t *testing.T) {
	b := newFakeBindings()
	l := &shader.LightEntry{
		Kind:       shader.LightKindDirectional,
		CastShadow: true,
		ProjView:   common.IdentityMat4(),
		AtlasScale: 1,
		PCFSamples: 1,
		ShadowBias: 0.01,
	}
	assert.Equal(t, float32(1), shadowFactor(b, l, [3]float32{0, 0, 0.5}), "no atlas bound")

	b.textures[shader.SlotShadowAtlas] = solidTexture(8, 8, 1, [4]float32{0.2, 0, 0, 1})
	assert.Equal(t, float32(0), shadowFactor(b, l, [3]float32{0, 0, 0.5}))
	assert.Equal(t, float32(1), shadowFactor(b, l, [3]float32{0, 0, 0.1}))
	assert.Equal(t, float32(1), shadowFactor(b, l, [3]float32{2, 0, 0.5}), "outside the light frustum")
}

func TestPointShadowUsesFaceLayer(t *testing.T) {
	b := newFakeBindings()
	atlas := solidTexture(4, 4, 6, [4]float32{1, 0, 0, 1})
	// +Y face occluded
	for i := range atlas.layers[2] {
		atlas.layers[2][i] = [4]float32{0.1, 0, 0, 1}
	}
	b.textures[shader.SlotShadowAtlas] = atlas
	l := &shader.LightEntry{
		Kind:       shader.LightKindPoint,
		CastShadow: true,
		AtlasScale: 1,
		PCFSamples: 1,
		ShadowFar:  10,
	}
	assert.Equal(t, float32(0), shadowFactor(b, l, [3]float32{0, 5, 0}))
	assert.Equal(t, float32(1), shadowFactor(b, l, [3]float32{5, 0, 0}))
}

func TestAverageBlur(t *testing.T) {
	b := newFakeBindings()
	tex := solidTexture(3, 1, 1, [4]float32{})
	tex.layers[0][1] = [4]float32{3, 3, 3, 3}
	b.textures[SlotSource] = tex
	b.values[ParamBlurAxis] = [2]float32{1, 0}
	b.values[ParamBlurAmount] = int32(1)

	out, _ := averageBlurFragment(b, quadVaryings(0.5, 0.5), [2]float32{})
	assert.InDeltaSlice(t, []float32{1, 1, 1, 1}, out[0][:], 1e-6)
}

// runKernel draws k over every pixel of src and returns the image it produced.
func runKernel(b *fakeBindings, src *fakeTexture, k shader.FragmentKernel) *fakeTexture {
	b.textures[SlotSource] = src
	out := &fakeTexture{w: src.w, h: src.h, layers: [][][4]float32{make([][4]float32, src.w*src.h)}}
	for y := range src.h {
		for x := range src.w {
			in := quadVaryings((float32(x)+0.5)/float32(src.w), (float32(y)+0.5)/float32(src.h))
			o, _ := k(b, in, [2]float32{})
			out.layers[0][y*src.w+x] = o[0]
		}
	}
	return out
}

func diagonalEdge(w, h int) *fakeTexture {
	t := &fakeTexture{w: w, h: h, layers: [][][4]float32{make([][4]float32, w*h)}}
	for y := range h {
		for x := range w {
			c := [4]float32{0.1, 0.2, 0.05, 1}
			if x > y {
				c = [4]float32{4, 4, 4, 1}
			}
			t.layers[0][y*w+x] = c
		}
	}
	return t
}

func TestGammaTonemapFXAAMatchesSeparateKernels(t *testing.T) {
	src := diagonalEdge(8, 8)
	b := newFakeBindings()
	b.values[ParamScreenSize] = [2]float32{8, 8}
	b.values[ParamGamma] = float32(2.2)
	b.values[ParamTonemapMethod] = TonemapACES
	b.values[ParamEnableGammaCorrection] = true
	b.values[ParamEnableTonemapping] = true
	b.values[ParamEnableFXAA] = true

	chain := runKernel(b, runKernel(b, runKernel(b, src, tonemapFragment), fxaaFragment), gammaFragment)
	combined := runKernel(b, src, gammaTonemapFXAAFragment)

	for i := range chain.layers[0] {
		want, got := chain.layers[0][i], combined.layers[0][i]
		assert.InDeltaSlice(t, want[:], got[:], 1e-5, "pixel %d", i)
	}
}

func TestGammaTonemapFXAASteps(t *testing.T) {
	b := newFakeBindings()
	b.textures[SlotSource] = solidTexture(4, 4, 1, [4]float32{1, 1, 1, 0.5})
	b.values[ParamGamma] = float32(2)
	b.values[ParamTonemapMethod] = TonemapReinhard

	out, keep := gammaTonemapFXAAFragment(b, quadVaryings(0.5, 0.5), [2]float32{})
	require.True(t, keep)
	assert.Equal(t, [4]float32{1, 1, 1, 0.5}, out[0], "every step off copies the source")

	b.values[ParamEnableTonemapping] = true
	out, _ = gammaTonemapFXAAFragment(b, quadVaryings(0.5, 0.5), [2]float32{})
	assert.InDeltaSlice(t, []float32{0.5, 0.5, 0.5, 0.5}, out[0][:], 1e-6)

	b.values[ParamEnableGammaCorrection] = true
	b.values[ParamEnableFXAA] = true
	out, _ = gammaTonemapFXAAFragment(b, quadVaryings(0.5, 0.5), [2]float32{})
	assert.InDeltaSlice(t, []float32{0.70710677, 0.70710677, 0.70710677, 0.5}, out[0][:], 1e-5)
}
