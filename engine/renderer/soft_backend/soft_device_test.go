package soft_backend

import (
	"image/color"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-render/engine/renderjob"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatTarget(name string, w, h int) (*texture.Framebuffer, *texture.RenderTarget) {
	s := texture.DefaultSettings()
	s.Format = gputypes.TextureFormatRGBA32Float
	rt := texture.NewRenderTarget(name, w, h, s)
	fb := texture.NewFramebuffer(name)
	fb.Init(texture.FramebufferSettings{Width: w, Height: h, UseDefaultDepth: true})
	fb.SetAttachment(texture.ColorAttachment0, rt)
	return fb, rt
}

func newSoftRenderer(t *testing.T) (renderer.Renderer, Device) {
	t.Helper()
	dev := NewDevice(WithWindowSize(16, 16))
	r, err := renderer.NewRenderer(dev, renderer.WithWindowSize(16, 16))
	require.NoError(t, err)
	return r, dev
}

func unlit(c [3]float32, opts ...material.MaterialBuilderOption) material.Material {
	opts = append([]material.MaterialBuilderOption{
		material.WithType(material.MaterialTypeUnlit),
		material.WithColor(c),
	}, opts...)
	return material.NewMaterial(opts...)
}

func quadJob(mesh *model.Mesh, mat material.Material, pos [3]float32, rot [4]float32) *renderjob.RenderJob {
	return &renderjob.RenderJob{
		Mesh:           mesh,
		Material:       mat,
		WorldTransform: common.ComposeTRS(pos, rot, [3]float32{1, 1, 1}),
		ReceiveShadow:  true,
		Visible:        true,
	}
}

var identityRot = [4]float32{0, 0, 0, 1}

func TestFullQuadShadesEveryPixelOnce(t *testing.T) {
	r, _ := newSoftRenderer(t)
	fb, rt := floatTarget("target", 7, 5)

	rs := material.DefaultRenderState()
	rs.CullMode = gputypes.CullModeNone
	rs.DepthTestEnabled = false
	rs.BlendFunction = material.BlendOneToOne
	mat := material.NewMaterial(
		material.WithType(material.MaterialTypeUnlit),
		material.WithShaders(builtin.Get(builtin.FullQuadVertex), builtin.Get(builtin.CopyFragment)),
		material.WithRenderState(rs),
	)

	src := texture.NewTexture("src", 1, 1, texture.DefaultSettings())
	src.Pixels = []float32{0.25, 0.5, 0.75, 1}

	r.SetFramebuffer(fb, true, [4]float32{})
	r.SetTexture(builtin.SlotSource, src)
	r.DrawFullQuad(mat, nil, nil)

	img, err := r.Snapshot(rt, 0, 0)
	require.NoError(t, err)
	for y := range 5 {
		for x := range 7 {
			assert.Equal(t, color.RGBA{64, 128, 191, 255}, img.RGBAAt(x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestDepthTestKeepsNearestSurface(t *testing.T) {
	near := quadJob(model.NewQuad(2, 2), unlit([3]float32{1, 0, 0}), [3]float32{0, 0, -2}, identityRot)
	far := quadJob(model.NewQuad(8, 8), unlit([3]float32{0, 1, 0}), [3]float32{0, 0, -4}, identityRot)
	cam := camera.NewCamera(camera.WithLens(common.DegToRad(90), 1, 0.1, 100))

	for _, order := range [][2]*renderjob.RenderJob{{near, far}, {far, near}} {
		r, _ := newSoftRenderer(t)
		fb, rt := floatTarget("scene", 16, 16)
		r.SetFramebuffer(fb, true, [4]float32{})
		for _, job := range order {
			r.Render(job, cam, nil)
		}
		img, err := r.Snapshot(rt, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(8, 8), "near quad wins in the centre")
		assert.Equal(t, color.RGBA{0, 255, 0, 255}, img.RGBAAt(8, 14), "only the far quad covers this pixel")
		assert.Equal(t, color.RGBA{0, 255, 0, 255}, img.RGBAAt(0, 0))
	}
}

func TestBackFacesAreCulled(t *testing.T) {
	quad := model.NewQuad(2, 2)
	cam := camera.NewCamera(camera.WithLens(common.DegToRad(90), 1, 0.1, 100))
	facingAway := [4]float32{0, 1, 0, 0}

	for _, tc := range []struct {
		cull gputypes.CullMode
		want color.RGBA
	}{
		{gputypes.CullModeBack, color.RGBA{}},
		{gputypes.CullModeFront, color.RGBA{0, 0, 255, 255}},
		{gputypes.CullModeNone, color.RGBA{0, 0, 255, 255}},
	} {
		r, dev := newSoftRenderer(t)
		fb, rt := floatTarget("scene", 16, 16)
		r.SetFramebuffer(fb, true, [4]float32{})
		r.Render(quadJob(quad, unlit([3]float32{0, 0, 1}, material.WithCullMode(tc.cull)), [3]float32{0, 0, -3}, facingAway), cam, nil)

		img, err := r.Snapshot(rt, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, tc.want, img.RGBAAt(8, 8), "cull mode %v", tc.cull)
		tris, _ := dev.Counters()
		assert.Equal(t, tc.want != color.RGBA{}, tris > 0)
	}
}

func TestNearPlaneClipping(t *testing.T) {
	r, dev := newSoftRenderer(t)
	fb, rt := floatTarget("scene", 16, 16)
	cam := camera.NewCamera(camera.WithLens(common.DegToRad(90), 1, 0.1, 100))
	floor := unlit([3]float32{1, 1, 1}, material.WithCullMode(gputypes.CullModeNone))

	r.SetFramebuffer(fb, true, [4]float32{})
	r.Render(quadJob(model.NewPlane(100, 100), floor, [3]float32{0, -1, 0}, identityRot), cam, nil)

	img, err := r.Snapshot(rt, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(8, 14), "the floor fills the lower rows")
	assert.Equal(t, color.RGBA{}, img.RGBAAt(8, 2), "nothing above the horizon")
	_, frags := dev.Counters()
	assert.Positive(t, frags)

	r.EndFrame()
	assert.Equal(t, 1, dev.Frames())
	tris, frags := dev.Counters()
	assert.Zero(t, tris+frags)
}

func TestTextureSampling(t *testing.T) {
	s := texture.DefaultSettings()
	tex := newSoftTexture(s, 2, 1)
	copy(tex.data, []float32{0, 0, 0, 1, 1, 1, 1, 1})

	assert.InDelta(t, 0.5, tex.sample([2]float32{0.5, 0.5}, 0)[0], 1e-6)
	assert.InDelta(t, 0, tex.sample([2]float32{0.25, 0.5}, 0)[0], 1e-6)
	assert.InDelta(t, 0, tex.sample([2]float32{-3, 0.5}, 0)[0], 1e-6, "clamped")

	tex.settings.MagFilter = gputypes.FilterModeNearest
	assert.Equal(t, float32(1), tex.sample([2]float32{0.74, 0.5}, 0)[0])
	tex.settings.WrapS = gputypes.AddressModeRepeat
	assert.Equal(t, float32(0), tex.sample([2]float32{1.25, 0.5}, 0)[0])
	tex.settings.WrapS = gputypes.AddressModeMirrorRepeat
	assert.Equal(t, float32(1), tex.sample([2]float32{1.25, 0.5}, 0)[0])

	assert.Equal(t, 0, wrap(-1, 4, gputypes.AddressModeClampToEdge))
	assert.Equal(t, 3, wrap(-1, 4, gputypes.AddressModeRepeat))
}

func TestSampleCubePicksFace(t *testing.T) {
	d := NewDevice().(*softDevice)
	id := d.CreateTexture(texture.NewCubeMap("sky", 1, texture.DefaultSettings()).Settings, 1, 1)
	px := make([]float32, 6*4)
	for f := range 6 {
		px[f*4] = float32(f)
	}
	d.WriteTexture(id, 1, 1, px)
	d.BindTexture(3, id)

	b := bindings{d: d, p: &softProgram{names: map[string]int32{}}}
	assert.Equal(t, float32(texture.CubeFacePosX), b.SampleCube(3, [3]float32{1, 0.1, 0})[0])
	assert.Equal(t, float32(texture.CubeFaceNegZ), b.SampleCube(3, [3]float32{0, 0, -1})[0])
	assert.Equal(t, float32(texture.CubeFacePosY), b.SampleCube(3, [3]float32{0, 2, 0.5})[0])
	assert.True(t, b.Bound(3))
	assert.False(t, b.Bound(4))
	assert.Equal(t, [4]float32{}, b.Sample(4, [2]float32{0.5, 0.5}))
}

func TestCompileRequiresKernels(t *testing.T) {
	d := NewDevice()
	vs, fs := builtin.Get(builtin.DefaultVertex), builtin.Get(builtin.UnlitFragment)
	_, _, err := d.CompileProgram(fs, fs)
	assert.Error(t, err)
	id, _, err := d.CompileProgram(vs, fs)
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, d.UniformLocation(id, "color"), d.UniformLocation(id, "color"))
	assert.Equal(t, int32(-1), d.UniformLocation(id+100, "color"))
}
