package render_path

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/config"
	"github.com/Carmen-Shannon/oxy-render/engine/entity"
	"github.com/Carmen-Shannon/oxy-render/engine/environment"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/pass"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/soft_backend"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-render/engine/renderjob"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSoftRenderer(t *testing.T, w, h int) renderer.Renderer {
	t.Helper()
	dev := soft_backend.NewDevice(soft_backend.WithWindowSize(w, h))
	r, err := renderer.NewRenderer(dev, renderer.WithWindowSize(w, h))
	require.NoError(t, err)
	return r
}

func testSettings() config.GraphicSettings {
	gfx := config.Default()
	gfx.Shadows.AtlasSize = 256
	return gfx
}

// cubeAndQuad builds a lit scene: a white deferred cube 3 units ahead of the camera and a blue
// half transparent quad behind it.
func cubeAndQuad() (scene.Scene, light.Light) {
	cam := camera.NewCamera(camera.WithLens(common.DegToRad(90), 1, 0.1, 100))
	sun := light.NewLight(light.LightTypeDirectional,
		light.WithDirection(0, 0, -1), light.WithCastsShadows(false))

	rs := material.DefaultRenderState()
	rs.BlendFunction = material.BlendAlpha
	rs.CullMode = gputypes.CullModeNone
	glass := material.NewMaterial(
		material.WithName("glass"),
		material.WithType(material.MaterialTypeUnlit),
		material.WithColor([3]float32{0, 0, 1}),
		material.WithAlpha(0.5),
		material.WithRenderState(rs),
	)

	cube := entity.NewEntity(entity.WithName("cube"), entity.WithMesh(model.NewCube(1)), entity.WithPosition(0, 0, -3))
	quad := entity.NewEntity(entity.WithName("quad"), entity.WithMesh(model.NewQuad(6, 6)),
		entity.WithMaterial(glass), entity.WithPosition(0, 0, -8))
	return scene.NewScene("e2e", cam, scene.WithEntities(cube, quad), scene.WithLights(sun)), sun
}

func TestStagesFollowGraphicSettings(t *testing.T) {
	r := newSoftRenderer(t, 16, 16)
	s, _ := cubeAndQuad()
	rp := NewSceneRenderPath(r, WithScene(s), WithGraphicSettings(testSettings()))
	impl := rp.(*sceneRenderPath)

	rp.PreRender()
	one, two := rp.PassArray()
	assert.Equal(t, []pass.Pass{impl.gbuffer, impl.preprocess, impl.shadow}, one)
	assert.Equal(t, []pass.Pass{impl.lighting, impl.forward, impl.tonemap, impl.gamma}, two)

	gfx := testSettings()
	gfx.SSAO.Enabled = true
	gfx.Bloom.Enabled = true
	gfx.DoF.Enabled = true
	gfx.FXAA.Enabled = true
	rp.SetGraphicSettings(gfx)
	s.SetSky(environment.NewSky())

	rp.PreRender()
	one, two = rp.PassArray()
	assert.Equal(t, []pass.Pass{impl.gbuffer, impl.preprocess, impl.ssao, impl.shadow}, one)
	assert.Equal(t, []pass.Pass{
		impl.lighting, impl.cubeMap, impl.forward,
		impl.bloom, impl.dof, impl.tonemap, impl.fxaa, impl.gamma,
	}, two)
}

func TestSetPassParamsPartitionsJobs(t *testing.T) {
	r := newSoftRenderer(t, 16, 16)
	s, sun := cubeAndQuad()
	behind := entity.NewEntity(entity.WithName("behind"), entity.WithMesh(model.NewCube(1)), entity.WithPosition(0, 0, 10))
	s.AddEntity(behind)

	rp := NewSceneRenderPath(r, WithScene(s), WithGraphicSettings(testSettings()))
	rp.PreRender()

	jobs := rp.Jobs()
	require.Len(t, jobs.Deferred, 1)
	assert.Equal(t, "cube", jobs.Deferred[0].Entity.Name())
	assert.Empty(t, jobs.Forward)
	require.Len(t, jobs.Translucent, 1)
	assert.Equal(t, []light.Light{sun}, jobs.Translucent[0].Lights)
	assert.Len(t, jobs.Casters, 3, "casters are taken before culling")

	assert.Equal(t, jobs.Deferred, rp.GBuffer().Params().Jobs)
}

func TestParallelCullingMatchesSerial(t *testing.T) {
	r := newSoftRenderer(t, 16, 16)
	s, _ := cubeAndQuad()
	for i := range 2 * renderjob.ParallelChunkSize {
		x := float32(i%30) - 15
		z := -float32(i%50) - 1
		s.AddEntity(entity.NewEntity(entity.WithMesh(model.NewCube(0.5)), entity.WithPosition(x, 0, z)))
	}

	serial := NewSceneRenderPath(r, WithScene(s), WithGraphicSettings(testSettings()))
	serial.PreRender()

	pool := worker.NewDynamicWorkerPool(4, 64, time.Second)
	defer pool.Stop()
	parallel := NewSceneRenderPath(r, WithScene(s), WithGraphicSettings(testSettings()), WithWorkerPool(pool))
	parallel.PreRender()

	assert.Equal(t, len(serial.Jobs().Deferred), len(parallel.Jobs().Deferred))
	assert.Equal(t, len(serial.Jobs().Translucent), len(parallel.Jobs().Translucent))
}

func TestRenderCompositesForwardOverDeferred(t *testing.T) {
	r := newSoftRenderer(t, 64, 64)
	s, _ := cubeAndQuad()
	rp := NewSceneRenderPath(r, WithScene(s), WithGraphicSettings(testSettings()))

	rp.Render()
	img, err := r.Snapshot(rp.MainTarget(), 0, 0)
	require.NoError(t, err)

	centre := img.RGBAAt(32, 32)
	assert.Greater(t, centre.R, uint8(0), "the cube is lit")
	assert.InDelta(t, int(centre.R), int(centre.B), 2, "the quad behind the cube does not tint it")

	glass := img.RGBAAt(42, 32)
	assert.Equal(t, uint8(0), glass.R)
	assert.Greater(t, glass.B, uint8(50), "the quad blends over the background")

	corner := img.RGBAAt(1, 1)
	assert.Equal(t, uint8(0), corner.R)
	assert.Equal(t, uint8(0), corner.B)

	assert.Nil(t, r.OverrideMaterial())
}

func TestOwnMainFramebufferFollowsWindow(t *testing.T) {
	r := newSoftRenderer(t, 16, 16)
	s, _ := cubeAndQuad()
	rp := NewSceneRenderPath(r, WithScene(s), WithGraphicSettings(testSettings()))

	rp.Render()
	require.NotNil(t, rp.MainFramebuffer())
	assert.Equal(t, 16, rp.MainFramebuffer().Width())

	r.Resize(8, 4)
	rp.Render()
	assert.Equal(t, 8, rp.MainFramebuffer().Width())
	assert.Equal(t, 4, rp.MainTarget().Height)
	assert.Equal(t, 8, rp.GBuffer().GBufferFramebuffer().Width())
}

func TestRenderWithoutCameraIsSkipped(t *testing.T) {
	r := newSoftRenderer(t, 8, 8)
	rp := NewSceneRenderPath(r, WithScene(scene.NewScene("empty", nil)))

	rp.Render()
	one, two := rp.PassArray()
	assert.Nil(t, one)
	assert.Nil(t, two)
}

func TestCallerMainFramebufferAndDefaultEnvironment(t *testing.T) {
	r := newSoftRenderer(t, 16, 16)
	s, _ := cubeAndQuad()

	settings := texture.DefaultSettings()
	settings.Format = gputypes.TextureFormatRGBA16Float
	target := texture.NewRenderTarget("external", 16, 16, settings)
	fb := texture.NewFramebuffer("external")
	fb.Init(texture.FramebufferSettings{Width: 16, Height: 16, UseDefaultDepth: true})
	fb.SetAttachment(texture.ColorAttachment0, target)

	env := environment.NewVolume()
	rp := NewSceneRenderPath(r, WithScene(s), WithGraphicSettings(testSettings()),
		WithMainFramebuffer(fb), WithDefaultEnvironment(env))

	rp.Render()
	assert.Same(t, fb, rp.MainFramebuffer())
	assert.Same(t, target, rp.MainTarget())

	jobs := rp.Jobs()
	require.NotEmpty(t, jobs.Deferred)
	assert.Same(t, env, jobs.Deferred[0].EnvironmentVolume, "no volume contains the cube")
}

// forwardCube places a forward lit cube 5 units ahead of a camera at the origin.
func forwardCube() (scene.Scene, entity.Entity) {
	cam := camera.NewCamera(camera.WithLens(common.DegToRad(90), 1, 0.1, 100))
	pbr := material.NewMaterial(material.WithName("pbr"), material.WithType(material.MaterialTypePBR))
	cube := entity.NewEntity(entity.WithName("cube"), entity.WithMesh(model.NewCube(1)),
		entity.WithMaterial(pbr), entity.WithPosition(0, 0, -5))
	return scene.NewScene("spot", cam, scene.WithEntities(cube)), cube
}

func TestSpotLightReachFollowsLightPose(t *testing.T) {
	tests := []struct {
		name    string
		shadows bool
		setup   func(s scene.Scene) light.Light
		reaches bool
	}{
		{
			name:    "moved after construction without shadows",
			shadows: true,
			setup: func(s scene.Scene) light.Light {
				spot := light.NewLight(light.LightTypeSpot, light.WithCastsShadows(false), light.WithPosition(40, 40, 40))
				spot.SetPosition(0, 3, -5)
				spot.SetDirection(0, -1, 0)
				s.AddLight(spot)
				return spot
			},
			reaches: true,
		},
		{
			name:    "shadow casting with shadows disabled",
			shadows: false,
			setup: func(s scene.Scene) light.Light {
				spot := light.NewLight(light.LightTypeSpot, light.WithPosition(40, 40, 40))
				spot.SetPosition(0, 3, -5)
				spot.SetDirection(0, -1, 0)
				s.AddLight(spot)
				return spot
			},
			reaches: true,
		},
		{
			name:    "attached to an entity",
			shadows: true,
			setup: func(s scene.Scene) light.Light {
				spot := light.NewLight(light.LightTypeSpot, light.WithCastsShadows(false),
					light.WithPosition(40, 40, 40), light.WithDirection(0, -1, 0))
				s.AddEntity(entity.NewEntity(entity.WithName("lamp"), entity.WithLight(spot), entity.WithPosition(0, 3, -5)))
				return spot
			},
			reaches: true,
		},
		{
			name:    "moved out of reach",
			shadows: false,
			setup: func(s scene.Scene) light.Light {
				spot := light.NewLight(light.LightTypeSpot, light.WithPosition(0, 3, -5), light.WithDirection(0, -1, 0))
				spot.SetPosition(40, 3, -5)
				s.AddLight(spot)
				return spot
			},
			reaches: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newSoftRenderer(t, 16, 16)
			s, _ := forwardCube()
			spot := tt.setup(s)

			gfx := testSettings()
			gfx.Shadows.Enabled = tt.shadows
			rp := NewSceneRenderPath(r, WithScene(s), WithGraphicSettings(gfx))
			rp.PreRender()

			jobs := rp.Jobs()
			require.Len(t, jobs.Forward, 1)
			if tt.reaches {
				assert.Contains(t, jobs.Forward[0].Lights, spot)
			} else {
				assert.NotContains(t, jobs.Forward[0].Lights, spot)
			}
		})
	}
}

func TestForwardPathStagesFollowGraphicSettings(t *testing.T) {
	r := newSoftRenderer(t, 16, 16)
	s, _ := cubeAndQuad()
	rp := NewForwardSceneRenderPath(r, WithScene(s), WithGraphicSettings(testSettings()))
	impl := rp.(*sceneRenderPath)

	rp.PreRender()
	one, two := rp.PassArray()
	assert.Equal(t, []pass.Pass{impl.shadow}, one)
	assert.Equal(t, []pass.Pass{impl.forward, impl.display}, two)

	gfx := testSettings()
	gfx.SSAO.Enabled = true
	gfx.Bloom.Enabled = true
	gfx.DoF.Enabled = true
	rp.SetGraphicSettings(gfx)
	s.SetSky(environment.NewSky())

	rp.PreRender()
	one, two = rp.PassArray()
	assert.Equal(t, []pass.Pass{impl.preprocess, impl.ssao, impl.shadow}, one)
	assert.Equal(t, []pass.Pass{impl.cubeMap, impl.forward, impl.bloom, impl.dof, impl.display}, two)
	assert.NotSame(t, impl.preprocess.Params().DepthTexture, rp.MainFramebuffer().DepthTexture())

	gfx.Tonemap.Enabled = false
	gfx.Gamma.Enabled = false
	gfx.FXAA.Enabled = false
	rp.SetGraphicSettings(gfx)
	rp.PreRender()
	_, two = rp.PassArray()
	assert.Equal(t, []pass.Pass{impl.cubeMap, impl.forward, impl.bloom, impl.dof}, two)
}

func TestForwardPathDrawsEveryOpaqueJobForward(t *testing.T) {
	r := newSoftRenderer(t, 64, 64)
	s, sun := cubeAndQuad()
	rp := NewForwardSceneRenderPath(r, WithScene(s), WithGraphicSettings(testSettings()))

	rp.Render()
	jobs := rp.Jobs()
	assert.Empty(t, jobs.Deferred)
	require.Len(t, jobs.Forward, 1)
	assert.Equal(t, "cube", jobs.Forward[0].Entity.Name())
	assert.Equal(t, []light.Light{sun}, jobs.Forward[0].Lights)
	assert.Empty(t, rp.GBuffer().Params().Jobs)

	img, err := r.Snapshot(rp.MainTarget(), 0, 0)
	require.NoError(t, err)
	assert.Greater(t, img.RGBAAt(32, 32).R, uint8(0), "the cube is lit without the G-buffer")
	assert.Greater(t, img.RGBAAt(42, 32).B, uint8(50), "the quad blends over the background")
	assert.Equal(t, uint8(0), img.RGBAAt(1, 1).R)
}
