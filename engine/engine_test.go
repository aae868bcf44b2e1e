package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/config"
	"github.com/Carmen-Shannon/oxy-render/engine/entity"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/soft_backend"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSoftEngine(t *testing.T, w, h int, options ...EngineBuilderOption) (Engine, soft_backend.Device) {
	t.Helper()
	dev := soft_backend.NewDevice(soft_backend.WithWindowSize(w, h))
	r, err := renderer.NewRenderer(dev, renderer.WithWindowSize(w, h))
	require.NoError(t, err)

	gfx := config.Default()
	gfx.Shadows.AtlasSize = 256
	options = append([]EngineBuilderOption{WithRenderer(r), WithGraphicSettings(gfx), WithWorkerCount(2)}, options...)
	e := NewEngine(options...)
	t.Cleanup(e.Quit)
	return e, dev
}

func litCube() scene.Scene {
	cam := camera.NewCamera(camera.WithLens(common.DegToRad(90), 1, 0.1, 100))
	sun := light.NewLight(light.LightTypeDirectional,
		light.WithDirection(0, 0, -1), light.WithCastsShadows(false))
	cube := entity.NewEntity(entity.WithName("cube"), entity.WithMesh(model.NewCube(1)), entity.WithPosition(0, 0, -3))
	return scene.NewScene("cube", cam, scene.WithActive(true), scene.WithEntities(cube), scene.WithLights(sun))
}

func windowPixel(dev soft_backend.Device, x, y int) [4]float32 {
	w, _, px := dev.WindowPixels()
	i := (y*w + x) * 4
	return [4]float32{px[i], px[i+1], px[i+2], px[i+3]}
}

func TestNewEngineWithoutRendererOrWindowPanics(t *testing.T) {
	assert.Panics(t, func() { NewEngine() })
}

func TestRenderFramePresentsActiveScenes(t *testing.T) {
	e, dev := newSoftEngine(t, 32, 32, WithScene(0, litCube()))
	require.NotNil(t, e.RenderPath(0))

	e.RenderFrame()

	assert.Equal(t, 1, dev.Frames())
	assert.Equal(t, uint32(1), e.Renderer().FrameCount())
	assert.Greater(t, windowPixel(dev, 16, 16)[0], float32(0), "the cube reaches the window")
	assert.Equal(t, float32(0), windowPixel(dev, 0, 0)[0])
}

func TestInactiveScenesAreNotRendered(t *testing.T) {
	s := litCube()
	s.SetActive(false)
	e, dev := newSoftEngine(t, 16, 16, WithScene(0, s))

	e.RenderFrame()

	assert.Equal(t, float32(0), windowPixel(dev, 8, 8)[0])
	one, two := e.RenderPath(0).PassArray()
	assert.Nil(t, one)
	assert.Nil(t, two)
}

func TestSceneRegistry(t *testing.T) {
	e, _ := newSoftEngine(t, 8, 8)
	s := litCube()

	e.AddScene(3, s)
	assert.Equal(t, s, e.Scene(3))
	assert.NotNil(t, e.RenderPath(3))
	assert.Len(t, e.Scenes(), 1)

	e.RemoveScene(3)
	assert.Nil(t, e.Scene(3))
	assert.Nil(t, e.RenderPath(3))
	assert.Empty(t, e.Scenes())
}

func TestGraphicSettingsApplyBetweenFrames(t *testing.T) {
	e, _ := newSoftEngine(t, 16, 16, WithScene(0, litCube()))
	e.RenderFrame()
	_, two := e.RenderPath(0).PassArray()
	require.Len(t, two, 4)

	gfx := e.GraphicSettings()
	gfx.FXAA.Enabled = true
	e.SetGraphicSettings(gfx)
	assert.True(t, e.GraphicSettings().FXAA.Enabled)
	_, two = e.RenderPath(0).PassArray()
	assert.Len(t, two, 4, "settings wait for the next frame")

	e.RenderFrame()
	_, two = e.RenderPath(0).PassArray()
	assert.Len(t, two, 5)
}

func TestInvalidGraphicSettingsAreRejected(t *testing.T) {
	e, _ := newSoftEngine(t, 8, 8)
	gfx := e.GraphicSettings()
	gfx.Gamma.Gamma = 0
	e.SetGraphicSettings(gfx)
	assert.Equal(t, float32(2.2), e.GraphicSettings().Gamma.Gamma)
}

func TestSettingsFileSeedsGraphicSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphics.toml")
	require.NoError(t, os.WriteFile(path, []byte("[fxaa]\nenabled = true\n"), 0o644))

	e, _ := newSoftEngine(t, 8, 8, WithSettingsFile(path))
	assert.True(t, e.GraphicSettings().FXAA.Enabled)
}

func TestResizeAppliesBeforeNextFrame(t *testing.T) {
	s := litCube()
	e, dev := newSoftEngine(t, 16, 16, WithScene(0, s))
	impl := e.(*engine)

	impl.resize(32, 16)
	w, _ := e.Renderer().WindowSize()
	assert.Equal(t, 16, w)

	e.RenderFrame()
	w, h := e.Renderer().WindowSize()
	assert.Equal(t, 32, w)
	assert.Equal(t, 16, h)
	assert.InDelta(t, 2, s.Camera().Aspect(), 1e-6)
	assert.Equal(t, 32, e.RenderPath(0).MainFramebuffer().Width())
	dw, dh, _ := dev.WindowPixels()
	assert.Equal(t, 32, dw)
	assert.Equal(t, 16, dh)
}

func TestForwardRenderingPresentsScene(t *testing.T) {
	e, dev := newSoftEngine(t, 32, 32, WithForwardRendering(true), WithScene(0, litCube()))

	e.RenderFrame()

	one, _ := e.RenderPath(0).PassArray()
	assert.NotContains(t, one, e.RenderPath(0).GBuffer())
	assert.Empty(t, e.RenderPath(0).Jobs().Deferred)
	assert.Greater(t, windowPixel(dev, 16, 16)[0], float32(0))
}
