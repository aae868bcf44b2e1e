// Package render_path turns a scene into a frame. SceneRenderPath builds the frame's render jobs
// once, hands them to every pass and runs the passes in two stages: geometry and shadows first,
// then lighting, forward drawing and the post-process chain.
package render_path

import (
	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/config"
	"github.com/Carmen-Shannon/oxy-render/engine/environment"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/logger"
	"github.com/Carmen-Shannon/oxy-render/engine/pass"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-render/engine/renderjob"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/gogpu/gputypes"
)

// Params is what a SceneRenderPath draws and where.
type Params struct {
	// Scene supplies entities, environment volumes and the sky. It may be nil.
	Scene scene.Scene
	// Camera views the frame. Nil uses the scene camera.
	Camera camera.Camera
	// Lights light the frame. Nil uses the scene lights.
	Lights []light.Light
	// MainFramebuffer receives the frame. Nil makes the path draw into its own framebuffer sized
	// to the window.
	MainFramebuffer *texture.Framebuffer
	// Gfx selects the optional passes and tunes every pass.
	Gfx config.GraphicSettings
	// DefaultEnvironment lights jobs outside every volume when the scene has no ready sky.
	DefaultEnvironment environment.Volume
}

// FrameJobs are the render jobs of the last frame, split the way the passes consume them.
type FrameJobs struct {
	Deferred    []renderjob.RenderJob
	Forward     []renderjob.RenderJob
	Translucent []renderjob.RenderJob
	// Casters are the shadow casting jobs, taken before culling so off screen casters still
	// shadow what is on screen.
	Casters []renderjob.RenderJob
}

type sceneRenderPath struct {
	r      renderer.Renderer
	params Params
	pool   worker.DynamicWorkerPool

	mainTarget      *texture.RenderTarget
	mainFramebuffer *texture.Framebuffer

	gbuffer    pass.GBufferPass
	preprocess pass.ForwardPreProcessPass
	ssao       pass.SSAOPass
	shadow     pass.ShadowPass
	lighting   pass.LightingPass
	cubeMap    pass.CubeMapPass
	forward    pass.ForwardRenderPass
	bloom      pass.BloomPass
	dof        pass.DoFPass
	tonemap    pass.TonemapPass
	fxaa       pass.FXAAPass
	gamma      pass.GammaPass

	// forwardOnly draws every opaque job in the forward pass and finishes with the combined display
	// pass instead of the Tonemap, FXAA and Gamma chain.
	forwardOnly bool
	display     pass.GammaTonemapFXAAPass
	// preDepth is the pre-process depth of a forward only path. Sharing the main depth would make
	// the forward pass fail its depth test against the same surfaces.
	preDepth *texture.DepthTexture

	jobs     FrameJobs
	stageOne []pass.Pass
	stageTwo []pass.Pass
	skipped  bool
}

// SceneRenderPath draws a scene through a fixed sequence of passes.
//
// Stage one runs GBuffer, the forward pre-process, SSAO when enabled and Shadow. The shadow atlas
// is then bound for stage two: Lighting, the sky when the scene has one, Forward, and the enabled
// subset of Bloom, DoF, Tonemap, FXAA and Gamma in that order. Which passes run is decided when the
// stage lists are built; a pass never checks whether it is enabled.
type SceneRenderPath interface {
	// Params returns the current parameters.
	Params() Params

	// SetParams replaces the parameters. They take effect on the next Render.
	SetParams(p Params)

	// SetGraphicSettings replaces only the graphic settings.
	//
	// Parameters:
	//   - gfx: the new settings
	SetGraphicSettings(gfx config.GraphicSettings)

	// Render draws one frame into the main framebuffer.
	Render()

	// PreRender clears the main framebuffer, fits the camera lens, sets every pass's parameters
	// and sizes the G-buffer and pre-process targets to the main framebuffer.
	PreRender()

	// SetPassParams builds the frame's render jobs and stage lists and assigns them to the passes.
	SetPassParams()

	// PassArray returns the stage lists of the last frame.
	//
	// Returns:
	//   - stageOne: the geometry and shadow passes
	//   - stageTwo: the lighting, forward and post-process passes
	PassArray() (stageOne, stageTwo []pass.Pass)

	// Jobs returns the render jobs of the last frame.
	Jobs() FrameJobs

	// MainFramebuffer returns the framebuffer the frame is drawn into.
	MainFramebuffer() *texture.Framebuffer

	// MainTarget returns the colour attachment of the main framebuffer.
	MainTarget() *texture.RenderTarget

	// GBuffer returns the geometry pass.
	GBuffer() pass.GBufferPass

	// Shadow returns the shadow pass.
	Shadow() pass.ShadowPass
}

var _ SceneRenderPath = &sceneRenderPath{}

// NewSceneRenderPath creates a render path drawing through r with default graphic settings.
//
// Parameters:
//   - r: the renderer every pass draws through
//   - options: functional options to configure the path
//
// Returns:
//   - SceneRenderPath: the new render path
func NewSceneRenderPath(r renderer.Renderer, options ...SceneRenderPathBuilderOption) SceneRenderPath {
	p := &sceneRenderPath{
		r:          r,
		params:     Params{Gfx: config.Default()},
		gbuffer:    pass.NewGBufferPass(r),
		preprocess: pass.NewForwardPreProcessPass(r),
		ssao:       pass.NewSSAOPass(r),
		shadow:     pass.NewShadowPass(r),
		lighting:   pass.NewLightingPass(r),
		cubeMap:    pass.NewCubeMapPass(r),
		forward:    pass.NewForwardRenderPass(r),
		bloom:      pass.NewBloomPass(r),
		dof:        pass.NewDoFPass(r),
		tonemap:    pass.NewTonemapPass(r),
		fxaa:       pass.NewFXAAPass(r),
		gamma:      pass.NewGammaPass(r),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// NewForwardSceneRenderPath creates a render path that skips the G-buffer. Stage one runs the
// forward pre-process when SSAO or DoF needs it, SSAO when enabled and Shadow. Stage two runs the
// sky when the scene has one, Forward with every opaque and translucent job, the enabled subset of
// Bloom and DoF, and one combined Tonemap, FXAA and Gamma pass when any of the three is enabled.
//
// Parameters:
//   - r: the renderer every pass draws through
//   - options: functional options to configure the path
//
// Returns:
//   - SceneRenderPath: the new render path
func NewForwardSceneRenderPath(r renderer.Renderer, options ...SceneRenderPathBuilderOption) SceneRenderPath {
	p := NewSceneRenderPath(r, options...).(*sceneRenderPath)
	p.forwardOnly = true
	p.display = pass.NewGammaTonemapFXAAPass(r)
	return p
}

// needsPreProcess reports whether the forward pre-process pass runs this frame. The deferred path
// always runs it for the forward depth and normals.
func (p *sceneRenderPath) needsPreProcess() bool {
	return !p.forwardOnly || p.params.Gfx.SSAO.Enabled || p.params.Gfx.DoF.Enabled
}

func (p *sceneRenderPath) Params() Params {
	return p.params
}

func (p *sceneRenderPath) SetParams(params Params) {
	p.params = params
}

func (p *sceneRenderPath) SetGraphicSettings(gfx config.GraphicSettings) {
	p.params.Gfx = gfx
}

func (p *sceneRenderPath) PassArray() ([]pass.Pass, []pass.Pass) {
	return p.stageOne, p.stageTwo
}

func (p *sceneRenderPath) Jobs() FrameJobs {
	return p.jobs
}

func (p *sceneRenderPath) GBuffer() pass.GBufferPass {
	return p.gbuffer
}

func (p *sceneRenderPath) Shadow() pass.ShadowPass {
	return p.shadow
}

func (p *sceneRenderPath) MainFramebuffer() *texture.Framebuffer {
	if p.params.MainFramebuffer != nil {
		return p.params.MainFramebuffer
	}
	return p.mainFramebuffer
}

func (p *sceneRenderPath) MainTarget() *texture.RenderTarget {
	if fb := p.MainFramebuffer(); fb != nil {
		return fb.Attachment(texture.ColorAttachment0)
	}
	return nil
}

// camera returns the frame's camera.
func (p *sceneRenderPath) camera() camera.Camera {
	if p.params.Camera != nil {
		return p.params.Camera
	}
	if p.params.Scene != nil {
		return p.params.Scene.Camera()
	}
	return nil
}

// lights returns the frame's lights.
func (p *sceneRenderPath) lights() []light.Light {
	if p.params.Lights != nil {
		return p.params.Lights
	}
	if p.params.Scene != nil {
		return p.params.Scene.Lights()
	}
	return nil
}

// ensureMainFramebuffer keeps the path's own framebuffer at the window size. It does nothing when
// the caller supplies the main framebuffer.
func (p *sceneRenderPath) ensureMainFramebuffer() {
	if p.params.MainFramebuffer != nil {
		return
	}
	w, h := p.r.WindowSize()
	if p.mainFramebuffer == nil {
		s := texture.DefaultSettings()
		s.Format = gputypes.TextureFormatRGBA16Float
		p.mainTarget = texture.NewRenderTarget("main", w, h, s)
		p.mainFramebuffer = texture.NewFramebuffer("main")
		p.mainFramebuffer.Init(texture.FramebufferSettings{Width: w, Height: h, UseDefaultDepth: true})
		p.mainFramebuffer.SetAttachment(texture.ColorAttachment0, p.mainTarget)
		return
	}
	resized := p.mainTarget.ReconstructIfNeeded(w, h)
	if p.mainFramebuffer.ReconstructIfNeeded(w, h) || resized {
		logger.Logger().Debug("main framebuffer resized", "width", w, "height", h)
	}
}

func (p *sceneRenderPath) PreRender() {
	p.ensureMainFramebuffer()
	main := p.MainFramebuffer()
	cam := p.camera()
	p.skipped = cam == nil || main == nil
	if p.skipped {
		p.stageOne, p.stageTwo = nil, nil
		logger.Logger().Warn("render path skipped", "camera", cam != nil, "framebuffer", main != nil)
		return
	}

	p.r.SetFramebuffer(main, true, p.r.ClearColor())
	p.r.SetCameraLens(cam)
	p.SetPassParams()

	w, h := main.Width(), main.Height()
	if !p.forwardOnly {
		p.gbuffer.InitGBuffers(w, h)
	}
	if p.needsPreProcess() {
		p.preprocess.InitBuffers(w, h)
	}
}

func (p *sceneRenderPath) Render() {
	p.PreRender()
	if p.skipped {
		return
	}

	pass.RenderPasses(p.stageOne)
	if p.params.Gfx.Shadows.Enabled {
		p.r.SetShadowAtlas(p.shadow.ShadowAtlas())
	}
	pass.RenderPasses(p.stageTwo)
	p.r.SetShadowAtlas(nil)
}

// updateShadowCameras refreshes the light cameras of the frame. Point and spot cameras always
// follow their light, since spot reach tests use them. Directional lights are fitted around the
// casters only when they cast shadows with shadows enabled; one with no casters draws unshadowed
// this frame.
func (p *sceneRenderPath) updateShadowCameras(lights []light.Light, casters []renderjob.RenderJob) {
	var boxes []common.AABB
	for _, l := range light.Enabled(lights) {
		if l.Type() != light.LightTypeDirectional {
			l.UpdateShadowCamera()
			continue
		}
		if !p.params.Gfx.Shadows.Enabled || !l.CastsShadows() {
			continue
		}
		if boxes == nil {
			boxes = renderjob.BoundingBoxes(casters)
		}
		if !l.UpdateShadowFrustum(boxes) {
			logger.Logger().Debug("directional shadow skipped", "reason", "no casters")
		}
	}
}

// buildJobs creates, culls, tags and partitions the frame's render jobs.
func (p *sceneRenderPath) buildJobs(cam camera.Camera, lights []light.Light) {
	sc := p.params.Scene
	if sc == nil {
		p.jobs = FrameJobs{}
		return
	}
	sc.SyncAttachedLights()

	jobs := renderjob.CreateRenderJobs(sc.Entities(), sc.Tree())
	casters := renderjob.ShadowCasters(jobs)
	p.updateShadowCameras(lights, casters)

	if p.pool != nil {
		jobs = renderjob.CullRenderJobsParallel(p.pool, jobs, cam)
	} else {
		jobs = renderjob.CullRenderJobs(jobs, cam)
	}

	fallback := p.params.DefaultEnvironment
	if sky := sc.Sky(); sky != nil && sky.ReadyToRender() {
		fallback = sky.Environment()
	}
	renderjob.AssignEnvironment(jobs, sc.EnvironmentVolumes(), fallback)

	deferred, forward, translucent := renderjob.SeparateDeferredForward(jobs)
	if p.forwardOnly {
		forward = append(deferred, forward...)
		deferred = nil
	}
	renderjob.SortByMaterialPriority(deferred)
	renderjob.SortByMaterialPriority(forward)
	renderjob.AssignLights(forward, lights)
	renderjob.AssignLights(translucent, lights)

	p.jobs = FrameJobs{
		Deferred:    deferred,
		Forward:     forward,
		Translucent: translucent,
		Casters:     casters,
	}
}

func (p *sceneRenderPath) SetPassParams() {
	cam := p.camera()
	lights := p.lights()
	gfx := p.params.Gfx
	main := p.MainFramebuffer()
	p.buildJobs(cam, lights)

	var sky environment.Sky
	if p.params.Scene != nil {
		sky = p.params.Scene.Sky()
	}

	opaque := make([]renderjob.RenderJob, 0, len(p.jobs.Deferred)+len(p.jobs.Forward))
	opaque = append(append(opaque, p.jobs.Deferred...), p.jobs.Forward...)

	var depth *texture.DepthTexture
	switch {
	case main == nil:
	case p.forwardOnly:
		depth = p.preProcessDepth(main.Width(), main.Height())
	default:
		depth = main.DepthTexture()
	}
	p.gbuffer.SetParams(pass.GBufferParams{Camera: cam, Jobs: p.jobs.Deferred})
	p.preprocess.SetParams(pass.ForwardPreProcessParams{
		Camera:       cam,
		Jobs:         opaque,
		DepthTexture: depth,
	})

	var ao *texture.RenderTarget
	if gfx.SSAO.Enabled {
		p.ssao.SetParams(pass.SSAOParams{
			Camera:      cam,
			Normal:      p.preprocess.Normal(),
			LinearDepth: p.preprocess.LinearDepth(),
			Radius:      gfx.SSAO.Radius,
			Bias:        gfx.SSAO.Bias,
			Spread:      gfx.SSAO.Spread,
			KernelSize:  int32(gfx.SSAO.KernelSize),
			BlurAmount:  pass.DefaultSSAOBlur,
		})
		ao = p.ssao.Target()
	}
	p.shadow.SetParams(pass.ShadowParams{
		Lights:    lights,
		Casters:   p.jobs.Casters,
		AtlasSize: gfx.Shadows.AtlasSize,
	})

	p.lighting.SetParams(pass.LightingParams{
		Camera:          cam,
		Lights:          lights,
		GBuffer:         p.gbuffer,
		AO:              ao,
		MainFramebuffer: main,
	})
	p.cubeMap.SetParams(pass.CubeMapParams{Camera: cam, Sky: sky, FrameBuffer: main})
	p.forward.SetParams(pass.ForwardParams{
		Camera:      cam,
		FrameBuffer: main,
		Opaque:      p.jobs.Forward,
		Translucent: p.jobs.Translucent,
		AO:          ao,
	})

	bloom := p.bloom.Params()
	bloom.FrameBuffer = main
	bloom.IterationCount = gfx.Bloom.IterationCount
	bloom.Threshold = gfx.Bloom.Threshold
	bloom.Intensity = gfx.Bloom.Intensity
	p.bloom.SetParams(bloom)

	dof := p.dof.Params()
	dof.FrameBuffer = main
	dof.LinearDepth = p.preprocess.LinearDepth()
	dof.FocusPoint = gfx.DoF.FocusPoint
	dof.FocusScale = gfx.DoF.FocusScale
	dof.Quality = gfx.DoF.Quality
	p.dof.SetParams(dof)

	p.tonemap.SetParams(pass.TonemapParams{FrameBuffer: main, Method: gfx.Tonemap.Method})
	p.fxaa.SetParams(pass.FXAAParams{FrameBuffer: main})
	p.gamma.SetParams(pass.GammaParams{FrameBuffer: main, Gamma: gfx.Gamma.Gamma})
	if p.display != nil {
		p.display.SetParams(pass.GammaTonemapFXAAParams{
			FrameBuffer:           main,
			EnableGammaCorrection: gfx.Gamma.Enabled,
			EnableTonemapping:     gfx.Tonemap.Enabled,
			EnableFXAA:            gfx.FXAA.Enabled,
			Method:                gfx.Tonemap.Method,
			Gamma:                 gfx.Gamma.Gamma,
		})
	}

	if p.forwardOnly {
		p.buildForwardStages(sky)
		return
	}
	p.buildStages(sky)
}

// buildStages fills the stage lists from the graphic settings.
func (p *sceneRenderPath) buildStages(sky environment.Sky) {
	gfx := p.params.Gfx

	p.stageOne = append(p.stageOne[:0], p.gbuffer, p.preprocess)
	if gfx.SSAO.Enabled {
		p.stageOne = append(p.stageOne, p.ssao)
	}
	if gfx.Shadows.Enabled {
		p.stageOne = append(p.stageOne, p.shadow)
	}

	p.stageTwo = append(p.stageTwo[:0], p.lighting)
	if sky != nil {
		p.stageTwo = append(p.stageTwo, p.cubeMap)
	}
	p.stageTwo = append(p.stageTwo, p.forward)
	if gfx.Bloom.Enabled {
		p.stageTwo = append(p.stageTwo, p.bloom)
	}
	if gfx.DoF.Enabled {
		p.stageTwo = append(p.stageTwo, p.dof)
	}
	if gfx.Tonemap.Enabled {
		p.stageTwo = append(p.stageTwo, p.tonemap)
	}
	if gfx.FXAA.Enabled {
		p.stageTwo = append(p.stageTwo, p.fxaa)
	}
	if gfx.Gamma.Enabled {
		p.stageTwo = append(p.stageTwo, p.gamma)
	}
}

// preProcessDepth returns the forward only pre-process depth sized to width x height.
func (p *sceneRenderPath) preProcessDepth(width, height int) *texture.DepthTexture {
	if p.preDepth == nil {
		p.preDepth = texture.NewDepthTexture("forward_preprocess/depth", width, height, false)
		return p.preDepth
	}
	p.preDepth.ReconstructIfNeeded(width, height)
	return p.preDepth
}

// buildForwardStages fills the stage lists of a forward only path from the graphic settings.
func (p *sceneRenderPath) buildForwardStages(sky environment.Sky) {
	gfx := p.params.Gfx

	p.stageOne = p.stageOne[:0]
	if p.needsPreProcess() {
		p.stageOne = append(p.stageOne, p.preprocess)
	}
	if gfx.SSAO.Enabled {
		p.stageOne = append(p.stageOne, p.ssao)
	}
	if gfx.Shadows.Enabled {
		p.stageOne = append(p.stageOne, p.shadow)
	}

	p.stageTwo = p.stageTwo[:0]
	if sky != nil {
		p.stageTwo = append(p.stageTwo, p.cubeMap)
	}
	p.stageTwo = append(p.stageTwo, p.forward)
	if gfx.Bloom.Enabled {
		p.stageTwo = append(p.stageTwo, p.bloom)
	}
	if gfx.DoF.Enabled {
		p.stageTwo = append(p.stageTwo, p.dof)
	}
	if p.display.Enabled() {
		p.stageTwo = append(p.stageTwo, p.display)
	}
}
