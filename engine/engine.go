package engine

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-render/engine/config"
	"github.com/Carmen-Shannon/oxy-render/engine/logger"
	"github.com/Carmen-Shannon/oxy-render/engine/pass"
	"github.com/Carmen-Shannon/oxy-render/engine/profiler"
	"github.com/Carmen-Shannon/oxy-render/engine/render_path"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/wgpu_backend"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/Carmen-Shannon/oxy-render/engine/window"
)

// engine implements the Engine interface.
// Coordinates engine, render, and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once
	poolOnce    sync.Once
	started     bool
	cancelWatch context.CancelFunc

	window window.Window
	r      renderer.Renderer
	blit   pass.FullQuadPass
	copyFS shader.Shader

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	// scenesMu guards scenes and paths, which the render goroutine reads every frame.
	scenesMu *sync.Mutex
	scenes   map[int]scene.Scene
	paths    map[int]render_path.SceneRenderPath

	// settingsMu guards gfx and the pending settings and size. Both wait until the frame being
	// drawn ends.
	settingsMu   *sync.Mutex
	gfx          config.GraphicSettings
	pending      *config.GraphicSettings
	pendingSize  [2]int
	settingsFile string

	pool        worker.DynamicWorkerPool
	poolWorkers int
	forwardOnly bool

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point for the engine.
// It orchestrates the engine loop, render loop, and window management.
type Engine interface {
	// Window returns the underlying window, or nil when rendering headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer every scene draws through.
	Renderer() renderer.Renderer

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// Profiler returns the frame profiler.
	Profiler() *profiler.Profiler

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Use this for game logic, input processing, and animation updates.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each render frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// GraphicSettings returns the settings the next frame renders with.
	GraphicSettings() config.GraphicSettings

	// SetGraphicSettings queues new settings. They apply between frames, never during one.
	//
	// Parameters:
	//   - gfx: the new settings
	SetGraphicSettings(gfx config.GraphicSettings)

	// AddScene registers a scene at the given z-index key and creates its render path.
	// Scenes are rendered in ascending key order during the render loop.
	//
	// Parameters:
	//   - key: the z-index determining render order (lower renders first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key.
	// Returns nil if no scene exists at that key.
	//
	// Parameters:
	//   - key: the z-index of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// RenderPath returns the render path of the scene at key, or nil.
	RenderPath(key int) render_path.SceneRenderPath

	// Scenes returns a copy of all registered scenes keyed by z-index.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// RenderFrame draws one frame: every active scene through its render path in key order, each
	// composited onto the window, then the frame is submitted. A pending resize and pending
	// settings are applied first.
	RenderFrame()

	// Run starts the main engine loop (blocks until window closes).
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Without WithRenderer, a wgpu renderer is created on the window's surface; NewEngine panics when
// that fails, or when neither a renderer nor a window is given.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		scenesMu:        &sync.Mutex{},
		scenes:          make(map[int]scene.Scene),
		paths:           make(map[int]render_path.SceneRenderPath),
		settingsMu:      &sync.Mutex{},
		gfx:             config.Default(),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
		poolWorkers:     max(runtime.NumCPU()-1, 1),
	}

	for _, opt := range options {
		opt(e)
	}

	if e.r == nil {
		if e.window == nil {
			panic("engine: NewEngine requires a renderer or a window")
		}
		r, err := newWindowRenderer(e.window)
		if err != nil {
			panic(fmt.Sprintf("engine: %v", err))
		}
		e.r = r
	}
	e.blit = pass.NewFullQuadPass(e.r)
	e.copyFS = e.blit.Params().FragmentShader

	// Culling chunks are short lived, so idle workers time out after a second.
	e.pool = worker.NewDynamicWorkerPool(e.poolWorkers, 256, time.Second)

	e.scenesMu.Lock()
	for key, s := range e.scenes {
		e.paths[key] = e.newPath(s)
	}
	e.scenesMu.Unlock()

	if e.window != nil {
		e.window.SetResizeCallback(e.resize)
	}
	return e
}

// newWindowRenderer creates a wgpu device presenting to w's surface.
func newWindowRenderer(w window.Window) (renderer.Renderer, error) {
	dev, err := wgpu_backend.NewDevice(
		wgpu_backend.WithSurface(w.SurfaceDescriptor()),
		wgpu_backend.WithWindowSize(w.Width(), w.Height()),
	)
	if err != nil {
		return nil, fmt.Errorf("create wgpu device: %w", err)
	}
	r, err := renderer.NewRenderer(dev, renderer.WithWindowSize(w.Width(), w.Height()))
	if err != nil {
		dev.Release()
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	return r, nil
}

func (e *engine) newPath(s scene.Scene) render_path.SceneRenderPath {
	e.settingsMu.Lock()
	gfx := e.gfx
	e.settingsMu.Unlock()
	options := []render_path.SceneRenderPathBuilderOption{
		render_path.WithScene(s),
		render_path.WithGraphicSettings(gfx),
		render_path.WithWorkerPool(e.pool),
	}
	if e.forwardOnly {
		return render_path.NewForwardSceneRenderPath(e.r, options...)
	}
	return render_path.NewSceneRenderPath(e.r, options...)
}

// resize queues a window resize. The render goroutine applies it before the next frame.
func (e *engine) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.settingsMu.Lock()
	e.pendingSize = [2]int{width, height}
	e.settingsMu.Unlock()
}

// applyPendingResize resizes the window framebuffer and refits every scene camera. Render paths
// drawing into their own main framebuffer reconstruct it to the new size during PreRender.
func (e *engine) applyPendingResize() {
	e.settingsMu.Lock()
	size := e.pendingSize
	e.pendingSize = [2]int{}
	e.settingsMu.Unlock()
	if size[0] <= 0 || size[1] <= 0 {
		return
	}

	e.r.Resize(size[0], size[1])
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	for _, s := range e.scenes {
		if c := s.Camera(); c != nil {
			c.SetAspect(float32(size[0]) / float32(size[1]))
		}
	}
	logger.Logger().Debug("window resized", "width", size[0], "height", size[1])
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.r
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Run() {
	if e.settingsFile != "" {
		ctx, cancel := context.WithCancel(context.Background())
		e.cancelWatch = cancel
		if err := config.Watch(ctx, e.settingsFile, e.SetGraphicSettings); err != nil {
			logger.Logger().Warn("graphic settings watch disabled", "path", e.settingsFile, "error", err)
		}
	}
	e.started = true
	e.running = true
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
	e.stopPool()
	if e.window != nil {
		if err := e.window.Close(); err != nil {
			logger.Logger().Warn("window close failed", "error", err)
		}
	}
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once. When Run is active the
// worker pool is stopped by Run after the render goroutine exits.
func (e *engine) Quit() {
	e.signalQuit()
	if !e.started {
		e.stopPool()
	}
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		if e.cancelWatch != nil {
			e.cancelWatch()
		}
		close(e.quitChannel)
	})
}

// stopPool stops the culling workers once no frame can submit to them.
func (e *engine) stopPool() {
	e.poolOnce.Do(e.pool.Stop)
}

// handle launches the engine, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.Logger().Error("render goroutine recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			e.RenderFrame()

			if e.renderCallback != nil {
				e.renderCallback(dt)
			}

			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// applyPendingSettings hands queued settings to every render path.
func (e *engine) applyPendingSettings() {
	e.settingsMu.Lock()
	pending := e.pending
	e.pending = nil
	e.settingsMu.Unlock()
	if pending == nil {
		return
	}

	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	for _, p := range e.paths {
		p.SetGraphicSettings(*pending)
	}
}

// activePaths returns the render paths of the active scenes in ascending key order.
func (e *engine) activePaths() []render_path.SceneRenderPath {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()

	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]render_path.SceneRenderPath, 0, len(keys))
	for _, k := range keys {
		if e.scenes[k].Active() {
			out = append(out, e.paths[k])
		}
	}
	return out
}

func (e *engine) RenderFrame() {
	e.applyPendingResize()
	e.applyPendingSettings()

	e.r.BeginFrame()
	for i, p := range e.activePaths() {
		p.Render()
		e.present(p, i == 0)
	}
	stats := e.r.Stats()
	e.r.EndFrame()

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick(stats)
	}
}

// present composites a render path's result onto the window. The first scene replaces the window
// contents and later scenes blend over it by alpha.
func (e *engine) present(p render_path.SceneRenderPath, first bool) {
	main := p.MainTarget()
	if main == nil {
		return
	}
	blend := material.BlendAlpha
	if first {
		blend = material.BlendNone
	}
	e.r.SetTexture(builtin.SlotSource, &main.Texture)
	e.blit.SetParams(pass.FullQuadParams{
		FragmentShader:   e.copyFS,
		BlendFunction:    blend,
		ClearFrameBuffer: first,
		ClearColor:       e.r.ClearColor(),
	})
	pass.RenderSubPass(e.blit)
	e.r.SetTexture(builtin.SlotSource, nil)
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if !e.running {
		e.engineTickRate = newRate
		return
	}
	// Replace a pending update rather than block.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Second / time.Duration(fps)
}

func (e *engine) GraphicSettings() config.GraphicSettings {
	e.settingsMu.Lock()
	defer e.settingsMu.Unlock()
	if e.pending != nil {
		return *e.pending
	}
	return e.gfx
}

func (e *engine) SetGraphicSettings(gfx config.GraphicSettings) {
	if err := gfx.Validate(); err != nil {
		logger.Logger().Warn("graphic settings rejected", "error", err)
		return
	}
	e.settingsMu.Lock()
	defer e.settingsMu.Unlock()
	e.gfx = gfx
	e.pending = &gfx
}

func (e *engine) AddScene(key int, s scene.Scene) {
	p := e.newPath(s)
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	e.scenes[key] = s
	e.paths[key] = p
}

func (e *engine) RemoveScene(key int) {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	delete(e.scenes, key)
	delete(e.paths, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	return e.scenes[key]
}

func (e *engine) RenderPath(key int) render_path.SceneRenderPath {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	return e.paths[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}
