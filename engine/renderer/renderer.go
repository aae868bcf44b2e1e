package renderer

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/environment"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/logger"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-render/engine/renderjob"
	"github.com/gogpu/gputypes"
)

// TextureSlotCount is the number of sampler slots a program can read.
const TextureSlotCount = 20

var (
	// ErrNoDevice is returned by NewRenderer without a device.
	ErrNoDevice = errors.New("renderer: no device")
	// ErrProgramLink wraps every program compile or link failure.
	ErrProgramLink = errors.New("renderer: program link failed")
)

// materialSlots are the sampler slots a material's own textures occupy.
var materialSlots = [...]int{
	shader.SlotDiffuse,
	shader.SlotEmissive,
	shader.SlotMetallicRoughness,
	shader.SlotCubeMap,
	shader.SlotNormalMap,
}

type texEntry struct {
	id         TextureID
	generation uint64
	width      int
	height     int
	settings   texture.Settings
}

type attachState struct {
	tex   TextureID
	layer int
}

type fbEntry struct {
	id     FramebufferID
	colors [texture.MaxColorAttachments]attachState
	depth  TextureID
}

type meshEntry struct {
	id         MeshID
	generation uint64
}

type iblState struct {
	use       bool
	intensity float32
	rotation  [16]float32
	maxLod    float32
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	device Device

	programs map[string]*Program
	program  *Program

	textures     map[*texture.Texture]*texEntry
	framebuffers map[*texture.Framebuffer]*fbEntry
	meshes       map[*model.Mesh]*meshEntry
	textureSlots [TextureSlotCount]TextureID

	framebuffer    *texture.Framebuffer
	boundFB        FramebufferID
	viewport       [4]int
	windowWidth    int
	windowHeight   int
	clearColor     [4]float32
	state          material.RenderState
	material       material.Material
	overrideMat    material.Material
	camera         camera.Camera
	lightData      shader.LightData
	shadowAtlas    *texture.RenderTarget
	ibl            iblState
	exposure       float32
	modelMat       [16]float32
	view           [16]float32
	projection     [16]float32
	pvm            [16]float32
	invTransModel  [16]float32
	projectViewNoT [16]float32

	frameCount uint32
	start      time.Time
	now        func() time.Time

	stats Stats
	tasks []RenderTask

	quad         *model.Mesh
	blurMaterial material.Material
}

// Renderer defines the interface for the rendering system.
//
// The Renderer is a thin state machine in front of a Device. It caches linked programs by shader
// pair, keeps a snapshot of the fixed function state so that only changes reach the device,
// mirrors textures, framebuffers and meshes into device storage on first use, and feeds the
// built-in uniforms to every draw. Passes drive it; it never decides what to draw.
//
// A Renderer is used from the render goroutine only, except for AddRenderTask.
type Renderer interface {
	// Device returns the backend the renderer drives.
	Device() Device

	// Resize records a new window size and resizes the device's default framebuffer.
	//
	// Parameters:
	//   - width: the new width of the window in pixels
	//   - height: the new height of the window in pixels
	Resize(width, height int)

	// WindowSize returns the size of the default framebuffer.
	WindowSize() (int, int)

	// ClearColor returns the colour the default framebuffer is cleared to.
	ClearColor() [4]float32

	// SetClearColor sets the colour the default framebuffer is cleared to.
	SetClearColor(c [4]float32)

	// CreateProgram returns the program for a shader pair, compiling and linking it the first
	// time the pair is seen. The program is keyed by the shader keys, so copies of a shader share
	// it. A failed link is cached too: the pair is never compiled again and every call returns the
	// same wrapped ErrProgramLink. On success the program is bound and its s_textureN samplers are
	// pointed at slot N.
	//
	// Parameters:
	//   - vs: the vertex shader
	//   - fs: the fragment shader
	//
	// Returns:
	//   - *Program: the cached program, also returned on failure so its log can be read
	//   - error: a wrapped ErrProgramLink when the pair cannot be linked
	CreateProgram(vs, fs shader.Shader) (*Program, error)

	// Program returns a cached program by tag, or nil.
	Program(tag string) *Program

	// BindProgram makes p current. Binding the current program does nothing.
	BindProgram(p *Program)

	// SetRenderState applies the fields of rs that differ from the last applied state.
	//
	// Parameters:
	//   - rs: the requested state
	SetRenderState(rs material.RenderState)

	// RenderState returns the last applied state.
	RenderState() material.RenderState

	// EnableDepthTest toggles the depth test alone.
	EnableDepthTest(enabled bool)

	// SetDepthTestFunc sets the depth comparison alone.
	SetDepthTestFunc(fn gputypes.CompareFunction)

	// SetFramebuffer makes fb the render target and sets the viewport to its full size. A nil fb
	// is the window's default framebuffer. The framebuffer's attachments are synchronised with the
	// device first, so attachments changed since the last bind take effect.
	//
	// Parameters:
	//   - fb: the framebuffer to draw into, or nil
	//   - clear: whether to clear colour and depth after binding
	//   - color: the clear colour
	SetFramebuffer(fb *texture.Framebuffer, clear bool, color [4]float32)

	// Framebuffer returns the current render target, nil for the default framebuffer.
	Framebuffer() *texture.Framebuffer

	// SwapFramebuffer binds fb without clearing and returns the previous target.
	SwapFramebuffer(fb *texture.Framebuffer) *texture.Framebuffer

	// ClearFrameBuffer binds fb and clears its colour and depth to color.
	ClearFrameBuffer(fb *texture.Framebuffer, color [4]float32)

	// ClearColorBuffer clears the colour attachments of the current target.
	ClearColorBuffer(color [4]float32)

	// CopyFrameBuffer copies the attachments of src into the matching attachments of dst.
	// Attachments whose sizes differ are skipped with a warning.
	//
	// Parameters:
	//   - src: the framebuffer to read
	//   - dst: the framebuffer to write
	//   - bits: ClearColorBit copies colour attachments, ClearDepthBit the depth texture
	CopyFrameBuffer(src, dst *texture.Framebuffer, bits ClearBits)

	// SetViewport sets the drawing rectangle within the current target.
	SetViewport(x, y, width, height int)

	// Viewport returns the current drawing rectangle.
	Viewport() (x, y, width, height int)

	// SetTexture binds tex to a sampler slot, uploading it first when it changed since the last
	// upload. A nil tex unbinds the slot. Rebinding the texture already in the slot does nothing.
	//
	// Parameters:
	//   - slot: the sampler slot, in [0, TextureSlotCount)
	//   - tex: the texture, or nil
	SetTexture(slot int, tex *texture.Texture)

	// ResetTextureSlots unbinds every sampler slot.
	ResetTextureSlots()

	// ReleaseTexture frees the device storage of tex.
	ReleaseTexture(tex *texture.Texture)

	// ReleaseFramebuffer frees the device framebuffer of fb. Its attachments are kept.
	ReleaseFramebuffer(fb *texture.Framebuffer)

	// SetCameraLens fits the camera to the current viewport. Orthographic cameras get bounds of
	// half the viewport on each side; perspective cameras get the viewport aspect.
	SetCameraLens(cam camera.Camera)

	// SetProjectViewModel computes the matrix uniforms for a model transform seen through cam.
	//
	// Parameters:
	//   - model: the world transform of the draw
	//   - cam: the viewing camera; nil uses identity view and projection
	SetProjectViewModel(model [16]float32, cam camera.Camera)

	// SetOverrideMaterial makes every Render use m instead of the job material. nil clears it.
	SetOverrideMaterial(m material.Material)

	// OverrideMaterial returns the current override material, or nil.
	OverrideMaterial() material.Material

	// SetShadowAtlas sets the texture array every draw reads shadows from. nil unbinds it.
	SetShadowAtlas(rt *texture.RenderTarget)

	// Render draws one job. The job's mesh and material must be set. The override material, when
	// set, replaces the job material. Jobs whose program fails to link are skipped and counted in
	// Stats.SkippedDraws.
	//
	// Parameters:
	//   - job: the job to draw
	//   - cam: the viewing camera; nil keeps the camera of the previous draw
	//   - lights: the lights shading the job, in priority order
	Render(job *renderjob.RenderJob, cam camera.Camera, lights []light.Light)

	// RenderJobs draws every visible job with its own Lights.
	RenderJobs(jobs []renderjob.RenderJob, cam camera.Camera)

	// DrawFullQuad draws a clip space quad with mat. Textures bound to slots before the call are
	// left in place for mat's fragment shader to read.
	//
	// Parameters:
	//   - mat: the material providing the full screen shaders and state
	//   - cam: the camera the fragment shader reads, or nil
	//   - lights: the lights the fragment shader reads
	DrawFullQuad(mat material.Material, cam camera.Camera, lights []light.Light)

	// ApplyAverageBlur blurs src along axis into dst with a box filter of 2*amount+1 taps.
	//
	// Parameters:
	//   - src: the texture to blur
	//   - dst: the framebuffer receiving the result
	//   - axis: the blur direction in texels, usually (1, 0) or (0, 1)
	//   - amount: the filter half width
	ApplyAverageBlur(src *texture.Texture, dst *texture.Framebuffer, axis [2]float32, amount int32)

	// FeedUniforms sets every built-in uniform p uses, then the custom parameters of the current
	// material's shaders. Uniforms p does not declare are skipped.
	FeedUniforms(p *Program)

	// AddRenderTask queues work to run on the render goroutine at the start of the next frame.
	// Safe for concurrent use.
	AddRenderTask(task RenderTask)

	// FlushRenderTasks runs every queued task in order.
	//
	// Returns:
	//   - int: the number of tasks run
	FlushRenderTasks() int

	// PendingRenderTasks returns the number of queued tasks.
	PendingRenderTasks() int

	// Snapshot reads back the first layer of rt, scaled to width x height. Zero sizes keep the
	// target size.
	//
	// Returns:
	//   - *image.RGBA: the image, clamped to [0, 1] and quantised to 8 bits
	//   - error: texture.ErrInvalidSize when the target holds no pixels
	Snapshot(rt *texture.RenderTarget, width, height int) (*image.RGBA, error)

	// Stats returns the counters of the current frame.
	Stats() Stats

	// ResetStats zeroes the counters.
	ResetStats()

	// BeginFrame advances the frame count, resets the counters and runs queued render tasks.
	BeginFrame()

	// EndFrame submits the frame to the device.
	EndFrame()

	// FrameCount returns the number of frames begun.
	FrameCount() uint32
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer driving device. The device state is brought in line with
// material.DefaultRenderState before the renderer is returned.
//
// Parameters:
//   - device: the backend to drive
//   - options: functional options applied to the renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: ErrNoDevice when device is nil, or an error building the internal blur material
func NewRenderer(device Device, options ...RendererBuilderOption) (Renderer, error) {
	if device == nil {
		return nil, ErrNoDevice
	}
	r := &renderer{
		mu:           &sync.Mutex{},
		device:       device,
		programs:     make(map[string]*Program),
		textures:     make(map[*texture.Texture]*texEntry),
		framebuffers: make(map[*texture.Framebuffer]*fbEntry),
		meshes:       make(map[*model.Mesh]*meshEntry),
		windowWidth:  1280,
		windowHeight: 720,
		exposure:     1,
		now:          time.Now,
		quad:         model.NewQuad(2, 2),
	}
	for _, opt := range options {
		opt(r)
	}
	r.start = r.now()

	blur, err := fullQuadMaterial("average_blur", builtin.AverageBlurFragment)
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}
	r.blurMaterial = blur

	r.device.Resize(r.windowWidth, r.windowHeight)
	r.applyState(material.DefaultRenderState(), true)
	r.viewport = [4]int{0, 0, r.windowWidth, r.windowHeight}
	r.device.SetViewport(0, 0, r.windowWidth, r.windowHeight)
	r.stats = Stats{}
	return r, nil
}

// fullQuadMaterial builds an unlit material drawing the full screen quad with fragment.
func fullQuadMaterial(name, fragment string) (material.Material, error) {
	vs, fs := builtin.Get(builtin.FullQuadVertex), builtin.Get(fragment)
	rs := material.DefaultRenderState()
	rs.CullMode = gputypes.CullModeNone
	rs.DepthTestEnabled = false
	m := material.NewMaterial(
		material.WithName(name),
		material.WithType(material.MaterialTypeUnlit),
		material.WithShaders(vs, fs),
		material.WithRenderState(rs),
	)
	if err := m.Init(); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *renderer) Device() Device {
	return r.device
}

func (r *renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.windowWidth, r.windowHeight = width, height
	r.device.Resize(width, height)
	if r.framebuffer == nil {
		r.SetViewport(0, 0, width, height)
	}
}

func (r *renderer) WindowSize() (int, int) {
	return r.windowWidth, r.windowHeight
}

func (r *renderer) ClearColor() [4]float32 {
	return r.clearColor
}

func (r *renderer) SetClearColor(c [4]float32) {
	r.clearColor = c
}

func (r *renderer) CreateProgram(vs, fs shader.Shader) (*Program, error) {
	if vs == nil || fs == nil {
		panic("renderer: a program needs a vertex and a fragment shader")
	}
	tag := programTag(vs, fs)
	if p, ok := r.programs[tag]; ok {
		return p, p.err
	}

	id, log, err := r.device.CompileProgram(vs, fs)
	p := &Program{
		tag:       tag,
		id:        id,
		vs:        vs,
		fs:        fs,
		log:       log,
		locations: make(map[string]int32),
	}
	r.programs[tag] = p
	if err != nil {
		p.err = fmt.Errorf("program %q: %w: %v", tag, ErrProgramLink, err)
		logger.Logger().Error("program link failed", "program", tag, "log", log, "error", err)
		return p, p.err
	}
	logger.Logger().Debug("program linked", "program", tag, "id", id)

	r.BindProgram(p)
	for slot := range TextureSlotCount {
		if loc := p.location(r.device, fmt.Sprintf("s_texture%d", slot)); loc >= 0 {
			r.device.SetUniform(loc, int32(slot))
		}
	}
	return p, nil
}

func (r *renderer) Program(tag string) *Program {
	return r.programs[tag]
}

func (r *renderer) BindProgram(p *Program) {
	if p == nil || p == r.program {
		return
	}
	r.device.UseProgram(p.id)
	r.program = p
	r.stats.ProgramBinds++
}

func (r *renderer) SetRenderState(rs material.RenderState) {
	r.applyState(rs, false)
}

// applyState issues a device call for every field of rs that differs from the snapshot, or for
// every field when force is set.
func (r *renderer) applyState(rs material.RenderState, force bool) {
	cur := r.state
	if force || cur.CullMode != rs.CullMode {
		r.device.SetCullMode(rs.CullMode)
		r.stats.StateChanges++
	}
	if force || cur.DepthTestEnabled != rs.DepthTestEnabled {
		r.device.SetDepthTest(rs.DepthTestEnabled)
		r.stats.StateChanges++
	}
	if force || cur.DepthFunc != rs.DepthFunc {
		r.device.SetDepthFunc(rs.DepthFunc)
		r.stats.StateChanges++
	}
	if force || cur.BlendFunction != rs.BlendFunction {
		r.device.SetBlendFunction(rs.BlendFunction)
		r.stats.StateChanges++
	}
	if force || cur.LineWidth != rs.LineWidth {
		r.device.SetLineWidth(rs.LineWidth)
		r.stats.StateChanges++
	}
	r.state = rs
}

func (r *renderer) RenderState() material.RenderState {
	return r.state
}

func (r *renderer) EnableDepthTest(enabled bool) {
	rs := r.state
	rs.DepthTestEnabled = enabled
	r.applyState(rs, false)
}

func (r *renderer) SetDepthTestFunc(fn gputypes.CompareFunction) {
	rs := r.state
	rs.DepthFunc = fn
	r.applyState(rs, false)
}

func (r *renderer) SetFramebuffer(fb *texture.Framebuffer, clear bool, color [4]float32) {
	id := r.syncFramebuffer(fb)
	if id != r.boundFB {
		r.device.BindFramebuffer(id)
		r.boundFB = id
		r.stats.FramebufferBinds++
	}
	r.framebuffer = fb

	w, h := r.windowWidth, r.windowHeight
	if fb != nil {
		w, h = fb.Width(), fb.Height()
	}
	r.SetViewport(0, 0, w, h)
	if clear {
		r.device.Clear(ClearColorBit|ClearDepthBit, color)
	}
}

// syncFramebuffer creates the device framebuffer for fb on first use and re-attaches every slot
// whose texture or layer changed.
func (r *renderer) syncFramebuffer(fb *texture.Framebuffer) FramebufferID {
	if fb == nil {
		return DefaultFramebuffer
	}
	if !fb.Initialized() {
		fb.Init(fb.Settings())
	}
	e, ok := r.framebuffers[fb]
	if !ok {
		e = &fbEntry{id: r.device.CreateFramebuffer()}
		r.framebuffers[fb] = e
		logger.Logger().Debug("framebuffer created", "framebuffer", fb.Name(), "id", e.id)
	}

	for i := range texture.MaxColorAttachments {
		att := texture.Attachment(i)
		var want attachState
		if rt := fb.Attachment(att); rt != nil {
			want = attachState{tex: r.ensureTexture(&rt.Texture), layer: fb.AttachmentLayer(att)}
		}
		if want != e.colors[i] {
			r.device.AttachTexture(e.id, att, want.tex, want.layer)
			e.colors[i] = want
		}
	}

	var depth TextureID
	if d := fb.DepthTexture(); d != nil {
		depth = r.ensureTexture(&d.Texture)
	}
	if depth != e.depth {
		r.device.AttachTexture(e.id, texture.DepthAttachment, depth, 0)
		e.depth = depth
	}
	return e.id
}

func (r *renderer) Framebuffer() *texture.Framebuffer {
	return r.framebuffer
}

func (r *renderer) SwapFramebuffer(fb *texture.Framebuffer) *texture.Framebuffer {
	prev := r.framebuffer
	r.SetFramebuffer(fb, false, [4]float32{})
	return prev
}

func (r *renderer) ClearFrameBuffer(fb *texture.Framebuffer, color [4]float32) {
	r.SetFramebuffer(fb, true, color)
}

func (r *renderer) ClearColorBuffer(color [4]float32) {
	r.device.Clear(ClearColorBit, color)
}

func (r *renderer) CopyFrameBuffer(src, dst *texture.Framebuffer, bits ClearBits) {
	if src == nil || dst == nil {
		return
	}
	if bits&ClearColorBit != 0 {
		for _, att := range src.ColorAttachments() {
			s, d := src.Attachment(att), dst.Attachment(att)
			if d == nil {
				continue
			}
			r.copyTexture(&s.Texture, &d.Texture)
		}
	}
	if bits&ClearDepthBit != 0 {
		s, d := src.DepthTexture(), dst.DepthTexture()
		if s != nil && d != nil {
			r.copyTexture(&s.Texture, &d.Texture)
		}
	}
}

func (r *renderer) copyTexture(src, dst *texture.Texture) {
	if src.Width != dst.Width || src.Height != dst.Height {
		logger.Logger().Warn("copy between textures of different sizes skipped",
			"src", src.Name, "dst", dst.Name)
		return
	}
	r.device.CopyTexture(r.ensureTexture(src), r.ensureTexture(dst))
}

func (r *renderer) SetViewport(x, y, width, height int) {
	v := [4]int{x, y, width, height}
	if v == r.viewport {
		return
	}
	r.viewport = v
	r.device.SetViewport(x, y, width, height)
}

func (r *renderer) Viewport() (x, y, width, height int) {
	return r.viewport[0], r.viewport[1], r.viewport[2], r.viewport[3]
}

func (r *renderer) SetTexture(slot int, tex *texture.Texture) {
	if slot < 0 || slot >= TextureSlotCount {
		panic(fmt.Sprintf("renderer: texture slot %d out of range", slot))
	}
	id := r.ensureTexture(tex)
	if r.textureSlots[slot] == id {
		return
	}
	r.device.BindTexture(slot, id)
	r.textureSlots[slot] = id
	r.stats.TextureBinds++
}

// ensureTexture returns the device handle of t, creating or refreshing its storage when the
// texture changed since the last upload.
func (r *renderer) ensureTexture(t *texture.Texture) TextureID {
	if t == nil || t.Width <= 0 || t.Height <= 0 {
		return 0
	}
	e, ok := r.textures[t]
	if ok && e.generation == t.Generation() {
		return e.id
	}
	if ok && (e.width != t.Width || e.height != t.Height || e.settings != t.Settings) {
		r.dropTexture(t, e)
		ok = false
	}
	if !ok {
		e = &texEntry{
			id:       r.device.CreateTexture(t.Settings, t.Width, t.Height),
			width:    t.Width,
			height:   t.Height,
			settings: t.Settings,
		}
		r.textures[t] = e
	}
	if t.Pixels != nil {
		r.device.WriteTexture(e.id, t.Width, t.Height, t.Pixels)
	}
	e.generation = t.Generation()
	return e.id
}

func (r *renderer) dropTexture(t *texture.Texture, e *texEntry) {
	r.device.DeleteTexture(e.id)
	delete(r.textures, t)
	for i, id := range r.textureSlots {
		if id == e.id {
			r.textureSlots[i] = 0
		}
	}
}

func (r *renderer) ResetTextureSlots() {
	for slot, id := range r.textureSlots {
		if id != 0 {
			r.device.BindTexture(slot, 0)
			r.textureSlots[slot] = 0
		}
	}
}

func (r *renderer) ReleaseTexture(tex *texture.Texture) {
	if e, ok := r.textures[tex]; ok {
		r.dropTexture(tex, e)
	}
}

func (r *renderer) ReleaseFramebuffer(fb *texture.Framebuffer) {
	e, ok := r.framebuffers[fb]
	if !ok {
		return
	}
	if r.boundFB == e.id {
		r.SetFramebuffer(nil, false, [4]float32{})
	}
	r.device.DeleteFramebuffer(e.id)
	delete(r.framebuffers, fb)
}

func (r *renderer) ensureMesh(m *model.Mesh) MeshID {
	e, ok := r.meshes[m]
	if ok && e.generation == m.Generation() {
		return e.id
	}
	if ok {
		r.device.DeleteMesh(e.id)
	}
	e = &meshEntry{id: r.device.UploadMesh(m), generation: m.Generation()}
	r.meshes[m] = e
	return e.id
}

func (r *renderer) SetCameraLens(cam camera.Camera) {
	if cam == nil {
		return
	}
	_, _, w, h := r.Viewport()
	if w <= 0 || h <= 0 {
		return
	}
	if cam.IsOrtho() {
		hw, hh := float32(w)/2, float32(h)/2
		cam.SetOrthoLens(-hw, hw, -hh, hh, cam.Near(), cam.Far())
		return
	}
	cam.SetAspect(float32(w) / float32(h))
}

func (r *renderer) SetProjectViewModel(model [16]float32, cam camera.Camera) {
	r.modelMat = model
	if cam != nil {
		r.view = cam.View()
		r.projection = cam.Projection()
	} else {
		r.view = common.IdentityMat4()
		r.projection = common.IdentityMat4()
	}
	r.pvm = common.MulMat4(common.MulMat4(r.projection, r.view), model)

	inv := common.InverseMat4(model)
	common.Transpose4(r.invTransModel[:], inv[:])

	viewNoT := r.view
	viewNoT[12], viewNoT[13], viewNoT[14] = 0, 0, 0
	r.projectViewNoT = common.MulMat4(r.projection, viewNoT)
}

func (r *renderer) SetOverrideMaterial(m material.Material) {
	r.overrideMat = m
}

func (r *renderer) OverrideMaterial() material.Material {
	return r.overrideMat
}

func (r *renderer) SetShadowAtlas(rt *texture.RenderTarget) {
	r.shadowAtlas = rt
}

func (r *renderer) Render(job *renderjob.RenderJob, cam camera.Camera, lights []light.Light) {
	r.render(job, cam, lights, true)
}

func (r *renderer) render(job *renderjob.RenderJob, cam camera.Camera, lights []light.Light, bindMaterial bool) {
	if job == nil || job.Mesh == nil || job.Material == nil {
		panic("renderer: render job without mesh or material")
	}
	mat := job.Material
	if r.overrideMat != nil {
		mat = r.overrideMat
	}
	if !mat.Initialized() {
		if err := mat.Init(); err != nil {
			logger.Logger().Error("material init failed", "material", mat.Name(), "error", err)
			r.stats.SkippedDraws++
			return
		}
	}

	p, err := r.CreateProgram(mat.VertexShader(), mat.FragmentShader())
	if err != nil {
		r.stats.SkippedDraws++
		return
	}
	r.BindProgram(p)
	r.material = mat
	r.SetRenderState(mat.RenderState())

	r.bindEnvironment(job.EnvironmentVolume)
	if bindMaterial {
		bound := material.BoundTextures(mat)
		for _, slot := range materialSlots {
			r.SetTexture(slot, bound[slot])
		}
	}
	atlasSize := 0
	if r.shadowAtlas != nil {
		r.SetTexture(shader.SlotShadowAtlas, &r.shadowAtlas.Texture)
		atlasSize = r.shadowAtlas.Width
	} else {
		r.SetTexture(shader.SlotShadowAtlas, nil)
	}

	if cam != nil {
		r.camera = cam
	}
	r.lightData = light.ToLightData(lights, atlasSize)
	if !job.ReceiveShadow {
		for i := range r.lightData.Count {
			r.lightData.Lights[i].CastShadow = false
		}
	}
	r.SetProjectViewModel(job.WorldTransform, r.camera)
	r.FeedUniforms(p)

	r.device.DrawMesh(r.ensureMesh(job.Mesh), mat.RenderState().DrawType)
	r.stats.DrawCalls++
}

// bindEnvironment binds the IBL maps of v, or unbinds them when v cannot be used.
func (r *renderer) bindEnvironment(v environment.Volume) {
	if v == nil || !v.ReadyToRender() {
		r.ibl = iblState{}
		r.exposure = 1
		r.SetTexture(shader.SlotIBLIrradiance, nil)
		r.SetTexture(shader.SlotIBLSpecular, nil)
		r.SetTexture(shader.SlotIBLBRDFLut, nil)
		return
	}
	ibl := v.IBL()
	r.ibl = iblState{
		use:       true,
		intensity: v.Intensity(),
		rotation:  v.RotationMatrix(),
		maxLod:    ibl.MaxReflectionLod,
	}
	r.exposure = v.Exposure()
	r.SetTexture(shader.SlotIBLIrradiance, cubeTexture(ibl.Irradiance))
	r.SetTexture(shader.SlotIBLSpecular, cubeTexture(ibl.Specular))
	r.SetTexture(shader.SlotIBLBRDFLut, ibl.BRDFLut)
}

func cubeTexture(c *texture.CubeMap) *texture.Texture {
	if c == nil {
		return nil
	}
	return &c.Texture
}

func (r *renderer) RenderJobs(jobs []renderjob.RenderJob, cam camera.Camera) {
	for i := range jobs {
		if !jobs[i].Visible {
			continue
		}
		r.Render(&jobs[i], cam, jobs[i].Lights)
	}
}

func (r *renderer) DrawFullQuad(mat material.Material, cam camera.Camera, lights []light.Light) {
	prev := r.overrideMat
	r.overrideMat = nil
	job := renderjob.RenderJob{
		Mesh:           r.quad,
		Material:       mat,
		WorldTransform: common.IdentityMat4(),
		ReceiveShadow:  true,
		Visible:        true,
	}
	r.render(&job, cam, lights, false)
	r.overrideMat = prev
}

func (r *renderer) ApplyAverageBlur(src *texture.Texture, dst *texture.Framebuffer, axis [2]float32, amount int32) {
	fs := r.blurMaterial.FragmentShader()
	fs.SetParameter(builtin.ParamBlurAxis, axis)
	fs.SetParameter(builtin.ParamBlurAmount, amount)

	r.SetFramebuffer(dst, true, [4]float32{})
	r.SetTexture(builtin.SlotSource, src)
	r.DrawFullQuad(r.blurMaterial, nil, nil)
}

func (r *renderer) FeedUniforms(p *Program) {
	if p == nil {
		return
	}
	for _, u := range shader.AllUniforms() {
		loc := p.location(r.device, u.Name())
		if loc < 0 {
			continue
		}
		if v, ok := r.uniformValue(u); ok {
			r.device.SetUniform(loc, v)
		}
	}

	vs, fs := p.vs, p.fs
	if r.material != nil {
		vs, fs = r.material.VertexShader(), r.material.FragmentShader()
	}
	for _, s := range [2]shader.Shader{vs, fs} {
		if s == nil {
			continue
		}
		for _, name := range s.ParameterNames() {
			loc := p.location(r.device, name)
			if loc < 0 {
				continue
			}
			if v, ok := s.Parameter(name); ok {
				r.device.SetUniform(loc, v)
			}
		}
	}
}

func (r *renderer) uniformValue(u shader.Uniform) (any, bool) {
	switch u {
	case shader.UniformProjectModelView:
		return r.pvm, true
	case shader.UniformModel:
		return r.modelMat, true
	case shader.UniformInvTransModel:
		return r.invTransModel, true
	case shader.UniformView:
		return r.view, true
	case shader.UniformProjectViewNoTranslation:
		return r.projectViewNoT, true
	case shader.UniformCamData:
		if r.camera == nil {
			return shader.CameraData{}, true
		}
		return r.camera.Data(), true
	case shader.UniformLightData:
		return &r.lightData, true
	case shader.UniformFrameCount:
		return int32(r.frameCount), true
	case shader.UniformElapsedTime:
		return float32(r.now().Sub(r.start).Seconds()), true
	case shader.UniformExposure:
		return r.exposure, true
	case shader.UniformUseIBL:
		return r.ibl.use, true
	case shader.UniformIBLIntensity:
		return r.ibl.intensity, true
	case shader.UniformIBLIrradiance:
		return int32(shader.SlotIBLIrradiance), true
	case shader.UniformIBLRotation:
		return r.ibl.rotation, true
	case shader.UniformIBLMaxReflectionLod:
		return r.ibl.maxLod, true
	}
	if r.material == nil {
		return nil, false
	}
	return r.material.UniformValue(u)
}

func (r *renderer) Stats() Stats {
	return r.stats
}

func (r *renderer) ResetStats() {
	r.stats = Stats{}
}

func (r *renderer) BeginFrame() {
	r.frameCount++
	r.ResetStats()
	r.FlushRenderTasks()
}

func (r *renderer) EndFrame() {
	r.device.Flush()
}

func (r *renderer) FrameCount() uint32 {
	return r.frameCount
}
