// Package wgpu_backend is a renderer.Device on WebGPU. The renderer drives it like an immediate
// mode state machine; the device turns those calls into render passes, pipelines and bind groups.
//
// A render pass stays open while draws target the same framebuffer and is closed by anything that
// changes the target: binding another framebuffer, re-attaching, clearing, copying or reading
// back. Uniform blocks are appended to a ring buffer and selected with dynamic offsets, so every
// draw of a submission sees its own values.
package wgpu_backend

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-render/engine/logger"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"
)

// ErrNoAdapter is returned when no WebGPU adapter matches the requested options.
var ErrNoAdapter = errors.New("wgpu_backend: no suitable adapter")

type attachment struct {
	tex   renderer.TextureID
	layer int
}

type wgpuFramebuffer struct {
	colors [texture.MaxColorAttachments]attachment
	depth  attachment
}

type wgpuMesh struct {
	vertex      *wgpu.Buffer
	index       *wgpu.Buffer
	vertexCount uint32
	indexCount  uint32
}

type clearOp struct {
	bits  renderer.ClearBits
	color [4]float32
}

type colorTarget struct {
	view    *wgpu.TextureView
	resolve *wgpu.TextureView
	format  wgpu.TextureFormat
}

// passTargets are the resolved attachments of the framebuffer a pass renders into.
type passTargets struct {
	colors   []colorTarget
	depth    *wgpu.TextureView
	depthFmt wgpu.TextureFormat
	samples  uint32
	width    int
	height   int
	attached map[renderer.TextureID]bool
}

type drawState struct {
	cullMode  gputypes.CullMode
	depthTest bool
	depthFunc gputypes.CompareFunction
	blend     material.BlendFunction
	lineWidth float32
}

// wgpuDevice is the implementation of the Device interface.
type wgpuDevice struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	sampleCount   MSAASampleCount

	next          uint32
	programs      map[renderer.ProgramID]*wgpuProgram
	textures      map[renderer.TextureID]*wgpuTexture
	framebuffers  map[renderer.FramebufferID]*wgpuFramebuffer
	meshes        map[renderer.MeshID]*wgpuMesh
	samplers      map[samplerKey]*wgpu.Sampler
	pipelines     map[pipelineKey]*wgpu.RenderPipeline
	textureGroups map[string]*wgpu.BindGroup
	dummies       map[shader.TextureDimension]*wgpuTexture

	program     *wgpuProgram
	framebuffer renderer.FramebufferID
	slots       [renderer.TextureSlotCount]renderer.TextureID
	viewport    [4]int
	state       drawState

	width       int
	height      int
	windowColor *wgpuTexture
	windowMSAA  *wgpuTexture
	windowDepth *wgpuTexture

	encoder      *wgpu.CommandEncoder
	pass         *wgpu.RenderPassEncoder
	passFB       renderer.FramebufferID
	targets      passTargets
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	ring       *wgpu.Buffer
	ringOffset uint64

	frames int
}

// Device is a WebGPU renderer.Device.
type Device interface {
	renderer.Device

	// SetPresentMode changes the present mode and reconfigures the surface.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync, Uncapped, or TripleBuffered)
	SetPresentMode(mode PresentMode)

	// SampleCount returns the MSAA sample count of the default framebuffer.
	SampleCount() MSAASampleCount

	// WindowPixels reads back the default framebuffer of a device created without a surface.
	//
	// Returns:
	//   - int, int: the window size
	//   - []float32: RGBA floats row by row from the top, or nil when presenting to a surface
	WindowPixels() (int, int, []float32)

	// Frames returns the number of Flush calls.
	Frames() int

	// Release frees every GPU resource owned by the device.
	Release()
}

var _ Device = &wgpuDevice{}

// NewDevice requests an adapter and device and sets up the default framebuffer.
//
// Parameters:
//   - options: functional options applied to the device
//
// Returns:
//   - Device: the device
//   - error: ErrNoAdapter, or an error when the device or its resources cannot be created
func NewDevice(options ...DeviceBuilderOption) (Device, error) {
	cfg := deviceConfig{width: 1280, height: 720, presentMode: PresentModeUncapped, sampleCount: MSAAOff}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.surface != nil {
		runtime.LockOSThread()
	}

	d := &wgpuDevice{
		instance:      wgpu.CreateInstance(nil),
		sampleCount:   cfg.sampleCount,
		programs:      make(map[renderer.ProgramID]*wgpuProgram),
		textures:      make(map[renderer.TextureID]*wgpuTexture),
		framebuffers:  make(map[renderer.FramebufferID]*wgpuFramebuffer),
		meshes:        make(map[renderer.MeshID]*wgpuMesh),
		samplers:      make(map[samplerKey]*wgpu.Sampler),
		pipelines:     make(map[pipelineKey]*wgpu.RenderPipeline),
		textureGroups: make(map[string]*wgpu.BindGroup),
		dummies:       make(map[shader.TextureDimension]*wgpuTexture),
		state: drawState{
			cullMode:  gputypes.CullModeBack,
			depthTest: true,
			depthFunc: gputypes.CompareFunctionLess,
			lineWidth: 1,
		},
	}
	d.presentMode = nativePresentMode(cfg.presentMode)
	if cfg.surface != nil {
		d.surface = d.instance.CreateSurface(cfg.surface)
	}

	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoAdapter, err)
	}
	d.adapter = a

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{Label: "oxy-render device"})
	if err != nil {
		return nil, fmt.Errorf("wgpu_backend: request device: %w", err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	d.ring, err = dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "uniform ring",
		Size:  uniformRingSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu_backend: create uniform ring: %w", err)
	}

	if err := d.resize(cfg.width, cfg.height); err != nil {
		return nil, err
	}
	d.viewport = [4]int{0, 0, d.width, d.height}
	return d, nil
}

func nativePresentMode(mode PresentMode) wgpu.PresentMode {
	switch mode {
	case PresentModeVSync:
		return wgpu.PresentModeFifo
	case PresentModeTripleBuffered:
		return wgpu.PresentModeMailbox
	}
	return wgpu.PresentModeImmediate
}

func (d *wgpuDevice) id() uint32 {
	d.next++
	return d.next
}

// configureSurface is a wrapper for boilerplate logic required when calling Configure on a surface.
func (d *wgpuDevice) configureSurface() {
	capabilities := d.surface.GetCapabilities(d.adapter)
	d.surfaceFormat = capabilities.Formats[0]
	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      d.surfaceFormat,
		Width:       uint32(d.width),
		Height:      uint32(d.height),
		PresentMode: d.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

func (d *wgpuDevice) resize(width, height int) error {
	width, height = max(width, 1), max(height, 1)
	if d.windowDepth != nil && d.width == width && d.height == height {
		return nil
	}
	d.submit()
	d.width, d.height = width, height

	for _, t := range []*wgpuTexture{d.windowColor, d.windowMSAA, d.windowDepth} {
		if t != nil {
			t.release()
		}
	}
	d.windowColor, d.windowMSAA = nil, nil

	colorSettings := texture.DefaultSettings()
	colorSettings.Format = gputypes.TextureFormatBGRA8Unorm
	if d.surface != nil {
		d.configureSurface()
	} else {
		c, err := d.newTexture("window", colorSettings, width, height, 1)
		if err != nil {
			return err
		}
		d.windowColor = c
		d.surfaceFormat = c.format
	}

	samples := uint32(d.sampleCount)
	if samples > 1 {
		m, err := d.newTextureFormat("window/msaa", colorSettings, d.surfaceFormat, width, height, samples)
		if err != nil {
			return err
		}
		d.windowMSAA = m
	}

	depthSettings := texture.DefaultSettings()
	depthSettings.Format = gputypes.TextureFormatDepth32Float
	depth, err := d.newTexture("window/depth", depthSettings, width, height, samples)
	if err != nil {
		return err
	}
	d.windowDepth = depth
	return nil
}

func (d *wgpuDevice) Resize(width, height int) {
	if err := d.resize(width, height); err != nil {
		logger.Logger().Error("window resize failed", "error", err)
	}
}

func (d *wgpuDevice) SetPresentMode(mode PresentMode) {
	d.presentMode = nativePresentMode(mode)
	if d.surface != nil {
		d.submit()
		d.configureSurface()
	}
}

func (d *wgpuDevice) SampleCount() MSAASampleCount {
	return d.sampleCount
}

func (d *wgpuDevice) Frames() int {
	return d.frames
}

func (d *wgpuDevice) WindowPixels() (int, int, []float32) {
	if d.windowColor == nil {
		return 0, 0, nil
	}
	id := renderer.TextureID(d.id())
	d.textures[id] = d.windowColor
	defer delete(d.textures, id)
	return d.ReadTexture(id, 0)
}

func (d *wgpuDevice) SetCullMode(mode gputypes.CullMode) {
	d.state.cullMode = mode
}

func (d *wgpuDevice) SetDepthTest(enabled bool) {
	d.state.depthTest = enabled
}

func (d *wgpuDevice) SetDepthFunc(fn gputypes.CompareFunction) {
	d.state.depthFunc = fn
}

func (d *wgpuDevice) SetBlendFunction(fn material.BlendFunction) {
	d.state.blend = fn
}

// SetLineWidth is recorded but has no effect: WebGPU rasterizes lines one pixel wide.
func (d *wgpuDevice) SetLineWidth(width float32) {
	d.state.lineWidth = width
}

func (d *wgpuDevice) CreateFramebuffer() renderer.FramebufferID {
	id := renderer.FramebufferID(d.id())
	d.framebuffers[id] = &wgpuFramebuffer{}
	return id
}

func (d *wgpuDevice) DeleteFramebuffer(id renderer.FramebufferID) {
	if id == renderer.DefaultFramebuffer {
		return
	}
	if d.passFB == id {
		d.endPass()
	}
	if d.framebuffer == id {
		d.framebuffer = renderer.DefaultFramebuffer
	}
	delete(d.framebuffers, id)
}

func (d *wgpuDevice) AttachTexture(fb renderer.FramebufferID, att texture.Attachment, tex renderer.TextureID, layer int) {
	f, ok := d.framebuffers[fb]
	if !ok {
		return
	}
	if d.pass != nil && d.passFB == fb {
		d.endPass()
	}
	switch {
	case att.IsColor():
		f.colors[att] = attachment{tex: tex, layer: layer}
	case att == texture.DepthAttachment, att == texture.DepthStencilAttachment:
		f.depth = attachment{tex: tex, layer: layer}
	}
}

func (d *wgpuDevice) BindFramebuffer(fb renderer.FramebufferID) {
	if _, ok := d.framebuffers[fb]; !ok && fb != renderer.DefaultFramebuffer {
		fb = renderer.DefaultFramebuffer
	}
	d.framebuffer = fb
}

func (d *wgpuDevice) SetViewport(x, y, width, height int) {
	d.viewport = [4]int{x, y, width, height}
}

// Clear starts a new pass on the bound framebuffer whose load operations clear the selected
// buffers.
func (d *wgpuDevice) Clear(bits renderer.ClearBits, color [4]float32) {
	d.endPass()
	if err := d.beginPass(clearOp{bits: bits, color: color}); err != nil {
		logger.Logger().Warn("clear skipped", "framebuffer", d.framebuffer, "error", err)
	}
}

func (d *wgpuDevice) UploadMesh(m *model.Mesh) renderer.MeshID {
	id := renderer.MeshID(d.id())
	gm := &wgpuMesh{vertexCount: uint32(len(m.Vertices)), indexCount: uint32(len(m.Indices))}
	if len(m.Vertices) > 0 {
		data := m.VertexData()
		buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: m.Name + " Vertex Buffer",
			Size:  uint64(len(data)),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			logger.Logger().Error("vertex buffer allocation failed", "mesh", m.Name, "error", err)
			return 0
		}
		d.queue.WriteBuffer(buf, 0, data)
		gm.vertex = buf
	}
	if len(m.Indices) > 0 {
		data := m.IndexData()
		buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: m.Name + " Index Buffer",
			Size:  uint64(len(data)),
			Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			logger.Logger().Error("index buffer allocation failed", "mesh", m.Name, "error", err)
			return 0
		}
		d.queue.WriteBuffer(buf, 0, data)
		gm.index = buf
	}
	d.meshes[id] = gm
	return id
}

func (d *wgpuDevice) DeleteMesh(id renderer.MeshID) {
	m, ok := d.meshes[id]
	if !ok {
		return
	}
	d.submit()
	if m.vertex != nil {
		m.vertex.Release()
	}
	if m.index != nil {
		m.index.Release()
	}
	delete(d.meshes, id)
}

// encoderFor returns the frame's command encoder, creating it on first use.
func (d *wgpuDevice) encoderFor() *wgpu.CommandEncoder {
	if d.encoder == nil {
		enc, err := d.device.CreateCommandEncoder(nil)
		if err != nil {
			panic(fmt.Sprintf("wgpu_backend: create command encoder: %v", err))
		}
		d.encoder = enc
	}
	return d.encoder
}

func (d *wgpuDevice) acquireSurface() (*wgpu.TextureView, error) {
	if d.frameView != nil {
		return d.frameView, nil
	}
	surfaceTexture, err := d.surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, err
	}
	d.frameSurface, d.frameView = surfaceTexture, view
	return view, nil
}

// resolveTargets resolves the attachments of a framebuffer into views.
func (d *wgpuDevice) resolveTargets(fb renderer.FramebufferID) (passTargets, error) {
	pt := passTargets{attached: make(map[renderer.TextureID]bool), samples: 1}
	if fb == renderer.DefaultFramebuffer {
		var (
			view *wgpu.TextureView
			err  error
		)
		if d.surface != nil {
			view, err = d.acquireSurface()
		} else {
			view, err = d.windowColor.view(wgpu.TextureViewDimension2D, 0)
		}
		if err != nil {
			return pt, err
		}
		ct := colorTarget{view: view, format: d.surfaceFormat}
		if d.windowMSAA != nil {
			msaa, err := d.windowMSAA.view(wgpu.TextureViewDimension2D, 0)
			if err != nil {
				return pt, err
			}
			ct.view, ct.resolve = msaa, view
			pt.samples = uint32(d.sampleCount)
		}
		pt.colors = []colorTarget{ct}
		depth, err := d.windowDepth.view(wgpu.TextureViewDimension2D, 0)
		if err != nil {
			return pt, err
		}
		pt.depth, pt.depthFmt = depth, d.windowDepth.format
		pt.width, pt.height = d.width, d.height
		return pt, nil
	}

	f := d.framebuffers[fb]
	for _, a := range f.colors {
		t, ok := d.textures[a.tex]
		if !ok {
			break
		}
		v, err := t.view(wgpu.TextureViewDimension2D, a.layer)
		if err != nil {
			return pt, err
		}
		pt.colors = append(pt.colors, colorTarget{view: v, format: t.format})
		pt.attached[a.tex] = true
		pt.width, pt.height = minSize(pt.width, t.width), minSize(pt.height, t.height)
	}
	if t, ok := d.textures[f.depth.tex]; ok {
		v, err := t.view(wgpu.TextureViewDimension2D, f.depth.layer)
		if err != nil {
			return pt, err
		}
		pt.depth, pt.depthFmt = v, t.format
		pt.attached[f.depth.tex] = true
		pt.width, pt.height = minSize(pt.width, t.width), minSize(pt.height, t.height)
	}
	if len(pt.colors) == 0 && pt.depth == nil {
		return pt, fmt.Errorf("framebuffer %d has no attachments", fb)
	}
	return pt, nil
}

func minSize(a, b int) int {
	if a == 0 {
		return b
	}
	return min(a, b)
}

func (d *wgpuDevice) beginPass(clear clearOp) error {
	targets, err := d.resolveTargets(d.framebuffer)
	if err != nil {
		return err
	}
	desc := &wgpu.RenderPassDescriptor{}
	for _, c := range targets.colors {
		a := wgpu.RenderPassColorAttachment{
			View:          c.view,
			ResolveTarget: c.resolve,
			LoadOp:        wgpu.LoadOpLoad,
			StoreOp:       wgpu.StoreOpStore,
		}
		if clear.bits&renderer.ClearColorBit != 0 {
			a.LoadOp = wgpu.LoadOpClear
			a.ClearValue = wgpu.Color{
				R: float64(clear.color[0]),
				G: float64(clear.color[1]),
				B: float64(clear.color[2]),
				A: float64(clear.color[3]),
			}
		}
		desc.ColorAttachments = append(desc.ColorAttachments, a)
	}
	if targets.depth != nil {
		ds := &wgpu.RenderPassDepthStencilAttachment{
			View:            targets.depth,
			DepthLoadOp:     wgpu.LoadOpLoad,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		}
		if clear.bits&renderer.ClearDepthBit != 0 {
			ds.DepthLoadOp = wgpu.LoadOpClear
		}
		desc.DepthStencilAttachment = ds
	}
	d.pass = d.encoderFor().BeginRenderPass(desc)
	d.passFB = d.framebuffer
	d.targets = targets
	return nil
}

// ensurePass opens a pass on the bound framebuffer unless one is already open on it.
func (d *wgpuDevice) ensurePass() error {
	if d.pass != nil && d.passFB == d.framebuffer {
		return nil
	}
	d.endPass()
	return d.beginPass(clearOp{})
}

func (d *wgpuDevice) endPass() {
	if d.pass == nil {
		return
	}
	d.pass.End()
	d.pass.Release()
	d.pass = nil
	d.targets = passTargets{}
}

// submit ends the open pass and submits everything recorded so far. The uniform ring starts over
// since later queue writes are ordered after this submission.
func (d *wgpuDevice) submit() {
	d.endPass()
	if d.encoder == nil {
		return
	}
	enc := d.encoder
	d.encoder = nil
	d.ringOffset = 0

	commandBuffer, err := enc.Finish(nil)
	if err != nil {
		logger.Logger().Error("command encoding failed", "error", err)
		enc.Release()
		return
	}
	d.queue.Submit(commandBuffer)
	commandBuffer.Release()
	enc.Release()
}

// Flush submits the frame and presents the surface.
func (d *wgpuDevice) Flush() {
	d.submit()
	if d.frameSurface != nil {
		d.surface.Present()
		d.frameView.Release()
		d.frameSurface.Release()
		d.frameView, d.frameSurface = nil, nil
	}
	d.frames++
}

func (d *wgpuDevice) dropTextureGroups() {
	for k, g := range d.textureGroups {
		g.Release()
		delete(d.textureGroups, k)
	}
}

func (d *wgpuDevice) Release() {
	d.submit()
	d.dropTextureGroups()
	for _, p := range d.pipelines {
		p.Release()
	}
	for _, p := range d.programs {
		p.release()
	}
	for _, t := range d.textures {
		t.release()
	}
	for _, t := range d.dummies {
		t.release()
	}
	for _, m := range d.meshes {
		if m.vertex != nil {
			m.vertex.Release()
		}
		if m.index != nil {
			m.index.Release()
		}
	}
	for _, s := range d.samplers {
		s.Release()
	}
	for _, t := range []*wgpuTexture{d.windowColor, d.windowMSAA, d.windowDepth} {
		if t != nil {
			t.release()
		}
	}
	if d.ring != nil {
		d.ring.Release()
	}
	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	if d.surface != nil {
		d.surface.Release()
	}
	d.instance.Release()
}
