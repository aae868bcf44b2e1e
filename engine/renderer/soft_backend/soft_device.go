// Package soft_backend is a renderer.Device that runs entirely on the CPU. Programs are built
// from the Go kernels every built-in shader carries, triangles are rasterized with edge functions
// and perspective-correct varyings, and textures are float RGBA arrays. It renders headless and
// deterministically, which makes it the device behind pixel tests and offline rendering.
package soft_backend

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/engine/logger"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/gogpu/gputypes"
)

type attachment struct {
	tex   renderer.TextureID
	layer int
}

type softFramebuffer struct {
	colors [texture.MaxColorAttachments]attachment
	depth  attachment
}

type softMesh struct {
	vertices []model.Vertex
	indices  []uint32
}

// softDevice is the implementation of the Device interface.
type softDevice struct {
	next uint32

	programs     map[renderer.ProgramID]*softProgram
	textures     map[renderer.TextureID]*softTexture
	framebuffers map[renderer.FramebufferID]*softFramebuffer
	meshes       map[renderer.MeshID]*softMesh

	program     *softProgram
	framebuffer renderer.FramebufferID
	slots       [renderer.TextureSlotCount]renderer.TextureID
	viewport    [4]int

	cullMode  gputypes.CullMode
	depthTest bool
	depthFunc gputypes.CompareFunction
	blend     material.BlendFunction
	lineWidth float32

	window      *softFramebuffer
	windowColor renderer.TextureID
	windowDepth renderer.TextureID

	frames    int
	triangles int
	fragments int
}

// Device is a CPU renderer.Device with read access to its window.
type Device interface {
	renderer.Device

	// WindowPixels returns the default framebuffer's colour as RGBA floats, row by row from the
	// top.
	//
	// Returns:
	//   - int, int: the window size
	//   - []float32: a copy of the pixels
	WindowPixels() (int, int, []float32)

	// Frames returns the number of Flush calls.
	Frames() int

	// Counters returns the triangles rasterized and fragments shaded since the last Flush.
	Counters() (triangles, fragments int)
}

var _ Device = &softDevice{}

// NewDevice creates a soft device with a window of the configured size.
//
// Parameters:
//   - options: functional options applied to the device
//
// Returns:
//   - Device: the device
func NewDevice(options ...DeviceBuilderOption) Device {
	d := &softDevice{
		programs:     make(map[renderer.ProgramID]*softProgram),
		textures:     make(map[renderer.TextureID]*softTexture),
		framebuffers: make(map[renderer.FramebufferID]*softFramebuffer),
		meshes:       make(map[renderer.MeshID]*softMesh),
		cullMode:     gputypes.CullModeBack,
		depthTest:    true,
		depthFunc:    gputypes.CompareFunctionLess,
		lineWidth:    1,
		window:       &softFramebuffer{},
	}
	cfg := deviceConfig{width: 640, height: 480}
	for _, opt := range options {
		opt(&cfg)
	}
	d.Resize(cfg.width, cfg.height)
	d.viewport = [4]int{0, 0, cfg.width, cfg.height}
	return d
}

func (d *softDevice) id() uint32 {
	d.next++
	return d.next
}

func (d *softDevice) CompileProgram(vs, fs shader.Shader) (renderer.ProgramID, string, error) {
	if vs.VertexKernel() == nil {
		return 0, fmt.Sprintf("%s: no vertex kernel", vs.Name()), fmt.Errorf("soft_backend: shader %q has no vertex kernel", vs.Name())
	}
	if fs.FragmentKernel() == nil {
		return 0, fmt.Sprintf("%s: no fragment kernel", fs.Name()), fmt.Errorf("soft_backend: shader %q has no fragment kernel", fs.Name())
	}
	id := renderer.ProgramID(d.id())
	d.programs[id] = &softProgram{
		name:     vs.Key() + "+" + fs.Key(),
		vertex:   vs.VertexKernel(),
		fragment: fs.FragmentKernel(),
		names:    make(map[string]int32),
	}
	return id, "", nil
}

func (d *softDevice) DeleteProgram(id renderer.ProgramID) {
	if p, ok := d.programs[id]; ok && p == d.program {
		d.program = nil
	}
	delete(d.programs, id)
}

func (d *softDevice) UseProgram(id renderer.ProgramID) {
	d.program = d.programs[id]
}

func (d *softDevice) UniformLocation(id renderer.ProgramID, name string) int32 {
	p, ok := d.programs[id]
	if !ok {
		return -1
	}
	return p.location(name)
}

func (d *softDevice) SetUniform(location int32, value any) {
	if d.program == nil || location < 0 || int(location) >= len(d.program.values) {
		return
	}
	if ld, ok := value.(*shader.LightData); ok {
		cp := *ld
		value = &cp
	}
	d.program.values[location] = value
}

func (d *softDevice) SetCullMode(mode gputypes.CullMode) {
	d.cullMode = mode
}

func (d *softDevice) SetDepthTest(enabled bool) {
	d.depthTest = enabled
}

func (d *softDevice) SetDepthFunc(fn gputypes.CompareFunction) {
	d.depthFunc = fn
}

func (d *softDevice) SetBlendFunction(fn material.BlendFunction) {
	d.blend = fn
}

func (d *softDevice) SetLineWidth(width float32) {
	d.lineWidth = width
}

func (d *softDevice) CreateTexture(settings texture.Settings, width, height int) renderer.TextureID {
	id := renderer.TextureID(d.id())
	t := newSoftTexture(settings, width, height)
	if t.isDepth() {
		t.fill([4]float32{1, 1, 1, 1})
	}
	d.textures[id] = t
	return id
}

func (d *softDevice) DeleteTexture(id renderer.TextureID) {
	delete(d.textures, id)
	for i, s := range d.slots {
		if s == id {
			d.slots[i] = 0
		}
	}
}

func (d *softDevice) WriteTexture(id renderer.TextureID, width, height int, rgba []float32) {
	t, ok := d.textures[id]
	if !ok {
		return
	}
	if t.width != width || t.height != height {
		logger.Logger().Warn("soft texture write size mismatch", "texture", id,
			"want", [2]int{t.width, t.height}, "got", [2]int{width, height})
		return
	}
	copy(t.data, rgba)
}

func (d *softDevice) ReadTexture(id renderer.TextureID, layer int) (int, int, []float32) {
	t, ok := d.textures[id]
	if !ok {
		return 0, 0, nil
	}
	return t.width, t.height, append([]float32(nil), t.layer(layer)...)
}

func (d *softDevice) BindTexture(slot int, id renderer.TextureID) {
	if slot < 0 || slot >= len(d.slots) {
		return
	}
	d.slots[slot] = id
}

func (d *softDevice) CreateFramebuffer() renderer.FramebufferID {
	id := renderer.FramebufferID(d.id())
	d.framebuffers[id] = &softFramebuffer{}
	return id
}

func (d *softDevice) DeleteFramebuffer(id renderer.FramebufferID) {
	if id == renderer.DefaultFramebuffer {
		return
	}
	if d.framebuffer == id {
		d.framebuffer = renderer.DefaultFramebuffer
	}
	delete(d.framebuffers, id)
}

func (d *softDevice) AttachTexture(fb renderer.FramebufferID, att texture.Attachment, tex renderer.TextureID, layer int) {
	f, ok := d.framebuffers[fb]
	if !ok {
		return
	}
	switch {
	case att.IsColor():
		f.colors[att] = attachment{tex: tex, layer: layer}
	case att == texture.DepthAttachment, att == texture.DepthStencilAttachment:
		f.depth = attachment{tex: tex, layer: layer}
	}
}

func (d *softDevice) BindFramebuffer(fb renderer.FramebufferID) {
	if _, ok := d.framebuffers[fb]; !ok && fb != renderer.DefaultFramebuffer {
		fb = renderer.DefaultFramebuffer
	}
	d.framebuffer = fb
}

func (d *softDevice) bound() *softFramebuffer {
	if f, ok := d.framebuffers[d.framebuffer]; ok {
		return f
	}
	return d.window
}

func (d *softDevice) SetViewport(x, y, width, height int) {
	d.viewport = [4]int{x, y, width, height}
}

func (d *softDevice) Clear(bits renderer.ClearBits, color [4]float32) {
	f := d.bound()
	if bits&renderer.ClearColorBit != 0 {
		for _, a := range f.colors {
			if t := d.textures[a.tex]; t != nil {
				t.fillLayer(a.layer, color)
			}
		}
	}
	if bits&renderer.ClearDepthBit != 0 {
		if t := d.textures[f.depth.tex]; t != nil {
			t.fillLayer(f.depth.layer, [4]float32{1, 1, 1, 1})
		}
	}
}

func (d *softDevice) CopyTexture(src, dst renderer.TextureID) {
	s, okS := d.textures[src]
	t, okT := d.textures[dst]
	if !okS || !okT || s.width != t.width || s.height != t.height {
		return
	}
	copy(t.layer(0), s.layer(0))
}

func (d *softDevice) UploadMesh(m *model.Mesh) renderer.MeshID {
	id := renderer.MeshID(d.id())
	d.meshes[id] = &softMesh{
		vertices: append([]model.Vertex(nil), m.Vertices...),
		indices:  append([]uint32(nil), m.Indices...),
	}
	return id
}

func (d *softDevice) DeleteMesh(id renderer.MeshID) {
	delete(d.meshes, id)
}

func (d *softDevice) Resize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if t := d.textures[d.windowColor]; t != nil && t.width == width && t.height == height {
		return
	}
	delete(d.textures, d.windowColor)
	delete(d.textures, d.windowDepth)

	s := texture.DefaultSettings()
	s.Format = gputypes.TextureFormatBGRA8Unorm
	d.windowColor = d.CreateTexture(s, width, height)
	d.windowDepth = d.CreateTexture(texture.NewDepthTexture("window/depth", width, height, false).Settings, width, height)
	d.window.colors[0] = attachment{tex: d.windowColor}
	d.window.depth = attachment{tex: d.windowDepth}
}

func (d *softDevice) Flush() {
	d.frames++
	d.triangles, d.fragments = 0, 0
}

func (d *softDevice) WindowPixels() (int, int, []float32) {
	return d.ReadTexture(d.windowColor, 0)
}

func (d *softDevice) Frames() int {
	return d.frames
}

func (d *softDevice) Counters() (triangles, fragments int) {
	return d.triangles, d.fragments
}
