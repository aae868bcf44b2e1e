package wgpu_backend

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/engine/logger"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"
)

// ErrMissingSource is returned when a shader has no WGSL source to build a module from.
var ErrMissingSource = errors.New("wgpu_backend: shader has no WGSL source")

const (
	vertexUniformBinding   = 0
	fragmentUniformBinding = 1
)

// uniformBlock is the CPU copy of one stage's `Uniforms` struct.
type uniformBlock struct {
	binding uint32
	layout  shader.UniformLayout
	data    []byte
}

type uniformRef struct {
	block  int
	member shader.UniformMember
}

type wgpuProgram struct {
	id       renderer.ProgramID
	name     string
	vertex   *wgpu.ShaderModule
	fragment *wgpu.ShaderModule
	vsEntry  string
	fsEntry  string

	blocks    []*uniformBlock
	locations map[string]int32
	refs      [][]uniformRef
	textures  []shader.TextureBinding

	uniformLayout  *wgpu.BindGroupLayout
	textureLayout  *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	uniformGroup   *wgpu.BindGroup
}

func (p *wgpuProgram) release() {
	if p.uniformGroup != nil {
		p.uniformGroup.Release()
	}
	if p.pipelineLayout != nil {
		p.pipelineLayout.Release()
	}
	if p.textureLayout != nil {
		p.textureLayout.Release()
	}
	if p.uniformLayout != nil {
		p.uniformLayout.Release()
	}
	if p.fragment != nil {
		p.fragment.Release()
	}
	if p.vertex != nil {
		p.vertex.Release()
	}
}

// mergeTextureBindings unions the texture slots of both stages, keeping the first declaration of
// a slot.
func mergeTextureBindings(vs, fs []shader.TextureBinding) []shader.TextureBinding {
	seen := make(map[int]bool, len(vs)+len(fs))
	var out []shader.TextureBinding
	for _, tb := range append(append([]shader.TextureBinding(nil), vs...), fs...) {
		if seen[tb.Slot] {
			continue
		}
		seen[tb.Slot] = true
		out = append(out, tb)
	}
	return out
}

// buildLocations numbers the uniform members of every block by name. A name present in both
// stages shares one location.
func buildLocations(blocks []*uniformBlock) (map[string]int32, [][]uniformRef) {
	locations := make(map[string]int32)
	var refs [][]uniformRef
	for bi, b := range blocks {
		for _, m := range b.layout.Members {
			loc, ok := locations[m.Name]
			if !ok {
				loc = int32(len(refs))
				locations[m.Name] = loc
				refs = append(refs, nil)
			}
			refs[loc] = append(refs[loc], uniformRef{block: bi, member: m})
		}
	}
	return locations, refs
}

func (d *wgpuDevice) shaderModule(s shader.Shader) (*wgpu.ShaderModule, error) {
	if s.Source() == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingSource, s.Key())
	}
	return d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: s.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.Source(),
		},
	})
}

// CompileProgram validates both sources with naga, then creates the shader modules, bind group
// layouts and the uniform bind group of the program.
func (d *wgpuDevice) CompileProgram(vs, fs shader.Shader) (renderer.ProgramID, string, error) {
	var logs []string
	for _, s := range []shader.Shader{vs, fs} {
		log, err := s.Compile()
		if log != "" {
			logs = append(logs, log)
		}
		if err != nil {
			return 0, strings.Join(logs, "\n"), err
		}
	}
	p, err := d.newProgram(vs, fs)
	if err != nil {
		if p != nil {
			p.release()
		}
		return 0, strings.Join(logs, "\n"), err
	}
	d.programs[p.id] = p
	return p.id, strings.Join(logs, "\n"), nil
}

func (d *wgpuDevice) newProgram(vs, fs shader.Shader) (*wgpuProgram, error) {
	p := &wgpuProgram{
		id:       renderer.ProgramID(d.id()),
		name:     vs.Name() + "+" + fs.Name(),
		vsEntry:  vs.EntryPoint(),
		fsEntry:  fs.EntryPoint(),
		textures: mergeTextureBindings(vs.TextureBindings(), fs.TextureBindings()),
	}
	var err error
	if p.vertex, err = d.shaderModule(vs); err != nil {
		return p, err
	}
	if p.fragment, err = d.shaderModule(fs); err != nil {
		return p, err
	}

	var uniformEntries []wgpu.BindGroupLayoutEntry
	for _, stage := range []struct {
		s          shader.Shader
		binding    uint32
		visibility wgpu.ShaderStage
	}{
		{vs, vertexUniformBinding, wgpu.ShaderStageVertex},
		{fs, fragmentUniformBinding, wgpu.ShaderStageFragment},
	} {
		layout, ok := stage.s.UniformLayout()
		if !ok || layout.Size == 0 {
			continue
		}
		p.blocks = append(p.blocks, &uniformBlock{binding: stage.binding, layout: layout, data: make([]byte, layout.Size)})
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    stage.binding,
			Visibility: stage.visibility,
		}
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.HasDynamicOffset = true
		entry.Buffer.MinBindingSize = layout.Size
		uniformEntries = append(uniformEntries, entry)
	}
	p.locations, p.refs = buildLocations(p.blocks)

	p.uniformLayout, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   p.name + " uniforms",
		Entries: uniformEntries,
	})
	if err != nil {
		return p, fmt.Errorf("failed to create bind group layout for group 0: %w", err)
	}
	groupEntries := make([]wgpu.BindGroupEntry, len(p.blocks))
	for i, b := range p.blocks {
		groupEntries[i] = wgpu.BindGroupEntry{
			Binding: b.binding,
			Buffer:  d.ring,
			Offset:  0,
			Size:    b.layout.Size,
		}
	}
	p.uniformGroup, err = d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.name + " uniforms",
		Layout:  p.uniformLayout,
		Entries: groupEntries,
	})
	if err != nil {
		return p, fmt.Errorf("failed to create uniform bind group: %w", err)
	}

	layouts := []*wgpu.BindGroupLayout{p.uniformLayout}
	if len(p.textures) > 0 {
		p.textureLayout, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   p.name + " textures",
			Entries: textureLayoutEntries(p.textures),
		})
		if err != nil {
			return p, fmt.Errorf("failed to create bind group layout for group %d: %w", shader.TextureGroup, err)
		}
		layouts = append(layouts, p.textureLayout)
	}
	p.pipelineLayout, err = d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.name,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return p, err
	}
	return p, nil
}

// textureLayoutEntries lays out each slot as a texture at binding 2*slot and its sampler at
// 2*slot+1.
func textureLayoutEntries(bindings []shader.TextureBinding) []wgpu.BindGroupLayoutEntry {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, 2*len(bindings))
	for _, tb := range bindings {
		tex := wgpu.BindGroupLayoutEntry{
			Binding:    uint32(2 * tb.Slot),
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
		}
		smp := wgpu.BindGroupLayoutEntry{
			Binding:    uint32(2*tb.Slot + 1),
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
		}
		tex.Texture.ViewDimension = viewDimension(tb.Dimension)
		if tb.Dimension == shader.TextureDimensionDepth2D {
			tex.Texture.SampleType = wgpu.TextureSampleTypeDepth
			smp.Sampler.Type = wgpu.SamplerBindingTypeNonFiltering
		} else {
			tex.Texture.SampleType = wgpu.TextureSampleTypeFloat
			smp.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		}
		entries = append(entries, tex, smp)
	}
	return entries
}

func (d *wgpuDevice) DeleteProgram(id renderer.ProgramID) {
	p, ok := d.programs[id]
	if !ok {
		return
	}
	d.submit()
	for k, pl := range d.pipelines {
		if k.program == id {
			pl.Release()
			delete(d.pipelines, k)
		}
	}
	d.dropTextureGroups()
	p.release()
	delete(d.programs, id)
	if d.program == p {
		d.program = nil
	}
}

func (d *wgpuDevice) UseProgram(id renderer.ProgramID) {
	d.program = d.programs[id]
}

func (d *wgpuDevice) UniformLocation(id renderer.ProgramID, name string) int32 {
	p, ok := d.programs[id]
	if !ok {
		return -1
	}
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	return -1
}

// SetUniform encodes value into every block member the location refers to. Values larger than the
// member are truncated.
func (d *wgpuDevice) SetUniform(location int32, value any) {
	p := d.program
	if p == nil || location < 0 || int(location) >= len(p.refs) {
		return
	}
	for _, ref := range p.refs[location] {
		enc := encodeUniform(ref.member.Type, value)
		if enc == nil {
			logger.Logger().Debug("unsupported uniform value", "program", p.name,
				"uniform", ref.member.Name, "type", fmt.Sprintf("%T", value))
			continue
		}
		block := p.blocks[ref.block]
		end := min(ref.member.Offset+ref.member.Size, uint64(len(block.data)))
		copy(block.data[ref.member.Offset:end], enc)
	}
}

// uniformScalars flattens a uniform value into its components.
func uniformScalars(value any) ([]float64, bool) {
	switch v := value.(type) {
	case float32:
		return []float64{float64(v)}, true
	case float64:
		return []float64{v}, true
	case int32:
		return []float64{float64(v)}, true
	case int:
		return []float64{float64(v)}, true
	case uint32:
		return []float64{float64(v)}, true
	case bool:
		if v {
			return []float64{1}, true
		}
		return []float64{0}, true
	case [2]float32:
		return floats64(v[:]), true
	case [3]float32:
		return floats64(v[:]), true
	case [4]float32:
		return floats64(v[:]), true
	case [16]float32:
		return floats64(v[:]), true
	case []float32:
		return floats64(v), true
	case [4]int32:
		out := make([]float64, 4)
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, true
	}
	return nil, false
}

func floats64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// encodeUniform converts a value to the bytes of a WGSL member type. Integer members take the
// value as i32 or u32; a vec3 value written to a vec4 member gets w = 1.
//
// Parameters:
//   - typ: the WGSL type of the member, such as "f32", "vec4<f32>" or "LightData"
//   - value: the uniform value
//
// Returns:
//   - []byte: the encoded value, or nil when the value type is not supported
func encodeUniform(typ string, value any) []byte {
	switch v := value.(type) {
	case shader.CameraData:
		return v.Marshal()
	case *shader.CameraData:
		return v.Marshal()
	case *shader.LightData:
		return v.Marshal()
	case []byte:
		return v
	}
	scalars, ok := uniformScalars(value)
	if !ok {
		return nil
	}
	if strings.HasPrefix(typ, "vec4") && len(scalars) == 3 {
		scalars = append(scalars, 1)
	}
	signed := strings.Contains(typ, "i32")
	unsigned := strings.Contains(typ, "u32")
	out := make([]byte, 4*len(scalars))
	for i, s := range scalars {
		var bits uint32
		switch {
		case signed:
			bits = uint32(int32(s))
		case unsigned:
			bits = uint32(s)
		default:
			bits = math.Float32bits(float32(s))
		}
		binary.LittleEndian.PutUint32(out[i*4:], bits)
	}
	return out
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) / align * align
}

// uniformFootprint returns the ring bytes one draw of p occupies.
func uniformFootprint(p *wgpuProgram) uint64 {
	var need uint64
	for _, b := range p.blocks {
		need += alignUp(uint64(len(b.data)), uniformAlign)
	}
	return need
}

// pushUniforms copies the current program's blocks into the ring and returns their dynamic
// offsets in binding order. It may submit the recorded work when the ring is full, so it must run
// before the draw's pass is opened. It reports false, and writes nothing, when the blocks of a
// single draw do not fit an empty ring.
func (d *wgpuDevice) pushUniforms(p *wgpuProgram) ([]uint32, bool) {
	need := uniformFootprint(p)
	if need > uniformRingSize {
		logger.Logger().Error("uniform blocks exceed the ring", "program", p.name, "bytes", need, "ring", uniformRingSize)
		return nil, false
	}
	if d.ringOffset+need > uniformRingSize {
		d.submit()
		d.ringOffset = 0
	}
	offsets := make([]uint32, len(p.blocks))
	for i, b := range p.blocks {
		d.queue.WriteBuffer(d.ring, d.ringOffset, b.data)
		offsets[i] = uint32(d.ringOffset)
		d.ringOffset += alignUp(uint64(len(b.data)), uniformAlign)
	}
	return offsets, true
}

// sampleable reports whether a texture can be bound to a slot of the given dimension while the
// current pass is open.
func (d *wgpuDevice) sampleable(t *wgpuTexture, id renderer.TextureID, dim shader.TextureDimension) bool {
	if t == nil || t.samples > 1 || d.targets.attached[id] {
		return false
	}
	if dim == shader.TextureDimensionDepth2D {
		return isDepthFormat(t.format)
	}
	if isDepthFormat(t.format) {
		return false
	}
	if dim == shader.TextureDimensionCube {
		return t.layers == 6 && t.width == t.height
	}
	return true
}

// textureGroup returns the bind group for the textures bound to the current program's slots.
// Slots without a usable texture read a transparent black stand-in.
func (d *wgpuDevice) textureGroup(p *wgpuProgram) (*wgpu.BindGroup, error) {
	if len(p.textures) == 0 {
		return nil, nil
	}
	type resolved struct {
		t   *wgpuTexture
		key string
	}
	res := make([]resolved, len(p.textures))
	var key strings.Builder
	fmt.Fprintf(&key, "%d", p.id)
	for i, tb := range p.textures {
		id := d.slots[tb.Slot]
		t := d.textures[id]
		if !d.sampleable(t, id, tb.Dimension) {
			dummy, err := d.dummy(tb.Dimension)
			if err != nil {
				return nil, err
			}
			t, id = dummy, 0
		}
		res[i] = resolved{t: t}
		fmt.Fprintf(&key, ":%d/%d", tb.Slot, id)
	}
	if g, ok := d.textureGroups[key.String()]; ok {
		return g, nil
	}

	entries := make([]wgpu.BindGroupEntry, 0, 2*len(p.textures))
	for i, tb := range p.textures {
		t := res[i].t
		view, err := t.view(viewDimension(tb.Dimension), -1)
		if err != nil {
			return nil, err
		}
		settings := t.settings
		if tb.Dimension == shader.TextureDimensionDepth2D {
			settings = texture.DefaultSettings()
			settings.MinFilter, settings.MagFilter = gputypes.FilterModeNearest, gputypes.FilterModeNearest
		}
		smp, err := d.sampler(settings)
		if err != nil {
			return nil, err
		}
		entries = append(entries,
			wgpu.BindGroupEntry{Binding: uint32(2 * tb.Slot), TextureView: view},
			wgpu.BindGroupEntry{Binding: uint32(2*tb.Slot + 1), Sampler: smp},
		)
	}
	g, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.name + " textures",
		Layout:  p.textureLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	d.textureGroups[key.String()] = g
	return g, nil
}
