package soft_backend

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
)

// softProgram pairs the Go kernels of a vertex and fragment shader with a uniform table.
type softProgram struct {
	name     string
	vertex   shader.VertexKernel
	fragment shader.FragmentKernel
	names    map[string]int32
	values   []any
}

func (p *softProgram) location(name string) int32 {
	if loc, ok := p.names[name]; ok {
		return loc
	}
	loc := int32(len(p.values))
	p.names[name] = loc
	p.values = append(p.values, nil)
	return loc
}

// bindings exposes the current program's uniforms and the bound textures to kernels.
type bindings struct {
	d *softDevice
	p *softProgram
}

var _ shader.Bindings = bindings{}

func (b bindings) Value(name string) (any, bool) {
	loc, ok := b.p.names[name]
	if !ok || b.p.values[loc] == nil {
		return nil, false
	}
	return b.p.values[loc], true
}

func (b bindings) Float(name string) float32 {
	v, _ := b.Value(name)
	switch x := v.(type) {
	case float32:
		return x
	case float64:
		return float32(x)
	case int32:
		return float32(x)
	case int:
		return float32(x)
	}
	return 0
}

func (b bindings) Int(name string) int32 {
	v, _ := b.Value(name)
	switch x := v.(type) {
	case int32:
		return x
	case int:
		return int32(x)
	case uint32:
		return int32(x)
	case float32:
		return int32(x)
	case bool:
		if x {
			return 1
		}
	}
	return 0
}

func (b bindings) Bool(name string) bool {
	v, _ := b.Value(name)
	switch x := v.(type) {
	case bool:
		return x
	case int32:
		return x != 0
	case int:
		return x != 0
	case float32:
		return x != 0
	}
	return false
}

func (b bindings) Vec2(name string) [2]float32 {
	v, _ := b.Value(name)
	x, _ := v.([2]float32)
	return x
}

func (b bindings) Vec3(name string) [3]float32 {
	v, _ := b.Value(name)
	switch x := v.(type) {
	case [3]float32:
		return x
	case [4]float32:
		return [3]float32{x[0], x[1], x[2]}
	}
	return [3]float32{}
}

func (b bindings) Vec4(name string) [4]float32 {
	v, _ := b.Value(name)
	switch x := v.(type) {
	case [4]float32:
		return x
	case [3]float32:
		return [4]float32{x[0], x[1], x[2], 1}
	}
	return [4]float32{}
}

func (b bindings) Mat4(name string) [16]float32 {
	v, _ := b.Value(name)
	x, _ := v.([16]float32)
	return x
}

func (b bindings) bound(slot int) *softTexture {
	if slot < 0 || slot >= renderer.TextureSlotCount {
		return nil
	}
	return b.d.textures[b.d.slots[slot]]
}

func (b bindings) Sample(slot int, uv [2]float32) [4]float32 {
	return b.SampleLayer(slot, uv, 0)
}

func (b bindings) SampleLayer(slot int, uv [2]float32, layer int) [4]float32 {
	t := b.bound(slot)
	if t == nil {
		return [4]float32{}
	}
	return t.sample(uv, layer)
}

func (b bindings) SampleCube(slot int, dir [3]float32) [4]float32 {
	t := b.bound(slot)
	if t == nil {
		return [4]float32{}
	}
	face, u, v := texture.CubeFaceUV(dir)
	return t.sample([2]float32{u, v}, int(face))
}

func (b bindings) TextureSize(slot int) (int, int) {
	t := b.bound(slot)
	if t == nil {
		return 0, 0
	}
	return t.width, t.height
}

func (b bindings) Bound(slot int) bool {
	return b.bound(slot) != nil
}
