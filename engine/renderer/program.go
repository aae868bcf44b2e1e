package renderer

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
)

// Program is a linked vertex and fragment shader pair. Programs are created and cached by
// Renderer.CreateProgram; a Program whose link failed stays cached with its error.
type Program struct {
	tag       string
	id        ProgramID
	vs        shader.Shader
	fs        shader.Shader
	log       string
	err       error
	locations map[string]int32
}

// programTag keys a program by the shaders it links.
func programTag(vs, fs shader.Shader) string {
	return vs.Key() + "+" + fs.Key()
}

// Tag returns the cache key, the vertex and fragment shader keys joined by "+".
func (p *Program) Tag() string {
	return p.tag
}

// ID returns the device handle, zero when the link failed.
func (p *Program) ID() ProgramID {
	return p.id
}

// VertexShader returns the shader the program was linked from.
func (p *Program) VertexShader() shader.Shader {
	return p.vs
}

// FragmentShader returns the shader the program was linked from.
func (p *Program) FragmentShader() shader.Shader {
	return p.fs
}

// Log returns the compiler and linker output.
func (p *Program) Log() string {
	return p.log
}

// Err returns the link error, or nil.
func (p *Program) Err() error {
	return p.err
}

// location looks a uniform up once and caches the answer, misses included.
func (p *Program) location(d Device, name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := d.UniformLocation(p.id, name)
	p.locations[name] = loc
	return loc
}
