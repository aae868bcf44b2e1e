package shader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/naga"
)

// ShaderType identifies the pipeline stage a shader runs in.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex stage.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment stage, paired with a vertex shader to form a program.
	ShaderTypeFragment
)

// String returns the stage name.
func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// shader is the implementation of the Shader interface.
type shader struct {
	name       string
	shaderType ShaderType
	rawSource  string
	source     string
	entryPoint string
	uniforms   []Uniform
	params     map[string]any
	defines    map[string]string

	layout    UniformLayout
	hasLayout bool
	textures  []TextureBinding

	vertexKernel   VertexKernel
	fragmentKernel FragmentKernel

	pp PreProcessor
}

// Shader is one stage of a program: an optional WGSL source for GPU devices, an optional Go kernel
// for the software device, the built-in uniforms it consumes and its custom parameters.
type Shader interface {
	// Key identifies the shader variant. It is the name followed by the sorted defines, so two
	// shaders with equal keys produce equal programs.
	//
	// Returns:
	//   - string: the variant key
	Key() string

	// Name returns the shader name without defines.
	Name() string

	// ShaderType returns the stage.
	ShaderType() ShaderType

	// Source returns the pre-processed WGSL source, or an empty string for kernel-only shaders.
	Source() string

	// EntryPoint returns the WGSL entry point function name.
	EntryPoint() string

	// Uniforms lists the built-in uniforms the shader consumes.
	//
	// Returns:
	//   - []Uniform: the built-ins in declaration order
	Uniforms() []Uniform

	// UsesUniform reports whether u is one of Uniforms.
	UsesUniform(u Uniform) bool

	// SetParameter stores a custom parameter fed to the program after the built-ins.
	// Supported types are bool, int32, uint32, float32, [2]float32, [3]float32, [4]float32,
	// [9]float32 and [16]float32. Any other type panics.
	//
	// Parameters:
	//   - name: the uniform name in the shader
	//   - value: the parameter value
	SetParameter(name string, value any)

	// Parameter returns a custom parameter.
	//
	// Returns:
	//   - any: the stored value
	//   - bool: false when the parameter was never set
	Parameter(name string) (any, bool)

	// ParameterNames returns the custom parameter names in sorted order.
	ParameterNames() []string

	// SetDefine sets a define and re-processes the source. The key changes with it.
	//
	// Parameters:
	//   - name: the WGSL constant name
	//   - value: the WGSL constant expression
	SetDefine(name, value string)

	// Define returns the value of a define.
	Define(name string) (string, bool)

	// VertexKernel returns the Go vertex kernel, or nil.
	VertexKernel() VertexKernel

	// FragmentKernel returns the Go fragment kernel, or nil.
	FragmentKernel() FragmentKernel

	// UniformLayout returns the byte layout of the source's Uniforms struct.
	//
	// Returns:
	//   - UniformLayout: the member offsets
	//   - bool: false when the source declares no Uniforms struct
	UniformLayout() (UniformLayout, bool)

	// TextureBindings lists the texture slots the source declares.
	TextureBindings() []TextureBinding

	// Compile validates the WGSL source.
	//
	// Returns:
	//   - string: the compiler log, empty on success
	//   - error: a non-nil error when the source is invalid
	Compile() (string, error)

	// Copy returns an independent shader with the same source, kernels, parameters and defines.
	Copy() Shader
}

var _ Shader = &shader{}

// NewShader creates a new Shader with all specified options applied. The source, if any, is
// pre-processed and parsed for its uniform layout and texture bindings right away.
//
// Parameters:
//   - name: the shader name, the base of its key
//   - shaderType: the stage
//   - options: a variadic list of ShaderBuilderOption functions to configure the shader
//
// Returns:
//   - Shader: the configured shader
func NewShader(name string, shaderType ShaderType, options ...ShaderBuilderOption) Shader {
	if name == "" {
		panic("shader: a shader must have a name")
	}
	s := &shader{
		name:       name,
		shaderType: shaderType,
		params:     make(map[string]any),
		defines:    make(map[string]string),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.pp == nil {
		s.pp = NewPreProcessor()
	}
	s.process()
	if s.uniforms == nil {
		s.uniforms = s.detectUniforms()
	}
	return s
}

func (s *shader) Key() string {
	if len(s.defines) == 0 {
		return s.name
	}
	names := make([]string, 0, len(s.defines))
	for n := range s.defines {
		names = append(names, n)
	}
	sort.Strings(names)
	var sb strings.Builder
	sb.WriteString(s.name)
	for _, n := range names {
		sb.WriteString("|")
		sb.WriteString(n)
		sb.WriteString("=")
		sb.WriteString(s.defines[n])
	}
	return sb.String()
}

func (s *shader) Name() string {
	return s.name
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) Uniforms() []Uniform {
	return s.uniforms
}

func (s *shader) UsesUniform(u Uniform) bool {
	for _, have := range s.uniforms {
		if have == u {
			return true
		}
	}
	return false
}

func (s *shader) SetParameter(name string, value any) {
	switch value.(type) {
	case bool, int32, uint32, float32, [2]float32, [3]float32, [4]float32, [9]float32, [16]float32:
		s.params[name] = value
	default:
		panic(fmt.Sprintf("shader: parameter %q of %s has unsupported type %T", name, s.name, value))
	}
}

func (s *shader) Parameter(name string) (any, bool) {
	v, ok := s.params[name]
	return v, ok
}

func (s *shader) ParameterNames() []string {
	names := make([]string, 0, len(s.params))
	for n := range s.params {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *shader) SetDefine(name, value string) {
	if old, ok := s.defines[name]; ok && old == value {
		return
	}
	s.defines[name] = value
	s.process()
}

func (s *shader) Define(name string) (string, bool) {
	v, ok := s.defines[name]
	return v, ok
}

func (s *shader) VertexKernel() VertexKernel {
	return s.vertexKernel
}

func (s *shader) FragmentKernel() FragmentKernel {
	return s.fragmentKernel
}

func (s *shader) UniformLayout() (UniformLayout, bool) {
	return s.layout, s.hasLayout
}

func (s *shader) TextureBindings() []TextureBinding {
	return s.textures
}

func (s *shader) Compile() (string, error) {
	if s.source == "" {
		return "", nil
	}
	if _, err := naga.Compile(s.source); err != nil {
		return err.Error(), fmt.Errorf("shader: %s failed to compile: %w", s.Key(), err)
	}
	return "", nil
}

func (s *shader) Copy() Shader {
	c := *s
	c.uniforms = append([]Uniform(nil), s.uniforms...)
	c.params = make(map[string]any, len(s.params))
	for k, v := range s.params {
		c.params[k] = v
	}
	c.defines = make(map[string]string, len(s.defines))
	for k, v := range s.defines {
		c.defines[k] = v
	}
	return &c
}

// process runs the pre-processor over the raw source and refreshes everything derived from it.
func (s *shader) process() {
	if s.rawSource == "" {
		s.source = ""
		s.hasLayout = false
		s.layout = UniformLayout{}
		s.textures = nil
		return
	}
	src, err := s.pp.Process(s.rawSource, s.defines)
	if err != nil {
		panic(fmt.Sprintf("shader: failed to pre-process shader source %q: %v", s.name, err))
	}
	s.source = src
	if ep := parseEntryPoint(src, s.shaderType); ep != "" {
		s.entryPoint = ep
	}
	s.layout, s.hasLayout = ParseUniformLayout(src)
	s.textures = ParseTextureBindings(src)
}

// detectUniforms derives the built-in uniform list from the parsed source when none was given.
func (s *shader) detectUniforms() []Uniform {
	var out []Uniform
	for _, u := range AllUniforms() {
		if _, ok := s.layout.Member(u.Name()); ok {
			out = append(out, u)
		}
	}
	return out
}
