package shader

import (
	"fmt"
	"os"
)

// ShaderBuilderOption is a functional option for configuring a Shader.
type ShaderBuilderOption func(*shader)

// WithSource sets the raw WGSL source.
//
// Parameters:
//   - source: WGSL source, may contain include and defines directives
//
// Returns:
//   - ShaderBuilderOption: a function that applies the source option
func WithSource(source string) ShaderBuilderOption {
	return func(s *shader) {
		s.rawSource = source
	}
}

// WithSourceFromPath reads the raw WGSL source from a file. A read failure panics.
//
// Parameters:
//   - path: the file path to read WGSL source from
//
// Returns:
//   - ShaderBuilderOption: a function that applies the source option
func WithSourceFromPath(path string) ShaderBuilderOption {
	return func(s *shader) {
		data, err := os.ReadFile(path)
		if err != nil {
			panic(fmt.Sprintf("shader: failed to read source file %q: %v", path, err))
		}
		s.rawSource = string(data)
	}
}

// WithEntryPoint sets the entry point used when the source does not mark one.
//
// Parameters:
//   - entryPoint: the WGSL function name
//
// Returns:
//   - ShaderBuilderOption: a function that applies the entry point option
func WithEntryPoint(entryPoint string) ShaderBuilderOption {
	return func(s *shader) {
		s.entryPoint = entryPoint
	}
}

// WithVertexKernel sets the Go kernel run by the software device.
//
// Parameters:
//   - k: the vertex kernel
//
// Returns:
//   - ShaderBuilderOption: a function that applies the kernel option
func WithVertexKernel(k VertexKernel) ShaderBuilderOption {
	return func(s *shader) {
		s.vertexKernel = k
	}
}

// WithFragmentKernel sets the Go kernel run by the software device.
//
// Parameters:
//   - k: the fragment kernel
//
// Returns:
//   - ShaderBuilderOption: a function that applies the kernel option
func WithFragmentKernel(k FragmentKernel) ShaderBuilderOption {
	return func(s *shader) {
		s.fragmentKernel = k
	}
}

// WithUniforms declares the built-in uniforms the shader consumes. Without it they are detected
// from the members of the source's Uniforms struct.
//
// Parameters:
//   - uniforms: the built-ins the shader reads
//
// Returns:
//   - ShaderBuilderOption: a function that applies the uniforms option
func WithUniforms(uniforms ...Uniform) ShaderBuilderOption {
	return func(s *shader) {
		s.uniforms = append([]Uniform{}, uniforms...)
	}
}

// WithDefine sets a define before the source is processed.
//
// Parameters:
//   - name: the WGSL constant name
//   - value: the WGSL constant expression
//
// Returns:
//   - ShaderBuilderOption: a function that applies the define option
func WithDefine(name, value string) ShaderBuilderOption {
	return func(s *shader) {
		s.defines[name] = value
	}
}

// WithParameter sets the initial value of a custom parameter.
//
// Parameters:
//   - name: the uniform name
//   - value: one of the types accepted by SetParameter
//
// Returns:
//   - ShaderBuilderOption: a function that applies the parameter option
func WithParameter(name string, value any) ShaderBuilderOption {
	return func(s *shader) {
		s.SetParameter(name, value)
	}
}

// WithPreProcessor replaces the default pre-processor, e.g. to register extra chunks.
//
// Parameters:
//   - pp: the pre-processor to use
//
// Returns:
//   - ShaderBuilderOption: a function that applies the pre-processor option
func WithPreProcessor(pp PreProcessor) ShaderBuilderOption {
	return func(s *shader) {
		s.pp = pp
	}
}
