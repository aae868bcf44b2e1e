package renderer

import (
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/gogpu/gputypes"
)

// ProgramID, TextureID, FramebufferID and MeshID are device handles. Zero is never a valid
// handle; binding zero unbinds, and framebuffer zero is the window's default framebuffer.
type (
	ProgramID     uint32
	TextureID     uint32
	FramebufferID uint32
	MeshID        uint32
)

// DefaultFramebuffer is the window's framebuffer.
const DefaultFramebuffer FramebufferID = 0

// ClearBits selects the buffers Clear resets.
type ClearBits int

const (
	// ClearColorBit clears every colour attachment to the clear colour.
	ClearColorBit ClearBits = 1 << iota
	// ClearDepthBit clears the depth attachment to 1.
	ClearDepthBit
)

// Device is the GPU facing backend of the Renderer. Its calls mirror a classic immediate mode
// state machine: the Renderer decides what changed and the device applies each change as it
// arrives. A device is only used from the render goroutine.
type Device interface {
	// CompileProgram links a vertex and fragment shader pair.
	//
	// Parameters:
	//   - vs: the vertex shader
	//   - fs: the fragment shader
	//
	// Returns:
	//   - ProgramID: the program handle, zero on failure
	//   - string: the compiler or linker log
	//   - error: a non-nil error when the program cannot be used
	CompileProgram(vs, fs shader.Shader) (ProgramID, string, error)

	// DeleteProgram releases a program.
	DeleteProgram(id ProgramID)

	// UseProgram makes a program current for SetUniform and DrawMesh.
	UseProgram(id ProgramID)

	// UniformLocation looks up a uniform of a program by name.
	//
	// Returns:
	//   - int32: the location, or -1 when the program does not use the uniform
	UniformLocation(id ProgramID, name string) int32

	// SetUniform sets a uniform of the current program. value is one of the shader parameter
	// types, a shader.CameraData or a *shader.LightData.
	SetUniform(location int32, value any)

	SetCullMode(mode gputypes.CullMode)
	SetDepthTest(enabled bool)
	SetDepthFunc(fn gputypes.CompareFunction)
	SetBlendFunction(fn material.BlendFunction)
	SetLineWidth(width float32)

	// CreateTexture allocates storage for a texture with settings.Layers layers.
	CreateTexture(settings texture.Settings, width, height int) TextureID

	// DeleteTexture releases a texture.
	DeleteTexture(id TextureID)

	// WriteTexture replaces the contents of every layer. rgba holds width*height*4 floats per layer.
	WriteTexture(id TextureID, width, height int, rgba []float32)

	// ReadTexture returns one layer of a texture as RGBA floats.
	ReadTexture(id TextureID, layer int) (width, height int, rgba []float32)

	// BindTexture binds a texture to a sampler slot. Zero unbinds the slot.
	BindTexture(slot int, id TextureID)

	// CreateFramebuffer creates an empty framebuffer.
	CreateFramebuffer() FramebufferID

	// DeleteFramebuffer releases a framebuffer without deleting its attachments.
	DeleteFramebuffer(id FramebufferID)

	// AttachTexture attaches one layer of a texture to a framebuffer slot. A zero texture detaches.
	AttachTexture(fb FramebufferID, att texture.Attachment, tex TextureID, layer int)

	// BindFramebuffer makes fb the render target.
	BindFramebuffer(fb FramebufferID)

	// SetViewport sets the drawing rectangle within the bound framebuffer, origin top left.
	SetViewport(x, y, width, height int)

	// Clear clears the bound framebuffer. The viewport does not limit it.
	Clear(bits ClearBits, color [4]float32)

	// CopyTexture copies the first layer of src into dst. Sizes must match.
	CopyTexture(src, dst TextureID)

	// UploadMesh stores a mesh's vertices and indices.
	UploadMesh(m *model.Mesh) MeshID

	// DeleteMesh releases a mesh.
	DeleteMesh(id MeshID)

	// DrawMesh draws a mesh with the current program and state.
	DrawMesh(id MeshID, topology gputypes.PrimitiveTopology)

	// Resize changes the size of the default framebuffer.
	Resize(width, height int)

	// Flush submits the recorded work and presents the default framebuffer.
	Flush()
}
