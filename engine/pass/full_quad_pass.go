package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/gogpu/gputypes"
)

// FullQuadParams configures one full screen draw.
type FullQuadParams struct {
	// FrameBuffer receives the draw. nil is the window.
	FrameBuffer *texture.Framebuffer
	// FragmentShader runs once per covered pixel. Its inputs are whatever is bound to the texture
	// slots when the pass renders.
	FragmentShader shader.Shader
	BlendFunction  material.BlendFunction
	// ClearFrameBuffer clears colour and depth to ClearColor before drawing.
	ClearFrameBuffer bool
	ClearColor       [4]float32
	// Camera and Lights are fed to fragment shaders that read them.
	Camera camera.Camera
	Lights []light.Light
}

// fullQuadPass is the implementation of the FullQuadPass interface.
type fullQuadPass struct {
	r        renderer.Renderer
	params   FullQuadParams
	vertex   shader.Shader
	material material.Material
}

// FullQuadPass draws one clip space quad with a caller supplied fragment shader. A single
// instance is shared by many passes within a frame, so every PreRender rebuilds the whole render
// state from the current parameters.
type FullQuadPass interface {
	Pass

	// Params returns the current parameters.
	Params() FullQuadParams

	// SetParams replaces the parameters used by the next run.
	SetParams(p FullQuadParams)
}

var _ FullQuadPass = &fullQuadPass{}

// NewFullQuadPass creates a full screen quad pass drawing through r. The fragment shader defaults
// to a plain copy of slot 0.
//
// Parameters:
//   - r: the shared renderer
//
// Returns:
//   - FullQuadPass: the pass
func NewFullQuadPass(r renderer.Renderer) FullQuadPass {
	p := &fullQuadPass{
		r:      r,
		vertex: builtin.Get(builtin.FullQuadVertex),
	}
	fs := builtin.Get(builtin.CopyFragment)
	p.params.FragmentShader = fs
	p.material = material.NewMaterial(
		material.WithName("full_quad"),
		material.WithType(material.MaterialTypeCustom),
		material.WithShaders(p.vertex, fs),
		material.WithRenderState(p.renderState()),
	)
	if err := p.material.Init(); err != nil {
		panic(fmt.Sprintf("pass: full quad material: %v", err))
	}
	return p
}

func (p *fullQuadPass) Params() FullQuadParams {
	return p.params
}

func (p *fullQuadPass) SetParams(params FullQuadParams) {
	p.params = params
}

func (p *fullQuadPass) renderState() material.RenderState {
	rs := material.DefaultRenderState()
	rs.CullMode = gputypes.CullModeNone
	rs.DepthTestEnabled = false
	rs.BlendFunction = p.params.BlendFunction
	return rs
}

func (p *fullQuadPass) PreRender() {
	p.r.SetOverrideMaterial(nil)
	p.r.SetFramebuffer(p.params.FrameBuffer, p.params.ClearFrameBuffer, p.params.ClearColor)
	p.r.EnableDepthTest(false)

	fs := p.params.FragmentShader
	if fs == nil {
		panic("pass: full quad pass without a fragment shader")
	}
	p.material.SetShaders(p.vertex, fs)
	p.material.SetRenderState(p.renderState())
}

func (p *fullQuadPass) Render() {
	p.r.DrawFullQuad(p.material, p.params.Camera, p.params.Lights)
}

func (p *fullQuadPass) PostRender() {
	p.r.EnableDepthTest(true)
}
