package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-render/engine/renderjob"
	"github.com/gogpu/gputypes"
)

// ForwardPreProcessParams configures the normal and depth pre-pass.
type ForwardPreProcessParams struct {
	Camera camera.Camera
	// Jobs are the opaque jobs of the frame, deferred and forward alike.
	Jobs []renderjob.RenderJob
	// DepthTexture is the depth the pre-pass tests and writes, normally the main framebuffer's.
	DepthTexture *texture.DepthTexture
}

type forwardPreProcessPass struct {
	r           renderer.Renderer
	params      ForwardPreProcessParams
	material    material.Material
	framebuffer *texture.Framebuffer
	normal      *texture.RenderTarget
	linearDepth *texture.RenderTarget
}

// ForwardPreProcessPass writes the view space normal and the linear depth of every opaque job,
// the inputs of SSAO and depth of field.
type ForwardPreProcessPass interface {
	Pass
	Params() ForwardPreProcessParams
	SetParams(p ForwardPreProcessParams)

	// InitBuffers sizes both targets. Calls with the current size do nothing.
	InitBuffers(width, height int)

	// Normal returns the view space normal target.
	Normal() *texture.RenderTarget

	// LinearDepth returns the view distance target.
	LinearDepth() *texture.RenderTarget
}

var _ ForwardPreProcessPass = &forwardPreProcessPass{}

// NewForwardPreProcessPass creates the pre-pass drawing through r.
func NewForwardPreProcessPass(r renderer.Renderer) ForwardPreProcessPass {
	p := &forwardPreProcessPass{
		r:           r,
		framebuffer: texture.NewFramebuffer("forward_preprocess"),
		normal: texture.NewRenderTarget("forward_preprocess/normal", 1, 1,
			targetSettings(gputypes.TextureFormatRGBA16Float, gputypes.FilterModeNearest)),
		linearDepth: texture.NewRenderTarget("forward_preprocess/linear_depth", 1, 1,
			targetSettings(gputypes.TextureFormatR32Float, gputypes.FilterModeNearest)),
	}
	p.material = material.NewMaterial(
		material.WithName("forward_preprocess"),
		material.WithType(material.MaterialTypeCustom),
		material.WithShaders(builtin.Get(builtin.DefaultVertex), builtin.Get(builtin.ForwardPreProcessFragment)),
	)
	if err := p.material.Init(); err != nil {
		panic(fmt.Sprintf("pass: forward preprocess material: %v", err))
	}
	return p
}

func (p *forwardPreProcessPass) Params() ForwardPreProcessParams {
	return p.params
}

func (p *forwardPreProcessPass) SetParams(params ForwardPreProcessParams) {
	p.params = params
}

func (p *forwardPreProcessPass) InitBuffers(width, height int) {
	p.normal.ReconstructIfNeeded(width, height)
	p.linearDepth.ReconstructIfNeeded(width, height)
	if p.framebuffer.Attachment(texture.ColorAttachment0) != p.normal {
		p.framebuffer.SetAttachment(texture.ColorAttachment0, p.normal)
		p.framebuffer.SetAttachment(texture.ColorAttachment1, p.linearDepth)
	}
	if !p.framebuffer.Initialized() {
		p.framebuffer.Init(texture.FramebufferSettings{Width: width, Height: height})
	}
	p.framebuffer.ReconstructIfNeeded(width, height)
}

func (p *forwardPreProcessPass) Normal() *texture.RenderTarget {
	return p.normal
}

func (p *forwardPreProcessPass) LinearDepth() *texture.RenderTarget {
	return p.linearDepth
}

func (p *forwardPreProcessPass) PreRender() {
	if p.params.DepthTexture != nil {
		p.framebuffer.AttachDepthTexture(p.params.DepthTexture)
	}
	p.r.SetFramebuffer(p.framebuffer, true, [4]float32{})
	p.r.EnableDepthTest(true)
}

func (p *forwardPreProcessPass) Render() {
	for i := range p.params.Jobs {
		job := &p.params.Jobs[i]
		if !job.Visible || job.Translucent {
			continue
		}
		p.material.CopySurface(job.Material)
		rs := p.material.RenderState()
		rs.BlendFunction = material.BlendNone
		p.material.SetRenderState(rs)
		p.r.SetOverrideMaterial(p.material)
		p.r.Render(job, p.params.Camera, nil)
	}
}

func (p *forwardPreProcessPass) PostRender() {
	p.r.SetOverrideMaterial(nil)
}
