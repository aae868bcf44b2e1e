package pass

import (
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/logger"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-render/engine/renderjob"
	"github.com/gogpu/gputypes"
)

// ForwardParams configures the forward pass.
type ForwardParams struct {
	Camera      camera.Camera
	FrameBuffer *texture.Framebuffer
	// Opaque are the forward shaded opaque jobs, drawn first in list order.
	Opaque []renderjob.RenderJob
	// Translucent are the blended jobs, drawn back to front from Camera.
	Translucent []renderjob.RenderJob
	// AO is the ambient occlusion target, or nil when SSAO is off.
	AO *texture.RenderTarget
}

type forwardRenderPass struct {
	r      renderer.Renderer
	params ForwardParams
	sorted []renderjob.RenderJob
	// drawn records the jobs of the last Render in draw order.
	drawn []*renderjob.RenderJob
}

// ForwardRenderPass draws the jobs the deferred path cannot shade over the lit deferred result.
// Each job is lit with its own light list. Two sided translucent jobs are drawn twice, back faces
// first, so their far side blends under their near side.
type ForwardRenderPass interface {
	Pass
	Params() ForwardParams
	SetParams(p ForwardParams)
}

var _ ForwardRenderPass = &forwardRenderPass{}

// NewForwardRenderPass creates a forward pass drawing through r.
func NewForwardRenderPass(r renderer.Renderer) ForwardRenderPass {
	return &forwardRenderPass{r: r}
}

func (p *forwardRenderPass) Params() ForwardParams {
	return p.params
}

func (p *forwardRenderPass) SetParams(params ForwardParams) {
	p.params = params
}

func (p *forwardRenderPass) PreRender() {
	p.r.SetOverrideMaterial(nil)
	p.r.SetFramebuffer(p.params.FrameBuffer, false, [4]float32{})
	p.r.EnableDepthTest(true)
	p.r.SetTexture(builtin.SlotForwardAO, targetTexture(p.params.AO))

	p.sorted = append(p.sorted[:0], p.params.Translucent...)
	if p.params.Camera != nil {
		renderjob.StableSortByDistanceToCamera(p.sorted, p.params.Camera)
	}
	p.drawn = p.drawn[:0]
}

// feedScreenInputs sets the occlusion inputs on forward shaders that read them.
func (p *forwardRenderPass) feedScreenInputs(job *renderjob.RenderJob) {
	fs := job.Material.FragmentShader()
	if fs == nil {
		return
	}
	if _, ok := fs.Parameter(builtin.ParamAOInUse); ok {
		fs.SetParameter(builtin.ParamAOInUse, p.params.AO != nil)
	}
	if _, ok := fs.Parameter(builtin.ParamScreenSize); ok {
		w, h := framebufferSize(p.r, p.params.FrameBuffer)
		fs.SetParameter(builtin.ParamScreenSize, [2]float32{float32(w), float32(h)})
	}
}

func (p *forwardRenderPass) draw(job *renderjob.RenderJob) {
	if !job.Material.Initialized() {
		if err := job.Material.Init(); err != nil {
			logger.Logger().Error("forward material init failed", "material", job.Material.Name(), "error", err)
			return
		}
	}
	p.feedScreenInputs(job)
	p.r.Render(job, p.params.Camera, job.Lights)
	p.drawn = append(p.drawn, job)
}

func (p *forwardRenderPass) Render() {
	for i := range p.params.Opaque {
		job := &p.params.Opaque[i]
		if job.Visible {
			p.draw(job)
		}
	}

	for i := range p.sorted {
		job := &p.sorted[i]
		if !job.Visible {
			continue
		}
		rs := job.Material.RenderState()
		if !rs.IsTwoSided() {
			p.draw(job)
			continue
		}
		front, back := rs, rs
		front.CullMode = gputypes.CullModeFront
		back.CullMode = gputypes.CullModeBack
		job.Material.SetRenderState(front)
		p.draw(job)
		job.Material.SetRenderState(back)
		p.draw(job)
		job.Material.SetRenderState(rs)
	}
}

func (p *forwardRenderPass) PostRender() {
	p.r.SetTexture(builtin.SlotForwardAO, nil)
}
