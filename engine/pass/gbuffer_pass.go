package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/logger"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-render/engine/renderjob"
	"github.com/gogpu/gputypes"
)

// gbufferFormats are the attachment formats in builtin.GBuffer* order. Colour alpha marks covered
// pixels for the lighting passes.
var gbufferFormats = [builtin.GBufferAttachmentCount]gputypes.TextureFormat{
	builtin.GBufferPosition:          gputypes.TextureFormatRGBA32Float,
	builtin.GBufferNormal:            gputypes.TextureFormatRGBA16Float,
	builtin.GBufferColor:             gputypes.TextureFormatRGBA8Unorm,
	builtin.GBufferEmissive:          gputypes.TextureFormatRGBA16Float,
	builtin.GBufferLinearDepth:       gputypes.TextureFormatR32Float,
	builtin.GBufferMetallicRoughness: gputypes.TextureFormatRG16Float,
	builtin.GBufferIBL:               gputypes.TextureFormatRGBA16Float,
}

var gbufferNames = [builtin.GBufferAttachmentCount]string{
	"position", "normal", "color", "emissive", "linear_depth", "metallic_roughness", "ibl",
}

// GBufferParams configures the geometry pass.
type GBufferParams struct {
	Camera camera.Camera
	// Jobs are the deferred jobs of the frame. Jobs with Visible unset are skipped.
	Jobs []renderjob.RenderJob
}

// gbufferPass is the implementation of the GBufferPass interface.
type gbufferPass struct {
	r           renderer.Renderer
	params      GBufferParams
	material    material.Material
	framebuffer *texture.Framebuffer
	targets     [builtin.GBufferAttachmentCount]*texture.RenderTarget
}

// GBufferPass rasterizes deferred jobs into a multi attachment framebuffer holding the surface
// attributes the lighting pass shades from. Every job is drawn with one shared material whose
// surface values are copied from the job's own material before the draw.
type GBufferPass interface {
	Pass

	// Params returns the current parameters.
	Params() GBufferParams

	// SetParams replaces the parameters used by the next run.
	SetParams(p GBufferParams)

	// InitGBuffers sizes the attachments. Calls with the current size do nothing.
	//
	// Parameters:
	//   - width: the width in pixels
	//   - height: the height in pixels
	InitGBuffers(width, height int)

	// GBufferFramebuffer returns the framebuffer holding the attachments and the geometry depth.
	GBufferFramebuffer() *texture.Framebuffer

	// Target returns one attachment.
	//
	// Parameters:
	//   - index: a builtin.GBuffer* attachment index
	//
	// Returns:
	//   - *texture.RenderTarget: the attachment, or nil for an unknown index
	Target(index int) *texture.RenderTarget
}

var _ GBufferPass = &gbufferPass{}

// NewGBufferPass creates a geometry pass drawing through r. The attachments start at 1x1 until
// InitGBuffers sizes them.
//
// Parameters:
//   - r: the shared renderer
//
// Returns:
//   - GBufferPass: the pass
func NewGBufferPass(r renderer.Renderer) GBufferPass {
	p := &gbufferPass{
		r:           r,
		framebuffer: texture.NewFramebuffer("gbuffer"),
	}
	for i := range p.targets {
		settings := targetSettings(gbufferFormats[i], gputypes.FilterModeNearest)
		p.targets[i] = texture.NewRenderTarget("gbuffer/"+gbufferNames[i], 1, 1, settings)
	}
	p.material = material.NewMaterial(
		material.WithName("gbuffer"),
		material.WithType(material.MaterialTypeCustom),
		material.WithShaders(builtin.Get(builtin.DefaultVertex), builtin.Get(builtin.GBufferFragment)),
	)
	if err := p.material.Init(); err != nil {
		panic(fmt.Sprintf("pass: gbuffer material: %v", err))
	}
	return p
}

func (p *gbufferPass) Params() GBufferParams {
	return p.params
}

func (p *gbufferPass) SetParams(params GBufferParams) {
	p.params = params
}

func (p *gbufferPass) InitGBuffers(width, height int) {
	if !p.framebuffer.Initialized() {
		p.framebuffer.Init(texture.FramebufferSettings{
			Width:           width,
			Height:          height,
			UseDefaultDepth: true,
		})
	}
	resized := p.framebuffer.ReconstructIfNeeded(width, height)
	for i, rt := range p.targets {
		if rt.ReconstructIfNeeded(width, height) {
			resized = true
		}
		if p.framebuffer.Attachment(texture.Attachment(i)) != rt {
			p.framebuffer.SetAttachment(texture.Attachment(i), rt)
		}
	}
	if resized {
		logger.Logger().Debug("gbuffer resized", "width", width, "height", height)
	}
}

func (p *gbufferPass) GBufferFramebuffer() *texture.Framebuffer {
	return p.framebuffer
}

func (p *gbufferPass) Target(index int) *texture.RenderTarget {
	if index < 0 || index >= len(p.targets) {
		return nil
	}
	return p.targets[index]
}

func (p *gbufferPass) PreRender() {
	p.r.SetFramebuffer(p.framebuffer, true, [4]float32{})
	p.r.EnableDepthTest(true)
}

func (p *gbufferPass) Render() {
	for i := range p.params.Jobs {
		job := &p.params.Jobs[i]
		if !job.Visible {
			continue
		}
		p.material.CopySurface(job.Material)
		p.r.SetOverrideMaterial(p.material)
		p.r.Render(job, p.params.Camera, nil)
	}
}

func (p *gbufferPass) PostRender() {
	p.r.SetOverrideMaterial(nil)
}
