package pass

import (
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/gogpu/gputypes"
)

// LightingParams configures the deferred lighting pass.
type LightingParams struct {
	Camera camera.Camera
	Lights []light.Light
	// GBuffer is the geometry pass the lighting reads from.
	GBuffer GBufferPass
	// AO is the ambient occlusion target, or nil when SSAO is off.
	AO *texture.RenderTarget
	// MainFramebuffer receives the merged result.
	MainFramebuffer *texture.Framebuffer
}

type lightingPass struct {
	r       renderer.Renderer
	params  LightingParams
	quad    FullQuadPass
	lightFS shader.Shader
	mergeFS shader.Shader

	target      *texture.RenderTarget
	framebuffer *texture.Framebuffer
}

// LightingPass shades the G-buffer. Each enabled light adds its contribution to an accumulation
// target with one full screen draw, then a merge draw combines the sum with emissive, image based
// lighting and ambient occlusion into the main framebuffer.
//
// After merging, the pass trades depth textures between the main framebuffer and the G-buffer so
// the passes that follow test against the deferred geometry.
type LightingPass interface {
	Pass
	Params() LightingParams
	SetParams(p LightingParams)

	// Target returns the light accumulation target.
	Target() *texture.RenderTarget
}

var _ LightingPass = &lightingPass{}

// NewLightingPass creates a deferred lighting pass drawing through r.
func NewLightingPass(r renderer.Renderer) LightingPass {
	return &lightingPass{
		r:       r,
		quad:    NewFullQuadPass(r),
		lightFS: builtin.Get(builtin.DeferredLightingFragment),
		mergeFS: builtin.Get(builtin.LightingMergeFragment),
		target: texture.NewRenderTarget("lighting", 1, 1,
			targetSettings(gputypes.TextureFormatRGBA16Float, gputypes.FilterModeNearest)),
		framebuffer: texture.NewFramebuffer("lighting"),
	}
}

func (p *lightingPass) Params() LightingParams {
	return p.params
}

func (p *lightingPass) SetParams(params LightingParams) {
	p.params = params
}

func (p *lightingPass) Target() *texture.RenderTarget {
	return p.target
}

func (p *lightingPass) PreRender() {
	if p.params.GBuffer == nil {
		return
	}
	gb := p.params.GBuffer.GBufferFramebuffer()
	w, h := gb.Width(), gb.Height()
	p.target.ReconstructIfNeeded(w, h)
	p.framebuffer.ReconstructIfNeeded(w, h)
	p.framebuffer.SetAttachment(texture.ColorAttachment0, p.target)
	p.mergeFS.SetParameter(builtin.ParamAOInUse, p.params.AO != nil)
}

func (p *lightingPass) Render() {
	gb := p.params.GBuffer
	if gb == nil {
		return
	}

	p.r.ClearFrameBuffer(p.framebuffer, [4]float32{})
	for _, l := range light.Enabled(p.params.Lights) {
		p.bindGBuffer(gb)
		p.quad.SetParams(FullQuadParams{
			FrameBuffer:    p.framebuffer,
			FragmentShader: p.lightFS,
			BlendFunction:  material.BlendOneToOne,
			Camera:         p.params.Camera,
			Lights:         []light.Light{l},
		})
		RenderSubPass(p.quad)
	}

	p.r.SetTexture(builtin.SlotLighting, &p.target.Texture)
	p.r.SetTexture(builtin.SlotEmissive, targetTexture(gb.Target(builtin.GBufferEmissive)))
	p.r.SetTexture(builtin.SlotIBL, targetTexture(gb.Target(builtin.GBufferIBL)))
	p.r.SetTexture(builtin.SlotAO, targetTexture(p.params.AO))
	p.r.SetTexture(builtin.SlotCoverage, targetTexture(gb.Target(builtin.GBufferColor)))
	p.quad.SetParams(FullQuadParams{
		FrameBuffer:    p.params.MainFramebuffer,
		FragmentShader: p.mergeFS,
		BlendFunction:  material.BlendNone,
		Camera:         p.params.Camera,
	})
	RenderSubPass(p.quad)
}

// bindGBuffer binds the attachments the per light kernel reads.
func (p *lightingPass) bindGBuffer(gb GBufferPass) {
	p.r.SetTexture(builtin.SlotGBufferPosition, targetTexture(gb.Target(builtin.GBufferPosition)))
	p.r.SetTexture(builtin.SlotGBufferNormal, targetTexture(gb.Target(builtin.GBufferNormal)))
	p.r.SetTexture(builtin.SlotGBufferColor, targetTexture(gb.Target(builtin.GBufferColor)))
	p.r.SetTexture(builtin.SlotGBufferMetallicRoughness, targetTexture(gb.Target(builtin.GBufferMetallicRoughness)))
}

func (p *lightingPass) PostRender() {
	if p.params.GBuffer == nil || p.params.MainFramebuffer == nil {
		return
	}
	gb := p.params.GBuffer.GBufferFramebuffer()
	main := p.params.MainFramebuffer
	mainDepth, gbDepth := main.DepthTexture(), gb.DepthTexture()
	if mainDepth == nil || gbDepth == nil {
		return
	}
	main.AttachDepthTexture(gbDepth)
	gb.AttachDepthTexture(mainDepth)
}
