package pass

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
)

// postProcessPass is the part every post-process pass shares: a scratch copy of the target's
// colour, so the effect can read the image it writes over, and the full screen quad it draws with.
type postProcessPass struct {
	r          renderer.Renderer
	quad       FullQuadPass
	copyTarget *texture.RenderTarget
	copyBuffer *texture.Framebuffer
}

func newPostProcessPass(r renderer.Renderer, name string) postProcessPass {
	return postProcessPass{
		r:          r,
		quad:       NewFullQuadPass(r),
		copyTarget: texture.NewRenderTarget(name+"/copy", 1, 1, texture.DefaultSettings()),
		copyBuffer: texture.NewFramebuffer(name + "/copy"),
	}
}

// copySource copies the first colour attachment of fb into the scratch target and binds the copy
// to the source slot.
//
// Returns:
//   - *texture.RenderTarget: the copy, or nil when fb has no colour attachment
func (p *postProcessPass) copySource(fb *texture.Framebuffer) *texture.RenderTarget {
	src := colorTarget(fb)
	if src == nil {
		return nil
	}
	fitTarget(p.copyTarget, src.Width, src.Height, src.Settings)
	p.copyBuffer.ReconstructIfNeeded(src.Width, src.Height)
	p.copyBuffer.SetAttachment(texture.ColorAttachment0, p.copyTarget)

	p.r.CopyFrameBuffer(fb, p.copyBuffer, renderer.ClearColorBit)
	p.r.SetTexture(builtin.SlotSource, &p.copyTarget.Texture)
	return p.copyTarget
}

// apply draws fs over fb in place, reading the scratch copy of fb.
func (p *postProcessPass) apply(fb *texture.Framebuffer, fs shader.Shader) {
	if p.copySource(fb) == nil {
		return
	}
	p.quad.SetParams(FullQuadParams{
		FrameBuffer:    fb,
		FragmentShader: fs,
		BlendFunction:  material.BlendNone,
	})
	RenderSubPass(p.quad)
}
