// Package pass holds the render passes a render path strings together each frame: geometry into
// the G-buffer, shadow maps, deferred lighting, the forward and translucent pass, the sky and the
// post-process chain.
//
// Every pass shares the renderer it was created with, takes a parameter struct that the render
// path overwrites each frame, and owns the render targets it writes. Passes run strictly one after
// another on the render goroutine; later passes read the targets earlier ones wrote.
package pass

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/gogpu/gputypes"
)

// Pass is one step of a render path.
type Pass interface {
	// PreRender binds the pass targets, allocates or resizes what the pass owns and pushes the
	// pass parameters into its shaders.
	PreRender()

	// Render issues the draws of the pass.
	Render()

	// PostRender restores the renderer toggles the pass changed.
	PostRender()
}

// RenderSubPass runs the full PreRender, Render, PostRender sequence of p. Passes use it to
// drive nested passes, such as the shared full screen quad, synchronously.
//
// Parameters:
//   - p: the pass to run
func RenderSubPass(p Pass) {
	p.PreRender()
	p.Render()
	p.PostRender()
}

// RenderPasses runs every pass in order with RenderSubPass. nil entries are skipped.
//
// Parameters:
//   - passes: the passes to run
func RenderPasses(passes []Pass) {
	for _, p := range passes {
		if p == nil {
			continue
		}
		RenderSubPass(p)
	}
}

// targetSettings returns edge clamped settings of the given format and filter.
func targetSettings(format gputypes.TextureFormat, filter gputypes.FilterMode) texture.Settings {
	s := texture.DefaultSettings()
	s.Format = format
	s.MinFilter, s.MagFilter = filter, filter
	return s
}

// fitTarget makes rt match a size and settings, reallocating only when one of them changed.
func fitTarget(rt *texture.RenderTarget, width, height int, settings texture.Settings) {
	if rt.Width == width && rt.Height == height && rt.Settings == settings {
		return
	}
	rt.Reconstruct(width, height, settings)
}

// colorTarget returns the first colour attachment of fb, or nil.
func colorTarget(fb *texture.Framebuffer) *texture.RenderTarget {
	if fb == nil {
		return nil
	}
	return fb.Attachment(texture.ColorAttachment0)
}

// targetTexture returns the texture of rt, or nil.
func targetTexture(rt *texture.RenderTarget) *texture.Texture {
	if rt == nil {
		return nil
	}
	return &rt.Texture
}

// framebufferSize returns the size of fb, or the window size of r when fb is nil.
func framebufferSize(r renderer.Renderer, fb *texture.Framebuffer) (int, int) {
	if fb == nil {
		return r.WindowSize()
	}
	return fb.Width(), fb.Height()
}
