package pass

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
)

// FXAAParams configures the anti-aliasing pass.
type FXAAParams struct {
	FrameBuffer *texture.Framebuffer
	// ScreenSize is the size in pixels the edge search steps over. Zero uses the framebuffer size.
	ScreenSize [2]float32
}

type fxaaPass struct {
	postProcessPass
	params FXAAParams
	fs     shader.Shader
}

// FXAAPass smooths aliased edges of a display range framebuffer in place.
type FXAAPass interface {
	Pass
	Params() FXAAParams
	SetParams(p FXAAParams)
}

var _ FXAAPass = &fxaaPass{}

// NewFXAAPass creates an anti-aliasing pass drawing through r.
func NewFXAAPass(r renderer.Renderer) FXAAPass {
	return &fxaaPass{
		postProcessPass: newPostProcessPass(r, "fxaa"),
		fs:              builtin.Get(builtin.FXAAFragment),
	}
}

func (p *fxaaPass) Params() FXAAParams {
	return p.params
}

func (p *fxaaPass) SetParams(params FXAAParams) {
	p.params = params
}

func (p *fxaaPass) PreRender() {
	size := p.params.ScreenSize
	if size[0] <= 0 || size[1] <= 0 {
		w, h := framebufferSize(p.r, p.params.FrameBuffer)
		size = [2]float32{float32(w), float32(h)}
	}
	p.fs.SetParameter(builtin.ParamScreenSize, size)
}

func (p *fxaaPass) Render() {
	p.apply(p.params.FrameBuffer, p.fs)
}

func (p *fxaaPass) PostRender() {}
