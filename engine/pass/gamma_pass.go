package pass

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
)

// DefaultGamma is the display gamma GammaPass corrects for.
const DefaultGamma float32 = 2.2

// GammaParams configures the gamma correction pass.
type GammaParams struct {
	FrameBuffer *texture.Framebuffer
	Gamma       float32
}

type gammaPass struct {
	postProcessPass
	params GammaParams
	fs     shader.Shader
}

// GammaPass encodes linear colour for display in place. It runs last in the chain.
type GammaPass interface {
	Pass
	Params() GammaParams
	SetParams(p GammaParams)
}

var _ GammaPass = &gammaPass{}

// NewGammaPass creates a gamma correction pass drawing through r.
func NewGammaPass(r renderer.Renderer) GammaPass {
	return &gammaPass{
		postProcessPass: newPostProcessPass(r, "gamma"),
		params:          GammaParams{Gamma: DefaultGamma},
		fs:              builtin.Get(builtin.GammaFragment),
	}
}

func (p *gammaPass) Params() GammaParams {
	return p.params
}

func (p *gammaPass) SetParams(params GammaParams) {
	p.params = params
}

func (p *gammaPass) PreRender() {
	g := p.params.Gamma
	if g <= 0 {
		g = DefaultGamma
	}
	p.fs.SetParameter(builtin.ParamGamma, g)
}

func (p *gammaPass) Render() {
	p.apply(p.params.FrameBuffer, p.fs)
}

func (p *gammaPass) PostRender() {}
