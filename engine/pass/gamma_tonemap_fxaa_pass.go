package pass

import (
	"github.com/Carmen-Shannon/oxy-render/engine/config"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
)

// GammaTonemapFXAAParams configures the combined display pass.
type GammaTonemapFXAAParams struct {
	FrameBuffer *texture.Framebuffer

	EnableGammaCorrection bool
	EnableTonemapping     bool
	EnableFXAA            bool

	// ScreenSize is the size in pixels the edge search steps over. Zero uses the framebuffer size.
	ScreenSize [2]float32
	Method     config.TonemapMethod
	Gamma      float32
}

type gammaTonemapFXAAPass struct {
	postProcessPass
	params GammaTonemapFXAAParams
	fs     shader.Shader
}

// GammaTonemapFXAAPass tone maps, anti-aliases and gamma encodes a framebuffer in place with a
// single full screen draw. It replaces the Tonemap, FXAA and Gamma chain where bandwidth matters.
type GammaTonemapFXAAPass interface {
	Pass
	Params() GammaTonemapFXAAParams
	SetParams(p GammaTonemapFXAAParams)

	// Enabled reports whether any of the three steps is switched on. A disabled pass should be left
	// out of the pass list.
	Enabled() bool
}

var _ GammaTonemapFXAAPass = &gammaTonemapFXAAPass{}

// NewGammaTonemapFXAAPass creates the combined display pass drawing through r with every step
// enabled.
func NewGammaTonemapFXAAPass(r renderer.Renderer) GammaTonemapFXAAPass {
	return &gammaTonemapFXAAPass{
		postProcessPass: newPostProcessPass(r, "gamma_tonemap_fxaa"),
		params: GammaTonemapFXAAParams{
			EnableGammaCorrection: true,
			EnableTonemapping:     true,
			EnableFXAA:            true,
			Method:                config.TonemapReinhard,
			Gamma:                 DefaultGamma,
		},
		fs: builtin.Get(builtin.GammaTonemapFXAAFragment),
	}
}

func (p *gammaTonemapFXAAPass) Params() GammaTonemapFXAAParams {
	return p.params
}

func (p *gammaTonemapFXAAPass) SetParams(params GammaTonemapFXAAParams) {
	p.params = params
}

func (p *gammaTonemapFXAAPass) Enabled() bool {
	return p.params.EnableGammaCorrection || p.params.EnableTonemapping || p.params.EnableFXAA
}

func (p *gammaTonemapFXAAPass) PreRender() {
	size := p.params.ScreenSize
	if size[0] <= 0 || size[1] <= 0 {
		w, h := framebufferSize(p.r, p.params.FrameBuffer)
		size = [2]float32{float32(w), float32(h)}
	}
	g := p.params.Gamma
	if g <= 0 {
		g = DefaultGamma
	}
	p.fs.SetParameter(builtin.ParamScreenSize, size)
	p.fs.SetParameter(builtin.ParamGamma, g)
	p.fs.SetParameter(builtin.ParamTonemapMethod, tonemapMethod(p.params.Method))
	p.fs.SetParameter(builtin.ParamEnableGammaCorrection, p.params.EnableGammaCorrection)
	p.fs.SetParameter(builtin.ParamEnableTonemapping, p.params.EnableTonemapping)
	p.fs.SetParameter(builtin.ParamEnableFXAA, p.params.EnableFXAA)
}

func (p *gammaTonemapFXAAPass) Render() {
	p.apply(p.params.FrameBuffer, p.fs)
}

func (p *gammaTonemapFXAAPass) PostRender() {}
