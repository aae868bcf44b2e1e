package pass

import (
	"github.com/Carmen-Shannon/oxy-render/engine/config"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
)

// TonemapParams configures the tone mapping pass.
type TonemapParams struct {
	FrameBuffer *texture.Framebuffer
	Method      config.TonemapMethod
}

type tonemapPass struct {
	postProcessPass
	params TonemapParams
	fs     shader.Shader
}

// TonemapPass maps the high dynamic range colour of a framebuffer into display range in place.
type TonemapPass interface {
	Pass
	Params() TonemapParams
	SetParams(p TonemapParams)
}

var _ TonemapPass = &tonemapPass{}

// NewTonemapPass creates a Reinhard tone mapping pass drawing through r.
func NewTonemapPass(r renderer.Renderer) TonemapPass {
	return &tonemapPass{
		postProcessPass: newPostProcessPass(r, "tonemap"),
		params:          TonemapParams{Method: config.TonemapReinhard},
		fs:              builtin.Get(builtin.TonemapFragment),
	}
}

func (p *tonemapPass) Params() TonemapParams {
	return p.params
}

func (p *tonemapPass) SetParams(params TonemapParams) {
	p.params = params
}

// tonemapMethod converts a configured method to the kernel constant.
func tonemapMethod(m config.TonemapMethod) int32 {
	if m == config.TonemapACES {
		return builtin.TonemapACES
	}
	return builtin.TonemapReinhard
}

func (p *tonemapPass) PreRender() {
	p.fs.SetParameter(builtin.ParamTonemapMethod, tonemapMethod(p.params.Method))
}

func (p *tonemapPass) Render() {
	p.apply(p.params.FrameBuffer, p.fs)
}

func (p *tonemapPass) PostRender() {}
