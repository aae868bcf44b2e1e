package pass

import (
	"github.com/Carmen-Shannon/oxy-render/engine/config"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
)

// DefaultDoFBlurSize is the largest circle of confusion, in pixels.
const DefaultDoFBlurSize float32 = 5

// DoFParams configures the depth of field pass.
type DoFParams struct {
	FrameBuffer *texture.Framebuffer
	// LinearDepth is the view distance per pixel, as written by the forward pre-process pass.
	LinearDepth *texture.RenderTarget
	FocusPoint  float32
	FocusScale  float32
	BlurSize    float32
	Quality     config.DoFQuality
}

type dofPass struct {
	postProcessPass
	params DoFParams
	fs     shader.Shader
}

// DoFPass blurs pixels by their distance from the focus point.
type DoFPass interface {
	Pass
	Params() DoFParams
	SetParams(p DoFParams)
}

var _ DoFPass = &dofPass{}

// NewDoFPass creates a depth of field pass drawing through r.
func NewDoFPass(r renderer.Renderer) DoFPass {
	return &dofPass{
		postProcessPass: newPostProcessPass(r, "dof"),
		params: DoFParams{
			FocusPoint: 10,
			FocusScale: 5,
			BlurSize:   DefaultDoFBlurSize,
			Quality:    config.DoFQualityNormal,
		},
		fs: builtin.Get(builtin.DoFFragment),
	}
}

func (p *dofPass) Params() DoFParams {
	return p.params
}

func (p *dofPass) SetParams(params DoFParams) {
	p.params = params
}

func (p *dofPass) PreRender() {
	blur := p.params.BlurSize
	if blur <= 0 {
		blur = DefaultDoFBlurSize
	}
	p.fs.SetParameter(builtin.ParamFocusPoint, p.params.FocusPoint)
	p.fs.SetParameter(builtin.ParamFocusScale, p.params.FocusScale)
	p.fs.SetParameter(builtin.ParamBlurSize, blur)
	p.fs.SetParameter(builtin.ParamRadiusScale, p.params.Quality.RadiusScale())
}

func (p *dofPass) Render() {
	if p.params.LinearDepth == nil {
		return
	}
	p.r.SetTexture(builtin.SlotDepthInput, &p.params.LinearDepth.Texture)
	p.apply(p.params.FrameBuffer, p.fs)
}

func (p *dofPass) PostRender() {}
