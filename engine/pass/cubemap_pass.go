package pass

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/environment"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-render/engine/renderjob"
	"github.com/gogpu/gputypes"
)

// CubeMapParams configures the sky pass.
type CubeMapParams struct {
	Camera      camera.Camera
	Sky         environment.Sky
	FrameBuffer *texture.Framebuffer
}

type cubeMapPass struct {
	r      renderer.Renderer
	params CubeMapParams
	cube   *model.Mesh
	skip   bool
}

// CubeMapPass draws the sky on the far plane wherever no geometry was drawn. It is skipped while
// the sky is not ready to render.
type CubeMapPass interface {
	Pass
	Params() CubeMapParams
	SetParams(p CubeMapParams)
}

var _ CubeMapPass = &cubeMapPass{}

// NewCubeMapPass creates a sky pass drawing through r.
func NewCubeMapPass(r renderer.Renderer) CubeMapPass {
	return &cubeMapPass{
		r:    r,
		cube: model.NewCube(2),
	}
}

func (p *cubeMapPass) Params() CubeMapParams {
	return p.params
}

func (p *cubeMapPass) SetParams(params CubeMapParams) {
	p.params = params
}

func (p *cubeMapPass) PreRender() {
	sky := p.params.Sky
	p.skip = sky == nil || !sky.ReadyToRender()
	if p.skip {
		return
	}
	mat := sky.Material()
	rs := mat.RenderState()
	rs.DepthTestEnabled = true
	rs.DepthFunc = gputypes.CompareFunctionLessEqual
	mat.SetRenderState(rs)

	p.r.SetOverrideMaterial(nil)
	p.r.SetFramebuffer(p.params.FrameBuffer, false, [4]float32{})
}

func (p *cubeMapPass) Render() {
	if p.skip {
		return
	}
	job := renderjob.RenderJob{
		Mesh:              p.cube,
		Material:          p.params.Sky.Material(),
		WorldTransform:    common.IdentityMat4(),
		EnvironmentVolume: p.params.Sky.Environment(),
		Visible:           true,
	}
	p.r.Render(&job, p.params.Camera, nil)
}

func (p *cubeMapPass) PostRender() {
	p.r.SetDepthTestFunc(gputypes.CompareFunctionLess)
}
