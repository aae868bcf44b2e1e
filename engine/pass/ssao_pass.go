package pass

import (
	"fmt"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/logger"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/gogpu/gputypes"
)

const (
	// MaxSSAOKernelSize is the number of hemisphere samples generated.
	MaxSSAOKernelSize = 64
	// SSAONoiseSize is the side of the tiled rotation texture.
	SSAONoiseSize = 4
	// DefaultSSAOBlur is the half width of the average blur applied to the raw occlusion.
	DefaultSSAOBlur int32 = 2

	ssaoSeed = 0x55a0
)

// SSAOParams configures the ambient occlusion pass.
type SSAOParams struct {
	Camera camera.Camera
	// Normal and LinearDepth are the outputs of the forward pre-process pass.
	Normal      *texture.RenderTarget
	LinearDepth *texture.RenderTarget
	Radius      float32
	Bias        float32
	Spread      float32
	KernelSize  int32
	BlurAmount  int32
}

type ssaoPass struct {
	r      renderer.Renderer
	params SSAOParams
	quad   FullQuadPass
	fs     shader.Shader

	kernel *texture.Texture
	noise  *texture.Texture

	target       *texture.RenderTarget
	framebuffer  *texture.Framebuffer
	blurTarget   *texture.RenderTarget
	blurBuffer   *texture.Framebuffer
	invalidInput bool
}

// SSAOPass estimates screen space ambient occlusion into a single channel target, then blurs it
// with a separable box filter to hide the noise pattern.
type SSAOPass interface {
	Pass
	Params() SSAOParams
	SetParams(p SSAOParams)

	// Target returns the blurred occlusion, 1 meaning unoccluded.
	Target() *texture.RenderTarget
}

var _ SSAOPass = &ssaoPass{}

// NewSSAOPass creates an ambient occlusion pass drawing through r. The sample kernel and noise
// are generated once from a fixed seed.
func NewSSAOPass(r renderer.Renderer) SSAOPass {
	settings := targetSettings(gputypes.TextureFormatR32Float, gputypes.FilterModeLinear)
	p := &ssaoPass{
		r:  r,
		fs: builtin.Get(builtin.SSAOFragment),
		params: SSAOParams{
			Radius:     0.5,
			Bias:       0.025,
			Spread:     1,
			KernelSize: MaxSSAOKernelSize,
			BlurAmount: DefaultSSAOBlur,
		},
		quad:        NewFullQuadPass(r),
		target:      texture.NewRenderTarget("ssao", 1, 1, settings),
		framebuffer: texture.NewFramebuffer("ssao"),
		blurTarget:  texture.NewRenderTarget("ssao/blur", 1, 1, settings),
		blurBuffer:  texture.NewFramebuffer("ssao/blur"),
	}
	rng := rand.New(rand.NewPCG(ssaoSeed, ssaoSeed))
	p.kernel = newSSAOKernel(rng)
	p.noise = newSSAONoise(rng)
	return p
}

// newSSAOKernel generates hemisphere samples around +Z, denser near the origin, stored as a
// MaxSSAOKernelSize x 1 texture.
func newSSAOKernel(rng *rand.Rand) *texture.Texture {
	settings := targetSettings(gputypes.TextureFormatRGBA32Float, gputypes.FilterModeNearest)
	tex := texture.NewTexture("ssao/kernel", MaxSSAOKernelSize, 1, settings)
	pixels := make([]float32, 0, MaxSSAOKernelSize*4)
	for i := range MaxSSAOKernelSize {
		s := common.Normalize3([3]float32{
			rng.Float32()*2 - 1,
			rng.Float32()*2 - 1,
			rng.Float32(),
		})
		s = common.Scale3(s, rng.Float32())
		t := float32(i) / MaxSSAOKernelSize
		s = common.Scale3(s, 0.1+0.9*t*t)
		pixels = append(pixels, s[0], s[1], s[2], 1)
	}
	mustSetPixels(tex, MaxSSAOKernelSize, 1, pixels)
	return tex
}

// newSSAONoise generates random rotations about the normal for a tiled SSAONoiseSize square.
func newSSAONoise(rng *rand.Rand) *texture.Texture {
	settings := targetSettings(gputypes.TextureFormatRGBA32Float, gputypes.FilterModeNearest)
	settings.WrapS, settings.WrapT = gputypes.AddressModeRepeat, gputypes.AddressModeRepeat
	tex := texture.NewTexture("ssao/noise", SSAONoiseSize, SSAONoiseSize, settings)
	pixels := make([]float32, 0, SSAONoiseSize*SSAONoiseSize*4)
	for range SSAONoiseSize * SSAONoiseSize {
		pixels = append(pixels, rng.Float32()*2-1, rng.Float32()*2-1, 0, 1)
	}
	mustSetPixels(tex, SSAONoiseSize, SSAONoiseSize, pixels)
	return tex
}

// mustSetPixels fills a generated lookup texture. A size mismatch is a programming error.
func mustSetPixels(tex *texture.Texture, width, height int, pixels []float32) {
	if err := tex.SetPixels(width, height, pixels); err != nil {
		panic(fmt.Sprintf("pass: ssao lookup texture: %v", err))
	}
}

func (p *ssaoPass) Params() SSAOParams {
	return p.params
}

func (p *ssaoPass) SetParams(params SSAOParams) {
	p.params = params
}

func (p *ssaoPass) Target() *texture.RenderTarget {
	return p.target
}

func (p *ssaoPass) PreRender() {
	p.invalidInput = p.params.Normal == nil || p.params.LinearDepth == nil || p.params.Camera == nil
	if p.invalidInput {
		logger.Logger().Warn("ssao pass without inputs skipped")
		return
	}
	w, h := p.params.LinearDepth.Width, p.params.LinearDepth.Height
	for _, pair := range [2]struct {
		rt *texture.RenderTarget
		fb *texture.Framebuffer
	}{{p.target, p.framebuffer}, {p.blurTarget, p.blurBuffer}} {
		pair.rt.ReconstructIfNeeded(w, h)
		pair.fb.ReconstructIfNeeded(w, h)
		pair.fb.SetAttachment(texture.ColorAttachment0, pair.rt)
	}

	kernelSize := min(max(p.params.KernelSize, 1), MaxSSAOKernelSize)
	cam := p.params.Camera
	p.fs.SetParameter(builtin.ParamRadius, p.params.Radius)
	p.fs.SetParameter(builtin.ParamBias, p.params.Bias)
	p.fs.SetParameter(builtin.ParamSpread, p.params.Spread)
	p.fs.SetParameter(builtin.ParamKernelSize, kernelSize)
	p.fs.SetParameter(builtin.ParamProjection, cam.Projection())
	p.fs.SetParameter(builtin.ParamInvProjection, cam.InverseProjection())
	p.fs.SetParameter(builtin.ParamNoiseScale, [2]float32{float32(w) / SSAONoiseSize, float32(h) / SSAONoiseSize})
}

func (p *ssaoPass) Render() {
	if p.invalidInput {
		return
	}
	p.r.SetTexture(builtin.SlotSSAONormal, &p.params.Normal.Texture)
	p.r.SetTexture(builtin.SlotSSAODepth, &p.params.LinearDepth.Texture)
	p.r.SetTexture(builtin.SlotSSAONoise, p.noise)
	p.r.SetTexture(builtin.SlotSSAOKernel, p.kernel)
	p.quad.SetParams(FullQuadParams{
		FrameBuffer:      p.framebuffer,
		FragmentShader:   p.fs,
		ClearFrameBuffer: true,
		ClearColor:       [4]float32{1, 1, 1, 1},
		Camera:           p.params.Camera,
	})
	RenderSubPass(p.quad)

	if p.params.BlurAmount > 0 {
		p.r.ApplyAverageBlur(&p.target.Texture, p.blurBuffer, [2]float32{1, 0}, p.params.BlurAmount)
		p.r.ApplyAverageBlur(&p.blurTarget.Texture, p.framebuffer, [2]float32{0, 1}, p.params.BlurAmount)
	}
}

func (p *ssaoPass) PostRender() {
	p.r.EnableDepthTest(true)
}
