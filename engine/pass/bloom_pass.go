package pass

import (
	"fmt"
	"math/bits"

	"github.com/Carmen-Shannon/oxy-render/engine/logger"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/gogpu/gputypes"
)

const (
	// DefaultBloomIterations is the number of mip levels the bloom chain walks.
	DefaultBloomIterations = 6
	// minBloomMip is the smallest mip side the chain may produce.
	minBloomMip = 2
)

// BloomParams configures the bloom pass.
type BloomParams struct {
	FrameBuffer    *texture.Framebuffer
	IterationCount int
	Threshold      float32
	Intensity      float32
	FilterRadius   float32
}

type bloomMip struct {
	target      *texture.RenderTarget
	framebuffer *texture.Framebuffer
}

type bloomPass struct {
	postProcessPass
	params BloomParams
	downFS shader.Shader
	upFS   shader.Shader
	mips   []bloomMip

	iterations          int
	invalidRenderParams bool
}

// BloomPass spreads the bright parts of the image. The first downsample keeps only colour above
// the threshold, each further level halves the size, and the upsample chain adds every level back
// onto the one above it before the result is added to the framebuffer.
type BloomPass interface {
	Pass
	Params() BloomParams
	SetParams(p BloomParams)
}

var _ BloomPass = &bloomPass{}

// NewBloomPass creates a bloom pass drawing through r.
func NewBloomPass(r renderer.Renderer) BloomPass {
	return &bloomPass{
		postProcessPass: newPostProcessPass(r, "bloom"),
		params: BloomParams{
			IterationCount: DefaultBloomIterations,
			Threshold:      1,
			Intensity:      1,
			FilterRadius:   1,
		},
		downFS: builtin.Get(builtin.BloomDownsampleFragment),
		upFS:   builtin.Get(builtin.BloomUpsampleFragment),
	}
}

func (p *bloomPass) Params() BloomParams {
	return p.params
}

func (p *bloomPass) SetParams(params BloomParams) {
	p.params = params
}

// ClampBloomIterations limits an iteration count so the smallest mip of a width x height image
// stays at least 2 pixels on each side.
//
// Parameters:
//   - width, height: the full resolution size
//   - n: the requested iteration count
//
// Returns:
//   - int: the usable count, 0 or less when no level fits
func ClampBloomIterations(width, height, n int) int {
	side := min(width, height)
	if side < 1 {
		return 0
	}
	log2 := bits.Len(uint(side)) - 1
	return min(n, log2-1)
}

func (p *bloomPass) PreRender() {
	w, h := framebufferSize(p.r, p.params.FrameBuffer)
	p.iterations = ClampBloomIterations(w, h, p.params.IterationCount)
	p.invalidRenderParams = p.iterations <= 0
	if p.invalidRenderParams {
		logger.Logger().Debug("bloom skipped", "width", w, "height", h, "iterations", p.params.IterationCount)
		return
	}

	settings := targetSettings(gputypes.TextureFormatRGBA16Float, gputypes.FilterModeLinear)
	for len(p.mips) < p.iterations {
		i := len(p.mips)
		name := fmt.Sprintf("bloom/mip%d", i)
		p.mips = append(p.mips, bloomMip{
			target:      texture.NewRenderTarget(name, 1, 1, settings),
			framebuffer: texture.NewFramebuffer(name),
		})
	}
	for i := range p.iterations {
		m := p.mips[i]
		mw, mh := w>>(i+1), h>>(i+1)
		m.target.ReconstructIfNeeded(mw, mh)
		m.framebuffer.ReconstructIfNeeded(mw, mh)
		m.framebuffer.SetAttachment(texture.ColorAttachment0, m.target)
	}

	p.downFS.SetParameter(builtin.ParamThreshold, p.params.Threshold)
	p.upFS.SetParameter(builtin.ParamFilterRadius, p.params.FilterRadius)
}

func (p *bloomPass) Render() {
	if p.invalidRenderParams {
		return
	}
	src := p.copySource(p.params.FrameBuffer)
	if src == nil {
		return
	}

	levels := 0
	for i := range p.iterations {
		m := p.mips[i]
		if m.target.Width < minBloomMip || m.target.Height < minBloomMip {
			break
		}
		p.downFS.SetParameter(builtin.ParamPassIndex, int32(i))
		p.r.SetTexture(builtin.SlotSource, &src.Texture)
		p.drawQuad(m.framebuffer, p.downFS, material.BlendNone, true)
		src = m.target
		levels++
	}
	if levels == 0 {
		return
	}

	p.upFS.SetParameter(builtin.ParamIntensity, float32(1))
	for i := levels - 1; i > 0; i-- {
		p.r.SetTexture(builtin.SlotSource, &p.mips[i].target.Texture)
		p.drawQuad(p.mips[i-1].framebuffer, p.upFS, material.BlendOneToOne, false)
	}

	intensity := p.params.Intensity
	if intensity <= 0 {
		intensity = 1
	}
	p.upFS.SetParameter(builtin.ParamIntensity, intensity)
	p.r.SetTexture(builtin.SlotSource, &p.mips[0].target.Texture)
	p.drawQuad(p.params.FrameBuffer, p.upFS, material.BlendOneToOne, false)
}

func (p *bloomPass) drawQuad(fb *texture.Framebuffer, fs shader.Shader, blend material.BlendFunction, clear bool) {
	p.quad.SetParams(FullQuadParams{
		FrameBuffer:      fb,
		FragmentShader:   fs,
		BlendFunction:    blend,
		ClearFrameBuffer: clear,
	})
	RenderSubPass(p.quad)
}

func (p *bloomPass) PostRender() {}
