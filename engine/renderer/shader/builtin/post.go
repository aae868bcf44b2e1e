package builtin

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/chewxy/math32"
)

const (
	goldenAngle   = 2.39996323
	dofFarDepth   = 1e6
	fxaaReduceMin = 1.0 / 128.0
	fxaaReduceMul = 1.0 / 8.0
	fxaaSpanMax   = 8.0
)

// bloomDownsampleFragment halves the source with a five tap filter. The first pass keeps only
// the energy above threshold.
func bloomDownsampleFragment(b shader.Bindings, in *shader.Varyings, _ [2]float32) (shader.FragmentOut, bool) {
	tc := uv(in)
	t := texel(b, SlotSource)
	c := scale4(b.Sample(SlotSource, tc), 4)
	c = add4(c, b.Sample(SlotSource, offsetUV(tc, t, -1, -1)))
	c = add4(c, b.Sample(SlotSource, offsetUV(tc, t, 1, -1)))
	c = add4(c, b.Sample(SlotSource, offsetUV(tc, t, -1, 1)))
	c = add4(c, b.Sample(SlotSource, offsetUV(tc, t, 1, 1)))
	col := rgb(scale4(c, 1.0/8.0))

	if b.Int(ParamPassIndex) == 0 {
		brightness := math32.Max(col[0], math32.Max(col[1], col[2]))
		contribution := math32.Max(brightness-b.Float(ParamThreshold), 0) / math32.Max(brightness, 1e-4)
		col = [3]float32{col[0] * contribution, col[1] * contribution, col[2] * contribution}
	}
	return single(rgba(col, 1)), true
}

// bloomUpsampleFragment upsamples the lower mip with a 3x3 tent filter scaled by intensity. The
// pass blends it additively over the higher mip.
func bloomUpsampleFragment(b shader.Bindings, in *shader.Varyings, _ [2]float32) (shader.FragmentOut, bool) {
	tc := uv(in)
	t := texel(b, SlotSource)
	r := b.Float(ParamFilterRadius)
	weights := [3][3]float32{{1, 2, 1}, {2, 4, 2}, {1, 2, 1}}
	var c [4]float32
	for y := -1; y <= 1; y++ {
		for x := -1; x <= 1; x++ {
			s := b.Sample(SlotSource, offsetUV(tc, t, float32(x)*r, float32(y)*r))
			c = add4(c, scale4(s, weights[y+1][x+1]))
		}
	}
	col := rgb(scale4(c, b.Float(ParamIntensity)/16))
	return single(rgba(col, 1)), true
}

// circleOfConfusion returns the blur radius in texels for a linear depth.
func circleOfConfusion(depth, focusPoint, focusScale, blurSize float32) float32 {
	if depth <= 0 {
		depth = dofFarDepth
	}
	if focusPoint <= 0 {
		return 0
	}
	coc := clamp((1/focusPoint-1/depth)*focusScale, -1, 1)
	return math32.Abs(coc) * blurSize
}

// dofFragment blurs along a golden angle spiral, weighting samples by their circle of confusion.
func dofFragment(b shader.Bindings, in *shader.Varyings, _ [2]float32) (shader.FragmentOut, bool) {
	tc := uv(in)
	t := texel(b, SlotSource)
	focusPoint := b.Float(ParamFocusPoint)
	focusScale := b.Float(ParamFocusScale)
	blurSize := b.Float(ParamBlurSize)
	radiusScale := b.Float(ParamRadiusScale)

	center := b.Sample(SlotSource, tc)
	centerDepth := b.Sample(SlotDepthInput, tc)[0]
	if centerDepth <= 0 {
		centerDepth = dofFarDepth
	}
	centerSize := circleOfConfusion(centerDepth, focusPoint, focusScale, blurSize)
	if radiusScale <= 0 {
		return single(center), true
	}

	col := rgb(center)
	total := float32(1)
	radius := radiusScale
	for ang := float32(0); radius < blurSize; ang += goldenAngle {
		sc := offsetUV(tc, t, math32.Cos(ang)*radius, math32.Sin(ang)*radius)
		sampleCol := rgb(b.Sample(SlotSource, sc))
		sampleDepth := b.Sample(SlotDepthInput, sc)[0]
		if sampleDepth <= 0 {
			sampleDepth = dofFarDepth
		}
		sampleSize := circleOfConfusion(sampleDepth, focusPoint, focusScale, blurSize)
		if sampleDepth > centerDepth {
			sampleSize = clamp(sampleSize, 0, centerSize*2)
		}
		m := smoothstep(radius-0.5, radius+0.5, sampleSize)
		for i := range 3 {
			col[i] += mix(col[i]/total, sampleCol[i], m)
		}
		total++
		radius += radiusScale / radius
	}
	return single(rgba([3]float32{col[0] / total, col[1] / total, col[2] / total}, center[3])), true
}

// Tonemap maps an HDR colour to display range with the given method.
func Tonemap(c [3]float32, method int32) [3]float32 {
	var out [3]float32
	for i, x := range c {
		x = math32.Max(x, 0)
		switch method {
		case TonemapACES:
			out[i] = saturate((x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14))
		default:
			out[i] = x / (1 + x)
		}
	}
	return out
}

// tonemapFragment applies Tonemap to the source.
func tonemapFragment(b shader.Bindings, in *shader.Varyings, _ [2]float32) (shader.FragmentOut, bool) {
	c := b.Sample(SlotSource, uv(in))
	return single(rgba(Tonemap(rgb(c), b.Int(ParamTonemapMethod)), c[3])), true
}

// fxaaTexel returns the size of one pixel in uv units for the FXAA edge search. ok is false when
// neither the screen size parameter nor the source texture has a size.
func fxaaTexel(b shader.Bindings) (rcp [2]float32, ok bool) {
	size := b.Vec2(ParamScreenSize)
	if size[0] <= 0 || size[1] <= 0 {
		w, h := b.TextureSize(SlotSource)
		size = [2]float32{float32(w), float32(h)}
	}
	if size[0] <= 0 || size[1] <= 0 {
		return rcp, false
	}
	return [2]float32{1 / size[0], 1 / size[1]}, true
}

// fxaaResolve blends along the local luma edge direction around tc, reading colour through tap.
func fxaaResolve(tap func(uv [2]float32) [3]float32, tc, rcp [2]float32) [3]float32 {
	lumaNW := luma(tap(offsetUV(tc, rcp, -1, -1)))
	lumaNE := luma(tap(offsetUV(tc, rcp, 1, -1)))
	lumaSW := luma(tap(offsetUV(tc, rcp, -1, 1)))
	lumaSE := luma(tap(offsetUV(tc, rcp, 1, 1)))
	lumaM := luma(tap(tc))
	lumaMin := math32.Min(lumaM, math32.Min(math32.Min(lumaNW, lumaNE), math32.Min(lumaSW, lumaSE)))
	lumaMax := math32.Max(lumaM, math32.Max(math32.Max(lumaNW, lumaNE), math32.Max(lumaSW, lumaSE)))

	dir := [2]float32{
		-((lumaNW + lumaNE) - (lumaSW + lumaSE)),
		(lumaNW + lumaSW) - (lumaNE + lumaSE),
	}
	reduce := math32.Max((lumaNW+lumaNE+lumaSW+lumaSE)*0.25*fxaaReduceMul, fxaaReduceMin)
	rcpDirMin := 1 / (math32.Min(math32.Abs(dir[0]), math32.Abs(dir[1])) + reduce)
	dir[0] = clamp(dir[0]*rcpDirMin, -fxaaSpanMax, fxaaSpanMax)
	dir[1] = clamp(dir[1]*rcpDirMin, -fxaaSpanMax, fxaaSpanMax)

	at := func(f float32) [3]float32 {
		return tap(offsetUV(tc, rcp, dir[0]*f, dir[1]*f))
	}
	a1, a2 := at(1.0/3.0-0.5), at(2.0/3.0-0.5)
	rgbA := [3]float32{(a1[0] + a2[0]) * 0.5, (a1[1] + a2[1]) * 0.5, (a1[2] + a2[2]) * 0.5}
	b1, b2 := at(-0.5), at(0.5)
	rgbB := [3]float32{
		rgbA[0]*0.5 + (b1[0]+b2[0])*0.25,
		rgbA[1]*0.5 + (b1[1]+b2[1])*0.25,
		rgbA[2]*0.5 + (b1[2]+b2[2])*0.25,
	}
	if lb := luma(rgbB); lb < lumaMin || lb > lumaMax {
		return rgbA
	}
	return rgbB
}

// fxaaFragment is a single pass FXAA over the source.
func fxaaFragment(b shader.Bindings, in *shader.Varyings, _ [2]float32) (shader.FragmentOut, bool) {
	tc := uv(in)
	center := b.Sample(SlotSource, tc)
	rcp, ok := fxaaTexel(b)
	if !ok {
		return single(center), true
	}
	tap := func(p [2]float32) [3]float32 { return rgb(b.Sample(SlotSource, p)) }
	return single(rgba(fxaaResolve(tap, tc, rcp), center[3])), true
}

// GammaEncode raises c to 1/gamma. A gamma of zero or less leaves c unchanged.
func GammaEncode(c [3]float32, gamma float32) [3]float32 {
	if gamma <= 0 {
		return c
	}
	inv := 1 / gamma
	return [3]float32{
		math32.Pow(math32.Max(c[0], 0), inv),
		math32.Pow(math32.Max(c[1], 0), inv),
		math32.Pow(math32.Max(c[2], 0), inv),
	}
}

// gammaFragment encodes the source with 1/gamma.
func gammaFragment(b shader.Bindings, in *shader.Varyings, _ [2]float32) (shader.FragmentOut, bool) {
	c := b.Sample(SlotSource, uv(in))
	return single(rgba(GammaEncode(rgb(c), b.Float(ParamGamma)), c[3])), true
}

// gammaTonemapFXAAFragment runs tone mapping, FXAA and gamma encoding in one draw. Each step has
// its own switch; FXAA taps are tone mapped before the edge search.
func gammaTonemapFXAAFragment(b shader.Bindings, in *shader.Varyings, _ [2]float32) (shader.FragmentOut, bool) {
	tc := uv(in)
	center := b.Sample(SlotSource, tc)
	tonemap := b.Bool(ParamEnableTonemapping)
	method := b.Int(ParamTonemapMethod)
	tap := func(p [2]float32) [3]float32 {
		c := rgb(b.Sample(SlotSource, p))
		if tonemap {
			c = Tonemap(c, method)
		}
		return c
	}

	col := tap(tc)
	if b.Bool(ParamEnableFXAA) {
		if rcp, ok := fxaaTexel(b); ok {
			col = fxaaResolve(tap, tc, rcp)
		}
	}
	if b.Bool(ParamEnableGammaCorrection) {
		col = GammaEncode(col, b.Float(ParamGamma))
	}
	return single(rgba(col, center[3])), true
}

// copyFragment copies the source.
func copyFragment(b shader.Bindings, in *shader.Varyings, _ [2]float32) (shader.FragmentOut, bool) {
	return single(b.Sample(SlotSource, uv(in))), true
}
