package builtin

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/chewxy/math32"
)

// deferredLightingFragment shades the G-buffer with the bound light list. Pixels the G-buffer
// never covered are discarded.
func deferredLightingFragment(b shader.Bindings, in *shader.Varyings, _ [2]float32) (shader.FragmentOut, bool) {
	tc := uv(in)
	col := b.Sample(SlotGBufferColor, tc)
	if col[3] == 0 {
		return shader.FragmentOut{}, false
	}
	mr := b.Sample(SlotGBufferMetallicRoughness, tc)
	s := surface{
		pos:       rgb(b.Sample(SlotGBufferPosition, tc)),
		n:         common.Normalize3(rgb(b.Sample(SlotGBufferNormal, tc))),
		albedo:    rgb(col),
		alpha:     1,
		metallic:  mr[0],
		roughness: clamp(mr[1], 0.04, 1),
	}
	return single(rgba(shadeLights(b, s, viewDirection(b, s.pos)), 1)), true
}

// lightingMergeFragment combines accumulated lighting, emissive and occluded image based lighting.
func lightingMergeFragment(b shader.Bindings, in *shader.Varyings, _ [2]float32) (shader.FragmentOut, bool) {
	tc := uv(in)
	if b.Sample(SlotCoverage, tc)[3] == 0 {
		return shader.FragmentOut{}, false
	}
	ibl := rgb(b.Sample(SlotIBL, tc))
	if b.Bool(ParamAOInUse) {
		ibl = common.Scale3(ibl, b.Sample(SlotAO, tc)[0])
	}
	c := common.Add3(common.Add3(rgb(b.Sample(SlotLighting, tc)), rgb(b.Sample(SlotEmissive, tc))), ibl)
	return single(rgba(c, 1)), true
}

// ssaoFragment computes hemisphere ambient occlusion from view space normals and linear depth.
// The sample kernel is read from a kernelSize x 1 texture and rotated by the tiled noise texture.
func ssaoFragment(b shader.Bindings, in *shader.Varyings, _ [2]float32) (shader.FragmentOut, bool) {
	tc := uv(in)
	depth := b.Sample(SlotSSAODepth, tc)[0]
	if depth <= 0 {
		return single([4]float32{1, 1, 1, 1}), true
	}
	proj := b.Mat4(ParamProjection)
	invProj := b.Mat4(ParamInvProjection)
	radius := b.Float(ParamRadius)
	bias := b.Float(ParamBias)

	ray := common.TransformPoint(invProj, [3]float32{tc[0]*2 - 1, 1 - tc[1]*2, 1})
	if ray[2] == 0 {
		return single([4]float32{1, 1, 1, 1}), true
	}
	origin := common.Scale3(ray, depth/-ray[2])
	n := common.Normalize3(rgb(b.Sample(SlotSSAONormal, tc)))

	noiseScale := b.Vec2(ParamNoiseScale)
	rnd := rgb(b.Sample(SlotSSAONoise, [2]float32{tc[0] * noiseScale[0], tc[1] * noiseScale[1]}))
	rnd = common.Scale3(rnd, b.Float(ParamSpread))
	tangent := common.Sub3(rnd, common.Scale3(n, common.Dot3(rnd, n)))
	if common.Length3(tangent) < 1e-4 {
		tangent = common.Cross3(n, [3]float32{0, 0, 1})
		if common.Length3(tangent) < 1e-4 {
			tangent = common.Cross3(n, [3]float32{0, 1, 0})
		}
	}
	tangent = common.Normalize3(tangent)
	bitangent := common.Cross3(n, tangent)

	kernelSize := int(b.Int(ParamKernelSize))
	kw, _ := b.TextureSize(SlotSSAOKernel)
	kernelSize = min(kernelSize, kw)
	if kernelSize <= 0 {
		return single([4]float32{1, 1, 1, 1}), true
	}

	occlusion := float32(0)
	for i := 0; i < kernelSize; i++ {
		k := rgb(b.Sample(SlotSSAOKernel, [2]float32{(float32(i) + 0.5) / float32(kw), 0.5}))
		dir := common.Add3(common.Add3(common.Scale3(tangent, k[0]), common.Scale3(bitangent, k[1])), common.Scale3(n, k[2]))
		sample := common.Add3(origin, common.Scale3(dir, radius))

		clip := common.TransformVec4(proj, [4]float32{sample[0], sample[1], sample[2], 1})
		if clip[3] <= 0 {
			continue
		}
		suv := [2]float32{clip[0]/clip[3]*0.5 + 0.5, 0.5 - clip[1]/clip[3]*0.5}
		if suv[0] < 0 || suv[0] > 1 || suv[1] < 0 || suv[1] > 1 {
			continue
		}
		sceneDepth := b.Sample(SlotSSAODepth, suv)[0]
		if sceneDepth <= 0 {
			continue
		}
		rangeCheck := smoothstep(0, 1, radius/math32.Abs(depth-sceneDepth))
		if sceneDepth <= -sample[2]-bias {
			occlusion += rangeCheck
		}
	}
	ao := 1 - occlusion/float32(kernelSize)
	return single([4]float32{ao, ao, ao, 1}), true
}

// averageBlurFragment box filters the source along blurAxis over blurAmount texels either side.
func averageBlurFragment(b shader.Bindings, in *shader.Varyings, _ [2]float32) (shader.FragmentOut, bool) {
	tc := uv(in)
	t := texel(b, SlotSource)
	axis := b.Vec2(ParamBlurAxis)
	amount := int(b.Int(ParamBlurAmount))
	var sum [4]float32
	for i := -amount; i <= amount; i++ {
		sum = add4(sum, b.Sample(SlotSource, offsetUV(tc, t, axis[0]*float32(i), axis[1]*float32(i))))
	}
	return single(scale4(sum, 1/float32(2*amount+1))), true
}

// skyboxFragment samples the sky cube map.
func skyboxFragment(b shader.Bindings, in *shader.Varyings, _ [2]float32) (shader.FragmentOut, bool) {
	c := rgb(b.SampleCube(shader.SlotCubeMap, common.Normalize3(in.Vec3(shader.VaryingDirection))))
	exposure := b.Float(nExposure)
	if exposure <= 0 {
		exposure = 1
	}
	return single(rgba(common.Scale3(c, exposure), 1)), true
}
