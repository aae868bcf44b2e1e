package builtin

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/chewxy/math32"
)

// Names of the built-in uniforms, resolved once.
var (
	nProjectViewModel   = shader.UniformProjectModelView.Name()
	nModel              = shader.UniformModel.Name()
	nInvTransModel      = shader.UniformInvTransModel.Name()
	nView               = shader.UniformView.Name()
	nProjectViewNoTr    = shader.UniformProjectViewNoTranslation.Name()
	nColor              = shader.UniformColor.Name()
	nColorAlpha         = shader.UniformColorAlpha.Name()
	nDiffuseInUse       = shader.UniformDiffuseTextureInUse.Name()
	nEmissiveColor      = shader.UniformEmissiveColor.Name()
	nEmissiveInUse      = shader.UniformEmissiveTextureInUse.Name()
	nMetallic           = shader.UniformMetallic.Name()
	nRoughness          = shader.UniformRoughness.Name()
	nMetallicRoughInUse = shader.UniformMetallicRoughnessTextureInUse.Name()
	nUseAlphaMask       = shader.UniformUseAlphaMask.Name()
	nAlphaMaskThreshold = shader.UniformAlphaMaskThreshold.Name()
	nExposure           = shader.UniformExposure.Name()
	nUseIBL             = shader.UniformUseIBL.Name()
	nIBLIntensity       = shader.UniformIBLIntensity.Name()
	nIBLRotation        = shader.UniformIBLRotation.Name()
)

func clamp(x, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, x))
}

func saturate(x float32) float32 {
	return clamp(x, 0, 1)
}

func mix(a, b, t float32) float32 {
	return a + (b-a)*t
}

func smoothstep(e0, e1, x float32) float32 {
	if e0 == e1 {
		if x < e0 {
			return 0
		}
		return 1
	}
	t := saturate((x - e0) / (e1 - e0))
	return t * t * (3 - 2*t)
}

func mul3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func rgb(c [4]float32) [3]float32 {
	return [3]float32{c[0], c[1], c[2]}
}

func rgba(c [3]float32, a float32) [4]float32 {
	return [4]float32{c[0], c[1], c[2], a}
}

func add4(a, b [4]float32) [4]float32 {
	return [4]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

func scale4(a [4]float32, s float32) [4]float32 {
	return [4]float32{a[0] * s, a[1] * s, a[2] * s, a[3] * s}
}

func luma(c [3]float32) float32 {
	return c[0]*0.299 + c[1]*0.587 + c[2]*0.114
}

func reflect3(i, n [3]float32) [3]float32 {
	return common.Sub3(i, common.Scale3(n, 2*common.Dot3(n, i)))
}

// uv reads the texture coordinate varyings.
func uv(in *shader.Varyings) [2]float32 {
	return [2]float32{in[shader.VaryingUV], in[shader.VaryingUV+1]}
}

// single writes c to the first colour output.
func single(c [4]float32) shader.FragmentOut {
	var out shader.FragmentOut
	out[0] = c
	return out
}

// texel returns the size of one texel of the texture bound to slot in uv units.
func texel(b shader.Bindings, slot int) [2]float32 {
	w, h := b.TextureSize(slot)
	if w == 0 || h == 0 {
		return [2]float32{}
	}
	return [2]float32{1 / float32(w), 1 / float32(h)}
}

func offsetUV(p [2]float32, t [2]float32, dx, dy float32) [2]float32 {
	return [2]float32{p[0] + t[0]*dx, p[1] + t[1]*dy}
}
