package builtin

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/chewxy/math32"
)

// PointShadowNear is the near plane of point light face cameras. Only the face uv depends on the
// projection, and at 90 degrees it does not depend on the near plane.
const PointShadowNear = 0.05

// surface is a shaded point.
type surface struct {
	pos       [3]float32
	n         [3]float32
	albedo    [3]float32
	alpha     float32
	emissive  [3]float32
	metallic  float32
	roughness float32
}

// evalMaterial reads the material uniforms and textures for the fragment. keep is false when the
// fragment fails the alpha mask.
func evalMaterial(b shader.Bindings, in *shader.Varyings) (s surface, keep bool) {
	tc := uv(in)
	col := b.Vec4(nColor)
	s.pos = in.Vec3(shader.VaryingWorldPos)
	s.n = common.Normalize3(in.Vec3(shader.VaryingNormal))
	s.albedo = rgb(col)
	s.alpha = b.Float(nColorAlpha)
	if b.Bool(nDiffuseInUse) {
		t := b.Sample(shader.SlotDiffuse, tc)
		s.albedo = mul3(s.albedo, rgb(t))
		s.alpha *= t[3]
	}
	if b.Bool(nUseAlphaMask) && s.alpha < b.Float(nAlphaMaskThreshold) {
		return s, false
	}

	s.emissive = b.Vec3(nEmissiveColor)
	if b.Bool(nEmissiveInUse) {
		s.emissive = mul3(s.emissive, rgb(b.Sample(shader.SlotEmissive, tc)))
	}

	s.metallic = b.Float(nMetallic)
	s.roughness = b.Float(nRoughness)
	if b.Bool(nMetallicRoughInUse) {
		t := b.Sample(shader.SlotMetallicRoughness, tc)
		s.roughness *= t[1]
		s.metallic *= t[2]
	}
	s.roughness = clamp(s.roughness, 0.04, 1)
	return s, true
}

// iblRotate applies the environment rotation, treating an unset matrix as identity.
func iblRotate(b shader.Bindings, d [3]float32) [3]float32 {
	rot := b.Mat4(nIBLRotation)
	if rot[15] == 0 {
		return d
	}
	return common.TransformDirection(rot, d)
}

// iblAmbient is the image based lighting contribution for s seen from viewDir.
func iblAmbient(b shader.Bindings, s surface, viewDir [3]float32) [3]float32 {
	if !b.Bool(nUseIBL) {
		return [3]float32{}
	}
	irr := rgb(b.SampleCube(shader.SlotIBLIrradiance, iblRotate(b, s.n)))
	kd := 1 - s.metallic
	out := common.Scale3(mul3(irr, s.albedo), kd)

	if b.Bound(shader.SlotIBLSpecular) {
		r := reflect3(common.Scale3(viewDir, -1), s.n)
		pref := rgb(b.SampleCube(shader.SlotIBLSpecular, iblRotate(b, r)))
		nv := math32.Max(common.Dot3(s.n, viewDir), 0)
		lut := [4]float32{1, 0, 0, 0}
		if b.Bound(shader.SlotIBLBRDFLut) {
			lut = b.Sample(shader.SlotIBLBRDFLut, [2]float32{nv, s.roughness})
		}
		f0 := baseReflectivity(s)
		for i := range 3 {
			out[i] += pref[i] * (f0[i]*lut[0] + lut[1])
		}
	}
	return common.Scale3(out, b.Float(nIBLIntensity))
}

func baseReflectivity(s surface) [3]float32 {
	return [3]float32{mix(0.04, s.albedo[0], s.metallic), mix(0.04, s.albedo[1], s.metallic), mix(0.04, s.albedo[2], s.metallic)}
}

// shadeLight evaluates one light on s with a Cook-Torrance GGX specular and Lambert diffuse,
// attenuated by the light's shadow.
func shadeLight(b shader.Bindings, l *shader.LightEntry, s surface, viewDir [3]float32) [3]float32 {
	var lDir [3]float32
	atten := float32(1)
	switch l.Kind {
	case shader.LightKindDirectional:
		lDir = common.Normalize3(common.Scale3(l.Direction, -1))
	default:
		d := common.Sub3(l.Position, s.pos)
		dist := common.Length3(d)
		if dist == 0 || l.Radius <= 0 || dist >= l.Radius {
			return [3]float32{}
		}
		lDir = common.Scale3(d, 1/dist)
		f := 1 - dist/l.Radius
		atten = f * f
		if l.Kind == shader.LightKindSpot {
			cosTheta := common.Dot3(common.Scale3(lDir, -1), common.Normalize3(l.Direction))
			atten *= smoothstep(l.OuterCos, l.InnerCos, cosTheta)
		}
	}

	nl := common.Dot3(s.n, lDir)
	if nl <= 0 || atten <= 0 {
		return [3]float32{}
	}
	if l.CastShadow {
		atten *= shadowFactor(b, l, s.pos)
		if atten <= 0 {
			return [3]float32{}
		}
	}

	h := common.Normalize3(common.Add3(lDir, viewDir))
	nv := math32.Max(common.Dot3(s.n, viewDir), 1e-4)
	nh := math32.Max(common.Dot3(s.n, h), 0)
	vh := math32.Max(common.Dot3(viewDir, h), 0)

	a := s.roughness * s.roughness
	a2 := a * a
	denom := nh*nh*(a2-1) + 1
	dTerm := a2 / (math32.Pi * denom * denom)
	k := (s.roughness + 1) * (s.roughness + 1) / 8
	g := (nv / (nv*(1-k) + k)) * (nl / (nl*(1-k) + k))
	f0 := baseReflectivity(s)
	fw := math32.Pow(1-vh, 5)

	var out [3]float32
	for i := range 3 {
		f := f0[i] + (1-f0[i])*fw
		spec := dTerm * g * f / math32.Max(4*nv*nl, 1e-4)
		kd := (1 - f) * (1 - s.metallic)
		radiance := l.Color[i] * l.Intensity * atten
		out[i] = (kd*s.albedo[i]/math32.Pi + spec) * radiance * nl
	}
	return out
}

// shadowFactor returns 1 for fully lit and 0 for fully shadowed.
func shadowFactor(b shader.Bindings, l *shader.LightEntry, pos [3]float32) float32 {
	if l.AtlasScale <= 0 || !b.Bound(shader.SlotShadowAtlas) {
		return 1
	}

	var (
		coord   [2]float32
		current float32
		layer   = int(l.AtlasLayer)
	)
	switch l.Kind {
	case shader.LightKindDirectional:
		ndc := common.TransformPoint(l.ProjView, pos)
		if ndc[2] > 1 {
			return 1
		}
		coord = [2]float32{ndc[0]*0.5 + 0.5, 0.5 - ndc[1]*0.5}
		current = ndc[2]
	case shader.LightKindSpot:
		ndc := common.TransformPoint(l.ProjView, pos)
		coord = [2]float32{ndc[0]*0.5 + 0.5, 0.5 - ndc[1]*0.5}
		current = common.Length3(common.Sub3(pos, l.Position)) / math32.Max(l.ShadowFar, 1e-4)
	case shader.LightKindPoint:
		d := common.Sub3(pos, l.Position)
		face := common.CubeFaceIndex(d)
		fwd, up := common.CubeFaceBasis[face][0], common.CubeFaceBasis[face][1]
		var view, proj, pv [16]float32
		common.LookAt(view[:], l.Position[0], l.Position[1], l.Position[2],
			l.Position[0]+fwd[0], l.Position[1]+fwd[1], l.Position[2]+fwd[2], up[0], up[1], up[2])
		common.Perspective(proj[:], math32.Pi/2, 1, PointShadowNear, math32.Max(l.ShadowFar, 2*PointShadowNear))
		common.Mul4(pv[:], proj[:], view[:])
		ndc := common.TransformPoint(pv, pos)
		coord = [2]float32{ndc[0]*0.5 + 0.5, 0.5 - ndc[1]*0.5}
		current = common.Length3(d) / math32.Max(l.ShadowFar, 1e-4)
		layer += face
	}
	if coord[0] < 0 || coord[0] > 1 || coord[1] < 0 || coord[1] > 1 {
		return 1
	}

	t := texel(b, shader.SlotShadowAtlas)
	n := int(math32.Sqrt(float32(max(l.PCFSamples, 1))))
	n = max(n, 1)
	lit, total := float32(0), float32(0)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var ox, oy float32
			if n > 1 {
				ox = (float32(i)/float32(n-1)*2 - 1) * l.PCFRadius
				oy = (float32(j)/float32(n-1)*2 - 1) * l.PCFRadius
			}
			at := [2]float32{
				l.AtlasCoord[0] + saturate(coord[0]+ox*t[0]/l.AtlasScale)*l.AtlasScale,
				l.AtlasCoord[1] + saturate(coord[1]+oy*t[1]/l.AtlasScale)*l.AtlasScale,
			}
			stored := b.SampleLayer(shader.SlotShadowAtlas, at, layer)[0]
			if current-l.ShadowBias <= stored {
				lit++
			}
			total++
		}
	}
	p := lit / total
	if l.BleedReduction > 0 && l.BleedReduction < 1 {
		p = saturate((p - l.BleedReduction) / (1 - l.BleedReduction))
	}
	return p
}

// shadeLights sums every light in the bound light list.
func shadeLights(b shader.Bindings, s surface, viewDir [3]float32) [3]float32 {
	ld := shader.LightDataOf(b)
	var out [3]float32
	count := min(int(ld.Count), shader.MaxLights)
	for i := 0; i < count; i++ {
		out = common.Add3(out, shadeLight(b, &ld.Lights[i], s, viewDir))
	}
	return out
}

// viewDirection points from pos to the camera.
func viewDirection(b shader.Bindings, pos [3]float32) [3]float32 {
	cam := shader.CameraDataOf(b)
	return common.Normalize3(common.Sub3(cam.Position, pos))
}
