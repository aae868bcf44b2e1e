package builtin

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
)

// defaultVertex transforms mesh vertices and writes every mesh varying.
func defaultVertex(b shader.Bindings, in shader.VertexIn) ([4]float32, shader.Varyings) {
	p := [4]float32{in.Position[0], in.Position[1], in.Position[2], 1}
	clip := common.TransformVec4(b.Mat4(nProjectViewModel), p)
	world := common.TransformVec4(b.Mat4(nModel), p)
	view := b.Mat4(nView)
	n := common.Normalize3(common.TransformDirection(b.Mat4(nInvTransModel), in.Normal))

	var v shader.Varyings
	v.SetVec3(shader.VaryingWorldPos, [3]float32{world[0], world[1], world[2]})
	v.SetVec3(shader.VaryingNormal, n)
	v[shader.VaryingUV], v[shader.VaryingUV+1] = in.UV[0], in.UV[1]
	v[shader.VaryingViewDepth] = -common.TransformVec4(view, world)[2]
	v.SetVec3(shader.VaryingViewNormal, common.Normalize3(common.TransformDirection(view, n)))
	if clip[3] != 0 {
		v[shader.VaryingNDCDepth] = clip[2] / clip[3]
	}
	return clip, v
}

// fullQuadVertex passes quad positions through as clip coordinates. The uv origin is the top left
// corner of the target.
func fullQuadVertex(_ shader.Bindings, in shader.VertexIn) ([4]float32, shader.Varyings) {
	var v shader.Varyings
	v[shader.VaryingUV] = in.Position[0]*0.5 + 0.5
	v[shader.VaryingUV+1] = 0.5 - in.Position[1]*0.5
	return [4]float32{in.Position[0], in.Position[1], 0, 1}, v
}

// skyboxVertex places the cube on the far plane and writes the lookup direction.
func skyboxVertex(b shader.Bindings, in shader.VertexIn) ([4]float32, shader.Varyings) {
	clip := common.TransformVec4(b.Mat4(nProjectViewNoTr), [4]float32{in.Position[0], in.Position[1], in.Position[2], 1})
	clip[2] = clip[3]
	var v shader.Varyings
	v.SetVec3(shader.VaryingDirection, in.Position)
	return clip, v
}

// gbufferFragment writes the surface attributes to the G-buffer attachments.
func gbufferFragment(b shader.Bindings, in *shader.Varyings, _ [2]float32) (shader.FragmentOut, bool) {
	s, keep := evalMaterial(b, in)
	if !keep {
		return shader.FragmentOut{}, false
	}
	var out shader.FragmentOut
	out[GBufferPosition] = rgba(s.pos, 1)
	out[GBufferNormal] = rgba(s.n, 1)
	out[GBufferColor] = rgba(s.albedo, 1)
	out[GBufferEmissive] = rgba(s.emissive, 1)
	out[GBufferLinearDepth] = [4]float32{in[shader.VaryingViewDepth], 0, 0, 1}
	out[GBufferMetallicRoughness] = [4]float32{s.metallic, s.roughness, 0, 1}
	out[GBufferIBL] = rgba(iblAmbient(b, s, viewDirection(b, s.pos)), 1)
	return out, true
}

// forwardFragment lights the surface with the bound light list, image based lighting and the
// optional screen space ambient occlusion.
func forwardFragment(b shader.Bindings, in *shader.Varyings, fragCoord [2]float32) (shader.FragmentOut, bool) {
	s, keep := evalMaterial(b, in)
	if !keep {
		return shader.FragmentOut{}, false
	}
	viewDir := viewDirection(b, s.pos)
	ambient := iblAmbient(b, s, viewDir)
	if b.Bool(ParamAOInUse) {
		size := b.Vec2(ParamScreenSize)
		if size[0] > 0 && size[1] > 0 {
			ao := b.Sample(SlotForwardAO, [2]float32{fragCoord[0] / size[0], fragCoord[1] / size[1]})[0]
			ambient = common.Scale3(ambient, ao)
		}
	}
	c := common.Add3(common.Add3(shadeLights(b, s, viewDir), ambient), s.emissive)
	return single(rgba(c, s.alpha)), true
}

// unlitFragment outputs the material colour.
func unlitFragment(b shader.Bindings, in *shader.Varyings, _ [2]float32) (shader.FragmentOut, bool) {
	c := b.Vec4(nColor)
	alpha := b.Float(nColorAlpha)
	col := rgb(c)
	if b.Bool(nDiffuseInUse) {
		t := b.Sample(shader.SlotDiffuse, uv(in))
		col = mul3(col, rgb(t))
		alpha *= t[3]
	}
	if b.Bool(nUseAlphaMask) && alpha < b.Float(nAlphaMaskThreshold) {
		return shader.FragmentOut{}, false
	}
	return single(rgba(col, alpha)), true
}

// forwardPreProcessFragment writes the view space normal and the linear depth.
func forwardPreProcessFragment(_ shader.Bindings, in *shader.Varyings, _ [2]float32) (shader.FragmentOut, bool) {
	var out shader.FragmentOut
	out[0] = rgba(common.Normalize3(in.Vec3(shader.VaryingViewNormal)), 1)
	out[1] = [4]float32{in[shader.VaryingViewDepth], 0, 0, 1}
	return out, true
}

// orthoDepthFragment stores the normalized device depth, used by directional light shadows.
func orthoDepthFragment(_ shader.Bindings, in *shader.Varyings, _ [2]float32) (shader.FragmentOut, bool) {
	return single([4]float32{in[shader.VaryingNDCDepth], 0, 0, 1}), true
}

// perspDepthFragment stores the distance to the camera over its far plane, used by point and
// spot light shadows.
func perspDepthFragment(b shader.Bindings, in *shader.Varyings, _ [2]float32) (shader.FragmentOut, bool) {
	cam := shader.CameraDataOf(b)
	if cam.Far <= 0 {
		return single([4]float32{1, 0, 0, 1}), true
	}
	d := common.Length3(common.Sub3(in.Vec3(shader.VaryingWorldPos), cam.Position)) / cam.Far
	return single([4]float32{d, 0, 0, 1}), true
}
