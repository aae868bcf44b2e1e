package light

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/chewxy/math32"
)

// DefaultShadowResolution is the default width and height in texels of a light's region in the
// shadow atlas.
const DefaultShadowResolution = 1024

// DefaultPCFSamples is the default number of shadow filtering taps, laid out as a square grid.
const DefaultPCFSamples = 9

// DefaultPCFRadius is the default filtering radius in atlas texels.
const DefaultPCFRadius float32 = 1.0

// DefaultShadowBias is the constant depth bias applied to shadow comparisons
// to reduce shadow acne artifacts.
const DefaultShadowBias float32 = 0.005

// DefaultBleedReduction is the default light bleeding cut-off. Zero keeps the filtered result.
const DefaultBleedReduction float32 = 0

// DefaultPointRadius and DefaultSpotRadius are the falloff distances new lights start with.
const (
	DefaultPointRadius float32 = 3
	DefaultSpotRadius  float32 = 10
)

// DefaultSpotInnerAngle and DefaultSpotOuterAngle are the cone half-angles in degrees new spot
// lights start with.
const (
	DefaultSpotInnerAngle float32 = 30
	DefaultSpotOuterAngle float32 = 35
)

// PerspectiveShadowNear is the near plane of point and spot shadow cameras. It matches the face
// cameras the lighting shaders rebuild for point lights.
const PerspectiveShadowNear float32 = builtin.PointShadowNear

// minShadowExtent pads each light space axis of a fitted directional frustum so a flat caster
// set never produces a zero depth range.
const minShadowExtent float32 = 0.01

// AtlasPlacement is a light's region of the shadow atlas. Point lights use six consecutive
// layers starting at Layer, one per cube face, all at the same coordinates.
type AtlasPlacement struct {
	Layer      int
	X, Y       int
	Resolution int
}

// LayerCount returns the number of atlas layers the light of type t occupies.
func LayerCount(t LightType) int {
	if t == LightTypePoint {
		return 6
	}
	return 1
}

func (l *lightImpl) ShadowMaterial() material.Material {
	if l.shadowMaterial != nil {
		return l.shadowMaterial
	}
	fs := builtin.PerspDepthFragment
	if l.lightType == LightTypeDirectional {
		fs = builtin.OrthoDepthFragment
	}
	m := material.NewMaterial(
		material.WithName(l.lightType.String()+"_shadow"),
		material.WithType(material.MaterialTypeCustom),
		material.WithShaders(builtin.Get(builtin.DefaultVertex), builtin.Get(fs)),
	)
	if err := m.Init(); err != nil {
		panic(fmt.Sprintf("light: shadow material: %v", err))
	}
	l.shadowMaterial = m
	return m
}

func (l *lightImpl) UpdateShadowCamera() {
	cam := l.shadowCamera
	far := math32.Max(l.radius, 2*PerspectiveShadowNear)
	switch l.lightType {
	case LightTypePoint:
		cam.SetPosition(l.position)
		cam.SetLens(math32.Pi/2, 1, PerspectiveShadowNear, far)
	case LightTypeSpot:
		cam.SetPosition(l.position)
		cam.LookAt(common.Add3(l.position, l.direction), stableUp(l.direction))
		fov := math32.Min(2*common.DegToRad(l.outerAngle), math32.Pi-0.01)
		cam.SetLens(fov, 1, PerspectiveShadowNear, far)
	default:
		return
	}
	l.shadowProjView = cam.ProjectView()
	l.shadowFar = far
	l.shadowReady = true
}

func (l *lightImpl) UpdateShadowFrustum(casterBoxes []common.AABB) bool {
	if l.lightType != LightTypeDirectional {
		l.UpdateShadowCamera()
		return true
	}

	union := common.EmptyAABB()
	for _, b := range casterBoxes {
		if b.Valid() {
			union = union.Union(b)
		}
	}
	l.shadowReady = false
	if !union.Valid() {
		return false
	}
	size := union.Size()
	if size[0] <= 0 && size[1] <= 0 && size[2] <= 0 {
		return false
	}

	center := union.Center()
	cam := l.shadowCamera
	cam.SetPosition(center)
	cam.LookAt(common.Add3(center, l.direction), stableUp(l.direction))

	ls := union.Transform(cam.View())
	for a := 0; a < 3; a++ {
		if ls.Max[a]-ls.Min[a] < minShadowExtent {
			mid := (ls.Max[a] + ls.Min[a]) * 0.5
			ls.Min[a], ls.Max[a] = mid-minShadowExtent*0.5, mid+minShadowExtent*0.5
		}
	}
	// The camera looks down -Z, so the nearest caster has the largest view z.
	cam.SetOrthoLens(ls.Min[0], ls.Max[0], ls.Min[1], ls.Max[1], -ls.Max[2], -ls.Min[2])

	l.shadowProjView = cam.ProjectView()
	l.shadowFar = ls.Max[2] - ls.Min[2]
	l.shadowReady = true
	return true
}

func (l *lightImpl) PointFaceProjView(face int) [16]float32 {
	p := l.position
	fwd, up := common.CubeFaceBasis[face][0], common.CubeFaceBasis[face][1]
	var view, proj, pv [16]float32
	common.LookAt(view[:], p[0], p[1], p[2], p[0]+fwd[0], p[1]+fwd[1], p[2]+fwd[2], up[0], up[1], up[2])
	common.Perspective(proj[:], math32.Pi/2, 1, PerspectiveShadowNear, math32.Max(l.shadowFar, 2*PerspectiveShadowNear))
	common.Mul4(pv[:], proj[:], view[:])
	return pv
}

// stableUp returns an up vector that is not parallel to dir.
func stableUp(dir [3]float32) [3]float32 {
	if math32.Abs(dir[1]) > 0.99 {
		return [3]float32{1, 0, 0}
	}
	return [3]float32{0, 1, 0}
}
