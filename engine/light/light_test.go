package light

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader/builtin"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	p := NewLight(LightTypePoint)
	s := NewLight(LightTypeSpot)
	d := NewLight(LightTypeDirectional)

	assert.Equal(t, float32(3), p.Radius())
	assert.Equal(t, float32(10), s.Radius())
	assert.Equal(t, float32(30), s.InnerAngle())
	assert.Equal(t, float32(35), s.OuterAngle())
	assert.Equal(t, DefaultShadowResolution, d.ShadowResolution())
	assert.True(t, d.ShadowCamera().IsOrtho())
	assert.False(t, p.ShadowCamera().IsOrtho())
	assert.False(t, d.CastsShadows())
	assert.Greater(t, s.InnerCone(), s.OuterCone())
}

func TestUpdateShadowFrustumBoundsCasters(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithDirection(1, -1, 0.5), WithCastsShadows(true))
	casters := []common.AABB{
		common.NewAABB([3]float32{0, 0, 0}, [3]float32{2, 2, 2}),
		common.NewAABB([3]float32{5, 1, -3}, [3]float32{1, 1, 1}),
	}
	require.True(t, l.UpdateShadowFrustum(casters))
	require.True(t, l.ShadowReady())

	pv := l.ShadowProjView()
	for _, box := range casters {
		for _, c := range box.Corners() {
			ndc := common.TransformPoint(pv, c)
			assert.InDelta(t, 0, math32.Max(math32.Abs(ndc[0])-1, 0), 1e-4)
			assert.InDelta(t, 0, math32.Max(math32.Abs(ndc[1])-1, 0), 1e-4)
			assert.GreaterOrEqual(t, ndc[2], float32(-1e-4))
			assert.LessOrEqual(t, ndc[2], float32(1+1e-4))
		}
	}

	// the union box touches the frustum sides and both depth planes
	union := casters[0].Union(casters[1])
	var maxX, maxY, minZ, maxZ float32 = 0, 0, 1, 0
	for _, c := range union.Corners() {
		ndc := common.TransformPoint(pv, c)
		maxX = math32.Max(maxX, math32.Abs(ndc[0]))
		maxY = math32.Max(maxY, math32.Abs(ndc[1]))
		minZ = math32.Min(minZ, ndc[2])
		maxZ = math32.Max(maxZ, ndc[2])
	}
	assert.InDelta(t, 1, maxX, 1e-3)
	assert.InDelta(t, 1, maxY, 1e-3)
	assert.InDelta(t, 0, minZ, 1e-3)
	assert.InDelta(t, 1, maxZ, 1e-3)

	fitted := common.EmptyAABB()
	for _, c := range l.ShadowCamera().FrustumCorners() {
		fitted = fitted.ExpandByPoint(c)
	}
	for a := 0; a < 3; a++ {
		assert.LessOrEqual(t, fitted.Min[a], union.Min[a]+1e-3)
		assert.GreaterOrEqual(t, fitted.Max[a], union.Max[a]-1e-3)
	}
}

func TestUpdateShadowFrustumDegenerate(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithCastsShadows(true))
	l.SetAtlasPlacement(AtlasPlacement{Resolution: 1024})

	assert.False(t, l.UpdateShadowFrustum(nil))
	assert.False(t, l.ShadowReady())
	assert.False(t, ToLightEntry(l, 4096).CastShadow)

	point := common.AABB{Min: [3]float32{1, 1, 1}, Max: [3]float32{1, 1, 1}}
	assert.False(t, l.UpdateShadowFrustum([]common.AABB{point, common.EmptyAABB()}))

	// a flat ground plane seen straight down still gets a depth range
	plane := common.NewAABB([3]float32{0, 0, 0}, [3]float32{10, 0, 10})
	require.True(t, l.UpdateShadowFrustum([]common.AABB{plane}))
	assert.Greater(t, l.ShadowCameraFar(), float32(0))
	assert.True(t, ToLightEntry(l, 4096).CastShadow)
}

func TestPointFaceProjView(t *testing.T) {
	l := NewLight(LightTypePoint, WithPosition(1, 2, 3))
	assert.Equal(t, float32(3), l.ShadowCameraFar())
	for face, basis := range common.CubeFaceBasis {
		target := common.Add3(l.Position(), common.Scale3(basis[0], 2))
		ndc := common.TransformPoint(l.PointFaceProjView(face), target)
		assert.InDelta(t, 0, ndc[0], 1e-4, "face %d", face)
		assert.InDelta(t, 0, ndc[1], 1e-4, "face %d", face)
		assert.Greater(t, ndc[2], float32(0))
		assert.Less(t, ndc[2], float32(1))
	}
}

func TestAffectsAABB(t *testing.T) {
	unit := [3]float32{1, 1, 1}

	spot := NewLight(LightTypeSpot, WithDirection(0, 0, -1))
	assert.True(t, spot.AffectsAABB(common.NewAABB([3]float32{0, 0, -5}, unit)))
	assert.False(t, spot.AffectsAABB(common.NewAABB([3]float32{0, 0, 5}, unit)))
	assert.False(t, spot.AffectsAABB(common.NewAABB([3]float32{0, 0, -20}, unit)))
	assert.False(t, spot.AffectsAABB(common.NewAABB([3]float32{9, 0, -1}, unit)))

	point := NewLight(LightTypePoint, WithRadius(2))
	assert.True(t, point.AffectsAABB(common.NewAABB([3]float32{2, 0, 0}, unit)))
	assert.False(t, point.AffectsAABB(common.NewAABB([3]float32{4, 0, 0}, unit)))

	sun := NewLight(LightTypeDirectional)
	assert.True(t, sun.AffectsAABB(common.NewAABB([3]float32{1000, 0, 0}, unit)))
	assert.False(t, sun.AffectsAABB(common.EmptyAABB()))
}

func TestSpotReachFollowsSetters(t *testing.T) {
	unit := [3]float32{1, 1, 1}
	below := common.NewAABB([3]float32{0, 0, -5}, unit)

	spot := NewLight(LightTypeSpot, WithCastsShadows(false), WithPosition(40, 40, 40))
	require.False(t, spot.AffectsAABB(below))

	spot.SetPosition(0, 3, -5)
	spot.SetDirection(0, -1, 0)
	assert.True(t, spot.AffectsAABB(below))

	spot.SetRadius(2)
	assert.False(t, spot.AffectsAABB(below), "the cone ends above the box")

	spot.SetRadius(10)
	spot.SetSpotCone(1, 2)
	assert.True(t, spot.AffectsAABB(below))
	assert.False(t, spot.AffectsAABB(common.NewAABB([3]float32{3, 0, -5}, unit)))
}

func TestShadowMaterialIsLazyPerType(t *testing.T) {
	sun := NewLight(LightTypeDirectional)
	m := sun.ShadowMaterial()
	assert.Same(t, m, sun.ShadowMaterial())
	assert.Equal(t, builtin.OrthoDepthFragment, m.FragmentShader().Key())

	spot := NewLight(LightTypeSpot)
	assert.Equal(t, builtin.PerspDepthFragment, spot.ShadowMaterial().FragmentShader().Key())
	assert.Equal(t, builtin.DefaultVertex, spot.ShadowMaterial().VertexShader().Key())
}

func TestToLightEntryAtlasPlacement(t *testing.T) {
	l := NewLight(LightTypeSpot, WithCastsShadows(true), WithPosition(0, 4, 0), WithPCF(4, 2))
	e := ToLightEntry(l, 4096)
	assert.Equal(t, shader.LightKindSpot, e.Kind)
	assert.False(t, e.CastShadow, "no atlas region yet")

	l.SetAtlasPlacement(AtlasPlacement{Layer: 2, X: 1024, Y: 2048, Resolution: 1024})
	e = ToLightEntry(l, 4096)
	require.True(t, e.CastShadow)
	assert.Equal(t, [2]float32{0.25, 0.5}, e.AtlasCoord)
	assert.Equal(t, float32(0.25), e.AtlasScale)
	assert.Equal(t, int32(2), e.AtlasLayer)
	assert.Equal(t, int32(4), e.PCFSamples)
	assert.Equal(t, float32(10), e.ShadowFar)
	assert.Equal(t, l.ShadowProjView(), e.ProjView)

	l.ClearAtlasPlacement()
	assert.False(t, ToLightEntry(l, 4096).CastShadow)
}

func TestToLightDataSkipsDisabledAndCaps(t *testing.T) {
	lights := []Light{NewLight(LightTypePoint, WithEnabled(false))}
	for i := 0; i < shader.MaxLights+4; i++ {
		lights = append(lights, NewLight(LightTypeDirectional))
	}
	d := ToLightData(lights, 0)
	assert.Equal(t, int32(shader.MaxLights), d.Count)
	assert.Equal(t, shader.LightKindDirectional, d.Lights[0].Kind)
	assert.Len(t, Enabled(lights), shader.MaxLights+4)
}
