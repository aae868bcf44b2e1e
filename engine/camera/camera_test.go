package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/node"
	"github.com/stretchr/testify/assert"
)

func vec3(v [3]float32) []float32 { return v[:] }

func TestDefaultCameraLooksDownNegativeZ(t *testing.T) {
	c := NewCamera()
	assert.InDeltaSlice(t, []float32{0, 0, -1}, vec3(c.Direction()), 1e-6)
	assert.Equal(t, common.Inside, c.Frustum().ClassifyAABB(common.NewAABB([3]float32{0, 0, -10}, [3]float32{1, 1, 1})))
	assert.Equal(t, common.Outside, c.Frustum().ClassifyAABB(common.NewAABB([3]float32{0, 0, 10}, [3]float32{1, 1, 1})))
}

func TestLookAt(t *testing.T) {
	c := NewCamera(WithPosition([3]float32{0, 0, 5}))
	c.LookAt([3]float32{5, 0, 5}, [3]float32{0, 1, 0})
	assert.InDeltaSlice(t, []float32{1, 0, 0}, vec3(c.Direction()), 1e-5)
	assert.InDeltaSlice(t, []float32{0, 0, 5}, vec3(c.Position()), 1e-5)

	view := c.View()
	p := common.TransformPoint(view, [3]float32{7, 0, 5})
	assert.InDelta(t, -2, p[2], 1e-5, "target is in front along -Z in view space")
}

func TestFrustumCornersOrtho(t *testing.T) {
	c := NewCamera(WithOrthoLens(-2, 2, -1, 1, 1, 11))
	assert.True(t, c.IsOrtho())
	corners := c.FrustumCorners()
	assert.InDeltaSlice(t, []float32{-2, -1, -1}, corners[0][:], 1e-5)
	assert.InDeltaSlice(t, []float32{2, 1, -11}, corners[7][:], 1e-4)
}

func TestFrustumCornersPerspective(t *testing.T) {
	c := NewCamera(WithLens(common.DegToRad(90), 1, 1, 10))
	corners := c.FrustumCorners()
	// at 90 degrees the half extent equals the distance
	assert.InDeltaSlice(t, []float32{-1, -1, -1}, corners[0][:], 1e-4)
	assert.InDeltaSlice(t, []float32{10, 10, -10}, corners[7][:], 1e-3)
}

func TestDataCarriesFar(t *testing.T) {
	c := NewCamera(WithPosition([3]float32{1, 2, 3}))
	c.SetFar(42)
	d := c.Data()
	assert.Equal(t, float32(42), d.Far)
	assert.InDeltaSlice(t, []float32{1, 2, 3}, d.Position[:], 1e-6)
}

func TestFollowsNode(t *testing.T) {
	tree := node.NewTree()
	id := tree.New()
	tree.SetTranslation(id, [3]float32{0, 3, 0}, common.TSWorld)
	tree.SetScale(id, [3]float32{2, 2, 2})

	c := NewCamera(WithNode(tree, id))
	assert.InDeltaSlice(t, []float32{0, 3, 0}, vec3(c.Position()), 1e-6)

	tree.SetTranslation(id, [3]float32{1, 1, 1}, common.TSWorld)
	assert.InDeltaSlice(t, []float32{0, 3, 0}, vec3(c.Position()), 1e-6, "pose only moves on Update")
	c.Update()
	assert.InDeltaSlice(t, []float32{1, 1, 1}, vec3(c.Position()), 1e-5)
	assert.InDeltaSlice(t, []float32{0, 0, -1}, vec3(c.Direction()), 1e-5, "scale is ignored")
}

func TestFollowsController(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(50), WithTarget(0, 0, 0))
	c := NewCamera(WithController(ctrl))
	eye := ctrl.Position()
	assert.InDeltaSlice(t, eye[:], vec3(c.Position()), 1e-3)
	dir := c.Direction()
	toTarget := common.Normalize3(common.Scale3(eye, -1))
	assert.InDeltaSlice(t, toTarget[:], dir[:], 1e-4)
}

func TestOrbitControllerClampsAndPans(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(5), WithElevation(0), WithRadiusBounds(2, 8), WithZoomSpeed(1))
	assert.InDeltaSlice(t, []float32{0, 0, 5}, vec3(ctrl.Position()), 1e-5)

	ctrl.Zoom(10)
	assert.Equal(t, float32(2), ctrl.Radius())
	ctrl.Zoom(-10)
	assert.Equal(t, float32(8), ctrl.Radius())

	ctrl.Orbit(0, 10)
	assert.Less(t, ctrl.Elevation(), float32(1.58))

	flat := NewOrbitController(WithRadius(5), WithElevation(0))
	flat.Pan(1, 2)
	target := flat.Target()
	assert.InDeltaSlice(t, []float32{1, 2, 0}, target[:], 1e-5)
	pos := flat.Position()
	assert.InDeltaSlice(t, []float32{1, 2, 5}, pos[:], 1e-5)
}
