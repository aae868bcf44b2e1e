package entity

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestNewEntityDefaults(t *testing.T) {
	e := NewEntity(WithName("crate"))
	assert.Equal(t, "crate", e.Name())
	assert.True(t, e.Visible())
	assert.True(t, e.CastShadow())
	assert.True(t, e.ReceiveShadow())
	assert.True(t, e.NodeID().IsZero())
	assert.False(t, e.Drawable())

	pos, rot, scale := e.InitialTransform()
	assert.Equal(t, [3]float32{}, pos)
	assert.Equal(t, common.QuatIdentity(), rot)
	assert.Equal(t, [3]float32{1, 1, 1}, scale)
}

func TestDrawableLooksAtSubMeshes(t *testing.T) {
	empty := model.NewMesh("root", nil, nil, model.WithSubMeshes(model.NewCube(1)))
	assert.True(t, NewEntity(WithMesh(empty)).Drawable())
	assert.False(t, NewEntity(WithMesh(model.NewMesh("none", nil, nil))).Drawable())
}

func TestSetRotationAppliesXThenY(t *testing.T) {
	e := NewEntity(WithRotation(math32.Pi/2, math32.Pi/2, 0))
	_, q, _ := e.InitialTransform()
	m := common.QuatToMat4(q)
	// +Y turns to +Z about X, then +Z turns to +X about Y
	dir := common.TransformDirection(m, [3]float32{0, 1, 0})
	assert.InDeltaSlice(t, []float32{1, 0, 0}, dir[:], 1e-5)
}

func TestVisibilityToggle(t *testing.T) {
	e := NewEntity(WithVisible(false))
	assert.False(t, e.Visible())
	e.SetVisible(true)
	assert.True(t, e.Visible())
}
