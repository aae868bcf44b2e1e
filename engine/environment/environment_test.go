package environment

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/node"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidCube(t *testing.T, size int, faces [6][3]float32) *texture.CubeMap {
	t.Helper()
	c := texture.NewCubeMap("sky", size, texture.DefaultSettings())
	for f := texture.CubeFacePosX; f <= texture.CubeFaceNegZ; f++ {
		px := make([]float32, size*size*4)
		for i := 0; i < len(px); i += 4 {
			px[i], px[i+1], px[i+2], px[i+3] = faces[f][0], faces[f][1], faces[f][2], 1
		}
		require.NoError(t, c.SetFace(f, px))
	}
	return c
}

func TestVolumeDefaultsAndContainment(t *testing.T) {
	v := NewVolume(WithPosition([3]float32{10, 0, 0}))
	assert.Equal(t, [3]float32{8, 8, 8}, v.Size())
	assert.Equal(t, float32(1), v.Intensity())
	assert.True(t, v.Contains([3]float32{14, 4, -4}), "faces are inside")
	assert.False(t, v.Contains([3]float32{0, 0, 0}))
	assert.False(t, v.ReadyToRender())

	v.SetIBL(IBL{Irradiance: texture.NewCubeMap("irr", 1, texture.DefaultSettings())})
	assert.True(t, v.ReadyToRender())
}

func TestVolumeFollowsNodeWithOffset(t *testing.T) {
	tree := node.NewTree()
	id := tree.New()
	tree.SetTranslation(id, [3]float32{0, 5, 0}, common.TSWorld)

	v := NewVolume(WithNode(tree, id), WithPositionOffset([3]float32{1, 0, 0}), WithSize([3]float32{2, 2, 2}))
	assert.Equal(t, [3]float32{1, 5, 0}, v.Position())
	assert.Equal(t, common.NewAABB([3]float32{1, 5, 0}, [3]float32{2, 2, 2}), v.AABB())

	tree.Translate(id, [3]float32{0, 1, 0}, common.TSWorld)
	pos := v.Position()
	assert.InDeltaSlice(t, []float32{1, 6, 0}, pos[:], 1e-6)
}

func TestComputeIrradianceUniform(t *testing.T) {
	grey := [3]float32{0.5, 0.25, 1}
	irr := ComputeIrradiance(solidCube(t, 4, [6][3]float32{grey, grey, grey, grey, grey, grey}), 2)
	require.NotNil(t, irr)
	for _, d := range [][3]float32{{1, 0, 0}, {0, -1, 0}, {0.3, 0.3, -1}} {
		c := irr.SampleNearest(d)
		assert.InDeltaSlice(t, []float32{0.5, 0.25, 1, 1}, c[:], 1e-4)
	}
	assert.Nil(t, ComputeIrradiance(texture.NewCubeMap("empty", 4, texture.DefaultSettings()), 2))
}

func TestComputeIrradianceFavoursFacingSide(t *testing.T) {
	var faces [6][3]float32
	faces[texture.CubeFacePosY] = [3]float32{1, 1, 1}
	irr := ComputeIrradiance(solidCube(t, 4, faces), 2)
	up := irr.SampleNearest([3]float32{0, 1, 0})[0]
	down := irr.SampleNearest([3]float32{0, -1, 0})[0]
	assert.Greater(t, up, down)
	assert.Equal(t, float32(0), down)
}

func TestSkyInitGate(t *testing.T) {
	s := NewSky()
	assert.False(t, s.NeedsInit(), "nothing to init without a cube map")
	assert.ErrorIs(t, s.Init(), ErrNoCubeMap)

	white := [3]float32{1, 1, 1}
	s.SetCubeMap(solidCube(t, 2, [6][3]float32{white, white, white, white, white, white}))
	assert.True(t, s.NeedsInit())
	assert.False(t, s.ReadyToRender())

	s.MarkInitQueued()
	assert.False(t, s.NeedsInit())
	assert.True(t, s.WaitingForInit())
	assert.False(t, s.ReadyToRender())

	require.NoError(t, s.Init())
	assert.True(t, s.ReadyToRender())
	assert.False(t, s.WaitingForInit())
	env := s.Environment()
	require.NotNil(t, env)
	assert.True(t, env.ReadyToRender())
	assert.True(t, env.Contains([3]float32{1e6, -1e6, 0}))

	s.SetDrawSky(false)
	assert.False(t, s.ReadyToRender())
	assert.NotNil(t, s.Environment(), "lighting stays when drawing is off")
}

func TestSkyMaterialState(t *testing.T) {
	s := NewSky()
	rs := s.Material().RenderState()
	assert.Equal(t, gputypes.CullModeNone, rs.CullMode)
	assert.Equal(t, gputypes.CompareFunctionLessEqual, rs.DepthFunc)
}
