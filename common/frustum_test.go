package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func testFrustum() Frustum {
	var p, v, pv [16]float32
	Perspective(p[:], math32.Pi/2, 1, 0.1, 100)
	LookAt(v[:], 0, 0, 0, 0, 0, -1, 0, 1, 0)
	Mul4(pv[:], p[:], v[:])
	return ExtractFrustumFromMatrix(pv[:])
}

func TestClassifyAABB(t *testing.T) {
	f := testFrustum()

	inside := NewAABB([3]float32{0, 0, -10}, [3]float32{1, 1, 1})
	assert.Equal(t, Inside, f.ClassifyAABB(inside))

	behind := NewAABB([3]float32{0, 0, 10}, [3]float32{1, 1, 1})
	assert.Equal(t, Outside, f.ClassifyAABB(behind))

	farAway := NewAABB([3]float32{0, 0, -500}, [3]float32{1, 1, 1})
	assert.Equal(t, Outside, f.ClassifyAABB(farAway))

	// 90 degree fov: at z=-10 the right plane passes x=10
	straddle := NewAABB([3]float32{10, 0, -10}, [3]float32{2, 2, 2})
	assert.Equal(t, Intersect, f.ClassifyAABB(straddle))

	side := NewAABB([3]float32{30, 0, -10}, [3]float32{2, 2, 2})
	assert.Equal(t, Outside, f.ClassifyAABB(side))
}

func TestNearPlaneUsesZeroToOneDepth(t *testing.T) {
	f := testFrustum()
	assert.True(t, f.ContainsPoint([3]float32{0, 0, -0.2}))
	assert.False(t, f.ContainsPoint([3]float32{0, 0, -0.05}))
}
