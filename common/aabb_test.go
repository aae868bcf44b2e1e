package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyAABBUnionIdentity(t *testing.T) {
	b := AABB{Min: [3]float32{-1, 0, 2}, Max: [3]float32{1, 3, 4}}
	assert.False(t, EmptyAABB().Valid())
	assert.Equal(t, b, EmptyAABB().Union(b))
}

func TestAABBTransform(t *testing.T) {
	b := NewAABB([3]float32{0, 0, 0}, [3]float32{2, 2, 2})
	m := ComposeTRS([3]float32{5, 0, 0}, QuatIdentity(), [3]float32{2, 1, 1})
	out := b.Transform(m)
	assert.InDeltaSlice(t, []float32{3, -1, -1}, out.Min[:], 1e-6)
	assert.InDeltaSlice(t, []float32{7, 1, 1}, out.Max[:], 1e-6)
}

func TestAABBCornersAndContains(t *testing.T) {
	b := AABB{Min: [3]float32{0, 0, 0}, Max: [3]float32{1, 2, 3}}
	c := b.Corners()
	assert.Equal(t, [3]float32{0, 0, 0}, c[0])
	assert.Equal(t, [3]float32{1, 2, 3}, c[7])
	for _, p := range c {
		assert.True(t, b.Contains(p))
	}
	assert.False(t, b.Contains([3]float32{1.5, 1, 1}))
}

func TestAABBIntersections(t *testing.T) {
	a := AABB{Min: [3]float32{0, 0, 0}, Max: [3]float32{1, 1, 1}}
	assert.True(t, a.IntersectsAABB(AABB{Min: [3]float32{1, 1, 1}, Max: [3]float32{2, 2, 2}}))
	assert.False(t, a.IntersectsAABB(AABB{Min: [3]float32{1.1, 0, 0}, Max: [3]float32{2, 1, 1}}))
	assert.True(t, a.IntersectsSphere([3]float32{2, 0.5, 0.5}, 1))
	assert.False(t, a.IntersectsSphere([3]float32{3, 3, 3}, 1))
}
