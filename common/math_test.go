package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestInvert4RoundTrip(t *testing.T) {
	m := ComposeTRS([3]float32{1, 2, 3}, QuatFromAxisAngle([3]float32{0, 1, 0}, 0.7), [3]float32{2, 2, 2})
	var inv, out [16]float32
	assert.True(t, Invert4(inv[:], m[:]))
	Mul4(out[:], m[:], inv[:])
	id := IdentityMat4()
	assert.InDeltaSlice(t, id[:], out[:], 1e-5)
}

func TestInvert4Singular(t *testing.T) {
	var zero, out [16]float32
	out[0] = 42
	assert.False(t, Invert4(out[:], zero[:]))
	assert.Equal(t, float32(42), out[0])
}

func TestComposeDecomposeTRS(t *testing.T) {
	q := QuatFromAxisAngle([3]float32{1, 1, 0}, 1.1)
	m := ComposeTRS([3]float32{-4, 5, 6}, q, [3]float32{1, 3, 0.5})
	tr, rq, s := DecomposeTRS(m)
	assert.InDeltaSlice(t, []float32{-4, 5, 6}, tr[:], 1e-5)
	assert.InDeltaSlice(t, []float32{1, 3, 0.5}, s[:], 1e-5)
	// q and -q encode the same rotation
	if rq[3]*q[3] < 0 {
		rq = [4]float32{-rq[0], -rq[1], -rq[2], -rq[3]}
	}
	assert.InDeltaSlice(t, q[:], rq[:], 1e-4)
}

func TestPerspectiveDepthRange(t *testing.T) {
	var p [16]float32
	Perspective(p[:], math32.Pi/2, 1, 1, 10)
	near := TransformPoint(p, [3]float32{0, 0, -1})
	far := TransformPoint(p, [3]float32{0, 0, -10})
	assert.InDelta(t, 0, near[2], 1e-5)
	assert.InDelta(t, 1, far[2], 1e-5)
}

func TestOrthoMapsBoxToClip(t *testing.T) {
	var o [16]float32
	Ortho(o[:], -2, 4, -1, 3, 0.5, 20)
	lo := TransformPoint(o, [3]float32{-2, -1, -0.5})
	hi := TransformPoint(o, [3]float32{4, 3, -20})
	assert.InDeltaSlice(t, []float32{-1, -1, 0}, lo[:], 1e-5)
	assert.InDeltaSlice(t, []float32{1, 1, 1}, hi[:], 1e-5)
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	var v [16]float32
	LookAt(v[:], 3, 4, 5, 0, 0, 0, 0, 1, 0)
	eye := TransformPoint(v, [3]float32{3, 4, 5})
	assert.InDeltaSlice(t, []float32{0, 0, 0}, eye[:], 1e-5)
	target := TransformPoint(v, [3]float32{0, 0, 0})
	assert.InDelta(t, 0, target[0], 1e-5)
	assert.InDelta(t, 0, target[1], 1e-5)
	assert.Less(t, target[2], float32(0))
}

func TestLookAtStraightDown(t *testing.T) {
	var v [16]float32
	LookAt(v[:], 0, 10, 0, 0, 0, 0, 0, 1, 0)
	for _, f := range v {
		assert.False(t, math32.IsNaN(f))
	}
}

func TestQuatMulComposes(t *testing.T) {
	a := QuatFromAxisAngle([3]float32{0, 0, 1}, math32.Pi/4)
	ab := QuatMul(a, a)
	m := QuatToMat4(ab)
	x := TransformDirection(m, [3]float32{1, 0, 0})
	assert.InDeltaSlice(t, []float32{0, 1, 0}, x[:], 1e-5)
}
