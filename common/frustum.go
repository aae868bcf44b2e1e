package common

import (
	"github.com/chewxy/math32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// SignedDistance returns the signed distance of p to the plane. Positive is inside.
func (p Plane) SignedDistance(pt [3]float32) float32 {
	return p.Normal[0]*pt[0] + p.Normal[1]*pt[1] + p.Normal[2]*pt[2] + p.Distance
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustumFromMatrix extracts frustum planes from a projection * view matrix.
// Uses the Gribb/Hartmann method for plane extraction, with the near plane taken from
// row 2 alone because clip depth is in [0, 1].
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - projView: 16 float32 values representing the projection-view matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(projView []float32) Frustum {
	var f Frustum

	// element M[row][col] lives at col*4 + row
	row := func(r int) [4]float32 {
		return [4]float32{projView[r], projView[4+r], projView[8+r], projView[12+r]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	set := func(i int, v [4]float32) {
		f.Planes[i].Normal = [3]float32{v[0], v[1], v[2]}
		f.Planes[i].Distance = v[3]
	}
	add := func(a, b [4]float32) [4]float32 { return [4]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]} }
	sub := func(a, b [4]float32) [4]float32 { return [4]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]} }

	set(FrustumLeft, add(r3, r0))
	set(FrustumRight, sub(r3, r0))
	set(FrustumBottom, add(r3, r1))
	set(FrustumTop, sub(r3, r1))
	set(FrustumNear, r2)
	set(FrustumFar, sub(r3, r2))

	for i := range f.Planes {
		f.normalizePlane(i)
	}

	return f
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := math32.Sqrt(p.Normal[0]*p.Normal[0] + p.Normal[1]*p.Normal[1] + p.Normal[2]*p.Normal[2])

	if length > 0 {
		invLen := 1.0 / length
		p.Normal[0] *= invLen
		p.Normal[1] *= invLen
		p.Normal[2] *= invLen
		p.Distance *= invLen
	}
}

// ClassifyAABB tests a box against the six planes. For each plane the corner furthest
// along the plane normal (p-vertex) decides Outside, and the opposite corner (n-vertex)
// decides whether the box straddles the plane.
//
// Parameters:
//   - box: the world-space box to classify
//
// Returns:
//   - Intersection: Outside, Intersect or Inside
func (f Frustum) ClassifyAABB(box AABB) Intersection {
	result := Inside
	for i := range f.Planes {
		pl := f.Planes[i]
		var pv, nv [3]float32
		for a := 0; a < 3; a++ {
			if pl.Normal[a] >= 0 {
				pv[a], nv[a] = box.Max[a], box.Min[a]
			} else {
				pv[a], nv[a] = box.Min[a], box.Max[a]
			}
		}
		if pl.SignedDistance(pv) < 0 {
			return Outside
		}
		if pl.SignedDistance(nv) < 0 {
			result = Intersect
		}
	}
	return result
}

// ContainsPoint reports whether pt lies inside or on every plane.
func (f Frustum) ContainsPoint(pt [3]float32) bool {
	for i := range f.Planes {
		if f.Planes[i].SignedDistance(pt) < 0 {
			return false
		}
	}
	return true
}
