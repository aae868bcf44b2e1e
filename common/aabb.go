package common

import (
	"github.com/chewxy/math32"
)

// AABB is an axis aligned bounding box.
type AABB struct {
	Min [3]float32
	Max [3]float32
}

// EmptyAABB returns the identity box for Union: inverted infinite bounds.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: [3]float32{inf, inf, inf},
		Max: [3]float32{-inf, -inf, -inf},
	}
}

// NewAABB returns the box with the given centre and full size.
func NewAABB(center, size [3]float32) AABB {
	h := Scale3(size, 0.5)
	return AABB{Min: Sub3(center, h), Max: Add3(center, h)}
}

// Valid reports whether min <= max on every axis.
func (b AABB) Valid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

// Volume returns the box volume, zero for invalid boxes.
func (b AABB) Volume() float32 {
	if !b.Valid() {
		return 0
	}
	s := b.Size()
	return s[0] * s[1] * s[2]
}

// Union returns the smallest box enclosing b and o.
func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: [3]float32{math32.Min(b.Min[0], o.Min[0]), math32.Min(b.Min[1], o.Min[1]), math32.Min(b.Min[2], o.Min[2])},
		Max: [3]float32{math32.Max(b.Max[0], o.Max[0]), math32.Max(b.Max[1], o.Max[1]), math32.Max(b.Max[2], o.Max[2])},
	}
}

// ExpandByPoint grows the box to include p.
func (b AABB) ExpandByPoint(p [3]float32) AABB {
	return b.Union(AABB{Min: p, Max: p})
}

// Center returns the box midpoint.
func (b AABB) Center() [3]float32 {
	return Scale3(Add3(b.Min, b.Max), 0.5)
}

// Size returns the extent along each axis.
func (b AABB) Size() [3]float32 {
	return Sub3(b.Max, b.Min)
}

// Contains reports whether p is inside the box, boundary included.
func (b AABB) Contains(p [3]float32) bool {
	for a := 0; a < 3; a++ {
		if p[a] < b.Min[a] || p[a] > b.Max[a] {
			return false
		}
	}
	return true
}

// Corners returns the eight corners of the box. Bit 0 of the index selects x, bit 1 y, bit 2 z.
func (b AABB) Corners() [8][3]float32 {
	var out [8][3]float32
	for i := 0; i < 8; i++ {
		for a := 0; a < 3; a++ {
			if i&(1<<a) != 0 {
				out[i][a] = b.Max[a]
			} else {
				out[i][a] = b.Min[a]
			}
		}
	}
	return out
}

// Transform returns the box enclosing the eight corners transformed by m.
//
// Parameters:
//   - m: column-major affine matrix
//
// Returns:
//   - AABB: the transformed bounds, or b unchanged when it is invalid
func (b AABB) Transform(m [16]float32) AABB {
	if !b.Valid() {
		return b
	}
	out := EmptyAABB()
	for _, c := range b.Corners() {
		out = out.ExpandByPoint(TransformPoint(m, c))
	}
	return out
}

// IntersectsAABB reports whether the two boxes overlap, touching included.
func (b AABB) IntersectsAABB(o AABB) bool {
	for a := 0; a < 3; a++ {
		if b.Max[a] < o.Min[a] || b.Min[a] > o.Max[a] {
			return false
		}
	}
	return true
}

// IntersectsSphere reports whether the sphere touches the box.
func (b AABB) IntersectsSphere(center [3]float32, radius float32) bool {
	var d float32
	for a := 0; a < 3; a++ {
		v := center[a]
		if v < b.Min[a] {
			d += (b.Min[a] - v) * (b.Min[a] - v)
		} else if v > b.Max[a] {
			d += (v - b.Max[a]) * (v - b.Max[a])
		}
	}
	return d <= radius*radius
}
