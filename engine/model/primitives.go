package model

import "github.com/Carmen-Shannon/oxy-render/common"

// face is one side of a box: normal n, and u, v spanning the face with u x v == n so the
// vertices wind counter clockwise seen from outside.
type face struct {
	n, u, v [3]float32
}

var cubeFaces = [6]face{
	{n: [3]float32{1, 0, 0}, u: [3]float32{0, 0, -1}, v: [3]float32{0, 1, 0}},
	{n: [3]float32{-1, 0, 0}, u: [3]float32{0, 0, 1}, v: [3]float32{0, 1, 0}},
	{n: [3]float32{0, 1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, -1}},
	{n: [3]float32{0, -1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, 1}},
	{n: [3]float32{0, 0, 1}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 1, 0}},
	{n: [3]float32{0, 0, -1}, u: [3]float32{-1, 0, 0}, v: [3]float32{0, 1, 0}},
}

// appendFace writes a rectangle centred at center with half extents hu and hv along f.u and f.v.
func appendFace(verts []Vertex, idx []uint32, center [3]float32, f face, hu, hv float32) ([]Vertex, []uint32) {
	base := uint32(len(verts))
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	uvs := [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
	for i, c := range corners {
		p := common.Add3(center, common.Add3(common.Scale3(f.u, c[0]*hu), common.Scale3(f.v, c[1]*hv)))
		verts = append(verts, Vertex{Position: p, Normal: f.n, UV: uvs[i]})
	}
	idx = append(idx, base, base+1, base+2, base, base+2, base+3)
	return verts, idx
}

// NewCube builds an axis aligned cube centred at the origin with outward facing triangles.
//
// Parameters:
//   - size: the edge length
//
// Returns:
//   - *Mesh: 24 vertices and 36 indices
func NewCube(size float32) *Mesh {
	h := size / 2
	verts := make([]Vertex, 0, 24)
	idx := make([]uint32, 0, 36)
	for _, f := range cubeFaces {
		verts, idx = appendFace(verts, idx, common.Scale3(f.n, h), f, h, h)
	}
	return NewMesh("cube", verts, idx)
}

// NewQuad builds a rectangle in the XY plane facing +Z. NewQuad(2, 2) covers clip space and is
// the full screen quad.
//
// Parameters:
//   - w, h: width and height
//
// Returns:
//   - *Mesh: 4 vertices and 6 indices
func NewQuad(w, h float32) *Mesh {
	verts, idx := appendFace(nil, nil, [3]float32{}, cubeFaces[4], w/2, h/2)
	return NewMesh("quad", verts, idx)
}

// NewPlane builds a rectangle in the XZ plane facing +Y.
//
// Parameters:
//   - w: extent along X
//   - d: extent along Z
//
// Returns:
//   - *Mesh: 4 vertices and 6 indices
func NewPlane(w, d float32) *Mesh {
	verts, idx := appendFace(nil, nil, [3]float32{}, cubeFaces[2], w/2, d/2)
	return NewMesh("plane", verts, idx)
}
