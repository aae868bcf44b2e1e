// Package model holds the mesh geometry the renderer draws.
package model

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// Mesh is indexed triangle geometry with an optional material and sub-meshes. Devices upload it
// lazily on first draw and again whenever Generation changes.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32

	// Material is used when the owning entity supplies none.
	Material material.Material

	// SubMeshes are drawn as separate jobs.
	SubMeshes []*Mesh

	aabb       common.AABB
	generation uint64
}

// NewMesh creates a mesh and computes its local bounding box.
//
// Parameters:
//   - name: the mesh identifier
//   - vertices: the vertex list
//   - indices: triangle indices into vertices
//   - options: variadic list of MeshBuilderOption functions
//
// Returns:
//   - *Mesh: the mesh
func NewMesh(name string, vertices []Vertex, indices []uint32, options ...MeshBuilderOption) *Mesh {
	m := &Mesh{Name: name, Vertices: vertices, Indices: indices, generation: 1}
	m.aabb = computeAABB(vertices)
	for _, opt := range options {
		opt(m)
	}
	return m
}

func computeAABB(vertices []Vertex) common.AABB {
	box := common.EmptyAABB()
	for _, v := range vertices {
		box = box.ExpandByPoint(v.Position)
	}
	return box
}

// AABB returns the local bounding box of this mesh alone.
func (m *Mesh) AABB() common.AABB {
	return m.aabb
}

// SetGeometry replaces vertices and indices, recomputes the bounding box and bumps the generation.
//
// Parameters:
//   - vertices: the new vertex list
//   - indices: the new indices
func (m *Mesh) SetGeometry(vertices []Vertex, indices []uint32) {
	m.Vertices, m.Indices = vertices, indices
	m.aabb = computeAABB(vertices)
	m.generation++
}

// Generation returns the geometry change counter.
func (m *Mesh) Generation() uint64 {
	return m.generation
}

// Drawable reports whether the mesh has triangles.
func (m *Mesh) Drawable() bool {
	return len(m.Vertices) > 0 && len(m.Indices) >= 3
}

// AllMeshes returns the mesh followed by all of its sub-meshes, depth first.
//
// Returns:
//   - []*Mesh: the flattened list
func (m *Mesh) AllMeshes() []*Mesh {
	out := []*Mesh{m}
	for _, s := range m.SubMeshes {
		out = append(out, s.AllMeshes()...)
	}
	return out
}
