package model

import "github.com/Carmen-Shannon/oxy-render/engine/renderer/material"

// MeshBuilderOption is a functional option for configuring a Mesh via NewMesh.
type MeshBuilderOption func(*Mesh)

// WithMaterial is an option builder that sets the mesh material.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - MeshBuilderOption: a function that applies the material option to a mesh
func WithMaterial(m material.Material) MeshBuilderOption {
	return func(mesh *Mesh) {
		mesh.Material = m
	}
}

// WithSubMeshes is an option builder that appends sub-meshes.
//
// Parameters:
//   - subs: the sub-meshes
//
// Returns:
//   - MeshBuilderOption: a function that applies the sub-mesh option to a mesh
func WithSubMeshes(subs ...*Mesh) MeshBuilderOption {
	return func(mesh *Mesh) {
		mesh.SubMeshes = append(mesh.SubMeshes, subs...)
	}
}
