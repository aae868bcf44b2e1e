package entity

import (
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// EntityBuilderOption is a functional option for configuring an Entity during construction.
type EntityBuilderOption func(*entityImpl)

// WithID sets the ID of the Entity.
//
// Parameters:
//   - id: unique identifier for the Entity
//
// Returns:
//   - EntityBuilderOption: functional option to set the ID
func WithID(id uint64) EntityBuilderOption {
	return func(e *entityImpl) {
		e.id = id
	}
}

// WithName sets the name of the Entity.
func WithName(name string) EntityBuilderOption {
	return func(e *entityImpl) {
		e.name = name
	}
}

// WithVisible sets whether the Entity is drawn.
//
// Parameters:
//   - visible: true to draw the entity, false to skip it
//
// Returns:
//   - EntityBuilderOption: functional option to set the visibility
func WithVisible(visible bool) EntityBuilderOption {
	return func(e *entityImpl) {
		e.visible.Store(visible)
	}
}

// WithMesh sets the mesh component of the Entity.
//
// Parameters:
//   - m: the mesh to draw
//
// Returns:
//   - EntityBuilderOption: functional option to set the mesh
func WithMesh(m *model.Mesh) EntityBuilderOption {
	return func(e *entityImpl) {
		e.mesh = m
	}
}

// WithMaterial sets the material that overrides every sub-mesh of the Entity.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - EntityBuilderOption: functional option to set the material component
func WithMaterial(m material.Material) EntityBuilderOption {
	return func(e *entityImpl) {
		e.material = m
	}
}

// WithMaterials sets the per sub-mesh material list of the Entity.
func WithMaterials(list ...material.Material) EntityBuilderOption {
	return func(e *entityImpl) {
		e.materials = list
	}
}

// WithShadows sets whether the Entity casts and receives shadows.
//
// Parameters:
//   - cast: true to render into shadow maps
//   - receive: true to sample shadow maps
//
// Returns:
//   - EntityBuilderOption: functional option to set the shadow flags
func WithShadows(cast, receive bool) EntityBuilderOption {
	return func(e *entityImpl) {
		e.castShadow = cast
		e.receiveShadow = receive
	}
}

// WithLight attaches a light that follows the Entity.
//
// Parameters:
//   - l: the light to attach
//
// Returns:
//   - EntityBuilderOption: functional option to attach the light
func WithLight(l light.Light) EntityBuilderOption {
	return func(e *entityImpl) {
		e.attachedLight = l
	}
}

// WithPosition sets the initial position of the Entity.
//
// Parameters:
//   - x, y, z: translation components
//
// Returns:
//   - EntityBuilderOption: functional option to set the initial position
func WithPosition(x, y, z float32) EntityBuilderOption {
	return func(e *entityImpl) {
		e.SetPosition(x, y, z)
	}
}

// WithScale sets the initial scale of the Entity.
func WithScale(sx, sy, sz float32) EntityBuilderOption {
	return func(e *entityImpl) {
		e.SetScale(sx, sy, sz)
	}
}

// WithRotation sets the initial orientation of the Entity from Euler angles in radians.
func WithRotation(rx, ry, rz float32) EntityBuilderOption {
	return func(e *entityImpl) {
		e.SetRotation(rx, ry, rz)
	}
}
