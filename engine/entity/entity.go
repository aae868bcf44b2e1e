// Package entity holds the scene objects the renderer draws: a transform node, a mesh and the
// material component that chooses which material each sub-mesh draws with.
package entity

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/node"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

type entityImpl struct {
	id            uint64
	name          string
	nodeID        node.NodeID
	visible       atomic.Bool
	mesh          *model.Mesh
	material      material.Material
	materials     []material.Material
	castShadow    bool
	receiveShadow bool
	attachedLight light.Light

	// initial transform state used before the entity is added to a Scene
	initialPosition [3]float32
	initialScale    [3]float32
	initialRotation [4]float32
}

// Entity defines the interface for a drawable scene object. The world transform lives in the
// scene's node.Tree under NodeID; the entity only keeps the transform it starts with.
type Entity interface {
	// ID returns the entity's unique identifier.
	//
	// Returns:
	//   - uint64: the entity ID
	ID() uint64

	// Name returns the entity name.
	Name() string

	// NodeID returns the node holding the entity transform. It is zero until the entity is
	// added to a Scene.
	//
	// Returns:
	//   - node.NodeID: the transform node
	NodeID() node.NodeID

	// Visible returns whether this entity is drawn.
	//
	// Returns:
	//   - bool: true if visible
	Visible() bool

	// Mesh returns the mesh component, nil when the entity draws nothing.
	Mesh() *model.Mesh

	// Material returns the material component that overrides every sub-mesh, or nil.
	Material() material.Material

	// Materials returns the per sub-mesh material list. Index i applies to the i-th mesh of
	// Mesh().AllMeshes().
	Materials() []material.Material

	// CastShadow returns whether the entity renders into shadow maps.
	CastShadow() bool

	// ReceiveShadow returns whether the entity samples shadow maps.
	ReceiveShadow() bool

	// Light returns the light attached to this entity, or nil. An attached light follows the
	// entity's world position.
	//
	// Returns:
	//   - light.Light: the attached light
	Light() light.Light

	// InitialTransform returns the transform the scene applies to the node when the entity is
	// added.
	//
	// Returns:
	//   - position: translation
	//   - rotation: orientation quaternion (x, y, z, w)
	//   - scale: per axis scale
	InitialTransform() (position [3]float32, rotation [4]float32, scale [3]float32)

	// Drawable reports whether the entity has geometry the renderer can draw.
	//
	// Returns:
	//   - bool: true when the mesh or any sub-mesh has triangles
	Drawable() bool

	// SetID sets the entity's unique identifier.
	SetID(id uint64)

	// SetNodeID binds the entity to a node in the scene tree.
	//
	// Parameters:
	//   - id: the transform node
	SetNodeID(id node.NodeID)

	// SetVisible shows or hides the entity.
	//
	// Parameters:
	//   - visible: true to draw the entity
	SetVisible(visible bool)

	// SetMesh replaces the mesh component.
	SetMesh(m *model.Mesh)

	// SetMaterial sets the material that overrides every sub-mesh. Nil clears it.
	SetMaterial(m material.Material)

	// SetMaterials sets the per sub-mesh material list.
	SetMaterials(list []material.Material)

	// SetCastShadow sets whether the entity renders into shadow maps.
	SetCastShadow(v bool)

	// SetReceiveShadow sets whether the entity samples shadow maps.
	SetReceiveShadow(v bool)

	// SetLight attaches a light to the entity. Nil detaches it.
	SetLight(l light.Light)

	// SetPosition sets the initial translation. It has no effect once the entity is in a Scene;
	// move the node instead.
	SetPosition(x, y, z float32)

	// SetScale sets the initial scale.
	SetScale(sx, sy, sz float32)

	// SetRotation sets the initial orientation from Euler angles in radians, applied X, then Y,
	// then Z.
	SetRotation(rx, ry, rz float32)
}

var _ Entity = &entityImpl{}

// NewEntity creates a new visible Entity that casts and receives shadows, with the given
// options applied.
//
// Parameters:
//   - options: variadic list of EntityBuilderOption functions
//
// Returns:
//   - Entity: the new entity
func NewEntity(options ...EntityBuilderOption) Entity {
	e := &entityImpl{
		castShadow:      true,
		receiveShadow:   true,
		initialScale:    [3]float32{1, 1, 1},
		initialRotation: common.QuatIdentity(),
	}
	e.visible.Store(true)
	for _, option := range options {
		option(e)
	}
	return e
}

func (e *entityImpl) ID() uint64 {
	return e.id
}

func (e *entityImpl) Name() string {
	return e.name
}

func (e *entityImpl) NodeID() node.NodeID {
	return e.nodeID
}

func (e *entityImpl) Visible() bool {
	return e.visible.Load()
}

func (e *entityImpl) Mesh() *model.Mesh {
	return e.mesh
}

func (e *entityImpl) Material() material.Material {
	return e.material
}

func (e *entityImpl) Materials() []material.Material {
	return e.materials
}

func (e *entityImpl) CastShadow() bool {
	return e.castShadow
}

func (e *entityImpl) ReceiveShadow() bool {
	return e.receiveShadow
}

func (e *entityImpl) Light() light.Light {
	return e.attachedLight
}

func (e *entityImpl) InitialTransform() (position [3]float32, rotation [4]float32, scale [3]float32) {
	return e.initialPosition, e.initialRotation, e.initialScale
}

func (e *entityImpl) Drawable() bool {
	if e.mesh == nil {
		return false
	}
	for _, m := range e.mesh.AllMeshes() {
		if m.Drawable() {
			return true
		}
	}
	return false
}

func (e *entityImpl) SetID(id uint64) {
	e.id = id
}

func (e *entityImpl) SetNodeID(id node.NodeID) {
	e.nodeID = id
}

func (e *entityImpl) SetVisible(visible bool) {
	e.visible.Store(visible)
}

func (e *entityImpl) SetMesh(m *model.Mesh) {
	e.mesh = m
}

func (e *entityImpl) SetMaterial(m material.Material) {
	e.material = m
}

func (e *entityImpl) SetMaterials(list []material.Material) {
	e.materials = list
}

func (e *entityImpl) SetCastShadow(v bool) {
	e.castShadow = v
}

func (e *entityImpl) SetReceiveShadow(v bool) {
	e.receiveShadow = v
}

func (e *entityImpl) SetLight(l light.Light) {
	e.attachedLight = l
}

func (e *entityImpl) SetPosition(x, y, z float32) {
	e.initialPosition = [3]float32{x, y, z}
}

func (e *entityImpl) SetScale(sx, sy, sz float32) {
	e.initialScale = [3]float32{sx, sy, sz}
}

func (e *entityImpl) SetRotation(rx, ry, rz float32) {
	qx := common.QuatFromAxisAngle([3]float32{1, 0, 0}, rx)
	qy := common.QuatFromAxisAngle([3]float32{0, 1, 0}, ry)
	qz := common.QuatFromAxisAngle([3]float32{0, 0, 1}, rz)
	e.initialRotation = common.QuatMul(qz, common.QuatMul(qy, qx))
}
