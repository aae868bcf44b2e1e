// Package renderjob turns scene entities into flat per-sub-mesh draw descriptors and provides the
// stateless processing steps run over them each frame: culling, environment assignment,
// classification and sorting.
package renderjob

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/entity"
	"github.com/Carmen-Shannon/oxy-render/engine/environment"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

// RenderJob is one draw of one sub-mesh for the current frame. Jobs are rebuilt every frame and
// never outlive it; the transform and bounding box are snapshots taken at creation.
type RenderJob struct {
	// Entity is the entity the job was extracted from.
	Entity entity.Entity
	// Mesh is the geometry to draw.
	Mesh *model.Mesh
	// Material is the resolved material for this sub-mesh.
	Material material.Material

	// WorldTransform is the entity's world matrix at creation time.
	WorldTransform [16]float32
	// BoundingBox is the mesh box in world space.
	BoundingBox common.AABB

	ShadowCaster  bool
	ReceiveShadow bool

	// EnvironmentVolume supplies image based lighting, or nil when none applies.
	EnvironmentVolume environment.Volume

	// Translucent and Deferred are the classification flags taken from the material at creation.
	Translucent bool
	Deferred    bool

	// Visible is cleared by CullRenderJobsFlag.
	Visible bool

	// Lights are the lights affecting the job, in shading priority order.
	Lights []light.Light
}

// Position returns the translation of the job's world transform.
func (j *RenderJob) Position() [3]float32 {
	return common.Translation(j.WorldTransform)
}
