package renderjob

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/entity"
	"github.com/Carmen-Shannon/oxy-render/engine/environment"
	"github.com/Carmen-Shannon/oxy-render/engine/logger"
	"github.com/Carmen-Shannon/oxy-render/engine/model"
	"github.com/Carmen-Shannon/oxy-render/engine/node"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/material"
)

var (
	defaultMaterialOnce sync.Once
	defaultMaterial     material.Material
)

// DefaultMaterial returns the material used for sub-meshes that resolve to none.
func DefaultMaterial() material.Material {
	defaultMaterialOnce.Do(func() {
		defaultMaterial = material.NewDefaultMaterial()
	})
	return defaultMaterial
}

// CreateRenderJobs emits one RenderJob per drawable sub-mesh of every visible entity. Entities
// without a mesh are skipped. The material of sub-mesh i is, in order of precedence, the entity's
// single material, entry i of its material list, the mesh's own material, then DefaultMaterial.
//
// Parameters:
//   - entities: the entities to extract, in draw order
//   - tree: the transform hierarchy the entities' nodes live in; nil uses identity transforms
//
// Returns:
//   - []RenderJob: the jobs in entity then sub-mesh order
func CreateRenderJobs(entities []entity.Entity, tree node.Tree) []RenderJob {
	jobs := make([]RenderJob, 0, len(entities))
	for _, e := range entities {
		if e == nil || !e.Visible() || e.Mesh() == nil {
			continue
		}

		world := common.IdentityMat4()
		if tree != nil && tree.Valid(e.NodeID()) {
			world = tree.World(e.NodeID())
		}

		single := e.Material()
		list := e.Materials()
		for i, m := range e.Mesh().AllMeshes() {
			if !m.Drawable() {
				continue
			}
			mat := resolveMaterial(single, list, i, m)
			if !mat.Initialized() {
				if err := mat.Init(); err != nil {
					logger.Logger().Error("render job material init failed", "entity", e.Name(), "mesh", m.Name, "error", err)
					continue
				}
			}
			jobs = append(jobs, RenderJob{
				Entity:         e,
				Mesh:           m,
				Material:       mat,
				WorldTransform: world,
				BoundingBox:    m.AABB().Transform(world),
				ShadowCaster:   e.CastShadow(),
				ReceiveShadow:  e.ReceiveShadow(),
				Translucent:    mat.IsTranslucent(),
				Deferred:       mat.IsDeferred(),
				Visible:        true,
			})
		}
	}
	return jobs
}

func resolveMaterial(single material.Material, list []material.Material, i int, m *model.Mesh) material.Material {
	switch {
	case single != nil:
		return single
	case i < len(list) && list[i] != nil:
		return list[i]
	case m.Material != nil:
		return m.Material
	}
	return DefaultMaterial()
}

// CullRenderJobs removes the jobs whose bounding box is outside the camera frustum. Boxes that
// intersect a frustum plane are kept. The slice is compacted in place and keeps its order.
//
// Parameters:
//   - jobs: the jobs to cull
//   - cam: the viewing camera
//
// Returns:
//   - []RenderJob: the surviving jobs, sharing jobs' backing array
func CullRenderJobs(jobs []RenderJob, cam camera.Camera) []RenderJob {
	f := cam.Frustum()
	n := 0
	for i := range jobs {
		if f.ClassifyAABB(jobs[i].BoundingBox) == common.Outside {
			continue
		}
		jobs[n] = jobs[i]
		n++
	}
	clear(jobs[n:])
	return jobs[:n]
}

// CullRenderJobsFlag marks jobs outside the camera frustum invisible without removing them. Used
// where the job list must keep its length, such as per light shadow culling.
//
// Returns:
//   - int: the number of visible jobs
func CullRenderJobsFlag(jobs []RenderJob, cam camera.Camera) int {
	f := cam.Frustum()
	visible := 0
	for i := range jobs {
		jobs[i].Visible = f.ClassifyAABB(jobs[i].BoundingBox) != common.Outside
		if jobs[i].Visible {
			visible++
		}
	}
	return visible
}

// AssignEnvironment tags every job with the environment volume containing the centre of its
// bounding box. When several volumes contain it the one with the nearest centre wins, and equal
// distances go to the volume created first. Jobs inside no volume get fallback, which may be nil.
// Volumes that are not ready to render are ignored.
//
// Parameters:
//   - jobs: the jobs to tag
//   - volumes: the candidate environment volumes
//   - fallback: the scene wide environment
func AssignEnvironment(jobs []RenderJob, volumes []environment.Volume, fallback environment.Volume) {
	for i := range jobs {
		p := jobs[i].BoundingBox.Center()
		var (
			best  environment.Volume
			bestD float32
		)
		for _, v := range volumes {
			if v == nil || !v.ReadyToRender() || !v.Contains(p) {
				continue
			}
			d := common.DistanceSq3(p, v.AABB().Center())
			if best == nil || d < bestD || (d == bestD && v.Sequence() < best.Sequence()) {
				best, bestD = v, d
			}
		}
		if best == nil {
			best = fallback
		}
		jobs[i].EnvironmentVolume = best
	}
}

// SeparateDeferredForward partitions jobs into deferred, forward and translucent lists, keeping
// the relative order within each list. Every job lands in exactly one list.
//
// Parameters:
//   - jobs: the jobs to partition
//
// Returns:
//   - deferred: opaque jobs drawn through the G-buffer
//   - forward: opaque jobs drawn directly
//   - translucent: alpha blended jobs
func SeparateDeferredForward(jobs []RenderJob) (deferred, forward, translucent []RenderJob) {
	for i := range jobs {
		j := &jobs[i]
		if j.Mesh == nil || j.Material == nil {
			panic(fmt.Sprintf("renderjob: job %d has no mesh or material", i))
		}
		switch {
		case j.Translucent:
			translucent = append(translucent, *j)
		case j.Deferred:
			deferred = append(deferred, *j)
		default:
			forward = append(forward, *j)
		}
	}
	return deferred, forward, translucent
}
