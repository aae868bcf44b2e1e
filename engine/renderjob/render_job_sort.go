package renderjob

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
)

// SortLights orders lights for shading job: enabled directional lights first, then the point and
// spot lights that reach the job's bounding box. Both groups keep their input order and lights
// that miss the job are dropped. Spot light reach is tested against the shadow camera frustum,
// which follows the light's pose.
//
// Parameters:
//   - job: the job being lit
//   - lights: every candidate light
//
// Returns:
//   - []light.Light: the lights in priority order
func SortLights(job *RenderJob, lights []light.Light) []light.Light {
	best := make([]light.Light, 0, len(lights))
	for _, l := range lights {
		if l != nil && l.Enabled() && l.Type() == light.LightTypeDirectional {
			best = append(best, l)
		}
	}
	for _, l := range lights {
		if l == nil || !l.Enabled() || l.Type() == light.LightTypeDirectional {
			continue
		}
		if l.AffectsAABB(job.BoundingBox) {
			best = append(best, l)
		}
	}
	return best
}

// AssignLights sets every job's Lights to SortLights, capped at the shader light limit.
func AssignLights(jobs []RenderJob, lights []light.Light) {
	for i := range jobs {
		l := SortLights(&jobs[i], lights)
		if len(l) > shader.MaxLights {
			l = l[:shader.MaxLights]
		}
		jobs[i].Lights = l
	}
}

// StableSortByDistanceToCamera sorts jobs back to front. Perspective cameras compare the squared
// distance from the camera to each bounding box centre; orthographic cameras compare the world z
// of the job transforms, lowest first. Equal keys keep their order.
//
// Parameters:
//   - jobs: the jobs to sort in place
//   - cam: the viewing camera
func StableSortByDistanceToCamera(jobs []RenderJob, cam camera.Camera) {
	if cam.IsOrtho() {
		slices.SortStableFunc(jobs, func(a, b RenderJob) int {
			return cmpFloat(a.WorldTransform[14], b.WorldTransform[14])
		})
		return
	}
	eye := cam.Position()
	slices.SortStableFunc(jobs, func(a, b RenderJob) int {
		da := common.DistanceSq3(a.BoundingBox.Center(), eye)
		db := common.DistanceSq3(b.BoundingBox.Center(), eye)
		return cmpFloat(db, da)
	})
}

// SortByMaterialPriority stable sorts jobs so higher material priorities draw first.
func SortByMaterialPriority(jobs []RenderJob) {
	slices.SortStableFunc(jobs, func(a, b RenderJob) int {
		return b.Material.RenderState().Priority - a.Material.RenderState().Priority
	})
}

// ShadowCasters returns the jobs that cast shadows, keeping their order.
func ShadowCasters(jobs []RenderJob) []RenderJob {
	out := make([]RenderJob, 0, len(jobs))
	for i := range jobs {
		if jobs[i].ShadowCaster {
			out = append(out, jobs[i])
		}
	}
	return out
}

// BoundingBoxes returns the bounding boxes of jobs in order.
func BoundingBoxes(jobs []RenderJob) []common.AABB {
	out := make([]common.AABB, len(jobs))
	for i := range jobs {
		out[i] = jobs[i].BoundingBox
	}
	return out
}

func cmpFloat(a, b float32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
