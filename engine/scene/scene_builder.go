package scene

import (
	"github.com/Carmen-Shannon/oxy-render/engine/entity"
	"github.com/Carmen-Shannon/oxy-render/engine/environment"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/node"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithTree makes the scene place its entities in an existing tree.
//
// Parameters:
//   - tree: the transform hierarchy to share
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithTree(tree node.Tree) SceneBuilderOption {
	return func(s *scene) {
		s.tree = tree
	}
}

// WithEntities adds initial entities to the scene, in order.
// Entities without IDs will be assigned new IDs.
//
// Parameters:
//   - entities: the entities to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithEntities(entities ...entity.Entity) SceneBuilderOption {
	return func(s *scene) {
		s.initial = append(s.initial, entities...)
	}
}

// WithLights adds initial free-standing lights.
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		s.lights = append(s.lights, lights...)
	}
}

// WithSky sets the scene's sky.
func WithSky(sky environment.Sky) SceneBuilderOption {
	return func(s *scene) {
		s.sky = sky
	}
}

// WithEnvironmentVolumes adds initial environment volumes. Sequences are assigned in order.
func WithEnvironmentVolumes(volumes ...environment.Volume) SceneBuilderOption {
	return func(s *scene) {
		for _, v := range volumes {
			if v == nil {
				continue
			}
			s.nextSeq++
			v.SetSequence(s.nextSeq)
			s.volumes = append(s.volumes, v)
		}
	}
}
