package render_path

import (
	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-render/engine/config"
	"github.com/Carmen-Shannon/oxy-render/engine/environment"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
)

// SceneRenderPathBuilderOption is a functional option for configuring a SceneRenderPath.
type SceneRenderPathBuilderOption func(p *sceneRenderPath)

// WithWorkerPool makes the path cull render jobs in parallel on pool. The caller owns the pool.
//
// Parameters:
//   - pool: the worker pool to cull on
//
// Returns:
//   - SceneRenderPathBuilderOption: option function to apply
func WithWorkerPool(pool worker.DynamicWorkerPool) SceneRenderPathBuilderOption {
	return func(p *sceneRenderPath) {
		p.pool = pool
	}
}

// WithGraphicSettings replaces the default graphic settings.
//
// Parameters:
//   - gfx: the settings to render with
//
// Returns:
//   - SceneRenderPathBuilderOption: option function to apply
func WithGraphicSettings(gfx config.GraphicSettings) SceneRenderPathBuilderOption {
	return func(p *sceneRenderPath) {
		p.params.Gfx = gfx
	}
}

// WithScene sets the scene the path draws.
func WithScene(s scene.Scene) SceneRenderPathBuilderOption {
	return func(p *sceneRenderPath) {
		p.params.Scene = s
	}
}

// WithMainFramebuffer makes the path draw into fb instead of its own window sized framebuffer.
// fb needs a colour attachment and a depth texture.
func WithMainFramebuffer(fb *texture.Framebuffer) SceneRenderPathBuilderOption {
	return func(p *sceneRenderPath) {
		p.params.MainFramebuffer = fb
	}
}

// WithDefaultEnvironment sets the environment of jobs outside every volume.
func WithDefaultEnvironment(v environment.Volume) SceneRenderPathBuilderOption {
	return func(p *sceneRenderPath) {
		p.params.DefaultEnvironment = v
	}
}
