package renderer

import (
	"time"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithWindowSize sets the initial size of the default framebuffer. Non-positive sizes are ignored.
//
// Parameters:
//   - width: the width in pixels
//   - height: the height in pixels
//
// Returns:
//   - RendererBuilderOption: a function that applies the size option to a renderer
func WithWindowSize(width, height int) RendererBuilderOption {
	return func(r *renderer) {
		if width > 0 && height > 0 {
			r.windowWidth, r.windowHeight = width, height
		}
	}
}

// WithClearColor sets the colour the default framebuffer is cleared to.
//
// Parameters:
//   - c: the RGBA clear colour
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear colour option to a renderer
func WithClearColor(c [4]float32) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = c
	}
}

// WithClock replaces the time source behind the elapsed time uniform.
func WithClock(now func() time.Time) RendererBuilderOption {
	return func(r *renderer) {
		if now != nil {
			r.now = now
		}
	}
}
