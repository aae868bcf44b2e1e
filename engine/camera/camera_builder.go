package camera

import (
	"github.com/Carmen-Shannon/oxy-render/engine/node"
)

type CameraBuilderOption func(*cameraImpl)

// WithUp sets the camera's up vector.
//
// Parameters:
//   - x, y, z: up vector components
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's up vector
func WithUp(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = [3]float32{x, y, z}
	}
}

// WithLens sets a perspective lens.
//
// Parameters:
//   - fov: vertical field of view in radians
//   - aspect: width / height
//   - near, far: clip plane distances
//
// Returns:
//   - CameraBuilderOption: a function that sets the lens
func WithLens(fov, aspect, near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.ortho = false
		c.fov, c.aspect, c.near, c.far = fov, aspect, near, far
	}
}

// WithOrthoLens sets an orthographic lens.
//
// Parameters:
//   - left, right, bottom, top: view space extents
//   - near, far: clip plane distances
//
// Returns:
//   - CameraBuilderOption: a function that sets the lens
func WithOrthoLens(left, right, bottom, top, near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.ortho = true
		c.left, c.right, c.bottom, c.top = left, right, bottom, top
		c.near, c.far = near, far
	}
}

// WithPosition places the camera.
//
// Parameters:
//   - p: world space position
//
// Returns:
//   - CameraBuilderOption: a function that sets the position
func WithPosition(p [3]float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.world[12], c.world[13], c.world[14] = p[0], p[1], p[2]
	}
}

// WithLookAt orients the camera towards target from its current position, using the up vector
// set so far.
//
// Parameters:
//   - target: world space point to look at
//
// Returns:
//   - CameraBuilderOption: a function that orients the camera
func WithLookAt(target [3]float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.lookAt([3]float32{c.world[12], c.world[13], c.world[14]}, target)
	}
}

// WithController attaches a controller to the camera.
// After all options are applied, the camera recomputes its matrices from the controller's state.
//
// Parameters:
//   - ctrl: the controller to attach
//
// Returns:
//   - CameraBuilderOption: functional option to set the controller
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}

// WithNode makes the camera follow a node of a transform tree.
//
// Parameters:
//   - tree: the transform tree
//   - id: the node to follow
//
// Returns:
//   - CameraBuilderOption: functional option to set the node
func WithNode(tree node.Tree, id node.NodeID) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.tree, c.nodeID = tree, id
	}
}
