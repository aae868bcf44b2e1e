// Package camera provides perspective and orthographic cameras and the orbit controller that
// drives them from input.
package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/node"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/chewxy/math32"
)

type cameraImpl struct {
	mu *sync.Mutex

	up [3]float32

	ortho  bool
	fov    float32
	aspect float32
	near   float32
	far    float32
	left   float32
	right  float32
	bottom float32
	top    float32

	// world is the camera to world transform without scale.
	world [16]float32

	viewMatrix              [16]float32
	projectionMatrix        [16]float32
	viewProjectionMatrix    [16]float32
	inverseProjectionMatrix [16]float32
	frustum                 common.Frustum

	controller CameraController
	tree       node.Tree
	nodeID     node.NodeID
}

// Camera defines the interface for the camera system.
// The camera holds lens settings and a pose, and keeps its view, projection and frustum in sync
// with both. The pose can be set directly, taken from an attached CameraController, or taken
// from a node in a transform tree on Update.
type Camera interface {
	// Up returns the up vector used by LookAt and the controller.
	//
	// Returns:
	//   - x, y, z: up vector components
	Up() (x, y, z float32)

	// IsOrtho reports whether the camera uses an orthographic lens.
	IsOrtho() bool

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// OrthoBounds returns the view space extents of an orthographic lens.
	//
	// Returns:
	//   - left, right, bottom, top: the extents
	OrthoBounds() (left, right, bottom, top float32)

	// SetLens switches to a perspective lens.
	//
	// Parameters:
	//   - fov: vertical field of view in radians
	//   - aspect: width / height
	//   - near, far: clip plane distances
	SetLens(fov, aspect, near, far float32)

	// SetOrthoLens switches to an orthographic lens.
	//
	// Parameters:
	//   - left, right, bottom, top: view space extents
	//   - near, far: clip plane distances
	SetOrthoLens(left, right, bottom, top, near, far float32)

	// SetAspect changes the aspect ratio of a perspective lens.
	SetAspect(aspect float32)

	// SetFar changes the far clip plane.
	SetFar(far float32)

	// Position returns the camera position in world space.
	Position() [3]float32

	// SetPosition moves the camera, keeping its orientation.
	SetPosition(p [3]float32)

	// Orientation returns the camera rotation as a quaternion.
	Orientation() [4]float32

	// SetOrientation rotates the camera, keeping its position.
	SetOrientation(q [4]float32)

	// Direction returns the normalized view direction in world space.
	Direction() [3]float32

	// LookAt orients the camera towards target.
	//
	// Parameters:
	//   - target: the world space point to look at
	//   - up: the up vector
	LookAt(target, up [3]float32)

	// View returns the world to view matrix.
	View() [16]float32

	// Projection returns the projection matrix.
	Projection() [16]float32

	// ProjectView returns projection * view.
	ProjectView() [16]float32

	// InverseProjection returns the inverse of the projection matrix.
	InverseProjection() [16]float32

	// Frustum returns the world space view frustum.
	Frustum() common.Frustum

	// FrustumCorners returns the eight world space frustum corners, near plane first.
	//
	// Returns:
	//   - [8][3]float32: the corners
	FrustumCorners() [8][3]float32

	// Data returns the camera values fed to shaders.
	Data() shader.CameraData

	// Controller returns the attached CameraController, or nil.
	Controller() CameraController

	// SetController attaches a CameraController to the camera.
	SetController(ctrl CameraController)

	// SetNode makes Update take the pose from a node. Scale is ignored.
	//
	// Parameters:
	//   - tree: the transform tree
	//   - id: the node, or the zero ID to detach
	SetNode(tree node.Tree, id node.NodeID)

	// Update pulls the pose from the attached node or controller and recomputes matrices.
	// Should be called once per frame. Without a node or controller it does nothing.
	Update()
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera at the origin looking down -Z with a 45 degree perspective lens.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		up:     [3]float32{0, 1, 0},
		fov:    common.DegToRad(45),
		aspect: 1.0,
		near:   0.1,
		far:    100.0,
		left:   -1,
		right:  1,
		bottom: -1,
		top:    1,
		world:  common.IdentityMat4(),
	}
	for _, option := range options {
		option(c)
	}
	c.pullPose()
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Up() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up[0], c.up[1], c.up[2]
}

func (c *cameraImpl) IsOrtho() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ortho
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) OrthoBounds() (left, right, bottom, top float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.left, c.right, c.bottom, c.top
}

func (c *cameraImpl) SetLens(fov, aspect, near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ortho = false
	c.fov, c.aspect, c.near, c.far = fov, aspect, near, far
	c.updateMatrices()
}

func (c *cameraImpl) SetOrthoLens(left, right, bottom, top, near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ortho = true
	c.left, c.right, c.bottom, c.top = left, right, bottom, top
	c.near, c.far = near, far
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.Translation(c.world)
}

func (c *cameraImpl) SetPosition(p [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.world[12], c.world[13], c.world[14] = p[0], p[1], p[2]
	c.updateMatrices()
}

func (c *cameraImpl) Orientation() [4]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.QuatFromMat4(c.world)
}

func (c *cameraImpl) SetOrientation(q [4]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.world = common.ComposeTRS(common.Translation(c.world), q, [3]float32{1, 1, 1})
	c.updateMatrices()
}

func (c *cameraImpl) Direction() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.direction()
}

func (c *cameraImpl) direction() [3]float32 {
	return common.Normalize3([3]float32{-c.world[8], -c.world[9], -c.world[10]})
}

func (c *cameraImpl) LookAt(target, up [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = up
	c.lookAt(common.Translation(c.world), target)
	c.updateMatrices()
}

// lookAt sets the pose from an eye and a target. Caller must hold the mutex.
func (c *cameraImpl) lookAt(eye, target [3]float32) {
	var view [16]float32
	common.LookAt(view[:], eye[0], eye[1], eye[2], target[0], target[1], target[2], c.up[0], c.up[1], c.up[2])
	c.world = common.InverseMat4(view)
}

func (c *cameraImpl) View() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) Projection() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ProjectView() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) InverseProjection() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inverseProjectionMatrix
}

func (c *cameraImpl) Frustum() common.Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frustum
}

func (c *cameraImpl) FrustumCorners() [8][3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	inv := common.InverseMat4(c.viewProjectionMatrix)
	var out [8][3]float32
	i := 0
	for _, z := range [2]float32{0, 1} {
		for _, y := range [2]float32{-1, 1} {
			for _, x := range [2]float32{-1, 1} {
				out[i] = common.TransformPoint(inv, [3]float32{x, y, z})
				i++
			}
		}
	}
	return out
}

func (c *cameraImpl) Data() shader.CameraData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return shader.CameraData{
		Position:  common.Translation(c.world),
		Direction: c.direction(),
		Far:       c.far,
	}
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
}

func (c *cameraImpl) SetNode(tree node.Tree, id node.NodeID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tree, c.nodeID = tree, id
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pullPose() {
		c.updateMatrices()
	}
}

// pullPose copies the pose from the node or the controller, node first.
// Caller must hold the mutex.
func (c *cameraImpl) pullPose() bool {
	switch {
	case c.tree != nil && !c.nodeID.IsZero() && c.tree.Valid(c.nodeID):
		t, q, _ := common.DecomposeTRS(c.tree.World(c.nodeID))
		c.world = common.ComposeTRS(t, q, [3]float32{1, 1, 1})
		return true
	case c.controller != nil:
		c.lookAt(c.controller.Position(), c.controller.Target())
		return true
	}
	return false
}

// updateMatrices recalculates the view, projection, view-projection, inverse projection and frustum.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	if !common.Invert4(c.viewMatrix[:], c.world[:]) {
		c.viewMatrix = common.IdentityMat4()
	}

	if c.ortho {
		common.Ortho(c.projectionMatrix[:], c.left, c.right, c.bottom, c.top, c.near, c.far)
	} else {
		aspect := c.aspect
		if aspect <= 0 || math32.IsNaN(aspect) {
			aspect = 1
		}
		common.Perspective(c.projectionMatrix[:], c.fov, aspect, c.near, c.far)
	}

	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
	common.Invert4(c.inverseProjectionMatrix[:], c.projectionMatrix[:])
	c.frustum = common.ExtractFrustumFromMatrix(c.viewProjectionMatrix[:])
}
