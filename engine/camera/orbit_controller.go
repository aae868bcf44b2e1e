package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/chewxy/math32"
)

// CameraController drives a camera pose. The camera pulls Position and Target on Update and looks
// from one to the other.
type CameraController interface {
	// Position returns the eye position in world space.
	Position() [3]float32

	// Target returns the point the eye looks at.
	Target() [3]float32

	// SetTarget moves the orbit centre, keeping radius and angles.
	SetTarget(target [3]float32)

	// Orbit rotates the eye around the target by the given angles in radians. Elevation is clamped
	// to the controller bounds.
	Orbit(dAzimuth, dElevation float32)

	// OrbitLeft, OrbitRight, OrbitUp and OrbitDown orbit by one orbit speed step.
	OrbitLeft()
	OrbitRight()
	OrbitUp()
	OrbitDown()

	// Zoom moves the eye towards the target for positive delta, scaled by the zoom speed. The
	// radius is clamped to the controller bounds.
	Zoom(delta float32)

	// Pan translates eye and target together along the view's right and up axes.
	Pan(right, up float32)

	Radius() float32
	Azimuth() float32
	Elevation() float32
}

type orbitController struct {
	mu *sync.Mutex

	target    [3]float32
	radius    float32
	azimuth   float32
	elevation float32

	minRadius, maxRadius       float32
	minElevation, maxElevation float32
	orbitSpeed, zoomSpeed      float32
}

var _ CameraController = &orbitController{}

// NewOrbitController creates a controller orbiting the origin at radius 10, 30 degrees up.
//
// Parameters:
//   - options: functional options applied to the controller
//
// Returns:
//   - CameraController: the controller
func NewOrbitController(options ...OrbitControllerOption) CameraController {
	c := &orbitController{
		mu:           &sync.Mutex{},
		radius:       10,
		elevation:    math32.Pi / 6,
		minRadius:    0.5,
		maxRadius:    1000,
		minElevation: -math32.Pi/2 + 0.05,
		maxElevation: math32.Pi/2 - 0.05,
		orbitSpeed:   0.03,
		zoomSpeed:    1,
	}
	for _, opt := range options {
		opt(c)
	}
	c.radius = clamp(c.radius, c.minRadius, c.maxRadius)
	c.elevation = clamp(c.elevation, c.minElevation, c.maxElevation)
	return c
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}

// position is the eye on the sphere around the target. Caller must hold the mutex.
func (c *orbitController) position() [3]float32 {
	ce, se := math32.Cos(c.elevation), math32.Sin(c.elevation)
	offset := [3]float32{c.radius * ce * math32.Sin(c.azimuth), c.radius * se, c.radius * ce * math32.Cos(c.azimuth)}
	return common.Add3(c.target, offset)
}

func (c *orbitController) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position()
}

func (c *orbitController) Target() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *orbitController) SetTarget(target [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
}

func (c *orbitController) Orbit(dAzimuth, dElevation float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.azimuth += dAzimuth
	c.elevation = clamp(c.elevation+dElevation, c.minElevation, c.maxElevation)
}

func (c *orbitController) OrbitLeft()  { c.Orbit(-c.orbitSpeed, 0) }
func (c *orbitController) OrbitRight() { c.Orbit(c.orbitSpeed, 0) }
func (c *orbitController) OrbitUp()    { c.Orbit(0, c.orbitSpeed) }
func (c *orbitController) OrbitDown()  { c.Orbit(0, -c.orbitSpeed) }

func (c *orbitController) Zoom(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radius = clamp(c.radius-delta*c.zoomSpeed, c.minRadius, c.maxRadius)
}

func (c *orbitController) Pan(right, up float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	back := common.Normalize3(common.Sub3(c.position(), c.target))
	r := common.Normalize3(common.Cross3([3]float32{0, 1, 0}, back))
	u := common.Cross3(back, r)
	c.target = common.Add3(c.target, common.Add3(common.Scale3(r, right), common.Scale3(u, up)))
}

func (c *orbitController) Radius() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.radius
}

func (c *orbitController) Azimuth() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.azimuth
}

func (c *orbitController) Elevation() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elevation
}
