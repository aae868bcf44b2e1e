package camera

// OrbitControllerOption is a functional option for configuring an orbit controller.
type OrbitControllerOption func(*orbitController)

// WithRadius sets the initial distance from the target.
func WithRadius(radius float32) OrbitControllerOption {
	return func(c *orbitController) {
		c.radius = radius
	}
}

// WithAzimuth sets the initial angle around the Y axis in radians. Zero looks down -Z.
func WithAzimuth(azimuth float32) OrbitControllerOption {
	return func(c *orbitController) {
		c.azimuth = azimuth
	}
}

// WithElevation sets the initial angle above the horizontal plane in radians.
func WithElevation(elevation float32) OrbitControllerOption {
	return func(c *orbitController) {
		c.elevation = elevation
	}
}

// WithTarget sets the orbit centre.
func WithTarget(x, y, z float32) OrbitControllerOption {
	return func(c *orbitController) {
		c.target = [3]float32{x, y, z}
	}
}

// WithRadiusBounds limits how far Zoom can move the eye.
//
// Parameters:
//   - minRadius: the closest distance to the target
//   - maxRadius: the farthest distance from the target
//
// Returns:
//   - OrbitControllerOption: option function to apply
func WithRadiusBounds(minRadius, maxRadius float32) OrbitControllerOption {
	return func(c *orbitController) {
		c.minRadius, c.maxRadius = minRadius, max(minRadius, maxRadius)
	}
}

// WithElevationBounds limits the elevation in radians.
func WithElevationBounds(minElevation, maxElevation float32) OrbitControllerOption {
	return func(c *orbitController) {
		c.minElevation, c.maxElevation = minElevation, max(minElevation, maxElevation)
	}
}

// WithOrbitSpeed sets the step of OrbitLeft, OrbitRight, OrbitUp and OrbitDown in radians.
func WithOrbitSpeed(speed float32) OrbitControllerOption {
	return func(c *orbitController) {
		c.orbitSpeed = speed
	}
}

// WithZoomSpeed scales Zoom deltas.
func WithZoomSpeed(speed float32) OrbitControllerOption {
	return func(c *orbitController) {
		c.zoomSpeed = speed
	}
}
