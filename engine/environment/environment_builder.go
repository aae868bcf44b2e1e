package environment

import (
	"github.com/Carmen-Shannon/oxy-render/engine/node"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/texture"
)

// VolumeBuilderOption is a functional option for configuring a Volume during construction.
type VolumeBuilderOption func(*volumeImpl)

// WithName sets the name of the Volume.
func WithName(name string) VolumeBuilderOption {
	return func(v *volumeImpl) {
		v.name = name
	}
}

// WithPosition sets the stored centre of the Volume.
//
// Parameters:
//   - p: world position
//
// Returns:
//   - VolumeBuilderOption: functional option to set the position
func WithPosition(p [3]float32) VolumeBuilderOption {
	return func(v *volumeImpl) {
		v.position = p
	}
}

// WithPositionOffset sets the offset added to the Volume position.
func WithPositionOffset(o [3]float32) VolumeBuilderOption {
	return func(v *volumeImpl) {
		v.offset = o
	}
}

// WithSize sets the full edge lengths of the Volume.
//
// Parameters:
//   - s: size along x, y and z
//
// Returns:
//   - VolumeBuilderOption: functional option to set the size
func WithSize(s [3]float32) VolumeBuilderOption {
	return func(v *volumeImpl) {
		v.size = s
	}
}

// WithIntensity sets the IBL intensity of the Volume.
func WithIntensity(i float32) VolumeBuilderOption {
	return func(v *volumeImpl) {
		v.intens = i
	}
}

// WithExposure sets the exposure of the Volume.
func WithExposure(e float32) VolumeBuilderOption {
	return func(v *volumeImpl) {
		v.exposure = e
	}
}

// WithRotation sets the lookup rotation about +Y in radians.
func WithRotation(radians float32) VolumeBuilderOption {
	return func(v *volumeImpl) {
		v.rotation = radians
	}
}

// WithIBL sets the lighting maps of the Volume.
//
// Parameters:
//   - ibl: the irradiance, specular and BRDF maps
//
// Returns:
//   - VolumeBuilderOption: functional option to set the maps
func WithIBL(ibl IBL) VolumeBuilderOption {
	return func(v *volumeImpl) {
		v.ibl = ibl
	}
}

// WithNode makes the Volume follow a node of the scene tree.
func WithNode(tree node.Tree, id node.NodeID) VolumeBuilderOption {
	return func(v *volumeImpl) {
		v.tree, v.nodeID = tree, id
	}
}

// SkyBuilderOption is a functional option for configuring a Sky during construction.
type SkyBuilderOption func(*skyImpl)

// WithSkyCubeMap sets the texture the Sky draws and is lit from.
//
// Parameters:
//   - c: the sky cube map
//
// Returns:
//   - SkyBuilderOption: functional option to set the cube map
func WithSkyCubeMap(c *texture.CubeMap) SkyBuilderOption {
	return func(s *skyImpl) {
		s.cubeMap = c
	}
}

// WithSkyExposure sets the exposure the Sky is drawn with.
func WithSkyExposure(e float32) SkyBuilderOption {
	return func(s *skyImpl) {
		s.exposure = e
	}
}

// WithSkyIntensity sets the IBL intensity of the Sky environment.
func WithSkyIntensity(i float32) SkyBuilderOption {
	return func(s *skyImpl) {
		s.intensity = i
	}
}

// WithSkyRotation sets the lookup rotation of the Sky environment about +Y in radians.
func WithSkyRotation(radians float32) SkyBuilderOption {
	return func(s *skyImpl) {
		s.rotation = radians
	}
}

// WithIrradianceSize sets the face size of the irradiance map built on Init.
func WithIrradianceSize(size int) SkyBuilderOption {
	return func(s *skyImpl) {
		s.irradianceSize = size
	}
}

// WithDrawSky sets whether the Sky is drawn.
func WithDrawSky(v bool) SkyBuilderOption {
	return func(s *skyImpl) {
		s.draw = v
	}
}
