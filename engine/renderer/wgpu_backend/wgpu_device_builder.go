package wgpu_backend

import "github.com/cogentcore/webgpu/wgpu"

type deviceConfig struct {
	surface              *wgpu.SurfaceDescriptor
	width                int
	height               int
	presentMode          PresentMode
	sampleCount          MSAASampleCount
	forceFallbackAdapter bool
}

// DeviceBuilderOption is a functional option applied to a WebGPU device during construction via NewDevice.
type DeviceBuilderOption func(*deviceConfig)

// WithSurface makes the device present to a window surface. Without it the default framebuffer is
// an offscreen texture that can be read back with WindowPixels.
//
// Parameters:
//   - desc: the platform surface descriptor, typically from Window.SurfaceDescriptor
//
// Returns:
//   - DeviceBuilderOption: a function that applies the surface option to a device
func WithSurface(desc *wgpu.SurfaceDescriptor) DeviceBuilderOption {
	return func(c *deviceConfig) {
		c.surface = desc
	}
}

// WithWindowSize sets the initial size of the default framebuffer.
//
// Parameters:
//   - width: the width in pixels
//   - height: the height in pixels
//
// Returns:
//   - DeviceBuilderOption: a function that applies the size option to a device
func WithWindowSize(width, height int) DeviceBuilderOption {
	return func(c *deviceConfig) {
		if width > 0 && height > 0 {
			c.width, c.height = width, height
		}
	}
}

// WithPresentMode sets how frames are paced when presenting to the surface.
//
// Parameters:
//   - mode: the PresentMode to use (VSync, Uncapped, or TripleBuffered)
//
// Returns:
//   - DeviceBuilderOption: a function that applies the present mode option to a device
func WithPresentMode(mode PresentMode) DeviceBuilderOption {
	return func(c *deviceConfig) {
		c.presentMode = mode
	}
}

// WithMSAA sets the sample count of the default framebuffer. Values other than MSAAOff and
// MSAA4x fall back to MSAAOff.
//
// Parameters:
//   - count: the sample count
//
// Returns:
//   - DeviceBuilderOption: a function that applies the MSAA option to a device
func WithMSAA(count MSAASampleCount) DeviceBuilderOption {
	return func(c *deviceConfig) {
		if count != MSAA4x {
			count = MSAAOff
		}
		c.sampleCount = count
	}
}

// WithForceFallbackAdapter requests the software fallback adapter, for machines without a GPU.
func WithForceFallbackAdapter(force bool) DeviceBuilderOption {
	return func(c *deviceConfig) {
		c.forceFallbackAdapter = force
	}
}
