package wgpu_backend

// PresentMode controls how frames presented to the window surface are paced.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped

	// PresentModeTripleBuffered replaces the queued frame with the newest one. No tearing and
	// lower latency than VSync, where the surface supports it.
	PresentModeTripleBuffered
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA)
// of the window's default framebuffer. Offscreen framebuffers are always single sampled.
// WebGPU guarantees support for 1 (off) and 4.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1). This is the default.
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing.
	MSAA4x MSAASampleCount = 4
)

const (
	// uniformAlign is the dynamic offset alignment WebGPU requires for uniform buffers.
	uniformAlign = 256

	// uniformRingSize is the per submission budget for uniform blocks. When a frame needs more,
	// the recorded work is submitted early and the ring starts over.
	uniformRingSize = 4 << 20

	// copyRowAlign is the bytes per row alignment of texture to buffer copies.
	copyRowAlign = 256
)
