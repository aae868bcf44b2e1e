package soft_backend

type deviceConfig struct {
	width  int
	height int
}

// DeviceBuilderOption is a functional option applied to a soft device during construction via NewDevice.
type DeviceBuilderOption func(*deviceConfig)

// WithWindowSize sets the size of the default framebuffer.
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
