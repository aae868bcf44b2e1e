package config

import "time"

// WatchOption is a functional option applied to a settings watch via Watch.
type WatchOption func(*watchConfig)

// WithDebounce sets how long Watch waits for the file to settle before reloading it.
//
// Parameters:
//   - d: the debounce window, ignored when not positive
//
// Returns:
//   - WatchOption: a function that applies the debounce option to a watch
func WithDebounce(d time.Duration) WatchOption {
	return func(c *watchConfig) {
		if d > 0 {
			c.debounce = d
		}
	}
}
