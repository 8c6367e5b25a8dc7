package matcher

import (
	"time"
)

// Options configures matching behavior
type Options struct {
	Tolerant bool          // Continue on errors instead of failing fast
	Timeout  time.Duration // Per-rule timeout (0 = no timeout)
}

// DefaultOptions returns the default matching options
func DefaultOptions() Options {
	return Options{
		Tolerant: false,
		Timeout:  0,
	}
}
