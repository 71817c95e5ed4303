package pause

import "sync/atomic"

// Controller is a process-wide pause flag. The zero value is running.
type Controller struct {
	paused atomic.Bool
}

// NewController returns a controller in the running state.
func NewController() *Controller {
	return &Controller{}
}

// IsRunning reports whether downloads may proceed.
func (c *Controller) IsRunning() bool {
	return !c.paused.Load()
}

// Toggle flips the state and returns the new running state.
func (c *Controller) Toggle() bool {
	for {
		paused := c.paused.Load()
		if c.paused.CompareAndSwap(paused, !paused) {
			return paused
		}
	}
}
