package queue

import "sync"

// State is a point-in-time view of the controller signals
type State struct {
	StartRequested bool `json:"start_requested"`
	StopRequested  bool `json:"stop_requested"`
	Processing     bool `json:"processing"`
}

// Controller carries the start/stop signals between the front-end and the
// sequential runner. A stop request is a request to halt after the running
// job finishes, never a hard cancel.
type Controller struct {
	mu    sync.RWMutex
	state State
	wake  chan struct{}
}

// NewController creates a controller with no pending requests
func NewController() *Controller {
	return &Controller{wake: make(chan struct{}, 1)}
}

// RequestStart asks the runner to begin draining the queue
func (c *Controller) RequestStart() {
	c.mu.Lock()
	c.state.StartRequested = true
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// RequestStop asks the runner to halt at the next job boundary
func (c *Controller) RequestStop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.StopRequested = true
}

// StartRequested reports a pending start request
func (c *Controller) StartRequested() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.StartRequested
}

// StopRequested reports a pending stop request
func (c *Controller) StopRequested() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.StopRequested
}

// ConsumeStart clears the start request and reports whether one was pending
func (c *Controller) ConsumeStart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	was := c.state.StartRequested
	c.state.StartRequested = false
	return was
}

// ConsumeStop clears the stop request and reports whether one was pending
func (c *Controller) ConsumeStop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	was := c.state.StopRequested
	c.state.StopRequested = false
	return was
}

// SetProcessing marks whether the runner is draining the queue
func (c *Controller) SetProcessing(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Processing = active
}

// Processing reports whether the runner is draining the queue
func (c *Controller) Processing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Processing
}

// State returns a snapshot of all signals
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Wake is signalled on every start request
func (c *Controller) Wake() <-chan struct{} {
	return c.wake
}
