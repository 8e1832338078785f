package fchistory

import "time"

// Coalescer collapses a burst of changes into one action fired after Window
// of quiet. It never reads a clock; callers pass the current time.
type Coalescer struct {
	Window time.Duration

	pending  bool
	deadline time.Time
}

// Touch notes a change at now and pushes the deadline back.
func (c *Coalescer) Touch(now time.Time) {
	c.pending = true
	c.deadline = now.Add(c.Window)
}

func (c *Coalescer) Pending() bool {
	return c.pending
}

// Due reports whether a pending action should fire at now.
func (c *Coalescer) Due(now time.Time) bool {
	return c.pending && !now.Before(c.deadline)
}

// Deadline is when the pending action becomes due.
func (c *Coalescer) Deadline() (time.Time, bool) {
	return c.deadline, c.pending
}

func (c *Coalescer) Reset() {
	c.pending = false
	c.deadline = time.Time{}
}
