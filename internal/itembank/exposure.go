package itembank

import "sync/atomic"

// ExposureCounter tracks how many sessions have administered one item.
// Increments arrive concurrently from many simultaneous sessions; reads
// that are stale by one concurrent increment are acceptable.
type ExposureCounter struct {
	administered atomic.Int64
}

// Count returns the number of administrations recorded so far.
func (c *ExposureCounter) Count() int64 {
	return c.administered.Load()
}

// Increment records one administration.
func (c *ExposureCounter) Increment() {
	c.administered.Add(1)
}

// Seed sets the counter to a previously persisted value.
// Called once at bank construction, before any session runs.
func (c *ExposureCounter) Seed(n int64) {
	c.administered.Store(n)
}
