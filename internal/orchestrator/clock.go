package orchestrator

import "time"

// SimClock is simulation time, advanced once per frame by the driver.
type SimClock struct {
	now time.Duration
}

func (c *SimClock) Now() time.Duration {
	return c.now
}

func (c *SimClock) Advance(dt time.Duration) {
	c.now += dt
}
