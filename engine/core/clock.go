package core

import "time"

type Clock struct {
	start   time.Time
	elapsed time.Duration
	running bool
}

func NewClock() *Clock {
	return &Clock{}
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if c.running {
		c.elapsed = time.Since(c.start)
	}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.start = time.Now()
	c.elapsed = 0
	c.running = true
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.running = false
}

// Elapsed returns the seconds between Start and the last Update.
func (c *Clock) Elapsed() float64 {
	return c.elapsed.Seconds()
}

// Ticks returns the nanoseconds since Start, the resolution reported as the CPU timer frequency.
func (c *Clock) Ticks() uint64 {
	if !c.running {
		return 0
	}
	return uint64(time.Since(c.start).Nanoseconds())
}

const ClockFrequency uint64 = uint64(time.Second)
