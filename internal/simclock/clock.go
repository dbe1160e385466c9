// Package simclock defines the logical clock shared by every subsystem of
// the simulation engine.
package simclock

import (
	"fmt"
	"math"
	"time"
)

// Clock represents the virtual simulation time, in nanoseconds, measured
// from the start of the run.
type Clock time.Duration

// Infinity is larger than any real event time, for use as a sentinel.
const Infinity = Clock(math.MaxInt64)

// Seconds returns c as a float64 number of seconds.
func (c Clock) Seconds() float64 {
	return time.Duration(c).Seconds()
}

// FromSeconds converts a float64 number of seconds to a Clock.
func FromSeconds(s float64) Clock {
	return Clock(s * float64(time.Second))
}

// FromDuration converts a time.Duration to a Clock.
func FromDuration(d time.Duration) Clock {
	return Clock(d)
}

// Duration returns c as a time.Duration.
func (c Clock) Duration() time.Duration {
	return time.Duration(c)
}

func (c Clock) String() string {
	return fmt.Sprintf("%.6f", c.Seconds())
}

// Band identifies a regional sub-band used for duty-cycle accounting
// (e.g. the EU868 1% bands and the 10% RX2 band, or a single US915
// pseudo-band since that plan carries no per-band duty cycle).
type Band int

// Channel identifies a physical channel understood by the region plan; it
// indexes directly into the per-channel event queues.
type Channel int
