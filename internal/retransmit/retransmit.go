// Package retransmit implements per-device retry and duty-cycle
// rescheduling, and the success/failure follow-up rules for an uplink
// attempt: plain functions over one device's model.Node state rather than
// a generic event-bus.
package retransmit

import (
	"math/rand"

	"github.com/lorasim/lorasim/internal/model"
	"github.com/lorasim/lorasim/internal/region"
	"github.com/lorasim/lorasim/internal/simclock"
)

// Period is the fixed average inter-uplink period a node transmits at
// (packets_per_hour's inverse), supplied by the caller since it is a
// run-wide configuration value, not per-node state.
type Period simclock.Clock

// NextAfterAck computes the next unique uplink's start time after a
// successful ack, gated by the uplink-band duty cycle. With a fixed
// packet rate the inter-arrival is now + period + U(0,1); otherwise it
// is drawn from an exponential distribution with mean period.
func NextAfterAck(now simclock.Clock, period Period, fixedRate bool, band simclock.Band, node *model.Node, rng *rand.Rand) simclock.Clock {
	interval := simclock.Clock(period) + simclock.FromSeconds(rng.Float64())
	if !fixedRate {
		interval = simclock.FromSeconds(rng.ExpFloat64() * simclock.Clock(period).Seconds())
	}
	return gateByDutyCycle(node, band, now+interval)
}

// NextRetry computes a confirmed retry's start time: a short random
// delay (2 + U(0,3) seconds) past the RX2 window, honouring duty cycle.
func NextRetry(rx2End simclock.Clock, band simclock.Band, node *model.Node, rng *rand.Rand) simclock.Clock {
	delay := simclock.FromSeconds(2 + rng.Float64()*3)
	start := rx2End + delay
	return gateByDutyCycle(node, band, start)
}

// NextAfterDrop computes a fresh unique uplink's start time once a
// dropped packet's retry budget has been exhausted: the same shape as
// NextAfterAck, since a drop restarts the unique-uplink sequence at the
// node's normal period.
func NextAfterDrop(now simclock.Clock, period Period, fixedRate bool, band simclock.Band, node *model.Node, rng *rand.Rand) simclock.Clock {
	return NextAfterAck(now, period, fixedRate, band, node, rng)
}

// gateByDutyCycle enforces the new-start >= next-allowed-deadline rule:
// a candidate start is pushed back to the node's per-band
// next-allowed-transmission deadline if it falls before it.
func gateByDutyCycle(node *model.Node, band simclock.Band, start simclock.Clock) simclock.Clock {
	if deadline, ok := node.NextAllowed[band]; ok && start < deadline {
		return deadline
	}
	return start
}

// RegisterUplink advances the node's per-band duty-cycle deadline after
// an uplink attempt ends: the deadline becomes end + multiplier*airtime
// (multiplier 99 for a 1% band).
func RegisterUplink(node *model.Node, band simclock.Band, end, airtime simclock.Clock, multiplier int) {
	if multiplier <= 0 {
		return
	}
	node.NextAllowed[band] = end + simclock.Clock(int64(multiplier)*int64(airtime))
}

// ChooseChannel picks the next uplink channel at random from the
// region's uplink set, excluding the channel just used.
func ChooseChannel(t *region.Table, last simclock.Channel, rng *rand.Rand) simclock.Channel {
	n := len(t.Uplink)
	if n <= 1 {
		return last
	}
	for {
		ch := simclock.Channel(rng.Intn(n))
		if ch != last {
			return ch
		}
	}
}

// Outcome is what happens to a node's in-flight confirmed attempt once
// its ack has failed to arrive: another try, or a drop once the retry
// budget is exhausted.
type Outcome int

// Outcomes of a concluded attempt.
const (
	OutcomeRetry Outcome = iota
	OutcomeDropAndRestart
)

// Conclude applies the retry-counter bound after a failed (unacked)
// confirmed attempt: increments the retry counter and reports
// whether the node should retry or drop (the caller starts the fresh
// unique sequence by scheduling the next attempt as non-retry).
// Unconfirmed traffic never retries; callers only call this for
// confirmed nodes whose ack did not arrive.
func Conclude(node *model.Node, maxRetr int) Outcome {
	node.Retries++
	if node.Retries > maxRetr {
		node.Dropped++
		node.Retries = 0
		return OutcomeDropAndRestart
	}
	return OutcomeRetry
}
