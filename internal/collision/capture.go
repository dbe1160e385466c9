package collision

import (
	"math"
	"math/rand"

	"github.com/lorasim/lorasim/internal/physics"
	"github.com/lorasim/lorasim/internal/region"
)

// survives runs the per-candidate capture test and reports whether sel
// keeps demodulating cleanly against one overlapping
// candidate. Each transmission's own fate is decided independently, the
// one time its own collision check runs (at its own dispatch): this
// function never mutates or judges the candidate's fate, only sel's.
func survives(selSF region.SF, prxSel float64, otherSF region.SF, prxOther float64, fullCollision bool) bool {
	if otherSF == selSF {
		delta := prxSel - prxOther
		t := region.CaptureThreshold(selSF, selSF)
		if math.Abs(delta) <= t {
			return false // overlap=3, co-SF: both destroyed
		}
		return delta > 0 // stronger of the two captures
	}
	// overlap=1: non-orthogonal SF interference only matters when full
	// collision modelling is enabled; otherwise SFs are treated as
	// orthogonal and never interfere.
	if !fullCollision {
		return true
	}
	selMargin := prxSel - prxOther
	selSurvives := selMargin > region.CaptureThreshold(selSF, otherSF)
	return selSurvives
}

// receivedPower computes the received power at (rx, ry) from a
// transmitter at txPower dBm, txX/txY, with a fresh shadowing sample.
func receivedPower(txPower, txX, txY, rx, ry float64, rng *rand.Rand) float64 {
	d := physics.Distance(txX, txY, rx, ry)
	return float64(physics.ReceivedPower(physics.DBm(txPower), d, rng))
}

// Result is the outcome of a capture test at one receiver.
type Result struct {
	Prx float64
	Ok  bool
}

// Evaluate runs the capture test for sel at a receiver positioned at
// (rx, ry), against the given overlapping candidates. It applies only
// the physical-layer part of the test (sensitivity plus pairwise
// capture); gateway-specific gates (downlink-busy, uplink-lock) are the
// caller's responsibility, since the destination-node check has no such
// gates.
func Evaluate(sel Transmission, rx, ry float64, candidates []Transmission, fullCollision bool, rng *rand.Rand) Result {
	prxSel := receivedPower(sel.TXPower, sel.X, sel.Y, rx, ry, rng)
	if prxSel < region.Sensitivity(sel.SF, sel.BW) {
		return Result{Prx: prxSel, Ok: false}
	}
	for _, other := range candidates {
		prxOther := receivedPower(other.TXPower, other.X, other.Y, rx, ry, rng)
		if !survives(sel.SF, prxSel, other.SF, prxOther, fullCollision) {
			return Result{Prx: prxSel, Ok: false}
		}
	}
	return Result{Prx: prxSel, Ok: true}
}
