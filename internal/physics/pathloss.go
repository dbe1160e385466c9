// Package physics implements the radio-propagation and airtime
// calculations: log-distance path loss with per-reception shadowing,
// and LoRa time-on-air.
//
// Every function here is pure and takes its randomness, when needed, as
// an explicit *rand.Rand, so all draws can be funnelled through one
// generator and a seeded run stays reproducible.
package physics

import (
	"math"
	"math/rand"
)

// Meters is a planar distance.
type Meters float64

// DBm is a power level in decibel-milliwatts.
type DBm float64

// Path-loss model constants. These are fixed design constants, not
// configuration: changing the propagation model is out of this engine's
// scope.
const (
	referenceDistance Meters = 40  // dref
	pathLossAtRef     DBm    = 110 // Lpld0
	pathLossExponent         = 2.08
	shadowStdDev             = 3.57 // sqrt(var), var = 3.57^2
)

// Distance returns the planar distance between two points.
func Distance(x1, y1, x2, y2 float64) Meters {
	dx := x1 - x2
	dy := y1 - y2
	return Meters(math.Sqrt(dx*dx + dy*dy))
}

// PathLoss returns the mean log-distance path loss at distance d, with no
// shadowing applied. Distances below the reference distance are clamped
// to it, since the log-distance model is only defined for d >= dref.
func PathLoss(d Meters) DBm {
	if d < referenceDistance {
		d = referenceDistance
	}
	return pathLossAtRef + DBm(10*pathLossExponent*math.Log10(float64(d/referenceDistance)))
}

// Shadow draws one fresh shadowing sample, in dB, from N(0, shadowStdDev^2).
// Every reception event must draw its own sample: the same transmission
// observed at two gateways sees two independent shadow realisations.
func Shadow(rng *rand.Rand) DBm {
	return DBm(rng.NormFloat64() * shadowStdDev)
}

// ReceivedPower returns the received power at distance d from a
// transmitter at txPower, applying fresh shadowing drawn from rng. Pass a
// nil rng to get the mean received power (shadowing=0), used by SF
// assignment's margin check.
func ReceivedPower(txPower DBm, d Meters, rng *rand.Rand) DBm {
	var shadow DBm
	if rng != nil {
		shadow = Shadow(rng)
	}
	return txPower - PathLoss(d) - shadow
}
