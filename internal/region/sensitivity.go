package region

import "github.com/brocaar/lorawan/sensitivity"

// sensitivityBW125 is the fixed receiver sensitivity table for BW125, in
// dBm (SF7=-124dBm ... SF12=-137dBm). These are the values the wider
// LoRaWAN-simulation literature uses for the same channel (e.g. the Bor
// et al. "Do LoRa Low-Power Wide-Area Networks Scale?" capture-effect
// study this engine's collision matrix is also grounded on). They are
// literal per-SF constants with no equivalent in the sensitivity
// package's noise-figure/SNR formula (which has no per-SF table of its
// own); what that formula does give us is the bandwidth-widening term,
// reused below instead of reimplementing the log-noise-floor arithmetic
// by hand.
var sensitivityBW125 = map[SF]float64{
	7:  -124,
	8:  -127,
	9:  -130,
	10: -133,
	11: -135,
	12: -137,
}

// bandwidthDelta returns how much wider bandwidth raises the noise
// floor relative to BW125, by differencing
// sensitivity.CalculateSensitivity at the two bandwidths (its
// noise-figure and SNR terms are held equal on both sides, so only the
// 10*log10(bw) term survives the subtraction).
func bandwidthDelta(bw Bandwidth) float64 {
	wide := sensitivity.CalculateSensitivity(int(bw), 0, 0)
	ref := sensitivity.CalculateSensitivity(int(BW125), 0, 0)
	return float64(wide - ref)
}

// Sensitivity returns the receiver sensitivity, in dBm, for the given SF
// and bandwidth. BW500 sensitivities are the BW125 table widened by
// bandwidthDelta rather than duplicated outright.
func Sensitivity(sf SF, bw Bandwidth) float64 {
	base, ok := sensitivityBW125[sf]
	if !ok {
		base = sensitivityBW125[MaxSF]
	}
	if bw == BW125 {
		return base
	}
	return base + bandwidthDelta(bw)
}
