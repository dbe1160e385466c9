package physics

import (
	"time"

	lwairtime "github.com/brocaar/lorawan/airtime"

	"github.com/lorasim/lorasim/internal/region"
	"github.com/lorasim/lorasim/internal/simclock"
)

// LoRa frame-format constants: 8-symbol preamble, coding rate 4/5,
// explicit header, CRC enabled.
const (
	preambleSymbols = 8
	codingRate      = lwairtime.CodingRate45
	explicitHeader  = true
	crcEnabled      = true
)

// lowDataRateOptimization is true exactly when the DE=1 condition holds:
// BW125 and SF 11 or 12.
func lowDataRateOptimization(sf region.SF, bw region.Bandwidth) bool {
	return bw == region.BW125 && sf >= 11
}

// kHz converts a region.Bandwidth (stored in Hz) to the kHz unit
// lwairtime.CalculateLoRaAirtime/CalculateLoRaSymbolDuration expect.
func kHz(bw region.Bandwidth) int {
	return int(bw) / 1000
}

type airtimeKey struct {
	payload int
	sf      region.SF
	bw      region.Bandwidth
}

// airtimeCache memoises Airtime by (payload, sf, bw). The engine is
// single-threaded, so a plain map suffices.
var airtimeCache = map[airtimeKey]simclock.Clock{}

// Airtime returns the LoRa time-on-air for a frame of payloadSize bytes
// at the given SF and bandwidth, using the Semtech time-on-air formula
// (bandwidth in kHz, result treated as seconds).
func Airtime(payloadSize int, sf region.SF, bw region.Bandwidth) simclock.Clock {
	key := airtimeKey{payload: payloadSize, sf: sf, bw: bw}
	if c, ok := airtimeCache[key]; ok {
		return c
	}
	d, err := lwairtime.CalculateLoRaAirtime(payloadSize, int(sf), kHz(bw),
		preambleSymbols, codingRate, explicitHeader, lowDataRateOptimization(sf, bw))
	if err != nil {
		// Only ever returned for an invalid coding-rate constant, which is
		// fixed above; a panic here means a programming error.
		panic(err)
	}
	c := simclock.FromDuration(d)
	airtimeCache[key] = c
	return c
}

// SymbolDuration returns the duration of one LoRa symbol at the given SF
// and bandwidth.
func SymbolDuration(sf region.SF, bw region.Bandwidth) simclock.Clock {
	return simclock.FromDuration(lwairtime.CalculateLoRaSymbolDuration(int(sf), kHz(bw)))
}

// PreambleFloor returns the offset, from the start of a transmission, at
// which an uplink-lock record begins: the floor excludes the first
// three symbols from the lock to model early preamble detection. It is
// (preambleSymbols-3+4.25) symbol durations.
func PreambleFloor(sf region.SF, bw region.Bandwidth) simclock.Clock {
	ts := SymbolDuration(sf, bw)
	return simclock.Clock(time.Duration(float64(ts) * (preambleSymbols - 3 + 4.25)))
}

// PreambleDuration returns the full preamble duration (all preambleSymbols
// symbols plus the 4.25-symbol sync/SFD tail), used by the energy
// accountant to cost preamble-only listening when a device detects but
// does not fully receive a downlink.
func PreambleDuration(sf region.SF, bw region.Bandwidth) simclock.Clock {
	ts := SymbolDuration(sf, bw)
	return simclock.FromDuration(lwairtime.CalculateLoRaPreambleDuration(ts.Duration(), preambleSymbols))
}
