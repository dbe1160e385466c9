// Package energy implements the per-device energy accountant. Unit types
// follow the named-numeric-type pattern: a named numeric type rather than
// bare float64 scattered through call sites.
package energy

import "github.com/lorasim/lorasim/internal/simclock"

// MilliJoules is an energy quantity.
type MilliJoules float64

// MilliWatts is a power draw at the device's 3.3V supply rail.
type MilliWatts float64

// Fixed current draws, in mW at 3.3V, representative of a typical LoRa
// transceiver + MCU in each phase. TX draw additionally depends on the
// power index via txCurrentLadder below.
const (
	PIdle        MilliWatts = 1.4 * 3.3  // MCU idle between phases
	PRx          MilliWatts = 10.3 * 3.3 // radio in RX mode
	SensingPadMs            = 2.0        // ms of idle sensing before TX
)

// txCurrentLadderMA is the TX current draw, in mA, indexed the same way
// as the region power ladder (strongest first): representative values
// for a common LoRa transceiver scaled across its power-amplifier range.
var txCurrentLadderMA = []float64{125, 110, 95, 80, 68, 58, 48, 38, 30, 24, 20}

// TXPower returns the TX-phase power draw, in mW, for a power index.
func TXPower(index int) MilliWatts {
	if index < 0 {
		index = 0
	}
	if index >= len(txCurrentLadderMA) {
		index = len(txCurrentLadderMA) - 1
	}
	return MilliWatts(txCurrentLadderMA[index] * 3.3)
}

// Energy accumulates the four accounted phases (TX, RX1, RX2, idle
// sensing) for one device.
type Energy struct {
	Total MilliJoules
}

// cost converts a power draw sustained for d into an energy quantity.
func cost(p MilliWatts, d simclock.Clock) MilliJoules {
	return MilliJoules(float64(p) * d.Seconds())
}

// AddTX accounts for the TX phase: radio at the power-index draw plus the
// MCU idle draw, both sustained for the uplink's airtime, plus the fixed
// sensing pad before TX.
func (e *Energy) AddTX(powerIndex int, airtime simclock.Clock) {
	e.Total += cost(TXPower(powerIndex), airtime)
	e.Total += cost(PIdle, airtime)
	e.Total += MilliJoules(float64(PIdle) * SensingPadMs / 1000)
}

// AddWindowReceived accounts for an RX window (RX1 or RX2) in which the
// downlink was fully received: radio in RX mode plus MCU idle, for the
// downlink's airtime.
func (e *Energy) AddWindowReceived(airtime simclock.Clock) {
	e.Total += cost(PRx, airtime)
	e.Total += cost(PIdle, airtime)
}

// AddWindowPreambleOnly accounts for an RX window in which only the
// preamble was detected (no downlink arrived, or it wasn't intended for
// this device): radio in RX mode plus MCU idle, for the preamble
// duration only, plus any idle bridging time between windows.
func (e *Energy) AddWindowPreambleOnly(preamble simclock.Clock, bridgeIdle simclock.Clock) {
	e.Total += cost(PRx, preamble)
	e.Total += cost(PIdle, preamble)
	e.Total += cost(PIdle, bridgeIdle)
}
