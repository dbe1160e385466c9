package region

// PowerLadder is a discrete transmit-power table, in dBm, indexed by a
// device's power index; dBm values depend on region plan. Values are
// the standard LoRaWAN regional-parameters TXPower tables (2dB steps),
// not invented.
var (
	eu868PowerLadder = []float64{16, 14, 12, 10, 8, 6, 4, 2}
	us915PowerLadder = []float64{30, 28, 26, 24, 22, 20, 18, 16, 14, 12, 10}
)

// PowerLadder returns the plan's transmit-power table.
func (t *Table) PowerLadder() []float64 {
	if t.Plan == US915 {
		return us915PowerLadder
	}
	return eu868PowerLadder
}

// MaxPowerIndex returns the index of the lowest-power (last) rung, i.e.
// the region-dependent upper bound ADR's power-step clamp must respect.
func (t *Table) MaxPowerIndex() int {
	return len(t.PowerLadder()) - 1
}

// GatewayTXPower is Ptx_gw, the fixed downlink transmit power: a
// representative EU868/US915 gateway max conducted power, resolved as a
// single fixed constant rather than a per-plan table since regional
// parameters give no regional split for it.
const GatewayTXPower = 27.0 // dBm

// TXPower returns the transmit power, in dBm, for a power index, clamping
// to the ladder bounds.
func (t *Table) TXPower(index int) float64 {
	l := t.PowerLadder()
	if index < 0 {
		index = 0
	}
	if index > len(l)-1 {
		index = len(l) - 1
	}
	return l[index]
}
