package energy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lorasim/lorasim/internal/simclock"
)

func TestTXPowerClampsToLadderBounds(t *testing.T) {
	assert.Equal(t, TXPower(0), TXPower(-5))
	last := len(txCurrentLadderMA) - 1
	assert.Equal(t, TXPower(last), TXPower(last+10))
}

func TestTXPowerDecreasesAlongLadder(t *testing.T) {
	assert.Greater(t, TXPower(0), TXPower(len(txCurrentLadderMA)-1), "index 0 is the strongest rung")
}

func TestAddTXAccumulatesPositiveEnergy(t *testing.T) {
	var e Energy
	e.AddTX(0, simclock.FromSeconds(0.1))
	assert.Greater(t, e.Total, MilliJoules(0))
}

func TestAddWindowReceivedVsPreambleOnly(t *testing.T) {
	airtime := simclock.FromSeconds(0.1)
	preamble := simclock.FromSeconds(0.01)

	var received, preambleOnly Energy
	received.AddWindowReceived(airtime)
	preambleOnly.AddWindowPreambleOnly(preamble, 0)

	assert.Greater(t, received.Total, preambleOnly.Total, "a fully received window costs more than a preamble-only listen")
}

func TestEnergyAccumulatesAcrossPhases(t *testing.T) {
	var e Energy
	e.AddTX(3, simclock.FromSeconds(0.05))
	before := e.Total
	e.AddWindowReceived(simclock.FromSeconds(0.02))
	assert.Greater(t, e.Total, before)
}
