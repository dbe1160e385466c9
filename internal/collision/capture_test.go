package collision

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lorasim/lorasim/internal/region"
)

func TestSurvivesCoSFCloseSignalsBothDestroyed(t *testing.T) {
	// Within the co-SF diagonal sentinel (1dB), neither side survives.
	assert.False(t, survives(7, -50, 7, -50.5, false))
	assert.False(t, survives(7, -50.5, 7, -50, false))
}

func TestSurvivesCoSFStrongerCaptures(t *testing.T) {
	assert.True(t, survives(7, -40, 7, -70, false))
	assert.False(t, survives(7, -70, 7, -40, false))
}

func TestSurvivesDifferentSFOrthogonalWithoutFullCollision(t *testing.T) {
	// Non-orthogonal SF interference only applies when full_collision is
	// enabled; otherwise SFs never interfere.
	assert.True(t, survives(7, -90, 12, -40, false))
}

func TestSurvivesDifferentSFWithFullCollision(t *testing.T) {
	// SF7 survives SF12 only while it is no more than 9dB weaker (the
	// T[7][12] = -9 isolation threshold); a 50dB-weaker SF7 signal must not
	// survive.
	assert.False(t, survives(7, -90, 12, -40, true))
	assert.True(t, survives(7, -10, 12, -90, true))
}

func TestEvaluateBelowSensitivityFails(t *testing.T) {
	sel := Transmission{SF: 12, BW: region.BW125, TXPower: -200, X: 0, Y: 0}
	res := Evaluate(sel, 10000, 10000, nil, false, rand.New(rand.NewSource(1)))
	assert.False(t, res.Ok)
}

func TestEvaluateNoInterferersSucceedsAboveSensitivity(t *testing.T) {
	sel := Transmission{SF: 7, BW: region.BW125, TXPower: 14, X: 0, Y: 0}
	res := Evaluate(sel, 10, 10, nil, false, rand.New(rand.NewSource(1)))
	assert.True(t, res.Ok)
}
