package physics

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathLossMonotoneInDistance(t *testing.T) {
	near := PathLoss(100)
	far := PathLoss(1000)
	assert.Less(t, float64(near), float64(far), "path loss must increase with distance")
}

func TestPathLossClampsBelowReferenceDistance(t *testing.T) {
	atRef := PathLoss(referenceDistance)
	below := PathLoss(1)
	assert.Equal(t, atRef, below, "distances below dref must clamp to dref")
}

func TestShadowIsZeroMeanOverManyDraws(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var sum DBm
	const n = 20000
	for i := 0; i < n; i++ {
		sum += Shadow(rng)
	}
	mean := float64(sum) / n
	assert.InDelta(t, 0, mean, 0.1)
}

func TestReceivedPowerNilRNGMeansNoShadowing(t *testing.T) {
	a := ReceivedPower(14, 500, nil)
	b := ReceivedPower(14, 500, nil)
	assert.Equal(t, a, b, "a nil rng must yield the deterministic mean received power")
}

func TestReceivedPowerDecreasesWithDistance(t *testing.T) {
	near := ReceivedPower(14, 100, nil)
	far := ReceivedPower(14, 2000, nil)
	assert.Greater(t, float64(near), float64(far))
}
