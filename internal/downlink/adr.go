// Package downlink implements the downlink planner: RX1/RX2 feasibility,
// the gateway-selection policy table, and the ADR power step. The
// gateway-selection policy is chosen once at configuration and dispatched
// by a switch in Select.
package downlink

import (
	"math"

	"github.com/lorasim/lorasim/internal/model"
	"github.com/lorasim/lorasim/internal/region"
)

// ADRStep is the outcome of the ADR power-step computation, kept
// separate from gateway selection so it can be unit-tested without a
// full downlink planner.
type ADRStep struct {
	NewIndex int
	Changed  bool
}

// ComputeADRStep returns the power-step decision for node, or
// ADRStep{Changed: false} if fewer than model.SNRSamples observations
// have been collected yet.
func ComputeADRStep(node *model.Node, t *region.Table) ADRStep {
	if len(node.SNR) < model.SNRSamples {
		return ADRStep{NewIndex: node.PowerIndex}
	}
	gap := node.MaxSNR() - region.RequiredSNR(node.SF) - region.MarginDB
	steps := int(math.Floor(gap / 3))
	newIndex := node.PowerIndex + steps // more steps -> lower power -> higher ladder index
	if newIndex < 0 {
		newIndex = 0
	}
	if max := t.MaxPowerIndex(); newIndex > max {
		newIndex = max
	}
	return ADRStep{NewIndex: newIndex, Changed: newIndex != node.PowerIndex}
}

// ADRCommandBytes is the payload overhead an ADR request adds to a
// downlink.
const ADRCommandBytes = 4
