package downlink

import (
	"math/rand"

	"github.com/lorasim/lorasim/internal/config"
	"github.com/lorasim/lorasim/internal/model"
)

// fairnessCounter is a per-node metric URCB/FBS compare against a
// network-wide average.
type fairnessCounter func(*model.Node) float64

func noGWAvailableCounter(n *model.Node) float64 { return float64(n.NoRX1) }

func ackFairnessCounter(n *model.Node) float64 {
	if n.Unique == 0 {
		return 0
	}
	return float64(n.Acked) / float64(n.Unique)
}

// networkAverage computes the mean of counter across every node in the
// world.
func networkAverage(world *model.World, counter fairnessCounter) float64 {
	if len(world.Nodes) == 0 {
		return 0
	}
	var sum float64
	for _, n := range world.Nodes {
		sum += counter(n)
	}
	return sum / float64(len(world.Nodes))
}

// freeFraction is the fraction of reachable gateways that are currently
// feasible for this window, the "more than two-thirds ... are free"
// test URCB and FBS share.
func freeFraction(feasibleCount, reachableCount int) float64 {
	if reachableCount == 0 {
		return 0
	}
	return float64(feasibleCount) / float64(reachableCount)
}

// abstain runs the shared URCB/FBS abstention test: abstain when the
// node's counter is on the "already well-served" side of the network
// average (below average for URCB's no-gw-available count, above
// average for FBS's ack-over-delivered fairness) and more than the
// configured fraction of reachable gateways are free.
func abstain(node *model.Node, world *model.World, counter fairnessCounter, wellServedIfBelow bool, free, threshold float64) bool {
	avg := networkAverage(world, counter)
	mine := counter(node)
	wellServed := mine < avg
	if !wellServedIfBelow {
		wellServed = mine > avg
	}
	return wellServed && free > threshold
}

// Select runs the gateway-selection policy over feasible candidates for
// one window and reports the chosen gateway, or ok=false
// if no gateway is selected (no feasible candidate, or URCB/FBS
// abstention).
func Select(policy config.Policy, node *model.Node, world *model.World, feasible []Candidate, reachableCount int, cfg *config.Config, rng *rand.Rand) (model.GatewayID, bool) {
	if len(feasible) == 0 {
		return 0, false
	}
	switch policy {
	case config.FCFS:
		return feasible[rng.Intn(len(feasible))].Gateway, true
	case config.RSSI:
		return bestRSSI(feasible), true
	case config.LB:
		return leastBusy(world, feasible), true
	case config.URCB:
		if abstain(node, world, noGWAvailableCounter, true, freeFraction(len(feasible), reachableCount), cfg.GWFreeAbstainFraction) {
			return 0, false
		}
		return bestRSSI(feasible), true
	case config.FBS:
		if abstain(node, world, ackFairnessCounter, false, freeFraction(len(feasible), reachableCount), cfg.GWFreeAbstainFraction) {
			return 0, false
		}
		return bestRSSI(feasible), true
	default:
		return bestRSSI(feasible), true
	}
}

func bestRSSI(candidates []Candidate) model.GatewayID {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Prx > best.Prx {
			best = c
		}
	}
	return best.Gateway
}

// leastBusy picks the feasible gateway whose smallest next-allowed-downlink
// deadline, taken across all of its bands, is earliest; a gateway with no
// deadline yet counts as 0 (EU868 only; config.Validate rejects LB under
// US915).
func leastBusy(world *model.World, candidates []Candidate) model.GatewayID {
	best := candidates[0]
	bestDeadline := minNextDownlink(world.Gateway(best.Gateway))
	for _, c := range candidates[1:] {
		d := minNextDownlink(world.Gateway(c.Gateway))
		if d < bestDeadline {
			best, bestDeadline = c, d
		}
	}
	return best.Gateway
}

func minNextDownlink(gw *model.Gateway) (min int64) {
	first := true
	for _, t := range gw.NextDownlink {
		v := int64(t)
		if first || v < min {
			min, first = v, false
		}
	}
	return min
}
