// Package model holds the arena-indexed Node and Gateway records that
// back the whole simulation: explicit structs in arenas indexed by small
// integer handles, instead of keyed containers mutated in place.
// Free-form identifier strings (the node's decimal id, the gateway's
// letter sequence) are kept only for reporting.
package model

import (
	"github.com/lorasim/lorasim/internal/region"
	"github.com/lorasim/lorasim/internal/simclock"
)

// NodeID is the arena handle for a Node.
type NodeID int

// SNRSamples is the fixed-size rolling window of best-per-uplink SNR
// observations used for the ADR power step (10 samples).
const SNRSamples = 10

// Node is an end-device. Position and SF are fixed for the whole run once
// assigned; everything else, including the power-ladder index that ADR
// may change, mutates as uplinks are sent, received, acked or retried.
type Node struct {
	ID        NodeID
	Label     string // decimal identifier, for reporting only
	X, Y      float64
	Confirmed bool

	// PowerIndex indexes into the region's transmit-power ladder; ADR
	// may change it.
	PowerIndex int

	SF region.SF

	// ReachableAtRX2 lists the gateways that, per the SF-assignment-time
	// walk, are reachable at the RX2 SF even if not at the device's
	// uplink SF. Used by the downlink planner's RX2 broadening rule.
	ReachableAtRX2 []GatewayID

	// Sequencing and retry state for the in-flight uplink.
	FCntUp      uint32
	Retries     int
	LastChannel simclock.Channel

	// NextAllowed is the per-band next-allowed-uplink-start deadline.
	NextAllowed map[simclock.Band]simclock.Clock

	// SNR is the rolling window of the best received SNR observed per
	// uplink across all receiving gateways, most recent last.
	SNR []float64

	PendingADR bool

	// Counters. For confirmed nodes, Unique = Acked + Dropped; for
	// unconfirmed nodes, Unique = Delivered + Dropped.
	Unique    int
	Delivered int
	Acked     int
	Dropped   int

	// NoRX1 counts uplinks for which RX1 had no selected gateway, and
	// NoRX1RX2 those for which neither RX1 nor RX2 had one; used by the URCB
	// downlink-selection policy and by the stdout report.
	NoRX1    int
	NoRX1RX2 int
}

// NewNode returns a Node with its mutable state zeroed.
func NewNode(id NodeID, label string, x, y float64, confirmed bool) *Node {
	return &Node{
		ID:          id,
		Label:       label,
		X:           x,
		Y:           y,
		Confirmed:   confirmed,
		NextAllowed: make(map[simclock.Band]simclock.Clock),
	}
}

// PushSNR appends an SNR observation, keeping only the most recent
// SNRSamples values.
func (n *Node) PushSNR(snr float64) {
	n.SNR = append(n.SNR, snr)
	if len(n.SNR) > SNRSamples {
		n.SNR = n.SNR[len(n.SNR)-SNRSamples:]
	}
}

// MaxSNR returns the largest value in the SNR window.
func (n *Node) MaxSNR() float64 {
	m := n.SNR[0]
	for _, s := range n.SNR[1:] {
		if s > m {
			m = s
		}
	}
	return m
}
