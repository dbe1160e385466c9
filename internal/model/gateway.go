package model

import (
	"github.com/lorasim/lorasim/internal/region"
	"github.com/lorasim/lorasim/internal/simclock"
)

// GatewayID is the arena handle for a Gateway.
type GatewayID int

// Interval is a closed time range [Start, End]: both ends are inclusive.
type Interval struct {
	Start, End simclock.Clock
}

// Overlaps reports whether i and o share any instant.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start <= o.End && o.Start <= i.End
}

// Contains reports whether t falls within [Start, End].
func (i Interval) Contains(t simclock.Clock) bool {
	return i.Start <= t && t <= i.End
}

// UplinkLock is the single transmission a gateway is currently
// demodulating on one channel; at most one lock is active per gateway
// and channel.
type UplinkLock struct {
	Interval
	SF     region.SF
	Active bool
}

// DownlinkDescriptor ties a scheduled downlink event back to the
// originating node and carries everything the destination-side collision
// check and ADR application need.
type DownlinkDescriptor struct {
	Node        NodeID
	Arrival     simclock.Clock
	SF          region.SF
	Channel     simclock.Channel
	Window      int // 1 or 2
	NewPower    int
	HasNewPower bool
	Confirmed   bool

	// RX1Bandwidth is the bandwidth the RX1 window would have used, set
	// regardless of which window was actually selected: when Window is
	// 2, the destination node still opened RX1 first and heard nothing
	// there, so the energy accountant needs this to cost that listening.
	RX1Bandwidth region.Bandwidth
}

// Gateway is a fixed receive point. Downlink-busy intervals and uplink
// locks are mutated by both the uplink and downlink dispatch paths;
// because the engine is single-threaded this needs no locking.
type Gateway struct {
	ID    GatewayID
	Label string // letter-sequence identifier (A, B, ..., AA, ...)
	X, Y  float64

	DownlinkBusy []Interval

	// UplinkLock is keyed by channel; at most one active lock per
	// channel.
	UplinkLock map[simclock.Channel]UplinkLock

	// NextDownlink is the per-band next-allowed-downlink time.
	NextDownlink map[simclock.Band]simclock.Clock

	// DutyAirtime is the per-band cumulative downlink airtime, used for
	// the duty-cycle-utilisation report.
	DutyAirtime map[simclock.Band]simclock.Clock

	// Pending holds downlink descriptors keyed by their scheduled start
	// time, consumed when the corresponding downlink event fires.
	Pending map[simclock.Clock]*DownlinkDescriptor

	AcksSent int
}

// NewGateway returns a Gateway with its mutable state initialised empty.
func NewGateway(id GatewayID, label string, x, y float64) *Gateway {
	return &Gateway{
		ID:           id,
		Label:        label,
		X:            x,
		Y:            y,
		UplinkLock:   make(map[simclock.Channel]UplinkLock),
		NextDownlink: make(map[simclock.Band]simclock.Clock),
		DutyAirtime:  make(map[simclock.Band]simclock.Clock),
		Pending:      make(map[simclock.Clock]*DownlinkDescriptor),
	}
}

// PurgeDownlinkBusy drops busy intervals that ended before now. The purge
// is lazy: callers invoke this just before appending a new interval
// rather than on every tick.
func (g *Gateway) PurgeDownlinkBusy(now simclock.Clock) {
	kept := g.DownlinkBusy[:0]
	for _, iv := range g.DownlinkBusy {
		if iv.End >= now {
			kept = append(kept, iv)
		}
	}
	g.DownlinkBusy = kept
}

// DownlinkBusyOverlapping reports whether any downlink-busy interval
// overlaps iv.
func (g *Gateway) DownlinkBusyOverlapping(iv Interval) bool {
	for _, b := range g.DownlinkBusy {
		if b.Overlaps(iv) {
			return true
		}
	}
	return false
}

// UplinkLockOverlapping reports whether the gateway's uplink lock on ch
// overlaps iv. If sameSFOnly is true, the lock only blocks when its SF
// equals sf (used by the collision engine's suppression check); otherwise
// any active lock blocks (used by the downlink-feasibility check, which
// cares about channel occupancy regardless of SF).
func (g *Gateway) UplinkLockOverlapping(ch simclock.Channel, iv Interval, sameSFOnly bool, sf region.SF) bool {
	l, ok := g.UplinkLock[ch]
	if !ok || !l.Active {
		return false
	}
	if !l.Overlaps(iv) {
		return false
	}
	if sameSFOnly {
		return l.SF == sf
	}
	return true
}
