package downlink

import (
	"github.com/lorasim/lorasim/internal/gwstate"
	"github.com/lorasim/lorasim/internal/model"
	"github.com/lorasim/lorasim/internal/physics"
	"github.com/lorasim/lorasim/internal/region"
	"github.com/lorasim/lorasim/internal/simclock"
)

// RX1Delay and RX2Delay are the fixed offsets from the uplink's end at
// which the two RX windows open.
const (
	RX1Delay = simclock.Clock(1e9) // 1s, in simclock.Clock's nanosecond unit
	RX2Delay = simclock.Clock(2e9) // 2s
)

// DownlinkOverheadBytes is overhead_d, the fixed MAC-header overhead of
// an ack/command downlink carrying no application payload.
const DownlinkOverheadBytes = 8

// Received is one entry of the collision engine's received-list: a
// gateway that demodulated the uplink, with its RSSI at that gateway.
type Received struct {
	Gateway model.GatewayID
	Prx     float64
}

// Candidate is a gateway under consideration for a downlink window, with
// the RSSI used for RSSI-ranking policies. For RX2 candidates broadened
// beyond the received-list, Prx is a mean (shadowing=0) estimate, since
// no uplink was actually demodulated there.
type Candidate struct {
	Gateway model.GatewayID
	Prx     float64
}

// window holds the resolved channel/SF/interval for one RX window
// attempt, plus whether the EU868 duty-cycle deadline check (iii)
// applies (it does not for US915).
type window struct {
	ch      simclock.Channel
	sf      region.SF
	bw      region.Bandwidth
	iv      model.Interval
	band    simclock.Band
	checkDC bool
}

// rx1Window resolves RX1's channel/SF/interval: the RX1 channel is
// t.DownlinkOf[uplinkCh] (the identity for EU868, channels_d[uplink_ch_index]
// for US915); the SF is the uplink's own SF.
func rx1Window(t *region.Table, uplinkCh simclock.Channel, uplinkSF region.SF, selEnd simclock.Clock, adrBytes int) window {
	dch := t.DownlinkOf[uplinkCh]
	bw := t.Downlink[dch].Bandwidth
	start := selEnd + RX1Delay
	end := start + physics.Airtime(DownlinkOverheadBytes+adrBytes, uplinkSF, bw)
	return window{
		ch:      dch,
		sf:      uplinkSF,
		bw:      bw,
		iv:      model.Interval{Start: start, End: end},
		band:    t.DownlinkBand(dch),
		checkDC: t.Plan == region.EU868,
	}
}

// rx2Window resolves RX2's fixed channel/SF/interval.
func rx2Window(t *region.Table, selEnd simclock.Clock, adrBytes int) window {
	start := selEnd + RX2Delay
	end := start + physics.Airtime(DownlinkOverheadBytes+adrBytes, t.RX2.SF, t.RX2.Bandwidth)
	return window{
		ch:      t.RX2Channel,
		sf:      t.RX2.SF,
		bw:      t.RX2.Bandwidth,
		iv:      model.Interval{Start: start, End: end},
		band:    t.DownlinkBand(t.RX2Channel),
		checkDC: t.Plan == region.EU868,
	}
}

// feasible applies the triad of constraints (i)-(iii) to one gateway
// for the resolved window.
func feasible(gw *model.Gateway, w window) bool {
	if gw.DownlinkBusyOverlapping(w.iv) {
		return false
	}
	if gwstate.ChannelOccupiedForDownlink(gw, w.ch, w.iv) {
		return false
	}
	if w.checkDC && !gwstate.DutyCycleReady(gw, w.band, w.iv.Start) {
		return false
	}
	return true
}

// feasibleCandidates filters in to the gateways from pool that satisfy
// w's feasibility triad.
func feasibleCandidates(world *model.World, pool []Candidate, w window) []Candidate {
	out := make([]Candidate, 0, len(pool))
	for _, c := range pool {
		if feasible(world.Gateway(c.Gateway), w) {
			out = append(out, c)
		}
	}
	return out
}
