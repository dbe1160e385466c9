package downlink

import (
	"math/rand"

	"github.com/lorasim/lorasim/internal/config"
	"github.com/lorasim/lorasim/internal/gwstate"
	"github.com/lorasim/lorasim/internal/model"
	"github.com/lorasim/lorasim/internal/physics"
	"github.com/lorasim/lorasim/internal/queue"
	"github.com/lorasim/lorasim/internal/region"
	"github.com/lorasim/lorasim/internal/simclock"
)

// Decision is the outcome of a successful Plan call: the selected
// window, gateway, channel/SF and, if the ADR step changed the node's
// power index, the command it carries.
type Decision struct {
	Gateway model.GatewayID
	Window  int // 1 or 2
	Channel simclock.Channel
	SF      region.SF
	Start   simclock.Clock
	End     simclock.Clock
	ADR     ADRStep
}

// Plan runs the full downlink decision for one uplink: RX1 feasibility, RX2
// fallback with the reachable-set broadening rule, gateway selection,
// and (on success) registration of the chosen downlink against the
// gateway's busy/duty-cycle state and the scheduler's event queues. It
// returns ok=false if no gateway was feasible or the policy abstained,
// in which case node.NoRX1 and/or node.NoRX1RX2 have been incremented.
func Plan(world *model.World, t *region.Table, cfg *config.Config, node *model.Node, uplinkCh simclock.Channel, selEnd simclock.Clock, received []Received, sched *queue.Scheduler, nextDownlinkID *uint64, rng *rand.Rand) (*Decision, bool) {
	adr := ADRStep{NewIndex: node.PowerIndex}
	if cfg.ADROn && !node.PendingADR {
		adr = ComputeADRStep(node, t)
	}
	adrBytes := 0
	if adr.Changed {
		adrBytes = ADRCommandBytes
	}

	pool1 := make([]Candidate, len(received))
	for i, r := range received {
		pool1[i] = Candidate{Gateway: r.Gateway, Prx: r.Prx}
	}

	w1 := rx1Window(t, uplinkCh, node.SF, selEnd, adrBytes)
	if feas1 := feasibleCandidates(world, pool1, w1); len(feas1) > 0 {
		if gwID, ok := Select(cfg.Policy, node, world, feas1, len(received), cfg, rng); ok {
			return commit(world, t, node, gwID, 1, w1, w1.bw, adr, sched, nextDownlinkID), true
		}
	}
	node.NoRX1++

	pool2 := pool1
	if node.SF < t.RX2.SF {
		pool2 = make([]Candidate, len(node.ReachableAtRX2))
		for i, gwID := range node.ReachableAtRX2 {
			pool2[i] = Candidate{Gateway: gwID, Prx: estimateMeanPrx(t, node, world.Gateway(gwID))}
		}
	}
	w2 := rx2Window(t, selEnd, adrBytes)
	feas2 := feasibleCandidates(world, pool2, w2)
	if len(feas2) > 0 {
		if gwID, ok := Select(cfg.Policy, node, world, feas2, len(pool2), cfg, rng); ok {
			return commit(world, t, node, gwID, 2, w2, w1.bw, adr, sched, nextDownlinkID), true
		}
	}
	node.NoRX1RX2++
	return nil, false
}

// commit registers the chosen downlink against the gateway's state and
// the scheduler, and returns the Decision describing it. rx1BW is
// always the RX1 window's bandwidth, even when win is 2, so the energy
// accountant can cost the RX1 preamble listening a device does before
// falling through to RX2.
func commit(world *model.World, t *region.Table, node *model.Node, gwID model.GatewayID, win int, w window, rx1BW region.Bandwidth, adr ADRStep, sched *queue.Scheduler, nextDownlinkID *uint64) *Decision {
	gw := world.Gateway(gwID)
	multiplier := t.DutyCycleMultiplier[w.band]
	airtime := w.iv.End - w.iv.Start
	gwstate.RegisterDownlink(gw, w.iv, w.band, multiplier, airtime, w.iv.Start)

	id := *nextDownlinkID
	*nextDownlinkID++
	ev := queue.NewDownlinkEvent(gwID, id, w.iv.Start, w.iv.End, w.ch, w.sf)
	sched.Push(ev)

	desc := &model.DownlinkDescriptor{
		Node:         node.ID,
		Arrival:      w.iv.Start,
		SF:           w.sf,
		Channel:      w.ch,
		Window:       win,
		Confirmed:    node.Confirmed,
		RX1Bandwidth: rx1BW,
	}
	if adr.Changed {
		desc.NewPower = adr.NewIndex
		desc.HasNewPower = true
		node.PendingADR = true
	}
	gw.Pending[w.iv.Start] = desc

	return &Decision{
		Gateway: gwID,
		Window:  win,
		Channel: w.ch,
		SF:      w.sf,
		Start:   w.iv.Start,
		End:     w.iv.End,
		ADR:     adr,
	}
}

// estimateMeanPrx estimates the received power a gateway would see from
// node at node's current uplink power, with shadowing zeroed (rng=nil):
// used only to rank RX2-broadened candidates that never actually
// demodulated the uplink, since no measured prx exists for them.
func estimateMeanPrx(t *region.Table, node *model.Node, gw *model.Gateway) float64 {
	d := physics.Distance(node.X, node.Y, gw.X, gw.Y)
	txPower := physics.DBm(t.TXPower(node.PowerIndex))
	return float64(physics.ReceivedPower(txPower, d, nil))
}
