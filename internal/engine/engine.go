// Package engine implements the main dispatch loop: a single-threaded,
// deterministic event loop that always dispatches the globally-earliest
// pending transmission and drives every other subsystem from that one
// dispatch point. A goroutine-per-handler model was considered and
// rejected: it cannot uphold a deterministic tie-break between events
// with equal start times without extra synchronization this design
// avoids entirely.
package engine

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/lorasim/lorasim/internal/collision"
	"github.com/lorasim/lorasim/internal/config"
	"github.com/lorasim/lorasim/internal/downlink"
	"github.com/lorasim/lorasim/internal/energy"
	"github.com/lorasim/lorasim/internal/logging"
	"github.com/lorasim/lorasim/internal/model"
	"github.com/lorasim/lorasim/internal/physics"
	"github.com/lorasim/lorasim/internal/queue"
	"github.com/lorasim/lorasim/internal/region"
	"github.com/lorasim/lorasim/internal/retransmit"
	"github.com/lorasim/lorasim/internal/simclock"
	"github.com/lorasim/lorasim/internal/stats"
)

// Sim owns every mutable piece of one run: the world, the region plan,
// the configuration, the scheduler, the collision registry, and the one
// explicit *rand.Rand every draw is funnelled through, so a run is fully
// reproducible from its seed.
type Sim struct {
	World  *model.World
	Table  *region.Table
	Config *config.Config
	Log    *logrus.Logger

	Period   retransmit.Period
	AutoStop bool

	sched    *queue.Scheduler
	registry *collision.Registry
	rng      *rand.Rand

	uplinkTx   map[model.NodeID]collision.Transmission
	downlinkTx map[uint64]collision.Transmission
	nextDLID   uint64

	counters stats.Counters
	energyOf map[model.NodeID]*energy.Energy

	pdrWindow []bool // recent ack/delivery outcomes, for the auto-stop heuristic
}

// New builds a Sim ready to run, scheduling one initial uplink per node
// at a random offset within the first period.
func New(world *model.World, t *region.Table, cfg *config.Config, log *logrus.Logger, period retransmit.Period, autoStop bool, seed int64) *Sim {
	s := &Sim{
		World:      world,
		Table:      t,
		Config:     cfg,
		Log:        log,
		Period:     period,
		AutoStop:   autoStop,
		sched:      queue.NewScheduler(len(t.Uplink)),
		registry:   collision.NewRegistry(),
		rng:        rand.New(rand.NewSource(seed)),
		uplinkTx:   make(map[model.NodeID]collision.Transmission),
		downlinkTx: make(map[uint64]collision.Transmission),
		energyOf:   make(map[model.NodeID]*energy.Energy, len(world.Nodes)),
	}
	for _, n := range world.Nodes {
		s.energyOf[n.ID] = &energy.Energy{}
		start := simclock.FromSeconds(s.rng.Float64() * simclock.Clock(period).Seconds())
		s.scheduleUplink(n, start, false)
	}
	return s
}

// Run dispatches events until the scheduler empties or the next pending
// event's start reaches horizon. An event starting exactly at the
// horizon is not dispatched and not counted, and events still queued
// past the horizon never execute. It additionally stops early if
// AutoStop is enabled and the moving packet-delivery-ratio window has
// settled.
func (s *Sim) Run(horizon simclock.Clock) {
	for {
		ev, ok := s.sched.Pop()
		if !ok || ev.Start() >= horizon {
			return
		}
		switch e := ev.(type) {
		case *queue.UplinkEvent:
			s.dispatchUplink(e)
		case *queue.DownlinkEvent:
			s.dispatchDownlink(e)
		}
		if s.AutoStop && s.settled() {
			return
		}
	}
}

// Summary collects the final stats.Summary for the run.
func (s *Sim) Summary(simTime simclock.Clock) stats.Summary {
	totals := make(map[model.NodeID]energy.MilliJoules, len(s.energyOf))
	for id, e := range s.energyOf {
		totals[id] = e.Total
	}
	return stats.Collect(s.World, s.Table, simTime, s.counters, totals)
}

// scheduleUplink registers a fresh transmission attempt for node
// starting at start: it picks a channel (random, excluding the last one
// used, unless isRetry is false and this is the node's very first
// attempt), computes the airtime, registers the Transmission in the
// collision registry, and pushes the corresponding UplinkEvent.
//
// It deliberately does not touch node.Unique, node.FCntUp or the
// transmission counters: those only advance when the event actually
// dispatches (dispatchUplink), so an event still sitting in the queue
// past the simulation horizon never counts toward totals.
func (s *Sim) scheduleUplink(node *model.Node, start simclock.Clock, isRetry bool) {
	fcnt := node.FCntUp
	if !isRetry {
		fcnt++
	}
	ch := node.LastChannel
	if len(s.Table.Uplink) > 0 {
		if isRetry || node.FCntUp > 0 {
			ch = retransmit.ChooseChannel(s.Table, node.LastChannel, s.rng)
		} else {
			ch = simclock.Channel(s.rng.Intn(len(s.Table.Uplink)))
		}
	}
	node.LastChannel = ch
	bw := s.Table.Uplink[ch].Bandwidth
	payload := s.choosePayloadSize(node)
	end := start + physics.Airtime(payload, node.SF, bw)

	txPower := s.Table.TXPower(node.PowerIndex)
	tx := s.registry.Add(collision.Transmission{
		Start: start, End: end, Channel: ch, SF: node.SF, BW: bw,
		X: node.X, Y: node.Y, TXPower: txPower, Kind: collision.UplinkKind,
	})
	s.uplinkTx[node.ID] = tx

	s.sched.Push(queue.NewUplinkEvent(node.ID, fcnt, start, end, ch, node.SF, isRetry))
}

// choosePayloadSize resolves the configured packet-size policy.
func (s *Sim) choosePayloadSize(node *model.Node) int {
	if s.Config.FixedPacketSize {
		return s.Config.PacketSize
	}
	switch s.Config.PacketSizeDistr {
	case config.Normal:
		v := s.Config.PacketSize + int(s.rng.NormFloat64()*float64(s.Config.PacketSize)/4)
		if v < 1 {
			v = 1
		}
		return v
	default:
		return 1 + s.rng.Intn(s.Config.PacketSize)
	}
}

// dispatchUplink runs the collision engine against every gateway,
// accumulates energy and SNR, and either hands off to the downlink
// planner or schedules the node's next attempt directly.
func (s *Sim) dispatchUplink(ev *queue.UplinkEvent) {
	node := s.World.Node(ev.Node)
	if !ev.IsRetry {
		node.Unique++
	}
	node.FCntUp = ev.FCnt
	s.counters.AddTransmission(ev.IsRetry)

	tx := s.uplinkTx[node.ID]
	s.energyOf[node.ID].AddTX(node.PowerIndex, tx.End-tx.Start)

	var received []downlink.Received
	var bestSNR float64
	first := true
	for _, gw := range s.World.Gateways {
		res := collision.ReceiveUplinkAtGateway(gw, tx, s.registry, s.Config.FullCollision, s.rng)
		if !res.Ok {
			continue
		}
		received = append(received, downlink.Received{Gateway: gw.ID, Prx: res.Prx})
		snr := res.Prx - region.Sensitivity(node.SF, tx.BW)
		if first || snr > bestSNR {
			bestSNR, first = snr, false
		}
	}
	s.registry.Prune(tx.Channel, tx.Start)

	logging.WithTime(s.Log, ev.Start()).WithFields(logrus.Fields{
		"node": node.Label, "sf": node.SF, "ch": tx.Channel, "retry": ev.IsRetry, "gws": len(received),
	}).Debug("uplink")

	if len(received) > 0 {
		s.counters.AddReceived()
		node.PushSNR(bestSNR)
		if !node.Confirmed {
			node.Delivered++
			s.recordOutcome(true)
		}
	} else if !node.Confirmed {
		node.Dropped++
		s.recordOutcome(false)
	}

	band := s.Table.Band(tx.Channel)
	retransmit.RegisterUplink(node, band, tx.End, tx.End-tx.Start, s.Table.DutyCycleMultiplier[band])

	wantsDownlink := node.Confirmed || s.adrWants(node)
	if len(received) == 0 {
		// No gateway demodulated the uplink. The node still opens both
		// RX windows and hears only silence; a confirmed attempt then
		// concludes as failed, timed from the opening of RX2.
		s.chargeEmptyWindows(node, tx.Channel)
		s.scheduleFollowUp(node, tx.End+downlink.RX2Delay, band, node.Confirmed)
		return
	}
	if !wantsDownlink {
		s.chargeEmptyWindows(node, tx.Channel)
		s.scheduleFollowUp(node, tx.End, band, false)
		return
	}

	decision, ok := downlink.Plan(s.World, s.Table, s.Config, node, tx.Channel, tx.End, received, s.sched, &s.nextDLID, s.rng)
	if !ok {
		s.chargeEmptyWindows(node, tx.Channel)
		s.scheduleFollowUp(node, tx.End+downlink.RX2Delay, band, true)
		return
	}

	gw := s.World.Gateway(decision.Gateway)
	gw.AcksSent++
	s.counters.AddDownlinkAirtime(decision.End - decision.Start)
	dlTX := s.registry.Add(collision.Transmission{
		Start: decision.Start, End: decision.End, Channel: s.Table.CollisionKey(decision.Channel, true), SF: decision.SF,
		BW: s.Table.Downlink[decision.Channel].Bandwidth, X: gw.X, Y: gw.Y,
		TXPower: region.GatewayTXPower, Kind: collision.DownlinkKind,
	})
	s.downlinkTx[s.nextDLID-1] = dlTX

	logging.WithTime(s.Log, ev.Start()).WithFields(logrus.Fields{
		"node": node.Label, "gw": gw.Label, "window": decision.Window, "adr": decision.ADR.Changed,
	}).Debug("downlink planned")
}

// chargeEmptyWindows accounts for the two RX windows a node opens after
// an uplink for which no downlink will arrive: preamble-length listening
// in RX1, idle until RX2 opens, preamble-length listening in RX2.
func (s *Sim) chargeEmptyWindows(node *model.Node, uplinkCh simclock.Channel) {
	rx1BW := s.Table.Downlink[s.Table.DownlinkOf[uplinkCh]].Bandwidth
	rx1Preamble := physics.PreambleDuration(node.SF, rx1BW)
	bridge := downlink.RX2Delay - downlink.RX1Delay - rx1Preamble
	if bridge < 0 {
		bridge = 0
	}
	s.energyOf[node.ID].AddWindowPreambleOnly(rx1Preamble, bridge)
	s.energyOf[node.ID].AddWindowPreambleOnly(physics.PreambleDuration(s.Table.RX2.SF, s.Table.RX2.Bandwidth), 0)
}

// adrWants reports whether the node has a pending power-index change to
// deliver, the unconfirmed-traffic exception to the ack-policy gate: an
// unconfirmed node still wants a downlink when ADR wishes to send a
// power-change command.
func (s *Sim) adrWants(node *model.Node) bool {
	if !s.Config.ADROn || node.PendingADR {
		return false
	}
	return downlink.ComputeADRStep(node, s.Table).Changed
}

// scheduleFollowUp concludes one attempt with exactly one follow-up
// event. failed marks a confirmed attempt whose ack never arrived (no
// gateway received it, no gateway was feasible, or the downlink was
// lost): the retry policy decides between a short-delay retry and a
// drop-then-restart. Every other conclusion schedules the next unique
// uplink at the node's normal period. base is the time the attempt
// concluded: the opening of RX2 (uplink end plus RX2Delay) when no gateway
// received the uplink or no downlink could be planned, the uplink's end
// when no downlink was wanted, and the downlink's end when one arrived
// (moved on by the RX1-to-RX2 gap when an RX1 downlink was lost).
func (s *Sim) scheduleFollowUp(node *model.Node, base simclock.Clock, band simclock.Band, failed bool) {
	if failed && node.Confirmed {
		switch retransmit.Conclude(node, s.Config.MaxRetr) {
		case retransmit.OutcomeRetry:
			s.scheduleUplink(node, retransmit.NextRetry(base, band, node, s.rng), true)
		case retransmit.OutcomeDropAndRestart:
			s.recordOutcome(false)
			s.scheduleUplink(node, retransmit.NextAfterDrop(base, s.Period, s.Config.FixedPacketRate, band, node, s.rng), false)
		}
		return
	}
	s.scheduleUplink(node, retransmit.NextAfterAck(base, s.Period, s.Config.FixedPacketRate, band, node, s.rng), false)
}

// dispatchDownlink runs the destination-node reception check and
// concludes the originating node's in-flight attempt.
func (s *Sim) dispatchDownlink(ev *queue.DownlinkEvent) {
	gw := s.World.Gateway(ev.Gateway)
	desc, ok := gw.Pending[ev.Start()]
	if !ok {
		return
	}
	delete(gw.Pending, ev.Start())
	node := s.World.Node(desc.Node)
	if desc.HasNewPower {
		// The in-flight ADR command is resolved either way: applied on
		// reception, re-derived from fresh SNR samples on loss.
		node.PendingADR = false
	}
	tx := s.downlinkTx[ev.DownlinkID]
	delete(s.downlinkTx, ev.DownlinkID)

	res := collision.ReceiveDownlinkAtNode(node.X, node.Y, tx, s.registry, s.Config.FullCollision, s.rng)
	s.registry.Prune(tx.Channel, tx.Start)

	if desc.Window == 2 {
		// The node always opens RX1 first; reaching RX2 means it heard
		// only silence there, then idled until RX2 opened.
		rx1Start := desc.Arrival - (downlink.RX2Delay - downlink.RX1Delay)
		rx1Preamble := physics.PreambleDuration(node.SF, desc.RX1Bandwidth)
		bridgeIdle := desc.Arrival - (rx1Start + rx1Preamble)
		s.energyOf[node.ID].AddWindowPreambleOnly(rx1Preamble, bridgeIdle)
	}

	preamble := physics.PreambleDuration(desc.SF, tx.BW)
	if res.Ok {
		s.energyOf[node.ID].AddWindowReceived(tx.End - tx.Start)
	} else {
		s.energyOf[node.ID].AddWindowPreambleOnly(preamble, 0)
		if desc.Window == 1 {
			// The RX1 downlink was destroyed, so the node falls through
			// to RX2 and listens there too before giving up.
			rx2Start := desc.Arrival + (downlink.RX2Delay - downlink.RX1Delay)
			bridge := rx2Start - (desc.Arrival + preamble)
			if bridge < 0 {
				bridge = 0
			}
			s.energyOf[node.ID].AddWindowPreambleOnly(physics.PreambleDuration(s.Table.RX2.SF, s.Table.RX2.Bandwidth), bridge)
		}
	}

	// The follow-up uplink's duty cycle is gated on the node's uplink
	// band, not the band the downlink arrived on.
	band := s.Table.Band(node.LastChannel)

	logging.WithTime(s.Log, ev.Start()).WithFields(logrus.Fields{
		"node": node.Label, "gw": gw.Label, "window": desc.Window, "ok": res.Ok,
	}).Debug("downlink arrived")

	if !res.Ok {
		base := ev.End()
		if desc.Window == 1 {
			base += downlink.RX2Delay - downlink.RX1Delay
		}
		s.scheduleFollowUp(node, base, band, desc.Confirmed)
		return
	}

	node.Retries = 0
	if desc.HasNewPower {
		node.PowerIndex = desc.NewPower
	}
	if desc.Confirmed {
		node.Acked++
		s.recordOutcome(true)
	}
	s.scheduleFollowUp(node, ev.End(), band, false)
}

// settled implements the auto-stop heuristic: stop once the moving
// packet-delivery-ratio window's standard deviation over the last 100
// outcomes falls below 1e-4.
func (s *Sim) settled() bool {
	const window = 100
	if len(s.pdrWindow) < window {
		return false
	}
	s.pdrWindow = s.pdrWindow[len(s.pdrWindow)-window:]
	var sum float64
	for _, ok := range s.pdrWindow {
		if ok {
			sum++
		}
	}
	mean := sum / window
	var variance float64
	for _, ok := range s.pdrWindow {
		v := 0.0
		if ok {
			v = 1
		}
		d := v - mean
		variance += d * d
	}
	variance /= window
	return variance < 1e-8 // stddev < 1e-4
}

// recordOutcome appends one ack/delivery outcome to the auto-stop
// window.
func (s *Sim) recordOutcome(ok bool) {
	if !s.AutoStop {
		return
	}
	s.pdrWindow = append(s.pdrWindow, ok)
}
