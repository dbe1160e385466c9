package engine

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/lorasim/lorasim/internal/config"
	"github.com/lorasim/lorasim/internal/model"
	"github.com/lorasim/lorasim/internal/region"
	"github.com/lorasim/lorasim/internal/retransmit"
	"github.com/lorasim/lorasim/internal/sfassign"
	"github.com/lorasim/lorasim/internal/simclock"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

// buildWorld sets up a single node at (0,0) and a single gateway at
// (100,100).
func buildWorld(t *testing.T, tb *region.Table) *model.World {
	t.Helper()
	w := model.NewWorld()
	gw := model.NewGateway(0, "A", 100, 100)
	w.AddGateway(gw)
	node := model.NewNode(0, "1", 0, 0, true)
	w.AddNode(node)

	res, err := sfassign.Assign(node, w.Gateways, tb)
	assert.NoError(t, err)
	node.SF = res.SF
	node.ReachableAtRX2 = res.AtRX2
	return w
}

func TestSingleNodeSingleGatewayConfirmedAlwaysAcks(t *testing.T) {
	tb := region.NewEU868()
	w := buildWorld(t, tb)

	cfg := config.Default()
	cfg.Policy = config.RSSI
	cfg.MaxRetr = 1
	cfg.ConfirmedPerc = 1
	cfg.FullCollision = true

	period := retransmit.Period(simclock.FromSeconds(1)) // 3600 packets/hour
	sim := New(w, tb, cfg, quietLogger(), period, false, 1)
	sim.Run(simclock.FromSeconds(3600))

	summary := sim.Summary(simclock.FromSeconds(3600))
	node := w.Nodes[0]

	inFlight := node.Unique - node.Acked - node.Dropped
	assert.Contains(t, []int{0, 1}, inFlight, "every unique is acked, dropped, or the single still-in-retries packet at the horizon")
	assert.InDelta(t, 1.0, summary.PacketDeliveryRatio, 0.05, "an uncongested single-node/single-gateway run should ack nearly every uplink")
	assert.Equal(t, 0, node.NoRX1, "a single clean gateway should never fail RX1 feasibility")
	gw := w.Gateways[0]
	assert.Greater(t, gw.AcksSent, 0)
}

func TestTwoCollidingSameSFNodesRarelyAck(t *testing.T) {
	tb := region.NewEU868()
	// Restrict to a single uplink channel so both nodes are forced onto
	// it deterministically rather than leaving channel choice to chance.
	tb.Uplink = tb.Uplink[:1]
	tb.DownlinkOf = tb.DownlinkOf[:1]

	w := model.NewWorld()
	gw := model.NewGateway(0, "A", 10, 10)
	w.AddGateway(gw)

	for i := 0; i < 2; i++ {
		node := model.NewNode(0, "n", 10, 10, true)
		res, err := sfassign.Assign(node, w.Gateways, tb)
		assert.NoError(t, err)
		node.SF = res.SF
		node.ReachableAtRX2 = res.AtRX2
		w.AddNode(node)
	}

	cfg := config.Default()
	cfg.FullCollision = true
	cfg.MaxRetr = 8

	period := retransmit.Period(simclock.FromSeconds(1))
	sim := New(w, tb, cfg, quietLogger(), period, false, 7)
	sim.Run(simclock.FromSeconds(600))
	summary := sim.Summary(simclock.FromSeconds(600))

	for _, n := range w.Nodes {
		inFlight := n.Unique - n.Acked - n.Dropped
		assert.Contains(t, []int{0, 1}, inFlight, "every unique is acked, dropped, or the single still-in-retries packet at the horizon")
	}
	// Identical distance/SF/channel means every overlapping pair
	// collides co-SF; the 1dB capture threshold lets the stronger side
	// through often enough that acks aren't literally zero, but the
	// PDR must stay far below an uncongested single-node run's ~1.0.
	assert.Less(t, summary.PacketDeliveryRatio, 0.6)
	totalDropped := 0
	for _, n := range w.Nodes {
		totalDropped += n.Dropped
	}
	assert.Greater(t, totalDropped, 0)
}

func TestConfirmedNodeOutOfRangeDropsEveryUnique(t *testing.T) {
	tb := region.NewEU868()
	w := model.NewWorld()
	// Far beyond SF12 reach: every uplink lands below sensitivity at
	// the only gateway, so no attempt is ever received or acked.
	w.AddGateway(model.NewGateway(0, "A", 7e5, 7e5))
	node := model.NewNode(0, "1", 0, 0, true)
	node.SF = 12
	w.AddNode(node)

	cfg := config.Default()
	cfg.MaxRetr = 1

	sim := New(w, tb, cfg, quietLogger(), retransmit.Period(simclock.FromSeconds(30)), false, 2)
	sim.Run(simclock.FromSeconds(3600))

	node = w.Nodes[0]
	assert.Greater(t, node.Unique, 0)
	assert.Equal(t, 0, node.Acked)
	assert.Greater(t, node.Dropped, 0, "exhausted retries must count drops even when no gateway ever receives")
	inFlight := node.Unique - node.Acked - node.Dropped
	assert.Contains(t, []int{0, 1}, inFlight, "every unique is acked, dropped, or the single still-in-retries packet")
}

func TestHorizonBoundaryExcludesEventAtExactHorizon(t *testing.T) {
	tb := region.NewEU868()
	w := buildWorld(t, tb)

	cfg := config.Default()
	period := retransmit.Period(simclock.FromSeconds(3600 * 2)) // one attempt per two hours
	sim := New(w, tb, cfg, quietLogger(), period, false, 1)

	// Horizon set to the start of the only pending event: an event that
	// starts exactly at the horizon is neither dispatched nor counted.
	first, ok := sim.sched.Next()
	assert.True(t, ok)
	horizon := first.Start()
	sim.Run(horizon)
	summary := sim.Summary(horizon)
	assert.Zero(t, summary.TotalTransmissions)
}
