package collision

import (
	"math/rand"

	"github.com/lorasim/lorasim/internal/gwstate"
	"github.com/lorasim/lorasim/internal/model"
	"github.com/lorasim/lorasim/internal/physics"
)

// ReceiveUplinkAtGateway runs the full reception decision for one
// gateway: the downlink-busy/same-SF-uplink-lock gate, then the capture
// test against every overlapping registered transmission on the channel.
// When sel survives, the gateway's uplink lock is installed.
func ReceiveUplinkAtGateway(gw *model.Gateway, sel Transmission, registry *Registry, fullCollision bool, rng *rand.Rand) Result {
	iv := sel.interval()
	if gwstate.UplinkBlocked(gw, sel.Channel, iv, sel.SF) {
		return Result{Ok: false}
	}
	candidates := registry.Overlapping(sel.Channel, iv, sel.ID)
	res := Evaluate(sel, gw.X, gw.Y, candidates, fullCollision, rng)
	if res.Ok {
		floor := physics.PreambleFloor(sel.SF, sel.BW)
		gwstate.InstallUplinkLock(gw, sel.Channel, sel.Start, sel.End, sel.SF, floor)
	}
	return res
}

// ReceiveDownlinkAtNode runs the destination-side reception check: the
// same capture test, with no gateway-specific gating, against
// interferers that may be other devices (uplinks) or other gateways
// (downlinks) sharing the channel.
func ReceiveDownlinkAtNode(nodeX, nodeY float64, sel Transmission, registry *Registry, fullCollision bool, rng *rand.Rand) Result {
	iv := sel.interval()
	candidates := registry.Overlapping(sel.Channel, iv, sel.ID)
	return Evaluate(sel, nodeX, nodeY, candidates, fullCollision, rng)
}
