// Package gwstate implements the half-duplex gateway state machine:
// uplink-lock bookkeeping per channel, downlink-busy interval tracking,
// and per-band duty-cycle deadlines.
package gwstate

import (
	"github.com/lorasim/lorasim/internal/model"
	"github.com/lorasim/lorasim/internal/region"
	"github.com/lorasim/lorasim/internal/simclock"
)

// UplinkBlocked reports whether gw cannot start demodulating a new
// uplink on ch over iv: either a downlink-busy interval overlaps iv, or
// an active uplink lock on ch with the same SF overlaps iv. This
// suppression gate is evaluated before the collision scan runs.
func UplinkBlocked(gw *model.Gateway, ch simclock.Channel, iv model.Interval, sf region.SF) bool {
	if gw.DownlinkBusyOverlapping(iv) {
		return true
	}
	return gw.UplinkLockOverlapping(ch, iv, true, sf)
}

// InstallUplinkLock commits gw to demodulating one uplink on ch. The lock
// start is shortened by floor (the preamble_floor) to model early
// preamble detection. A new lock overwrites only if the channel's
// previous lock has already ended.
func InstallUplinkLock(gw *model.Gateway, ch simclock.Channel, start, end simclock.Clock, sf region.SF, floor simclock.Clock) {
	if prior, ok := gw.UplinkLock[ch]; ok && prior.Active && prior.End > start {
		return
	}
	gw.UplinkLock[ch] = model.UplinkLock{
		Interval: model.Interval{Start: start + floor, End: end},
		SF:       sf,
		Active:   true,
	}
}

// ChannelOccupiedForDownlink reports whether gw is currently locked onto
// ch for an uplink overlapping iv, regardless of SF: used by the
// downlink-feasibility triad's "not currently uplink-locked on the RX
// channel" check, which cares about channel occupancy rather than
// same-SF interference.
func ChannelOccupiedForDownlink(gw *model.Gateway, ch simclock.Channel, iv model.Interval) bool {
	return gw.UplinkLockOverlapping(ch, iv, false, 0)
}

// DutyCycleReady reports whether gw's per-band duty-cycle deadline has
// passed by t (EU868 only; callers skip this check for US915, which has
// no per-band duty cycle to track).
func DutyCycleReady(gw *model.Gateway, band simclock.Band, t simclock.Clock) bool {
	deadline, ok := gw.NextDownlink[band]
	if !ok {
		return true
	}
	return deadline <= t
}

// RegisterDownlink commits gw to transmitting a downlink over iv on
// band, advancing the per-band duty-cycle deadline by multiplier times
// the downlink's airtime (99 on the uplink/RX1 band, 9 on the 10% RX2
// band) and accumulating the per-band cumulative airtime used for the
// duty-cycle-utilisation report. Stale downlink-busy intervals are
// purged first, via the gateway's lazy-purge rule.
func RegisterDownlink(gw *model.Gateway, iv model.Interval, band simclock.Band, multiplier int, airtime simclock.Clock, now simclock.Clock) {
	gw.PurgeDownlinkBusy(now)
	gw.DownlinkBusy = append(gw.DownlinkBusy, iv)
	if multiplier > 0 {
		gw.NextDownlink[band] = iv.End + simclock.Clock(int64(multiplier)*int64(airtime))
	}
	gw.DutyAirtime[band] += airtime
}
