// Package collision implements the per-gateway capture engine and the
// destination-node reception check: an overlap-window scan over
// concurrent transmissions on a channel, combined with an asymmetric
// non-orthogonal-SF interference matrix.
package collision

import (
	"github.com/lorasim/lorasim/internal/model"
	"github.com/lorasim/lorasim/internal/region"
	"github.com/lorasim/lorasim/internal/simclock"
)

// Kind distinguishes an uplink transmission from a downlink one, for
// interference-source bookkeeping at the destination-node check.
type Kind int

// Transmission kinds.
const (
	UplinkKind Kind = iota
	DownlinkKind
)

// Transmission is everything the collision engine needs to know about a
// transmission to compute received power and apply the capture
// thresholds against it: its timing, channel, SF, and the position and
// transmit power of its source. It is registered at scheduling time
// (when the event is created), not at dispatch time, so that a
// transmission's own collision check, which runs once at its own
// dispatch, can see every other transmission whose timing is already
// known to overlap it, whether that other one started earlier and is
// still in flight, or is already scheduled to start later.
type Transmission struct {
	ID      uint64
	Start   simclock.Clock
	End     simclock.Clock
	Channel simclock.Channel
	SF      region.SF
	BW      region.Bandwidth
	X, Y    float64
	TXPower float64
	Kind    Kind
}

func (t Transmission) interval() model.Interval {
	return model.Interval{Start: t.Start, End: t.End}
}

// Registry tracks every transmission currently relevant to collision
// checks, grouped by channel.
type Registry struct {
	byChannel map[simclock.Channel][]Transmission
	nextID    uint64
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byChannel: make(map[simclock.Channel][]Transmission)}
}

// Add registers tx and returns the ID it was stamped with.
func (r *Registry) Add(tx Transmission) Transmission {
	tx.ID = r.nextID
	r.nextID++
	r.byChannel[tx.Channel] = append(r.byChannel[tx.Channel], tx)
	return tx
}

// Overlapping returns every registered transmission on ch, other than
// excludeID, whose interval overlaps iv.
func (r *Registry) Overlapping(ch simclock.Channel, iv model.Interval, excludeID uint64) []Transmission {
	var out []Transmission
	for _, tx := range r.byChannel[ch] {
		if tx.ID == excludeID {
			continue
		}
		if tx.interval().Overlaps(iv) {
			out = append(out, tx)
		}
	}
	return out
}

// Prune drops transmissions on ch that ended before horizon, bounding
// registry growth over a long run. Callers invoke this periodically
// (e.g. once per dispatched event) with horizon set a little behind the
// current clock, since overlap windows only ever span a few airtimes.
func (r *Registry) Prune(ch simclock.Channel, horizon simclock.Clock) {
	list := r.byChannel[ch]
	kept := list[:0]
	for _, tx := range list {
		if tx.End >= horizon {
			kept = append(kept, tx)
		}
	}
	r.byChannel[ch] = kept
}
