// Package queue implements the per-channel time-ordered event queues and
// the top-level scheduler that always dispatches the globally-earliest
// pending event across all channels (a "heap of heap-tops").
//
// An Event is a tagged union: either an UplinkEvent or a DownlinkEvent,
// rather than a single struct distinguishing the two by a naming
// convention.
package queue

import (
	"github.com/lorasim/lorasim/internal/model"
	"github.com/lorasim/lorasim/internal/region"
	"github.com/lorasim/lorasim/internal/simclock"
)

// Event is a pending transmission on some channel.
type Event interface {
	Start() simclock.Clock
	End() simclock.Clock
	Channel() simclock.Channel
	SF() region.SF
	// seq is the monotone insertion sequence used to break exact ties
	// in insertion order.
	seq() uint64
}

// base carries the fields every Event shares.
type base struct {
	start, end simclock.Clock
	ch         simclock.Channel
	sf         region.SF
	insertSeq  uint64
}

func (b base) Start() simclock.Clock     { return b.start }
func (b base) End() simclock.Clock       { return b.end }
func (b base) Channel() simclock.Channel { return b.ch }
func (b base) SF() region.SF             { return b.sf }
func (b base) seq() uint64               { return b.insertSeq }

// UplinkEvent is a node's transmission attempt.
type UplinkEvent struct {
	base
	Node model.NodeID
	FCnt uint32
	// IsRetry marks this attempt as a retransmission of an in-flight
	// confirmed packet rather than a fresh unique uplink. The dispatch
	// loop uses it to decide whether to advance the node's unique-uplink
	// counter, so that an event sitting in the queue past the horizon
	// (never dispatched) never gets counted.
	IsRetry bool
}

// NewUplinkEvent returns an UplinkEvent; insertSeq is assigned by the
// ChannelQueue the event is pushed onto.
func NewUplinkEvent(node model.NodeID, fcnt uint32, start, end simclock.Clock, ch simclock.Channel, sf region.SF, isRetry bool) *UplinkEvent {
	return &UplinkEvent{base: base{start: start, end: end, ch: ch, sf: sf}, Node: node, FCnt: fcnt, IsRetry: isRetry}
}

// DownlinkEvent is a gateway's scheduled downlink transmission.
type DownlinkEvent struct {
	base
	Gateway    model.GatewayID
	DownlinkID uint64
}

// NewDownlinkEvent returns a DownlinkEvent.
func NewDownlinkEvent(gw model.GatewayID, downlinkID uint64, start, end simclock.Clock, ch simclock.Channel, sf region.SF) *DownlinkEvent {
	return &DownlinkEvent{base: base{start: start, end: end, ch: ch, sf: sf}, Gateway: gw, DownlinkID: downlinkID}
}
