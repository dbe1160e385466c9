package queue

import (
	"container/heap"

	"github.com/lorasim/lorasim/internal/simclock"
)

// Scheduler owns one ChannelQueue per channel and always reports the
// event with the globally smallest Start, ties broken by channel
// identifier. It is a "heap of heap-tops": finding the global minimum
// costs a scan over channel heads, not a linear scan over all pending
// events.
type Scheduler struct {
	byChannel map[simclock.Channel]*ChannelQueue
	heads     headHeap
}

// NewScheduler returns a Scheduler with queues for the given channels.
func NewScheduler(channels int) *Scheduler {
	s := &Scheduler{byChannel: make(map[simclock.Channel]*ChannelQueue, channels)}
	for c := 0; c < channels; c++ {
		s.byChannel[simclock.Channel(c)] = NewChannelQueue()
	}
	return s
}

// Push adds ev to its channel's queue.
func (s *Scheduler) Push(ev Event) {
	q, ok := s.byChannel[ev.Channel()]
	if !ok {
		q = NewChannelQueue()
		s.byChannel[ev.Channel()] = q
	}
	q.Push(ev)
}

// Next returns the globally-earliest pending event across all channels
// without removing it, and reports whether any event is pending.
func (s *Scheduler) Next() (Event, bool) {
	s.rebuildHeads()
	if len(s.heads) == 0 {
		return nil, false
	}
	return s.heads[0].ev, true
}

// Pop removes and returns the globally-earliest pending event.
func (s *Scheduler) Pop() (Event, bool) {
	s.rebuildHeads()
	if len(s.heads) == 0 {
		return nil, false
	}
	h := heap.Pop(&s.heads).(head)
	ev, _ := s.byChannel[h.ch].Pop()
	return ev, true
}

// rebuildHeads collects the current head of every non-empty channel
// queue into the head-heap. Channel counts are small (single digits to
// low dozens), so rebuilding per Next/Pop call is simple and fast enough
// while still being logarithmic, not linear, in total pending events.
func (s *Scheduler) rebuildHeads() {
	s.heads = s.heads[:0]
	for ch, q := range s.byChannel {
		if ev, ok := q.Peek(); ok {
			s.heads = append(s.heads, head{ch, ev})
		}
	}
	heap.Init(&s.heads)
}

type head struct {
	ch simclock.Channel
	ev Event
}

type headHeap []head

func (h headHeap) Len() int { return len(h) }

func (h headHeap) Less(i, j int) bool {
	if h[i].ev.Start() != h[j].ev.Start() {
		return h[i].ev.Start() < h[j].ev.Start()
	}
	return h[i].ch < h[j].ch
}

func (h headHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *headHeap) Push(x any) { *h = append(*h, x.(head)) }

func (h *headHeap) Pop() any {
	o := *h
	n := len(o)
	e := o[n-1]
	*h = o[:n-1]
	return e
}
