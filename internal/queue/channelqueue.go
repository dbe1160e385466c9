package queue

import "container/heap"

// ChannelQueue is a time-sorted list of pending events on one channel,
// implemented as a container/heap min-heap keyed on (Start, insertion
// order).
type ChannelQueue struct {
	items   eventHeap
	nextSeq uint64
}

// NewChannelQueue returns an empty ChannelQueue.
func NewChannelQueue() *ChannelQueue {
	q := &ChannelQueue{}
	heap.Init(&q.items)
	return q
}

// Push adds ev to the queue, stamping it with the next insertion
// sequence number so that equal-Start events preserve insertion order.
func (q *ChannelQueue) Push(ev Event) {
	switch e := ev.(type) {
	case *UplinkEvent:
		e.insertSeq = q.nextSeq
	case *DownlinkEvent:
		e.insertSeq = q.nextSeq
	}
	q.nextSeq++
	heap.Push(&q.items, ev)
}

// Peek returns the earliest event without removing it.
func (q *ChannelQueue) Peek() (Event, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	return q.items[0], true
}

// Pop removes and returns the earliest event.
func (q *ChannelQueue) Pop() (Event, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	return heap.Pop(&q.items).(Event), true
}

// Len returns the number of pending events.
func (q *ChannelQueue) Len() int {
	return len(q.items)
}

// eventHeap implements heap.Interface over Event values, ordered by
// Start ascending, ties broken by insertion order.
type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Start() != h[j].Start() {
		return h[i].Start() < h[j].Start()
	}
	return h[i].seq() < h[j].seq()
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() any {
	o := *h
	n := len(o)
	e := o[n-1]
	*h = o[:n-1]
	return e
}
