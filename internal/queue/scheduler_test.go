package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lorasim/lorasim/internal/model"
	"github.com/lorasim/lorasim/internal/simclock"
)

func TestSchedulerPopsEarliestAcrossChannels(t *testing.T) {
	s := NewScheduler(2)
	s.Push(NewUplinkEvent(0, 1, 30, 40, 0, 7, false))
	s.Push(NewUplinkEvent(1, 1, 10, 20, 1, 7, false))

	ev, ok := s.Pop()
	assert.True(t, ok)
	assert.Equal(t, model.NodeID(1), ev.(*UplinkEvent).Node)
	assert.Equal(t, simclock.Clock(10), ev.Start())
}

func TestSchedulerTiesBreakByChannelThenInsertion(t *testing.T) {
	s := NewScheduler(3)
	s.Push(NewUplinkEvent(2, 1, 10, 20, 2, 7, false))
	s.Push(NewUplinkEvent(0, 1, 10, 20, 0, 7, false))
	s.Push(NewUplinkEvent(1, 1, 10, 20, 1, 7, false))

	ev, _ := s.Pop()
	assert.Equal(t, model.NodeID(0), ev.(*UplinkEvent).Node, "equal start times break ties by channel id")
}

func TestSchedulerSameChannelTiesBreakByInsertionOrder(t *testing.T) {
	s := NewScheduler(1)
	s.Push(NewUplinkEvent(5, 1, 10, 20, 0, 7, false))
	s.Push(NewUplinkEvent(6, 1, 10, 20, 0, 7, false))

	ev, _ := s.Pop()
	assert.Equal(t, model.NodeID(5), ev.(*UplinkEvent).Node, "equal start+channel must preserve insertion order")
}

func TestSchedulerEmptyReportsNotOK(t *testing.T) {
	s := NewScheduler(1)
	_, ok := s.Pop()
	assert.False(t, ok)
}

func TestSchedulerDrainsInOrder(t *testing.T) {
	s := NewScheduler(2)
	starts := []int64{50, 10, 30, 20, 40}
	for i, st := range starts {
		ch := simclock.Channel(i % 2)
		s.Push(NewUplinkEvent(model.NodeID(i), 1, simclock.Clock(st), simclock.Clock(st+5), ch, 7, false))
	}
	var out []int64
	for {
		ev, ok := s.Pop()
		if !ok {
			break
		}
		out = append(out, int64(ev.Start()))
	}
	assert.Equal(t, []int64{10, 20, 30, 40, 50}, out)
}
