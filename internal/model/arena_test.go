package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGatewayLabelSequence(t *testing.T) {
	cases := map[int]string{
		0:  "A",
		25: "Z",
		26: "AA",
		27: "AB",
		51: "AZ",
		52: "BA",
	}
	for idx, want := range cases {
		assert.Equal(t, want, GatewayLabel(idx))
	}
}

func TestWorldAssignsSequentialHandles(t *testing.T) {
	w := NewWorld()
	idA := w.AddNode(NewNode(0, "1", 0, 0, true))
	idB := w.AddNode(NewNode(0, "2", 0, 0, true))
	assert.Equal(t, NodeID(0), idA)
	assert.Equal(t, NodeID(1), idB)
	assert.Same(t, w.Node(idA), w.Nodes[0])
}
