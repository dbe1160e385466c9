package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushSNRKeepsMostRecentWindow(t *testing.T) {
	n := NewNode(0, "1", 0, 0, true)
	for i := 0; i < SNRSamples+3; i++ {
		n.PushSNR(float64(i))
	}
	assert.Len(t, n.SNR, SNRSamples)
	assert.Equal(t, float64(3), n.SNR[0], "the oldest 3 samples must have been dropped")
}

func TestMaxSNR(t *testing.T) {
	n := NewNode(0, "1", 0, 0, true)
	n.PushSNR(1)
	n.PushSNR(9)
	n.PushSNR(4)
	assert.Equal(t, 9.0, n.MaxSNR())
}
