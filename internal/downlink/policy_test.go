package downlink

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lorasim/lorasim/internal/config"
	"github.com/lorasim/lorasim/internal/model"
)

func buildWorld(n int) (*model.World, []Candidate) {
	w := model.NewWorld()
	var cands []Candidate
	for i := 0; i < n; i++ {
		gw := model.NewGateway(0, "A", float64(i), 0)
		id := w.AddGateway(gw)
		cands = append(cands, Candidate{Gateway: id, Prx: float64(-80 + i)})
	}
	return w, cands
}

func TestSelectRSSIPicksStrongest(t *testing.T) {
	w, cands := buildWorld(3)
	cfg := config.Default()
	cfg.Policy = config.RSSI

	gwID, ok := Select(cfg.Policy, model.NewNode(0, "1", 0, 0, true), w, cands, len(cands), cfg, rand.New(rand.NewSource(1)))
	assert.True(t, ok)
	assert.Equal(t, cands[len(cands)-1].Gateway, gwID, "the last candidate has the highest Prx in buildWorld")
}

func TestSelectFCFSReturnsAnyFeasibleGateway(t *testing.T) {
	w, cands := buildWorld(1)
	cfg := config.Default()
	cfg.Policy = config.FCFS

	gwID, ok := Select(cfg.Policy, model.NewNode(0, "1", 0, 0, true), w, cands, len(cands), cfg, rand.New(rand.NewSource(1)))
	assert.True(t, ok)
	assert.Equal(t, cands[0].Gateway, gwID)
}

func TestSelectNoFeasibleCandidatesFails(t *testing.T) {
	w, _ := buildWorld(0)
	cfg := config.Default()
	_, ok := Select(cfg.Policy, model.NewNode(0, "1", 0, 0, true), w, nil, 0, cfg, rand.New(rand.NewSource(1)))
	assert.False(t, ok)
}

func TestSelectURCBAbstainsWhenWellServedAndGatewaysFree(t *testing.T) {
	w, cands := buildWorld(3)
	cfg := config.Default()
	cfg.Policy = config.URCB
	cfg.GWFreeAbstainFraction = 0.5

	node := model.NewNode(0, "1", 0, 0, true)
	node.NoRX1 = 0 // below the network average of 0 is false (equal), so add a peer with higher NoRX1
	other := model.NewNode(0, "2", 0, 0, true)
	other.NoRX1 = 10
	w.AddNode(node)
	w.AddNode(other)

	_, ok := Select(cfg.Policy, node, w, cands, len(cands), cfg, rand.New(rand.NewSource(1)))
	assert.False(t, ok, "a node with a below-average no-gw-available count abstains when most gateways are free")
}

func TestSelectLeastBusyPicksEarliestDeadline(t *testing.T) {
	w, cands := buildWorld(2)
	w.Gateway(cands[0].Gateway).NextDownlink[0] = 500
	w.Gateway(cands[1].Gateway).NextDownlink[0] = 100

	cfg := config.Default()
	gwID, ok := Select(config.LB, model.NewNode(0, "1", 0, 0, true), w, cands, len(cands), cfg, rand.New(rand.NewSource(1)))
	assert.True(t, ok)
	assert.Equal(t, cands[1].Gateway, gwID)
}
