package collision

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lorasim/lorasim/internal/model"
	"github.com/lorasim/lorasim/internal/region"
)

func TestReceiveUplinkAtGatewayBlockedByDownlinkBusy(t *testing.T) {
	gw := model.NewGateway(0, "A", 0, 0)
	gw.DownlinkBusy = append(gw.DownlinkBusy, model.Interval{Start: 0, End: 100})

	r := NewRegistry()
	tx := r.Add(Transmission{Start: 10, End: 20, Channel: 0, SF: 7, BW: region.BW125, TXPower: 14})

	res := ReceiveUplinkAtGateway(gw, tx, r, false, rand.New(rand.NewSource(1)))
	assert.False(t, res.Ok)
	_, locked := gw.UplinkLock[0]
	assert.False(t, locked, "a blocked reception must not install an uplink lock")
}

func TestReceiveUplinkAtGatewaySuccessInstallsLock(t *testing.T) {
	gw := model.NewGateway(0, "A", 10, 10)

	r := NewRegistry()
	tx := r.Add(Transmission{Start: 1000, End: 2000, Channel: 0, SF: 7, BW: region.BW125, X: 10, Y: 10, TXPower: 14})

	res := ReceiveUplinkAtGateway(gw, tx, r, false, rand.New(rand.NewSource(1)))
	assert.True(t, res.Ok)
	lock, ok := gw.UplinkLock[0]
	assert.True(t, ok)
	assert.True(t, lock.Active)
	assert.Equal(t, region.SF(7), lock.SF)
	assert.Greater(t, lock.Start, tx.Start, "the lock start is shortened by the preamble floor")
}

func TestReceiveUplinkAtGatewayBlockedBySameSFUplinkLock(t *testing.T) {
	gw := model.NewGateway(0, "A", 0, 0)
	gw.UplinkLock[0] = model.UplinkLock{Interval: model.Interval{Start: 0, End: 100}, SF: 7, Active: true}

	r := NewRegistry()
	tx := r.Add(Transmission{Start: 10, End: 20, Channel: 0, SF: 7, BW: region.BW125, TXPower: 14})

	res := ReceiveUplinkAtGateway(gw, tx, r, false, rand.New(rand.NewSource(1)))
	assert.False(t, res.Ok)
}

func TestReceiveUplinkAtGatewayDifferentSFLockDoesNotBlock(t *testing.T) {
	gw := model.NewGateway(0, "A", 10, 10)
	gw.UplinkLock[0] = model.UplinkLock{Interval: model.Interval{Start: 0, End: 100}, SF: 12, Active: true}

	r := NewRegistry()
	tx := r.Add(Transmission{Start: 10, End: 20, Channel: 0, SF: 7, BW: region.BW125, X: 10, Y: 10, TXPower: 14})

	res := ReceiveUplinkAtGateway(gw, tx, r, false, rand.New(rand.NewSource(1)))
	assert.True(t, res.Ok, "an uplink lock at a different SF must not block a new uplink's own demodulation start")
}
