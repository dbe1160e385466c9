package gwstate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lorasim/lorasim/internal/model"
	"github.com/lorasim/lorasim/internal/region"
	"github.com/lorasim/lorasim/internal/simclock"
)

func TestUplinkBlockedByDownlinkBusy(t *testing.T) {
	gw := model.NewGateway(0, "A", 0, 0)
	gw.DownlinkBusy = append(gw.DownlinkBusy, model.Interval{Start: 0, End: 50})
	assert.True(t, UplinkBlocked(gw, 0, model.Interval{Start: 10, End: 20}, 7))
}

func TestUplinkBlockedBySameSFLockOnly(t *testing.T) {
	gw := model.NewGateway(0, "A", 0, 0)
	gw.UplinkLock[0] = model.UplinkLock{Interval: model.Interval{Start: 0, End: 50}, SF: 7, Active: true}
	assert.True(t, UplinkBlocked(gw, 0, model.Interval{Start: 10, End: 20}, 7))
	assert.False(t, UplinkBlocked(gw, 0, model.Interval{Start: 10, End: 20}, 8), "a different-SF lock does not block uplink demodulation start")
}

func TestInstallUplinkLockDoesNotOverwriteActiveLock(t *testing.T) {
	gw := model.NewGateway(0, "A", 0, 0)
	InstallUplinkLock(gw, 0, 0, 100, 7, 0)
	InstallUplinkLock(gw, 0, 10, 200, 8, 0)

	lock := gw.UplinkLock[0]
	assert.Equal(t, region.SF(7), lock.SF, "a new lock must not overwrite one that hasn't ended yet")
}

func TestInstallUplinkLockOverwritesExpiredLock(t *testing.T) {
	gw := model.NewGateway(0, "A", 0, 0)
	InstallUplinkLock(gw, 0, 0, 100, 7, 0)
	InstallUplinkLock(gw, 0, 150, 250, 8, 0)

	lock := gw.UplinkLock[0]
	assert.Equal(t, region.SF(8), lock.SF)
}

func TestInstallUplinkLockAppliesPreambleFloor(t *testing.T) {
	gw := model.NewGateway(0, "A", 0, 0)
	InstallUplinkLock(gw, 0, 100, 200, 7, 15)
	assert.Equal(t, model.Interval{Start: 115, End: 200}, gw.UplinkLock[0].Interval)
}

func TestChannelOccupiedForDownlinkIgnoresSF(t *testing.T) {
	gw := model.NewGateway(0, "A", 0, 0)
	gw.UplinkLock[0] = model.UplinkLock{Interval: model.Interval{Start: 0, End: 50}, SF: 12, Active: true}
	assert.True(t, ChannelOccupiedForDownlink(gw, 0, model.Interval{Start: 10, End: 20}))
}

func TestDutyCycleReadyNoDeadlineYet(t *testing.T) {
	gw := model.NewGateway(0, "A", 0, 0)
	assert.True(t, DutyCycleReady(gw, 0, 100))
}

func TestRegisterDownlinkAdvancesDeadlineByMultiplier(t *testing.T) {
	gw := model.NewGateway(0, "A", 0, 0)
	RegisterDownlink(gw, model.Interval{Start: 100, End: 110}, 0, 99, 10, 100)

	assert.False(t, DutyCycleReady(gw, 0, 100+99*10-1))
	assert.True(t, DutyCycleReady(gw, 0, 110+99*10))
	assert.Equal(t, simclock.Clock(10), gw.DutyAirtime[0])
}
