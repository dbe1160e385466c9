// Package stats aggregates the per-node and per-gateway counters and
// formats the stdout report.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/lorasim/lorasim/internal/energy"
	"github.com/lorasim/lorasim/internal/model"
	"github.com/lorasim/lorasim/internal/region"
	"github.com/lorasim/lorasim/internal/simclock"
)

// Summary mirrors the exact stdout report key set.
type Summary struct {
	SimulationTime simclock.Clock

	AvgNodeConsumption energy.MilliJoules
	MinNodeConsumption energy.MilliJoules
	MaxNodeConsumption energy.MilliJoules

	TotalTransmissions       int
	TotalRetransmissions     int
	TotalUniqueTransmissions int
	StdvUniqueTransmissions  float64

	TotalPacketsReceived    int
	TotalUniqueAcked        int
	TotalConfirmedDropped   int
	TotalUnconfirmedDropped int
	ConfirmedPDRUnique      float64
	PacketDeliveryRatio     float64
	PacketReceptionRatio    float64

	NoRX1    int
	NoRX1RX2 int

	TotalDownlinkTime simclock.Clock

	GatewayAcks map[string]int

	// DutyCyclePercent is nil for plans with no per-band duty cycle
	// (US915).
	DutyCyclePercent map[string]float64

	SFPopulation map[region.SF]int
	AvgSF        float64
}

// Counters accumulate raw totals across the run; Collect converts them,
// plus the final World state, into a Summary. Kept separate from World
// itself because several totals (transmissions, retransmissions,
// received count) are not otherwise retained per-node.
type Counters struct {
	TotalTransmissions   int
	TotalRetransmissions int
	TotalPacketsReceived int
	TotalDownlinkTime    simclock.Clock
}

// AddTransmission records one uplink attempt (first attempt or retry).
func (c *Counters) AddTransmission(isRetry bool) {
	c.TotalTransmissions++
	if isRetry {
		c.TotalRetransmissions++
	}
}

// AddReceived records one uplink that was demodulated by at least one
// gateway.
func (c *Counters) AddReceived() { c.TotalPacketsReceived++ }

// AddDownlinkAirtime accumulates total downlink time across all
// gateways.
func (c *Counters) AddDownlinkAirtime(d simclock.Clock) { c.TotalDownlinkTime += d }

// Collect builds the final Summary from accumulated counters, per-node
// energy totals, and the World's counters.
func Collect(world *model.World, t *region.Table, simTime simclock.Clock, c Counters, energyTotals map[model.NodeID]energy.MilliJoules) Summary {
	s := Summary{
		SimulationTime:       simTime,
		TotalTransmissions:   c.TotalTransmissions,
		TotalRetransmissions: c.TotalRetransmissions,
		TotalPacketsReceived: c.TotalPacketsReceived,
		TotalDownlinkTime:    c.TotalDownlinkTime,
		GatewayAcks:          make(map[string]int, len(world.Gateways)),
		SFPopulation:         make(map[region.SF]int),
	}

	var uniques []float64
	var confirmedUnique, confirmedAcked int
	var unconfirmedUnique, unconfirmedDelivered int
	var sfSum float64

	for _, n := range world.Nodes {
		s.TotalUniqueTransmissions += n.Unique
		s.TotalUniqueAcked += n.Acked
		s.NoRX1 += n.NoRX1
		s.NoRX1RX2 += n.NoRX1RX2
		uniques = append(uniques, float64(n.Unique))
		s.SFPopulation[n.SF]++
		sfSum += float64(n.SF)

		if n.Confirmed {
			confirmedUnique += n.Unique
			confirmedAcked += n.Acked
			s.TotalConfirmedDropped += n.Dropped
		} else {
			unconfirmedUnique += n.Unique
			unconfirmedDelivered += n.Delivered
			s.TotalUnconfirmedDropped += n.Dropped
		}
	}
	if len(world.Nodes) > 0 {
		s.AvgSF = sfSum / float64(len(world.Nodes))
	}
	s.StdvUniqueTransmissions = stdDev(uniques)

	if confirmedUnique > 0 {
		s.ConfirmedPDRUnique = float64(confirmedAcked) / float64(confirmedUnique)
	}
	totalDelivered := confirmedAcked + unconfirmedDelivered
	totalUnique := confirmedUnique + unconfirmedUnique
	if totalUnique > 0 {
		s.PacketDeliveryRatio = float64(totalDelivered) / float64(totalUnique)
	}
	if c.TotalTransmissions > 0 {
		s.PacketReceptionRatio = float64(c.TotalPacketsReceived) / float64(c.TotalTransmissions)
	}

	for i, gw := range world.Gateways {
		s.GatewayAcks[model.GatewayLabel(i)] = gw.AcksSent
	}

	if len(t.DutyCycleMultiplier) > 0 && t.Plan != region.US915 {
		s.DutyCyclePercent = make(map[string]float64, len(t.DutyCycleMultiplier))
		for band, used := range bandUsage(world) {
			frac := 0.0
			if simTime > 0 {
				frac = used.Seconds() / simTime.Seconds() * 100
			}
			s.DutyCyclePercent[bandName(band)] = frac
		}
	}

	if len(energyTotals) > 0 {
		first := true
		var sum energy.MilliJoules
		for _, e := range energyTotals {
			sum += e
			if first || e < s.MinNodeConsumption {
				s.MinNodeConsumption = e
			}
			if first || e > s.MaxNodeConsumption {
				s.MaxNodeConsumption = e
			}
			first = false
		}
		s.AvgNodeConsumption = sum / energy.MilliJoules(len(energyTotals))
	}

	return s
}

func bandUsage(world *model.World) map[simclock.Band]simclock.Clock {
	out := make(map[simclock.Band]simclock.Clock)
	for _, gw := range world.Gateways {
		for band, used := range gw.DutyAirtime {
			out[band] += used
		}
	}
	return out
}

func bandName(b simclock.Band) string {
	switch b {
	case region.BandUplink:
		return "uplink/RX1 (1%)"
	case region.BandRX2:
		return "RX2 (10%)"
	default:
		return fmt.Sprintf("band %d", b)
	}
}

func stdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var variance float64
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs))
	return math.Sqrt(variance)
}

// Report writes the stdout report to w.
func (s Summary) Report(w io.Writer) {
	fmt.Fprintf(w, "Simulation time: %s\n", s.SimulationTime)
	fmt.Fprintf(w, "Avg/Min/Max node consumption: %.3f/%.3f/%.3f mJ\n",
		s.AvgNodeConsumption, s.MinNodeConsumption, s.MaxNodeConsumption)
	fmt.Fprintf(w, "Total number of transmissions: %d\n", s.TotalTransmissions)
	fmt.Fprintf(w, "Total number of re-transmissions: %d\n", s.TotalRetransmissions)
	fmt.Fprintf(w, "Total number of unique transmissions: %d\n", s.TotalUniqueTransmissions)
	fmt.Fprintf(w, "Stdv of unique transmissions: %.3f\n", s.StdvUniqueTransmissions)
	fmt.Fprintf(w, "Total packets received: %d\n", s.TotalPacketsReceived)
	fmt.Fprintf(w, "Total unique packets acknowledged: %d\n", s.TotalUniqueAcked)
	fmt.Fprintf(w, "Total confirmed packets dropped: %d\n", s.TotalConfirmedDropped)
	fmt.Fprintf(w, "Total unconfirmed packets dropped: %d\n", s.TotalUnconfirmedDropped)
	fmt.Fprintf(w, "Confirmed Packet Delivery Ratio (unique): %.4f\n", s.ConfirmedPDRUnique)
	fmt.Fprintf(w, "Packet Delivery Ratio: %.4f\n", s.PacketDeliveryRatio)
	fmt.Fprintf(w, "Packet Reception Ratio: %.4f\n", s.PacketReceptionRatio)
	fmt.Fprintf(w, "No GW available in RX1: %d\n", s.NoRX1)
	fmt.Fprintf(w, "No GW available in RX1 or RX2: %d\n", s.NoRX1RX2)
	fmt.Fprintf(w, "Total downlink time: %s\n", s.TotalDownlinkTime)

	for _, label := range sortedKeys(s.GatewayAcks) {
		fmt.Fprintf(w, "GW %s sent out %d acks and commands\n", label, s.GatewayAcks[label])
	}
	for _, band := range sortedKeys(s.DutyCyclePercent) {
		fmt.Fprintf(w, "Duty cycle used on %s: %.2f%%\n", band, s.DutyCyclePercent[band])
	}
	for _, sf := range sortedSFs(s.SFPopulation) {
		fmt.Fprintf(w, "SF%d population: %d\n", sf, s.SFPopulation[sf])
	}
	fmt.Fprintf(w, "Avg SF: %.3f\n", s.AvgSF)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSFs(m map[region.SF]int) []region.SF {
	keys := make([]region.SF, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
