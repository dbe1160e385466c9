// Package region defines the regional frequency plan, duty-cycle bands,
// RX-window parameters, sensitivity table and SF-capture matrix that the
// rest of the engine is parameterised on.
//
// Frequency values are not invented: the EU868 three-channel plan and the
// US915 903.9MHz/923.3MHz pairing are cross-checked against the standard
// LoRaWAN regional-parameters band tables.
package region

import "github.com/lorasim/lorasim/internal/simclock"

// SF is a LoRa spreading factor, 7 through 12.
type SF int

// MinSF and MaxSF bound the spreading factors this engine assigns.
const (
	MinSF SF = 7
	MaxSF SF = 12
)

// Bandwidth is a channel bandwidth in Hz.
type Bandwidth int

// Bandwidths used by the two supported frequency plans.
const (
	BW125 Bandwidth = 125000
	BW500 Bandwidth = 500000
)

// Plan identifies a supported regional frequency plan.
type Plan string

// Supported plans.
const (
	EU868 Plan = "EU868"
	US915 Plan = "US915"
)

// Band identifies a duty-cycle sub-band. NoDutyCycleBand marks a plan (US915)
// that carries no per-band duty-cycle restriction in this model.
const (
	BandUplink     simclock.Band = iota // EU868 1% band shared by uplink and RX1
	BandRX2                             // EU868 10% band used by the dedicated RX2 channel
	NoDutyCycleBand
)

// Chan describes one physical channel.
type Chan struct {
	Freq      float64 // Hz
	Bandwidth Bandwidth
	Band      simclock.Band
}

// RX2 describes the fixed RX2 window parameters of a plan.
type RX2 struct {
	SF        SF
	Bandwidth Bandwidth
	// Freq is used directly for EU868; for US915 RX2 is always
	// channel 0 of the downlink plan, see Table.RX2Channel.
	Freq float64
}

// Table is the fully resolved regional configuration consumed by the rest
// of the engine.
type Table struct {
	Plan Plan

	// Uplink is indexed by simclock.Channel and lists every uplink
	// channel available to devices.
	Uplink []Chan

	// DownlinkOf maps an uplink channel index to the RX1 downlink
	// channel index. For EU868 this is the identity (RX1 reuses the
	// uplink channel); for US915 it is the channels_d table.
	DownlinkOf []simclock.Channel

	// Downlink is indexed by simclock.Channel and lists every channel a
	// gateway may use to transmit a downlink (RX1 candidates plus, for
	// US915, the RX2 channel which coincides with Downlink[0]).
	Downlink []Chan

	RX2 RX2

	// RX2Channel is the channel index within Downlink used for RX2.
	// For EU868 this is a dedicated channel (869.525MHz); for US915 it
	// is always channel 0 of the downlink plan.
	RX2Channel simclock.Channel

	// DutyCycleMultiplier maps a band to the "off time per unit
	// airtime" multiplier: 99 for a 1% band, 9 for a 10% band, 0 when
	// the plan has no duty-cycle band.
	DutyCycleMultiplier map[simclock.Band]int
}

// Band returns the duty-cycle band an uplink channel belongs to.
func (t *Table) Band(ch simclock.Channel) simclock.Band {
	if int(ch) < len(t.Uplink) {
		return t.Uplink[ch].Band
	}
	return NoDutyCycleBand
}

// DownlinkBand returns the duty-cycle band of a downlink channel index.
func (t *Table) DownlinkBand(ch simclock.Channel) simclock.Band {
	if int(ch) < len(t.Downlink) {
		return t.Downlink[ch].Band
	}
	return NoDutyCycleBand
}

// CollisionKey maps a channel index into the shared key space the
// collision registry groups transmissions by, so that only
// transmissions sharing a physical frequency are ever compared. For
// EU868, Downlink reuses the Uplink table's indices for RX1 (the RX2
// channel is a distinct trailing index), so uplink and downlink
// channels already share one index space. For US915, Uplink and
// Downlink are two independently-indexed tables of different physical
// frequencies (902.x vs 923.x MHz), so downlink indices are offset
// past the uplink range to keep them from colliding with an unrelated
// uplink channel of the same index.
func (t *Table) CollisionKey(ch simclock.Channel, isDownlink bool) simclock.Channel {
	if isDownlink && t.Plan == US915 {
		return ch + simclock.Channel(len(t.Uplink))
	}
	return ch
}

// NewEU868 returns the standard 3-channel EU868 plan: 868.1/868.3/868.5MHz
// uplink and RX1, 869.525MHz/SF12/BW125 RX2.
func NewEU868() *Table {
	up := []Chan{
		{Freq: 868100000, Bandwidth: BW125, Band: BandUplink},
		{Freq: 868300000, Bandwidth: BW125, Band: BandUplink},
		{Freq: 868500000, Bandwidth: BW125, Band: BandUplink},
	}
	down := append([]Chan{}, up...)
	down = append(down, Chan{Freq: 869525000, Bandwidth: BW125, Band: BandRX2})
	rx2ch := simclock.Channel(len(up))
	downOf := make([]simclock.Channel, len(up))
	for i := range up {
		downOf[i] = simclock.Channel(i)
	}
	return &Table{
		Plan:       EU868,
		Uplink:     up,
		DownlinkOf: downOf,
		Downlink:   down,
		RX2:        RX2{SF: 12, Bandwidth: BW125, Freq: 869525000},
		RX2Channel: rx2ch,
		DutyCycleMultiplier: map[simclock.Band]int{
			BandUplink: 99,
			BandRX2:    9,
		},
	}
}

// NewUS915 returns an 8-channel subset of the US915 plan (sub-band 2 of
// the full 64+8 channel plan): uplink channels 903.9MHz+i*0.2MHz,
// downlink channels_d 923.3MHz+i*0.6MHz with channels_d[i] serving
// uplink channel i, RX2 fixed at channels_d[0] (923.3MHz) and
// SF12/BW500.
func NewUS915() *Table {
	const n = 8
	up := make([]Chan, n)
	down := make([]Chan, n)
	downOf := make([]simclock.Channel, n)
	for i := 0; i < n; i++ {
		up[i] = Chan{Freq: 903900000 + float64(i)*200000, Bandwidth: BW125, Band: NoDutyCycleBand}
		down[i] = Chan{Freq: 923300000 + float64(i)*600000, Bandwidth: BW500, Band: NoDutyCycleBand}
		downOf[i] = simclock.Channel(i)
	}
	return &Table{
		Plan:       US915,
		Uplink:     up,
		DownlinkOf: downOf,
		Downlink:   down,
		RX2:        RX2{SF: 12, Bandwidth: BW500, Freq: 923300000},
		RX2Channel: 0,
		DutyCycleMultiplier: map[simclock.Band]int{
			NoDutyCycleBand: 0,
		},
	}
}

// New returns the Table for a named plan.
func New(p Plan) *Table {
	switch p {
	case US915:
		return NewUS915()
	default:
		return NewEU868()
	}
}
