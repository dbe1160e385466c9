// Package sfassign implements the one-time spreading-factor assignment:
// the smallest SF at which at least one gateway's mean received power
// (no shadowing) clears the region's sensitivity table by a 5dB margin.
package sfassign

import (
	"github.com/pkg/errors"

	"github.com/lorasim/lorasim/internal/model"
	"github.com/lorasim/lorasim/internal/physics"
	"github.com/lorasim/lorasim/internal/region"
)

// Result is the outcome of assigning one node's SF.
type Result struct {
	SF        region.SF
	Reachable []model.GatewayID // gateways reachable at SF with margin
	AtRX2     []model.GatewayID // gateways reachable at the plan's RX2 SF
}

// Assign walks SF from region.MinSF to region.MaxSF and returns the first
// one at which at least one gateway clears the sensitivity margin at the
// device's initial (maximum) transmit power. An "unreachable" error
// naming the node's label is returned if no SF in range reaches any
// gateway.
func Assign(node *model.Node, gateways []*model.Gateway, t *region.Table) (Result, error) {
	txPower := t.TXPower(0)
	for sf := region.MinSF; sf <= region.MaxSF; sf++ {
		reachable := reachableAt(node, gateways, t, sf, txPower)
		if len(reachable) > 0 {
			rx2 := reachableAt(node, gateways, t, t.RX2.SF, txPower)
			return Result{SF: sf, Reachable: reachable, AtRX2: rx2}, nil
		}
	}
	return Result{}, errors.Errorf("node %s unreachable: no SF up to %d reaches any gateway with %ddB margin",
		node.Label, region.MaxSF, region.MarginDB)
}

// reachableAt returns the gateways whose mean received power (shadowing
// zero) clears the sensitivity of sf by region.MarginDB, given the
// uplink bandwidth of t.
func reachableAt(node *model.Node, gateways []*model.Gateway, t *region.Table, sf region.SF, txPower float64) []model.GatewayID {
	bw := t.Uplink[0].Bandwidth
	threshold := region.Sensitivity(sf, bw) + region.MarginDB
	var out []model.GatewayID
	for _, gw := range gateways {
		d := physics.Distance(node.X, node.Y, gw.X, gw.Y)
		prx := float64(physics.ReceivedPower(physics.DBm(txPower), d, nil))
		if prx > threshold {
			out = append(out, gw.ID)
		}
	}
	return out
}
