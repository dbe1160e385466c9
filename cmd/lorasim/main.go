// Package main is the lorasim CLI entry point, taking three positional
// arguments (packets per hour, simulation hours, terrain file) and a
// handful of ambient flags for configuration, logging and the RNG seed.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/lorasim/lorasim/internal/config"
	"github.com/lorasim/lorasim/internal/engine"
	"github.com/lorasim/lorasim/internal/logging"
	"github.com/lorasim/lorasim/internal/model"
	"github.com/lorasim/lorasim/internal/region"
	"github.com/lorasim/lorasim/internal/retransmit"
	"github.com/lorasim/lorasim/internal/sfassign"
	"github.com/lorasim/lorasim/internal/simclock"
	"github.com/lorasim/lorasim/internal/stats"
	"github.com/lorasim/lorasim/internal/terrain"
)

func main() {
	configPath := pflag.String("config", "", "optional YAML configuration file")
	seedFlag := pflag.Int64("seed", 0, "PRNG seed (0 uses the configured/default seed)")
	logLevel := pflag.String("log-level", "info", "logrus level name")
	autostop := pflag.Bool("autostop", false, "enable the moving-PDR auto-stop heuristic")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] packets_per_hour simulation_time_hours terrain_file\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() != 3 {
		pflag.Usage()
		os.Exit(2)
	}

	if err := run(pflag.Arg(0), pflag.Arg(1), pflag.Arg(2), *configPath, *seedFlag, *logLevel, *autostop); err != nil {
		fmt.Fprintln(os.Stderr, "lorasim:", err)
		os.Exit(1)
	}
}

func run(packetsPerHourArg, simTimeHoursArg, terrainPath, configPath string, seedFlag int64, logLevel string, autostop bool) error {
	packetsPerHour, err := strconv.ParseFloat(packetsPerHourArg, 64)
	if err != nil || packetsPerHour <= 0 {
		return errors.Errorf("invalid packets_per_hour %q", packetsPerHourArg)
	}
	simTimeHours, err := strconv.ParseFloat(simTimeHoursArg, 64)
	if err != nil || simTimeHours <= 0 {
		return errors.Errorf("invalid simulation_time_hours %q", simTimeHoursArg)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if seedFlag != 0 {
		cfg.Seed = seedFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(logLevel)

	f, err := os.Open(terrainPath)
	if err != nil {
		return errors.Wrap(err, "opening terrain file")
	}
	defer f.Close()

	confirmedRNG := rand.New(rand.NewSource(cfg.Seed + 1))
	confirmed := func(int) bool { return confirmedRNG.Float64() < cfg.ConfirmedPerc }

	res, err := terrain.Parse(f, confirmed)
	if err != nil {
		return errors.Wrap(err, "parsing terrain file")
	}

	if cfg.DoubleGWs {
		// Double the gateway population in place: a second receiver at
		// each site from the terrain file.
		for _, gw := range append([]*model.Gateway{}, res.World.Gateways...) {
			res.World.AddGateway(model.NewGateway(0, gw.Label+"2", gw.X, gw.Y))
		}
	}

	table := region.New(cfg.FPlan)
	for _, n := range res.World.Nodes {
		assigned, err := sfassign.Assign(n, res.World.Gateways, table)
		if err != nil {
			return err
		}
		n.SF = assigned.SF
		n.ReachableAtRX2 = assigned.AtRX2
	}

	period := retransmit.Period(simclock.FromSeconds(3600.0 / packetsPerHour))
	horizon := simclock.FromSeconds(simTimeHours * 3600.0)

	sim := engine.New(res.World, table, cfg, log, period, autostop, cfg.Seed)
	sim.Run(horizon)

	summary := sim.Summary(horizon)
	summary.Report(os.Stdout)
	log.WithFields(summaryFields(summary)).Debug("run complete")
	return nil
}

// summaryFields renders a Summary as structured logrus fields: a subset
// of the per-run totals in the stdout report (transmission counts, acks,
// PDR/PRR, no-gateway counts, average energy and SF), for a
// --log-level debug run.
func summaryFields(s stats.Summary) logrus.Fields {
	return logrus.Fields{
		"unique_tx":     s.TotalUniqueTransmissions,
		"retx":          s.TotalRetransmissions,
		"acked":         s.TotalUniqueAcked,
		"pdr":           s.PacketDeliveryRatio,
		"prr":           s.PacketReceptionRatio,
		"no_rx1":        s.NoRX1,
		"no_rx1_rx2":    s.NoRX1RX2,
		"avg_energy_mj": s.AvgNodeConsumption,
		"avg_sf":        s.AvgSF,
	}
}
