package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/pthm-cable/cellform/config"
	"github.com/pthm-cable/cellform/mesh"
	"github.com/pthm-cable/cellform/server"
	"github.com/pthm-cable/cellform/sim"
	"github.com/pthm-cable/cellform/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	inPath := flag.String("in", "", "Seed mesh as binary STL (empty = unit icosahedron)")
	outPath := flag.String("out", "", "Export the grown mesh as binary STL on exit")
	exportEvery := flag.Int("export-every", 0, "Also export every N steps (0 = only on exit)")
	steps := flag.Int("steps", 1000, "Number of simulation steps to run")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	serveAddr := flag.String("serve", "", "Stream mesh frames over websocket on this address")
	logStats := flag.Bool("log-stats", false, "Log step timing breakdown per stats window")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(rngSeed))

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(cfg, rng, rngSeed, *inPath, *outPath, *exportEvery, *steps, *serveAddr, *logStats, *outputDir); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, rng *rand.Rand, rngSeed int64, inPath, outPath string,
	exportEvery, steps int, serveAddr string, logStats bool, outputDir string) error {

	// Seed mesh
	var triangles []mesh.Triangle
	if inPath != "" {
		var err error
		triangles, err = mesh.ReadSTL(inPath)
		if err != nil {
			return err
		}
	} else {
		triangles = mesh.Icosahedron()
	}
	if len(triangles) == 0 {
		return fmt.Errorf("seed mesh has no triangles")
	}

	params := sim.NewParams(cfg, mesh.AverageEdgeLength(triangles), rng)
	normal, err := sim.NormalStrategyByName(cfg.Topology.NormalStrategy)
	if err != nil {
		return err
	}

	slog.Info("starting growth",
		"seed", rngSeed,
		"seed_triangles", len(triangles),
		"policy", string(params.Policy),
		"normal_strategy", normal.Name(),
		"rest_length", params.RestLength,
		"radius_of_influence", params.RadiusOfInfluence,
		"spring_factor", params.SpringFactor,
		"planar_factor", params.PlanarFactor,
		"bulge_factor", params.BulgeFactor,
		"repulsion_factor", params.RepulsionFactor,
		"workers", params.Workers,
	)

	model := sim.NewModel(triangles, params, normal, rng)
	defer model.Close()

	// Telemetry
	output, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		return err
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		return err
	}
	collector := telemetry.NewCollector(cfg.Telemetry.StatsWindow)
	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)

	// Optional live streaming
	var srv *server.Server
	if serveAddr != "" {
		srv = server.New(serveAddr)
		if err := srv.Start(); err != nil {
			return err
		}
	}

	for s := 1; s <= steps; s++ {
		report := model.Step()
		perf.Record(report)

		if stats, done := collector.Record(report, model.Graph()); done {
			if err := output.WriteStats(stats); err != nil {
				return err
			}
			slog.Info("window",
				"step", stats.WindowEndStep,
				"cells", stats.Cells,
				"splits", stats.Splits,
				"valence_mean", stats.MeanValence,
				"step_ms", stats.StepMs,
			)
			if logStats {
				perf.LogStats(report.Step)
			}
		}

		if srv != nil && srv.HasClients() && s%cfg.Server.FrameEvery == 0 {
			srv.Broadcast(server.Frame{
				Step:       report.Step,
				Cells:      report.Cells,
				Attributes: model.VertexAttributes(),
				Indexes:    model.TriangleIndexes(),
			})
		}

		if outPath != "" && exportEvery > 0 && s%exportEvery == 0 {
			if err := mesh.WriteSTL(outPath, model.Triangles()); err != nil {
				return err
			}
		}
	}

	if outPath != "" {
		if err := mesh.WriteSTL(outPath, model.Triangles()); err != nil {
			return err
		}
		slog.Info("exported mesh", "path", outPath, "cells", model.Graph().Len())
	}

	return nil
}
