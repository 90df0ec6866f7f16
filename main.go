package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/pthm-cable/overmind/config"
	"github.com/pthm-cable/overmind/director"
	"github.com/pthm-cable/overmind/persistence"
	"github.com/pthm-cable/overmind/sim"
	"github.com/pthm-cable/overmind/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	tierName := flag.String("tier", "", "Difficulty tier (empty = config default)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	episodes := flag.Int("episodes", 10, "Number of training rounds to run")
	skill := flag.Float64("skill", 0.5, "Scripted player skill in [0,1]")
	archetype := flag.Int("archetype", 0, "Scripted player archetype index")
	dt := flag.Float64("dt", 0.1, "Simulated seconds per frame")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	storePath := flag.String("store", "", "SQLite model store path (empty = no persistence)")
	noTrain := flag.Bool("no-train", false, "Disable online training (evaluation mode)")

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

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output dir", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Warn("config snapshot failed", "error", err)
	}

	var store *persistence.Store
	if *storePath != "" {
		store, err = persistence.Open(*storePath)
		if err != nil {
			slog.Error("failed to open model store", "path", *storePath, "error", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	// Simulated clock: the director sees time advance dt per frame, so
	// training runs decoupled from wall time.
	simTime := time.Unix(0, 0)
	clock := func() time.Time { return simTime }

	d, err := director.New(director.Options{
		TierName: *tierName,
		Seed:     rngSeed,
		Store:    store,
		Output:   out,
		Clock:    clock,
	})
	if err != nil {
		slog.Error("failed to create director", "error", err)
		os.Exit(1)
	}
	d.SetTrainingMode(!*noTrain)

	slog.Info("starting simulation",
		"tier", *tierName,
		"seed", rngSeed,
		"episodes", *episodes,
		"skill", *skill,
		"dt", *dt,
		"training", !*noTrain,
	)

	rng := rand.New(rand.NewSource(rngSeed))
	framesPerEpisode := int(cfg.Round.DurationSec / *dt)

	for ep := 1; ep <= *episodes; ep++ {
		player := sim.NewScriptedPlayer(
			cfg.World.Width/2, cfg.World.Height/2,
			*skill, *archetype, rng,
		)
		arena := sim.NewArena(cfg.World.Width, cfg.World.Height, player, rng)
		d.ResetRound()

		var stressSum float64
		stressN := 0
		died := false

		for frame := 0; frame < framesPerEpisode; frame++ {
			simTime = simTime.Add(time.Duration(*dt * float64(time.Second)))

			arena.Step(*dt)
			d.Update(player, arena)

			if frame%50 == 0 {
				snap := telemetry.Build(player, arena, 0)
				stressSum += snap.Stress
				stressN++
			}

			if !player.Alive() {
				died = true
				break
			}
		}

		status := d.Status()
		avgStress := 0.0
		if stressN > 0 {
			avgStress = stressSum / float64(stressN)
		}

		rec := telemetry.EpisodeRecord{
			Episode:      ep,
			Tier:         status.Tier,
			Cycles:       status.Cycle,
			PlayerDied:   died,
			AvgReward:    status.AvgReward,
			AvgStress:    avgStress,
			FinalEpsilon: status.Epsilon,
			TrainSteps:   status.TrainSteps,
		}
		if err := out.WriteEpisode(rec); err != nil {
			slog.Warn("episode log write failed", "error", err)
		}

		slog.Info("episode complete",
			"episode", ep,
			"died", died,
			"spawned", arena.TotalSpawned(),
			"killed", arena.TotalKilled(),
			"avg_stress", avgStress,
			"status", status.String(),
		)
	}
}
