// Command inspect lists the trained models stored in a model database and
// optionally dumps one tier's learned state.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pthm-cable/overmind/persistence"
	"github.com/pthm-cable/overmind/policy"
)

func main() {
	storePath := flag.String("store", "models.db", "SQLite model store path")
	tier := flag.String("tier", "", "Dump this tier's model state (empty = list only)")
	flag.Parse()

	store, err := persistence.Open(*storePath)
	if err != nil {
		slog.Error("failed to open model store", "path", *storePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	tiers, err := store.Tiers()
	if err != nil {
		slog.Error("failed to list tiers", "error", err)
		os.Exit(1)
	}

	if len(tiers) == 0 {
		fmt.Println("no models stored")
		return
	}

	for _, info := range tiers {
		fmt.Printf("%-10s %8d bytes  updated %s\n", info.Tier, info.BlobSize, info.UpdatedAt)
	}

	if *tier == "" {
		return
	}

	blob, ok, err := store.Load(*tier)
	if err != nil {
		slog.Error("failed to load model", "tier", *tier, "error", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Printf("no model stored for tier %q\n", *tier)
		os.Exit(1)
	}

	var state policy.ModelState
	if err := json.Unmarshal(blob, &state); err != nil {
		slog.Error("failed to decode model", "tier", *tier, "error", err)
		os.Exit(1)
	}

	fmt.Printf("\ntier %s:\n", *tier)
	fmt.Printf("  epsilon:     %.4f\n", state.Epsilon)
	fmt.Printf("  train steps: %d\n", state.TrainSteps)
	fmt.Printf("  weights:     %d input->hidden, %d hidden->output\n",
		len(state.Weights.W1), len(state.Weights.W2))
}
