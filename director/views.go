// Package director implements the adaptive AI director: a contextual-bandit
// policy with strategic rule overrides, a regenerating spawn budget, and a
// slow difficulty adapter, orchestrated into one per-frame update cycle.
package director

import (
	"github.com/pthm-cable/overmind/config"
	"github.com/pthm-cable/overmind/telemetry"
)

// Action is one choice from the director's closed action set. The ordering
// must match policy.NumOutputs.
type Action int

const (
	ActionSpawnGrunt Action = iota
	ActionSpawnRanged
	ActionSpawnTank
	ActionSpawnSwarm
	ActionIncreaseRate
	ActionDoNothing

	actionCount
)

// NumActions is the size of the action set.
const NumActions = int(actionCount)

// String returns the action name used in logs and CSV output.
func (a Action) String() string {
	switch a {
	case ActionSpawnGrunt:
		return "spawn_grunt"
	case ActionSpawnRanged:
		return "spawn_ranged"
	case ActionSpawnTank:
		return "spawn_tank"
	case ActionSpawnSwarm:
		return "spawn_swarm"
	case ActionIncreaseRate:
		return "increase_rate"
	case ActionDoNothing:
		return "do_nothing"
	default:
		return "unknown"
	}
}

// Placement names a wave placement strategy understood by the enemy system.
type Placement string

const (
	PlacementRing   Placement = "ring"   // Even circle around the player
	PlacementFlank  Placement = "flank"  // Cluster on one side
	PlacementAmbush Placement = "ambush" // Scattered at range
)

// EnemySystem is the command surface of the host game's enemy subsystem.
// It extends the read-only view the telemetry aggregator consumes.
type EnemySystem interface {
	telemetry.EnemyView
	SpawnWave(t telemetry.EnemyType, count int, placement Placement) error
	IncreaseSpawnRate(percent float64) error
}

// SpawnPlan is the concrete execution of a spawn action: what to spawn,
// how many, where, and what it costs from the budget.
type SpawnPlan struct {
	Type      telemetry.EnemyType
	Count     int
	Placement Placement
	Cost      float64
}

// planFor translates an action into a spawn plan under the given tier's
// aggressiveness. Non-spawn actions return a zero-count plan carrying only
// a cost.
func planFor(a Action, tier config.TierConfig, costs config.CostConfig) SpawnPlan {
	scale := func(base int) int {
		n := int(float64(base)*tier.Aggressiveness + 0.5)
		if n < 1 {
			n = 1
		}
		return n
	}

	switch a {
	case ActionSpawnGrunt:
		n := scale(3)
		return SpawnPlan{Type: telemetry.EnemyGrunt, Count: n, Placement: PlacementRing, Cost: float64(n) * costs.Grunt}
	case ActionSpawnRanged:
		n := scale(2)
		return SpawnPlan{Type: telemetry.EnemyRanged, Count: n, Placement: PlacementAmbush, Cost: float64(n) * costs.Ranged}
	case ActionSpawnTank:
		return SpawnPlan{Type: telemetry.EnemyTank, Count: 1, Placement: PlacementFlank, Cost: costs.Tank}
	case ActionSpawnSwarm:
		n := scale(6)
		return SpawnPlan{Type: telemetry.EnemySwarm, Count: n, Placement: PlacementRing, Cost: float64(n) * costs.Swarm / 3}
	case ActionIncreaseRate:
		return SpawnPlan{Cost: costs.RateBoost}
	default:
		return SpawnPlan{}
	}
}
