package director

import (
	"math"

	"github.com/pthm-cable/overmind/config"
	"github.com/pthm-cable/overmind/telemetry"
)

// Reward scores the transition between two consecutive snapshots against the
// tier's target difficulty band. Deterministic, no side effects, no learned
// state.
//
// The priority ordering is the contract: player death dominates everything,
// stress-matching dominates engagement, engagement dominates variety. The
// reward peaks when challenge sits in the tier's flow channel, not when
// difficulty is simply maximized.
func Reward(prev, curr telemetry.Snapshot, tier config.TierConfig) float64 {
	rc := config.Cfg().Reward

	total := 0.0

	// Flow channel: distance from the tier's target stress.
	dist := math.Abs(curr.Stress - tier.TargetStress)
	switch {
	case dist <= rc.TightBand:
		total += rc.TightBonus
	case dist <= rc.LooseBand:
		total += rc.LooseBonus
	default:
		total -= rc.MissPenalty
	}

	// Small shaping bonus for moving toward the target since last cycle.
	if dist < math.Abs(prev.Stress-tier.TargetStress) {
		total += rc.TrendBonus
	}

	// Engagement bonus, proportional.
	total += rc.EngagementWeight * curr.Engagement

	// Variety incentive: several distinct enemy types on the field at once.
	if curr.VarietyCount() >= rc.VarietyMinTypes {
		total += rc.VarietyBonus
	}

	// Death dominates the sum regardless of everything above.
	if curr.Health <= 0 {
		total -= rc.DeathPenalty
	}

	return total * tier.RewardMultiplier
}

// PerformanceScore blends health and engagement into the scalar the
// difficulty adapter tracks.
func PerformanceScore(s telemetry.Snapshot) float64 {
	pc := config.Cfg().Performance
	return pc.HealthWeight*s.Health + pc.EngagementWeight*s.Engagement
}
