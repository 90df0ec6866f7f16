package director

import (
	"testing"

	"github.com/pthm-cable/overmind/config"
	"github.com/pthm-cable/overmind/telemetry"
)

func init() {
	config.MustInit("")
}

func tier(t *testing.T, name string) config.TierConfig {
	t.Helper()
	tc, err := config.Cfg().Tier(name)
	if err != nil {
		t.Fatalf("tier %s: %v", name, err)
	}
	return tc
}

func TestRewardDeterministic(t *testing.T) {
	tc := tier(t, "medium")
	prev := telemetry.Snapshot{Stress: 0.3, Health: 0.8}
	curr := telemetry.Snapshot{Stress: 0.58, Health: 0.75, Engagement: 0.5}

	r1 := Reward(prev, curr, tc)
	r2 := Reward(prev, curr, tc)
	if r1 != r2 {
		t.Errorf("Reward not deterministic: %f vs %f", r1, r2)
	}
}

func TestRewardFlowChannel(t *testing.T) {
	tc := tier(t, "medium") // target stress 0.6

	prev := telemetry.Snapshot{Stress: 0.6, Health: 0.8}
	inBand := telemetry.Snapshot{Stress: 0.62, Health: 0.8}
	nearBand := telemetry.Snapshot{Stress: 0.45, Health: 0.8}
	farOff := telemetry.Snapshot{Stress: 0.1, Health: 0.8}

	rIn := Reward(prev, inBand, tc)
	rNear := Reward(prev, nearBand, tc)
	rFar := Reward(prev, farOff, tc)

	if rIn <= rNear {
		t.Errorf("tight band %f should beat loose band %f", rIn, rNear)
	}
	if rNear <= rFar {
		t.Errorf("loose band %f should beat a miss %f", rNear, rFar)
	}
	if rFar >= 0 {
		t.Errorf("clean miss with no engagement should be negative, got %f", rFar)
	}
}

func TestRewardDeathDominates(t *testing.T) {
	tc := tier(t, "medium")
	prev := telemetry.Snapshot{Stress: 0.6, Health: 0.3}

	// Best possible non-death outcome: in band, fully engaged, full variety.
	best := telemetry.Snapshot{
		Stress:      0.6,
		Health:      0.9,
		Engagement:  1.0,
		EnemyCounts: [telemetry.NumEnemyTypes]float64{0.5, 0.5, 0.5, 0.5},
	}
	// Death while everything else looks perfect.
	death := best
	death.Health = 0

	rBest := Reward(prev, best, tc)
	rDeath := Reward(prev, death, tc)

	if rDeath >= rBest {
		t.Errorf("death reward %f should be far below best %f", rDeath, rBest)
	}
	if rDeath >= 0 {
		t.Errorf("death reward should be negative, got %f", rDeath)
	}
}

func TestRewardTrendBonus(t *testing.T) {
	tc := tier(t, "medium")

	curr := telemetry.Snapshot{Stress: 0.45, Health: 0.8}
	fromFar := telemetry.Snapshot{Stress: 0.2, Health: 0.8}
	fromNear := telemetry.Snapshot{Stress: 0.55, Health: 0.8}

	rImproving := Reward(fromFar, curr, tc)
	rWorsening := Reward(fromNear, curr, tc)

	if rImproving <= rWorsening {
		t.Errorf("moving toward target (%f) should beat moving away (%f)", rImproving, rWorsening)
	}
}

func TestRewardTierScenario(t *testing.T) {
	// A healthy player under light pressure: a hard tier should score this
	// worse than an easy tier, because hard wants far more stress.
	easy := tier(t, "easy") // target 0.4
	hard := tier(t, "hard") // target 0.8

	prev := telemetry.Snapshot{Stress: 0.35, Health: 0.9}
	curr := telemetry.Snapshot{Stress: 0.38, Health: 0.9, Engagement: 0.4}

	rEasy := Reward(prev, curr, easy)
	rHard := Reward(prev, curr, hard)

	if rHard >= rEasy {
		t.Errorf("light pressure should score better on easy (%f) than hard (%f)", rEasy, rHard)
	}
}

func TestPerformanceScore(t *testing.T) {
	s := telemetry.Snapshot{Health: 1.0, Engagement: 1.0}
	if got := PerformanceScore(s); got != 1.0 {
		t.Errorf("full health and engagement = %f, want 1.0", got)
	}

	zero := telemetry.Snapshot{}
	if got := PerformanceScore(zero); got != 0 {
		t.Errorf("zero snapshot = %f, want 0", got)
	}
}
