package director

import (
	"math/rand"

	"github.com/pthm-cable/overmind/config"
	"github.com/pthm-cable/overmind/telemetry"
)

// Rule is one strategic override: when its condition holds, its candidate
// actions take precedence over the learned policy. Rules encode hard
// tactical invariants a bandit is too slow to learn reliably.
type Rule struct {
	Name      string
	Priority  float64
	Condition func(s telemetry.Snapshot, e telemetry.EnemyView) bool
	Actions   []Action
}

// RuleEngine evaluates a prioritized rule table against the current state.
type RuleEngine struct {
	rules []Rule
	rng   *rand.Rand
}

// NewRuleEngine creates an engine over the given rule table.
func NewRuleEngine(rng *rand.Rand, rules []Rule) *RuleEngine {
	return &RuleEngine{rules: rules, rng: rng}
}

// SelectOverride evaluates all rule conditions and returns an action from
// the highest-priority rule that holds, chosen uniformly at random among
// that rule's candidates. Returns ok=false when no rule fires.
func (re *RuleEngine) SelectOverride(s telemetry.Snapshot, e telemetry.EnemyView) (action Action, name string, ok bool) {
	var best *Rule
	for i := range re.rules {
		r := &re.rules[i]
		if len(r.Actions) == 0 || r.Condition == nil || !r.Condition(s, e) {
			continue
		}
		if best == nil || r.Priority > best.Priority {
			best = r
		}
	}

	if best == nil {
		return 0, "", false
	}
	return best.Actions[re.rng.Intn(len(best.Actions))], best.Name, true
}

// DefaultRules builds the standard rule table from configured thresholds.
func DefaultRules(rc config.RulesConfig) []Rule {
	return []Rule{
		{
			// Never let an almost-dead player get finished off by the
			// director itself; the reward function already hates deaths.
			Name:     "mercy",
			Priority: 1.0,
			Condition: func(s telemetry.Snapshot, _ telemetry.EnemyView) bool {
				return s.Health > 0 && s.Health < rc.MercyHealth
			},
			Actions: []Action{ActionDoNothing},
		},
		{
			// Player coasting risk-free near round end: overwhelm.
			Name:     "coast_breaker",
			Priority: 0.9,
			Condition: func(s telemetry.Snapshot, _ telemetry.EnemyView) bool {
				return s.TimeProgress > rc.CoastTime &&
					s.Stress < rc.CoastStress &&
					s.Health > rc.CoastHealth
			},
			Actions: []Action{ActionSpawnSwarm, ActionIncreaseRate},
		},
		{
			// Empty field stalls both telemetry and the reward signal.
			Name:     "seed_pressure",
			Priority: 0.8,
			Condition: func(_ telemetry.Snapshot, e telemetry.EnemyView) bool {
				return e.Count() == 0
			},
			Actions: []Action{ActionSpawnGrunt, ActionSpawnRanged},
		},
		{
			// Passive play with nothing threatening: flush the player out.
			Name:     "anti_turtle",
			Priority: 0.6,
			Condition: func(s telemetry.Snapshot, _ telemetry.EnemyView) bool {
				return s.Engagement < rc.TurtleEngagement && s.Stress < rc.TurtleStress
			},
			Actions: []Action{ActionSpawnRanged},
		},
	}
}
