package director

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/overmind/config"
	"github.com/pthm-cable/overmind/persistence"
	"github.com/pthm-cable/overmind/policy"
	"github.com/pthm-cable/overmind/telemetry"
)

// Options configures a Director.
type Options struct {
	TierName string
	Seed     int64

	// Store persists trained models per tier. Optional; nil disables
	// persistence and the director trains from scratch each run.
	Store *persistence.Store

	// Output writes per-cycle CSV records. Optional.
	Output *telemetry.OutputManager

	// Clock overrides the time source. Nil means time.Now. The simulate
	// binary drives it with simulated time so training runs faster than
	// real time.
	Clock func() time.Time
}

// Director is the orchestrator tying telemetry, reward, budget, rules,
// policy and the difficulty adapter into one periodic decision cycle. It is
// single-threaded: the host calls Update once per frame and the director
// self-throttles to its tier's decision interval.
type Director struct {
	cfg      *config.Config
	tier     config.TierConfig
	tierName string
	rng      *rand.Rand
	now      func() time.Time

	bandit *policy.Bandit
	replay *policy.ReplayBuffer
	budget *Budget
	rules  *RuleEngine
	adapter *Adapter

	store *persistence.Store
	out   *telemetry.OutputManager

	active   bool
	training bool

	startedAt time.Time
	lastCycle time.Time
	cycle     int

	// Previous (state, action) pair awaiting its reward. The reward for an
	// action is only computable one cycle later, from the snapshot taken
	// just before the next action is chosen.
	prevSnap   telemetry.Snapshot
	prevAction Action
	hasPrev    bool

	rewardAvg      *telemetry.RollingMean
	lastReward     float64
	trainSinceSave int
}

// New creates a Director for the given difficulty tier. A stored model for
// the tier is restored if available; restore failures log and fall back to
// fresh random weights (never fatal).
func New(opts Options) (*Director, error) {
	cfg := config.Cfg()

	tierName := opts.TierName
	if tierName == "" {
		tierName = cfg.Derived.DefaultTier
	}
	tier, err := cfg.Tier(tierName)
	if err != nil {
		return nil, err
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	now := clock()

	rng := rand.New(rand.NewSource(opts.Seed))
	budget := NewBudget(tier.BudgetMax, tier.BudgetRegen, now)

	d := &Director{
		cfg:      cfg,
		tier:     tier,
		tierName: tierName,
		rng:      rng,
		now:      clock,
		bandit: policy.NewBandit(rng, policy.Options{
			Epsilon:      tier.Epsilon,
			EpsilonDecay: tier.EpsilonDecay,
			EpsilonFloor: tier.EpsilonFloor,
			LearningRate: tier.LearningRate,
		}),
		replay:    policy.NewReplayBuffer(cfg.Policy.ReplayCapacity),
		budget:    budget,
		rules:     NewRuleEngine(rng, DefaultRules(cfg.Rules)),
		adapter:   NewAdapter(budget, now),
		store:     opts.Store,
		out:       opts.Output,
		active:    true,
		training:  true,
		startedAt: now,
		rewardAvg: telemetry.NewRollingMean(50),
	}

	d.restoreModel()

	return d, nil
}

// restoreModel loads the tier's persisted model, if any.
func (d *Director) restoreModel() {
	if d.store == nil {
		return
	}
	blob, ok, err := d.store.Load(d.tierName)
	if err != nil {
		slog.Warn("model load failed, starting fresh", "tier", d.tierName, "error", err)
		return
	}
	if !ok {
		return
	}
	if err := d.bandit.Restore(blob); err != nil {
		slog.Warn("model restore failed, starting fresh", "tier", d.tierName, "error", err)
		return
	}
	slog.Info("model restored",
		"tier", d.tierName,
		"train_steps", d.bandit.TrainSteps(),
		"epsilon", d.bandit.Epsilon(),
	)
}

// SetActive pauses or resumes the director. While inactive, Update is a
// no-op.
func (d *Director) SetActive(active bool) {
	d.active = active
}

// SetTrainingMode enables or disables online training. Action selection
// still runs when training is off.
func (d *Director) SetTrainingMode(training bool) {
	d.training = training
}

// ResetRound restarts round-time progression, keeping learned state.
func (d *Director) ResetRound() {
	d.startedAt = d.now()
	d.hasPrev = false
}

// Update runs one frame of the director. Call once per frame from the host
// game loop; the director self-throttles to its decision interval and never
// panics into the caller.
func (d *Director) Update(p telemetry.PlayerView, e EnemySystem) {
	if !d.active {
		return
	}

	now := d.now()
	interval := time.Duration(d.tier.DecisionIntervalSec * float64(time.Second))
	if !d.lastCycle.IsZero() && now.Sub(d.lastCycle) < interval {
		return
	}
	d.lastCycle = now
	d.cycle++

	// 1. Observe.
	snap := telemetry.Build(p, e, d.timeProgress(now))

	// 2. Score the previous action against its consequence and learn.
	d.creditPrevious(snap)
	if d.training {
		d.trainStep()
	}

	// 3. Decide: strategic rules override the learned policy.
	action, source := d.selectAction(snap, e)

	// 4. Execute under the budget.
	executed := d.execute(action, e, now)
	if !executed {
		// The cheapest honest record of a failed spawn is "did nothing".
		action = ActionDoNothing
		source = source + ":skipped"
	}

	// 5. Remember the pair; its reward arrives next cycle.
	d.prevSnap = snap
	d.prevAction = action
	d.hasPrev = true

	// 6. Slow loop.
	d.adapter.Record(PerformanceScore(snap), now)
	if d.adapter.ShouldAdjust(now) {
		d.adapter.Adjust(now)
	}

	d.record(snap, action, source, e, now)
}

// timeProgress maps elapsed round time into [0,1].
func (d *Director) timeProgress(now time.Time) float64 {
	dur := d.cfg.Round.DurationSec
	if dur <= 0 {
		return 0
	}
	return now.Sub(d.startedAt).Seconds() / dur
}

// creditPrevious computes the delayed reward for the previous cycle's
// action and stores the experience. The pairing invariant: the reward for
// action A uses the snapshot taken immediately before A and the snapshot
// taken immediately before the next action, even when frames were skipped
// in between.
func (d *Director) creditPrevious(curr telemetry.Snapshot) {
	if !d.hasPrev {
		return
	}

	r := Reward(d.prevSnap, curr, d.tier)
	d.lastReward = r
	d.rewardAvg.Push(r)

	d.replay.Push(policy.Experience{
		State:  d.prevSnap.Vector(),
		Action: int(d.prevAction),
		Reward: r,
	})
}

// trainStep runs one mini-batch fit when enough experiences accumulated,
// and periodically persists the model.
func (d *Director) trainStep() {
	if d.replay.Len() < d.cfg.Policy.MinBuffer {
		return
	}

	batch := d.replay.Sample(d.rng, d.cfg.Policy.BatchSize)
	loss := d.bandit.TrainStep(batch)

	d.trainSinceSave++
	if d.store != nil && d.trainSinceSave >= d.cfg.Policy.SaveEveryTrainSteps {
		d.trainSinceSave = 0
		d.persistModel()
	}

	if d.bandit.TrainSteps()%100 == 0 {
		slog.Debug("training",
			"steps", d.bandit.TrainSteps(),
			"loss", loss,
			"epsilon", d.bandit.Epsilon(),
			"buffer", d.replay.Len(),
		)
	}
}

// persistModel snapshots the bandit and hands it to the async store.
func (d *Director) persistModel() {
	blob, err := d.bandit.Snapshot()
	if err != nil {
		slog.Warn("model snapshot failed", "tier", d.tierName, "error", err)
		return
	}
	d.store.Save(d.tierName, blob)
}

// selectAction picks the next action: rule override first, else
// epsilon-greedy over the bandit's value estimates.
func (d *Director) selectAction(snap telemetry.Snapshot, e EnemySystem) (Action, string) {
	if action, name, ok := d.rules.SelectOverride(snap, e); ok {
		return action, "rule:" + name
	}

	idx, explored := d.bandit.Choose(snap.Vector())
	action := Action(idx)
	if action < 0 || action >= Action(NumActions) {
		action = ActionDoNothing
	}
	if explored {
		return action, "explore"
	}
	return action, "exploit"
}

// execute carries out the action against the enemy system under the budget.
// Returns false when the action was skipped (unaffordable or the external
// call failed); failures degrade to inaction, never propagate.
func (d *Director) execute(action Action, e EnemySystem, now time.Time) bool {
	if action == ActionDoNothing {
		return true
	}

	plan := planFor(action, d.tier, d.cfg.Costs)

	d.budget.Regenerate(now)
	if !d.budget.Affordable(plan.Cost) {
		// Starvation guard: with almost no enemies alive and an empty
		// pool, the director would otherwise idle forever.
		if e.Count() < d.cfg.Budget.EmergencyEnemyFloor {
			d.budget.TriggerEmergency(now,
				d.cfg.Budget.EmergencyBonus,
				d.cfg.Budget.EmergencyMultiplier,
				time.Duration(d.cfg.Budget.EmergencyDurationSec*float64(time.Second)),
			)
			d.budget.Regenerate(now)
		}
		if !d.budget.Affordable(plan.Cost) {
			slog.Debug("action skipped, insufficient budget",
				"action", action.String(),
				"cost", plan.Cost,
				"budget", d.budget.Current(),
			)
			return false
		}
	}

	var err error
	if action == ActionIncreaseRate {
		err = e.IncreaseSpawnRate(10)
	} else {
		err = e.SpawnWave(plan.Type, plan.Count, plan.Placement)
	}
	if err != nil {
		slog.Warn("enemy system call failed", "action", action.String(), "error", err)
		return false
	}

	d.budget.Spend(plan.Cost)
	return true
}

// record emits the cycle's decision record to CSV and debug logs.
func (d *Director) record(snap telemetry.Snapshot, action Action, source string, e EnemySystem, now time.Time) {
	rec := telemetry.DecisionRecord{
		Cycle:         d.cycle,
		SimTimeSec:    now.Sub(d.startedAt).Seconds(),
		Tier:          d.tierName,
		Action:        action.String(),
		Source:        source,
		Reward:        d.lastReward,
		AvgReward:     d.rewardAvg.Mean(),
		Epsilon:       d.bandit.Epsilon(),
		BudgetCurrent: d.budget.Current(),
		BudgetMax:     d.budget.Max(),
		Emergency:     d.budget.EmergencyActive(now),
		Health:        snap.Health,
		Stress:        snap.Stress,
		Engagement:    snap.Engagement,
		EnemyCount:    e.Count(),
		Variety:       snap.VarietyCount(),
	}

	if err := d.out.WriteDecision(rec); err != nil {
		slog.Warn("decision log write failed", "error", err)
	}
	slog.Debug("decision", "record", rec)
}

// Status is a point-in-time summary for UI and telemetry display.
type Status struct {
	Tier      string
	Cycle     int
	Active    bool
	Training  bool
	Epsilon   float64
	AvgReward float64
	Budget    float64
	BudgetMax float64
	Buffer    int
	TrainSteps int
}

// Status reports the director's current state.
func (d *Director) Status() Status {
	return Status{
		Tier:       d.tierName,
		Cycle:      d.cycle,
		Active:     d.active,
		Training:   d.training,
		Epsilon:    d.bandit.Epsilon(),
		AvgReward:  d.rewardAvg.Mean(),
		Budget:     d.budget.Current(),
		BudgetMax:  d.budget.Max(),
		Buffer:     d.replay.Len(),
		TrainSteps: d.bandit.TrainSteps(),
	}
}

// String renders a one-line status summary.
func (s Status) String() string {
	return fmt.Sprintf("tier=%s cycle=%d eps=%.3f avg_reward=%.3f budget=%.0f/%.0f buffer=%d steps=%d",
		s.Tier, s.Cycle, s.Epsilon, s.AvgReward, s.Budget, s.BudgetMax, s.Buffer, s.TrainSteps)
}
