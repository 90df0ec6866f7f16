// Package config provides configuration loading and access for the director.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all director configuration parameters.
type Config struct {
	World       WorldConfig           `yaml:"world"`
	Round       RoundConfig           `yaml:"round"`
	Telemetry   TelemetryConfig       `yaml:"telemetry"`
	Reward      RewardConfig          `yaml:"reward"`
	Budget      BudgetConfig          `yaml:"budget"`
	Costs       CostConfig            `yaml:"costs"`
	Policy      PolicyConfig          `yaml:"policy"`
	Rules       RulesConfig           `yaml:"rules"`
	Performance PerformanceConfig     `yaml:"performance"`
	Tiers       map[string]TierConfig `yaml:"tiers"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds arena dimensions used for position normalization.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// RoundConfig holds round timing parameters.
type RoundConfig struct {
	DurationSec float64 `yaml:"duration_sec"` // Full round length; drives time progression [0,1]
}

// TelemetryConfig holds the fixed reference scales used to normalize raw
// gameplay signals into [0,1] features. Keeping these constant makes the
// feature space stable across balance patches.
type TelemetryConfig struct {
	RefDPS            float64 `yaml:"ref_dps"`              // DPS divisor
	RefMovement       float64 `yaml:"ref_movement"`         // Movement distance divisor (per window)
	RefDamage         float64 `yaml:"ref_damage"`           // Recent damage divisor
	RefXPRate         float64 `yaml:"ref_xp_rate"`          // XP/sec divisor
	RefEnemiesPerType float64 `yaml:"ref_enemies_per_type"` // Per-type population divisor

	StressDamageWeight   float64 `yaml:"stress_damage_weight"`
	StressDensityWeight  float64 `yaml:"stress_density_weight"`
	EngageDPSWeight      float64 `yaml:"engage_dps_weight"`
	EngageMovementWeight float64 `yaml:"engage_movement_weight"`
}

// RewardConfig holds reward shaping weights. The magnitudes are tunable but
// the priority ordering is load-bearing: the death penalty must dominate the
// stress-match term, which must dominate engagement, which must dominate the
// variety bonus.
type RewardConfig struct {
	TightBand        float64 `yaml:"tight_band"` // |stress-target| <= this: full bonus
	LooseBand        float64 `yaml:"loose_band"` // |stress-target| <= this: partial bonus
	TightBonus       float64 `yaml:"tight_bonus"`
	LooseBonus       float64 `yaml:"loose_bonus"`
	MissPenalty      float64 `yaml:"miss_penalty"` // Flat penalty outside the loose band
	TrendBonus       float64 `yaml:"trend_bonus"`  // Stress moved toward target since prev
	EngagementWeight float64 `yaml:"engagement_weight"`
	VarietyBonus     float64 `yaml:"variety_bonus"`
	VarietyMinTypes  int     `yaml:"variety_min_types"`
	DeathPenalty     float64 `yaml:"death_penalty"` // Subtracted outright when the player dies
}

// BudgetConfig holds spawn budget and emergency escalation parameters.
type BudgetConfig struct {
	EmergencyEnemyFloor  int     `yaml:"emergency_enemy_floor"` // Trigger only when live enemies < this
	EmergencyBonus       float64 `yaml:"emergency_bonus"`       // One-time points injection
	EmergencyMultiplier  float64 `yaml:"emergency_multiplier"`  // Regen multiplier while active
	EmergencyDurationSec float64 `yaml:"emergency_duration_sec"`
	MinMax               float64 `yaml:"min_max"` // Adapter clamp: lowest allowed pool ceiling
	MaxMax               float64 `yaml:"max_max"` // Adapter clamp: highest allowed pool ceiling
}

// CostConfig holds per-action budget costs.
type CostConfig struct {
	Grunt     float64 `yaml:"grunt"`
	Ranged    float64 `yaml:"ranged"`
	Tank      float64 `yaml:"tank"`
	Swarm     float64 `yaml:"swarm"`
	RateBoost float64 `yaml:"rate_boost"`
}

// PolicyConfig holds bandit training parameters shared across tiers.
type PolicyConfig struct {
	ReplayCapacity      int `yaml:"replay_capacity"`
	BatchSize           int `yaml:"batch_size"`
	MinBuffer           int `yaml:"min_buffer"` // No training until this many experiences
	SaveEveryTrainSteps int `yaml:"save_every_train_steps"`
}

// RulesConfig holds strategic rule thresholds.
type RulesConfig struct {
	CoastTime        float64 `yaml:"coast_time"` // Round progression after which coasting is punished
	CoastStress      float64 `yaml:"coast_stress"`
	CoastHealth      float64 `yaml:"coast_health"`
	MercyHealth      float64 `yaml:"mercy_health"`      // Back off below this health fraction
	TurtleEngagement float64 `yaml:"turtle_engagement"` // Passive-play detection
	TurtleStress     float64 `yaml:"turtle_stress"`
}

// PerformanceConfig holds the difficulty adapter's rolling window settings.
type PerformanceConfig struct {
	Window            int     `yaml:"window"`      // Max samples retained
	MinSamples        int     `yaml:"min_samples"` // No adjustment below this
	HealthWeight      float64 `yaml:"health_weight"`
	EngagementWeight  float64 `yaml:"engagement_weight"`
	AdjustFloor       float64 `yaml:"adjust_floor"`   // Mean performance below this: ease off
	AdjustCeiling     float64 `yaml:"adjust_ceiling"` // Mean performance above this: push harder
	AdjustStep        float64 `yaml:"adjust_step"`    // Fractional budget-max change per adjustment
	AdjustDebounceSec float64 `yaml:"adjust_debounce_sec"`
}

// TierConfig is the per-difficulty tuning bundle. Selected once per game or
// difficulty switch; immutable during a decision cycle.
type TierConfig struct {
	TargetStress        float64 `yaml:"target_stress"`
	Epsilon             float64 `yaml:"epsilon"`
	EpsilonDecay        float64 `yaml:"epsilon_decay"`
	EpsilonFloor        float64 `yaml:"epsilon_floor"`
	LearningRate        float64 `yaml:"learning_rate"`
	DecisionIntervalSec float64 `yaml:"decision_interval_sec"`
	Aggressiveness      float64 `yaml:"aggressiveness"` // Scales spawn counts
	RewardMultiplier    float64 `yaml:"reward_multiplier"`
	BudgetMax           float64 `yaml:"budget_max"`
	BudgetRegen         float64 `yaml:"budget_regen"` // Points per second
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	TierNames   []string // Sorted tier names for deterministic iteration
	DefaultTier string
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Tier looks up a difficulty tier by name.
func (c *Config) Tier(name string) (TierConfig, error) {
	tier, ok := c.Tiers[name]
	if !ok {
		return TierConfig{}, fmt.Errorf("unknown difficulty tier %q", name)
	}
	return tier, nil
}

// computeDerived calculates values derived from loaded config and validates
// the parts the director cannot degrade gracefully without.
func (c *Config) computeDerived() error {
	if len(c.Tiers) == 0 {
		return fmt.Errorf("config: no difficulty tiers defined")
	}

	names := make([]string, 0, len(c.Tiers))
	for name := range c.Tiers {
		names = append(names, name)
	}
	// Stable order for logs and tooling
	sort.Strings(names)
	c.Derived.TierNames = names

	c.Derived.DefaultTier = "medium"
	if _, ok := c.Tiers[c.Derived.DefaultTier]; !ok {
		c.Derived.DefaultTier = names[0]
	}

	// Apply tier fallbacks so a sparse user override stays usable
	for name, tier := range c.Tiers {
		if tier.RewardMultiplier == 0 {
			tier.RewardMultiplier = 1.0
		}
		if tier.Aggressiveness == 0 {
			tier.Aggressiveness = 1.0
		}
		if tier.DecisionIntervalSec == 0 {
			tier.DecisionIntervalSec = 3.0
		}
		c.Tiers[name] = tier
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
