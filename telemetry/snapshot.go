package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/overmind/config"
)

// NumFeatures is the fixed length of the policy input vector. Must match
// policy.NumInputs.
const NumFeatures = NumArchetypes + 8 + NumEnemyTypes + 2

// Snapshot is one normalized observation of the game, taken once per
// decision cycle. Immutable once produced; every field lies in [0,1].
type Snapshot struct {
	Archetype [NumArchetypes]float64

	Health         float64
	DPS            float64
	PosX           float64
	PosY           float64
	RecentDamage   float64
	RecentMovement float64
	XPRate         float64
	TimeProgress   float64

	EnemyCounts [NumEnemyTypes]float64

	// Derived scalars. Stress approximates challenge pressure (damage taken
	// plus enemy density); engagement approximates player activity (output
	// DPS plus movement).
	Stress     float64
	Engagement float64
}

// Build produces a Snapshot from the host views. Pure read: no side effects
// on either view. Raw values are divided by the fixed reference scales from
// config and clamped, so a malformed or out-of-range input degrades to a
// saturated feature instead of propagating.
func Build(p PlayerView, e EnemyView, timeProgress float64) Snapshot {
	cfg := config.Cfg()
	tc := cfg.Telemetry

	s := Snapshot{
		Archetype:    p.ArchetypeOneHot(),
		Health:       clamp01(p.HealthFrac()),
		DPS:          clamp01(safeDiv(p.DPS(), tc.RefDPS)),
		RecentDamage: clamp01(safeDiv(p.RecentDamage(), tc.RefDamage)),
		XPRate:       clamp01(safeDiv(p.XPRate(), tc.RefXPRate)),
		TimeProgress: clamp01(timeProgress),
	}
	for i := range s.Archetype {
		s.Archetype[i] = clamp01(s.Archetype[i])
	}

	x, y := p.Position()
	s.PosX = clamp01(safeDiv(x, cfg.World.Width))
	s.PosY = clamp01(safeDiv(y, cfg.World.Height))
	s.RecentMovement = clamp01(safeDiv(p.RecentMovement(), tc.RefMovement))

	var density float64
	for t := 0; t < NumEnemyTypes; t++ {
		c := clamp01(safeDiv(float64(e.CountByType(EnemyType(t))), tc.RefEnemiesPerType))
		s.EnemyCounts[t] = c
		density += c
	}
	density = clamp01(density / float64(NumEnemyTypes))

	s.Stress = clamp01(tc.StressDamageWeight*s.RecentDamage + tc.StressDensityWeight*density)
	s.Engagement = clamp01(tc.EngageDPSWeight*s.DPS + tc.EngageMovementWeight*s.RecentMovement)

	return s
}

// Vector flattens the snapshot into the fixed-length float32 feature vector
// the policy network consumes. The layout is stable; PadVector guards the
// length defensively.
func (s Snapshot) Vector() []float32 {
	v := make([]float32, 0, NumFeatures)
	for _, a := range s.Archetype {
		v = append(v, float32(a))
	}
	v = append(v,
		float32(s.Health),
		float32(s.DPS),
		float32(s.PosX),
		float32(s.PosY),
		float32(s.RecentDamage),
		float32(s.RecentMovement),
		float32(s.XPRate),
		float32(s.TimeProgress),
	)
	for _, c := range s.EnemyCounts {
		v = append(v, float32(c))
	}
	v = append(v, float32(s.Stress), float32(s.Engagement))
	return PadVector(v)
}

// VarietyCount returns how many distinct enemy types are currently present.
func (s Snapshot) VarietyCount() int {
	n := 0
	for _, c := range s.EnemyCounts {
		if c > 0 {
			n++
		}
	}
	return n
}

// PadVector pads or truncates v to exactly NumFeatures entries.
func PadVector(v []float32) []float32 {
	if len(v) == NumFeatures {
		return v
	}
	out := make([]float32, NumFeatures)
	copy(out, v)
	return out
}

// LogValue implements slog.LogValuer for structured logging.
func (s Snapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("health", s.Health),
		slog.Float64("dps", s.DPS),
		slog.Float64("damage", s.RecentDamage),
		slog.Float64("movement", s.RecentMovement),
		slog.Float64("xp_rate", s.XPRate),
		slog.Float64("time", s.TimeProgress),
		slog.Float64("stress", s.Stress),
		slog.Float64("engagement", s.Engagement),
		slog.Int("variety", s.VarietyCount()),
	)
}

// clamp01 clamps x into [0,1]. NaN collapses to 0.
func clamp01(x float64) float64 {
	if x != x || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// safeDiv divides guarding against zero or negative reference scales.
func safeDiv(x, ref float64) float64 {
	if ref <= 0 {
		return 0
	}
	return x / ref
}
