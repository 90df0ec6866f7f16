package director

import (
	"log/slog"
	"time"
)

// Budget is the regenerating points pool gating spawn actions. All mutation
// happens through Regenerate/Spend/SetMax; `0 <= current <= max` always
// holds. Regeneration is computed lazily from elapsed wall-clock time, and
// the emergency boost expires via a stored timestamp checked on every
// Regenerate call rather than a scheduled callback.
type Budget struct {
	current    float64
	max        float64
	regenRate  float64 // points per second
	multiplier float64 // regen multiplier, 1.0 outside emergencies

	lastRegen      time.Time
	emergencyUntil time.Time
}

// NewBudget creates a full pool with the given ceiling and regen rate.
func NewBudget(max, regenRate float64, now time.Time) *Budget {
	if max < 0 {
		max = 0
	}
	return &Budget{
		current:    max,
		max:        max,
		regenRate:  regenRate,
		multiplier: 1.0,
		lastRegen:  now,
	}
}

// Regenerate applies passive regeneration for the time elapsed since the
// last call. Idempotent for a fixed now; call before every read or spend.
func (b *Budget) Regenerate(now time.Time) {
	// Expire the emergency boost first so the window never over-applies.
	if b.multiplier != 1.0 && !b.emergencyUntil.IsZero() && !now.Before(b.emergencyUntil) {
		b.multiplier = 1.0
		b.emergencyUntil = time.Time{}
		slog.Debug("emergency budget expired")
	}

	elapsed := now.Sub(b.lastRegen).Seconds()
	if elapsed <= 0 {
		return
	}
	b.lastRegen = now

	b.current += b.regenRate * b.multiplier * elapsed
	if b.current > b.max {
		b.current = b.max
	}
}

// Affordable reports whether the pool can cover cost.
func (b *Budget) Affordable(cost float64) bool {
	return cost <= b.current
}

// Spend deducts cost from the pool. No-ops when the pool cannot cover it;
// callers must affordability-check first.
func (b *Budget) Spend(cost float64) {
	if cost < 0 || cost > b.current {
		return
	}
	b.current -= cost
}

// TriggerEmergency injects a one-time bonus and boosts regeneration until
// now+duration. Returns false without effect if an emergency is already
// active.
func (b *Budget) TriggerEmergency(now time.Time, bonus, multiplier float64, duration time.Duration) bool {
	if b.EmergencyActive(now) {
		return false
	}

	b.current += bonus
	if b.current > b.max {
		b.current = b.max
	}
	b.multiplier = multiplier
	b.emergencyUntil = now.Add(duration)

	slog.Info("emergency budget activated",
		"bonus", bonus,
		"multiplier", multiplier,
		"until", b.emergencyUntil,
	)
	return true
}

// EmergencyActive reports whether the emergency boost window is open.
func (b *Budget) EmergencyActive(now time.Time) bool {
	return !b.emergencyUntil.IsZero() && now.Before(b.emergencyUntil)
}

// Multiplier returns the current regeneration multiplier.
func (b *Budget) Multiplier() float64 {
	return b.multiplier
}

// Current returns the available points.
func (b *Budget) Current() float64 {
	return b.current
}

// Max returns the pool ceiling.
func (b *Budget) Max() float64 {
	return b.max
}

// SetMax changes the pool ceiling, clamping current into the new bounds.
// Used by the difficulty adapter.
func (b *Budget) SetMax(max float64) {
	if max < 0 {
		max = 0
	}
	b.max = max
	if b.current > b.max {
		b.current = b.max
	}
}

// ScaleMax multiplies the ceiling by factor, clamped into [lo, hi].
func (b *Budget) ScaleMax(factor, lo, hi float64) {
	m := b.max * factor
	if m < lo {
		m = lo
	}
	if m > hi {
		m = hi
	}
	b.SetMax(m)
}
