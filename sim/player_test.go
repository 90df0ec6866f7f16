package sim

import (
	"math/rand"
	"testing"
)

func TestScriptedPlayerStatsWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := NewScriptedPlayer(1000, 1000, 0.5, 1, rng)

	if p.DPS() != 0 || p.RecentDamage() != 0 {
		t.Fatal("fresh player has nonzero stats")
	}

	// Accumulate a window's worth of combat.
	for i := 0; i < 60; i++ { // 6 seconds at 0.1s steps
		p.takeDamage(1)
		p.creditDamage(2)
		p.step(0.1, 900, 900, 2000, 2000)
	}

	if p.RecentDamage() <= 0 {
		t.Error("damage taken not reflected after window rolled")
	}
	if p.DPS() <= 0 {
		t.Error("damage dealt not reflected after window rolled")
	}
	if p.RecentMovement() <= 0 {
		t.Error("movement not reflected after window rolled")
	}
}

func TestScriptedPlayerDeath(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := NewScriptedPlayer(1000, 1000, 0.5, 0, rng)

	p.takeDamage(1e9)
	if p.Alive() {
		t.Fatal("player alive after lethal damage")
	}
	if p.HealthFrac() != 0 {
		t.Errorf("health = %f after death, want 0", p.HealthFrac())
	}

	// Dead players do not move or regenerate.
	x0, y0 := p.Position()
	p.step(0.1, 900, 900, 2000, 2000)
	x1, y1 := p.Position()
	if x0 != x1 || y0 != y1 {
		t.Error("dead player moved")
	}
	if p.HealthFrac() != 0 {
		t.Error("dead player regenerated")
	}

	// Damage on a dead player is a no-op.
	p.takeDamage(10)
	if p.HealthFrac() != 0 {
		t.Error("damage applied to dead player")
	}
}

func TestScriptedPlayerArchetype(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	p := NewScriptedPlayer(0, 0, 0.5, 2, rng)
	oneHot := p.ArchetypeOneHot()
	if oneHot[2] != 1 || oneHot[0] != 0 || oneHot[1] != 0 {
		t.Errorf("one-hot = %v, want slot 2", oneHot)
	}

	// Out-of-range archetype falls back to 0.
	p = NewScriptedPlayer(0, 0, 0.5, 99, rng)
	if p.ArchetypeOneHot()[0] != 1 {
		t.Error("invalid archetype did not fall back to slot 0")
	}
}

func TestScriptedPlayerStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := NewScriptedPlayer(10, 10, 1.0, 0, rng)

	// Threat at the center pushes the player into the corner; the clamp
	// must hold it inside the arena.
	for i := 0; i < 500; i++ {
		p.step(0.1, 1000, 1000, 2000, 2000)
	}
	x, y := p.Position()
	if x < 0 || x > 2000 || y < 0 || y > 2000 {
		t.Errorf("player escaped the arena: (%f, %f)", x, y)
	}
}
