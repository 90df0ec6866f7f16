package sim

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/overmind/telemetry"
)

// Trailing-window length for DPS, damage taken and movement stats.
const statWindowSec = 5.0

// ScriptedPlayer is a deterministic stand-in for a human player. It kites
// away from the nearest enemy cluster, deals damage to whatever is closest,
// and slowly regenerates. Skill scales its damage output and dodge speed so
// training runs can model weak and strong players.
type ScriptedPlayer struct {
	pos       Position
	maxHealth float64
	health    float64
	skill     float64 // [0,1]; scales damage output and move speed
	archetype int
	rng       *rand.Rand

	// Current-window accumulators, rolled into the published stats every
	// statWindowSec seconds.
	windowElapsed float64
	dmgDealt      float64
	dmgTaken      float64
	moved         float64
	xpGained      float64

	recentDPS      float64
	recentDamage   float64
	recentMovement float64
	recentXPRate   float64
}

// NewScriptedPlayer creates a player at the given position. Archetype is an
// index into the archetype one-hot slots; skill in [0,1].
func NewScriptedPlayer(x, y, skill float64, archetype int, rng *rand.Rand) *ScriptedPlayer {
	if archetype < 0 || archetype >= telemetry.NumArchetypes {
		archetype = 0
	}
	return &ScriptedPlayer{
		pos:       Position{X: x, Y: y},
		maxHealth: 100,
		health:    100,
		skill:     clamp01(skill),
		archetype: archetype,
		rng:       rng,
	}
}

// HealthFrac implements telemetry.PlayerView.
func (p *ScriptedPlayer) HealthFrac() float64 {
	return p.health / p.maxHealth
}

func (p *ScriptedPlayer) DPS() float64            { return p.recentDPS }
func (p *ScriptedPlayer) RecentDamage() float64   { return p.recentDamage }
func (p *ScriptedPlayer) RecentMovement() float64 { return p.recentMovement }
func (p *ScriptedPlayer) XPRate() float64         { return p.recentXPRate }
func (p *ScriptedPlayer) Alive() bool             { return p.health > 0 }

func (p *ScriptedPlayer) Position() (x, y float64) {
	return p.pos.X, p.pos.Y
}

func (p *ScriptedPlayer) ArchetypeOneHot() [telemetry.NumArchetypes]float64 {
	var out [telemetry.NumArchetypes]float64
	out[p.archetype] = 1
	return out
}

// attackDamage is the damage dealt per second, scaled by skill.
func (p *ScriptedPlayer) attackDamage() float64 {
	return 15 + 35*p.skill
}

// moveSpeed in world units per second.
func (p *ScriptedPlayer) moveSpeed() float64 {
	return 100 + 80*p.skill
}

// takeDamage applies incoming damage and tracks it for the stress signals.
func (p *ScriptedPlayer) takeDamage(amount float64) {
	if amount <= 0 || p.health <= 0 {
		return
	}
	p.health -= amount
	if p.health < 0 {
		p.health = 0
	}
	p.dmgTaken += amount
}

// step advances the player by dt seconds: kite away from the threat
// direction, regenerate, and roll the stat window.
func (p *ScriptedPlayer) step(dt, threatX, threatY, worldW, worldH float64) {
	if p.health <= 0 {
		p.rollWindow(dt)
		return
	}

	// Move directly away from the threat centroid, with a little jitter so
	// the path doesn't pin against a wall.
	dx := p.pos.X - threatX
	dy := p.pos.Y - threatY
	dist := math.Hypot(dx, dy)
	if dist > 1e-6 {
		speed := p.moveSpeed()
		nx := dx/dist + (p.rng.Float64()-0.5)*0.4
		ny := dy/dist + (p.rng.Float64()-0.5)*0.4
		p.pos.X += nx * speed * dt
		p.pos.Y += ny * speed * dt
		p.moved += math.Hypot(nx*speed*dt, ny*speed*dt)
	}

	// Clamp to the arena.
	p.pos.X = math.Max(0, math.Min(worldW, p.pos.X))
	p.pos.Y = math.Max(0, math.Min(worldH, p.pos.Y))

	// Passive regen, slower at low skill.
	p.health += (1 + 2*p.skill) * dt
	if p.health > p.maxHealth {
		p.health = p.maxHealth
	}

	p.rollWindow(dt)
}

// creditKill awards XP for a killed enemy.
func (p *ScriptedPlayer) creditKill(e Enemy) {
	p.xpGained += e.MaxHP * 0.5
}

// creditDamage records damage the player dealt this step.
func (p *ScriptedPlayer) creditDamage(amount float64) {
	p.dmgDealt += amount
}

// rollWindow publishes the accumulators as per-second rates once the window
// fills.
func (p *ScriptedPlayer) rollWindow(dt float64) {
	p.windowElapsed += dt
	if p.windowElapsed < statWindowSec {
		return
	}
	p.recentDPS = p.dmgDealt / p.windowElapsed
	p.recentDamage = p.dmgTaken
	p.recentMovement = p.moved
	p.recentXPRate = p.xpGained / p.windowElapsed

	p.windowElapsed = 0
	p.dmgDealt = 0
	p.dmgTaken = 0
	p.moved = 0
	p.xpGained = 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
