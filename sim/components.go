// Package sim is a headless arena used to train and evaluate the director
// without a real game attached. A scripted player fights ECS-backed enemies
// in a closed loop: the director spawns waves, enemies press the player, the
// player kites and kills them.
package sim

import (
	"github.com/pthm-cable/overmind/telemetry"
)

// Position is a 2D world position.
type Position struct {
	X, Y float64
}

// Velocity is a 2D velocity in world units per second.
type Velocity struct {
	X, Y float64
}

// Enemy holds the combat state of one live enemy.
type Enemy struct {
	Type          telemetry.EnemyType
	HP            float64
	MaxHP         float64
	Speed         float64 // World units per second
	ContactDamage float64 // Damage per second while in contact range
	Alive         bool
}

// enemyStats returns the base combat profile for a type. Tanks are slow and
// hard to kill, swarm units are fast and fragile.
func enemyStats(t telemetry.EnemyType) Enemy {
	switch t {
	case telemetry.EnemyRanged:
		return Enemy{Type: t, HP: 30, MaxHP: 30, Speed: 70, ContactDamage: 12, Alive: true}
	case telemetry.EnemyTank:
		return Enemy{Type: t, HP: 220, MaxHP: 220, Speed: 40, ContactDamage: 20, Alive: true}
	case telemetry.EnemySwarm:
		return Enemy{Type: t, HP: 12, MaxHP: 12, Speed: 130, ContactDamage: 5, Alive: true}
	default:
		return Enemy{Type: telemetry.EnemyGrunt, HP: 50, MaxHP: 50, Speed: 90, ContactDamage: 8, Alive: true}
	}
}
