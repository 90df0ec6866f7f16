// Package telemetry converts raw player and enemy-system state into the
// normalized feature vectors the director's policy consumes, and records
// director activity for offline analysis.
package telemetry

// EnemyType identifies one spawnable enemy archetype.
type EnemyType uint8

const (
	EnemyGrunt EnemyType = iota
	EnemyRanged
	EnemyTank
	EnemySwarm

	enemyTypeCount
)

// NumEnemyTypes is the size of the closed enemy-type set.
const NumEnemyTypes = int(enemyTypeCount)

// String returns the enemy type name used in logs and CSV output.
func (t EnemyType) String() string {
	switch t {
	case EnemyGrunt:
		return "grunt"
	case EnemyRanged:
		return "ranged"
	case EnemyTank:
		return "tank"
	case EnemySwarm:
		return "swarm"
	default:
		return "unknown"
	}
}

// NumArchetypes is the number of player archetype one-hot slots.
const NumArchetypes = 3

// PlayerView is the read-only player state consumed by the aggregator.
// Implemented by the host game; all methods must be side-effect free.
type PlayerView interface {
	HealthFrac() float64       // [0,1]; 0 means dead
	DPS() float64              // Damage per second over a trailing window
	Position() (x, y float64)  // World units
	RecentDamage() float64     // Damage taken over a trailing window
	RecentMovement() float64   // Distance moved over a trailing window
	XPRate() float64           // Resource generation per second
	ArchetypeOneHot() [NumArchetypes]float64
	Alive() bool
}

// EnemyView is the read-only enemy-system state consumed by the aggregator.
type EnemyView interface {
	Count() int
	CountByType(t EnemyType) int
}
