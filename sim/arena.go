package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/overmind/director"
	"github.com/pthm-cable/overmind/telemetry"
)

// Contact range within which an enemy damages the player, in world units.
const contactRange = 25.0

// Range within which the player's attacks connect.
const attackRange = 180.0

// Arena is the headless battlefield. It owns the ECS world holding enemies,
// the scripted player, and a background trickle spawner whose rate the
// director can boost. It implements director.EnemySystem.
type Arena struct {
	world    *ecs.World
	mapper   *ecs.Map3[Position, Velocity, Enemy]
	filter   *ecs.Filter3[Position, Velocity, Enemy]
	enemyMap *ecs.Map1[Enemy]
	rng      *rand.Rand

	player *ScriptedPlayer

	width, height float64

	// Cached population counts, maintained on spawn and cleanup so the
	// director's per-cycle reads never walk the world.
	counts [telemetry.NumEnemyTypes]int
	total  int

	// Trickle spawner state.
	baseRate     float64 // Enemies per second
	rateMult     float64
	spawnCredit  float64
	maxEnemies   int
	totalSpawned int
	totalKilled  int
}

// NewArena creates an arena with the player at its center.
func NewArena(width, height float64, player *ScriptedPlayer, rng *rand.Rand) *Arena {
	world := ecs.NewWorld()
	return &Arena{
		world:      world,
		mapper:     ecs.NewMap3[Position, Velocity, Enemy](world),
		filter:     ecs.NewFilter3[Position, Velocity, Enemy](world),
		enemyMap:   ecs.NewMap1[Enemy](world),
		rng:        rng,
		player:     player,
		width:      width,
		height:     height,
		baseRate:   0.2,
		rateMult:   1.0,
		maxEnemies: 400,
	}
}

// Count implements telemetry.EnemyView.
func (a *Arena) Count() int {
	return a.total
}

// CountByType implements telemetry.EnemyView.
func (a *Arena) CountByType(t telemetry.EnemyType) int {
	if int(t) < 0 || int(t) >= telemetry.NumEnemyTypes {
		return 0
	}
	return a.counts[t]
}

// TotalSpawned returns the lifetime spawn count.
func (a *Arena) TotalSpawned() int { return a.totalSpawned }

// TotalKilled returns the lifetime kill count.
func (a *Arena) TotalKilled() int { return a.totalKilled }

// SpawnWave implements director.EnemySystem. Placement decides the spawn
// geometry around the player.
func (a *Arena) SpawnWave(t telemetry.EnemyType, count int, placement director.Placement) error {
	if count <= 0 {
		return fmt.Errorf("invalid wave count %d", count)
	}
	if a.total+count > a.maxEnemies {
		return fmt.Errorf("enemy cap reached (%d live)", a.total)
	}

	px, py := a.player.Position()

	switch placement {
	case director.PlacementFlank:
		// One cluster on a random side.
		angle := a.rng.Float64() * 2 * math.Pi
		for i := 0; i < count; i++ {
			r := 300 + a.rng.Float64()*60
			jitter := (a.rng.Float64() - 0.5) * 0.5
			a.spawnAt(t, px+r*math.Cos(angle+jitter), py+r*math.Sin(angle+jitter))
		}
	case director.PlacementAmbush:
		// Scattered far out, approaching from all directions.
		for i := 0; i < count; i++ {
			angle := a.rng.Float64() * 2 * math.Pi
			r := 450 + a.rng.Float64()*200
			a.spawnAt(t, px+r*math.Cos(angle), py+r*math.Sin(angle))
		}
	default:
		// Ring: evenly spaced circle.
		for i := 0; i < count; i++ {
			angle := 2 * math.Pi * float64(i) / float64(count)
			r := 350.0
			a.spawnAt(t, px+r*math.Cos(angle), py+r*math.Sin(angle))
		}
	}

	return nil
}

// IncreaseSpawnRate implements director.EnemySystem. Boosts the background
// trickle spawner by the given percentage, compounding, capped at 5x.
func (a *Arena) IncreaseSpawnRate(percent float64) error {
	if percent <= 0 {
		return fmt.Errorf("invalid rate increase %.1f%%", percent)
	}
	a.rateMult *= 1 + percent/100
	if a.rateMult > 5 {
		a.rateMult = 5
	}
	return nil
}

// SpawnRateMultiplier returns the current trickle-rate multiplier.
func (a *Arena) SpawnRateMultiplier() float64 {
	return a.rateMult
}

// spawnAt creates one enemy, clamped into the arena.
func (a *Arena) spawnAt(t telemetry.EnemyType, x, y float64) {
	pos := Position{
		X: math.Max(0, math.Min(a.width, x)),
		Y: math.Max(0, math.Min(a.height, y)),
	}
	vel := Velocity{}
	enemy := enemyStats(t)

	a.mapper.NewEntity(&pos, &vel, &enemy)
	a.counts[t]++
	a.total++
	a.totalSpawned++
}

// Step advances the arena by dt seconds: trickle spawns, enemy movement and
// contact damage, player attacks, then cleanup of the dead.
func (a *Arena) Step(dt float64) {
	a.trickle(dt)

	px, py := a.player.Position()

	// Enemies chase; track the threat centroid and the nearest target for
	// the player's scripted behavior.
	var threatX, threatY float64
	threatN := 0
	var nearest ecs.Entity
	nearestDist := math.MaxFloat64
	hasNearest := false

	query := a.filter.Query()
	for query.Next() {
		pos, vel, enemy := query.Get()
		if !enemy.Alive {
			continue
		}

		dx := px - pos.X
		dy := py - pos.Y
		dist := math.Hypot(dx, dy)

		if dist > contactRange && dist > 1e-6 {
			vel.X = dx / dist * enemy.Speed
			vel.Y = dy / dist * enemy.Speed
			pos.X += vel.X * dt
			pos.Y += vel.Y * dt
		} else {
			vel.X, vel.Y = 0, 0
			a.player.takeDamage(enemy.ContactDamage * dt)
		}

		threatX += pos.X
		threatY += pos.Y
		threatN++

		if dist < nearestDist {
			nearestDist = dist
			nearest = query.Entity()
			hasNearest = true
		}
	}

	// Player attacks the nearest enemy in range.
	if hasNearest && nearestDist <= attackRange && a.player.Alive() {
		enemy := a.enemyMap.Get(nearest)
		if enemy != nil && enemy.Alive {
			dmg := a.player.attackDamage() * dt
			enemy.HP -= dmg
			a.player.creditDamage(dmg)
			if enemy.HP <= 0 {
				enemy.Alive = false
			}
		}
	}

	// Player kites away from the threat centroid.
	if threatN > 0 {
		a.player.step(dt, threatX/float64(threatN), threatY/float64(threatN), a.width, a.height)
	} else {
		a.player.step(dt, px, py, a.width, a.height)
	}

	a.cleanup()
}

// trickle runs the background spawner: fractional credit accumulates and
// whole enemies spawn as grunts near the ambush ring.
func (a *Arena) trickle(dt float64) {
	a.spawnCredit += a.baseRate * a.rateMult * dt
	for a.spawnCredit >= 1 {
		a.spawnCredit--
		if a.total >= a.maxEnemies {
			return
		}
		px, py := a.player.Position()
		angle := a.rng.Float64() * 2 * math.Pi
		r := 500 + a.rng.Float64()*100
		a.spawnAt(telemetry.EnemyGrunt, px+r*math.Cos(angle), py+r*math.Sin(angle))
	}
}

// cleanup removes dead enemies. Collection completes before any removal so
// the query is never invalidated mid-iteration.
func (a *Arena) cleanup() {
	type deadInfo struct {
		entity ecs.Entity
		t      telemetry.EnemyType
	}
	var toRemove []deadInfo

	query := a.filter.Query()
	for query.Next() {
		_, _, enemy := query.Get()
		if !enemy.Alive {
			toRemove = append(toRemove, deadInfo{entity: query.Entity(), t: enemy.Type})
		}
	}

	for _, dead := range toRemove {
		a.mapper.Remove(dead.entity)
		a.counts[dead.t]--
		a.total--
		a.totalKilled++
		a.player.creditKill(enemyStats(dead.t))
	}
}
