package director

import (
	"fmt"
	"testing"
	"time"

	"github.com/pthm-cable/overmind/telemetry"
)

// stubPlayer is a fixed-state telemetry.PlayerView.
type stubPlayer struct {
	health     float64
	stressish  float64
	engagement float64
}

func (s stubPlayer) HealthFrac() float64      { return s.health }
func (s stubPlayer) DPS() float64             { return s.engagement * 100 }
func (s stubPlayer) Position() (x, y float64) { return 1000, 1000 }
func (s stubPlayer) RecentDamage() float64    { return s.stressish * 50 }
func (s stubPlayer) RecentMovement() float64  { return s.engagement * 1000 }
func (s stubPlayer) XPRate() float64          { return 10 }
func (s stubPlayer) Alive() bool              { return s.health > 0 }

func (s stubPlayer) ArchetypeOneHot() [telemetry.NumArchetypes]float64 {
	return [telemetry.NumArchetypes]float64{1, 0, 0}
}

// stubEnemies records director commands.
type stubEnemies struct {
	counts     [telemetry.NumEnemyTypes]int
	spawnCalls int
	rateCalls  int
	failSpawns bool
}

func (s *stubEnemies) Count() int {
	n := 0
	for _, c := range s.counts {
		n += c
	}
	return n
}

func (s *stubEnemies) CountByType(t telemetry.EnemyType) int {
	if int(t) < 0 || int(t) >= telemetry.NumEnemyTypes {
		return 0
	}
	return s.counts[t]
}

func (s *stubEnemies) SpawnWave(t telemetry.EnemyType, count int, _ Placement) error {
	if s.failSpawns {
		return fmt.Errorf("spawn rejected")
	}
	s.spawnCalls++
	s.counts[t] += count
	return nil
}

func (s *stubEnemies) IncreaseSpawnRate(_ float64) error {
	if s.failSpawns {
		return fmt.Errorf("rate boost rejected")
	}
	s.rateCalls++
	return nil
}

// testDirector builds a director on a controllable clock.
func testDirector(t *testing.T) (*Director, *time.Time) {
	t.Helper()
	now := time.Unix(0, 0)
	d, err := New(Options{
		TierName: "medium",
		Seed:     42,
		Clock:    func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d, &now
}

func TestDirectorIntervalGate(t *testing.T) {
	d, now := testDirector(t)
	p := stubPlayer{health: 0.8, stressish: 0.5, engagement: 0.5}
	e := &stubEnemies{counts: [telemetry.NumEnemyTypes]int{5}}

	// Many frames inside one decision interval run exactly one cycle.
	for i := 0; i < 10; i++ {
		d.Update(p, e)
	}
	if got := d.Status().Cycle; got != 1 {
		t.Fatalf("cycles = %d after burst at t=0, want 1", got)
	}

	// Advancing less than the interval still does nothing.
	*now = now.Add(time.Second)
	d.Update(p, e)
	if got := d.Status().Cycle; got != 1 {
		t.Fatalf("cycles = %d at t=1s, want 1", got)
	}

	// Past the tier's interval a second cycle runs.
	*now = now.Add(3 * time.Second)
	d.Update(p, e)
	if got := d.Status().Cycle; got != 2 {
		t.Fatalf("cycles = %d at t=4s, want 2", got)
	}
}

func TestDirectorInactiveNoOp(t *testing.T) {
	d, now := testDirector(t)
	p := stubPlayer{health: 0.8, stressish: 0.5, engagement: 0.5}
	e := &stubEnemies{counts: [telemetry.NumEnemyTypes]int{5}}

	d.SetActive(false)
	for i := 0; i < 5; i++ {
		d.Update(p, e)
		*now = now.Add(10 * time.Second)
	}

	if got := d.Status().Cycle; got != 0 {
		t.Errorf("cycles = %d while inactive, want 0", got)
	}
	if e.spawnCalls != 0 || e.rateCalls != 0 {
		t.Error("inactive director issued commands")
	}

	d.SetActive(true)
	d.Update(p, e)
	if got := d.Status().Cycle; got != 1 {
		t.Errorf("cycles = %d after reactivation, want 1", got)
	}
}

func TestDirectorDelayedRewardPairing(t *testing.T) {
	d, now := testDirector(t)
	p := stubPlayer{health: 0.8, stressish: 0.5, engagement: 0.5}
	e := &stubEnemies{counts: [telemetry.NumEnemyTypes]int{5}}

	// First cycle has no previous pair, so the buffer stays empty.
	d.Update(p, e)
	if got := d.Status().Buffer; got != 0 {
		t.Fatalf("buffer = %d after first cycle, want 0", got)
	}

	// Each later cycle credits exactly the one pending pair, even when many
	// frames were skipped in between.
	for i := 1; i <= 5; i++ {
		*now = now.Add(10 * time.Second)
		d.Update(p, e) // decision frame
		d.Update(p, e) // skipped frame
		d.Update(p, e) // skipped frame
		if got := d.Status().Buffer; got != i {
			t.Fatalf("buffer = %d after cycle %d, want %d", got, i+1, i)
		}
	}
}

func TestDirectorMercyOverride(t *testing.T) {
	d, now := testDirector(t)
	// Near-death player with enemies present: every cycle must pick the
	// mercy rule and spawn nothing.
	p := stubPlayer{health: 0.05, stressish: 0.2, engagement: 0.2}
	e := &stubEnemies{counts: [telemetry.NumEnemyTypes]int{8}}

	for i := 0; i < 10; i++ {
		d.Update(p, e)
		*now = now.Add(10 * time.Second)
	}

	if e.spawnCalls != 0 || e.rateCalls != 0 {
		t.Errorf("director attacked a dying player: %d spawns, %d rate boosts",
			e.spawnCalls, e.rateCalls)
	}
}

func TestDirectorSurvivesEnemySystemFailure(t *testing.T) {
	d, now := testDirector(t)
	p := stubPlayer{health: 0.9, stressish: 0.5, engagement: 0.5}
	e := &stubEnemies{counts: [telemetry.NumEnemyTypes]int{5}, failSpawns: true}

	// Failing spawns must degrade to inaction, never panic, and never
	// drain the budget.
	before := d.Status().Budget
	for i := 0; i < 10; i++ {
		d.Update(p, e)
		*now = now.Add(10 * time.Second)
	}

	if d.Status().Budget < before {
		t.Errorf("budget dropped from %f to %f despite failed spawns",
			before, d.Status().Budget)
	}
}

func TestDirectorStatusString(t *testing.T) {
	d, _ := testDirector(t)
	s := d.Status()
	if s.Tier != "medium" {
		t.Errorf("tier = %q, want medium", s.Tier)
	}
	if s.String() == "" {
		t.Error("empty status string")
	}
}
