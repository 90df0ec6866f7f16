package director

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/overmind/config"
	"github.com/pthm-cable/overmind/telemetry"
)

// Adapter is the slow outer difficulty loop. It watches aggregate player
// performance over a rolling window and nudges the budget ceiling to keep
// performance inside the target band. It never touches the per-action
// policy, so the fast and slow loops cannot fight each other directly.
type Adapter struct {
	window *telemetry.PerformanceWindow
	budget *Budget

	perf   config.PerformanceConfig
	bounds config.BudgetConfig

	lastAdjust time.Time
}

// NewAdapter creates an adapter steering the given budget.
func NewAdapter(budget *Budget, now time.Time) *Adapter {
	cfg := config.Cfg()
	return &Adapter{
		window:     telemetry.NewPerformanceWindow(cfg.Performance.Window),
		budget:     budget,
		perf:       cfg.Performance,
		bounds:     cfg.Budget,
		lastAdjust: now,
	}
}

// Record feeds one performance sample into the rolling window.
func (a *Adapter) Record(score float64, now time.Time) {
	a.window.Record(score, now)
}

// ShouldAdjust reports whether an adjustment is due: enough samples in the
// window and enough wall-clock time since the last adjustment (debounce).
func (a *Adapter) ShouldAdjust(now time.Time) bool {
	if a.window.Len() < a.perf.MinSamples {
		return false
	}
	debounce := time.Duration(a.perf.AdjustDebounceSec * float64(time.Second))
	return now.Sub(a.lastAdjust) >= debounce
}

// Adjust compares the window's mean performance to the target band and
// scales the budget ceiling: struggling players get a smaller pool,
// dominating players a bigger one. No-op inside the band.
func (a *Adapter) Adjust(now time.Time) {
	mean := a.window.Mean()
	a.lastAdjust = now

	switch {
	case mean < a.perf.AdjustFloor:
		a.budget.ScaleMax(1-a.perf.AdjustStep, a.bounds.MinMax, a.bounds.MaxMax)
		slog.Info("difficulty eased",
			"mean_performance", mean,
			"budget_max", a.budget.Max(),
		)
	case mean > a.perf.AdjustCeiling:
		a.budget.ScaleMax(1+a.perf.AdjustStep, a.bounds.MinMax, a.bounds.MaxMax)
		slog.Info("difficulty raised",
			"mean_performance", mean,
			"budget_max", a.budget.Max(),
		)
	}
}

// WindowMean exposes the current rolling mean for status reporting.
func (a *Adapter) WindowMean() float64 {
	return a.window.Mean()
}
