package telemetry

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// PerformanceWindow is a bounded rolling list of timestamped performance
// scores. Old entries drop off the front when the window is full.
type PerformanceWindow struct {
	maxLen  int
	times   []time.Time
	scores  []float64
	scratch []float64
}

// NewPerformanceWindow creates a window retaining at most maxLen samples.
func NewPerformanceWindow(maxLen int) *PerformanceWindow {
	if maxLen < 1 {
		maxLen = 20
	}
	return &PerformanceWindow{
		maxLen:  maxLen,
		times:   make([]time.Time, 0, maxLen),
		scores:  make([]float64, 0, maxLen),
		scratch: make([]float64, 0, maxLen),
	}
}

// Record appends a sample, evicting the oldest if the window is full.
func (w *PerformanceWindow) Record(score float64, now time.Time) {
	if len(w.scores) == w.maxLen {
		copy(w.times, w.times[1:])
		copy(w.scores, w.scores[1:])
		w.times = w.times[:w.maxLen-1]
		w.scores = w.scores[:w.maxLen-1]
	}
	w.times = append(w.times, now)
	w.scores = append(w.scores, score)
}

// Len returns the number of retained samples.
func (w *PerformanceWindow) Len() int {
	return len(w.scores)
}

// Mean returns the mean performance over the window, 0 if empty.
func (w *PerformanceWindow) Mean() float64 {
	if len(w.scores) == 0 {
		return 0
	}
	return stat.Mean(w.scores, nil)
}

// StdDev returns the sample standard deviation over the window, 0 if fewer
// than two samples.
func (w *PerformanceWindow) StdDev() float64 {
	if len(w.scores) < 2 {
		return 0
	}
	return stat.StdDev(w.scores, nil)
}

// Oldest returns the timestamp of the oldest retained sample.
func (w *PerformanceWindow) Oldest() (time.Time, bool) {
	if len(w.times) == 0 {
		return time.Time{}, false
	}
	return w.times[0], true
}

// RollingMean is a fixed-capacity ring of recent values, used for the
// director's rolling reward metric.
type RollingMean struct {
	buf   []float64
	head  int
	count int
}

// NewRollingMean creates a rolling mean over the last n values.
func NewRollingMean(n int) *RollingMean {
	if n < 1 {
		n = 50
	}
	return &RollingMean{buf: make([]float64, n)}
}

// Push adds a value, evicting the oldest when full.
func (r *RollingMean) Push(v float64) {
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// Mean returns the mean of retained values, 0 if empty.
func (r *RollingMean) Mean() float64 {
	if r.count == 0 {
		return 0
	}
	return stat.Mean(r.buf[:r.count], nil)
}

// Len returns the number of retained values.
func (r *RollingMean) Len() int {
	return r.count
}
