package policy

import "math/rand"

// Experience is one (state, action, reward) training example. The reward is
// observed one decision cycle after the action executed.
type Experience struct {
	State  []float32
	Action int
	Reward float64
}

// ReplayBuffer is a fixed-capacity ring buffer of experiences. Oldest
// entries are evicted first; eviction is O(1).
type ReplayBuffer struct {
	buf   []Experience
	head  int // next write position
	count int
}

// NewReplayBuffer creates a buffer holding at most capacity experiences.
func NewReplayBuffer(capacity int) *ReplayBuffer {
	if capacity < 1 {
		capacity = 500
	}
	return &ReplayBuffer{buf: make([]Experience, capacity)}
}

// Push appends an experience, overwriting the oldest when full.
func (rb *ReplayBuffer) Push(e Experience) {
	rb.buf[rb.head] = e
	rb.head = (rb.head + 1) % len(rb.buf)
	if rb.count < len(rb.buf) {
		rb.count++
	}
}

// Len returns the number of stored experiences.
func (rb *ReplayBuffer) Len() int {
	return rb.count
}

// Cap returns the buffer capacity.
func (rb *ReplayBuffer) Cap() int {
	return len(rb.buf)
}

// Oldest returns the least recently pushed experience.
func (rb *ReplayBuffer) Oldest() (Experience, bool) {
	if rb.count == 0 {
		return Experience{}, false
	}
	if rb.count < len(rb.buf) {
		return rb.buf[0], true
	}
	return rb.buf[rb.head], true
}

// Sample draws n distinct experiences uniformly at random. Random sampling
// (rather than the n most recent) decorrelates sequential experiences. If
// fewer than n are stored, all stored experiences are returned in random
// order.
func (rb *ReplayBuffer) Sample(rng *rand.Rand, n int) []Experience {
	if n > rb.count {
		n = rb.count
	}
	if n == 0 {
		return nil
	}

	out := make([]Experience, 0, n)
	for _, idx := range rng.Perm(rb.count)[:n] {
		out = append(out, rb.buf[idx])
	}
	return out
}
