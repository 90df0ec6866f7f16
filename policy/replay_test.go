package policy

import (
	"math/rand"
	"testing"
)

func exp(action int, reward float64) Experience {
	return Experience{State: []float32{float32(action)}, Action: action, Reward: reward}
}

func TestReplayBufferCapacity(t *testing.T) {
	rb := NewReplayBuffer(10)

	for i := 0; i < 25; i++ {
		rb.Push(exp(i, float64(i)))
	}

	if rb.Len() != 10 {
		t.Errorf("Len = %d, want 10", rb.Len())
	}
	if rb.Cap() != 10 {
		t.Errorf("Cap = %d, want 10", rb.Cap())
	}
}

func TestReplayBufferFIFO(t *testing.T) {
	rb := NewReplayBuffer(5)

	for i := 0; i < 5; i++ {
		rb.Push(exp(i, 0))
	}
	oldest, ok := rb.Oldest()
	if !ok || oldest.Action != 0 {
		t.Fatalf("oldest = %v, want action 0", oldest)
	}

	// One more push evicts the oldest
	rb.Push(exp(5, 0))
	oldest, ok = rb.Oldest()
	if !ok || oldest.Action != 1 {
		t.Errorf("oldest after eviction = %v, want action 1", oldest)
	}
	if rb.Len() != 5 {
		t.Errorf("Len = %d, want 5", rb.Len())
	}
}

func TestReplayBufferSample(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	rb := NewReplayBuffer(100)

	for i := 0; i < 50; i++ {
		rb.Push(exp(i, 0))
	}

	batch := rb.Sample(rng, 32)
	if len(batch) != 32 {
		t.Fatalf("batch size = %d, want 32", len(batch))
	}

	// Samples must be distinct
	seen := make(map[int]bool)
	for _, e := range batch {
		if seen[e.Action] {
			t.Errorf("duplicate experience %d in sample", e.Action)
		}
		seen[e.Action] = true
	}
}

func TestReplayBufferSampleUnderfilled(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	rb := NewReplayBuffer(100)

	rb.Push(exp(0, 0))
	rb.Push(exp(1, 0))

	batch := rb.Sample(rng, 32)
	if len(batch) != 2 {
		t.Errorf("batch size = %d, want 2", len(batch))
	}

	if rb.Sample(rng, 0) != nil {
		t.Error("sampling 0 should return nil")
	}
}
