package policy

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Options configures a Bandit. Values come from the active difficulty tier.
type Options struct {
	Epsilon      float64 // Initial exploration probability
	EpsilonDecay float64 // Multiplied in after each exploratory pick
	EpsilonFloor float64 // Epsilon never decays below this
	LearningRate float64
}

// Bandit is an epsilon-greedy contextual bandit over a shared FFNN value
// model. Each action's value is the expected immediate reward given the
// state; there is no multi-step return or discounting.
type Bandit struct {
	net *FFNN
	rng *rand.Rand

	epsilon      float64
	epsilonDecay float64
	epsilonFloor float64
	lr           float32

	trainSteps int
}

// NewBandit creates a bandit with a freshly initialized value network.
func NewBandit(rng *rand.Rand, opts Options) *Bandit {
	if opts.EpsilonDecay <= 0 || opts.EpsilonDecay > 1 {
		opts.EpsilonDecay = 0.995
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = 0.01
	}
	return &Bandit{
		net:          NewFFNN(rng),
		rng:          rng,
		epsilon:      opts.Epsilon,
		epsilonDecay: opts.EpsilonDecay,
		epsilonFloor: opts.EpsilonFloor,
		lr:           float32(opts.LearningRate),
	}
}

// Choose selects an action index for the given state. With probability
// epsilon it explores uniformly at random (decaying epsilon toward the
// floor after each exploratory step); otherwise it exploits the arg-max of
// the predicted per-action rewards.
func (b *Bandit) Choose(state []float32) (action int, explored bool) {
	if b.rng.Float64() < b.epsilon {
		b.epsilon *= b.epsilonDecay
		if b.epsilon < b.epsilonFloor {
			b.epsilon = b.epsilonFloor
		}
		return b.rng.Intn(NumOutputs), true
	}

	preds := b.net.Forward(state)
	vals := make([]float64, NumOutputs)
	for i, p := range preds {
		vals[i] = float64(p)
	}
	return floats.MaxIdx(vals), false
}

// Predict returns the current per-action value estimates for a state.
func (b *Bandit) Predict(state []float32) [NumOutputs]float32 {
	return b.net.Forward(state)
}

// TrainStep fits the model against a batch of experiences and returns the
// mean loss. For each experience the current prediction row is taken and
// only the taken action's column is overwritten with the observed reward,
// so untaken actions' estimates are left untouched in the target.
func (b *Bandit) TrainStep(batch []Experience) float64 {
	if len(batch) == 0 {
		return 0
	}

	var total float32
	for _, exp := range batch {
		target := b.net.Forward(exp.State)
		if exp.Action >= 0 && exp.Action < NumOutputs {
			target[exp.Action] = float32(exp.Reward)
		}
		total += b.net.Fit(exp.State, target, b.lr)
	}
	b.trainSteps++

	return float64(total) / float64(len(batch))
}

// Epsilon returns the current exploration probability.
func (b *Bandit) Epsilon() float64 {
	return b.epsilon
}

// TrainSteps returns how many training steps have run.
func (b *Bandit) TrainSteps() int {
	return b.trainSteps
}

// ModelState is the serialized form of a trained bandit, persisted per
// difficulty tier.
type ModelState struct {
	Weights    ModelWeights `json:"weights"`
	Epsilon    float64      `json:"epsilon"`
	TrainSteps int          `json:"train_steps"`
}

// Snapshot serializes the bandit's trained state.
func (b *Bandit) Snapshot() ([]byte, error) {
	state := ModelState{
		Weights:    b.net.MarshalWeights(),
		Epsilon:    b.epsilon,
		TrainSteps: b.trainSteps,
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshaling model state: %w", err)
	}
	return data, nil
}

// Restore loads a previously serialized state. On error the bandit is left
// unchanged, so callers can fall back to the fresh random weights.
func (b *Bandit) Restore(data []byte) error {
	var state ModelState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("unmarshaling model state: %w", err)
	}

	b.net.UnmarshalWeights(state.Weights)
	b.trainSteps = state.TrainSteps
	if state.Epsilon > 0 {
		b.epsilon = state.Epsilon
		if b.epsilon < b.epsilonFloor {
			b.epsilon = b.epsilonFloor
		}
	}
	return nil
}
