// Package policy provides the contextual-bandit value model that maps game
// state snapshots to per-action expected rewards, trained online from a
// replay buffer.
package policy

import (
	"math"
	"math/rand"
)

// Network dimensions (compile-time constants for array sizing).
// NumInputs must match telemetry.NumFeatures; NumOutputs must match the
// director's action count.
const (
	NumInputs  = 17 // 3 archetype + 8 player/time scalars + 4 enemy counts + stress + engagement
	NumHidden  = 24
	NumOutputs = 6 // spawn grunt/ranged/tank/swarm, increase rate, do nothing
)

// FFNN is a simple two-layer feedforward value network. Outputs are linear:
// one expected-reward estimate per action, unbounded.
type FFNN struct {
	W1 [NumHidden][NumInputs]float32  // input -> hidden weights
	B1 [NumHidden]float32             // hidden biases
	W2 [NumOutputs][NumHidden]float32 // hidden -> output weights
	B2 [NumOutputs]float32            // output biases
}

// NewFFNN creates a randomly initialized network.
func NewFFNN(rng *rand.Rand) *FFNN {
	nn := &FFNN{}
	// Xavier initialization
	scale1 := float32(math.Sqrt(2.0 / float64(NumInputs)))
	scale2 := float32(math.Sqrt(2.0 / float64(NumHidden)))

	for i := range nn.W1 {
		for j := range nn.W1[i] {
			nn.W1[i][j] = float32(rng.NormFloat64()) * scale1
		}
		nn.B1[i] = 0
	}

	for i := range nn.W2 {
		for j := range nn.W2[i] {
			nn.W2[i][j] = float32(rng.NormFloat64()) * scale2
		}
		nn.B2[i] = 0
	}

	return nn
}

// Forward computes per-action expected rewards for the given feature vector.
func (nn *FFNN) Forward(inputs []float32) [NumOutputs]float32 {
	var hidden [NumHidden]float32
	nn.forwardHidden(inputs, &hidden)
	return nn.forwardOutput(&hidden)
}

// forwardHidden computes the hidden layer with fast tanh activation.
// (tanh's |x|>4 branches are rarely taken, good for branch prediction)
func (nn *FFNN) forwardHidden(inputs []float32, hidden *[NumHidden]float32) {
	for i := 0; i < NumHidden; i++ {
		sum := nn.B1[i]
		for j := 0; j < NumInputs && j < len(inputs); j++ {
			sum += nn.W1[i][j] * inputs[j]
		}
		hidden[i] = tanh(sum)
	}
}

// forwardOutput computes the linear output layer from hidden activations.
func (nn *FFNN) forwardOutput(hidden *[NumHidden]float32) [NumOutputs]float32 {
	var outputs [NumOutputs]float32
	for i := 0; i < NumOutputs; i++ {
		sum := nn.B2[i]
		for j := 0; j < NumHidden; j++ {
			sum += nn.W2[i][j] * hidden[j]
		}
		outputs[i] = sum
	}
	return outputs
}

// Fit runs one SGD step pushing the network's output toward target, and
// returns the mean squared error before the update. The caller edits only
// the taken action's column in target, so untouched columns contribute zero
// gradient through the output layer for that column but still anchor the
// fit (self-supervised regression, not a Bellman backup).
func (nn *FFNN) Fit(inputs []float32, target [NumOutputs]float32, lr float32) float32 {
	var hidden [NumHidden]float32
	nn.forwardHidden(inputs, &hidden)
	outputs := nn.forwardOutput(&hidden)

	// Output deltas (linear activation): d = pred - target
	var outDelta [NumOutputs]float32
	var loss float32
	for i := 0; i < NumOutputs; i++ {
		d := outputs[i] - target[i]
		outDelta[i] = d
		loss += d * d
	}
	loss /= NumOutputs

	// Hidden deltas through tanh: (1 - h^2) * sum_i W2[i][j] * outDelta[i]
	var hidDelta [NumHidden]float32
	for j := 0; j < NumHidden; j++ {
		var sum float32
		for i := 0; i < NumOutputs; i++ {
			sum += nn.W2[i][j] * outDelta[i]
		}
		hidDelta[j] = (1 - hidden[j]*hidden[j]) * sum
	}

	// Update output layer
	for i := 0; i < NumOutputs; i++ {
		for j := 0; j < NumHidden; j++ {
			nn.W2[i][j] -= lr * outDelta[i] * hidden[j]
		}
		nn.B2[i] -= lr * outDelta[i]
	}

	// Update hidden layer
	for j := 0; j < NumHidden; j++ {
		for k := 0; k < NumInputs && k < len(inputs); k++ {
			nn.W1[j][k] -= lr * hidDelta[j] * inputs[k]
		}
		nn.B1[j] -= lr * hidDelta[j]
	}

	return loss
}

// Clone creates a deep copy of the network.
func (nn *FFNN) Clone() *FFNN {
	clone := &FFNN{}
	for i := range nn.W1 {
		clone.W1[i] = nn.W1[i]
	}
	clone.B1 = nn.B1
	for i := range nn.W2 {
		clone.W2[i] = nn.W2[i]
	}
	clone.B2 = nn.B2
	return clone
}

// tanh uses a fast rational approximation avoiding float64 conversion.
func tanh(x float32) float32 {
	if x > 4 {
		return 1
	}
	if x < -4 {
		return -1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

// ModelWeights holds flattened network weights for serialization.
type ModelWeights struct {
	W1 []float32 `json:"w1"` // [NumHidden * NumInputs]
	B1 []float32 `json:"b1"` // [NumHidden]
	W2 []float32 `json:"w2"` // [NumOutputs * NumHidden]
	B2 []float32 `json:"b2"` // [NumOutputs]
}

// MarshalWeights flattens the network weights for JSON serialization.
func (nn *FFNN) MarshalWeights() ModelWeights {
	mw := ModelWeights{
		W1: make([]float32, NumHidden*NumInputs),
		B1: make([]float32, NumHidden),
		W2: make([]float32, NumOutputs*NumHidden),
		B2: make([]float32, NumOutputs),
	}

	for i := 0; i < NumHidden; i++ {
		for j := 0; j < NumInputs; j++ {
			mw.W1[i*NumInputs+j] = nn.W1[i][j]
		}
	}
	copy(mw.B1, nn.B1[:])

	for i := 0; i < NumOutputs; i++ {
		for j := 0; j < NumHidden; j++ {
			mw.W2[i*NumHidden+j] = nn.W2[i][j]
		}
	}
	copy(mw.B2, nn.B2[:])

	return mw
}

// UnmarshalWeights restores network weights from flattened form. Short
// slices restore what they can; the rest keeps its current values.
func (nn *FFNN) UnmarshalWeights(mw ModelWeights) {
	for i := 0; i < NumHidden; i++ {
		for j := 0; j < NumInputs; j++ {
			if i*NumInputs+j < len(mw.W1) {
				nn.W1[i][j] = mw.W1[i*NumInputs+j]
			}
		}
	}
	for i := 0; i < NumHidden && i < len(mw.B1); i++ {
		nn.B1[i] = mw.B1[i]
	}

	for i := 0; i < NumOutputs; i++ {
		for j := 0; j < NumHidden; j++ {
			if i*NumHidden+j < len(mw.W2) {
				nn.W2[i][j] = mw.W2[i*NumHidden+j]
			}
		}
	}
	for i := 0; i < NumOutputs && i < len(mw.B2); i++ {
		nn.B2[i] = mw.B2[i]
	}
}
