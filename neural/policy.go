// Package neural provides the two-layer policy network and its gradients.
package neural

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Policy maps an observation to a categorical distribution over actions:
// hidden = ReLU(W1 x), probs = softmax(hidden^T W2).
type Policy struct {
	Params

	inputs, hidden, actions int
}

// NewPolicy creates a randomly initialized network.
// Weights are drawn from N(0,1) and scaled by 1/sqrt(fan-in).
func NewPolicy(rng *rand.Rand, inputs, hidden, actions int) *Policy {
	p := &Policy{
		Params:  NewParams(inputs, hidden, actions),
		inputs:  inputs,
		hidden:  hidden,
		actions: actions,
	}

	scale1 := 1 / math.Sqrt(float64(inputs))
	scale2 := 1 / math.Sqrt(float64(hidden))

	w1 := p.W1.RawMatrix().Data
	for i := range w1 {
		w1[i] = rng.NormFloat64() * scale1
	}
	w2 := p.W2.RawMatrix().Data
	for i := range w2 {
		w2[i] = rng.NormFloat64() * scale2
	}

	return p
}

// Dims returns (inputs, hidden, actions).
func (p *Policy) Dims() (int, int, int) {
	return p.inputs, p.hidden, p.actions
}

// Forward computes action probabilities for x.
// The hidden activation is returned for the backward pass.
func (p *Policy) Forward(x []float64) (probs, hidden []float64) {
	if len(x) != p.inputs {
		panic(fmt.Sprintf("neural: Forward input length %d, want %d", len(x), p.inputs))
	}

	var h mat.VecDense
	h.MulVec(p.W1, mat.NewVecDense(len(x), x))
	hidden = h.RawVector().Data
	for i, v := range hidden {
		if v < 0 {
			hidden[i] = 0
		}
	}

	var logits mat.VecDense
	logits.MulVec(p.W2.T(), &h)

	return Softmax(logits.RawVector().Data), hidden
}

// Backward computes parameter gradients for one episode.
// xs is T x inputs, hs is T x hidden (post-ReLU) and signal is T x actions,
// holding (onehot(action) - probs) already weighted by the advantage.
func (p *Policy) Backward(xs, hs, signal *mat.Dense) Params {
	t, d := xs.Dims()
	th, h := hs.Dims()
	ts, a := signal.Dims()
	if th != t || ts != t || d != p.inputs || h != p.hidden || a != p.actions {
		panic(fmt.Sprintf("neural: Backward shapes xs=%dx%d hs=%dx%d signal=%dx%d for policy %dx%dx%d",
			t, d, th, h, ts, a, p.inputs, p.hidden, p.actions))
	}

	var dW2 mat.Dense
	dW2.Mul(hs.T(), signal)

	var dh mat.Dense
	dh.Mul(signal, p.W2.T())

	// Backprop through ReLU
	for i := 0; i < t; i++ {
		for j := 0; j < h; j++ {
			if hs.At(i, j) <= 0 {
				dh.Set(i, j, 0)
			}
		}
	}

	var dW1 mat.Dense
	dW1.Mul(dh.T(), xs)

	return Params{W1: &dW1, W2: &dW2}
}

// Softmax returns exp(l - max(l)) normalized to sum to 1.
func Softmax(logits []float64) []float64 {
	maxLogit := floats.Max(logits)
	out := make([]float64, len(logits))
	for i, v := range logits {
		out[i] = math.Exp(v - maxLogit)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}

// Sample draws an index from the categorical distribution probs.
func Sample(probs []float64, rng *rand.Rand) int {
	threshold := rng.Float64()
	var cumulative float64
	last := 0
	for i, prob := range probs {
		if prob <= 0 {
			continue
		}
		cumulative += prob
		last = i
		if threshold < cumulative {
			return i
		}
	}
	// Rounding left cumulative just under 1
	return last
}
