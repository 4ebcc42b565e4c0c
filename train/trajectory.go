package train

import (
	"fmt"

	"github.com/pthm-cable/cellpg/neural"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Trajectory records one episode for the backward pass.
type Trajectory struct {
	xs      [][]float64 // observations
	hs      [][]float64 // hidden activations
	dlogps  [][]float64 // onehot(action) - probs
	rewards []float64
}

// Record stores one decision. x and h are retained, not copied.
func (t *Trajectory) Record(x, h, probs []float64, action int) {
	dlogp := make([]float64, len(probs))
	for i, p := range probs {
		dlogp[i] = -p
	}
	dlogp[action] += 1

	t.xs = append(t.xs, x)
	t.hs = append(t.hs, h)
	t.dlogps = append(t.dlogps, dlogp)
}

// Reward stores the reward for the most recent decision.
func (t *Trajectory) Reward(r float64) {
	t.rewards = append(t.rewards, r)
}

// Len returns the number of recorded decisions.
func (t *Trajectory) Len() int {
	return len(t.xs)
}

// Rewards returns the per-step rewards.
func (t *Trajectory) Rewards() []float64 {
	return t.rewards
}

// Total returns the undiscounted episode reward.
func (t *Trajectory) Total() float64 {
	return floats.Sum(t.rewards)
}

// Reset empties the trajectory, keeping capacity.
func (t *Trajectory) Reset() {
	t.xs = t.xs[:0]
	t.hs = t.hs[:0]
	t.dlogps = t.dlogps[:0]
	t.rewards = t.rewards[:0]
}

// Matrices stacks the episode into (xs, hs, signal) with each signal row
// scaled by the matching advantage.
func (t *Trajectory) Matrices(advantage []float64) (xs, hs, signal *mat.Dense) {
	if len(advantage) != t.Len() || len(t.rewards) != t.Len() {
		panic(fmt.Sprintf("train: trajectory has %d steps, %d rewards, %d advantages",
			t.Len(), len(t.rewards), len(advantage)))
	}

	signal = neural.Stack(t.dlogps)
	for i, a := range advantage {
		row := signal.RawRowView(i)
		floats.Scale(a, row)
	}
	return neural.Stack(t.xs), neural.Stack(t.hs), signal
}
