// Package train implements REINFORCE training of the cell policy.
package train

import "gonum.org/v1/gonum/stat"

// minStd is the spread below which returns are left unscaled.
const minStd = 1e-12

// DiscountRewards computes discounted returns by walking backwards.
// With segment set the running sum restarts at every non-zero reward,
// so each reward is credited only to the actions since the previous one.
func DiscountRewards(rewards []float64, gamma float64, segment bool) []float64 {
	out := make([]float64, len(rewards))
	var running float64
	for t := len(rewards) - 1; t >= 0; t-- {
		if segment && rewards[t] != 0 {
			running = 0
		}
		running = running*gamma + rewards[t]
		out[t] = running
	}
	return out
}

// Standardize shifts values to zero mean and scales them to unit
// population standard deviation, in place. Constant or single-element
// inputs are left unchanged.
func Standardize(values []float64) {
	if len(values) == 0 {
		return
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if std < minStd {
		return
	}
	for i, v := range values {
		values[i] = (v - mean) / std
	}
}
