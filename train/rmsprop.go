package train

import (
	"fmt"
	"math"

	"github.com/pthm-cable/cellpg/neural"
	"gonum.org/v1/gonum/mat"
)

// RMSProp performs gradient ascent scaled by a running mean of squared
// gradients, one cache entry per parameter.
type RMSProp struct {
	LearningRate float64
	Decay        float64
	Epsilon      float64

	cache neural.Params
}

// NewRMSProp creates an optimizer with a zero cache shaped like params.
func NewRMSProp(learningRate, decay, epsilon float64, params neural.Params) *RMSProp {
	return &RMSProp{
		LearningRate: learningRate,
		Decay:        decay,
		Epsilon:      epsilon,
		cache:        neural.ZerosLike(params),
	}
}

// Step updates the cache with grads and moves params up the gradient.
func (o *RMSProp) Step(params, grads neural.Params) {
	if !params.SameShape(grads) || !params.SameShape(o.cache) {
		panic("train: RMSProp shape mismatch")
	}
	o.update(params.W1, grads.W1, o.cache.W1)
	o.update(params.W2, grads.W2, o.cache.W2)
}

func (o *RMSProp) update(theta, g, cache *mat.Dense) {
	rows, cols := theta.Dims()
	tr, gr, cr := theta.RawMatrix(), g.RawMatrix(), cache.RawMatrix()
	for i := 0; i < rows; i++ {
		tRow := tr.Data[i*tr.Stride : i*tr.Stride+cols]
		gRow := gr.Data[i*gr.Stride : i*gr.Stride+cols]
		cRow := cr.Data[i*cr.Stride : i*cr.Stride+cols]
		for j, gv := range gRow {
			cRow[j] = o.Decay*cRow[j] + (1-o.Decay)*gv*gv
			tRow[j] += o.LearningRate * gv / (math.Sqrt(cRow[j]) + o.Epsilon)
		}
	}
}

// Cache returns the squared-gradient cache.
func (o *RMSProp) Cache() neural.Params {
	return o.cache
}

// String summarizes the optimizer settings.
func (o *RMSProp) String() string {
	return fmt.Sprintf("rmsprop(lr=%g decay=%g eps=%g)", o.LearningRate, o.Decay, o.Epsilon)
}
