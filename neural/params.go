package neural

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Parameter names, used for checkpoint keys and logs.
const (
	NameW1 = "W1"
	NameW2 = "W2"
)

// Params holds the two weight matrices of the policy network. Gradient
// accumulators and optimiser caches use the same struct so their shapes
// always match the parameters they belong to.
type Params struct {
	W1 *mat.Dense // hidden x inputs
	W2 *mat.Dense // hidden x actions
}

// NewParams returns zero-filled matrices for the given dimensions.
func NewParams(inputs, hidden, actions int) Params {
	return Params{
		W1: mat.NewDense(hidden, inputs, nil),
		W2: mat.NewDense(hidden, actions, nil),
	}
}

// ZerosLike returns zero-filled matrices shaped like p.
func ZerosLike(p Params) Params {
	h, in := p.W1.Dims()
	_, out := p.W2.Dims()
	return NewParams(in, h, out)
}

// Clone returns a deep copy.
func (p Params) Clone() Params {
	return Params{
		W1: mat.DenseCopyOf(p.W1),
		W2: mat.DenseCopyOf(p.W2),
	}
}

// Zero resets every entry to 0.
func (p Params) Zero() {
	p.W1.Zero()
	p.W2.Zero()
}

// Add accumulates q into p in place.
func (p Params) Add(q Params) {
	p.mustMatch(q)
	p.W1.Add(p.W1, q.W1)
	p.W2.Add(p.W2, q.W2)
}

// Shape returns (inputs, hidden, actions) as implied by W1 and W2.
func (p Params) Shape() (int, int, int) {
	hidden, inputs := p.W1.Dims()
	_, actions := p.W2.Dims()
	return inputs, hidden, actions
}

// SameShape reports whether q's matrices match p's dimensions.
func (p Params) SameShape(q Params) bool {
	r1, c1 := p.W1.Dims()
	r2, c2 := q.W1.Dims()
	if r1 != r2 || c1 != c2 {
		return false
	}
	r1, c1 = p.W2.Dims()
	r2, c2 = q.W2.Dims()
	return r1 == r2 && c1 == c2
}

// Named pairs each matrix with its parameter name, in a fixed order.
func (p Params) Named() []NamedMatrix {
	return []NamedMatrix{
		{Name: NameW1, M: p.W1},
		{Name: NameW2, M: p.W2},
	}
}

// NamedMatrix is one entry of Params.Named.
type NamedMatrix struct {
	Name string
	M    *mat.Dense
}

func (p Params) mustMatch(q Params) {
	if !p.SameShape(q) {
		r1, c1 := p.W1.Dims()
		r2, c2 := q.W1.Dims()
		panic(fmt.Sprintf("neural: parameter shape mismatch: W1 %dx%d vs %dx%d", r1, c1, r2, c2))
	}
}

// Stack copies equal-length rows into a len(rows) x len(rows[0]) matrix.
func Stack(rows [][]float64) *mat.Dense {
	if len(rows) == 0 {
		panic("neural: Stack of zero rows")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			panic(fmt.Sprintf("neural: Stack row %d has %d columns, want %d", i, len(r), cols))
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), cols, data)
}
