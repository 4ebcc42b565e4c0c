package systems

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/cellpg/components"
)

// maxDiffusionRate is the stability limit of the explicit 5-point stencil.
// At or below it every site stays non-negative.
const maxDiffusionRate = 0.25

// NutrientField is a square grid of nutrient concentration with consumption
// and no-flux diffusion.
type NutrientField struct {
	W int

	// Current concentration, row-major
	Res []float64

	// Fraction of each neighbour difference exchanged per Diffuse call
	Rate float64

	// Scratch buffer for diffusion
	tmp []float64
}

// NewNutrientField creates a width x width field filled with initial.
func NewNutrientField(width int, initial, rate float64) *NutrientField {
	if width < 1 {
		panic(fmt.Sprintf("systems: nutrient field width must be positive, got %d", width))
	}
	if rate > maxDiffusionRate {
		rate = maxDiffusionRate
	}
	if rate < 0 {
		rate = 0
	}
	nf := &NutrientField{
		W:    width,
		Res:  make([]float64, width*width),
		Rate: rate,
		tmp:  make([]float64, width*width),
	}
	nf.Fill(initial)
	return nf
}

// Width returns the grid side length.
func (nf *NutrientField) Width() int { return nf.W }

// Fill sets every site to v.
func (nf *NutrientField) Fill(v float64) {
	if v < 0 {
		panic(fmt.Sprintf("systems: negative nutrient fill %g", v))
	}
	for i := range nf.Res {
		nf.Res[i] = v
	}
}

// At returns the concentration at p.
func (nf *NutrientField) At(p components.Position) float64 {
	return nf.Res[nf.index(p)]
}

// Set overwrites the concentration at p.
func (nf *NutrientField) Set(p components.Position, v float64) {
	if v < 0 {
		panic(fmt.Sprintf("systems: negative nutrient %g at %v", v, p))
	}
	nf.Res[nf.index(p)] = v
}

// Consume removes amount from the site at p, clamped at zero.
// Returns the amount actually removed.
func (nf *NutrientField) Consume(p components.Position, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	i := nf.index(p)
	avail := nf.Res[i]
	take := amount
	if take > avail {
		take = avail
	}
	nf.Res[i] = avail - take
	return take
}

// Total returns the summed nutrient mass of the grid.
func (nf *NutrientField) Total() float64 {
	return floats.Sum(nf.Res)
}

// Values returns a copy of the grid for read-only consumers.
func (nf *NutrientField) Values() []float64 {
	out := make([]float64, len(nf.Res))
	copy(out, nf.Res)
	return out
}

// SampleWindow returns the (2r+1)^2 neighbourhood around p, row-major.
// Neighbours outside the grid take the value of the nearest edge site.
func (nf *NutrientField) SampleWindow(p components.Position, radius int) []float64 {
	nf.index(p)
	side := 2*radius + 1
	out := make([]float64, 0, side*side)
	for dr := -radius; dr <= radius; dr++ {
		r := clampInt(p.Row+dr, 0, nf.W-1)
		for dc := -radius; dc <= radius; dc++ {
			c := clampInt(p.Col+dc, 0, nf.W-1)
			out = append(out, nf.Res[r*nf.W+c])
		}
	}
	return out
}

// Diffuse applies one 5-point stencil step with no-flux boundaries.
// Each pair of adjacent sites exchanges Rate*(difference), so mass is conserved.
func (nf *NutrientField) Diffuse() {
	a := nf.Rate
	if a <= 0 {
		return
	}

	w := nf.W
	src := nf.Res
	dst := nf.tmp

	for y := 0; y < w; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			c := src[i]
			flux := 0.0
			if y > 0 {
				flux += src[i-w] - c
			}
			if y < w-1 {
				flux += src[i+w] - c
			}
			if x > 0 {
				flux += src[i-1] - c
			}
			if x < w-1 {
				flux += src[i+1] - c
			}
			dst[i] = c + a*flux
		}
	}

	nf.Res, nf.tmp = dst, src
}

// index maps p to a flat offset, panicking on out-of-bounds positions.
func (nf *NutrientField) index(p components.Position) int {
	if !p.In(nf.W) {
		panic(fmt.Sprintf("systems: position %v outside %dx%d grid", p, nf.W, nf.W))
	}
	return p.Row*nf.W + p.Col
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
