package neural

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// CheckpointVersion is incremented when the format changes.
const CheckpointVersion = 1

// Checkpoint is the serializable form of the policy parameters.
// W1 and W2 are stored row by row under their parameter names.
type Checkpoint struct {
	Version       int         `json:"version"`
	Episode       int         `json:"episode"`
	RunningReward float64     `json:"running_reward"`
	W1            [][]float64 `json:"W1"`
	W2            [][]float64 `json:"W2"`
}

// MarshalWeights copies the parameters into checkpoint form.
func (p *Policy) MarshalWeights() Checkpoint {
	return Checkpoint{
		Version: CheckpointVersion,
		W1:      toRows(p.W1),
		W2:      toRows(p.W2),
	}
}

// UnmarshalWeights restores parameters from a checkpoint. The stored
// matrices must match the policy's dimensions exactly.
func (p *Policy) UnmarshalWeights(cp Checkpoint) error {
	if cp.Version != CheckpointVersion {
		return fmt.Errorf("checkpoint version %d, want %d", cp.Version, CheckpointVersion)
	}
	if err := fromRows(p.W1, cp.W1); err != nil {
		return fmt.Errorf("%s: %w", NameW1, err)
	}
	if err := fromRows(p.W2, cp.W2); err != nil {
		return fmt.Errorf("%s: %w", NameW2, err)
	}
	return nil
}

func toRows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, m)
	}
	return rows
}

func fromRows(dst *mat.Dense, rows [][]float64) error {
	r, c := dst.Dims()
	if len(rows) != r {
		return fmt.Errorf("got %d rows, want %d", len(rows), r)
	}
	for i, row := range rows {
		if len(row) != c {
			return fmt.Errorf("row %d has %d columns, want %d", i, len(row), c)
		}
	}
	for i, row := range rows {
		dst.SetRow(i, row)
	}
	return nil
}
