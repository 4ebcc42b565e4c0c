package env

import (
	"github.com/pthm-cable/cellpg/components"
	"github.com/pthm-cable/cellpg/systems"
)

// Snapshot is a read-only copy of the environment for renderers and files.
type Snapshot struct {
	Width    int                 `json:"width"`
	Nutrient []float64           `json:"nutrient"` // row-major, Width*Width
	Total    float64             `json:"total_nutrient"`
	Position components.Position `json:"position"`
	Status   string              `json:"status"`
	Step     int                 `json:"step"`
	Births   int                 `json:"births"`
	Cells    []systems.CellState `json:"cells"`
}

// Snapshot copies the current world state.
func (e *Environment) Snapshot() Snapshot {
	return Snapshot{
		Width:    e.field.Width(),
		Nutrient: e.field.Values(),
		Total:    e.field.Total(),
		Position: e.lastPos,
		Status:   e.status.String(),
		Step:     e.steps,
		Births:   e.births,
		Cells:    e.pop.Cells(),
	}
}
