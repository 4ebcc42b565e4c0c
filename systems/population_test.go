package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/cellpg/components"
)

func TestPopulationSpawnTracked(t *testing.T) {
	pop := NewPopulation()
	centre := components.Position{Row: 10, Col: 10}
	pop.Spawn(centre, 0, true)

	pos, cell, ok := pop.Tracked()
	if !ok {
		t.Fatal("expected a tracked cell")
	}
	if *pos != centre {
		t.Errorf("tracked position = %v, want %v", *pos, centre)
	}
	if cell.Status != components.StatusAlive || !cell.Tracked {
		t.Errorf("unexpected tracked cell state: %+v", *cell)
	}
	if pop.Len() != 1 || pop.Passive() != 0 {
		t.Errorf("Len/Passive = %d/%d, want 1/0", pop.Len(), pop.Passive())
	}
}

func TestPopulationSecondTrackedPanics(t *testing.T) {
	pop := NewPopulation()
	pop.Spawn(components.Position{}, 0, true)
	defer func() {
		if recover() == nil {
			t.Error("expected panic when spawning a second tracked cell")
		}
	}()
	pop.Spawn(components.Position{}, 0, true)
}

func TestPopulationDivide(t *testing.T) {
	pop := NewPopulation()
	site := components.Position{Row: 3, Col: 4}
	pop.Spawn(site, 0, true)

	pop.Divide()
	pop.Divide()

	_, cell, ok := pop.Tracked()
	if !ok {
		t.Fatal("tracked cell lost after division")
	}
	if cell.Generation != 2 {
		t.Errorf("tracked generation = %d, want 2", cell.Generation)
	}
	if pop.Passive() != 2 {
		t.Errorf("passive cells = %d, want 2", pop.Passive())
	}
	for _, cs := range pop.Cells() {
		if cs.Position != site {
			t.Errorf("cell %d at %v, want %v", cs.Cell.ID, cs.Position, site)
		}
	}
}

func TestPopulationRetire(t *testing.T) {
	pop := NewPopulation()
	pop.Spawn(components.Position{Row: 1, Col: 1}, 0, true)
	pop.MoveTracked(components.Position{Row: 1, Col: 2})

	pos, cell := pop.Retire(components.StatusExited)
	if pos != (components.Position{Row: 1, Col: 2}) {
		t.Errorf("final position = %v, want {1 2}", pos)
	}
	if cell.Status != components.StatusExited {
		t.Errorf("final status = %v, want exited", cell.Status)
	}
	if _, _, ok := pop.Tracked(); ok {
		t.Error("retired cell is still tracked")
	}
	if pop.Len() != 0 {
		t.Errorf("Len = %d after retire, want 0", pop.Len())
	}
}

func TestPopulationMetabolize(t *testing.T) {
	field := NewNutrientField(4, 1.0, 0.1)
	pop := NewPopulation()

	rich := components.Position{Row: 0, Col: 0}
	poor := components.Position{Row: 3, Col: 3}
	field.Set(poor, 0.12)

	pop.Spawn(components.Position{Row: 2, Col: 2}, 0, true)
	pop.Spawn(rich, 1, false)
	pop.Spawn(poor, 1, false)

	removed := pop.Metabolize(field, 0.05, 0.1)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if pop.Passive() != 1 {
		t.Errorf("passive after metabolize = %d, want 1", pop.Passive())
	}
	if got := field.At(rich); math.Abs(got-0.95) > 1e-12 {
		t.Errorf("rich site = %v, want 0.95", got)
	}
	// The tracked cell does not metabolize
	if got := field.At(components.Position{Row: 2, Col: 2}); got != 1.0 {
		t.Errorf("tracked site = %v, want 1.0", got)
	}
}

func TestPopulationClear(t *testing.T) {
	pop := NewPopulation()
	pop.Spawn(components.Position{}, 0, true)
	pop.Divide()
	pop.Clear()

	if pop.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", pop.Len())
	}
	if _, _, ok := pop.Tracked(); ok {
		t.Error("tracked cell survived Clear")
	}

	// A new tracked cell can be spawned again
	pop.Spawn(components.Position{Row: 1, Col: 1}, 0, true)
	if _, _, ok := pop.Tracked(); !ok {
		t.Error("expected tracked cell after respawn")
	}
}
