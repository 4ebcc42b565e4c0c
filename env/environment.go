// Package env implements the nutrient-grid environment the policy acts in.
package env

import (
	"fmt"

	"github.com/pthm-cable/cellpg/components"
	"github.com/pthm-cable/cellpg/config"
	"github.com/pthm-cable/cellpg/systems"
)

// Environment composes the nutrient field and the cell population and
// resolves one tracked-cell action per Step.
type Environment struct {
	cfg *config.Config

	field *systems.NutrientField
	pop   *systems.Population

	// Episode state
	status  components.Status
	lastPos components.Position // tracked cell's last in-grid site
	steps   int
	births  int
	starved int // passive cells removed this episode
}

// New creates an environment and resets it.
func New(cfg *config.Config) *Environment {
	e := &Environment{
		cfg:   cfg,
		field: systems.NewNutrientField(cfg.World.Width, cfg.World.InitialNutrient, cfg.World.DiffusionRate),
		pop:   systems.NewPopulation(),
	}
	e.Reset()
	return e
}

// Reset refills the field, places one tracked cell at the centre and
// returns the initial observation.
func (e *Environment) Reset() []float64 {
	e.field.Fill(e.cfg.World.InitialNutrient)
	e.pop.Clear()

	centre := components.Position{Row: e.cfg.Derived.Center, Col: e.cfg.Derived.Center}
	e.pop.Spawn(centre, 0, true)

	e.status = components.StatusAlive
	e.lastPos = centre
	e.steps = 0
	e.births = 0
	e.starved = 0

	return e.Observe()
}

// Observe returns the flattened window around the tracked cell.
func (e *Environment) Observe() []float64 {
	return e.field.SampleWindow(e.lastPos, e.cfg.Cell.SenseRadius)
}

// Step applies action for the tracked cell and advances the world one tick.
// Returns the next observation, the reward and whether the episode ended.
func (e *Environment) Step(action Action) ([]float64, float64, bool) {
	if !action.Valid() {
		panic(fmt.Sprintf("env: invalid action %d", int(action)))
	}
	if e.status.Terminal() {
		panic(fmt.Sprintf("env: Step called after episode ended (%v)", e.status))
	}

	cellCfg := &e.cfg.Cell
	e.steps++

	pos, _, ok := e.pop.Tracked()
	if !ok {
		panic("env: alive episode without a tracked cell")
	}
	here := *pos

	// Starved cells cannot act
	available := e.field.At(here)
	if available < cellCfg.DeathThreshold {
		reward := e.terminate(components.StatusDead)
		e.tick()
		return e.Observe(), reward, true
	}

	// Basal cost of any action
	e.field.Consume(here, cellCfg.MoveCost)

	var reward float64
	if action.IsMove() {
		dr, dc := action.Offset()
		target := here.Add(dr, dc)
		if !target.In(e.cfg.World.Width) {
			reward = e.terminate(components.StatusExited)
			e.tick()
			return e.Observe(), reward, true
		}
		e.pop.MoveTracked(target)
		e.lastPos = target
	} else if available >= cellCfg.ReproduceThreshold {
		e.field.Consume(here, cellCfg.ReproduceCost-cellCfg.MoveCost)
		e.pop.Divide()
		e.births++
		reward = e.cfg.Reward.Reproduce
	}
	// A reproduce attempt on a poor site degrades to a no-op that paid the basal cost

	e.tick()

	if e.field.At(e.lastPos) < cellCfg.DeathThreshold {
		reward = e.terminate(components.StatusDead)
		return e.Observe(), reward, true
	}

	return e.Observe(), reward, false
}

// tick advances the parts of the world that run regardless of the action.
func (e *Environment) tick() {
	e.starved += e.pop.Metabolize(e.field, e.cfg.Cell.MetabolicCost, e.cfg.Cell.DeathThreshold)
	e.field.Diffuse()
	e.checkInvariants()
}

// terminate retires the tracked cell and returns the terminal reward.
func (e *Environment) terminate(status components.Status) float64 {
	e.pop.Retire(status)
	e.status = status
	if status == components.StatusExited {
		return e.cfg.Reward.Exit
	}
	return -e.cfg.Reward.Reproduce
}

// checkInvariants panics if the simulation state has been corrupted.
func (e *Environment) checkInvariants() {
	if !e.lastPos.In(e.cfg.World.Width) {
		panic(fmt.Sprintf("env: tracked position %v outside grid", e.lastPos))
	}
	for i, v := range e.field.Res {
		if v < 0 {
			panic(fmt.Sprintf("env: negative nutrient %g at site %d", v, i))
		}
	}
}

// Status returns the tracked cell's lifecycle state.
func (e *Environment) Status() components.Status { return e.status }

// Position returns the tracked cell's current (or last in-grid) site.
func (e *Environment) Position() components.Position { return e.lastPos }

// Steps returns the number of Step calls since Reset.
func (e *Environment) Steps() int { return e.steps }

// Births returns the number of successful divisions since Reset.
func (e *Environment) Births() int { return e.births }

// Starved returns the number of passive cells that starved since Reset.
func (e *Environment) Starved() int { return e.starved }

// Field exposes the nutrient field.
func (e *Environment) Field() *systems.NutrientField { return e.field }

// Population exposes the cell population.
func (e *Environment) Population() *systems.Population { return e.pop }

// ObservationSize returns the length of observation vectors.
func (e *Environment) ObservationSize() int { return e.cfg.Derived.NumInputs }
