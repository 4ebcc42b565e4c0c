package systems

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/cellpg/components"
)

// CellState is a copied view of one cell for snapshots.
type CellState struct {
	Position components.Position `json:"position"`
	Cell     components.Cell     `json:"cell"`
}

// Population owns the live cells of one environment as ECS entities.
// Exactly one cell may be tracked; the rest are passive siblings.
type Population struct {
	world *ecs.World

	mapper  *ecs.Map2[components.Position, components.Cell]
	filter  *ecs.Filter2[components.Position, components.Cell]
	posMap  *ecs.Map1[components.Position]
	cellMap *ecs.Map1[components.Cell]

	tracked    ecs.Entity
	hasTracked bool
	nextID     uint32
}

// NewPopulation creates an empty population with its own ECS world.
func NewPopulation() *Population {
	world := ecs.NewWorld()
	return &Population{
		world:   world,
		mapper:  ecs.NewMap2[components.Position, components.Cell](world),
		filter:  ecs.NewFilter2[components.Position, components.Cell](world),
		posMap:  ecs.NewMap1[components.Position](world),
		cellMap: ecs.NewMap1[components.Cell](world),
	}
}

// Clear removes every cell.
func (p *Population) Clear() {
	var all []ecs.Entity
	query := p.filter.Query()
	for query.Next() {
		all = append(all, query.Entity())
	}
	for _, e := range all {
		p.world.RemoveEntity(e)
	}
	p.hasTracked = false
	p.nextID = 0
}

// Spawn creates a live cell at pos.
func (p *Population) Spawn(pos components.Position, generation uint32, tracked bool) ecs.Entity {
	if tracked && p.hasTracked {
		panic("systems: spawning a second tracked cell")
	}
	id := p.nextID
	p.nextID++

	cell := components.Cell{
		ID:         id,
		Generation: generation,
		Status:     components.StatusAlive,
		Tracked:    tracked,
	}
	entity := p.mapper.NewEntity(&pos, &cell)
	if tracked {
		p.tracked = entity
		p.hasTracked = true
	}
	return entity
}

// Tracked returns the tracked cell's components.
// ok is false when no tracked cell is alive.
func (p *Population) Tracked() (pos *components.Position, cell *components.Cell, ok bool) {
	if !p.hasTracked || !p.world.Alive(p.tracked) {
		return nil, nil, false
	}
	return p.posMap.Get(p.tracked), p.cellMap.Get(p.tracked), true
}

// MoveTracked relocates the tracked cell.
func (p *Population) MoveTracked(to components.Position) {
	pos, _, ok := p.Tracked()
	if !ok {
		panic("systems: MoveTracked without a tracked cell")
	}
	*pos = to
}

// Divide splits the tracked cell. The tracked daughter keeps the site and
// the lineage; a passive sibling is spawned beside it on the same site.
func (p *Population) Divide() ecs.Entity {
	pos, cell, ok := p.Tracked()
	if !ok {
		panic("systems: Divide without a tracked cell")
	}
	cell.Generation++
	site := *pos
	gen := cell.Generation
	return p.Spawn(site, gen, false)
}

// Retire marks the tracked cell with a terminal status and removes it.
// Returns the final position and cell state.
func (p *Population) Retire(status components.Status) (components.Position, components.Cell) {
	pos, cell, ok := p.Tracked()
	if !ok {
		panic("systems: Retire without a tracked cell")
	}
	if !status.Terminal() {
		panic(fmt.Sprintf("systems: Retire with non-terminal status %v", status))
	}
	cell.Status = status
	finalPos, finalCell := *pos, *cell

	p.world.RemoveEntity(p.tracked)
	p.hasTracked = false
	return finalPos, finalCell
}

// Metabolize charges every passive cell cost from its site and removes the
// ones left on a site below deathThreshold. Returns the number removed.
func (p *Population) Metabolize(field *NutrientField, cost, deathThreshold float64) int {
	var starved []ecs.Entity

	query := p.filter.Query()
	for query.Next() {
		pos, cell := query.Get()
		if cell.Tracked {
			continue
		}
		field.Consume(*pos, cost)
		if field.At(*pos) < deathThreshold {
			cell.Status = components.StatusDead
			starved = append(starved, query.Entity())
		}
	}

	// Remove after the query completes
	for _, e := range starved {
		p.world.RemoveEntity(e)
	}
	return len(starved)
}

// Len returns the number of live cells, tracked included.
func (p *Population) Len() int {
	n := 0
	query := p.filter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Passive returns the number of live untracked cells.
func (p *Population) Passive() int {
	n := p.Len()
	if _, _, ok := p.Tracked(); ok {
		n--
	}
	return n
}

// Cells returns copies of every live cell.
func (p *Population) Cells() []CellState {
	var out []CellState
	query := p.filter.Query()
	for query.Next() {
		pos, cell := query.Get()
		out = append(out, CellState{Position: *pos, Cell: *cell})
	}
	return out
}
