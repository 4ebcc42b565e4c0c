// Package components defines ECS components for the simulation.
package components

// Status is the lifecycle state of a cell.
type Status uint8

const (
	StatusAlive  Status = iota // Still in the domain and fed
	StatusExited               // Left the domain through its boundary
	StatusDead                 // Starved on a depleted site
)

// String returns the lowercase status name used in logs and CSV output.
func (s Status) String() string {
	switch s {
	case StatusAlive:
		return "alive"
	case StatusExited:
		return "exited"
	case StatusDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status ends an episode.
func (s Status) Terminal() bool {
	return s == StatusExited || s == StatusDead
}

// MarshalCSV implements gocsv's TypeMarshaller.
func (s Status) MarshalCSV() (string, error) {
	return s.String(), nil
}

// Position is a grid site (row-major, origin top-left).
type Position struct {
	Row, Col int
}

// Add returns p offset by (dRow, dCol).
func (p Position) Add(dRow, dCol int) Position {
	return Position{Row: p.Row + dRow, Col: p.Col + dCol}
}

// In reports whether p lies inside a width x width grid.
func (p Position) In(width int) bool {
	return p.Row >= 0 && p.Row < width && p.Col >= 0 && p.Col < width
}

// Cell holds per-cell lifecycle state.
type Cell struct {
	ID         uint32
	Generation uint32 // Divisions along the lineage since reset
	Status     Status
	Tracked    bool // Under policy control; exactly one per episode
}
