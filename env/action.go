package env

import "fmt"

// Action indexes the policy's 9-way output.
// 0..7 move to the 8-connected neighbour clockwise from north; 8 reproduces.
type Action int

const (
	MoveN Action = iota
	MoveNE
	MoveE
	MoveSE
	MoveS
	MoveSW
	MoveW
	MoveNW
	Reproduce

	NumActions = int(Reproduce) + 1
)

// moveOffsets holds (dRow, dCol) for each move action.
var moveOffsets = [...][2]int{
	MoveN:  {-1, 0},
	MoveNE: {-1, 1},
	MoveE:  {0, 1},
	MoveSE: {1, 1},
	MoveS:  {1, 0},
	MoveSW: {1, -1},
	MoveW:  {0, -1},
	MoveNW: {-1, -1},
}

var actionNames = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW", "reproduce"}

// Valid reports whether a is inside the action space.
func (a Action) Valid() bool {
	return a >= 0 && int(a) < NumActions
}

// IsMove reports whether a is one of the 8 moves.
func (a Action) IsMove() bool {
	return a >= MoveN && a <= MoveNW
}

// Offset returns the (dRow, dCol) displacement of a move action.
func (a Action) Offset() (int, int) {
	if !a.IsMove() {
		panic(fmt.Sprintf("env: action %v has no offset", a))
	}
	o := moveOffsets[a]
	return o[0], o[1]
}

func (a Action) String() string {
	if !a.Valid() {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}
