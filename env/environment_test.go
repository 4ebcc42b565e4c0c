package env

import (
	"math"
	"testing"

	"github.com/pthm-cable/cellpg/components"
	"github.com/pthm-cable/cellpg/config"
)

func newTestEnv(t *testing.T) *Environment {
	t.Helper()
	return New(config.Default())
}

func TestActionMapping(t *testing.T) {
	if NumActions != config.NumActions {
		t.Fatalf("NumActions = %d, config.NumActions = %d", NumActions, config.NumActions)
	}

	seen := make(map[[2]int]Action)
	for a := MoveN; a <= MoveNW; a++ {
		dr, dc := a.Offset()
		if dr == 0 && dc == 0 {
			t.Errorf("%v has a zero offset", a)
		}
		if prev, dup := seen[[2]int{dr, dc}]; dup {
			t.Errorf("%v and %v share offset (%d,%d)", prev, a, dr, dc)
		}
		seen[[2]int{dr, dc}] = a
	}
	if len(seen) != 8 {
		t.Errorf("expected 8 distinct moves, got %d", len(seen))
	}
	if Reproduce.IsMove() || !Reproduce.Valid() {
		t.Error("Reproduce must be a valid non-move action")
	}
	if Action(9).Valid() || Action(-1).Valid() {
		t.Error("out-of-range actions reported valid")
	}
}

func TestResetPlacesCellAtCentre(t *testing.T) {
	e := newTestEnv(t)
	obs := e.Reset()

	if len(obs) != 9 {
		t.Fatalf("observation length = %d, want 9", len(obs))
	}
	if e.Position() != (components.Position{Row: 10, Col: 10}) {
		t.Errorf("reset position = %v, want {10 10}", e.Position())
	}
	if e.Status() != components.StatusAlive {
		t.Errorf("reset status = %v, want alive", e.Status())
	}
	for i, v := range obs {
		if v != 1.0 {
			t.Errorf("obs[%d] = %v, want uniform 1.0", i, v)
		}
	}
	if got := e.Field().Total(); math.Abs(got-400) > 1e-9 {
		t.Errorf("reset total nutrient = %v, want 400", got)
	}
}

func TestMoveTowardEdgeExits(t *testing.T) {
	e := newTestEnv(t)
	e.Reset()
	width := e.cfg.World.Width

	var (
		reward float64
		done   bool
		steps  int
	)
	for !done {
		_, reward, done = e.Step(MoveN)
		steps++
		if steps > width {
			t.Fatalf("episode did not end after %d moves north", steps)
		}
	}

	if e.Status() != components.StatusExited {
		t.Fatalf("status = %v, want exited", e.Status())
	}
	if steps < width/2 {
		t.Errorf("exited after %d steps, want at least %d", steps, width/2)
	}
	if reward != e.cfg.Reward.Exit {
		t.Errorf("exit reward = %v, want %v", reward, e.cfg.Reward.Exit)
	}
	if e.Position().Row != 0 {
		t.Errorf("last in-grid row = %d, want 0", e.Position().Row)
	}
}

func TestStarvedCellDies(t *testing.T) {
	for a := 0; a < NumActions; a++ {
		action := Action(a)
		t.Run(action.String(), func(t *testing.T) {
			e := newTestEnv(t)
			e.Reset()
			e.Field().Set(e.Position(), 0)

			_, reward, done := e.Step(action)
			if !done {
				t.Fatal("expected episode to end")
			}
			if e.Status() != components.StatusDead {
				t.Errorf("status = %v, want dead", e.Status())
			}
			if reward != -e.cfg.Reward.Reproduce {
				t.Errorf("death reward = %v, want %v", reward, -e.cfg.Reward.Reproduce)
			}
		})
	}
}

func TestReproduceSucceeds(t *testing.T) {
	e := newTestEnv(t)
	e.Reset()
	site := e.Position()
	before := e.Field().Total()

	_, reward, done := e.Step(Reproduce)
	if done {
		t.Fatal("reproduction on a full site ended the episode")
	}
	if reward != e.cfg.Reward.Reproduce {
		t.Errorf("reward = %v, want %v", reward, e.cfg.Reward.Reproduce)
	}
	if e.Births() != 1 {
		t.Errorf("births = %d, want 1", e.Births())
	}
	if e.Position() != site {
		t.Errorf("reproduction moved the cell to %v", e.Position())
	}
	if e.Population().Passive() != 1 {
		t.Errorf("passive cells = %d, want 1", e.Population().Passive())
	}

	// Division cost plus one tick of the sibling's metabolism
	spent := before - e.Field().Total()
	want := e.cfg.Cell.ReproduceCost + e.cfg.Cell.MetabolicCost
	if math.Abs(spent-want) > 1e-9 {
		t.Errorf("nutrient spent = %v, want %v", spent, want)
	}
}

func TestReproduceFailsOnPoorSite(t *testing.T) {
	e := newTestEnv(t)
	e.Reset()
	e.Field().Set(e.Position(), e.cfg.Cell.ReproduceThreshold/2)
	before := e.Field().Total()

	_, reward, done := e.Step(Reproduce)
	if done {
		t.Fatalf("failed reproduction ended the episode (%v)", e.Status())
	}
	if reward != 0 {
		t.Errorf("failed reproduction reward = %v, want 0", reward)
	}
	if e.Births() != 0 {
		t.Errorf("births = %d, want 0", e.Births())
	}
	if spent := before - e.Field().Total(); math.Abs(spent-e.cfg.Cell.MoveCost) > 1e-9 {
		t.Errorf("nutrient spent = %v, want basal %v", spent, e.cfg.Cell.MoveCost)
	}
}

func TestMoveCostsNutrient(t *testing.T) {
	e := newTestEnv(t)
	e.Reset()
	before := e.Field().Total()

	_, reward, done := e.Step(MoveE)
	if done || reward != 0 {
		t.Fatalf("plain move returned reward=%v done=%v", reward, done)
	}
	if e.Position() != (components.Position{Row: 10, Col: 11}) {
		t.Errorf("position after MoveE = %v, want {10 11}", e.Position())
	}
	if spent := before - e.Field().Total(); math.Abs(spent-e.cfg.Cell.MoveCost) > 1e-9 {
		t.Errorf("nutrient spent = %v, want %v", spent, e.cfg.Cell.MoveCost)
	}
}

func TestEpisodeAlwaysTerminates(t *testing.T) {
	cfg := config.Default()
	cfg.World.Width = 6
	cfg.Derived.Center = 3
	e := New(cfg)

	// Alternating moves inside the grid plus reproduction drain the field
	pattern := []Action{Reproduce, MoveE, Reproduce, MoveW}
	limit := int(e.Field().Total()/cfg.Cell.MoveCost) + 10
	for i := 0; ; i++ {
		if i > limit {
			t.Fatalf("episode still running after %d steps", i)
		}
		if _, _, done := e.Step(pattern[i%len(pattern)]); done {
			break
		}
	}
	if !e.Status().Terminal() {
		t.Errorf("status = %v, want terminal", e.Status())
	}
}

func TestStepAfterDonePanics(t *testing.T) {
	e := newTestEnv(t)
	e.Reset()
	e.Field().Set(e.Position(), 0)
	e.Step(MoveN)

	defer func() {
		if recover() == nil {
			t.Error("expected panic when stepping a finished episode")
		}
	}()
	e.Step(MoveN)
}

func TestInvalidActionPanics(t *testing.T) {
	e := newTestEnv(t)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid action")
		}
	}()
	e.Step(Action(NumActions))
}

func TestSnapshotIsCopy(t *testing.T) {
	e := newTestEnv(t)
	e.Reset()
	e.Step(Reproduce)

	snap := e.Snapshot()
	if snap.Width != 20 || len(snap.Nutrient) != 400 {
		t.Fatalf("snapshot dims = %d/%d, want 20/400", snap.Width, len(snap.Nutrient))
	}
	if len(snap.Cells) != 2 {
		t.Errorf("snapshot cells = %d, want 2", len(snap.Cells))
	}
	if snap.Status != "alive" || snap.Step != 1 || snap.Births != 1 {
		t.Errorf("unexpected snapshot header: %+v", snap)
	}

	snap.Nutrient[0] = -1
	if e.Field().Res[0] < 0 {
		t.Error("snapshot aliases the live field")
	}
}
