package gamestate

import (
	"testing"

	"github.com/siohaza/nuggets/internal/player"
	"github.com/siohaza/nuggets/pkg/grid"
)

func TestMoveCollectsGoldInPileOrder(t *testing.T) {
	gs := newEmptyState(t, openRoom)
	piles := gs.Gold.Piles()

	gs.Master.SetTerrain(grid.Point{X: 2, Y: 1}, grid.KindGold)
	gs.Master.SetTerrain(grid.Point{X: 3, Y: 1}, grid.KindGold)
	p := place(t, gs, "alice", grid.Point{X: 1, Y: 1})

	step := gs.Move(p, grid.East)
	if step.Outcome != OutcomeGold || step.Collected != piles[0] {
		t.Fatalf("expected to collect %d, got %v with %d", piles[0], step.Outcome, step.Collected)
	}
	if gs.Master.IsGold(grid.Point{X: 2, Y: 1}) {
		t.Fatalf("collected gold still on the master grid")
	}

	step = gs.Move(p, grid.East)
	if step.Collected != piles[1] {
		t.Fatalf("second pickup got %d, want %d", step.Collected, piles[1])
	}
	if p.Gold != piles[0]+piles[1] {
		t.Fatalf("purse = %d, want %d", p.Gold, piles[0]+piles[1])
	}
	if gs.Gold.Collected() != 2 {
		t.Fatalf("pool index = %d, want 2", gs.Gold.Collected())
	}
	if gs.Gold.Remaining() != 30-piles[0]-piles[1] {
		t.Fatalf("remaining = %d", gs.Gold.Remaining())
	}
}

func TestMoveSwapsWithOtherPlayer(t *testing.T) {
	gs := newEmptyState(t, openRoom)
	a := place(t, gs, "alice", grid.Point{X: 1, Y: 1})
	b := place(t, gs, "bob", grid.Point{X: 2, Y: 2})

	step := gs.Move(a, grid.SouthEast)
	if step.Outcome != OutcomeSwapped || step.Other != b {
		t.Fatalf("expected swap with bob, got %v", step.Outcome)
	}
	if a.Position != (grid.Point{X: 2, Y: 2}) || b.Position != (grid.Point{X: 1, Y: 1}) {
		t.Fatalf("positions not exchanged: a=%v b=%v", a.Position, b.Position)
	}
	if gs.Master.At(a.Position).Occupant != a.Letter || gs.Master.At(b.Position).Occupant != b.Letter {
		t.Fatalf("master grid occupants not updated")
	}
}

func TestWalkingOntoAPlayerSwaps(t *testing.T) {
	tests := []struct {
		name     string
		bob      grid.Point
		carol    grid.Point
		moves    []grid.Direction
		outcomes []Outcome
		alice    grid.Point
		bobEnd   grid.Point
	}{
		{
			name:     "diagonal approach",
			bob:      grid.Point{X: 3, Y: 3},
			carol:    grid.Point{X: 5, Y: 5},
			moves:    []grid.Direction{grid.SouthEast, grid.SouthEast},
			outcomes: []Outcome{OutcomeMoved, OutcomeSwapped},
			alice:    grid.Point{X: 3, Y: 3},
			bobEnd:   grid.Point{X: 2, Y: 2},
		},
		{
			name:     "row then column approach",
			bob:      grid.Point{X: 3, Y: 3},
			carol:    grid.Point{X: 4, Y: 3},
			moves:    []grid.Direction{grid.East, grid.East, grid.South, grid.South},
			outcomes: []Outcome{OutcomeMoved, OutcomeMoved, OutcomeMoved, OutcomeSwapped},
			alice:    grid.Point{X: 3, Y: 3},
			bobEnd:   grid.Point{X: 3, Y: 2},
		},
		{
			name:     "swap next to a third player",
			bob:      grid.Point{X: 2, Y: 1},
			carol:    grid.Point{X: 1, Y: 2},
			moves:    []grid.Direction{grid.East, grid.West},
			outcomes: []Outcome{OutcomeSwapped, OutcomeSwapped},
			alice:    grid.Point{X: 1, Y: 1},
			bobEnd:   grid.Point{X: 2, Y: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := newEmptyState(t, openRoom)
			a := place(t, gs, "alice", grid.Point{X: 1, Y: 1})
			b := place(t, gs, "bob", tt.bob)
			c := place(t, gs, "carol", tt.carol)

			for i, d := range tt.moves {
				if step := gs.Move(a, d); step.Outcome != tt.outcomes[i] {
					t.Fatalf("move %d: got %v, want %v", i, step.Outcome, tt.outcomes[i])
				}
			}

			if a.Position != tt.alice || b.Position != tt.bobEnd {
				t.Fatalf("alice at %v, bob at %v; want %v and %v", a.Position, b.Position, tt.alice, tt.bobEnd)
			}
			if c.Position != tt.carol || gs.Master.At(tt.carol).Occupant != c.Letter {
				t.Fatalf("carol disturbed: at %v", c.Position)
			}

			seen := map[byte]int{}
			gs.Master.Each(func(p grid.Point) {
				if occ := gs.Master.At(p).Occupant; occ != 0 {
					seen[occ]++
				}
			})
			for _, p := range []*player.Player{a, b, c} {
				if seen[p.Letter] != 1 || gs.Master.At(p.Position).Occupant != p.Letter {
					t.Fatalf("player %c drawn %d times on the master grid", p.Letter, seen[p.Letter])
				}
			}
		})
	}
}

func TestMoveIntoWallIsNoop(t *testing.T) {
	gs := newEmptyState(t, openRoom)
	p := place(t, gs, "alice", grid.Point{X: 1, Y: 1})

	for _, d := range []grid.Direction{grid.West, grid.North, grid.NorthWest, grid.NorthEast, grid.SouthWest} {
		if step := gs.Move(p, d); step.Outcome != OutcomeBlocked {
			t.Fatalf("move %v from the corner should be blocked, got %v", d, step.Outcome)
		}
	}
	if p.Position != (grid.Point{X: 1, Y: 1}) || gs.Master.At(p.Position).Occupant != p.Letter {
		t.Fatalf("blocked moves changed the board")
	}
}

func TestMoveOffTheMapIsNoop(t *testing.T) {
	gs := newEmptyState(t, ".....\n")
	p := place(t, gs, "alice", grid.Point{X: 0, Y: 0})

	if step := gs.Move(p, grid.North); step.Outcome != OutcomeBlocked {
		t.Fatalf("leaving the map should be blocked, got %v", step.Outcome)
	}
	if step := gs.Move(p, grid.West); step.Outcome != OutcomeBlocked {
		t.Fatalf("leaving the map should be blocked, got %v", step.Outcome)
	}
}

func TestRunStopsAtWallAndCollectsOnTheWay(t *testing.T) {
	gs := newEmptyState(t, openRoom)
	piles := gs.Gold.Piles()
	gs.Master.SetTerrain(grid.Point{X: 3, Y: 3}, grid.KindGold)
	p := place(t, gs, "alice", grid.Point{X: 1, Y: 3})

	steps := gs.Run(p, grid.East)
	if len(steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(steps))
	}
	if p.Position != (grid.Point{X: 5, Y: 3}) {
		t.Fatalf("run ended at %v", p.Position)
	}
	if steps[1].Outcome != OutcomeGold || p.Gold != piles[0] {
		t.Fatalf("run should have collected the pile on its path")
	}
}

func TestRunIntoAdjacentWallDoesNothing(t *testing.T) {
	gs := newEmptyState(t, openRoom)
	p := place(t, gs, "alice", grid.Point{X: 5, Y: 5})

	if steps := gs.Run(p, grid.SouthEast); len(steps) != 0 {
		t.Fatalf("expected no steps, got %d", len(steps))
	}
}

func TestQuitPlayerCannotMove(t *testing.T) {
	gs := newEmptyState(t, openRoom)
	p := place(t, gs, "alice", grid.Point{X: 2, Y: 2})
	gs.Leave(p)

	if step := gs.Move(p, grid.East); step.Outcome != OutcomeBlocked {
		t.Fatalf("quit player moved")
	}
}

func TestMoveIntoQuitPlayersCell(t *testing.T) {
	gs := newEmptyState(t, openRoom)
	a := place(t, gs, "alice", grid.Point{X: 1, Y: 1})
	b := place(t, gs, "bob", grid.Point{X: 2, Y: 1})
	gs.Leave(b)

	if step := gs.Move(a, grid.East); step.Outcome != OutcomeMoved {
		t.Fatalf("expected a plain move into a vacated cell, got %v", step.Outcome)
	}
}
