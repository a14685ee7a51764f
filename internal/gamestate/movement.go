package gamestate

import (
	"github.com/siohaza/nuggets/internal/player"
	"github.com/siohaza/nuggets/pkg/grid"
)

type Outcome int

const (
	OutcomeBlocked Outcome = iota
	OutcomeMoved
	OutcomeGold
	OutcomeSwapped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMoved:
		return "moved"
	case OutcomeGold:
		return "gold"
	case OutcomeSwapped:
		return "swapped"
	default:
		return "blocked"
	}
}

// Step describes what a single unit move did.
type Step struct {
	Outcome   Outcome
	From      grid.Point
	To        grid.Point
	Collected int
	Other     *player.Player
}

// Move steps p one cell in direction d. Out of bounds and wall destinations
// are silent no-ops.
func (gs *GameState) Move(p *player.Player, d grid.Direction) Step {
	from := p.Position
	to := from.Add(d)
	step := Step{Outcome: OutcomeBlocked, From: from, To: to}

	if p.Quit || !gs.Master.InBounds(to) {
		return step
	}
	if !gs.Master.CanStep(from, d) {
		return step
	}

	if gs.Master.IsGold(to) {
		gs.relocate(p, to)
		gs.Master.SetTerrain(to, grid.KindFloor)
		p.View.SetTerrain(to, grid.KindFloor)

		step.Collected = gs.Gold.Collect()
		p.AddGold(step.Collected)
		step.Outcome = OutcomeGold

		gs.logger.Debug("gold collected", "letter", string(p.Letter), "amount", step.Collected,
			"purse", p.Gold, "remaining", gs.Gold.Remaining())
		return step
	}

	if letter := gs.Master.At(to).Occupant; letter != 0 && letter != p.Letter {
		other, ok := gs.Players.Get(letter)
		if ok && other.IsActive() {
			gs.swap(p, other)
			step.Outcome = OutcomeSwapped
			step.Other = other
			return step
		}
	}

	gs.relocate(p, to)
	step.Outcome = OutcomeMoved
	return step
}

// Run repeats Move in direction d until a step is blocked and returns every
// step that succeeded.
func (gs *GameState) Run(p *player.Player, d grid.Direction) []Step {
	var steps []Step
	for {
		step := gs.Move(p, d)
		if step.Outcome == OutcomeBlocked {
			return steps
		}
		steps = append(steps, step)
	}
}

func (gs *GameState) relocate(p *player.Player, to grid.Point) {
	gs.Master.ClearOccupant(p.Position)
	p.Position = to
	gs.Master.SetOccupant(to, p.Letter)
}

func (gs *GameState) swap(a, b *player.Player) {
	a.Position, b.Position = b.Position, a.Position
	gs.Master.SetOccupant(a.Position, a.Letter)
	gs.Master.SetOccupant(b.Position, b.Letter)
}
