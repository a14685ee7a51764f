package gamestate

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/siohaza/nuggets/internal/gold"
	"github.com/siohaza/nuggets/internal/network"
	"github.com/siohaza/nuggets/internal/player"
	"github.com/siohaza/nuggets/internal/protocol"
	"github.com/siohaza/nuggets/internal/visibility"
	"github.com/siohaza/nuggets/pkg/config"
	"github.com/siohaza/nuggets/pkg/grid"
)

const SelfGlyph = '@'

var ErrNoSpawn = errors.New("no open floor cell to spawn on")

// GameState owns the master grid, the gold pool and every participant of one
// game. It is driven by a single goroutine and does no locking of its own.
type GameState struct {
	Master  *grid.Grid
	Gold    *gold.Pool
	Players *player.Registry
	MapName string

	rng    *rand.Rand
	logger *slog.Logger
}

// New scatters gold over master and prepares an empty registry.
func New(cfg *config.Config, master *grid.Grid, rng *rand.Rand, logger *slog.Logger) (*GameState, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if master.Rows() == 0 || master.Cols() == 0 {
		return nil, grid.ErrEmptyMap
	}

	pileCount := gold.PileCount(rng, cfg.Gold.MinPiles, cfg.Gold.MaxPiles)
	pool, err := gold.Partition(rng, cfg.Gold.Total, pileCount)
	if err != nil {
		return nil, fmt.Errorf("failed to partition gold: %w", err)
	}
	if err := pool.Scatter(rng, master); err != nil {
		return nil, fmt.Errorf("failed to scatter gold: %w", err)
	}

	logger.Info("gold scattered", "total", cfg.Gold.Total, "piles", pileCount)

	return &GameState{
		Master:  master,
		Gold:    pool,
		Players: player.NewRegistry(cfg.Server.MaxPlayers),
		rng:     rng,
		logger:  logger,
	}, nil
}

// RandomSpawn picks a uniformly random open floor cell.
func (gs *GameState) RandomSpawn() (grid.Point, error) {
	rows, cols := gs.Master.Rows(), gs.Master.Cols()
	if gs.Master.Count(gs.Master.IsOpenFloor) == 0 {
		return grid.Point{}, ErrNoSpawn
	}

	for attempt := 0; attempt < 64*rows*cols; attempt++ {
		pt := grid.Point{X: gs.rng.Intn(cols), Y: gs.rng.Intn(rows)}
		if gs.Master.IsOpenFloor(pt) {
			return pt, nil
		}
	}

	var free []grid.Point
	gs.Master.Each(func(pt grid.Point) {
		if gs.Master.IsOpenFloor(pt) {
			free = append(free, pt)
		}
	})
	return free[gs.rng.Intn(len(free))], nil
}

// Join registers a new player at a random spawn and reveals their first view.
func (gs *GameState) Join(name string, endpoint network.Endpoint) (*player.Player, error) {
	if gs.Players.IsFull() {
		return nil, player.ErrRegistryFull
	}

	spawn, err := gs.RandomSpawn()
	if err != nil {
		return nil, err
	}

	view := grid.New(gs.Master.Rows(), gs.Master.Cols())
	p, err := gs.Players.AddPlayer(name, endpoint, spawn, view)
	if err != nil {
		return nil, err
	}

	gs.Master.SetOccupant(spawn, p.Letter)
	visibility.Refresh(gs.Master, p.View, p.Position)

	gs.logger.Info("player joined", "letter", string(p.Letter), "name", p.Name, "x", spawn.X, "y", spawn.Y)
	return p, nil
}

// Spectate installs a spectator and returns the one it replaced, if any.
func (gs *GameState) Spectate(endpoint network.Endpoint) *player.Spectator {
	return gs.Players.AddSpectator(player.NewSpectator(endpoint))
}

// Leave flags p as quit and takes it off the board. The player stays
// registered for the final standings.
func (gs *GameState) Leave(p *player.Player) {
	if p.Quit {
		return
	}
	p.Quit = true
	gs.Master.ClearOccupant(p.Position)
	gs.logger.Info("player quit", "letter", string(p.Letter), "name", p.Name, "gold", p.Gold)
}

func (gs *GameState) RefreshViews() {
	gs.Players.ForEachActive(func(p *player.Player) {
		visibility.Refresh(gs.Master, p.View, p.Position)
	})
}

// RenderFor serializes p's private view. p shows as '@'; other players show
// only while the two can see each other.
func (gs *GameState) RenderFor(p *player.Player) string {
	return p.View.Render(func(pt grid.Point) byte {
		if pt == p.Position {
			return SelfGlyph
		}
		letter := gs.Master.At(pt).Occupant
		if letter != 0 && visibility.MutuallyVisible(gs.Master, p.Position, pt) {
			return letter
		}
		return 0
	})
}

func (gs *GameState) RenderSpectator() string {
	return gs.Master.String()
}

func (gs *GameState) IsOver() bool {
	return gs.Gold.IsExhausted()
}

// Standings lists every registered player in join order.
func (gs *GameState) Standings() []protocol.Standing {
	players := gs.Players.Players()
	standings := make([]protocol.Standing, 0, len(players))
	for _, p := range players {
		standings = append(standings, protocol.Standing{
			Letter: p.Letter,
			Gold:   p.Gold,
			Name:   p.Name,
		})
	}
	return standings
}
