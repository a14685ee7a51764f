package gamestate

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"testing"

	"github.com/siohaza/nuggets/internal/gold"
	"github.com/siohaza/nuggets/internal/player"
	"github.com/siohaza/nuggets/pkg/config"
	"github.com/siohaza/nuggets/pkg/grid"
)

type fakeEndpoint struct {
	addr string
}

func (f *fakeEndpoint) Address() string        { return f.addr }
func (f *fakeEndpoint) Send(data []byte) error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const openRoom = "" +
	"+-----+\n" +
	"|.....|\n" +
	"|.....|\n" +
	"|.....|\n" +
	"|.....|\n" +
	"|.....|\n" +
	"+-----+\n"

// newEmptyState builds a game whose gold pool is set up by hand so tests
// control every pile location.
func newEmptyState(t *testing.T, src string) *GameState {
	t.Helper()
	g, err := grid.Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("failed to load map: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	pool, err := gold.Partition(rng, 30, 3)
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}

	return &GameState{
		Master:  g,
		Gold:    pool,
		Players: player.NewRegistry(player.MaxPlayers),
		rng:     rng,
		logger:  discardLogger(),
	}
}

// place registers a player at a fixed position.
func place(t *testing.T, gs *GameState, name string, pos grid.Point) *player.Player {
	t.Helper()
	p, err := gs.Players.AddPlayer(name, &fakeEndpoint{addr: name}, pos, grid.New(gs.Master.Rows(), gs.Master.Cols()))
	if err != nil {
		t.Fatalf("AddPlayer failed: %v", err)
	}
	gs.Master.SetOccupant(pos, p.Letter)
	return p
}

func TestNewScattersGold(t *testing.T) {
	g, err := grid.Load(strings.NewReader(openRoom))
	if err != nil {
		t.Fatalf("failed to load map: %v", err)
	}

	cfg := config.Default()
	cfg.Gold.MinPiles = 10
	cfg.Gold.MaxPiles = 20

	gs, err := New(cfg, g, rand.New(rand.NewSource(5)), discardLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	piles := gs.Gold.PileCount()
	if n := gs.Master.Count(gs.Master.IsGold); n != piles {
		t.Fatalf("expected %d gold cells, got %d", piles, n)
	}
	if gs.Gold.Remaining() != cfg.Gold.Total {
		t.Fatalf("expected %d gold remaining, got %d", cfg.Gold.Total, gs.Gold.Remaining())
	}
}

func TestNewFailsOnTinyMap(t *testing.T) {
	g, err := grid.Load(strings.NewReader("+--+\n|..|\n+--+\n"))
	if err != nil {
		t.Fatalf("failed to load map: %v", err)
	}

	if _, err := New(config.Default(), g, rand.New(rand.NewSource(1)), discardLogger()); !errors.Is(err, gold.ErrNotEnoughFloor) {
		t.Fatalf("expected ErrNotEnoughFloor, got %v", err)
	}
}

func TestJoinSpawnsOnOpenFloor(t *testing.T) {
	gs := newEmptyState(t, openRoom)

	for i := 0; i < 10; i++ {
		p, err := gs.Join(fmt.Sprintf("p%d", i), &fakeEndpoint{addr: fmt.Sprintf("c%d", i)})
		if err != nil {
			t.Fatalf("Join failed: %v", err)
		}
		if gs.Master.At(p.Position).Occupant != p.Letter {
			t.Fatalf("player %c not marked on the master grid", p.Letter)
		}
		if gs.Master.At(p.Position).Terrain != grid.KindFloor {
			t.Fatalf("player %c spawned on %q", p.Letter, gs.Master.At(p.Position).Terrain.Rune())
		}
	}

	seen := make(map[grid.Point]bool)
	for _, p := range gs.Players.Players() {
		if seen[p.Position] {
			t.Fatalf("two players spawned on %v", p.Position)
		}
		seen[p.Position] = true
	}
}

func TestJoinWithoutFloor(t *testing.T) {
	gs := newEmptyState(t, "+-+\n|.|\n+-+\n")
	place(t, gs, "alice", grid.Point{X: 1, Y: 1})

	if _, err := gs.Join("bob", &fakeEndpoint{addr: "bob"}); !errors.Is(err, ErrNoSpawn) {
		t.Fatalf("expected ErrNoSpawn, got %v", err)
	}
}

func TestRenderForShowsSelfAndVisiblePlayers(t *testing.T) {
	gs := newEmptyState(t, ""+
		"+---+   +---+\n"+
		"|...#####...|\n"+
		"|...|   |...|\n"+
		"+---+   +---+\n")

	a := place(t, gs, "alice", grid.Point{X: 1, Y: 1})
	b := place(t, gs, "bob", grid.Point{X: 3, Y: 1})
	c := place(t, gs, "carol", grid.Point{X: 10, Y: 2})
	gs.RefreshViews()

	view := gs.RenderFor(a)
	rows := strings.Split(view, "\n")
	if rows[1][1] != SelfGlyph {
		t.Fatalf("own cell should render as @, got %q", rows[1])
	}
	if rows[1][3] != b.Letter {
		t.Fatalf("visible player should render by letter, got %q", rows[1])
	}
	if rows[2][10] == c.Letter {
		t.Fatalf("hidden player should not render, got %q", rows[2])
	}

	spectator := gs.RenderSpectator()
	if !strings.Contains(spectator, "A.B") || !strings.Contains(spectator, "C") {
		t.Fatalf("spectator should see every player:\n%s", spectator)
	}
}

func TestLeaveClearsBoard(t *testing.T) {
	gs := newEmptyState(t, openRoom)
	p := place(t, gs, "alice", grid.Point{X: 2, Y: 2})

	gs.Leave(p)

	if !p.Quit {
		t.Fatalf("player not flagged as quit")
	}
	if gs.Master.IsPlayer(grid.Point{X: 2, Y: 2}) {
		t.Fatalf("quit player still on the board")
	}
	if len(gs.Standings()) != 1 {
		t.Fatalf("quit player missing from standings")
	}
}
