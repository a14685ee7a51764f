package player

import (
	"errors"
	"fmt"
	"testing"

	"github.com/siohaza/nuggets/pkg/grid"
)

type fakeEndpoint struct {
	addr string
	sent []string
}

func (f *fakeEndpoint) Address() string { return f.addr }

func (f *fakeEndpoint) Send(data []byte) error {
	f.sent = append(f.sent, string(data))
	return nil
}

func endpoint(i int) *fakeEndpoint {
	return &fakeEndpoint{addr: fmt.Sprintf("client-%d", i)}
}

func TestRegistryCapacityAndLetters(t *testing.T) {
	r := NewRegistry(MaxPlayers)

	for i := 0; i < MaxPlayers; i++ {
		p, err := r.AddPlayer(fmt.Sprintf("player%d", i), endpoint(i), grid.Point{}, grid.New(1, 1))
		if err != nil {
			t.Fatalf("player %d rejected: %v", i, err)
		}
		if want := byte('A' + i); p.Letter != want {
			t.Fatalf("player %d got letter %c, want %c", i, p.Letter, want)
		}
	}

	if _, err := r.AddPlayer("late", endpoint(99), grid.Point{}, grid.New(1, 1)); !errors.Is(err, ErrRegistryFull) {
		t.Fatalf("expected ErrRegistryFull for the 27th player, got %v", err)
	}
	if r.Count() != MaxPlayers {
		t.Fatalf("registry holds %d players, want %d", r.Count(), MaxPlayers)
	}
}

func TestLettersNotReusedAfterQuit(t *testing.T) {
	r := NewRegistry(3)

	a, _ := r.AddPlayer("alice", endpoint(1), grid.Point{}, grid.New(1, 1))
	a.Quit = true

	b, err := r.AddPlayer("bob", endpoint(2), grid.Point{}, grid.New(1, 1))
	if err != nil {
		t.Fatalf("AddPlayer failed: %v", err)
	}
	if b.Letter != 'B' {
		t.Fatalf("expected letter B after a quit, got %c", b.Letter)
	}

	if _, err := r.AddPlayer("carol", endpoint(3), grid.Point{}, grid.New(1, 1)); err != nil {
		t.Fatalf("AddPlayer failed: %v", err)
	}
	if _, err := r.AddPlayer("dave", endpoint(4), grid.Point{}, grid.New(1, 1)); !errors.Is(err, ErrRegistryFull) {
		t.Fatalf("quit players still count toward capacity, got %v", err)
	}

	if len(r.Players()) != 3 || r.ActiveCount() != 2 {
		t.Fatalf("expected 3 registered and 2 active, got %d and %d", len(r.Players()), r.ActiveCount())
	}
}

func TestFindByAddress(t *testing.T) {
	r := NewRegistry(MaxPlayers)
	ep := endpoint(1)

	p, _ := r.AddPlayer("alice", ep, grid.Point{}, grid.New(1, 1))

	got, ok := r.FindByAddress(&fakeEndpoint{addr: ep.addr})
	if !ok || got != p {
		t.Fatalf("expected to find alice by address")
	}

	if _, ok := r.FindByAddress(endpoint(2)); ok {
		t.Fatalf("unknown address should not resolve")
	}

	p.Quit = true
	if _, ok := r.FindByAddress(ep); ok {
		t.Fatalf("quit players should not resolve")
	}
}

func TestSpectatorReplacement(t *testing.T) {
	r := NewRegistry(MaxPlayers)

	first := NewSpectator(endpoint(1))
	if prev := r.AddSpectator(first); prev != nil {
		t.Fatalf("expected no previous spectator")
	}
	if !r.IsSpectator(endpoint(1)) {
		t.Fatalf("first spectator not recognised")
	}

	second := NewSpectator(endpoint(2))
	if prev := r.AddSpectator(second); prev != first {
		t.Fatalf("expected the first spectator to be evicted")
	}
	if r.IsSpectator(endpoint(1)) || !r.IsSpectator(endpoint(2)) {
		t.Fatalf("spectator was not replaced")
	}

	if removed := r.RemoveSpectator(); removed != second {
		t.Fatalf("RemoveSpectator returned the wrong spectator")
	}
	if r.IsSpectator(endpoint(2)) {
		t.Fatalf("spectator still present after removal")
	}
}

func TestPlayerAtIgnoresQuit(t *testing.T) {
	r := NewRegistry(MaxPlayers)
	pos := grid.Point{X: 2, Y: 3}

	p, _ := r.AddPlayer("alice", endpoint(1), pos, grid.New(5, 5))
	if got, ok := r.PlayerAt(pos); !ok || got != p {
		t.Fatalf("expected alice at %v", pos)
	}

	p.Quit = true
	if _, ok := r.PlayerAt(pos); ok {
		t.Fatalf("quit player should not occupy a cell")
	}
}
