package player

import (
	"errors"

	"github.com/siohaza/nuggets/internal/network"
	"github.com/siohaza/nuggets/pkg/grid"
)

const MaxPlayers = 26

var ErrRegistryFull = errors.New("player registry is full")

type Player struct {
	Letter   byte
	Name     string
	Endpoint network.Endpoint
	Position grid.Point
	Gold     int
	View     *grid.Grid
	Quit     bool
}

func New(letter byte, name string, endpoint network.Endpoint, pos grid.Point, view *grid.Grid) *Player {
	return &Player{
		Letter:   letter,
		Name:     name,
		Endpoint: endpoint,
		Position: pos,
		View:     view,
	}
}

func (p *Player) Send(message string) error {
	return p.Endpoint.Send([]byte(message))
}

func (p *Player) AddGold(amount int) {
	p.Gold += amount
}

func (p *Player) IsActive() bool {
	return !p.Quit
}

type Spectator struct {
	Endpoint network.Endpoint
}

func NewSpectator(endpoint network.Endpoint) *Spectator {
	return &Spectator{Endpoint: endpoint}
}

func (s *Spectator) Send(message string) error {
	return s.Endpoint.Send([]byte(message))
}

// Registry tracks every player that ever joined plus the current spectator.
// Players are never removed, so letters are never reused and the final
// leaderboard lists everyone.
type Registry struct {
	players    []*Player
	capacity   int
	nextLetter byte
	spectator  *Spectator
}

func NewRegistry(capacity int) *Registry {
	if capacity <= 0 || capacity > MaxPlayers {
		capacity = MaxPlayers
	}
	return &Registry{
		players:    make([]*Player, 0, capacity),
		capacity:   capacity,
		nextLetter: 'A',
	}
}

func (r *Registry) IsFull() bool {
	return len(r.players) >= r.capacity
}

func (r *Registry) Capacity() int {
	return r.capacity
}

// NextLetter is the letter the next accepted player will receive.
func (r *Registry) NextLetter() byte {
	return r.nextLetter
}

func (r *Registry) AddPlayer(name string, endpoint network.Endpoint, pos grid.Point, view *grid.Grid) (*Player, error) {
	if r.IsFull() {
		return nil, ErrRegistryFull
	}

	p := New(r.nextLetter, name, endpoint, pos, view)
	r.nextLetter++
	r.players = append(r.players, p)
	return p, nil
}

// AddSpectator installs s and returns the spectator it replaced, if any.
func (r *Registry) AddSpectator(s *Spectator) *Spectator {
	previous := r.spectator
	r.spectator = s
	return previous
}

func (r *Registry) RemoveSpectator() *Spectator {
	previous := r.spectator
	r.spectator = nil
	return previous
}

func (r *Registry) Spectator() *Spectator {
	return r.spectator
}

func (r *Registry) IsSpectator(endpoint network.Endpoint) bool {
	return r.spectator != nil && network.SameEndpoint(r.spectator.Endpoint, endpoint)
}

// FindByAddress returns the active player registered from endpoint.
func (r *Registry) FindByAddress(endpoint network.Endpoint) (*Player, bool) {
	for _, p := range r.players {
		if p.IsActive() && network.SameEndpoint(p.Endpoint, endpoint) {
			return p, true
		}
	}
	return nil, false
}

func (r *Registry) Get(letter byte) (*Player, bool) {
	for _, p := range r.players {
		if p.Letter == letter {
			return p, true
		}
	}
	return nil, false
}

// PlayerAt returns the active player standing on pos.
func (r *Registry) PlayerAt(pos grid.Point) (*Player, bool) {
	for _, p := range r.players {
		if p.IsActive() && p.Position == pos {
			return p, true
		}
	}
	return nil, false
}

// Players returns every registered player in join order, quit or not.
func (r *Registry) Players() []*Player {
	players := make([]*Player, len(r.players))
	copy(players, r.players)
	return players
}

func (r *Registry) ForEachActive(fn func(*Player)) {
	for _, p := range r.players {
		if p.IsActive() {
			fn(p)
		}
	}
}

func (r *Registry) Count() int {
	return len(r.players)
}

func (r *Registry) ActiveCount() int {
	n := 0
	r.ForEachActive(func(*Player) { n++ })
	return n
}
