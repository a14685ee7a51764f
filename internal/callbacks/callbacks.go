package callbacks

import (
	"github.com/siohaza/nuggets/internal/player"
)

type Callbacks interface {
	OnJoinRequest(name string) bool
	OnPlayerJoin(p *player.Player)
	OnSpectate(s *player.Spectator)
	OnGoldCollected(p *player.Player, amount, remaining int)
	OnPlayerQuit(p *player.Player)
	OnGameOver(players []*player.Player)
}

type DefaultCallbacks struct{}

func (d *DefaultCallbacks) OnJoinRequest(name string) bool                          { return true }
func (d *DefaultCallbacks) OnPlayerJoin(p *player.Player)                           {}
func (d *DefaultCallbacks) OnSpectate(s *player.Spectator)                          {}
func (d *DefaultCallbacks) OnGoldCollected(p *player.Player, amount, remaining int) {}
func (d *DefaultCallbacks) OnPlayerQuit(p *player.Player)                           {}
func (d *DefaultCallbacks) OnGameOver(players []*player.Player)                     {}

type CallbackChain struct {
	callbacks []Callbacks
}

func NewCallbackChain() *CallbackChain {
	return &CallbackChain{
		callbacks: make([]Callbacks, 0),
	}
}

func (c *CallbackChain) Register(cb Callbacks) {
	c.callbacks = append(c.callbacks, cb)
}

func (c *CallbackChain) Len() int {
	return len(c.callbacks)
}

// OnJoinRequest stops at the first callback that refuses the join.
func (c *CallbackChain) OnJoinRequest(name string) bool {
	for _, cb := range c.callbacks {
		if !cb.OnJoinRequest(name) {
			return false
		}
	}
	return true
}

func (c *CallbackChain) OnPlayerJoin(p *player.Player) {
	for _, cb := range c.callbacks {
		cb.OnPlayerJoin(p)
	}
}

func (c *CallbackChain) OnSpectate(s *player.Spectator) {
	for _, cb := range c.callbacks {
		cb.OnSpectate(s)
	}
}

func (c *CallbackChain) OnGoldCollected(p *player.Player, amount, remaining int) {
	for _, cb := range c.callbacks {
		cb.OnGoldCollected(p, amount, remaining)
	}
}

func (c *CallbackChain) OnPlayerQuit(p *player.Player) {
	for _, cb := range c.callbacks {
		cb.OnPlayerQuit(p)
	}
}

func (c *CallbackChain) OnGameOver(players []*player.Player) {
	for _, cb := range c.callbacks {
		cb.OnGameOver(players)
	}
}
