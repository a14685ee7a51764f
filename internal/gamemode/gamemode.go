package gamemode

import (
	"github.com/siohaza/nuggets/internal/callbacks"
)

// GameMode receives every game event and may veto joins. Update runs once
// per server tick.
type GameMode interface {
	callbacks.Callbacks
	Name() string
	Update() error
	Close()
}

// BaseGameMode is the plain gold hunt with no scripted behavior.
type BaseGameMode struct {
	callbacks.DefaultCallbacks
	name string
}

func NewBaseGameMode() *BaseGameMode {
	return &BaseGameMode{name: "classic"}
}

func (b *BaseGameMode) Name() string {
	return b.name
}

func (b *BaseGameMode) Update() error {
	return nil
}

func (b *BaseGameMode) Close() {}
