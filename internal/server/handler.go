package server

import (
	"errors"

	"github.com/siohaza/nuggets/internal/callbacks"
	"github.com/siohaza/nuggets/internal/gamestate"
	"github.com/siohaza/nuggets/internal/network"
	"github.com/siohaza/nuggets/internal/player"
	"github.com/siohaza/nuggets/internal/protocol"
	"github.com/siohaza/nuggets/pkg/grid"
)

const reasonNoSpawn = "no free floor to spawn on"

// HandleMessage processes one inbound message from a client, refreshes every
// view and reports whether the game is over. It must only be called from a
// single goroutine.
func (s *Server) HandleMessage(from network.Endpoint, data []byte) bool {
	if s.over {
		return true
	}

	s.turnActor = nil
	s.turnGold = 0

	msg, err := protocol.Parse(data)
	if err != nil {
		s.logger.Warn("malformed message", "from", from.Address(), "error", err)
		s.send(from, protocol.Error(protocol.ReasonMalformed))
		return s.finishTurn()
	}

	switch m := msg.(type) {
	case protocol.Play:
		s.handlePlay(from, m)
	case protocol.Spectate:
		s.handleSpectate(from)
	case protocol.Key:
		s.handleKey(from, m)
	case protocol.Quit:
		s.handleQuit(from)
	}

	return s.finishTurn()
}

func (s *Server) handlePlay(from network.Endpoint, m protocol.Play) {
	gs := s.gameState

	if gs.Players.IsFull() {
		s.logger.Warn("game full, rejecting player", "from", from.Address())
		s.send(from, protocol.QuitMessage(protocol.ReasonGameFull))
		return
	}

	name := protocol.SanitizeName(m.Name, s.config.Server.MaxNameLength)
	if name == "" {
		s.logger.Warn("play without a name", "from", from.Address())
		s.send(from, protocol.Error(protocol.ReasonMissingName))
		return
	}

	if !s.gameMode.OnJoinRequest(name) || !s.callbacks.OnJoinRequest(name) {
		s.logger.Info("join refused", "name", name, "from", from.Address())
		s.send(from, protocol.QuitMessage(protocol.ReasonJoinRefused))
		return
	}

	p, err := gs.Join(name, from)
	if err != nil {
		switch {
		case errors.Is(err, player.ErrRegistryFull):
			s.send(from, protocol.QuitMessage(protocol.ReasonGameFull))
		case errors.Is(err, gamestate.ErrNoSpawn):
			s.send(from, protocol.Error(reasonNoSpawn))
		}
		s.logger.Warn("failed to add player", "name", name, "error", err)
		return
	}

	s.send(from, protocol.Grid(gs.Master.Rows(), gs.Master.Cols()))
	s.send(from, protocol.OK(p.Letter))

	s.notify(func(cb callbacks.Callbacks) { cb.OnPlayerJoin(p) })
}

func (s *Server) handleSpectate(from network.Endpoint) {
	gs := s.gameState

	previous := gs.Spectate(from)
	if previous != nil && !network.SameEndpoint(previous.Endpoint, from) {
		s.send(previous.Endpoint, protocol.QuitMessage(protocol.ReasonSpectatorReplace))
		s.disconnect(previous.Endpoint)
		s.logger.Info("spectator replaced", "previous", previous.Endpoint.Address(), "next", from.Address())
	} else {
		s.logger.Info("spectator joined", "endpoint", from.Address())
	}

	s.send(from, protocol.Grid(gs.Master.Rows(), gs.Master.Cols()))

	spectator := gs.Players.Spectator()
	s.notify(func(cb callbacks.Callbacks) { cb.OnSpectate(spectator) })
}

func (s *Server) handleKey(from network.Endpoint, m protocol.Key) {
	gs := s.gameState

	if p, ok := gs.Players.FindByAddress(from); ok {
		if m.Key == protocol.KeyQuit {
			s.quitPlayer(p, true)
			return
		}

		d, run, ok := grid.DirectionForKey(m.Key)
		if !ok {
			s.send(from, protocol.Error(protocol.ReasonUnknownKey))
			return
		}

		s.turnActor = p
		if run {
			for _, step := range gs.Run(p, d) {
				s.afterStep(p, step)
			}
			return
		}
		s.afterStep(p, gs.Move(p, d))
		return
	}

	if gs.Players.IsSpectator(from) {
		if m.Key == protocol.KeyQuit {
			s.quitSpectator()
			return
		}
		s.send(from, protocol.Error(protocol.ReasonUnknownKey))
		return
	}

	s.logger.Warn("key from unknown client", "from", from.Address(), "key", string(m.Key))
}

func (s *Server) afterStep(p *player.Player, step gamestate.Step) {
	if step.Outcome != gamestate.OutcomeGold {
		return
	}
	s.turnGold += step.Collected
	remaining := s.gameState.Gold.Remaining()
	s.notify(func(cb callbacks.Callbacks) { cb.OnGoldCollected(p, step.Collected, remaining) })
}

func (s *Server) handleQuit(from network.Endpoint) {
	gs := s.gameState

	if p, ok := gs.Players.FindByAddress(from); ok {
		s.quitPlayer(p, true)
		return
	}
	if gs.Players.IsSpectator(from) {
		s.quitSpectator()
		return
	}

	s.logger.Warn("quit from unknown client", "from", from.Address())
}

func (s *Server) quitPlayer(p *player.Player, farewell bool) {
	s.gameState.Leave(p)
	if farewell {
		s.send(p.Endpoint, protocol.QuitMessage(protocol.ReasonPlayerQuit))
		s.disconnect(p.Endpoint)
	}
	s.notify(func(cb callbacks.Callbacks) { cb.OnPlayerQuit(p) })
}

func (s *Server) quitSpectator() {
	spectator := s.gameState.Players.RemoveSpectator()
	if spectator == nil {
		return
	}
	s.send(spectator.Endpoint, protocol.QuitMessage(protocol.ReasonSpectatorQuit))
	s.disconnect(spectator.Endpoint)
	s.logger.Info("spectator left", "endpoint", spectator.Endpoint.Address())
}

// finishTurn brings every client up to date and ends the game once the gold
// is gone.
func (s *Server) finishTurn() bool {
	gs := s.gameState

	gs.RefreshViews()
	s.broadcastDisplay()
	s.broadcastGold()

	if gs.IsOver() {
		s.gameOver()
	}

	s.updateStatus()
	return s.over
}

func (s *Server) broadcastDisplay() {
	gs := s.gameState

	gs.Players.ForEachActive(func(p *player.Player) {
		s.send(p.Endpoint, protocol.Display(gs.RenderFor(p)))
	})
	if spectator := gs.Players.Spectator(); spectator != nil {
		s.send(spectator.Endpoint, protocol.Display(gs.RenderSpectator()))
	}
}

func (s *Server) broadcastGold() {
	gs := s.gameState
	remaining := gs.Gold.Remaining()

	gs.Players.ForEachActive(func(p *player.Player) {
		collected := 0
		if p == s.turnActor {
			collected = s.turnGold
		}
		s.send(p.Endpoint, protocol.Gold(collected, p.Gold, remaining))
	})
	if spectator := gs.Players.Spectator(); spectator != nil {
		s.send(spectator.Endpoint, protocol.Gold(0, 0, remaining))
	}
}

func (s *Server) gameOver() {
	gs := s.gameState
	report := protocol.GameOver(gs.Standings())

	gs.Players.ForEachActive(func(p *player.Player) {
		s.send(p.Endpoint, report)
	})
	if spectator := gs.Players.Spectator(); spectator != nil {
		s.send(spectator.Endpoint, report)
	}

	s.over = true
	s.logger.Info("game over", "players", gs.Players.Count())

	players := gs.Players.Players()
	s.notify(func(cb callbacks.Callbacks) { cb.OnGameOver(players) })

	s.doneOnce.Do(func() { close(s.done) })
}

// notify delivers an event to the game mode and then every registered callback.
func (s *Server) notify(fn func(cb callbacks.Callbacks)) {
	fn(s.gameMode)
	fn(s.callbacks)
}

func (s *Server) send(to network.Endpoint, message string) {
	s.logger.Debug("sending message", "to", to.Address(), "len", len(message))
	if err := to.Send([]byte(message)); err != nil {
		s.logger.Error("failed to send message", "to", to.Address(), "error", err)
	}
}
