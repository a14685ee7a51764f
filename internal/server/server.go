package server

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/siohaza/nuggets/internal/bans"
	"github.com/siohaza/nuggets/internal/callbacks"
	"github.com/siohaza/nuggets/internal/gamemode"
	"github.com/siohaza/nuggets/internal/gamestate"
	"github.com/siohaza/nuggets/internal/network"
	"github.com/siohaza/nuggets/internal/ping"
	"github.com/siohaza/nuggets/internal/player"
	"github.com/siohaza/nuggets/pkg/config"
	"github.com/siohaza/nuggets/pkg/grid"
)

type Server struct {
	config    *config.Config
	network   *network.Server
	gateway   *network.Gateway
	gameState *gamestate.GameState
	gameMode  gamemode.GameMode
	logger    *slog.Logger
	tickRate  time.Duration
	startTime time.Time
	mapName   string

	pingHandler *ping.Handler
	status      atomic.Pointer[ping.ServerInfo]
	callbacks   *callbacks.CallbackChain

	// per message bookkeeping, reset by HandleMessage
	turnActor *player.Player
	turnGold  int

	over     bool
	done     chan struct{}
	doneOnce sync.Once

	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
}

// New builds the game for master and the transports described by cfg. No
// socket is opened until Start.
func New(cfg *config.Config, master *grid.Grid, mapName string, rng *rand.Rand, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	gs, err := gamestate.New(cfg, master, rng, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create game state: %w", err)
	}
	gs.MapName = mapName

	net, err := network.NewServer(cfg.Server.Port, peerCapacity(cfg.Server.MaxPlayers), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create network server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	srv := &Server{
		config:    cfg,
		network:   net,
		gameState: gs,
		gameMode:  gamemode.NewBaseGameMode(),
		logger:    logger,
		tickRate:  time.Second / 20,
		mapName:   mapName,
		callbacks: callbacks.NewCallbackChain(),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}

	if cfg.Scripts.Gamemode != "" {
		luaMode, err := gamemode.NewLuaGameMode(cfg.Scripts.Gamemode, gs, logger)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to load Lua gamemode: %w", err)
		}
		srv.gameMode = luaMode
		logger.Info("loaded Lua game mode", "path", cfg.Scripts.Gamemode, "mode", luaMode.Name())
	}

	if cfg.Server.BansFile != "" {
		banList := bans.NewList(cfg.Server.BansFile, logger)
		if err := banList.Load(); err != nil {
			srv.gameMode.Close()
			cancel()
			return nil, fmt.Errorf("failed to load bans: %w", err)
		}
		srv.callbacks.Register(banList)
	}

	if cfg.Server.WebPort > 0 {
		srv.gateway = network.NewGateway(cfg.Server.WebPort, func() any { return srv.status.Load() }, logger)
	}

	if cfg.Server.Ping {
		listenAddr := fmt.Sprintf(":%d", cfg.Server.Port+1)
		srv.pingHandler = ping.NewHandler(listenAddr, srv.serverInfo(), logger)
	}

	srv.updateStatus()
	return srv, nil
}

// peerCapacity sizes the ENet host. Every client is a peer: a full roster,
// the spectator, one more player who must still be told the game is full,
// and a new spectator arriving to replace the current one.
func peerCapacity(maxPlayers int) int {
	return maxPlayers + 3
}

func (s *Server) Start() error {
	if err := s.network.Start(); err != nil {
		return fmt.Errorf("failed to start network: %w", err)
	}

	if s.gateway != nil {
		if err := s.gateway.Start(); err != nil {
			s.network.Stop()
			return fmt.Errorf("failed to start websocket gateway: %w", err)
		}
	}

	if s.pingHandler != nil {
		if err := s.pingHandler.Start(); err != nil {
			s.logger.Warn("failed to start ping handler", "error", err)
			s.pingHandler = nil
		}
	}

	s.startTime = time.Now()
	s.stopped = make(chan struct{})

	s.logger.Info("server started",
		"name", s.config.Server.Name,
		"map", s.mapName,
		"rows", s.gameState.Master.Rows(),
		"cols", s.gameState.Master.Cols(),
		"gold", s.gameState.Gold.Remaining(),
		"piles", s.gameState.Gold.PileCount())

	go s.run()
	return nil
}

func (s *Server) Stop() {
	s.logger.Info("stopping server")

	if s.cancel != nil {
		s.cancel()
	}
	if s.stopped != nil {
		<-s.stopped
	}

	if s.gateway != nil {
		s.gateway.Stop()
	}

	s.network.Stop()

	if s.pingHandler != nil {
		s.pingHandler.Stop()
	}

	s.gameMode.Close()

	s.logger.Info("server stopped", "uptime", s.Uptime())
}

// Done is closed once all gold has been collected.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

func (s *Server) RegisterCallbacks(cb callbacks.Callbacks) {
	s.callbacks.Register(cb)
}

// SetGameMode replaces the active game mode, closing the previous one.
func (s *Server) SetGameMode(gm gamemode.GameMode) {
	if s.gameMode != nil {
		s.gameMode.Close()
	}
	s.gameMode = gm
}

func (s *Server) GameState() *gamestate.GameState {
	return s.gameState
}

func (s *Server) Uptime() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

func (s *Server) run() {
	defer close(s.stopped)

	ticker := time.NewTicker(s.tickRate)
	defer ticker.Stop()

	var gatewayEvents <-chan network.Event
	if s.gateway != nil {
		gatewayEvents = s.gateway.Events()
	}

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("server context cancelled, exiting run loop")
			return

		case event := <-gatewayEvents:
			s.handleEvent(event)

		case <-ticker.C:
			s.update()
			s.handleNetworkEvents()
		}
	}
}

func (s *Server) update() {
	if err := s.gameMode.Update(); err != nil {
		s.logger.Error("failed to update gamemode", "error", err)
	}
}

func (s *Server) handleNetworkEvents() {
	for i := 0; i < 100; i++ {
		event, err := s.network.Service(0)
		if err != nil {
			s.logger.Error("network service error", "error", err)
			return
		}

		if event.Type == network.EventTypeNone {
			break
		}

		s.handleEvent(*event)
	}
}

func (s *Server) handleEvent(event network.Event) {
	switch event.Type {
	case network.EventTypeConnect:
		s.logger.Debug("client connected", "endpoint", event.Endpoint.Address())

	case network.EventTypeDisconnect:
		s.handleDisconnect(event.Endpoint)

	case network.EventTypeReceive:
		s.HandleMessage(event.Endpoint, event.Data)
	}
}

// handleDisconnect treats a lost connection as a silent quit.
func (s *Server) handleDisconnect(ep network.Endpoint) {
	if s.over {
		return
	}

	changed := false
	if p, ok := s.gameState.Players.FindByAddress(ep); ok {
		s.logger.Info("player disconnected", "letter", string(p.Letter), "name", p.Name)
		s.quitPlayer(p, false)
		changed = true
	}
	if s.gameState.Players.IsSpectator(ep) {
		s.gameState.Players.RemoveSpectator()
		s.logger.Info("spectator disconnected", "endpoint", ep.Address())
		changed = true
	}

	if changed {
		s.finishTurn()
	}
}

// disconnect closes the transport behind ep, whichever one it belongs to.
func (s *Server) disconnect(ep network.Endpoint) {
	s.network.Disconnect(ep)
	if s.gateway != nil {
		s.gateway.Disconnect(ep)
	}
}

func (s *Server) serverInfo() *ping.ServerInfo {
	return &ping.ServerInfo{
		Name:           s.config.Server.Name,
		PlayersCurrent: s.gameState.Players.ActiveCount(),
		PlayersMax:     s.gameState.Players.Capacity(),
		Map:            s.mapName,
		GoldRemaining:  s.gameState.Gold.Remaining(),
	}
}

func (s *Server) updateStatus() {
	info := s.serverInfo()
	s.status.Store(info)
	if s.pingHandler != nil {
		s.pingHandler.UpdateServerInfo(info)
	}
}

func (s *Server) Status() *ping.ServerInfo {
	return s.status.Load()
}
