package gamemode

import (
	"fmt"
	"log/slog"

	"github.com/siohaza/nuggets/internal/gamestate"
	"github.com/siohaza/nuggets/internal/player"
	"github.com/siohaza/nuggets/pkg/lua"
)

// LuaGameMode forwards game events to hook functions defined by a script.
// Missing hooks are skipped; a failing hook is logged and treated as if it
// allowed the action.
type LuaGameMode struct {
	vm     *lua.VM
	api    *lua.GameAPI
	name   string
	logger *slog.Logger
}

func NewLuaGameMode(scriptPath string, gs *gamestate.GameState, logger *slog.Logger) (*LuaGameMode, error) {
	if logger == nil {
		logger = slog.Default()
	}

	vm := lua.NewVM()
	api := lua.NewGameAPI(gs, logger)
	api.RegisterFunctions(vm)

	if err := vm.LoadFile(scriptPath); err != nil {
		vm.Close()
		return nil, fmt.Errorf("failed to load gamemode script: %w", err)
	}

	return newLuaGameMode(vm, api, logger)
}

// NewLuaGameModeFromString is NewLuaGameMode for an in-memory script.
func NewLuaGameModeFromString(code string, gs *gamestate.GameState, logger *slog.Logger) (*LuaGameMode, error) {
	if logger == nil {
		logger = slog.Default()
	}

	vm := lua.NewVM()
	api := lua.NewGameAPI(gs, logger)
	api.RegisterFunctions(vm)

	if err := vm.LoadString(code); err != nil {
		vm.Close()
		return nil, fmt.Errorf("failed to load gamemode script: %w", err)
	}

	return newLuaGameMode(vm, api, logger)
}

func newLuaGameMode(vm *lua.VM, api *lua.GameAPI, logger *slog.Logger) (*LuaGameMode, error) {
	name, err := vm.GetGlobalString("name")
	if err != nil {
		name = "lua_gamemode"
	}

	gm := &LuaGameMode{
		vm:     vm,
		api:    api,
		name:   name,
		logger: logger,
	}
	api.SetGamemodeVM(vm)

	if vm.HasFunction("on_init") {
		if err := vm.CallFunction("on_init"); err != nil {
			vm.Close()
			return nil, fmt.Errorf("failed to call on_init: %w", err)
		}
	}

	return gm, nil
}

func (gm *LuaGameMode) Name() string {
	return gm.name
}

func (gm *LuaGameMode) Update() error {
	return gm.vm.UpdateTimers()
}

func (gm *LuaGameMode) Close() {
	if gm.vm != nil {
		gm.vm.Close()
	}
}

func (gm *LuaGameMode) call(hook string, args ...interface{}) {
	if !gm.vm.HasFunction(hook) {
		return
	}
	if err := gm.vm.CallFunction(hook, args...); err != nil {
		gm.logger.Error("lua gamemode hook failed", "hook", hook, "error", err)
	}
}

func (gm *LuaGameMode) OnJoinRequest(name string) bool {
	if !gm.vm.HasFunction("on_player_join") {
		return true
	}

	results, err := gm.vm.CallFunctionWithReturn("on_player_join", 1, name)
	if err != nil {
		gm.logger.Error("lua gamemode hook failed", "hook", "on_player_join", "error", err)
		return true
	}
	if allow, ok := results[0].(bool); ok {
		return allow
	}
	return true
}

func (gm *LuaGameMode) OnPlayerJoin(p *player.Player) {
	if !gm.vm.HasFunction("on_player_joined") {
		return
	}

	state := gm.vm.State()
	state.Global("on_player_joined")
	lua.PushPlayer(state, p)
	if err := state.ProtectedCall(1, 0, 0); err != nil {
		gm.logger.Error("lua gamemode hook failed", "hook", "on_player_joined", "error", err)
	}
}

func (gm *LuaGameMode) OnSpectate(s *player.Spectator) {
	gm.call("on_spectate")
}

func (gm *LuaGameMode) OnGoldCollected(p *player.Player, amount, remaining int) {
	gm.call("on_gold_collected", string(p.Letter), amount, p.Gold, remaining)
}

func (gm *LuaGameMode) OnPlayerQuit(p *player.Player) {
	gm.call("on_player_quit", string(p.Letter))
}

func (gm *LuaGameMode) OnGameOver(players []*player.Player) {
	gm.call("on_game_over")
}
