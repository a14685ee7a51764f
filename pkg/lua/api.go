package lua

import (
	"log/slog"
	"time"

	"github.com/siohaza/nuggets/internal/gamestate"
	"github.com/siohaza/nuggets/internal/player"

	"github.com/Shopify/go-lua"
)

// GameAPI exposes read-only game queries and a few helpers to scripts.
type GameAPI struct {
	gameState  *gamestate.GameState
	gamemodeVM *VM
	logger     *slog.Logger
}

func NewGameAPI(gs *gamestate.GameState, logger *slog.Logger) *GameAPI {
	if logger == nil {
		logger = slog.Default()
	}
	return &GameAPI{
		gameState: gs,
		logger:    logger,
	}
}

func (api *GameAPI) SetGamemodeVM(vm *VM) {
	api.gamemodeVM = vm
}

func (api *GameAPI) RegisterFunctions(vm *VM) {
	state := vm.State()

	state.Register("log", api.log)
	state.Register("gold_remaining", api.goldRemaining)
	state.Register("gold_piles_left", api.goldPilesLeft)
	state.Register("player_count", api.playerCount)
	state.Register("get_player_name", api.getPlayerName)
	state.Register("get_player_gold", api.getPlayerGold)
	state.Register("get_player", api.getPlayer)
	state.Register("map_size", api.mapSize)
	state.Register("schedule_callback", api.scheduleCallback)
	state.Register("cancel_callback", api.cancelCallback)
}

func (api *GameAPI) log(state *lua.State) int {
	msg, _ := state.ToString(1)
	api.logger.Info("script", "message", msg)
	return 0
}

func (api *GameAPI) goldRemaining(state *lua.State) int {
	state.PushInteger(api.gameState.Gold.Remaining())
	return 1
}

func (api *GameAPI) goldPilesLeft(state *lua.State) int {
	state.PushInteger(api.gameState.Gold.PileCount() - api.gameState.Gold.Collected())
	return 1
}

func (api *GameAPI) playerCount(state *lua.State) int {
	state.PushInteger(api.gameState.Players.ActiveCount())
	return 1
}

// playerArg resolves a letter argument such as "A" to a registered player.
func (api *GameAPI) playerArg(state *lua.State, idx int) *player.Player {
	letter, ok := state.ToString(idx)
	if !ok || len(letter) != 1 {
		return nil
	}
	p, _ := api.gameState.Players.Get(letter[0])
	return p
}

func (api *GameAPI) getPlayerName(state *lua.State) int {
	p := api.playerArg(state, 1)
	if p == nil {
		state.PushString("")
		return 1
	}
	state.PushString(p.Name)
	return 1
}

func (api *GameAPI) getPlayerGold(state *lua.State) int {
	p := api.playerArg(state, 1)
	if p == nil {
		state.PushInteger(0)
		return 1
	}
	state.PushInteger(p.Gold)
	return 1
}

func (api *GameAPI) getPlayer(state *lua.State) int {
	PushPlayer(state, api.playerArg(state, 1))
	return 1
}

func (api *GameAPI) mapSize(state *lua.State) int {
	state.PushInteger(api.gameState.Master.Rows())
	state.PushInteger(api.gameState.Master.Cols())
	return 2
}

// PushPlayer pushes p as a table, or nil when p is nil.
func PushPlayer(state *lua.State, p *player.Player) {
	if p == nil {
		state.PushNil()
		return
	}

	state.NewTable()
	state.PushString(string(p.Letter))
	state.SetField(-2, "letter")
	state.PushString(p.Name)
	state.SetField(-2, "name")
	state.PushInteger(p.Gold)
	state.SetField(-2, "gold")
	state.PushBoolean(p.Quit)
	state.SetField(-2, "quit")
	state.PushInteger(p.Position.X)
	state.SetField(-2, "x")
	state.PushInteger(p.Position.Y)
	state.SetField(-2, "y")
}

func (api *GameAPI) scheduleCallback(state *lua.State) int {
	seconds, _ := state.ToNumber(1)
	callback, _ := state.ToString(2)
	repeat := false
	if state.Top() >= 3 && state.IsBoolean(3) {
		repeat = state.ToBoolean(3)
	}

	if api.gamemodeVM == nil {
		state.PushInteger(-1)
		return 1
	}

	interval := time.Duration(seconds * float64(time.Second))
	timerID := api.gamemodeVM.RegisterTimer(callback, interval, repeat)
	state.PushInteger(timerID)
	return 1
}

func (api *GameAPI) cancelCallback(state *lua.State) int {
	id, _ := state.ToInteger(1)

	if api.gamemodeVM != nil {
		api.gamemodeVM.CancelTimer(id)
	}

	return 0
}
