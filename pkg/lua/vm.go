package lua

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Shopify/go-lua"
)

// Globals removed from every game mode script. Scripts reach the game only
// through the functions GameAPI registers, never the host's files or process.
var blockedGlobals = []string{"io", "os", "debug", "dofile", "loadfile", "require"}

// VM is a sandboxed Lua state for one game mode script, plus the callbacks
// the script has scheduled with schedule_callback.
type VM struct {
	state *lua.State

	mu      sync.Mutex
	timers  map[int]*timer
	nextID  int
	stopped bool
}

type timer struct {
	id       int
	callback string
	interval time.Duration
	repeat   bool
	due      time.Time
	args     []interface{}
}

func NewVM() *VM {
	state := lua.NewState()
	lua.OpenLibraries(state)
	for _, name := range blockedGlobals {
		state.PushNil()
		state.SetGlobal(name)
	}
	return &VM{
		state:  state,
		timers: make(map[int]*timer),
	}
}

func (vm *VM) LoadFile(path string) error {
	if err := lua.DoFile(vm.state, path); err != nil {
		return fmt.Errorf("failed to run game mode script %s: %w", path, err)
	}
	return nil
}

func (vm *VM) LoadString(code string) error {
	if err := lua.DoString(vm.state, code); err != nil {
		return fmt.Errorf("failed to run game mode script: %w", err)
	}
	return nil
}

// Close drops every pending callback. Later UpdateTimers calls do nothing.
func (vm *VM) Close() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.timers = make(map[int]*timer)
	vm.stopped = true
}

// RegisterTimer schedules the global function callback to run after
// interval, and every interval after that when repeat is set.
func (vm *VM) RegisterTimer(callback string, interval time.Duration, repeat bool, args ...interface{}) int {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.nextID++
	vm.timers[vm.nextID] = &timer{
		id:       vm.nextID,
		callback: callback,
		interval: interval,
		repeat:   repeat,
		due:      time.Now().Add(interval),
		args:     args,
	}
	return vm.nextID
}

func (vm *VM) CancelTimer(id int) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	delete(vm.timers, id)
}

// PendingTimers reports how many callbacks are still scheduled.
func (vm *VM) PendingTimers() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return len(vm.timers)
}

// UpdateTimers runs every callback that is due, oldest registration first.
// It is called from the server tick, so the script never runs concurrently
// with a game mode hook.
func (vm *VM) UpdateTimers() error {
	for _, t := range vm.takeDue(time.Now()) {
		if err := vm.CallFunction(t.callback, t.args...); err != nil {
			return fmt.Errorf("scheduled callback %s failed: %w", t.callback, err)
		}
	}
	return nil
}

func (vm *VM) takeDue(now time.Time) []*timer {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.stopped {
		return nil
	}

	var due []*timer
	for id, t := range vm.timers {
		if now.Before(t.due) {
			continue
		}
		due = append(due, t)
		if t.repeat {
			t.due = now.Add(t.interval)
		} else {
			delete(vm.timers, id)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].id < due[j].id })
	return due
}

// GetGlobalString reads a string global such as the script's name.
func (vm *VM) GetGlobalString(name string) (string, error) {
	vm.state.Global(name)
	defer vm.state.Pop(1)

	if !vm.state.IsString(-1) {
		return "", fmt.Errorf("global %s is not a string", name)
	}
	value, _ := vm.state.ToString(-1)
	return value, nil
}

func (vm *VM) HasFunction(name string) bool {
	vm.state.Global(name)
	isFunc := vm.state.IsFunction(-1)
	vm.state.Pop(1)
	return isFunc
}

func (vm *VM) CallFunction(name string, args ...interface{}) error {
	_, err := vm.call(name, 0, args)
	return err
}

// CallFunctionWithReturn calls a hook and converts its first numReturns
// results to string, float64, bool or nil.
func (vm *VM) CallFunctionWithReturn(name string, numReturns int, args ...interface{}) ([]interface{}, error) {
	return vm.call(name, numReturns, args)
}

func (vm *VM) call(name string, numReturns int, args []interface{}) ([]interface{}, error) {
	vm.state.Global(name)
	if !vm.state.IsFunction(-1) {
		vm.state.Pop(1)
		return nil, fmt.Errorf("global %s is not a function", name)
	}

	if err := vm.pushArgs(args); err != nil {
		return nil, err
	}

	if err := vm.state.ProtectedCall(len(args), numReturns, 0); err != nil {
		return nil, fmt.Errorf("lua function %s: %w", name, err)
	}
	if numReturns == 0 {
		return nil, nil
	}

	results := make([]interface{}, numReturns)
	for i := range results {
		results[i] = vm.value(i - numReturns)
	}
	vm.state.Pop(numReturns)
	return results, nil
}

func (vm *VM) value(index int) interface{} {
	switch {
	case vm.state.IsString(index):
		v, _ := vm.state.ToString(index)
		return v
	case vm.state.IsNumber(index):
		v, _ := vm.state.ToNumber(index)
		return v
	case vm.state.IsBoolean(index):
		return vm.state.ToBoolean(index)
	default:
		return nil
	}
}

// pushArgs pushes args after the function already on the stack. On failure
// the function and any pushed arguments are popped.
func (vm *VM) pushArgs(args []interface{}) error {
	for i, arg := range args {
		switch v := arg.(type) {
		case string:
			vm.state.PushString(v)
		case int:
			vm.state.PushInteger(v)
		case float64:
			vm.state.PushNumber(v)
		case bool:
			vm.state.PushBoolean(v)
		default:
			vm.state.Pop(i + 1)
			return fmt.Errorf("unsupported argument type: %T", arg)
		}
	}
	return nil
}

func (vm *VM) RegisterFunction(name string, fn lua.Function) {
	vm.state.Register(name, fn)
}

func (vm *VM) State() *lua.State {
	return vm.state
}
