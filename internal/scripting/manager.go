package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dicecalc/internal/game/formula"
)

// globalVM is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no named VM is found.
const globalVM = "__global__"

// vm is one sandboxed LState. An LState is single-threaded, so every use
// holds mu.
type vm struct {
	mu sync.Mutex
	L  *lua.LState
}

// Manager owns named sandboxed LStates and exposes hook dispatch.
//
// Manager is safe for concurrent use. Calls into the same VM are serialized;
// different VMs run concurrently.
type Manager struct {
	mu        sync.RWMutex
	vms       map[string]*vm
	roller    *formula.Roller
	logger    *zap.Logger
	instLimit int
}

// NewManager creates a Manager whose scripts roll through roller.
//
// Precondition: roller and logger must be non-nil; instLimit >= 0, 0 uses
// DefaultInstructionLimit.
// Postcondition: Returns a non-nil Manager with no VMs loaded.
func NewManager(roller *formula.Roller, logger *zap.Logger, instLimit int) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:       make(map[string]*vm),
		roller:    roller,
		logger:    logger,
		instLimit: instLimit,
	}
}

// LoadDir creates a sandboxed VM named name, registers the formula and log
// modules, then executes every *.lua file in scriptDir in lexicographic
// order. A VM already registered under name is closed and replaced.
//
// Precondition: name must be non-empty; scriptDir must be a readable directory.
// Postcondition: VM is registered; returns error on Lua load failure.
func (m *Manager) LoadDir(name, scriptDir string) error {
	return m.loadInto(name, scriptDir)
}

// LoadGlobal creates the shared VM used as a CallHook fallback.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string) error {
	return m.loadInto(globalVM, scriptDir)
}

func (m *Manager) loadInto(key, scriptDir string) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := m.newState()
	for _, path := range luaFiles {
		if err := m.doFile(L, path); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
		L.SetTop(0)
	}

	m.mu.Lock()
	old := m.vms[key]
	m.vms[key] = &vm{L: L}
	m.mu.Unlock()

	if old != nil {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.logger.Debug("scripting: loaded scripts",
		zap.String("vm", key),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// RunFile executes one script in a fresh VM and returns the string form of
// the values the chunk returns.
//
// Postcondition: the VM is closed before RunFile returns.
func (m *Manager) RunFile(path string) ([]string, error) {
	L := m.newState()
	defer L.Close()

	base := L.GetTop()
	if err := m.doFile(L, path); err != nil {
		return nil, fmt.Errorf("scripting: running %q: %w", path, err)
	}
	out := make([]string, 0, L.GetTop()-base)
	for i := base + 1; i <= L.GetTop(); i++ {
		out = append(out, L.Get(i).String())
	}
	return out, nil
}

// CallHook calls the named Lua global function in the VM called name. If no
// such VM exists, the global VM is tried as a fallback. Returns (LNil, nil)
// if the hook is not defined or no VM exists. Lua runtime errors are logged
// at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(name, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.vms[name]
	if !ok {
		v = m.vms[globalVM]
	}
	m.mu.RUnlock()

	if v == nil {
		m.logger.Info("scripting: no VM loaded",
			zap.String("vm", name),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.L.IsClosed() {
		return lua.LNil, nil
	}

	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	done := limitInstructions(v.L, m.instLimit)
	defer done()
	if err := v.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("vm", name),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Close releases every VM. Later CallHook calls find no VM.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()

	for _, v := range vms {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
	}
}

func (m *Manager) newState() *lua.LState {
	L := NewSandboxedState(m.instLimit)
	m.RegisterModules(L)
	return L
}

func (m *Manager) doFile(L *lua.LState, path string) error {
	done := limitInstructions(L, m.instLimit)
	defer done()
	return L.DoFile(path)
}
