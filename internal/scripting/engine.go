package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ErrNoFunction is returned when a script names a global Lua function that
// is not defined.
var ErrNoFunction = errors.New("lua function not defined")

// Engine wraps a single gopher-lua VM for behaviour scripts.
// Single-goroutine access only (the tick goroutine).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script under scriptsDir.
// Files in the directory itself load first, then each subdirectory in name
// order. A missing directory loads nothing.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	e.registerEntityType()
	vm.SetGlobal("log", vm.NewFunction(e.luaLog))

	if scriptsDir == "" {
		return e, nil
	}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	subs, err := subdirs(scriptsDir)
	if err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	for _, sub := range subs {
		if err := e.loadDir(sub); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", filepath.Base(sub), err)
		}
	}
	return e, nil
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			out = append(out, filepath.Join(dir, entry.Name()))
		}
	}
	slices.Sort(out)
	return out, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk of Lua source in the engine's global scope.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// Defined reports whether a global Lua function with the given name exists.
func (e *Engine) Defined(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// call invokes a global function in protected mode and discards results.
func (e *Engine) call(name string, args ...lua.LValue) error {
	fn, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrNoFunction)
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		return fmt.Errorf("lua %s: %w", name, err)
	}
	return nil
}

// callHook invokes an optional handler; an undefined one is skipped.
func (e *Engine) callHook(name string, args ...lua.LValue) {
	if !e.Defined(name) {
		return
	}
	if err := e.call(name, args...); err != nil {
		e.log.Error("lua hook error", zap.String("func", name), zap.Error(err))
	}
}

func (e *Engine) luaLog(L *lua.LState) int {
	msg := L.CheckString(1)
	e.log.Info(msg, zap.String("source", "lua"))
	return 0
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
