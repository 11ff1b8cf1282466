package lua

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// State wraps a sandboxed gopher-lua LState.
//
// gopher-lua's LState is not goroutine-safe. The mutex serializes access
// from Go code, but Lua execution itself is single-threaded; callers
// should treat a State as owned by one goroutine.
//
// The sandbox is restriction-only: plugins get the base, table, string
// and math libraries, with io, os, debug and package loading withheld.
type State struct {
	mu sync.Mutex

	L      *lua.LState
	closed bool
}

// dangerousGlobals are base-library functions removed from the state
// because they load arbitrary code.
var dangerousGlobals = []string{"dofile", "loadfile", "load", "loadstring"}

// NewState creates a new sandboxed Lua state.
func NewState() *State {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // opened selectively below
	})

	// Safe standard libraries only. io, os, debug and package are
	// intentionally absent.
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range dangerousGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	// Clear module search paths so require cannot reach the disk even
	// if a package table shows up later.
	if pkg := L.GetGlobal("package"); pkg != lua.LNil {
		if pkgTable, ok := pkg.(*lua.LTable); ok {
			L.SetField(pkgTable, "path", lua.LString(""))
			L.SetField(pkgTable, "cpath", lua.LString(""))
		}
	}

	return &State{L: L}
}

// DoFile executes a Lua file. The call blocks until completion or error.
func (s *State) DoFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	return s.recovered(func() error {
		return s.L.DoFile(path)
	})
}

// DoString executes a Lua string. The call blocks until completion or
// error.
func (s *State) DoString(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	return s.recovered(func() error {
		return s.L.DoString(code)
	})
}

// Call invokes a global Lua function with the given arguments and
// returns its results. An empty (non-nil) slice means no return values.
func (s *State) Call(fn string, args ...lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	fnVal := s.L.GetGlobal(fn)
	if fnVal == lua.LNil {
		return nil, fmt.Errorf("function %q not found", fn)
	}
	if fnVal.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%q is not a function (got %s)", fn, fnVal.Type())
	}

	stackTop := s.L.GetTop()
	s.L.Push(fnVal)
	for _, arg := range args {
		s.L.Push(arg)
	}

	err := s.recovered(func() error {
		return s.L.PCall(len(args), lua.MultRet, nil)
	})
	if err != nil {
		return nil, err
	}

	nRet := s.L.GetTop() - stackTop
	if nRet <= 0 {
		return []lua.LValue{}, nil
	}
	results := make([]lua.LValue, nRet)
	for i := 0; i < nRet; i++ {
		results[i] = s.L.Get(stackTop + i + 1)
	}
	s.L.Pop(nRet)
	return results, nil
}

// GetGlobal returns a global variable value, or LNil when closed.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// SetGlobal sets a global variable. No-op when closed.
func (s *State) SetGlobal(name string, value lua.LValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.SetGlobal(name, value)
}

// RegisterModule registers a named module table with the given
// functions.
func (s *State) RegisterModule(name string, funcs map[string]lua.LGFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	mod := s.L.SetFuncs(s.L.NewTable(), funcs)
	s.L.SetGlobal(name, mod)
}

// IsClosed reports whether the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the Lua state. Subsequent operations return
// ErrStateClosed. Close is idempotent.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}

// recovered runs fn, converting Lua panics into errors.
func (s *State) recovered(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}
