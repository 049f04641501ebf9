package luades

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the number of Lua opcodes one level file may
// execute when no limit is configured.
const DefaultInstructionLimit = 1_000_000

// countingContext cancels itself after Done has been called limit times.
// GopherLua calls Done once per opcode, so this is an exact instruction
// budget. It also ends when the parent context does.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
	exhausted atomic.Bool
}

func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.exhausted.Store(true)
		c.cancel()
	}
	return c.Context.Done()
}

// newCountingContext returns a context derived from parent that cancels
// after limit calls to Done.
//
// Precondition: limit > 0.
func newCountingContext(parent context.Context, limit int) *countingContext {
	base, cancel := context.WithCancel(parent)
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &countingContext{Context: base, cancel: cancel, remaining: rem}
}

// newSandboxedState creates a LState with only the base, table, string and
// math libraries, without the globals that reach the filesystem or the
// loader, and bounded to instLimit opcodes.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: the caller owns the LState and must Close it and then call
// the returned context's cancel.
func newSandboxedState(parent context.Context, instLimit int) (*lua.LState, *countingContext) {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	ctx := newCountingContext(parent, instLimit)
	L.SetContext(ctx)
	return L, ctx
}
