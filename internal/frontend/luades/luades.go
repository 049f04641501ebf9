// Package luades reads level descriptions written as Lua scripts. A script
// declares levels with des.level and fills them through the des.* functions,
// one per statement the frontend package understands:
//
//	des.level({ name = "oracle", flags = { "noteleport" } }, function()
//	  des.map([[
//	  ----
//	  |..|
//	  ----
//	  ]])
//	  des.room({ name = "centre", contents = function()
//	    des.monster({ id = "oracle", pos = { 2, 1 } })
//	  end })
//	end)
//
// Scripts run in a sandbox without file or loader access and with a bounded
// instruction count.
package luades

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/levcomp/internal/diag"
	"github.com/cory-johannsen/levcomp/internal/frontend"
)

// Parser compiles Lua level scripts.
type Parser struct {
	names     frontend.Resolver
	instLimit int
}

// New returns a Parser resolving catalog names through names (which may be
// nil) and running each file under instLimit Lua opcodes.
func New(names frontend.Resolver, instLimit int) *Parser {
	return &Parser{names: names, instLimit: instLimit}
}

// script is the per-file state the des.* functions close over.
type script struct {
	L      *lua.LState
	dc     *diag.Context
	levels frontend.Levels
	names  frontend.Resolver

	env *frontend.Env
	// detached is set while a level declared without a body is open; it
	// ends at the next des.level or at the end of the script.
	detached bool
	abort    error
	lastLine int
}

// Parse runs src. Problems in the script are reported on dc.
//
// Postcondition: returns non-nil only on run abort or when ctx is done.
func (p *Parser) Parse(ctx context.Context, dc *diag.Context, src []byte, levels frontend.Levels) error {
	L, budget := newSandboxedState(ctx, p.instLimit)
	defer budget.cancel()
	defer L.Close()

	s := &script{L: L, dc: dc, levels: levels, names: p.names, lastLine: 1}
	s.register()

	fn, err := L.Load(bytes.NewReader(src), dc.File)
	if err != nil {
		return s.syntaxError(err)
	}
	L.Push(fn)
	err = L.PCall(0, 0, nil)
	if s.abort != nil {
		return s.abort
	}
	if err != nil {
		switch {
		case budget.exhausted.Load():
			dc.At(s.lastLine)
			err = dc.Errorf(diag.AtToken, "script exceeded its instruction limit")
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			err = s.runtimeError(err)
		}
		if err != nil {
			return err
		}
	}
	return s.closeLevel()
}

func (s *script) register() {
	des := s.L.NewTable()
	s.L.SetField(des, "level", s.L.NewFunction(s.level))
	s.L.SetField(des, "chance", s.L.NewFunction(s.chance))
	for _, op := range frontend.Ops() {
		switch op {
		case "chance", "flags", "init":
			continue
		}
		s.L.SetField(des, op, s.L.NewFunction(s.statement(op)))
	}
	s.L.SetGlobal("des", des)
}

var whereLine = regexp.MustCompile(`:(\d+):$`)

// line returns the source line of the Lua code calling the current Go
// function.
func (s *script) line() int {
	if m := whereLine.FindStringSubmatch(s.L.Where(1)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			s.lastLine = n
		}
	}
	return s.lastLine
}

// check raises err as a Lua error so the script unwinds to Parse.
func (s *script) check(err error) {
	if err != nil {
		s.abort = err
		s.L.RaiseError("%v", err)
	}
}

func (s *script) errorf(line int, format string, args ...any) {
	s.dc.BeginDecl(line)
	s.check(s.dc.Errorf(diag.AtDeclaration, format, args...))
}

func (s *script) closeLevel() error {
	if s.env == nil {
		return nil
	}
	s.env = nil
	s.detached = false
	return s.levels.End()
}

// level implements des.level(name | {name, flags, init, contents}, [body]).
func (s *script) level(L *lua.LState) int {
	line := s.line()
	if s.env != nil {
		if !s.detached {
			s.errorf(line, "level declared inside another level")
			return 0
		}
		s.check(s.closeLevel())
	}

	var (
		name string
		opts *lua.LTable
	)
	switch v := L.Get(1).(type) {
	case lua.LString:
		name = string(v)
	case *lua.LTable:
		opts = v
		name = lua.LVAsString(v.RawGetString("name"))
	default:
		s.errorf(line, "des.level needs a name or a table")
		return 0
	}
	body := L.OptFunction(2, nil)
	if body == nil && opts != nil {
		body, _ = opts.RawGetString("contents").(*lua.LFunction)
	}

	b, err := s.levels.Begin(name, line)
	s.check(err)
	s.env = frontend.NewEnv(b, s.names)
	s.detached = body == nil

	if opts != nil {
		s.levelOptions(line, opts)
	}
	if body != nil {
		s.L.Push(body)
		s.L.Call(0, 0)
		s.check(s.closeLevel())
	}
	return 0
}

func (s *script) levelOptions(line int, opts *lua.LTable) {
	opts.ForEach(func(k, v lua.LValue) {
		key := lua.LVAsString(k)
		switch key {
		case "name", "contents":
		case "flags":
			s.check(s.env.Apply(frontend.Statement{Op: "flags", Line: line, Args: map[string]any{"flags": toGo(v)}}))
		case "init":
			args, ok := toGo(v).(map[string]any)
			if !ok {
				s.errorf(line, "level init must be a table")
				return
			}
			s.check(s.env.Apply(frontend.Statement{Op: "init", Line: line, Args: args}))
		default:
			s.errorf(line, "unknown level option '%s'", key)
		}
	})
}

// chance implements des.chance(percent, then, [else]).
func (s *script) chance(L *lua.LState) int {
	line := s.line()
	if s.env == nil {
		s.errorf(line, "des.chance called outside of a level")
		return 0
	}
	st := frontend.Statement{
		Op:   "chance",
		Line: line,
		Args: map[string]any{"percent": float64(L.CheckNumber(1))},
		Then: s.block(L.OptFunction(2, nil)),
		Else: s.block(L.OptFunction(3, nil)),
	}
	s.check(s.env.Apply(st))
	return 0
}

// statement returns the des.<op> function.
func (s *script) statement(op string) lua.LGFunction {
	return func(L *lua.LState) int {
		line := s.line()
		if s.env == nil {
			s.errorf(line, "des.%s called outside of a level", op)
			return 0
		}
		st := frontend.Statement{Op: op, Line: line}
		switch v := L.Get(1).(type) {
		case *lua.LNilType:
		case lua.LString:
			key, ok := frontend.PositionalArg(op)
			if !ok {
				s.errorf(line, "des.%s expects a table", op)
				return 0
			}
			st.Args = map[string]any{key: string(v)}
		case *lua.LTable:
			st.Args = make(map[string]any)
			v.ForEach(func(k, val lua.LValue) {
				key, ok := k.(lua.LString)
				if !ok {
					return
				}
				if fn, isFn := val.(*lua.LFunction); isFn && key == "contents" {
					st.Then = s.block(fn)
					return
				}
				st.Args[string(key)] = toGo(val)
			})
		default:
			s.errorf(line, "des.%s expects a table, got %s", op, v.Type())
			return 0
		}
		s.check(s.env.Apply(st))
		return 0
	}
}

// block wraps a Lua function as a nested statement block. Lua errors raised
// inside it unwind straight to Parse.
func (s *script) block(fn *lua.LFunction) func() error {
	if fn == nil {
		return nil
	}
	return func() error {
		s.L.Push(fn)
		s.L.Call(0, 0)
		return nil
	}
}

var syntaxLine = regexp.MustCompile(`line:(\d+)\(column:\d+\)\s*(.*)`)

func (s *script) syntaxError(err error) error {
	msg := err.Error()
	if apiErr, ok := err.(*lua.ApiError); ok && apiErr.Object != nil {
		msg = apiErr.Object.String()
	}
	line := s.lastLine
	if m := syntaxLine.FindStringSubmatch(msg); m != nil {
		line, _ = strconv.Atoi(m[1])
		msg = m[2]
	}
	s.dc.At(line)
	return s.dc.Errorf(diag.AtToken, "syntax error: %s", strings.Join(strings.Fields(msg), " "))
}

func (s *script) runtimeError(err error) error {
	msg := err.Error()
	if apiErr, ok := err.(*lua.ApiError); ok && apiErr.Object != nil {
		msg = apiErr.Object.String()
	}
	line := s.lastLine
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(s.dc.File) + `:(\d+):\s*`)
	if m := re.FindStringSubmatch(msg); m != nil {
		line, _ = strconv.Atoi(m[1])
		msg = msg[len(m[0]):]
	}
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	s.dc.At(line)
	return s.dc.Errorf(diag.AtToken, "%s", msg)
}

// toGo converts a Lua value to the plain Go values statement arguments use.
// Tables with an array part become lists; other tables become maps keyed by
// their string keys.
func toGo(v lua.LValue) any {
	switch v := v.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if n := v.Len(); n > 0 {
			list := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				list = append(list, toGo(v.RawGetInt(i)))
			}
			return list
		}
		m := make(map[string]any)
		v.ForEach(func(k, val lua.LValue) {
			if key, ok := k.(lua.LString); ok {
				m[string(key)] = toGo(val)
			}
		})
		return m
	}
	return nil
}

// String describes the parser in logs.
func (p *Parser) String() string {
	return fmt.Sprintf("lua (instruction limit %d)", p.instLimit)
}
