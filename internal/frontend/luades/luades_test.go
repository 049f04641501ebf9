package luades_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/levcomp/internal/diag"
	"github.com/cory-johannsen/levcomp/internal/frontend/luades"
	"github.com/cory-johannsen/levcomp/internal/level/builder"
	"github.com/cory-johannsen/levcomp/internal/level/ir"
)

// recorder collects finished levels instead of encoding them.
type recorder struct {
	ctx    *diag.Context
	prog   *ir.Program
	b      *builder.Builder
	names  []string
	inits  []ir.LevelInit
	levels [][]ir.Opcode
}

func (r *recorder) Begin(name string, line int) (*builder.Builder, error) {
	r.names = append(r.names, name)
	r.ctx.BeginDecl(line)
	r.b = builder.New(r.ctx, r.prog)
	return r.b, nil
}

func (r *recorder) End() error {
	if err := r.b.Finish(); err != nil {
		return err
	}
	r.inits = append(r.inits, r.prog.Init)
	r.levels = append(r.levels, r.prog.Take())
	r.prog.Reset()
	return nil
}

func parse(t *testing.T, src string, opts diag.Options, limit int) (*recorder, *bytes.Buffer, error) {
	t.Helper()
	var out bytes.Buffer
	opts.Warnings = true
	ctx := diag.NewRun(&out, zap.NewNop(), opts).NewContext("test.lua")
	rec := &recorder{ctx: ctx, prog: ir.NewProgram()}
	err := luades.New(nil, limit).Parse(context.Background(), ctx, []byte(src), rec)
	return rec, &out, err
}

func kinds(ops []ir.Opcode) []ir.Kind {
	ks := make([]ir.Kind, len(ops))
	for i, op := range ops {
		ks[i] = op.Kind
	}
	return ks
}

const oracle = `des.level({ name = "oracle", flags = { "noteleport" }, init = { style = "solidfill", fill = " " } }, function()
  des.map([[
-----
|...|
-----
]])
  des.room({ name = "centre", size = { 3, 1 }, contents = function()
    des.monster({ class = "@", name = "Oracle", peaceful = true })
  end })
  des.chance(40, function()
    des.fountain({ pos = { 2, 1 } })
  end, function()
    des.sink()
  end)
  des.message("Welcome")
end)
`

func TestParse_FullLevel(t *testing.T) {
	rec, out, err := parse(t, oracle, diag.Options{}, 0)
	require.NoError(t, err)
	require.Empty(t, out.String())
	require.Equal(t, []string{"oracle"}, rec.names)
	require.Len(t, rec.levels, 1)

	ops := rec.levels[0]
	assert.Equal(t, []ir.Kind{
		ir.KindMap, ir.KindRoom, ir.KindMonster, ir.KindEndRoom,
		ir.KindCompare, ir.KindJump, ir.KindFountain, ir.KindJump, ir.KindSink,
		ir.KindMessage,
	}, kinds(ops))
	assert.Equal(t, 8, ops[2].Line)
	assert.Equal(t, "Oracle", ops[2].Payload.(*ir.Monster).Name)
	assert.Equal(t, int8(1), ops[2].Payload.(*ir.Monster).Peaceful)
	assert.Equal(t, "Welcome", ops[9].Payload.(*ir.Message).Text)

	init := rec.inits[0]
	assert.Equal(t, ir.FlagNoTeleport, init.Flags)
	assert.Equal(t, ir.InitSolid, init.Style)
	assert.Equal(t, uint8(4), init.MaxX)
	assert.Equal(t, uint8(2), init.MaxY)
}

func TestParse_LevelsWithoutBody(t *testing.T) {
	rec, out, err := parse(t, `
des.level("first")
des.fountain()
des.level("second")
des.sink()
des.pool()
`, diag.Options{}, 0)
	require.NoError(t, err)
	require.Empty(t, out.String())
	assert.Equal(t, []string{"first", "second"}, rec.names)
	require.Len(t, rec.levels, 2)
	assert.Equal(t, []ir.Kind{ir.KindFountain}, kinds(rec.levels[0]))
	assert.Equal(t, []ir.Kind{ir.KindSink, ir.KindPool}, kinds(rec.levels[1]))
}

func TestParse_SyntaxError(t *testing.T) {
	_, out, err := parse(t, "des.level(\"x\"\n\ndes.sink(", diag.Options{}, 0)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "test.lua: line 3 : syntax error")
}

func TestParse_RuntimeErrorEndsLevel(t *testing.T) {
	rec, out, err := parse(t, `des.level("broken", function()
  des.fountain()
  error("boom")
end)
`, diag.Options{}, 0)
	require.NoError(t, err)
	assert.Equal(t, "test.lua: line 3 : boom\n", out.String())
	assert.Len(t, rec.levels, 1, "the open level is still closed")
	assert.True(t, rec.ctx.Failed())
}

func TestParse_StatementOutsideLevel(t *testing.T) {
	_, out, err := parse(t, "\ndes.fountain({})\n", diag.Options{}, 0)
	require.NoError(t, err)
	assert.Equal(t, "test.lua: line 2 : des.fountain called outside of a level\n", out.String())
}

func TestParse_NestedLevelRejected(t *testing.T) {
	_, out, err := parse(t, `des.level("a", function()
  des.level("b", function() end)
end)`, diag.Options{}, 0)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "line 2 : level declared inside another level")
}

func TestParse_InstructionLimit(t *testing.T) {
	_, out, err := parse(t, "while true do end", diag.Options{}, 50)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "script exceeded its instruction limit")
}

func TestParse_SandboxHidesUnsafeGlobals(t *testing.T) {
	_, out, err := parse(t, `
assert(io == nil, "io")
assert(os == nil, "os")
assert(dofile == nil, "dofile")
assert(require == nil, "require")
assert(string.upper("a") == "A", "string")
`, diag.Options{}, 0)
	require.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestParse_TooManyErrorsAborts(t *testing.T) {
	_, _, err := parse(t, `des.level("a", function()
  des.door({ state = "ajar" })
  des.door({ state = "wide" })
  des.door({ state = "shut" })
end)`, diag.Options{MaxErrors: 1}, 0)
	assert.ErrorIs(t, err, diag.ErrTooManyErrors)
}

func TestParse_UnknownLevelOption(t *testing.T) {
	_, out, err := parse(t, `des.level({ name = "a", colour = "red" }, function() end)`, diag.Options{}, 0)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "unknown level option 'colour'")
}

func TestParse_ContextCancelled(t *testing.T) {
	var out bytes.Buffer
	ctx := diag.NewRun(&out, zap.NewNop(), diag.Options{}).NewContext("test.lua")
	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := luades.New(nil, 0).Parse(cctx, ctx, []byte("while true do end"), &recorder{ctx: ctx, prog: ir.NewProgram()})
	assert.ErrorIs(t, err, context.Canceled)
}
