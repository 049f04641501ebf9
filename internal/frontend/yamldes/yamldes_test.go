package yamldes_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/levcomp/internal/diag"
	"github.com/cory-johannsen/levcomp/internal/frontend/yamldes"
	"github.com/cory-johannsen/levcomp/internal/level/builder"
	"github.com/cory-johannsen/levcomp/internal/level/catalog"
	"github.com/cory-johannsen/levcomp/internal/level/ir"
)

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

func parse(t *testing.T, src string, names *catalog.Catalog) (*recorder, *bytes.Buffer, error) {
	t.Helper()
	var out bytes.Buffer
	ctx := diag.NewRun(&out, zap.NewNop(), diag.Options{Warnings: true}).NewContext("test.yaml")
	rec := &recorder{ctx: ctx, prog: ir.NewProgram()}
	err := yamldes.New(names).Parse(context.Background(), ctx, []byte(src), rec)
	return rec, &out, err
}

const castle = `levels:
  - name: castle
    flags: [noteleport, hardfloor]
    init: {style: solidfill, fill: " ", lit: false}
    body:
      - map: |
          -----
          |.?.|
          -----
      - room:
          name: keep
          size: [3, 1]
          contents:
            - monster: {id: soldier, pos: [1, 1]}
            - object:
                id: chest
                contents:
                  - object: {class: "!"}
      - chance:
          percent: 30
          then:
            - fountain
          else:
            - sink:
      - message: Welcome to the castle
      - wallify
`

func TestParse_Castle(t *testing.T) {
	cat, err := catalog.LoadFromBytes([]byte("monsters:\n  - name: soldier\nobjects:\n  - name: chest\n"))
	require.NoError(t, err)
	rec, out, err := parse(t, castle, cat)
	require.NoError(t, err)
	assert.Equal(t, "test.yaml: line 8 : invalid character '?' in map at row 1, column 2\n", out.String())
	require.Equal(t, []string{"castle"}, rec.names)
	require.Len(t, rec.levels, 1)

	ops := rec.levels[0]
	var kinds []ir.Kind
	for _, op := range ops {
		kinds = append(kinds, op.Kind)
	}
	assert.Equal(t, []ir.Kind{
		ir.KindMap,
		ir.KindRoom, ir.KindMonster, ir.KindObject, ir.KindObject, ir.KindPopContainer, ir.KindEndRoom,
		ir.KindCompare, ir.KindJump, ir.KindFountain, ir.KindJump, ir.KindSink,
		ir.KindMessage, ir.KindWallify,
	}, kinds)

	assert.Equal(t, 10, ops[1].Line)
	assert.Equal(t, 14, ops[2].Line)
	assert.Equal(t, int16(0), ops[2].Payload.(*ir.Monster).ID)
	assert.Equal(t, ir.ContainOpen, ops[3].Payload.(*ir.Object).Containment)
	assert.Equal(t, ir.ContainIn, ops[4].Payload.(*ir.Object).Containment)
	assert.Equal(t, "Welcome to the castle", ops[12].Payload.(*ir.Message).Text)
	assert.Equal(t, 26, ops[13].Line)

	init := rec.inits[0]
	assert.Equal(t, ir.FlagNoTeleport|ir.FlagHardFloor, init.Flags)
	assert.Equal(t, ir.Unlit, init.Lit)
	assert.Equal(t, uint8(4), init.MaxX)
}

func TestParse_SeveralLevels(t *testing.T) {
	rec, out, err := parse(t, `levels:
  - name: one
    body: [fountain]
  - name: two
    body:
      - sink
      - pool: {pos: random}
`, nil)
	require.NoError(t, err)
	require.Empty(t, out.String())
	assert.Equal(t, []string{"one", "two"}, rec.names)
	require.Len(t, rec.levels, 2)
	assert.Len(t, rec.levels[1], 2)
	assert.Equal(t, ir.RandomCoord, rec.levels[1][1].Payload.(*ir.Pool).Pos)
}

func TestParse_SyntaxError(t *testing.T) {
	_, out, err := parse(t, "levels:\n  - name: x\n   body: [\n", nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "syntax error")
}

func TestParse_NoLevels(t *testing.T) {
	_, out, err := parse(t, "levels: []\n", nil)
	require.NoError(t, err)
	assert.Equal(t, "test.yaml: line 1 : no levels declared\n", out.String())
}

func TestParse_BadStatementShapes(t *testing.T) {
	rec, out, err := parse(t, `levels:
  - name: bad
    body:
      - {fountain: {}, sink: {}}
      - [pool]
      - gold: 10
      - teleporter
`, nil)
	require.NoError(t, err)
	assert.Len(t, rec.levels, 1)
	assert.Contains(t, out.String(), "line 4 : statement must be a mapping with a single key")
	assert.Contains(t, out.String(), "line 5 : statement must be a name or a single-key mapping")
	assert.Contains(t, out.String(), "line 6 : gold expects a mapping of arguments")
	assert.Contains(t, out.String(), "line 7 : unknown statement 'teleporter'")
	assert.Equal(t, 4, rec.ctx.Errors())
}

func TestParse_UnknownKeys(t *testing.T) {
	_, out, err := parse(t, `version: 2
levels:
  - name: x
    colour: red
`, nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "line 1 : unknown top-level key 'version'")
	assert.Contains(t, out.String(), "line 4 : unknown level key 'colour'")
}

func TestParse_SubroomParentRecorded(t *testing.T) {
	rec, out, err := parse(t, `levels:
  - name: rooms
    body:
      - room:
          name: hall
          contents:
            - subroom: {name: closet, parent: hall, size: [2, 2]}
`, nil)
	require.NoError(t, err)
	require.Empty(t, out.String())
	sub := rec.levels[0][1].Payload.(*ir.Subroom)
	assert.Equal(t, "hall", sub.Parent)
	assert.Equal(t, 7, rec.levels[0][1].Line)
}
