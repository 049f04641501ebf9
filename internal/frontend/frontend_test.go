package frontend_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/levcomp/internal/diag"
	"github.com/cory-johannsen/levcomp/internal/frontend"
	"github.com/cory-johannsen/levcomp/internal/level/builder"
	"github.com/cory-johannsen/levcomp/internal/level/catalog"
	"github.com/cory-johannsen/levcomp/internal/level/ir"
	"github.com/cory-johannsen/levcomp/internal/level/terrain"
)

func newEnv(t *testing.T, out *bytes.Buffer) *frontend.Env {
	t.Helper()
	cat, err := catalog.LoadFromBytes([]byte(`
monsters:
  - name: jackal
  - name: little dog
objects:
  - name: chest
traps:
  - name: arrow trap
  - name: dart trap
`))
	require.NoError(t, err)
	ctx := diag.NewRun(out, zap.NewNop(), diag.Options{Warnings: true}).NewContext("test.yaml")
	return frontend.NewEnv(builder.New(ctx, ir.NewProgram()), cat)
}

func TestApply_UnknownStatement(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(t, &out)
	require.NoError(t, env.Apply(frontend.Statement{Op: "teleporter", Line: 3}))
	assert.Equal(t, "test.yaml: line 3 : unknown statement 'teleporter'\n", out.String())
}

func TestApply_UnknownArgument(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(t, &out)
	require.NoError(t, env.Apply(frontend.Statement{Op: "fountain", Line: 2, Args: map[string]any{"colour": "blue"}}))
	assert.True(t, env.Builder().Context().Failed())
	assert.Equal(t, "test.yaml: line 2 : fountain: unknown argument(s) colour\n", out.String())
	assert.Equal(t, 0, env.Builder().Program().Len())
}

func TestApply_ArgumentErrorsNameArguments(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(t, &out)
	require.NoError(t, env.Apply(frontend.Statement{Op: "corridor", Line: 1, Args: map[string]any{
		"src": map[string]any{"room": 0, "side": "south"},
		"dst": "north",
	}}))
	require.NoError(t, env.Apply(frontend.Statement{Op: "monster", Line: 2, Args: map[string]any{"peaceful": []any{1}}}))
	assert.Equal(t, 0, env.Builder().Program().Len())
	assert.Contains(t, out.String(), "unknown argument(s) src.side")
	assert.Contains(t, out.String(), "'dst': want a table, got a string")
	assert.Contains(t, out.String(), "line 2 : monster: 'peaceful'")
	assert.NotContains(t, out.String(), "struct {")
	assert.NotContains(t, out.String(), "decoding failed")
}

func TestApply_OutOfRangeNumbersRejected(t *testing.T) {
	cases := []struct {
		op   string
		args map[string]any
		want string
	}{
		{"monster", map[string]any{"chance": int64(300)}, "monster: 'chance': 300 is out of range 0..255"},
		{"gold", map[string]any{"amount": float64(5e9)}, "gold: 'amount': 5e+09 is out of range -2147483648..2147483647"},
		{"object", map[string]any{"quantity": 40000}, "object: 'quantity': 40000 is out of range -32768..32767"},
		{"object", map[string]any{"spe": int64(-200)}, "object: 'spe': -200 is out of range -128..127"},
		{"chance", map[string]any{"percent": int64(-1)}, "chance: 'percent': -1 is out of range 0..255"},
		{"room_door", map[string]any{"pos": int64(128)}, "room_door: 'pos': 128 is out of range -128..127"},
	}
	for _, tc := range cases {
		t.Run(tc.op, func(t *testing.T) {
			var out bytes.Buffer
			env := newEnv(t, &out)
			require.NoError(t, env.Apply(frontend.Statement{Op: tc.op, Line: 4, Args: tc.args}))
			assert.Equal(t, "test.yaml: line 4 : "+tc.want+"\n", out.String())
			assert.Equal(t, 0, env.Builder().Program().Len())
		})
	}
}

func TestApply_ChanceBeyondByte(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var out bytes.Buffer
		ctx := diag.NewRun(&out, zap.NewNop(), diag.Options{}).NewContext("test.lua")
		env := frontend.NewEnv(builder.New(ctx, ir.NewProgram()), nil)
		n := rapid.Int64Range(256, 1<<40).Draw(t, "chance")
		require.NoError(t, env.Apply(frontend.Statement{Op: "trap", Line: 1, Args: map[string]any{"chance": n}}))
		assert.Equal(t, 0, env.Builder().Program().Len())
		assert.Contains(t, out.String(), "is out of range 0..255")
	})
}

func TestApply_CatalogIndexBeyondField(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("traps:\n")
	for i := range 130 {
		fmt.Fprintf(&sb, "  - name: trap %d\n", i)
	}
	cat, err := catalog.LoadFromBytes([]byte(sb.String()))
	require.NoError(t, err)
	var out bytes.Buffer
	ctx := diag.NewRun(&out, zap.NewNop(), diag.Options{Warnings: true}).NewContext("test.yaml")
	env := frontend.NewEnv(builder.New(ctx, ir.NewProgram()), cat)

	require.NoError(t, env.Apply(frontend.Statement{Op: "trap", Line: 1, Args: map[string]any{"type": "trap 127"}}))
	require.NoError(t, env.Apply(frontend.Statement{Op: "trap", Line: 2, Args: map[string]any{"type": "trap 128"}}))
	require.Equal(t, 1, env.Builder().Program().Len())
	assert.Equal(t, int8(127), env.Builder().Last(ir.KindTrap).(*ir.Trap).Type)
	assert.Equal(t, "test.yaml: line 2 : trap: 'type': trap 'trap 128' has catalog index 128, past the largest id 127\n", out.String())
}

func TestApply_MonsterNamesAndNumbers(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(t, &out)
	require.NoError(t, env.Apply(frontend.Statement{Op: "monster", Line: 5, Args: map[string]any{
		"class":    "d",
		"id":       "little dog",
		"name":     "Fido",
		"pos":      []any{float64(3), float64(4)},
		"align":    "lawful",
		"peaceful": true,
		"asleep":   "random",
	}}))
	require.Empty(t, out.String())

	m := env.Builder().Last(ir.KindMonster).(*ir.Monster)
	assert.Equal(t, byte('d'), m.Class)
	assert.Equal(t, int16(1), m.ID)
	assert.Equal(t, "Fido", m.Name)
	assert.Equal(t, ir.Coord{X: 3, Y: 4}, m.Pos)
	assert.Equal(t, ir.AlignLawful, m.Align)
	assert.Equal(t, int8(1), m.Peaceful)
	assert.Equal(t, int8(ir.Random), m.Asleep)
	assert.Equal(t, int8(ir.Random), m.Invisible)
	assert.Equal(t, uint8(100), m.Chance)
	assert.Equal(t, 5, env.Builder().Program().At(0).Line)
}

func TestApply_UnknownCatalogName(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(t, &out)
	require.NoError(t, env.Apply(frontend.Statement{Op: "trap", Line: 1, Args: map[string]any{"type": "pit"}}))
	assert.Contains(t, out.String(), "unknown trap 'pit'")
}

func TestApply_TrapByName(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(t, &out)
	require.NoError(t, env.Apply(frontend.Statement{Op: "trap", Line: 1, Args: map[string]any{
		"type": "dart trap", "pos": map[string]any{"x": 1, "y": 2},
	}}))
	tr := env.Builder().Last(ir.KindTrap).(*ir.Trap)
	assert.Equal(t, int8(1), tr.Type)
	assert.Equal(t, ir.Coord{X: 1, Y: 2}, tr.Pos)
}

func TestApply_RoomWithContents(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(t, &out)
	room := frontend.Statement{Op: "room", Line: 1, Args: map[string]any{
		"name": "hall", "type": "throne", "size": []any{8, 5}, "lit": "lit",
	}}
	room.Then = func() error {
		sub := frontend.Statement{Op: "subroom", Line: 2, Args: map[string]any{"name": "closet", "size": []any{2, 2}}}
		sub.Then = func() error {
			return env.Apply(frontend.Statement{Op: "room_door", Line: 3, Args: map[string]any{"wall": "north", "state": "locked"}})
		}
		return env.Apply(sub)
	}
	require.NoError(t, env.Apply(room))
	require.False(t, env.Builder().Context().Failed(), out.String())

	p := env.Builder().Program()
	var kinds []ir.Kind
	p.Each(func(_ int, op ir.Opcode) { kinds = append(kinds, op.Kind) })
	assert.Equal(t, []ir.Kind{ir.KindRoom, ir.KindSubroom, ir.KindRoomDoor, ir.KindEndRoom, ir.KindEndRoom}, kinds)

	r := p.At(0).Payload.(*ir.Room)
	assert.Equal(t, ir.RoomThrone, r.Type)
	assert.Equal(t, ir.Lit, r.Lit)
	assert.Equal(t, ir.Coord{X: 8, Y: 5}, r.Size)
	assert.Equal(t, "hall", p.At(1).Payload.(*ir.Subroom).Parent)
	assert.Equal(t, ir.DoorLocked, p.At(2).Payload.(*ir.RoomDoor).State)
	assert.Equal(t, 2, p.At(3).Line)
	assert.Equal(t, 1, p.At(4).Line)
}

func TestApply_RoomRejectedSkipsContents(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(t, &out)
	ran := false
	require.NoError(t, env.Apply(frontend.Statement{
		Op: "room", Line: 1, Args: map[string]any{"size": []any{0, 0}},
		Then: func() error { ran = true; return nil },
	}))
	assert.False(t, ran)
	assert.Equal(t, 1, env.Builder().Context().Errors())
}

func TestApply_ContainerContents(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(t, &out)
	require.NoError(t, env.Apply(frontend.Statement{
		Op: "object", Line: 1, Args: map[string]any{"id": "chest", "flags": []any{"locked", "trapped"}},
		Then: func() error {
			return env.Apply(frontend.Statement{Op: "object", Line: 2, Args: map[string]any{"class": "!", "buc": "blessed"}})
		},
	}))
	require.Empty(t, out.String())

	p := env.Builder().Program()
	require.Equal(t, 3, p.Len())
	chest := p.At(0).Payload.(*ir.Object)
	assert.Equal(t, ir.ContainOpen, chest.Containment)
	assert.Equal(t, ir.ObjLocked|ir.ObjTrapped, chest.Flags)
	potion := p.At(1).Payload.(*ir.Object)
	assert.Equal(t, ir.ContainIn, potion.Containment)
	assert.Equal(t, ir.Blessed, potion.Curse)
	assert.Equal(t, ir.KindPopContainer, p.At(2).Kind)
}

func TestApply_ChanceWithElse(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(t, &out)
	require.NoError(t, env.Apply(frontend.Statement{
		Op: "chance", Line: 1, Args: map[string]any{"percent": 25},
		Then: func() error { return env.Apply(frontend.Statement{Op: "fountain", Line: 2}) },
		Else: func() error { return env.Apply(frontend.Statement{Op: "sink", Line: 3}) },
	}))
	p := env.Builder().Program()
	require.Equal(t, 5, p.Len())
	assert.Equal(t, uint8(25), p.At(0).Payload.(*ir.Compare).Percent)
	assert.Equal(t, int32(2), p.At(1).Payload.(*ir.Jump).Offset)
	assert.Equal(t, int32(1), p.At(3).Payload.(*ir.Jump).Offset)
	require.NoError(t, env.Builder().Finish())
	assert.False(t, env.Builder().Context().Failed())
}

func TestApply_MapUsesTextLine(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(t, &out)
	require.NoError(t, env.Apply(frontend.Statement{
		Op: "map", Line: 4, TextLine: 5,
		Args: map[string]any{"map": "..?\n", "halign": "left", "valign": "top"},
	}))
	assert.Equal(t, "test.yaml: line 5 : invalid character '?' in map at row 0, column 2\n", out.String())
	m := env.Builder().Last(ir.KindMap).(*ir.Map)
	assert.Equal(t, ir.AlignLeft, m.HAlign)
	assert.Equal(t, ir.AlignTop, m.VAlign)
}

func TestApply_TerrainPointAndRegion(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(t, &out)
	require.NoError(t, env.Apply(frontend.Statement{Op: "terrain", Line: 1, Args: map[string]any{
		"pos": []any{2, 3}, "terrain": "T",
	}}))
	require.NoError(t, env.Apply(frontend.Statement{Op: "terrain", Line: 2, Args: map[string]any{
		"region": []any{0, 0, 4, 4}, "terrain": "lava",
	}}))
	require.Empty(t, out.String())
	p := env.Builder().Program()
	pt := p.At(0).Payload.(*ir.Terrain)
	assert.Equal(t, ir.ShapePoint, pt.Shape)
	assert.Equal(t, ir.Area{X1: 2, Y1: 3, X2: 2, Y2: 3}, pt.Area)
	assert.Equal(t, terrain.Tree, pt.Terrain)
	rect := p.At(1).Payload.(*ir.Terrain)
	assert.Equal(t, ir.ShapeFillRect, rect.Shape)
	assert.Equal(t, terrain.Lava, rect.Terrain)
}

func TestApply_FlagsAndInit(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(t, &out)
	require.NoError(t, env.Apply(frontend.Statement{Op: "flags", Line: 1, Args: map[string]any{
		"flags": []any{"noteleport", "hardfloor"},
	}}))
	require.NoError(t, env.Apply(frontend.Statement{Op: "init", Line: 2, Args: map[string]any{
		"style": "solidfill", "fill": " ", "lit": false,
	}}))
	require.Empty(t, out.String())
	init := env.Builder().Program().Init
	assert.Equal(t, ir.FlagNoTeleport|ir.FlagHardFloor, init.Flags)
	assert.Equal(t, ir.InitSolid, init.Style)
	assert.Equal(t, uint8(terrain.Stone), init.Fill)
	assert.Equal(t, ir.Unlit, init.Lit)
}

func TestApply_BadNamedValue(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(t, &out)
	require.NoError(t, env.Apply(frontend.Statement{Op: "door", Line: 7, Args: map[string]any{"state": "ajar"}}))
	assert.Contains(t, out.String(), "unknown door state 'ajar'")
}

func TestApply_BareOpsRejectArguments(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(t, &out)
	require.NoError(t, env.Apply(frontend.Statement{Op: "wallify", Line: 1}))
	require.NoError(t, env.Apply(frontend.Statement{Op: "exit", Line: 2, Args: map[string]any{"now": true}}))
	assert.Equal(t, 1, env.Builder().Program().Len())
	assert.Contains(t, out.String(), "exit takes no arguments")
}

func TestApply_BareOps(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(t, &out)
	for i, op := range []string{"wallify", "null", "exit"} {
		require.NoError(t, env.Apply(frontend.Statement{Op: op, Line: i + 1}))
	}
	require.Empty(t, out.String())
	var ks []ir.Kind
	env.Builder().Program().Each(func(_ int, op ir.Opcode) { ks = append(ks, op.Kind) })
	assert.Equal(t, []ir.Kind{ir.KindWallify, ir.KindNull, ir.KindExit}, ks)
}

func TestApply_LevelFlagNames(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(t, &out)
	require.NoError(t, env.Apply(frontend.Statement{Op: "flags", Line: 1, Args: map[string]any{
		"flags": []any{"nomap", "shortsighted"},
	}}))
	require.Empty(t, out.String())
	assert.Equal(t, ir.FlagNoMap|ir.FlagShortSighted, env.Builder().Program().Init.Flags)

	require.NoError(t, env.Apply(frontend.Statement{Op: "flags", Line: 2, Args: map[string]any{"flags": []any{"nommap"}}}))
	assert.Contains(t, out.String(), "unknown level flag 'nommap'")
}

func TestApply_CorridorEnds(t *testing.T) {
	var out bytes.Buffer
	env := newEnv(t, &out)
	require.NoError(t, env.Apply(frontend.Statement{Op: "corridor", Line: 1, Args: map[string]any{
		"src": map[string]any{"room": 0, "wall": "south", "door": 0},
		"dst": map[string]any{"room": 1, "wall": "north"},
	}}))
	require.Empty(t, out.String())
	c := env.Builder().Last(ir.KindCorridor).(*ir.Corridor)
	assert.Equal(t, ir.CorridorEnd{Room: 0, Wall: ir.WallSouth, Door: 0}, c.Src)
	assert.Equal(t, ir.CorridorEnd{Room: 1, Wall: ir.WallNorth, Door: ir.Random}, c.Dst)
}

func TestOps_CoverEveryPayloadKind(t *testing.T) {
	ops := map[string]bool{}
	for _, op := range frontend.Ops() {
		ops[op] = true
	}
	// Every kind a source can request directly has a statement.
	for _, op := range []string{
		"map", "message", "random_objects", "random_monsters", "random_places", "room", "subroom",
		"room_door", "monster", "object", "engraving", "level_region", "door", "stair", "ladder",
		"altar", "fountain", "sink", "pool", "trap", "gold", "corridor", "replace_terrain",
		"random_line", "terrain", "spill", "drawbridge", "mazewalk", "non_diggable", "region",
		"chance", "wallify", "null", "exit",
	} {
		assert.True(t, ops[op], op)
	}
}

func TestProperty_CoordListsDecode(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.IntRange(-1, 75).Draw(t, "x")
		y := rapid.IntRange(-1, 20).Draw(t, "y")
		var out bytes.Buffer
		ctx := diag.NewRun(&out, zap.NewNop(), diag.Options{}).NewContext("p.lua")
		env := frontend.NewEnv(builder.New(ctx, ir.NewProgram()), nil)
		if err := env.Apply(frontend.Statement{Op: "pool", Line: 1, Args: map[string]any{
			"pos": []any{float64(x), float64(y)},
		}}); err != nil {
			t.Fatal(err)
		}
		p, ok := env.Builder().Last(ir.KindPool).(*ir.Pool)
		if !ok {
			t.Fatalf("no pool appended: %s", out.String())
		}
		if int(p.Pos.X) != x || int(p.Pos.Y) != y {
			t.Fatalf("pos = %v; want (%d,%d)", p.Pos, x, y)
		}
	})
}
