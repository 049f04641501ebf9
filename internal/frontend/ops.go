package frontend

import (
	"github.com/cory-johannsen/levcomp/internal/diag"
	"github.com/cory-johannsen/levcomp/internal/level/builder"
	"github.com/cory-johannsen/levcomp/internal/level/ir"
	"github.com/cory-johannsen/levcomp/internal/level/terrain"
)

type handler func(e *Env, st Statement) error

var handlers = map[string]handler{
	"flags":           applyFlags,
	"init":            applyInit,
	"map":             applyMap,
	"message":         applyMessage,
	"random_objects":  applyRandomObjects,
	"random_monsters": applyRandomMonsters,
	"random_places":   applyRandomPlaces,
	"room":            applyRoom,
	"subroom":         applySubroom,
	"room_door":       applyRoomDoor,
	"monster":         applyMonster,
	"object":          applyObject,
	"engraving":       applyEngraving,
	"level_region":    applyLevelRegion,
	"door":            applyDoor,
	"stair":           applyStair,
	"ladder":          applyLadder,
	"altar":           applyAltar,
	"fountain":        applyFountain,
	"sink":            applySink,
	"pool":            applyPool,
	"trap":            applyTrap,
	"gold":            applyGold,
	"corridor":        applyCorridor,
	"replace_terrain": applyReplaceTerrain,
	"random_line":     applyRandomLine,
	"terrain":         applyTerrain,
	"spill":           applySpill,
	"drawbridge":      applyDrawbridge,
	"mazewalk":        applyMazeWalk,
	"non_diggable":    applyDigRestriction(ir.NonDiggable),
	"non_passwall":    applyDigRestriction(ir.NonPasswall),
	"region":          applyRegion,
	"chance":          applyChance,
	"wallify":         applyBare((*builder.Builder).Wallify),
	"null":            applyBare((*builder.Builder).Null),
	"exit":            applyBare((*builder.Builder).Exit),
}

func applyFlags(e *Env, st Statement) error {
	var a struct {
		Flags []levelFlag `des:"flags"`
	}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	var flags uint32
	for _, f := range a.Flags {
		flags |= uint32(f)
	}
	e.b.SetFlags(flags)
	return nil
}

func applyInit(e *Env, st Statement) error {
	a := struct {
		Style  initStyle    `des:"style"`
		Fill   terrain.Type `des:"fill"`
		Lit    tri          `des:"lit"`
		Joined bool         `des:"joined"`
	}{Style: initStyle(ir.InitSolid), Fill: terrain.Stone, Lit: tri(ir.LitRandom), Joined: true}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	if !a.Fill.Valid() {
		return e.b.Context().Errorf(diag.AtDeclaration, "invalid fill terrain %s", a.Fill)
	}
	e.b.InitLevel(uint8(a.Style), uint8(a.Fill), int8(a.Lit), a.Joined)
	return nil
}

func applyMap(e *Env, st Statement) error {
	a := struct {
		Map    string   `des:"map"`
		HAlign mapAlign `des:"halign"`
		VAlign mapAlign `des:"valign"`
	}{HAlign: mapAlign(ir.AlignCenter), VAlign: mapAlign(ir.AlignCenter)}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	line := st.TextLine
	if line == 0 {
		line = st.Line
	}
	e.b.Context().At(line)
	return e.b.BeginMap(a.Map, int8(a.HAlign), int8(a.VAlign))
}

func applyMessage(e *Env, st Statement) error {
	var a struct {
		Text string `des:"text"`
	}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.Message(a.Text)
}

func applyRandomObjects(e *Env, st Statement) error {
	var a struct {
		Classes string `des:"classes"`
	}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.RandomObjects(a.Classes)
}

func applyRandomMonsters(e *Env, st Statement) error {
	var a struct {
		Classes string `des:"classes"`
	}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.RandomMonsters(a.Classes)
}

func applyRandomPlaces(e *Env, st Statement) error {
	var a struct {
		Places []ir.Coord `des:"places"`
	}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.RandomPlaces(a.Places)
}

type roomArgs struct {
	Name   string   `des:"name"`
	Parent string   `des:"parent"`
	Type   roomType `des:"type"`
	Lit    tri      `des:"lit"`
	Chance uint8    `des:"chance"`
	Pos    ir.Coord `des:"pos"`
	HAlign mapAlign `des:"halign"`
	VAlign mapAlign `des:"valign"`
	Size   ir.Coord `des:"size"`
	Filled bool     `des:"filled"`
	Joined bool     `des:"joined"`
}

func defaultRoomArgs() roomArgs {
	return roomArgs{
		Type:   roomType(ir.RoomOrdinary),
		Lit:    tri(ir.LitRandom),
		Chance: 100,
		Pos:    ir.RandomCoord,
		HAlign: ir.Random,
		VAlign: ir.Random,
		Size:   ir.RandomCoord,
		Filled: true,
		Joined: true,
	}
}

func (a roomArgs) spec() ir.RoomSpec {
	return ir.RoomSpec{
		Type:   uint8(a.Type),
		Lit:    int8(a.Lit),
		Chance: a.Chance,
		Pos:    a.Pos,
		Align:  ir.Coord{X: int8(a.HAlign), Y: int8(a.VAlign)},
		Size:   a.Size,
		Filled: a.Filled,
		Joined: a.Joined,
	}
}

func applyRoom(e *Env, st Statement) error {
	a := defaultRoomArgs()
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	if a.Parent != "" {
		return e.b.Context().Errorf(diag.AtDeclaration, "room '%s' cannot have a parent; use a subroom", a.Name)
	}
	opened, err := e.appended(func() error {
		return e.b.AddRoom(&ir.Room{RoomSpec: a.spec(), Name: a.Name})
	})
	if err != nil || !opened {
		return err
	}
	return e.nested(st, st.Then, e.b.EndRoom)
}

func applySubroom(e *Env, st Statement) error {
	a := defaultRoomArgs()
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	opened, err := e.appended(func() error {
		return e.b.AddSubroom(&ir.Subroom{RoomSpec: a.spec(), Name: a.Name, Parent: a.Parent})
	})
	if err != nil || !opened {
		return err
	}
	return e.nested(st, st.Then, e.b.EndRoom)
}

func applyRoomDoor(e *Env, st Statement) error {
	a := struct {
		Secret tri       `des:"secret"`
		State  doorState `des:"state"`
		Wall   wallDir   `des:"wall"`
		Pos    int8      `des:"pos"`
	}{Secret: ir.Random, State: doorState(ir.DoorRandom), Wall: wallDir(ir.WallRandom), Pos: ir.Random}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddRoomDoor(&ir.RoomDoor{
		Secret: int8(a.Secret), State: int8(a.State), Wall: int8(a.Wall), Pos: a.Pos,
	})
}

func applyMonster(e *Env, st Statement) error {
	a := struct {
		Class      symbol     `des:"class"`
		ID         monsterRef `des:"id"`
		Name       string     `des:"name"`
		Appear     string     `des:"appear_as"`
		AppearKind appearKind `des:"appear_kind"`
		Pos        ir.Coord   `des:"pos"`
		Align      alignment  `des:"align"`
		Peaceful   tri        `des:"peaceful"`
		Asleep     tri        `des:"asleep"`
		Invisible  tri        `des:"invisible"`
		Chance     uint8      `des:"chance"`
	}{
		ID: ir.Random, Pos: ir.RandomCoord, Align: alignment(ir.AlignRandom),
		Peaceful: ir.Random, Asleep: ir.Random, Invisible: ir.Random, Chance: 100,
	}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddMonster(&ir.Monster{
		MonsterSpec: ir.MonsterSpec{
			Class: byte(a.Class), ID: int16(a.ID), Pos: a.Pos, Align: int8(a.Align),
			Peaceful: int8(a.Peaceful), Asleep: int8(a.Asleep), Invisible: int8(a.Invisible),
			AppearKind: uint8(a.AppearKind), Chance: a.Chance,
		},
		Name:   a.Name,
		Appear: a.Appear,
	})
}

// applyObject places an object. Inside another object's contents it goes
// into that container; with contents of its own it opens one.
func applyObject(e *Env, st Statement) error {
	a := struct {
		Class    symbol     `des:"class"`
		ID       objectRef  `des:"id"`
		Name     string     `des:"name"`
		Pos      ir.Coord   `des:"pos"`
		Corpse   monsterRef `des:"montype"`
		Spe      int8       `des:"spe"`
		Curse    curse      `des:"buc"`
		Quantity int16      `des:"quantity"`
		Flags    []objFlag  `des:"flags"`
		Chance   uint8      `des:"chance"`
	}{
		ID: ir.Random, Pos: ir.RandomCoord, Corpse: ir.Random, Spe: ir.SpeRandom,
		Curse: curse(ir.CurseRandom), Quantity: ir.Random, Chance: 100,
	}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	var flags uint16
	for _, f := range a.Flags {
		flags |= uint16(f)
	}
	var containment uint8
	if e.containers > 0 {
		containment |= ir.ContainIn
	}
	if st.Then != nil {
		containment |= ir.ContainOpen
	}
	obj := &ir.Object{
		ObjectSpec: ir.ObjectSpec{
			Class: byte(a.Class), ID: int16(a.ID), Pos: a.Pos, Corpse: int16(a.Corpse),
			Spe: a.Spe, Curse: int8(a.Curse), Quantity: a.Quantity, Flags: flags,
			Containment: containment, Chance: a.Chance,
		},
		Name: a.Name,
	}
	opened, err := e.appended(func() error { return e.b.AddObject(obj) })
	if err != nil || !opened || st.Then == nil {
		return err
	}
	e.containers++
	defer func() { e.containers-- }()
	return e.nested(st, st.Then, e.b.PopContainer)
}

func applyEngraving(e *Env, st Statement) error {
	a := struct {
		Pos  ir.Coord  `des:"pos"`
		Type engraving `des:"type"`
		Text string    `des:"text"`
	}{Pos: ir.RandomCoord, Type: engraving(ir.EngraveRandom)}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddEngraving(&ir.Engraving{
		EngravingSpec: ir.EngravingSpec{Pos: a.Pos, Type: int8(a.Type)},
		Text:          a.Text,
	})
}

func applyLevelRegion(e *Env, st Statement) error {
	var a struct {
		In       ir.Area    `des:"region"`
		InLevel  bool       `des:"in_level"`
		Del      ir.Area    `des:"exclude"`
		DelLevel bool       `des:"exclude_in_level"`
		Type     regionType `des:"type"`
		Up       bool       `des:"up"`
		Name     string     `des:"name"`
	}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddLevelRegion(&ir.LevelRegion{
		LevelRegionSpec: ir.LevelRegionSpec{
			In: a.In, InLevel: a.InLevel, Del: a.Del, DelLevel: a.DelLevel,
			Type: uint8(a.Type), Up: a.Up,
		},
		Name: a.Name,
	})
}

func applyDoor(e *Env, st Statement) error {
	a := struct {
		Pos   ir.Coord  `des:"pos"`
		State doorState `des:"state"`
	}{Pos: ir.RandomCoord, State: doorState(ir.DoorRandom)}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddDoor(&ir.Door{Pos: a.Pos, State: int8(a.State)})
}

type stairArgs struct {
	Pos ir.Coord `des:"pos"`
	Up  bool     `des:"up"`
}

func applyStair(e *Env, st Statement) error {
	a := stairArgs{Pos: ir.RandomCoord}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddStair(&ir.Stair{Pos: a.Pos, Up: a.Up})
}

func applyLadder(e *Env, st Statement) error {
	a := stairArgs{Pos: ir.RandomCoord}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddLadder(&ir.Ladder{Pos: a.Pos, Up: a.Up})
}

func applyAltar(e *Env, st Statement) error {
	a := struct {
		Pos    ir.Coord  `des:"pos"`
		Align  alignment `des:"align"`
		Shrine tri       `des:"shrine"`
	}{Pos: ir.RandomCoord, Align: alignment(ir.AlignRandom), Shrine: ir.Random}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddAltar(&ir.Altar{Pos: a.Pos, Align: int8(a.Align), Shrine: int8(a.Shrine)})
}

type posArgs struct {
	Pos ir.Coord `des:"pos"`
}

func applyFountain(e *Env, st Statement) error {
	a := posArgs{Pos: ir.RandomCoord}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddFountain(&ir.Fountain{Pos: a.Pos})
}

func applySink(e *Env, st Statement) error {
	a := posArgs{Pos: ir.RandomCoord}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddSink(&ir.Sink{Pos: a.Pos})
}

func applyPool(e *Env, st Statement) error {
	a := posArgs{Pos: ir.RandomCoord}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddPool(&ir.Pool{Pos: a.Pos})
}

func applyTrap(e *Env, st Statement) error {
	a := struct {
		Pos    ir.Coord `des:"pos"`
		Type   trapRef  `des:"type"`
		Chance uint8    `des:"chance"`
	}{Pos: ir.RandomCoord, Type: ir.Random, Chance: 100}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddTrap(&ir.Trap{Pos: a.Pos, Type: int8(a.Type), Chance: a.Chance})
}

func applyGold(e *Env, st Statement) error {
	a := struct {
		Pos    ir.Coord `des:"pos"`
		Amount int32    `des:"amount"`
	}{Pos: ir.RandomCoord, Amount: ir.Random}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddGold(&ir.Gold{Pos: a.Pos, Amount: a.Amount})
}

type corridorEnd struct {
	Room int8    `des:"room"`
	Wall wallDir `des:"wall"`
	Door int8    `des:"door"`
}

func (c corridorEnd) end() ir.CorridorEnd {
	return ir.CorridorEnd{Room: c.Room, Wall: int8(c.Wall), Door: c.Door}
}

func applyCorridor(e *Env, st Statement) error {
	end := corridorEnd{Room: ir.Random, Wall: wallDir(ir.WallRandom), Door: ir.Random}
	a := struct {
		Src corridorEnd `des:"src"`
		Dst corridorEnd `des:"dst"`
	}{Src: end, Dst: end}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddCorridor(&ir.Corridor{Src: a.Src.end(), Dst: a.Dst.end()})
}

func applyReplaceTerrain(e *Env, st Statement) error {
	a := struct {
		Area   ir.Area      `des:"region"`
		From   terrain.Type `des:"fromterrain"`
		To     terrain.Type `des:"toterrain"`
		Lit    tri          `des:"lit"`
		Chance uint8        `des:"chance"`
	}{Lit: tri(ir.LitRandom), Chance: 100}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.ReplaceTerrain(&ir.ReplaceTerrain{
		Area: a.Area, From: a.From, To: a.To, Lit: int8(a.Lit), Chance: a.Chance,
	})
}

func applyRandomLine(e *Env, st Statement) error {
	a := struct {
		From      ir.Coord     `des:"from"`
		To        ir.Coord     `des:"to"`
		Terrain   terrain.Type `des:"terrain"`
		Lit       tri          `des:"lit"`
		Roughness uint8        `des:"roughness"`
	}{Terrain: terrain.Room, Lit: tri(ir.LitRandom)}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddRandomLine(&ir.RandomLine{
		From: a.From, To: a.To, Terrain: a.Terrain, Lit: int8(a.Lit), Roughness: a.Roughness,
	})
}

// applyTerrain paints a point when given pos and a filled rectangle when
// given region, unless shape says otherwise.
func applyTerrain(e *Env, st Statement) error {
	a := struct {
		Shape   shape        `des:"shape"`
		Pos     ir.Coord     `des:"pos"`
		Area    ir.Area      `des:"region"`
		Terrain terrain.Type `des:"terrain"`
		Lit     tri          `des:"lit"`
	}{Shape: shape(ir.ShapeFillRect), Lit: tri(ir.LitRandom)}
	if has(st.Args, "pos") && !has(st.Args, "shape") {
		a.Shape = shape(ir.ShapePoint)
	}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	if has(st.Args, "pos") {
		if has(st.Args, "region") {
			return e.b.Context().Errorf(diag.AtDeclaration, "terrain takes either pos or region, not both")
		}
		a.Area = ir.Area{X1: a.Pos.X, Y1: a.Pos.Y, X2: a.Pos.X, Y2: a.Pos.Y}
	}
	return e.b.AddTerrain(&ir.Terrain{Shape: uint8(a.Shape), Area: a.Area, Terrain: a.Terrain, Lit: int8(a.Lit)})
}

func applySpill(e *Env, st Statement) error {
	a := struct {
		Pos     ir.Coord     `des:"pos"`
		Terrain terrain.Type `des:"terrain"`
		Dir     wallDir      `des:"direction"`
		Count   uint8        `des:"count"`
		Lit     tri          `des:"lit"`
	}{Pos: ir.RandomCoord, Terrain: terrain.Pool, Dir: wallDir(ir.WallRandom), Count: 1, Lit: tri(ir.LitRandom)}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddSpill(&ir.Spill{Pos: a.Pos, Terrain: a.Terrain, Dir: int8(a.Dir), Count: a.Count, Lit: int8(a.Lit)})
}

func applyDrawbridge(e *Env, st Statement) error {
	a := struct {
		Pos   ir.Coord  `des:"pos"`
		Dir   wallDir   `des:"dir"`
		State doorState `des:"state"`
	}{Pos: ir.RandomCoord, Dir: wallDir(ir.WallRandom), State: doorState(ir.DoorRandom)}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddDrawbridge(&ir.Drawbridge{Pos: a.Pos, Dir: int8(a.Dir), State: int8(a.State)})
}

func applyMazeWalk(e *Env, st Statement) error {
	a := struct {
		Pos     ir.Coord `des:"pos"`
		Dir     wallDir  `des:"dir"`
		Stocked bool     `des:"stocked"`
	}{Pos: ir.RandomCoord, Dir: wallDir(ir.WallRandom), Stocked: true}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddMazeWalk(&ir.MazeWalk{Pos: a.Pos, Dir: int8(a.Dir), Stocked: a.Stocked})
}

func applyDigRestriction(kind uint8) handler {
	return func(e *Env, st Statement) error {
		var a struct {
			Area ir.Area `des:"region"`
		}
		if ok, err := e.decode(st, &a); !ok {
			return err
		}
		return e.b.AddDigRestriction(&ir.DigRestriction{Area: a.Area, Type: kind})
	}
}

func applyRegion(e *Env, st Statement) error {
	a := struct {
		Area      ir.Area  `des:"region"`
		Lit       tri      `des:"lit"`
		Type      roomType `des:"type"`
		Prefilled bool     `des:"prefilled"`
		Irregular bool     `des:"irregular"`
	}{Lit: tri(ir.LitRandom), Type: roomType(ir.RoomOrdinary)}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	return e.b.AddRegion(&ir.Region{
		Area: a.Area, Lit: int8(a.Lit), Type: uint8(a.Type), Prefilled: a.Prefilled, Irregular: a.Irregular,
	})
}

// applyChance runs Then with the given probability and Else otherwise.
func applyChance(e *Env, st Statement) error {
	a := struct {
		Percent uint8 `des:"percent"`
	}{Percent: 50}
	if ok, err := e.decode(st, &a); !ok {
		return err
	}
	br, err := e.b.If(a.Percent)
	if err != nil {
		return err
	}
	if st.Then != nil {
		if err := st.Then(); err != nil {
			return err
		}
	}
	if st.Else != nil {
		e.b.Context().BeginDecl(st.Line)
		if err := e.b.Else(br); err != nil {
			return err
		}
		if err := st.Else(); err != nil {
			return err
		}
	}
	e.b.Context().BeginDecl(st.Line)
	return e.b.EndIf(br)
}

func applyBare(add func(*builder.Builder) error) handler {
	return func(e *Env, st Statement) error {
		if len(st.Args) > 0 {
			return e.b.Context().Errorf(diag.AtDeclaration, "%s takes no arguments", st.Op)
		}
		return add(e.b)
	}
}
