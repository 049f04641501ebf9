package frontend

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/cory-johannsen/levcomp/internal/level/catalog"
	"github.com/cory-johannsen/levcomp/internal/level/ir"
	"github.com/cory-johannsen/levcomp/internal/level/terrain"
)

// Argument types that accept symbolic names as well as numbers. Each one
// converts to the matching ir field.
type (
	tri        int8
	doorState  int8
	wallDir    int8
	alignment  int8
	mapAlign   int8
	curse      int8
	engraving  int8
	roomType   uint8
	regionType uint8
	shape      uint8
	digKind    uint8
	appearKind uint8
	initStyle  uint8
	levelFlag  uint32
	objFlag    uint16
	symbol     byte
)

// References into the catalog. Strings resolve through the Env's Resolver.
type (
	monsterRef int16
	objectRef  int16
	trapRef    int8
)

type nameTable struct {
	label  string
	values map[string]int64
}

var nameTables = map[reflect.Type]nameTable{
	reflect.TypeFor[tri](): {"selector", map[string]int64{
		"random": ir.Random, "true": 1, "false": 0, "yes": 1, "no": 0,
		"lit": 1, "unlit": 0,
	}},
	reflect.TypeFor[doorState](): {"door state", map[string]int64{
		"random": int64(ir.DoorRandom), "nodoor": int64(ir.DoorNone), "none": int64(ir.DoorNone),
		"broken": int64(ir.DoorBroken), "open": int64(ir.DoorOpen), "closed": int64(ir.DoorClosed),
		"locked": int64(ir.DoorLocked), "trapped": int64(ir.DoorTrapped),
	}},
	reflect.TypeFor[wallDir](): {"direction", map[string]int64{
		"random": int64(ir.WallRandom), "north": int64(ir.WallNorth), "south": int64(ir.WallSouth),
		"east": int64(ir.WallEast), "west": int64(ir.WallWest),
	}},
	reflect.TypeFor[alignment](): {"alignment", map[string]int64{
		"random": int64(ir.AlignRandom), "none": int64(ir.AlignNone), "noalign": int64(ir.AlignNone),
		"chaotic": int64(ir.AlignChaotic), "neutral": int64(ir.AlignNeutral), "lawful": int64(ir.AlignLawful),
		"coaligned": int64(ir.AlignCoAligned), "noncoaligned": int64(ir.AlignNonCoAligned),
	}},
	reflect.TypeFor[mapAlign](): {"map alignment", map[string]int64{
		"random": ir.Random, "left": int64(ir.AlignLeft), "half-left": int64(ir.AlignHalfLeft),
		"center": int64(ir.AlignCenter), "half-right": int64(ir.AlignHalfRight),
		"right": int64(ir.AlignRight), "top": int64(ir.AlignTop), "bottom": int64(ir.AlignBottom),
	}},
	reflect.TypeFor[curse](): {"curse state", map[string]int64{
		"random": int64(ir.CurseRandom), "uncursed": int64(ir.Uncursed),
		"blessed": int64(ir.Blessed), "cursed": int64(ir.Cursed),
	}},
	reflect.TypeFor[engraving](): {"engraving type", map[string]int64{
		"random": int64(ir.EngraveRandom), "dust": int64(ir.EngraveDust), "engrave": int64(ir.Engrave),
		"burn": int64(ir.EngraveBurn), "mark": int64(ir.EngraveMark), "blood": int64(ir.EngraveBlood),
	}},
	reflect.TypeFor[roomType](): {"room type", map[string]int64{
		"ordinary": int64(ir.RoomOrdinary), "throne": int64(ir.RoomThrone), "swamp": int64(ir.RoomSwamp),
		"vault": int64(ir.RoomVault), "beehive": int64(ir.RoomBeehive), "morgue": int64(ir.RoomMorgue),
		"barracks": int64(ir.RoomBarracks), "zoo": int64(ir.RoomZoo), "delphi": int64(ir.RoomDelphi),
		"temple": int64(ir.RoomTemple), "leprechaun": int64(ir.RoomLeprechaun),
		"cockatrice": int64(ir.RoomCockatrice), "anthole": int64(ir.RoomAnthole), "shop": int64(ir.RoomShop),
	}},
	reflect.TypeFor[regionType](): {"region type", map[string]int64{
		"tele": int64(ir.RegionTele), "tele-up": int64(ir.RegionTeleUp), "tele-down": int64(ir.RegionTeleDown),
		"portal": int64(ir.RegionPortal), "branch": int64(ir.RegionBranch),
		"stair-up": int64(ir.RegionStairUp), "stair-down": int64(ir.RegionStairDown),
	}},
	reflect.TypeFor[shape](): {"shape", map[string]int64{
		"point": int64(ir.ShapePoint), "hline": int64(ir.ShapeHLine), "vline": int64(ir.ShapeVLine),
		"rect": int64(ir.ShapeRect), "fillrect": int64(ir.ShapeFillRect),
	}},
	reflect.TypeFor[digKind](): {"dig restriction", map[string]int64{
		"nondiggable": int64(ir.NonDiggable), "nonpasswall": int64(ir.NonPasswall),
	}},
	reflect.TypeFor[appearKind](): {"appearance kind", map[string]int64{
		"none": int64(ir.AppearNone), "furniture": int64(ir.AppearFurniture),
		"object": int64(ir.AppearObject), "monster": int64(ir.AppearMonster),
	}},
	reflect.TypeFor[initStyle](): {"init style", map[string]int64{
		"none": int64(ir.InitNone), "solidfill": int64(ir.InitSolid), "solid": int64(ir.InitSolid),
		"mines": int64(ir.InitMines), "maze": int64(ir.InitMaze),
	}},
	reflect.TypeFor[levelFlag](): {"level flag", map[string]int64{
		"noteleport": int64(ir.FlagNoTeleport), "hardfloor": int64(ir.FlagHardFloor),
		"nomap": int64(ir.FlagNoMap), "shortsighted": int64(ir.FlagShortSighted),
		"arboreal": int64(ir.FlagArboreal), "mazelevel": int64(ir.FlagMazeLevel),
		"premapped": int64(ir.FlagPremapped), "solidify": int64(ir.FlagSolidify),
	}},
	reflect.TypeFor[objFlag](): {"object flag", map[string]int64{
		"buried": int64(ir.ObjBuried), "locked": int64(ir.ObjLocked), "trapped": int64(ir.ObjTrapped),
		"greased": int64(ir.ObjGreased), "invisible": int64(ir.ObjInvisible),
		"recharged": int64(ir.ObjRecharged), "erodeproof": int64(ir.ObjErodeproof), "lit": int64(ir.ObjLit),
	}},
}

// namedValueHook converts symbolic names to the numeric value of the target
// argument type. Numeric strings fall through to ordinary weak decoding.
func namedValueHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	s := strings.ToLower(strings.TrimSpace(data.(string)))
	if to == reflect.TypeFor[symbol]() {
		switch len(s) {
		case 0:
			return symbol(0), nil
		case 1:
			return symbol(strings.TrimSpace(data.(string))[0]), nil
		}
		return nil, fmt.Errorf("class '%s' must be a single character", data)
	}
	table, ok := nameTables[to]
	if !ok {
		return data, nil
	}
	if v, ok := table.values[s]; ok {
		return reflect.ValueOf(v).Convert(to).Interface(), nil
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return data, nil
	}
	return nil, fmt.Errorf("unknown %s '%s'", table.label, data)
}

// referenceHook resolves catalog names. "random" selects Random.
func (e *Env) referenceHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	var kind catalog.Kind
	switch to {
	case reflect.TypeFor[monsterRef]():
		kind = catalog.Monsters
	case reflect.TypeFor[objectRef]():
		kind = catalog.Objects
	case reflect.TypeFor[trapRef]():
		kind = catalog.Traps
	default:
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	if strings.EqualFold(s, "random") {
		return reflect.ValueOf(int64(ir.Random)).Convert(to).Interface(), nil
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return data, nil
	}
	if e.names != nil {
		if i, ok := e.names.Lookup(kind, s); ok {
			if _, hi, _ := intBounds(to.Kind()); int64(i) > hi {
				return nil, fmt.Errorf("%s '%s' has catalog index %d, past the largest id %d", kind, s, i, hi)
			}
			return reflect.ValueOf(int64(i)).Convert(to).Interface(), nil
		}
	}
	return nil, fmt.Errorf("unknown %s '%s'", kind, s)
}

// rangeHook rejects numbers that do not fit the target integer type instead
// of letting them wrap.
func rangeHook(from, to reflect.Type, data any) (any, error) {
	lo, hi, ok := intBounds(to.Kind())
	if !ok {
		return data, nil
	}
	if f, ok := data.(float64); ok {
		if f < float64(lo) || f > float64(hi) {
			return nil, fmt.Errorf("%g is out of range %d..%d", f, lo, hi)
		}
		return data, nil
	}
	if u, ok := data.(uint64); ok && u > math.MaxInt64 {
		return nil, fmt.Errorf("%d is out of range %d..%d", u, lo, hi)
	}
	n, ok := number(data)
	if !ok {
		return data, nil
	}
	if n < lo || n > hi {
		return nil, fmt.Errorf("%d is out of range %d..%d", n, lo, hi)
	}
	return data, nil
}

// intBounds returns the range of the fixed-size integer kinds arguments
// decode into.
func intBounds(k reflect.Kind) (lo, hi int64, ok bool) {
	switch k {
	case reflect.Int8:
		return math.MinInt8, math.MaxInt8, true
	case reflect.Int16:
		return math.MinInt16, math.MaxInt16, true
	case reflect.Int32:
		return math.MinInt32, math.MaxInt32, true
	case reflect.Uint8:
		return 0, math.MaxUint8, true
	case reflect.Uint16:
		return 0, math.MaxUint16, true
	case reflect.Uint32:
		return 0, math.MaxUint32, true
	}
	return 0, 0, false
}

// coordHook accepts "random" and [x, y] lists for ir.Coord. Maps with x and
// y keys decode field by field.
func coordHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeFor[ir.Coord]() {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		if strings.EqualFold(strings.TrimSpace(v), "random") {
			return ir.RandomCoord, nil
		}
		return nil, fmt.Errorf("invalid coordinate '%s'", v)
	case []any:
		n, err := smallInts(v, 2)
		if err != nil {
			return nil, fmt.Errorf("coordinate: %w", err)
		}
		return ir.Coord{X: n[0], Y: n[1]}, nil
	}
	return data, nil
}

// areaHook accepts "random" and [x1, y1, x2, y2] lists for ir.Area.
func areaHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeFor[ir.Area]() {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		if strings.EqualFold(strings.TrimSpace(v), "random") {
			return ir.Area{X1: ir.Random, Y1: ir.Random, X2: ir.Random, Y2: ir.Random}, nil
		}
		return nil, fmt.Errorf("invalid area '%s'", v)
	case []any:
		n, err := smallInts(v, 4)
		if err != nil {
			return nil, fmt.Errorf("area: %w", err)
		}
		return ir.Area{X1: n[0], Y1: n[1], X2: n[2], Y2: n[3]}, nil
	}
	return data, nil
}

// terrainHook accepts map characters and terrain names.
func terrainHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeFor[terrain.Type]() || from.Kind() != reflect.String {
		return data, nil
	}
	t, err := terrain.Parse(data.(string))
	if err != nil {
		return nil, err
	}
	return t, nil
}

// smallInts converts a list of exactly n numbers to int8 values.
func smallInts(list []any, n int) ([]int8, error) {
	if len(list) != n {
		return nil, fmt.Errorf("want %d numbers, got %d", n, len(list))
	}
	out := make([]int8, n)
	for i, v := range list {
		x, ok := number(v)
		if !ok {
			return nil, fmt.Errorf("element %d is not a whole number", i)
		}
		if x < math.MinInt8 || x > math.MaxInt8 {
			return nil, fmt.Errorf("element %d (%d) is out of range", i, x)
		}
		out[i] = int8(x)
	}
	return out, nil
}

// number converts the numeric types produced by the parsers.
func number(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}
