package ir

import "github.com/cory-johannsen/levcomp/internal/level/terrain"

// Random is the value of any signed selector or coordinate the loader
// chooses at load time.
const Random = -1

// Payload is the kind-specific data attached to an opcode. The set of
// implementations is closed: one pointer type per payload-bearing kind.
type Payload interface {
	Kind() Kind
	payload()
}

// Coord is a map position. Either component may be Random.
type Coord struct {
	X, Y int8
}

// RandomCoord is a position the loader picks.
var RandomCoord = Coord{X: Random, Y: Random}

// Area is an inclusive rectangle of map positions.
type Area struct {
	X1, Y1, X2, Y2 int8
}

// Lit values.
const (
	LitRandom int8 = Random
	Unlit     int8 = 0
	Lit       int8 = 1
)

// Alignments used by monsters and altars.
const (
	AlignRandom       int8 = Random
	AlignNone         int8 = 0
	AlignChaotic      int8 = 1
	AlignNeutral      int8 = 2
	AlignLawful       int8 = 3
	AlignCoAligned    int8 = 4
	AlignNonCoAligned int8 = 5
)

// Door states. Values combine the way the loader's door mask does.
const (
	DoorRandom  int8 = Random
	DoorNone    int8 = 0
	DoorBroken  int8 = 1
	DoorOpen    int8 = 2
	DoorClosed  int8 = 4
	DoorLocked  int8 = 8
	DoorTrapped int8 = 16
)

// Wall directions, used by room doors, spills, drawbridges and maze walks.
const (
	WallRandom int8 = Random
	WallNorth  int8 = 1
	WallSouth  int8 = 2
	WallEast   int8 = 4
	WallWest   int8 = 8
)

// Map alignment codes.
const (
	AlignLeft      int8 = 1
	AlignHalfLeft  int8 = 2
	AlignCenter    int8 = 3
	AlignHalfRight int8 = 4
	AlignRight     int8 = 5
	AlignTop       int8 = AlignLeft
	AlignBottom    int8 = AlignRight
)

// Monster disguise kinds.
const (
	AppearNone      uint8 = 0
	AppearFurniture uint8 = 1
	AppearObject    uint8 = 2
	AppearMonster   uint8 = 3
)

// Object curse states.
const (
	CurseRandom int8 = Random
	Uncursed    int8 = 0
	Blessed     int8 = 1
	Cursed      int8 = 2
)

// SpeRandom asks the loader to roll an object's enchantment.
const SpeRandom int8 = -127

// Object flag bits.
const (
	ObjBuried uint16 = 1 << iota
	ObjLocked
	ObjTrapped
	ObjGreased
	ObjInvisible
	ObjRecharged
	ObjErodeproof
	ObjLit
)

// Object containment.
const (
	ContainNone uint8 = 0
	// ContainIn places the object inside the innermost open container.
	ContainIn uint8 = 1
	// ContainOpen makes the object a container that stays open until the
	// matching pop-container opcode.
	ContainOpen uint8 = 2
)

// Engraving types.
const (
	EngraveRandom int8 = Random
	EngraveDust   int8 = 1
	Engrave       int8 = 2
	EngraveBurn   int8 = 3
	EngraveMark   int8 = 4
	EngraveBlood  int8 = 5
)

// Room types.
const (
	RoomOrdinary   uint8 = 0
	RoomThrone     uint8 = 2
	RoomSwamp      uint8 = 3
	RoomVault      uint8 = 4
	RoomBeehive    uint8 = 5
	RoomMorgue     uint8 = 6
	RoomBarracks   uint8 = 7
	RoomZoo        uint8 = 8
	RoomDelphi     uint8 = 9
	RoomTemple     uint8 = 10
	RoomLeprechaun uint8 = 11
	RoomCockatrice uint8 = 12
	RoomAnthole    uint8 = 13
	RoomShop       uint8 = 14
)

// Level region types.
const (
	RegionTele      uint8 = 0
	RegionTeleUp    uint8 = 1
	RegionTeleDown  uint8 = 2
	RegionPortal    uint8 = 3
	RegionBranch    uint8 = 4
	RegionStairUp   uint8 = 5
	RegionStairDown uint8 = 6
)

// Terrain statement shapes.
const (
	ShapePoint    uint8 = 0
	ShapeHLine    uint8 = 1
	ShapeVLine    uint8 = 2
	ShapeRect     uint8 = 3
	ShapeFillRect uint8 = 4
)

// Dig restriction kinds.
const (
	NonDiggable uint8 = 0
	NonPasswall uint8 = 1
)

// Jump conditions. A jump is taken relative to the opcode following it.
const (
	JumpAlways  uint8 = 0
	JumpIfTrue  uint8 = 1
	JumpIfFalse uint8 = 2
)

// Message is a line shown to the player on arrival.
type Message struct{ Text string }

// RandomObjects lists object class symbols the loader draws from.
type RandomObjects struct{ Classes string }

// RandomMonsters lists monster class symbols the loader draws from.
type RandomMonsters struct{ Classes string }

// RandomPlaces holds candidate positions packed as x,y byte pairs.
type RandomPlaces struct{ Places string }

// Grid is a width×height block of terrain codes.
type Grid struct {
	Width, Height int
	Rows          [][]terrain.Type
}

// Map places a scanned grid on the level.
type Map struct {
	HAlign, VAlign int8
	Grid           *Grid
}

// MonsterSpec is the fixed part of a monster placement.
type MonsterSpec struct {
	Class      byte
	ID         int16
	Pos        Coord
	Align      int8
	Peaceful   int8
	Asleep     int8
	Invisible  int8
	AppearKind uint8
	Chance     uint8
}

// Monster places a monster, optionally named and disguised.
type Monster struct {
	MonsterSpec
	Name   string
	Appear string
}

// ObjectSpec is the fixed part of an object placement.
type ObjectSpec struct {
	Class       byte
	ID          int16
	Pos         Coord
	Corpse      int16
	Spe         int8
	Curse       int8
	Quantity    int16
	Flags       uint16
	Containment uint8
	Chance      uint8
}

// Object places an object, optionally named.
type Object struct {
	ObjectSpec
	Name string
}

// EngravingSpec is the fixed part of an engraving.
type EngravingSpec struct {
	Pos  Coord
	Type int8
}

// Engraving writes Text on the floor.
type Engraving struct {
	EngravingSpec
	Text string
}

// RoomSpec is the geometry shared by rooms and subrooms.
type RoomSpec struct {
	Type   uint8
	Lit    int8
	Chance uint8
	Pos    Coord
	Align  Coord
	Size   Coord
	Filled bool
	Joined bool
}

// Room opens a room; contents until the matching end-room belong to it.
type Room struct {
	RoomSpec
	Name string
}

// Subroom opens a room placed inside the room named Parent.
type Subroom struct {
	RoomSpec
	Name   string
	Parent string
}

// LevelRegionSpec is the fixed part of a level region.
type LevelRegionSpec struct {
	In       Area
	InLevel  bool
	Del      Area
	DelLevel bool
	Type     uint8
	Up       bool
}

// LevelRegion marks an arrival or teleport region. Name is the destination
// level of a portal.
type LevelRegion struct {
	LevelRegionSpec
	Name string
}

// RoomDoor adds a door to the wall of the current room.
type RoomDoor struct {
	Secret int8
	State  int8
	Wall   int8
	Pos    int8
}

// Door sets the door state at Pos.
type Door struct {
	Pos   Coord
	State int8
}

// Stair places a staircase.
type Stair struct {
	Pos Coord
	Up  bool
}

// Ladder places a ladder.
type Ladder struct {
	Pos Coord
	Up  bool
}

// Altar places an altar.
type Altar struct {
	Pos    Coord
	Align  int8
	Shrine int8
}

// Fountain places a fountain.
type Fountain struct{ Pos Coord }

// Sink places a sink.
type Sink struct{ Pos Coord }

// Pool places a pool.
type Pool struct{ Pos Coord }

// Trap places a trap. Type is a catalog index or Random.
type Trap struct {
	Pos    Coord
	Type   int8
	Chance uint8
}

// Gold places a pile of gold. Amount may be Random.
type Gold struct {
	Pos    Coord
	Amount int32
}

// CorridorEnd is one end of a corridor: a room index, a wall and a door
// index on that wall.
type CorridorEnd struct {
	Room int8
	Wall int8
	Door int8
}

// Corridor joins two rooms.
type Corridor struct {
	Src, Dst CorridorEnd
}

// ReplaceTerrain swaps From for To inside Area with the given chance.
type ReplaceTerrain struct {
	Area   Area
	From   terrain.Type
	To     terrain.Type
	Lit    int8
	Chance uint8
}

// RandomLine draws a jagged line of terrain.
type RandomLine struct {
	From, To  Coord
	Terrain   terrain.Type
	Lit       int8
	Roughness uint8
}

// Terrain paints terrain in one of the Shape* forms. Points and lines use
// the leading corner of Area.
type Terrain struct {
	Shape   uint8
	Area    Area
	Terrain terrain.Type
	Lit     int8
}

// Spill spreads terrain from Pos in Dir.
type Spill struct {
	Pos     Coord
	Terrain terrain.Type
	Dir     int8
	Count   uint8
	Lit     int8
}

// Drawbridge places a drawbridge.
type Drawbridge struct {
	Pos   Coord
	Dir   int8
	State int8
}

// MazeWalk carves a maze starting at Pos.
type MazeWalk struct {
	Pos     Coord
	Dir     int8
	Stocked bool
}

// DigRestriction forbids digging or phasing through walls in Area.
type DigRestriction struct {
	Area Area
	Type uint8
}

// Region lights or types an area.
type Region struct {
	Area      Area
	Lit       int8
	Type      uint8
	Prefilled bool
	Irregular bool
}

// Compare sets the loader's condition flag with probability Percent.
type Compare struct {
	Percent uint8
}

// Jump skips Offset opcodes (negative to go back) when Cond holds.
type Jump struct {
	Cond   uint8
	Offset int32
}

func (*Message) Kind() Kind        { return KindMessage }
func (*RandomObjects) Kind() Kind  { return KindRandomObjects }
func (*RandomMonsters) Kind() Kind { return KindRandomMonsters }
func (*RandomPlaces) Kind() Kind   { return KindRandomPlaces }
func (*Map) Kind() Kind            { return KindMap }
func (*Monster) Kind() Kind        { return KindMonster }
func (*Object) Kind() Kind         { return KindObject }
func (*Engraving) Kind() Kind      { return KindEngraving }
func (*Room) Kind() Kind           { return KindRoom }
func (*Subroom) Kind() Kind        { return KindSubroom }
func (*LevelRegion) Kind() Kind    { return KindLevelRegion }
func (*RoomDoor) Kind() Kind       { return KindRoomDoor }
func (*Door) Kind() Kind           { return KindDoor }
func (*Stair) Kind() Kind          { return KindStair }
func (*Ladder) Kind() Kind         { return KindLadder }
func (*Altar) Kind() Kind          { return KindAltar }
func (*Fountain) Kind() Kind       { return KindFountain }
func (*Sink) Kind() Kind           { return KindSink }
func (*Pool) Kind() Kind           { return KindPool }
func (*Trap) Kind() Kind           { return KindTrap }
func (*Gold) Kind() Kind           { return KindGold }
func (*Corridor) Kind() Kind       { return KindCorridor }
func (*ReplaceTerrain) Kind() Kind { return KindReplaceTerrain }
func (*RandomLine) Kind() Kind     { return KindRandomLine }
func (*Terrain) Kind() Kind        { return KindTerrain }
func (*Spill) Kind() Kind          { return KindSpill }
func (*Drawbridge) Kind() Kind     { return KindDrawbridge }
func (*MazeWalk) Kind() Kind       { return KindMazeWalk }
func (*DigRestriction) Kind() Kind { return KindDigRestriction }
func (*Region) Kind() Kind         { return KindRegion }
func (*Compare) Kind() Kind        { return KindCompare }
func (*Jump) Kind() Kind           { return KindJump }

func (*Message) payload()        {}
func (*RandomObjects) payload()  {}
func (*RandomMonsters) payload() {}
func (*RandomPlaces) payload()   {}
func (*Map) payload()            {}
func (*Monster) payload()        {}
func (*Object) payload()         {}
func (*Engraving) payload()      {}
func (*Room) payload()           {}
func (*Subroom) payload()        {}
func (*LevelRegion) payload()    {}
func (*RoomDoor) payload()       {}
func (*Door) payload()           {}
func (*Stair) payload()          {}
func (*Ladder) payload()         {}
func (*Altar) payload()          {}
func (*Fountain) payload()       {}
func (*Sink) payload()           {}
func (*Pool) payload()           {}
func (*Trap) payload()           {}
func (*Gold) payload()           {}
func (*Corridor) payload()       {}
func (*ReplaceTerrain) payload() {}
func (*RandomLine) payload()     {}
func (*Terrain) payload()        {}
func (*Spill) payload()          {}
func (*Drawbridge) payload()     {}
func (*MazeWalk) payload()       {}
func (*DigRestriction) payload() {}
func (*Region) payload()         {}
func (*Compare) payload()        {}
func (*Jump) payload()           {}

// NewPayload returns a zero payload of kind k, or nil for kinds without a
// payload.
//
// Precondition: k.Valid().
func NewPayload(k Kind) Payload {
	switch k {
	case KindMessage:
		return &Message{}
	case KindRandomObjects:
		return &RandomObjects{}
	case KindRandomMonsters:
		return &RandomMonsters{}
	case KindRandomPlaces:
		return &RandomPlaces{}
	case KindMap:
		return &Map{}
	case KindMonster:
		return &Monster{}
	case KindObject:
		return &Object{}
	case KindEngraving:
		return &Engraving{}
	case KindRoom:
		return &Room{}
	case KindSubroom:
		return &Subroom{}
	case KindLevelRegion:
		return &LevelRegion{}
	case KindRoomDoor:
		return &RoomDoor{}
	case KindDoor:
		return &Door{}
	case KindStair:
		return &Stair{}
	case KindLadder:
		return &Ladder{}
	case KindAltar:
		return &Altar{}
	case KindFountain:
		return &Fountain{}
	case KindSink:
		return &Sink{}
	case KindPool:
		return &Pool{}
	case KindTrap:
		return &Trap{}
	case KindGold:
		return &Gold{}
	case KindCorridor:
		return &Corridor{}
	case KindReplaceTerrain:
		return &ReplaceTerrain{}
	case KindRandomLine:
		return &RandomLine{}
	case KindTerrain:
		return &Terrain{}
	case KindSpill:
		return &Spill{}
	case KindDrawbridge:
		return &Drawbridge{}
	case KindMazeWalk:
		return &MazeWalk{}
	case KindDigRestriction:
		return &DigRestriction{}
	case KindRegion:
		return &Region{}
	case KindCompare:
		return &Compare{}
	case KindJump:
		return &Jump{}
	default:
		return nil
	}
}
