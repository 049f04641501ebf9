// Package ir defines the level compiler's intermediate representation: a
// linear, append-only table of tagged opcodes with kind-specific payloads.
package ir

import "fmt"

// Kind identifies an opcode. Values are written as the one-byte tag of each
// opcode in a compiled level.
type Kind uint8

const (
	KindNull Kind = iota
	KindExit
	KindPopContainer
	KindWallify
	KindEndRoom

	KindMessage
	KindRandomObjects
	KindRandomMonsters
	KindRandomPlaces

	KindMap

	KindMonster
	KindObject
	KindEngraving
	KindRoom
	KindSubroom
	KindLevelRegion

	KindRoomDoor
	KindDoor
	KindStair
	KindLadder
	KindAltar
	KindFountain
	KindSink
	KindPool
	KindTrap
	KindGold
	KindCorridor
	KindReplaceTerrain
	KindRandomLine
	KindTerrain
	KindSpill
	KindDrawbridge
	KindMazeWalk
	KindDigRestriction
	KindRegion
	KindCompare
	KindJump

	kindCount
)

// Class groups kinds by how their payload is encoded.
type Class uint8

const (
	// ClassNone kinds carry no payload.
	ClassNone Class = iota
	// ClassString kinds carry a short byte string.
	ClassString
	// ClassMap is the map kind.
	ClassMap
	// ClassNamed kinds carry a fixed record plus one or two strings.
	ClassNamed
	// ClassFixed kinds carry a fixed-size record.
	ClassFixed
)

var kindNames = [...]string{
	KindNull:           "null",
	KindExit:           "exit",
	KindPopContainer:   "pop_container",
	KindWallify:        "wallify",
	KindEndRoom:        "end_room",
	KindMessage:        "message",
	KindRandomObjects:  "random_objects",
	KindRandomMonsters: "random_monsters",
	KindRandomPlaces:   "random_places",
	KindMap:            "map",
	KindMonster:        "monster",
	KindObject:         "object",
	KindEngraving:      "engraving",
	KindRoom:           "room",
	KindSubroom:        "subroom",
	KindLevelRegion:    "level_region",
	KindRoomDoor:       "room_door",
	KindDoor:           "door",
	KindStair:          "stair",
	KindLadder:         "ladder",
	KindAltar:          "altar",
	KindFountain:       "fountain",
	KindSink:           "sink",
	KindPool:           "pool",
	KindTrap:           "trap",
	KindGold:           "gold",
	KindCorridor:       "corridor",
	KindReplaceTerrain: "replace_terrain",
	KindRandomLine:     "random_line",
	KindTerrain:        "terrain",
	KindSpill:          "spill",
	KindDrawbridge:     "drawbridge",
	KindMazeWalk:       "maze_walk",
	KindDigRestriction: "dig_restriction",
	KindRegion:         "region",
	KindCompare:        "compare",
	KindJump:           "jump",
}

// Kinds returns every valid kind in tag order.
func Kinds() []Kind {
	ks := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		ks = append(ks, k)
	}
	return ks
}

// Valid reports whether k belongs to the opcode enumeration.
func (k Kind) Valid() bool {
	return k < kindCount
}

// Class returns the payload encoding class of k.
//
// Precondition: k.Valid().
func (k Kind) Class() Class {
	switch {
	case k <= KindEndRoom:
		return ClassNone
	case k <= KindRandomPlaces:
		return ClassString
	case k == KindMap:
		return ClassMap
	case k <= KindLevelRegion:
		return ClassNamed
	default:
		return ClassFixed
	}
}

// String returns the kind's name.
func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind resolves a kind name.
func ParseKind(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}
