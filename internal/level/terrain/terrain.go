// Package terrain defines the closed set of level terrain codes and the
// character table used by level maps and terrain statements.
package terrain

import "fmt"

// Type is a terrain code as stored in a compiled level.
type Type uint8

// Terrain codes. The numeric values are part of the compiled level format and
// must stay in sync with the level loader.
const (
	Stone          Type = 0
	VWall          Type = 1
	HWall          Type = 2
	TLCorner       Type = 3
	TRCorner       Type = 4
	BLCorner       Type = 5
	BRCorner       Type = 6
	CrossWall      Type = 7
	TUWall         Type = 8
	TDWall         Type = 9
	TLWall         Type = 10
	TRWall         Type = 11
	DBWall         Type = 12
	Tree           Type = 13
	SDoor          Type = 14
	SCorr          Type = 15
	Pool           Type = 16
	Moat           Type = 17
	Water          Type = 18
	DrawbridgeUp   Type = 19
	Lava           Type = 20
	IronBars       Type = 21
	Door           Type = 22
	Corr           Type = 23
	Room           Type = 24
	Stairs         Type = 25
	Ladder         Type = 26
	Fountain       Type = 27
	Throne         Type = 28
	Sink           Type = 29
	Grave          Type = 30
	Altar          Type = 31
	Ice            Type = 32
	DrawbridgeDown Type = 33
	Air            Type = 34
	Cloud          Type = 35

	// Transparent marks a map cell the loader leaves untouched.
	Transparent Type = 36

	// Invalid is returned by FromChar for characters outside the table.
	// It never appears in a compiled level.
	Invalid Type = 127
)

// Default is the code substituted for padding and unrecognized characters.
const Default = Stone

var byChar = map[byte]Type{
	' ':  Stone,
	'#':  Corr,
	'.':  Room,
	'-':  HWall,
	'|':  VWall,
	'+':  Door,
	'A':  Air,
	'B':  CrossWall,
	'C':  Cloud,
	'S':  SDoor,
	'H':  SCorr,
	'{':  Fountain,
	'\\': Throne,
	'K':  Sink,
	'}':  Moat,
	'P':  Pool,
	'L':  Lava,
	'I':  Ice,
	'W':  Water,
	'T':  Tree,
	'F':  IronBars,
	'x':  Transparent,
}

var names = [...]string{
	Stone:          "stone",
	VWall:          "vwall",
	HWall:          "hwall",
	TLCorner:       "tlcorner",
	TRCorner:       "trcorner",
	BLCorner:       "blcorner",
	BRCorner:       "brcorner",
	CrossWall:      "crosswall",
	TUWall:         "tuwall",
	TDWall:         "tdwall",
	TLWall:         "tlwall",
	TRWall:         "trwall",
	DBWall:         "dbwall",
	Tree:           "tree",
	SDoor:          "sdoor",
	SCorr:          "scorr",
	Pool:           "pool",
	Moat:           "moat",
	Water:          "water",
	DrawbridgeUp:   "drawbridge_up",
	Lava:           "lava",
	IronBars:       "iron_bars",
	Door:           "door",
	Corr:           "corridor",
	Room:           "room",
	Stairs:         "stairs",
	Ladder:         "ladder",
	Fountain:       "fountain",
	Throne:         "throne",
	Sink:           "sink",
	Grave:          "grave",
	Altar:          "altar",
	Ice:            "ice",
	DrawbridgeDown: "drawbridge_down",
	Air:            "air",
	Cloud:          "cloud",
	Transparent:    "transparent",
}

// FromChar maps a map character to its terrain code.
//
// Postcondition: returns Invalid when c is not in the table.
func FromChar(c byte) Type {
	if t, ok := byChar[c]; ok {
		return t
	}
	return Invalid
}

// Parse resolves either a single map character (".") or a terrain name
// ("room") to its code.
func Parse(s string) (Type, error) {
	if len(s) == 1 {
		if t := FromChar(s[0]); t != Invalid {
			return t, nil
		}
	}
	for i, n := range names {
		if n == s {
			return Type(i), nil
		}
	}
	return Invalid, fmt.Errorf("unknown terrain %q", s)
}

// Valid reports whether t is a code the loader understands.
func (t Type) Valid() bool {
	return t <= Transparent
}

// Char returns the map character for t, or 0 when t has no character form
// (corner and T-wall codes are produced by wallification, not by maps).
func (t Type) Char() byte {
	for c, v := range byChar {
		if v == t {
			return c
		}
	}
	return 0
}

// String returns the terrain name.
func (t Type) String() string {
	if t.Valid() {
		return names[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}
