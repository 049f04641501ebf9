// Package binfmt reads and writes compiled level files.
//
// A compiled level is little-endian and laid out as
//
//	[header] [level init] [opcode]*
//
// where every opcode is a one-byte kind followed by a kind-specific payload:
//
//	fixed kinds     the payload record, fields in declaration order
//	string kinds    [len:1] [bytes:len]
//	named kinds     the fixed record with each string replaced by its
//	                uint32 length, then the string bytes in the same order
//	map             [halign:1] [valign:1] [xsize:1] [ysize:1], then
//	                ysize rows of xsize terrain codes when both sizes exceed 1
//	no-payload      nothing
//
// Strings are not terminated.
package binfmt

import "github.com/cory-johannsen/levcomp/internal/level/ir"

// Magic identifies a compiled level file.
var Magic = [4]byte{'S', 'P', 'L', 'V'}

// Format version written by Encode.
const (
	VersionMajor uint8 = 1
	VersionMinor uint8 = 0
	VersionPatch uint8 = 0
)

// Feature bits advertised in the header.
const (
	FeatureNamedStrings uint32 = 1 << iota
	FeatureControlFlow
	FeatureContainers
)

// Features is the feature set of files written by this package.
const Features = FeatureNamedStrings | FeatureControlFlow | FeatureContainers

// MaxTailString is the longest string a string-tail opcode can carry.
const MaxTailString = 255

// maxNamedString bounds named-entity strings accepted by Decode.
const maxNamedString = 1 << 16

// Header is the version record at the start of every file.
type Header struct {
	Magic    [4]byte
	Major    uint8
	Minor    uint8
	Patch    uint8
	Features uint32
}

// CurrentHeader returns the header Encode writes.
func CurrentHeader() Header {
	return Header{
		Magic:    Magic,
		Major:    VersionMajor,
		Minor:    VersionMinor,
		Patch:    VersionPatch,
		Features: Features,
	}
}

// Level is a decoded compiled level.
type Level struct {
	Header Header
	Init   ir.LevelInit
	Ops    []ir.Opcode
}

type mapRecord struct {
	HAlign, VAlign int8
	XSize, YSize   uint8
}

type monsterRecord struct {
	ir.MonsterSpec
	NameLen   uint32
	AppearLen uint32
}

type objectRecord struct {
	ir.ObjectSpec
	NameLen uint32
}

type engravingRecord struct {
	ir.EngravingSpec
	TextLen uint32
}

type roomRecord struct {
	ir.RoomSpec
	NameLen uint32
}

type subroomRecord struct {
	ir.RoomSpec
	NameLen   uint32
	ParentLen uint32
}

type levelRegionRecord struct {
	ir.LevelRegionSpec
	NameLen uint32
}
