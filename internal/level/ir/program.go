package ir

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned by Append for kinds outside the enumeration.
var ErrUnknownKind = errors.New("unknown opcode kind")

// Level flag bits carried in LevelInit.Flags.
const (
	FlagNoTeleport uint32 = 1 << iota
	FlagHardFloor
	FlagNoMap
	FlagShortSighted
	FlagArboreal
	FlagMazeLevel
	FlagPremapped
	FlagSolidify
)

// Level init styles.
const (
	InitNone  uint8 = 0
	InitSolid uint8 = 1
	InitMines uint8 = 2
	InitMaze  uint8 = 3
)

// LevelInit is the per-level header record written before the opcodes.
type LevelInit struct {
	Flags  uint32
	Style  uint8
	Fill   uint8
	Lit    int8
	Joined bool
	MaxX   uint8
	MaxY   uint8
	Count  uint32
}

// Opcode is one tagged instruction. Payload is nil for ClassNone kinds.
type Opcode struct {
	Kind    Kind
	Payload Payload
	// Line is the source line the opcode was appended at.
	Line int
}

// Program is the opcode table for one level.
//
// A Program grows by Append only. The encoder takes its opcodes exactly once
// with Take and then calls Reset, after which the value can be reused for
// the next level.
type Program struct {
	Init LevelInit
	ops  []Opcode
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{ops: make([]Opcode, 0, 64)}
}

// Append adds one opcode to the end of the table.
//
// Precondition: payload is nil for ClassNone kinds and non-nil with a
// matching Kind() otherwise.
// Postcondition: returns ErrUnknownKind (wrapped) when kind is outside the
// enumeration, an error on a payload mismatch, or nil with the table one
// entry longer.
func (p *Program) Append(kind Kind, payload Payload, line int) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKind, uint8(kind))
	}
	switch {
	case kind.Class() == ClassNone && payload != nil:
		return fmt.Errorf("opcode %s takes no payload, got %T", kind, payload)
	case kind.Class() != ClassNone && payload == nil:
		return fmt.Errorf("opcode %s requires a payload", kind)
	case payload != nil && payload.Kind() != kind:
		return fmt.Errorf("opcode %s given %s payload", kind, payload.Kind())
	}
	p.ops = append(p.ops, Opcode{Kind: kind, Payload: payload, Line: line})
	return nil
}

// Len returns the number of opcodes in the table.
func (p *Program) Len() int {
	return len(p.ops)
}

// At returns the i'th opcode.
//
// Precondition: 0 <= i < Len().
func (p *Program) At(i int) Opcode {
	return p.ops[i]
}

// Last returns the payload of the most recently appended opcode whose kind
// is one of kinds, or nil when there is none.
func (p *Program) Last(kinds ...Kind) Payload {
	for i := len(p.ops) - 1; i >= 0; i-- {
		for _, k := range kinds {
			if p.ops[i].Kind == k {
				return p.ops[i].Payload
			}
		}
	}
	return nil
}

// Each calls fn for every opcode in table order.
func (p *Program) Each(fn func(i int, op Opcode)) {
	for i, op := range p.ops {
		fn(i, op)
	}
}

// Take hands the opcodes to the caller and leaves the table empty. The
// header is left intact until Reset.
func (p *Program) Take() []Opcode {
	ops := p.ops
	p.ops = nil
	return ops
}

// Reset empties the table and zeroes the header.
func (p *Program) Reset() {
	clear(p.ops)
	p.ops = p.ops[:0]
	p.Init = LevelInit{}
}
