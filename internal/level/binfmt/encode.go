package binfmt

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cory-johannsen/levcomp/internal/level/ir"
)

// encoder writes records to w and remembers the first error, so callers can
// issue a run of writes and check once.
type encoder struct {
	w   io.Writer
	n   int64
	err error
}

// Write implements io.Writer, turning a short write into io.ErrShortWrite.
func (e *encoder) Write(p []byte) (int, error) {
	n, err := e.w.Write(p)
	e.n += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

func (e *encoder) record(v any) {
	if e.err != nil {
		return
	}
	if err := binary.Write(e, binary.LittleEndian, v); err != nil {
		e.err = fmt.Errorf("writing at offset %d: %w", e.n, err)
	}
}

func (e *encoder) bytes(s string) {
	if e.err != nil || s == "" {
		return
	}
	if _, err := io.WriteString(e, s); err != nil {
		e.err = fmt.Errorf("writing at offset %d: %w", e.n, err)
	}
}

func (e *encoder) tail(k ir.Kind, s string) {
	if len(s) > MaxTailString {
		if e.err != nil {
			return
		}
		e.err = fmt.Errorf("%s string is %d bytes, limit %d", k, len(s), MaxTailString)
		return
	}
	e.record(uint8(len(s)))
	e.bytes(s)
}

// Encode writes p as one compiled level and consumes it: every payload is
// released after it is written and the program is Reset afterwards, even
// when writing fails.
//
// Precondition: w and p must be non-nil.
// Postcondition: p is empty with a zero header. A non-nil error means the
// output is incomplete and must be discarded; short writes wrap
// io.ErrShortWrite.
func Encode(w io.Writer, p *ir.Program) error {
	defer p.Reset()

	e := &encoder{w: w}
	init := p.Init
	ops := p.Take()
	init.Count = uint32(len(ops))

	e.record(CurrentHeader())
	e.record(init)
	for i := range ops {
		if e.err != nil {
			break
		}
		e.opcode(ops[i])
		ops[i] = ir.Opcode{}
	}
	return e.err
}

func (e *encoder) opcode(op ir.Opcode) {
	e.record(uint8(op.Kind))
	switch pl := op.Payload.(type) {
	case nil:
	case *ir.Message:
		e.tail(op.Kind, pl.Text)
	case *ir.RandomObjects:
		e.tail(op.Kind, pl.Classes)
	case *ir.RandomMonsters:
		e.tail(op.Kind, pl.Classes)
	case *ir.RandomPlaces:
		e.tail(op.Kind, pl.Places)
	case *ir.Map:
		e.grid(pl)
	case *ir.Monster:
		e.record(monsterRecord{MonsterSpec: pl.MonsterSpec, NameLen: uint32(len(pl.Name)), AppearLen: uint32(len(pl.Appear))})
		e.bytes(pl.Name)
		e.bytes(pl.Appear)
		pl.Name, pl.Appear = "", ""
	case *ir.Object:
		e.record(objectRecord{ObjectSpec: pl.ObjectSpec, NameLen: uint32(len(pl.Name))})
		e.bytes(pl.Name)
		pl.Name = ""
	case *ir.Engraving:
		e.record(engravingRecord{EngravingSpec: pl.EngravingSpec, TextLen: uint32(len(pl.Text))})
		e.bytes(pl.Text)
		pl.Text = ""
	case *ir.Room:
		e.record(roomRecord{RoomSpec: pl.RoomSpec, NameLen: uint32(len(pl.Name))})
		e.bytes(pl.Name)
		pl.Name = ""
	case *ir.Subroom:
		e.record(subroomRecord{RoomSpec: pl.RoomSpec, NameLen: uint32(len(pl.Name)), ParentLen: uint32(len(pl.Parent))})
		e.bytes(pl.Name)
		e.bytes(pl.Parent)
		pl.Name, pl.Parent = "", ""
	case *ir.LevelRegion:
		e.record(levelRegionRecord{LevelRegionSpec: pl.LevelRegionSpec, NameLen: uint32(len(pl.Name))})
		e.bytes(pl.Name)
		pl.Name = ""
	case *ir.RoomDoor, *ir.Door, *ir.Stair, *ir.Ladder, *ir.Altar, *ir.Fountain,
		*ir.Sink, *ir.Pool, *ir.Trap, *ir.Gold, *ir.Corridor, *ir.ReplaceTerrain,
		*ir.RandomLine, *ir.Terrain, *ir.Spill, *ir.Drawbridge, *ir.MazeWalk,
		*ir.DigRestriction, *ir.Region, *ir.Compare, *ir.Jump:
		e.record(pl)
	default:
		if e.err == nil {
			e.err = fmt.Errorf("no encoding for %s payload %T", op.Kind, pl)
		}
	}
}

func (e *encoder) grid(m *ir.Map) {
	rec := mapRecord{HAlign: m.HAlign, VAlign: m.VAlign}
	g := m.Grid
	if g != nil {
		rec.XSize, rec.YSize = uint8(g.Width), uint8(g.Height)
	}
	e.record(rec)
	if g != nil && rec.XSize > 1 && rec.YSize > 1 {
		for y := range g.Rows {
			e.record(g.Rows[y])
			g.Rows[y] = nil
		}
	}
	m.Grid = nil
}
