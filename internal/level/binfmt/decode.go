package binfmt

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cory-johannsen/levcomp/internal/level/ir"
	"github.com/cory-johannsen/levcomp/internal/level/terrain"
)

// ErrBadMagic is returned by Decode for input that is not a compiled level.
var ErrBadMagic = errors.New("not a compiled level")

type decoder struct {
	r   *bufio.Reader
	n   int64
	err error
}

func (d *decoder) record(v any) {
	if d.err != nil {
		return
	}
	if err := binary.Read(d.r, binary.LittleEndian, v); err != nil {
		d.err = fmt.Errorf("reading at offset %d: %w", d.n, err)
		return
	}
	d.n += int64(binary.Size(v))
}

func (d *decoder) str(n uint32) string {
	if d.err != nil || n == 0 {
		return ""
	}
	if n > maxNamedString {
		d.err = fmt.Errorf("string of %d bytes at offset %d exceeds limit", n, d.n)
		return ""
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		d.err = fmt.Errorf("reading string at offset %d: %w", d.n, err)
		return ""
	}
	d.n += int64(n)
	return string(buf)
}

func (d *decoder) tail() string {
	var n uint8
	d.record(&n)
	return d.str(uint32(n))
}

// Decode reads one compiled level.
//
// Postcondition: Returns the level with Ops in file order (Line is zero), or
// an error; ErrBadMagic (wrapped) when the header does not match.
func Decode(r io.Reader) (*Level, error) {
	d := &decoder{r: bufio.NewReader(r)}
	lvl := &Level{}
	d.record(&lvl.Header)
	if d.err != nil {
		return nil, d.err
	}
	if lvl.Header.Magic != Magic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadMagic, lvl.Header.Magic[:])
	}
	if lvl.Header.Major != VersionMajor {
		return nil, fmt.Errorf("unsupported format version %d.%d", lvl.Header.Major, lvl.Header.Minor)
	}
	d.record(&lvl.Init)

	for i := uint32(0); i < lvl.Init.Count && d.err == nil; i++ {
		op := d.opcode()
		if d.err != nil {
			return nil, fmt.Errorf("opcode %d: %w", i, d.err)
		}
		lvl.Ops = append(lvl.Ops, op)
	}
	if d.err != nil {
		return nil, d.err
	}
	if _, err := d.r.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after %d opcodes at offset %d", lvl.Init.Count, d.n)
	}
	return lvl, nil
}

func (d *decoder) opcode() ir.Opcode {
	var tag uint8
	d.record(&tag)
	kind := ir.Kind(tag)
	if d.err != nil {
		return ir.Opcode{}
	}
	if !kind.Valid() {
		d.err = fmt.Errorf("%w: %d", ir.ErrUnknownKind, tag)
		return ir.Opcode{}
	}

	pl := ir.NewPayload(kind)
	switch pl := pl.(type) {
	case nil:
	case *ir.Message:
		pl.Text = d.tail()
	case *ir.RandomObjects:
		pl.Classes = d.tail()
	case *ir.RandomMonsters:
		pl.Classes = d.tail()
	case *ir.RandomPlaces:
		pl.Places = d.tail()
	case *ir.Map:
		d.grid(pl)
	case *ir.Monster:
		var rec monsterRecord
		d.record(&rec)
		pl.MonsterSpec = rec.MonsterSpec
		pl.Name = d.str(rec.NameLen)
		pl.Appear = d.str(rec.AppearLen)
	case *ir.Object:
		var rec objectRecord
		d.record(&rec)
		pl.ObjectSpec = rec.ObjectSpec
		pl.Name = d.str(rec.NameLen)
	case *ir.Engraving:
		var rec engravingRecord
		d.record(&rec)
		pl.EngravingSpec = rec.EngravingSpec
		pl.Text = d.str(rec.TextLen)
	case *ir.Room:
		var rec roomRecord
		d.record(&rec)
		pl.RoomSpec = rec.RoomSpec
		pl.Name = d.str(rec.NameLen)
	case *ir.Subroom:
		var rec subroomRecord
		d.record(&rec)
		pl.RoomSpec = rec.RoomSpec
		pl.Name = d.str(rec.NameLen)
		pl.Parent = d.str(rec.ParentLen)
	case *ir.LevelRegion:
		var rec levelRegionRecord
		d.record(&rec)
		pl.LevelRegionSpec = rec.LevelRegionSpec
		pl.Name = d.str(rec.NameLen)
	default:
		d.record(pl)
	}
	if pl == nil {
		return ir.Opcode{Kind: kind}
	}
	return ir.Opcode{Kind: kind, Payload: pl}
}

func (d *decoder) grid(m *ir.Map) {
	var rec mapRecord
	d.record(&rec)
	m.HAlign, m.VAlign = rec.HAlign, rec.VAlign
	g := &ir.Grid{Width: int(rec.XSize), Height: int(rec.YSize)}
	if rec.XSize > 1 && rec.YSize > 1 {
		g.Rows = make([][]terrain.Type, rec.YSize)
		for y := range g.Rows {
			g.Rows[y] = make([]terrain.Type, rec.XSize)
			d.record(g.Rows[y])
		}
	}
	m.Grid = g
}
