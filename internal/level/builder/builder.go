// Package builder is the IR builder the front ends drive: one entry point per
// opcode kind, each checking what it can locally, reporting through the
// compile context and appending to the level's opcode table.
//
// Every entry point returns a non-nil error only when the run must stop
// (diag.ErrTooManyErrors). Problems that fail just the current file are
// reported on the context and compilation continues.
package builder

import (
	"errors"

	"github.com/cory-johannsen/levcomp/internal/diag"
	"github.com/cory-johannsen/levcomp/internal/level/ir"
	"github.com/cory-johannsen/levcomp/internal/level/mapscan"
)

// MaxRandomPlaces bounds the candidates of one random-places opcode.
const MaxRandomPlaces = 127

// Builder appends opcodes for one level at a time.
type Builder struct {
	ctx  *diag.Context
	prog *ir.Program

	hasMap     bool
	rooms      int
	containers int
	branches   []*Branch
}

// New returns a Builder appending to prog.
//
// Precondition: ctx and prog must be non-nil; prog should be empty.
func New(ctx *diag.Context, prog *ir.Program) *Builder {
	return &Builder{ctx: ctx, prog: prog}
}

// Context returns the compile context diagnostics are reported on.
func (b *Builder) Context() *diag.Context { return b.ctx }

// Program returns the opcode table being built.
func (b *Builder) Program() *ir.Program { return b.prog }

// Last returns the payload of the most recent opcode of one of kinds.
func (b *Builder) Last(kinds ...ir.Kind) ir.Payload { return b.prog.Last(kinds...) }

func (b *Builder) errorf(format string, args ...any) error {
	return b.ctx.Errorf(diag.AtDeclaration, format, args...)
}

func (b *Builder) warnf(format string, args ...any) {
	b.ctx.Warnf(diag.AtDeclaration, format, args...)
}

func (b *Builder) append(kind ir.Kind, payload ir.Payload) error {
	if err := b.prog.Append(kind, payload, b.ctx.Line(diag.AtDeclaration)); err != nil {
		return b.errorf("%v", err)
	}
	return nil
}

func (b *Builder) checkCoord(c ir.Coord) {
	if !b.hasMap {
		return
	}
	init := b.prog.Init
	if c.X != ir.Random && (c.X < 0 || int(c.X) > int(init.MaxX)) ||
		c.Y != ir.Random && (c.Y < 0 || int(c.Y) > int(init.MaxY)) {
		b.warnf("coordinate (%d,%d) is outside the map", c.X, c.Y)
	}
}

func (b *Builder) checkArea(a ir.Area) {
	b.checkCoord(ir.Coord{X: a.X1, Y: a.Y1})
	b.checkCoord(ir.Coord{X: a.X2, Y: a.Y2})
}

// The check helpers report ok == false when the entry must not be appended.
// err is non-nil only on run abort.

func (b *Builder) checkChance(chance uint8) (ok bool, err error) {
	if chance > 100 {
		return false, b.errorf("chance %d%% is out of range", chance)
	}
	return true, nil
}

// SetFlags ORs level flags into the program header.
func (b *Builder) SetFlags(flags uint32) {
	b.prog.Init.Flags |= flags
}

// InitLevel sets the level's initial fill.
func (b *Builder) InitLevel(style, fill uint8, lit int8, joined bool) {
	init := &b.prog.Init
	init.Style, init.Fill, init.Lit, init.Joined = style, fill, lit, joined
}

// BeginMap scans text into a grid, records the map bounds in the header and
// appends a map opcode.
func (b *Builder) BeginMap(text string, halign, valign int8) error {
	g, err := mapscan.Scan(b.ctx, text)
	if err != nil {
		var dimErr *mapscan.DimensionError
		if errors.As(err, &dimErr) {
			return b.errorf("%v", dimErr)
		}
		return b.errorf("scanning map: %v", err)
	}
	b.prog.Init.MaxX = uint8(max(g.Width-1, 0))
	b.prog.Init.MaxY = uint8(max(g.Height-1, 0))
	b.hasMap = true
	return b.append(ir.KindMap, &ir.Map{HAlign: halign, VAlign: valign, Grid: g})
}

// Finish reports constructs left open at the end of a level.
func (b *Builder) Finish() error {
	if b.rooms > 0 {
		if err := b.errorf("%d room(s) not closed at end of level", b.rooms); err != nil {
			return err
		}
	}
	if b.containers > 0 {
		if err := b.errorf("%d container(s) not closed at end of level", b.containers); err != nil {
			return err
		}
	}
	if len(b.branches) > 0 {
		if err := b.errorf("%d conditional(s) not closed at end of level", len(b.branches)); err != nil {
			return err
		}
	}
	return nil
}
