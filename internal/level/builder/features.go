package builder

import (
	"github.com/cory-johannsen/levcomp/internal/level/ir"
	"github.com/cory-johannsen/levcomp/internal/level/terrain"
)

func (b *Builder) checkTerrain(t terrain.Type) (ok bool, err error) {
	if !t.Valid() {
		return false, b.errorf("invalid terrain %s", t)
	}
	return true, nil
}

// AddDoor sets a door state at a map position.
func (b *Builder) AddDoor(d *ir.Door) error {
	b.checkCoord(d.Pos)
	return b.append(ir.KindDoor, d)
}

// AddStair places a staircase.
func (b *Builder) AddStair(s *ir.Stair) error {
	b.checkCoord(s.Pos)
	return b.append(ir.KindStair, s)
}

// AddLadder places a ladder.
func (b *Builder) AddLadder(l *ir.Ladder) error {
	b.checkCoord(l.Pos)
	return b.append(ir.KindLadder, l)
}

// AddAltar places an altar.
func (b *Builder) AddAltar(a *ir.Altar) error {
	b.checkCoord(a.Pos)
	return b.append(ir.KindAltar, a)
}

// AddFountain places a fountain.
func (b *Builder) AddFountain(f *ir.Fountain) error {
	b.checkCoord(f.Pos)
	return b.append(ir.KindFountain, f)
}

// AddSink places a sink.
func (b *Builder) AddSink(s *ir.Sink) error {
	b.checkCoord(s.Pos)
	return b.append(ir.KindSink, s)
}

// AddPool places a pool.
func (b *Builder) AddPool(p *ir.Pool) error {
	b.checkCoord(p.Pos)
	return b.append(ir.KindPool, p)
}

// AddTrap places a trap.
func (b *Builder) AddTrap(t *ir.Trap) error {
	if ok, err := b.checkChance(t.Chance); !ok {
		return err
	}
	b.checkCoord(t.Pos)
	return b.append(ir.KindTrap, t)
}

// AddGold places gold.
func (b *Builder) AddGold(g *ir.Gold) error {
	if g.Amount < ir.Random {
		return b.errorf("negative gold amount %d", g.Amount)
	}
	b.checkCoord(g.Pos)
	return b.append(ir.KindGold, g)
}

// AddCorridor joins two rooms.
func (b *Builder) AddCorridor(c *ir.Corridor) error {
	if c.Src.Room == c.Dst.Room && c.Src.Room != ir.Random {
		b.warnf("corridor joins room %d to itself", c.Src.Room)
	}
	return b.append(ir.KindCorridor, c)
}

// ReplaceTerrain swaps one terrain for another inside an area.
func (b *Builder) ReplaceTerrain(r *ir.ReplaceTerrain) error {
	if ok, err := b.checkTerrain(r.From); !ok {
		return err
	}
	if ok, err := b.checkTerrain(r.To); !ok {
		return err
	}
	if ok, err := b.checkChance(r.Chance); !ok {
		return err
	}
	b.checkArea(r.Area)
	return b.append(ir.KindReplaceTerrain, r)
}

// AddRandomLine draws a jagged line of terrain.
func (b *Builder) AddRandomLine(r *ir.RandomLine) error {
	if ok, err := b.checkTerrain(r.Terrain); !ok {
		return err
	}
	if r.Roughness > 100 {
		return b.errorf("line roughness %d is out of range", r.Roughness)
	}
	b.checkCoord(r.From)
	b.checkCoord(r.To)
	return b.append(ir.KindRandomLine, r)
}

// AddTerrain paints terrain.
func (b *Builder) AddTerrain(t *ir.Terrain) error {
	if ok, err := b.checkTerrain(t.Terrain); !ok {
		return err
	}
	if t.Shape > ir.ShapeFillRect {
		return b.errorf("unknown terrain shape %d", t.Shape)
	}
	b.checkArea(t.Area)
	return b.append(ir.KindTerrain, t)
}

// AddSpill spreads terrain from a point.
func (b *Builder) AddSpill(s *ir.Spill) error {
	if ok, err := b.checkTerrain(s.Terrain); !ok {
		return err
	}
	b.checkCoord(s.Pos)
	return b.append(ir.KindSpill, s)
}

// AddDrawbridge places a drawbridge.
func (b *Builder) AddDrawbridge(d *ir.Drawbridge) error {
	if d.Dir == ir.WallRandom {
		return b.errorf("drawbridge needs a direction")
	}
	b.checkCoord(d.Pos)
	return b.append(ir.KindDrawbridge, d)
}

// AddMazeWalk carves a maze from a point.
func (b *Builder) AddMazeWalk(m *ir.MazeWalk) error {
	b.checkCoord(m.Pos)
	return b.append(ir.KindMazeWalk, m)
}

// AddDigRestriction forbids digging or phasing in an area.
func (b *Builder) AddDigRestriction(d *ir.DigRestriction) error {
	b.checkArea(d.Area)
	return b.append(ir.KindDigRestriction, d)
}

// AddRegion lights or types an area.
func (b *Builder) AddRegion(r *ir.Region) error {
	if r.Area.X1 > r.Area.X2 || r.Area.Y1 > r.Area.Y2 {
		b.warnf("region (%d,%d,%d,%d) is inverted", r.Area.X1, r.Area.Y1, r.Area.X2, r.Area.Y2)
	}
	b.checkArea(r.Area)
	return b.append(ir.KindRegion, r)
}

// Wallify turns stone next to floor into proper walls.
func (b *Builder) Wallify() error {
	return b.append(ir.KindWallify, nil)
}

// Null appends a no-op.
func (b *Builder) Null() error {
	return b.append(ir.KindNull, nil)
}

// Exit ends the level program.
func (b *Builder) Exit() error {
	return b.append(ir.KindExit, nil)
}
