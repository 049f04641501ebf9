package builder

import "github.com/cory-johannsen/levcomp/internal/level/ir"

func (b *Builder) checkRoom(spec *ir.RoomSpec) (ok bool, err error) {
	if ok, err := b.checkChance(spec.Chance); !ok {
		return false, err
	}
	if spec.Size.X == 0 || spec.Size.Y == 0 {
		return false, b.errorf("room size %dx%d is empty", spec.Size.X, spec.Size.Y)
	}
	if spec.Size.X < ir.Random || spec.Size.Y < ir.Random {
		return false, b.errorf("room size %dx%d is negative", spec.Size.X, spec.Size.Y)
	}
	return true, nil
}

// AddRoom opens a room. Opcodes up to the matching EndRoom belong to it.
func (b *Builder) AddRoom(r *ir.Room) error {
	if ok, err := b.checkRoom(&r.RoomSpec); !ok {
		return err
	}
	b.rooms++
	return b.append(ir.KindRoom, r)
}

// AddSubroom opens a room nested in the current one. When Parent is empty
// it defaults to the name of the most recently declared room.
func (b *Builder) AddSubroom(s *ir.Subroom) error {
	if b.rooms == 0 {
		return b.errorf("subroom '%s' declared outside of a room", s.Name)
	}
	if s.Parent == "" {
		if r, ok := b.prog.Last(ir.KindRoom).(*ir.Room); ok {
			s.Parent = r.Name
		}
	}
	if ok, err := b.checkRoom(&s.RoomSpec); !ok {
		return err
	}
	b.rooms++
	return b.append(ir.KindSubroom, s)
}

// EndRoom closes the innermost open room or subroom.
func (b *Builder) EndRoom() error {
	if b.rooms == 0 {
		return b.errorf("end of room without a matching room")
	}
	b.rooms--
	return b.append(ir.KindEndRoom, nil)
}

// AddRoomDoor adds a door to the wall of the current room.
func (b *Builder) AddRoomDoor(d *ir.RoomDoor) error {
	if b.rooms == 0 || b.prog.Last(ir.KindRoom, ir.KindSubroom) == nil {
		return b.errorf("room door declared outside of a room")
	}
	return b.append(ir.KindRoomDoor, d)
}

// AddMonster places a monster.
func (b *Builder) AddMonster(m *ir.Monster) error {
	if ok, err := b.checkChance(m.Chance); !ok {
		return err
	}
	if m.Appear != "" && m.AppearKind == ir.AppearNone {
		b.warnf("monster appearance '%s' has no appearance kind", m.Appear)
	}
	b.checkCoord(m.Pos)
	return b.append(ir.KindMonster, m)
}

// AddObject places an object. ContainIn objects go into the innermost open
// container; a ContainOpen object stays open until PopContainer.
func (b *Builder) AddObject(o *ir.Object) error {
	if ok, err := b.checkChance(o.Chance); !ok {
		return err
	}
	if o.Containment&ir.ContainIn != 0 && b.containers == 0 {
		return b.errorf("object placed in a container outside of any container")
	}
	if o.Containment&ir.ContainIn == 0 {
		b.checkCoord(o.Pos)
	}
	if o.Containment&ir.ContainOpen != 0 {
		b.containers++
	}
	return b.append(ir.KindObject, o)
}

// PopContainer closes the innermost open container.
func (b *Builder) PopContainer() error {
	if b.containers == 0 {
		return b.errorf("container closed without an open container")
	}
	b.containers--
	return b.append(ir.KindPopContainer, nil)
}

// AddEngraving writes text on the floor.
func (b *Builder) AddEngraving(e *ir.Engraving) error {
	if e.Text == "" {
		b.warnf("empty engraving")
	}
	b.checkCoord(e.Pos)
	return b.append(ir.KindEngraving, e)
}

// AddLevelRegion marks an arrival, teleport or portal region. Portals need
// a destination name.
func (b *Builder) AddLevelRegion(r *ir.LevelRegion) error {
	if r.Type == ir.RegionPortal && r.Name == "" {
		return b.errorf("portal region without a destination level")
	}
	if !r.InLevel {
		b.checkArea(r.In)
	}
	return b.append(ir.KindLevelRegion, r)
}
