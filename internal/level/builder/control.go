package builder

import "github.com/cory-johannsen/levcomp/internal/level/ir"

// Branch is an open conditional started by If.
type Branch struct {
	// pending is the index of the jump still waiting for its target.
	pending int
	hasElse bool
}

// If starts a block the loader runs with probability percent. It appends a
// compare opcode and a conditional jump that skips the block.
func (b *Builder) If(percent uint8) (*Branch, error) {
	if percent > 100 {
		if _, err := b.checkChance(percent); err != nil {
			return nil, err
		}
		percent = 100
	}
	if err := b.append(ir.KindCompare, &ir.Compare{Percent: percent}); err != nil {
		return nil, err
	}
	br := &Branch{pending: b.prog.Len()}
	if err := b.append(ir.KindJump, &ir.Jump{Cond: ir.JumpIfFalse}); err != nil {
		return nil, err
	}
	b.branches = append(b.branches, br)
	return br, nil
}

// Else ends the taken block of br and starts the alternative.
func (b *Builder) Else(br *Branch) error {
	if br.hasElse {
		return b.errorf("conditional already has an else block")
	}
	skip := b.prog.Len()
	if err := b.append(ir.KindJump, &ir.Jump{Cond: ir.JumpAlways}); err != nil {
		return err
	}
	b.patch(br.pending)
	br.pending = skip
	br.hasElse = true
	return nil
}

// EndIf closes br, pointing its pending jump at the next opcode.
func (b *Builder) EndIf(br *Branch) error {
	n := len(b.branches)
	if n == 0 || b.branches[n-1] != br {
		return b.errorf("conditional closed out of order")
	}
	b.branches = b.branches[:n-1]
	b.patch(br.pending)
	return nil
}

// patch sets the jump at index i to land on the next opcode to be appended.
func (b *Builder) patch(i int) {
	if j, ok := b.prog.At(i).Payload.(*ir.Jump); ok {
		j.Offset = int32(b.prog.Len() - (i + 1))
	}
}

func (b *Builder) truncate(what, s string) string {
	if len(s) > MaxString {
		b.warnf("%s truncated to %d bytes", what, MaxString)
		return s[:MaxString]
	}
	return s
}

// MaxString is the longest message or class list an opcode can carry.
const MaxString = 255

// Message shows text to the player on arrival. Longer text is truncated.
func (b *Builder) Message(text string) error {
	return b.append(ir.KindMessage, &ir.Message{Text: b.truncate("message", text)})
}

// RandomObjects sets the object classes random objects are drawn from.
func (b *Builder) RandomObjects(classes string) error {
	return b.append(ir.KindRandomObjects, &ir.RandomObjects{Classes: b.truncate("object class list", classes)})
}

// RandomMonsters sets the monster classes random monsters are drawn from.
func (b *Builder) RandomMonsters(classes string) error {
	return b.append(ir.KindRandomMonsters, &ir.RandomMonsters{Classes: b.truncate("monster class list", classes)})
}

// RandomPlaces sets candidate positions for place-indexed coordinates.
func (b *Builder) RandomPlaces(places []ir.Coord) error {
	if len(places) > MaxRandomPlaces {
		b.warnf("random places truncated to %d", MaxRandomPlaces)
		places = places[:MaxRandomPlaces]
	}
	buf := make([]byte, 0, 2*len(places))
	for _, c := range places {
		b.checkCoord(c)
		buf = append(buf, byte(c.X), byte(c.Y))
	}
	return b.append(ir.KindRandomPlaces, &ir.RandomPlaces{Places: string(buf)})
}
