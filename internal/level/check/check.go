// Package check performs the semantic checks that need the whole program,
// after the front end has finished and before encoding.
package check

import (
	"fmt"

	"github.com/cory-johannsen/levcomp/internal/level/ir"
)

// UnresolvedParentError reports a subroom whose parent room does not exist.
type UnresolvedParentError struct {
	Subroom string
	Parent  string
	// Line is the source line of the subroom declaration.
	Line int
}

func (e *UnresolvedParentError) Error() string {
	return fmt.Sprintf("parent room '%s' not found", e.Parent)
}

// Subrooms checks that every subroom names an existing room as its parent.
// The room may be declared before or after the subroom. Only room opcodes
// can be parents; when several rooms share a name any of them satisfies the
// reference.
//
// Postcondition: returns one *UnresolvedParentError per unresolved subroom,
// in program order, or nil when every parent resolves.
func Subrooms(p *ir.Program) []error {
	var rooms map[string]bool
	var errs []error
	p.Each(func(_ int, op ir.Opcode) {
		sub, ok := op.Payload.(*ir.Subroom)
		if !ok {
			return
		}
		if rooms == nil {
			rooms = roomNames(p)
		}
		if !rooms[sub.Parent] {
			errs = append(errs, &UnresolvedParentError{Subroom: sub.Name, Parent: sub.Parent, Line: op.Line})
		}
	})
	return errs
}

func roomNames(p *ir.Program) map[string]bool {
	names := make(map[string]bool)
	p.Each(func(_ int, op ir.Opcode) {
		if r, ok := op.Payload.(*ir.Room); ok {
			names[r.Name] = true
		}
	})
	return names
}
