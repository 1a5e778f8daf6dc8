package sideeffect

import "github.com/df-mc/worldedit/server/block/cube"

// Host performs the post-write operations of a world. Every method is called
// after the block at pos was written.
type Host interface {
	Validate(pos cube.Pos)
	Relight(pos cube.Pos)
	NotifyNeighbours(pos cube.Pos)
	UpdateEntityAI(pos cube.Pos)
	UpdateBlock(pos cube.Pos)
}

// Controller decides which side effects run after a block write. Only the
// effects supported by the host are ever issued.
type Controller struct {
	// Supported is the set of effects the host is able to perform.
	Supported Set
}

// Effective returns the effects of requested that the host supports.
func (c Controller) Effective(requested Set) Set {
	return requested.Intersect(c.Supported)
}

// Apply issues the host calls for the effects of requested that are
// supported, for the block written at pos. Validation runs first, followed by
// lighting, neighbour notification, entity AI and finally the block update.
// The effects issued are returned.
func (c Controller) Apply(h Host, pos cube.Pos, requested Set) Set {
	effective := c.Effective(requested)
	if effective.Has(Validation) {
		h.Validate(pos)
	}
	if effective.Has(Lighting) {
		h.Relight(pos)
	}
	if effective.Has(Neighbours) {
		h.NotifyNeighbours(pos)
	}
	if effective.Has(EntityAI) {
		h.UpdateEntityAI(pos)
	}
	if effective.Has(Update) {
		h.UpdateBlock(pos)
	}
	return effective
}
