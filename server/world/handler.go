package world

import "github.com/df-mc/worldedit/server/block/cube"

// Handler handles events that are called by a World. Implementations of
// Handler may be used to listen to specific events such as block updates.
type Handler interface {
	// HandleNeighbourUpdate handles a block at pos being notified that its
	// neighbour at changed was modified.
	HandleNeighbourUpdate(tx *Tx, pos, changed cube.Pos)
	// HandleBlockUpdate handles the block at pos being updated, for example
	// so that falling blocks start to fall.
	HandleBlockUpdate(tx *Tx, pos cube.Pos, s BlockState)
	// HandleEntityAI handles entities near pos re-evaluating their
	// behaviour after the terrain around them changed.
	HandleEntityAI(tx *Tx, pos cube.Pos)
	// HandleClose handles the World being closed. HandleClose may be used as a
	// moment to finish code running on other goroutines that operates on the
	// World specifically.
	HandleClose(tx *Tx)
}

// Compile time check to make sure NopHandler implements Handler.
var _ Handler = (*NopHandler)(nil)

// NopHandler implements the Handler interface but does not execute any code
// when an event is called. The default Handler of worlds is set to
// NopHandler. Users may embed NopHandler to avoid having to implement each
// method.
type NopHandler struct{}

func (NopHandler) HandleNeighbourUpdate(*Tx, cube.Pos, cube.Pos) {}
func (NopHandler) HandleBlockUpdate(*Tx, cube.Pos, BlockState)   {}
func (NopHandler) HandleEntityAI(*Tx, cube.Pos)                  {}
func (NopHandler) HandleClose(*Tx)                               {}
