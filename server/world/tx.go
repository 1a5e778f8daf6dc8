package world

import (
	"github.com/df-mc/worldedit/server/block/cube"
)

// ClosedPanicMessage is the message of the panic raised when a Tx is used
// after its transaction finished.
const ClosedPanicMessage = "world.Tx: use of transaction after transaction finishes is not permitted"

// Tx represents a synchronised transaction performed on a World. Most
// operations on a World can only be performed through a transaction. A Tx
// may not be used after the function it was passed to returns.
type Tx struct {
	w      *World
	closed bool
}

// World returns the World this transaction was performed on.
func (tx *Tx) World() *World {
	return tx.world()
}

// Range returns the lower and upper bounds of the World that the Tx is
// operating on.
func (tx *Tx) Range() cube.Range {
	return tx.world().ra
}

// Block reads a block from the position passed. If a column is not yet loaded
// at that position, the column is loaded, or generated if it could not be
// found in the world save, and the block returned. An error is returned only
// if the column could not be loaded from the Provider.
func (tx *Tx) Block(pos cube.Pos) (BlockState, error) {
	return tx.world().block(pos)
}

// SetBlock writes a block to the position passed. If a column is not yet
// loaded at that position, the column is first loaded or generated if it could
// not be found in the world save. Air may be passed to clear the position.
//
// A SetOpts struct may be passed to additionally modify behaviour of
// SetBlock, specifically to disable block updates or lighting. Nil may be
// passed to perform all of them.
func (tx *Tx) SetBlock(pos cube.Pos, s BlockState, opts *SetOpts) error {
	w := tx.world()
	return w.setBlock(tx, pos, s, opts)
}

// HighestBlock looks up the highest non-air block in the World at a specific
// x and z.
func (tx *Tx) HighestBlock(x, z int) (int, error) {
	return tx.world().highestBlock(x, z)
}

// Validate checks the block at pos against the validator of the World,
// replacing it with air if it is not valid.
func (tx *Tx) Validate(pos cube.Pos) {
	tx.world().validate(pos)
}

// Relight recalculates the light of the column holding pos.
func (tx *Tx) Relight(pos cube.Pos) {
	w := tx.world()
	if pos.OutOfBounds(w.ra) {
		return
	}
	if c, err := w.chunk(pos.Chunk()); err == nil {
		w.relight(c, pos)
	}
}

// NotifyNeighbours notifies the six blocks directly around pos that the block
// at pos changed.
func (tx *Tx) NotifyNeighbours(pos cube.Pos) {
	tx.world().notifyNeighbours(tx, pos)
}

// UpdateBlock performs a block update on the block at pos.
func (tx *Tx) UpdateBlock(pos cube.Pos) {
	w := tx.world()
	s, err := w.block(pos)
	if err != nil {
		return
	}
	w.updateBlock(tx, pos, s)
}

// UpdateEntityAI has entities around pos re-evaluate their behaviour.
func (tx *Tx) UpdateEntityAI(pos cube.Pos) {
	tx.world().updateEntityAI(tx, pos)
}

// close finishes the Tx, causing any following calls on the Tx to panic.
func (tx *Tx) close() {
	tx.closed = true
}

// world returns the World of the Tx. It panics if the transaction was already
// marked complete.
func (tx *Tx) world() *World {
	if tx.closed {
		panic(ClosedPanicMessage)
	}
	return tx.w
}
