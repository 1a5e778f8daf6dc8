package platform

import (
	"context"
	"errors"

	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/df-mc/worldedit/server/internal/txguard"
	"github.com/df-mc/worldedit/server/world"
)

// ErrTxFinished is returned by a Tx of a local World that is used after the
// function it was passed to returned.
var ErrTxFinished = errors.New("platform: use of finished transaction")

// localWorld is a World backed by a *world.World.
type localWorld struct {
	w *world.World
}

// Name ...
func (lw localWorld) Name() string {
	return lw.w.Name()
}

// Range ...
func (lw localWorld) Range() cube.Range {
	return lw.w.Range()
}

// Exec ...
func (lw localWorld) Exec(ctx context.Context, f func(tx Tx) error) error {
	var ferr error
	if err := lw.w.ExecContext(ctx, func(tx *world.Tx) {
		ferr = f(localTx{tx: tx})
	}); err != nil {
		return err
	}
	return ferr
}

// localTx is a Tx backed by a *world.Tx. Blocks are written without updates or
// lighting: those are issued through the sideeffect.Host methods.
type localTx struct {
	tx *world.Tx
}

var noUpdates = &world.SetOpts{DisableBlockUpdates: true, DisableLighting: true}

// Range ...
func (t localTx) Range() cube.Range {
	r, _ := txguard.Value(t.tx, t.tx.Range)
	return r
}

// Block ...
func (t localTx) Block(pos cube.Pos) (world.BlockState, error) {
	var (
		s   world.BlockState
		err error
	)
	if !txguard.Run(t.tx, func() { s, err = t.tx.Block(pos) }) {
		return world.Air, ErrTxFinished
	}
	return s, err
}

// SetBlock ...
func (t localTx) SetBlock(pos cube.Pos, s world.BlockState) error {
	err, ok := txguard.Value(t.tx, func() error { return t.tx.SetBlock(pos, s, noUpdates) })
	if !ok {
		return ErrTxFinished
	}
	return err
}

// Validate ...
func (t localTx) Validate(pos cube.Pos) {
	txguard.Run(t.tx, func() { t.tx.Validate(pos) })
}

// Relight ...
func (t localTx) Relight(pos cube.Pos) {
	txguard.Run(t.tx, func() { t.tx.Relight(pos) })
}

// NotifyNeighbours ...
func (t localTx) NotifyNeighbours(pos cube.Pos) {
	txguard.Run(t.tx, func() { t.tx.NotifyNeighbours(pos) })
}

// UpdateEntityAI ...
func (t localTx) UpdateEntityAI(pos cube.Pos) {
	txguard.Run(t.tx, func() { t.tx.UpdateEntityAI(pos) })
}

// UpdateBlock ...
func (t localTx) UpdateBlock(pos cube.Pos) {
	txguard.Run(t.tx, func() { t.tx.UpdateBlock(pos) })
}

// hookHandler forwards world events to the handler of a Local while its game
// hooks are enabled.
type hookHandler struct {
	world.NopHandler
	l *Local
}

func (h hookHandler) HandleNeighbourUpdate(tx *world.Tx, pos, changed cube.Pos) {
	if hooks, ok := h.l.hooks(); ok {
		hooks.HandleNeighbourUpdate(tx, pos, changed)
	}
}

func (h hookHandler) HandleBlockUpdate(tx *world.Tx, pos cube.Pos, s world.BlockState) {
	if hooks, ok := h.l.hooks(); ok {
		hooks.HandleBlockUpdate(tx, pos, s)
	}
}

func (h hookHandler) HandleEntityAI(tx *world.Tx, pos cube.Pos) {
	if hooks, ok := h.l.hooks(); ok {
		hooks.HandleEntityAI(tx, pos)
	}
}

func (h hookHandler) HandleClose(tx *world.Tx) {
	if hooks, ok := h.l.hooks(); ok {
		hooks.HandleClose(tx)
	}
}
