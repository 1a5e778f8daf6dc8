// Package changeset records block changes as before/after pairs, and builds
// and applies them against a world.
package changeset

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/brentp/intintmap"
	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/df-mc/worldedit/server/edit/sideeffect"
	"github.com/df-mc/worldedit/server/world"
)

var (
	// ErrSealed is returned when a delta is recorded on a ChangeSet that was
	// already sealed.
	ErrSealed = errors.New("change set is sealed")
	// ErrOutOfBounds is returned when a delta is recorded at a position that
	// cannot be indexed. See cube.Pos.Packable.
	ErrOutOfBounds = errors.New("position out of bounds")
)

// BlockDelta is the change of a single block: its state before and after an
// edit.
type BlockDelta struct {
	Pos      cube.Pos
	Previous world.BlockState
	Next     world.BlockState
}

// Inverse returns the delta that reverts d.
func (d BlockDelta) Inverse() BlockDelta {
	return BlockDelta{Pos: d.Pos, Previous: d.Next, Next: d.Previous}
}

// Reader reads block states from a world.
type Reader interface {
	// Range returns the height range of the world. Positions outside of it
	// are never read or written.
	Range() cube.Range
	// Block returns the state of the block at pos.
	Block(pos cube.Pos) (world.BlockState, error)
}

// Writer writes block states to a world and performs the post-write
// operations of the world.
type Writer interface {
	sideeffect.Host
	// SetBlock writes s to pos without performing any post-write
	// operations.
	SetBlock(pos cube.Pos, s world.BlockState) error
}

// ChangeSet is an ordered list of BlockDeltas in a single world. A ChangeSet
// may only be modified by one goroutine until it is sealed. Sealed change
// sets are immutable and safe for concurrent use.
type ChangeSet struct {
	world  string
	deltas []BlockDelta
	// index maps packed positions to their index in deltas.
	index  *intintmap.Map
	sealed bool

	invOnce sync.Once
	inv     *ChangeSet
}

// New creates an empty ChangeSet for the world with the name passed.
func New(worldName string) *ChangeSet {
	return &ChangeSet{world: worldName, index: intintmap.New(64, 0.6)}
}

// FromDeltas creates a sealed ChangeSet holding the deltas passed. Deltas at
// the same position are composed like Record does, and deltas Record rejects
// are dropped.
func FromDeltas(worldName string, deltas []BlockDelta) *ChangeSet {
	cs := New(worldName)
	for _, d := range deltas {
		_ = cs.Record(d)
	}
	cs.Seal()
	return cs
}

// World returns the name of the world the ChangeSet belongs to.
func (cs *ChangeSet) World() string {
	return cs.world
}

// Len returns the number of deltas in the ChangeSet.
func (cs *ChangeSet) Len() int {
	return len(cs.deltas)
}

// Empty checks if the ChangeSet holds no deltas.
func (cs *ChangeSet) Empty() bool {
	return len(cs.deltas) == 0
}

// Deltas returns all deltas of the ChangeSet in the order they are applied.
func (cs *ChangeSet) Deltas() iter.Seq[BlockDelta] {
	return slices.Values(cs.deltas)
}

// Delta returns the delta at the position passed, if any.
func (cs *ChangeSet) Delta(pos cube.Pos) (BlockDelta, bool) {
	if !pos.Packable() {
		return BlockDelta{}, false
	}
	i, ok := cs.index.Get(pos.Pack())
	if !ok {
		return BlockDelta{}, false
	}
	return cs.deltas[i], true
}

// Record adds a delta to the ChangeSet. If the ChangeSet already holds a delta
// at the same position, the two are composed: the Previous state of the first
// and the Next state of the last are kept.
func (cs *ChangeSet) Record(d BlockDelta) error {
	if cs.sealed {
		return ErrSealed
	}
	if !d.Pos.Packable() {
		return fmt.Errorf("record %v: %w", d.Pos, ErrOutOfBounds)
	}
	key := d.Pos.Pack()
	if i, ok := cs.index.Get(key); ok {
		cs.deltas[i].Next = d.Next
		return nil
	}
	cs.index.Put(key, int64(len(cs.deltas)))
	cs.deltas = append(cs.deltas, d)
	return nil
}

// Seal makes the ChangeSet immutable.
func (cs *ChangeSet) Seal() {
	cs.sealed = true
}

// Sealed checks if the ChangeSet was sealed.
func (cs *ChangeSet) Sealed() bool {
	return cs.sealed
}

// Box returns the smallest box holding every position of the ChangeSet. False
// is returned if the ChangeSet is empty.
func (cs *ChangeSet) Box() (cube.Box, bool) {
	if len(cs.deltas) == 0 {
		return cube.Box{}, false
	}
	b := cube.NewBox(cs.deltas[0].Pos, cs.deltas[0].Pos)
	for _, d := range cs.deltas[1:] {
		b = b.Extend(d.Pos)
	}
	return b, true
}

// Inverse returns a sealed ChangeSet that reverts cs: the previous and next
// state of every delta are swapped and the deltas are reversed in order.
// Applying cs followed by its inverse restores every position cs touched.
//
// The inverse of a sealed ChangeSet is computed once, and its own inverse is
// cs again.
func (cs *ChangeSet) Inverse() *ChangeSet {
	if !cs.sealed {
		return cs.inverse()
	}
	cs.invOnce.Do(func() {
		inv := cs.inverse()
		inv.invOnce.Do(func() { inv.inv = cs })
		cs.inv = inv
	})
	return cs.inv
}

func (cs *ChangeSet) inverse() *ChangeSet {
	inv := &ChangeSet{
		world:  cs.world,
		deltas: make([]BlockDelta, len(cs.deltas)),
		index:  intintmap.New(max(len(cs.deltas), 64), 0.6),
		sealed: true,
	}
	n := len(cs.deltas)
	for i, d := range cs.deltas {
		j := n - 1 - i
		inv.deltas[j] = d.Inverse()
		inv.index.Put(d.Pos.Pack(), int64(j))
	}
	return inv
}

// Apply writes the Next state of every delta to w, in order. If a write fails,
// the Previous states of the deltas already written are restored in reverse
// order and the error of the write is returned.
//
// Once all states are written, the post-write operations in effects that the
// controller supports are issued for every delta. The effects issued are
// returned. Builder.Apply does the same while ticking a watchdog.
func (cs *ChangeSet) Apply(ctx context.Context, w Writer, c sideeffect.Controller, effects sideeffect.Set) (sideeffect.Set, error) {
	return cs.apply(ctx, w, c, effects, nil, DefaultCheckInterval)
}

// apply implements Apply. dog, if not nil, is ticked every interval writes
// and every interval deltas post-processed.
func (cs *ChangeSet) apply(ctx context.Context, w Writer, c sideeffect.Controller, effects sideeffect.Set, dog Watchdog, interval int) (sideeffect.Set, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("apply change set: %w", err)
	}
	tick := func(i int) {
		if dog != nil && i != 0 && i%interval == 0 {
			dog.Tick()
		}
	}
	for i, d := range cs.deltas {
		tick(i)
		if err := w.SetBlock(d.Pos, d.Next); err != nil {
			if rbErr := cs.rollback(w, i); rbErr != nil {
				return 0, fmt.Errorf("apply change set at %v: %w (rollback failed: %w)", d.Pos, err, rbErr)
			}
			return 0, fmt.Errorf("apply change set at %v: %w", d.Pos, err)
		}
	}
	applied := c.Effective(effects)
	if applied.Empty() {
		return applied, nil
	}
	for i, d := range cs.deltas {
		tick(i)
		c.Apply(w, d.Pos, effects)
	}
	return applied, nil
}

// rollback restores the Previous state of the first n deltas, last delta
// first.
func (cs *ChangeSet) rollback(w Writer, n int) error {
	var errs []error
	for i := n - 1; i >= 0; i-- {
		d := cs.deltas[i]
		if err := w.SetBlock(d.Pos, d.Previous); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// String ...
func (cs *ChangeSet) String() string {
	return fmt.Sprintf("change set of %d blocks in %q", len(cs.deltas), cs.world)
}
