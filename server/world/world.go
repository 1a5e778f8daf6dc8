package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/df-mc/worldedit/server/block/cube"
)

// ErrOutOfBounds is returned when a block is set outside the height range of
// a World.
var ErrOutOfBounds = errors.New("world: position out of bounds")

// World implements a block world. It manages the blocks stored in it and
// the columns loaded from its Provider. World generally provides a
// synchronised state: all reads and writes happen in transactions that run
// one after another on a single goroutine, so World ensures that all its
// methods will always be safe for simultaneous calls. A nil *World is safe to
// use but not functional.
type World struct {
	conf Config
	log  *slog.Logger
	ra   cube.Range

	queue        chan transaction
	queueClosing chan struct{}
	queueing     sync.WaitGroup

	o sync.Once

	set     *Settings
	handler atomic.Pointer[Handler]

	// chunks holds a cache of columns currently loaded. Columns are only
	// accessed from inside transactions.
	chunks map[cube.ChunkID]*Column

	lightUpdates     atomic.Uint64
	neighbourUpdates atomic.Uint64
	blockUpdates     atomic.Uint64
	entityUpdates    atomic.Uint64
}

// transaction is a type that may be added to the transaction queue of a World.
// Its Run method is called when the transaction is taken out of the queue.
type transaction interface {
	Run(w *World)
}

// normalTransaction is a transaction that runs f and closes c once done.
type normalTransaction struct {
	c chan struct{}
	f ExecFunc
}

// Run ...
func (t normalTransaction) Run(w *World) {
	tx := &Tx{w: w}
	defer close(t.c)
	defer tx.close()
	t.f(tx)
}

// New creates a new initialised world using the default Config. The world may
// be used right away, but it will not be saved or loaded from files until it
// has been given a different provider than the default. (NopProvider)
func New() *World {
	var conf Config
	return conf.New()
}

// Name returns the display name of the world.
func (w *World) Name() string {
	if w == nil {
		return ""
	}
	w.set.Lock()
	defer w.set.Unlock()
	return w.set.Name
}

// Range returns the range in blocks of the World (min and max).
func (w *World) Range() cube.Range {
	return w.ra
}

// Palette returns the Palette used by the World.
func (w *World) Palette() *Palette {
	return w.conf.Palette
}

// ExecFunc is a function that performs a synchronised transaction on a World.
type ExecFunc func(tx *Tx)

// Exec performs a synchronised transaction f on a World. Exec returns a channel
// that is closed once the transaction is complete.
func (w *World) Exec(f ExecFunc) <-chan struct{} {
	c := make(chan struct{})
	w.queue <- normalTransaction{c: c, f: f}
	return c
}

// ExecContext performs a synchronised transaction f on a World and waits for
// it to complete. If ctx is cancelled before the transaction was queued, f is
// never run and the context error is returned. A transaction that was queued
// always runs to completion.
func (w *World) ExecContext(ctx context.Context, f ExecFunc) error {
	c := make(chan struct{})
	select {
	case w.queue <- normalTransaction{c: c, f: f}:
	case <-ctx.Done():
		return ctx.Err()
	case <-w.queueClosing:
		return errors.New("world: closed")
	}
	<-c
	return nil
}

// handleTransactions continuously reads transactions from the queue and runs
// them.
func (w *World) handleTransactions() {
	for {
		select {
		case tx := <-w.queue:
			tx.Run(w)
		case <-w.queueClosing:
			w.queueing.Done()
			return
		}
	}
}

// Handle changes the current Handler of the world. As a result, events called
// by the world will call the methods of the Handler passed. Handle sets the
// world's Handler to NopHandler if nil is passed.
func (w *World) Handle(h Handler) {
	if w == nil {
		return
	}
	if h == nil {
		h = NopHandler{}
	}
	h = wrapWorldHandler(w, h)
	w.handler.Store(&h)
}

// Handler returns the Handler of the world.
func (w *World) Handler() Handler {
	if w == nil {
		return NopHandler{}
	}
	return *w.handler.Load()
}

// Stats holds counters of the post-processing performed by a World.
type Stats struct {
	LoadedColumns    int
	LightUpdates     uint64
	NeighbourUpdates uint64
	BlockUpdates     uint64
	EntityUpdates    uint64
}

// Stats returns a snapshot of the counters of the World.
func (w *World) Stats() Stats {
	s := Stats{
		LightUpdates:     w.lightUpdates.Load(),
		NeighbourUpdates: w.neighbourUpdates.Load(),
		BlockUpdates:     w.blockUpdates.Load(),
		EntityUpdates:    w.entityUpdates.Load(),
	}
	<-w.Exec(func(*Tx) {
		s.LoadedColumns = len(w.chunks)
	})
	return s
}

// block reads a block from the position passed. If a column is not yet loaded
// at that position, the column is loaded, or generated if it could not be
// found in the world save, and the block returned.
func (w *World) block(pos cube.Pos) (BlockState, error) {
	if pos.OutOfBounds(w.ra) {
		// Fast way out.
		return Air, nil
	}
	c, err := w.chunk(pos.Chunk())
	if err != nil {
		return Air, err
	}
	return c.Block(uint8(pos[0]), pos[1], uint8(pos[2])), nil
}

// SetOpts holds several parameters that may be set to disable updates in the
// World of different kinds as a result of a call to SetBlock.
type SetOpts struct {
	// DisableBlockUpdates makes SetBlock not update the block set or any
	// neighbouring blocks as a result of the SetBlock call.
	DisableBlockUpdates bool
	// DisableLighting makes SetBlock not recalculate the height map of the
	// column the block is in.
	DisableLighting bool
}

// setBlock writes a block to the position passed. If a column is not yet
// loaded at that position, the column is first loaded or generated if it
// could not be found in the world save. A SetOpts struct may be passed to
// additionally modify behaviour of setBlock. Nil may be passed to perform all
// updates.
func (w *World) setBlock(tx *Tx, pos cube.Pos, s BlockState, opts *SetOpts) error {
	if pos.OutOfBounds(w.ra) {
		return fmt.Errorf("set block %v: %w", pos, ErrOutOfBounds)
	}
	if opts == nil {
		opts = &SetOpts{}
	}
	c, err := w.chunk(pos.Chunk())
	if err != nil {
		return fmt.Errorf("set block %v: %w", pos, err)
	}
	c.SetBlock(uint8(pos[0]), pos[1], uint8(pos[2]), s)

	if !opts.DisableLighting {
		w.relight(c, pos)
	}
	if !opts.DisableBlockUpdates {
		w.updateBlock(tx, pos, s)
		w.notifyNeighbours(tx, pos)
	}
	return nil
}

// relight recalculates the height map of the column at pos.
func (w *World) relight(c *Column, pos cube.Pos) {
	c.Relight(uint8(pos[0]), uint8(pos[2]))
	w.lightUpdates.Add(1)
}

// notifyNeighbours notifies the six blocks around pos of a change at pos.
func (w *World) notifyNeighbours(tx *Tx, pos cube.Pos) {
	h := w.Handler()
	pos.Neighbours(func(neighbour cube.Pos) {
		w.neighbourUpdates.Add(1)
		h.HandleNeighbourUpdate(tx, neighbour, pos)
	}, w.ra)
}

// updateBlock performs a block update on the block at pos.
func (w *World) updateBlock(tx *Tx, pos cube.Pos, s BlockState) {
	w.blockUpdates.Add(1)
	w.Handler().HandleBlockUpdate(tx, pos, s)
}

// updateEntityAI has entities around pos re-evaluate their behaviour.
func (w *World) updateEntityAI(tx *Tx, pos cube.Pos) {
	w.entityUpdates.Add(1)
	w.Handler().HandleEntityAI(tx, pos)
}

// validate checks the block at pos against the Validator of the World. Blocks
// that are not valid are replaced with air.
func (w *World) validate(pos cube.Pos) {
	if w.conf.Validator == nil || pos.OutOfBounds(w.ra) {
		return
	}
	c, err := w.chunk(pos.Chunk())
	if err != nil {
		return
	}
	if s := c.Block(uint8(pos[0]), pos[1], uint8(pos[2])); !w.conf.Validator(s) {
		w.log.Debug("Replaced invalid block state.", "pos", pos, "state", s)
		c.SetBlock(uint8(pos[0]), pos[1], uint8(pos[2]), Air)
	}
}

// highestBlock looks up the highest non-air block in the World at a specific x
// and z. The y value of the highest block is returned, or the bottom of the
// world minus one if the column only holds air.
func (w *World) highestBlock(x, z int) (int, error) {
	c, err := w.chunk(cube.Pos{x, 0, z}.Chunk())
	if err != nil {
		return w.ra[0] - 1, err
	}
	return c.HighestBlock(uint8(x), uint8(z)), nil
}

// chunk reads a column from the position passed. If a column at that
// position is not yet loaded, the column is loaded from the provider, or
// generated if it did not yet exist.
func (w *World) chunk(pos cube.ChunkID) (*Column, error) {
	if c, ok := w.chunks[pos]; ok {
		if c.broken {
			return nil, fmt.Errorf("load column %v: previous load failed", pos)
		}
		return c, nil
	}
	c := NewColumn(w.ra, w.conf.Palette)
	data, err := w.conf.Provider.LoadColumn(pos)
	switch {
	case err == nil:
		c.load(data)
	case errors.Is(err, ErrColumnNotFound):
		w.conf.Generator.GenerateColumn(pos, c)
		c.modified = true
	default:
		w.log.Error("Load column.", "X", pos.X, "Z", pos.Z, "error", err)
		c.broken = true
		w.chunks[pos] = c
		return nil, fmt.Errorf("load column %v: %w", pos, err)
	}
	w.chunks[pos] = c
	return c, nil
}

// Save saves the World to the provider.
func (w *World) Save() {
	<-w.Exec(func(*Tx) {
		w.save()
	})
}

// save stores all modified columns to the Provider of the World.
func (w *World) save() {
	if w.conf.ReadOnly {
		return
	}
	for _, pos := range slices.SortedFunc(maps.Keys(w.chunks), func(a, b cube.ChunkID) int {
		return cmpMorton(a, b)
	}) {
		c := w.chunks[pos]
		if !c.modified || c.broken {
			continue
		}
		if err := w.conf.Provider.StoreColumn(pos, c.Data()); err != nil {
			w.log.Error("Store column.", "X", pos.X, "Z", pos.Z, "error", err)
			continue
		}
		c.modified = false
	}
	w.conf.Provider.SaveSettings(w.set)
}

func cmpMorton(a, b cube.ChunkID) int {
	ma, mb := a.Morton(), b.Morton()
	switch {
	case ma < mb:
		return -1
	case ma > mb:
		return 1
	}
	return 0
}

// Close closes the world and saves all columns currently loaded.
func (w *World) Close() error {
	var err error
	w.o.Do(func() {
		err = w.close()
	})
	return err
}

// close stops the World from handling transactions, saves all columns to the
// Provider and closes it.
func (w *World) close() error {
	<-w.Exec(func(tx *Tx) {
		// Let user code run anything that needs to be finished before closing.
		w.Handler().HandleClose(tx)
		w.Handle(NopHandler{})
		w.save()
		clear(w.chunks)
	})

	close(w.queueClosing)
	w.queueing.Wait()

	if err := w.conf.Provider.Close(); err != nil {
		return fmt.Errorf("close provider: %w", err)
	}
	return nil
}
