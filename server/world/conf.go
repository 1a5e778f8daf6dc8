package world

import (
	"fmt"
	"log/slog"

	"github.com/df-mc/worldedit/server/block/cube"
)

// Config may be used to create a new World. It holds a variety of fields that
// influence the World.
type Config struct {
	// Log is the Logger that will be used to log errors and debug messages to.
	// If set to nil, slog.Default() is used.
	Log *slog.Logger
	// Range is the height range of the World. If left zero, the range
	// [-64, 319] is used. New panics if the range is empty or does not fit
	// in [cube.MinPackedY, cube.MaxPackedY].
	Range cube.Range
	// ReadOnly specifies if the World should be read-only, meaning no new data
	// will be written to the Provider.
	ReadOnly bool
	// Provider is the Provider implementation used to read and write World
	// data. If set to nil, the Provider used will be NopProvider, which does
	// not store any data to disk.
	Provider Provider
	// Generator is the Generator used to generate columns that were not found
	// in the Provider. If nil, NopGenerator is used.
	Generator Generator
	// Palette is the Palette used to assign runtime IDs to states. Worlds may
	// share a Palette. If nil, a new Palette is created.
	Palette *Palette
	// Validator reports if a BlockState may exist in the World. It is
	// consulted when a block is validated after being set. If nil, every
	// state is valid.
	Validator func(BlockState) bool
	// QueueSize is the size of the transaction queue. If 0 or lower, the queue
	// is unbuffered.
	QueueSize int
}

// New creates a new World using the Config conf. The World returned will start
// handling transactions right away.
func (conf Config) New() *World {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Range == (cube.Range{}) {
		conf.Range = cube.Range{-64, 319}
	}
	if !conf.Range.Packable() || conf.Range[0] > conf.Range[1] {
		panic(fmt.Sprintf("world.Config.New: invalid height range %v", conf.Range))
	}
	if conf.Provider == nil {
		conf.Provider = NopProvider{}
	}
	if conf.Generator == nil {
		conf.Generator = NopGenerator{}
	}
	if conf.Palette == nil {
		conf.Palette = NewPalette()
	}
	if conf.QueueSize < 0 {
		conf.QueueSize = 0
	}
	w := &World{
		conf:         conf,
		ra:           conf.Range,
		set:          conf.Provider.Settings(),
		queue:        make(chan transaction, conf.QueueSize),
		queueClosing: make(chan struct{}),
		chunks:       make(map[cube.ChunkID]*Column),
	}
	w.log = conf.Log.With("world", w.set.Name)
	var h Handler = NopHandler{}
	w.handler.Store(&h)

	w.queueing.Add(1)
	go w.handleTransactions()
	return w
}
