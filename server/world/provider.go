package world

import (
	"errors"
	"io"
	"sync"

	"github.com/df-mc/worldedit/server/block/cube"
)

// ErrColumnNotFound is returned by a Provider if no column was stored at the
// position requested.
var ErrColumnNotFound = errors.New("world: column not found")

// Provider represents a value that may provide world data to a World value.
// It usually does the reading and writing of the world data so that the World
// may use it.
type Provider interface {
	io.Closer
	// Settings loads the settings for a World and returns them.
	Settings() *Settings
	// SaveSettings saves the settings of a World.
	SaveSettings(*Settings)
	// LoadColumn reads a column from the position passed. If no column was
	// stored at that position, ErrColumnNotFound is returned.
	LoadColumn(pos cube.ChunkID) (*ColumnData, error)
	// StoreColumn stores a column at a specific position.
	StoreColumn(pos cube.ChunkID, data *ColumnData) error
}

// Settings holds the settings of a World that persist across restarts.
type Settings struct {
	sync.Mutex
	// Name is the display name of the World.
	Name string
}

// NopProvider implements a Provider that does not perform any disk I/O. It
// generates values on the run and dynamically, instead of reading and writing
// data, and otherwise returns empty values.
type NopProvider struct {
	// Set is the Settings returned by the provider. If nil, a new Settings
	// named "World" is returned every call.
	Set *Settings
}

// Compile time check to make sure NopProvider implements Provider.
var _ Provider = (NopProvider{})

func (n NopProvider) Settings() *Settings {
	if n.Set == nil {
		return &Settings{Name: "World"}
	}
	return n.Set
}
func (NopProvider) SaveSettings(*Settings) {}
func (NopProvider) LoadColumn(cube.ChunkID) (*ColumnData, error) {
	return nil, ErrColumnNotFound
}
func (NopProvider) StoreColumn(cube.ChunkID, *ColumnData) error { return nil }
func (NopProvider) Close() error                                { return nil }
