package world

import "github.com/df-mc/worldedit/server/block/cube"

// Generator handles the generation of columns that were not found in the
// Provider of a World.
type Generator interface {
	// GenerateColumn generates a column at the position passed. The column is
	// empty when passed.
	GenerateColumn(pos cube.ChunkID, col *Column)
}

// NopGenerator is the default generator a world uses. It leaves columns empty.
type NopGenerator struct{}

// GenerateColumn ...
func (NopGenerator) GenerateColumn(cube.ChunkID, *Column) {}

// Flat is a Generator that fills every column with the same layers, starting
// at the bottom of the world.
type Flat struct {
	layers []BlockState
}

// NewFlat creates a Flat generator. The first layer passed ends up at the
// top of the column, the last one at the bottom of the world.
func NewFlat(layers []BlockState) Flat {
	return Flat{layers: layers}
}

// GenerateColumn ...
func (f Flat) GenerateColumn(_ cube.ChunkID, col *Column) {
	bottom := col.r[0]
	for i, s := range f.layers {
		y := bottom + len(f.layers) - 1 - i
		if y > col.r[1] {
			continue
		}
		for x := uint8(0); x < 16; x++ {
			for z := uint8(0); z < 16; z++ {
				col.SetBlock(x, y, z, s)
			}
		}
	}
	col.relightAll()
}
