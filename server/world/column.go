package world

import (
	"slices"

	"github.com/df-mc/worldedit/server/block/cube"
)

// Column is a 16x16 column of blocks spanning the full height range of a
// World. Blocks are stored sparsely: positions without an entry hold air.
type Column struct {
	r       cube.Range
	palette *Palette
	blocks  map[uint32]uint32
	// heights holds the highest non-air Y for every x/z pair of the column, or
	// r[0]-1 if the x/z pair holds only air.
	heights [256]int

	modified bool
	// broken is set when the column failed to load from the Provider. Broken
	// columns are never stored again, so that a read failure does not
	// overwrite saved data.
	broken bool
}

// NewColumn creates an empty Column with the range and palette passed.
func NewColumn(r cube.Range, palette *Palette) *Column {
	c := &Column{r: r, palette: palette, blocks: make(map[uint32]uint32)}
	for i := range c.heights {
		c.heights[i] = r[0] - 1
	}
	return c
}

func (c *Column) index(x uint8, y int, z uint8) uint32 {
	return uint32(x&15) | uint32(z&15)<<4 | uint32(y-c.r[0])<<8
}

// Block returns the BlockState at the local x and z and the absolute y
// passed.
func (c *Column) Block(x uint8, y int, z uint8) BlockState {
	rid, ok := c.blocks[c.index(x, y, z)]
	if !ok {
		return Air
	}
	s, _ := c.palette.State(rid)
	return s
}

// SetBlock sets the BlockState at the local x and z and the absolute y
// passed. The height map of the column is not updated: Relight must be
// called to do so.
func (c *Column) SetBlock(x uint8, y int, z uint8, s BlockState) {
	idx := c.index(x, y, z)
	if s.Air() {
		delete(c.blocks, idx)
	} else {
		c.blocks[idx] = c.palette.RuntimeID(s)
	}
	c.modified = true
}

// Relight recalculates the height map entry of the local x and z passed. It
// returns the new highest non-air Y.
func (c *Column) Relight(x uint8, z uint8) int {
	h := c.r[0] - 1
	for y := c.r[1]; y >= c.r[0]; y-- {
		if _, ok := c.blocks[c.index(x, y, z)]; ok {
			h = y
			break
		}
	}
	c.heights[int(x&15)|int(z&15)<<4] = h
	return h
}

// HighestBlock returns the highest non-air Y at the local x and z passed, as
// of the last Relight.
func (c *Column) HighestBlock(x uint8, z uint8) int {
	return c.heights[int(x&15)|int(z&15)<<4]
}

// Len returns the number of non-air blocks in the column.
func (c *Column) Len() int {
	return len(c.blocks)
}

// Data returns the serialisable form of the Column. Entries are sorted by
// index so that encoding is deterministic.
func (c *Column) Data() *ColumnData {
	data := &ColumnData{Entries: make([]ColumnEntry, 0, len(c.blocks))}
	for idx, rid := range c.blocks {
		s, _ := c.palette.State(rid)
		data.Entries = append(data.Entries, ColumnEntry{Index: idx, State: s})
	}
	slices.SortFunc(data.Entries, func(a, b ColumnEntry) int {
		return int(a.Index) - int(b.Index)
	})
	return data
}

// load fills the column with the entries of data and recalculates its
// height map.
func (c *Column) load(data *ColumnData) {
	for _, e := range data.Entries {
		if e.State.Air() {
			continue
		}
		c.blocks[e.Index] = c.palette.RuntimeID(e.State)
	}
	c.relightAll()
}

func (c *Column) relightAll() {
	for x := uint8(0); x < 16; x++ {
		for z := uint8(0); z < 16; z++ {
			c.Relight(x, z)
		}
	}
}

// ColumnData is the serialisable form of a Column, as passed to and returned
// by a Provider.
type ColumnData struct {
	Entries []ColumnEntry
}

// ColumnEntry is a single non-air block of a ColumnData. Index encodes the
// local x in the lowest 4 bits, the local z in the next 4 bits and the Y
// relative to the bottom of the world in the remaining bits.
type ColumnEntry struct {
	Index uint32
	State BlockState
}
