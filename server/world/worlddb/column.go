package worlddb

import (
	"fmt"

	"github.com/df-mc/worldedit/server/world"
	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// columnData is the NBT form of a world.ColumnData. Block states are stored
// once in a palette and every entry refers to the palette by index.
type columnData struct {
	Palette []blockEntry `nbt:"palette"`
	Indices []int32      `nbt:"indices"`
	States  []int32      `nbt:"states"`
}

// blockEntry represents a block as found in a palette on disk.
type blockEntry struct {
	Name       string         `nbt:"name"`
	Properties map[string]any `nbt:"states"`
}

func encodeColumn(col *world.ColumnData) ([]byte, error) {
	data := columnData{
		Indices: make([]int32, 0, len(col.Entries)),
		States:  make([]int32, 0, len(col.Entries)),
	}
	lookup := make(map[world.BlockState]int32)
	for _, e := range col.Entries {
		idx, ok := lookup[e.State]
		if !ok {
			idx = int32(len(data.Palette))
			lookup[e.State] = idx
			props := make(map[string]any)
			for k, v := range e.State.Properties() {
				props[k] = v
			}
			data.Palette = append(data.Palette, blockEntry{Name: e.State.Name(), Properties: props})
		}
		data.Indices = append(data.Indices, int32(e.Index))
		data.States = append(data.States, idx)
	}
	return nbt.MarshalEncoding(data, nbt.LittleEndian)
}

func decodeColumn(b []byte) (*world.ColumnData, error) {
	var data columnData
	if err := nbt.UnmarshalEncoding(b, &data, nbt.LittleEndian); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if len(data.Indices) != len(data.States) {
		return nil, fmt.Errorf("%w: %d indices for %d states", ErrCorrupt, len(data.Indices), len(data.States))
	}
	palette := make([]world.BlockState, len(data.Palette))
	for i, e := range data.Palette {
		palette[i] = world.NewBlockState(e.Name, e.Properties)
	}
	col := &world.ColumnData{Entries: make([]world.ColumnEntry, len(data.Indices))}
	for i, idx := range data.Indices {
		s := data.States[i]
		if s < 0 || int(s) >= len(palette) {
			return nil, fmt.Errorf("%w: palette index %d out of range", ErrCorrupt, s)
		}
		col.Entries[i] = world.ColumnEntry{Index: uint32(idx), State: palette[s]}
	}
	return col, nil
}
