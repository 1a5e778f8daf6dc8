package historydb

import (
	"fmt"
	"time"

	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/df-mc/worldedit/server/edit/changeset"
	"github.com/df-mc/worldedit/server/world"
	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// version is the format version of exported history.
const version = 1

// stackData is the NBT form of a history stack. Block states are stored once
// in Palette and referred to by index.
type stackData struct {
	Version  int32        `nbt:"version"`
	Exported int64        `nbt:"exported"`
	Palette  []blockEntry `nbt:"palette"`
	Undo     []setData    `nbt:"undo"`
	Redo     []setData    `nbt:"redo"`
}

type blockEntry struct {
	Name       string         `nbt:"name"`
	Properties map[string]any `nbt:"states"`
}

type setData struct {
	World     string  `nbt:"world"`
	Positions []int64 `nbt:"positions"`
	Previous  []int32 `nbt:"previous"`
	Next      []int32 `nbt:"next"`
}

type paletteEncoder struct {
	entries []blockEntry
	lookup  map[world.BlockState]int32
}

func (p *paletteEncoder) index(s world.BlockState) int32 {
	if i, ok := p.lookup[s]; ok {
		return i
	}
	i := int32(len(p.entries))
	props := make(map[string]any)
	for k, v := range s.Properties() {
		props[k] = v
	}
	p.entries = append(p.entries, blockEntry{Name: s.Name(), Properties: props})
	p.lookup[s] = i
	return i
}

func encodeStack(undo, redo []*changeset.ChangeSet, exported time.Time) ([]byte, error) {
	p := &paletteEncoder{lookup: make(map[world.BlockState]int32)}
	data := stackData{
		Version:  version,
		Exported: exported.Unix(),
		Undo:     encodeSets(p, undo),
		Redo:     encodeSets(p, redo),
	}
	data.Palette = p.entries
	return nbt.MarshalEncoding(data, nbt.LittleEndian)
}

func encodeSets(p *paletteEncoder, sets []*changeset.ChangeSet) []setData {
	out := make([]setData, len(sets))
	for i, cs := range sets {
		sd := setData{
			World:     cs.World(),
			Positions: make([]int64, 0, cs.Len()),
			Previous:  make([]int32, 0, cs.Len()),
			Next:      make([]int32, 0, cs.Len()),
		}
		for d := range cs.Deltas() {
			sd.Positions = append(sd.Positions, d.Pos.Pack())
			sd.Previous = append(sd.Previous, p.index(d.Previous))
			sd.Next = append(sd.Next, p.index(d.Next))
		}
		out[i] = sd
	}
	return out
}

func decodeStack(b []byte) (undo, redo []*changeset.ChangeSet, err error) {
	var data stackData
	if err := nbt.UnmarshalEncoding(b, &data, nbt.LittleEndian); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if data.Version != version {
		return nil, nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, data.Version)
	}
	palette := make([]world.BlockState, len(data.Palette))
	for i, e := range data.Palette {
		palette[i] = world.NewBlockState(e.Name, e.Properties)
	}
	if undo, err = decodeSets(palette, data.Undo); err != nil {
		return nil, nil, err
	}
	if redo, err = decodeSets(palette, data.Redo); err != nil {
		return nil, nil, err
	}
	return undo, redo, nil
}

func decodeSets(palette []world.BlockState, sets []setData) ([]*changeset.ChangeSet, error) {
	out := make([]*changeset.ChangeSet, len(sets))
	for i, sd := range sets {
		if len(sd.Previous) != len(sd.Positions) || len(sd.Next) != len(sd.Positions) {
			return nil, fmt.Errorf("%w: change set %d has mismatched lengths", ErrCorrupt, i)
		}
		deltas := make([]changeset.BlockDelta, len(sd.Positions))
		for j, packed := range sd.Positions {
			prev, next := sd.Previous[j], sd.Next[j]
			if prev < 0 || int(prev) >= len(palette) || next < 0 || int(next) >= len(palette) {
				return nil, fmt.Errorf("%w: palette index out of range in change set %d", ErrCorrupt, i)
			}
			deltas[j] = changeset.BlockDelta{Pos: cube.Unpack(packed), Previous: palette[prev], Next: palette[next]}
		}
		out[i] = changeset.FromDeltas(sd.World, deltas)
	}
	return out, nil
}
