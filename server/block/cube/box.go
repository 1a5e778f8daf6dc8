package cube

import "fmt"

// Box is an axis-aligned box of block positions. Both the minimum and the
// maximum corner are part of the Box.
type Box struct {
	min, max Pos
}

// NewBox creates a Box spanning the two corners passed. The corners may be
// passed in any order.
func NewBox(a, b Pos) Box {
	return Box{min: Min(a, b), max: Max(a, b)}
}

// Min returns the minimum corner of the Box.
func (b Box) Min() Pos {
	return b.min
}

// Max returns the maximum corner of the Box.
func (b Box) Max() Pos {
	return b.max
}

// Size returns the dimensions of the Box on every axis.
func (b Box) Size() Pos {
	return Pos{b.max[0] - b.min[0] + 1, b.max[1] - b.min[1] + 1, b.max[2] - b.min[2] + 1}
}

// Volume returns the number of block positions held by the Box.
func (b Box) Volume() int {
	s := b.Size()
	return s[0] * s[1] * s[2]
}

// Packable checks if every position of the Box is kept by Pos.Pack.
func (b Box) Packable() bool {
	return b.Min().Packable() && b.Max().Packable()
}

// Contains checks if the position passed lies within the Box.
func (b Box) Contains(pos Pos) bool {
	return pos[0] >= b.min[0] && pos[0] <= b.max[0] &&
		pos[1] >= b.min[1] && pos[1] <= b.max[1] &&
		pos[2] >= b.min[2] && pos[2] <= b.max[2]
}

// Intersects checks if two boxes share at least one position.
func (b Box) Intersects(o Box) bool {
	return b.min[0] <= o.max[0] && b.max[0] >= o.min[0] &&
		b.min[1] <= o.max[1] && b.max[1] >= o.min[1] &&
		b.min[2] <= o.max[2] && b.max[2] >= o.min[2]
}

// Union returns the smallest Box holding both b and o.
func (b Box) Union(o Box) Box {
	return Box{min: Min(b.min, o.min), max: Max(b.max, o.max)}
}

// Extend grows the Box so that it holds pos.
func (b Box) Extend(pos Pos) Box {
	return Box{min: Min(b.min, pos), max: Max(b.max, pos)}
}

// Translate moves the Box by the offset passed.
func (b Box) Translate(off Pos) Box {
	return Box{min: b.min.Add(off), max: b.max.Add(off)}
}

// Chunks returns all chunk columns that hold at least one position of the
// Box, ordered by x first and z second.
func (b Box) Chunks() []ChunkID {
	lo, hi := b.min.Chunk(), b.max.Chunk()
	chunks := make([]ChunkID, 0, int(hi.X-lo.X+1)*int(hi.Z-lo.Z+1))
	for x := lo.X; x <= hi.X; x++ {
		for z := lo.Z; z <= hi.Z; z++ {
			chunks = append(chunks, ChunkID{X: x, Z: z})
		}
	}
	return chunks
}

// String returns the Box in the format (1,2,3)-(4,5,6).
func (b Box) String() string {
	return fmt.Sprintf("%v-%v", b.min, b.max)
}
