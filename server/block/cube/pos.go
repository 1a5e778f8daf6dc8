package cube

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

// Pos holds the position of a block. The position is represented of an array
// with an x, y and z value, where the y value is positive.
type Pos [3]int

// String converts the Pos to a string in the format (1,2,3) and returns it.
func (p Pos) String() string {
	return fmt.Sprintf("(%v,%v,%v)", p[0], p[1], p[2])
}

// X returns the X coordinate of the block position.
func (p Pos) X() int {
	return p[0]
}

// Y returns the Y coordinate of the block position.
func (p Pos) Y() int {
	return p[1]
}

// Z returns the Z coordinate of the block position.
func (p Pos) Z() int {
	return p[2]
}

// OutOfBounds checks if the Y value is either bigger than r[1] or smaller
// than r[0].
func (p Pos) OutOfBounds(r Range) bool {
	y := p[1]
	return y > r[1] || y < r[0]
}

// Add adds two block positions together and returns a new one with the
// combined values.
func (p Pos) Add(pos Pos) Pos {
	return Pos{p[0] + pos[0], p[1] + pos[1], p[2] + pos[2]}
}

// Sub subtracts pos from p and returns a new one with the subtracted values.
func (p Pos) Sub(pos Pos) Pos {
	return Pos{p[0] - pos[0], p[1] - pos[1], p[2] - pos[2]}
}

// Vec3 returns a vec3 holding the same coordinates as the block position.
func (p Pos) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
}

// Vec3Centre returns a Vec3 holding the coordinates of the block position with
// 0.5 added on both horizontal axes.
func (p Pos) Vec3Centre() mgl64.Vec3 {
	return mgl64.Vec3{float64(p[0]) + 0.5, float64(p[1]), float64(p[2]) + 0.5}
}

// Neighbours calls the function passed for each of the block's six direct
// neighbours. Neighbours outside r are skipped.
func (p Pos) Neighbours(f func(neighbour Pos), r Range) {
	for _, off := range [6]Pos{{0, -1, 0}, {0, 1, 0}, {0, 0, -1}, {0, 0, 1}, {-1, 0, 0}, {1, 0, 0}} {
		n := p.Add(off)
		if n.OutOfBounds(r) {
			continue
		}
		f(n)
	}
}

// Chunk returns the ChunkID of the 16x16 column that holds the position.
func (p Pos) Chunk() ChunkID {
	return ChunkID{X: int32(p[0] >> 4), Z: int32(p[2] >> 4)}
}

// Bounds of the coordinates kept exactly by Pos.Pack.
const (
	MinPackedY, MaxPackedY   = -1 << 11, 1<<11 - 1
	MinPackedXZ, MaxPackedXZ = -1 << 25, 1<<25 - 1
)

// Packable checks if Pack keeps every coordinate of the position. Positions
// that are not packable collide with others when packed.
func (p Pos) Packable() bool {
	return p[0] >= MinPackedXZ && p[0] <= MaxPackedXZ &&
		p[2] >= MinPackedXZ && p[2] <= MaxPackedXZ &&
		p[1] >= MinPackedY && p[1] <= MaxPackedY
}

// Pack packs the position into a single int64 usable as a map key. X and Z
// keep 26 bits each and Y keeps 12 bits. Only positions for which Packable
// returns true are packed without loss.
func (p Pos) Pack() int64 {
	return int64(p[0]&0x3ffffff)<<38 | int64(p[2]&0x3ffffff)<<12 | int64(p[1]&0xfff)
}

// Unpack is the inverse of Pos.Pack.
func Unpack(v int64) Pos {
	x := int(v >> 38)
	z := int(v << 26 >> 38)
	y := int(v << 52 >> 52)
	return Pos{x, y, z}
}

// PosFromVec3 returns a block position by a Vec3, rounding the values down
// adequately.
func PosFromVec3(vec3 mgl64.Vec3) Pos {
	return Pos{floor(vec3[0]), floor(vec3[1]), floor(vec3[2])}
}

func floor(v float64) int {
	i := int(v)
	if float64(i) > v {
		i--
	}
	return i
}

// Abs returns the absolute value of v.
func Abs[T constraints.Signed](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// Min returns the component-wise minimum of two positions.
func Min(a, b Pos) Pos {
	return Pos{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
}

// Max returns the component-wise maximum of two positions.
func Max(a, b Pos) Pos {
	return Pos{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
}
