package region

import (
	"fmt"
	"iter"

	"github.com/df-mc/worldedit/server/block/cube"
)

// Cuboid is an axis-aligned box of positions. Both corners are inclusive.
type Cuboid struct {
	box cube.Box
}

// NewCuboid creates a Cuboid from its minimum and maximum corner. An
// *InvalidRegionError is returned if min is bigger than max on any axis.
func NewCuboid(min, max cube.Pos) (Cuboid, error) {
	for i, axis := range [3]string{"x", "y", "z"} {
		if min[i] > max[i] {
			return Cuboid{}, invalid("cuboid", "min %s %d exceeds max %s %d", axis, min[i], axis, max[i])
		}
	}
	box := cube.NewBox(min, max)
	if err := checkBounds("cuboid", box); err != nil {
		return Cuboid{}, err
	}
	return Cuboid{box: box}, nil
}

// CuboidFromCorners creates a Cuboid spanning two arbitrary corners, such as
// the two positions of a selection.
func CuboidFromCorners(a, b cube.Pos) Cuboid {
	return Cuboid{box: cube.NewBox(a, b)}
}

// Min returns the minimum corner of the Cuboid.
func (c Cuboid) Min() cube.Pos { return c.box.Min() }

// Max returns the maximum corner of the Cuboid.
func (c Cuboid) Max() cube.Pos { return c.box.Max() }

// Contains ...
func (c Cuboid) Contains(pos cube.Pos) bool {
	return c.box.Contains(pos)
}

// BoundingBox ...
func (c Cuboid) BoundingBox() cube.Box {
	return c.box
}

// Volume ...
func (c Cuboid) Volume() int {
	return c.box.Volume()
}

// Positions ...
func (c Cuboid) Positions() iter.Seq[cube.Pos] {
	return positions(c)
}

// Rows ...
func (c Cuboid) Rows() iter.Seq[Row] {
	return rows(c)
}

func (c Cuboid) spans(_, _ int, dst []Span) []Span {
	return append(dst, Span{MinX: c.box.Min()[0], MaxX: c.box.Max()[0]})
}

// Shift ...
func (c Cuboid) Shift(off cube.Pos) Region {
	return Cuboid{box: c.box.Translate(off)}
}

// Expand returns a Cuboid grown by the vector passed. Positive components
// move the maximum corner outwards, negative components the minimum corner.
func (c Cuboid) Expand(v cube.Pos) Cuboid {
	lo, hi := c.box.Min(), c.box.Max()
	for i := range v {
		if v[i] > 0 {
			hi[i] += v[i]
		} else {
			lo[i] += v[i]
		}
	}
	return Cuboid{box: cube.NewBox(lo, hi)}
}

// Contract returns a Cuboid shrunk by the vector passed. Positive components
// move the minimum corner inwards, negative components the maximum corner.
// An axis is never shrunk below a single block.
func (c Cuboid) Contract(v cube.Pos) Cuboid {
	lo, hi := c.box.Min(), c.box.Max()
	for i := range v {
		if v[i] > 0 {
			lo[i] = min(lo[i]+v[i], hi[i])
		} else {
			hi[i] = max(hi[i]+v[i], lo[i])
		}
	}
	return Cuboid{box: cube.NewBox(lo, hi)}
}

// String ...
func (c Cuboid) String() string {
	return fmt.Sprintf("cuboid %v", c.box)
}
