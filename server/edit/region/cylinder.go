package region

import (
	"fmt"
	"iter"
	"math"

	"github.com/df-mc/worldedit/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
)

// Cylinder is an upright cylinder. Its base is centred on the centre
// position and it extends height blocks upwards.
type Cylinder struct {
	center cube.Pos
	radius float64
	height int
	box    cube.Box
}

// NewCylinder creates a Cylinder. The radius must be positive and the height
// at least one block.
func NewCylinder(center cube.Pos, radius float64, height int) (Cylinder, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return Cylinder{}, invalid("cylinder", "radius %v must be positive", radius)
	}
	if height < 1 {
		return Cylinder{}, invalid("cylinder", "height %d must be at least 1", height)
	}
	if radius > cube.MaxPackedXZ || height > cube.MaxPackedY-cube.MinPackedY+1 {
		return Cylinder{}, invalid("cylinder", "radius %v or height %d too large", radius, height)
	}
	r := int(math.Floor(radius))
	box := cube.NewBox(
		cube.Pos{center[0] - r, center[1], center[2] - r},
		cube.Pos{center[0] + r, center[1] + height - 1, center[2] + r},
	)
	if err := checkBounds("cylinder", box); err != nil {
		return Cylinder{}, err
	}
	return Cylinder{center: center, radius: radius, height: height, box: box}, nil
}

// Center returns the centre of the base of the Cylinder.
func (c Cylinder) Center() cube.Pos { return c.center }

// Radius returns the radius of the Cylinder.
func (c Cylinder) Radius() float64 { return c.radius }

// Height returns the height of the Cylinder in blocks.
func (c Cylinder) Height() int { return c.height }

func (c Cylinder) inside(x, z int) bool {
	d := mgl64.Vec2{float64(x - c.center[0]), float64(z - c.center[2])}
	return d.LenSqr() <= c.radius*c.radius
}

// Contains ...
func (c Cylinder) Contains(pos cube.Pos) bool {
	if pos[1] < c.center[1] || pos[1] >= c.center[1]+c.height {
		return false
	}
	return c.inside(pos[0], pos[2])
}

// BoundingBox ...
func (c Cylinder) BoundingBox() cube.Box {
	return c.box
}

// Volume ...
func (c Cylinder) Volume() int {
	return prismVolume(c, c.center[1])
}

// Positions ...
func (c Cylinder) Positions() iter.Seq[cube.Pos] {
	return positions(c)
}

// Rows ...
func (c Cylinder) Rows() iter.Seq[Row] {
	return rows(c)
}

// spans returns the chord of the base circle at z. The width estimated from
// the square root is corrected against inside, so both agree exactly.
func (c Cylinder) spans(y, z int, dst []Span) []Span {
	if y < c.center[1] || y >= c.center[1]+c.height {
		return dst
	}
	dz := float64(z - c.center[2])
	rem := c.radius*c.radius - dz*dz
	if rem < 0 {
		return dst
	}
	w := int(math.Floor(math.Sqrt(rem)))
	for c.inside(c.center[0]+w+1, z) {
		w++
	}
	for w >= 0 && !c.inside(c.center[0]+w, z) {
		w--
	}
	if w < 0 {
		return dst
	}
	return append(dst, Span{MinX: c.center[0] - w, MaxX: c.center[0] + w})
}

// Shift ...
func (c Cylinder) Shift(off cube.Pos) Region {
	c.center = c.center.Add(off)
	c.box = c.box.Translate(off)
	return c
}

// String ...
func (c Cylinder) String() string {
	return fmt.Sprintf("cylinder centre %v radius %v height %d", c.center, c.radius, c.height)
}
