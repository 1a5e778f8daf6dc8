// Package region implements the geometric selections edits operate on. A
// Region is an immutable predicate over integer block positions that knows
// its bounding box, its exact volume and how to enumerate its positions in a
// deterministic order.
package region

import (
	"context"
	"fmt"
	"iter"

	"github.com/df-mc/worldedit/server/block/cube"
)

// Region is a set of block positions. Implementations are immutable and safe
// for concurrent use.
type Region interface {
	// Contains checks if pos is part of the Region.
	Contains(pos cube.Pos) bool
	// BoundingBox returns the smallest box holding every position of the
	// Region.
	BoundingBox() cube.Box
	// Volume returns the exact number of positions in the Region.
	Volume() int
	// Positions returns all positions of the Region, ordered by y first, then
	// z, then x. The sequence may be iterated more than once.
	Positions() iter.Seq[cube.Pos]
	// Rows returns every y/z row of the bounding box of the Region in the
	// same order as Positions, with the x spans the Region covers in it.
	Rows() iter.Seq[Row]
	// Shift returns a copy of the Region moved by off.
	Shift(off cube.Pos) Region
	fmt.Stringer
}

// InvalidRegionError is returned when a Region is constructed from malformed
// geometry.
type InvalidRegionError struct {
	Shape  string
	Reason string
}

// Error ...
func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("invalid %s region: %s", e.Shape, e.Reason)
}

func invalid(shape, format string, a ...any) error {
	return &InvalidRegionError{Shape: shape, Reason: fmt.Sprintf(format, a...)}
}

// CheckBounds returns an *InvalidRegionError if r holds positions outside
// the coordinates edits can address.
func CheckBounds(r Region) error {
	shape := "custom"
	switch r.(type) {
	case Cuboid:
		shape = "cuboid"
	case Cylinder:
		shape = "cylinder"
	case Polygon:
		shape = "polygon"
	case Convex:
		shape = "convex"
	}
	return checkBounds(shape, r.BoundingBox())
}

func checkBounds(shape string, box cube.Box) error {
	if !box.Packable() {
		return invalid(shape, "%v exceeds x/z %d..%d or y %d..%d", box,
			cube.MinPackedXZ, cube.MaxPackedXZ, cube.MinPackedY, cube.MaxPackedY)
	}
	return nil
}

// Span is a run of positions in a single row of a Region: every x from MinX
// to MaxX, both inclusive.
type Span struct {
	MinX, MaxX int
}

// Len returns the number of positions in the Span.
func (s Span) Len() int {
	return s.MaxX - s.MinX + 1
}

// Row is a single y/z row of the bounding box of a Region, holding the spans
// of x coordinates the Region covers in that row. Spans is empty for rows
// the Region does not touch. Spans is only valid until the next Row is
// produced.
type Row struct {
	Y, Z  int
	Spans []Span
}

// Len returns the number of positions in the Row.
func (r Row) Len() int {
	n := 0
	for _, s := range r.Spans {
		n += s.Len()
	}
	return n
}

// spanner is implemented by the shapes of this package. spans appends the
// spans of the row at y, z to dst in ascending x order. Producing a row
// costs a fixed amount of work per shape, independent of its width.
type spanner interface {
	Region
	spans(y, z int, dst []Span) []Span
}

// rows returns every row of the bounding box of r, ordered by y first, then
// z.
func rows(r spanner) iter.Seq[Row] {
	return func(yield func(Row) bool) {
		b := r.BoundingBox()
		lo, hi := b.Min(), b.Max()
		var buf []Span
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				buf = r.spans(y, z, buf[:0])
				if !yield(Row{Y: y, Z: z, Spans: buf}) {
					return
				}
			}
		}
	}
}

// positions returns the canonical position sequence of r.
func positions(r Region) iter.Seq[cube.Pos] {
	return func(yield func(cube.Pos) bool) {
		for row := range r.Rows() {
			for _, s := range row.Spans {
				for x := s.MinX; x <= s.MaxX; x++ {
					if !yield(cube.Pos{x, row.Y, row.Z}) {
						return
					}
				}
			}
		}
	}
}

// prismVolume counts the positions of a shape whose rows do not depend on y,
// by counting a single layer at y.
func prismVolume(r spanner, y int) int {
	b := r.BoundingBox()
	n := 0
	var buf []Span
	for z := b.Min()[2]; z <= b.Max()[2]; z++ {
		buf = r.spans(y, z, buf[:0])
		n += Row{Spans: buf}.Len()
	}
	return n * (b.Max()[1] - b.Min()[1] + 1)
}

// Count counts the positions of r like Region.Volume, checking ctx every
// interval rows so that counting a large, sparse Region can be cancelled.
// If interval is zero or lower, ctx is checked every 4096 rows.
func Count(ctx context.Context, r Region, interval int) (int, error) {
	if c, ok := r.(Cuboid); ok {
		return c.Volume(), ctx.Err()
	}
	if interval <= 0 {
		interval = 4096
	}
	n, visited := 0, 0
	for row := range r.Rows() {
		if visited%interval == 0 {
			if err := ctx.Err(); err != nil {
				return n, err
			}
		}
		visited++
		n += row.Len()
	}
	return n, nil
}

// Equal checks if two regions hold exactly the same positions.
func Equal(a, b Region) bool {
	if a.BoundingBox() != b.BoundingBox() || a.Volume() != b.Volume() {
		return false
	}
	for pos := range a.Positions() {
		if !b.Contains(pos) {
			return false
		}
	}
	return true
}
